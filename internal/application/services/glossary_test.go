package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/facilityinsight/internal/application/services"
)

func TestGlossaryService_ExplainTerm(t *testing.T) {
	svc := services.NewGlossaryService()

	t.Run("known column", func(t *testing.T) {
		assert.Contains(t, svc.ExplainTerm("specialties"), "Medical specialties")
	})

	t.Run("lookup is case insensitive", func(t *testing.T) {
		assert.NotEmpty(t, svc.ExplainTerm("facilityTypeId"))
		assert.NotEmpty(t, svc.ExplainTerm("FACILITYTYPEID"))
	})

	t.Run("spaces normalize to underscores", func(t *testing.T) {
		assert.NotEmpty(t, svc.ExplainTerm("address city"))
	})

	t.Run("unknown term", func(t *testing.T) {
		assert.Empty(t, svc.ExplainTerm("price"))
	})
}

func TestGlossaryService_ExplainRelevantTerms(t *testing.T) {
	svc := services.NewGlossaryService()

	t.Run("renders a block for known columns", func(t *testing.T) {
		out := svc.ExplainRelevantTerms([]string{"specialties", "procedure"})

		assert.Contains(t, out, "**Terminology (Virtue Foundation Scheme):**")
		assert.Contains(t, out, "- **specialties**:")
		assert.Contains(t, out, "- **procedure**:")
	})

	t.Run("empty when no column is known", func(t *testing.T) {
		assert.Empty(t, svc.ExplainRelevantTerms([]string{"price", "rating"}))
	})
}
