package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/facilityinsight/internal/application/services"
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

func TestSearchService_Search(t *testing.T) {
	svc := services.NewSearchService()

	cardio := newFacility(map[string]string{
		entities.ColName:         "Accra Heart Centre",
		entities.ColFacilityType: "hospital",
		entities.ColSpecialties:  `["cardiology"]`,
		entities.ColCapability:   "Cardiac catheterization lab",
	})
	dental := newFacility(map[string]string{
		entities.ColName:         "Smile Dental Clinic",
		entities.ColFacilityType: "clinic",
		entities.ColProcedure:    "Tooth extraction, cleaning",
	})
	records := []*entities.Facility{cardio, dental}

	t.Run("returns only records mentioning a keyword", func(t *testing.T) {
		out := svc.Search(records, []string{"cardiology"}, "", "")

		assert.Len(t, out, 1)
		assert.Equal(t, "Accra Heart Centre", out[0].Name)
	})

	t.Run("any keyword matches", func(t *testing.T) {
		out := svc.Search(records, []string{"nonexistent", "extraction"}, "", "")

		assert.Len(t, out, 1)
		assert.Equal(t, "Smile Dental Clinic", out[0].Name)
	})

	t.Run("facility type filter is exact", func(t *testing.T) {
		out := svc.Search(records, []string{"cardiology"}, "clinic", "")
		assert.Empty(t, out)

		out = svc.Search(records, []string{"cardiology"}, "hospital", "")
		assert.Len(t, out, 1)
	})

	t.Run("keyword in the name alone does not match", func(t *testing.T) {
		named := newFacility(map[string]string{
			entities.ColName: "Cardiology House",
		})

		out := svc.Search([]*entities.Facility{named}, []string{"cardiology"}, "", "")

		assert.Empty(t, out)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		out := svc.Search(records, []string{"CARDIOLOGY"}, "", "")

		assert.Len(t, out, 1)
	})
}

func TestSearchService_SortByRichness(t *testing.T) {
	svc := services.NewSearchService()

	t.Run("richer records come first", func(t *testing.T) {
		sparse := newFacility(map[string]string{entities.ColName: "Sparse"})
		rich := fullFacility()

		out := svc.SortByRichness([]*entities.Facility{sparse, rich}, "")

		assert.Equal(t, rich.Name, out[0].Name)
		assert.Equal(t, "Sparse", out[1].Name)
	})

	t.Run("similarity breaks richness ties", func(t *testing.T) {
		a := newFacility(map[string]string{
			entities.ColName:        "Alpha",
			entities.ColDescription: "General services",
		})
		b := newFacility(map[string]string{
			entities.ColName:        "Beta",
			entities.ColDescription: "Dialysis and dialysis support",
		})

		out := svc.SortByRichness([]*entities.Facility{a, b}, "dialysis")

		assert.Equal(t, "Beta", out[0].Name)
	})

	t.Run("input slice is not modified", func(t *testing.T) {
		sparse := newFacility(map[string]string{entities.ColName: "Sparse"})
		rich := fullFacility()
		in := []*entities.Facility{sparse, rich}

		svc.SortByRichness(in, "")

		assert.Equal(t, "Sparse", in[0].Name)
	})
}

func TestSearchService_SimilarityScore(t *testing.T) {
	svc := services.NewSearchService()

	t.Run("short query words are ignored", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColDescription: "an or at facility",
		})

		assert.Equal(t, 0, svc.SimilarityScore(f, "an or at"))
	})

	t.Run("counts substring occurrences", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColDescription: "dialysis unit with dialysis machines",
		})

		assert.Equal(t, 2, svc.SimilarityScore(f, "dialysis"))
	})
}

func TestSearchService_FindFacilityByName(t *testing.T) {
	svc := services.NewSearchService()

	korleBu := newFacility(map[string]string{entities.ColName: "Korle Bu Teaching Hospital"})
	ridge := newFacility(map[string]string{entities.ColName: "Ridge Hospital"})
	records := []*entities.Facility{korleBu, ridge}

	t.Run("substring match either direction", func(t *testing.T) {
		assert.Same(t, korleBu, svc.FindFacilityByName(records, "korle bu"))
		assert.Same(t, ridge, svc.FindFacilityByName(records, "the Ridge Hospital in Accra"))
	})

	t.Run("token overlap of two or more words", func(t *testing.T) {
		assert.Same(t, korleBu, svc.FindFacilityByName(records, "korle teaching centre"))
	})

	t.Run("first match in record order wins", func(t *testing.T) {
		assert.Same(t, korleBu, svc.FindFacilityByName(records, "hospital teaching"))
	})

	t.Run("no match returns nil", func(t *testing.T) {
		assert.Nil(t, svc.FindFacilityByName(records, "nonexistent place"))
	})
}
