package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	pkgerrors "github.com/zatekoja/facilityinsight/pkg/errors"
)

func TestAppError(t *testing.T) {
	t.Run("error string without cause", func(t *testing.T) {
		err := pkgerrors.NewNotFoundError("unknown place: atlantis")

		assert.Equal(t, "NOT_FOUND: unknown place: atlantis", err.Error())
	})

	t.Run("error string with cause", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := pkgerrors.NewExternalError("geocode lookup failed", cause)

		assert.Equal(t, "EXTERNAL: geocode lookup failed: connection refused", err.Error())
	})

	t.Run("unwrap exposes the cause", func(t *testing.T) {
		cause := stderrors.New("boom")
		err := pkgerrors.NewInternalError("failed", cause)

		assert.ErrorIs(t, err, cause)
	})
}

func TestIsType(t *testing.T) {
	err := pkgerrors.NewDataUnavailableError("no facility CSV found")

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDataUnavailable))
	assert.False(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeNotFound))
	assert.False(t, pkgerrors.IsType(stderrors.New("plain"), pkgerrors.ErrorTypeInternal))

	wrapped := fmt.Errorf("loading dataset: %w", err)
	assert.True(t, pkgerrors.IsType(wrapped, pkgerrors.ErrorTypeDataUnavailable))
}
