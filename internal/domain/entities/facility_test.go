package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

func TestIsPresent(t *testing.T) {
	present := []string{"cardiology", " 42 ", "[\"a\"]", "0"}
	for _, v := range present {
		assert.True(t, entities.IsPresent(v), v)
	}

	absent := []string{"", "   ", "null", "NULL", "Null", "[]"}
	for _, v := range absent {
		assert.False(t, entities.IsPresent(v), v)
	}
}

func TestFacility_Field(t *testing.T) {
	t.Run("raw value wins over struct field", func(t *testing.T) {
		f := &entities.Facility{
			Name: "Struct Name",
			Raw:  map[string]string{entities.ColName: "Raw Name"},
		}

		assert.Equal(t, "Raw Name", f.Field(entities.ColName))
	})

	t.Run("struct field backs a missing raw column", func(t *testing.T) {
		f := &entities.Facility{City: "Accra"}

		assert.Equal(t, "Accra", f.Field(entities.ColCity))
	})

	t.Run("unknown column is empty", func(t *testing.T) {
		f := &entities.Facility{}

		assert.Empty(t, f.Field("no_such_column"))
	})
}

func TestFacility_HasColumn(t *testing.T) {
	f := &entities.Facility{Raw: map[string]string{"facebook": ""}}

	assert.True(t, f.HasColumn("facebook"))
	assert.False(t, f.HasColumn("twitter"))
	assert.False(t, (&entities.Facility{}).HasColumn("facebook"))
}

func TestFacility_ContentText(t *testing.T) {
	f := &entities.Facility{
		Procedure:   "General Surgery",
		Description: "NULL",
	}

	text := f.ContentText(entities.ColProcedure, entities.ColDescription)

	assert.Equal(t, "general surgery null", text)
}

func TestFacility_Coords(t *testing.T) {
	t.Run("both columns parse", func(t *testing.T) {
		f := &entities.Facility{Latitude: " 5.6037 ", Longitude: "-0.1870"}

		lat, lon, ok := f.Coords()

		require.True(t, ok)
		assert.Equal(t, 5.6037, lat)
		assert.Equal(t, -0.1870, lon)
	})

	t.Run("missing or unparseable values", func(t *testing.T) {
		for _, f := range []*entities.Facility{
			{},
			{Latitude: "5.6"},
			{Latitude: "north", Longitude: "-0.18"},
		} {
			_, _, ok := f.Coords()
			assert.False(t, ok)
		}
	})
}

func TestParseListField(t *testing.T) {
	t.Run("json list", func(t *testing.T) {
		assert.Equal(t, []string{"cardiology", "generalSurgery"},
			entities.ParseListField(`["cardiology", "generalSurgery"]`))
	})

	t.Run("python literal list", func(t *testing.T) {
		assert.Equal(t, []string{"MRI", "CT scanner"},
			entities.ParseListField(`['MRI', 'CT scanner']`))
	})

	t.Run("numbers stringify", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2.5"}, entities.ParseListField(`[1, 2.5]`))
	})

	t.Run("non-list text falls through", func(t *testing.T) {
		assert.Nil(t, entities.ParseListField("Surgery, dialysis and imaging"))
	})

	t.Run("sentinels and empties", func(t *testing.T) {
		for _, v := range []string{"", "null", "[]", "[ , ]"} {
			assert.Nil(t, entities.ParseListField(v), v)
		}
	})
}
