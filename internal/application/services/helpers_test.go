package services_test

import (
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

// newFacility builds a record from column values, mirroring how the dataset
// store maps a CSV row.
func newFacility(raw map[string]string) *entities.Facility {
	return &entities.Facility{
		ID: "test",

		Name:             raw[entities.ColName],
		Description:      raw[entities.ColDescription],
		FacilityType:     raw[entities.ColFacilityType],
		OrganizationType: raw[entities.ColOrganizationType],
		Specialties:      raw[entities.ColSpecialties],
		Procedure:        raw[entities.ColProcedure],
		Equipment:        raw[entities.ColEquipment],
		Capability:       raw[entities.ColCapability],
		Capacity:         raw[entities.ColCapacity],

		AddressLine1: raw[entities.ColAddressLine1],
		AddressLine2: raw[entities.ColAddressLine2],
		City:         raw[entities.ColCity],
		Region:       raw[entities.ColRegion],
		Country:      raw[entities.ColCountry],

		PhoneNumbers: raw[entities.ColPhoneNumbers],
		Email:        raw[entities.ColEmail],
		Websites:     raw[entities.ColWebsites],

		Latitude:  raw[entities.ColLatitude],
		Longitude: raw[entities.ColLongitude],

		Raw: raw,
	}
}

// fullFacility is a record with every checklist field present.
func fullFacility() *entities.Facility {
	return newFacility(map[string]string{
		entities.ColName:             "Korle Bu Teaching Hospital",
		entities.ColDescription:      "Major teaching hospital providing tertiary care.",
		entities.ColFacilityType:     "hospital",
		entities.ColOrganizationType: "public",
		entities.ColSpecialties:      `["cardiology", "generalSurgery"]`,
		entities.ColProcedure:        "Cardiac surgery, dialysis and imaging",
		entities.ColEquipment:        "MRI, CT scanner",
		entities.ColCapability:       "ICU, emergency care, surgical theatres",
		entities.ColCapacity:         "2000",
		entities.ColAddressLine1:     "Guggisberg Avenue",
		entities.ColCity:             "Accra",
		entities.ColRegion:           "Greater Accra",
		entities.ColCountry:          "Ghana",
		entities.ColPhoneNumbers:     "+233302739510",
		entities.ColEmail:            "info@kbth.gov.gh",
		entities.ColWebsites:         "https://kbth.gov.gh",
	})
}

// emptyFacility is a record with every field empty. The raw map carries the
// standard columns so presence checks see the dataset shape.
func emptyFacility() *entities.Facility {
	raw := map[string]string{}
	for _, col := range []string{
		entities.ColName, entities.ColDescription, entities.ColFacilityType,
		entities.ColOrganizationType, entities.ColSpecialties, entities.ColProcedure,
		entities.ColEquipment, entities.ColCapability, entities.ColCapacity,
		entities.ColAddressLine1, entities.ColCity, entities.ColRegion,
		entities.ColCountry, entities.ColPhoneNumbers, entities.ColEmail,
		entities.ColWebsites,
	} {
		raw[col] = ""
	}
	return newFacility(raw)
}
