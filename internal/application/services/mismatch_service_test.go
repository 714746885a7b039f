package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/facilityinsight/internal/application/services"
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

func TestMismatchService_Mismatches(t *testing.T) {
	svc := services.NewMismatchService()

	kinds := func(mismatches []entities.Mismatch) []string {
		var out []string
		for _, m := range mismatches {
			out = append(out, m.Kind)
		}
		return out
	}

	t.Run("pharmacy claiming surgery is flagged", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColFacilityType: "pharmacy",
			entities.ColProcedure:    "Major surgery, dispensing",
		})

		out := svc.Mismatches(f)

		assert.Contains(t, kinds(out), entities.MismatchPharmacyClaimsHospitalServices)
	})

	t.Run("pharmacy dispensing prescriptions is clean", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColFacilityType: "pharmacy",
			entities.ColProcedure:    "Prescription dispensing, medication counselling",
		})

		assert.Empty(t, svc.Mismatches(f))
	})

	t.Run("dentist listing cardiology without dental context", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColFacilityType: "dentist",
			entities.ColCapability:   "Cardiology consultations",
		})

		out := svc.Mismatches(f)

		assert.Contains(t, kinds(out), entities.MismatchDentistNonDentalServices)
	})

	t.Run("dentist with dental context is not flagged for rule two", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColFacilityType: "dentist",
			entities.ColCapability:   "Dental surgery including general surgery referrals",
		})

		assert.NotContains(t, kinds(svc.Mismatches(f)), entities.MismatchDentistNonDentalServices)
	})

	t.Run("hospital with no clinical text", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColFacilityType: "hospital",
			entities.ColName:         "Mystery Hospital",
		})

		out := svc.Mismatches(f)

		assert.Contains(t, kinds(out), entities.MismatchHospitalNoClinical)
	})

	t.Run("specialty keyword matching combined content is not flagged", func(t *testing.T) {
		// The matched text spans procedure, capability, equipment,
		// description, and specialties combined.
		f := newFacility(map[string]string{
			entities.ColSpecialties: `["cardiology"]`,
			entities.ColProcedure:   "Wound dressing",
		})

		out := svc.Mismatches(f)

		assert.NotContains(t, kinds(out), entities.MismatchSpecialtyNoMatchingProcedure)
	})

	t.Run("surgical counts as a match for the surgery specialty", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColSpecialties: `["generalSurgery"]`,
			entities.ColProcedure:   "Surgical interventions",
		})

		assert.NotContains(t, kinds(svc.Mismatches(f)), entities.MismatchSpecialtyNoMatchingProcedure)
	})

	t.Run("only the first specialty keyword decides", func(t *testing.T) {
		// cardiology matches the content; the later unmatched specialty
		// does not produce a second flag.
		f := newFacility(map[string]string{
			entities.ColSpecialties: `["cardiology", "orthopedicSurgery"]`,
			entities.ColCapability:  "cardiology department",
		})

		assert.NotContains(t, kinds(svc.Mismatches(f)), entities.MismatchSpecialtyNoMatchingProcedure)
	})

	t.Run("rich contact but no clinical data", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColPhoneNumbers: "+233200000000",
			entities.ColEmail:        "clinic@example.com",
		})

		out := svc.Mismatches(f)

		assert.Contains(t, kinds(out), entities.MismatchRichContactNoClinical)
	})

	t.Run("single contact channel is not rich contact", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColPhoneNumbers: "+233200000000",
		})

		assert.Empty(t, svc.Mismatches(f))
	})

	t.Run("clinic described as teaching hospital", func(t *testing.T) {
		f := newFacility(map[string]string{
			entities.ColFacilityType: "clinic",
			entities.ColDescription:  "A teaching hospital serving the region",
		})

		out := svc.Mismatches(f)

		assert.Contains(t, kinds(out), entities.MismatchClinicDescribedAsHospitalLevel)
	})

	t.Run("fully documented record is clean", func(t *testing.T) {
		assert.Empty(t, svc.Mismatches(fullFacility()))
	})
}

func TestMismatchService_FacilitiesWithAbnormalPatterns(t *testing.T) {
	svc := services.NewMismatchService()

	t.Run("keeps input order and skips clean records", func(t *testing.T) {
		first := newFacility(map[string]string{
			entities.ColName:         "First Pharmacy",
			entities.ColFacilityType: "pharmacy",
			entities.ColProcedure:    "Inpatient surgery",
		})
		clean := fullFacility()
		second := newFacility(map[string]string{
			entities.ColName:         "Second Clinic",
			entities.ColFacilityType: "clinic",
			entities.ColDescription:  "National referral clinic, tertiary care",
		})

		out := svc.FacilitiesWithAbnormalPatterns([]*entities.Facility{first, clean, second})

		assert.Len(t, out, 2)
		assert.Equal(t, "First Pharmacy", out[0].Facility.Name)
		assert.Equal(t, "Second Clinic", out[1].Facility.Name)
		assert.NotEmpty(t, out[0].Mismatches)
	})
}
