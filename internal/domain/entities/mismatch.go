package entities

// Mismatch kinds, one per correlation rule.
const (
	MismatchPharmacyClaimsHospitalServices = "pharmacy_claims_hospital_services"
	MismatchDentistNonDentalServices       = "dentist_non_dental_services"
	MismatchHospitalNoClinical             = "hospital_no_clinical"
	MismatchSpecialtyNoMatchingProcedure   = "specialty_no_matching_procedure"
	MismatchRichContactNoClinical          = "rich_contact_no_clinical"
	MismatchClinicDescribedAsHospitalLevel = "clinic_described_as_hospital_level"
)

// Mismatch is one detected inconsistency between a facility's declared
// type/specialty and its declared services.
type Mismatch struct {
	Kind        string
	Description string
}

// FlaggedFacility pairs a record with its mismatches.
type FlaggedFacility struct {
	Facility   *Facility
	Mismatches []Mismatch
}
