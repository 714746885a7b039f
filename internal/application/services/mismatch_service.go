package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

// Pharmacy should not claim surgical/inpatient/hospital-level services.
var pharmacyInconsistent = []string{
	"surgery", "surgical", "operating room", "or theatre", "inpatient", "icu", "nicu",
	"emergency surgery", "major surgery", "laparotomy", "cesarean", "c-section",
}

// Dentist is typically dental only; cardiology or ICU without dental context is odd.
var dentistInconsistent = []string{
	"cardiology", "general surgery", "obstetric", "pediatric ward", "icu", "nicu",
}

// Clinic described at tertiary/referral scale is a size mismatch.
var clinicHospitalLevel = []string{
	"tertiary", "referral center", "teaching hospital", "regional hospital", "national referral",
}

// Specialty keywords that should have a matching term somewhere in the
// clinical text when the specialty is declared.
var specialtyKeywords = []string{
	"cardiology", "surgery", "pediatric", "obstetric", "gynecolog", "orthopedic",
	"ophthalmolog", "dentist", "emergency", "internal medicine", "family medicine",
}

// MismatchService flags facilities whose declared attributes are mutually
// inconsistent. Six independent rules; all may fire on the same record.
type MismatchService struct{}

// NewMismatchService creates a correlation-mismatch detector.
func NewMismatchService() *MismatchService {
	return &MismatchService{}
}

// Mismatches applies every rule to one record.
func (s *MismatchService) Mismatches(f *entities.Facility) []entities.Mismatch {
	var out []entities.Mismatch

	ft := strings.ToLower(strings.TrimSpace(f.FacilityType))
	content := f.ContentText(entities.ColProcedure, entities.ColCapability,
		entities.ColEquipment, entities.ColDescription, entities.ColSpecialties)
	hasCapabilityText := strings.TrimSpace(f.Capability) != ""
	hasProcedureText := strings.TrimSpace(f.Procedure) != ""
	hasSpecialtiesText := strings.TrimSpace(f.Specialties) != ""
	contactCount := 0
	for _, col := range []string{entities.ColPhoneNumbers, entities.ColEmail, entities.ColWebsites} {
		if f.Present(col) {
			contactCount++
		}
	}

	// 1. Pharmacy claiming surgical/inpatient services
	if ft == "pharmacy" && containsAny(f.ContentText(entities.ColProcedure, entities.ColCapability, entities.ColDescription), pharmacyInconsistent) {
		out = append(out, entities.Mismatch{
			Kind:        entities.MismatchPharmacyClaimsHospitalServices,
			Description: "Pharmacy lists surgery/inpatient/ICU-type services.",
		})
	}

	// 2. Dentist listing non-dental major services without dental context
	if ft == "dentist" && containsAny(f.ContentText(entities.ColProcedure, entities.ColCapability), dentistInconsistent) {
		if !strings.Contains(content, "dental") && !strings.Contains(content, "dentist") && !strings.Contains(content, "tooth") {
			out = append(out, entities.Mismatch{
				Kind:        entities.MismatchDentistNonDentalServices,
				Description: "Dentist lists cardiology/surgery/ICU without dental context.",
			})
		}
	}

	// 3. Hospital with no clinical text at all
	if ft == "hospital" && !hasCapabilityText && !hasProcedureText {
		out = append(out, entities.Mismatch{
			Kind:        entities.MismatchHospitalNoClinical,
			Description: "Hospital has no capability or procedure text.",
		})
	}

	// 4. Specialty declared but no matching procedure/capability term.
	// First keyword hit decides; at most one instance per record.
	if hasSpecialtiesText && (hasCapabilityText || hasProcedureText) {
		specialtiesText := strings.ToLower(f.Specialties)
		for _, kw := range specialtyKeywords {
			if strings.Contains(specialtiesText, kw) {
				if !strings.Contains(content, kw) && !(kw == "surgery" && strings.Contains(content, "surgical")) {
					out = append(out, entities.Mismatch{
						Kind:        entities.MismatchSpecialtyNoMatchingProcedure,
						Description: fmt.Sprintf("Specialty suggests '%s' but procedure/capability has no matching terms.", kw),
					})
				}
				break
			}
		}
	}

	// 5. Rich contact but no clinical data
	if contactCount >= 2 && !hasCapabilityText && !hasProcedureText && !hasSpecialtiesText {
		out = append(out, entities.Mismatch{
			Kind:        entities.MismatchRichContactNoClinical,
			Description: "Phone/email/website present but no capability, procedure, or specialties.",
		})
	}

	// 6. Clinic described as tertiary/referral/teaching
	if ft == "clinic" && containsAny(f.ContentText(entities.ColDescription, entities.ColCapability), clinicHospitalLevel) {
		out = append(out, entities.Mismatch{
			Kind:        entities.MismatchClinicDescribedAsHospitalLevel,
			Description: "Clinic described as tertiary/referral/teaching hospital.",
		})
	}

	return out
}

// FacilitiesWithAbnormalPatterns returns every record with at least one
// mismatch, preserving input order.
func (s *MismatchService) FacilitiesWithAbnormalPatterns(records []*entities.Facility) []entities.FlaggedFacility {
	var out []entities.FlaggedFacility
	for _, f := range records {
		if mismatches := s.Mismatches(f); len(mismatches) > 0 {
			out = append(out, entities.FlaggedFacility{Facility: f, Mismatches: mismatches})
		}
	}
	return out
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
