package services

import (
	"fmt"
	"strings"
)

// schemeTerms maps dataset column names to plain-language explanations drawn
// from the dataset's scheme documentation.
var schemeTerms = map[string]string{
	"specialties":           "Medical specialties (e.g. cardiology, pediatrics, generalSurgery) — from the scheme: 'The medical specialties associated with the organization. Must use exact case-sensitive matches from the specialty hierarchy (e.g., internalMedicine, familyMedicine, pediatrics, cardiology, generalSurgery, emergencyMedicine, gynecologyAndObstetrics, orthopedicSurgery, dentistry, ophthalmology).'",
	"procedure":             "Specific clinical services — from the scheme: 'Medical/surgical interventions and diagnostic procedures (e.g., operations, endoscopy, imaging- or lab-based tests). Each fact a clear, declarative statement; include quantities when available.'",
	"equipment":             "Physical medical devices — from the scheme: 'Imaging machines (MRI/CT/X-ray), surgical/OR technologies, laboratory analyzers, critical utilities (e.g., piped oxygen, backup power). Include specific models when available.'",
	"capability":            "Level and types of clinical care — from the scheme: 'Trauma/emergency care levels, specialized units (ICU/NICU/burn unit), clinical programs (stroke care, IVF), diagnostic capabilities, accreditations, care setting (inpatient/outpatient), staffing, patient capacity. Excludes addresses, contact, hours, pricing.'",
	"facilityTypeId":        "Type of facility — from the scheme: 'Levels: hospital, pharmacy, doctor, clinic, dentist.'",
	"name":                  "Official name of the organization (complete, proper capitalization, no Ltd/LLC/Inc).",
	"address_city":          "City or town of the organization.",
	"address_stateOrRegion": "State, region, or province.",
	"description":           "A brief paragraph describing the facility's services and/or history.",
}

// GlossaryService explains dataset column terminology. Schema text only, no
// external calls.
type GlossaryService struct{}

// NewGlossaryService creates a terminology explainer.
func NewGlossaryService() *GlossaryService {
	return &GlossaryService{}
}

// ExplainTerm returns the scheme explanation for a data term, or "" when the
// term is not in the glossary. Spaces normalize to underscores before lookup.
func (s *GlossaryService) ExplainTerm(term string) string {
	key := strings.ReplaceAll(strings.ToLower(term), " ", "_")
	if v, ok := schemeTerms[key]; ok {
		return v
	}
	for k, v := range schemeTerms {
		if strings.ToLower(k) == key {
			return v
		}
	}
	return ""
}

// ExplainRelevantTerms renders a terminology block for the given columns,
// or "" when none of them have explanations.
func (s *GlossaryService) ExplainRelevantTerms(columns []string) string {
	lines := []string{"**Terminology (Virtue Foundation Scheme):**"}
	for _, col := range columns {
		if ex := s.ExplainTerm(col); ex != "" {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", col, ex))
		}
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}
