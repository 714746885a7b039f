package services

import (
	"math"

	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

// Points deducted per missing indicator.
const (
	criticalWeight    = 12
	moderateWeight    = 8
	lowWeightDesc     = 4
	lowWeightSocial   = 4
	lowWeightCapacity = 2 // capacity is almost always missing, don't over-penalize
)

type riskCheck struct {
	name string
	fn   func(*entities.Facility) bool
}

var criticalChecks = []riskCheck{
	{"contact", hasContact},
	{"facility_type", hasFacilityType},
	{"specialties", hasSpecialties},
	{"location", hasLocation},
}

var moderateChecks = []riskCheck{
	{"capability", hasCapability},
	{"operator_type", hasOperatorType},
	{"procedures_equipment", hasProceduresOrEquipment},
	{"complete_address", hasCompleteAddress},
}

var lowChecks = []riskCheck{
	{"description", hasDescription},
	{"social_media", hasSocialMedia},
	{"capacity", hasCapacity},
}

// Fields counted for the completeness percentage. Distinct from the
// critical/moderate/low indicator lists.
var completenessFields = []string{
	entities.ColName, entities.ColDescription, entities.ColCapability,
	entities.ColProcedure, entities.ColEquipment, entities.ColSpecialties,
	entities.ColAddressLine1, entities.ColCity, entities.ColRegion,
	entities.ColCountry, entities.ColPhoneNumbers, entities.ColEmail,
	entities.ColWebsites, entities.ColFacilityType,
	entities.ColOrganizationType, entities.ColCapacity,
}

func hasContact(f *entities.Facility) bool {
	return f.Present(entities.ColPhoneNumbers, entities.ColEmail, entities.ColWebsites)
}

func hasFacilityType(f *entities.Facility) bool {
	return f.Present(entities.ColFacilityType)
}

func hasSpecialties(f *entities.Facility) bool {
	return f.Present(entities.ColSpecialties)
}

func hasLocation(f *entities.Facility) bool {
	return f.Present(entities.ColAddressLine1, entities.ColCity, entities.ColRegion)
}

func hasCapability(f *entities.Facility) bool {
	return f.Present(entities.ColCapability)
}

func hasOperatorType(f *entities.Facility) bool {
	return f.Present(entities.ColOrganizationType)
}

func hasProceduresOrEquipment(f *entities.Facility) bool {
	return f.Present(entities.ColProcedure, entities.ColEquipment)
}

// Complete address needs a region AND a street line or city.
func hasCompleteAddress(f *entities.Facility) bool {
	return f.Present(entities.ColRegion) &&
		f.Present(entities.ColAddressLine1, entities.ColCity)
}

func hasDescription(f *entities.Facility) bool {
	return f.Present(entities.ColDescription)
}

var socialColumns = []string{"social_media", "facebook", "twitter", "instagram", "linkedin"}

// Social presence is auto-satisfied when the dataset carries no social
// columns at all.
func hasSocialMedia(f *entities.Facility) bool {
	any := false
	for _, col := range socialColumns {
		if f.HasColumn(col) {
			any = true
			break
		}
	}
	if !any {
		return true
	}
	return f.Present(socialColumns...)
}

func hasCapacity(f *entities.Facility) bool {
	return f.Present(entities.ColCapacity)
}

// RiskScored pairs a record with its risk result.
type RiskScored struct {
	Facility *entities.Facility
	Result   entities.RiskResult
}

// RiskService scores how completely a facility is documented. Higher score
// means better documented and therefore lower risk.
type RiskService struct{}

// NewRiskService creates a risk scorer.
func NewRiskService() *RiskService {
	return &RiskService{}
}

// ComputeRisk computes the risk score (0-100), completeness (0-100), band,
// color, and tier for one facility.
func (s *RiskService) ComputeRisk(f *entities.Facility) entities.RiskResult {
	var criticalMissing, moderateMissing, lowMissing []string
	for _, check := range criticalChecks {
		if !check.fn(f) {
			criticalMissing = append(criticalMissing, check.name)
		}
	}
	for _, check := range moderateChecks {
		if !check.fn(f) {
			moderateMissing = append(moderateMissing, check.name)
		}
	}
	for _, check := range lowChecks {
		if !check.fn(f) {
			lowMissing = append(lowMissing, check.name)
		}
	}

	deduction := len(criticalMissing)*criticalWeight + len(moderateMissing)*moderateWeight
	for _, name := range lowMissing {
		switch name {
		case "description":
			deduction += lowWeightDesc
		case "social_media":
			deduction += lowWeightSocial
		case "capacity":
			deduction += lowWeightCapacity
		}
	}
	score := 100 - deduction
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	present := 0
	for _, col := range completenessFields {
		if f.Present(col) {
			present++
		}
	}
	completeness := int(math.Round(100 * float64(present) / float64(len(completenessFields))))

	band, color := riskBand(score)

	return entities.RiskResult{
		RiskScore:         score,
		CompletenessScore: completeness,
		RiskBand:          band,
		RiskColor:         color,
		Tier:              tier(len(criticalMissing), len(moderateMissing)),
		CriticalMissing:   criticalMissing,
		ModerateMissing:   moderateMissing,
		LowMissing:        lowMissing,
	}
}

func riskBand(score int) (string, string) {
	if score <= 30 {
		return "High", "Red"
	}
	if score <= 60 {
		return "Medium", "Yellow"
	}
	return "Low", "Green"
}

// Tier depends only on how many critical and moderate indicators are
// missing, not on the numeric score.
func tier(c, m int) string {
	switch {
	case c >= 3:
		return "D"
	case c == 2:
		return "C"
	case c == 1:
		if m >= 2 {
			return "C"
		}
		return "B"
	default:
		if m >= 2 {
			return "B"
		}
		return "A"
	}
}

// ComputeRiskAll scores every record.
func (s *RiskService) ComputeRiskAll(records []*entities.Facility) []RiskScored {
	out := make([]RiskScored, 0, len(records))
	for _, f := range records {
		out = append(out, RiskScored{Facility: f, Result: s.ComputeRisk(f)})
	}
	return out
}

// RiskSummary aggregates counts per band and tier plus averages.
func (s *RiskService) RiskSummary(records []*entities.Facility) entities.RiskSummary {
	results := s.ComputeRiskAll(records)
	byBand := map[string]int{"High": 0, "Medium": 0, "Low": 0}
	byTier := map[string]int{"A": 0, "B": 0, "C": 0, "D": 0}
	totalRisk := 0
	totalCompleteness := 0
	for _, r := range results {
		byBand[r.Result.RiskBand]++
		byTier[r.Result.Tier]++
		totalRisk += r.Result.RiskScore
		totalCompleteness += r.Result.CompletenessScore
	}
	n := len(results)
	summary := entities.RiskSummary{
		TotalFacilities: n,
		ByRiskBand:      byBand,
		ByTier:          byTier,
		RiskBands: map[string]string{
			"0-30":   "High (Red)",
			"31-60":  "Medium (Yellow)",
			"61-100": "Low (Green)",
		},
		Tiers: map[string]string{
			"A": "Best documented",
			"B": "Some gaps",
			"C": "Notable gaps",
			"D": "Critical gaps",
		},
	}
	if n > 0 {
		summary.AvgRiskScore = math.Round(10*float64(totalRisk)/float64(n)) / 10
		summary.AvgCompletenessScore = math.Round(10*float64(totalCompleteness)/float64(n)) / 10
	}
	return summary
}
