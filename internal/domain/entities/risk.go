package entities

// RiskResult holds per-facility documentation risk and completeness.
// Scores run 0-100 where 100 means best documented (lowest risk).
type RiskResult struct {
	RiskScore         int
	CompletenessScore int
	RiskBand          string // "High" | "Medium" | "Low"
	RiskColor         string // "Red" | "Yellow" | "Green"
	Tier              string // "A" | "B" | "C" | "D"
	CriticalMissing   []string
	ModerateMissing   []string
	LowMissing        []string
}

// RiskSummary aggregates risk results over the full record set.
type RiskSummary struct {
	TotalFacilities      int
	ByRiskBand           map[string]int
	ByTier               map[string]int
	AvgRiskScore         float64
	AvgCompletenessScore float64
	// Label maps, kept for callers that render the summary.
	RiskBands map[string]string
	Tiers     map[string]string
}
