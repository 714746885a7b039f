package entities

// QueryKind identifies the recognized shape of a natural-language question.
type QueryKind string

const (
	KindHighestRiskInRegion QueryKind = "highest_risk_in_region"
	KindRiskReport          QueryKind = "risk_report"
	KindAbnormalPatterns    QueryKind = "abnormal_patterns"
	KindProcedureOutliers   QueryKind = "procedure_size_outliers"
	KindFacilityServices    QueryKind = "facility_services"
	KindCareNearMe          QueryKind = "care_near_me"
	KindWherePracticing     QueryKind = "where_practicing"
	KindClaimButLack        QueryKind = "claim_but_lack"
	KindRegionsLacking      QueryKind = "regions_lacking"
	KindWithinKm            QueryKind = "within_km"
	KindCapabilityInPlace   QueryKind = "capability_in_place"
	KindInPlace             QueryKind = "in_place"
	KindKeywordSearch       QueryKind = "keyword_search"
)

// RiskFocus values for KindRiskReport.
const (
	RiskFocusSummary  = "summary"
	RiskFocusHighRisk = "high_risk"
	RiskFocusTierD    = "tier_d"
	RiskFocusTierC    = "tier_c"
)

// Query is the parsed form of a question: the recognized kind plus the
// parameters that kind carries. Fields not used by a kind stay zero.
type Query struct {
	Kind    QueryKind
	RawText string

	Keywords     []string // capability/specialty search terms
	FacilityType string   // hospital, clinic, pharmacy, ...
	FacilityName string   // KindFacilityServices
	Place        string   // city or place name
	Region       string   // KindHighestRiskInRegion, region filter
	RadiusKm     float64  // KindWithinKm
	TopN         int      // KindHighestRiskInRegion rank count
	RiskFocus    string   // KindRiskReport
	LackTerms    []string // KindClaimButLack required-equipment terms
}
