package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/zatekoja/facilityinsight/internal/domain/entities"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IntentService converts a raw question into a typed query shape. Matchers
// run in a fixed priority order and the first hit wins; later patterns
// assume the earlier ones did not match (the "within X km" shape must be
// tried before the generic "in <place>" shape).
type IntentService struct{}

// NewIntentService creates a query intent parser.
func NewIntentService() *IntentService {
	return &IntentService{}
}

var (
	shapeCounterOnce sync.Once
	shapeCounter     metric.Int64Counter
)

func initShapeCounter() {
	meter := otel.Meter("github.com/zatekoja/facilityinsight/intent")
	counter, err := meter.Int64Counter(
		"engine.query.shape.count",
		metric.WithDescription("Count of questions per recognized query shape"),
	)
	if err == nil {
		shapeCounter = counter
	}
}

func recordShape(kind entities.QueryKind) {
	shapeCounterOnce.Do(initShapeCounter)
	if shapeCounter == nil {
		return
	}
	shapeCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("engine.query.kind", string(kind))))
}

// Classify parses the question into a Query. Every question classifies;
// unrecognized ones fall through to the generic keyword-search shape.
func (s *IntentService) Classify(question string) entities.Query {
	q := strings.ToLower(strings.TrimSpace(question))

	matchers := []func(string) *entities.Query{
		parseHighestRiskInRegion,
		parseRiskReport,
		parseAbnormalPatterns,
		parseUnrealisticProcedures,
		parseFacilityServices,
		parseCareNearMe,
		parseWherePracticing,
		parseClaimButLack,
		parseRegionsLacking,
		parseWithinKm,
		parseCapabilityInPlace,
		parseInPlace,
	}
	for _, match := range matchers {
		if parsed := match(q); parsed != nil {
			parsed.RawText = question
			recordShape(parsed.Kind)
			return *parsed
		}
	}

	facilityType, keywords := parseTypeAndKeywords(q)
	if len(keywords) == 0 {
		for _, w := range strings.Fields(question) {
			if len(w) > 3 {
				keywords = append(keywords, w)
			}
			if len(keywords) == 3 {
				break
			}
		}
	}
	if len(keywords) == 0 {
		keywords = []string{"cardiology"}
	}
	recordShape(entities.KindKeywordSearch)
	return entities.Query{
		Kind:         entities.KindKeywordSearch,
		RawText:      question,
		FacilityType: facilityType,
		Keywords:     keywords,
	}
}

// CanAnswer reports whether the question matches any recognized shape or
// one of the generic trigger phrases.
func (s *IntentService) CanAnswer(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	matchers := []func(string) *entities.Query{
		parseHighestRiskInRegion,
		parseAbnormalPatterns,
		parseRiskReport,
		parseUnrealisticProcedures,
		parseFacilityServices,
		parseWithinKm,
		parseCareNearMe,
		parseWherePracticing,
		parseInPlace,
		parseClaimButLack,
		parseCapabilityInPlace,
		parseRegionsLacking,
	}
	for _, match := range matchers {
		if match(q) != nil {
			return true
		}
	}
	for _, phrase := range []string{
		"how many", "which facilities", "which hospitals", "which clinics",
		"facilities with", "hospitals with", "list facilities",
		"where is", "where are", "claim", "lack", "any .* in .* that",
	} {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// --- highest-risk in region ---

var (
	highestRiskNPattern = regexp.MustCompile(`(?:identify|find|list|the)\s+(?:top\s+)?(\d+)\s+(?:highest-risk|highest risk)`)

	highestRiskRegionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`in the (\w+(?:\s+\w+)?)\s+region`),
		regexp.MustCompile(`in (\w+(?:\s+\w+)?)\s+region`),
		regexp.MustCompile(`in the (\w+(?:\s+\w+)?)\s*\.?\s*$`),
		regexp.MustCompile(`in (\w+(?:\s+\w+)?)\s*\.?\s*$`),
	}
)

// Capability term → search keywords for the highest-risk shape.
var highestRiskCapabilities = []struct {
	term     string
	keywords []string
}{
	{"cardiac", []string{"cardiac", "cardiology", "heart"}},
	{"dialysis", []string{"dialysis"}},
	{"maternity", []string{"maternity", "obstetric", "prenatal", "gynecolog"}},
	{"surgery", []string{"surgery", "surgical"}},
	{"emergency", []string{"emergency"}},
}

func parseHighestRiskInRegion(q string) *entities.Query {
	if !strings.Contains(q, "highest-risk") && !strings.Contains(q, "highest risk") {
		return nil
	}
	if !strings.Contains(q, "facilities") && !strings.Contains(q, "hospitals") {
		return nil
	}
	n := 3
	if m := highestRiskNPattern.FindStringSubmatch(q); m != nil {
		if parsed, err := strconv.Atoi(m[1]); err == nil {
			n = parsed
		}
	}
	region := ""
	for _, pattern := range highestRiskRegionPatterns {
		if m := pattern.FindStringSubmatch(q); m != nil {
			region = strings.TrimSpace(m[1])
			break
		}
	}
	if region == "" {
		return nil
	}
	keywords := []string{"cardiac", "cardiology", "heart"}
	for _, entry := range highestRiskCapabilities {
		if strings.Contains(q, entry.term) {
			keywords = entry.keywords
			break
		}
	}
	return &entities.Query{
		Kind:     entities.KindHighestRiskInRegion,
		TopN:     n,
		Keywords: keywords,
		Region:   region,
	}
}

// --- risk report ---

func parseRiskReport(q string) *entities.Query {
	if !containsAny(q, []string{"risk", "tier", "data completeness", "verification"}) {
		return nil
	}
	focus := entities.RiskFocusSummary
	switch {
	case strings.Contains(q, "tier d") || strings.Contains(q, "worst documented"):
		focus = entities.RiskFocusTierD
	case strings.Contains(q, "tier c"):
		focus = entities.RiskFocusTierC
	case containsAny(q, []string{"high risk", "red risk", "critical risk", "facilities with high risk"}):
		focus = entities.RiskFocusHighRisk
	}
	return &entities.Query{Kind: entities.KindRiskReport, RiskFocus: focus}
}

// --- abnormal patterns ---

var abnormalPhrases = []string{
	"abnormal patterns",
	"correlated features don't match",
	"correlated features do not match",
	"expected correlated",
	"features don't match",
	"mismatch",
	"inconsistent",
	"don't match",
}

func parseAbnormalPatterns(q string) *entities.Query {
	if !containsAny(q, abnormalPhrases) {
		return nil
	}
	return &entities.Query{Kind: entities.KindAbnormalPatterns}
}

// --- procedure/size outliers ---

var unrealisticPhrases = []string{
	"unrealistic number of procedures",
	"procedures relative to their size",
	"procedures relative to size",
	"too many procedures for",
	"claim an unrealistic",
}

func parseUnrealisticProcedures(q string) *entities.Query {
	if !containsAny(q, unrealisticPhrases) {
		return nil
	}
	return &entities.Query{Kind: entities.KindProcedureOutliers}
}

// --- facility services ---

var facilityServicesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`what services does (.+?) offer`),
	regexp.MustCompile(`what does (.+?) offer`),
	regexp.MustCompile(`what services (.+?) offer`),
	regexp.MustCompile(`services (.+?) offer`),
	regexp.MustCompile(`what (.+?) offer`),
}

func parseFacilityServices(q string) *entities.Query {
	for _, pattern := range facilityServicesPatterns {
		if m := pattern.FindStringSubmatch(q); m != nil {
			return &entities.Query{
				Kind:         entities.KindFacilityServices,
				FacilityName: strings.TrimSpace(m[1]),
			}
		}
	}
	return nil
}

// --- care near me ---

// Care phrases → search keywords.
var careTriggers = []struct {
	triggers []string
	keywords []string
}{
	{
		[]string{"pregnant", "pregnancy", "maternity", "prenatal", "antenatal", "obstetric", "delivery", "birth"},
		[]string{"maternity", "prenatal", "antenatal", "obstetric", "gynecology"},
	},
	{
		[]string{"child", "pediatric", "paediatric", "baby", "infant"},
		[]string{"pediatrics", "paediatric"},
	},
	{
		[]string{"heart", "cardiac", "cardiology"},
		[]string{"cardiology", "cardiac"},
	},
	{
		[]string{"dialysis", "kidney"},
		[]string{"dialysis"},
	},
	{
		[]string{"mental", "psychiatry", "psychiatric"},
		[]string{"psychiatry", "mental"},
	},
	{
		[]string{"eye", "vision", "ophthalmology"},
		[]string{"ophthalmology"},
	},
}

var carePlacePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:i )?live in ([a-z\s\-]+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?:i'?m )?in ([a-z\s\-]+?)(?:\?|\.|$)`),
	regexp.MustCompile(`based in ([a-z\s\-]+?)(?:\?|\.|$)`),
	regexp.MustCompile(`(?:in|near) (accra|kumasi|tamale|takoradi|cape coast|sunyani|bolgatanga|ho|wa|techiman)\b`),
}

func parseCareNearMe(q string) *entities.Query {
	var keywords []string
	for _, entry := range careTriggers {
		if containsAny(q, entry.triggers) {
			keywords = entry.keywords
			break
		}
	}
	if keywords == nil {
		return nil
	}
	place := ""
	for _, pattern := range carePlacePatterns {
		if m := pattern.FindStringSubmatch(q); m != nil {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) > 1 {
				place = candidate
				break
			}
		}
	}
	if place == "" {
		return nil
	}
	return &entities.Query{
		Kind:     entities.KindCareNearMe,
		Keywords: keywords,
		Place:    place,
	}
}

// --- where practicing ---

var wherePracticingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`workforce for (\w+)`),
	regexp.MustCompile(`where (?:is|are) .*?(\w+)(?:\s+actually)?\s+practicing`),
	regexp.MustCompile(`where (?:is|are) (\w+) (?:practicing|located|offered|available)`),
	regexp.MustCompile(`(\w+)\s+(?:practicing|located|offered)`),
}

var wherePracticingStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "how": {},
}

var medicalFallbackTerms = []string{
	"cardiology", "dialysis", "maternity", "pediatrics", "surgery",
	"psychiatry", "ophthalmology", "radiology",
}

func parseWherePracticing(q string) *entities.Query {
	if !strings.Contains(q, "where") {
		return nil
	}
	if !containsAny(q, []string{"practicing", "located", "offered", "available", "workforce"}) {
		return nil
	}
	for _, pattern := range wherePracticingPatterns {
		if m := pattern.FindStringSubmatch(q); m != nil {
			kw := strings.TrimSpace(m[1])
			if _, stop := wherePracticingStopwords[kw]; len(kw) > 2 && !stop {
				return &entities.Query{Kind: entities.KindWherePracticing, Keywords: []string{kw}}
			}
		}
	}
	for _, term := range medicalFallbackTerms {
		if strings.Contains(q, term) {
			return &entities.Query{Kind: entities.KindWherePracticing, Keywords: []string{term}}
		}
	}
	return nil
}

// --- claim but lack ---

// Required-equipment terms per claimed service when the question says
// "lack equipment".
var claimLackDefaults = map[string][]string{
	"surgery":   {"operating", "theatre", "theater", "or room", "surgical", "operation room", "operating room"},
	"dialysis":  {"dialysis", "hemodialysis", "dialys"},
	"maternity": {"delivery", "maternity", "obstetric", "labour", "labor"},
}

var claimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`offer\s+(\w+(?:\s+\w+)?)\s+but`),
	regexp.MustCompile(`claim to offer\s+(\w+(?:\s+\w+)?)\s+but`),
	regexp.MustCompile(`(\w+)\s+but lack`),
}

func parseClaimButLack(q string) *entities.Query {
	if !strings.Contains(q, "claim") && !strings.Contains(q, "but lack") && !strings.Contains(q, "lack the") {
		return nil
	}
	var claimKw []string
	for _, pattern := range claimPatterns {
		if m := pattern.FindStringSubmatch(q); m != nil {
			claimKw = []string{strings.ToLower(strings.TrimSpace(m[1]))}
			break
		}
	}
	if claimKw == nil && strings.Contains(q, "surgery") {
		claimKw = []string{"surgery", "surgical"}
	}
	if claimKw == nil {
		return nil
	}
	var lackKw []string
	if strings.Contains(q, "equipment") {
		service := ""
		switch {
		case strings.Contains(q, "surgery") || strings.Contains(q, "surgical"):
			service = "surgery"
		case strings.Contains(q, "dialysis"):
			service = "dialysis"
		case strings.Contains(q, "maternity"):
			service = "maternity"
		}
		if terms, ok := claimLackDefaults[service]; ok {
			lackKw = terms
		} else {
			lackKw = []string{"equipment"}
		}
	}
	if lackKw == nil {
		lackKw = claimLackDefaults["surgery"]
	}
	return &entities.Query{
		Kind:      entities.KindClaimButLack,
		Keywords:  claimKw,
		LackTerms: lackKw,
	}
}

// --- regions lacking ---

var regionsLackPattern = regexp.MustCompile(`regions?\s+(?:that\s+)?lack\s+(.+?)\??\s*$`)

func parseRegionsLacking(q string) *entities.Query {
	if !strings.Contains(q, "which region") && !strings.Contains(q, "regions lack") && !strings.Contains(q, "regions that lack") {
		return nil
	}
	m := regionsLackPattern.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	cap := strings.TrimSpace(m[1])
	var keywords []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(cap), -1) {
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
		if len(keywords) == 3 {
			break
		}
	}
	if len(keywords) == 0 {
		if len(cap) > 30 {
			cap = cap[:30]
		}
		keywords = []string{cap}
	}
	return &entities.Query{Kind: entities.KindRegionsLacking, Keywords: keywords}
}

// --- within km ---

var withinKmPattern = regexp.MustCompile(`within\s+(\d+(?:\.\d+)?)\s*km\s+of\s+(\w+(?:\s+\w+)?)`)

func parseWithinKm(q string) *entities.Query {
	m := withinKmPattern.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	radius, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &entities.Query{
		Kind:     entities.KindWithinKm,
		RadiusKm: radius,
		Place:    strings.TrimSpace(m[2]),
	}
}

// --- facility type in place with capability ---

var capabilityInPlacePattern = regexp.MustCompile(
	`(?:any\s+)?(hospitals?|clinics?|pharmacies)\s+in\s+(\w+(?:\s+\w+)?)\s+that\s+(?:do|offer|have|provide)\s+(.+?)\??\s*$`)

func parseCapabilityInPlace(q string) *entities.Query {
	m := capabilityInPlacePattern.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	ft := normalizeFacilityType(m[1])
	place := strings.TrimSpace(m[2])
	capText := strings.TrimSpace(m[3])
	var keywords []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(capText), -1) {
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
		if len(keywords) == 5 {
			break
		}
	}
	if len(keywords) == 0 {
		if len(capText) > 50 {
			capText = capText[:50]
		}
		keywords = []string{capText}
	}
	return &entities.Query{
		Kind:         entities.KindCapabilityInPlace,
		FacilityType: ft,
		Place:        place,
		Keywords:     keywords,
	}
}

// --- in place ---

var inPlacePatterns = []*regexp.Regexp{
	regexp.MustCompile(`how many (hospitals|clinics|pharmacies) (?:are )?in (\w+(?:\s+\w+)?)\??\s*$`),
	regexp.MustCompile(`(hospitals|clinics|pharmacies) in (\w+(?:\s+\w+)?)\??\s*$`),
	regexp.MustCompile(`in (accra|kumasi|tamale|takoradi|cape coast|sunyani|bolgatanga|greater accra|ashanti|eastern|western)\??\s*$`),
	regexp.MustCompile(`in (\w+)\??\s*$`),
}

func parseInPlace(q string) *entities.Query {
	// Shapes matched earlier in the cascade also end in "in <place>".
	if parseCareNearMe(q) != nil || parseWherePracticing(q) != nil || parseCapabilityInPlace(q) != nil {
		return nil
	}
	for _, pattern := range inPlacePatterns {
		m := pattern.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		var facilityType, place string
		if len(m) == 3 {
			facilityType = normalizeFacilityType(m[1])
			place = strings.TrimSpace(m[2])
		} else {
			facilityType = sniffFacilityType(q)
			place = strings.TrimSpace(m[1])
		}
		if len(place) > 1 {
			return &entities.Query{
				Kind:         entities.KindInPlace,
				FacilityType: facilityType,
				Place:        place,
			}
		}
	}
	return nil
}

// --- generic keyword extraction ---

var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`how many \w+ have (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`which \w+ have (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`facilities with (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`have (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`with (\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(\w+(?:\s+\w+)?)\s*\??\s*$`),
}

func parseTypeAndKeywords(q string) (string, []string) {
	facilityType := sniffFacilityType(q)
	for _, pattern := range keywordPatterns {
		if m := pattern.FindStringSubmatch(q); m != nil {
			cap := strings.TrimSpace(m[1])
			if len(cap) > 2 {
				return facilityType, []string{cap}
			}
		}
	}
	return facilityType, nil
}

func sniffFacilityType(q string) string {
	switch {
	case strings.Contains(q, "hospital"):
		return "hospital"
	case strings.Contains(q, "clinic"):
		return "clinic"
	case strings.Contains(q, "pharmacy"):
		return "pharmacy"
	}
	return ""
}

func normalizeFacilityType(ft string) string {
	ft = strings.ToLower(strings.TrimSpace(ft))
	switch ft {
	case "hospitals":
		return "hospital"
	case "clinics":
		return "clinic"
	case "pharmacies":
		return "pharmacy"
	}
	return strings.TrimSuffix(ft, "s")
}
