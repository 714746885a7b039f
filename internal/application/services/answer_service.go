package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/zatekoja/facilityinsight/internal/adapters/providers/geolocation"
	"github.com/zatekoja/facilityinsight/internal/domain/entities"
	"github.com/zatekoja/facilityinsight/internal/infrastructure/observability"
)

const emptyLabel = "N/A"

// RecordSource loads the facility dataset. Load fails soft: no dataset means
// an empty slice, never an error.
type RecordSource interface {
	Load(ctx context.Context, preferGeocoded bool) (string, []*entities.Facility)
}

// AnswerService turns a question into a rendered markdown answer. It owns
// the dispatch from parsed query shape to the analysis services and the
// text contract of each answer.
type AnswerService struct {
	source   RecordSource
	intent   *IntentService
	risk     *RiskService
	mismatch *MismatchService
	outlier  *OutlierService
	search   *SearchService
	geo      *GeoService
	glossary *GlossaryService
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewAnswerService wires the answer composer. metrics may be nil.
func NewAnswerService(
	source RecordSource,
	intent *IntentService,
	risk *RiskService,
	mismatch *MismatchService,
	outlier *OutlierService,
	search *SearchService,
	geo *GeoService,
	glossary *GlossaryService,
	metrics *observability.Metrics,
) *AnswerService {
	return &AnswerService{
		source:   source,
		intent:   intent,
		risk:     risk,
		mismatch: mismatch,
		outlier:  outlier,
		search:   search,
		geo:      geo,
		glossary: glossary,
		metrics:  metrics,
		logger:   observability.GetLogger().With().Str("component", "answer_service").Logger(),
	}
}

// answerWriter accumulates answer lines. Each line gets a sentence-case
// fixup on its first character.
type answerWriter struct {
	b strings.Builder
}

func (w *answerWriter) line(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	w.b.WriteString(fixSentenceCase(text))
	w.b.WriteByte('\n')
}

func (w *answerWriter) String() string {
	return w.b.String()
}

func fixSentenceCase(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	if unicode.IsLetter(runes[0]) && unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}
	return text
}

// titleWords uppercases the first letter of each word and lowercases the
// rest, for place names and missing-field labels.
func titleWords(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func displayName(f *entities.Facility) string {
	n := strings.TrimSpace(f.Name)
	if n == "" {
		return "Unknown"
	}
	return n
}

// Answer runs the full pipeline for one question and returns the rendered
// answer text.
func (s *AnswerService) Answer(ctx context.Context, question string) string {
	start := time.Now()
	q := s.intent.Classify(question)
	s.logger.Debug().Str("kind", string(q.Kind)).Msg("classified question")

	ctx, span := observability.StartSpan(ctx, "answer."+string(q.Kind))
	defer span.End()

	w := &answerWriter{}
	sourceName, records := s.source.Load(ctx, false)
	if len(records) == 0 {
		w.line("No Ghana CSV found in data/ or Desktop.")
		return w.String()
	}

	switch q.Kind {
	case entities.KindHighestRiskInRegion:
		s.renderHighestRisk(w, q, sourceName, records)
	case entities.KindRiskReport:
		s.renderRiskReport(w, q, records)
	case entities.KindAbnormalPatterns:
		s.renderAbnormalPatterns(w, records)
	case entities.KindProcedureOutliers:
		s.renderProcedureOutliers(w, records)
	case entities.KindFacilityServices:
		s.renderFacilityServices(w, q, records)
	case entities.KindCareNearMe:
		s.renderCareNearMe(w, q, records)
	case entities.KindWherePracticing:
		s.renderWherePracticing(w, q, records)
	case entities.KindClaimButLack:
		s.renderClaimButLack(w, q, records)
	case entities.KindRegionsLacking:
		s.renderRegionsLacking(w, q, records)
	case entities.KindWithinKm:
		s.renderWithinKm(ctx, w, q)
	case entities.KindCapabilityInPlace:
		s.renderCapabilityInPlace(w, q, records)
	case entities.KindInPlace:
		s.renderInPlace(w, q, records)
	default:
		s.renderKeywordSearch(w, q, records)
		if s.metrics != nil {
			s.metrics.UnclassifiedCount.Add(ctx, 1)
		}
	}

	observability.RecordAnswerMetric(ctx, s.metrics, string(q.Kind), time.Since(start))
	return w.String()
}

// CanAnswer reports whether the engine recognizes the question.
func (s *AnswerService) CanAnswer(question string) bool {
	return s.intent.CanAnswer(question)
}

// ExplainTerms renders the terminology block for the dataset columns the
// engine searches.
func (s *AnswerService) ExplainTerms() string {
	return s.glossary.ExplainRelevantTerms([]string{
		entities.ColSpecialties, entities.ColProcedure, entities.ColEquipment,
		entities.ColCapability, entities.ColDescription, entities.ColFacilityType,
	})
}

// --- location predicates ---

func inPlaceCity(f *entities.Facility, place string) bool {
	placeLower := strings.ToLower(place)
	city := strings.ToLower(strings.TrimSpace(f.City))
	region := strings.ToLower(strings.TrimSpace(f.Region))
	if strings.Contains(city, placeLower) || strings.Contains(region, placeLower) {
		return true
	}
	return placeLower == "accra" && strings.Contains(region, "accra")
}

func inRegion(f *entities.Facility, regionName string) bool {
	r := strings.ToLower(strings.TrimSpace(regionName))
	city := strings.ToLower(strings.TrimSpace(f.City))
	state := strings.ToLower(strings.TrimSpace(f.Region))
	if strings.Contains(city, r) || strings.Contains(state, r) {
		return true
	}
	if strings.Contains(r, "accra") {
		return strings.Contains(city, "accra") || strings.Contains(state, "accra") ||
			strings.Contains(state, "greater accra")
	}
	return false
}

// --- ranking ---

// rankFacilities returns the top facilities ordered by documentation
// quality (risk score descending, name ascending), plus the count left out.
func (s *AnswerService) rankFacilities(records []*entities.Facility, limit int, preferHospitals bool) ([]RiskScored, int) {
	if len(records) == 0 {
		return nil, 0
	}
	filtered := records
	if preferHospitals {
		var hospitals []*entities.Facility
		for _, f := range records {
			if strings.EqualFold(strings.TrimSpace(f.FacilityType), "hospital") {
				hospitals = append(hospitals, f)
			}
		}
		if len(hospitals) > 0 {
			filtered = hospitals
		}
	}
	results := s.risk.ComputeRiskAll(filtered)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Result.RiskScore != results[j].Result.RiskScore {
			return results[i].Result.RiskScore > results[j].Result.RiskScore
		}
		return results[i].Facility.Name < results[j].Facility.Name
	})
	if len(results) <= limit {
		return results, 0
	}
	return results[:limit], len(results) - limit
}

func (s *AnswerService) writeRankedList(w *answerWriter, records []*entities.Facility, label string, limit int, preferHospitals bool) {
	top, remaining := s.rankFacilities(records, limit, preferHospitals)
	if len(top) == 0 {
		w.line("No facilities found.")
		return
	}
	w.line("%s", label)
	for _, scored := range top {
		gaps := titledJoin(scored.Result.CriticalMissing)
		if gaps == "" {
			gaps = "None"
		}
		w.line("  - %s — Trust Factor: %s | Risk Factor: %s | Key gaps: %s",
			displayName(scored.Facility), scored.Result.Tier, scored.Result.RiskBand, gaps)
	}
	if remaining > 0 {
		w.line("  ... and %d more options.", remaining)
	}
}

func titledJoin(items []string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, titleWords(item))
	}
	return strings.Join(out, ", ")
}

// --- renderers ---

func (s *AnswerService) renderHighestRisk(w *answerWriter, q entities.Query, sourceName string, records []*entities.Facility) {
	var step1 []*entities.Facility
	for _, f := range records {
		if inRegion(f, q.Region) {
			step1 = append(step1, f)
		}
	}
	w.line("**Answer**")
	w.line("**Step 1 (region filter)** — *Citation: used `address_city` and `address_stateOrRegion` from %s.*", sourceName)
	w.line("  Filtered to facilities in **%s**: **%d** rows.", q.Region, len(step1))
	if len(step1) == 0 {
		w.line("\nNo facilities found in that region. Try another region name (e.g. Greater Accra, Ashanti).")
		return
	}

	step2 := s.search.Search(step1, q.Keywords, "", q.RawText)
	w.line("\n**Step 2 (capability filter)** — *Citation: used `specialties`, `procedure`, `capability`, `description`.*")
	w.line("  Filtered to facilities mentioning **%s**: **%d** facilities.", strings.Join(q.Keywords, ", "), len(step2))
	if len(step2) == 0 {
		w.line("\nNo facilities in %s mention %s in the dataset.", q.Region, q.Keywords[0])
		return
	}

	step3 := s.risk.ComputeRiskAll(step2)
	w.line("\n**Step 3 (risk scoring)** — *Citation: used documentation risk weights (contact, facility type, specialties, location, capability, operator, procedures, address).*")
	w.line("  Computed documentation quality for each of the **%d** facilities.", len(step3))

	// Lowest documentation quality is highest risk.
	sort.SliceStable(step3, func(i, j int) bool {
		return step3[i].Result.RiskScore < step3[j].Result.RiskScore
	})
	n := q.TopN
	if n > len(step3) {
		n = len(step3)
	}
	step4 := step3[:n]
	w.line("\n**Step 4 (ranking)** — *Citation: sorted by documentation quality; took top **%d** (highest risk = lowest documentation).*", q.TopN)
	w.line("\n--- **Top %d highest-risk %s facilities in %s** ---\n", q.TopN, q.Keywords[0], q.Region)

	var allCritical, allModerate []string
	for i, scored := range step4 {
		w.line("**%d. %s**", i+1, displayName(scored.Facility))
		w.line("   Trust Factor: **%s**  |  Risk Factor: **%s**", scored.Result.Tier, scored.Result.RiskBand)
		keyGaps := titledJoin(scored.Result.CriticalMissing)
		if keyGaps == "" {
			keyGaps = "None"
		}
		w.line("   Key gaps: %s", keyGaps)
		extraGaps := titledJoin(scored.Result.ModerateMissing)
		if extraGaps == "" {
			extraGaps = "None"
		}
		w.line("   Additional gaps: %s", extraGaps)
		allCritical = append(allCritical, scored.Result.CriticalMissing...)
		allModerate = append(allModerate, scored.Result.ModerateMissing...)
		w.line("")
	}

	w.line("**Reasoning:**")
	w.line("  We restricted to **%s** (Step 1), then to facilities that list **%s**-related services (Step 2).", q.Region, q.Keywords[0])
	w.line("  Documentation quality was computed from contact info, facility type, specialties, location, capability, operator type, procedures/equipment, and address completeness (Step 3).")
	w.line("  The **%d** facilities with the **lowest** documentation are the highest-risk; they have the most critical/moderate gaps (e.g. no contact, unknown facility type, missing specialties or location).", q.TopN)

	w.line("\n**Recommendation — additional data that would reduce risk the most:**")
	if topCrit := mostCommon(allCritical, 4); len(topCrit) > 0 {
		w.line("  - **Critical:** Collect and add **%s** for these facilities. Each missing critical field costs 12 points; adding contact, facility type, specialties, or location would raise scores the most.", strings.Join(topCrit, ", "))
	}
	if topMod := mostCommon(allModerate, 3); len(topMod) > 0 {
		w.line("  - **Moderate:** Add **%s** where missing (8 points each).", strings.Join(topMod, ", "))
	}
	w.line("\n  Prioritize **contact information** (phone, email, or website) and **facility type** first, then **specialties** and **location** details; that would move the most facilities out of High/Medium risk.")
	w.line("\n*(Step-level citations: each step above states which data was used.)*")
}

// mostCommon returns up to n distinct items ordered by frequency, ties in
// first-seen order.
func mostCommon(items []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		if _, seen := counts[item]; !seen {
			order = append(order, item)
		}
		counts[item]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func formatCountMap(m map[string]int, keyOrder []string) string {
	parts := make([]string, 0, len(m))
	for _, k := range keyOrder {
		if v, ok := m[k]; ok {
			parts = append(parts, fmt.Sprintf("'%s': %d", k, v))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s *AnswerService) renderRiskReport(w *answerWriter, q entities.Query, records []*entities.Facility) {
	results := s.risk.ComputeRiskAll(records)
	summary := s.risk.RiskSummary(records)
	w.line("**Risk rating**")
	w.line("- **Trust Factor**: A (best documented) → D (largest gaps)")
	w.line("- **Risk Factor**: Low / Medium / High (data completeness risk)")
	w.line("")
	w.line("**Summary**")
	w.line("  Facilities: **%d**", summary.TotalFacilities)
	w.line("  Avg data completeness: **%.1f%%**", summary.AvgCompletenessScore)
	w.line("  By risk band: %s", formatCountMap(summary.ByRiskBand, []string{"High", "Medium", "Low"}))
	w.line("  By tier (A=best → D=critical gaps): %s", formatCountMap(summary.ByTier, []string{"A", "B", "C", "D"}))

	var subset []RiskScored
	for _, scored := range results {
		switch q.RiskFocus {
		case entities.RiskFocusHighRisk:
			if scored.Result.RiskBand == "High" {
				subset = append(subset, scored)
			}
		case entities.RiskFocusTierD:
			if scored.Result.Tier == "D" {
				subset = append(subset, scored)
			}
		case entities.RiskFocusTierC:
			if scored.Result.Tier == "C" {
				subset = append(subset, scored)
			}
		}
	}
	if len(subset) > 0 {
		labels := map[string]string{
			entities.RiskFocusHighRisk: "High Risk (Red)",
			entities.RiskFocusTierD:    "Tier D",
			entities.RiskFocusTierC:    "Tier C",
		}
		label, ok := labels[q.RiskFocus]
		if !ok {
			label = "list"
		}
		w.line("\n**Facilities: %s** (%d):", label, len(subset))
		sort.SliceStable(subset, func(i, j int) bool {
			return subset[i].Result.RiskScore < subset[j].Result.RiskScore
		})
		limit := len(subset)
		if limit > 30 {
			limit = 30
		}
		for _, scored := range subset[:limit] {
			critical := scored.Result.CriticalMissing
			suffix := ""
			if len(critical) > 3 {
				critical = critical[:3]
				suffix = "..."
			}
			missing := titledJoin(critical) + suffix
			if missing == "" {
				missing = "None"
			}
			w.line("  - %s (Trust Factor: %s, Risk Factor: %s, Key gaps: %s)",
				truncate(displayName(scored.Facility), 50), scored.Result.Tier, scored.Result.RiskBand, missing)
		}
		if len(subset) > 30 {
			w.line("  ... and %d more.", len(subset)-30)
		}
	} else if q.RiskFocus != entities.RiskFocusSummary {
		w.line("\nNo facilities in %s.", titleWords(strings.ReplaceAll(q.RiskFocus, "_", " ")))
	}
	w.line("\n(Weights: critical=contact/facility type/specialties/location; moderate=capability/operator/procedures/address; low=description/social/capacity.)")
}

func (s *AnswerService) renderAbnormalPatterns(w *answerWriter, records []*entities.Facility) {
	abnormal := s.mismatch.FacilitiesWithAbnormalPatterns(records)
	w.line("**Answer**")
	w.line("Facilities with **abnormal patterns** (expected correlated features don't match): **%d**.", len(abnormal))
	w.line("\nChecks: pharmacy claiming surgery/inpatient; dentist listing non-dental services; hospital with no clinical text; specialty without matching procedure; rich contact but no clinical data; clinic described as tertiary/referral.")
	if len(abnormal) > 0 {
		w.line("\nExamples:")
		limit := len(abnormal)
		if limit > 25 {
			limit = 25
		}
		for _, flagged := range abnormal[:limit] {
			kinds := flagged.Mismatches
			if len(kinds) > 3 {
				kinds = kinds[:3]
			}
			kindNames := make([]string, 0, len(kinds))
			for _, m := range kinds {
				kindNames = append(kindNames, m.Kind)
			}
			w.line("  - **%s** — %s", truncate(displayName(flagged.Facility), 50), strings.Join(kindNames, "; "))
			descs := flagged.Mismatches
			if len(descs) > 2 {
				descs = descs[:2]
			}
			for _, m := range descs {
				w.line("      (%s)", m.Description)
			}
		}
		if len(abnormal) > 25 {
			w.line("  ... and %d more.", len(abnormal)-25)
		}
	} else {
		w.line("\nNo facilities flagged for these correlation mismatches in the dataset.")
	}
	w.line("\n(Based on facility type vs. procedure/capability, specialty vs. procedure, contact vs. clinical completeness.)")
}

func (s *AnswerService) renderProcedureOutliers(w *answerWriter, records []*entities.Facility) {
	outliers := s.outlier.ProcedureSizeOutliers(records, 8.0, 5)
	w.line("**Answer**")
	w.line("Facilities that claim a **high number of procedures relative to their size** (top ~8%% by procedure-count/size proxy): **%d**.", len(outliers))
	w.line("\nSize proxy uses facility type (hospital > clinic > doctor/dentist > pharmacy) and capacity when present.")
	if len(outliers) > 0 {
		w.line("\nExamples (procedure count / size proxy = ratio):")
		limit := len(outliers)
		if limit > 25 {
			limit = 25
		}
		for _, o := range outliers[:limit] {
			w.line("  - **%s** — type: %s, procedures: %d, size: %v, ratio: %v",
				truncate(o.Record.Name, 55), o.Record.FacilityType, o.Record.ProcedureCount, o.Record.SizeProxy, o.Record.Ratio)
		}
		if len(outliers) > 25 {
			w.line("  ... and %d more.", len(outliers)-25)
		}
	} else {
		w.line("\nNo facilities met the threshold (top 8%% ratio with at least 5 procedures listed).")
	}
	w.line("\n(Based on procedure field list length and facilityTypeId/capacity.)")
}

func (s *AnswerService) renderFacilityServices(w *answerWriter, q entities.Query, records []*entities.Facility) {
	f := s.search.FindFacilityByName(records, q.FacilityName)
	if f == nil {
		w.line("No facility found matching \"%s\".", q.FacilityName)
		return
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "Facility"
	}
	w.line("**%s**\n", name)
	w.line("%s", FormatServices(f))
}

// FormatServices renders a facility's service card. Empty fields show N/A;
// list-shaped fields pretty-print as bullets.
func FormatServices(f *entities.Facility) string {
	val := func(col string, maxLen int) string {
		v := strings.TrimSpace(f.Field(col))
		if !entities.IsPresent(v) {
			return emptyLabel
		}
		if len([]rune(v)) > maxLen {
			return truncate(v, maxLen) + "..."
		}
		return v
	}
	pretty := func(col string, maxLen int) string {
		v := strings.TrimSpace(f.Field(col))
		if items := entities.ParseListField(v); items != nil {
			lines := make([]string, 0, len(items))
			for _, item := range items {
				lines = append(lines, "- "+item)
			}
			return strings.Join(lines, "\n")
		}
		return val(col, maxLen)
	}
	lines := []string{
		"**Description:** " + val(entities.ColDescription, 1500),
		"**Capabilities:**\n" + pretty(entities.ColCapability, 800),
		"**Procedures:**\n" + pretty(entities.ColProcedure, 800),
		"**Equipment:**\n" + pretty(entities.ColEquipment, 600),
		"**Specialties:**\n" + pretty(entities.ColSpecialties, 500),
	}
	return strings.Join(lines, "\n")
}

func (s *AnswerService) renderCareNearMe(w *answerWriter, q entities.Query, records []*entities.Facility) {
	matches := s.search.Search(records, q.Keywords, "", q.RawText)
	var inPlace []*entities.Facility
	for _, f := range matches {
		if inPlaceCity(f, q.Place) {
			inPlace = append(inPlace, f)
		}
	}
	w.line("**Answer**")
	if len(inPlace) > 0 {
		w.line("Top hospitals for **%s** care in **%s** (ranked by documentation quality):", q.Keywords[0], titleWords(q.Place))
		s.writeRankedList(w, inPlace, "", 5, true)
	} else {
		w.line("No facilities with that type of care found in that location in the dataset. Try a nearby city or a broader search.")
	}
}

func (s *AnswerService) renderWherePracticing(w *answerWriter, q entities.Query, records []*entities.Facility) {
	matches := s.search.Search(records, q.Keywords, "", q.RawText)
	w.line("**Answer**")
	w.line("Facilities offering **%s** in Ghana: **%d**.", strings.Join(q.Keywords, ", "), len(matches))
	if len(matches) > 0 {
		w.line("\nTop facilities (ranked by documentation quality):")
		s.writeRankedList(w, matches, "", 5, false)
	}
}

func rowClaimsService(f *entities.Facility, keywords []string) bool {
	content := f.ContentText(entities.ColProcedure, entities.ColCapability, entities.ColDescription, entities.ColSpecialties)
	for _, k := range keywords {
		if strings.Contains(content, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func rowHasEquipment(f *entities.Facility, equipmentTerms []string) bool {
	text := f.ContentText(entities.ColEquipment, entities.ColCapability, entities.ColProcedure)
	for _, k := range equipmentTerms {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func (s *AnswerService) renderClaimButLack(w *answerWriter, q entities.Query, records []*entities.Facility) {
	var missing []*entities.Facility
	for _, f := range records {
		if rowClaimsService(f, q.Keywords) && !rowHasEquipment(f, q.LackTerms) {
			missing = append(missing, f)
		}
	}
	missing = s.search.SortByRichness(missing, q.RawText)
	lackShown := q.LackTerms
	suffix := ""
	if len(lackShown) > 5 {
		lackShown = lackShown[:5]
		suffix = "..."
	}
	w.line("**Answer**")
	w.line("Facilities that **mention %s** but **do not list** basic required terms (%s%s) in equipment/capability/procedure: **%d**.",
		strings.Join(q.Keywords, ", "), strings.Join(lackShown, ", "), suffix, len(missing))
	if len(missing) > 0 {
		w.line("\nTop facilities (ranked by documentation quality):")
		s.writeRankedList(w, missing, "", 5, false)
	} else {
		w.line("\nNo such facilities found in the dataset (or all facilities that mention the service also list relevant equipment).")
	}
	w.line("\n(Based on procedure, capability, description, specialties for \"claim\"; equipment, capability, procedure for \"has equipment\".)")
}

func regionOf(f *entities.Facility) string {
	reg := strings.TrimSpace(f.Region)
	if reg == "" {
		reg = strings.TrimSpace(f.City)
	}
	if reg == "" || strings.EqualFold(reg, "null") {
		return ""
	}
	return reg
}

func (s *AnswerService) renderRegionsLacking(w *answerWriter, q entities.Query, records []*entities.Facility) {
	hasCap := s.search.Search(records, q.Keywords, "", q.RawText)
	regionsWith := make(map[string]struct{})
	for _, f := range hasCap {
		if reg := regionOf(f); reg != "" {
			regionsWith[reg] = struct{}{}
		}
	}
	allRegions := make(map[string]struct{})
	for _, f := range records {
		if reg := regionOf(f); reg != "" {
			allRegions[reg] = struct{}{}
		}
	}
	var lacking []string
	for reg := range allRegions {
		if _, ok := regionsWith[reg]; !ok {
			lacking = append(lacking, reg)
		}
	}
	sort.Slice(lacking, func(i, j int) bool {
		return strings.ToLower(lacking[i]) < strings.ToLower(lacking[j])
	})
	kw := strings.Join(q.Keywords, ", ")
	w.line("**Answer**")
	w.line("Regions with **no** facilities that mention **%s** in the dataset: **%d**.", kw, len(lacking))
	if len(hasCap) > 0 && len(regionsWith) == 0 {
		w.line("\n(Note: %d facility(ies) mention this capability but have no region/city recorded, so they are not counted under any region.)", len(hasCap))
	}
	if len(lacking) > 0 {
		w.line("\n**Regions that lack %s:**", kw)
		w.line("%s", strings.Join(lacking, ", "))
	} else {
		w.line("\nEvery region in the dataset has at least one facility mentioning that capability.")
	}
	w.line("\n(Regions with the capability: %d. Compared to %d regions total in the data.)", len(regionsWith), len(allRegions))
}

func (s *AnswerService) renderWithinKm(ctx context.Context, w *answerWriter, q entities.Query) {
	sourceName, records := s.source.Load(ctx, true)
	if len(records) == 0 {
		w.line("No Ghana CSV found.")
		return
	}
	ref := s.geo.ResolvePlace(ctx, q.Place)
	if ref == nil {
		known := strings.Join(geolocation.KnownCityNames(), ", ")
		w.line("Unknown place \"%s\". Known places: %s.", q.Place, known)
		return
	}

	lowered := strings.ToLower(q.RawText)
	facilityType, keywords := parseTypeAndKeywords(lowered)
	if len(keywords) == 0 {
		for _, word := range strings.Fields(q.RawText) {
			wl := strings.ToLower(word)
			if len(word) > 3 && !strings.Contains(wl, "km") && !strings.Contains(wl, "within") {
				keywords = append(keywords, word)
			}
			if len(keywords) == 3 {
				break
			}
		}
	}
	if len(keywords) == 0 {
		keywords = []string{"cardiology", "heart", "cardiac"}
	} else if containsAny(lowered, []string{"heart", "cardiac", "cardiology"}) {
		keywords = []string{"cardiology", "heart", "cardiac"}
	}

	candidates := s.search.Search(records, keywords, facilityType, q.RawText)
	within := s.geo.FilterWithinKm(records, ref.Latitude, ref.Longitude, q.RadiusKm)
	withinSet := make(map[*entities.Facility]struct{}, len(within))
	for _, f := range within {
		withinSet[f] = struct{}{}
	}
	var withinMatches []*entities.Facility
	for _, f := range candidates {
		if _, ok := withinSet[f]; ok {
			withinMatches = append(withinMatches, f)
		}
	}
	uniqueNames := orderedUniqueNames(withinMatches)

	w.line("**Answer**")
	w.line("Hospitals treating heart disease within **%.0f km** of **%s**: **%d** (unique names: **%d**).",
		q.RadiusKm, titleWords(q.Place), len(withinMatches), len(uniqueNames))
	if len(uniqueNames) > 0 {
		shown := uniqueNames
		if len(shown) > 20 {
			shown = shown[:20]
		}
		w.line("\nFacilities: %s", strings.Join(shown, ", "))
		if len(uniqueNames) > 20 {
			w.line("... and %d more.", len(uniqueNames)-20)
		}
	}
	if len(withinMatches) == 0 {
		// No coordinates case: fall back to address_city matching, no distance.
		var inPlace []*entities.Facility
		for _, f := range candidates {
			if inPlaceCity(f, q.Place) {
				inPlace = append(inPlace, f)
			}
		}
		inPlaceNames := orderedUniqueNames(inPlace)
		if len(inPlaceNames) > 0 {
			shown := inPlaceNames
			suffix := ""
			if len(shown) > 15 {
				shown = shown[:15]
				suffix = "..."
			}
			w.line("\n(No coordinates in the dataset for distance filter. Using **address_city** only: **%d** such hospitals in **%s**: %s%s.)",
				len(inPlaceNames), titleWords(q.Place), strings.Join(shown, ", "), suffix)
		} else {
			w.line("\n(No coordinates in the dataset for distance filter. Run the geocode backfill command to add lat/lon, then re-run this query.)")
		}
	} else {
		w.line("\n(Data: %s; distance from %s centre %.4f, %.4f.)", sourceName, titleWords(q.Place), ref.Latitude, ref.Longitude)
	}
}

func orderedUniqueNames(records []*entities.Facility) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, f := range records {
		name := displayName(f)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (s *AnswerService) renderCapabilityInPlace(w *answerWriter, q entities.Query, records []*entities.Facility) {
	candidates := s.search.Search(records, q.Keywords, q.FacilityType, q.RawText)
	var inPlace []*entities.Facility
	for _, f := range candidates {
		if inPlaceCity(f, q.Place) {
			inPlace = append(inPlace, f)
		}
	}
	inPlace = s.search.SortByRichness(inPlace, q.RawText)
	kwShown := q.Keywords
	if len(kwShown) > 3 {
		kwShown = kwShown[:3]
	}
	w.line("**Answer**")
	if len(inPlace) > 0 {
		w.line("Yes. **%d** %s(s) in **%s** that mention **%s**.", len(inPlace), q.FacilityType, titleWords(q.Place), strings.Join(kwShown, ", "))
		w.line("\nTop facilities (ranked by documentation quality):")
		s.writeRankedList(w, inPlace, "", 5, q.FacilityType == "hospital")
	} else {
		w.line("No %ss in **%s** in the dataset that list **%s** in their capability/procedure/description.",
			q.FacilityType, titleWords(q.Place), strings.Join(kwShown, ", "))
	}
	w.line("\n(Based on facilityTypeId, address_city/region, and content match.)")
}

func (s *AnswerService) renderInPlace(w *answerWriter, q entities.Query, records []*entities.Facility) {
	filtered := records
	if q.FacilityType != "" {
		filtered = nil
		for _, f := range records {
			if strings.EqualFold(strings.TrimSpace(f.FacilityType), q.FacilityType) {
				filtered = append(filtered, f)
			}
		}
	}
	var inPlace []*entities.Facility
	for _, f := range filtered {
		if inPlaceCity(f, q.Place) {
			inPlace = append(inPlace, f)
		}
	}
	inPlace = s.search.SortByRichness(inPlace, q.RawText)
	label := q.FacilityType
	if label == "" {
		label = "facilities"
	}
	plural := ""
	if len(inPlace) != 1 && (label == "hospital" || label == "clinic" || label == "pharmacy") {
		plural = "s"
	}
	w.line("**Answer**")
	w.line("**%d** %s%s in **%s**.", len(inPlace), label, plural, titleWords(q.Place))
	if len(inPlace) > 0 {
		w.line("\nTop facilities (ranked by documentation quality):")
		s.writeRankedList(w, inPlace, "", 5, label == "hospital")
	}
	w.line("\n(Based on address_city and address_stateOrRegion.)")
}

func (s *AnswerService) renderKeywordSearch(w *answerWriter, q entities.Query, records []*entities.Facility) {
	matches := s.search.Search(records, q.Keywords, q.FacilityType, q.RawText)
	w.line("**Answer**")
	if q.FacilityType != "" {
		w.line("Count of facilities with facilityTypeId = '%s' that mention '%s' in specialties, procedure, equipment, capability, or description: **%d**.",
			q.FacilityType, strings.Join(q.Keywords, " or "), len(matches))
	} else {
		w.line("Count of facilities that mention '%s': **%d**.", strings.Join(q.Keywords, " or "), len(matches))
	}
	if len(matches) > 0 {
		w.line("\nTop facilities (ranked by documentation quality):")
		s.writeRankedList(w, matches, "", 5, q.FacilityType == "hospital")
	}
}
