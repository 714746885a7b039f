package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

// Columns that count as data points for richness ranking (non-empty = 1 point).
var richnessColumns = []string{
	entities.ColName, entities.ColDescription, entities.ColCapability,
	entities.ColProcedure, entities.ColEquipment, entities.ColSpecialties,
	entities.ColAddressLine1, entities.ColAddressLine2, entities.ColCity,
	entities.ColRegion, entities.ColCountry,
	entities.ColPhoneNumbers, entities.ColEmail, entities.ColWebsites,
	entities.ColFacilityType, entities.ColOrganizationType,
	entities.ColLatitude, entities.ColLongitude,
}

// Columns used for query-term similarity.
var similarityColumns = []string{
	entities.ColSpecialties, entities.ColProcedure, entities.ColEquipment,
	entities.ColCapability, entities.ColDescription, entities.ColName,
}

// Columns searched for capability keywords (name excluded: a keyword in the
// name alone does not mean the facility offers the service).
var searchContentColumns = []string{
	entities.ColSpecialties, entities.ColProcedure, entities.ColEquipment,
	entities.ColCapability, entities.ColDescription,
}

var wordPattern = regexp.MustCompile(`\w+`)

// SearchService filters and orders facility records by documentation
// completeness (richness) and lexical query relevance (similarity).
type SearchService struct{}

// NewSearchService creates a search and ranking engine.
func NewSearchService() *SearchService {
	return &SearchService{}
}

// RichnessScore counts the record's non-empty checklist fields, so the
// fullest records can surface first.
func (s *SearchService) RichnessScore(f *entities.Facility) int {
	n := 0
	for _, col := range richnessColumns {
		if f.Present(col) {
			n++
		}
	}
	return n
}

// SimilarityScore counts occurrences of the query's significant words
// (longer than 2 chars) in the record's content columns. Substring
// occurrences, not token matches.
func (s *SearchService) SimilarityScore(f *entities.Facility, query string) int {
	if strings.TrimSpace(query) == "" {
		return 0
	}
	text := f.ContentText(similarityColumns...)
	score := 0
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if len(w) > 2 {
			score += strings.Count(text, w)
		}
	}
	return score
}

// SortByRichness orders records descending by richness, breaking ties by
// similarity to the query when one is given. The input is not modified.
func (s *SearchService) SortByRichness(records []*entities.Facility, query string) []*entities.Facility {
	out := make([]*entities.Facility, len(records))
	copy(out, records)
	hasQuery := strings.TrimSpace(query) != ""
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := s.RichnessScore(out[i]), s.RichnessScore(out[j])
		if ri != rj {
			return ri > rj
		}
		if !hasQuery {
			return false
		}
		return s.SimilarityScore(out[i], query) > s.SimilarityScore(out[j], query)
	})
	return out
}

// Search keeps records whose content columns contain any keyword
// (case-insensitive substring), optionally restricted to an exact facility
// type, sorted by richness then similarity.
func (s *SearchService) Search(records []*entities.Facility, keywords []string, facilityType, query string) []*entities.Facility {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		lowered = append(lowered, strings.ToLower(k))
	}
	var out []*entities.Facility
	for _, f := range records {
		if facilityType != "" {
			ft := strings.ToLower(strings.TrimSpace(f.FacilityType))
			if ft != strings.ToLower(facilityType) {
				continue
			}
		}
		text := f.ContentText(searchContentColumns...)
		for _, k := range lowered {
			if strings.Contains(text, k) {
				out = append(out, f)
				break
			}
		}
	}
	return s.SortByRichness(out, query)
}

// FindFacilityByName returns the first record whose name contains the given
// name (or vice versa), falling back to a token-overlap match of at least
// two shared tokens. First match in record order wins; callers depend on
// that stability.
func (s *SearchService) FindFacilityByName(records []*entities.Facility, name string) *entities.Facility {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	if nameLower == "" {
		return nil
	}
	for _, f := range records {
		n := strings.ToLower(f.Name)
		if n == "" {
			continue
		}
		if strings.Contains(n, nameLower) || strings.Contains(nameLower, n) {
			return f
		}
	}
	tokens := tokenSet(nameLower)
	for _, f := range records {
		shared := 0
		for token := range tokenSet(strings.ToLower(f.Name)) {
			if _, ok := tokens[token]; ok {
				shared++
			}
		}
		if shared >= 2 {
			return f
		}
	}
	return nil
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(s, -1) {
		out[w] = struct{}{}
	}
	return out
}
