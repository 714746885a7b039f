package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/zatekoja/facilityinsight/internal/domain/entities"
)

// Facility type → size proxy. Higher means larger expected procedure volume.
var typeSize = map[string]float64{
	"hospital": 4,
	"clinic":   3,
	"doctor":   2,
	"dentist":  2,
	"pharmacy": 1,
}

const defaultTypeSize = 2

var (
	andSeparator      = regexp.MustCompile(`(?i)\s+and\s+`)
	punctSeparator    = regexp.MustCompile(`[,;]`)
	newlineSeparator  = regexp.MustCompile(`\n+`)
	numberedSeparator = regexp.MustCompile(`\d+[.)]\s*`)
	nonDigit          = regexp.MustCompile(`[^\d]`)
)

// OutlierService finds facilities whose declared procedure volume is
// implausible for their declared size.
type OutlierService struct{}

// NewOutlierService creates a procedure/size outlier detector.
func NewOutlierService() *OutlierService {
	return &OutlierService{}
}

// ProcedureCount estimates the number of distinct procedures from the
// procedure field: list separators are normalized to one delimiter, short
// fragments dropped, and items de-duplicated by a 50-char lowercase prefix.
// Any non-empty field counts at least 1.
func (s *OutlierService) ProcedureCount(f *entities.Facility) int {
	text := strings.TrimSpace(f.Procedure)
	if !entities.IsPresent(text) {
		return 0
	}
	normalized := andSeparator.ReplaceAllString(text, "|")
	normalized = punctSeparator.ReplaceAllString(normalized, "|")
	normalized = newlineSeparator.ReplaceAllString(normalized, "|")
	normalized = numberedSeparator.ReplaceAllString(normalized, "|")

	seen := make(map[string]struct{})
	count := 0
	for _, part := range strings.Split(normalized, "|") {
		part = strings.TrimSpace(part)
		if len(part) <= 2 {
			continue
		}
		key := strings.ToLower(part)
		if len(key) > 50 {
			key = key[:50]
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		count++
	}
	if count == 0 {
		return 1
	}
	return count
}

// SizeProxy estimates facility scale from its type, boosted by up to +2.0
// from a log10 transform of the capacity when one parses, so a single huge
// capacity cannot dominate.
func (s *OutlierService) SizeProxy(f *entities.Facility) float64 {
	ft := strings.ToLower(strings.TrimSpace(f.FacilityType))
	base, ok := typeSize[ft]
	if !ok {
		base = defaultTypeSize
	}
	capRaw := strings.TrimSpace(f.Capacity)
	if capRaw != "" {
		digits := nonDigit.ReplaceAllString(capRaw, "")
		if len(digits) > 6 {
			digits = digits[:6]
		}
		if digits != "" {
			capVal := 0
			for _, r := range digits {
				capVal = capVal*10 + int(r-'0')
			}
			if capVal > 0 {
				base += math.Min(2.0, math.Log10(float64(capVal)+1)/2)
			}
		}
	}
	return base
}

func (s *OutlierService) measure(f *entities.Facility) entities.ProcedureSizeRecord {
	pc := s.ProcedureCount(f)
	size := s.SizeProxy(f)
	ratio := 0.0
	if size > 0 {
		ratio = float64(pc) / size
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "Unknown"
	}
	ft := strings.TrimSpace(f.FacilityType)
	if ft == "" {
		ft = "unknown"
	}
	return entities.ProcedureSizeRecord{
		Name:           name,
		FacilityType:   ft,
		ProcedureCount: pc,
		SizeProxy:      round2(size),
		Ratio:          round2(ratio),
	}
}

// ProcedureSizeOutliers flags records in the top topPercent of
// procedure-count/size-proxy ratios across the whole population, keeping
// only those with at least minProcedures listed and a positive ratio.
// Returned sorted by descending ratio.
func (s *OutlierService) ProcedureSizeOutliers(records []*entities.Facility, topPercent float64, minProcedures int) []entities.OutlierResult {
	measured := make([]entities.OutlierResult, 0, len(records))
	ratios := make([]float64, 0, len(records))
	for _, f := range records {
		rec := s.measure(f)
		ratios = append(ratios, rec.Ratio)
		measured = append(measured, entities.OutlierResult{Facility: f, Record: rec})
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(ratios)))
	n := len(ratios)
	cutoff := 0.0
	if n > 0 {
		k := int(float64(n)*topPercent/100.0 + 0.5)
		if k > n {
			k = n
		}
		k--
		if k < 0 {
			k = 0
		}
		cutoff = ratios[k]
	}

	var out []entities.OutlierResult
	for _, m := range measured {
		if m.Record.Ratio >= cutoff && m.Record.ProcedureCount >= minProcedures && m.Record.Ratio > 0 {
			m.Record.IsOutlier = true
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Record.Ratio > out[j].Record.Ratio
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
