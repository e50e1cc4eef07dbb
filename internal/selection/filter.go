package selection

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/momentum/internal/contracts"
)

// SortField names a sortable column of the ranked list
type SortField string

const (
	SortByRank       SortField = "rank"
	SortBySymbol     SortField = "symbol"
	SortByScore      SortField = "score"
	SortByConfidence SortField = "confidence"
	SortByPriceMom   SortField = "price_mom"
	SortByVolumeMom  SortField = "vol_mom"
	SortByIndustry   SortField = "industry"
	SortByPerf1W     SortField = "perf_1w"
)

var sortFields = map[SortField]bool{
	SortByRank: true, SortBySymbol: true, SortByScore: true, SortByConfidence: true,
	SortByPriceMom: true, SortByVolumeMom: true, SortByIndustry: true, SortByPerf1W: true,
}

// Filter is a view query over a ranked list (rank order is never changed
// in the underlying result)
type Filter struct {
	Industry string    // 정확히 일치
	Search   string    // symbol 또는 description 부분 일치 (대소문자 무시)
	TopOnly  bool      // IsTop 만
	SortBy   SortField // 알 수 없는 값은 rank
	Desc     bool
}

// ParseFilter reads industry, search, top_only, sort_by and sort_dir
func ParseFilter(values url.Values) Filter {
	f := Filter{
		Industry: strings.TrimSpace(values.Get("industry")),
		Search:   strings.TrimSpace(values.Get("search")),
		SortBy:   SortField(strings.ToLower(strings.TrimSpace(values.Get("sort_by")))),
		Desc:     strings.EqualFold(strings.TrimSpace(values.Get("sort_dir")), "desc"),
	}
	if top, err := strconv.ParseBool(values.Get("top_only")); err == nil {
		f.TopOnly = top
	}
	if !sortFields[f.SortBy] {
		f.SortBy = SortByRank
	}
	return f
}

// IsZero reports whether the filter leaves the list unchanged
func (f Filter) IsZero() bool {
	return f.Industry == "" && f.Search == "" && !f.TopOnly && (f.SortBy == "" || f.SortBy == SortByRank) && !f.Desc
}

// Apply returns a filtered and sorted copy of records.
// Records are expected in rank order; equal keys keep that order.
func (f Filter) Apply(records []contracts.ScoredRecord) []contracts.ScoredRecord {
	search := strings.ToLower(f.Search)

	out := make([]contracts.ScoredRecord, 0, len(records))
	for _, r := range records {
		if f.Industry != "" && r.Industry != f.Industry {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Symbol), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		if f.TopOnly && !r.IsTop {
			continue
		}
		out = append(out, r)
	}

	cmp := f.compare()
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(&out[i], &out[j])
		if f.Desc {
			return c > 0
		}
		return c < 0
	})

	// perf_1w 누락은 방향과 무관하게 뒤로
	if f.SortBy == SortByPerf1W {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Perf1W.Valid && !out[j].Perf1W.Valid
		})
	}
	return out
}

func (f Filter) compare() func(a, b *contracts.ScoredRecord) int {
	switch f.SortBy {
	case SortBySymbol:
		return func(a, b *contracts.ScoredRecord) int { return strings.Compare(a.Symbol, b.Symbol) }
	case SortByScore:
		return func(a, b *contracts.ScoredRecord) int { return compareFloat(a.Composite, b.Composite) }
	case SortByConfidence:
		return func(a, b *contracts.ScoredRecord) int { return compareFloat(a.Confidence, b.Confidence) }
	case SortByPriceMom:
		return func(a, b *contracts.ScoredRecord) int {
			return compareFloat(a.Scores.PriceMomentum, b.Scores.PriceMomentum)
		}
	case SortByVolumeMom:
		return func(a, b *contracts.ScoredRecord) int {
			return compareFloat(a.Scores.VolumeMomentum, b.Scores.VolumeMomentum)
		}
	case SortByIndustry:
		return func(a, b *contracts.ScoredRecord) int { return strings.Compare(a.Industry, b.Industry) }
	case SortByPerf1W:
		return func(a, b *contracts.ScoredRecord) int { return compareFloat(a.Perf1W.Value, b.Perf1W.Value) }
	default:
		return func(a, b *contracts.ScoredRecord) int { return a.Rank - b.Rank }
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
