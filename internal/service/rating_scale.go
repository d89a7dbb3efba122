package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dailyreport/internal/model"

	"github.com/shopspring/decimal"
)

// RatingScale is one version of the ordinal rating scale.
type RatingScale struct {
	EffectiveFrom string   `json:"effective_from"`
	Size          int      `json:"size"`
	Labels        []string `json:"labels"`
}

// RatingScales holds scale versions sorted by effective date.
type RatingScales struct {
	versions []RatingScale
}

// ParseRatingScales reads "YYYY-MM-DD:size,..." entries.
func ParseRatingScales(s string) (*RatingScales, error) {
	var versions []RatingScale
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, sizeText, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid rating scale entry %q, expected YYYY-MM-DD:size", part)
		}
		date, err := ParseDate(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid rating scale entry %q: %w", part, err)
		}
		size, err := strconv.Atoi(strings.TrimSpace(sizeText))
		if err != nil || size < 2 {
			return nil, fmt.Errorf("invalid rating scale size in %q", part)
		}
		if seen[date] {
			return nil, fmt.Errorf("duplicate rating scale date %s", date)
		}
		seen[date] = true
		versions = append(versions, RatingScale{EffectiveFrom: date, Size: size, Labels: RatingLabels(size)})
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no rating scale configured")
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].EffectiveFrom < versions[j].EffectiveFrom })
	return &RatingScales{versions: versions}, nil
}

// At returns the scale in effect on date. Dates before the first version use the first version.
func (r *RatingScales) At(date string) RatingScale {
	current := r.versions[0]
	for _, v := range r.versions[1:] {
		if v.EffectiveFrom > date {
			break
		}
		current = v
	}
	return current
}

// RatingLabels names each point of a scale from lowest to highest.
func RatingLabels(size int) []string {
	switch size {
	case 3:
		return []string{"差", "普通", "好"}
	case 5:
		return []string{"很差", "差", "普通", "好", "很好"}
	}
	labels := make([]string, size)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

// AverageRating averages the ratings of approved approvals, rounded to one
// decimal place. ok is false when nothing is rated yet.
func AverageRating(approvals []model.ReportApproval) (avg decimal.Decimal, ok bool) {
	sum := decimal.Zero
	n := 0
	for _, a := range approvals {
		if a.Status != model.ReportApprovalApproved || a.Rating == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(int64(*a.Rating)))
		n++
	}
	if n == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(1), true
}
