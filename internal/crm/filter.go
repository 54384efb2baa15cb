package crm

import (
	"encoding/hex"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// daysPerMonth converts purchase recency from days to months.
const daysPerMonth = 30.44

// Filter describes a fan segment query. Nil numeric fields and empty
// string/slice fields mean "no constraint".
type Filter struct {
	Genres                 []string `json:"genres,omitempty"`
	MinMonthsSincePurchase *float64 `json:"min_months_since_purchase,omitempty"`
	MaxMonthsSincePurchase *float64 `json:"max_months_since_purchase,omitempty"`
	MinTotalSpent          *float64 `json:"min_total_spent,omitempty"`
	City                   string   `json:"city,omitempty"`
}

// monthsSince returns the number of months between a YYYY-MM-DD date and now.
func monthsSince(dateStr string, now time.Time) (float64, error) {
	purchased, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return 0, err
	}
	return now.Sub(purchased).Hours() / 24 / daysPerMonth, nil
}

// Matches reports whether the fan satisfies every constraint in the filter.
// Genre matching is any-of and case-insensitive; city is a case-insensitive
// substring match. A fan with an unparseable purchase date never matches a
// recency constraint.
func (f Filter) Matches(fan Fan, now time.Time) bool {
	if len(f.Genres) > 0 && !matchesAnyGenre(f.Genres, fan.Genres) {
		return false
	}
	if f.MinMonthsSincePurchase != nil || f.MaxMonthsSincePurchase != nil {
		months, err := monthsSince(fan.LastPurchaseDate, now)
		if err != nil {
			return false
		}
		if f.MinMonthsSincePurchase != nil && months < *f.MinMonthsSincePurchase {
			return false
		}
		if f.MaxMonthsSincePurchase != nil && months > *f.MaxMonthsSincePurchase {
			return false
		}
	}
	if f.MinTotalSpent != nil && fan.TotalSpent < *f.MinTotalSpent {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(fan.City), strings.ToLower(f.City)) {
		return false
	}
	return true
}

func matchesAnyGenre(wanted, have []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}

// BuildSegment filters fans and assembles the segment aggregate. An empty
// match yields the zero segment: count 0, no id, zero aggregates, empty
// preview.
func BuildSegment(fans []Fan, f Filter, now time.Time) Segment {
	var matched []Fan
	for _, fan := range fans {
		if f.Matches(fan, now) {
			matched = append(matched, fan)
		}
	}

	if len(matched) == 0 {
		return Segment{Fans: []Fan{}}
	}

	var spent, openRate float64
	for _, fan := range matched {
		spent += fan.TotalSpent
		openRate += fan.EmailOpenRate
	}

	preview := matched
	if len(preview) > MaxFanPreview {
		preview = preview[:MaxFanPreview]
	}

	return Segment{
		Count:     len(matched),
		SegmentID: NewSegmentID(),
		AvgSpent:  round2(spent / float64(len(matched))),
		OpenRate:  round2(openRate / float64(len(matched))),
		Fans:      preview,
	}
}

// NewSegmentID returns a fresh "seg_" identifier with 8 hex characters.
func NewSegmentID() string {
	return "seg_" + shortID()
}

func shortID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
