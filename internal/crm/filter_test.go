package crm

import (
	"strings"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func testFans(now time.Time) []Fan {
	date := func(monthsAgo int) string {
		return now.AddDate(0, -monthsAgo, 0).Format("2006-01-02")
	}
	return []Fan{
		{ID: "f1", FirstName: "Maya", City: "New Orleans", Genres: []string{"Jazz", "Blues"}, LastPurchaseDate: date(4), TotalSpent: 400, EmailOpenRate: 0.60},
		{ID: "f2", FirstName: "Tomas", City: "Austin", Genres: []string{"Rock"}, LastPurchaseDate: date(1), TotalSpent: 550, EmailOpenRate: 0.40},
		{ID: "f3", FirstName: "Celeste", City: "New Orleans", Genres: []string{"Jazz"}, LastPurchaseDate: date(11), TotalSpent: 300, EmailOpenRate: 0.50},
		{ID: "f4", FirstName: "Priya", City: "Seattle", Genres: []string{"Electronic"}, LastPurchaseDate: date(2), TotalSpent: 200, EmailOpenRate: 0.70},
	}
}

func TestFilter_GenreAnyOfCaseInsensitive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fans := testFans(now)

	seg := BuildSegment(fans, Filter{Genres: []string{"jazz"}}, now)
	if seg.Count != 2 {
		t.Errorf("count = %d, want 2", seg.Count)
	}

	seg = BuildSegment(fans, Filter{Genres: []string{"BLUES", "electronic"}}, now)
	if seg.Count != 2 {
		t.Errorf("count = %d, want 2", seg.Count)
	}
}

func TestFilter_PurchaseRecency(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fans := testFans(now)

	// At least 3 months since last purchase: f1 (4mo) and f3 (11mo).
	seg := BuildSegment(fans, Filter{MinMonthsSincePurchase: ptr(3)}, now)
	if seg.Count != 2 {
		t.Errorf("min recency count = %d, want 2", seg.Count)
	}

	// At most 3 months: f2 (1mo) and f4 (2mo).
	seg = BuildSegment(fans, Filter{MaxMonthsSincePurchase: ptr(3)}, now)
	if seg.Count != 2 {
		t.Errorf("max recency count = %d, want 2", seg.Count)
	}

	// Window 3..6 months: only f1.
	seg = BuildSegment(fans, Filter{MinMonthsSincePurchase: ptr(3), MaxMonthsSincePurchase: ptr(6)}, now)
	if seg.Count != 1 {
		t.Errorf("window count = %d, want 1", seg.Count)
	}
}

func TestFilter_MinSpendAndCity(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fans := testFans(now)

	seg := BuildSegment(fans, Filter{MinTotalSpent: ptr(350)}, now)
	if seg.Count != 2 {
		t.Errorf("spend count = %d, want 2", seg.Count)
	}

	// Substring, case-insensitive.
	seg = BuildSegment(fans, Filter{City: "new orl"}, now)
	if seg.Count != 2 {
		t.Errorf("city count = %d, want 2", seg.Count)
	}
}

func TestFilter_UnparseableDateNeverMatchesRecency(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fans := []Fan{{ID: "bad", Genres: []string{"Jazz"}, LastPurchaseDate: "not-a-date", TotalSpent: 100}}

	seg := BuildSegment(fans, Filter{MinMonthsSincePurchase: ptr(0)}, now)
	if seg.Count != 0 {
		t.Errorf("count = %d, want 0", seg.Count)
	}
	// Without a recency constraint the fan still matches.
	seg = BuildSegment(fans, Filter{Genres: []string{"Jazz"}}, now)
	if seg.Count != 1 {
		t.Errorf("count = %d, want 1", seg.Count)
	}
}

func TestBuildSegment_ZeroMatch(t *testing.T) {
	t.Parallel()

	now := time.Now()
	seg := BuildSegment(testFans(now), Filter{Genres: []string{"Opera"}}, now)

	if seg.Count != 0 || seg.SegmentID != "" || seg.AvgSpent != 0 || seg.OpenRate != 0 {
		t.Errorf("zero-match segment = %+v, want zero values", seg)
	}
	if seg.Fans == nil || len(seg.Fans) != 0 {
		t.Errorf("zero-match fans = %v, want empty slice", seg.Fans)
	}
}

func TestBuildSegment_AggregatesAndPreview(t *testing.T) {
	t.Parallel()

	now := time.Now()
	date := now.AddDate(0, -1, 0).Format("2006-01-02")
	var fans []Fan
	for i := 0; i < 8; i++ {
		fans = append(fans, Fan{
			ID:               string(rune('a' + i)),
			Genres:           []string{"Jazz"},
			LastPurchaseDate: date,
			TotalSpent:       100,
			EmailOpenRate:    0.5,
		})
	}

	seg := BuildSegment(fans, Filter{Genres: []string{"Jazz"}}, now)
	if seg.Count != 8 {
		t.Errorf("count = %d, want 8", seg.Count)
	}
	if len(seg.Fans) != MaxFanPreview {
		t.Errorf("preview = %d fans, want %d", len(seg.Fans), MaxFanPreview)
	}
	if seg.AvgSpent != 100 {
		t.Errorf("avg_spent = %v, want 100", seg.AvgSpent)
	}
	if seg.OpenRate != 0.5 {
		t.Errorf("open_rate = %v, want 0.5", seg.OpenRate)
	}
	if !strings.HasPrefix(seg.SegmentID, "seg_") || len(seg.SegmentID) != len("seg_")+8 {
		t.Errorf("segment id = %q, want seg_ plus 8 hex chars", seg.SegmentID)
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	if got := round2(123.4567); got != 123.46 {
		t.Errorf("round2(123.4567) = %v, want 123.46", got)
	}
}
