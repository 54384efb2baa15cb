// Package crm holds the fan CRM: the Fan model, a SQLite-backed store
// seeded with fan data, and the segment filtering the audience tool runs.
package crm

// Fan is one CRM record.
type Fan struct {
	ID               string   `json:"id"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Genres           []string `json:"genres"`
	LastPurchaseDate string   `json:"last_purchase_date"` // YYYY-MM-DD
	TotalSpent       float64  `json:"total_spent"`
	EmailOpenRate    float64  `json:"email_open_rate"`
}

// Segment is the result of a CRM query: the matched cohort's aggregates
// plus a preview of up to MaxFanPreview fans.
type Segment struct {
	Count     int     `json:"count"`
	SegmentID string  `json:"segment_id"`
	AvgSpent  float64 `json:"avg_spent"`
	OpenRate  float64 `json:"open_rate"`
	Fans      []Fan   `json:"fans"`
}

// MaxFanPreview caps how many fans a Segment carries.
const MaxFanPreview = 5
