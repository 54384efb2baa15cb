// Package scheduler persists scheduled campaigns and runs the cron-driven
// dispatcher that marks due campaigns as sent.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Campaign statuses.
const (
	StatusScheduled = "scheduled"
	StatusSent      = "sent"
)

// Campaign is one scheduled delivery to a fan segment.
type Campaign struct {
	CampaignID   string `json:"campaign_id"`
	SegmentID    string `json:"segment_id"`
	EventName    string `json:"event_name"`
	AudienceSize int    `json:"audience_size"`
	SendAt       string `json:"send_at"` // ISO 8601, stored UTC-normalized
	Status       string `json:"status"`
}

// NewCampaignID returns a fresh "cmp_" identifier with 8 hex characters.
func NewCampaignID() string {
	u := uuid.New()
	return "cmp_" + hex.EncodeToString(u[:4])
}

// Store persists campaigns. It shares the CRM's database handle.
type Store struct {
	db *sql.DB
}

// NewStore creates a campaign store on the given database, creating the
// campaigns table if needed.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(context.TODO(),
		`CREATE TABLE IF NOT EXISTS campaigns (
			campaign_id   TEXT PRIMARY KEY,
			segment_id    TEXT NOT NULL,
			event_name    TEXT NOT NULL,
			audience_size INTEGER NOT NULL DEFAULT 0,
			send_at       TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'scheduled',
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`)
	if err != nil {
		return nil, fmt.Errorf("scheduler: create campaigns table: %w", err)
	}
	return &Store{db: db}, nil
}

// sendAtLayout is the canonical stored form: UTC, no zone suffix, so
// rows sort lexically in chronological order.
const sendAtLayout = "2006-01-02T15:04:05"

// sendAtLayouts are the accepted ISO 8601 input shapes, tried in order.
var sendAtLayouts = []string{
	time.RFC3339,
	sendAtLayout,
	"2006-01-02T15:04",
	"2006-01-02",
}

// NormalizeSendAt converts an ISO 8601 timestamp to the canonical stored
// form. Offsets and Z suffixes are converted to UTC; a value that parses
// with none of the accepted layouts is returned unchanged.
func NormalizeSendAt(s string) string {
	for _, layout := range sendAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(sendAtLayout)
		}
	}
	return s
}

// Insert persists a campaign row. The send time is normalized so
// MarkDueSent's lexical comparison stays correct for zoned inputs.
func (s *Store) Insert(ctx context.Context, c Campaign) error {
	c.SendAt = NormalizeSendAt(c.SendAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (campaign_id, segment_id, event_name, audience_size, send_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.CampaignID, c.SegmentID, c.EventName, c.AudienceSize, c.SendAt, c.Status)
	if err != nil {
		return fmt.Errorf("scheduler: insert campaign %s: %w", c.CampaignID, err)
	}
	return nil
}

// Get returns the campaign with the given id.
func (s *Store) Get(ctx context.Context, campaignID string) (Campaign, error) {
	var c Campaign
	err := s.db.QueryRowContext(ctx,
		`SELECT campaign_id, segment_id, event_name, audience_size, send_at, status
		 FROM campaigns WHERE campaign_id = ?`, campaignID).
		Scan(&c.CampaignID, &c.SegmentID, &c.EventName, &c.AudienceSize, &c.SendAt, &c.Status)
	if err != nil {
		return Campaign{}, fmt.Errorf("scheduler: get campaign %s: %w", campaignID, err)
	}
	return c, nil
}

// MarkDueSent flips every scheduled campaign whose send_at has passed to
// sent, returning how many rows changed. Stored send times are UTC in
// sendAtLayout (see Insert), so the lexical comparison is chronological.
func (s *Store) MarkDueSent(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE campaigns SET status = ? WHERE status = ? AND send_at <= ?`,
		StatusSent, StatusScheduled, now.UTC().Format(sendAtLayout))
	if err != nil {
		return 0, fmt.Errorf("scheduler: mark due campaigns: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("scheduler: count dispatched campaigns: %w", err)
	}
	return int(n), nil
}
