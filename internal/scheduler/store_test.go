package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hivelabs/campaignd/internal/crm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	_, db, err := crm.Open(filepath.Join(t.TempDir(), "crm.db"))
	if err != nil {
		t.Fatalf("open crm db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestNewCampaignID(t *testing.T) {
	t.Parallel()

	id := NewCampaignID()
	if !strings.HasPrefix(id, "cmp_") || len(id) != len("cmp_")+8 {
		t.Errorf("campaign id = %q, want cmp_ plus 8 hex chars", id)
	}
	if id == NewCampaignID() {
		t.Error("expected unique ids")
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	c := Campaign{
		CampaignID:   NewCampaignID(),
		SegmentID:    "seg_ab12cd34",
		EventName:    "Midnight Jazz Revue",
		AudienceSize: 42,
		SendAt:       "2026-09-01T10:00:00",
		Status:       StatusScheduled,
	}
	if err := store.Insert(ctx, c); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.Get(ctx, c.CampaignID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != c {
		t.Errorf("got %+v, want %+v", got, c)
	}
}

func TestStore_MarkDueSent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	past := Campaign{
		CampaignID: NewCampaignID(),
		SegmentID:  "seg_1",
		EventName:  "Past Event",
		SendAt:     "2026-09-01T10:00:00",
		Status:     StatusScheduled,
	}
	future := Campaign{
		CampaignID: NewCampaignID(),
		SegmentID:  "seg_2",
		EventName:  "Future Event",
		SendAt:     "2026-09-02T10:00:00",
		Status:     StatusScheduled,
	}
	for _, c := range []Campaign{past, future} {
		if err := store.Insert(ctx, c); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	n, err := store.MarkDueSent(ctx, now)
	if err != nil {
		t.Fatalf("mark due: %v", err)
	}
	if n != 1 {
		t.Errorf("dispatched = %d, want 1", n)
	}

	got, err := store.Get(ctx, past.CampaignID)
	if err != nil {
		t.Fatalf("get past: %v", err)
	}
	if got.Status != StatusSent {
		t.Errorf("past status = %q, want sent", got.Status)
	}

	got, err = store.Get(ctx, future.CampaignID)
	if err != nil {
		t.Fatalf("get future: %v", err)
	}
	if got.Status != StatusScheduled {
		t.Errorf("future status = %q, want scheduled", got.Status)
	}

	// A second pass finds nothing new.
	n, err = store.MarkDueSent(ctx, now)
	if err != nil {
		t.Fatalf("second mark due: %v", err)
	}
	if n != 0 {
		t.Errorf("second pass dispatched = %d, want 0", n)
	}
}

func TestNormalizeSendAt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"2026-09-01T10:00:00", "2026-09-01T10:00:00"},
		{"2026-09-01T10:00:00Z", "2026-09-01T10:00:00"},
		{"2026-09-01T10:00:00+09:00", "2026-09-01T01:00:00"},
		{"2026-09-01T10:00:00-05:00", "2026-09-01T15:00:00"},
		{"2026-09-01T10:00", "2026-09-01T10:00:00"},
		{"2026-09-01", "2026-09-01T00:00:00"},
		{"next tuesday", "next tuesday"}, // unparseable passes through
	}
	for _, tc := range cases {
		if got := NormalizeSendAt(tc.in); got != tc.want {
			t.Errorf("NormalizeSendAt(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStore_MarkDueSent_HonorsZoneOffsets(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	// 23:30+09:00 is 14:30 UTC; lexically "23:30..." would sort after any
	// same-day UTC cutoff and never dispatch.
	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)

	due := Campaign{
		CampaignID: NewCampaignID(),
		SegmentID:  "seg_1",
		EventName:  "Tokyo Night Market",
		SendAt:     "2026-09-01T23:30:00+09:00",
		Status:     StatusScheduled,
	}
	notDue := Campaign{
		CampaignID: NewCampaignID(),
		SegmentID:  "seg_2",
		EventName:  "Chicago Matinee",
		SendAt:     "2026-09-01T11:00:00-05:00", // 16:00 UTC
		Status:     StatusScheduled,
	}
	for _, c := range []Campaign{due, notDue} {
		if err := store.Insert(ctx, c); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	n, err := store.MarkDueSent(ctx, now)
	if err != nil {
		t.Fatalf("mark due: %v", err)
	}
	if n != 1 {
		t.Errorf("dispatched = %d, want 1", n)
	}

	got, err := store.Get(ctx, due.CampaignID)
	if err != nil {
		t.Fatalf("get due: %v", err)
	}
	if got.Status != StatusSent {
		t.Errorf("due status = %q, want sent", got.Status)
	}
	if got.SendAt != "2026-09-01T14:30:00" {
		t.Errorf("stored send_at = %q, want UTC-normalized", got.SendAt)
	}

	got, err = store.Get(ctx, notDue.CampaignID)
	if err != nil {
		t.Fatalf("get not-due: %v", err)
	}
	if got.Status != StatusScheduled {
		t.Errorf("not-due status = %q, want scheduled", got.Status)
	}
}
