package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lmasson/cadence/internal/track"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestScrobbles_AppendAndRecent(t *testing.T) {
	m := openTestManager(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		tr := track.Track{
			Title:    "Song",
			Artist:   "Artist",
			Album:    "Album",
			Duration: 200 * time.Second,
		}
		rec := NewScrobbleRecord(tr, base.Add(time.Duration(i)*time.Minute), StatusSuccess)
		if err := m.AppendScrobble(rec); err != nil {
			t.Fatalf("AppendScrobble: %v", err)
		}
	}

	records, err := m.RecentScrobbles(10)
	if err != nil {
		t.Fatalf("RecentScrobbles: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	// Newest first
	if !records[0].Timestamp.After(records[1].Timestamp) {
		t.Error("records must be ordered newest first")
	}
	if records[0].Track.Title != "Song" || records[0].Track.Duration != 200*time.Second {
		t.Errorf("round-tripped track = %+v", records[0].Track)
	}
	if records[0].Status != StatusSuccess {
		t.Errorf("Status = %q, want success", records[0].Status)
	}
}

func TestScrobbles_RecentLimit(t *testing.T) {
	m := openTestManager(t)

	base := time.Now()
	for i := 0; i < 15; i++ {
		rec := NewScrobbleRecord(
			track.Track{Title: "Song", Artist: "Artist"},
			base.Add(time.Duration(i)*time.Minute),
			StatusSuccess,
		)
		if err := m.AppendScrobble(rec); err != nil {
			t.Fatalf("AppendScrobble: %v", err)
		}
	}

	records, err := m.RecentScrobbles(10)
	if err != nil {
		t.Fatalf("RecentScrobbles: %v", err)
	}
	if len(records) != 10 {
		t.Errorf("len(records) = %d, want 10", len(records))
	}

	count, err := m.CountScrobbles()
	if err != nil {
		t.Fatalf("CountScrobbles: %v", err)
	}
	if count != 15 {
		t.Errorf("CountScrobbles = %d, want 15", count)
	}
}

func TestLastfmSession_RoundTrip(t *testing.T) {
	m := openTestManager(t)

	session, err := m.GetLastfmSession()
	if err != nil {
		t.Fatalf("GetLastfmSession: %v", err)
	}
	if session != nil {
		t.Fatal("expected nil session before link")
	}

	if err := m.SaveLastfmSession("alice", "key-123"); err != nil {
		t.Fatalf("SaveLastfmSession: %v", err)
	}

	session, err = m.GetLastfmSession()
	if err != nil {
		t.Fatalf("GetLastfmSession: %v", err)
	}
	if session == nil || session.Username != "alice" || session.SessionKey != "key-123" {
		t.Errorf("session = %+v", session)
	}

	// Overwrite on re-link
	if err := m.SaveLastfmSession("alice", "key-456"); err != nil {
		t.Fatalf("SaveLastfmSession: %v", err)
	}
	session, _ = m.GetLastfmSession()
	if session.SessionKey != "key-456" {
		t.Errorf("SessionKey = %q, want key-456", session.SessionKey)
	}

	if err := m.DeleteLastfmSession(); err != nil {
		t.Fatalf("DeleteLastfmSession: %v", err)
	}
	session, _ = m.GetLastfmSession()
	if session != nil {
		t.Error("expected nil session after unlink")
	}
}
