// Package track defines the track snapshot model shared by the scrobbler,
// the rule engine and the artwork resolver.
package track

import (
	"fmt"
	"time"
)

// PlayerState represents the reported state of the media player.
type PlayerState int

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s PlayerState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SimilarTrack is a related track reported by the tracking service.
type SimilarTrack struct {
	Name   string
	Artist string
	Match  float64
	URL    string
}

// SimilarArtist is a related artist reported by the tracking service.
type SimilarArtist struct {
	Name  string
	Match float64
	URL   string
}

// Track is a value-type snapshot of a playable item. Snapshots are never
// mutated across identity: a new or replayed track replaces the previous
// snapshot wholesale.
type Track struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Duration    time.Duration
	State       PlayerState
	ObservedAt  time.Time
	ArtworkURL  string

	SimilarTracks  []SimilarTrack
	SimilarArtists []SimilarArtist
}

// New creates a snapshot observed now.
func New(title, artist string, duration time.Duration, state PlayerState) Track {
	return Track{
		Title:      title,
		Artist:     artist,
		Duration:   duration,
		State:      state,
		ObservedAt: time.Now(),
	}
}

// DisplayName returns the "artist - title" form used for filtering and logs.
func (t Track) DisplayName() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// Signature returns the artist|title|album key used to detect whether an
// external source's "currently reported" track has actually changed.
func (t Track) Signature() string {
	return fmt.Sprintf("%s|%s|%s", t.Artist, t.Title, t.Album)
}

// SameTrack reports whether two snapshots describe the same logical track.
// Identity is approximate: title and artist are compared after case and
// diacritic folding, and durations must agree within two seconds unless
// either is unknown.
func (t Track) SameTrack(other Track) bool {
	if normalize(t.Title) != normalize(other.Title) {
		return false
	}
	if normalize(t.Artist) != normalize(other.Artist) {
		return false
	}
	if t.Duration == 0 || other.Duration == 0 {
		return true
	}
	diff := t.Duration - other.Duration
	if diff < 0 {
		diff = -diff
	}
	return diff < 2*time.Second
}

// Replay returns a fresh snapshot of the same track restarted from the
// beginning, preserving metadata and resolved artwork.
func (t Track) Replay() Track {
	return Track{
		Title:          t.Title,
		Artist:         t.Artist,
		AlbumArtist:    t.AlbumArtist,
		Album:          t.Album,
		Duration:       t.Duration,
		State:          StatePlaying,
		ObservedAt:     time.Now(),
		ArtworkURL:     t.ArtworkURL,
		SimilarTracks:  t.SimilarTracks,
		SimilarArtists: t.SimilarArtists,
	}
}
