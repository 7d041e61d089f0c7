// Package player abstracts the media player being observed. A Source
// provides polled playback snapshots plus change notifications; the MPRIS
// implementation watches any player on the session bus.
package player

import (
	"time"

	"github.com/lmasson/cadence/internal/track"
)

// Status is a point-in-time playback snapshot.
type Status struct {
	Track    track.Track
	Position time.Duration
}

// IsPlaying reports whether the snapshot describes active playback.
func (s Status) IsPlaying() bool {
	return s.Track.State == track.StatePlaying
}

// Source is a playback state provider. Sample is safe to call from any
// goroutine; Events delivers a fresh snapshot whenever the player reports
// a change, so consumers need not rely on polling alone.
type Source interface {
	Sample() (Status, error)
	Events() <-chan Status
	Close() error
}
