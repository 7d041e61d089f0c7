package scrobbler

import (
	"github.com/lmasson/cadence/internal/state"
	"github.com/lmasson/cadence/internal/track"
)

// TrackChange announces that the engine accepted a track, including a
// replay of the one it was already tracking.
type TrackChange struct {
	Track  track.Track
	Replay bool
}

// ScrobbleEvent announces a committed scrobble.
type ScrobbleEvent struct {
	Record state.ScrobbleRecord
}

// ArtworkChange announces artwork resolved for the current track.
type ArtworkChange struct {
	Track track.Track
	URL   string
}
