// Package artwork resolves album art for a track through a chain of
// unreliable, eventually-consistent sources: the tracking service's track
// info, its recent-plays feed, and the Deezer catalog as a last resort.
package artwork

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lmasson/cadence/internal/deezer"
	"github.com/lmasson/cadence/internal/lastfm"
	"github.com/lmasson/cadence/internal/track"
)

const (
	// maxPollAttempts bounds the authoritative recent-tracks polling.
	maxPollAttempts = 8

	// placeholderID is the asset id Last.fm serves for "no artwork".
	placeholderID = "2a96cbd8b46e442fc41c2b86b821562f"
)

// InfoSource is the tracking-service lookup surface the resolver needs.
type InfoSource interface {
	GetTrackInfo(artist, title string) ([]lastfm.Image, error)
	GetRecentTracks(user string, limit int) ([]lastfm.RecentTrack, error)
}

// SearchSource is the secondary catalog used when the tracking service has
// no image.
type SearchSource interface {
	SearchTrack(ctx context.Context, artist, album, title string) ([]deezer.Track, error)
	SearchArtist(ctx context.Context, name string) ([]deezer.Artist, error)
}

// Result carries a resolved URL together with the track it was computed
// for, so consumers can drop results for tracks that are no longer current.
type Result struct {
	Track track.Track
	URL   string
}

// Resolver runs per-track artwork resolution in the background. A newer
// request supersedes the previous one.
type Resolver struct {
	info   InfoSource
	search SearchSource
	user   string
	log    *slog.Logger

	mu         sync.Mutex
	lastSig    string
	cancelPrev context.CancelFunc
}

// New creates a resolver. user is the tracking-service account whose
// recent-plays feed confirms the authoritative image.
func New(info InfoSource, search SearchSource, user string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{info: info, search: search, user: user, log: log}
}

// SetUser updates the account used for recent-tracks confirmation.
func (r *Resolver) SetUser(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = user
}

// Resolve starts background resolution for the given track, cancelling any
// resolution still running for a previous track. Results are delivered
// through the callback; the callback may fire more than once as confidence
// improves, and never fires after a newer Resolve call supersedes this one.
func (r *Resolver) Resolve(t track.Track, deliver func(Result)) {
	r.mu.Lock()
	if r.cancelPrev != nil {
		r.cancelPrev()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelPrev = cancel
	r.mu.Unlock()

	go r.run(ctx, t, deliver)
}

// Stop cancels any in-flight resolution.
func (r *Resolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelPrev != nil {
		r.cancelPrev()
		r.cancelPrev = nil
	}
}

func (r *Resolver) run(ctx context.Context, t track.Track, deliver func(Result)) {
	found := false

	// Phase 1: one generic track-info lookup. Lower confidence, but
	// immediate, so the consumer is not left without an image while the
	// external service catches up.
	if url := r.fromTrackInfo(t); url != "" {
		r.log.Debug("immediate artwork from track info", "track", t.DisplayName(), "url", url)
		found = true
		if ctx.Err() == nil {
			deliver(Result{Track: t, URL: url})
		}
	}

	// Phase 2: poll the recent-plays feed until the service itself reports
	// the new track, tolerating its eventual-consistency lag.
	for attempt := 1; attempt <= maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollDelay(attempt)):
		}

		url, ok := r.fromRecentTracks(true)
		if ok {
			r.log.Debug("authoritative artwork confirmed",
				"track", t.DisplayName(), "attempt", attempt, "url", url)
			if ctx.Err() == nil {
				deliver(Result{Track: t, URL: url})
			}
			return
		}
		r.log.Debug("artwork poll returned stale or empty data",
			"track", t.DisplayName(), "attempt", attempt, "max", maxPollAttempts)
	}

	// Fallback chain, at most once per track, only when both phases came up
	// empty.
	if !found {
		if url := r.Fallback(ctx, t); url != "" && ctx.Err() == nil {
			deliver(Result{Track: t, URL: url})
		}
	}
}

// pollDelay returns the wait before the given 1-based polling attempt.
func pollDelay(attempt int) time.Duration {
	switch {
	case attempt <= 2:
		return 500 * time.Millisecond
	case attempt <= 4:
		return time.Second
	default:
		return 2 * time.Second
	}
}

// fromTrackInfo returns the largest usable image from a track-info lookup,
// or empty.
func (r *Resolver) fromTrackInfo(t track.Track) string {
	images, err := r.info.GetTrackInfo(t.Artist, t.Title)
	if err != nil {
		r.log.Debug("track info lookup failed", "track", t.DisplayName(), "error", err)
		return ""
	}
	if imagesEmpty(images) {
		return ""
	}
	return bestImage(images)
}

// fromRecentTracks checks what the tracking service currently reports as
// playing. With requireNew set, a signature equal to the last confirmed one
// is stale data, not a result.
func (r *Resolver) fromRecentTracks(requireNew bool) (string, bool) {
	r.mu.Lock()
	user := r.user
	r.mu.Unlock()

	recent, err := r.info.GetRecentTracks(user, 1)
	if err != nil {
		r.log.Debug("recent tracks lookup failed", "error", err)
		return "", false
	}
	if len(recent) == 0 {
		return "", false
	}

	first := recent[0]
	if !first.NowPlaying || imagesEmpty(first.Images) {
		return "", false
	}

	sig := first.Signature()

	r.mu.Lock()
	defer r.mu.Unlock()
	if requireNew && r.lastSig != "" && r.lastSig == sig {
		return "", false
	}
	r.lastSig = sig

	return bestImage(first.Images), true
}

// Fallback runs the lookup chain used when the authoritative sources have
// nothing: track info, then Deezer by track, then Deezer by artist. Every
// failure is swallowed and the chain proceeds.
func (r *Resolver) Fallback(ctx context.Context, t track.Track) string {
	if url := r.fromTrackInfo(t); url != "" {
		return url
	}

	tracks, err := r.search.SearchTrack(ctx, t.Artist, t.Album, t.Title)
	if err == nil && len(tracks) > 0 {
		top := tracks[0]
		if top.Album != nil && top.Album.CoverBig != "" {
			return top.Album.CoverBig
		}
		if top.Artist != nil && top.Artist.PictureBig != "" {
			return top.Artist.PictureBig
		}
	} else if err != nil {
		r.log.Debug("deezer track search failed", "track", t.DisplayName(), "error", err)
	}

	artists, err := r.search.SearchArtist(ctx, t.Artist)
	if err == nil && len(artists) > 0 && artists[0].PictureBig != "" {
		return artists[0].PictureBig
	} else if err != nil {
		r.log.Debug("deezer artist search failed", "artist", t.Artist, "error", err)
	}

	r.log.Debug("no artwork found", "track", t.DisplayName())
	return ""
}

// imagesEmpty reports whether a candidate set carries no real image: no
// entries, every URL empty, or every URL pointing at the known placeholder.
func imagesEmpty(images []lastfm.Image) bool {
	if len(images) == 0 {
		return true
	}

	allEmpty := true
	allPlaceholder := true
	for _, img := range images {
		if img.URL != "" {
			allEmpty = false
		}
		if !strings.Contains(img.URL, placeholderID) {
			allPlaceholder = false
		}
	}
	return allEmpty || allPlaceholder
}

// bestImage picks the highest available resolution: large, then medium,
// then small.
func bestImage(images []lastfm.Image) string {
	for _, size := range []string{"large", "medium", "small"} {
		for _, img := range images {
			if img.Size == size && img.URL != "" {
				return img.URL
			}
		}
	}
	return ""
}
