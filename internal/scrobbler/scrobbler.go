// Package scrobbler owns the playback tracking state machine: it accepts
// normalized tracks, samples player position, detects replays, and commits
// scrobbles after enough listening time has elapsed.
package scrobbler

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmasson/cadence/internal/artwork"
	"github.com/lmasson/cadence/internal/lastfm"
	"github.com/lmasson/cadence/internal/metarules"
	"github.com/lmasson/cadence/internal/player"
	"github.com/lmasson/cadence/internal/state"
	"github.com/lmasson/cadence/internal/track"
)

const (
	// samplePeriod is the position polling cadence while tracking.
	samplePeriod = 500 * time.Millisecond

	// minScrobbleLength: shorter tracks never arm a scrobble.
	minScrobbleLength = 30 * time.Second

	// maxScrobbleDelay caps the armed delay regardless of track length.
	maxScrobbleDelay = 240 * time.Second

	// replayThreshold: a position below this counts as "near the start".
	replayThreshold = 2 * time.Second

	// recentViewCap bounds the in-memory recent-scrobbles view.
	recentViewCap = 10

	similarLimit = 5
)

// Submitter is the remote tracking-service surface the engine needs. All
// calls are fallible and none of their failures are fatal to tracking.
type Submitter interface {
	UpdateNowPlaying(t lastfm.ScrobbleTrack) error
	Scrobble(t lastfm.ScrobbleTrack) error
	GetSimilarTracks(artist, title string, limit int) ([]lastfm.SimilarTrack, error)
	GetSimilarArtists(artist string, limit int) ([]lastfm.SimilarArtist, error)
}

// History persists committed scrobbles.
type History interface {
	AppendScrobble(r state.ScrobbleRecord) error
}

// ArtResolver resolves artwork in the background; nil disables artwork.
type ArtResolver interface {
	Resolve(t track.Track, deliver func(artwork.Result))
	Stop()
}

type similarItems struct {
	tracks  []track.SimilarTrack
	artists []track.SimilarArtist
}

// Engine is the single owner of tracking state. All mutation happens on
// its run loop; external calls and async completions are serialized
// through a call channel.
type Engine struct {
	source  player.Source
	rules   *metarules.Engine
	submit  Submitter
	history History
	art     ArtResolver
	log     *slog.Logger

	enabled atomic.Bool

	calls chan func()
	done  chan struct{}

	// Owner state. Touched only from the run loop.
	current      track.Track
	hasCurrent   bool
	previous     track.Track
	lastPosition time.Duration
	stalePolls   int
	replayGuard  bool
	tracking     bool
	timer        *time.Timer

	recent   []state.ScrobbleRecord
	similars map[string]similarItems

	subsMu sync.RWMutex
	subs   []*Subscription
	closed bool
}

// New creates an engine. Scrobbling starts enabled; call Start to begin
// observing the source.
func New(source player.Source, rules *metarules.Engine, submit Submitter,
	history History, art ArtResolver, log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		source:   source,
		rules:    rules,
		submit:   submit,
		history:  history,
		art:      art,
		log:      log,
		calls:    make(chan func(), 32),
		done:     make(chan struct{}),
		similars: make(map[string]similarItems),
	}
	e.enabled.Store(true)
	return e
}

// Start launches the run loop.
func (e *Engine) Start() {
	go e.run()
}

func (e *Engine) run() {
	ticker := time.NewTicker(samplePeriod)
	defer ticker.Stop()

	events := e.source.Events()

	for {
		var timerC <-chan time.Time
		if e.timer != nil {
			timerC = e.timer.C
		}

		select {
		case <-e.done:
			if e.timer != nil {
				e.timer.Stop()
			}
			return
		case fn := <-e.calls:
			fn()
		case st, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.observe(st)
		case <-ticker.C:
			e.sample()
		case <-timerC:
			e.timer = nil
			e.fire()
		}
	}
}

// observe handles a pushed player state change.
func (e *Engine) observe(st player.Status) {
	if !st.IsPlaying() {
		e.stopTracking(st.Track.State)
		return
	}

	if e.tracking && e.hasCurrent && e.current.SameTrack(st.Track) {
		// Same track still playing; the armed timer stands.
		e.lastPosition = st.Position
		return
	}
	e.accept(st)
}

// accept runs a playing track through the rule engine and, if it passes,
// makes it the current track: rotates previous/current, resets counters,
// notifies now-playing, kicks off artwork and similar-items lookups and
// arms the scrobble timer. Scrobbling being disabled is checked here, at
// the acceptance boundary, and nowhere else.
func (e *Engine) accept(st player.Status) {
	if !e.enabled.Load() {
		e.log.Debug("scrobbling disabled, ignoring track", "track", st.Track.DisplayName())
		return
	}

	raw := st.Track
	if !e.rules.Accepts(raw) {
		e.log.Info("track rejected by filter rules", "track", raw.DisplayName())
		return
	}

	t := e.rules.Process(raw)
	t.State = track.StatePlaying
	if t.ObservedAt.IsZero() {
		t.ObservedAt = time.Now()
	}

	if e.hasCurrent {
		e.previous = e.current
	}
	e.current = t
	e.hasCurrent = true
	e.lastPosition = st.Position
	e.stalePolls = 0
	// Guard stays up until the position moves past the near-start window,
	// so a track starting at zero is not mistaken for a replay.
	e.replayGuard = true
	e.tracking = true

	e.armTimer(t)
	e.notifyNowPlaying(t)
	e.resolveArtwork(t)
	e.enrichSimilar(t)
	e.broadcastTrack(TrackChange{Track: t})

	e.log.Info("tracking", "track", t.DisplayName(), "duration", t.Duration)
}

// sample polls the player position while tracking. Replay detection and
// stale-poll bookkeeping live here; nothing in this path stops tracking.
func (e *Engine) sample() {
	if !e.tracking {
		return
	}

	st, err := e.source.Sample()
	if err != nil {
		e.stalePolls++
		return
	}
	if !st.IsPlaying() && st.Position == e.lastPosition {
		e.stalePolls++
		return
	}

	if st.Position < replayThreshold {
		if !e.replayGuard {
			e.handleReplay()
			return
		}
	} else {
		e.replayGuard = false
	}

	e.lastPosition = st.Position
}

// handleReplay treats a jump back to the start as a fresh listening event:
// a new snapshot of the same track, a re-armed timer and a fresh
// now-playing notification.
func (e *Engine) handleReplay() {
	fresh := e.current.Replay()
	e.previous = e.current
	e.current = fresh
	e.lastPosition = 0
	e.stalePolls = 0
	e.replayGuard = true

	e.armTimer(fresh)
	e.notifyNowPlaying(fresh)
	e.broadcastTrack(TrackChange{Track: fresh, Replay: true})

	e.log.Info("replay detected", "track", fresh.DisplayName())
}

// stopTracking cancels the sampler's work and the armed timer. The current
// track is kept so consumers can still show what played last.
func (e *Engine) stopTracking(s track.PlayerState) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.hasCurrent {
		e.current.State = s
	}
	if e.tracking {
		e.tracking = false
		e.log.Info("playback stopped", "state", s)
	}
}

// armTimer cancels any armed timer and arms a new one for t. Tracks under
// the minimum length are never armed.
func (e *Engine) armTimer(t track.Track) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if t.Duration < minScrobbleLength {
		e.log.Debug("track too short to scrobble", "track", t.DisplayName(), "duration", t.Duration)
		return
	}

	delay := t.Duration / 2
	if delay > maxScrobbleDelay {
		delay = maxScrobbleDelay
	}
	e.timer = time.NewTimer(delay)
	e.log.Debug("scrobble armed", "track", t.DisplayName(), "in", delay)
}

// fire commits a scrobble for whatever the current track is at fire time.
func (e *Engine) fire() {
	if !e.hasCurrent {
		return
	}
	e.commitScrobble(e.current)
}

// commitScrobble submits in the background and records locally. The record
// is written as success regardless of the submission outcome: local history
// completeness wins over strict accuracy, submission failures are logged.
func (e *Engine) commitScrobble(t track.Track) {
	go func() {
		if err := e.submit.Scrobble(submissionTrack(t)); err != nil {
			e.log.Warn("scrobble submission failed", "track", t.DisplayName(), "error", err)
		}
	}()

	rec := state.NewScrobbleRecord(t, time.Now(), state.StatusSuccess)
	if err := e.history.AppendScrobble(rec); err != nil {
		e.log.Warn("persisting scrobble failed", "error", err)
	}

	e.recent = append([]state.ScrobbleRecord{rec}, e.recent...)
	if len(e.recent) > recentViewCap {
		e.recent = e.recent[:recentViewCap]
	}

	e.broadcastScrobble(ScrobbleEvent{Record: rec})
	e.log.Info("scrobbled", "track", t.DisplayName())
}

func (e *Engine) notifyNowPlaying(t track.Track) {
	go func() {
		if err := e.submit.UpdateNowPlaying(submissionTrack(t)); err != nil {
			e.log.Debug("now playing update failed", "track", t.DisplayName(), "error", err)
		}
	}()
}

// resolveArtwork starts background resolution; the completion re-enters
// the run loop and is dropped if the track is no longer current.
func (e *Engine) resolveArtwork(t track.Track) {
	if e.art == nil {
		return
	}
	e.art.Resolve(t, func(res artwork.Result) {
		e.do(func() {
			if !e.hasCurrent || !e.current.SameTrack(res.Track) {
				return
			}
			e.current.ArtworkURL = res.URL
			e.broadcastArtwork(ArtworkChange{Track: e.current, URL: res.URL})
		})
	})
}

// enrichSimilar attaches similar tracks/artists to the current track, from
// cache when this track was looked up before.
func (e *Engine) enrichSimilar(t track.Track) {
	sig := t.Signature()
	if items, ok := e.similars[sig]; ok {
		e.current.SimilarTracks = items.tracks
		e.current.SimilarArtists = items.artists
		return
	}

	go func() {
		tracks, trackErr := e.submit.GetSimilarTracks(t.Artist, t.Title, similarLimit)
		artists, artistErr := e.submit.GetSimilarArtists(t.Artist, similarLimit)
		if trackErr != nil && artistErr != nil {
			e.log.Debug("similar lookup failed", "track", t.DisplayName(), "error", trackErr)
			return
		}

		items := similarItems{
			tracks:  convertSimilarTracks(tracks),
			artists: convertSimilarArtists(artists),
		}
		e.do(func() {
			e.similars[sig] = items
			if e.hasCurrent && e.current.Signature() == sig {
				e.current.SimilarTracks = items.tracks
				e.current.SimilarArtists = items.artists
			}
		})
	}()
}

// do runs fn on the run loop. No-op once the engine is closed.
func (e *Engine) do(fn func()) {
	select {
	case e.calls <- fn:
	case <-e.done:
	}
}

// Observe feeds a playback snapshot to the state machine, used to pick up
// a track that was already playing when the engine started.
func (e *Engine) Observe(st player.Status) {
	e.do(func() { e.observe(st) })
}

// SetEnabled toggles scrobbling. Disabling never clears history or cancels
// an already armed timer; it takes effect at the next acceptance.
func (e *Engine) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
}

// Enabled reports whether new tracks are accepted for scrobbling.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// CurrentTrack returns the current track snapshot, if any.
func (e *Engine) CurrentTrack() (track.Track, bool) {
	type reply struct {
		t  track.Track
		ok bool
	}
	ch := make(chan reply, 1)
	e.do(func() { ch <- reply{e.current, e.hasCurrent} })
	select {
	case r := <-ch:
		return r.t, r.ok
	case <-e.done:
		return track.Track{}, false
	}
}

// RecentScrobbles returns a copy of the bounded recent view, newest first.
func (e *Engine) RecentScrobbles() []state.ScrobbleRecord {
	ch := make(chan []state.ScrobbleRecord, 1)
	e.do(func() {
		out := make([]state.ScrobbleRecord, len(e.recent))
		copy(out, e.recent)
		ch <- out
	})
	select {
	case recs := <-ch:
		return recs
	case <-e.done:
		return nil
	}
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close stops the run loop and any in-flight artwork resolution.
func (e *Engine) Close() error {
	e.subsMu.Lock()
	if e.closed {
		e.subsMu.Unlock()
		return nil
	}
	e.closed = true
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	close(e.done)
	if e.art != nil {
		e.art.Stop()
	}
	return nil
}

func (e *Engine) broadcastTrack(ev TrackChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendTrack(ev)
	}
}

func (e *Engine) broadcastScrobble(ev ScrobbleEvent) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendScrobble(ev)
	}
}

func (e *Engine) broadcastArtwork(ev ArtworkChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendArtwork(ev)
	}
}

func submissionTrack(t track.Track) lastfm.ScrobbleTrack {
	return lastfm.ScrobbleTrack{
		Artist:      t.Artist,
		Track:       t.Title,
		Album:       t.Album,
		AlbumArtist: t.AlbumArtist,
		Duration:    t.Duration,
		Timestamp:   t.ObservedAt,
	}
}

func convertSimilarTracks(in []lastfm.SimilarTrack) []track.SimilarTrack {
	out := make([]track.SimilarTrack, len(in))
	for i, s := range in {
		out[i] = track.SimilarTrack{
			Name:   s.Name,
			Artist: s.Artist,
			Match:  s.MatchScore,
			URL:    s.URL,
		}
	}
	return out
}

func convertSimilarArtists(in []lastfm.SimilarArtist) []track.SimilarArtist {
	out := make([]track.SimilarArtist, len(in))
	for i, s := range in {
		out[i] = track.SimilarArtist{
			Name:  s.Name,
			Match: s.MatchScore,
			URL:   s.URL,
		}
	}
	return out
}
