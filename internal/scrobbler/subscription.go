package scrobbler

const eventBufferSize = 16

// Subscription provides event channels for a subscriber. Channels are
// buffered; slow subscribers lose events rather than block the engine.
type Subscription struct {
	TrackChanged   <-chan TrackChange
	Scrobbled      <-chan ScrobbleEvent
	ArtworkChanged <-chan ArtworkChange
	Done           <-chan struct{}

	// Internal write channels
	trackCh    chan TrackChange
	scrobbleCh chan ScrobbleEvent
	artworkCh  chan ArtworkChange
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		trackCh:    make(chan TrackChange, eventBufferSize),
		scrobbleCh: make(chan ScrobbleEvent, eventBufferSize),
		artworkCh:  make(chan ArtworkChange, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.TrackChanged = s.trackCh
	s.Scrobbled = s.scrobbleCh
	s.ArtworkChanged = s.artworkCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendScrobble(e ScrobbleEvent) {
	select {
	case s.scrobbleCh <- e:
	default:
	}
}

func (s *Subscription) sendArtwork(e ArtworkChange) {
	select {
	case s.artworkCh <- e:
	default:
	}
}
