package lastfm

import "time"

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist      string
	Track       string
	Album       string
	AlbumArtist string
	Duration    time.Duration
	Timestamp   time.Time // When playback started
}

// Image is a single artwork candidate at a named size.
type Image struct {
	Size string // "small", "medium", "large", "extralarge"
	URL  string
}

// RecentTrack is one entry of a user's recent-plays feed.
type RecentTrack struct {
	Artist     string
	Title      string
	Album      string
	Images     []Image
	NowPlaying bool
}

// Signature returns the artist|title|album key for staleness detection.
func (t RecentTrack) Signature() string {
	return t.Artist + "|" + t.Title + "|" + t.Album
}

// SimilarTrack represents a similar track from Last.fm.
type SimilarTrack struct {
	Name       string
	Artist     string
	MatchScore float64 // 0.0-1.0 similarity score
	URL        string
}

// SimilarArtist represents a similar artist from Last.fm.
type SimilarArtist struct {
	Name       string
	MatchScore float64 // 0.0-1.0 similarity score
	URL        string
}
