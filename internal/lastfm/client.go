package lastfm

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/shkh/lastfm-go/lastfm"
)

// ErrNotAuthenticated is returned when an operation requires authentication.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client wraps the Last.fm API for scrobbling and lookup operations.
type Client struct {
	api        *lastfm.Api
	apiKey     string
	apiSecret  string
	sessionKey string
	username   string
}

// New creates a new Last.fm client with the given API credentials.
func New(apiKey, apiSecret string) *Client {
	return &Client{
		api:       lastfm.New(apiKey, apiSecret),
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// SetSessionKey sets the authenticated session key.
func (c *Client) SetSessionKey(key string) {
	c.sessionKey = key
	c.api.SetSession(key)
}

// SessionKey returns the current session key.
func (c *Client) SessionKey() string {
	return c.sessionKey
}

// SetUsername records the account name used for recent-tracks lookups.
func (c *Client) SetUsername(name string) {
	c.username = name
}

// Username returns the account name, if known.
func (c *Client) Username() string {
	return c.username
}

// IsAuthenticated returns true if a session key is set.
func (c *Client) IsAuthenticated() bool {
	return c.sessionKey != ""
}

// GetToken requests an authentication token from Last.fm.
func (c *Client) GetToken() (string, error) {
	result, err := c.api.GetToken()
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return result, nil
}

// GetAuthURL returns the URL for user authorization (desktop auth flow).
// User authorizes on Last.fm, then returns to the app and confirms.
func (c *Client) GetAuthURL(token string) string {
	return fmt.Sprintf("https://www.last.fm/api/auth/?api_key=%s&token=%s", c.apiKey, token)
}

// GetAuthCallbackURL returns the authorization URL for the callback flow:
// Last.fm redirects to callback with the token once the user authorizes.
func (c *Client) GetAuthCallbackURL(callback string) string {
	return fmt.Sprintf("https://www.last.fm/api/auth/?api_key=%s&cb=%s",
		c.apiKey, url.QueryEscape(callback))
}

// GetSession exchanges an authorized token for a session key.
func (c *Client) GetSession(token string) (username, sessionKey string, err error) {
	err = c.api.LoginWithToken(token)
	if err != nil {
		return "", "", fmt.Errorf("get session: %w", err)
	}

	sessionKey = c.api.GetSessionKey()
	c.sessionKey = sessionKey

	userInfo, err := c.api.User.GetInfo(nil)
	if err != nil {
		// Session is valid but couldn't get username - still return session
		return "unknown", sessionKey, nil //nolint:nilerr // username is optional
	}

	c.username = userInfo.Name
	return userInfo.Name, sessionKey, nil
}

// UpdateNowPlaying sends a "now playing" notification to Last.fm.
func (c *Client) UpdateNowPlaying(t ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	params := lastfm.P{
		"artist": t.Artist,
		"track":  t.Track,
	}

	if t.Album != "" {
		params["album"] = t.Album
	}
	if t.AlbumArtist != "" && t.AlbumArtist != t.Artist {
		params["albumArtist"] = t.AlbumArtist
	}
	if t.Duration > 0 {
		params["duration"] = int(t.Duration.Seconds())
	}

	_, err := c.api.Track.UpdateNowPlaying(params)
	if err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}

// Scrobble submits a track play to Last.fm.
func (c *Client) Scrobble(t ScrobbleTrack) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	params := lastfm.P{
		"artist":    t.Artist,
		"track":     t.Track,
		"timestamp": t.Timestamp.Unix(),
	}

	if t.Album != "" {
		params["album"] = t.Album
	}
	if t.AlbumArtist != "" && t.AlbumArtist != t.Artist {
		params["albumArtist"] = t.AlbumArtist
	}
	if t.Duration > 0 {
		params["duration"] = int(t.Duration.Seconds())
	}

	_, err := c.api.Track.Scrobble(params)
	if err != nil {
		return fmt.Errorf("scrobble: %w", err)
	}
	return nil
}

// GetTrackInfo fetches the album images Last.fm knows for a track.
func (c *Client) GetTrackInfo(artist, title string) ([]Image, error) {
	params := lastfm.P{
		"artist": artist,
		"track":  title,
	}

	result, err := c.api.Track.GetInfo(params)
	if err != nil {
		return nil, fmt.Errorf("get track info: %w", err)
	}

	images := make([]Image, 0, len(result.Album.Images))
	for _, img := range result.Album.Images {
		images = append(images, Image{Size: img.Size, URL: img.Url})
	}
	return images, nil
}

// GetRecentTracks fetches the user's most recent plays as the service
// currently reports them, including the in-flight "now playing" entry.
func (c *Client) GetRecentTracks(user string, limit int) ([]RecentTrack, error) {
	if user == "" {
		user = c.username
	}
	if user == "" {
		return nil, ErrNotAuthenticated
	}

	params := lastfm.P{
		"user":  user,
		"limit": limit,
	}

	result, err := c.api.User.GetRecentTracks(params)
	if err != nil {
		return nil, fmt.Errorf("get recent tracks: %w", err)
	}

	tracks := make([]RecentTrack, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		rt := RecentTrack{
			Artist:     t.Artist.Name,
			Title:      t.Name,
			Album:      t.Album.Name,
			NowPlaying: t.NowPlaying == "true",
		}
		for _, img := range t.Images {
			rt.Images = append(rt.Images, Image{Size: img.Size, URL: img.Url})
		}
		tracks = append(tracks, rt)
	}

	return tracks, nil
}

// GetSimilarTracks fetches tracks similar to the given one from Last.fm.
func (c *Client) GetSimilarTracks(artist, title string, limit int) ([]SimilarTrack, error) {
	params := lastfm.P{
		"artist": artist,
		"track":  title,
		"limit":  limit,
	}

	result, err := c.api.Track.GetSimilar(params)
	if err != nil {
		return nil, fmt.Errorf("get similar tracks: %w", err)
	}

	tracks := make([]SimilarTrack, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		score := 0.0
		if t.Match != "" {
			_, _ = fmt.Sscanf(t.Match, "%f", &score) //nolint:errcheck // parse failure means score stays 0
		}
		tracks = append(tracks, SimilarTrack{
			Name:       t.Name,
			Artist:     t.Artist.Name,
			MatchScore: score,
			URL:        t.Url,
		})
	}

	return tracks, nil
}

// GetSimilarArtists fetches similar artists from Last.fm.
func (c *Client) GetSimilarArtists(artist string, limit int) ([]SimilarArtist, error) {
	params := lastfm.P{
		"artist": artist,
		"limit":  limit,
	}

	result, err := c.api.Artist.GetSimilar(params)
	if err != nil {
		return nil, fmt.Errorf("get similar artists: %w", err)
	}

	artists := make([]SimilarArtist, 0, len(result.Similars))
	for _, a := range result.Similars {
		score := 0.0
		if a.Match != "" {
			_, _ = fmt.Sscanf(a.Match, "%f", &score) //nolint:errcheck // parse failure means score stays 0
		}
		artists = append(artists, SimilarArtist{
			Name:       a.Name,
			MatchScore: score,
			URL:        a.Url,
		})
	}

	return artists, nil
}
