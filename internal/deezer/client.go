// Package deezer provides a client for the public Deezer search API, used as
// a secondary artwork source when Last.fm has no image.
package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	baseURL   = "https://api.deezer.com"
	userAgent = "cadence-scrobbler/1.0 (https://github.com/lmasson/cadence)"
)

// Client is a Deezer search API client.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
}

// New creates a new Deezer client with a small retry budget.
func New() *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	return &Client{httpClient: rc, baseURL: baseURL}
}

// Track is a track search candidate.
type Track struct {
	Title  string  `json:"title"`
	Album  *Album  `json:"album"`
	Artist *Artist `json:"artist"`
}

// Album carries its covers by size.
type Album struct {
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverSmall  string `json:"cover_small"`
	CoverMedium string `json:"cover_medium"`
	CoverBig    string `json:"cover_big"`
	CoverXL     string `json:"cover_xl"`
}

// Artist carries its pictures by size.
type Artist struct {
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	PictureSmall  string `json:"picture_small"`
	PictureMedium string `json:"picture_medium"`
	PictureBig    string `json:"picture_big"`
	PictureXL     string `json:"picture_xl"`
}

type searchResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SearchTrack searches for tracks by title, optionally narrowed by artist
// and album.
func (c *Client) SearchTrack(ctx context.Context, artist, album, title string) ([]Track, error) {
	params := url.Values{}
	params.Set("strict", "on")
	params.Set("q", buildTrackQuery(artist, album, title))

	var result searchResponse[Track]
	if err := c.get(ctx, "/search/track", params, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// buildTrackQuery assembles the fielded Deezer search query, quoting each
// present term.
func buildTrackQuery(artist, album, title string) string {
	var query strings.Builder
	if title != "" {
		fmt.Fprintf(&query, "track:%q ", title)
	}
	if artist != "" {
		fmt.Fprintf(&query, "artist:%q ", artist)
	}
	if album != "" {
		fmt.Fprintf(&query, "album:%q ", album)
	}
	return strings.TrimSpace(query.String())
}

// SearchArtist searches for artists by name.
func (c *Client) SearchArtist(ctx context.Context, name string) ([]Artist, error) {
	params := url.Values{}
	params.Set("q", name)

	var result searchResponse[Artist]
	if err := c.get(ctx, "/search/artist", params, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
