package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/lmasson/cadence/internal/track"
)

func TestNowPlayingNotification(t *testing.T) {
	tr := track.Track{Title: "Song", Artist: "Artist", Album: "Album"}

	n := NowPlaying(tr, false)
	if n.Title != "Now playing" {
		t.Errorf("Title = %q, want %q", n.Title, "Now playing")
	}
	if !strings.Contains(n.Body, "Artist - Song") {
		t.Errorf("Body = %q, want it to contain the display name", n.Body)
	}
	if !strings.Contains(n.Body, "Album") {
		t.Errorf("Body = %q, want it to contain the album", n.Body)
	}

	replay := NowPlaying(tr, true)
	if replay.Title != "Playing again" {
		t.Errorf("replay Title = %q, want %q", replay.Title, "Playing again")
	}
}

func TestNowPlayingWithoutAlbum(t *testing.T) {
	n := NowPlaying(track.Track{Title: "Song", Artist: "Artist"}, false)
	if strings.Contains(n.Body, "\n") {
		t.Errorf("Body = %q, want single line without album", n.Body)
	}
}

func TestScrobbledNotification(t *testing.T) {
	tr := track.Track{Title: "Song", Artist: "Artist"}
	n := Scrobbled(tr, time.Now())
	if n.Title != "Scrobbled" {
		t.Errorf("Title = %q, want %q", n.Title, "Scrobbled")
	}
	if !strings.Contains(n.Body, "Artist - Song") {
		t.Errorf("Body = %q, want it to contain the display name", n.Body)
	}
}
