//go:build linux

package player

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/lmasson/cadence/internal/track"
)

func TestTrackFromMetadata(t *testing.T) {
	meta := map[string]dbus.Variant{
		"xesam:title":       dbus.MakeVariant("Song Title"),
		"xesam:artist":      dbus.MakeVariant([]string{"First Artist", "Second Artist"}),
		"xesam:albumArtist": dbus.MakeVariant([]string{"First Artist"}),
		"xesam:album":       dbus.MakeVariant("The Album"),
		"mpris:length":      dbus.MakeVariant(int64(187 * 1000 * 1000)),
	}

	got := trackFromMetadata(meta)

	if got.Title != "Song Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Song Title")
	}
	if got.Artist != "First Artist, Second Artist" {
		t.Errorf("Artist = %q, want joined list", got.Artist)
	}
	if got.AlbumArtist != "First Artist" {
		t.Errorf("AlbumArtist = %q, want %q", got.AlbumArtist, "First Artist")
	}
	if got.Album != "The Album" {
		t.Errorf("Album = %q, want %q", got.Album, "The Album")
	}
	if got.Duration != 187*time.Second {
		t.Errorf("Duration = %v, want %v", got.Duration, 187*time.Second)
	}
}

func TestTrackFromMetadataPlainStringArtist(t *testing.T) {
	meta := map[string]dbus.Variant{
		"xesam:title":  dbus.MakeVariant("Song"),
		"xesam:artist": dbus.MakeVariant("Solo Artist"),
	}

	got := trackFromMetadata(meta)
	if got.Artist != "Solo Artist" {
		t.Errorf("Artist = %q, want %q", got.Artist, "Solo Artist")
	}
	if got.Duration != 0 {
		t.Errorf("Duration = %v, want 0 for missing length", got.Duration)
	}
}

func TestPlaybackState(t *testing.T) {
	tests := []struct {
		in   string
		want track.PlayerState
	}{
		{"Playing", track.StatePlaying},
		{"Paused", track.StatePaused},
		{"Stopped", track.StateStopped},
		{"", track.StateStopped},
		{"Garbage", track.StateStopped},
	}
	for _, tt := range tests {
		if got := playbackState(tt.in); got != tt.want {
			t.Errorf("playbackState(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMicrosDuration(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want time.Duration
	}{
		{"int64", int64(2500000), 2500 * time.Millisecond},
		{"uint64", uint64(1000000), time.Second},
		{"int32", int32(500000), 500 * time.Millisecond},
		{"float64", float64(1500000), 1500 * time.Millisecond},
		{"unsupported", "nope", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := microsDuration(tt.in); got != tt.want {
				t.Errorf("microsDuration(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
