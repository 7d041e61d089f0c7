package notify

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lmasson/cadence/internal/track"
)

const trackNotifyTimeout = 5000 // ms

// NowPlaying builds the notification shown when a track starts or replays.
func NowPlaying(t track.Track, replay bool) Notification {
	title := "Now playing"
	if replay {
		title = "Playing again"
	}
	body := t.DisplayName()
	if t.Album != "" {
		body = fmt.Sprintf("%s\n%s", body, t.Album)
	}
	return Notification{
		Title:   title,
		Body:    body,
		Icon:    "audio-x-generic",
		Timeout: trackNotifyTimeout,
		Urgency: UrgencyLow,
	}
}

// Scrobbled builds the notification for a committed scrobble.
func Scrobbled(t track.Track, at time.Time) Notification {
	return Notification{
		Title:   "Scrobbled",
		Body:    fmt.Sprintf("%s\n%s", t.DisplayName(), humanize.Time(at)),
		Icon:    "audio-x-generic",
		Timeout: trackNotifyTimeout,
		Urgency: UrgencyLow,
	}
}
