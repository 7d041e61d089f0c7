//go:build linux

package player

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/lmasson/cadence/internal/track"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisPath       = "/org/mpris/MediaPlayer2"
	mprisPlayerIfce = "org.mpris.MediaPlayer2.Player"
	dbusPropsIfce   = "org.freedesktop.DBus.Properties"
)

// MPRIS observes a media player over D-Bus. With an empty bus name it
// attaches to the first MPRIS player found on the session bus and
// re-discovers when that player goes away.
type MPRIS struct {
	conn *dbus.Conn
	log  *slog.Logger

	mu      sync.Mutex
	busName string

	events chan Status
	done   chan struct{}
}

// OpenMPRIS connects to the session bus and starts watching for player
// property changes. busName pins a specific player
// (e.g. "org.mpris.MediaPlayer2.spotify"); empty means any player.
func OpenMPRIS(busName string, log *slog.Logger) (*MPRIS, error) {
	if log == nil {
		log = slog.Default()
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	m := &MPRIS{
		conn:    conn,
		log:     log,
		busName: busName,
		events:  make(chan Status, 8),
		done:    make(chan struct{}),
	}

	if m.busName == "" {
		if name, err := discoverPlayer(conn); err == nil {
			m.busName = name
		}
	}
	if m.busName != "" {
		log.Info("watching mpris player", "bus", m.busName)
	} else {
		log.Info("no mpris player on the bus yet, waiting")
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusPropsIfce),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(mprisPath),
	); err != nil {
		return nil, fmt.Errorf("subscribe to property changes: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	go m.watch(signals)

	return m, nil
}

// discoverPlayer returns the first MPRIS player name on the bus.
func discoverPlayer(conn *dbus.Conn) (string, error) {
	var names []string
	err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return "", fmt.Errorf("list bus names: %w", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no mpris player on the bus")
}

func (m *MPRIS) watch(signals <-chan *dbus.Signal) {
	for {
		select {
		case <-m.done:
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			if sig == nil || len(sig.Body) == 0 {
				continue
			}
			iface, _ := sig.Body[0].(string)
			if iface != mprisPlayerIfce {
				continue
			}

			status, err := m.Sample()
			if err != nil {
				m.log.Debug("sample after property change failed", "error", err)
				continue
			}
			select {
			case m.events <- status:
			default:
				// Consumer is behind; it polls anyway.
			}
		}
	}
}

// Sample reads the player's current metadata, playback status and position.
// A vanished player triggers one re-discovery attempt; with no player on
// the bus the returned snapshot is stopped.
func (m *MPRIS) Sample() (Status, error) {
	m.mu.Lock()
	name := m.busName
	m.mu.Unlock()

	if name == "" {
		discovered, err := discoverPlayer(m.conn)
		if err != nil {
			return Status{Track: track.Track{State: track.StateStopped, ObservedAt: time.Now()}}, nil
		}
		m.mu.Lock()
		m.busName = discovered
		m.mu.Unlock()
		name = discovered
		m.log.Info("watching mpris player", "bus", name)
	}

	obj := m.conn.Object(name, mprisPath)

	status, err := m.sampleObject(obj)
	if err != nil {
		// Player likely quit; forget it so the next sample re-discovers.
		m.mu.Lock()
		m.busName = ""
		m.mu.Unlock()
		return Status{Track: track.Track{State: track.StateStopped, ObservedAt: time.Now()}}, nil
	}
	return status, nil
}

func (m *MPRIS) sampleObject(obj dbus.BusObject) (Status, error) {
	playbackVar, err := obj.GetProperty(mprisPlayerIfce + ".PlaybackStatus")
	if err != nil {
		return Status{}, fmt.Errorf("get playback status: %w", err)
	}
	playback, _ := playbackVar.Value().(string)

	metaVar, err := obj.GetProperty(mprisPlayerIfce + ".Metadata")
	if err != nil {
		return Status{}, fmt.Errorf("get metadata: %w", err)
	}
	meta, _ := metaVar.Value().(map[string]dbus.Variant)

	var position time.Duration
	if posVar, err := obj.GetProperty(mprisPlayerIfce + ".Position"); err == nil {
		position = microsDuration(posVar.Value())
	}

	t := trackFromMetadata(meta)
	t.State = playbackState(playback)
	t.ObservedAt = time.Now()

	return Status{Track: t, Position: position}, nil
}

// Events delivers a snapshot whenever the player reports a change.
func (m *MPRIS) Events() <-chan Status {
	return m.events
}

// Close stops the watcher. The shared session bus connection stays open.
func (m *MPRIS) Close() error {
	close(m.done)
	return m.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(dbusPropsIfce),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(mprisPath),
	)
}

func playbackState(status string) track.PlayerState {
	switch status {
	case "Playing":
		return track.StatePlaying
	case "Paused":
		return track.StatePaused
	default:
		return track.StateStopped
	}
}

func trackFromMetadata(meta map[string]dbus.Variant) track.Track {
	t := track.Track{
		Title:       variantString(meta["xesam:title"]),
		Artist:      variantStringList(meta["xesam:artist"]),
		AlbumArtist: variantStringList(meta["xesam:albumArtist"]),
		Album:       variantString(meta["xesam:album"]),
	}
	if length, ok := meta["mpris:length"]; ok {
		t.Duration = microsDuration(length.Value())
	}
	return t
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}

// variantStringList joins a string-array field with ", ", which the artist
// splitter treats as a multi-artist separator. Some players send a plain
// string here, so accept that too.
func variantStringList(v dbus.Variant) string {
	switch val := v.Value().(type) {
	case []string:
		return strings.Join(val, ", ")
	case string:
		return val
	default:
		return ""
	}
}

// microsDuration converts an MPRIS microsecond value, whatever integer
// width the player chose to send it with.
func microsDuration(v any) time.Duration {
	switch n := v.(type) {
	case int64:
		return time.Duration(n) * time.Microsecond
	case uint64:
		return time.Duration(n) * time.Microsecond
	case int32:
		return time.Duration(n) * time.Microsecond
	case uint32:
		return time.Duration(n) * time.Microsecond
	case float64:
		return time.Duration(n * float64(time.Microsecond))
	default:
		return 0
	}
}
