package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lmasson/cadence/internal/artwork"
	"github.com/lmasson/cadence/internal/config"
	"github.com/lmasson/cadence/internal/deezer"
	"github.com/lmasson/cadence/internal/lastfm"
	"github.com/lmasson/cadence/internal/metarules"
	"github.com/lmasson/cadence/internal/notify"
	"github.com/lmasson/cadence/internal/player"
	"github.com/lmasson/cadence/internal/scrobbler"
	"github.com/lmasson/cadence/internal/state"
)

func main() {
	authFlag := flag.Bool("auth", false, "authorize with Last.fm and exit")
	historyFlag := flag.Int("history", 0, "print the N most recent scrobbles and exit")
	verboseFlag := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, *authFlag, *historyFlag); err != nil {
		log.Error("cadence exiting", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, auth bool, history int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer st.Close()

	if history > 0 {
		return printHistory(st, history)
	}

	if !cfg.HasLastfmConfig() {
		return fmt.Errorf("lastfm api_key and api_secret must be configured")
	}
	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)

	if auth {
		return authorize(st, client, log)
	}

	sess, err := st.GetLastfmSession()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("not authorized with Last.fm, run with -auth first")
	}
	client.SetSessionKey(sess.SessionKey)
	client.SetUsername(sess.Username)

	rules := metarules.NewEngine()
	for _, r := range cfg.ExtraReplacementRules() {
		rules.AddRule(r)
	}
	for _, r := range cfg.ExtraFilterRules() {
		rules.AddFilterRule(r)
	}

	source, err := player.OpenMPRIS(cfg.Player.BusName, log)
	if err != nil {
		return fmt.Errorf("open player source: %w", err)
	}
	defer source.Close()

	feedUser := sess.Username
	if cfg.Lastfm.Username != "" {
		feedUser = cfg.Lastfm.Username
	}
	resolver := artwork.New(client, deezer.New(), feedUser, log)

	engine := scrobbler.New(source, rules, client, st, resolver, log)
	engine.SetEnabled(cfg.ScrobblingEnabled())
	engine.Start()
	defer engine.Close()

	if cfg.NotificationsEnabled() {
		if notifier, err := notify.New(); err == nil {
			go notifyLoop(engine.Subscribe(), notifier, log)
		}
	}

	// Pick up whatever is already playing.
	if status, err := source.Sample(); err == nil {
		engine.Observe(status)
	}

	log.Info("cadence running", "user", sess.Username, "scrobbling", engine.Enabled())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	return nil
}

// authorize runs the browser authorization flow and stores the session.
func authorize(st *state.Manager, client *lastfm.Client, log *slog.Logger) error {
	srv, err := lastfm.StartAuthServer()
	if err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	defer srv.Shutdown()

	callback := fmt.Sprintf("http://localhost:%d/callback", lastfm.AuthCallbackPort)
	authURL := client.GetAuthCallbackURL(callback)

	fmt.Printf("Open this URL to authorize with Last.fm:\n\n  %s\n\n", authURL)
	if err := lastfm.OpenBrowser(authURL); err != nil {
		log.Debug("could not open browser", "error", err)
	}

	select {
	case token := <-srv.TokenChan():
		if token == "" {
			return fmt.Errorf("authorization failed: no token received")
		}
		username, sessionKey, err := client.GetSession(token)
		if err != nil {
			return fmt.Errorf("exchange token: %w", err)
		}
		if err := st.SaveLastfmSession(username, sessionKey); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Printf("Authorized as %s\n", username)
		return nil
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("authorization timed out")
	}
}

// printHistory writes the most recent scrobbles to stdout.
func printHistory(st *state.Manager, limit int) error {
	recs, err := st.RecentScrobbles(limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	total, err := st.CountScrobbles()
	if err != nil {
		return fmt.Errorf("count history: %w", err)
	}

	for _, rec := range recs {
		fmt.Printf("%-30s %s\n", humanize.Time(rec.Timestamp), rec.Track.DisplayName())
	}
	fmt.Printf("\n%d scrobbles total\n", total)
	return nil
}

// notifyLoop forwards engine events to desktop notifications, replacing
// the previous one so track changes do not pile up.
func notifyLoop(sub *scrobbler.Subscription, notifier notify.Notifier, log *slog.Logger) {
	var lastID uint32
	for {
		select {
		case ev := <-sub.TrackChanged:
			n := notify.NowPlaying(ev.Track, ev.Replay)
			n.ReplacesID = lastID
			id, err := notifier.Notify(n)
			if err != nil {
				log.Debug("notification failed", "error", err)
				continue
			}
			lastID = id
		case ev := <-sub.Scrobbled:
			n := notify.Scrobbled(ev.Record.Track, ev.Record.Timestamp)
			n.ReplacesID = lastID
			if id, err := notifier.Notify(n); err == nil {
				lastID = id
			}
		case <-sub.Done:
			return
		}
	}
}
