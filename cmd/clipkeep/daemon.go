package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/classify"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/crypto"
	"go.klb.dev/clipkeep/internal/focus"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/httpapi"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/poller"
	"go.klb.dev/clipkeep/internal/service"
	"go.klb.dev/clipkeep/internal/settings"
	"go.klb.dev/clipkeep/internal/storage/sqlite"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Watch the clipboard and serve the history",
		Long: `Starts the clipkeep daemon. It polls the system clipboard, records new
content in a SQLite database and answers the other clipkeep commands over the
local IPC socket. An optional loopback HTTP API exposes the same operations.

Config file search order:
  /etc/clipkeep/clipkeep.toml
  $HOME/.config/clipkeep/clipkeep.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPKEEP_* env vars → flags

Values changed at runtime with "clipkeep set" are stored in the database and
win over the config file at the next start; a setting given explicitly as a
flag or CLIPKEEP_* env var still wins over the stored value. Edits to the
config file while the daemon runs are applied immediately.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd, v) },
	}

	d := settings.Default()
	f := cmd.Flags()
	f.Int(settings.KeyHistoryLimit, d.HistoryLimit, "maximum number of unpinned entries")
	f.Bool(settings.KeyIgnorePasswordManagers, d.IgnorePasswordManagers, "skip copies made in known password managers")
	f.Bool(settings.KeyIgnoreCustomApps, d.IgnoreCustomApps, "skip copies made in apps on the ignore list")
	f.Duration("poll-interval", poller.DefaultInterval, "clipboard poll interval")
	f.Int64("max-payload-bytes", classify.DefaultMaxBytes, "largest text or image captured, in bytes")
	f.Bool("clear-on-exit", false, "drop unpinned entries when the daemon stops")
	f.String("db", defaultDBPath(), "history database path")
	f.String("secret", "", "encrypt stored content with a key derived from this secret")
	f.String("http-addr", "", "loopback address for the HTTP API (empty = disabled)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(cmd *cobra.Command, v *viper.Viper) error {
	setupLogging(v)

	if ipc.IsRunning() {
		return fmt.Errorf("a clipkeep daemon is already listening on %s", ipc.SocketPath())
	}

	box, err := crypto.NewBox(v.GetString("secret"))
	if err != nil {
		return fmt.Errorf("key derivation: %w", err)
	}
	dbPath := v.GetString("db")
	db, err := sqlite.New(dbPath, box)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	fileSettings, err := settingsFromViper(v)
	if err != nil {
		return err
	}
	initial := fileSettings
	if stored, err := db.LoadSettings(ctx); err != nil {
		slog.Warn("stored settings unavailable, using config", "err", err)
	} else if initial, err = startupSettings(fileSettings, stored, explicitlySet(cmd)); err != nil {
		slog.Warn("stored settings invalid, using config", "err", err)
	}

	store := history.NewStore(db, initial.HistoryLimit)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	registry := ignore.NewRegistry(db)
	if err := registry.Load(ctx); err != nil {
		return fmt.Errorf("open ignore list: %w", err)
	}

	backend := clip.New()
	defer backend.Close()

	p := poller.New(backend, focus.New(), registry,
		classify.New(v.GetInt64("max-payload-bytes")), store, v.GetDuration("poll-interval"))

	httpAddr := v.GetString("http-addr")
	svc, err := service.New(ctx, store, p, registry, hub.New(), db, initial, service.Info{
		Version:   Version,
		Database:  dbPath,
		Encrypted: box.Enabled(),
		HTTPAddr:  httpAddr,
	})
	if err != nil {
		return err
	}

	ln, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("ipc listen: %w", err)
	}

	slog.Info("clipkeep daemon starting",
		"version", Version,
		"backend", backend.Name(),
		"db", dbPath,
		"encrypted", box.Enabled(),
		"items", len(store.Items()),
		"history_limit", initial.HistoryLimit,
		"ipc", ipc.SocketPath(),
		"http", httpAddr,
	)

	watchConfig(v, svc, fileSettings)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollCtx, stopPoll := context.WithCancel(ctx)
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		p.Run(pollCtx)
	}()

	srvCtx, stopServers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	errc := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := svc.Serve(srvCtx, ln); err != nil {
			errc <- err
		}
	}()
	if httpAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpapi.Serve(srvCtx, httpAddr, svc); err != nil {
				errc <- err
			}
		}()
	}

	var runErr error
	select {
	case <-sigCtx.Done():
		slog.Info("shutting down")
	case runErr = <-errc:
		slog.Error("server failed, shutting down", "err", runErr)
	}

	shutdown(stopPoll, pollDone, svc, v.GetBool("clear-on-exit"), stopServers, &wg)
	return runErr
}

// shutdown stops the poller, runs the optional clear of unpinned entries and
// then stops the IPC and HTTP servers. The caller closes the database after
// it returns.
func shutdown(stopPoll context.CancelFunc, pollDone <-chan struct{}, svc *service.Service,
	clearOnExit bool, stopServers context.CancelFunc, servers *sync.WaitGroup,
) {
	stopPoll()
	<-pollDone
	if clearOnExit {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		n := svc.Clear(ctx, false)
		cancel()
		slog.Info("cleared history on exit", "removed", n)
	}
	stopServers()
	servers.Wait()
}

// startupSettings overlays the values saved by "clipkeep set" on the
// configured ones, except for keys the user gave explicitly for this run.
func startupSettings(configured settings.Settings, stored map[string]string, explicit func(key string) bool) (settings.Settings, error) {
	overlay := make(map[string]string, len(stored))
	for k, val := range stored {
		if !explicit(k) {
			overlay[k] = val
		}
	}
	s := configured
	if err := s.Apply(overlay); err != nil {
		return configured, err
	}
	return s, nil
}

// explicitlySet reports whether key was passed as a flag or env var.
func explicitlySet(cmd *cobra.Command) func(string) bool {
	return func(key string) bool {
		if cmd.Flags().Changed(key) {
			return true
		}
		_, ok := os.LookupEnv(envName(key))
		return ok
	}
}

// watchConfig re-applies the options an on-disk config edit changed.
func watchConfig(v *viper.Viper, svc *service.Service, loaded settings.Settings) {
	if v.ConfigFileUsed() == "" {
		return
	}
	var mu sync.Mutex
	prev := loaded
	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := settingsFromViper(v)
		if err != nil {
			slog.Warn("config reload rejected", "file", e.Name, "err", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if _, err := svc.Reload(context.Background(), prev, next); err != nil {
			slog.Warn("config reload failed", "file", e.Name, "err", err)
		}
		prev = next
		slog.Info("config reloaded", "file", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()
}
