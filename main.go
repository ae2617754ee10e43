package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"copytrans/config"
	"copytrans/langdetect"
	"copytrans/pipeline"
	"copytrans/platform"
	"copytrans/singleinstance"
	"copytrans/state"
	"copytrans/storage"
	"copytrans/systray"
	"copytrans/translate"
	"copytrans/web"
)

// logSink is the fallback presentation when the dashboard is disabled.
type logSink struct{}

func (logSink) Present(res pipeline.Result) {
	if res.Err != nil {
		slog.Error("Translation failed", "error", res.Err, "dest", res.Dest)
		return
	}
	slog.Info("Translation ready", "detected", res.DetectedSource, "dest", res.Dest, "text", res.Translated)
}

// historyRecorder persists completed translations and prunes old rows.
type historyRecorder struct {
	db    *storage.DB
	limit int
}

func (h *historyRecorder) Record(res pipeline.Result) {
	tr := &storage.Translation{
		SourceLang:     res.Source,
		DetectedLang:   res.DetectedSource,
		DestLang:       res.Dest,
		OriginalText:   res.Original,
		TranslatedText: res.Translated,
		CharacterCount: len(res.Original),
		LatencyMs:      res.Latency.Milliseconds(),
		Refresh:        res.Refresh,
		Success:        res.Err == nil,
	}
	if res.Err != nil {
		tr.ErrorMessage = res.Err.Error()
	}
	if err := h.db.SaveTranslation(tr); err != nil {
		slog.Error("Failed to save translation", "error", err)
		return
	}
	if h.limit > 0 {
		if err := h.db.PruneTranslations(h.limit); err != nil {
			slog.Error("Failed to prune history", "error", err)
		}
	}
}

func main() {
	// Setup logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Only one instance may own the hotkeys and the clipboard flow
	lock, err := singleinstance.Acquire("copytrans")
	if err != nil {
		slog.Error("copytrans is already running", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	configPath, _ := config.ConfigPath()
	slog.Info("Configuration loaded", "path", configPath)

	// Translation history
	var db *storage.DB
	if cfg.History.Enabled {
		configDir, err := config.ConfigDir()
		if err != nil {
			slog.Error("Failed to resolve data directory", "error", err)
			os.Exit(1)
		}
		db, err = storage.Open(configDir)
		if err != nil {
			slog.Error("Failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	// Shared language state; the translation client is built lazily on first
	// use so startup never blocks on the network
	endpoint := cfg.Translation.Endpoint
	timeout := time.Duration(cfg.Translation.TimeoutSeconds) * time.Second
	appState := state.New(cfg.Languages.Source, cfg.Languages.Dest, cfg.Languages.Rotation,
		func() (translate.Translator, error) {
			return translate.NewGoogleClient(endpoint, timeout), nil
		})

	queue := pipeline.NewQueue()
	clipboard := platform.NewClipboard()

	app, err := NewApp(cfg, configPath, clipboard, appState, queue)
	if err != nil {
		slog.Error("Failed to create app", "error", err)
		os.Exit(1)
	}

	// Presentation: dashboard when enabled, logs otherwise
	var sink pipeline.Sink = logSink{}
	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(db, cfg, app, cfg.Web.Port)
		sink = webServer
		go func() {
			if err := webServer.Start(); err != nil {
				slog.Error("Web server error", "error", err)
			}
		}()
	}

	var recorder pipeline.Recorder
	if db != nil {
		recorder = &historyRecorder{db: db, limit: cfg.History.Limit}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := pipeline.NewWorker(queue, appState, sink, recorder, langdetect.DetectISO6391, timeout)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	tray := systray.NewSystrayManager(cfg.Web.Port, nil)
	app.SetOnLanguagesChanged(func(snap state.Snapshot) {
		tray.SetLanguagePair(snap.Source, snap.Dest)
		if webServer != nil {
			webServer.BroadcastLanguages(snap)
		}
	})

	if err := app.Start(); err != nil {
		slog.Error("Failed to start hotkey listening", "error", err)
		os.Exit(1)
	}
	slog.Info("copytrans started", "copy", cfg.Hotkeys.Copy, "dest", cfg.Languages.Dest)

	// Background control loop; the tray owns the main goroutine
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		snap := appState.Snapshot()
		tray.SetLanguagePair(snap.Source, snap.Dest)

		for {
			select {
			case <-tray.Toggles():
				app.ToggleLanguages()
			case <-tray.Restarts():
				if err := app.Restart(); err != nil {
					slog.Error("Restart failed", "error", err)
				}
			case <-sigCh:
				slog.Info("Shutdown signal received")
				tray.Stop()
				return
			case <-tray.WaitForQuit():
				return
			}
		}
	}()

	tray.Run()

	// Shutdown: stop hotkeys first, then drain the queue
	app.Stop()
	queue.Close()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		slog.Warn("Timed out waiting for pending translations")
	}
	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		webServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	slog.Info("copytrans stopped")
}
