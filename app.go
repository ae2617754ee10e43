package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"copytrans/config"
	"copytrans/detect"
	"copytrans/hotkey"
	"copytrans/pipeline"
	"copytrans/platform"
	"copytrans/state"
)

const (
	eventCopy      = "copy"
	eventStateDump = "state_dump"
)

// listenerFactory builds the hotkey listener. Swapped out in tests.
type listenerFactory func(bindings []hotkey.Binding) (hotkey.Listener, error)

// App coordinates hotkey detection, clipboard capture, and the translation
// pipeline. Hotkey events are consumed on a single dispatch goroutine; the
// language actions may be called from any goroutine and never block behind an
// in-flight translation call.
type App struct {
	cfg        *config.Config
	configPath string
	clipboard  platform.Clipboard
	state      *state.AppState
	queue      *pipeline.Queue

	newListener listenerFactory
	bindings    []hotkey.Binding

	// onLanguagesChanged is invoked after every language change, outside all
	// locks. May be nil.
	onLanguagesChanged func(state.Snapshot)

	mu          sync.Mutex
	listener    hotkey.Listener
	dispatching chan struct{} // closed when the dispatch goroutine exits
	lastTrigger time.Time
	started     time.Time
}

// NewApp wires the application around an already-built state and queue.
func NewApp(cfg *config.Config, configPath string, clipboard platform.Clipboard, appState *state.AppState, queue *pipeline.Queue) (*App, error) {
	copyBinding, err := hotkey.ParseBinding(eventCopy, cfg.Hotkeys.Copy, true)
	if err != nil {
		return nil, fmt.Errorf("invalid copy hotkey: %w", err)
	}
	bindings := []hotkey.Binding{copyBinding}

	if cfg.Hotkeys.StateDump != "" {
		dumpBinding, err := hotkey.ParseBinding(eventStateDump, cfg.Hotkeys.StateDump, false)
		if err != nil {
			return nil, fmt.Errorf("invalid state_dump hotkey: %w", err)
		}
		bindings = append(bindings, dumpBinding)
	}

	return &App{
		cfg:         cfg,
		configPath:  configPath,
		clipboard:   clipboard,
		state:       appState,
		queue:       queue,
		newListener: hotkey.NewListener,
		bindings:    bindings,
		started:     time.Now(),
	}, nil
}

// SetOnLanguagesChanged registers the language change callback. Must be
// called before Start.
func (a *App) SetOnLanguagesChanged(fn func(state.Snapshot)) {
	a.onLanguagesChanged = fn
}

// Start arms the hotkey listener and the dispatch goroutine. Starting an
// already-running app is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dispatching != nil {
		select {
		case <-a.dispatching:
			// Previous dispatcher has exited; safe to re-arm.
		default:
			return nil
		}
	}

	if a.listener == nil {
		l, err := a.newListener(a.bindings)
		if err != nil {
			return fmt.Errorf("failed to create hotkey listener: %w", err)
		}
		a.listener = l
	}

	if err := a.listener.Start(); err != nil {
		return fmt.Errorf("failed to start hotkey listener: %w", err)
	}

	done := make(chan struct{})
	a.dispatching = done
	go a.dispatch(a.listener.Events(), done)

	for _, b := range a.bindings {
		slog.Info("Hotkey armed", "binding", b.String())
	}
	return nil
}

// Stop tears down the hotkey listener and waits for the dispatch goroutine.
// The translation queue stays open; pending requests keep processing.
func (a *App) Stop() {
	a.mu.Lock()
	listener := a.listener
	done := a.dispatching
	a.mu.Unlock()

	if listener == nil {
		return
	}
	listener.Stop()
	if done != nil {
		<-done
	}
}

// Restart cycles the hotkey listener and drops the translation client so it
// is rebuilt on next use. Used after resume or when hotkeys stop responding.
func (a *App) Restart() error {
	slog.Info("Restarting hotkey listening")
	a.Stop()
	a.state.ResetClient()
	return a.Start()
}

// dispatch consumes hotkey events until the listener closes its channel. The
// press detectors live here and are never touched by other goroutines.
func (a *App) dispatch(events <-chan hotkey.Event, done chan struct{}) {
	defer close(done)

	window := time.Duration(a.cfg.Detection.WindowMs) * time.Millisecond
	minRetrigger := time.Duration(a.cfg.Detection.MinRetriggerMs) * time.Millisecond
	copyDetector := detect.New(window, minRetrigger, a.cfg.Detection.CopyCount, nil)
	dumpDetector := detect.New(window, 0, 1, nil)

	for evt := range events {
		switch evt.Name {
		case eventCopy:
			if copyDetector.Press(evt.At) {
				a.handleTrigger(evt.At)
			}
		case eventStateDump:
			if dumpDetector.Press(evt.At) {
				a.dumpState()
			}
		default:
			slog.Warn("Unknown hotkey event", "name", evt.Name)
		}
	}
}

// handleTrigger reads the clipboard and enqueues a translation request.
func (a *App) handleTrigger(at time.Time) {
	a.mu.Lock()
	a.lastTrigger = at
	a.mu.Unlock()

	text, err := a.clipboard.Get()
	if err != nil {
		slog.Error("Failed to read clipboard", "error", err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("Clipboard is empty, nothing to translate")
		return
	}

	if err := a.queue.Enqueue(pipeline.Request{Text: text, RequestedAt: at}); err != nil {
		slog.Error("Failed to enqueue translation", "error", err)
		return
	}
	slog.Info("Translation queued", "chars", len(text))
}

// dumpState logs a snapshot of the runtime state for troubleshooting.
func (a *App) dumpState() {
	a.mu.Lock()
	lastTrigger := a.lastTrigger
	listener := a.listener
	started := a.started
	a.mu.Unlock()

	snap := a.state.Snapshot()
	active := listener != nil && listener.Active()

	args := []any{
		"uptime", time.Since(started).Round(time.Second),
		"listenerActive", active,
		"queueDepth", a.queue.Len(),
		"source", snap.Source,
		"dest", snap.Dest,
		"lastOriginalChars", len(snap.LastOriginal),
	}
	if !lastTrigger.IsZero() {
		args = append(args, "lastTrigger", lastTrigger.Format(time.RFC3339))
	}
	for _, b := range a.bindings {
		args = append(args, "binding."+b.Name, b.Display)
	}
	slog.Info("State dump", args...)
}

// Snapshot returns the current language state.
func (a *App) Snapshot() state.Snapshot {
	return a.state.Snapshot()
}

// ToggleLanguages flips the translation direction and refreshes the last
// translation under the new pair.
func (a *App) ToggleLanguages() state.Snapshot {
	snap, changed := a.state.Toggle()
	a.afterLanguageChange(snap, changed)
	return snap
}

// SetLanguages applies source and/or dest as one change, so one user action
// causes at most one refresh. A nil field is left untouched.
func (a *App) SetLanguages(source, dest *string) state.Snapshot {
	snap, changed := a.state.SetLanguages(source, dest)
	a.afterLanguageChange(snap, changed)
	return snap
}

// SetDestLanguage sets the destination language.
func (a *App) SetDestLanguage(code string) state.Snapshot {
	return a.SetLanguages(nil, &code)
}

// SetSourceLanguage sets the source language; empty means auto-detect.
func (a *App) SetSourceLanguage(code string) state.Snapshot {
	return a.SetLanguages(&code, nil)
}

// afterLanguageChange runs outside the state lock. A no-op change enqueues
// nothing, so hammering the same language button cannot pile up refreshes.
func (a *App) afterLanguageChange(snap state.Snapshot, changed bool) {
	if !changed {
		return
	}

	slog.Info("Languages changed", "source", snap.Source, "dest", snap.Dest)
	a.persistLanguages(snap)

	if snap.LastOriginal != "" {
		err := a.queue.Enqueue(pipeline.Request{
			Text:        snap.LastOriginal,
			Source:      snap.Source,
			Dest:        snap.Dest,
			RequestedAt: time.Now(),
			Refresh:     true,
		})
		if err != nil {
			slog.Error("Failed to enqueue refresh translation", "error", err)
		}
	}

	if a.onLanguagesChanged != nil {
		a.onLanguagesChanged(snap)
	}
}

// persistLanguages saves the language pair so it survives restarts.
func (a *App) persistLanguages(snap state.Snapshot) {
	if a.configPath == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Languages.Source = snap.Source
	a.cfg.Languages.Dest = snap.Dest
	if err := config.Save(a.configPath, a.cfg); err != nil {
		slog.Error("Failed to save config", "error", err)
	}
}

// CopyToClipboard writes text back to the system clipboard.
func (a *App) CopyToClipboard(text string) error {
	return a.clipboard.Set(text)
}
