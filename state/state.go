// Package state owns the mutable cross-thread application state: the active
// language pair plus last original text behind the primary lock, and the
// lazily constructed translation client behind its own independent lock.
//
// Lock ordering rule: the client lock is never acquired while holding the
// primary lock, and no operation here holds either lock across a network
// call. Callers take a Snapshot first and call out lock-free.
package state

import (
	"fmt"
	"slices"
	"sync"

	"copytrans/translate"
)

// Snapshot is a copied, lock-free view of the language state.
type Snapshot struct {
	Source       string // empty means auto-detect
	Dest         string
	LastOriginal string
}

// ClientFactory builds a translation client. Construction may perform I/O
// (session negotiation), so it runs under the client lock only.
type ClientFactory func() (translate.Translator, error)

// AppState holds the shared mutable state for the two worker actors and the
// presentation layer.
type AppState struct {
	mu           sync.Mutex
	source       string
	dest         string
	lastOriginal string
	rotation     []string

	clientMu sync.Mutex
	client   translate.Translator
	factory  ClientFactory
}

// New creates the state with the initial language pair and dest rotation
// sequence used by Toggle. An empty rotation defaults to (ja, en).
func New(source, dest string, rotation []string, factory ClientFactory) *AppState {
	if len(rotation) == 0 {
		rotation = []string{"ja", "en"}
	}
	return &AppState{
		source:   source,
		dest:     dest,
		rotation: slices.Clone(rotation),
		factory:  factory,
	}
}

// Snapshot returns a copy of the language state.
func (s *AppState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Source: s.source, Dest: s.dest, LastOriginal: s.lastOriginal}
}

// SetLastOriginal records the most recently translated source text.
func (s *AppState) SetLastOriginal(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOriginal = text
}

// Toggle swaps source and dest when both are set, otherwise advances dest
// through the rotation sequence. It returns the resulting snapshot and
// whether anything changed.
func (s *AppState) Toggle() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.source + "\x00" + s.dest
	if s.source != "" && s.dest != "" {
		s.source, s.dest = s.dest, s.source
	} else {
		idx := slices.Index(s.rotation, s.dest)
		s.dest = s.rotation[(idx+1)%len(s.rotation)]
	}
	changed := before != s.source+"\x00"+s.dest
	return Snapshot{Source: s.source, Dest: s.dest, LastOriginal: s.lastOriginal}, changed
}

// SetLanguages updates either side of the pair as a single state change. A
// nil field is left untouched; an empty source means auto-detect. A dest not
// yet in the rotation is appended so Toggle can cycle through it later.
func (s *AppState) SetLanguages(source, dest *string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if source != nil && s.source != *source {
		s.source = *source
		changed = true
	}
	if dest != nil {
		if s.dest != *dest {
			s.dest = *dest
			changed = true
		}
		if !slices.Contains(s.rotation, *dest) {
			s.rotation = append(s.rotation, *dest)
		}
	}
	return Snapshot{Source: s.source, Dest: s.dest, LastOriginal: s.lastOriginal}, changed
}

// SetSource sets the source language hint. Empty means auto-detect.
func (s *AppState) SetSource(lang string) (Snapshot, bool) {
	return s.SetLanguages(&lang, nil)
}

// SetDest sets the destination language.
func (s *AppState) SetDest(lang string) (Snapshot, bool) {
	return s.SetLanguages(nil, &lang)
}

// Client returns the translation client, constructing it on first use. At
// most one client exists at a time; concurrent callers racing a reset still
// observe exactly one construction because the check and the build both
// happen under the client lock.
func (s *AppState) Client() (translate.Translator, error) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	if s.factory == nil {
		return nil, fmt.Errorf("no translation client factory configured")
	}
	client, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to construct translation client: %w", err)
	}
	s.client = client
	return s.client, nil
}

// ResetClient drops the cached client so the next Client call rebuilds it.
func (s *AppState) ResetClient() {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	s.client = nil
}
