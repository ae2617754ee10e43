package state

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"copytrans/translate"
)

type fakeTranslator struct{}

func (fakeTranslator) Translate(ctx context.Context, text, src, dest string) (translate.Result, error) {
	return translate.Result{Text: text}, nil
}

func TestToggleSwapsWhenBothSet(t *testing.T) {
	s := New("en", "ja", nil, nil)

	snap, changed := s.Toggle()
	if !changed {
		t.Fatal("toggle should report a change")
	}
	if snap.Source != "ja" || snap.Dest != "en" {
		t.Fatalf("snapshot = %q->%q, want ja->en", snap.Source, snap.Dest)
	}
}

func TestToggleRotatesDestWithAutoSource(t *testing.T) {
	s := New("", "ja", []string{"ja", "en"}, nil)

	snap, changed := s.Toggle()
	if !changed || snap.Dest != "en" {
		t.Fatalf("first toggle = %q (changed=%v), want en", snap.Dest, changed)
	}
	snap, changed = s.Toggle()
	if !changed || snap.Dest != "ja" {
		t.Fatalf("second toggle = %q (changed=%v), want ja", snap.Dest, changed)
	}
}

func TestToggleUnknownDestStartsRotation(t *testing.T) {
	s := New("", "fr", []string{"ja", "en"}, nil)

	snap, _ := s.Toggle()
	if snap.Dest != "ja" {
		t.Fatalf("dest = %q, want ja", snap.Dest)
	}
}

func TestSetDestIdempotenceFlag(t *testing.T) {
	s := New("", "ja", nil, nil)

	if _, changed := s.SetDest("en"); !changed {
		t.Fatal("first SetDest should report a change")
	}
	if _, changed := s.SetDest("en"); changed {
		t.Fatal("repeated SetDest with same value should not report a change")
	}
}

func TestSetDestExtendsRotation(t *testing.T) {
	s := New("", "ja", []string{"ja", "en"}, nil)

	s.SetDest("de")
	snap, _ := s.Toggle()
	// de sits at the end of the rotation, so the next stop is ja.
	if snap.Dest != "ja" {
		t.Fatalf("dest after toggle = %q, want ja", snap.Dest)
	}
}

func TestSetLanguagesBothFieldsIsOneChange(t *testing.T) {
	s := New("", "ja", nil, nil)

	src, dst := "en", "de"
	snap, changed := s.SetLanguages(&src, &dst)
	if !changed {
		t.Fatal("combined update should report a change")
	}
	if snap.Source != "en" || snap.Dest != "de" {
		t.Fatalf("snapshot = %q->%q, want en->de", snap.Source, snap.Dest)
	}

	// Repeating the same pair is a no-op.
	if _, changed := s.SetLanguages(&src, &dst); changed {
		t.Fatal("repeated combined update should not report a change")
	}
}

func TestSetLanguagesNilFieldsLeaveStateUntouched(t *testing.T) {
	s := New("en", "ja", nil, nil)

	if _, changed := s.SetLanguages(nil, nil); changed {
		t.Fatal("no-field update should not report a change")
	}
	snap := s.Snapshot()
	if snap.Source != "en" || snap.Dest != "ja" {
		t.Fatalf("snapshot = %q->%q, want en->ja", snap.Source, snap.Dest)
	}
}

func TestSetSourceIdempotenceFlag(t *testing.T) {
	s := New("", "ja", nil, nil)

	if _, changed := s.SetSource("en"); !changed {
		t.Fatal("first SetSource should report a change")
	}
	if _, changed := s.SetSource("en"); changed {
		t.Fatal("repeated SetSource should not report a change")
	}
}

func TestClientConstructedExactlyOnce(t *testing.T) {
	var constructions atomic.Int32
	s := New("", "ja", nil, func() (translate.Translator, error) {
		constructions.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return fakeTranslator{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Client(); err != nil {
				t.Errorf("Client: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := constructions.Load(); got != 1 {
		t.Fatalf("constructions = %d, want 1", got)
	}
}

func TestResetClientRebuildsOnce(t *testing.T) {
	var constructions atomic.Int32
	s := New("", "ja", nil, func() (translate.Translator, error) {
		constructions.Add(1)
		return fakeTranslator{}, nil
	})

	if _, err := s.Client(); err != nil {
		t.Fatalf("Client: %v", err)
	}
	s.ResetClient()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Client(); err != nil {
				t.Errorf("Client: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := constructions.Load(); got != 2 {
		t.Fatalf("constructions = %d, want 2", got)
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	s := New("en", "ja", nil, nil)
	s.SetLastOriginal("hello")

	snap := s.Snapshot()
	if snap.Source != "en" || snap.Dest != "ja" || snap.LastOriginal != "hello" {
		t.Fatalf("snapshot = %+v", snap)
	}
}
