package systray

import (
	"sync"
	"testing"
)

func TestSetLanguagePairBeforeReadyCachesTitle(t *testing.T) {
	m := NewSystrayManager(8321, nil)

	// The tray is not running yet, so the menu item does not exist.
	m.SetLanguagePair("en", "ja")

	m.mu.Lock()
	got := m.pairTitle
	m.mu.Unlock()
	if got != "Languages: en -> ja" {
		t.Fatalf("cached title = %q", got)
	}
}

func TestSetLanguagePairEmptySourceShowsAuto(t *testing.T) {
	m := NewSystrayManager(8321, nil)

	m.SetLanguagePair("", "ja")

	m.mu.Lock()
	got := m.pairTitle
	m.mu.Unlock()
	if got != "Languages: auto -> ja" {
		t.Fatalf("cached title = %q", got)
	}
}

func TestSetLanguagePairConcurrent(t *testing.T) {
	m := NewSystrayManager(8321, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.SetLanguagePair("en", "ja")
			}
		}()
	}
	wg.Wait()

	m.mu.Lock()
	got := m.pairTitle
	m.mu.Unlock()
	if got != "Languages: en -> ja" {
		t.Fatalf("cached title = %q", got)
	}
}
