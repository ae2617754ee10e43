//go:build !windows

package hotkey

import "fmt"

func newListener(bindings []Binding) (Listener, error) {
	return nil, fmt.Errorf("global hotkeys are only supported on windows")
}
