// Package hotkey delivers global hotkey presses as events on a channel. The
// platform implementation owns a dedicated OS thread for its message pump;
// Stop blocks until that thread has fully exited, so a Stop/Start cycle can
// never leave two pumps running or zero pumps running.
package hotkey

import (
	"fmt"
	"strings"
	"time"
)

// Modifier flags matching the Win32 RegisterHotKey API.
const (
	ModAlt     uint16 = 0x0001
	ModControl uint16 = 0x0002
	ModShift   uint16 = 0x0004
	ModWin     uint16 = 0x0008
)

// Binding is a single named hotkey registration.
type Binding struct {
	Name        string
	Modifiers   uint16
	VirtualKey  uint16
	Display     string
	AllowRepeat bool
}

func (b Binding) String() string {
	return b.Name + ": " + b.Display
}

// Event is emitted when a registered hotkey fires.
type Event struct {
	Name string
	At   time.Time
}

// Listener runs the OS event pump. Start returns once the pump is armed;
// Stop blocks until the pump thread has exited. A listener is restartable:
// Stop followed by Start arms a fresh pump with the same bindings.
type Listener interface {
	Start() error
	Stop()
	Active() bool
	Events() <-chan Event
}

// NewListener creates the platform listener for the given bindings.
func NewListener(bindings []Binding) (Listener, error) {
	if len(bindings) == 0 {
		return nil, fmt.Errorf("no hotkey bindings configured")
	}
	return newListener(bindings)
}

// ParseBinding parses a textual combo like "ctrl+shift+c" or "f8" into a
// binding. A combo needs exactly one non-modifier key; modifiers are
// optional.
func ParseBinding(name, combo string, allowRepeat bool) (Binding, error) {
	normalized := strings.ReplaceAll(combo, "-", "+")
	parts := strings.Split(normalized, "+")

	b := Binding{Name: name, AllowRepeat: allowRepeat}
	var display []string
	haveKey := false

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch strings.ToLower(part) {
		case "ctrl", "control":
			b.Modifiers |= ModControl
			display = append(display, "Ctrl")
		case "shift":
			b.Modifiers |= ModShift
			display = append(display, "Shift")
		case "alt":
			b.Modifiers |= ModAlt
			display = append(display, "Alt")
		case "win", "windows":
			b.Modifiers |= ModWin
			display = append(display, "Win")
		default:
			if haveKey {
				return Binding{}, fmt.Errorf("combo %q has more than one non-modifier key", combo)
			}
			vk, err := vkCode(part)
			if err != nil {
				return Binding{}, err
			}
			b.VirtualKey = vk
			haveKey = true
			display = append(display, strings.ToUpper(part))
		}
	}

	if !haveKey {
		return Binding{}, fmt.Errorf("combo %q is missing a non-modifier key", combo)
	}
	b.Display = strings.Join(display, "+")
	return b, nil
}

// vkCode returns the Windows virtual key code for a key name.
func vkCode(key string) (uint16, error) {
	k := strings.ToLower(key)

	if len(k) == 1 {
		c := k[0]
		if c >= 'a' && c <= 'z' {
			return uint16(c - 'a' + 0x41), nil
		}
		if c >= '0' && c <= '9' {
			return uint16(c - '0' + 0x30), nil
		}
	}

	if strings.HasPrefix(k, "f") && len(k) > 1 {
		n := 0
		for _, r := range k[1:] {
			if r < '0' || r > '9' {
				n = -1
				break
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return uint16(0x70 + n - 1), nil
		}
	}

	named := map[string]uint16{
		"space": 0x20, "enter": 0x0D, "return": 0x0D, "esc": 0x1B, "escape": 0x1B,
		"tab": 0x09, "backspace": 0x08, "delete": 0x2E, "insert": 0x2D,
		"home": 0x24, "end": 0x23, "pageup": 0x21, "pagedown": 0x22,
		"left": 0x25, "up": 0x26, "right": 0x27, "down": 0x28,
	}
	if code, ok := named[k]; ok {
		return code, nil
	}

	return 0, fmt.Errorf("unknown key: %s", key)
}
