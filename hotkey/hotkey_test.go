package hotkey

import "testing"

func TestParseBinding(t *testing.T) {
	tests := []struct {
		combo     string
		modifiers uint16
		vk        uint16
		display   string
	}{
		{"ctrl+c", ModControl, 0x43, "Ctrl+C"},
		{"ctrl-c", ModControl, 0x43, "Ctrl+C"},
		{"control+shift+v", ModControl | ModShift, 0x56, "Ctrl+Shift+V"},
		{"alt+f4", ModAlt, 0x73, "Alt+F4"},
		{"f8", 0, 0x77, "F8"},
		{"win+space", ModWin, 0x20, "Win+SPACE"},
		{"shift+escape", ModShift, 0x1B, "Shift+ESCAPE"},
		{"Ctrl+C", ModControl, 0x43, "Ctrl+C"},
		{"9", 0, 0x39, "9"},
	}

	for _, tt := range tests {
		b, err := ParseBinding("test", tt.combo, false)
		if err != nil {
			t.Errorf("ParseBinding(%q): %v", tt.combo, err)
			continue
		}
		if b.Modifiers != tt.modifiers {
			t.Errorf("ParseBinding(%q) modifiers = %#x, want %#x", tt.combo, b.Modifiers, tt.modifiers)
		}
		if b.VirtualKey != tt.vk {
			t.Errorf("ParseBinding(%q) vk = %#x, want %#x", tt.combo, b.VirtualKey, tt.vk)
		}
		if b.Display != tt.display {
			t.Errorf("ParseBinding(%q) display = %q, want %q", tt.combo, b.Display, tt.display)
		}
	}
}

func TestParseBindingRejectsBadCombos(t *testing.T) {
	for _, combo := range []string{"", "ctrl+shift", "ctrl+c+v", "ctrl+bogus", "+++"} {
		if _, err := ParseBinding("test", combo, false); err == nil {
			t.Errorf("ParseBinding(%q) should fail", combo)
		}
	}
}

func TestVkCodeFunctionKeys(t *testing.T) {
	if vk, err := vkCode("f1"); err != nil || vk != 0x70 {
		t.Fatalf("f1 = %#x (%v), want 0x70", vk, err)
	}
	if vk, err := vkCode("f24"); err != nil || vk != 0x87 {
		t.Fatalf("f24 = %#x (%v), want 0x87", vk, err)
	}
	if _, err := vkCode("f25"); err == nil {
		t.Fatal("f25 should be rejected")
	}
	if _, err := vkCode("fx"); err == nil {
		t.Fatal("fx should be rejected")
	}
}

func TestBindingString(t *testing.T) {
	b, err := ParseBinding("copy", "ctrl+c", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != "copy: Ctrl+C" {
		t.Fatalf("String() = %q", got)
	}
}
