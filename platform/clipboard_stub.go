//go:build !windows

package platform

import "fmt"

type stubClipboard struct{}

// NewClipboard returns a clipboard that reports the platform as unsupported.
func NewClipboard() Clipboard {
	return stubClipboard{}
}

func (stubClipboard) Get() (string, error) {
	return "", fmt.Errorf("clipboard access is only supported on windows")
}

func (stubClipboard) Set(string) error {
	return fmt.Errorf("clipboard access is only supported on windows")
}
