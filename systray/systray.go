package systray

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
)

// SystrayManager manages the system tray icon and menu
type SystrayManager struct {
	webPort  int
	iconData []byte
	quit     chan struct{}
	restart  chan struct{}
	toggle   chan struct{}

	// mu guards the menu item and the cached title; the item is created on
	// the systray goroutine while callers may update the pair at any time.
	mu        sync.Mutex
	pairItem  *systray.MenuItem
	pairTitle string
}

// NewSystrayManager creates a new systray manager
func NewSystrayManager(webPort int, iconData []byte) *SystrayManager {
	return &SystrayManager{
		webPort:  webPort,
		iconData: iconData,
		quit:     make(chan struct{}),
		restart:  make(chan struct{}, 1),
		toggle:   make(chan struct{}, 1),
	}
}

// Run starts the system tray (blocking call, must run on the main goroutine)
func (m *SystrayManager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray
func (m *SystrayManager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel that is closed when the user clicks Exit
func (m *SystrayManager) WaitForQuit() <-chan struct{} {
	return m.quit
}

// Restarts returns a channel that receives when the user clicks Restart
func (m *SystrayManager) Restarts() <-chan struct{} {
	return m.restart
}

// Toggles returns a channel that receives when the user clicks the language
// pair item
func (m *SystrayManager) Toggles() <-chan struct{} {
	return m.toggle
}

// SetLanguagePair updates the language pair shown in the menu. Calls made
// before the tray is ready are cached and applied when the item exists.
func (m *SystrayManager) SetLanguagePair(source, dest string) {
	if source == "" {
		source = "auto"
	}
	title := fmt.Sprintf("Languages: %s -> %s", source, dest)

	m.mu.Lock()
	m.pairTitle = title
	item := m.pairItem
	m.mu.Unlock()

	if item != nil {
		item.SetTitle(title)
	}
}

// onReady is called when the systray is ready
func (m *SystrayManager) onReady() {
	if len(m.iconData) > 0 {
		systray.SetIcon(m.iconData)
	}

	systray.SetTitle("copytrans")
	systray.SetTooltip("copytrans - Clipboard Translation")

	pairItem := systray.AddMenuItem("Languages", "Toggle translation direction")
	mOpenDashboard := systray.AddMenuItem("Open Dashboard", "Open the copytrans dashboard")
	systray.AddSeparator()
	mRestart := systray.AddMenuItem("Restart", "Restart hotkey listening")
	mQuit := systray.AddMenuItem("Exit", "Exit copytrans")

	// Apply a pair set before the tray came up.
	m.mu.Lock()
	m.pairItem = pairItem
	title := m.pairTitle
	m.mu.Unlock()
	if title != "" {
		pairItem.SetTitle(title)
	}

	go func() {
		for {
			select {
			case <-pairItem.ClickedCh:
				select {
				case m.toggle <- struct{}{}:
				default:
				}
			case <-mOpenDashboard.ClickedCh:
				m.openDashboard()
			case <-mRestart.ClickedCh:
				slog.Info("User requested restart from system tray")
				select {
				case m.restart <- struct{}{}:
				default:
				}
			case <-mQuit.ClickedCh:
				slog.Info("User requested exit from system tray")
				close(m.quit)
				systray.Quit()
				return
			}
		}
	}()
}

// onExit is called when the systray is exiting
func (m *SystrayManager) onExit() {
	slog.Info("System tray exited")
}

// openDashboard opens the dashboard in the default browser
func (m *SystrayManager) openDashboard() {
	url := fmt.Sprintf("http://localhost:%d", m.webPort)
	slog.Info("Opening dashboard", "url", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open dashboard", "error", err)
	}
}
