//go:build windows

package hotkey

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	wtsapi32 = windows.NewLazySystemDLL("wtsapi32.dll")

	registerClassEx  = user32.NewProc("RegisterClassExW")
	unregisterClass  = user32.NewProc("UnregisterClassW")
	createWindowEx   = user32.NewProc("CreateWindowExW")
	destroyWindow    = user32.NewProc("DestroyWindow")
	defWindowProc    = user32.NewProc("DefWindowProcW")
	getMessage       = user32.NewProc("GetMessageW")
	translateMessage = user32.NewProc("TranslateMessage")
	dispatchMessage  = user32.NewProc("DispatchMessageW")
	postMessage      = user32.NewProc("PostMessageW")
	postQuitMessage  = user32.NewProc("PostQuitMessage")
	registerHotKey   = user32.NewProc("RegisterHotKey")
	unregisterHotKey = user32.NewProc("UnregisterHotKey")
	getModuleHandle  = kernel32.NewProc("GetModuleHandleW")

	wtsRegisterSessionNotification   = wtsapi32.NewProc("WTSRegisterSessionNotification")
	wtsUnRegisterSessionNotification = wtsapi32.NewProc("WTSUnRegisterSessionNotification")
)

const (
	wmClose            = 0x0010
	wmDestroy          = 0x0002
	wmInputLangChange  = 0x0051
	wmPowerBroadcast   = 0x0218
	wmHotkey           = 0x0312
	wmWtsSessionChange = 0x02B1

	// Private messages above WM_APP.
	wmAppReregister = 0x8000 + 1
	wmAppProbe      = 0x8000 + 2

	pbtApmResumeCritical  = 0x0006
	pbtApmResumeSuspend   = 0x0007
	pbtApmResumeAutomatic = 0x0012

	modNoRepeat    = 0x4000
	wsExToolwindow = 0x00000080

	notifyForThisSession = 0

	className = "CopytransHotkeyWindow"

	watchdogInterval = 5 * time.Second
	minRetryBackoff  = time.Second
	maxRetryBackoff  = time.Minute
)

type wndclassex struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     uintptr
	hIcon         uintptr
	hCursor       uintptr
	hbrBackground uintptr
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       uintptr
}

type message struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// windowsListener receives WM_HOTKEY messages on a hidden window owned by a
// locked OS thread. The OS silently drops hotkey registrations on input
// language switches, sleep/resume and session changes, so the window listens
// for those notifications and re-registers in place without a full restart.
type windowsListener struct {
	bindings []Binding

	mu           sync.Mutex
	running      bool
	events       chan Event
	exited       chan struct{}
	stopCh       chan struct{}
	stopWatchdog chan struct{}

	hwnd      atomic.Uintptr
	active    atomic.Bool
	heartbeat atomic.Int64 // unix nanos of last pump activity

	wndprocCB uintptr
	backoff   time.Duration

	// Pump-thread confined.
	idMap             map[uintptr]Binding
	classRegistered   bool
	sessionRegistered bool
}

func newListener(bindings []Binding) (Listener, error) {
	return &windowsListener{bindings: bindings}, nil
}

// Start arms the pump on a dedicated OS thread and returns once the hidden
// window exists and the hotkeys are registered. Starting an already-running
// listener is a no-op.
func (l *windowsListener) Start() error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.events = make(chan Event, 16)
	l.exited = make(chan struct{})
	l.stopCh = make(chan struct{})
	l.stopWatchdog = make(chan struct{})
	l.backoff = minRetryBackoff
	l.running = true
	exited := l.exited
	l.mu.Unlock()

	ready := make(chan error, 1)
	go l.run(ready)

	if err := <-ready; err != nil {
		l.mu.Lock()
		l.running = false
		close(l.stopCh)
		close(l.stopWatchdog)
		l.mu.Unlock()
		<-exited
		return err
	}

	go l.watchdog(l.stopWatchdog)
	return nil
}

// Stop requests pump termination and blocks until the pump thread has fully
// exited. Stopping a stopped listener is a no-op.
func (l *windowsListener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopCh)
	close(l.stopWatchdog)
	exited := l.exited
	l.mu.Unlock()

	// The pump may be between window generations; keep knocking until the
	// thread is gone.
	for {
		if hwnd := l.hwnd.Load(); hwnd != 0 {
			postMessage.Call(hwnd, wmClose, 0, 0)
		}
		select {
		case <-exited:
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (l *windowsListener) Active() bool {
	return l.active.Load()
}

func (l *windowsListener) Events() <-chan Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}

func (l *windowsListener) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// run owns the pump thread. An initialization failure on the very first
// attempt is reported through ready and ends the thread; after that the pump
// is re-initialized in place after a crash or a watchdog kick for as long as
// the listener is running.
func (l *windowsListener) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	events := l.events
	defer close(l.exited)
	defer close(events)
	defer l.active.Store(false)

	first := true
	for {
		if !l.isRunning() {
			return
		}
		initOK, err := l.pumpOnce(first, ready)
		if first && !initOK {
			return
		}
		first = false
		if !l.isRunning() {
			return
		}
		if err != nil {
			slog.Error("Hotkey pump failed, reinitializing", "error", err)
			select {
			case <-time.After(time.Second):
			case <-l.stopCh:
				return
			}
		}
	}
}

func (l *windowsListener) pumpOnce(first bool, ready chan<- error) (initOK bool, err error) {
	readySent := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hotkey pump panicked: %v", r)
		}
		if first && !readySent {
			ready <- err
		}
		l.active.Store(false)
		l.cleanupWindow()
	}()

	if ierr := l.initWindow(); ierr != nil {
		if first {
			ready <- ierr
			readySent = true
		}
		return false, ierr
	}

	l.active.Store(true)
	if first {
		ready <- nil
		readySent = true
	}
	l.pumpMessages()
	return true, nil
}

func (l *windowsListener) initWindow() error {
	if l.wndprocCB == 0 {
		l.wndprocCB = windows.NewCallback(l.wndProc)
	}

	hinst, _, _ := getModuleHandle.Call(0)
	namePtr, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return fmt.Errorf("invalid window class name: %w", err)
	}

	wc := wndclassex{
		cbSize:        uint32(unsafe.Sizeof(wndclassex{})),
		lpfnWndProc:   l.wndprocCB,
		hInstance:     hinst,
		lpszClassName: namePtr,
	}
	if atom, _, _ := registerClassEx.Call(uintptr(unsafe.Pointer(&wc))); atom != 0 {
		l.classRegistered = true
	}

	hwnd, _, callErr := createWindowEx.Call(
		wsExToolwindow,
		uintptr(unsafe.Pointer(namePtr)),
		uintptr(unsafe.Pointer(namePtr)),
		0,
		0, 0, 0, 0,
		0, 0, hinst, 0,
	)
	if hwnd == 0 {
		return fmt.Errorf("failed to create hidden hotkey window: %w", callErr)
	}
	l.hwnd.Store(hwnd)

	if r, _, _ := wtsRegisterSessionNotification.Call(hwnd, notifyForThisSession); r != 0 {
		l.sessionRegistered = true
	}

	l.registerHotkeys(hwnd)
	l.touchHeartbeat()
	slog.Info("Hotkey window created", "hwnd", hwnd, "bindings", len(l.bindings))
	return nil
}

func (l *windowsListener) cleanupWindow() {
	hwnd := l.hwnd.Swap(0)
	if hwnd == 0 {
		return
	}

	if l.sessionRegistered {
		wtsUnRegisterSessionNotification.Call(hwnd)
		l.sessionRegistered = false
	}
	for id := range l.idMap {
		unregisterHotKey.Call(hwnd, id)
	}
	l.idMap = nil
	destroyWindow.Call(hwnd)

	if l.classRegistered {
		if namePtr, err := windows.UTF16PtrFromString(className); err == nil {
			unregisterClass.Call(uintptr(unsafe.Pointer(namePtr)), 0)
		}
		l.classRegistered = false
	}
}

// registerHotkeys registers every binding. Failures (another process may own
// the combo) are logged and retried on a doubling backoff schedule, never
// swallowed.
func (l *windowsListener) registerHotkeys(hwnd uintptr) {
	l.idMap = make(map[uintptr]Binding, len(l.bindings))

	failed := 0
	for i, b := range l.bindings {
		id := uintptr(i + 1)
		mods := uintptr(b.Modifiers)
		if !b.AllowRepeat {
			mods |= modNoRepeat
		}
		r, _, callErr := registerHotKey.Call(hwnd, id, mods, uintptr(b.VirtualKey))
		if r == 0 {
			slog.Error("Failed to register hotkey", "name", b.Name, "combo", b.Display, "error", callErr)
			failed++
			continue
		}
		l.idMap[id] = b
		slog.Info("Registered hotkey", "name", b.Name, "combo", b.Display)
	}

	if failed > 0 {
		l.scheduleReregister()
		return
	}
	l.backoff = minRetryBackoff
}

func (l *windowsListener) scheduleReregister() {
	backoff := l.backoff
	l.backoff *= 2
	if l.backoff > maxRetryBackoff {
		l.backoff = maxRetryBackoff
	}
	slog.Warn("Retrying hotkey registration", "backoff", backoff)

	time.AfterFunc(backoff, func() {
		if !l.isRunning() {
			return
		}
		if hwnd := l.hwnd.Load(); hwnd != 0 {
			postMessage.Call(hwnd, wmAppReregister, 0, 0)
		}
	})
}

func (l *windowsListener) pumpMessages() {
	var m message
	for {
		r, _, _ := getMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if r == 0 || int32(r) == -1 { // WM_QUIT or error
			return
		}
		translateMessage.Call(uintptr(unsafe.Pointer(&m)))
		dispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
		l.touchHeartbeat()
	}
}

func (l *windowsListener) wndProc(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case wmHotkey:
		if b, ok := l.idMap[wParam]; ok {
			select {
			case l.events <- Event{Name: b.Name, At: time.Now()}:
			default:
				slog.Warn("Dropping hotkey event, channel full", "name", b.Name)
			}
		}
		return 0

	case wmInputLangChange:
		slog.Info("Input language changed, re-registering hotkeys")
		postMessage.Call(hwnd, wmAppReregister, 0, 0)
		return 0

	case wmPowerBroadcast:
		switch wParam {
		case pbtApmResumeAutomatic, pbtApmResumeSuspend, pbtApmResumeCritical:
			slog.Info("Power resume detected, re-registering hotkeys")
			postMessage.Call(hwnd, wmAppReregister, 0, 0)
		}
		return 1

	case wmWtsSessionChange:
		slog.Info("Session change detected, re-registering hotkeys", "code", wParam)
		postMessage.Call(hwnd, wmAppReregister, 0, 0)
		return 0

	case wmAppReregister:
		for id := range l.idMap {
			unregisterHotKey.Call(hwnd, id)
		}
		l.registerHotkeys(hwnd)
		return 0

	case wmAppProbe:
		l.touchHeartbeat()
		return 0

	case wmClose:
		destroyWindow.Call(hwnd)
		return 0

	case wmDestroy:
		postQuitMessage.Call(0)
		return 0
	}

	r, _, _ := defWindowProc.Call(hwnd, uintptr(msg), wParam, lParam)
	return r
}

func (l *windowsListener) touchHeartbeat() {
	l.heartbeat.Store(time.Now().UnixNano())
}

// watchdog posts a probe message on every tick. A healthy pump answers by
// updating the heartbeat; a pump that stops draining its queue gets kicked
// with WM_CLOSE, which makes run reinitialize the window and registrations.
func (l *windowsListener) watchdog(stop <-chan struct{}) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			hwnd := l.hwnd.Load()
			if hwnd == 0 {
				continue
			}
			postMessage.Call(hwnd, wmAppProbe, 0, 0)

			last := time.Unix(0, l.heartbeat.Load())
			if age := time.Since(last); age > 3*watchdogInterval {
				slog.Error("Hotkey pump unresponsive, restarting pump", "age", age)
				postMessage.Call(hwnd, wmClose, 0, 0)
			}
		}
	}
}
