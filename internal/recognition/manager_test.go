package recognition

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeEngine simulates the underlying recognition capability. Start succeeds
// synchronously and reports OnStart; the test drives results, errors, and
// session ends through the saved callbacks.
type fakeEngine struct {
	mu     sync.Mutex
	cb     Callbacks
	starts int
	stops  int
	active bool
}

func (e *fakeEngine) Start(cb Callbacks) error {
	e.mu.Lock()
	e.cb = cb
	e.starts++
	e.active = true
	e.mu.Unlock()
	cb.OnStart()
	return nil
}

func (e *fakeEngine) Stop() {
	e.mu.Lock()
	active := e.active
	e.active = false
	e.stops++
	cb := e.cb
	e.mu.Unlock()
	if active {
		cb.OnEnd()
	}
}

// endSession simulates the engine terminating on its own, optionally with an
// error first.
func (e *fakeEngine) endSession(kind *ErrorKind) {
	e.mu.Lock()
	e.active = false
	cb := e.cb
	e.mu.Unlock()
	if kind != nil {
		cb.OnError(*kind)
	}
	cb.OnEnd()
}

func (e *fakeEngine) startCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

func (e *fakeEngine) isActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *fakeEngine) emit(ev Event) {
	e.mu.Lock()
	cb := e.cb
	e.mu.Unlock()
	cb.OnResult(ev)
}

type fakePermissions struct {
	state PermissionState
}

func (p *fakePermissions) MicrophonePermission(_ context.Context) PermissionState {
	return p.state
}

func newTestManager(engine *fakeEngine, continuous bool) *Manager {
	return NewManager(ManagerConfig{
		Engine:       engine,
		Continuous:   continuous,
		RestartDelay: 20 * time.Millisecond,
	})
}

func TestManagerStartStop(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestManager(engine, false)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !m.Listening() {
		t.Error("manager should be listening after Start")
	}

	m.Stop()
	if m.Listening() {
		t.Error("manager should not be listening after Stop")
	}
	if engine.startCount() != 1 {
		t.Errorf("engine starts = %d, want 1", engine.startCount())
	}
}

func TestManagerStopWithoutSessionIsNoop(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestManager(engine, true)

	m.Stop()
	m.Stop()

	if engine.startCount() != 0 {
		t.Errorf("engine starts = %d, want 0", engine.startCount())
	}
	if m.Listening() {
		t.Error("manager should not be listening")
	}
}

func TestManagerRestartDebounce(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestManager(engine, true)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Engine drops the session on its own while desired-active is still set.
	engine.endSession(nil)

	// No restart before the debounce elapses.
	if got := engine.startCount(); got != 1 {
		t.Errorf("engine starts before delay = %d, want 1", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := engine.startCount(); got != 2 {
		t.Errorf("engine starts after delay = %d, want exactly 2", got)
	}
	if !m.Listening() {
		t.Error("manager should be listening again after auto-restart")
	}
}

func TestManagerStopCancelsPendingRestart(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestManager(engine, true)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	engine.endSession(nil)
	m.Stop() // before the restart delay elapses

	time.Sleep(60 * time.Millisecond)
	if got := engine.startCount(); got != 1 {
		t.Errorf("engine starts = %d, want 1 (restart must not fire after Stop)", got)
	}
}

func TestManagerDoubleStartYieldsOneSession(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestManager(engine, false)

	if err := m.Start(); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if !engine.isActive() {
		t.Error("engine should have exactly one active session")
	}
	if got := engine.startCount(); got != 2 {
		t.Errorf("engine starts = %d, want 2 (stop then delayed restart)", got)
	}
}

func TestManagerPermissionDeniedFailsFast(t *testing.T) {
	engine := &fakeEngine{}
	m := NewManager(ManagerConfig{
		Engine:       engine,
		Continuous:   true,
		RestartDelay: 20 * time.Millisecond,
		Permissions:  &fakePermissions{state: PermissionDenied},
	})

	if err := m.Start(); err == nil {
		t.Fatal("Start should fail when permission is denied")
	}
	if engine.startCount() != 0 {
		t.Errorf("engine starts = %d, want 0", engine.startCount())
	}
	if last := m.LastError(); last == nil || *last != ErrPermissionDenied {
		t.Errorf("LastError = %v, want %v", last, ErrPermissionDenied)
	}
}

func TestManagerPermissionUnknownAttemptsAnyway(t *testing.T) {
	engine := &fakeEngine{}
	m := NewManager(ManagerConfig{
		Engine:      engine,
		Permissions: &fakePermissions{state: PermissionUnknown},
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if engine.startCount() != 1 {
		t.Errorf("engine starts = %d, want 1", engine.startCount())
	}
}

func TestManagerTerminalErrorDisablesRestart(t *testing.T) {
	engine := &fakeEngine{}
	var surfaced []ErrorKind
	var mu sync.Mutex
	m := NewManager(ManagerConfig{
		Engine:       engine,
		Continuous:   true,
		RestartDelay: 20 * time.Millisecond,
		OnError: func(kind ErrorKind) {
			mu.Lock()
			surfaced = append(surfaced, kind)
			mu.Unlock()
		},
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	kind := ErrPermissionDenied
	engine.endSession(&kind)

	time.Sleep(60 * time.Millisecond)
	if got := engine.startCount(); got != 1 {
		t.Errorf("engine starts = %d, want 1 (terminal error must not restart)", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(surfaced) != 1 || surfaced[0] != ErrPermissionDenied {
		t.Errorf("surfaced errors = %v, want [permission-denied]", surfaced)
	}
}

func TestManagerNoSpeechIsBenign(t *testing.T) {
	engine := &fakeEngine{}
	var surfaced []ErrorKind
	var mu sync.Mutex
	m := NewManager(ManagerConfig{
		Engine:       engine,
		Continuous:   true,
		RestartDelay: 20 * time.Millisecond,
		OnError: func(kind ErrorKind) {
			mu.Lock()
			surfaced = append(surfaced, kind)
			mu.Unlock()
		},
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	kind := ErrNoSpeech
	engine.endSession(&kind)

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	if len(surfaced) != 0 {
		t.Errorf("surfaced errors = %v, want none (no-speech is benign)", surfaced)
	}
	mu.Unlock()

	if got := engine.startCount(); got != 2 {
		t.Errorf("engine starts = %d, want 2 (benign error restarts a continuous session)", got)
	}
	if last := m.LastError(); last != nil {
		t.Errorf("LastError = %v, want nil", *last)
	}
}

func TestManagerForwardsEvents(t *testing.T) {
	engine := &fakeEngine{}
	var got []Event
	var mu sync.Mutex
	m := NewManager(ManagerConfig{
		Engine: engine,
		OnEvent: func(ev Event) {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		},
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	engine.emit(Event{Interim: "hel"})
	engine.emit(Event{Final: "hello"})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].Interim != "hel" || got[0].Final != "" {
		t.Errorf("first event = %+v, want interim only", got[0])
	}
	if got[1].Final != "hello" {
		t.Errorf("second event = %+v, want final %q", got[1], "hello")
	}
}

func TestManagerCloseStopsEverything(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestManager(engine, true)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	m.Close()

	time.Sleep(60 * time.Millisecond)
	if got := engine.startCount(); got != 1 {
		t.Errorf("engine starts = %d, want 1 (no restart after Close)", got)
	}
	if err := m.Start(); err == nil {
		t.Error("Start after Close should fail")
	}
}
