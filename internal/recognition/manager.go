package recognition

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultRestartDelay is the debounce applied before any restart attempt so a
// self-terminating engine cannot drive a tight start/stop loop.
const DefaultRestartDelay = 100 * time.Millisecond

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Engine       Engine
	Continuous   bool          // restart automatically after each natural end
	RestartDelay time.Duration // defaults to DefaultRestartDelay
	Permissions  PermissionQuerier
	OnEvent      func(Event)     // single registered observer for transcript updates
	OnError      func(ErrorKind) // surfaced errors only; benign kinds never reach this
	Logger       *log.Logger
}

// Manager reconciles what the caller wants (desiredActive, mutated only via
// Start/Stop) with what the engine reports (actuallyActive, mutated only by
// engine lifecycle callbacks). Callers never see or touch either flag
// directly, which keeps the restart/cancel races testable in isolation.
type Manager struct {
	engine       Engine
	continuous   bool
	restartDelay time.Duration
	permissions  PermissionQuerier
	onEvent      func(Event)
	onError      func(ErrorKind)
	logger       *log.Logger

	mu             sync.Mutex
	desiredActive  bool
	actuallyActive bool
	lastError      *ErrorKind
	restartTimer   *time.Timer
	restartOnEnd   bool // set when Start found a live session and cycled it
	permChecked    bool
	closed         bool
}

// NewManager creates a Manager around the given engine.
func NewManager(cfg ManagerConfig) *Manager {
	delay := cfg.RestartDelay
	if delay <= 0 {
		delay = DefaultRestartDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		engine:       cfg.Engine,
		continuous:   cfg.Continuous,
		restartDelay: delay,
		permissions:  cfg.Permissions,
		onEvent:      cfg.OnEvent,
		onError:      cfg.OnError,
		logger:       logger,
	}
}

func (m *Manager) callbacks() Callbacks {
	return Callbacks{
		OnStart:  m.handleStart,
		OnResult: m.handleResult,
		OnError:  m.handleError,
		OnEnd:    m.handleEnd,
	}
}

// Start declares the intent to listen. It is idempotent: if a session is
// already live, it is cleanly stopped and a debounced restart is scheduled
// instead of issuing a concurrent start, which real engines reject with an
// "already started" fault.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("recognition: manager is closed")
	}

	if !m.permChecked && m.permissions != nil {
		m.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		state := m.permissions.MicrophonePermission(ctx)
		cancel()
		m.mu.Lock()
		m.permChecked = true
		if state == PermissionDenied {
			kind := ErrPermissionDenied
			m.lastError = &kind
			m.mu.Unlock()
			return fmt.Errorf("recognition: %s", kind.Message())
		}
	}

	m.desiredActive = true
	m.lastError = nil

	if m.actuallyActive {
		// Cycle the live session; handleEnd will schedule the restart.
		m.restartOnEnd = true
		engine := m.engine
		m.mu.Unlock()
		engine.Stop()
		return nil
	}
	engine := m.engine
	m.mu.Unlock()

	if err := engine.Start(m.callbacks()); err != nil {
		m.mu.Lock()
		m.desiredActive = false
		m.mu.Unlock()
		return fmt.Errorf("recognition: start: %w", err)
	}
	return nil
}

// Stop declares the intent to stop. Any pending auto-restart is cancelled
// atomically with the stop, so a restart can never fire after an explicit
// Stop. Calling Stop with no live session is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.desiredActive = false
	m.restartOnEnd = false
	m.cancelRestartLocked()
	active := m.actuallyActive
	engine := m.engine
	m.mu.Unlock()

	if active {
		engine.Stop()
	}
}

// Close tears the manager down: desired-active is forced false, any pending
// restart is cancelled, and the underlying session is stopped. The manager
// must not be started again afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Stop()
}

// Listening reports whether the engine currently has a live session.
func (m *Manager) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actuallyActive
}

// LastError returns the most recent surfaced error, or nil.
func (m *Manager) LastError() *ErrorKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *Manager) handleStart() {
	m.mu.Lock()
	m.actuallyActive = true
	m.mu.Unlock()
}

func (m *Manager) handleResult(ev Event) {
	m.mu.Lock()
	observer := m.onEvent
	m.mu.Unlock()
	if observer != nil {
		observer(ev)
	}
}

func (m *Manager) handleError(kind ErrorKind) {
	m.mu.Lock()
	if kind.Terminal() {
		// Terminal faults clear the intent to listen so handleEnd will not
		// schedule a restart; the user has to re-initiate.
		m.desiredActive = false
		m.restartOnEnd = false
		m.cancelRestartLocked()
	}
	var surface func(ErrorKind)
	if !kind.Benign() {
		m.lastError = &kind
		surface = m.onError
	}
	m.mu.Unlock()

	if surface != nil {
		surface(kind)
	}
}

func (m *Manager) handleEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actuallyActive = false

	if m.closed || !m.desiredActive {
		return
	}
	if m.continuous || m.restartOnEnd {
		m.restartOnEnd = false
		m.scheduleRestartLocked()
	}
}

// scheduleRestartLocked arms the single restart timer, replacing any pending
// one so an end-plus-error pair never produces two attempts.
func (m *Manager) scheduleRestartLocked() {
	if m.restartTimer != nil {
		m.restartTimer.Stop()
	}
	m.restartTimer = time.AfterFunc(m.restartDelay, m.restart)
}

func (m *Manager) cancelRestartLocked() {
	if m.restartTimer != nil {
		m.restartTimer.Stop()
		m.restartTimer = nil
	}
}

func (m *Manager) restart() {
	m.mu.Lock()
	m.restartTimer = nil
	// Stop may have raced the timer firing; desiredActive is the authority.
	if m.closed || !m.desiredActive || m.actuallyActive {
		m.mu.Unlock()
		return
	}
	engine := m.engine
	m.mu.Unlock()

	if err := engine.Start(m.callbacks()); err != nil {
		m.logger.Printf("recognition: restart failed: %v", err)
		m.handleError(ErrUnknown)
	}
}
