package portsvc

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mosaic-labs/serialmcp/internal/serialio"
)

const maxReadChunk = 1024

// Opener constructs the handle backing an open() call. Production
// wiring passes serialio.Open; tests substitute a factory that hands
// back a *serialio.MockHandle so the service can be exercised without
// real hardware.
type Opener func(name string, cfg serialio.Config) (serialio.Handle, error)

// Service is the single point of mutation for Port State (C2/C3): a
// process-wide, mutex-guarded singleton. At most one Open variant
// exists at any instant across every Service method.
type Service struct {
	mu     sync.Mutex
	st     state
	opener Opener
	now    func() time.Time
}

// New constructs a Service backed by opener, starting Closed.
func New(opener Opener) *Service {
	return &Service{
		st:     closedState(),
		opener: opener,
		now:    time.Now,
	}
}

// AutoCloseEvent is carried by a ReadResult when the idle watchdog
// trips (§4.2, §6.3).
type AutoCloseEvent struct {
	Reason         string
	IdleMs         uint64
	IdleCloseCount uint32
}

// WriteResult reports the outcome of a successful write().
type WriteResult struct {
	BytesWritten uint32
}

// ReadResult reports the outcome of a successful read(). Timeout is
// true when the read returned zero bytes because the handle's
// deadline elapsed — this is a defined result shape, not an error
// (§4.2, §7).
type ReadResult struct {
	Text          string
	BytesRead     uint32
	Timeout       bool
	TimeoutStreak uint32
	AutoClose     *AutoCloseEvent
}

// Counters is the monotonic-within-a-lifecycle counter set (§3).
type Counters struct {
	BytesReadTotal    uint64
	BytesWrittenTotal uint64
	TimeoutStreak     uint32
	IdleCloseCount    uint32
}

// StatusResult is the pure snapshot returned by status() (§4.2).
type StatusResult struct {
	IsOpen         bool
	Config         Config
	Counters       Counters
	OpenDurationMs uint64
	LastActivityMs uint64
}

// MetricsResult is the pure snapshot returned by metrics() (§4.2).
type MetricsResult struct {
	IsOpen         bool
	Counters       Counters
	OpenDurationMs uint64
	LastActivityMs uint64
}

// CloseResult distinguishes "we actually closed an open port" from
// "the port was already closed", so the dispatcher can convey the
// distinct already-closed signal named in §4.2 while close() itself
// stays idempotent either way.
type CloseResult struct {
	WasOpen bool
}

// Open transitions Closed -> Open. It fails with ErrAlreadyOpen if a
// port is already open.
func (s *Service) Open(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.isOpen() {
		return ErrAlreadyOpen
	}
	return s.openLocked(cfg)
}

func (s *Service) openLocked(cfg Config) error {
	h, err := s.opener(cfg.PortName, cfg.handleConfig())
	if err != nil {
		return OpenFailed(err)
	}
	now := s.now()
	s.st = state{
		v:           variantOpen,
		handle:      h,
		config:      cfg,
		openStarted: now,
		lastActivity: now,
	}
	return nil
}

// Close transitions Open -> Closed, releasing the handle first. It is
// idempotent: Closed -> Closed reports WasOpen=false and nil error.
func (s *Service) Close() (CloseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Service) closeLocked() (CloseResult, error) {
	if !s.st.isOpen() {
		return CloseResult{WasOpen: false}, nil
	}
	h := s.st.handle
	s.st = closedState()
	if h != nil {
		_ = h.Close()
	}
	return CloseResult{WasOpen: true}, nil
}

// Write transmits text, appending the configured terminator exactly
// once if it is set and not already present (§4.2).
func (s *Service) Write(text string) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.st.isOpen() {
		return WriteResult{}, ErrNotOpen
	}
	payload := text
	if s.st.config.Terminator != "" && !strings.HasSuffix(payload, s.st.config.Terminator) {
		payload += s.st.config.Terminator
	}
	n, err := s.st.handle.Write([]byte(payload))
	if err != nil {
		return WriteResult{}, WriteFailed(err)
	}
	s.st.bytesWrittenTotal += uint64(n)
	s.st.lastActivity = s.now()
	return WriteResult{BytesWritten: uint32(n)}, nil
}

// Read evaluates the idle watchdog first, then performs at most one
// bounded read of up to 1024 bytes (§4.2).
func (s *Service) Read() (ReadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.st.isOpen() {
		return ReadResult{}, ErrNotOpen
	}

	now := s.now()
	if trip, idleMs := idleTripped(s.st.config, s.st.lastActivity, now); trip {
		s.st.idleCloseCount++
		count := s.st.idleCloseCount
		if _, err := s.closeLocked(); err != nil {
			return ReadResult{}, err
		}
		return ReadResult{
			AutoClose: &AutoCloseEvent{
				Reason:         "idle_timeout",
				IdleMs:         idleMs,
				IdleCloseCount: count,
			},
		}, nil
	}

	buf := make([]byte, maxReadChunk)
	n, err := s.st.handle.Read(buf)
	if err != nil {
		return ReadResult{}, ReadFailed(err)
	}
	if n == 0 {
		s.st.timeoutStreak++
		return ReadResult{Timeout: true, TimeoutStreak: s.st.timeoutStreak}, nil
	}

	s.st.timeoutStreak = 0
	s.st.bytesReadTotal += uint64(n)
	s.st.lastActivity = now

	text := decodeLossy(buf[:n])
	if s.st.config.Terminator != "" && strings.HasSuffix(text, s.st.config.Terminator) {
		text = strings.TrimSuffix(text, s.st.config.Terminator)
	}
	return ReadResult{Text: text, BytesRead: uint32(n), TimeoutStreak: 0}, nil
}

// Reconfigure atomically closes (if open) and reopens with merged
// settings, resetting counters. If the port is Closed, PortName is
// required in the merged result.
func (s *Service) Reconfigure(p Partial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := DefaultConfig("", 0)
	if s.st.isOpen() {
		base = s.st.config
	}
	merged := p.Merge(base)
	if merged.PortName == "" {
		return InvalidArg("port_name is required when the port is closed")
	}

	if _, err := s.closeLocked(); err != nil {
		return err
	}
	return s.openLocked(merged)
}

// Status returns a pure snapshot (§4.2).
func (s *Service) Status() StatusResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !s.st.isOpen() {
		return StatusResult{IsOpen: false}
	}
	return StatusResult{
		IsOpen: true,
		Config: s.st.config,
		Counters: Counters{
			BytesReadTotal:    s.st.bytesReadTotal,
			BytesWrittenTotal: s.st.bytesWrittenTotal,
			TimeoutStreak:     s.st.timeoutStreak,
			IdleCloseCount:    s.st.idleCloseCount,
		},
		OpenDurationMs: uint64(now.Sub(s.st.openStarted) / time.Millisecond),
		LastActivityMs: uint64(now.Sub(s.st.lastActivity) / time.Millisecond),
	}
}

// Metrics returns a pure snapshot of counters and derived timings (§4.2).
func (s *Service) Metrics() MetricsResult {
	st := s.Status()
	return MetricsResult{
		IsOpen:         st.IsOpen,
		Counters:       st.Counters,
		OpenDurationMs: st.OpenDurationMs,
		LastActivityMs: st.LastActivityMs,
	}
}

// decodeLossy replaces invalid UTF-8 sequences rather than erroring,
// per the spec's pinned lossy-decode contract (§9 Open Question).
func decodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
