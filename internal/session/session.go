package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/dudu/camview/internal/frame"
	"github.com/dudu/camview/internal/logging"
)

var log = logging.DefaultLogger.WithTag("session")

// Config tunes the capture and display loops. Zero values fall back to
// defaults.
type Config struct {
	// QuitKey ends the session when reported by PollKey. ESC always quits.
	QuitKey int

	// WaitKeyDelay is the poll delay passed to the surface, in milliseconds.
	WaitKeyDelay int

	// CaptureYield bounds capture-loop CPU use when the device is faster
	// than necessary. Must stay short relative to the frame interval.
	CaptureYield time.Duration

	// RetryDelay separates retries after a failed read.
	RetryDelay time.Duration

	// TakeWait bounds how long the display loop waits for a new frame
	// before going back to polling input.
	TakeWait time.Duration

	// MaxReadFailures is the consecutive-failure budget. Once exceeded the
	// session stops with an error instead of retrying forever. Any
	// successful read resets the streak.
	MaxReadFailures int
}

const (
	keyEscape = 27

	defaultQuitKey         = 'q'
	defaultWaitKeyDelay    = 10
	defaultCaptureYield    = 10 * time.Millisecond
	defaultRetryDelay      = 50 * time.Millisecond
	defaultTakeWait        = 10 * time.Millisecond
	defaultMaxReadFailures = 30
)

func (c Config) withDefaults() Config {
	if c.QuitKey == 0 {
		c.QuitKey = defaultQuitKey
	}
	if c.WaitKeyDelay <= 0 {
		c.WaitKeyDelay = defaultWaitKeyDelay
	}
	if c.CaptureYield <= 0 {
		c.CaptureYield = defaultCaptureYield
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.TakeWait <= 0 {
		c.TakeWait = defaultTakeWait
	}
	if c.MaxReadFailures <= 0 {
		c.MaxReadFailures = defaultMaxReadFailures
	}
	return c
}

// Session drives one run from open device to resource teardown: a capture
// loop acquiring frames on its own goroutine, a display loop showing the
// newest one on the caller's goroutine, and a single-slot handoff between
// them.
type Session struct {
	id   uuid.UUID
	src  FrameSource
	dst  DisplaySurface
	cfg  Config
	slot *frame.Latest

	state atomic.Int32

	// Stop flag shared by both loops. Monotonic: set once, never cleared.
	stopped atomic.Bool

	// First unrecoverable error; read only after the capture goroutine has
	// been joined.
	failErr  error
	failOnce sync.Once

	wg sync.WaitGroup
}

// New wires an already-open source and surface into a session ready to Run.
// The session owns teardown of both from here on.
func New(src FrameSource, dst DisplaySurface, cfg Config) *Session {
	s := &Session{
		id:   uuid.New(),
		src:  src,
		dst:  dst,
		cfg:  cfg.withDefaults(),
		slot: frame.NewLatest(),
	}
	s.state.Store(int32(DeviceOpen))
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// RequestStop asks both loops to wind down. Safe to call from any goroutine,
// any number of times.
func (s *Session) RequestStop() {
	s.stop(nil)
}

func (s *Session) stop(err error) {
	if err != nil {
		s.failOnce.Do(func() { s.failErr = err })
	}
	s.stopped.Store(true)
}

func (s *Session) stopping() bool {
	return s.stopped.Load()
}

// Run drives the session to completion: the capture loop in the background,
// the display loop on the calling goroutine, then teardown. It returns nil
// after a user-requested quit, or the error that forced the stop. A session
// runs at most once.
func (s *Session) Run() error {
	if !s.state.CompareAndSwap(int32(DeviceOpen), int32(Running)) {
		return errors.Errorf("session %s: cannot run from state %s", s.id, s.State())
	}
	log.Info("session %s running", s.id)

	s.wg.Add(1)
	go s.captureLoop()

	s.displayLoop()
	return s.teardown()
}

// captureLoop acquires frames as fast as the device allows and hands each
// one to the slot. Read failures are retried; only an exhausted failure
// budget stops the session. It never closes the source; that belongs to
// teardown, which runs after this loop has exited.
func (s *Session) captureLoop() {
	defer s.wg.Done()

	failures := 0
	for !s.stopping() {
		f, err := s.src.Read()
		if err != nil {
			failures++
			log.Warn("frame read failed (%d consecutive): %v", failures, err)
			if failures >= s.cfg.MaxReadFailures {
				s.stop(errors.Wrapf(err, "giving up after %d consecutive read failures", failures))
				return
			}
			time.Sleep(s.cfg.RetryDelay)
			continue
		}
		failures = 0

		if dropped := s.slot.Put(f); dropped != nil {
			dropped.Close()
		}

		// Small yield so a fast device doesn't pin a core.
		time.Sleep(s.cfg.CaptureYield)
	}
}

// displayLoop shows the newest available frame and polls for the quit key.
// It is the only code that touches the surface, and it polls input every
// iteration so quit stays responsive before the first frame arrives.
func (s *Session) displayLoop() {
	for !s.stopping() {
		if f := s.slot.TakeLatest(s.cfg.TakeWait); f != nil {
			s.dst.Show(f)
			f.Close()
		}

		key := s.dst.PollKey(s.cfg.WaitKeyDelay)
		if key == s.cfg.QuitKey || key == keyEscape {
			log.Info("session %s: quit requested", s.id)
			s.stop(nil)
		}
	}
}

// teardown joins the capture goroutine, then releases the source and the
// surface, in that order. Runs exactly once, after both loops have exited.
func (s *Session) teardown() error {
	s.state.Store(int32(Stopping))

	// The capture loop may be blocked inside a device read; shutdown is
	// cooperative, so wait for it to return and observe the stop flag.
	s.wg.Wait()

	if f := s.slot.TakeLatest(0); f != nil {
		f.Close()
	}

	if err := s.src.Close(); err != nil {
		log.Warn("closing frame source: %v", err)
	}
	if err := s.dst.Close(); err != nil {
		log.Warn("closing display surface: %v", err)
	}

	s.state.Store(int32(Closed))
	if n := s.slot.Drops(); n > 0 {
		log.Debug("session %s displaced %d stale frames", s.id, n)
	}
	log.Info("session %s closed", s.id)
	return s.failErr
}
