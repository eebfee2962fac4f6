package session

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudu/camview/internal/frame"
)

var errRead = errors.New("simulated read failure")

// fakeSource produces frames whose fields are derived from a running
// sequence number. script, when set, decides per call whether the read
// fails.
type fakeSource struct {
	mu      sync.Mutex
	seq     uint64
	reads   int
	script  func(call int) error
	delay   time.Duration
	onClose func()
}

func (f *fakeSource) Read() (*frame.Frame, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.reads++
	call := f.reads
	f.mu.Unlock()

	if f.script != nil {
		if err := f.script(call); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	return &frame.Frame{
		Width:      int(seq) * 4,
		Height:     int(seq) * 3,
		Seq:        seq,
		CapturedAt: time.Now(),
	}, nil
}

func (f *fakeSource) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeSource) Close() error {
	if f.onClose != nil {
		f.onClose()
	}
	return nil
}

// fakeSurface records shown frames and returns the quit key once enough
// polls have happened.
type fakeSurface struct {
	mu      sync.Mutex
	shown   []uint64
	polls   int
	quitAt  int // poll count at which the quit key appears; 0 = never
	key     int
	onClose func()
}

func (f *fakeSurface) Show(fr *frame.Frame) {
	f.mu.Lock()
	f.shown = append(f.shown, fr.Seq)
	f.mu.Unlock()
}

func (f *fakeSurface) PollKey(delayMs int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.quitAt > 0 && f.polls >= f.quitAt {
		return f.key
	}
	return -1
}

func (f *fakeSurface) shownSeqs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.shown...)
}

func (f *fakeSurface) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeSurface) Close() error {
	if f.onClose != nil {
		f.onClose()
	}
	return nil
}

// fastConfig keeps test sessions snappy.
func fastConfig() Config {
	return Config{
		WaitKeyDelay: 1,
		CaptureYield: time.Millisecond,
		RetryDelay:   time.Millisecond,
		TakeWait:     time.Millisecond,
	}
}

// closeRecorder builds onClose hooks that record teardown order.
func closeRecorder() (*[]string, func(string) func()) {
	var mu sync.Mutex
	order := new([]string)
	return order, func(name string) func() {
		return func() {
			mu.Lock()
			*order = append(*order, name)
			mu.Unlock()
		}
	}
}

func TestQuitKeyStopsSession(t *testing.T) {
	order, record := closeRecorder()
	src := &fakeSource{onClose: record("source")}
	dst := &fakeSurface{quitAt: 10, key: 'q', onClose: record("surface")}

	sess := New(src, dst, fastConfig())
	assert.Equal(t, DeviceOpen, sess.State())

	err := sess.Run()
	require.NoError(t, err)

	assert.Equal(t, Closed, sess.State())
	assert.Equal(t, []string{"source", "surface"}, *order)

	// Frames appear in non-decreasing acquisition order; gaps are fine.
	shown := dst.shownSeqs()
	for i := 1; i < len(shown); i++ {
		assert.True(t, shown[i] > shown[i-1],
			"seq %d shown after %d", shown[i], shown[i-1])
	}
}

func TestEscapeQuits(t *testing.T) {
	src := &fakeSource{}
	dst := &fakeSurface{quitAt: 3, key: 27}

	sess := New(src, dst, fastConfig())
	require.NoError(t, sess.Run())
	assert.Equal(t, Closed, sess.State())
}

func TestPollingResponsiveWithoutFrames(t *testing.T) {
	// A device so slow it never delivers a frame before the user quits.
	src := &fakeSource{delay: time.Second}
	dst := &fakeSurface{quitAt: 5, key: 'q'}

	sess := New(src, dst, fastConfig())
	require.NoError(t, sess.Run())

	assert.Empty(t, dst.shownSeqs(), "no frame should have been shown")
	assert.True(t, dst.pollCount() >= 5, "input polling stalled waiting for frames")
}

func TestReadFailureBudget(t *testing.T) {
	order, record := closeRecorder()
	src := &fakeSource{
		script:  func(int) error { return errRead },
		onClose: record("source"),
	}
	dst := &fakeSurface{onClose: record("surface")} // never quits

	cfg := fastConfig()
	cfg.MaxReadFailures = 3

	sess := New(src, dst, cfg)
	err := sess.Run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 consecutive read failures")
	assert.Equal(t, Closed, sess.State())
	assert.Equal(t, []string{"source", "surface"}, *order)
	assert.Equal(t, 3, src.readCount())
}

func TestIntermittentFailuresRecover(t *testing.T) {
	// Two failures, then a success, repeatedly: the streak never reaches
	// the budget, so only the quit key ends the session.
	src := &fakeSource{
		script: func(call int) error {
			if call%3 != 0 {
				return errRead
			}
			return nil
		},
	}
	dst := &fakeSurface{quitAt: 30, key: 'q'}

	cfg := fastConfig()
	cfg.MaxReadFailures = 3

	sess := New(src, dst, cfg)
	require.NoError(t, sess.Run())
	assert.Equal(t, Closed, sess.State())
}

func TestRequestStopBeforeRun(t *testing.T) {
	order, record := closeRecorder()
	src := &fakeSource{onClose: record("source")}
	dst := &fakeSurface{onClose: record("surface")}

	sess := New(src, dst, fastConfig())
	sess.RequestStop()

	require.NoError(t, sess.Run())
	assert.Equal(t, Closed, sess.State())
	assert.Equal(t, []string{"source", "surface"}, *order)
	assert.Empty(t, dst.shownSeqs())
}

func TestStopObservedPromptly(t *testing.T) {
	src := &fakeSource{delay: 10 * time.Millisecond}
	dst := &fakeSurface{quitAt: 1, key: 'q'}

	sess := New(src, dst, fastConfig())

	start := time.Now()
	require.NoError(t, sess.Run())

	// One in-flight read plus one yield, with generous slack.
	assert.True(t, time.Since(start) < time.Second,
		"capture loop took too long to observe the stop signal")
}

func TestSessionNotReusable(t *testing.T) {
	src := &fakeSource{}
	dst := &fakeSurface{quitAt: 1, key: 'q'}

	sess := New(src, dst, fastConfig())
	require.NoError(t, sess.Run())

	err := sess.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run from state Closed")
}
