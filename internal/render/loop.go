package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// maxConsecutiveFailures is the number of failed ticks in a row after which a
// write error is treated as persistent.
const maxConsecutiveFailures = 3

// ErrStopPending is returned by Start while the goroutine of a previous run,
// abandoned by a Stop that timed out, is still inside a tick.
var ErrStopPending = errors.New("previous render goroutine has not exited")

// errFramePanic marks a frame that panicked rather than failed to write.
var errFramePanic = errors.New("render frame panic")

// defaultStopGrace is added to the tick interval to bound how long Stop waits
// for an in-flight tick.
const defaultStopGrace = 2 * time.Second

// State is the lifecycle state of a [Loop].
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Hooks are the callbacks a [Loop] drives.
type Hooks struct {
	// Setup runs once in the Starting state, before the first frame.
	// An error aborts the start.
	Setup func() error

	// Frame renders one tick. final is true only for the closing frame
	// rendered by Stop.
	Frame func(final bool) error

	// Teardown runs once after the final frame.
	Teardown func() error
}

// Loop repaints at a fixed interval from a single background goroutine.
//
// Start and Stop are safe for concurrent use and may be called from different
// goroutines. A stopped Loop can be started again.
type Loop struct {
	interval    time.Duration
	stopTimeout time.Duration
	hooks       Hooks
	logger      *slog.Logger

	// opMu serialises Start and Stop.
	opMu   sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	// ticking is true while the render goroutine runs.
	ticking atomic.Bool

	fatalMu sync.Mutex
	fatal   error
}

// New creates a stopped [Loop] ticking every interval.
//
// Nil hooks are treated as no-ops.
func New(interval time.Duration, hooks Hooks, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		interval:    interval,
		stopTimeout: interval + defaultStopGrace,
		hooks:       hooks,
		logger:      logger,
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Start runs Setup and launches the render goroutine.
//
// Start is non-blocking. The first frame is rendered immediately, then one per
// interval until [Loop.Stop] is called or ctx is cancelled. Cancelling ctx
// only stops ticking; Stop must still be called to render the final frame and
// run Teardown.
//
// Start returns false without side effects when the loop is not stopped, so a
// second loop goroutine is never spawned. If the goroutine of a previous run
// is still finishing a tick, Start waits for it up to the stop timeout and
// then gives up with [ErrStopPending]. If ctx is nil, context.Background()
// is used.
func (l *Loop) Start(ctx context.Context) (bool, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if l.State() != Stopped {
		return false, nil
	}
	if l.done != nil {
		select {
		case <-l.done:
		case <-time.After(l.stopTimeout):
			return false, ErrStopPending
		}
	}
	l.state.Store(int32(Starting))

	if l.hooks.Setup != nil {
		if err := l.hooks.Setup(); err != nil {
			l.state.Store(int32(Stopped))
			return false, err
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.setFatal(nil)
	l.state.Store(int32(Running))
	l.ticking.Store(true)

	go l.run(runCtx, l.done)
	return true, nil
}

// Stop halts ticking, renders a final frame and runs Teardown.
//
// Stop waits for an in-flight tick for at most the interval plus a short
// grace period. It is idempotent: calling it on a loop that is not running
// returns nil and renders nothing.
//
// The returned error carries the persistent failure that stopped the loop, if
// any, joined with errors from the final frame and Teardown.
func (l *Loop) Stop() error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if l.State() != Running {
		return nil
	}
	l.state.Store(int32(Stopping))
	l.cancel()

	timedOut := false
	select {
	case <-l.done:
	case <-time.After(l.stopTimeout):
		timedOut = true
		l.logger.Warn("render loop did not stop in time",
			"timeout", l.stopTimeout.String(),
			"action", "skipping final frame",
		)
	}

	fatal := l.fatalErr()
	errs := []error{fatal}
	if fatal == nil && !timedOut {
		if err := l.safeFrame(true); !errors.Is(err, errFramePanic) {
			errs = append(errs, err)
		}
	}
	if l.hooks.Teardown != nil {
		errs = append(errs, l.hooks.Teardown())
	}

	l.state.Store(int32(Stopped))
	return errors.Join(errs...)
}

// Ticking reports whether the render goroutine is still running. It turns
// false when ctx is cancelled or a persistent failure ends the goroutine,
// before Stop is called.
func (l *Loop) Ticking() bool {
	return l.ticking.Load()
}

// Err returns the persistent failure that stopped ticking, if any.
func (l *Loop) Err() error {
	return l.fatalErr()
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer l.ticking.Store(false)

	failures := 0
	tick := func() bool {
		err := l.safeFrame(false)
		if err == nil {
			failures = 0
			return true
		}
		// a panic says nothing about the stream; safeFrame already logged it
		if errors.Is(err, errFramePanic) {
			return true
		}
		failures++
		if IsPersistent(err) || failures >= maxConsecutiveFailures {
			l.setFatal(err)
			l.logger.Error("render loop stopped on persistent write failure",
				"error", err,
				"consecutive_failures", failures,
			)
			return false
		}
		l.logger.Warn("render tick failed",
			"error", err,
			"consecutive_failures", failures,
		)
		return true
	}

	if !tick() {
		return
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !tick() {
				return
			}
		}
	}
}

// safeFrame calls the frame hook with panic recovery.
// A panic is logged with a correlation ID and reported as a frame error.
func (l *Loop) safeFrame(final bool) (err error) {
	if l.hooks.Frame == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			l.logger.Error("render frame panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w (correlation_id: %s)", errFramePanic, correlationID)
		}
	}()
	return l.hooks.Frame(final)
}

func (l *Loop) setFatal(err error) {
	l.fatalMu.Lock()
	l.fatal = err
	l.fatalMu.Unlock()
}

func (l *Loop) fatalErr() error {
	l.fatalMu.Lock()
	defer l.fatalMu.Unlock()
	return l.fatal
}

// IsPersistent reports whether a write error means the stream is gone for
// good rather than momentarily unavailable.
func IsPersistent(err error) bool {
	return errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.EPIPE)
}
