// ABOUTME: Single entry point brokering all reads and writes to persisted state
// ABOUTME: Lazy idempotent initialization with bounded wait, retry, and seeding

package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/niyog/copra-station/internal/store"
)

// ErrStorageUnavailable is returned when initialization failed after all retries.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrInitTimeout is returned when the bounded wait for a concurrent
// in-flight initialization elapses.
var ErrInitTimeout = errors.New("timed out waiting for initialization")

// state tracks the initialization lifecycle. A failed initialization drops
// straight back to stateUninitialized so a later call can retry.
type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateReady
)

// StoreOpener opens the backing store. The layer calls it once per
// initialization attempt; injecting it keeps the layer free of global state
// and lets tests substitute an in-memory store.
type StoreOpener func() (store.Store, error)

// Layer coordinates lazy initialization of the underlying storage and exposes
// operator, settings, and receipt operations on top of it. All methods are
// safe for concurrent use; storage access serializes on the single handle.
type Layer struct {
	mu    sync.Mutex
	state state
	store store.Store

	open   StoreOpener
	logger *slog.Logger

	// Tuning knobs, fixed in production and shortened in tests.
	initWaitTimeout  time.Duration // bounded wait for a concurrent init
	initPollInterval time.Duration
	retryLimit       int // retries after the first failed attempt
	retryBackoff     time.Duration
}

// New creates a Layer over the given opener. The store is not opened until
// Initialize or the first operation.
func New(open StoreOpener) *Layer {
	return &Layer{
		open:             open,
		logger:           slog.Default().With("component", "access"),
		initWaitTimeout:  5 * time.Second,
		initPollInterval: 50 * time.Millisecond,
		retryLimit:       3,
		retryBackoff:     250 * time.Millisecond,
	}
}

// Initialize opens and seeds the store. Idempotent: if the layer is already
// ready it returns immediately, and if another call is mid-initialization it
// waits (bounded) for that one instead of starting a second. Exceeding the
// bound returns ErrInitTimeout.
func (a *Layer) Initialize(ctx context.Context) error {
	deadline := time.Now().Add(a.initWaitTimeout)

	for {
		a.mu.Lock()
		switch a.state {
		case stateReady:
			a.mu.Unlock()
			return nil

		case stateUninitialized:
			a.state = stateInitializing
			a.mu.Unlock()
			return a.doInitialize(ctx)

		case stateInitializing:
			a.mu.Unlock()
			if time.Now().After(deadline) {
				return ErrInitTimeout
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.initPollInterval):
			}
		}
	}
}

// doInitialize runs one open+seed attempt. Any failure rolls the state back
// to uninitialized so the store is never flagged ready after a partial setup.
func (a *Layer) doInitialize(ctx context.Context) error {
	st, err := a.open()
	if err != nil {
		a.rollback()
		return fmt.Errorf("opening storage: %w", err)
	}

	if err := a.seed(ctx, st); err != nil {
		_ = st.Close()
		a.rollback()
		return fmt.Errorf("seeding storage: %w", err)
	}

	a.mu.Lock()
	a.store = st
	a.state = stateReady
	a.mu.Unlock()

	a.logger.Info("storage ready")
	return nil
}

func (a *Layer) rollback() {
	a.mu.Lock()
	a.state = stateUninitialized
	a.mu.Unlock()
}

// ensureReady initializes the layer if needed, retrying a failed
// initialization with fixed backoff. Every public operation goes through
// here, so callers get lazy init without asking for it.
func (a *Layer) ensureReady(ctx context.Context) error {
	var lastErr error

	for attempt := 0; attempt <= a.retryLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.retryBackoff):
			}
		}

		err := a.Initialize(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, ErrInitTimeout) {
			return err
		}

		a.logger.Warn("initialization attempt failed", "attempt", attempt+1, "error", err)
		lastErr = err
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrStorageUnavailable, a.retryLimit+1, lastErr)
}

// Close releases the backing store. The layer returns to uninitialized and
// may be initialized again afterwards.
func (a *Layer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		a.state = stateUninitialized
		return nil
	}

	err := a.store.Close()
	a.store = nil
	a.state = stateUninitialized
	return err
}
