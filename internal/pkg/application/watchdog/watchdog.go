package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
)

// SweepFunc is called once per interval with the time of the tick.
type SweepFunc func(ctx context.Context, now time.Time)

type Watchdog interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	Running() bool
}

type watchdogImpl struct {
	mu       sync.Mutex
	interval time.Duration
	sweep    SweepFunc
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(interval time.Duration, sweep SweepFunc) Watchdog {
	return &watchdogImpl{
		interval: interval,
		sweep:    sweep,
	}
}

// Start launches the sweep loop. Calling Start on a running watchdog does nothing.
func (w *watchdogImpl) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go w.run(ctx, w.done)
}

// Stop cancels the sweep loop and waits for it to exit. Stop is idempotent.
func (w *watchdogImpl) Stop(ctx context.Context) {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (w *watchdogImpl) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

func (w *watchdogImpl) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	log := logging.GetFromContext(ctx)
	log.Debug().Msgf("watchdog started, sweeping every %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("watchdog stopped")
			return
		case now := <-ticker.C:
			w.sweep(ctx, now)
		}
	}
}

// IsExpired reports whether lastSeen is older than timeout at now.
func IsExpired(lastSeen, now time.Time, timeout time.Duration) bool {
	return now.Sub(lastSeen) > timeout
}
