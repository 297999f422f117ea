package watch

import (
	"context"
	"sync"
	"time"
)

// DebounceDelay is how long file events must stay quiet before a rebuild.
const DebounceDelay = 300 * time.Millisecond

// Rebuilder serialises rebuild requests. At most one build runs and at most
// one more is pending; requests made while one is pending are merged into it.
type Rebuilder struct {
	build func(ctx context.Context, full bool)
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	full    bool
	wake    chan struct{}
}

// NewRebuilder returns a Rebuilder calling build for each rebuild.
func NewRebuilder(delay time.Duration, build func(ctx context.Context, full bool)) *Rebuilder {
	return &Rebuilder{build: build, delay: delay, wake: make(chan struct{}, 1)}
}

// Trigger requests an incremental rebuild once delay has passed without
// another Trigger.
func (r *Rebuilder) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, func() { r.Request(false) })
}

// Request queues a rebuild without delay. A full request upgrades the
// pending rebuild to a full one.
func (r *Rebuilder) Request(full bool) {
	r.mu.Lock()
	r.pending = true
	r.full = r.full || full
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run executes queued rebuilds until ctx is done.
func (r *Rebuilder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.timer != nil {
				r.timer.Stop()
			}
			r.mu.Unlock()
			return
		case <-r.wake:
			r.mu.Lock()
			if !r.pending {
				r.mu.Unlock()
				continue
			}
			full := r.full
			r.pending, r.full = false, false
			r.mu.Unlock()

			r.build(ctx, full)
		}
	}
}
