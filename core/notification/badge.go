package notification

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/session"
)

// DefaultPollInterval is used when the configured interval is not positive.
const DefaultPollInterval = 30 * time.Second

// Badge keeps the unread count of the current user fresh by polling.
// Polling runs between Start and Stop; counts that arrive after Stop are discarded.
type Badge struct {
	repo     Repository
	sess     session.Provider
	logger   core.Logger
	interval time.Duration

	mu       sync.Mutex
	count    int
	gen      uint64
	cancel   context.CancelFunc
	onChange func(int)
}

func NewBadge(repo Repository, sess session.Provider, logger core.Logger, interval time.Duration) *Badge {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Badge{repo: repo, sess: sess, logger: logger, interval: interval}
}

// OnChange registers fn to be called with every new count.
func (b *Badge) OnChange(fn func(count int)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *Badge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Running reports whether the poller is started.
func (b *Badge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

// Start polls immediately, then on every interval, until Stop or ctx is done.
// Starting a running badge is a no-op.
func (b *Badge) Start(ctx context.Context) {
	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	go b.loop(ctx, gen)
}

// Stop ends polling. It does not wait for a request in flight; its result is dropped.
func (b *Badge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stop()
}

// halt stops the poller of generation gen, unless it was already replaced.
func (b *Badge) halt(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen == gen {
		b.stop()
	}
}

func (b *Badge) stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	b.cancel = nil
	b.gen++
}

// Set overrides the count, e.g. after the feed marked everything as read.
func (b *Badge) Set(count int) {
	b.mu.Lock()
	fn := b.apply(count)
	b.mu.Unlock()
	if fn != nil {
		fn(count)
	}
}

// Refresh fetches the count once.
func (b *Badge) Refresh(ctx context.Context) error {
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()
	return b.poll(ctx, gen)
}

func (b *Badge) loop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if err := b.poll(ctx, gen); err != nil && core.IsAuthError(err) {
			b.halt(gen)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Badge) poll(ctx context.Context, gen uint64) error {
	count, err := b.repo.UnreadNotificationCount(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return session.Surface(b.sess, b.logger, "polling unread notifications", err)
	}

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return nil
	}
	fn := b.apply(count)
	b.mu.Unlock()
	if fn != nil {
		fn(count)
	}
	return nil
}

// apply stores count and returns the listener to notify, if the count changed.
func (b *Badge) apply(count int) func(int) {
	if b.count == count {
		return nil
	}
	b.count = count
	return b.onChange
}
