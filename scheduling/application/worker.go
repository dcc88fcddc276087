package application

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// LockFunc acquires a named lock for ttl and reports whether it was won.
// Backed by Valkey SET NX EX in multi-instance deployments; nil means no
// external lock is available and only the in-process guard applies.
type LockFunc func(ctx context.Context, key string, ttl time.Duration) bool

const runLockKey = "lock:publisher:run"

// PublishWorker drives the publisher on a fixed period. RunOnce is safe under
// overlapping invocations; the lock only avoids wasted duplicate runs across
// instances, it is not what guarantees exactly-once per cast.
type PublishWorker struct {
	publisher   *PublisherService
	interval    time.Duration
	acquireLock LockFunc
	running     int32
	cancel      context.CancelFunc
}

func NewPublishWorker(publisher *PublisherService, interval time.Duration, lockFunc LockFunc) *PublishWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PublishWorker{
		publisher:   publisher,
		interval:    interval,
		acquireLock: lockFunc,
	}
}

// Start launches the periodic loop in the background.
func (w *PublishWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	logrus.Infof("[WORKER] Publish worker started, interval %s", w.interval)
	go w.run(ctx)
}

// Stop cancels the loop started by Start. The run in flight, if any, finishes
// its current batch.
func (w *PublishWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *PublishWorker) run(ctx context.Context) {
	// First pass immediately so a restart does not delay overdue casts by a
	// full interval.
	w.Tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("[WORKER] Publish worker stopped")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick performs one guarded publisher run. Overlapping ticks in the same
// process are skipped; across processes the external lock decides.
func (w *PublishWorker) Tick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		logrus.Debug("[WORKER] Previous run still in progress, skipping tick")
		return
	}
	defer atomic.StoreInt32(&w.running, 0)

	if w.acquireLock != nil && !w.acquireLock(ctx, runLockKey, w.lockTTL()) {
		logrus.Debug("[WORKER] Run lock held by another instance, skipping tick")
		return
	}

	if _, err := w.publisher.RunOnce(ctx); err != nil {
		logrus.WithError(err).Error("[WORKER] Publisher run failed")
	}
}

func (w *PublishWorker) lockTTL() time.Duration {
	ttl := w.interval - 5*time.Second
	if ttl < 10*time.Second {
		ttl = w.interval
	}
	return ttl
}
