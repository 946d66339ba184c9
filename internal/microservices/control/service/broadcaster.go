package service

import (
	"context"
	"sync"
	"time"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/domain"
)

// Observer is one live status consumer, typically a WebSocket connection.
// Send must honor ctx: the broadcaster gives every delivery a deadline.
type Observer interface {
	ID() string
	Send(ctx context.Context, snap domain.Snapshot) error
}

// EvictReason says why the broadcaster dropped an observer.
type EvictReason string

const (
	EvictSlow       EvictReason = "too slow"
	EvictSendFailed EvictReason = "send failed"
	EvictReplaced   EvictReason = "replaced"
	EvictShutdown   EvictReason = "shutting down"
)

// Evictable observers are told when they are dropped so they can close the
// connection behind them. Evict runs on its own goroutine.
type Evictable interface {
	Evict(reason EvictReason)
}

type subscriber struct {
	obs    Observer
	ch     chan domain.Snapshot
	done   chan struct{}
	sticky bool // sinks survive delivery failures
}

// Broadcaster fans snapshots out to observers. Publish only enqueues; each
// observer is drained by its own goroutine, so a slow or dead observer
// never holds up the robot or the other observers.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[string]*subscriber
	last    domain.Snapshot
	hasLast bool
	closed  bool
	wg      sync.WaitGroup

	queueSize   int
	sendTimeout time.Duration
	lg          *logger.Logger
}

func NewBroadcaster(queueSize int, sendTimeout time.Duration, lg *logger.Logger) *Broadcaster {
	if queueSize <= 0 {
		queueSize = 16
	}
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Second
	}
	if lg == nil {
		lg = logger.Nop()
	}
	return &Broadcaster{
		subs:        make(map[string]*subscriber),
		queueSize:   queueSize,
		sendTimeout: sendTimeout,
		lg:          lg,
	}
}

// Publish records snap as the latest state and queues it for everyone.
// An observer whose queue is full is unregistered.
func (b *Broadcaster) Publish(snap domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last = snap
	b.hasLast = true

	for id, sub := range b.subs {
		select {
		case sub.ch <- snap:
		default:
			if sub.sticky {
				b.lg.Warn("sink_snapshot_dropped", map[string]any{"sink": id, "version": snap.Version})
				continue
			}
			b.evictLocked(id, EvictSlow)
			b.lg.Debug("observer_dropped", map[string]any{"observer": id, "reason": "queue_full"})
		}
	}
}

// Register adds obs and immediately queues the latest snapshot for it.
// Registering an id that is already present replaces the old observer.
func (b *Broadcaster) Register(obs Observer) {
	b.add(obs, false)
}

// AttachSink registers a durable target that is never unregistered on error.
func (b *Broadcaster) AttachSink(sink Observer) {
	b.add(sink, true)
}

func (b *Broadcaster) add(obs Observer, sticky bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	id := obs.ID()
	if _, ok := b.subs[id]; ok {
		b.evictLocked(id, EvictReplaced)
	}
	sub := &subscriber{
		obs:    obs,
		ch:     make(chan domain.Snapshot, b.queueSize),
		done:   make(chan struct{}),
		sticky: sticky,
	}
	b.subs[id] = sub
	if b.hasLast {
		sub.ch <- b.last
	}

	b.wg.Add(1)
	go b.pump(id, sub)
	b.lg.Debug("observer_registered", map[string]any{"observer": id, "sink": sticky})
}

func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(id)
}

func (b *Broadcaster) removeLocked(id string) *subscriber {
	sub, ok := b.subs[id]
	if !ok {
		return nil
	}
	delete(b.subs, id)
	close(sub.done)
	return sub
}

func (b *Broadcaster) evictLocked(id string, reason EvictReason) {
	sub := b.removeLocked(id)
	if sub == nil {
		return
	}
	e, ok := sub.obs.(Evictable)
	if !ok {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		e.Evict(reason)
	}()
}

func (b *Broadcaster) pump(id string, sub *subscriber) {
	defer b.wg.Done()
	for {
		select {
		case <-sub.done:
			return
		case snap := <-sub.ch:
			ctx, cancel := context.WithTimeout(context.Background(), b.sendTimeout)
			err := sub.obs.Send(ctx, snap)
			cancel()
			if err == nil {
				continue
			}
			if sub.sticky {
				b.lg.Error("sink_delivery_failed", err, map[string]any{"sink": id, "version": snap.Version})
				continue
			}
			b.lg.Debug("observer_dropped", map[string]any{"observer": id, "reason": err.Error()})
			b.mu.Lock()
			if b.subs[id] == sub {
				b.evictLocked(id, EvictSendFailed)
			}
			b.mu.Unlock()
			return
		}
	}
}

// Last returns the most recently published snapshot.
func (b *Broadcaster) Last() (domain.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// Observers counts registered observers, sinks excluded.
func (b *Broadcaster) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, sub := range b.subs {
		if !sub.sticky {
			n++
		}
	}
	return n
}

// Close evicts everyone and waits for in-flight deliveries to end.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id := range b.subs {
		b.evictLocked(id, EvictShutdown)
	}
	b.mu.Unlock()
	b.wg.Wait()
}
