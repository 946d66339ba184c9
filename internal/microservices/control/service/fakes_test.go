package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"robot-pick-system/internal/domain"
	"robot-pick-system/internal/microservices/control/gateway"
)

type fakeGateway struct {
	mu         sync.Mutex
	loadErr    error
	pickErr    error
	pickResult *domain.PickResult
	hold       chan struct{} // when set, ExecutePick waits for it to close
	started    chan struct{}
	loads      int
	picks      int
	pickCtxErr error
	released   bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{started: make(chan struct{}, 8)}
}

func (f *fakeGateway) LoadModel(_ context.Context, _ domain.Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.loadErr
}

func (f *fakeGateway) ExecutePick(ctx context.Context, color domain.Color, _ time.Duration, _ int) (domain.PickResult, error) {
	f.mu.Lock()
	f.picks++
	hold := f.hold
	f.mu.Unlock()

	f.started <- struct{}{}
	if hold != nil {
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pickCtxErr = ctx.Err()
	if f.pickErr != nil {
		return domain.PickResult{}, f.pickErr
	}
	if f.pickResult != nil {
		return *f.pickResult, nil
	}
	return domain.PickResult{Success: true, Color: color, Mode: gateway.ModeSimulation}, nil
}

func (f *fakeGateway) Release(context.Context) error {
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) Mode() string    { return gateway.ModeSimulation }
func (f *fakeGateway) Connected() bool { return false }

func (f *fakeGateway) set(fn func(f *fakeGateway)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

type recordingObserver struct {
	id  string
	err error

	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (o *recordingObserver) ID() string { return o.id }

func (o *recordingObserver) Send(_ context.Context, snap domain.Snapshot) error {
	if o.err != nil {
		return o.err
	}
	o.mu.Lock()
	o.snaps = append(o.snaps, snap)
	o.mu.Unlock()
	return nil
}

func (o *recordingObserver) received() []domain.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Snapshot(nil), o.snaps...)
}

func (o *recordingObserver) statuses() []domain.RobotStatus {
	var out []domain.RobotStatus
	for _, s := range o.received() {
		out = append(out, s.RobotStatus)
	}
	return out
}

// blockingObserver never returns until its context expires.
type blockingObserver struct{ id string }

func (o *blockingObserver) ID() string { return o.id }

func (o *blockingObserver) Send(ctx context.Context, _ domain.Snapshot) error {
	<-ctx.Done()
	return ctx.Err()
}

type journalEntry struct {
	kind string
	id   string
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []journalEntry
	err     error
}

func (j *fakeJournal) add(kind, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{kind: kind, id: id})
	return j.err
}

func (j *fakeJournal) OrderCreated(_ context.Context, o domain.Order) error {
	return j.add("created", o.ID)
}
func (j *fakeJournal) OrderProgressed(_ context.Context, o domain.Order) error {
	return j.add("progressed", o.ID)
}
func (j *fakeJournal) OrderRemoved(_ context.Context, id string) error { return j.add("removed", id) }
func (j *fakeJournal) PickFinished(_ context.Context, r domain.PickResult) error {
	return j.add("pick", string(r.Color))
}

func (j *fakeJournal) kinds() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []string
	for _, e := range j.entries {
		out = append(out, e.kind)
	}
	return out
}

var errGripper = errors.New("gripper jammed")
