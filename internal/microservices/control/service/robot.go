package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/domain"
	"robot-pick-system/internal/microservices/control/gateway"
	"robot-pick-system/internal/microservices/control/repository"
)

type RobotServiceInterface interface {
	CreateOrder(ctx context.Context, requested map[domain.Color]int) domain.Order
	ListOrders() []domain.Order
	GetOrder(id string) (domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Pick(ctx context.Context, color domain.Color, orderID string) (domain.PickResult, error)
	Reset(ctx context.Context) (domain.Snapshot, error)
	Snapshot() domain.Snapshot
	Mode() string
	Subscribe(obs Observer)
	Unsubscribe(id string)
}

// RobotService owns the single robot. At most one pick is in flight; a pick
// is admitted from idle or error, and every transition is published before
// the next step runs.
type RobotService struct {
	mu      sync.Mutex
	session domain.RobotSession

	pubMu   sync.Mutex
	version uint64
	last    domain.Snapshot

	orders  repository.OrderStoreInterface
	journal repository.JournalInterface
	gw      gateway.Gateway
	bc      *Broadcaster
	lg      *logger.Logger

	PickDuration   time.Duration
	PickFPS        int
	JournalTimeout time.Duration

	now func() time.Time
}

func NewRobotService(repo *repository.Repository, gw gateway.Gateway, bc *Broadcaster, lg *logger.Logger, pickDuration time.Duration, pickFPS int) *RobotService {
	if lg == nil {
		lg = logger.Nop()
	}
	s := &RobotService{
		session:        domain.RobotSession{Status: domain.RobotIdle},
		orders:         repo.Orders,
		journal:        repo.Journal,
		gw:             gw,
		bc:             bc,
		lg:             lg,
		PickDuration:   pickDuration,
		PickFPS:        pickFPS,
		JournalTimeout: 2 * time.Second,
		now:            func() time.Time { return time.Now().UTC() },
	}
	// seed so the first observer never sees an empty snapshot
	s.broadcast()
	return s
}

func (s *RobotService) Mode() string { return s.gw.Mode() }

// Snapshot returns the most recently published state, so a version always
// names exactly one state.
func (s *RobotService) Snapshot() domain.Snapshot {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	return s.last
}

func (s *RobotService) build() domain.Snapshot {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	return domain.Snapshot{
		RobotStatus:    sess.Status,
		CurrentModel:   sess.LoadedModel,
		Orders:         s.orders.List(),
		CurrentOrderID: sess.CurrentOrderID,
		RobotConnected: s.gw.Connected(),
		Mode:           s.gw.Mode(),
		LastError:      sess.LastError,
		PicksCompleted: sess.PicksCompleted,
		PicksFailed:    sess.PicksFailed,
		Timestamp:      s.now(),
	}
}

// broadcast serializes snapshot construction with publication so the last
// snapshot the broadcaster holds is always the newest state.
func (s *RobotService) broadcast() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.version++
	snap := s.build()
	snap.Version = s.version
	s.last = snap
	s.bc.Publish(snap)
}

func (s *RobotService) Subscribe(obs Observer) { s.bc.Register(obs) }
func (s *RobotService) Unsubscribe(id string)  { s.bc.Unregister(id) }

func (s *RobotService) CreateOrder(ctx context.Context, requested map[domain.Color]int) domain.Order {
	o := s.orders.Create(requested)
	s.lg.Info("order_created", map[string]any{"order_id": o.ID, "requested": o.Requested})
	s.broadcast()
	s.journalWrite(ctx, "order_created", func(ctx context.Context) error { return s.journal.OrderCreated(ctx, o) })
	return o
}

func (s *RobotService) ListOrders() []domain.Order { return s.orders.List() }

func (s *RobotService) GetOrder(id string) (domain.Order, error) { return s.orders.Get(id) }

func (s *RobotService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.orders.Remove(id); err != nil {
		return err
	}
	s.lg.Info("order_deleted", map[string]any{"order_id": id})
	s.broadcast()
	s.journalWrite(ctx, "order_deleted", func(ctx context.Context) error { return s.journal.OrderRemoved(ctx, id) })
	return nil
}

// Pick runs one pick end to end. It returns domain.ErrRobotBusy without
// touching any state when another pick is in flight. Once admitted the pick
// is detached from ctx cancellation and runs until the gateway returns.
func (s *RobotService) Pick(ctx context.Context, color domain.Color, orderID string) (domain.PickResult, error) {
	if err := s.admit(orderID); err != nil {
		s.lg.Warn("pick_rejected", map[string]any{"color": color, "order_id": orderID, "reason": err.Error()})
		return domain.PickResult{}, err
	}
	s.lg.Info("pick_admitted", map[string]any{"color": color, "order_id": orderID})
	s.broadcast()

	ctx = context.WithoutCancel(ctx)

	if err := s.gw.LoadModel(ctx, color); err != nil {
		err = fmt.Errorf("%w: %s: %w", domain.ErrModelLoadFailed, color, err)
		return s.fail(ctx, domain.PickResult{Color: color, OrderID: orderID}, err)
	}
	s.mu.Lock()
	s.session.LoadedModel = string(color)
	s.session.Status = domain.RobotPicking
	s.mu.Unlock()
	s.lg.Info("model_ready", map[string]any{"color": color})
	s.broadcast()

	result, err := s.gw.ExecutePick(ctx, color, s.PickDuration, s.PickFPS)
	result.Color = color
	result.OrderID = orderID
	if err == nil && !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "gateway reported failure"
		}
		err = errors.New(msg)
	}
	if err != nil {
		return s.fail(ctx, result, fmt.Errorf("%w: %w", domain.ErrPickExecutionFailed, err))
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = s.now()
	}

	if orderID != "" {
		s.recordCompletion(ctx, orderID, color)
	}

	s.mu.Lock()
	s.session.Status = domain.RobotIdle
	s.session.CurrentOrderID = ""
	s.session.PicksCompleted++
	s.mu.Unlock()
	s.lg.Info("pick_completed", map[string]any{"color": color, "order_id": orderID, "mode": result.Mode})
	s.broadcast()

	s.journalWrite(ctx, "pick_finished", func(ctx context.Context) error { return s.journal.PickFinished(ctx, result) })
	return result, nil
}

func (s *RobotService) admit(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.session.Status {
	case domain.RobotIdle, domain.RobotError:
	default:
		return domain.ErrRobotBusy
	}
	s.session.Status = domain.RobotLoadingModel
	s.session.CurrentOrderID = orderID
	s.session.LastError = ""
	return nil
}

// recordCompletion credits the order; an id that no longer resolves leaves
// the pick unassociated rather than failing it.
func (s *RobotService) recordCompletion(ctx context.Context, orderID string, color domain.Color) {
	o, err := s.orders.RecordCompletion(orderID, color)
	if err != nil {
		s.lg.Warn("pick_unassociated", map[string]any{"order_id": orderID, "color": color, "reason": err.Error()})
		return
	}
	s.lg.Info("order_progressed", map[string]any{"order_id": o.ID, "color": color, "completed": o.Completed, "status": o.Status})
	s.journalWrite(ctx, "order_progressed", func(ctx context.Context) error { return s.journal.OrderProgressed(ctx, o) })
}

func (s *RobotService) fail(ctx context.Context, result domain.PickResult, err error) (domain.PickResult, error) {
	result.Success = false
	if result.Error == "" {
		result.Error = err.Error()
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = s.now()
	}

	s.mu.Lock()
	s.session.Status = domain.RobotError
	s.session.LastError = err.Error()
	s.session.PicksFailed++
	if errors.Is(err, domain.ErrModelLoadFailed) {
		s.session.LoadedModel = ""
	}
	s.mu.Unlock()
	s.lg.Error("pick_failed", err, map[string]any{"color": result.Color, "order_id": result.OrderID})
	s.broadcast()

	s.journalWrite(ctx, "pick_finished", func(ctx context.Context) error { return s.journal.PickFinished(ctx, result) })
	return result, err
}

// Reset acknowledges a failure and returns the robot to idle.
func (s *RobotService) Reset(context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	switch s.session.Status {
	case domain.RobotLoadingModel, domain.RobotPicking:
		s.mu.Unlock()
		return s.Snapshot(), domain.ErrRobotBusy
	case domain.RobotIdle:
		s.mu.Unlock()
		return s.Snapshot(), nil
	}
	s.session.Status = domain.RobotIdle
	s.session.CurrentOrderID = ""
	s.session.LastError = ""
	s.mu.Unlock()

	s.lg.Info("robot_reset", nil)
	s.broadcast()
	return s.Snapshot(), nil
}

// Shutdown releases the backend and stops all observer deliveries.
func (s *RobotService) Shutdown(ctx context.Context) error {
	err := s.gw.Release(ctx)
	if err != nil {
		s.lg.Error("release_failed", err, nil)
	}
	s.bc.Close()
	return err
}

func (s *RobotService) journalWrite(ctx context.Context, action string, write func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.JournalTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		s.lg.Error("journal_write_failed", err, map[string]any{"entry": action})
	}
}
