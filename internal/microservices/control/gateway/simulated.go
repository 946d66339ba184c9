package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/domain"
)

// Simulated stands in for the arm when no hardware is attached: loading is
// bookkeeping and a pick waits a fixed time before reporting success.
type Simulated struct {
	mu       sync.Mutex
	current  domain.Color
	policies map[domain.Color]Policy
	pickTime time.Duration
	lg       *logger.Logger
	now      func() time.Time
}

func NewSimulated(pickTime time.Duration, lg *logger.Logger) *Simulated {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Simulated{
		policies: DefaultPolicies,
		pickTime: pickTime,
		lg:       lg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Simulated) LoadModel(_ context.Context, color domain.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == color {
		s.lg.Debug("model_already_loaded", map[string]any{"color": color})
		return nil
	}
	p, ok := s.policies[color]
	if !ok {
		s.current = ""
		return fmt.Errorf("no policy registered for %q", color)
	}
	s.current = color
	s.lg.Info("model_loaded", map[string]any{"color": color, "repo": p.Repo, "mode": ModeSimulation})
	return nil
}

func (s *Simulated) ExecutePick(ctx context.Context, color domain.Color, duration time.Duration, frequencyHz int) (domain.PickResult, error) {
	if err := s.LoadModel(ctx, color); err != nil {
		return domain.PickResult{}, err
	}
	task := s.policies[color].Task

	wait := s.pickTime
	if duration > 0 && duration < wait {
		wait = duration
	}
	s.lg.Info("pick_started", map[string]any{"color": color, "task": task, "mode": ModeSimulation, "fps": frequencyHz})

	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return domain.PickResult{}, ctx.Err()
	}

	return domain.PickResult{
		Success:   true,
		Color:     color,
		Task:      task,
		Mode:      ModeSimulation,
		Duration:  wait.Seconds(),
		Timestamp: s.now(),
	}, nil
}

func (s *Simulated) Release(context.Context) error {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	s.lg.Info("resources_released", map[string]any{"mode": ModeSimulation})
	return nil
}

func (s *Simulated) Mode() string    { return ModeSimulation }
func (s *Simulated) Connected() bool { return false }
