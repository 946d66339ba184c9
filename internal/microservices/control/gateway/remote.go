package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/domain"
)

type Camera struct {
	IndexOrPath string `json:"index_or_path"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FPS         int    `json:"fps"`
}

// RobotConfig is forwarded untouched to the inference sidecar.
type RobotConfig struct {
	Port    string            `json:"port"`
	ID      string            `json:"id"`
	Cameras map[string]Camera `json:"cameras"`
}

// Remote drives a physical arm through an inference sidecar speaking JSON
// over HTTP. The sidecar owns the policy, cameras and motor bus.
type Remote struct {
	baseURL     string
	client      *http.Client
	robot       RobotConfig
	policies    map[domain.Color]Policy
	loadTimeout time.Duration
	pickGrace   time.Duration
	lg          *logger.Logger

	mu        sync.Mutex
	current   domain.Color
	connected bool
}

func NewRemote(baseURL string, robot RobotConfig, lg *logger.Logger) *Remote {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Remote{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{},
		robot:       robot,
		policies:    DefaultPolicies,
		loadTimeout: 2 * time.Minute,
		pickGrace:   30 * time.Second,
		lg:          lg,
	}
}

type loadRequest struct {
	Color  domain.Color `json:"color"`
	Policy Policy       `json:"policy"`
	Robot  RobotConfig  `json:"robot"`
}

type pickRequest struct {
	Color     domain.Color `json:"color"`
	Task      string       `json:"task"`
	DurationS float64      `json:"duration_s"`
	FPS       int          `json:"fps"`
}

func (r *Remote) LoadModel(ctx context.Context, color domain.Color) error {
	r.mu.Lock()
	loaded := r.current == color
	r.mu.Unlock()
	if loaded {
		return nil
	}

	p, ok := r.policies[color]
	if !ok {
		return fmt.Errorf("no policy registered for %q", color)
	}

	ctx, cancel := context.WithTimeout(ctx, r.loadTimeout)
	defer cancel()
	if err := r.post(ctx, "/load", loadRequest{Color: color, Policy: p, Robot: r.robot}, nil); err != nil {
		r.setCurrent("")
		return err
	}
	r.setCurrent(color)
	r.lg.Info("model_loaded", map[string]any{"color": color, "repo": p.Repo, "mode": ModeReal})
	return nil
}

func (r *Remote) ExecutePick(ctx context.Context, color domain.Color, duration time.Duration, frequencyHz int) (domain.PickResult, error) {
	p, ok := r.policies[color]
	if !ok {
		return domain.PickResult{}, fmt.Errorf("no policy registered for %q", color)
	}

	ctx, cancel := context.WithTimeout(ctx, duration+r.pickGrace)
	defer cancel()

	var res domain.PickResult
	req := pickRequest{Color: color, Task: p.Task, DurationS: duration.Seconds(), FPS: frequencyHz}
	if err := r.post(ctx, "/pick", req, &res); err != nil {
		return domain.PickResult{}, err
	}
	if res.Mode == "" {
		res.Mode = ModeReal
	}
	if res.Task == "" {
		res.Task = p.Task
	}
	return res, nil
}

func (r *Remote) Release(ctx context.Context) error {
	err := r.post(ctx, "/release", struct{}{}, nil)
	r.setCurrent("")
	return err
}

func (r *Remote) Mode() string { return ModeReal }

func (r *Remote) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

func (r *Remote) setCurrent(c domain.Color) {
	r.mu.Lock()
	r.current = c
	r.mu.Unlock()
}

func (r *Remote) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	r.mu.Lock()
	r.connected = err == nil
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("inference backend %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		var problem struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &problem) == nil && problem.Detail != "" {
			return fmt.Errorf("inference backend %s: %s", path, problem.Detail)
		}
		return fmt.Errorf("inference backend %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
