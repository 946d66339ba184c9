// Package gateway adapts the external inference/robot-control backend.
// The orchestrator only sees the Gateway interface: it loads the policy for
// a color, runs one pick and releases hardware at shutdown.
package gateway

import (
	"context"
	"time"

	"robot-pick-system/internal/domain"
)

const (
	ModeSimulation = "simulation"
	ModeReal       = "real"
)

type Gateway interface {
	// LoadModel makes color's policy resident. No-op when it already is.
	LoadModel(ctx context.Context, color domain.Color) error
	// ExecutePick runs for up to duration at frequencyHz control steps.
	ExecutePick(ctx context.Context, color domain.Color, duration time.Duration, frequencyHz int) (domain.PickResult, error)
	Release(ctx context.Context) error
	Mode() string
	Connected() bool
}

type Policy struct {
	Repo string `json:"repo"`
	Task string `json:"task"`
}

// DefaultPolicies maps each box color to its trained pick policy.
var DefaultPolicies = map[domain.Color]Policy{
	domain.ColorWhite:  {Repo: "JaspervanLeuven/pick_cube_place_grey_tray", Task: "Pick the white cube"},
	domain.ColorYellow: {Repo: "JaspervanLeuven/pick_yellow_box_place_grey_tray_day", Task: "Pick the yellow cube"},
	domain.ColorBlack:  {Repo: "JaspervanLeuven/pick_cube_place_grey_tray", Task: "Pick the black cube"},
}
