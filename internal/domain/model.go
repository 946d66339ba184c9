package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Color string

const (
	ColorWhite  Color = "white"
	ColorYellow Color = "yellow"
	ColorBlack  Color = "black"
)

// Colors lists every box color the robot can be asked to pick.
var Colors = []Color{ColorWhite, ColorYellow, ColorBlack}

func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Colors {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
)

type RobotStatus string

const (
	RobotIdle         RobotStatus = "idle"
	RobotLoadingModel RobotStatus = "loading_model"
	RobotPicking      RobotStatus = "picking"
	RobotError        RobotStatus = "error"
)

type Order struct {
	ID        string        `json:"id"`
	Requested map[Color]int `json:"requested_counts"`
	Completed map[Color]int `json:"completed_counts"`
	Status    OrderStatus   `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// DeriveStatus computes an order status from its counters alone.
// Nothing recorded yet is pending, every color satisfied is completed,
// anything in between is in progress.
func DeriveStatus(requested, completed map[Color]int) OrderStatus {
	started, done := false, true
	for _, c := range Colors {
		if completed[c] > 0 {
			started = true
		}
		if completed[c] < requested[c] {
			done = false
		}
	}
	switch {
	case !started:
		return OrderPending
	case done:
		return OrderCompleted
	default:
		return OrderInProgress
	}
}

// Clone returns a deep copy so store internals never leak to callers.
func (o Order) Clone() Order {
	out := o
	out.Requested = make(map[Color]int, len(o.Requested))
	out.Completed = make(map[Color]int, len(o.Completed))
	for k, v := range o.Requested {
		out.Requested[k] = v
	}
	for k, v := range o.Completed {
		out.Completed[k] = v
	}
	return out
}

// MarshalJSON adds the flat per-color fields the web client reads.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		WhiteBoxes      int `json:"white_boxes"`
		YellowBoxes     int `json:"yellow_boxes"`
		BlackBoxes      int `json:"black_boxes"`
		CompletedWhite  int `json:"completed_white"`
		CompletedYellow int `json:"completed_yellow"`
		CompletedBlack  int `json:"completed_black"`
	}{
		plain:           plain(o),
		WhiteBoxes:      o.Requested[ColorWhite],
		YellowBoxes:     o.Requested[ColorYellow],
		BlackBoxes:      o.Requested[ColorBlack],
		CompletedWhite:  o.Completed[ColorWhite],
		CompletedYellow: o.Completed[ColorYellow],
		CompletedBlack:  o.Completed[ColorBlack],
	})
}

type RobotSession struct {
	Status         RobotStatus `json:"status"`
	LoadedModel    string      `json:"loaded_model"`
	CurrentOrderID string      `json:"current_order_id"`
	LastError      string      `json:"last_error,omitempty"`
	PicksCompleted int         `json:"picks_completed"`
	PicksFailed    int         `json:"picks_failed"`
}

// Snapshot is the aggregate view pushed to observers and returned by /status.
type Snapshot struct {
	Version        uint64      `json:"version"`
	RobotStatus    RobotStatus `json:"robot_status"`
	CurrentModel   string      `json:"current_model"`
	Orders         []Order     `json:"orders"`
	CurrentOrderID string      `json:"current_order_id"`
	RobotConnected bool        `json:"robot_connected"`
	Mode           string      `json:"mode"`
	LastError      string      `json:"last_error,omitempty"`
	PicksCompleted int         `json:"picks_completed"`
	PicksFailed    int         `json:"picks_failed"`
	Timestamp      time.Time   `json:"timestamp"`
}

type PickResult struct {
	Success         bool      `json:"success"`
	Color           Color     `json:"color"`
	Task            string    `json:"task,omitempty"`
	Mode            string    `json:"mode,omitempty"`
	ActionsExecuted int       `json:"actions_executed,omitempty"`
	Duration        float64   `json:"duration,omitempty"`
	Error           string    `json:"error,omitempty"`
	OrderID         string    `json:"order_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
