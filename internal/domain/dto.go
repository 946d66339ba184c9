package domain

import "fmt"

type CreateOrderRequest struct {
	WhiteBoxes  int `json:"white_boxes"`
	YellowBoxes int `json:"yellow_boxes"`
	BlackBoxes  int `json:"black_boxes"`
}

func (r CreateOrderRequest) Counts() (map[Color]int, error) {
	counts := map[Color]int{
		ColorWhite:  r.WhiteBoxes,
		ColorYellow: r.YellowBoxes,
		ColorBlack:  r.BlackBoxes,
	}
	for c, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("%w: %s count must be >= 0, got %d", ErrInvalidOrder, c, n)
		}
	}
	return counts, nil
}

type PickRequest struct {
	Color   string `json:"color"`
	OrderID string `json:"order_id,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}
