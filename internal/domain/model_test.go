package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name      string
		requested map[Color]int
		completed map[Color]int
		want      OrderStatus
	}{
		{"nothing picked", map[Color]int{ColorWhite: 2}, map[Color]int{}, OrderPending},
		{"empty order untouched", map[Color]int{}, map[Color]int{}, OrderPending},
		{"partial", map[Color]int{ColorWhite: 2, ColorYellow: 1}, map[Color]int{ColorWhite: 2}, OrderInProgress},
		{"all met", map[Color]int{ColorWhite: 2, ColorYellow: 1}, map[Color]int{ColorWhite: 2, ColorYellow: 1}, OrderCompleted},
		{"overshoot still completed", map[Color]int{ColorWhite: 1}, map[Color]int{ColorWhite: 3}, OrderCompleted},
		{"unrequested color picked", map[Color]int{ColorWhite: 1}, map[Color]int{ColorBlack: 1}, OrderInProgress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.requested, tc.completed))
		})
	}
}

func TestDeriveStatus_IndependentOfOrder(t *testing.T) {
	requested := map[Color]int{ColorWhite: 1, ColorYellow: 1}

	a := map[Color]int{}
	a[ColorWhite]++
	a[ColorYellow]++

	b := map[Color]int{}
	b[ColorYellow]++
	b[ColorWhite]++

	assert.Equal(t, DeriveStatus(requested, a), DeriveStatus(requested, b))
	assert.Equal(t, OrderCompleted, DeriveStatus(requested, b))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" Yellow ")
	require.NoError(t, err)
	assert.Equal(t, ColorYellow, c)

	_, err = ParseColor("purple")
	assert.True(t, errors.Is(err, ErrInvalidColor))
}

func TestCreateOrderRequest_Counts(t *testing.T) {
	counts, err := CreateOrderRequest{WhiteBoxes: 2}.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[ColorWhite])
	assert.Equal(t, 0, counts[ColorBlack])

	_, err = CreateOrderRequest{YellowBoxes: -1}.Counts()
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestOrder_MarshalJSONIncludesFlatCounts(t *testing.T) {
	o := Order{
		ID:        "o-1",
		Requested: map[Color]int{ColorWhite: 2, ColorYellow: 1},
		Completed: map[Color]int{ColorWhite: 1},
		Status:    OrderInProgress,
	}
	b, err := json.Marshal(o)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "o-1", got["id"])
	assert.EqualValues(t, 2, got["white_boxes"])
	assert.EqualValues(t, 1, got["yellow_boxes"])
	assert.EqualValues(t, 1, got["completed_white"])
	assert.EqualValues(t, 0, got["completed_black"])
	assert.Equal(t, "in_progress", got["status"])
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := Order{Requested: map[Color]int{ColorWhite: 1}, Completed: map[Color]int{}}
	c := o.Clone()
	c.Completed[ColorWhite] = 5
	assert.Equal(t, 0, o.Completed[ColorWhite])
}
