package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-pick-system/internal/domain"
)

func TestSimulated_LoadModel(t *testing.T) {
	g := NewSimulated(time.Millisecond, nil)
	ctx := context.Background()

	require.NoError(t, g.LoadModel(ctx, domain.ColorWhite))
	require.NoError(t, g.LoadModel(ctx, domain.ColorWhite), "reloading the resident model is a no-op")
	assert.Error(t, g.LoadModel(ctx, domain.Color("purple")))
}

func TestSimulated_ExecutePick(t *testing.T) {
	g := NewSimulated(5*time.Millisecond, nil)

	res, err := g.ExecutePick(context.Background(), domain.ColorYellow, time.Second, 30)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.ColorYellow, res.Color)
	assert.Equal(t, "Pick the yellow cube", res.Task)
	assert.Equal(t, ModeSimulation, res.Mode)
	assert.False(t, res.Timestamp.IsZero())
}

func TestSimulated_PickBoundedByDuration(t *testing.T) {
	g := NewSimulated(time.Hour, nil)

	start := time.Now()
	res, err := g.ExecutePick(context.Background(), domain.ColorBlack, 10*time.Millisecond, 30)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSimulated_ModeAndRelease(t *testing.T) {
	g := NewSimulated(time.Millisecond, nil)
	assert.Equal(t, ModeSimulation, g.Mode())
	assert.False(t, g.Connected())
	require.NoError(t, g.LoadModel(context.Background(), domain.ColorWhite))
	require.NoError(t, g.Release(context.Background()))
	assert.Equal(t, domain.Color(""), g.current)
}
