package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/jewel-duel/internal/game/board"
)

func TestOpponent_WaitsUntilActive(t *testing.T) {
	b := board.New(board.PlayerConfig("p2", 8, 8, 100), nil)
	o := NewOpponent(PlayerTwo, b, 8, 8, 1, nil)

	for i := 0; i < 10; i++ {
		o.Update(float64(i), 1, false)
	}
	assert.True(t, o.Timer().IsGoing())
	assert.Equal(t, 0, o.Timer().Pulses())
	assert.Equal(t, 0, o.Moves())
}

func TestOpponent_MovesOnPulse(t *testing.T) {
	layout, err := seededGenerator(8).Generate(8, 8)
	require.NoError(t, err)

	b := board.New(board.PlayerConfig("p2", 8, 8, 100), nil)
	require.NoError(t, b.Generate(layout, true))
	b.Start()

	o := NewOpponent(PlayerTwo, b, 8, 8, 2, nil)
	o.Update(0, 1, true)
	assert.Equal(t, 0, o.Moves())

	o.Update(1, 1, true)
	assert.Equal(t, 1, o.Moves())
	assert.True(t, b.ReadyToRefill())
	assert.Equal(t, 1, b.Swaps())

	// 等待补充期间交换被拒绝
	o.Update(2, 2, true)
	assert.Equal(t, 1, o.Moves())

	o.Reset()
	assert.Equal(t, 0, o.Moves())
	assert.False(t, o.Timer().IsGoing())
}

func TestOpponent_NoBoard(t *testing.T) {
	o := NewOpponent(PlayerTwo, nil, 8, 8, 0.5, nil)
	assert.NotPanics(t, func() {
		o.Update(0, 0.5, true)
		o.Update(0.5, 0.5, true)
	})
	assert.Equal(t, 0, o.Moves())
	assert.Equal(t, 2, o.Timer().Pulses())
}
