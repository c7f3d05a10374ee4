package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/jewel-duel/internal/game/entity"
)

// newStartedBoard 写入手工布局并发出开局信号
func newStartedBoard(t *testing.T) *Board {
	t.Helper()
	b := New(PlayerConfig("p1", 8, 8, 100), nil)
	require.NoError(t, b.Generate(legacyLayout, true))
	b.Start()
	return b
}

func TestPlayerConfig(t *testing.T) {
	p1 := PlayerConfig("p1", 8, 8, 0)
	p2 := PlayerConfig("p2", 8, 8, 50)

	assert.Equal(t, entity.Coords{X: 10, Y: 30}, p1.Position)
	assert.Equal(t, entity.Coords{X: 810, Y: 30}, p2.Position)
	assert.Equal(t, DefaultSize, p2.Size)
	assert.Equal(t, DefaultHealth, p1.Health)
	assert.Equal(t, 50.0, p2.Health)
}

func TestBoard_AttemptSwap(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     bool
	}{
		{name: "边缘交换", from: 13, to: 5, want: true},
		{name: "边缘交换反向", from: 5, to: 13, want: true},
		{name: "纵向交换", from: 42, to: 50, want: true},
		{name: "纵向交换反向", from: 50, to: 42, want: true},
		{name: "第一行纵向交换", from: 12, to: 4, want: true},
		{name: "横向交换", from: 16, to: 17, want: true},
		{name: "横向交换反向", from: 17, to: 16, want: true},
		{name: "对角非法", from: 54, to: 45, want: false},
		{name: "越界非法", from: 65, to: 4, want: false},
		{name: "不相邻横向", from: 42, to: 44, want: false},
		{name: "不相邻纵向", from: 14, to: 54, want: false},
		{name: "同一格", from: 9, to: 9, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newStartedBoard(t)
			assert.Equal(t, tt.want, b.AttemptSwap(tt.from, tt.to))
			assert.Equal(t, tt.want, b.ReadyToRefill())
			if !tt.want {
				assert.Equal(t, legacyLayout, b.Layout(), "失败的交换不修改布局")
			}
		})
	}
}

func TestBoard_SwapClearsMatches(t *testing.T) {
	b := newStartedBoard(t)
	require.True(t, b.AttemptSwap(13, 5))

	layout := b.Layout()
	for _, ind := range []int{4, 5, 6} {
		assert.Equal(t, Empty, layout[ind], "下标%d应被消除", ind)
	}
	assert.Equal(t, Blue, layout[0])
	assert.Equal(t, 1, b.Swaps())

	// 等待补充期间不可再交换
	assert.False(t, b.AttemptSwap(16, 17))

	b.ClearRefill()
	assert.False(t, b.ReadyToRefill())
}

func TestBoard_SwapRejectedBeforeStart(t *testing.T) {
	b := New(PlayerConfig("p2", 8, 8, 100), nil)
	assert.False(t, b.AttemptSwap(13, 5), "未写入布局")

	require.NoError(t, b.Generate(legacyLayout, true))
	assert.True(t, b.IsNew())
	assert.False(t, b.AttemptSwap(13, 5), "开局前不可交换")

	b.Start()
	assert.False(t, b.IsNew())
	assert.True(t, b.AttemptSwap(13, 5))
}

func TestBoard_Refill(t *testing.T) {
	b := newStartedBoard(t)
	require.True(t, b.AttemptSwap(13, 5))

	gaps := b.Layout().Gaps()
	require.NotEmpty(t, gaps)
	patch := make(Patch, 64)
	for i := range patch {
		patch[i] = NoChange
	}
	for _, ind := range gaps {
		patch[ind] = Green
	}

	require.NoError(t, b.Refill(patch, 4))
	assert.Empty(t, b.Layout().Gaps())
	assert.Equal(t, Green, b.Layout()[gaps[0]])
	assert.Equal(t, Blue, b.Layout()[0])
	assert.Equal(t, 4, b.LastRefillRow())

	assert.Error(t, b.Refill(Patch{1, 2}, 0))
}

func TestBoard_Generate(t *testing.T) {
	b := New(PlayerConfig("p1", 8, 8, 100), nil)
	assert.Error(t, b.Generate(make(Layout, 10), true))

	src := legacyLayout.Clone()
	require.NoError(t, b.Generate(src, true))
	src[0] = Brown
	assert.Equal(t, Blue, b.Layout()[0], "写入的布局与调用方隔离")
}

func TestBoard_DamageHeal(t *testing.T) {
	b := New(PlayerConfig("p1", 8, 8, 100), nil)

	b.Damage(30)
	assert.Equal(t, 70.0, b.Health())
	b.Damage(-5)
	assert.Equal(t, 70.0, b.Health())
	b.Heal(50)
	assert.Equal(t, 100.0, b.Health(), "回血不超过上限")
	b.Damage(250)
	assert.Equal(t, 0.0, b.Health(), "血量不低于0")
	assert.Equal(t, 100.0, b.TotalHealth())
}

func TestBoard_Reset(t *testing.T) {
	b := newStartedBoard(t)
	b.Damage(40)
	require.True(t, b.AttemptSwap(16, 17))
	b.SetPosition(entity.Coords{X: 1, Y: 1})

	b.Reset()
	assert.Equal(t, 100.0, b.Health())
	assert.Nil(t, b.Layout())
	assert.True(t, b.IsNew())
	assert.False(t, b.ReadyToRefill())
	assert.Equal(t, 0, b.Swaps())
	assert.Equal(t, -1, b.LastRefillRow())
	assert.Equal(t, DefaultPosition, b.Position())
	assert.Equal(t, "p1", b.Player())
}
