package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer(5)

	assert.Equal(t, 5.0, timer.Duration())
	assert.Equal(t, 5.0, timer.TimeLeft())
	assert.False(t, timer.IsGoing())
	assert.False(t, timer.IsEnded())
	assert.Equal(t, 0, timer.Pulses())
}

func TestTimer_EndsExactlyAtDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		dt       float64
		ticks    int
	}{
		{name: "5秒每帧0.5", duration: 5, dt: 0.5, ticks: 10},
		{name: "1秒每帧0.25", duration: 1, dt: 0.25, ticks: 4},
		{name: "单帧耗尽", duration: 2, dt: 2, ticks: 1},
		{name: "0.125秒每帧1/64", duration: 0.125, dt: 1.0 / 64, ticks: 8},
		{name: "5秒每帧0.1", duration: 5, dt: 0.1, ticks: 50},
		{name: "1秒每帧0.1", duration: 1, dt: 0.1, ticks: 10},
		{name: "0.7秒每帧0.1", duration: 0.7, dt: 0.1, ticks: 7},
		{name: "0.8秒每帧0.016", duration: 0.8, dt: 0.016, ticks: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := NewTimer(tt.duration)
			timer.Start()

			for i := 0; i < tt.ticks-1; i++ {
				timer.Update(float64(i)*tt.dt, tt.dt)
				require.False(t, timer.IsEnded(), "第%d帧不应结束", i+1)
				require.True(t, timer.IsGoing())
			}

			timer.Update(tt.duration, tt.dt)
			assert.True(t, timer.IsEnded())
			assert.False(t, timer.IsGoing())
			assert.Equal(t, 0.0, timer.TimeLeft())
		})
	}
}

func TestTimer_UpdateWhenStopped(t *testing.T) {
	timer := NewTimer(3)
	timer.Update(0, 1)
	assert.Equal(t, 3.0, timer.TimeLeft(), "未启动时更新无效")

	timer.Start()
	timer.Update(0, 1)
	timer.Stop()
	assert.True(t, timer.IsEnded())
	assert.False(t, timer.IsGoing())

	timer.Update(1, 1)
	assert.Equal(t, 2.0, timer.TimeLeft(), "停止后更新无效")
}

func TestTimer_RejectsInvalidDelta(t *testing.T) {
	tests := []struct {
		name string
		dt   float64
	}{
		{name: "负数", dt: -0.5},
		{name: "NaN", dt: math.NaN()},
		{name: "正无穷", dt: math.Inf(1)},
		{name: "负无穷", dt: math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := NewTimer(1)
			timer.Start()
			timer.Update(0, tt.dt)
			assert.Equal(t, 1.0, timer.TimeLeft())
			assert.True(t, timer.IsGoing())
			assert.False(t, ValidDelta(tt.dt))
		})
	}
	assert.True(t, ValidDelta(0))
}

func TestTimer_StartRestarts(t *testing.T) {
	timer := NewTimer(2)
	timer.Start()
	timer.Update(0, 1.5)
	assert.Equal(t, 0.5, timer.TimeLeft())

	timer.Start()
	assert.Equal(t, 2.0, timer.TimeLeft())
	assert.True(t, timer.IsGoing())
	assert.False(t, timer.IsEnded())
}

func TestTimer_Reset(t *testing.T) {
	timer := NewTimer(1)
	timer.SetPulse(0.25, nil)
	timer.Start()
	timer.Update(0, 1)
	require.True(t, timer.IsEnded())

	timer.Reset()
	assert.False(t, timer.IsGoing())
	assert.False(t, timer.IsEnded())
	assert.Equal(t, 1.0, timer.TimeLeft())
	assert.Equal(t, 0, timer.Pulses())
}

func TestTimer_Pulse(t *testing.T) {
	tests := []struct {
		name       string
		interval   float64
		deltas     []float64
		wantPulses int
	}{
		{name: "恰好一个周期", interval: 1, deltas: []float64{1}, wantPulses: 1},
		{name: "未达周期", interval: 1, deltas: []float64{0.5, 0.25}, wantPulses: 0},
		{name: "累积到达周期", interval: 1, deltas: []float64{0.5, 0.5}, wantPulses: 1},
		{name: "单帧跨越多个周期", interval: 0.5, deltas: []float64{1.5}, wantPulses: 3},
		{name: "余量保留", interval: 1, deltas: []float64{1.5, 0.5}, wantPulses: 2},
		{name: "关闭脉冲", interval: 0, deltas: []float64{1, 1}, wantPulses: 0},
		{name: "十个0.1累积到一个周期", interval: 1, deltas: []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}, wantPulses: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := NewTimer(math.Inf(1))
			fired := 0
			timer.SetPulse(tt.interval, func(float64) { fired++ })
			timer.Start()

			now := 0.0
			for _, dt := range tt.deltas {
				now += dt
				timer.Update(now, dt)
			}

			assert.Equal(t, tt.wantPulses, fired)
			assert.Equal(t, tt.wantPulses, timer.Pulses())
			assert.True(t, timer.IsGoing(), "无限时长计时器不会结束")
		})
	}
}

func TestTimer_PulseCallbackStops(t *testing.T) {
	timer := NewTimer(10)
	fired := 0
	timer.SetPulse(1, func(float64) {
		fired++
		timer.Stop()
	})
	timer.Start()
	timer.Update(0, 3)

	assert.Equal(t, 1, fired)
	assert.True(t, timer.IsEnded())
	assert.Equal(t, 10.0, timer.TimeLeft())
}

func TestTimer_SetDuration(t *testing.T) {
	timer := NewTimer(1)
	timer.Start()
	timer.SetDuration(4)

	assert.Equal(t, 4.0, timer.Duration())
	assert.Equal(t, 4.0, timer.TimeLeft())
	assert.False(t, timer.IsGoing())
}
