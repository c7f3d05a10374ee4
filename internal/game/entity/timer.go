package entity

import "math"

// endTolerance 相对时长的结束容差，吸收十进制帧时间累加的浮点误差
const endTolerance = 1e-9

// Timer 倒计时器，支持周期性脉冲通知
//
// 单帧dt跨越多个脉冲周期时按周期数重复触发，余量保留到下一帧。
type Timer struct {
	duration float64
	timeLeft float64
	going    bool
	ended    bool

	pulseInterval    float64
	pulseAccumulator float64
	onPulse          func(t float64)
	pulses           int
}

// NewTimer 创建处于停止状态的计时器
func NewTimer(duration float64) *Timer {
	return &Timer{
		duration: duration,
		timeLeft: duration,
	}
}

// Start 重置后开始计时，重复调用会从完整时长重新开始
func (t *Timer) Start() {
	t.Reset()
	t.going = true
}

// Stop 停止计时并标记结束
func (t *Timer) Stop() {
	t.going = false
	t.ended = true
}

// Reset 恢复初始状态
func (t *Timer) Reset() {
	t.going = false
	t.ended = false
	t.timeLeft = t.duration
	t.pulseAccumulator = 0
	t.pulses = 0
}

// Update 推进计时器，负数、NaN或无穷大的dt被忽略
func (t *Timer) Update(now, dt float64) {
	if !t.going || !ValidDelta(dt) {
		return
	}

	if t.pulseInterval > 0 {
		t.pulseAccumulator += dt
		for t.pulseAccumulator >= t.pulseInterval-tolerance(t.pulseInterval) {
			t.pulseAccumulator = math.Max(t.pulseAccumulator-t.pulseInterval, 0)
			t.pulses++
			if t.onPulse != nil {
				t.onPulse(now)
			}
			// 脉冲回调可能停止计时器
			if !t.going {
				return
			}
		}
	}

	t.timeLeft -= dt
	if t.timeLeft <= tolerance(t.duration) {
		t.timeLeft = 0
		t.Stop()
	}
}

// SetDuration 修改时长并复位
func (t *Timer) SetDuration(duration float64) {
	t.duration = duration
	t.Reset()
}

// SetPulse 设置脉冲周期和回调，interval<=0 关闭脉冲
func (t *Timer) SetPulse(interval float64, fn func(t float64)) {
	t.pulseInterval = interval
	t.onPulse = fn
	t.pulseAccumulator = 0
}

// Duration 总时长
func (t *Timer) Duration() float64 { return t.duration }

// TimeLeft 剩余时间
func (t *Timer) TimeLeft() float64 { return t.timeLeft }

// IsGoing 是否正在计时
func (t *Timer) IsGoing() bool { return t.going }

// IsEnded 是否已结束
func (t *Timer) IsEnded() bool { return t.ended }

// PulseInterval 脉冲周期
func (t *Timer) PulseInterval() float64 { return t.pulseInterval }

// Pulses 自上次复位以来触发的脉冲数
func (t *Timer) Pulses() int { return t.pulses }

// tolerance 时长d对应的结束容差，无穷时长不设容差
func tolerance(d float64) float64 {
	if math.IsInf(d, 0) || d <= 0 {
		return 0
	}
	return endTolerance * d
}

// ValidDelta 判断帧时间是否合法
func ValidDelta(dt float64) bool {
	return dt >= 0 && !math.IsNaN(dt) && !math.IsInf(dt, 0)
}
