package game

import "go.uber.org/zap"

// GameState 对局状态，由对局标志位推导
type GameState string

const (
	StateIdle     GameState = "idle"     // 未开始，倒计时未运行
	StateCounting GameState = "counting" // 开局倒计时中
	StatePlaying  GameState = "playing"  // 对局进行中
	StateOver     GameState = "over"     // 已分出胜负
)

// stateTransitions 合法的状态转换
var stateTransitions = map[GameState][]GameState{
	StateIdle:     {StateCounting, StateOver},
	StateCounting: {StateIdle, StateCounting, StatePlaying, StateOver},
	StatePlaying:  {StateIdle, StateCounting, StateOver},
	StateOver:     {StateIdle, StateCounting},
}

// CanTransition 检查状态转换是否合法
func CanTransition(from, to GameState) bool {
	for _, s := range stateTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllStates 所有状态，用于指标导出
func AllStates() []GameState {
	return []GameState{StateIdle, StateCounting, StatePlaying, StateOver}
}

// deriveState 根据标志位推导当前状态
func (g *Game) deriveState() GameState {
	switch {
	case g.over:
		return StateOver
	case g.started:
		return StatePlaying
	case g.countdown.IsGoing() || g.countdown.IsEnded():
		return StateCounting
	default:
		return StateIdle
	}
}

// syncState 记录状态变化并触发回调
func (g *Game) syncState(event string) {
	to := g.deriveState()
	from := g.state
	if from == to && event != "start_game" {
		return
	}

	if !CanTransition(from, to) {
		g.logger.Warn("非预期的状态转换",
			zap.String("match_id", g.matchID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("event", event))
	}

	g.state = to
	g.logger.Info("状态转换",
		zap.String("match_id", g.matchID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("event", event))

	if g.onStateChange != nil {
		g.onStateChange(from, to)
	}
}
