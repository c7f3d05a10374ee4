package game

import (
	"math"

	"github.com/wfunc/jewel-duel/internal/game/board"
	"github.com/wfunc/jewel-duel/internal/game/entity"
	"go.uber.org/zap"
)

// Opponent 单机模式下的自动对手，按固定间隔在自己的棋盘上执行第一个可行的交换
type Opponent struct {
	player PlayerID
	board  Board
	rows   int
	cols   int
	timer  *entity.Timer
	moves  int
	logger *zap.Logger
}

// NewOpponent 创建自动对手，计时器时长无限，每个脉冲出手一次
func NewOpponent(player PlayerID, b Board, rows, cols int, interval float64, logger *zap.Logger) *Opponent {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Opponent{
		player: player,
		board:  b,
		rows:   rows,
		cols:   cols,
		timer:  entity.NewTimer(math.Inf(1)),
		logger: logger.With(zap.String("opponent", string(player))),
	}
	o.timer.SetPulse(interval, o.makeMove)
	return o
}

// Update 推进出手计时，active为false时只保证计时器处于运行状态
func (o *Opponent) Update(t, dt float64, active bool) {
	if !o.timer.IsGoing() {
		o.timer.Start()
	}
	if active {
		o.timer.Update(t, dt)
	}
}

// Reset 重置出手计时
func (o *Opponent) Reset() {
	o.timer.Reset()
	o.moves = 0
}

// Player 对手控制的玩家
func (o *Opponent) Player() PlayerID { return o.player }

// Moves 成功出手次数
func (o *Opponent) Moves() int { return o.moves }

// Timer 出手计时器
func (o *Opponent) Timer() *entity.Timer { return o.timer }

// makeMove 查找第一个可行交换并执行
func (o *Opponent) makeMove(t float64) {
	if o.board == nil {
		return
	}
	layout := o.board.Layout()
	if len(layout) != o.rows*o.cols {
		return
	}
	move, ok := board.FindMove(layout, o.rows, o.cols)
	if !ok {
		o.logger.Debug("没有可行的交换", zap.Float64("t", t))
		return
	}
	if !o.board.AttemptSwap(move.From, move.To) {
		o.logger.Debug("交换被拒绝",
			zap.Int("from", move.From),
			zap.Int("to", move.To))
		return
	}
	o.moves++
	o.logger.Debug("对手出手",
		zap.Int("from", move.From),
		zap.Int("to", move.To),
		zap.Int("moves", o.moves))
}
