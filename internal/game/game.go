package game

import (
	"github.com/google/uuid"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game/board"
	"github.com/wfunc/jewel-duel/internal/game/entity"
	"github.com/wfunc/jewel-duel/internal/game/match"
	"go.uber.org/zap"
)

// 默认对局参数
const (
	DefaultRows                 = 8
	DefaultCols                 = 8
	DefaultCountdown            = 5.0
	DefaultOpponentMoveInterval = 5.0
)

// Game 双棋盘对局状态机
//
// Game 不是并发安全的，所有调用必须来自同一个驱动协程。
type Game struct {
	mode        string
	paused      bool
	started     bool
	over        bool
	winner      PlayerID
	rows        int
	cols        int
	timeElapsed float64
	countdown   *entity.Timer

	matchID string
	state   GameState
	layout  board.Layout

	generator *board.Generator
	evaluator *match.Evaluator

	p1, p2           Board
	opponent         *Opponent
	opponentInterval float64

	onStateChange     func(from, to GameState)
	onGameOver        func(winner PlayerID)
	onBoardsActivated func()

	logger *zap.Logger
}

// Option 对局选项
type Option func(*Game)

// WithBoardSize 设置棋盘行列数
func WithBoardSize(rows, cols int) Option {
	return func(g *Game) {
		if rows > 0 && cols > 0 {
			g.rows, g.cols = rows, cols
		}
	}
}

// WithCountdown 设置开局倒计时秒数
func WithCountdown(seconds float64) Option {
	return func(g *Game) {
		if seconds >= 0 {
			g.countdown = entity.NewTimer(seconds)
		}
	}
}

// WithGenerator 设置布局生成器
func WithGenerator(gen *board.Generator) Option {
	return func(g *Game) {
		if gen != nil {
			g.generator = gen
		}
	}
}

// WithEvaluator 设置胜负判定器
func WithEvaluator(e *match.Evaluator) Option {
	return func(g *Game) {
		if e != nil {
			g.evaluator = e
		}
	}
}

// WithOpponentInterval 设置单机对手的出手间隔
func WithOpponentInterval(seconds float64) Option {
	return func(g *Game) {
		if seconds > 0 {
			g.opponentInterval = seconds
		}
	}
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New 创建对局
func New(mode string, opts ...Option) *Game {
	g := &Game{
		rows:             DefaultRows,
		cols:             DefaultCols,
		countdown:        entity.NewTimer(DefaultCountdown),
		opponentInterval: DefaultOpponentMoveInterval,
		state:            StateIdle,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.generator == nil {
		g.generator = board.NewGenerator(board.DefaultGeneratorConfig(), board.NewCryptoSource(), g.logger)
	}
	if g.evaluator == nil {
		g.evaluator, _ = match.NewEvaluator(match.TieBreakFirstChecked)
	}
	g.logger = g.logger.Named("game")
	g.SetGameMode(mode)
	return g
}

// SetBoards 挂载双方棋盘句柄
func (g *Game) SetBoards(p1, p2 Board) {
	g.p1, g.p2 = p1, p2
	if g.opponent != nil {
		g.opponent = NewOpponent(PlayerTwo, p2, g.rows, g.cols, g.opponentInterval, g.logger)
	}
}

// Board 获取玩家的棋盘句柄
func (g *Game) Board(player PlayerID) (Board, error) {
	var b Board
	switch player {
	case PlayerOne:
		b = g.p1
	case PlayerTwo:
		b = g.p2
	default:
		return nil, apperrors.New(apperrors.ErrInvalidPlayer, string(player))
	}
	if b == nil {
		return nil, apperrors.New(apperrors.ErrBoardNotAttached, string(player))
	}
	return b, nil
}

// SetGameMode 设置对局模式，单机模式为p2挂载自动对手
func (g *Game) SetGameMode(mode string) {
	if mode == "" {
		mode = ModeMultiplayer
	}
	g.mode = mode
	if mode == ModeSingleplayer {
		g.opponent = NewOpponent(PlayerTwo, g.p2, g.rows, g.cols, g.opponentInterval, g.logger)
	} else {
		g.opponent = nil
	}
	g.logger.Info("设置对局模式",
		zap.String("match_id", g.matchID),
		zap.String("mode", mode),
		zap.Bool("opponent", g.opponent != nil))
}

// SetPause 设置暂停，不影响开始和结束标志
func (g *Game) SetPause(paused bool) {
	g.paused = paused
}

// Reset 恢复到初始状态
func (g *Game) Reset() {
	g.reset()
	g.syncState("reset")
}

func (g *Game) reset() {
	g.timeElapsed = 0
	g.over = false
	g.winner = ""
	g.started = false
	g.paused = false
	g.layout = nil
	g.countdown.Reset()
	if g.p1 != nil {
		g.p1.Reset()
	}
	if g.p2 != nil {
		g.p2.Reset()
	}
	if g.opponent != nil {
		g.opponent.Reset()
	}
}

// StartGame 重置对局，生成开局布局并写入双方棋盘，然后开始倒计时
// 布局生成失败时对局保持idle状态
func (g *Game) StartGame() error {
	g.reset()
	g.matchID = uuid.NewString()

	layout, err := g.generator.Generate(g.rows, g.cols)
	if err != nil {
		g.logger.Error("开局布局生成失败",
			zap.String("match_id", g.matchID),
			zap.Int("attempts", g.generator.Stats().Attempts),
			zap.Error(err))
		g.syncState("start_failed")
		return err
	}
	g.layout = layout

	for _, b := range []Board{g.p1, g.p2} {
		if b == nil {
			continue
		}
		if err := b.Generate(layout, !g.started); err != nil {
			g.logger.Error("写入棋盘布局失败",
				zap.String("match_id", g.matchID),
				zap.String("player", b.Player()),
				zap.Error(err))
			g.syncState("start_failed")
			return err
		}
	}

	g.countdown.Start()
	g.logger.Info("对局开始倒计时",
		zap.String("match_id", g.matchID),
		zap.String("mode", g.mode),
		zap.Float64("countdown", g.countdown.Duration()),
		zap.Int("attempts", g.generator.Stats().Attempts))
	g.syncState("start_game")
	return nil
}

// GameOver 结束对局，已结束时重复调用无效
func (g *Game) GameOver(winner PlayerID) {
	if g.over {
		g.logger.Debug("对局已结束，忽略重复的结束请求",
			zap.String("match_id", g.matchID),
			zap.String("winner", string(g.winner)),
			zap.String("ignored", string(winner)))
		return
	}
	if winner == "" {
		g.logger.Warn("结束对局缺少胜者", zap.String("match_id", g.matchID))
		return
	}

	g.winner = winner
	g.over = true
	g.logger.Info("对局结束",
		zap.String("match_id", g.matchID),
		zap.String("winner", string(winner)),
		zap.Float64("time_elapsed", g.timeElapsed))

	if g.onGameOver != nil {
		g.onGameOver(winner)
	}
	g.syncState("game_over")
}

// Update 推进一帧，非法帧时间只记录日志
func (g *Game) Update(t, dt float64) {
	if err := g.Step(t, dt); err != nil {
		g.logger.Warn("忽略非法帧", zap.Float64("t", t), zap.Error(err))
	}
}

// Step 推进一帧
//
// 帧内顺序：倒计时推进，开局判定，累计时长，补充空位，胜负判定。
// 倒计时结束的那一帧只完成开局，计时和判定从下一帧开始。
func (g *Game) Step(t, dt float64) error {
	if !entity.ValidDelta(dt) {
		return apperrors.Newf(apperrors.ErrInvalidTick, "dt=%v", dt)
	}
	if g.paused || g.over {
		return nil
	}

	wasStarted := g.started
	if !g.started && !g.countdown.IsEnded() {
		g.countdown.Update(t, dt)
	}
	if g.countdown.IsEnded() && !g.started {
		g.started = true
		g.activateBoards()
	}

	if wasStarted {
		g.timeElapsed += dt
		g.checkRefill()
		g.checkIsOver()
	}

	// 对手计时与对局时长同步，从开局后的第一帧开始推进
	if g.opponent != nil {
		g.opponent.Update(t, dt, wasStarted && !g.over)
	}

	g.syncState("tick")
	return nil
}

// activateBoards 开局信号，每局只触发一次
func (g *Game) activateBoards() {
	if g.p1 != nil {
		g.p1.Start()
	}
	if g.p2 != nil {
		g.p2.Start()
	}
	g.logger.Info("倒计时结束，棋盘激活", zap.String("match_id", g.matchID))
	if g.onBoardsActivated != nil {
		g.onBoardsActivated()
	}
}

// checkRefill 每帧最多为一个棋盘补充空位，p1优先
func (g *Game) checkRefill() {
	for _, b := range []Board{g.p1, g.p2} {
		if b == nil || !b.ReadyToRefill() {
			continue
		}
		// 补充失败时保留待补充标记，下一帧重试
		patch, row, err := g.generator.FillGaps(b.Layout(), g.rows, g.cols)
		if err != nil {
			g.logger.Error("补充空位失败",
				zap.String("match_id", g.matchID),
				zap.String("player", b.Player()),
				zap.Error(err))
			return
		}
		b.ClearRefill()
		if err := b.Refill(patch, row); err != nil {
			g.logger.Error("写入补充布局失败",
				zap.String("match_id", g.matchID),
				zap.String("player", b.Player()),
				zap.Error(err))
		}
		return
	}
}

// checkIsOver 根据双方血量判定胜负
func (g *Game) checkIsOver() {
	if g.over || g.p1 == nil || g.p2 == nil {
		return
	}
	verdict := g.evaluator.Evaluate(g.p1.Health(), g.p2.Health())
	if verdict.Decided {
		g.GameOver(PlayerID(verdict.Winner))
	}
}

// OnStateChange 设置状态变更回调
func (g *Game) OnStateChange(fn func(from, to GameState)) {
	g.onStateChange = fn
}

// OnGameOver 设置对局结束回调
func (g *Game) OnGameOver(fn func(winner PlayerID)) {
	g.onGameOver = fn
}

// OnBoardsActivated 设置棋盘激活回调
func (g *Game) OnBoardsActivated(fn func()) {
	g.onBoardsActivated = fn
}

// Mode 对局模式
func (g *Game) Mode() string { return g.mode }

// IsPaused 是否暂停
func (g *Game) IsPaused() bool { return g.paused }

// IsStarted 是否已开局
func (g *Game) IsStarted() bool { return g.started }

// IsOver 是否已结束
func (g *Game) IsOver() bool { return g.over }

// Winner 胜者，未结束时第二个返回值为false
func (g *Game) Winner() (PlayerID, bool) {
	return g.winner, g.over
}

// TimeElapsed 开局后累计的对局时长
func (g *Game) TimeElapsed() float64 { return g.timeElapsed }

// Countdown 开局倒计时器
func (g *Game) Countdown() *entity.Timer { return g.countdown }

// Rows 行数
func (g *Game) Rows() int { return g.rows }

// Cols 列数
func (g *Game) Cols() int { return g.cols }

// MatchID 当前对局ID，每次StartGame重新生成
func (g *Game) MatchID() string { return g.matchID }

// State 当前状态
func (g *Game) State() GameState { return g.deriveState() }

// Opponent 单机对手，多人模式为nil
func (g *Game) Opponent() *Opponent { return g.opponent }

// Generator 布局生成器
func (g *Game) Generator() *board.Generator { return g.generator }

// Evaluator 胜负判定器
func (g *Game) Evaluator() *match.Evaluator { return g.evaluator }

// StartLayout 本局的开局布局副本
func (g *Game) StartLayout() board.Layout { return g.layout.Clone() }

// Snapshot 生成快照
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		MatchID:       g.matchID,
		Mode:          g.mode,
		State:         g.deriveState(),
		Paused:        g.paused,
		Started:       g.started,
		Over:          g.over,
		Winner:        g.winner,
		TimeElapsed:   g.timeElapsed,
		CountdownLeft: g.countdown.TimeLeft(),
		Rows:          g.rows,
		Cols:          g.cols,
	}
	if g.opponent != nil {
		s.OpponentMoves = g.opponent.Moves()
	}
	for _, b := range []Board{g.p1, g.p2} {
		if b == nil {
			continue
		}
		s.Boards = append(s.Boards, BoardSnapshot{
			Player:        b.Player(),
			Health:        b.Health(),
			ReadyToRefill: b.ReadyToRefill(),
			Layout:        b.Layout(),
		})
	}
	return s
}
