package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game"
	"github.com/wfunc/jewel-duel/internal/logger"
	"go.uber.org/zap"
)

// Publisher 快照接收方
type Publisher interface {
	Publish(snapshot game.Snapshot)
}

// Config 驱动配置
type Config struct {
	TickRate         time.Duration // 固定步长
	MaxStepsPerFrame int           // 单次唤醒最多推进的步数
	BroadcastEvery   int           // 每N步推送一次快照，0表示只在命令后推送
}

// command 在驱动协程上执行的对局操作
type command struct {
	fn     func(g *game.Game) error
	result chan error
}

// Loop 固定步长驱动器，对局的所有修改都在Run所在的协程上完成
type Loop struct {
	game      *game.Game
	cfg       Config
	metrics   *Metrics
	publisher Publisher
	clock     func() time.Time
	logger    *zap.Logger

	cmds     chan command
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	latest   atomic.Pointer[game.Snapshot]

	// 以下字段只在驱动协程上访问
	simTime     float64
	accumulator time.Duration
	last        time.Time
	steps       uint64
}

// New 创建驱动器并接管对局的状态回调
func New(g *game.Game, cfg Config, metrics *Metrics, publisher Publisher, log *zap.Logger) *Loop {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16 * time.Millisecond
	}
	if cfg.MaxStepsPerFrame <= 0 {
		cfg.MaxStepsPerFrame = 5
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}

	l := &Loop{
		game:      g,
		cfg:       cfg,
		metrics:   metrics,
		publisher: publisher,
		clock:     time.Now,
		logger:    log.Named("engine"),
		cmds:      make(chan command),
		done:      make(chan struct{}),
	}

	g.OnStateChange(l.onStateChange)
	g.OnGameOver(l.onGameOver)

	snap := g.Snapshot()
	l.latest.Store(&snap)
	return l
}

// Run 运行驱动循环直到ctx取消
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return apperrors.New(apperrors.ErrInvalidParam, "engine already running")
	}
	defer l.stopOnce.Do(func() { close(l.done) })

	ticker := time.NewTicker(l.cfg.TickRate)
	defer ticker.Stop()

	l.last = l.clock()
	l.logger.Info("驱动循环启动",
		zap.Duration("tick_rate", l.cfg.TickRate),
		zap.Int("max_steps_per_frame", l.cfg.MaxStepsPerFrame),
		zap.Int("broadcast_every", l.cfg.BroadcastEvery))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("驱动循环停止", zap.Uint64("steps", l.steps))
			return nil
		case <-ticker.C:
			l.safeAdvance(l.clock())
		case cmd := <-l.cmds:
			cmd.result <- l.exec(cmd.fn)
		}
	}
}

// Do 在驱动协程上执行fn并等待结果
func (l *Loop) Do(ctx context.Context, fn func(g *game.Game) error) error {
	cmd := command{fn: fn, result: make(chan error, 1)}

	select {
	case l.cmds <- cmd:
	case <-ctx.Done():
		return ctxError(ctx)
	case <-l.done:
		return apperrors.New(apperrors.ErrCanceled, "engine stopped")
	}

	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctxError(ctx)
	}
}

// ctxError 将context错误转换为应用错误
func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Wrap(ctx.Err(), apperrors.ErrTimeout)
	}
	return apperrors.Wrap(ctx.Err(), apperrors.ErrCanceled)
}

// Latest 最近一次推送的快照
func (l *Loop) Latest() game.Snapshot {
	return *l.latest.Load()
}

// Metrics 驱动指标
func (l *Loop) Metrics() *Metrics {
	return l.metrics
}

// exec 执行命令，命令执行后立即推送快照
func (l *Loop) exec(fn func(g *game.Game) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("命令执行异常", zap.Any("panic", r))
			err = apperrors.Newf(apperrors.ErrUnknown, "panic: %v", r)
		}
		l.publish()
	}()
	return fn(l.game)
}

// safeAdvance 推进并捕获异常，单帧异常不终止循环
func (l *Loop) safeAdvance(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("驱动帧异常", zap.Any("panic", r))
		}
	}()
	l.advance(now)
}

// advance 按真实经过的时间推进若干固定步长，超过上限的部分丢弃
func (l *Loop) advance(now time.Time) {
	elapsed := now.Sub(l.last)
	l.last = now
	if elapsed < 0 {
		elapsed = 0
	}
	l.accumulator += elapsed

	steps := 0
	for l.accumulator >= l.cfg.TickRate && steps < l.cfg.MaxStepsPerFrame {
		l.step()
		l.accumulator -= l.cfg.TickRate
		steps++
	}

	if l.accumulator >= l.cfg.TickRate {
		dropped := int64(l.accumulator / l.cfg.TickRate)
		l.accumulator %= l.cfg.TickRate
		l.metrics.TicksDropped.Add(float64(dropped))
		l.logger.Debug("丢弃积压的帧", zap.Int64("dropped", dropped))
	}
}

// step 推进一个固定步长
func (l *Loop) step() {
	dt := l.cfg.TickRate.Seconds()
	l.simTime += dt

	if err := l.game.Step(l.simTime, dt); err != nil {
		l.metrics.TicksRejected.Inc()
		l.logger.Warn("帧被拒绝", zap.Float64("t", l.simTime), zap.Error(err))
	} else {
		l.metrics.Ticks.Inc()
	}

	l.steps++
	if l.cfg.BroadcastEvery > 0 && l.steps%uint64(l.cfg.BroadcastEvery) == 0 {
		l.publish()
	}
}

// publish 生成快照并交给Publisher
func (l *Loop) publish() {
	snap := l.game.Snapshot()
	l.latest.Store(&snap)
	if l.publisher != nil {
		l.publisher.Publish(snap)
	}
}

// onStateChange 同步状态指标并记录对局事件
func (l *Loop) onStateChange(from, to game.GameState) {
	l.metrics.SetState(to)

	data := map[string]interface{}{
		"from": string(from),
		"to":   string(to),
		"mode": l.game.Mode(),
	}
	if to == game.StateCounting {
		attempts := l.game.Generator().Stats().Attempts
		l.metrics.LayoutAttempts.Observe(float64(attempts))
		data["attempts"] = attempts
	}
	if to == game.StateOver {
		data["time_elapsed"] = l.game.TimeElapsed()
	}
	logger.LogGameEvent("state_change", l.game.MatchID(), data)
}

// onGameOver 统计对局结果
func (l *Loop) onGameOver(winner game.PlayerID) {
	l.metrics.Matches.WithLabelValues(string(winner)).Inc()
	logger.LogGameEvent("game_over", l.game.MatchID(), map[string]interface{}{
		"winner":       string(winner),
		"time_elapsed": l.game.TimeElapsed(),
	})
}
