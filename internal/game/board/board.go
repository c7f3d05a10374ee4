package board

import (
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game/entity"
	"go.uber.org/zap"
)

// 默认棋盘几何
var (
	DefaultSize     = entity.Size{W: 400, H: 500}
	DefaultPosition = entity.Coords{X: 10, Y: 30}
)

// DefaultHealth 默认棋盘血量
const DefaultHealth = 100.0

// Config 棋盘配置
type Config struct {
	Player   string
	Rows     int
	Cols     int
	Health   float64
	Position entity.Coords
	Size     entity.Size
}

// PlayerConfig 返回双方棋盘的默认配置，p2位于p1右侧两个棋盘宽度处
func PlayerConfig(player string, rows, cols int, health float64) Config {
	pos := DefaultPosition
	if player == "p2" {
		pos = pos.Add(entity.Coords{X: DefaultSize.W * 2})
	}
	if health <= 0 {
		health = DefaultHealth
	}
	return Config{
		Player:   player,
		Rows:     rows,
		Cols:     cols,
		Health:   health,
		Position: pos,
		Size:     DefaultSize,
	}
}

// Board 单个玩家的棋盘，只保留布局、血量和补充标记，不处理连锁消除
type Board struct {
	entity.BaseEntity

	player      string
	rows        int
	cols        int
	layout      Layout
	health      float64
	totalHealth float64

	isNew         bool // 开局前的棋盘不可交换
	readyToRefill bool
	lastRefillRow int
	swaps         int

	logger *zap.Logger
}

// New 创建棋盘
func New(cfg Config, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		BaseEntity:    entity.NewBaseEntity(cfg.Position, cfg.Size),
		player:        cfg.Player,
		rows:          cfg.Rows,
		cols:          cfg.Cols,
		health:        cfg.Health,
		totalHealth:   cfg.Health,
		isNew:         true,
		lastRefillRow: -1,
		logger:        logger.With(zap.String("player", cfg.Player)),
	}
}

// Player 玩家标识
func (b *Board) Player() string { return b.player }

// Rows 行数
func (b *Board) Rows() int { return b.rows }

// Cols 列数
func (b *Board) Cols() int { return b.cols }

// Health 当前血量
func (b *Board) Health() float64 { return b.health }

// TotalHealth 血量上限
func (b *Board) TotalHealth() float64 { return b.totalHealth }

// IsNew 是否处于开局前状态
func (b *Board) IsNew() bool { return b.isNew }

// Swaps 成功交换次数
func (b *Board) Swaps() int { return b.swaps }

// LastRefillRow 最近一次补充的最后一行
func (b *Board) LastRefillRow() int { return b.lastRefillRow }

// Layout 返回当前布局的副本
func (b *Board) Layout() Layout { return b.layout.Clone() }

// Generate 写入整盘布局，preStarted为true时棋盘在开局信号前保持不可交换
func (b *Board) Generate(layout Layout, preStarted bool) error {
	if err := layout.Validate(b.rows, b.cols); err != nil {
		return err
	}
	b.layout = layout.Clone()
	b.readyToRefill = false
	if preStarted {
		b.isNew = true
	}
	return nil
}

// Start 开局信号，棋盘开始接受交换
func (b *Board) Start() {
	b.isNew = false
}

// Damage 扣血，最低为0
func (b *Board) Damage(amount float64) {
	if amount <= 0 {
		return
	}
	b.health -= amount
	if b.health < 0 {
		b.health = 0
	}
}

// Heal 回血，最高为上限
func (b *Board) Heal(amount float64) {
	if amount <= 0 {
		return
	}
	b.health += amount
	if b.health > b.totalHealth {
		b.health = b.totalHealth
	}
}

// ReadyToRefill 是否存在等待补充的空位
func (b *Board) ReadyToRefill() bool { return b.readyToRefill }

// ClearRefill 清除补充标记
func (b *Board) ClearRefill() { b.readyToRefill = false }

// Refill 将补丁写入布局
func (b *Board) Refill(patch Patch, fromRow int) error {
	if len(patch) != len(b.layout) {
		return apperrors.Newf(apperrors.ErrInvalidLayout, "补丁长度%d与布局长度%d不符", len(patch), len(b.layout))
	}
	b.layout.Apply(patch)
	b.lastRefillRow = fromRow
	return nil
}

// AttemptSwap 尝试交换两个相邻格子，只有产生消除时才生效
// 生效后被消除的格子变为空位，棋盘进入等待补充状态
func (b *Board) AttemptSwap(from, to int) bool {
	if b.isNew || b.readyToRefill || b.layout == nil {
		return false
	}
	if from == to || from < 0 || to < 0 || from >= len(b.layout) || to >= len(b.layout) {
		return false
	}
	if !Adjacent(from, to, b.cols) {
		return false
	}
	if !SwapCreatesMatch(b.layout, b.rows, b.cols, from, to) {
		return false
	}

	b.layout[from], b.layout[to] = b.layout[to], b.layout[from]
	cleared := 0
	for _, run := range FindRuns(b.layout, b.rows, b.cols) {
		for _, ind := range run.Indices(b.cols) {
			if b.layout[ind] != Empty {
				b.layout[ind] = Empty
				cleared++
			}
		}
	}
	b.swaps++
	b.readyToRefill = true

	b.logger.Debug("交换成功",
		zap.Int("from", from),
		zap.Int("to", to),
		zap.Int("cleared", cleared))
	return true
}

// Reset 恢复初始状态
func (b *Board) Reset() {
	b.health = b.totalHealth
	b.layout = nil
	b.isNew = true
	b.readyToRefill = false
	b.lastRefillRow = -1
	b.swaps = 0
	b.ResetGeometry()
}
