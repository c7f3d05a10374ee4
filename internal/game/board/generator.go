package board

import (
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"go.uber.org/zap"
)

// GeneratorConfig 布局生成配置
type GeneratorConfig struct {
	JewelTypes          int  // 参与随机的普通宝石种类数
	MaxAttempts         int  // 单次生成的最大重采样次数
	RequirePossibleMove bool // 是否要求至少存在一步合法交换
}

// DefaultGeneratorConfig 默认生成配置
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		JewelTypes:          RegularTypeCount,
		MaxAttempts:         1000,
		RequirePossibleMove: true,
	}
}

// GeneratorStats 最近一次生成的统计
type GeneratorStats struct {
	Attempts  int  `json:"attempts"`
	Converged bool `json:"converged"`
}

// Generator 随机布局生成器
type Generator struct {
	cfg    GeneratorConfig
	rng    RandomSource
	logger *zap.Logger
	last   GeneratorStats
}

// NewGenerator 创建布局生成器
func NewGenerator(cfg GeneratorConfig, rng RandomSource, logger *zap.Logger) *Generator {
	if cfg.JewelTypes <= 0 || cfg.JewelTypes > RegularTypeCount {
		cfg.JewelTypes = RegularTypeCount
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultGeneratorConfig().MaxAttempts
	}
	if rng == nil {
		rng = NewCryptoSource()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		cfg:    cfg,
		rng:    rng,
		logger: logger,
	}
}

// Config 返回生成配置
func (g *Generator) Config() GeneratorConfig {
	return g.cfg
}

// Stats 返回最近一次Generate或FillGaps的统计
func (g *Generator) Stats() GeneratorStats {
	return g.last
}

// Acceptable 判断布局能否作为开局布局，尺寸不符的布局不可用
func (g *Generator) Acceptable(l Layout, rows, cols int) bool {
	if l.Validate(rows, cols) != nil {
		return false
	}
	if HasMatch(l, rows, cols) {
		return false
	}
	return !g.cfg.RequirePossibleMove || HasPossibleMove(l, rows, cols)
}

// Generate 整盘重采样直到得到可用布局，超过最大次数返回ErrLayoutNotConverged
func (g *Generator) Generate(rows, cols int) (Layout, error) {
	if rows <= 0 || cols <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidLayout, "rows=%d cols=%d", rows, cols)
	}

	layout := make(Layout, rows*cols)
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		for i := range layout {
			layout[i] = g.randomJewel()
		}
		if g.Acceptable(layout, rows, cols) {
			g.last = GeneratorStats{Attempts: attempt, Converged: true}
			g.logger.Debug("棋盘布局生成完成",
				zap.Int("rows", rows),
				zap.Int("cols", cols),
				zap.Int("attempts", attempt))
			return layout, nil
		}
	}

	g.last = GeneratorStats{Attempts: g.cfg.MaxAttempts}
	g.logger.Error("棋盘布局生成未收敛",
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("attempts", g.cfg.MaxAttempts))
	return nil, apperrors.Newf(apperrors.ErrLayoutNotConverged,
		"rows=%d cols=%d attempts=%d", rows, cols, g.cfg.MaxAttempts)
}

// FillGaps 为所有空位随机补充宝石，只重采样空位，直到整盘不存在可消除段
// 返回补丁和最后一个被补充格子所在的行，无空位时行号为-1
func (g *Generator) FillGaps(l Layout, rows, cols int) (Patch, int, error) {
	if err := l.Validate(rows, cols); err != nil {
		return nil, -1, err
	}

	patch := make(Patch, len(l))
	for i := range patch {
		patch[i] = NoChange
	}

	gaps := l.Gaps()
	if len(gaps) == 0 {
		g.last = GeneratorStats{Converged: true}
		return patch, -1, nil
	}
	lastRow, _ := Coord(gaps[len(gaps)-1], cols)

	filled := l.Clone()
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		for _, ind := range gaps {
			filled[ind] = g.randomJewel()
		}
		if !HasMatch(filled, rows, cols) {
			for _, ind := range gaps {
				patch[ind] = filled[ind]
			}
			g.last = GeneratorStats{Attempts: attempt, Converged: true}
			return patch, lastRow, nil
		}
	}

	g.last = GeneratorStats{Attempts: g.cfg.MaxAttempts}
	g.logger.Error("空位补充未收敛",
		zap.Int("gaps", len(gaps)),
		zap.Int("attempts", g.cfg.MaxAttempts))
	return nil, -1, apperrors.Newf(apperrors.ErrLayoutNotConverged,
		"gaps=%d attempts=%d", len(gaps), g.cfg.MaxAttempts)
}

// randomJewel 均匀随机选取一种普通宝石
func (g *Generator) randomJewel() JewelType {
	return Blue + JewelType(g.rng.Intn(g.cfg.JewelTypes))
}
