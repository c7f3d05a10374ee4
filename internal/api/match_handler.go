package api

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game"
	"github.com/wfunc/jewel-duel/internal/logger"
	"github.com/wfunc/jewel-duel/internal/middleware"
	"go.uber.org/zap"
)

// MatchHandler 对局控制处理器
type MatchHandler struct {
	ctrl    Controller
	timeout time.Duration
	logger  *zap.Logger
}

// NewMatchHandler 创建对局控制处理器
func NewMatchHandler(ctrl Controller, timeout time.Duration, log *zap.Logger) *MatchHandler {
	return &MatchHandler{
		ctrl:    ctrl,
		timeout: timeout,
		logger:  log,
	}
}

// Response 成功响应
type Response struct {
	Success bool          `json:"success"`
	Data    game.Snapshot `json:"data"`
}

// PauseRequest 暂停请求
type PauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

// ModeRequest 切换模式请求
type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// OverRequest 结束对局请求
type OverRequest struct {
	Winner string `json:"winner" binding:"required"`
}

// DamageRequest 扣血请求
type DamageRequest struct {
	Amount float64 `json:"amount" binding:"gte=0"`
}

// SwapRequest 交换请求
type SwapRequest struct {
	From *int `json:"from" binding:"required,gte=0"`
	To   *int `json:"to" binding:"required,gte=0"`
}

// Get 获取当前对局快照
func (h *MatchHandler) Get(c *gin.Context) {
	h.run(c, func(*game.Game) error { return nil })
}

// Start 开始新的一局
func (h *MatchHandler) Start(c *gin.Context) {
	h.run(c, func(g *game.Game) error {
		return g.StartGame()
	})
}

// Pause 暂停或恢复对局
func (h *MatchHandler) Pause(c *gin.Context) {
	var req PauseRequest
	if !h.bind(c, &req) {
		return
	}
	h.run(c, func(g *game.Game) error {
		g.SetPause(*req.Paused)
		return nil
	})
}

// Reset 重置对局
func (h *MatchHandler) Reset(c *gin.Context) {
	h.run(c, func(g *game.Game) error {
		g.Reset()
		return nil
	})
}

// SetMode 切换对局模式
func (h *MatchHandler) SetMode(c *gin.Context) {
	var req ModeRequest
	if !h.bind(c, &req) {
		return
	}
	h.run(c, func(g *game.Game) error {
		g.SetGameMode(req.Mode)
		return nil
	})
}

// Over 强制结束对局
func (h *MatchHandler) Over(c *gin.Context) {
	var req OverRequest
	if !h.bind(c, &req) {
		return
	}
	winner, err := game.ParseWinner(req.Winner)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.run(c, func(g *game.Game) error {
		g.GameOver(winner)
		return nil
	})
}

// Damage 对指定棋盘扣血
func (h *MatchHandler) Damage(c *gin.Context) {
	player, err := game.ParsePlayer(c.Param("player"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var req DamageRequest
	if !h.bind(c, &req) {
		return
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		h.fail(c, apperrors.Newf(apperrors.ErrInvalidParam, "amount=%v", req.Amount))
		return
	}

	h.run(c, func(g *game.Game) error {
		b, err := g.Board(player)
		if err != nil {
			return err
		}
		b.Damage(req.Amount)
		return nil
	})
}

// Swap 在指定棋盘上尝试交换两个格子
func (h *MatchHandler) Swap(c *gin.Context) {
	player, err := game.ParsePlayer(c.Param("player"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var req SwapRequest
	if !h.bind(c, &req) {
		return
	}

	h.run(c, func(g *game.Game) error {
		if g.IsOver() {
			return apperrors.New(apperrors.ErrGameOver)
		}
		if !g.IsStarted() {
			return apperrors.New(apperrors.ErrGameNotStarted)
		}
		b, err := g.Board(player)
		if err != nil {
			return err
		}
		if !b.AttemptSwap(*req.From, *req.To) {
			return apperrors.Newf(apperrors.ErrInvalidSwap, "%d<->%d", *req.From, *req.To)
		}
		return nil
	})
}

// run 在驱动协程上执行命令并返回执行后的快照
func (h *MatchHandler) run(c *gin.Context, fn func(g *game.Game) error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var snap game.Snapshot
	err := h.ctrl.Do(ctx, func(g *game.Game) error {
		if err := fn(g); err != nil {
			return err
		}
		snap = g.Snapshot()
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: snap})
}

// bind 解析请求体，失败时直接返回400
func (h *MatchHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return false
	}
	return true
}

// fail 返回统一错误响应
func (h *MatchHandler) fail(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.LogError(err, "对局命令失败",
			zap.String("path", c.FullPath()),
			zap.Int("code", int(appErr.Code)),
			zap.String("request_id", middleware.GetRequestID(c)))
	} else {
		h.logger.Debug("对局命令被拒绝",
			zap.String("path", c.FullPath()),
			zap.Int("code", int(appErr.Code)),
			zap.String("details", appErr.Details))
	}
	c.JSON(status, apperrors.NewErrorResponse(appErr, middleware.GetRequestID(c)))
}
