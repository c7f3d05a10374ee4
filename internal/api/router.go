package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game"
	"github.com/wfunc/jewel-duel/internal/middleware"
	"go.uber.org/zap"
)

// Controller 对局控制入口，命令在驱动协程上执行
type Controller interface {
	Do(ctx context.Context, fn func(g *game.Game) error) error
	Latest() game.Snapshot
}

// Config 路由配置
type Config struct {
	Mode           string        // gin模式
	MetricsPath    string        // 为空时不暴露指标
	WebSocketPath  string        // 为空时不挂载观战推送
	CommandTimeout time.Duration // 单个命令的最长等待时间
}

// Router API路由器
type Router struct {
	engine   *gin.Engine
	cfg      Config
	match    *MatchHandler
	gatherer prometheus.Gatherer
	feed     http.Handler
	started  time.Time
	log      *zap.Logger
}

// NewRouter 创建路由器
//
// gatherer和feed可以为nil，此时对应路由不挂载。
func NewRouter(cfg Config, ctrl Controller, gatherer prometheus.Gatherer, feed http.Handler, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 2 * time.Second
	}

	switch cfg.Mode {
	case "production", gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	router := &Router{
		engine:   engine,
		cfg:      cfg,
		match:    NewMatchHandler(ctrl, cfg.CommandTimeout, log),
		gatherer: gatherer,
		feed:     feed,
		started:  time.Now(),
		log:      log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	if r.gatherer != nil && r.cfg.MetricsPath != "" {
		r.engine.GET(r.cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		m := v1.Group("/match")
		{
			m.GET("", r.match.Get)
			m.POST("/start", r.match.Start)
			m.POST("/pause", r.match.Pause)
			m.POST("/reset", r.match.Reset)
			m.POST("/mode", r.match.SetMode)
			m.POST("/over", r.match.Over)
			m.POST("/boards/:player/damage", r.match.Damage)
			m.POST("/boards/:player/swap", r.match.Swap)
		}
	}

	// 观战推送
	if r.feed != nil && r.cfg.WebSocketPath != "" {
		r.engine.GET(r.cfg.WebSocketPath, gin.WrapH(r.feed))
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		appErr := apperrors.New(apperrors.ErrNotFound, "接口不存在: "+c.Request.URL.Path)
		c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, middleware.GetRequestID(c)))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	snap := r.match.ctrl.Latest()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"message":  "服务运行正常",
		"uptime":   time.Since(r.started).String(),
		"state":    snap.State,
		"match_id": snap.MatchID,
	})
}

// Handler 返回http.Handler，供http.Server使用
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
