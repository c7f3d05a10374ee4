package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/wfunc/jewel-duel/internal/api"
	"github.com/wfunc/jewel-duel/internal/config"
	"github.com/wfunc/jewel-duel/internal/engine"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game"
	"github.com/wfunc/jewel-duel/internal/game/board"
	"github.com/wfunc/jewel-duel/internal/game/match"
	"github.com/wfunc/jewel-duel/internal/logger"
	"github.com/wfunc/jewel-duel/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	game   *game.Game
	loop   *engine.Loop
	hub    *websocket.Hub
	router *api.Router
	http   *http.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	printStartInfo(cfg)

	server, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("服务器初始化失败", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.LogError(err, "服务器关闭失败")
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 按配置组装对局、驱动、观战推送和HTTP路由
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.GetLogger()
	gc := cfg.Game

	evaluator, err := match.NewEvaluator(gc.TieBreak)
	if err != nil {
		return nil, err
	}

	generator := board.NewGenerator(board.GeneratorConfig{
		JewelTypes:          gc.JewelTypes,
		MaxAttempts:         gc.MaxGenerateAttempts,
		RequirePossibleMove: gc.RequirePossibleMove,
	}, board.NewSource(gc.Seed), logger.GetModuleLogger("generator"))

	g := game.New(gc.Mode,
		game.WithBoardSize(gc.Rows, gc.Cols),
		game.WithCountdown(gc.Countdown),
		game.WithOpponentInterval(gc.OpponentMoveInterval),
		game.WithGenerator(generator),
		game.WithEvaluator(evaluator),
		game.WithLogger(logger.GetModuleLogger("game")),
	)
	boardLogger := logger.GetModuleLogger("board")
	g.SetBoards(
		board.New(board.PlayerConfig(string(game.PlayerOne), gc.Rows, gc.Cols, gc.BoardHealth), boardLogger),
		board.New(board.PlayerConfig(string(game.PlayerTwo), gc.Rows, gc.Cols, gc.BoardHealth), boardLogger),
	)

	wc := cfg.WebSocket
	hub := websocket.NewHub(websocket.Options{
		ReadBufferSize:  wc.ReadBufferSize,
		WriteBufferSize: wc.WriteBufferSize,
		PingInterval:    wc.PingInterval,
		PongTimeout:     wc.PongTimeout,
		WriteTimeout:    wc.WriteTimeout,
	}, logger.GetModuleLogger("websocket"))

	var publisher engine.Publisher
	if wc.Enabled {
		publisher = hub
	}

	metrics := engine.NewMetrics()
	loop := engine.New(g, engine.Config{
		TickRate:         gc.TickRate,
		MaxStepsPerFrame: gc.MaxStepsPerFrame,
		BroadcastEvery:   wc.BroadcastEvery,
	}, metrics, publisher, logger.GetModuleLogger("engine"))

	routerCfg := api.Config{Mode: cfg.Server.Mode}
	if cfg.Monitor.Enabled {
		routerCfg.MetricsPath = cfg.Monitor.MetricsPath
	}
	var feed http.Handler
	if wc.Enabled {
		routerCfg.WebSocketPath = wc.Path
		feed = hub
	}
	router := api.NewRouter(routerCfg, loop, metrics.Registry(), feed, logger.GetModuleLogger("http"))

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: log,
		game:   g,
		loop:   loop,
		hub:    hub,
		router: router,
		http: &http.Server{
			Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:      router.Handler(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动宝石对决服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
		zap.String("game_mode", s.game.Mode()),
	)

	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "监听端口失败")
	}

	if s.cfg.WebSocket.Enabled {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.hub.Run(s.ctx)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.loop.Run(s.ctx); err != nil {
			logger.LogError(err, "驱动循环退出")
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "HTTP服务异常退出", zap.String("addr", s.http.Addr))
		}
	}()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.http.Addr),
		zap.Bool("websocket", s.cfg.WebSocket.Enabled),
		zap.Duration("tick_rate", s.cfg.Game.TickRate))
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	// 停止接收新请求
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	// 取消主上下文，触发所有goroutine退出
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	return nil
}

// reloadConfig 应用可热更新的配置，对局参数在重启后生效
//
// s.cfg是启动时的配置，启动后只读。热更新后的值通过config.Get读取。
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)

	if newCfg.Game != s.cfg.Game {
		s.logger.Warn("对局配置已变更，重启后生效")
	}

	s.logger.Info("配置重新加载完成", zap.String("log_level", newCfg.Log.Level))
}

// shutdownTimeout 优雅关闭超时，优先使用热更新后的配置
func (s *Server) shutdownTimeout() time.Duration {
	if cfg := config.Get(); cfg != nil && cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return s.cfg.Server.ShutdownTimeout
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("宝石对决服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("宝石对决服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  jewel-duel-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  JEWEL_DUEL_GAME_MODE   对局模式 (multiplayer/singleplayer)")
	fmt.Println("  JEWEL_DUEL_GAME_SEED   随机种子，0表示加密随机源")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  jewel-duel-server -config=/path/to/config.yaml")
	fmt.Println("  jewel-duel-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                         宝石对决服务器")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("棋盘: %dx%d | 对局模式: %s | 平局策略: %s\n",
		cfg.Game.Rows, cfg.Game.Cols, cfg.Game.Mode, cfg.Game.TieBreak)
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
