package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wfunc/jewel-duel/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.Logger
	once   sync.Once
	mu     sync.RWMutex
	level  = zap.NewAtomicLevel()

	// 模块日志器
	moduleLoggers map[string]*zap.Logger
)

// Init 初始化日志系统
func Init(cfg *config.LogConfig) error {
	var err error
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		moduleLoggers = make(map[string]*zap.Logger)
		level.SetLevel(parseLevel(cfg.Level))

		encoder := newEncoder(cfg.Format)

		var cores []zapcore.Core

		// 控制台输出
		if cfg.Output == "stdout" || cfg.Output == "both" || cfg.Output == "" {
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
		}

		// 文件输出
		if cfg.Output == "file" || cfg.Output == "both" {
			logDir := cfg.File.Path
			if err = os.MkdirAll(logDir, 0755); err != nil {
				return
			}

			// 创建文件写入器（支持日志轮转）
			fileWriter := &lumberjack.Logger{
				Filename:   filepath.Join(logDir, cfg.File.Filename),
				MaxSize:    cfg.File.MaxSize,    // MB
				MaxAge:     cfg.File.MaxAge,     // days
				MaxBackups: cfg.File.MaxBackups, // 保留文件数
				Compress:   cfg.File.Compress,   // 是否压缩
			}
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileWriter), level))

			// 错误日志单独落盘
			errorWriter := &lumberjack.Logger{
				Filename:   filepath.Join(logDir, "error.log"),
				MaxSize:    cfg.File.MaxSize,
				MaxAge:     cfg.File.MaxAge,
				MaxBackups: cfg.File.MaxBackups,
				Compress:   cfg.File.Compress,
			}
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(errorWriter), zapcore.ErrorLevel))
		}

		logger = zap.New(
			zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)

		// 初始化模块日志器
		for module, levelStr := range cfg.Modules {
			moduleCore := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), parseLevel(levelStr))
			moduleLoggers[module] = zap.New(moduleCore, zap.AddCaller()).Named(module)
		}
	})

	return err
}

// newEncoder 根据格式选择编码器
func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// parseLevel 解析日志级别
func parseLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetLogger 获取日志器
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		// 如果未初始化，使用默认配置
		defaultLogger, _ := zap.NewProduction()
		return defaultLogger
	}
	return logger
}

// GetModuleLogger 获取模块日志器
func GetModuleLogger(module string) *zap.Logger {
	mu.RLock()
	moduleLogger, ok := moduleLoggers[module]
	mu.RUnlock()

	if ok {
		return moduleLogger
	}
	// 如果模块日志器不存在，返回默认日志器
	return GetLogger().Named(module)
}

// Sync 同步日志缓冲区
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()

	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// Debug 输出调试日志
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info 输出信息日志
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn 输出警告日志
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error 输出错误日志
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal 输出致命错误日志并退出程序
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogRequest 记录请求日志
func LogRequest(method, path string, statusCode int, latency time.Duration, clientIP string) {
	GetModuleLogger("http").Info("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", statusCode),
		zap.Duration("latency", latency),
		zap.String("client_ip", clientIP),
	)
}

// LogError 记录错误日志（带堆栈）
func LogError(err error, msg string, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	GetLogger().Error(msg, fields...)
}

// LogPanic 记录panic日志
func LogPanic(recovered interface{}, stack []byte) {
	GetLogger().Error("panic recovered",
		zap.Any("panic", recovered),
		zap.ByteString("stack", stack),
	)
}

// LogGameEvent 记录对局事件
func LogGameEvent(event string, matchID string, data map[string]interface{}) {
	GetModuleLogger("game").Info("game_event",
		zap.String("event", event),
		zap.String("match_id", matchID),
		zap.Any("data", data),
	)
}

// SetLevel 动态设置日志级别
func SetLevel(levelStr string) {
	level.SetLevel(parseLevel(levelStr))
}

// Cleanup 清理日志资源
func Cleanup() {
	if err := Sync(); err != nil {
		fmt.Printf("Failed to sync logger: %v\n", err)
	}
}
