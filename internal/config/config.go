package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
)

// 平局判定策略
const (
	TieBreakFirstChecked = "first_checked" // 先检查的一方判负（p1先检查）
	TieBreakDraw         = "draw"          // 双方同时归零判平局
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Log       LogConfig       `mapstructure:"log"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WebSocketConfig 观战推送配置
type WebSocketConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	BroadcastEvery  int           `mapstructure:"broadcast_every"` // 每N帧推送一次快照
}

// GameConfig 对局配置
type GameConfig struct {
	Mode                 string        `mapstructure:"mode"`
	Rows                 int           `mapstructure:"rows"`
	Cols                 int           `mapstructure:"cols"`
	Countdown            float64       `mapstructure:"countdown"`               // 开局倒计时（秒）
	JewelTypes           int           `mapstructure:"jewel_types"`             // 参与随机的宝石种类数
	MaxGenerateAttempts  int           `mapstructure:"max_generate_attempts"`   // 布局生成最大重试次数
	RequirePossibleMove  bool          `mapstructure:"require_possible_move"`   // 布局必须至少存在一步可消除的交换
	Seed                 int64         `mapstructure:"seed"`                    // 随机种子，0表示使用加密随机源
	TieBreak             string        `mapstructure:"tie_break"`               // 平局判定策略
	BoardHealth          float64       `mapstructure:"board_health"`            // 棋盘初始血量
	OpponentMoveInterval float64       `mapstructure:"opponent_move_interval"`  // 单机对手出手间隔（秒）
	TickRate             time.Duration `mapstructure:"tick_rate"`               // 固定步长
	MaxStepsPerFrame     int           `mapstructure:"max_steps_per_frame"`     // 单次唤醒最多追帧数
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// MonitorConfig 监控配置
type MonitorConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("JEWEL_DUEL")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				err = apperrors.Wrap(err, apperrors.ErrConfigLoad)
				return
			}
			err = nil
		}

		var loaded *Config
		if loaded, err = decode(v); err != nil {
			return
		}
		cfg = loaded
	})

	return err
}

// Load 从指定viper实例解析配置（不影响全局配置）
func Load(vp *viper.Viper) (*Config, error) {
	setDefaults(vp)
	return decode(vp)
}

// decode 解析并校验配置
func decode(vp *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := vp.Unmarshal(c); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfigParse)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// WebSocket默认配置
	v.SetDefault("websocket.enabled", true)
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.broadcast_every", 6)

	// 对局默认配置
	v.SetDefault("game.mode", "multiplayer")
	v.SetDefault("game.rows", 8)
	v.SetDefault("game.cols", 8)
	v.SetDefault("game.countdown", 5.0)
	v.SetDefault("game.jewel_types", 6)
	v.SetDefault("game.max_generate_attempts", 1000)
	v.SetDefault("game.require_possible_move", true)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.tie_break", TieBreakFirstChecked)
	v.SetDefault("game.board_health", 100.0)
	v.SetDefault("game.opponent_move_interval", 5.0)
	v.SetDefault("game.tick_rate", "16ms")
	v.SetDefault("game.max_steps_per_frame", 5)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "jewel-duel.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	// 监控默认配置
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.metrics_path", "/metrics")
}

// Validate 校验配置
func (c *Config) Validate() error {
	g := c.Game
	if g.Rows <= 0 || g.Cols <= 0 {
		return apperrors.Newf(apperrors.ErrConfigValidate, "棋盘尺寸必须为正数: rows=%d cols=%d", g.Rows, g.Cols)
	}
	if g.JewelTypes < 3 || g.JewelTypes > 6 {
		return apperrors.Newf(apperrors.ErrConfigValidate, "jewel_types必须在3到6之间: %d", g.JewelTypes)
	}
	if g.Countdown < 0 {
		return apperrors.Newf(apperrors.ErrConfigValidate, "countdown不能为负数: %v", g.Countdown)
	}
	if g.MaxGenerateAttempts <= 0 {
		return apperrors.Newf(apperrors.ErrConfigValidate, "max_generate_attempts必须为正数: %d", g.MaxGenerateAttempts)
	}
	if g.TieBreak != TieBreakFirstChecked && g.TieBreak != TieBreakDraw {
		return apperrors.Newf(apperrors.ErrConfigValidate, "未知的平局策略: %s", g.TieBreak)
	}
	if g.TickRate <= 0 {
		return apperrors.Newf(apperrors.ErrConfigValidate, "tick_rate必须为正数: %s", g.TickRate)
	}
	if g.MaxStepsPerFrame <= 0 {
		return apperrors.Newf(apperrors.ErrConfigValidate, "max_steps_per_frame必须为正数: %d", g.MaxStepsPerFrame)
	}
	if g.BoardHealth <= 0 {
		return apperrors.Newf(apperrors.ErrConfigValidate, "board_health必须为正数: %v", g.BoardHealth)
	}
	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg, err := decode(v)
		if err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}

		fmt.Println("配置已重新加载", e.Name)
	})
}
