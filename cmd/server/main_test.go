package main

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/jewel-duel/internal/config"
	"github.com/wfunc/jewel-duel/internal/logger"
)

func loadConfig(t *testing.T, overrides map[string]interface{}) *config.Config {
	t.Helper()
	vp := viper.New()
	for k, v := range overrides {
		vp.Set(k, v)
	}
	cfg, err := config.Load(vp)
	require.NoError(t, err)
	return cfg
}

func TestNewServer(t *testing.T) {
	s, err := NewServer(loadConfig(t, map[string]interface{}{"game.mode": "singleplayer", "server.port": 0}))
	require.NoError(t, err)

	assert.Equal(t, "singleplayer", s.game.Mode())
	assert.NotNil(t, s.game.Opponent())
	assert.Equal(t, "0.0.0.0:0", s.http.Addr)
	assert.Equal(t, 10*time.Second, s.shutdownTimeout())
}

func TestNewServer_InvalidTieBreak(t *testing.T) {
	cfg := loadConfig(t, nil)
	cfg.Game.TieBreak = "coin_flip"

	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestServer_ReloadConfigKeepsStartupConfig(t *testing.T) {
	startup := loadConfig(t, nil)
	s, err := NewServer(startup)
	require.NoError(t, err)

	reloaded := loadConfig(t, map[string]interface{}{
		"log.level":               "error",
		"game.rows":               10,
		"server.shutdown_timeout": "1s",
	})

	// 热更新与关闭流程并发读取配置
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.reloadConfig(reloaded)
	}()
	go func() {
		defer wg.Done()
		_ = s.shutdownTimeout()
	}()
	wg.Wait()

	assert.Same(t, startup, s.cfg, "启动配置保持只读")
	assert.Equal(t, 8, s.cfg.Game.Rows)
	logger.SetLevel("info")
}
