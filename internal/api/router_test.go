package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game"
	"github.com/wfunc/jewel-duel/internal/game/board"
	"go.uber.org/zap"
)

// directController 在调用方协程上直接执行命令
type directController struct {
	g *game.Game
}

func (d *directController) Do(_ context.Context, fn func(g *game.Game) error) error {
	return fn(d.g)
}

func (d *directController) Latest() game.Snapshot {
	return d.g.Snapshot()
}

func newTestRouter(t *testing.T) (*Router, *game.Game) {
	t.Helper()
	gen := board.NewGenerator(board.DefaultGeneratorConfig(), board.NewSeededSource(11), zap.NewNop())
	g := game.New(game.ModeMultiplayer, game.WithGenerator(gen), game.WithCountdown(0.1))
	g.SetBoards(
		board.New(board.PlayerConfig("p1", g.Rows(), g.Cols(), 100), nil),
		board.New(board.PlayerConfig("p2", g.Rows(), g.Cols(), 100), nil),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"}))
	feed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	r := NewRouter(Config{Mode: gin.TestMode, MetricsPath: "/metrics", WebSocketPath: "/ws"},
		&directController{g: g}, reg, feed, nil)
	return r, g
}

func doRequest(r *Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) game.Snapshot {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code apperrors.ErrorCode `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error.Code
}

// startPlaying 开局并推进到对局中
func startPlaying(t *testing.T, r *Router, g *game.Game) {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/v1/match/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, g.Step(0.2, 0.2))
	require.True(t, g.IsStarted())
}

func TestRouter_HealthMetricsAndFeed(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.Contains(t, w.Body.String(), `"idle"`)

	w = doRequest(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_total")

	w = doRequest(r, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusTeapot, w.Code)

	w = doRequest(r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrNotFound, decodeError(t, w))
}

func TestMatch_Lifecycle(t *testing.T) {
	r, g := newTestRouter(t)

	snap := decodeSnapshot(t, doRequest(r, http.MethodGet, "/api/v1/match", ""))
	assert.Equal(t, game.StateIdle, snap.State)

	snap = decodeSnapshot(t, doRequest(r, http.MethodPost, "/api/v1/match/start", ""))
	assert.Equal(t, game.StateCounting, snap.State)
	assert.NotEmpty(t, snap.MatchID)
	require.Len(t, snap.Boards, 2)
	assert.Equal(t, snap.Boards[0].Layout, snap.Boards[1].Layout)

	snap = decodeSnapshot(t, doRequest(r, http.MethodPost, "/api/v1/match/pause", `{"paused":true}`))
	assert.True(t, snap.Paused)
	require.NoError(t, g.Step(0.2, 0.2))
	assert.False(t, g.IsStarted())

	snap = decodeSnapshot(t, doRequest(r, http.MethodPost, "/api/v1/match/pause", `{"paused":false}`))
	assert.False(t, snap.Paused)

	snap = decodeSnapshot(t, doRequest(r, http.MethodPost, "/api/v1/match/over", `{"winner":"p2"}`))
	assert.True(t, snap.Over)
	assert.Equal(t, game.PlayerTwo, snap.Winner)

	snap = decodeSnapshot(t, doRequest(r, http.MethodPost, "/api/v1/match/reset", ""))
	assert.Equal(t, game.StateIdle, snap.State)
	assert.False(t, snap.Over)
	assert.Empty(t, snap.Winner)
}

func TestMatch_SetMode(t *testing.T) {
	r, g := newTestRouter(t)

	doRequest(r, http.MethodPost, "/api/v1/match/mode", `{"mode":"singleplayer"}`)
	assert.Equal(t, game.ModeSingleplayer, g.Mode())
	assert.NotNil(t, g.Opponent())

	doRequest(r, http.MethodPost, "/api/v1/match/mode", `{"mode":"multiplayer"}`)
	assert.Nil(t, g.Opponent())
}

func TestMatch_Damage(t *testing.T) {
	r, g := newTestRouter(t)
	startPlaying(t, r, g)

	snap := decodeSnapshot(t, doRequest(r, http.MethodPost, "/api/v1/match/boards/p1/damage", `{"amount":40}`))
	assert.Equal(t, 60.0, snap.Boards[0].Health)
	assert.Equal(t, 100.0, snap.Boards[1].Health)

	// 血量归零后下一帧判负
	doRequest(r, http.MethodPost, "/api/v1/match/boards/p1/damage", `{"amount":100}`)
	require.NoError(t, g.Step(0.4, 0.2))
	winner, over := g.Winner()
	assert.True(t, over)
	assert.Equal(t, game.PlayerTwo, winner)
}

func TestMatch_Swap(t *testing.T) {
	r, g := newTestRouter(t)
	startPlaying(t, r, g)

	b, err := g.Board(game.PlayerOne)
	require.NoError(t, err)
	move, ok := board.FindMove(b.Layout(), g.Rows(), g.Cols())
	require.True(t, ok)

	body, _ := json.Marshal(map[string]int{"from": move.From, "to": move.To})
	snap := decodeSnapshot(t, doRequest(r, http.MethodPost, "/api/v1/match/boards/p1/swap", string(body)))
	assert.True(t, snap.Boards[0].ReadyToRefill)
	assert.False(t, snap.Boards[1].ReadyToRefill)

	// 下一帧补充空位
	require.NoError(t, g.Step(0.4, 0.2))
	assert.False(t, b.ReadyToRefill())
	assert.Empty(t, b.Layout().Gaps())
}

func TestMatch_Errors(t *testing.T) {
	r, g := newTestRouter(t)

	testCases := []struct {
		name       string
		path       string
		body       string
		prepare    func()
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"未知玩家", "/api/v1/match/boards/p3/damage", `{"amount":1}`, nil, http.StatusBadRequest, apperrors.ErrInvalidPlayer},
		{"负数伤害", "/api/v1/match/boards/p1/damage", `{"amount":-1}`, nil, http.StatusBadRequest, apperrors.ErrInvalidParam},
		{"缺少paused", "/api/v1/match/pause", `{}`, nil, http.StatusBadRequest, apperrors.ErrInvalidParam},
		{"非法胜者", "/api/v1/match/over", `{"winner":"nobody"}`, nil, http.StatusBadRequest, apperrors.ErrInvalidPlayer},
		{"未开局交换", "/api/v1/match/boards/p1/swap", `{"from":0,"to":1}`, nil, http.StatusConflict, apperrors.ErrGameNotStarted},
		{"非法交换", "/api/v1/match/boards/p1/swap", `{"from":0,"to":9}`, func() { startPlaying(t, r, g) }, http.StatusBadRequest, apperrors.ErrInvalidSwap},
		{"结束后交换", "/api/v1/match/boards/p1/swap", `{"from":0,"to":1}`, func() { g.GameOver(game.PlayerOne) }, http.StatusConflict, apperrors.ErrGameOver},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.prepare != nil {
				tc.prepare()
			}
			w := doRequest(r, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, w))
		})
	}
}

func TestMatch_StartLayoutFailure(t *testing.T) {
	gen := board.NewGenerator(board.GeneratorConfig{JewelTypes: 3, MaxAttempts: 1, RequirePossibleMove: true}, constSource{}, zap.NewNop())
	g := game.New(game.ModeMultiplayer, game.WithGenerator(gen))
	r := NewRouter(Config{Mode: gin.TestMode}, &directController{g: g}, nil, nil, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/match/start", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrLayoutNotConverged, decodeError(t, w))
	assert.Equal(t, game.StateIdle, g.State())
}

// constSource 始终返回0的随机源
type constSource struct{}

func (constSource) Intn(int) int { return 0 }
