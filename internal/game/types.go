package game

import (
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
	"github.com/wfunc/jewel-duel/internal/game/board"
	"github.com/wfunc/jewel-duel/internal/game/match"
)

// PlayerID 玩家标识
type PlayerID string

const (
	PlayerOne PlayerID = match.PlayerOne
	PlayerTwo PlayerID = match.PlayerTwo
	Draw      PlayerID = match.Draw // 同时归零时的平局结果
)

// 对局模式
const (
	ModeMultiplayer  = "multiplayer"
	ModeSingleplayer = "singleplayer"
)

// ParsePlayer 解析棋盘所属玩家，只接受p1和p2
func ParsePlayer(s string) (PlayerID, error) {
	switch PlayerID(s) {
	case PlayerOne, PlayerTwo:
		return PlayerID(s), nil
	default:
		return "", apperrors.New(apperrors.ErrInvalidPlayer, s)
	}
}

// ParseWinner 解析胜者，额外接受draw
func ParseWinner(s string) (PlayerID, error) {
	if PlayerID(s) == Draw {
		return Draw, nil
	}
	return ParsePlayer(s)
}

// Board 外部棋盘引擎的句柄，对局只通过该接口访问棋盘
type Board interface {
	Player() string
	// Generate 写入整盘布局，preStarted表示开局信号之前写入
	Generate(layout board.Layout, preStarted bool) error
	// Start 开局信号
	Start()
	Reset()
	Layout() board.Layout
	Health() float64
	Damage(amount float64)
	ReadyToRefill() bool
	ClearRefill()
	Refill(patch board.Patch, fromRow int) error
	AttemptSwap(from, to int) bool
}

// BoardSnapshot 棋盘快照
type BoardSnapshot struct {
	Player        string       `json:"player"`
	Health        float64      `json:"health"`
	ReadyToRefill bool         `json:"ready_to_refill"`
	Layout        board.Layout `json:"layout"`
}

// Snapshot 对局快照，可直接序列化推送
type Snapshot struct {
	MatchID       string          `json:"match_id"`
	Mode          string          `json:"mode"`
	State         GameState       `json:"state"`
	Paused        bool            `json:"paused"`
	Started       bool            `json:"started"`
	Over          bool            `json:"over"`
	Winner        PlayerID        `json:"winner,omitempty"`
	TimeElapsed   float64         `json:"time_elapsed"`
	CountdownLeft float64         `json:"countdown_left"`
	Rows          int             `json:"rows"`
	Cols          int             `json:"cols"`
	OpponentMoves int             `json:"opponent_moves,omitempty"`
	Boards        []BoardSnapshot `json:"boards,omitempty"`
}
