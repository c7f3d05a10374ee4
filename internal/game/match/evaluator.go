package match

import (
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
)

// 玩家标识
const (
	PlayerOne = "p1"
	PlayerTwo = "p2"
	Draw      = "draw"
)

// 平局判定策略
const (
	TieBreakFirstChecked = "first_checked"
	TieBreakDraw         = "draw"
)

// Verdict 胜负判定结果
type Verdict struct {
	Decided bool   `json:"decided"`
	Winner  string `json:"winner,omitempty"`
	Draw    bool   `json:"draw"`
}

// Evaluator 根据双方血量判定胜负
type Evaluator struct {
	tieBreak string
}

// NewEvaluator 创建判定器，未知策略返回错误
func NewEvaluator(tieBreak string) (*Evaluator, error) {
	switch tieBreak {
	case "":
		tieBreak = TieBreakFirstChecked
	case TieBreakFirstChecked, TieBreakDraw:
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "未知的平局策略: %s", tieBreak)
	}
	return &Evaluator{tieBreak: tieBreak}, nil
}

// TieBreak 当前平局策略
func (e *Evaluator) TieBreak() string {
	return e.tieBreak
}

// Evaluate 判定胜负，a为p1血量，b为p2血量
// first_checked 策略下先检查p1，p1归零即判p2胜
func (e *Evaluator) Evaluate(a, b float64) Verdict {
	aDown, bDown := a <= 0, b <= 0

	switch {
	case aDown && bDown && e.tieBreak == TieBreakDraw:
		return Verdict{Decided: true, Winner: Draw, Draw: true}
	case aDown:
		return Verdict{Decided: true, Winner: PlayerTwo}
	case bDown:
		return Verdict{Decided: true, Winner: PlayerOne}
	default:
		return Verdict{}
	}
}
