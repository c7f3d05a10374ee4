package board

import (
	apperrors "github.com/wfunc/jewel-duel/internal/errors"
)

// NoChange 补丁中表示该格保持不变
const NoChange JewelType = -1

// MinMatch 构成消除的最少连续数量
const MinMatch = 3

// Layout 行优先展开的棋盘布局
type Layout []JewelType

// Patch 与Layout等长，NoChange以外的格子会被覆盖
type Patch []JewelType

// Run 一段连续的同类宝石
type Run struct {
	Type       JewelType `json:"type"`
	Start      int       `json:"start"`  // 起始下标
	Length     int       `json:"length"` // 连续数量
	Horizontal bool      `json:"horizontal"`
}

// Indices 返回该段覆盖的下标
func (r Run) Indices(cols int) []int {
	step := cols
	if r.Horizontal {
		step = 1
	}
	indices := make([]int, r.Length)
	for i := range indices {
		indices[i] = r.Start + i*step
	}
	return indices
}

// Move 一次交换
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Index 行列转下标
func Index(row, col, cols int) int {
	return row*cols + col
}

// Coord 下标转行列
func Coord(ind, cols int) (row, col int) {
	return ind / cols, ind % cols
}

// Adjacent 判断两个下标是否上下左右相邻
func Adjacent(a, b, cols int) bool {
	ar, ac := Coord(a, cols)
	br, bc := Coord(b, cols)
	switch {
	case ar == br:
		return ac-bc == 1 || bc-ac == 1
	case ac == bc:
		return ar-br == 1 || br-ar == 1
	default:
		return false
	}
}

// Validate 校验布局尺寸
func (l Layout) Validate(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidLayout, "rows=%d cols=%d", rows, cols)
	}
	if len(l) != rows*cols {
		return apperrors.Newf(apperrors.ErrInvalidLayout, "长度%d与%dx%d不符", len(l), rows, cols)
	}
	return nil
}

// Clone 复制布局
func (l Layout) Clone() Layout {
	if l == nil {
		return nil
	}
	out := make(Layout, len(l))
	copy(out, l)
	return out
}

// Apply 将补丁写入布局
func (l Layout) Apply(p Patch) {
	for i, t := range p {
		if i >= len(l) {
			return
		}
		if t != NoChange {
			l[i] = t
		}
	}
}

// Gaps 返回所有空位下标
func (l Layout) Gaps() []int {
	var gaps []int
	for i, t := range l {
		if t == Empty {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

// FindRuns 查找所有长度不小于MinMatch的横向和纵向连续段，空位不参与
//
// 布局尺寸与rows*cols不符时返回nil。
func FindRuns(l Layout, rows, cols int) []Run {
	if l.Validate(rows, cols) != nil {
		return nil
	}
	var runs []Run

	// 横向扫描
	for row := 0; row < rows; row++ {
		start := 0
		for col := 1; col <= cols; col++ {
			if col < cols && l[Index(row, col, cols)] == l[Index(row, start, cols)] {
				continue
			}
			if n := col - start; n >= MinMatch && l[Index(row, start, cols)] != Empty {
				runs = append(runs, Run{
					Type:       l[Index(row, start, cols)],
					Start:      Index(row, start, cols),
					Length:     n,
					Horizontal: true,
				})
			}
			start = col
		}
	}

	// 纵向扫描
	for col := 0; col < cols; col++ {
		start := 0
		for row := 1; row <= rows; row++ {
			if row < rows && l[Index(row, col, cols)] == l[Index(start, col, cols)] {
				continue
			}
			if n := row - start; n >= MinMatch && l[Index(start, col, cols)] != Empty {
				runs = append(runs, Run{
					Type:   l[Index(start, col, cols)],
					Start:  Index(start, col, cols),
					Length: n,
				})
			}
			start = row
		}
	}

	return runs
}

// HasMatch 布局中是否已存在可消除的连续段，尺寸不符时返回false
func HasMatch(l Layout, rows, cols int) bool {
	if l.Validate(rows, cols) != nil {
		return false
	}
	for ind := range l {
		if matchAt(l, rows, cols, ind) {
			return true
		}
	}
	return false
}

// matchAt 判断经过ind的横向或纵向连续段是否构成消除
func matchAt(l Layout, rows, cols, ind int) bool {
	t := l[ind]
	if t == Empty {
		return false
	}
	row, col := Coord(ind, cols)

	n := 1
	for c := col - 1; c >= 0 && l[Index(row, c, cols)] == t; c-- {
		n++
	}
	for c := col + 1; c < cols && l[Index(row, c, cols)] == t; c++ {
		n++
	}
	if n >= MinMatch {
		return true
	}

	n = 1
	for r := row - 1; r >= 0 && l[Index(r, col, cols)] == t; r-- {
		n++
	}
	for r := row + 1; r < rows && l[Index(r, col, cols)] == t; r++ {
		n++
	}
	return n >= MinMatch
}

// SwapCreatesMatch 判断交换两个格子后是否产生消除，不修改原布局
func SwapCreatesMatch(l Layout, rows, cols, a, b int) bool {
	if l.Validate(rows, cols) != nil || a < 0 || b < 0 || a >= len(l) || b >= len(l) {
		return false
	}
	if l[a] == l[b] || l[a] == Empty || l[b] == Empty {
		return false
	}
	l[a], l[b] = l[b], l[a]
	ok := matchAt(l, rows, cols, a) || matchAt(l, rows, cols, b)
	l[a], l[b] = l[b], l[a]
	return ok
}

// FindMove 按行优先顺序查找第一个能产生消除的相邻交换（先右后下）
//
// 布局尺寸与rows*cols不符时视为无可行交换。
func FindMove(l Layout, rows, cols int) (Move, bool) {
	if l.Validate(rows, cols) != nil {
		return Move{}, false
	}
	for ind := range l {
		row, col := Coord(ind, cols)
		if col+1 < cols {
			if right := Index(row, col+1, cols); SwapCreatesMatch(l, rows, cols, ind, right) {
				return Move{From: ind, To: right}, true
			}
		}
		if row+1 < rows {
			if down := Index(row+1, col, cols); SwapCreatesMatch(l, rows, cols, ind, down) {
				return Move{From: ind, To: down}, true
			}
		}
	}
	return Move{}, false
}

// HasPossibleMove 布局中是否至少存在一步合法交换
func HasPossibleMove(l Layout, rows, cols int) bool {
	_, ok := FindMove(l, rows, cols)
	return ok
}
