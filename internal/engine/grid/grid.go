package grid

import (
	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
)

// 配对玩法的格子状态机。
// Grid 自身不带锁：所有变更都必须经由会话权威串行执行。

// CellState 格子状态
type CellState int

const (
	StateNone         CellState = iota // 背面朝上
	StateRevealed                      // 单张翻开，未确认
	StateMatchPending                  // 两张已翻开，等待比对固化
	StatePersisted                     // 配对确认，本局不可再动
)

// String 用于事件与快照下发
func (s CellState) String() string {
	switch s {
	case StateRevealed:
		return "revealed"
	case StateMatchPending:
		return "match_pending"
	case StatePersisted:
		return "persisted"
	default:
		return "none"
	}
}

// Cell 一个格子
type Cell struct {
	Index     int
	ContentID string
	Name      string
	PairID    string
	State     CellState
}

// Grid 整张配对网格
type Grid struct {
	cells    []Cell
	firstIdx int // 本回合第一张翻开的格子，-1 表示没有
}

// New 由配对内容构建网格。perm 是注入的洗牌排列（下标 → 内容序号），
// 随机性由调用方控制，测试可注入固定排列。
func New(contents []catalog.PairContent, perm []int) *Grid {
	cells := make([]Cell, len(contents))
	for i, src := range perm {
		c := contents[src]
		cells[i] = Cell{
			Index:     i,
			ContentID: c.ID,
			Name:      c.Name,
			PairID:    c.Pair,
		}
	}
	return &Grid{cells: cells, firstIdx: -1}
}

// Cells 返回格子副本
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Cell 按下标取格子
func (g *Grid) Cell(i int) (Cell, error) {
	if i < 0 || i >= len(g.cells) {
		return Cell{}, apperrors.ErrInvalidPhase
	}
	return g.cells[i], nil
}

// Reveal 翻开一个格子。
// 返回本回合已翻开的第一张下标（若本次是第二张）。
// persisted 的格子永远拒绝，这是终态不变量。
func (g *Grid) Reveal(i int) (first int, second bool, err error) {
	if i < 0 || i >= len(g.cells) {
		return -1, false, apperrors.ErrInvalidPhase
	}
	c := &g.cells[i]
	switch c.State {
	case StatePersisted:
		return -1, false, apperrors.ErrCardAlreadyPersisted
	case StateRevealed, StateMatchPending:
		return -1, false, apperrors.ErrInvalidPhase
	}

	c.State = StateRevealed
	if g.firstIdx == -1 {
		g.firstIdx = i
		return -1, false, nil
	}

	first = g.firstIdx
	g.firstIdx = -1
	return first, true, nil
}

// Matched 两个格子是否构成一对
func (g *Grid) Matched(a, b int) bool {
	return g.cells[a].PairID == g.cells[b].PairID
}

// MarkPending 两张进入待固化状态
func (g *Grid) MarkPending(a, b int) {
	g.cells[a].State = StateMatchPending
	g.cells[b].State = StateMatchPending
}

// Persist 固化配对。只能从 match_pending 进入，这里是唯一入口。
func (g *Grid) Persist(a, b int) {
	if g.cells[a].State == StateMatchPending {
		g.cells[a].State = StatePersisted
	}
	if g.cells[b].State == StateMatchPending {
		g.cells[b].State = StatePersisted
	}
}

// Hide 未配对的两张翻回背面
func (g *Grid) Hide(a, b int) {
	if g.cells[a].State != StatePersisted {
		g.cells[a].State = StateNone
	}
	if g.cells[b].State != StatePersisted {
		g.cells[b].State = StateNone
	}
}

// ClearTurn 回合中断（跳过/超时）时，把尚未进入比对的已翻开格子翻回
func (g *Grid) ClearTurn() []int {
	var cleared []int
	if g.firstIdx >= 0 {
		g.cells[g.firstIdx].State = StateNone
		cleared = append(cleared, g.firstIdx)
		g.firstIdx = -1
	}
	return cleared
}

// PairID 取格子的配对 ID
func (g *Grid) PairID(i int) string {
	return g.cells[i].PairID
}

// AllPersisted 是否全部配对完成
func (g *Grid) AllPersisted() bool {
	for _, c := range g.cells {
		if c.State != StatePersisted {
			return false
		}
	}
	return true
}

// PersistedCount 已固化格子数
func (g *Grid) PersistedCount() int {
	n := 0
	for _, c := range g.cells {
		if c.State == StatePersisted {
			n++
		}
	}
	return n
}
