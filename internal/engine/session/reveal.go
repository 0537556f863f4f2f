package session

import (
	"math"
	"time"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/engine/grid"
	"github.com/playleap/challenge-arena/internal/logger"
	"github.com/playleap/challenge-arena/internal/scoring"
)

// 配对玩法的翻牌协议。
// 配对与否只由服务端比对决定，客户端只渲染下发的权威事件；
// 固化/翻回前的延迟只为各端动画同步，不承载玩法逻辑。

const matchBasePoints = 10 // 每对配对成功的基础分

// RevealCell 当前回合玩家翻开一个格子
func (s *Session) RevealCell(playerID string, cell int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying || s.grid == nil {
		return apperrors.ErrInvalidPhase
	}
	if playerID != s.currentOwnerLocked() {
		return apperrors.ErrNotYourTurn
	}
	// 比对窗口期间禁止继续翻
	if s.turnPhase == TurnResolving {
		return apperrors.ErrInvalidPhase
	}

	first, second, err := s.grid.Reveal(cell)
	if err != nil {
		return err
	}

	c, _ := s.grid.Cell(cell)
	s.emitLocked(CellRevealed{
		Turn:      s.turn,
		OwnerID:   playerID,
		Cell:      cell,
		ContentID: c.ContentID,
		Name:      c.Name,
	})

	if !second {
		return nil
	}

	// 第二张落定，进入权威比对
	s.turnPhase = TurnResolving
	s.stopTimersLocked() // 比对窗口不受回合计时干扰，之后重开

	if s.grid.Matched(first, cell) {
		s.grid.MarkPending(first, cell)
		s.emitLocked(MatchDetected{
			Turn:    s.turn,
			OwnerID: playerID,
			CellA:   first,
			CellB:   cell,
			PairID:  s.grid.PairID(cell),
		})
		a, b := first, cell
		time.AfterFunc(s.cfg.MatchPersistDelay, func() {
			s.persistMatch(playerID, a, b)
		})
		return nil
	}

	a, b := first, cell
	time.AfterFunc(s.cfg.MismatchHideDelay, func() {
		s.hideMismatch(playerID, a, b)
	})
	return nil
}

// persistMatch 固化配对：加分、连胜、同一玩家继续本回合
func (s *Session) persistMatch(playerID string, a, b int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return // 会话已终局，延迟动作作废
	}
	ca, err := s.grid.Cell(a)
	if err != nil || ca.State != grid.StateMatchPending {
		return // 状态已被推进，幂等丢弃
	}

	s.grid.Persist(a, b)
	pairID := s.grid.PairID(a)

	p, err := s.reg.Get(playerID)
	if err != nil {
		return
	}

	s.reg.BumpStreak(playerID, pairID)

	// 连续配对沿用同一套连胜规则：先乘后加
	points := matchBasePoints
	if s.cfg.StreakThreshold > 0 && p.Streak >= s.cfg.StreakThreshold {
		points = int(math.Round(float64(points)*scoring.StreakMultiplier)) + scoring.StreakFlatBonus
	}
	s.reg.AddScore(playerID, points)

	s.emitLocked(MatchPersisted{
		OwnerID:  playerID,
		CellA:    a,
		CellB:    b,
		PairID:   pairID,
		Points:   points,
		NewScore: p.Score,
		Streak:   p.Streak,
	})

	logger.Infof("🧩 会话 %s：%s 配对成功 %s（+%d 分）", s.ID, p.Name, pairID, points)

	if s.grid.AllPersisted() || s.victoryReachedLocked() {
		s.finishLocked("victory")
		return
	}

	// 配对成功奖励一次延续：同一玩家继续，重开计时
	s.turnPhase = TurnIdle
	s.resetTurnTimerLocked()
}

// hideMismatch 未配对的两张翻回，连胜清零，回合转给下一位
func (s *Session) hideMismatch(playerID string, a, b int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return
	}
	ca, err := s.grid.Cell(a)
	if err != nil || ca.State != grid.StateRevealed {
		return
	}

	s.grid.Hide(a, b)
	s.reg.ResetStreak(playerID)
	s.emitLocked(CellsHidden{Cells: []int{a, b}})

	s.openTurnLocked(true)
}
