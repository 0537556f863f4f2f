package session

import (
	"time"

	"github.com/playleap/challenge-arena/internal/logger"
)

// 回合计时是会话里唯一的自主后台活动。
// 每次阶段切换都会作废旧计时器（epoch 自增），旧闭包迟到触发
// 即 TimerRace：记日志、静默丢弃，绝不让它推进已经前进了的会话。

// openTurnLocked 开启新回合。advance 为 true 时轮到下一位玩家。
func (s *Session) openTurnLocked(advanceOwner ...bool) {
	if len(advanceOwner) > 0 && advanceOwner[0] {
		s.currentIdx = (s.currentIdx + 1) % s.reg.Len()
	}
	s.turn++
	s.pending = nil

	switch s.Mode {
	case ModeMatchGrid:
		s.turnPhase = TurnIdle // 配对模式没有选牌阶段，直接等待翻格子
	default:
		s.refillCenterLocked()
		s.turnPhase = TurnSelectingChallenge
	}

	deadline := time.Now().Add(s.cfg.TurnTimeout)
	s.emitLocked(TurnStarted{
		Turn:     s.turn,
		OwnerID:  s.currentOwnerLocked(),
		Deadline: deadline,
		Center:   challengeInfos(s.center),
	})

	s.resetTurnTimerLocked()
}

// resetTurnTimerLocked 重开回合计时：作废旧表，挂新表和告警表
func (s *Session) resetTurnTimerLocked() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	s.timerEpoch++
	epoch := s.timerEpoch

	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	if s.warnTimer != nil {
		s.warnTimer.Stop()
	}

	if warnAt := s.cfg.TurnTimeout - s.cfg.TurnWarning; warnAt > 0 && s.cfg.TurnWarning > 0 {
		s.warnTimer = time.AfterFunc(warnAt, func() {
			s.handleTurnWarning(epoch)
		})
	}
	s.turnTimer = time.AfterFunc(s.cfg.TurnTimeout, func() {
		s.handleTurnTimeout(epoch)
	})
}

// stopTimersLocked 作废全部计时器。终局和比对窗口期间都走这里。
func (s *Session) stopTimersLocked() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	s.timerEpoch++
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
	if s.warnTimer != nil {
		s.warnTimer.Stop()
		s.warnTimer = nil
	}
}

func (s *Session) staleEpoch(epoch uint64) bool {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	return epoch != s.timerEpoch
}

// handleTurnTimeout 回合超时：自动跳过当前玩家
func (s *Session) handleTurnTimeout(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying || s.staleEpoch(epoch) {
		logger.Debugf("⏱️ 会话 %s 丢弃过期超时触发 (epoch %d)", s.ID, epoch)
		return
	}

	owner := s.currentOwnerLocked()
	logger.Infof("⏰ 会话 %s 回合 %d 超时，跳过玩家 %s", s.ID, s.turn, owner)
	s.skipLocked(owner, "timeout")
}

// handleTurnWarning 剩余时间告警
func (s *Session) handleTurnWarning(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying || s.staleEpoch(epoch) {
		return
	}

	s.emitLocked(TurnWarning{
		Turn:      s.turn,
		OwnerID:   s.currentOwnerLocked(),
		Remaining: s.cfg.TurnWarning,
	})
}

// skipLocked 跳过当前回合：不给分、连胜清零、轮到下一位
func (s *Session) skipLocked(ownerID, reason string) {
	s.reg.ResetStreak(ownerID)
	s.pending = nil

	// 配对模式下把翻开未比对的格子收回
	if s.grid != nil {
		if cleared := s.grid.ClearTurn(); len(cleared) > 0 {
			s.emitLocked(CellsHidden{Cells: cleared})
		}
	}

	s.emitLocked(TurnSkipped{
		Turn:    s.turn,
		OwnerID: ownerID,
		Reason:  reason,
	})

	s.openTurnLocked(true)
}
