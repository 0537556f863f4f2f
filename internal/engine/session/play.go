package session

import (
	"time"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/engine/registry"
	"github.com/playleap/challenge-arena/internal/logger"
	"github.com/playleap/challenge-arena/internal/protocol"
	"github.com/playleap/challenge-arena/internal/scoring"
)

// SelectChallenge 当前回合玩家从中央池选定一个挑战
func (s *Session) SelectChallenge(playerID, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return apperrors.ErrInvalidPhase
	}
	if playerID != s.currentOwnerLocked() {
		return apperrors.ErrNotYourTurn
	}
	if s.turnPhase != TurnSelectingChallenge {
		return apperrors.ErrInvalidPhase
	}

	idx := -1
	for i, ch := range s.center {
		if ch.ID == challengeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return &apperrors.GameError{Code: protocol.ErrCodeInvalidMsg, Message: "该挑战不在中央池中"}
	}

	ch := s.center[idx]
	s.center = append(s.center[:idx], s.center[idx+1:]...)
	s.pending = &ch
	s.chosenAt = time.Now()
	s.turnPhase = TurnSelectingTeam

	s.emitLocked(ChallengeSelected{
		Turn:    s.turn,
		OwnerID: playerID,
		Challenge: protocol.ChallengeInfo{
			ID:         ch.ID,
			Title:      ch.Title,
			Category:   ch.Category,
			Difficulty: ch.Difficulty,
			BasePoints: ch.BasePoints,
		},
	})

	// 阶段切换，重开计时
	s.resetTurnTimerLocked()
	return nil
}

// SubmitTeam 当前回合玩家提交团队卡组，判分并推进回合。
// cardIDs 的第一张必须是角色卡，作为本回合的视角/立场。
func (s *Session) SubmitTeam(playerID string, cardIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return apperrors.ErrInvalidPhase
	}
	if playerID != s.currentOwnerLocked() {
		return apperrors.ErrNotYourTurn
	}
	if s.turnPhase != TurnSelectingTeam || s.pending == nil {
		return apperrors.ErrInvalidPhase
	}
	if len(cardIDs) == 0 {
		return &apperrors.GameError{Code: protocol.ErrCodeInvalidMsg, Message: "至少提交一张卡牌"}
	}

	p, err := s.reg.Get(playerID)
	if err != nil {
		return err
	}

	// 从手牌解析提交的卡组
	roles, synergies, playedTags, err := resolveTeam(p.Hand, p.Synergies, cardIDs)
	if err != nil {
		return err
	}

	s.turnPhase = TurnResolving

	streakBefore := p.Streak
	res := scoring.Evaluate(scoring.Input{
		Challenge:       *s.pending,
		Role:            roles[0],
		Team:            roles,
		Synergies:       synergies,
		Elapsed:         time.Since(s.chosenAt),
		Streak:          streakBefore,
		StreakThreshold: s.cfg.StreakThreshold,
	})

	challenge := *s.pending
	if err := s.reg.ApplyResult(playerID, challenge, res, playedTags); err != nil {
		return err
	}

	// 打出的卡离手，手牌补回开局张数
	s.spendCardsLocked(p, cardIDs)

	s.emitLocked(TeamSubmitted{
		Turn:        s.turn,
		OwnerID:     playerID,
		ChallengeID: challenge.ID,
		CardIDs:     cardIDs,
		Passed:      res.Passed,
		Points:      res.Points,
		Breakdown:   res.Breakdown,
		NewScore:    p.Score,
		Streak:      p.Streak,
	})

	if res.Passed {
		logger.Infof("✅ 会话 %s 回合 %d：%s 完成「%s」得 %d 分（连胜 %d）",
			s.ID, s.turn, p.Name, challenge.Title, res.Points, p.Streak)
	} else {
		logger.Infof("❌ 会话 %s 回合 %d：%s 未通过「%s」，连胜清零",
			s.ID, s.turn, p.Name, challenge.Title)
	}

	// 每次提交后都要立刻判定胜利条件
	if s.victoryReachedLocked() {
		s.finishLocked("victory")
		return nil
	}

	s.openTurnLocked(true)
	return nil
}

// SkipTurn 跳过当前回合。计时器超时走内部路径，这里是显式入口（如主动弃权）。
func (s *Session) SkipTurn(playerID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return apperrors.ErrInvalidPhase
	}
	if playerID != s.currentOwnerLocked() {
		return apperrors.ErrNotYourTurn
	}
	// 比对窗口归服务端：此时弃权会和延迟回调各推进一次回合
	if s.turnPhase == TurnResolving {
		return apperrors.ErrInvalidPhase
	}

	s.skipLocked(playerID, reason)
	return nil
}

// victoryReachedLocked 胜利判定。时长上限类不在这里判，由调用方 ForceFinish。
func (s *Session) victoryReachedLocked() bool {
	switch s.victory.Kind {
	case VictoryScore:
		for _, p := range s.reg.Ordered() {
			if p.Score >= s.victory.Target {
				return true
			}
		}
	case VictoryChallenges:
		for _, p := range s.reg.Ordered() {
			if len(p.Completed) >= s.victory.Target {
				return true
			}
		}
	}

	// 商业模式下挑战全部耗尽也终局
	if s.Mode == ModeBusiness && len(s.center) == 0 && len(s.deck) == 0 {
		return true
	}
	return false
}

// spendCardsLocked 打出的卡离手并补牌
func (s *Session) spendCardsLocked(p *registry.Participant, spent []string) {
	spentSet := make(map[string]struct{}, len(spent))
	for _, id := range spent {
		spentSet[id] = struct{}{}
	}

	hand := p.Hand[:0]
	for _, c := range p.Hand {
		if _, ok := spentSet[c.ID]; !ok {
			hand = append(hand, c)
		}
	}
	p.Hand = hand

	synergies := p.Synergies[:0]
	for _, c := range p.Synergies {
		if _, ok := spentSet[c.ID]; !ok {
			synergies = append(synergies, c)
		}
	}
	p.Synergies = synergies

	for len(p.Hand) < s.cfg.HandSize {
		p.Hand = append(p.Hand, s.drawRoleLocked())
	}
}

// resolveTeam 校验卡组全部在手牌中，并拆成角色/协同两组
func resolveTeam(hand []catalog.RoleCard, synergies []catalog.SynergyCard, cardIDs []string) ([]catalog.RoleCard, []catalog.SynergyCard, []string, error) {
	roleByID := make(map[string]catalog.RoleCard, len(hand))
	for _, c := range hand {
		roleByID[c.ID] = c
	}
	synByID := make(map[string]catalog.SynergyCard, len(synergies))
	for _, c := range synergies {
		synByID[c.ID] = c
	}

	var roles []catalog.RoleCard
	var syns []catalog.SynergyCard
	var tags []string
	for _, id := range cardIDs {
		if c, ok := roleByID[id]; ok {
			roles = append(roles, c)
			tags = append(tags, c.Tags...)
			continue
		}
		if c, ok := synByID[id]; ok {
			syns = append(syns, c)
			tags = append(tags, c.Tags...)
			continue
		}
		return nil, nil, nil, &apperrors.GameError{Code: protocol.ErrCodeInvalidMsg, Message: "卡牌不在手牌中"}
	}
	if len(roles) == 0 {
		return nil, nil, nil, &apperrors.GameError{Code: protocol.ErrCodeInvalidMsg, Message: "卡组至少要有一张角色卡"}
	}
	if _, ok := roleByID[cardIDs[0]]; !ok {
		return nil, nil, nil, &apperrors.GameError{Code: protocol.ErrCodeInvalidMsg, Message: "第一张必须是角色卡（本回合视角）"}
	}
	return roles, syns, tags, nil
}
