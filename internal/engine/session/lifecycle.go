package session

import (
	"time"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/engine/grid"
	"github.com/playleap/challenge-arena/internal/logger"
	"github.com/playleap/challenge-arena/internal/protocol"
	"github.com/playleap/challenge-arena/internal/scoring"
)

// OnFinished 注册终局回调。回调异步触发，允许回调方再进房间锁。
func (s *Session) OnFinished(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFinished = fn
}

// Start 开始会话：洗牌、发手牌、铺中央池/网格，首位玩家按入座顺序确定。
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting {
		return apperrors.ErrInvalidPhase
	}
	n := s.reg.Len()
	if n < s.cfg.MinPlayers {
		return apperrors.ErrCapacityBelowMinimum
	}
	if n > s.cfg.MaxPlayers {
		return apperrors.ErrRoomFull
	}

	s.reg.Reset()
	s.startedAt = time.Now()
	s.phase = PhasePlaying
	s.turn = 0
	s.currentIdx = 0 // 首位玩家 = 入座顺序第一位，不随机

	switch s.Mode {
	case ModeMatchGrid:
		s.buildGridLocked()
	default:
		s.buildDecksLocked()
		s.dealLocked()
	}

	s.emitLocked(SessionStarted{
		Mode:         string(s.Mode),
		Participants: s.participantInfosLocked(),
		Center:       challengeInfos(s.center),
		Cells:        s.cellInfosLocked(),
	})

	logger.Infof("🎬 会话 %s 开始，%d 人，模式 %s", s.ID, n, s.Mode)

	s.openTurnLocked()
	return nil
}

// buildDecksLocked 洗挑战堆与补牌堆，铺满中央池
func (s *Session) buildDecksLocked() {
	challenges := s.cat.Challenges()
	s.rng.Shuffle(len(challenges), func(i, j int) {
		challenges[i], challenges[j] = challenges[j], challenges[i]
	})
	s.deck = challenges

	roles := s.cat.Roles()
	s.rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	s.roleDeck = roles

	s.refillCenterLocked()
}

// dealLocked 给每人发开局手牌和一张协同卡
func (s *Session) dealLocked() {
	synergies := s.cat.Synergies()
	s.rng.Shuffle(len(synergies), func(i, j int) {
		synergies[i], synergies[j] = synergies[j], synergies[i]
	})

	for i, p := range s.reg.Ordered() {
		for range s.cfg.HandSize {
			p.Hand = append(p.Hand, s.drawRoleLocked())
		}
		if len(synergies) > 0 {
			p.Synergies = append(p.Synergies, synergies[i%len(synergies)])
		}
	}
}

// drawRoleLocked 从补牌堆抽一张角色卡，抽空后重洗循环
func (s *Session) drawRoleLocked() catalog.RoleCard {
	if len(s.roleDeck) == 0 {
		roles := s.cat.Roles()
		s.rng.Shuffle(len(roles), func(i, j int) {
			roles[i], roles[j] = roles[j], roles[i]
		})
		s.roleDeck = roles
	}
	c := s.roleDeck[0]
	s.roleDeck = s.roleDeck[1:]
	return c
}

// refillCenterLocked 中央池懒补齐到固定大小
func (s *Session) refillCenterLocked() {
	for len(s.center) < s.cfg.CenterPoolSize && len(s.deck) > 0 {
		s.center = append(s.center, s.deck[0])
		s.deck = s.deck[1:]
	}
}

// buildGridLocked 配对模式：内容 ×1（自带成对），洗排列后铺网格
func (s *Session) buildGridLocked() {
	contents := s.cat.PairContents()
	perm := s.rng.Perm(len(contents))
	s.grid = grid.New(contents, perm)
}

// ForceFinish 外部强制终局。时长上限类胜利条件由调用方判定后走这里。
func (s *Session) ForceFinish(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFinished {
		return // 幂等
	}
	s.finishLocked(reason)
}

// Abort 会话内部不变量被破坏时的隔离终局：只废弃本会话，不波及房间
func (s *Session) Abort(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFinished {
		return
	}
	logger.Errorf("💥 会话 %s 异常终止: %s", s.ID, reason)
	s.finishLocked("aborted: " + reason)
}

// finishLocked 终局：停表、算排名与画像、发事件、通知房间
func (s *Session) finishLocked(reason string) {
	s.phase = PhaseFinished
	s.turnPhase = TurnIdle
	s.finishedAt = time.Now()
	s.endReason = reason

	// 先作废计时器，终局后任何触发都是 TimerRace
	s.stopTimersLocked()

	rankings := s.reg.Rankings()
	entries := make([]protocol.RankingEntry, len(rankings))
	for i, r := range rankings {
		entries[i] = protocol.RankingEntry{
			Rank:          r.Rank,
			ParticipantID: r.ParticipantID,
			Name:          r.Name,
			Score:         r.Score,
			Completed:     r.Completed,
		}
	}

	// 画像是终局一次性产物，会话中途不得重算
	profiles := make([]protocol.LeadershipProfile, 0, s.reg.Len())
	for _, p := range s.reg.Ordered() {
		prof := scoring.BuildProfile(scoring.ProfileInput{
			PlayedTags: p.PlayedTags,
			FailedTags: p.FailedTags,
		})
		profiles = append(profiles, protocol.LeadershipProfile{
			ParticipantID: p.ID,
			Vision:        prof.Vision,
			Communication: prof.Communication,
			Decision:      prof.Decision,
			Empathy:       prof.Empathy,
			Execution:     prof.Execution,
			Adaptability:  prof.Adaptability,
		})
	}

	s.emitLocked(GameEnded{
		Reason:   reason,
		Rankings: entries,
		Profiles: profiles,
		Duration: s.finishedAt.Sub(s.startedAt),
	})

	logger.Infof("🏁 会话 %s 结束 (%s)，用时 %v", s.ID, reason, s.finishedAt.Sub(s.startedAt).Round(time.Second))

	if s.onFinished != nil {
		fn := s.onFinished
		sess := s
		go fn(sess)
	}
}

// participantInfosLocked 参与者信息快照
func (s *Session) participantInfosLocked() []protocol.ParticipantInfo {
	ps := s.reg.Ordered()
	out := make([]protocol.ParticipantInfo, len(ps))
	for i, p := range ps {
		out[i] = protocol.ParticipantInfo{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       p.Seat,
			IsBot:      p.IsBot,
			Score:      p.Score,
			Streak:     p.Streak,
			Completed:  len(p.Completed),
			CardsCount: len(p.Hand) + len(p.Synergies),
			Connected:  p.Connected,
		}
	}
	return out
}

func (s *Session) cellInfosLocked() []protocol.CellInfo {
	if s.grid == nil {
		return nil
	}
	cells := s.grid.Cells()
	out := make([]protocol.CellInfo, len(cells))
	for i, c := range cells {
		info := protocol.CellInfo{Index: c.Index, State: c.State.String()}
		// 背面朝上的格子不下发内容，权威比对只在服务端发生
		if c.State != grid.StateNone {
			info.ContentID = c.ContentID
		}
		out[i] = info
	}
	return out
}

func challengeInfos(cs []catalog.ChallengeCard) []protocol.ChallengeInfo {
	out := make([]protocol.ChallengeInfo, len(cs))
	for i, c := range cs {
		out[i] = protocol.ChallengeInfo{
			ID:         c.ID,
			Title:      c.Title,
			Category:   c.Category,
			Difficulty: c.Difficulty,
			BasePoints: c.BasePoints,
		}
	}
	return out
}
