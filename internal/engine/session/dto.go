package session

import (
	"github.com/playleap/challenge-arena/internal/protocol"
)

// Snapshot 构建一致性状态快照（新加入者/重连/落库用）。
// forID 非空时附带该参与者自己的手牌。
func (s *Session) Snapshot(forID string) *protocol.SessionStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &protocol.SessionStatePayload{
		SessionID:     s.ID,
		RoomID:        s.RoomID,
		Phase:         s.phase.String(),
		TurnPhase:     s.turnPhase.String(),
		Turn:          s.turn,
		CurrentTurnID: s.currentOwnerLocked(),
		Participants:  s.participantInfosLocked(),
		Center:        challengeInfos(s.center),
		Cells:         s.cellInfosLocked(),
		LastSeq:       s.seq,
	}

	if forID != "" {
		if p, err := s.reg.Get(forID); err == nil {
			for _, c := range p.Hand {
				snap.Hand = append(snap.Hand, protocol.CardInfo{
					ID:       c.ID,
					Name:     c.Name,
					Kind:     "role",
					Category: c.Category,
					Tags:     c.Tags,
				})
			}
			for _, c := range p.Synergies {
				snap.Hand = append(snap.Hand, protocol.CardInfo{
					ID:   c.ID,
					Name: c.Name,
					Kind: "synergy",
					Tags: c.Tags,
				})
			}
		}
	}
	return snap
}
