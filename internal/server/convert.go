package server

import (
	"github.com/playleap/challenge-arena/internal/engine/session"
	"github.com/playleap/challenge-arena/internal/protocol"
	"github.com/playleap/challenge-arena/internal/scoring"
)

// eventToMessage 会话事件转广播消息。
// 每种事件有自己的线格式，seq 一律带上供客户端幂等应用。
func eventToMessage(e session.Event) *protocol.Message {
	switch b := e.Body.(type) {
	case session.SessionStarted:
		return protocol.MustNewMessage(protocol.MsgSessionStarted, protocol.SessionStartedPayload{
			Seq:          e.Seq,
			SessionID:    e.SessionID,
			Mode:         b.Mode,
			Participants: b.Participants,
			Center:       b.Center,
			Cells:        b.Cells,
		})
	case session.TurnStarted:
		return protocol.MustNewMessage(protocol.MsgTurnStarted, protocol.TurnStartedPayload{
			Seq:      e.Seq,
			Turn:     b.Turn,
			OwnerID:  b.OwnerID,
			Deadline: b.Deadline.UnixMilli(),
			Center:   b.Center,
		})
	case session.TurnWarning:
		return protocol.MustNewMessage(protocol.MsgTurnWarning, protocol.TurnWarningPayload{
			Seq:         e.Seq,
			Turn:        b.Turn,
			OwnerID:     b.OwnerID,
			RemainingMs: b.Remaining.Milliseconds(),
		})
	case session.ChallengeSelected:
		return protocol.MustNewMessage(protocol.MsgChallengeSelected, protocol.ChallengeSelectedPayload{
			Seq:       e.Seq,
			Turn:      b.Turn,
			OwnerID:   b.OwnerID,
			Challenge: b.Challenge,
		})
	case session.TeamSubmitted:
		return protocol.MustNewMessage(protocol.MsgTeamSubmitted, protocol.TeamSubmittedPayload{
			Seq:         e.Seq,
			Turn:        b.Turn,
			OwnerID:     b.OwnerID,
			ChallengeID: b.ChallengeID,
			CardIDs:     b.CardIDs,
			Passed:      b.Passed,
			Points:      b.Points,
			Breakdown:   breakdownToInfo(b.Breakdown),
			NewScore:    b.NewScore,
			Streak:      b.Streak,
		})
	case session.TurnSkipped:
		return protocol.MustNewMessage(protocol.MsgTurnSkipped, protocol.TurnSkippedPayload{
			Seq:     e.Seq,
			Turn:    b.Turn,
			OwnerID: b.OwnerID,
			Reason:  b.Reason,
		})
	case session.CellRevealed:
		return protocol.MustNewMessage(protocol.MsgCellRevealed, protocol.CellRevealedPayload{
			Seq:       e.Seq,
			Turn:      b.Turn,
			OwnerID:   b.OwnerID,
			Cell:      b.Cell,
			ContentID: b.ContentID,
			Name:      b.Name,
		})
	case session.MatchDetected:
		return protocol.MustNewMessage(protocol.MsgMatchDetected, protocol.MatchDetectedPayload{
			Seq:     e.Seq,
			Turn:    b.Turn,
			OwnerID: b.OwnerID,
			CellA:   b.CellA,
			CellB:   b.CellB,
			PairID:  b.PairID,
		})
	case session.MatchPersisted:
		return protocol.MustNewMessage(protocol.MsgMatchPersisted, protocol.MatchPersistedPayload{
			Seq:      e.Seq,
			OwnerID:  b.OwnerID,
			CellA:    b.CellA,
			CellB:    b.CellB,
			PairID:   b.PairID,
			Points:   b.Points,
			NewScore: b.NewScore,
			Streak:   b.Streak,
		})
	case session.CellsHidden:
		return protocol.MustNewMessage(protocol.MsgCellsHidden, protocol.CellsHiddenPayload{
			Seq:   e.Seq,
			Cells: b.Cells,
		})
	case session.GameEnded:
		return protocol.MustNewMessage(protocol.MsgGameEnded, protocol.GameEndedPayload{
			Seq:        e.Seq,
			Reason:     b.Reason,
			Rankings:   b.Rankings,
			Profiles:   b.Profiles,
			DurationMs: b.Duration.Milliseconds(),
		})
	}
	return nil
}

func breakdownToInfo(b scoring.Breakdown) protocol.ScoreBreakdown {
	return protocol.ScoreBreakdown{
		Base:        b.Base,
		RoleFit:     b.RoleFit,
		SpeedBonus:  b.SpeedBonus,
		StreakBonus: b.StreakBonus,
	}
}
