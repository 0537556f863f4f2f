package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playleap/challenge-arena/internal/engine/session"
	"github.com/playleap/challenge-arena/internal/protocol"
	"github.com/playleap/challenge-arena/internal/scoring"
)

func TestEventToMessage_TypeMapping(t *testing.T) {
	cases := []struct {
		body session.EventBody
		want protocol.MessageType
	}{
		{session.SessionStarted{Mode: "business"}, protocol.MsgSessionStarted},
		{session.TurnStarted{Turn: 1, OwnerID: "p1"}, protocol.MsgTurnStarted},
		{session.TurnWarning{Turn: 1, OwnerID: "p1"}, protocol.MsgTurnWarning},
		{session.ChallengeSelected{Turn: 1, OwnerID: "p1"}, protocol.MsgChallengeSelected},
		{session.TeamSubmitted{Turn: 1, OwnerID: "p1"}, protocol.MsgTeamSubmitted},
		{session.TurnSkipped{Turn: 1, OwnerID: "p1", Reason: "timeout"}, protocol.MsgTurnSkipped},
		{session.CellRevealed{Turn: 1, OwnerID: "p1", Cell: 3}, protocol.MsgCellRevealed},
		{session.MatchDetected{Turn: 1, OwnerID: "p1"}, protocol.MsgMatchDetected},
		{session.MatchPersisted{OwnerID: "p1"}, protocol.MsgMatchPersisted},
		{session.CellsHidden{Cells: []int{0, 3}}, protocol.MsgCellsHidden},
		{session.GameEnded{Reason: "victory"}, protocol.MsgGameEnded},
	}

	for _, tc := range cases {
		msg := eventToMessage(session.Event{Seq: 1, SessionID: "sess-1", Body: tc.body})
		require.NotNil(t, msg, "%T produced no message", tc.body)
		assert.Equal(t, tc.want, msg.Type, "%T", tc.body)
	}
}

func TestEventToMessage_TeamSubmittedCarriesBreakdown(t *testing.T) {
	e := session.Event{
		Seq:       12,
		SessionID: "sess-1",
		Body: session.TeamSubmitted{
			Turn:        3,
			OwnerID:     "p1",
			ChallengeID: "ch-1",
			CardIDs:     []string{"role-1", "syn-1"},
			Passed:      true,
			Points:      93,
			Breakdown: scoring.Breakdown{
				Base:        40,
				RoleFit:     1.25,
				SpeedBonus:  5,
				StreakBonus: 38,
			},
			NewScore: 193,
			Streak:   3,
		},
	}

	msg := eventToMessage(e)
	require.NotNil(t, msg)

	payload, err := protocol.ParsePayload[protocol.TeamSubmittedPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), payload.Seq)
	assert.Equal(t, 3, payload.Turn)
	assert.True(t, payload.Passed)
	assert.Equal(t, 93, payload.Points)
	assert.Equal(t, 1.25, payload.Breakdown.RoleFit)
	assert.Equal(t, 38, payload.Breakdown.StreakBonus)
	assert.Equal(t, 193, payload.NewScore)
}

func TestEventToMessage_TurnStartedDeadlineInMillis(t *testing.T) {
	deadline := time.Now().Add(90 * time.Second)
	e := session.Event{
		Seq:       2,
		SessionID: "sess-1",
		Body:      session.TurnStarted{Turn: 1, OwnerID: "p1", Deadline: deadline},
	}

	msg := eventToMessage(e)
	require.NotNil(t, msg)

	payload, err := protocol.ParsePayload[protocol.TurnStartedPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, deadline.UnixMilli(), payload.Deadline)
	assert.Equal(t, "p1", payload.OwnerID)
}

func TestEventToMessage_SeqPropagatesEverywhere(t *testing.T) {
	e := session.Event{Seq: 77, SessionID: "sess-1", Body: session.CellsHidden{Cells: []int{1}}}

	msg := eventToMessage(e)
	require.NotNil(t, msg)

	payload, err := protocol.ParsePayload[protocol.CellsHiddenPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), payload.Seq)
	assert.Equal(t, []int{1}, payload.Cells)
}

type unknownBody struct{}

func (unknownBody) Kind() protocol.MessageType { return "unknown" }

func TestEventToMessage_UnknownBodyIsDropped(t *testing.T) {
	msg := eventToMessage(session.Event{Seq: 1, Body: unknownBody{}})
	assert.Nil(t, msg)
}
