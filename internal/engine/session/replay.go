package session

import (
	"github.com/playleap/challenge-arena/internal/protocol"
)

// Replica 事件日志的消费侧副本。
// 事件通道是 at-least-once：重复与乱序迟到都可能出现，
// Apply 按序号幂等应用——重复或过期的序号直接丢弃。
type Replica struct {
	lastSeq uint64
	state   ReplicaState
}

// ReplicaState 副本重建出的会话状态
type ReplicaState struct {
	SessionID string
	Mode      string
	Phase     string
	TurnPhase string
	Turn      int
	OwnerID   string

	Scores    map[string]int
	Streaks   map[string]int
	Completed map[string]int

	Cells map[int]string // 下标 → 状态

	Finished  bool
	EndReason string
	Rankings  []protocol.RankingEntry
}

// NewReplica 创建空副本
func NewReplica() *Replica {
	return &Replica{
		state: ReplicaState{
			Phase:     PhaseWaiting.String(),
			TurnPhase: TurnIdle.String(),
			Scores:    make(map[string]int),
			Streaks:   make(map[string]int),
			Completed: make(map[string]int),
			Cells:     make(map[int]string),
		},
	}
}

// State 返回当前副本状态
func (r *Replica) State() ReplicaState { return r.state }

// LastSeq 已应用到的序号
func (r *Replica) LastSeq() uint64 { return r.lastSeq }

// Apply 应用一条事件。重复/过期序号返回 false 且不改状态。
func (r *Replica) Apply(e Event) bool {
	if e.Seq <= r.lastSeq {
		return false
	}
	r.lastSeq = e.Seq
	r.state.SessionID = e.SessionID

	switch b := e.Body.(type) {
	case SessionStarted:
		r.state.Mode = b.Mode
		r.state.Phase = PhasePlaying.String()
		for _, p := range b.Participants {
			r.state.Scores[p.ID] = p.Score
			r.state.Streaks[p.ID] = p.Streak
			r.state.Completed[p.ID] = p.Completed
		}
		for _, c := range b.Cells {
			r.state.Cells[c.Index] = c.State
		}

	case TurnStarted:
		r.state.Turn = b.Turn
		r.state.OwnerID = b.OwnerID
		// 配对模式的回合开在 idle（没有选牌阶段），和权威端一致
		if r.state.Mode == string(ModeMatchGrid) {
			r.state.TurnPhase = TurnIdle.String()
		} else {
			r.state.TurnPhase = TurnSelectingChallenge.String()
		}

	case TurnWarning:
		// 纯提示，无状态变更

	case ChallengeSelected:
		r.state.TurnPhase = TurnSelectingTeam.String()

	case TeamSubmitted:
		r.state.TurnPhase = TurnResolving.String()
		r.state.Scores[b.OwnerID] = b.NewScore
		r.state.Streaks[b.OwnerID] = b.Streak
		if b.Passed {
			r.state.Completed[b.OwnerID]++
		}

	case TurnSkipped:
		r.state.Streaks[b.OwnerID] = 0

	case CellRevealed:
		r.state.Cells[b.Cell] = "revealed"

	case MatchDetected:
		r.state.Cells[b.CellA] = "match_pending"
		r.state.Cells[b.CellB] = "match_pending"

	case MatchPersisted:
		r.state.Cells[b.CellA] = "persisted"
		r.state.Cells[b.CellB] = "persisted"
		r.state.Scores[b.OwnerID] = b.NewScore
		r.state.Streaks[b.OwnerID] = b.Streak
		r.state.Completed[b.OwnerID]++

	case CellsHidden:
		for _, i := range b.Cells {
			r.state.Cells[i] = "none"
		}

	case GameEnded:
		r.state.Phase = PhaseFinished.String()
		r.state.TurnPhase = TurnIdle.String()
		r.state.Finished = true
		r.state.EndReason = b.Reason
		r.state.Rankings = b.Rankings
		r.state.OwnerID = ""
	}

	return true
}
