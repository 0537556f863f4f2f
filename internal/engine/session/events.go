package session

import (
	"time"

	"github.com/playleap/challenge-arena/internal/protocol"
	"github.com/playleap/challenge-arena/internal/scoring"
)

// 事件日志：封闭的变体集合，每种事件只携带自己需要的字段。
// 序号严格递增，广播顺序等于应用顺序，副本按序幂等应用。

// Event 一条会话事件
type Event struct {
	Seq       uint64
	SessionID string
	At        time.Time
	Body      EventBody
}

// EventBody 事件变体。实现方即全部合法事件种类。
type EventBody interface {
	Kind() protocol.MessageType
}

// SessionStarted 会话开始
type SessionStarted struct {
	Mode         string
	Participants []protocol.ParticipantInfo
	Center       []protocol.ChallengeInfo
	Cells        []protocol.CellInfo
}

func (SessionStarted) Kind() protocol.MessageType { return protocol.MsgSessionStarted }

// TurnStarted 新回合开始
type TurnStarted struct {
	Turn     int
	OwnerID  string
	Deadline time.Time
	Center   []protocol.ChallengeInfo
}

func (TurnStarted) Kind() protocol.MessageType { return protocol.MsgTurnStarted }

// TurnWarning 回合剩余时间告警
type TurnWarning struct {
	Turn      int
	OwnerID   string
	Remaining time.Duration
}

func (TurnWarning) Kind() protocol.MessageType { return protocol.MsgTurnWarning }

// ChallengeSelected 挑战选定
type ChallengeSelected struct {
	Turn      int
	OwnerID   string
	Challenge protocol.ChallengeInfo
}

func (ChallengeSelected) Kind() protocol.MessageType { return protocol.MsgChallengeSelected }

// TeamSubmitted 团队提交并判分
type TeamSubmitted struct {
	Turn        int
	OwnerID     string
	ChallengeID string
	CardIDs     []string
	Passed      bool
	Points      int
	Breakdown   scoring.Breakdown
	NewScore    int
	Streak      int
}

func (TeamSubmitted) Kind() protocol.MessageType { return protocol.MsgTeamSubmitted }

// TurnSkipped 回合被跳过
type TurnSkipped struct {
	Turn    int
	OwnerID string
	Reason  string
}

func (TurnSkipped) Kind() protocol.MessageType { return protocol.MsgTurnSkipped }

// CellRevealed 格子翻开
type CellRevealed struct {
	Turn      int
	OwnerID   string
	Cell      int
	ContentID string
	Name      string
}

func (CellRevealed) Kind() protocol.MessageType { return protocol.MsgCellRevealed }

// MatchDetected 检测到配对（进入 match_pending）
type MatchDetected struct {
	Turn    int
	OwnerID string
	CellA   int
	CellB   int
	PairID  string
}

func (MatchDetected) Kind() protocol.MessageType { return protocol.MsgMatchDetected }

// MatchPersisted 配对固化（终态）
type MatchPersisted struct {
	OwnerID  string
	CellA    int
	CellB    int
	PairID   string
	Points   int
	NewScore int
	Streak   int
}

func (MatchPersisted) Kind() protocol.MessageType { return protocol.MsgMatchPersisted }

// CellsHidden 未配对/回合中断的格子翻回背面
type CellsHidden struct {
	Cells []int
}

func (CellsHidden) Kind() protocol.MessageType { return protocol.MsgCellsHidden }

// GameEnded 会话结束
type GameEnded struct {
	Reason   string
	Rankings []protocol.RankingEntry
	Profiles []protocol.LeadershipProfile
	Duration time.Duration
}

func (GameEnded) Kind() protocol.MessageType { return protocol.MsgGameEnded }

// emitLocked 追加事件并同步推给订阅方。调用方必须持有 s.mu。
func (s *Session) emitLocked(body EventBody) {
	s.seq++
	e := Event{
		Seq:       s.seq,
		SessionID: s.ID,
		At:        time.Now(),
		Body:      body,
	}
	s.events = append(s.events, e)
	for _, sink := range s.sinks {
		sink(e)
	}
}
