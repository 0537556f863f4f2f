package room

import (
	"sync"
	"time"

	"github.com/playleap/challenge-arena/internal/config"
	"github.com/playleap/challenge-arena/internal/engine/registry"
	"github.com/playleap/challenge-arena/internal/engine/session"
	"github.com/playleap/challenge-arena/internal/protocol"
	"github.com/playleap/challenge-arena/internal/storage"
)

// Status 房间状态
type Status int

const (
	StatusDormant      Status = iota // 休眠：无人，无会话
	StatusIntermission               // 休场：上局已结束，倒计时开下一局
	StatusActive                     // 对局进行中
)

func (s Status) String() string {
	switch s {
	case StatusIntermission:
		return "intermission"
	case StatusActive:
		return "active"
	default:
		return "dormant"
	}
}

// queuedJoin 对局进行中到达的候补
type queuedJoin struct {
	ParticipantID string
	DisplayName   string
}

// Room 常驻房间：由配置创建，承载一局接一局的会话，永不销毁
type Room struct {
	ID         string
	Name       string
	Mode       session.Mode
	Category   string
	Difficulty int
	MaxPlayers int
	Bots       int
	Victory    session.VictoryCondition

	status  Status
	current *session.Session
	reg     *registry.Registry
	queue   []queuedJoin

	// 生涯计数
	TotalGamesPlayed    int
	TotalRoundsPlayed   int
	LastGameStartedAt   time.Time
	LastSessionDuration time.Duration

	// 休场倒计时。epoch 防旧表迟到触发。
	intermissionTimer *time.Timer
	intermissionEpoch uint64

	mu sync.Mutex
}

func newRoom(rc config.RoomConfig, gameCfg config.GameConfig) *Room {
	mode := session.ModeBusiness
	if rc.Mode == string(session.ModeMatchGrid) {
		mode = session.ModeMatchGrid
	}

	maxPlayers := rc.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = gameCfg.MaxPlayers
	}

	victory := session.VictoryCondition{
		Kind:   session.VictoryKind(rc.Victory.Kind),
		Target: rc.Victory.Target,
	}
	if victory.Kind == "" {
		victory = session.VictoryCondition{Kind: session.VictoryScore, Target: 100}
	}

	return &Room{
		ID:         rc.ID,
		Name:       rc.Name,
		Mode:       mode,
		Category:   rc.Category,
		Difficulty: rc.Difficulty,
		MaxPlayers: maxPlayers,
		Bots:       rc.Bots,
		Victory:    victory,
		status:     StatusDormant,
		reg:        registry.New(),
	}
}

// Status 当前状态
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// CurrentSession 当前会话，可能为 nil
func (r *Room) CurrentSession() *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Registry 座席注册表
func (r *Room) Registry() *registry.Registry { return r.reg }

// statusPayloadLocked 房间状态下发体
func (r *Room) statusPayloadLocked() protocol.RoomStatusPayload {
	p := protocol.RoomStatusPayload{
		RoomID:     r.ID,
		Status:     r.status.String(),
		Seated:     r.reg.Len(),
		MaxPlayers: r.MaxPlayers,
		TotalGames: r.TotalGamesPlayed,
	}
	if r.current != nil {
		p.CurrentSessionID = r.current.ID
	}
	return p
}

// snapshotLocked 房间快照（落库用）
func (r *Room) snapshotLocked() *storage.RoomSnapshot {
	snap := &storage.RoomSnapshot{
		ID:                r.ID,
		Status:            r.status.String(),
		TotalGamesPlayed:  r.TotalGamesPlayed,
		TotalRoundsPlayed: r.TotalRoundsPlayed,
	}
	if r.current != nil {
		snap.CurrentSessionID = r.current.ID
	}
	if !r.LastGameStartedAt.IsZero() {
		snap.LastGameStartedAt = r.LastGameStartedAt.Unix()
	}
	for _, p := range r.reg.Ordered() {
		snap.Seated = append(snap.Seated, p.ID)
	}
	for _, q := range r.queue {
		snap.Queued = append(snap.Queued, q.ParticipantID)
	}
	return snap
}
