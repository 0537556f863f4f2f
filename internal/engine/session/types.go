package session

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/engine/grid"
	"github.com/playleap/challenge-arena/internal/engine/registry"
)

// Phase 会话外层状态
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "waiting"
	}
}

// TurnPhase 回合内阶段。只允许向前推进：
// idle → selecting_challenge → selecting_team → resolving → idle(下一位)
type TurnPhase int

const (
	TurnIdle TurnPhase = iota
	TurnSelectingChallenge
	TurnSelectingTeam
	TurnResolving
)

func (t TurnPhase) String() string {
	switch t {
	case TurnSelectingChallenge:
		return "selecting_challenge"
	case TurnSelectingTeam:
		return "selecting_team"
	case TurnResolving:
		return "resolving"
	default:
		return "idle"
	}
}

// Mode 玩法模式
type Mode string

const (
	ModeBusiness  Mode = "business"   // 商业决策卡牌
	ModeMatchGrid Mode = "match_grid" // 网格配对
)

// VictoryKind 胜利条件类型
type VictoryKind string

const (
	VictoryScore      VictoryKind = "score"      // 任意人累计分 ≥ 目标
	VictoryChallenges VictoryKind = "challenges" // 任意人完成数 ≥ 目标
	// VictoryTimeLimit 时长上限由外部调用方比对 Elapsed 后调用
	// ForceFinish 触发，引擎自身不做墙钟自杀。
	VictoryTimeLimit VictoryKind = "time_limit"
)

// VictoryCondition 胜利条件
type VictoryCondition struct {
	Kind   VictoryKind
	Target int
}

// Config 会话配置
type Config struct {
	MinPlayers     int
	MaxPlayers     int
	HandSize       int
	CenterPoolSize int

	TurnTimeout time.Duration
	TurnWarning time.Duration // 超时前多久发告警

	StreakThreshold int

	MatchPersistDelay time.Duration // 配对固化前的动画同步延迟
	MismatchHideDelay time.Duration // 未配对翻回前的观察延迟
}

// Session 回合制会话权威。
// 所有写操作都在 mu 下串行执行：回合顺序、连胜与胜利判定都依赖顺序。
type Session struct {
	ID     string
	RoomID string
	Mode   Mode

	cfg     Config
	victory VictoryCondition

	reg *registry.Registry
	cat *catalog.Catalog
	rng *rand.Rand

	phase      Phase
	turnPhase  TurnPhase
	turn       int
	currentIdx int // 当前回合玩家在入座顺序中的下标

	roleDeck []catalog.RoleCard      // 补牌堆（循环使用）
	deck     []catalog.ChallengeCard // 挑战抽牌堆
	center   []catalog.ChallengeCard // 中央挑战池
	pending  *catalog.ChallengeCard  // 本回合已选定的挑战
	chosenAt time.Time               // 选定时间，速度加成据此计算

	grid *grid.Grid // 仅配对模式

	startedAt  time.Time
	finishedAt time.Time
	endReason  string

	seq    uint64
	events []Event
	sinks  []func(Event)

	// 计时器。epoch 在每次阶段切换时自增，旧闭包触发即视为
	// TimerRace，静默丢弃。
	timerMu    sync.Mutex
	timerEpoch uint64
	turnTimer  *time.Timer
	warnTimer  *time.Timer

	onFinished func(*Session) // 终局回调（房间生命周期）

	mu sync.Mutex
}

// New 创建会话
func New(id, roomID string, mode Mode, cfg Config, victory VictoryCondition,
	reg *registry.Registry, cat *catalog.Catalog, rng *rand.Rand) *Session {
	return &Session{
		ID:      id,
		RoomID:  roomID,
		Mode:    mode,
		cfg:     cfg,
		victory: victory,
		reg:     reg,
		cat:     cat,
		rng:     rng,
		phase:   PhaseWaiting,
	}
}

// Registry 返回参与者注册表
func (s *Session) Registry() *registry.Registry { return s.reg }

// Phase 当前外层状态
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Elapsed 会话已进行时长。时长上限类胜利条件由调用方据此判定。
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	if s.phase == PhaseFinished {
		return s.finishedAt.Sub(s.startedAt)
	}
	return time.Since(s.startedAt)
}

// Turns 已进行的回合数
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// EndReason 终局原因，未结束为空串
func (s *Session) EndReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// CurrentTurnOwner 当前回合玩家 ID，无则空串
func (s *Session) CurrentTurnOwner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentOwnerLocked()
}

func (s *Session) currentOwnerLocked() string {
	if s.phase != PhasePlaying {
		return ""
	}
	ps := s.reg.Ordered()
	if s.currentIdx < 0 || s.currentIdx >= len(ps) {
		return ""
	}
	return ps[s.currentIdx].ID
}

// Subscribe 订阅事件流。回调在会话锁内触发，
// 订阅方不得同步回调会话方法，需要动作时用 time.AfterFunc 转异步。
func (s *Session) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, fn)
}

// Events 返回事件日志副本
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
