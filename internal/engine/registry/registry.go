package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/scoring"
)

// Participant 会话中的一个席位（真人或 AI）
type Participant struct {
	ID    string
	Name  string
	Seat  int // 入座顺序，平分时的最终裁决
	IsBot bool

	Hand      []catalog.RoleCard
	Synergies []catalog.SynergyCard

	Score      int
	Streak     int      // 连续成功次数
	BestStreak int      // 本局最高连胜
	Completed  []string // 已完成挑战 ID
	Failed     []string // 已失败挑战 ID

	PlayedTags []string // 整局打出卡牌的标签，终局画像用
	FailedTags []string // 失败挑战的标签

	Ready     bool
	Connected bool
	JoinedAt  time.Time
}

// Registry 参与者注册表。
// 分数与连胜只能经 ApplyResult（判分引擎产物）变更，禁止外部直写。
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Participant
}

// New 创建空注册表
func New() *Registry {
	return &Registry{byID: make(map[string]*Participant)}
}

// Add 入座。座位号即入座顺序。
func (r *Registry) Add(id, name string, isBot bool) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		return p
	}
	p := &Participant{
		ID:        id,
		Name:      name,
		Seat:      len(r.order),
		IsBot:     isBot,
		Connected: true,
		JoinedAt:  time.Now(),
	}
	r.byID[id] = p
	r.order = append(r.order, id)
	return p
}

// Remove 移除席位（仅限会话未开始时）
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	// 座位号按入座顺序压实
	for i, pid := range r.order {
		r.byID[pid].Seat = i
	}
}

// Get 按 ID 查找
func (r *Registry) Get(id string) (*Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrParticipantNotFound
	}
	return p, nil
}

// Ordered 按入座顺序返回全部参与者
func (r *Registry) Ordered() []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len 席位数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ConnectedHumans 在线真人数。休眠判定只看这个数字。
func (r *Registry) ConnectedHumans() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byID {
		if !p.IsBot && p.Connected {
			n++
		}
	}
	return n
}

// SetConnected 标记连接状态。会话进行中掉线不删席位，战绩保留待重连。
func (r *Registry) SetConnected(id string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		p.Connected = connected
	}
}

// ApplyResult 应用判分结果：成功加分、连胜 +1 并记录标签；失败连胜清零
func (r *Registry) ApplyResult(id string, challenge catalog.ChallengeCard, res scoring.Result, playedTags []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return apperrors.ErrParticipantNotFound
	}

	if res.Passed {
		p.Score += res.Points
		p.Streak++
		if p.Streak > p.BestStreak {
			p.BestStreak = p.Streak
		}
		p.Completed = append(p.Completed, challenge.ID)
		p.PlayedTags = append(p.PlayedTags, playedTags...)
	} else {
		p.Streak = 0
		p.Failed = append(p.Failed, challenge.ID)
		p.FailedTags = append(p.FailedTags, challenge.Tags...)
	}
	return nil
}

// AddScore 配对玩法的固定加分（仍是引擎判定的产物，非客户端直写）
func (r *Registry) AddScore(id string, points int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		p.Score += points
	}
}

// BumpStreak 配对成功时连胜 +1，并记一次完成
func (r *Registry) BumpStreak(id, pairID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		p.Streak++
		if p.Streak > p.BestStreak {
			p.BestStreak = p.Streak
		}
		p.Completed = append(p.Completed, pairID)
	}
}

// ResetStreak 连胜清零（超时跳过 / 配对失败）
func (r *Registry) ResetStreak(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		p.Streak = 0
	}
}

// Reset 新会话开局：清空上局的分数、连胜与历史，席位保留
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.byID {
		p.Hand = nil
		p.Synergies = nil
		p.Score = 0
		p.Streak = 0
		p.BestStreak = 0
		p.Completed = nil
		p.Failed = nil
		p.PlayedTags = nil
		p.FailedTags = nil
		p.Ready = false
	}
}

// RankingEntry 排名条目
type RankingEntry struct {
	Rank          int
	ParticipantID string
	Name          string
	Score         int
	Completed     int
}

// Rankings 终局排名。
// 平分裁决顺序固定：分数降序 → 完成数降序 → 入座顺序升序。
func (r *Registry) Rankings() []RankingEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ps := make([]*Participant, 0, len(r.order))
	for _, id := range r.order {
		ps = append(ps, r.byID[id])
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Score != ps[j].Score {
			return ps[i].Score > ps[j].Score
		}
		if len(ps[i].Completed) != len(ps[j].Completed) {
			return len(ps[i].Completed) > len(ps[j].Completed)
		}
		return ps[i].Seat < ps[j].Seat
	})

	out := make([]RankingEntry, len(ps))
	for i, p := range ps {
		out[i] = RankingEntry{
			Rank:          i + 1,
			ParticipantID: p.ID,
			Name:          p.Name,
			Score:         p.Score,
			Completed:     len(p.Completed),
		}
	}
	return out
}
