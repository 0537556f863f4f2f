// Package bot 提供补位 AI：订阅会话事件流，在轮到自己时
// 经过拟人化延迟后走和真人完全相同的引擎入口行动。
// 所有随机（选卡、出手时机）都来自注入的随机源，场景可复现。
package bot

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/playleap/challenge-arena/internal/engine/room"
	"github.com/playleap/challenge-arena/internal/engine/session"
	"github.com/playleap/challenge-arena/internal/logger"
	"github.com/playleap/challenge-arena/internal/protocol"
)

// Tier AI 水平档位
type Tier int

const (
	TierEasy   Tier = iota // 随机行动
	TierNormal             // 只看类别契合
	TierSmart              // 类别 + 标签契合最大化
)

// tierForDifficulty 房间难度映射 AI 档位
func tierForDifficulty(d int) Tier {
	switch {
	case d <= 1:
		return TierEasy
	case d == 2:
		return TierNormal
	default:
		return TierSmart
	}
}

// Agent 一个补位 AI 的驾驶员
type Agent struct {
	ID   string
	Tier Tier

	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

// Options 驾驶员参数
type Options struct {
	Seed     uint64        // 0 取时钟种子
	MinDelay time.Duration // 出手延迟下限
	MaxDelay time.Duration // 出手延迟上限
}

// Hook 返回会话挂载点：为会话里的每个 AI 席位装上驾驶员。
// 注意挂载点在房间锁内触发，这里只做订阅，动作一律走定时器转异步。
func Hook(opts Options) room.SessionHook {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	minDelay := opts.MinDelay
	if minDelay <= 0 {
		minDelay = time.Second
	}
	maxDelay := opts.MaxDelay
	if maxDelay < minDelay {
		maxDelay = minDelay + 2*time.Second
	}

	// 挂载点可能被不同房间并发触发，流号必须原子递增
	var seq atomic.Uint64
	return func(r *room.Room, s *session.Session) {
		for _, p := range s.Registry().Ordered() {
			if !p.IsBot {
				continue
			}
			a := &Agent{
				ID:       p.ID,
				Tier:     tierForDifficulty(r.Difficulty),
				rng:      rand.New(rand.NewPCG(seed, seq.Add(1))),
				minDelay: minDelay,
				maxDelay: maxDelay,
			}
			a.attach(s)
		}
	}
}

// attach 订阅事件流。回调在会话锁内触发，动作必须转异步。
func (a *Agent) attach(s *session.Session) {
	s.Subscribe(func(e session.Event) {
		switch b := e.Body.(type) {
		case session.TurnStarted:
			if b.OwnerID == a.ID {
				time.AfterFunc(a.delay(), func() { a.playTurn(s) })
			}
		case session.MatchPersisted:
			// 配对成功回合延续，继续翻
			if b.OwnerID == a.ID {
				time.AfterFunc(a.delay(), func() { a.playTurn(s) })
			}
		}
	})
}

func (a *Agent) delay() time.Duration {
	span := a.maxDelay - a.minDelay
	if span <= 0 {
		return a.minDelay
	}
	return a.minDelay + time.Duration(a.rng.Int64N(int64(span)))
}

// playTurn 执行一个回合。动作前重新拍快照：
// 回合可能已被超时跳过，过期就放弃，绝不和权威抢状态。
func (a *Agent) playTurn(s *session.Session) {
	snap := s.Snapshot(a.ID)
	if snap.Phase != "playing" || snap.CurrentTurnID != a.ID {
		return
	}

	if len(snap.Cells) > 0 {
		a.playGrid(s, snap)
		return
	}
	a.playBusiness(s, snap)
}

// playBusiness 商业模式：选挑战，再延迟提交团队
func (a *Agent) playBusiness(s *session.Session, snap *protocol.SessionStatePayload) {
	if snap.TurnPhase != "selecting_challenge" || len(snap.Center) == 0 {
		return
	}

	ch := a.pickChallenge(snap)
	if err := s.SelectChallenge(a.ID, ch.ID); err != nil {
		logger.Debugf("🤖 %s 选挑战失败: %v", a.ID, err)
		return
	}

	time.AfterFunc(a.delay(), func() {
		a.submitTeam(s, ch)
	})
}

func (a *Agent) submitTeam(s *session.Session, ch protocol.ChallengeInfo) {
	snap := s.Snapshot(a.ID)
	if snap.Phase != "playing" || snap.CurrentTurnID != a.ID || snap.TurnPhase != "selecting_team" {
		return
	}

	cardIDs := a.pickTeam(snap.Hand, ch)
	if len(cardIDs) == 0 {
		return
	}
	if err := s.SubmitTeam(a.ID, cardIDs); err != nil {
		logger.Debugf("🤖 %s 提交团队失败: %v", a.ID, err)
	}
}

// playGrid 配对模式：翻第一张，再延迟翻第二张
func (a *Agent) playGrid(s *session.Session, snap *protocol.SessionStatePayload) {
	cell, ok := a.pickHiddenCell(snap.Cells, -1)
	if !ok {
		return
	}
	if err := s.RevealCell(a.ID, cell); err != nil {
		logger.Debugf("🤖 %s 翻格子失败: %v", a.ID, err)
		return
	}

	first := cell
	time.AfterFunc(a.delay(), func() {
		snap := s.Snapshot(a.ID)
		if snap.Phase != "playing" || snap.CurrentTurnID != a.ID {
			return
		}
		second, ok := a.pickHiddenCell(snap.Cells, first)
		if !ok {
			return
		}
		if err := s.RevealCell(a.ID, second); err != nil {
			logger.Debugf("🤖 %s 翻第二张失败: %v", a.ID, err)
		}
	})
}
