package room

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/config"
	"github.com/playleap/challenge-arena/internal/engine/session"
	"github.com/playleap/challenge-arena/internal/logger"
	"github.com/playleap/challenge-arena/internal/protocol"
	"github.com/playleap/challenge-arena/internal/storage"
)

// Publisher 实时事件通道（服务端 WebSocket 扇出实现它）。
// 通道语义是 at-least-once，消费侧按事件序号幂等应用。
type Publisher interface {
	PublishEvent(roomID string, e session.Event)
	PublishMessage(roomID string, msg *protocol.Message)
}

// SnapshotStore 快照存储。写入 fire-and-forget，失败只记日志。
type SnapshotStore interface {
	SaveRoom(ctx context.Context, snap *storage.RoomSnapshot) error
	SaveSession(ctx context.Context, snap *protocol.SessionStatePayload) error
}

// ScoreRecorder 终局战绩记录
type ScoreRecorder interface {
	RecordSessionResult(ctx context.Context, res storage.SessionResult) error
}

// SessionHook 会话开始后的挂载点（AI 补位等）
type SessionHook func(r *Room, s *session.Session)

// JoinResult 加入房间的结果
type JoinResult struct {
	Accepted bool
	Queued   bool
	Message  string
}

// Manager 房间生命周期管理器。
// 显式构造、显式注入依赖，不持有任何进程级隐式状态。
type Manager struct {
	gameCfg config.GameConfig
	cat     *catalog.Catalog

	store    SnapshotStore // 可为 nil（测试）
	recorder ScoreRecorder // 可为 nil
	pub      Publisher     // 可为 nil

	hooks []SessionHook

	// 随机源统一从这里派生，种子可注入以复现场景
	seed    uint64
	rngSeq  uint64
	rngMu   sync.Mutex

	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewManager 创建房间管理器并按配置创建常驻房间
func NewManager(cfg *config.Config, cat *catalog.Catalog, store SnapshotStore, recorder ScoreRecorder, pub Publisher, seed uint64) *Manager {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	m := &Manager{
		gameCfg:  cfg.Game,
		cat:      cat,
		store:    store,
		recorder: recorder,
		pub:      pub,
		seed:     seed,
		rooms:    make(map[string]*Room),
	}
	for _, rc := range cfg.Rooms {
		m.rooms[rc.ID] = newRoom(rc, cfg.Game)
		logger.Infof("🏠 常驻房间 %s（%s）已创建，容量 %d", rc.ID, rc.Name, m.rooms[rc.ID].MaxPlayers)
	}
	return m
}

// AddSessionHook 注册会话开始挂载点
func (m *Manager) AddSessionHook(h SessionHook) {
	m.hooks = append(m.hooks, h)
}

// Room 按 ID 取房间
func (m *Manager) Room(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return r, nil
}

// Rooms 全部房间
func (m *Manager) Rooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

// newRng 派生一个独立随机源
func (m *Manager) newRng() *rand.Rand {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	m.rngSeq++
	return rand.New(rand.NewPCG(m.seed, m.rngSeq))
}

// Join 加入房间。
// 休眠/休场立即入座；对局进行中进入候补队列，休场时按序入座；
// 已有席位的重连直接恢复在线标记。满员与房间不存在都是显式拒绝。
func (m *Manager) Join(roomID, participantID, displayName string) (*JoinResult, error) {
	r, err := m.Room(roomID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 重连：席位还在，恢复在线
	if _, err := r.reg.Get(participantID); err == nil {
		r.reg.SetConnected(participantID, true)
		logger.Infof("🔌 玩家 %s 重连房间 %s", displayName, roomID)
		return &JoinResult{Accepted: true, Message: "重连成功"}, nil
	}

	if r.status == StatusActive {
		if r.reg.Len()+len(r.queue) >= r.MaxPlayers {
			return nil, apperrors.ErrRoomFull
		}
		r.queue = append(r.queue, queuedJoin{ParticipantID: participantID, DisplayName: displayName})
		m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgPlayerQueued, protocol.ParticipantInfo{
			ID:   participantID,
			Name: displayName,
		}))
		m.persistRoomLocked(r)
		logger.Infof("⏳ 玩家 %s 候补房间 %s（第 %d 位）", displayName, roomID, len(r.queue))
		return &JoinResult{Accepted: true, Queued: true, Message: "对局进行中，将在下一局休场时入座"}, nil
	}

	if r.reg.Len() >= r.MaxPlayers {
		return nil, apperrors.ErrRoomFull
	}

	p := r.reg.Add(participantID, displayName, false)
	m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.ParticipantInfo{
		ID:        p.ID,
		Name:      p.Name,
		Seat:      p.Seat,
		Connected: true,
	}))
	m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgRoomStatus, r.statusPayloadLocked()))
	m.persistRoomLocked(r)

	logger.Infof("👤 玩家 %s 入座房间 %s（座位 %d）", displayName, roomID, p.Seat)
	return &JoinResult{Accepted: true, Message: "已入座"}, nil
}

// Leave 离开房间。
// 对局进行中只标记掉线（战绩保留，计时照走）；未开局直接撤席。
// 在线真人归零时强制休眠并清空当前会话指针——绝不留无人对局。
func (m *Manager) Leave(roomID, participantID string) error {
	r, err := m.Room(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 候补队列里的直接移除
	for i, q := range r.queue {
		if q.ParticipantID == participantID {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			m.persistRoomLocked(r)
			return nil
		}
	}

	p, err := r.reg.Get(participantID)
	if err != nil {
		return err
	}

	if r.status == StatusActive && r.current != nil {
		// 掉线不撤席：分数连胜保留待重连，回合计时照常走到超时
		r.reg.SetConnected(participantID, false)
		logger.Infof("👋 玩家 %s 掉线（房间 %s，对局中，席位保留）", p.Name, roomID)
	} else {
		r.reg.Remove(participantID)
		logger.Infof("👋 玩家 %s 离开房间 %s", p.Name, roomID)
	}

	m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgPlayerLeft, protocol.ParticipantInfo{
		ID:   participantID,
		Name: p.Name,
	}))

	if r.reg.ConnectedHumans() == 0 {
		m.forceDormantLocked(r)
	}

	m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgRoomStatus, r.statusPayloadLocked()))
	m.persistRoomLocked(r)
	return nil
}

// forceDormantLocked 在线真人归零：终止会话、清指针、强制休眠
func (m *Manager) forceDormantLocked(r *Room) {
	sess := r.current
	r.current = nil // 先断开指针，终局回调将按过期会话忽略
	r.status = StatusDormant
	r.queue = nil
	m.stopIntermissionLocked(r)

	// 席位全部清空：没有真人的房间不保留上一局的残余状态
	for _, p := range r.reg.Ordered() {
		r.reg.Remove(p.ID)
	}

	if sess != nil {
		go sess.ForceFinish("abandoned")
	}

	logger.Infof("😴 房间 %s 无真人在线，强制休眠", r.ID)
}

// StartSession 手动开始会话（休眠/休场状态下）
func (m *Manager) StartSession(roomID string) (*session.Session, error) {
	r, err := m.Room(roomID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusActive {
		return nil, apperrors.ErrInvalidPhase
	}
	return m.startSessionLocked(r)
}

// startSessionLocked 创建并启动新会话。调用方持有 r.mu。
func (m *Manager) startSessionLocked(r *Room) (*session.Session, error) {
	// AI 补位：真人不足开局线时用配置的机器人数量补齐
	m.fillBotsLocked(r)

	if r.reg.Len() < m.gameCfg.MinPlayers {
		return nil, apperrors.ErrCapacityBelowMinimum
	}

	s := session.New(
		uuid.New().String(),
		r.ID,
		r.Mode,
		session.Config{
			MinPlayers:        m.gameCfg.MinPlayers,
			MaxPlayers:        r.MaxPlayers,
			HandSize:          m.gameCfg.HandSize,
			CenterPoolSize:    m.gameCfg.CenterPoolSize,
			TurnTimeout:       m.gameCfg.TurnTimeoutDuration(),
			TurnWarning:       m.gameCfg.TurnWarningDuration(),
			StreakThreshold:   m.gameCfg.StreakThreshold,
			MatchPersistDelay: m.gameCfg.MatchPersistDelay(),
			MismatchHideDelay: m.gameCfg.MismatchHideDelay(),
		},
		r.Victory,
		r.reg,
		m.cat,
		m.newRng(),
	)

	// 事件扇出 + 每次状态推进后的快照落库（fire-and-forget）
	roomID := r.ID
	s.Subscribe(func(e session.Event) {
		if m.pub != nil {
			m.pub.PublishEvent(roomID, e)
		}
		if m.store != nil {
			go m.saveSessionSnapshot(s)
		}
	})
	s.OnFinished(m.handleSessionFinished)

	r.current = s
	r.status = StatusActive
	r.LastGameStartedAt = time.Now()
	m.stopIntermissionLocked(r)

	if err := s.Start(); err != nil {
		r.current = nil
		r.status = StatusDormant
		return nil, err
	}

	for _, h := range m.hooks {
		h(r, s)
	}

	m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgRoomStatus, r.statusPayloadLocked()))
	m.persistRoomLocked(r)
	return s, nil
}

// fillBotsLocked 真人不足时按配置补位 AI
func (m *Manager) fillBotsLocked(r *Room) {
	if r.Bots <= 0 {
		return
	}
	need := m.gameCfg.MinPlayers - r.reg.Len()
	if need > r.Bots {
		need = r.Bots
	}
	if free := r.MaxPlayers - r.reg.Len(); need > free {
		need = free
	}
	for i := 0; i < need; i++ {
		id := "bot-" + uuid.New().String()
		r.reg.Add(id, botName(i), true)
	}
	if need > 0 {
		logger.Infof("🤖 房间 %s 补位 %d 个 AI", r.ID, need)
	}
}

// handleSessionFinished 终局回调（会话 goroutine 异步触发）
func (m *Manager) handleSessionFinished(s *session.Session) {
	r, err := m.Room(s.RoomID)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 指针已被休眠流程清掉的过期回调：幂等忽略
	if r.current == nil || r.current.ID != s.ID {
		return
	}

	r.LastSessionDuration = s.Elapsed()
	r.TotalGamesPlayed++
	r.TotalRoundsPlayed += s.Turns()
	r.current = nil
	r.status = StatusIntermission

	m.recordResults(s)

	// 候补按序入座
	for len(r.queue) > 0 && r.reg.Len() < r.MaxPlayers {
		q := r.queue[0]
		r.queue = r.queue[1:]
		p := r.reg.Add(q.ParticipantID, q.DisplayName, false)
		m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.ParticipantInfo{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Connected: true,
		}))
		logger.Infof("🪑 候补玩家 %s 入座房间 %s", p.Name, r.ID)
	}

	m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgRoomStatus, r.statusPayloadLocked()))
	m.persistRoomLocked(r)
	m.scheduleIntermissionLocked(r)

	logger.Infof("⏸️ 房间 %s 进入休场，%v 后自动开下一局", r.ID, m.gameCfg.IntermissionDuration())
}

// scheduleIntermissionLocked 休场倒计时：到点自动开局或转休眠
func (m *Manager) scheduleIntermissionLocked(r *Room) {
	r.intermissionEpoch++
	epoch := r.intermissionEpoch
	roomID := r.ID
	r.intermissionTimer = time.AfterFunc(m.gameCfg.IntermissionDuration(), func() {
		m.intermissionExpired(roomID, epoch)
	})
}

func (m *Manager) stopIntermissionLocked(r *Room) {
	r.intermissionEpoch++
	if r.intermissionTimer != nil {
		r.intermissionTimer.Stop()
		r.intermissionTimer = nil
	}
}

func (m *Manager) intermissionExpired(roomID string, epoch uint64) {
	r, err := m.Room(roomID)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusIntermission || epoch != r.intermissionEpoch {
		return // 过期倒计时，丢弃
	}

	if _, err := m.startSessionLocked(r); err != nil {
		r.status = StatusDormant
		m.publishMessage(r.ID, protocol.MustNewMessage(protocol.MsgRoomStatus, r.statusPayloadLocked()))
		m.persistRoomLocked(r)
		logger.Infof("😴 房间 %s 休场无人开局，转入休眠", r.ID)
	}
}

// recordResults 终局战绩落排行榜（fire-and-forget）
func (m *Manager) recordResults(s *session.Session) {
	if m.recorder == nil {
		return
	}
	rankings := s.Registry().Rankings()
	for _, entry := range rankings {
		p, err := s.Registry().Get(entry.ParticipantID)
		if err != nil || p.IsBot {
			continue
		}
		res := storage.SessionResult{
			PlayerID:   entry.ParticipantID,
			PlayerName: entry.Name,
			Won:        entry.Rank == 1,
			Points:     entry.Score,
			BestStreak: p.BestStreak,
		}
		go func() {
			if err := m.recorder.RecordSessionResult(context.Background(), res); err != nil {
				logger.Errorf("记录战绩失败: %v", err)
			}
		}()
	}
}

func (m *Manager) saveSessionSnapshot(s *session.Session) {
	if err := m.store.SaveSession(context.Background(), s.Snapshot("")); err != nil {
		logger.Errorf("保存会话快照失败: %v", err)
	}
}

// persistRoomLocked 房间快照落库（fire-and-forget）
func (m *Manager) persistRoomLocked(r *Room) {
	if m.store == nil {
		return
	}
	snap := r.snapshotLocked()
	go func() {
		if err := m.store.SaveRoom(context.Background(), snap); err != nil {
			logger.Errorf("保存房间快照失败: %v", err)
		}
	}()
}

func (m *Manager) publishMessage(roomID string, msg *protocol.Message) {
	if m.pub != nil {
		m.pub.PublishMessage(roomID, msg)
	}
}

// botName 补位 AI 的展示名
func botName(i int) string {
	names := []string{"智囊·阿尔法", "军师·贝塔", "顾问·伽马", "参谋·德尔塔", "幕僚·艾普西隆"}
	return names[i%len(names)]
}
