// Package engine 是挑战引擎的组装根：显式构造、显式注入，
// 取代源系统里的模块级单例服务，便于并行测试与多实例隔离。
package engine

import (
	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/config"
	"github.com/playleap/challenge-arena/internal/engine/room"
	"github.com/playleap/challenge-arena/internal/engine/session"
	"github.com/playleap/challenge-arena/internal/protocol"
)

// Engine 服务端权威引擎实例
type Engine struct {
	rooms *room.Manager
}

// Options 引擎依赖。Store/Recorder/Publisher 允许为 nil（测试）。
type Options struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Store    room.SnapshotStore
	Recorder room.ScoreRecorder
	Pub      room.Publisher
	Seed     uint64 // 0 表示取时钟种子
}

// New 构造引擎
func New(opts Options) *Engine {
	return &Engine{
		rooms: room.NewManager(opts.Config, opts.Catalog, opts.Store, opts.Recorder, opts.Pub, opts.Seed),
	}
}

// Rooms 房间管理器
func (e *Engine) Rooms() *room.Manager { return e.rooms }

// JoinRoom 加入房间
func (e *Engine) JoinRoom(roomID, participantID, displayName string) (*room.JoinResult, error) {
	return e.rooms.Join(roomID, participantID, displayName)
}

// LeaveRoom 离开房间
func (e *Engine) LeaveRoom(roomID, participantID string) error {
	return e.rooms.Leave(roomID, participantID)
}

// StartSession 开始会话
func (e *Engine) StartSession(roomID string) (*session.Session, error) {
	return e.rooms.StartSession(roomID)
}

// SelectChallenge 当前回合玩家选定挑战
func (e *Engine) SelectChallenge(roomID, participantID, challengeID string) error {
	s, err := e.currentSession(roomID)
	if err != nil {
		return err
	}
	return s.SelectChallenge(participantID, challengeID)
}

// SubmitTeam 当前回合玩家提交团队
func (e *Engine) SubmitTeam(roomID, participantID string, cardIDs []string) error {
	s, err := e.currentSession(roomID)
	if err != nil {
		return err
	}
	return s.SubmitTeam(participantID, cardIDs)
}

// RevealCell 配对模式翻格子
func (e *Engine) RevealCell(roomID, participantID string, cell int) error {
	s, err := e.currentSession(roomID)
	if err != nil {
		return err
	}
	return s.RevealCell(participantID, cell)
}

// SkipTurn 显式弃权
func (e *Engine) SkipTurn(roomID, participantID, reason string) error {
	s, err := e.currentSession(roomID)
	if err != nil {
		return err
	}
	return s.SkipTurn(participantID, reason)
}

// SessionState 会话状态快照（只读，可并发）
func (e *Engine) SessionState(roomID, forID string) (*protocol.SessionStatePayload, error) {
	s, err := e.currentSession(roomID)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(forID), nil
}

func (e *Engine) currentSession(roomID string) (*session.Session, error) {
	r, err := e.rooms.Room(roomID)
	if err != nil {
		return nil, err
	}
	s := r.CurrentSession()
	if s == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	return s, nil
}
