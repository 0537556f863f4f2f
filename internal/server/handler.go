package server

import (
	"time"

	"github.com/playleap/challenge-arena/internal/apperrors"
	"github.com/playleap/challenge-arena/internal/logger"
	"github.com/playleap/challenge-arena/internal/protocol"
)

// Handler 消息处理器
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息。
// 带 request_id 的命令走幂等缓存：成功执行过的直接回放应答，
// 失败的不入缓存，允许客户端原 ID 重试。
func (h *Handler) Handle(client *Client, msg *protocol.Message) {
	// 心跳不走幂等
	if msg.Type == protocol.MsgPing {
		h.handlePing(client, msg)
		return
	}

	if reply, ok := client.idem.Lookup(msg.RequestID); ok {
		if reply != nil {
			client.SendMessage(reply)
		}
		return
	}

	var reply *protocol.Message
	var err error

	switch msg.Type {
	// 房间操作
	case protocol.MsgJoinRoom:
		reply, err = h.handleJoinRoom(client, msg)
	case protocol.MsgLeaveRoom:
		err = h.handleLeaveRoom(client)
	case protocol.MsgStartSession:
		err = h.handleStartSession(client, msg)

	// 游戏操作
	case protocol.MsgSelectChallenge:
		err = h.handleSelectChallenge(client, msg)
	case protocol.MsgSubmitTeam:
		err = h.handleSubmitTeam(client, msg)
	case protocol.MsgRevealCell:
		err = h.handleRevealCell(client, msg)
	case protocol.MsgGetSessionState:
		reply, err = h.handleGetSessionState(client, msg)

	default:
		logger.Warnf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err != nil {
		errMsg := protocol.NewErrorMessageWithText(apperrors.CodeOf(err), err.Error())
		errMsg.RequestID = msg.RequestID
		client.SendMessage(errMsg)
		return
	}

	if reply != nil {
		reply.RequestID = msg.RequestID
		client.SendMessage(reply)
	}
	client.idem.Store(msg.RequestID, reply)
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client *Client, msg *protocol.Message) (*protocol.Message, error) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		return nil, apperrors.ErrInvalidMessage
	}

	// 换房先离开旧房间
	if old := client.GetRoom(); old != "" && old != payload.RoomID {
		_ = h.server.engine.LeaveRoom(old, client.ID)
		client.SetRoom("")
	}

	if payload.DisplayName != "" {
		client.Name = payload.DisplayName
	}

	res, err := h.server.engine.JoinRoom(payload.RoomID, client.ID, client.Name)
	if err != nil {
		return nil, err
	}
	client.SetRoom(payload.RoomID)

	// 对局进行中（重连或候补），补发当前会话快照
	if st, stErr := h.server.engine.SessionState(payload.RoomID, client.ID); stErr == nil {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgSessionState, st))
	}

	return protocol.MustNewMessage(protocol.MsgJoinResult, protocol.JoinResultPayload{
		RoomID:   payload.RoomID,
		Accepted: res.Accepted,
		Queued:   res.Queued,
		Message:  res.Message,
	}), nil
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client *Client) error {
	roomID := client.GetRoom()
	if roomID == "" {
		return nil
	}
	if err := h.server.engine.LeaveRoom(roomID, client.ID); err != nil {
		return err
	}
	client.SetRoom("")
	return nil
}

// handleStartSession 处理开始会话
func (h *Handler) handleStartSession(client *Client, msg *protocol.Message) error {
	payload, err := protocol.ParsePayload[protocol.StartSessionPayload](msg)
	if err != nil {
		return apperrors.ErrInvalidMessage
	}
	_, err = h.server.engine.StartSession(payload.RoomID)
	return err
}

// handleSelectChallenge 处理选择挑战
func (h *Handler) handleSelectChallenge(client *Client, msg *protocol.Message) error {
	payload, err := protocol.ParsePayload[protocol.SelectChallengePayload](msg)
	if err != nil {
		return apperrors.ErrInvalidMessage
	}
	return h.server.engine.SelectChallenge(payload.RoomID, client.ID, payload.ChallengeID)
}

// handleSubmitTeam 处理提交团队
func (h *Handler) handleSubmitTeam(client *Client, msg *protocol.Message) error {
	payload, err := protocol.ParsePayload[protocol.SubmitTeamPayload](msg)
	if err != nil {
		return apperrors.ErrInvalidMessage
	}
	return h.server.engine.SubmitTeam(payload.RoomID, client.ID, payload.CardIDs)
}

// handleRevealCell 处理翻格子
func (h *Handler) handleRevealCell(client *Client, msg *protocol.Message) error {
	payload, err := protocol.ParsePayload[protocol.RevealCellPayload](msg)
	if err != nil {
		return apperrors.ErrInvalidMessage
	}
	return h.server.engine.RevealCell(payload.RoomID, client.ID, payload.Cell)
}

// handleGetSessionState 处理状态快照请求
func (h *Handler) handleGetSessionState(client *Client, msg *protocol.Message) (*protocol.Message, error) {
	payload, err := protocol.ParsePayload[protocol.GetSessionStatePayload](msg)
	if err != nil {
		return nil, apperrors.ErrInvalidMessage
	}
	st, err := h.server.engine.SessionState(payload.RoomID, client.ID)
	if err != nil {
		return nil, err
	}
	return protocol.MustNewMessage(protocol.MsgSessionState, st), nil
}
