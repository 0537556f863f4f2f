package protocol

import "encoding/json"

// Message 基础消息结构
//
// RequestID 由客户端生成，服务端用它做命令幂等去重：
// 相同 RequestID 的命令只会被执行一次，重复到达时直接回放缓存的应答。
type Message struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 命令类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgJoinRoom     MessageType = "join_room"     // 加入房间
	MsgLeaveRoom    MessageType = "leave_room"    // 离开房间
	MsgStartSession MessageType = "start_session" // 开始会话

	// 游戏操作
	MsgSelectChallenge MessageType = "select_challenge"  // 选择挑战
	MsgSubmitTeam      MessageType = "submit_team"       // 提交团队
	MsgRevealCell      MessageType = "reveal_cell"       // 翻开格子
	MsgGetSessionState MessageType = "get_session_state" // 获取会话状态快照
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgJoinResult   MessageType = "join_result"   // 加入结果（含排队）
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家入座
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开/掉线
	MsgPlayerQueued MessageType = "player_queued" // 玩家进入候补队列
	MsgRoomStatus   MessageType = "room_status"   // 房间状态变更

	// 会话流程
	MsgSessionStarted    MessageType = "session_started"    // 会话开始（发牌）
	MsgTurnStarted       MessageType = "turn_started"       // 新回合开始
	MsgTurnWarning       MessageType = "turn_warning"       // 回合剩余时间告警
	MsgChallengeSelected MessageType = "challenge_selected" // 挑战已选定
	MsgTeamSubmitted     MessageType = "team_submitted"     // 团队已提交（含判分）
	MsgTurnSkipped       MessageType = "turn_skipped"       // 回合被跳过
	MsgGameEnded         MessageType = "game_ended"         // 会话结束（含排名）
	MsgSessionState      MessageType = "session_state"      // 会话状态快照

	// 格子配对流程
	MsgCellRevealed   MessageType = "cell_revealed"   // 格子已翻开
	MsgMatchDetected  MessageType = "match_detected"  // 检测到配对
	MsgMatchPersisted MessageType = "match_persisted" // 配对已固化
	MsgCellsHidden    MessageType = "cells_hidden"    // 未配对格子翻回

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// NewMessage 创建一个新消息
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 JSON 字节
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode 从 JSON 字节解码消息
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *Message {
	return MustNewMessage(MsgError, ErrorPayload{
		Code:    code,
		Message: ErrorMessages[code],
	})
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *Message {
	return MustNewMessage(MsgError, ErrorPayload{
		Code:    code,
		Message: text,
	})
}
