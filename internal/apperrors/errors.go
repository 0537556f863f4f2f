package apperrors

import (
	"github.com/playleap/challenge-arena/internal/protocol"
)

// GameError 引擎错误（房间和会话共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrInvalidMessage       = &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的消息格式"}
	ErrRoomNotFound         = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull             = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrCapacityBelowMinimum = &GameError{Code: protocol.ErrCodeCapacityBelowMinimum, Message: "人数不足，无法开始"}
	ErrSessionNotFound      = &GameError{Code: protocol.ErrCodeSessionNotFound, Message: "会话不存在"}
	ErrParticipantNotFound  = &GameError{Code: protocol.ErrCodeParticipantNotFound, Message: "参与者不存在"}
	ErrNotYourTurn          = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrInvalidPhase         = &GameError{Code: protocol.ErrCodeInvalidPhase, Message: "当前阶段不允许该操作"}
	ErrCardAlreadyPersisted = &GameError{Code: protocol.ErrCodeCardAlreadyPersisted, Message: "该格子已配对固化"}
	// ErrTimerRace 只在会话内部消化，不会下发给客户端
	ErrTimerRace = &GameError{Code: protocol.ErrCodeTimerRace, Message: "操作已过期"}
)

// CodeOf 提取错误码，非 GameError 返回 ErrCodeUnknown
func CodeOf(err error) int {
	if ge, ok := err.(*GameError); ok {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}
