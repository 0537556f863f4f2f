package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001

	ErrCodeRoomNotFound         = 2001
	ErrCodeRoomFull             = 2002
	ErrCodeCapacityBelowMinimum = 2003

	ErrCodeSessionNotFound      = 3001
	ErrCodeParticipantNotFound  = 3002
	ErrCodeNotYourTurn          = 3003
	ErrCodeInvalidPhase         = 3004
	ErrCodeCardAlreadyPersisted = 3005
	ErrCodeTimerRace            = 3006

	ErrCodeServerMaintenance = 5003
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:    "未知错误",
	ErrCodeInvalidMsg: "无效的消息格式",

	ErrCodeRoomNotFound:         "房间不存在",
	ErrCodeRoomFull:             "房间已满",
	ErrCodeCapacityBelowMinimum: "人数不足，无法开始",

	ErrCodeSessionNotFound:      "会话不存在",
	ErrCodeParticipantNotFound:  "参与者不存在",
	ErrCodeNotYourTurn:          "还没轮到您",
	ErrCodeInvalidPhase:         "当前阶段不允许该操作",
	ErrCodeCardAlreadyPersisted: "该格子已配对固化",
	ErrCodeTimerRace:            "操作已过期",

	ErrCodeServerMaintenance: "服务器维护中",
}
