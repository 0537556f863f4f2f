package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID      string `json:"room_id"`
	DisplayName string `json:"display_name"`
}

// LeaveRoomPayload 离开房间请求
type LeaveRoomPayload struct {
	RoomID string `json:"room_id"`
}

// StartSessionPayload 开始会话请求
type StartSessionPayload struct {
	RoomID string `json:"room_id"`
}

// SelectChallengePayload 选择挑战请求
type SelectChallengePayload struct {
	RoomID      string `json:"room_id"`
	ChallengeID string `json:"challenge_id"`
}

// SubmitTeamPayload 提交团队请求
type SubmitTeamPayload struct {
	RoomID  string   `json:"room_id"`
	CardIDs []string `json:"card_ids"`
}

// RevealCellPayload 翻格子请求
type RevealCellPayload struct {
	RoomID string `json:"room_id"`
	Cell   int    `json:"cell"` // 格子下标
}

// GetSessionStatePayload 获取会话状态请求
type GetSessionStatePayload struct {
	RoomID string `json:"room_id"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ParticipantID string `json:"participant_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// JoinResultPayload 加入房间结果
type JoinResultPayload struct {
	RoomID   string `json:"room_id"`
	Accepted bool   `json:"accepted"`
	Queued   bool   `json:"queued"` // 房间对局中，已进入候补队列
	Message  string `json:"message,omitempty"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 公共 DTO ---

// ParticipantInfo 参与者信息
type ParticipantInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Seat       int    `json:"seat"`
	IsBot      bool   `json:"is_bot"`
	Score      int    `json:"score"`
	Streak     int    `json:"streak"`
	Completed  int    `json:"completed"`
	CardsCount int    `json:"cards_count"`
	Connected  bool   `json:"connected"`
}

// CardInfo 手牌信息（角色/协同卡）
type CardInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"` // role / synergy
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// ChallengeInfo 挑战卡信息
type ChallengeInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Difficulty int    `json:"difficulty"`
	BasePoints int    `json:"base_points"`
}

// ScoreBreakdown 判分明细
type ScoreBreakdown struct {
	Base        int     `json:"base"`
	RoleFit     float64 `json:"role_fit"`
	SpeedBonus  int     `json:"speed_bonus"`
	StreakBonus int     `json:"streak_bonus"`
}

// RankingEntry 终局排名条目
type RankingEntry struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	Completed     int    `json:"completed"`
}

// LeadershipProfile 六维领导力画像（终局产物）
type LeadershipProfile struct {
	ParticipantID string `json:"participant_id"`
	Vision        int    `json:"vision"`
	Communication int    `json:"communication"`
	Decision      int    `json:"decision"`
	Empathy       int    `json:"empathy"`
	Execution     int    `json:"execution"`
	Adaptability  int    `json:"adaptability"`
}

// CellInfo 格子信息
type CellInfo struct {
	Index     int    `json:"index"`
	State     string `json:"state"`                // none/revealed/match_pending/persisted
	ContentID string `json:"content_id,omitempty"` // 只在已翻开时下发
}

// RoomStatusPayload 房间状态
type RoomStatusPayload struct {
	RoomID           string `json:"room_id"`
	Status           string `json:"status"` // dormant/intermission/active
	Seated           int    `json:"seated"`
	MaxPlayers       int    `json:"max_players"`
	CurrentSessionID string `json:"current_session_id,omitempty"`
	TotalGames       int    `json:"total_games"`
}

// --- 会话事件 Payloads（服务端广播，seq 供客户端幂等应用）---

// SessionStartedPayload 会话开始
type SessionStartedPayload struct {
	Seq          uint64            `json:"seq"`
	SessionID    string            `json:"session_id"`
	Mode         string            `json:"mode"`
	Participants []ParticipantInfo `json:"participants"`
	Center       []ChallengeInfo   `json:"center,omitempty"`
	Cells        []CellInfo        `json:"cells,omitempty"`
}

// TurnStartedPayload 新回合开始
type TurnStartedPayload struct {
	Seq      uint64          `json:"seq"`
	Turn     int             `json:"turn"`
	OwnerID  string          `json:"owner_id"`
	Deadline int64           `json:"deadline"` // Unix 毫秒
	Center   []ChallengeInfo `json:"center,omitempty"`
}

// TurnWarningPayload 回合剩余时间告警
type TurnWarningPayload struct {
	Seq         uint64 `json:"seq"`
	Turn        int    `json:"turn"`
	OwnerID     string `json:"owner_id"`
	RemainingMs int64  `json:"remaining_ms"`
}

// ChallengeSelectedPayload 挑战已选定
type ChallengeSelectedPayload struct {
	Seq       uint64        `json:"seq"`
	Turn      int           `json:"turn"`
	OwnerID   string        `json:"owner_id"`
	Challenge ChallengeInfo `json:"challenge"`
}

// TeamSubmittedPayload 团队已提交（含判分）
type TeamSubmittedPayload struct {
	Seq         uint64         `json:"seq"`
	Turn        int            `json:"turn"`
	OwnerID     string         `json:"owner_id"`
	ChallengeID string         `json:"challenge_id"`
	CardIDs     []string       `json:"card_ids"`
	Passed      bool           `json:"passed"`
	Points      int            `json:"points"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	NewScore    int            `json:"new_score"`
	Streak      int            `json:"streak"`
}

// TurnSkippedPayload 回合被跳过
type TurnSkippedPayload struct {
	Seq     uint64 `json:"seq"`
	Turn    int    `json:"turn"`
	OwnerID string `json:"owner_id"`
	Reason  string `json:"reason"`
}

// CellRevealedPayload 格子已翻开
type CellRevealedPayload struct {
	Seq       uint64 `json:"seq"`
	Turn      int    `json:"turn"`
	OwnerID   string `json:"owner_id"`
	Cell      int    `json:"cell"`
	ContentID string `json:"content_id"`
	Name      string `json:"name"`
}

// MatchDetectedPayload 检测到配对
type MatchDetectedPayload struct {
	Seq     uint64 `json:"seq"`
	Turn    int    `json:"turn"`
	OwnerID string `json:"owner_id"`
	CellA   int    `json:"cell_a"`
	CellB   int    `json:"cell_b"`
	PairID  string `json:"pair_id"`
}

// MatchPersistedPayload 配对已固化
type MatchPersistedPayload struct {
	Seq      uint64 `json:"seq"`
	OwnerID  string `json:"owner_id"`
	CellA    int    `json:"cell_a"`
	CellB    int    `json:"cell_b"`
	PairID   string `json:"pair_id"`
	Points   int    `json:"points"`
	NewScore int    `json:"new_score"`
	Streak   int    `json:"streak"`
}

// CellsHiddenPayload 格子翻回背面
type CellsHiddenPayload struct {
	Seq   uint64 `json:"seq"`
	Cells []int  `json:"cells"`
}

// GameEndedPayload 会话结束
type GameEndedPayload struct {
	Seq        uint64              `json:"seq"`
	Reason     string              `json:"reason"`
	Rankings   []RankingEntry      `json:"rankings"`
	Profiles   []LeadershipProfile `json:"profiles"`
	DurationMs int64               `json:"duration_ms"`
}

// SessionStatePayload 会话状态快照（新加入/重连时下发）
type SessionStatePayload struct {
	SessionID     string            `json:"session_id"`
	RoomID        string            `json:"room_id"`
	Phase         string            `json:"phase"`      // waiting/playing/finished
	TurnPhase     string            `json:"turn_phase"` // idle/selecting_challenge/selecting_team/resolving
	Turn          int               `json:"turn"`
	CurrentTurnID string            `json:"current_turn_id,omitempty"`
	Participants  []ParticipantInfo `json:"participants"`
	Center        []ChallengeInfo   `json:"center,omitempty"`
	Hand          []CardInfo        `json:"hand,omitempty"` // 请求者自己的手牌
	Cells         []CellInfo        `json:"cells,omitempty"`
	LastSeq       uint64            `json:"last_seq"`
}
