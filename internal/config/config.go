package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
	Rooms  []RoomConfig `yaml:"rooms"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	MinPlayers     int `yaml:"min_players"`      // 开局最少人数
	MaxPlayers     int `yaml:"max_players"`      // 默认房间容量上限
	HandSize       int `yaml:"hand_size"`        // 开局手牌数
	CenterPoolSize int `yaml:"center_pool_size"` // 中央挑战池大小

	TurnTimeout  int `yaml:"turn_timeout"`  // 回合超时（秒）
	TurnWarning  int `yaml:"turn_warning"`  // 超时前告警（秒）
	Intermission int `yaml:"intermission"`  // 休场倒计时（秒）

	StreakThreshold int `yaml:"streak_threshold"` // 连胜加成阈值

	MatchPersistDelayMs int `yaml:"match_persist_delay_ms"` // 配对固化延迟（毫秒）
	MismatchHideDelayMs int `yaml:"mismatch_hide_delay_ms"` // 未配对翻回延迟（毫秒）
}

// RoomConfig 常驻房间配置
type RoomConfig struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Mode       string `yaml:"mode"` // business / match_grid
	Category   string `yaml:"category"`
	Difficulty int    `yaml:"difficulty"`
	MaxPlayers int    `yaml:"max_players"`
	Bots       int    `yaml:"bots"` // 补位 AI 数量

	Victory VictoryConfig `yaml:"victory"`
}

// VictoryConfig 胜利条件配置
type VictoryConfig struct {
	Kind   string `yaml:"kind"` // score / challenges / time_limit
	Target int    `yaml:"target"`
}

// TurnTimeoutDuration 返回回合超时时长
func (c *GameConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// TurnWarningDuration 返回超时告警提前量
func (c *GameConfig) TurnWarningDuration() time.Duration {
	return time.Duration(c.TurnWarning) * time.Second
}

// IntermissionDuration 返回休场倒计时时长
func (c *GameConfig) IntermissionDuration() time.Duration {
	return time.Duration(c.Intermission) * time.Second
}

// MatchPersistDelay 返回配对固化延迟
func (c *GameConfig) MatchPersistDelay() time.Duration {
	return time.Duration(c.MatchPersistDelayMs) * time.Millisecond
}

// MismatchHideDelay 返回未配对翻回延迟
func (c *GameConfig) MismatchHideDelay() time.Duration {
	return time.Duration(c.MismatchHideDelayMs) * time.Millisecond
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1980
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1024
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.MinPlayers == 0 {
		cfg.Game.MinPlayers = 2
	}
	if cfg.Game.MaxPlayers == 0 {
		cfg.Game.MaxPlayers = 8
	}
	if cfg.Game.HandSize == 0 {
		cfg.Game.HandSize = 3
	}
	if cfg.Game.CenterPoolSize == 0 {
		cfg.Game.CenterPoolSize = 4
	}
	if cfg.Game.TurnTimeout == 0 {
		cfg.Game.TurnTimeout = 90
	}
	if cfg.Game.TurnWarning == 0 {
		cfg.Game.TurnWarning = 10
	}
	if cfg.Game.Intermission == 0 {
		cfg.Game.Intermission = 15
	}
	if cfg.Game.StreakThreshold == 0 {
		cfg.Game.StreakThreshold = 3
	}
	if cfg.Game.MatchPersistDelayMs == 0 {
		cfg.Game.MatchPersistDelayMs = 600
	}
	if cfg.Game.MismatchHideDelayMs == 0 {
		cfg.Game.MismatchHideDelayMs = 900
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = []RoomConfig{
			{
				ID:         "boardroom-1",
				Name:       "决策会议室",
				Mode:       "business",
				Category:   "strategy",
				Difficulty: 2,
				MaxPlayers: 4,
				Victory:    VictoryConfig{Kind: "score", Target: 100},
			},
			{
				ID:         "grid-1",
				Name:       "配对挑战室",
				Mode:       "match_grid",
				Category:   "memory",
				Difficulty: 1,
				MaxPlayers: 4,
				Victory:    VictoryConfig{Kind: "challenges", Target: 6},
			},
		}
	}
}
