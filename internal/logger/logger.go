package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 全局 zap 日志。控制台始终输出，文件输出可选。
var (
	global  = zap.NewNop()
	sugared = global.Sugar()
)

// L 返回全局结构化日志
func L() *zap.Logger { return global }

// InitFromEnv 根据环境变量初始化日志
//
//	LOG_LEVEL   debug/info/warn/error，默认 info
//	LOG_FILE    设置后同时写入该文件
func InitFromEnv() error {
	level := parseLevel(getenvDefault("LOG_LEVEL", "info"))

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level),
	}

	if filePath := strings.TrimSpace(os.Getenv("LOG_FILE")); filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(f), level))
	}

	global = zap.New(zapcore.NewTee(cores...))
	sugared = global.Sugar()
	return nil
}

// Sync 刷新缓冲
func Sync() {
	_ = global.Sync()
}

// Infof 记录 info 日志
func Infof(format string, args ...any) {
	sugared.Infof(format, args...)
}

// Warnf 记录 warn 日志
func Warnf(format string, args ...any) {
	sugared.Warnf(format, args...)
}

// Errorf 记录 error 日志
func Errorf(format string, args ...any) {
	sugared.Errorf(format, args...)
}

// Debugf 记录 debug 日志
func Debugf(format string, args ...any) {
	sugared.Debugf(format, args...)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
