package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/playleap/challenge-arena/internal/catalog"
	"github.com/playleap/challenge-arena/internal/config"
	"github.com/playleap/challenge-arena/internal/logger"
	"github.com/playleap/challenge-arena/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	decksPath := flag.String("decks", "", "牌库文件路径（默认使用内置牌库）")
	shutdownWait := flag.Duration("shutdown-wait", 2*time.Minute, "优雅关闭时等待对局结束的时长")
	flag.Parse()

	// .env 可选，环境变量优先
	_ = godotenv.Load()

	if err := logger.InitFromEnv(); err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warnf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	// 加载牌库
	cat := catalog.Default()
	if *decksPath != "" {
		cat, err = catalog.Load(*decksPath)
		if err != nil {
			logger.Errorf("加载牌库失败: %v", err)
			os.Exit(1)
		}
	}

	// 创建服务器
	srv, err := server.NewServer(cfg, cat)
	if err != nil {
		logger.Errorf("创建服务器失败: %v", err)
		os.Exit(1)
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Infof("正在关闭服务器...")
		srv.GracefulShutdown(*shutdownWait)
		os.Exit(0)
	}()

	// 启动服务器
	logger.Infof("🎮 挑战竞技场服务器启动中...")
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Errorf("服务器启动失败: %v", err)
		os.Exit(1)
	}
}
