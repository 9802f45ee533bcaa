package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/palemoky/chess-memory/internal/config"
	"github.com/palemoky/chess-memory/internal/logger"
	"github.com/palemoky/chess-memory/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, loadErr := config.Load(*configPath)
	if loadErr != nil {
		cfg = config.Default()
	}

	log, err := logger.Init(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if loadErr != nil {
		log.Warn("加载配置文件失败，使用默认配置", zap.String("path", *configPath), zap.Error(loadErr))
	}

	// 创建服务器
	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatal("创建服务器失败", zap.Error(err))
	}

	// SIGTERM 等待对局结束，SIGINT 立即关闭，再次收到信号强制退出
	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		go func() {
			<-quit
			log.Warn("强制退出")
			os.Exit(1)
		}()

		log.Info("正在关闭服务器...", zap.String("signal", sig.String()))
		if sig == syscall.SIGTERM {
			srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
		} else {
			srv.Shutdown()
		}
	}()

	// 启动服务器
	log.Info("♟️ 记忆象棋服务器启动中...")
	if err := srv.Start(); err != nil {
		log.Fatal("服务器启动失败", zap.Error(err))
	}
}
