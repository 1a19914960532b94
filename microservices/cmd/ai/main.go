package main

import (
	"goban/internal/ai"
	"goban/internal/bootstrap"
	"goban/microservices/rpc"
	"goban/microservices/usecase"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
)

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		panic("failed to setup configuration: " + err.Error())
	}
	logger, err := bootstrap.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	aiCfg, err := ai.LoadConfig(cfg.AITiersFile)
	if err != nil {
		logger.Fatalw("failed to load ai tiers", "error", err)
	}
	selector, err := ai.NewSelector(aiCfg, nil)
	if err != nil {
		logger.Fatalw("failed to create ai selector", "error", err)
	}

	lis, err := net.Listen("tcp", cfg.AIListenAddr)
	if err != nil {
		logger.Fatalw("cant listen port", "error", err)
	}

	server := grpc.NewServer()
	rpc.RegisterMoveServiceServer(server, usecase.NewMoveUseCase(selector, logger))

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		logger.Info("Received shutdown signal")
		server.GracefulStop()
	}()

	logger.Infof("starting move service at %s", cfg.AIListenAddr)
	if err := server.Serve(lis); err != nil {
		logger.Fatalw("move service stopped", "error", err)
	}
}
