package main

import (
	"context"
	"errors"
	"goban/internal/adapters"
	"goban/internal/ai"
	"goban/internal/bootstrap"
	gameDelivery "goban/internal/delivery/game"
	ownMiddleware "goban/internal/middleware"
	repo "goban/internal/repository"
	gameuc "goban/internal/usecase/game"
	"goban/microservices/rpc"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type mainDeliveryHandler struct {
	game *gameDelivery.GameHandler
}

type dataBaseAdapters struct {
	redisAdapter    *adapters.AdapterRedis
	mongoAdapter    *adapters.AdapterMongo
	postgresAdapter *adapters.AdapterPostgres
}

func (d *dataBaseAdapters) Close(ctx context.Context) {
	if d.mongoAdapter != nil {
		_ = d.mongoAdapter.Close(ctx)
	}
	if d.postgresAdapter != nil {
		_ = d.postgresAdapter.Close(ctx)
	}
	_ = d.redisAdapter.Close(ctx)
}

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.Close(context.Background())

	selector, conn := initSelector(logger, cfg)
	if conn != nil {
		defer conn.Close()
	}

	gameUC := gameuc.NewGameUseCase(
		logger,
		gameuc.Settings{DefaultBoardSize: cfg.DefaultBoardSize, AllowedBoardSizes: cfg.AllowedBoardSizes},
		initArchive(ctx, logger, databaseAdapters),
		repo.NewLiveGameRepository(cfg, logger, databaseAdapters.redisAdapter.GetClient()),
		selector,
	)
	restored, err := gameUC.RestoreAll(ctx)
	if err != nil {
		logger.Errorw("failed to restore live games", "error", err)
	} else {
		logger.Infof("восстановлено партий: %d", restored)
	}

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger, gameUC)
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go handleShutdown(cancel, server, logger)

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("Failed to start server", "error", err)
	}
	<-ctx.Done()
	logger.Infof("остановлен, активных партий в памяти: %d", gameUC.Count())
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h.game.Routes(r)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("Не удалось инициализировать Redis", "error", err)
	}
	result := &dataBaseAdapters{redisAdapter: redisAdapter}

	switch cfg.ArchiveBackend {
	case bootstrap.ArchiveMongo:
		mongoAdapter := adapters.NewAdapterMongo(cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("Не удалось инициализировать MongoDB", "error", err)
		}
		result.mongoAdapter = mongoAdapter
	case bootstrap.ArchivePostgres:
		postgresAdapter := adapters.NewAdapterPostgres(cfg, log)
		if err := postgresAdapter.Init(ctx); err != nil {
			log.Fatalw("Не удалось инициализировать PostgreSQL", "error", err)
		}
		result.postgresAdapter = postgresAdapter
	}

	log.Info("Адаптеры баз данных инициализированы")
	return result
}

func initArchive(ctx context.Context, log *zap.SugaredLogger, dbs *dataBaseAdapters) gameuc.ArchiveStore {
	switch {
	case dbs.mongoAdapter != nil:
		return repo.NewMongoArchiveRepository(log, dbs.mongoAdapter.Database)
	case dbs.postgresAdapter != nil:
		archive := repo.NewPostgresArchiveRepository(log, dbs.postgresAdapter.DB)
		if err := archive.EnsureSchema(ctx); err != nil {
			log.Fatalw("failed to prepare archive schema", "error", err)
		}
		return archive
	}
	log.Warn("archive is disabled, finished games are kept in memory only")
	return nil
}

// initSelector uses the remote move service when AI_SERVICE_ADDR is set and the
// in-process selector otherwise.
func initSelector(log *zap.SugaredLogger, cfg *bootstrap.Config) (gameuc.MoveSelector, *grpc.ClientConn) {
	aiCfg, err := ai.LoadConfig(cfg.AITiersFile)
	if err != nil {
		log.Fatalw("failed to load ai tiers", "error", err)
	}

	if cfg.AIServiceAddr != "" {
		conn, err := rpc.Dial(cfg.AIServiceAddr)
		if err != nil {
			log.Fatalw("Failed to dial grpc", "error", err)
		}
		var slowest time.Duration
		for _, tc := range aiCfg.Tiers {
			slowest = max(slowest, tc.Timeout)
		}
		log.Infof("ai moves are served by %s", cfg.AIServiceAddr)
		return rpc.NewRemoteSelector(rpc.NewMoveServiceClient(conn), log, slowest+time.Second), conn
	}

	selector, err := ai.NewSelector(aiCfg, nil)
	if err != nil {
		log.Fatalw("failed to create ai selector", "error", err)
	}
	return selector, nil
}

func initializeDeliveryHandlers(cfg bootstrap.Config, log *zap.SugaredLogger, gameUC *gameuc.GameUseCase) *mainDeliveryHandler {
	return &mainDeliveryHandler{
		game: gameDelivery.NewGameHandler(cfg, log, gameUC),
	}
}

func handleShutdown(cancelFunc context.CancelFunc, server *http.Server, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("server shutdown failed", "error", err)
	}
	cancelFunc()
}
