package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"goban/internal/bootstrap"
)

type AdapterPostgres struct {
	DB  *sql.DB
	cfg *bootstrap.Config
	log *zap.SugaredLogger
}

func NewAdapterPostgres(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterPostgres {
	return &AdapterPostgres{
		cfg: cfg,
		log: log,
	}
}

func (a *AdapterPostgres) Init(ctx context.Context) error {
	if strings.TrimSpace(a.cfg.PostgresUrl) == "" {
		return fmt.Errorf("POSTGRES_URL is required")
	}
	db, err := sql.Open("postgres", a.cfg.PostgresUrl)
	if err != nil {
		return fmt.Errorf("ошибка подключения к Postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return fmt.Errorf("не удалось пропинговать Postgres: %w", err)
	}

	a.DB = db
	a.log.Info("connected to postgres")
	return nil
}

func (a *AdapterPostgres) Close(ctx context.Context) error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
