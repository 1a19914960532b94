package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"goban/internal/bootstrap"
	goerrors "goban/internal/errors"
)

const liveKeyPrefix = "game:sgf:"

// LiveGameRepository keeps the SGF of every game in progress in Redis so that a
// restarted server can pick the games up again.
type LiveGameRepository struct {
	cfg   *bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
}

func NewLiveGameRepository(cfg *bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client) *LiveGameRepository {
	return &LiveGameRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
	}
}

func liveKey(id string) string {
	return liveKeyPrefix + id
}

func (g *LiveGameRepository) SaveSGF(ctx context.Context, id string, sgfText string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return g.redis.Set(ctx, liveKey(id), sgfText, g.cfg.LiveGameTTL).Err()
}

func (g *LiveGameRepository) LoadSGF(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	text, err := g.redis.Get(ctx, liveKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", goerrors.ErrRecordNotFound
	}
	return text, err
}

func (g *LiveGameRepository) DeleteSGF(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return g.redis.Del(ctx, liveKey(id)).Err()
}

// ListGameIDs returns the ids of all stored live games.
func (g *LiveGameRepository) ListGameIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ids []string
	iter := g.redis.Scan(ctx, 0, liveKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), liveKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		g.log.Errorf("failed to scan live games: %v", err)
		return nil, err
	}
	return ids, nil
}
