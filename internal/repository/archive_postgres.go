package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goban/internal/domain/game"
	goerrors "goban/internal/errors"
)

const createGamesTable = `CREATE TABLE IF NOT EXISTS go_games (
	game_id      TEXT PRIMARY KEY,
	board_size   INTEGER NOT NULL,
	rule         TEXT NOT NULL,
	limits       JSONB NOT NULL,
	moves        JSONB NOT NULL,
	score        JSONB NOT NULL,
	winner       SMALLINT NOT NULL,
	reason       TEXT NOT NULL,
	result       TEXT NOT NULL,
	sgf          TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	ended_at     TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL
)`

const upsertGame = `INSERT INTO go_games (
	game_id, board_size, rule, limits, moves, score,
	winner, reason, result, sgf, started_at, ended_at, duration_ms
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
) ON CONFLICT (game_id) DO UPDATE SET
	board_size=EXCLUDED.board_size,
	rule=EXCLUDED.rule,
	limits=EXCLUDED.limits,
	moves=EXCLUDED.moves,
	score=EXCLUDED.score,
	winner=EXCLUDED.winner,
	reason=EXCLUDED.reason,
	result=EXCLUDED.result,
	sgf=EXCLUDED.sgf,
	started_at=EXCLUDED.started_at,
	ended_at=EXCLUDED.ended_at,
	duration_ms=EXCLUDED.duration_ms`

const selectGame = `SELECT game_id, board_size, rule, limits, moves, score,
	winner, reason, result, sgf, started_at, ended_at
FROM go_games WHERE game_id = $1`

// PostgresArchiveRepository stores finished games in the go_games table.
type PostgresArchiveRepository struct {
	log *zap.SugaredLogger
	db  *sql.DB
}

func NewPostgresArchiveRepository(log *zap.SugaredLogger, db *sql.DB) *PostgresArchiveRepository {
	return &PostgresArchiveRepository{
		log: log,
		db:  db,
	}
}

func (r *PostgresArchiveRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, createGamesTable)
	return err
}

func (r *PostgresArchiveRepository) SaveFinishedGame(ctx context.Context, rec game.Record) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	args, err := recordArgs(rec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertGame, args...); err != nil {
		r.log.Errorf("failed to upsert game %s: %v", rec.ID, err)
		return err
	}
	r.log.Infof("game archived successfully with id: %s", rec.ID)
	return nil
}

func (r *PostgresArchiveRepository) FindFinishedGame(ctx context.Context, id string) (game.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectGame, id))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Record{}, goerrors.ErrGameNotFound
	}
	return rec, err
}

func recordArgs(rec game.Record) ([]any, error) {
	limits, err := json.Marshal(rec.Limits)
	if err != nil {
		return nil, fmt.Errorf("marshal limits: %w", err)
	}
	moves, err := json.Marshal(rec.Moves)
	if err != nil {
		return nil, fmt.Errorf("marshal moves: %w", err)
	}
	score, err := json.Marshal(rec.Score)
	if err != nil {
		return nil, fmt.Errorf("marshal score: %w", err)
	}
	duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}
	return []any{
		rec.ID, rec.BoardSize, string(rec.Rule), string(limits), string(moves), string(score),
		int(rec.Winner), string(rec.Reason), rec.Result, rec.SGF, rec.StartedAt, rec.EndedAt, duration,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (game.Record, error) {
	var (
		rec                  game.Record
		rule, reason         string
		limits, moves, score []byte
		winner               int
	)
	err := row.Scan(&rec.ID, &rec.BoardSize, &rule, &limits, &moves, &score,
		&winner, &reason, &rec.Result, &rec.SGF, &rec.StartedAt, &rec.EndedAt)
	if err != nil {
		return game.Record{}, err
	}
	rec.Rule = game.RuleVariant(rule)
	rec.Reason = game.EndReason(reason)
	rec.Winner = game.Color(winner)
	if err := json.Unmarshal(limits, &rec.Limits); err != nil {
		return game.Record{}, fmt.Errorf("unmarshal limits: %w", err)
	}
	if err := json.Unmarshal(moves, &rec.Moves); err != nil {
		return game.Record{}, fmt.Errorf("unmarshal moves: %w", err)
	}
	if err := json.Unmarshal(score, &rec.Score); err != nil {
		return game.Record{}, fmt.Errorf("unmarshal score: %w", err)
	}
	return rec, nil
}
