package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"goban/internal/domain/game"
	goerrors "goban/internal/errors"
)

const gamesCollection = "games"

// MongoArchiveRepository stores finished games as documents keyed by game id.
type MongoArchiveRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewMongoArchiveRepository(log *zap.SugaredLogger, mongo *mongo.Database) *MongoArchiveRepository {
	return &MongoArchiveRepository{
		log:   log,
		mongo: mongo,
	}
}

func (g *MongoArchiveRepository) SaveFinishedGame(ctx context.Context, rec game.Record) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(gamesCollection)

	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts)
	if err != nil {
		g.log.Errorf("failed to insert game to database: %v", err)
		return err
	}

	g.log.Infof("game archived successfully with id: %s", rec.ID)
	return nil
}

func (g *MongoArchiveRepository) FindFinishedGame(ctx context.Context, id string) (game.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(gamesCollection)

	var rec game.Record
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Record{}, goerrors.ErrGameNotFound
	} else if err != nil {
		g.log.Error(err)
		return game.Record{}, err
	}
	return rec, nil
}
