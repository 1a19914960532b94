package usecase

import (
	"context"
	"errors"
	"goban/internal/ai"
	"goban/microservices/rpc"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type MoveEngine interface {
	SelectContext(ctx context.Context, req ai.Request) (ai.Suggestion, error)
}

type MoveUseCase struct {
	engine MoveEngine
	log    *zap.SugaredLogger
}

func NewMoveUseCase(engine MoveEngine, log *zap.SugaredLogger) *MoveUseCase {
	return &MoveUseCase{
		engine: engine,
		log:    log,
	}
}

func (m *MoveUseCase) GenerateMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	// RPC-структура -> доменный запрос
	req, err := rpc.DecodeRequest(in)
	if err != nil {
		m.log.Warnw("bad move request", "error", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	sug, err := m.engine.SelectContext(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, ai.ErrUnknownTier), errors.Is(err, ai.ErrNoColor):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return nil, status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return nil, status.Error(codes.Canceled, err.Error())
	default:
		m.log.Errorw("move generation failed", "tier", req.Tier, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	m.log.Infow("move generated", "tier", req.Tier, "color", req.Color.String(), "move", sug.Position.String(),
		"confidence", sug.Confidence)
	return rpc.EncodeSuggestion(sug)
}
