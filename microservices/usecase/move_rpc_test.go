package usecase

import (
	"context"
	"goban/internal/ai"
	"goban/internal/board"
	"goban/internal/domain/game"
	"goban/microservices/rpc"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func fastConfig() ai.Config {
	cfg := ai.DefaultConfig()
	for tier, tc := range cfg.Tiers {
		tc.MinThink, tc.MaxThink = 0, 0
		tc.Timeout = time.Second
		cfg.Tiers[tier] = tc
	}
	return cfg
}

func startService(t *testing.T) rpc.MoveServiceClient {
	t.Helper()
	sel, err := ai.NewSelector(fastConfig(), rand.NewSource(3))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	rpc.RegisterMoveServiceServer(server, NewMoveUseCase(sel, zap.NewNop().Sugar()))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return rpc.NewMoveServiceClient(conn)
}

func TestRemoteSelectorCapturesOverGRPC(t *testing.T) {
	client := startService(t)
	remote := rpc.NewRemoteSelector(client, zap.NewNop().Sugar(), 5*time.Second)

	// белый камень в углу в атари
	b := board.New(9)
	b.Set(game.Position{X: 0, Y: 0}, game.White)
	b.Set(game.Position{X: 1, Y: 0}, game.Black)
	b.SetCaptured(2, 1)

	sug, err := remote.SelectContext(context.Background(), ai.Request{
		Board: b,
		Color: game.Black,
		Tier:  ai.Intermediate,
		History: []game.Move{
			{Position: game.Position{X: 1, Y: 0}, Color: game.Black},
			{Position: game.Position{X: 0, Y: 0}, Color: game.White},
		},
	})
	require.NoError(t, err)
	assert.False(t, sug.Pass)
	assert.Equal(t, game.Position{X: 0, Y: 1}, sug.Position)
	assert.InDelta(t, 0.9, sug.Confidence, 1e-9)
}

func TestRemoteSelectorPassesOnFullBoard(t *testing.T) {
	client := startService(t)
	remote := rpc.NewRemoteSelector(client, zap.NewNop().Sugar(), 0)

	sug, err := remote.SelectContext(context.Background(), ai.Request{
		Board: board.New(1),
		Color: game.White,
		Tier:  ai.Beginner,
	})
	require.NoError(t, err)
	assert.True(t, sug.Pass)
	assert.True(t, sug.Position.IsPass())
}

func TestGenerateMoveRejectsBadRequests(t *testing.T) {
	client := startService(t)
	ctx := context.Background()

	req, err := rpc.EncodeRequest(ai.Request{Board: board.New(5), Color: game.Black, Tier: "grandmaster"})
	require.NoError(t, err)
	_, err = client.GenerateMove(ctx, req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req, err = rpc.EncodeRequest(ai.Request{Board: board.New(5), Color: game.Black, Tier: ai.Beginner})
	require.NoError(t, err)
	req.Fields["board"] = req.Fields["color"]
	_, err = client.GenerateMove(ctx, req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	remote := rpc.NewRemoteSelector(client, zap.NewNop().Sugar(), time.Second)
	_, err = remote.SelectContext(ctx, ai.Request{Board: board.New(5), Color: game.Empty, Tier: ai.Beginner})
	assert.ErrorIs(t, err, rpc.ErrBadMessage)
}
