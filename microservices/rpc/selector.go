package rpc

import (
	"context"
	"fmt"
	"goban/internal/ai"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// RemoteSelector asks the move service over gRPC. It satisfies the same
// SelectContext contract as ai.Selector.
type RemoteSelector struct {
	client  MoveServiceClient
	log     *zap.SugaredLogger
	timeout time.Duration
}

func NewRemoteSelector(client MoveServiceClient, log *zap.SugaredLogger, timeout time.Duration) *RemoteSelector {
	return &RemoteSelector{client: client, log: log, timeout: timeout}
}

// Dial opens an insecure connection to the move service at addr.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func (r *RemoteSelector) SelectContext(ctx context.Context, req ai.Request) (ai.Suggestion, error) {
	in, err := EncodeRequest(req)
	if err != nil {
		return ai.Suggestion{}, err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	out, err := r.client.GenerateMove(ctx, in)
	if err != nil {
		st, _ := status.FromError(err)
		if st.Code() == codes.InvalidArgument {
			return ai.Suggestion{}, fmt.Errorf("%w: %s", ErrBadMessage, st.Message())
		}
		return ai.Suggestion{}, fmt.Errorf("move service: %s", st.Message())
	}
	sug := DecodeSuggestion(out)
	r.log.Debugw("move service answered", "tier", req.Tier, "move", sug.Position.String(), "took", time.Since(started))
	return sug, nil
}
