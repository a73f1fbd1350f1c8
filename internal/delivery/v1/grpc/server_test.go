package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestHealthFollowsServingStatus(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{NetworkMode: "tcp"}, logger.NewNopLogger())
	srv.RegisterServices()

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, res.GetStatus())

	srv.SetServing(true)

	res, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.GetStatus())

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"stock", &domain.StockError{Available: 2}, codes.FailedPrecondition},
		{"quantity", fmt.Errorf("op: %w", e.ErrInvalidQuantity), codes.InvalidArgument},
		{"not found", fmt.Errorf("op: %w", e.ErrItemNotFound), codes.NotFound},
		{"remote", fmt.Errorf("op: %w", e.ErrCartServiceFailed), codes.Unavailable},
		{"status passthrough", status.Error(codes.Aborted, "x"), codes.Aborted},
		{"unknown", fmt.Errorf("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(GRPCErrorResponse(tt.err)))
		})
	}

	assert.NoError(t, GRPCErrorResponse(nil))
}
