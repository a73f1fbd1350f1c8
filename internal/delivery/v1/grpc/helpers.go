package grpc

import (
	"context"
	"errors"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func GRPCErrorResponse(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var stockErr *domain.StockError

	switch {
	case errors.As(err, &stockErr):
		return status.Error(codes.FailedPrecondition, stockErr.Error())
	case errors.Is(err, e.ErrInvalidQuantity), errors.Is(err, e.ErrProductRequired), errors.Is(err, e.ErrStatusBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrItemNotFound):
		return status.Error(codes.NotFound, e.ErrItemNotFound.Error())
	case errors.Is(err, e.ErrCartServiceFailed):
		return status.Error(codes.Unavailable, e.ErrCartServiceFailed.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

// unaryInterceptor логирует вызовы и приводит ошибки к статусам gRPC.
func unaryInterceptor(logger logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			err = GRPCErrorResponse(err)
			logger.Warnf("gRPC %s failed: %v", info.FullMethod, err)
			return nil, err
		}

		logger.Debugf("gRPC %s ok", info.FullMethod)
		return resp, nil
	}
}
