package grpc

import (
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

// MapError converts a domain error into a gRPC status error.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	// Check if it's already a gRPC status error
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, domain.ErrNotParticipant):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, domain.ErrPreconditionFailed):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, domain.ErrIntegrityViolation):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrDispatchFailed):
		return status.Error(codes.Unavailable, err.Error())

	default:
		observability.Log.Error("internal gRPC error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
