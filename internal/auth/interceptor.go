package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	HeaderUserID            = "x-user-id"

	healthPrefix = "/grpc.health.v1.Health/"
)

var ErrNoUser = errors.New("user id not found in context")

// Interceptor extracts the x-user-id header and injects it into the context.
// Health checks pass without it.
func Interceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {

	if strings.HasPrefix(info.FullMethod, healthPrefix) {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	values := md.Get(HeaderUserID)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return nil, status.Error(codes.Unauthenticated, "x-user-id header is missing")
	}

	return handler(WithUser(ctx, domain.UserID(strings.TrimSpace(values[0]))), req)
}

// ClientInterceptor forwards the acting user of an outgoing call.
func ClientInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if userID, err := GetUserID(ctx); err == nil {
		ctx = metadata.AppendToOutgoingContext(ctx, HeaderUserID, string(userID))
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func WithUser(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID retrieves the authenticated user ID from context.
func GetUserID(ctx context.Context) (domain.UserID, error) {
	id, ok := ctx.Value(UserIDKey).(domain.UserID)
	if !ok || id == "" {
		return "", ErrNoUser
	}
	return id, nil
}
