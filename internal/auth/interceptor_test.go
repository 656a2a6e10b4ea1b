package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

func echoUser(ctx context.Context, _ any) (any, error) {
	return GetUserID(ctx)
}

func TestInterceptor(t *testing.T) {
	send := &grpc.UnaryServerInfo{FullMethod: "/chat.v1.ChatApi/SendMessage"}
	health := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	tests := []struct {
		name     string
		ctx      context.Context
		info     *grpc.UnaryServerInfo
		wantUser domain.UserID
		wantCode codes.Code
	}{
		{
			name:     "header present",
			ctx:      metadata.NewIncomingContext(context.Background(), metadata.Pairs(HeaderUserID, "alice")),
			info:     send,
			wantUser: "alice",
		},
		{
			name:     "no metadata",
			ctx:      context.Background(),
			info:     send,
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "blank header",
			ctx:      metadata.NewIncomingContext(context.Background(), metadata.Pairs(HeaderUserID, "  ")),
			info:     send,
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "health check is exempt",
			ctx:      context.Background(),
			info:     health,
			wantCode: codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interceptor(tt.ctx, nil, tt.info, echoUser)

			if tt.wantUser != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUser, got)
				return
			}
			if tt.wantCode == codes.OK {
				assert.ErrorIs(t, err, ErrNoUser)
				return
			}
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestClientInterceptor_ForwardsUser(t *testing.T) {
	var forwarded []string
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		forwarded = md.Get(HeaderUserID)
		return nil
	}

	err := ClientInterceptor(WithUser(context.Background(), "bob"), "/x", nil, nil, nil, invoker)

	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, forwarded)
}
