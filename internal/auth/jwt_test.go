package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
)

var secret = []byte("test-secret")

func sign(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifier(t *testing.T) {
	v := &Verifier{Secret: secret, Issuer: "auth", Audience: "chat"}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		want    domain.UserID
		wantErr bool
	}{
		{
			name:  "valid",
			token: sign(t, secret, jwt.MapClaims{"sub": "alice", "iss": "auth", "aud": "chat", "exp": exp}),
			want:  "alice",
		},
		{
			name:    "wrong key",
			token:   sign(t, []byte("other"), jwt.MapClaims{"sub": "alice", "iss": "auth", "aud": "chat", "exp": exp}),
			wantErr: true,
		},
		{
			name:    "wrong issuer",
			token:   sign(t, secret, jwt.MapClaims{"sub": "alice", "iss": "evil", "aud": "chat", "exp": exp}),
			wantErr: true,
		},
		{
			name:    "expired",
			token:   sign(t, secret, jwt.MapClaims{"sub": "alice", "iss": "auth", "aud": "chat", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantErr: true,
		},
		{
			name:    "no subject",
			token:   sign(t, secret, jwt.MapClaims{"iss": "auth", "aud": "chat", "exp": exp}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewInterceptor_Bearer(t *testing.T) {
	intercept := NewInterceptor(&Verifier{Secret: secret})
	info := &grpc.UnaryServerInfo{FullMethod: "/chat.v1.ChatApi/MarkRead"}
	token := sign(t, secret, jwt.MapClaims{"sub": "bob"})

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(HeaderAuthorization, "Bearer "+token))
	got, err := intercept(ctx, nil, info, echoUser)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("bob"), got)

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs(HeaderUserID, "bob"))
	_, err = intercept(ctx, nil, info, echoUser)
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "x-user-id alone is not trusted")
}
