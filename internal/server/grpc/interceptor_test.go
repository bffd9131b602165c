package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/rpc"
	"github.com/dmitrijs2005/daybook/internal/server/auth"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testSecret = "test-secret"

func newTestServer(secret string) *GRPCServer {
	return NewGRPCServer("", logging.Nop{}, entities.NewMemoryRepository(), secret, common.KindTasks, common.KindJournal)
}

// captureHandler records the owner it was called with.
func captureHandler(owner *string) grpc.UnaryHandler {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		*owner = ownerFromContext(ctx)
		return "ok", nil
	}
}

func incoming(token string) context.Context {
	md := metadata.Pairs(common.AccessTokenHeaderName, token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestAccessTokenInterceptor(t *testing.T) {
	s := newTestServer(testSecret)
	method := &grpc.UnaryServerInfo{FullMethod: rpc.FullMethod(common.KindTasks, rpc.OpList)}

	valid, err := auth.GenerateToken("alice", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("alice", []byte(testSecret), -time.Hour)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("alice", []byte("other"), time.Hour)
	require.NoError(t, err)

	t.Run("valid token sets owner", func(t *testing.T) {
		var owner string
		resp, err := s.accessTokenInterceptor(incoming(valid), nil, method, captureHandler(&owner))
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
		assert.Equal(t, "alice", owner)
	})

	tests := []struct {
		name string
		ctx  context.Context
		msg  string
	}{
		{"no metadata", context.Background(), "missing token"},
		{"empty token", incoming(""), "missing token"},
		{"expired", incoming(expired), "token expired"},
		{"wrong secret", incoming(foreign), "invalid token"},
		{"garbage", incoming("not-a-jwt"), "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var owner string
			_, err := s.accessTokenInterceptor(tt.ctx, nil, method, captureHandler(&owner))
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, codes.Unauthenticated, st.Code())
			assert.Equal(t, tt.msg, st.Message())
			assert.Empty(t, owner)
		})
	}
}

func TestAccessTokenInterceptor_PingIsPublic(t *testing.T) {
	s := newTestServer(testSecret)
	var owner string
	_, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: rpc.PingMethod}, captureHandler(&owner))
	require.NoError(t, err)
}

func TestAccessTokenInterceptor_Disabled(t *testing.T) {
	s := newTestServer("")
	var owner string
	info := &grpc.UnaryServerInfo{FullMethod: rpc.FullMethod(common.KindJournal, rpc.OpCreate)}
	_, err := s.accessTokenInterceptor(context.Background(), nil, info, captureHandler(&owner))
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := newTestServer("")
	info := &grpc.UnaryServerInfo{FullMethod: rpc.PingMethod}
	want := status.Error(codes.NotFound, "nope")

	_, err := s.loggingInterceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, want
	})
	require.ErrorIs(t, err, want)
}
