package grpc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/auth"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

// startBufServer serves s over an in-memory listener and returns a client
// dialed to it.
func startBufServer(t *testing.T, s *GRPCServer, opts ...client.Option) *client.GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	opts = append(opts, client.WithDialOptions(grpc.WithContextDialer(dialer)))
	c, err := client.NewDaybookClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := auth.GenerateToken(subject, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func TestServer_Ping(t *testing.T) {
	c := startBufServer(t, newTestServer(testSecret))
	require.NoError(t, c.Ping(context.Background()))
}

func TestServer_EntityLifecycle(t *testing.T) {
	ctx := context.Background()
	c := startBufServer(t, newTestServer(testSecret), client.WithAccessToken(token(t, "alice")))
	api := c.Entities(common.KindTasks)

	created, err := api.Create(ctx, json.RawMessage(`{"title":"write report","status":"todo","priority":"high"}`))
	require.NoError(t, err)
	require.Positive(t, created.ID)
	assert.JSONEq(t, `{"title":"write report","status":"todo","priority":"high"}`, string(created.Payload))

	updated, err := api.Update(ctx, created.ID, json.RawMessage(`{"status":"done","description":null}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"write report","status":"done","priority":"high"}`, string(updated.Payload))

	list, err := api.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, api.Delete(ctx, created.ID))
	require.ErrorIs(t, api.Delete(ctx, created.ID), client.ErrRemoteNotFound)

	list, err = api.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServer_RejectsInvalidPayload(t *testing.T) {
	ctx := context.Background()
	c := startBufServer(t, newTestServer(testSecret), client.WithAccessToken(token(t, "alice")))

	_, err := c.Entities(common.KindTasks).Create(ctx, json.RawMessage(`{"status":"todo"}`))
	require.ErrorIs(t, err, client.ErrRemoteRejected)

	_, err = c.Entities(common.KindJournal).Create(ctx, json.RawMessage(`{"content":"x","mood":9}`))
	require.ErrorIs(t, err, client.ErrRemoteRejected)

	_, err = c.Entities(common.KindTasks).Update(ctx, 12345, json.RawMessage(`{"status":"done"}`))
	require.ErrorIs(t, err, client.ErrRemoteNotFound)
}

func TestServer_RequiresToken(t *testing.T) {
	c := startBufServer(t, newTestServer(testSecret))
	_, err := c.Entities(common.KindTasks).List(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestServer_ScopesByOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(testSecret)
	alice := startBufServer(t, s, client.WithAccessToken(token(t, "alice")))
	bob := startBufServer(t, s, client.WithAccessToken(token(t, "bob")))

	e, err := alice.Entities(common.KindJournal).Create(ctx, json.RawMessage(`{"content":"private"}`))
	require.NoError(t, err)

	list, err := bob.Entities(common.KindJournal).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.ErrorIs(t, bob.Entities(common.KindJournal).Delete(ctx, e.ID), client.ErrRemoteNotFound)
}

func TestServer_KindsAreSeparate(t *testing.T) {
	ctx := context.Background()
	c := startBufServer(t, NewGRPCServer("", logging.Nop{}, entities.NewMemoryRepository(), "", common.KindTasks, common.KindJournal))

	e, err := c.Entities(common.KindTasks).Create(ctx, json.RawMessage(`{"title":"t","status":"todo","priority":"low"}`))
	require.NoError(t, err)

	_, err = c.Entities(common.KindJournal).Update(ctx, e.ID, json.RawMessage(`{"content":"x"}`))
	require.ErrorIs(t, err, client.ErrRemoteNotFound)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:0", logging.Nop{}, entities.NewMemoryRepository(), "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunBadAddress(t *testing.T) {
	s := NewGRPCServer("bad::address", logging.Nop{}, entities.NewMemoryRepository(), "")
	require.Error(t, s.Run(context.Background()))
}
