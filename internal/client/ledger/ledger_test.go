package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/store"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, opts ...Option) (*Ledger, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return New(st, common.KindTasks, logging.Nop{}, opts...), st
}

func ids(changes []models.PendingChange) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.ID)
	}
	return out
}

func TestPending_SortedByTimestampStable(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, models.PendingChange{ID: "c", Timestamp: 30, Status: models.StatusPending}))
	require.NoError(t, l.Append(ctx, models.PendingChange{ID: "a", Timestamp: 10, Status: models.StatusPending}))
	require.NoError(t, l.Append(ctx, models.PendingChange{ID: "b1", Timestamp: 20, Status: models.StatusPending}))
	require.NoError(t, l.Append(ctx, models.PendingChange{ID: "b2", Timestamp: 20, Status: models.StatusPending}))
	require.NoError(t, l.Append(ctx, models.PendingChange{ID: "f", Timestamp: 5, Status: models.StatusFailed}))

	got, err := l.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids(got))

	failed, err := l.Failed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, ids(failed))
}

func TestLedger_PersistsUnderKindKey(t *testing.T) {
	l, st := newLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, models.NewChange(models.ChangeCreate, 1, models.Local(1), nil)))

	var raw []models.PendingChange
	ok, err := st.Get(ctx, "tasks/pending_changes", &raw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, raw, 1)

	reopened := New(st, common.KindTasks, logging.Nop{})
	got, err := reopened.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMarkFailed_SchedulesBackoff(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	l, _ := newLedger(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	c := models.NewChange(models.ChangeCreate, 1, models.Local(1), nil)
	require.NoError(t, l.Append(ctx, c))
	require.NoError(t, l.MarkFailed(ctx, c.ID, errors.New("unavailable"), false))

	failed, err := l.Failed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].RetryCount)
	assert.Equal(t, "unavailable", failed[0].LastError)
	assert.False(t, failed[0].Permanent)
	assert.Equal(t, now.Add(2*time.Second).UnixMilli(), failed[0].NextAttemptAt)

	due, err := l.Due(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, due, "backoff has not elapsed")

	due, err = l.Due(ctx, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(due))

	pending, err := l.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed changes are not pending")
}

func TestMarkFailed_PermanentIsNeverDue(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	c := models.NewChange(models.ChangeUpdate, 1, models.Server(3), nil)
	require.NoError(t, l.Append(ctx, c))
	require.NoError(t, l.MarkFailed(ctx, c.ID, errors.New("invalid title"), true))

	due, err := l.Due(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)

	failed, _ := l.Failed(ctx)
	require.Len(t, failed, 1)
	assert.True(t, failed[0].Permanent)
}

func TestMarkFailed_ExhaustedBudgetBecomesPermanent(t *testing.T) {
	l, _ := newLedger(t, WithRetryPolicy(RetryPolicy{BaseDelay: time.Millisecond, MaxDelay: time.Second, MaxRetries: 2}))
	ctx := context.Background()

	c := models.NewChange(models.ChangeCreate, 1, models.Local(1), nil)
	require.NoError(t, l.Append(ctx, c))
	require.NoError(t, l.MarkFailed(ctx, c.ID, errors.New("x"), false))
	require.NoError(t, l.MarkFailed(ctx, c.ID, errors.New("y"), false))

	failed, _ := l.Failed(ctx)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].RetryCount)
	assert.True(t, failed[0].Permanent)
}

func TestMarkFailed_UnknownID(t *testing.T) {
	l, _ := newLedger(t)
	err := l.MarkFailed(context.Background(), "nope", errors.New("x"), false)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestRemove(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	c := models.NewChange(models.ChangeCreate, 1, models.Local(1), nil)
	require.NoError(t, l.Append(ctx, c))
	require.NoError(t, l.Remove(ctx, c.ID))
	require.NoError(t, l.Remove(ctx, c.ID))

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRetryAndRetryAll(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	a := models.NewChange(models.ChangeCreate, 1, models.Local(1), nil)
	b := models.NewChange(models.ChangeCreate, 2, models.Local(2), nil)
	require.NoError(t, l.Append(ctx, a))
	require.NoError(t, l.Append(ctx, b))
	require.NoError(t, l.MarkFailed(ctx, a.ID, errors.New("x"), true))
	require.NoError(t, l.MarkFailed(ctx, b.ID, errors.New("y"), true))

	require.NoError(t, l.Retry(ctx, a.ID))
	pending, _ := l.Pending(ctx)
	assert.Equal(t, []string{a.ID}, ids(pending))
	assert.Equal(t, 0, pending[0].RetryCount)
	assert.Equal(t, "x", pending[0].LastError, "last error is kept for diagnostics")

	require.ErrorIs(t, l.Retry(ctx, a.ID), common.ErrNotFound, "only failed entries can be retried")

	n, err := l.RetryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	pending, _ = l.Pending(ctx)
	assert.Equal(t, []string{a.ID, b.ID}, ids(pending))
}

func TestOutstanding(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, models.NewChange(models.ChangeUpdate, 1, models.Server(7), nil)))
	f := models.NewChange(models.ChangeCreate, 2, models.Local(100), nil)
	require.NoError(t, l.Append(ctx, f))
	require.NoError(t, l.MarkFailed(ctx, f.ID, errors.New("x"), true))

	out, err := l.Outstanding(ctx)
	require.NoError(t, err)
	assert.True(t, out[models.Server(7)])
	assert.True(t, out[models.Local(100)])
	assert.False(t, out[models.Local(7)])
}

func TestOutstanding_SkipsParkedUpdatesAndDeletes(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	u := models.NewChange(models.ChangeUpdate, 1, models.Server(7), nil)
	d := models.NewChange(models.ChangeDelete, 2, models.Server(8), nil)
	retrying := models.NewChange(models.ChangeUpdate, 3, models.Server(9), nil)
	for _, c := range []models.PendingChange{u, d, retrying} {
		require.NoError(t, l.Append(ctx, c))
	}
	require.NoError(t, l.MarkFailed(ctx, u.ID, errors.New("rejected"), true))
	require.NoError(t, l.MarkFailed(ctx, d.ID, errors.New("rejected"), true))
	require.NoError(t, l.MarkFailed(ctx, retrying.ID, errors.New("unavailable"), false))

	out, err := l.Outstanding(ctx)
	require.NoError(t, err)
	assert.False(t, out[models.Server(7)])
	assert.False(t, out[models.Server(8)])
	assert.True(t, out[models.Server(9)], "transient failures still hold the local copy")

	require.NoError(t, l.Retry(ctx, u.ID))
	out, err = l.Outstanding(ctx)
	require.NoError(t, err)
	assert.True(t, out[models.Server(7)])
}

func TestCommit_RollsBackWithWrite(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	boom := errors.New("disk full")

	err := l.Commit(ctx, models.NewChange(models.ChangeCreate, 1, models.Local(1), nil), func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, _ := l.All(ctx)
	assert.Empty(t, all, "no ledger entry without its entity write")
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 16*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Minute, p.Delay(20))
	assert.False(t, p.Exhausted(7))
	assert.True(t, p.Exhausted(8))
}
