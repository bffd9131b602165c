// Package ledger keeps the durable, ordered list of local mutations that have
// not been confirmed by the remote system yet.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/store"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// Key returns the store key holding the ledger of kind.
func Key(kind string) string { return kind + "/pending_changes" }

// Ledger is the pending change list of one entity kind. The whole list lives
// under a single store key and every operation is a read-modify-write of it.
type Ledger struct {
	mu     sync.Mutex
	store  store.Store
	key    string
	policy RetryPolicy
	log    logging.Logger
	now    func() time.Time
}

type Option func(*Ledger)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(l *Ledger) { l.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(st store.Store, kind string, log logging.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  st,
		key:    Key(kind),
		policy: DefaultRetryPolicy(),
		log:    log.With("module", "ledger", "kind", kind),
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) load(ctx context.Context) ([]models.PendingChange, error) {
	var changes []models.PendingChange
	if _, err := l.store.Get(ctx, l.key, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func (l *Ledger) save(ctx context.Context, changes []models.PendingChange) error {
	if changes == nil {
		changes = []models.PendingChange{}
	}
	return l.store.Set(ctx, l.key, changes)
}

func (l *Ledger) update(ctx context.Context, fn func([]models.PendingChange) ([]models.PendingChange, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	changes, err := l.load(ctx)
	if err != nil {
		return err
	}
	changes, err = fn(changes)
	if err != nil {
		return err
	}
	return l.save(ctx, changes)
}

func (l *Ledger) read(ctx context.Context, keep func(models.PendingChange) bool) ([]models.PendingChange, error) {
	l.mu.Lock()
	changes, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.PendingChange, 0, len(changes))
	for _, c := range changes {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// Append adds change to the end of the ledger.
func (l *Ledger) Append(ctx context.Context, change models.PendingChange) error {
	err := l.update(ctx, func(changes []models.PendingChange) ([]models.PendingChange, error) {
		return append(changes, change), nil
	})
	if err != nil {
		return err
	}
	l.log.Debug(ctx, "change appended", "id", change.ID, "type", change.Type, "target", change.TargetID)
	return nil
}

// Commit runs write and then appends change. When the store supports
// transactions both commit or roll back together.
func (l *Ledger) Commit(ctx context.Context, change models.PendingChange, write func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := store.Atomically(ctx, l.store, func(ctx context.Context) error {
		if err := write(ctx); err != nil {
			return err
		}
		changes, err := l.load(ctx)
		if err != nil {
			return err
		}
		return l.save(ctx, append(changes, change))
	})
	if err != nil {
		return err
	}
	l.log.Debug(ctx, "change appended", "id", change.ID, "type", change.Type, "target", change.TargetID)
	return nil
}

// All returns every entry regardless of status, oldest first.
func (l *Ledger) All(ctx context.Context) ([]models.PendingChange, error) {
	return l.read(ctx, func(models.PendingChange) bool { return true })
}

// Pending returns the entries with status pending, oldest first.
func (l *Ledger) Pending(ctx context.Context) ([]models.PendingChange, error) {
	return l.read(ctx, func(c models.PendingChange) bool { return c.Status == models.StatusPending })
}

func (l *Ledger) Failed(ctx context.Context) ([]models.PendingChange, error) {
	return l.read(ctx, func(c models.PendingChange) bool { return c.Status == models.StatusFailed })
}

// Due returns the entries a sync pass should attempt at now: every pending
// entry plus failed ones that are retryable and whose backoff has elapsed.
func (l *Ledger) Due(ctx context.Context, now time.Time) ([]models.PendingChange, error) {
	return l.read(ctx, func(c models.PendingChange) bool { return IsDue(c, now) })
}

// IsDue reports whether c should be attempted at now.
func IsDue(c models.PendingChange, now time.Time) bool {
	switch c.Status {
	case models.StatusPending:
		return true
	case models.StatusFailed:
		return !c.Permanent && c.NextAttemptAt <= now.UnixMilli()
	default:
		return false
	}
}

// MarkFailed records a failed attempt. A permanent failure, or one that
// exhausts the retry budget, is parked until an explicit Retry; otherwise the
// entry becomes due again after the backoff delay.
func (l *Ledger) MarkFailed(ctx context.Context, id string, cause error, permanent bool) error {
	var marked models.PendingChange
	err := l.update(ctx, func(changes []models.PendingChange) ([]models.PendingChange, error) {
		i := indexOf(changes, id)
		if i < 0 {
			return nil, fmt.Errorf("change %s: %w", id, common.ErrNotFound)
		}
		c := &changes[i]
		c.Status = models.StatusFailed
		c.RetryCount++
		if cause != nil {
			c.LastError = cause.Error()
		}
		if permanent || l.policy.Exhausted(c.RetryCount) {
			c.Permanent = true
			c.NextAttemptAt = 0
		} else {
			c.NextAttemptAt = l.now().Add(l.policy.Delay(c.RetryCount)).UnixMilli()
		}
		marked = *c
		return changes, nil
	})
	if err != nil {
		return err
	}
	l.log.Warn(ctx, "change failed",
		"id", id, "retry_count", marked.RetryCount, "permanent", marked.Permanent, "error", marked.LastError)
	return nil
}

// Remove deletes the entry. Removing an unknown id is a no-op.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	return l.update(ctx, func(changes []models.PendingChange) ([]models.PendingChange, error) {
		i := indexOf(changes, id)
		if i < 0 {
			return changes, nil
		}
		return append(changes[:i], changes[i+1:]...), nil
	})
}

// Retry moves one failed entry back to pending and resets its retry budget.
func (l *Ledger) Retry(ctx context.Context, id string) error {
	return l.update(ctx, func(changes []models.PendingChange) ([]models.PendingChange, error) {
		i := indexOf(changes, id)
		if i < 0 || changes[i].Status != models.StatusFailed {
			return nil, fmt.Errorf("failed change %s: %w", id, common.ErrNotFound)
		}
		reset(&changes[i])
		return changes, nil
	})
}

// RetryAll moves every failed entry back to pending and returns their count.
func (l *Ledger) RetryAll(ctx context.Context) (int, error) {
	n := 0
	err := l.update(ctx, func(changes []models.PendingChange) ([]models.PendingChange, error) {
		for i := range changes {
			if changes[i].Status == models.StatusFailed {
				reset(&changes[i])
				n++
			}
		}
		return changes, nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		l.log.Info(ctx, "failed changes re-queued", "count", n)
	}
	return n, nil
}

// Outstanding returns the set of targets whose local state is still ahead of
// the server. Parked updates and deletes do not count: the server refused
// them, so its copy wins until they are retried.
func (l *Ledger) Outstanding(ctx context.Context) (map[models.ID]bool, error) {
	all, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[models.ID]bool, len(all))
	for _, c := range all {
		if Parked(c) && c.Type != models.ChangeCreate {
			continue
		}
		out[c.TargetID] = true
	}
	return out, nil
}

// Parked reports whether c failed permanently and waits for an explicit retry.
func Parked(c models.PendingChange) bool {
	return c.Status == models.StatusFailed && c.Permanent
}

func reset(c *models.PendingChange) {
	c.Status = models.StatusPending
	c.RetryCount = 0
	c.NextAttemptAt = 0
	c.Permanent = false
}

func indexOf(changes []models.PendingChange, id string) int {
	for i := range changes {
		if changes[i].ID == id {
			return i
		}
	}
	return -1
}
