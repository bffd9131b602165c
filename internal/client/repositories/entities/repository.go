package entities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/ledger"
	"github.com/dmitrijs2005/daybook/internal/client/locks"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/store"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// Key returns the store key holding the entities of kind.
func Key(kind string) string { return kind + "/entities" }

// Payload is implemented by the kind-specific fields of an entity.
type Payload interface {
	Validate() error
}

type options struct {
	now      func() time.Time
	onChange func()
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithChangeHook registers fn to run after every mutation that appended a
// ledger entry. It is called outside any lock.
func WithChangeHook(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

type Repository[P Payload] struct {
	mu     sync.Mutex
	kind   string
	key    string
	store  store.Store
	ledger *ledger.Ledger
	locks  *locks.Table
	log    logging.Logger
	opts   options
}

func New[P Payload](kind string, st store.Store, l *ledger.Ledger, lt *locks.Table, log logging.Logger, opts ...Option) *Repository[P] {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return &Repository[P]{
		kind:   kind,
		key:    Key(kind),
		store:  st,
		ledger: l,
		locks:  lt,
		log:    log.With("module", "repository", "kind", kind),
		opts:   o,
	}
}

func (r *Repository[P]) Kind() string { return r.kind }

// SetChangeHook replaces the change hook. It must be called before the
// repository is shared between goroutines.
func (r *Repository[P]) SetChangeHook(fn func()) { r.opts.onChange = fn }

func (r *Repository[P]) load(ctx context.Context) ([]models.Entity[P], error) {
	var list []models.Entity[P]
	if _, err := r.store.Get(ctx, r.key, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository[P]) save(ctx context.Context, list []models.Entity[P]) error {
	if list == nil {
		list = []models.Entity[P]{}
	}
	return r.store.Set(ctx, r.key, list)
}

func (r *Repository[P]) notify() {
	if r.opts.onChange != nil {
		r.opts.onChange()
	}
}

func (r *Repository[P]) lockKey(localID int64) string {
	return r.kind + "/" + models.Local(localID).String()
}

func indexOf[P any](list []models.Entity[P], id models.ID) int {
	for i := range list {
		if list[i].Matches(id) {
			return i
		}
	}
	return -1
}

// nextLocalID is the current time in milliseconds, or one past the largest
// local id in use when the clock is behind.
func nextLocalID[P any](list []models.Entity[P], now time.Time) int64 {
	id := now.UnixMilli()
	for _, e := range list {
		if e.LocalID >= id {
			id = e.LocalID + 1
		}
	}
	return id
}

// Create stores a new entity and records a create change for it.
func (r *Repository[P]) Create(ctx context.Context, payload P) (models.Entity[P], error) {
	return r.create(ctx, payload, false)
}

// CreateTemplate stores a template. Templates never reach the ledger.
func (r *Repository[P]) CreateTemplate(ctx context.Context, payload P) (models.Entity[P], error) {
	return r.create(ctx, payload, true)
}

func (r *Repository[P]) create(ctx context.Context, payload P, template bool) (models.Entity[P], error) {
	if err := payload.Validate(); err != nil {
		return models.Entity[P]{}, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Entity[P]{}, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}

	r.mu.Lock()
	list, err := r.load(ctx)
	if err != nil {
		r.mu.Unlock()
		return models.Entity[P]{}, err
	}

	now := r.opts.now()
	e := models.Entity[P]{
		LocalID:    nextLocalID(list, now),
		Payload:    payload,
		IsTemplate: template,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	list = append(list, e)

	if template {
		err = r.save(ctx, list)
	} else {
		change := models.NewChange(models.ChangeCreate, now.UnixMilli(), models.Local(e.LocalID), data)
		err = r.ledger.Commit(ctx, change, func(ctx context.Context) error { return r.save(ctx, list) })
	}
	r.mu.Unlock()
	if err != nil {
		return models.Entity[P]{}, err
	}

	r.log.Debug(ctx, "entity created", "id", e.Ref(), "template", template)
	if !template {
		r.notify()
	}
	return e, nil
}

// Get returns the entity addressed by id, or common.ErrNotFound.
func (r *Repository[P]) Get(ctx context.Context, id models.ID) (models.Entity[P], error) {
	e, ok, err := r.Resolve(ctx, id)
	if err != nil {
		return models.Entity[P]{}, err
	}
	if !ok {
		return models.Entity[P]{}, fmt.Errorf("%s %s: %w", r.kind, id, common.ErrNotFound)
	}
	return e, nil
}

// Resolve looks id up in either id space and reports whether it exists.
func (r *Repository[P]) Resolve(ctx context.Context, id models.ID) (models.Entity[P], bool, error) {
	r.mu.Lock()
	list, err := r.load(ctx)
	r.mu.Unlock()
	if err != nil {
		return models.Entity[P]{}, false, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return models.Entity[P]{}, false, nil
	}
	return list[i], true, nil
}

// List returns the entities selected by q. Templates are left out unless q
// asks for them.
func (r *Repository[P]) List(ctx context.Context, q Query[P]) ([]models.Entity[P], error) {
	r.mu.Lock()
	list, err := r.load(ctx)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return q.apply(list), nil
}

// Update merges patch into the payload of the entity addressed by id and
// records an update change targeting the entity's working id. It fails with
// common.ErrLocked while another mutation of the entity is in progress.
func (r *Repository[P]) Update(ctx context.Context, id models.ID, patch map[string]any) (models.Entity[P], error) {
	target, err := r.Get(ctx, id)
	if err != nil {
		return models.Entity[P]{}, err
	}
	lk := r.lockKey(target.LocalID)
	if !r.locks.Acquire(lk) {
		return models.Entity[P]{}, fmt.Errorf("%s %s: %w", r.kind, id, common.ErrLocked)
	}
	defer r.locks.Release(lk)

	data, err := json.Marshal(patch)
	if err != nil {
		return models.Entity[P]{}, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}

	r.mu.Lock()
	list, err := r.load(ctx)
	if err != nil {
		r.mu.Unlock()
		return models.Entity[P]{}, err
	}
	i := indexOf(list, models.Local(target.LocalID))
	if i < 0 {
		r.mu.Unlock()
		return models.Entity[P]{}, fmt.Errorf("%s %s: %w", r.kind, id, common.ErrNotFound)
	}

	merged, err := models.ApplyPatch(list[i].Payload, patch)
	if err == nil {
		err = merged.Validate()
	}
	if err != nil {
		r.mu.Unlock()
		return models.Entity[P]{}, err
	}

	now := r.opts.now()
	list[i].Payload = merged
	list[i].UpdatedAt = now
	e := list[i]

	if e.IsTemplate {
		err = r.save(ctx, list)
	} else {
		change := models.NewChange(models.ChangeUpdate, now.UnixMilli(), e.Ref(), data)
		err = r.ledger.Commit(ctx, change, func(ctx context.Context) error { return r.save(ctx, list) })
	}
	r.mu.Unlock()
	if err != nil {
		return models.Entity[P]{}, err
	}

	r.log.Debug(ctx, "entity updated", "id", e.Ref())
	if !e.IsTemplate {
		r.notify()
	}
	return e, nil
}

// Delete removes the entity at once. A delete change is recorded only when
// the entity exists remotely; pending changes of a never-synced entity are
// left for the sync worker to drop.
func (r *Repository[P]) Delete(ctx context.Context, id models.ID) error {
	target, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	lk := r.lockKey(target.LocalID)
	if !r.locks.Acquire(lk) {
		return fmt.Errorf("%s %s: %w", r.kind, id, common.ErrLocked)
	}
	defer r.locks.Release(lk)

	r.mu.Lock()
	list, err := r.load(ctx)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	i := indexOf(list, models.Local(target.LocalID))
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%s %s: %w", r.kind, id, common.ErrNotFound)
	}
	e := list[i]
	list = append(list[:i], list[i+1:]...)

	recorded := !e.IsTemplate && e.Synced()
	if recorded {
		change := models.NewChange(models.ChangeDelete, r.opts.now().UnixMilli(), models.Server(*e.ServerID), nil)
		err = r.ledger.Commit(ctx, change, func(ctx context.Context) error { return r.save(ctx, list) })
	} else {
		err = r.save(ctx, list)
	}
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.log.Debug(ctx, "entity deleted", "id", e.Ref(), "recorded", recorded)
	if recorded {
		r.notify()
	}
	return nil
}

// ReconcileServerID attaches serverID to the entity created with localID.
// It returns common.ErrNotFound when the entity is gone.
func (r *Repository[P]) ReconcileServerID(ctx context.Context, localID, serverID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(list, models.Local(localID))
	if i < 0 {
		return fmt.Errorf("%s %s: %w", r.kind, models.Local(localID), common.ErrNotFound)
	}
	if sid := list[i].ServerID; sid != nil {
		if *sid == serverID {
			return nil
		}
		r.log.Warn(ctx, "server id replaced", "local_id", localID, "old", *sid, "new", serverID)
	}
	list[i].ServerID = &serverID
	return r.save(ctx, list)
}

// MergeStats summarizes a pull merge.
type MergeStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Removed  int `json:"removed"`
	Kept     int `json:"kept"`
}

// MergeRemote folds the authoritative remote list into the local collection.
//
// Remote versions overwrite local entities with the same server id, unless
// outstanding reports the entity (see ledger.Outstanding). Unknown remote
// entities are inserted with a fresh local id. Synced local entities missing remotely are removed
// when nothing is outstanding for them. Unsynced entities and templates are
// never touched. outstanding is consulted under the collection mutex so
// concurrent local edits are not overwritten.
func (r *Repository[P]) MergeRemote(
	ctx context.Context,
	remote []models.RemoteEntity,
	outstanding func(ctx context.Context) (map[models.ID]bool, error),
) (MergeStats, error) {
	var stats MergeStats

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return stats, err
	}
	busy, err := outstanding(ctx)
	if err != nil {
		return stats, err
	}
	isBusy := func(e models.Entity[P]) bool {
		return busy[models.Local(e.LocalID)] || (e.ServerID != nil && busy[models.Server(*e.ServerID)])
	}

	now := r.opts.now()
	seen := make(map[int64]bool, len(remote))
	changed := false

	for _, re := range remote {
		seen[re.ID] = true

		var payload P
		if err := json.Unmarshal(re.Payload, &payload); err != nil {
			r.log.Warn(ctx, "skipping undecodable remote entity", "server_id", re.ID, "error", err)
			continue
		}

		i := indexOf(list, models.Server(re.ID))
		if i < 0 {
			if busy[models.Server(re.ID)] {
				// deleted locally, the delete has not reached the server yet
				stats.Kept++
				continue
			}
			list = append(list, models.Entity[P]{
				LocalID:   nextLocalID(list, now),
				ServerID:  ptr(re.ID),
				Payload:   payload,
				CreatedAt: now,
				UpdatedAt: now,
			})
			stats.Inserted++
			changed = true
			continue
		}

		if isBusy(list[i]) {
			stats.Kept++
			continue
		}
		if samePayload(list[i].Payload, payload) {
			continue
		}
		list[i].Payload = payload
		list[i].UpdatedAt = now
		stats.Updated++
		changed = true
	}

	kept := list[:0]
	for _, e := range list {
		if e.Synced() && !e.IsTemplate && !seen[*e.ServerID] && !isBusy(e) {
			stats.Removed++
			changed = true
			continue
		}
		kept = append(kept, e)
	}

	if !changed {
		return stats, nil
	}
	if err := r.save(ctx, kept); err != nil {
		return stats, err
	}
	r.log.Debug(ctx, "remote merged",
		"inserted", stats.Inserted, "updated", stats.Updated, "removed", stats.Removed, "kept", stats.Kept)
	return stats, nil
}

func samePayload[P any](a, b P) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

func ptr[T any](v T) *T { return &v }
