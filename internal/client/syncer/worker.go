package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/client/ledger"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/netmon"
	"github.com/dmitrijs2005/daybook/internal/client/repositories/entities"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// RemoteAPI is the remote surface of one entity kind.
type RemoteAPI interface {
	Create(ctx context.Context, payload json.RawMessage) (models.RemoteEntity, error)
	Update(ctx context.Context, serverID int64, patch json.RawMessage) (models.RemoteEntity, error)
	Delete(ctx context.Context, serverID int64) error
	List(ctx context.Context) ([]models.RemoteEntity, error)
}

type Config struct {
	// Interval between periodic passes while online.
	Interval time.Duration
	// Debounce coalesces Notify calls into one pass.
	Debounce time.Duration
	// SkipPull disables the remote list merge after the ledger walk.
	SkipPull bool
}

func DefaultConfig() Config {
	return Config{Interval: 60 * time.Second, Debounce: time.Second}
}

// Result summarizes one pass.
type Result struct {
	Kind       string              `json:"kind"`
	Skipped    bool                `json:"skipped"`
	Sent       int                 `json:"sent"`
	Dropped    int                 `json:"dropped"`
	Deferred   int                 `json:"deferred"`
	Failed     int                 `json:"failed"`
	Compensate int                 `json:"compensate"`
	Merge      entities.MergeStats `json:"merge"`
	PullError  string              `json:"pullError,omitempty"`
	Err        error               `json:"-"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
}

type Worker[P entities.Payload] struct {
	kind   string
	repo   *entities.Repository[P]
	ledger *ledger.Ledger
	remote RemoteAPI
	net    netmon.Monitor
	log    logging.Logger
	cfg    Config
	now    func() time.Time

	passMu  sync.Mutex
	trigger chan struct{}

	debounceMu sync.Mutex
	debounce   *time.Timer

	passes atomic.Int64
	last   atomic.Pointer[Result]
}

func New[P entities.Payload](
	repo *entities.Repository[P],
	l *ledger.Ledger,
	remote RemoteAPI,
	net netmon.Monitor,
	log logging.Logger,
	cfg Config,
) *Worker[P] {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	return &Worker[P]{
		kind:    repo.Kind(),
		repo:    repo,
		ledger:  l,
		remote:  remote,
		net:     net,
		log:     log.With("module", "syncer", "kind", repo.Kind()),
		cfg:     cfg,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
}

func (w *Worker[P]) Kind() string { return w.kind }

// Passes returns the number of passes run so far, skipped ones included.
func (w *Worker[P]) Passes() int64 { return w.passes.Load() }

// Last returns the result of the latest pass, if any.
func (w *Worker[P]) Last() (Result, bool) {
	r := w.last.Load()
	if r == nil {
		return Result{}, false
	}
	return *r, true
}

// Trigger asks Run for a pass without blocking. Triggers arriving while one is
// already queued are merged into it.
func (w *Worker[P]) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Notify triggers a pass once no further Notify arrived for the debounce
// window.
func (w *Worker[P]) Notify() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.cfg.Debounce, w.Trigger)
}

func (w *Worker[P]) stopDebounce() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
}

// Run serves triggered and periodic passes until ctx is done.
func (w *Worker[P]) Run(ctx context.Context) error {
	id := w.net.AddListener(func(online bool) {
		if online {
			w.Trigger()
		}
	})
	defer w.net.RemoveListener(id)
	defer w.stopDebounce()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.Trigger()
	w.log.Info(ctx, "sync worker started", "interval", w.cfg.Interval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.Info(context.Background(), "sync worker stopped")
			return nil
		case <-ticker.C:
			if w.net.Online() {
				w.SyncNow(ctx)
			}
		case <-w.trigger:
			w.SyncNow(ctx)
		}
	}
}

// SyncNow runs one pass, waiting for a pass in progress to finish first.
func (w *Worker[P]) SyncNow(ctx context.Context) Result {
	w.passMu.Lock()
	defer w.passMu.Unlock()

	res := w.pass(ctx)
	w.passes.Add(1)
	w.last.Store(&res)
	return res
}

func (w *Worker[P]) pass(ctx context.Context) (res Result) {
	res = Result{Kind: w.kind, StartedAt: w.now()}
	defer func() { res.FinishedAt = w.now() }()

	if !w.net.Online() {
		res.Skipped = true
		w.log.Debug(ctx, "offline, pass skipped")
		return res
	}

	all, err := w.ledger.All(ctx)
	if err != nil {
		res.Err = err
		w.log.Error(ctx, "reading ledger failed", "error", err)
		return res
	}

	blocked := map[models.ID]bool{}
	for _, c := range all {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}

		if drop, err := w.orphaned(ctx, c); err != nil || drop {
			var out outcome
			if err != nil {
				out = w.abort(ctx, w.log, err)
			} else {
				w.log.Debug(ctx, "entity gone, dropping change", "change", c.ID, "status", c.Status)
				out = w.remove(ctx, w.log, c, outcomeDropped)
			}
			if out == outcomeAborted {
				res.Err = errPassAborted
				return res
			}
			res.Dropped++
			continue
		}

		if !ledger.IsDue(c, res.StartedAt) {
			if holdsBack(c) {
				w.block(ctx, blocked, c.TargetID)
			}
			continue
		}
		if blocked[c.TargetID] {
			res.Deferred++
			continue
		}

		switch w.apply(ctx, c) {
		case outcomeSent:
			res.Sent++
		case outcomeCompensated:
			res.Sent++
			res.Compensate++
		case outcomeDropped:
			res.Dropped++
		case outcomeDeferred:
			res.Deferred++
			w.block(ctx, blocked, c.TargetID)
		case outcomeFailed:
			res.Failed++
			w.block(ctx, blocked, c.TargetID)
		case outcomeParked:
			res.Failed++
			if c.Type == models.ChangeCreate {
				w.block(ctx, blocked, c.TargetID)
			}
		case outcomeInterrupted:
			res.Err = ctx.Err()
			return res
		case outcomeAborted:
			res.Err = errPassAborted
			return res
		}
	}

	if !w.cfg.SkipPull {
		w.pull(ctx, &res)
	}

	w.log.Info(ctx, "sync pass finished",
		"sent", res.Sent, "dropped", res.Dropped, "deferred", res.Deferred, "failed", res.Failed,
		"inserted", res.Merge.Inserted, "updated", res.Merge.Updated, "removed", res.Merge.Removed)
	return res
}

// orphaned reports whether c is a create or update whose entity no longer
// exists locally. Such entries are dropped whatever their status.
func (w *Worker[P]) orphaned(ctx context.Context, c models.PendingChange) (bool, error) {
	if c.Type != models.ChangeCreate && c.Type != models.ChangeUpdate {
		return false, nil
	}
	_, ok, err := w.repo.Resolve(ctx, c.TargetID)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// holdsBack reports whether a change that is not due keeps later changes of
// its entity waiting. A transient failure does until its backoff elapses. A
// parked create does because nothing later can be sent without its server
// id. A parked update or delete does not.
func holdsBack(c models.PendingChange) bool {
	if ledger.Parked(c) {
		return c.Type == models.ChangeCreate
	}
	return c.Status == models.StatusFailed
}

// block holds back later changes of the entity addressed by id, under both
// of its identifiers.
func (w *Worker[P]) block(ctx context.Context, blocked map[models.ID]bool, id models.ID) {
	blocked[id] = true
	e, ok, err := w.repo.Resolve(ctx, id)
	if err != nil || !ok {
		return
	}
	blocked[models.Local(e.LocalID)] = true
	if e.ServerID != nil {
		blocked[models.Server(*e.ServerID)] = true
	}
}

func (w *Worker[P]) pull(ctx context.Context, res *Result) {
	remote, err := w.remote.List(ctx)
	if err != nil {
		res.PullError = err.Error()
		w.log.Warn(ctx, "pull failed", "error", err)
		return
	}
	stats, err := w.repo.MergeRemote(ctx, remote, w.ledger.Outstanding)
	if err != nil {
		res.PullError = err.Error()
		w.log.Error(ctx, "merging remote state failed", "error", err)
		return
	}
	res.Merge = stats
}

var errPassAborted = errors.New("local storage failure, pass aborted")

type outcome int

const (
	outcomeSent outcome = iota
	outcomeCompensated
	outcomeDropped
	outcomeDeferred
	outcomeFailed
	outcomeParked
	outcomeInterrupted
	outcomeAborted
)

func (w *Worker[P]) apply(ctx context.Context, c models.PendingChange) outcome {
	log := w.log.With("change", c.ID, "type", c.Type, "target", c.TargetID)

	switch c.Type {
	case models.ChangeCreate:
		return w.applyCreate(ctx, log, c)
	case models.ChangeUpdate:
		return w.applyUpdate(ctx, log, c)
	case models.ChangeDelete:
		return w.applyDelete(ctx, log, c)
	default:
		return w.fail(ctx, log, c, errors.New("unknown change type"), true)
	}
}

func (w *Worker[P]) applyCreate(ctx context.Context, log logging.Logger, c models.PendingChange) outcome {
	if !c.TargetID.IsLocal() {
		return w.fail(ctx, log, c, errors.New("create must target a local id"), true)
	}
	e, ok, err := w.repo.Resolve(ctx, c.TargetID)
	if err != nil {
		return w.abort(ctx, log, err)
	}
	if !ok {
		log.Debug(ctx, "entity deleted before its create was sent, dropping")
		return w.remove(ctx, log, c, outcomeDropped)
	}
	if e.Synced() {
		// created on a previous run that stopped before the entry was removed
		return w.remove(ctx, log, c, outcomeDropped)
	}

	created, err := w.remote.Create(ctx, c.Data)
	if err != nil {
		return w.fail(ctx, log, c, err, false)
	}

	err = w.repo.ReconcileServerID(ctx, e.LocalID, created.ID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		del := models.NewChange(models.ChangeDelete, w.now().UnixMilli(), models.Server(created.ID), nil)
		if err := w.ledger.Append(ctx, del); err != nil {
			return w.abort(ctx, log, err)
		}
		log.Info(ctx, "entity deleted while its create was in flight, delete queued", "server_id", created.ID)
		defer w.Trigger()
		return w.remove(ctx, log, c, outcomeCompensated)
	case err != nil:
		return w.abort(ctx, log, err)
	}

	log.Debug(ctx, "created remotely", "server_id", created.ID)
	return w.remove(ctx, log, c, outcomeSent)
}

func (w *Worker[P]) applyUpdate(ctx context.Context, log logging.Logger, c models.PendingChange) outcome {
	e, ok, err := w.repo.Resolve(ctx, c.TargetID)
	if err != nil {
		return w.abort(ctx, log, err)
	}
	if !ok {
		log.Debug(ctx, "entity gone, dropping update")
		return w.remove(ctx, log, c, outcomeDropped)
	}
	if !e.Synced() {
		log.Debug(ctx, "entity not created remotely yet, update deferred")
		return outcomeDeferred
	}

	if _, err := w.remote.Update(ctx, *e.ServerID, c.Data); err != nil {
		return w.fail(ctx, log, c, err, false)
	}
	return w.remove(ctx, log, c, outcomeSent)
}

func (w *Worker[P]) applyDelete(ctx context.Context, log logging.Logger, c models.PendingChange) outcome {
	if !c.TargetID.IsServer() {
		return w.fail(ctx, log, c, errors.New("delete must target a server id"), true)
	}

	err := w.remote.Delete(ctx, c.TargetID.Value())
	if errors.Is(err, client.ErrRemoteNotFound) {
		log.Debug(ctx, "already deleted remotely")
		err = nil
	}
	if err != nil {
		return w.fail(ctx, log, c, err, false)
	}
	return w.remove(ctx, log, c, outcomeSent)
}

func (w *Worker[P]) remove(ctx context.Context, log logging.Logger, c models.PendingChange, out outcome) outcome {
	if err := w.ledger.Remove(ctx, c.ID); err != nil {
		return w.abort(ctx, log, err)
	}
	return out
}

// fail records a failed attempt. Rejections, and not-found answers to
// anything but a delete, will not succeed on retry and are parked.
func (w *Worker[P]) fail(ctx context.Context, log logging.Logger, c models.PendingChange, cause error, permanent bool) outcome {
	if ctx.Err() != nil {
		// shutting down; the change stays as it was
		return outcomeInterrupted
	}
	permanent = permanent ||
		errors.Is(cause, client.ErrRemoteRejected) ||
		errors.Is(cause, client.ErrRemoteNotFound)

	if err := w.ledger.MarkFailed(ctx, c.ID, cause, permanent); err != nil {
		return w.abort(ctx, log, err)
	}
	if permanent {
		return outcomeParked
	}
	return outcomeFailed
}

func (w *Worker[P]) abort(ctx context.Context, log logging.Logger, err error) outcome {
	log.Error(ctx, "local storage failure during sync", "error", err)
	return outcomeAborted
}

// Runner is the kind-independent view of a Worker.
type Runner interface {
	Kind() string
	Run(ctx context.Context) error
	SyncNow(ctx context.Context) Result
	Notify()
	Last() (Result, bool)
}

var (
	_ Runner = (*Worker[models.Task])(nil)
	_ Runner = (*Worker[models.JournalEntry])(nil)
)
