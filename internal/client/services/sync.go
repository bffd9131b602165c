package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/daybook/internal/client/ledger"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/netmon"
	"github.com/dmitrijs2005/daybook/internal/client/syncer"
	"github.com/dmitrijs2005/daybook/internal/common"
)

// SyncService exposes the sync machinery of every kind to the CLI and the
// debug HTTP surface.
type SyncService interface {
	Kinds() []string
	Online() bool
	Sync(ctx context.Context, kind string) (syncer.Result, error)
	SyncAll(ctx context.Context) []syncer.Result
	Last(kind string) (syncer.Result, bool)
	Pending(ctx context.Context, kind string) ([]models.PendingChange, error)
	Failed(ctx context.Context, kind string) ([]models.PendingChange, error)
	// Retry re-queues one failed change, or all of them when id is empty,
	// and returns how many were re-queued.
	Retry(ctx context.Context, kind, id string) (int, error)
}

// SyncKind pairs the worker of one kind with its ledger.
type SyncKind struct {
	Worker syncer.Runner
	Ledger *ledger.Ledger
}

type syncService struct {
	net   netmon.Monitor
	kinds map[string]SyncKind
}

func NewSyncService(net netmon.Monitor, kinds ...SyncKind) SyncService {
	s := &syncService{net: net, kinds: make(map[string]SyncKind, len(kinds))}
	for _, k := range kinds {
		s.kinds[k.Worker.Kind()] = k
	}
	return s
}

func (s *syncService) lookup(kind string) (SyncKind, error) {
	k, ok := s.kinds[kind]
	if !ok {
		return SyncKind{}, fmt.Errorf("kind %q: %w", kind, common.ErrNotFound)
	}
	return k, nil
}

func (s *syncService) Kinds() []string {
	out := make([]string, 0, len(s.kinds))
	for k := range s.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *syncService) Online() bool { return s.net.Online() }

func (s *syncService) Sync(ctx context.Context, kind string) (syncer.Result, error) {
	k, err := s.lookup(kind)
	if err != nil {
		return syncer.Result{}, err
	}
	return k.Worker.SyncNow(ctx), nil
}

func (s *syncService) SyncAll(ctx context.Context) []syncer.Result {
	out := make([]syncer.Result, 0, len(s.kinds))
	for _, kind := range s.Kinds() {
		out = append(out, s.kinds[kind].Worker.SyncNow(ctx))
	}
	return out
}

func (s *syncService) Last(kind string) (syncer.Result, bool) {
	k, err := s.lookup(kind)
	if err != nil {
		return syncer.Result{}, false
	}
	return k.Worker.Last()
}

func (s *syncService) Pending(ctx context.Context, kind string) ([]models.PendingChange, error) {
	k, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	return k.Ledger.Pending(ctx)
}

func (s *syncService) Failed(ctx context.Context, kind string) ([]models.PendingChange, error) {
	k, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	return k.Ledger.Failed(ctx)
}

func (s *syncService) Retry(ctx context.Context, kind, id string) (int, error) {
	k, err := s.lookup(kind)
	if err != nil {
		return 0, err
	}
	if id == "" {
		n, err := k.Ledger.RetryAll(ctx)
		if err == nil && n > 0 {
			k.Worker.Notify()
		}
		return n, err
	}
	if err := k.Ledger.Retry(ctx, id); err != nil {
		return 0, err
	}
	k.Worker.Notify()
	return 1, nil
}
