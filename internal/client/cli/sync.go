package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
)

// kinds returns the kind named in args, or every kind when none is given.
func (a *App) kinds(args []string, cmd string) ([]string, error) {
	switch len(args) {
	case 0:
		return a.sync.Kinds(), nil
	case 1:
		return args, nil
	default:
		return nil, usage(cmd + " [kind]")
	}
}

func (a *App) Sync(ctx context.Context, args []string) error {
	kinds, err := a.kinds(args, "sync")
	if err != nil {
		return err
	}
	if !a.sync.Online() {
		printlnFn("Offline: changes stay queued until the server is reachable")
	}
	for _, k := range kinds {
		res, err := a.sync.Sync(ctx, k)
		if err != nil {
			return err
		}
		printlnFn(formatResult(res))
	}
	return nil
}

func (a *App) showChanges(args []string, cmd string, load func(kind string) ([]models.PendingChange, error)) error {
	kinds, err := a.kinds(args, cmd)
	if err != nil {
		return err
	}
	total := 0
	for _, k := range kinds {
		list, err := load(k)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			continue
		}
		total += len(list)
		if err := renderChanges(a.out, k, list); err != nil {
			return err
		}
	}
	if total == 0 {
		printlnFn("Nothing here")
	}
	return nil
}

func (a *App) Pending(ctx context.Context, args []string) error {
	return a.showChanges(args, "pending", func(kind string) ([]models.PendingChange, error) {
		return a.sync.Pending(ctx, kind)
	})
}

func (a *App) Failed(ctx context.Context, args []string) error {
	return a.showChanges(args, "failed", func(kind string) ([]models.PendingChange, error) {
		return a.sync.Failed(ctx, kind)
	})
}

func (a *App) Retry(ctx context.Context, args []string) error {
	var kind, id string
	switch len(args) {
	case 1:
		kind = args[0]
	case 2:
		kind, id = args[0], args[1]
	default:
		return usage("retry <kind> [change-id]")
	}
	n, err := a.sync.Retry(ctx, kind, id)
	if err != nil {
		return err
	}
	printlnFn("Re-queued:", n)
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	printlnFn("Mode:", a.mode())
	for _, k := range a.sync.Kinds() {
		pending, err := a.sync.Pending(ctx, k)
		if err != nil {
			return err
		}
		failed, err := a.sync.Failed(ctx, k)
		if err != nil {
			return err
		}
		last := "never"
		if r, ok := a.sync.Last(k); ok {
			last = r.FinishedAt.Local().Format(time.DateTime)
		}
		printlnFn(k+":", len(pending), "pending,", len(failed), "failed, last sync", last)
	}
	return nil
}
