package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/client/config"
	"github.com/dmitrijs2005/daybook/internal/client/debug"
	"github.com/dmitrijs2005/daybook/internal/client/ledger"
	"github.com/dmitrijs2005/daybook/internal/client/locks"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/netmon"
	"github.com/dmitrijs2005/daybook/internal/client/repositories/entities"
	"github.com/dmitrijs2005/daybook/internal/client/services"
	"github.com/dmitrijs2005/daybook/internal/client/store"
	"github.com/dmitrijs2005/daybook/internal/client/syncer"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/filex"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	tasks   services.TaskService
	journal services.JournalService
	sync    services.SyncService
	net     netmon.Monitor
	reader  *bufio.Reader
	out     io.Writer

	// background loops started by Run and stopped when the REPL exits
	loops   []func(ctx context.Context)
	closers []io.Closer
}

// NewApp builds the whole client: local store, repositories, ledgers, the
// remote client and one sync worker per kind.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logFile, err := filex.EnsureParentDir(c.LogFile)
	if err != nil {
		return nil, err
	}
	dbPath, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, err
	}
	log, logCloser := logging.NewFileLogger(logFile, level)

	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		_ = logCloser.Close()
		return nil, err
	}

	api, err := client.NewDaybookClient(c.ServerEndpointAddr,
		client.WithAccessToken(c.AccessToken),
		client.WithCallTimeout(c.RPCTimeout),
	)
	if err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("grpc client: %w", err)
	}

	a := &App{
		config:  c,
		log:     log.With("module", "cli"),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		closers: []io.Closer{api, dbCloser{db}, logCloser},
	}

	if c.ForceOffline {
		a.net = netmon.NewManual(false)
	} else {
		pm := netmon.NewPingMonitor(api, c.OnlineCheckInterval, log)
		a.net = pm
		a.loops = append(a.loops, pm.Run)
	}

	a.wire(store.NewSQLiteStore(db), func(kind string) syncer.RemoteAPI { return api.Entities(kind) }, log)

	if c.DebugAddr != "" {
		h := debug.NewRouter(a.sync, log)
		a.loops = append(a.loops, func(ctx context.Context) {
			if err := debug.Serve(ctx, c.DebugAddr, h, log); err != nil {
				log.Error(ctx, "debug server stopped", "error", err)
			}
		})
	}
	return a, nil
}

// wire builds the per-kind repositories, ledgers and workers over st.
func (a *App) wire(st store.Store, remote func(kind string) syncer.RemoteAPI, log logging.Logger) {
	lt := locks.New()
	cfg := syncer.Config{Interval: a.config.SyncInterval, Debounce: a.config.SyncDebounce}

	tl := ledger.New(st, common.KindTasks, log)
	tr := entities.New[models.Task](common.KindTasks, st, tl, lt, log)
	tw := syncer.New(tr, tl, remote(common.KindTasks), a.net, log, cfg)
	tr.SetChangeHook(tw.Notify)

	jl := ledger.New(st, common.KindJournal, log)
	jr := entities.New[models.JournalEntry](common.KindJournal, st, jl, lt, log)
	jw := syncer.New(jr, jl, remote(common.KindJournal), a.net, log, cfg)
	jr.SetChangeHook(jw.Notify)

	a.tasks = services.NewTaskService(tr)
	a.journal = services.NewJournalService(jr)
	a.sync = services.NewSyncService(a.net,
		services.SyncKind{Worker: tw, Ledger: tl},
		services.SyncKind{Worker: jw, Ledger: jl},
	)

	for _, w := range []syncer.Runner{tw, jw} {
		a.loops = append(a.loops, func(ctx context.Context) {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error(ctx, "sync worker stopped", "kind", w.Kind(), "error", err)
			}
		})
	}
}

type dbCloser struct{ db *sql.DB }

func (c dbCloser) Close() error { return c.db.Close() }

func (a *App) mode() Mode {
	if a.net.Online() {
		return ModeOnline
	}
	return ModeOffline
}

func (a *App) getStatus() string {
	return fmt.Sprintf("(%s)", a.mode())
}

// Run starts the background loops and blocks in the REPL until the user
// exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	for _, loop := range a.loops {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop(ctx)
		}()
	}

	printlnFn("Welcome to daybook (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)

	cancel()
	wg.Wait()
	return a.Close()
}

func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
