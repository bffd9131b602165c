// Package debug serves a small read-mostly HTTP surface over the sync state
// of the client: ledger contents per kind, retry of parked changes and manual
// sync passes. It is meant for local troubleshooting and is off by default.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/services"
	"github.com/dmitrijs2005/daybook/internal/client/syncer"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type handler struct {
	sync services.SyncService
	log  logging.Logger
}

func NewRouter(svc services.SyncService, log logging.Logger) http.Handler {
	h := &handler{sync: svc, log: log.With("module", "debug")}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/status", h.status)
	r.Route("/ledger/{kind}", func(r chi.Router) {
		r.Get("/pending", h.pending)
		r.Get("/failed", h.failed)
		r.Post("/retry", h.retry)
	})
	r.Post("/sync/{kind}", h.syncKind)

	return r
}

// Serve runs the debug server on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, log logging.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info(ctx, "debug server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, common.ErrNotFound) {
		code = http.StatusNotFound
	} else {
		h.log.Error(r.Context(), "debug request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

type kindStatus struct {
	Kind     string         `json:"kind"`
	Pending  int            `json:"pending"`
	Failed   int            `json:"failed"`
	LastSync *syncer.Result `json:"lastSync,omitempty"`
}

type statusResponse struct {
	Online bool         `json:"online"`
	Kinds  []kindStatus `json:"kinds"`
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Online: h.sync.Online(), Kinds: []kindStatus{}}
	for _, kind := range h.sync.Kinds() {
		pending, err := h.sync.Pending(r.Context(), kind)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		failed, err := h.sync.Failed(r.Context(), kind)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		ks := kindStatus{Kind: kind, Pending: len(pending), Failed: len(failed)}
		if last, ok := h.sync.Last(kind); ok {
			ks.LastSync = &last
		}
		resp.Kinds = append(resp.Kinds, ks)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) pending(w http.ResponseWriter, r *http.Request) {
	list, err := h.sync.Pending(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) failed(w http.ResponseWriter, r *http.Request) {
	list, err := h.sync.Failed(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// retry re-queues the change named by the id query parameter, or every
// failed change of the kind when it is absent.
func (h *handler) retry(w http.ResponseWriter, r *http.Request) {
	n, err := h.sync.Retry(r.Context(), chi.URLParam(r, "kind"), r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"requeued": n})
}

func (h *handler) syncKind(w http.ResponseWriter, r *http.Request) {
	res, err := h.sync.Sync(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
