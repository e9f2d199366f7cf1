package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ljungman/calendard/internal/domain"
	"github.com/ljungman/calendard/internal/drag"
	"github.com/ljungman/calendard/internal/engine"
	"github.com/ljungman/calendard/internal/ics"
	"github.com/ljungman/calendard/internal/security"
	"github.com/ljungman/calendard/internal/series"
	"github.com/ljungman/calendard/internal/store"
)

// Server exposes the mutation engine over HTTP. Mutations are serialized:
// the engine assumes a single logical actor, so one request at a time.
type Server struct {
	mu      sync.Mutex
	engine  *engine.Engine
	auth    security.BearerAuth
	log     *slog.Logger
	httpSrv *http.Server
}

type Options struct {
	Engine *engine.Engine
	Auth   security.BearerAuth
	Logger *slog.Logger
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: opts.Engine, auth: opts.Auth, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/events/", s.handleEventByID)
	mux.HandleFunc("/api/calendar.ics", s.handleExport)
	s.httpSrv = &http.Server{Handler: s.wrapAuth(mux), ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) ServeTCP(ctx context.Context, bind string) error {
	if bind == "" {
		return errors.New("bind required")
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) ServeUnix(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("socket path required")
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) wrapAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.auth.Authorize(r) {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) shutdownOnContext(ctx context.Context) {
	<-ctx.Done()
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		if err := s.engine.Refresh(r.Context()); err != nil {
			writeErr(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": s.engine.Events()})
	case http.MethodPost:
		var payload mutationRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		created, err := s.engine.Apply(r.Context(), engine.Request{
			Op:    engine.OpCreate,
			Draft: payload.Event,
			Force: payload.Force,
		})
		if err != nil {
			s.writeEngineErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"events": created})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleEventByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/events/")
	if rest, found := strings.CutSuffix(id, "/move"); found {
		s.handleMove(w, r, rest)
		return
	}
	if id == "" || strings.Contains(id, "/") {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		var payload mutationRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		scope, ok := series.ParseScope(payload.Scope)
		if !ok {
			writeErr(w, http.StatusBadRequest, "invalid scope")
			return
		}
		payload.Event.ID = id
		updated, err := s.engine.Apply(r.Context(), engine.Request{
			Op:    engine.OpUpdate,
			Draft: payload.Event,
			Scope: scope,
			Force: payload.Force,
		})
		if err != nil {
			s.writeEngineErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": updated})
	case http.MethodDelete:
		scope, ok := series.ParseScope(r.URL.Query().Get("scope"))
		if !ok {
			writeErr(w, http.StatusBadRequest, "invalid scope")
			return
		}
		if _, err := s.engine.Apply(r.Context(), engine.Request{
			Op:    engine.OpDelete,
			ID:    id,
			Scope: scope,
		}); err != nil {
			s.writeEngineErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMove drives one drag reconciliation end to end. When the move needs
// a decision the request did not carry, the response is a 409 naming the
// decision; the client re-submits with scope or force filled in.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload moveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, ok := drag.ParseView(payload.View)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid view")
		return
	}
	scope, ok := series.ParseScope(payload.Scope)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid scope")
		return
	}
	viewDate := payload.ViewDate
	if viewDate == "" {
		viewDate = payload.Date
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctrl := drag.NewController(s.engine)
	outcome, err := ctrl.Drop(r.Context(), id, payload.Date, view, viewDate)
	if err != nil {
		s.writeEngineErr(w, err)
		return
	}
	switch outcome {
	case drag.OutcomeScopeDecision:
		if scope == series.ScopeUnset {
			ctrl.Cancel()
			ev, _ := s.engine.Find(id)
			writeSignal(w, "scope_required", map[string]any{"event": ev})
			return
		}
		outcome, err = ctrl.ConfirmScope(r.Context(), scope)
	case drag.OutcomeOverlapDecision:
		if !payload.Force {
			overlaps := ctrl.PendingOverlaps()
			ctrl.Cancel()
			writeSignal(w, "overlap", map[string]any{"overlaps": overlaps})
			return
		}
		outcome, err = ctrl.ConfirmOverlap(r.Context())
	}
	if err != nil {
		s.writeEngineErr(w, err)
		return
	}
	if outcome != drag.OutcomeApplied {
		writeJSON(w, http.StatusOK, map[string]any{"applied": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": true, "events": s.engine.Events()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Refresh(r.Context()); err != nil {
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := ics.Encode(w, s.engine.Events()); err != nil {
		s.log.Error("ics export failed", "err", err)
	}
}

type mutationRequest struct {
	Event domain.Event `json:"event"`
	Scope string       `json:"scope,omitempty"`
	Force bool         `json:"force,omitempty"`
}

type moveRequest struct {
	Date     string `json:"date"`
	View     string `json:"view,omitempty"`
	ViewDate string `json:"viewDate,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Force    bool   `json:"force,omitempty"`
}

func (s *Server) writeEngineErr(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		overlapErr *engine.OverlapError
		scopeErr   *engine.ScopeRequiredError
	)
	switch {
	case errors.As(err, &validation):
		writeErr(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &overlapErr):
		writeSignal(w, "overlap", map[string]any{"overlaps": overlapErr.Overlaps})
	case errors.As(err, &scopeErr):
		writeSignal(w, "scope_required", map[string]any{"event": scopeErr.Event})
	case errors.Is(err, engine.ErrSeriesMoveUnsupported):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": err.Error(), "code": "series_move_unsupported",
		})
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	default:
		writeErr(w, http.StatusBadGateway, err.Error())
	}
}

// writeSignal reports a decision point: not a failure, but the client must
// re-submit with an explicit choice.
func writeSignal(w http.ResponseWriter, code string, extra map[string]any) {
	body := map[string]any{"code": code}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusConflict, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
