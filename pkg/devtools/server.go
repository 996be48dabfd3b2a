package devtools

import (
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/reactive"
	"github.com/vango-dev/vstore/pkg/store"
)

// Options configure a devtools Server.
type Options struct {
	// Logger is used for request and stream logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Gatherer backs the /metrics endpoint. If nil, /metrics is not served.
	Gatherer prometheus.Gatherer
}

// Server exposes the stores of a registry over HTTP for inspection:
//
//	GET  /stores                  list stores
//	GET  /stores/{id}/state       state snapshot
//	GET  /stores/{id}/getters     every getter, evaluated
//	GET  /stores/{id}/deps        recorded dependency edges
//	POST /stores/{id}/commit      {"type": ..., "payload": ...}
//	POST /stores/{id}/dispatch    {"type": ..., "payload": ...}
//	GET  /ws                      live store and mutation stream
//	GET  /metrics                 Prometheus metrics
//
// {id} is a store ID or name.
type Server struct {
	registry *store.Registry
	hub      *Hub
	logger   *slog.Logger
	router   chi.Router
}

// NewServer creates a server over reg. Every store in reg, now or later,
// is streamed to WebSocket clients.
func NewServer(reg *store.Registry, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		registry: reg,
		hub:      NewHub(logger),
		logger:   logger,
	}
	s.router = s.routes(opts.Gatherer)

	reg.OnRegister(s.track)
	return s
}

func (s *Server) routes(gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ws", s.hub.HandleWebSocket)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/stores", func(r chi.Router) {
		r.Get("/", s.listStores)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/state", s.withStore(s.getState))
			r.Get("/getters", s.withStore(s.getGetters))
			r.Get("/deps", s.withStore(s.getDeps))
			r.Post("/commit", s.withStore(s.postCommit))
			r.Post("/dispatch", s.withStore(s.postDispatch))
		})
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Close disconnects every stream client.
func (s *Server) Close() { s.hub.Close() }

// track announces a store and streams its commits.
func (s *Server) track(st *store.Store) {
	id, name := st.ID().String(), st.Name()
	s.hub.Publish(Message{Type: MessageStoreAdded, StoreID: id, Store: name})
	st.Subscribe(func(m store.MutationRecord, _ *reactive.View) {
		s.hub.Publish(Message{Type: MessageMutation, StoreID: id, Store: name, Mutation: &m})
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("devtools request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

type storeHandler func(w http.ResponseWriter, r *http.Request, st *store.Store)

func (s *Server) withStore(h storeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		st, ok := s.registry.Lookup(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "store not found: " + id})
			return
		}
		h(w, r, st)
	}
}

type storeInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Watchers int    `json:"watchers"`
}

func (s *Server) listStores(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.List()
	out := make([]storeInfo, 0, len(list))
	for _, st := range list {
		out = append(out, storeInfo{ID: st.ID().String(), Name: st.Name(), Watchers: st.Watchers()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getState(w http.ResponseWriter, _ *http.Request, st *store.Store) {
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) getGetters(w http.ResponseWriter, _ *http.Request, st *store.Store) {
	writeJSON(w, http.StatusOK, st.Getters().All())
}

func (s *Server) getDeps(w http.ResponseWriter, _ *http.Request, st *store.Store) {
	writeJSON(w, http.StatusOK, st.Dependencies())
}

type commitRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func (s *Server) postCommit(w http.ResponseWriter, r *http.Request, st *store.Store) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := st.CommitContext(r.Context(), req.Type, req.Payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func (s *Server) postDispatch(w http.ResponseWriter, r *http.Request, st *store.Store) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := st.Dispatch(r.Context(), req.Type, req.Payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (commitRequest, bool) {
	var req commitRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

// writeError maps store errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.Code(err) {
	case "E201", "E205", "E206":
		status = http.StatusNotFound
	case "E202", "E204", "E207", "E208":
		status = http.StatusBadRequest
	}

	var se *errors.StoreError
	if stderrors.As(err, &se) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, se.FormatJSON())
		return
	}
	writeJSON(w, status, map[string]string{"message": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
