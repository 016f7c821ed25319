// Package server exposes rank, select and quantile queries over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/axiomhq/mrl"
	"github.com/axiomhq/mrl/internal/query"
	"github.com/dgraph-io/ristretto"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	numCounters = 1e5
	maxCost     = 1e4
	bufferItems = 64
)

// Server answers queries against one sketch. Queries share a read lock;
// inserts take the write lock and invalidate cached answers.
type Server struct {
	mu     sync.RWMutex
	sketch *mrl.Sketch

	cache  *ristretto.Cache
	logger *zap.Logger
	router *mux.Router
}

// JSON ...
type JSON map[string]any

// Answer is the body of a successful query.
type Answer struct {
	Query string `json:"query"`
	Value int64  `json:"value"`
}

// New ...
func New(sketch *mrl.Sketch, logger *zap.Logger) (*Server, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize cache")
	}

	s := &Server{
		sketch: sketch,
		cache:  cache,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/sketch", s.dump).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.stats).Methods(http.MethodGet)
	r.HandleFunc("/rank/{arg}", s.query("rank")).Methods(http.MethodGet)
	r.HandleFunc("/select/{arg}", s.query("select")).Methods(http.MethodGet)
	r.HandleFunc("/quantile/{arg}", s.query("quantile")).Methods(http.MethodGet)
	r.HandleFunc("/insert/{value}", s.insert).Methods(http.MethodPost)
}

// ServeHTTP ...
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the answer cache.
func (s *Server) Close() {
	s.cache.Close()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, JSON{"status": "ok"})
}

func (s *Server) dump(w http.ResponseWriter, r *http.Request) {
	compressed, _ := strconv.ParseBool(r.URL.Query().Get("compressed"))

	s.mu.RLock()
	defer s.mu.RUnlock()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.sketch.Fprint(w, compressed); err != nil {
		s.logger.Warn("write sketch dump", zap.Error(err))
	}
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, JSON{
		"epsilon":      s.sketch.Epsilon(),
		"n":            s.sketch.N(),
		"k":            s.sketch.K(),
		"levels":       s.sketch.Levels(),
		"count":        s.sketch.Count(),
		"retained":     s.sketch.Retained(),
		"total_weight": s.sketch.TotalWeight(),
		"capacity":     s.sketch.Capacity(),
	})
}

func (s *Server) query(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := query.Parse(name + "(" + mux.Vars(r)["arg"] + ")")
		if err != nil {
			writeError(w, err)
			return
		}

		s.mu.RLock()
		defer s.mu.RUnlock()
		if err := cmd.Validate(s.sketch.N()); err != nil {
			writeError(w, err)
			return
		}

		// The insert count is part of the key so answers cached before
		// an insert are never served after it.
		key := strconv.FormatInt(s.sketch.Count(), 10) + "/" + cmd.String()
		if v, ok := s.cache.Get(key); ok {
			writeJSON(w, http.StatusOK, Answer{Query: cmd.String(), Value: v.(int64)})
			return
		}

		res, err := cmd.Exec(s.sketch)
		if err != nil {
			writeError(w, err)
			return
		}
		s.cache.Set(key, res.Value, 1)
		s.logger.Debug("query", zap.Stringer("command", cmd), zap.Int64("value", res.Value))
		writeJSON(w, http.StatusOK, Answer{Query: cmd.String(), Value: res.Value})
	}
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request) {
	v, err := strconv.ParseInt(mux.Vars(r)["value"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, JSON{"error": "invalid integer " + strconv.Quote(mux.Vars(r)["value"])})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sketch.Insert(v); err != nil {
		writeError(w, err)
		return
	}
	s.cache.Clear()
	writeJSON(w, http.StatusOK, JSON{"count": s.sketch.Count()})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		syntaxErr *query.SyntaxError
		domainErr *query.DomainError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &domainErr):
		status = http.StatusBadRequest
	case errors.Is(err, mrl.ErrRankOutOfRange), errors.Is(err, mrl.ErrEmpty):
		status = http.StatusNotFound
	case errors.Is(err, mrl.ErrOverflow):
		status = http.StatusConflict
	}
	writeJSON(w, status, JSON{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
