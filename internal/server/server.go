// Package server exposes extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	geometa "github.com/tingold/orb-geometa"
	"github.com/tingold/orb-geometa/internal/cache"
	"github.com/tingold/orb-geometa/internal/logger"
	"github.com/tingold/orb-geometa/internal/metrics"
)

// maxBody bounds POST bodies.
const maxBody = 1 << 20

type Server struct {
	extractor *geometa.Extractor
	cache     *cache.Cache
	metrics   *metrics.Provider
	log       *slog.Logger
	// pgDefaults fills connection fields a request leaves empty. Its
	// credentials only travel to its own host, port and database.
	pgDefaults geometa.Connection
}

type Options struct {
	Cache      *cache.Cache
	Metrics    *metrics.Provider
	Logger     *slog.Logger
	PGDefaults geometa.Connection
}

func New(x *geometa.Extractor, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		extractor:  x,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		log:        log,
		pgDefaults: opts.PGDefaults,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(CORS())

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Get("/metrics", s.metrics.Handler().ServeHTTP)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/vector", s.vector)
		r.Post("/vector/pg", s.vectorPG)
		r.Get("/raster", s.raster)
		r.Post("/wkt/pretty", s.prettyWKT)
	})
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listen", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// vector serves GET /v1/vector?path=&kind=&features=.
func (s *Server) vector(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing required parameter: path"))
		return
	}
	src := geometa.Source{Path: path}

	if withFeatures, _ := strconv.ParseBool(q.Get("features")); withFeatures {
		feats, err := s.extractor.Features(r.Context(), src)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, feats)
		return
	}
	s.extractVector(w, r, src, q.Get("kind"))
}

type pgRequest struct {
	geometa.Connection
	Kind string `json:"kind"`
}

// vectorPG serves POST /v1/vector/pg with a JSON connection body.
func (s *Server) vectorPG(w http.ResponseWriter, r *http.Request) {
	var req pgRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	conn := s.withDefaults(req.Connection)
	s.extractVector(w, r, geometa.Source{Conn: &conn}, req.Kind)
}

func (s *Server) withDefaults(c geometa.Connection) geometa.Connection {
	d := s.pgDefaults
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.Database == "" {
		c.Database = d.Database
	}
	if c.User == "" && sameTarget(c, d) {
		c.User, c.Password = d.User, d.Password
	}
	return c
}

func sameTarget(a, b geometa.Connection) bool {
	return a.Host == b.Host && a.Port == b.Port && a.Database == b.Database
}

func (s *Server) extractVector(w http.ResponseWriter, r *http.Request, src geometa.Source, kind string) {
	sel, err := geometa.ParseKindSelector(kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key := cache.Key("vector", src, sel.String())
	rec, err := cache.Fetch(r.Context(), s.cache, key, func(ctx context.Context) (*geometa.MetadataRecord, error) {
		return s.extractor.ExtractVector(ctx, src, sel)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// raster serves GET /v1/raster?path=.
func (s *Server) raster(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing required parameter: path"))
		return
	}
	key := cache.Key("raster", geometa.Source{Path: path})
	res, err := cache.Fetch(r.Context(), s.cache, key, func(ctx context.Context) (*geometa.RasterExtentResult, error) {
		return s.extractor.ExtractRaster(ctx, path)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// prettyWKT serves POST /v1/wkt/pretty with the WKT as the raw body.
func (s *Server) prettyWKT(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lines, err := geometa.PrettyWKT(geometa.FlattenWKT(string(body)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"lines": lines})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	log := logger.FromContext(r.Context(), s.log)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		log.Info("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err)
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch geometa.KindOf(err) {
	case geometa.KindSourceOpen, geometa.KindTableNotFound:
		return http.StatusNotFound
	case geometa.KindInsufficientPermission:
		return http.StatusForbidden
	case geometa.KindMalformedWKT:
		return http.StatusBadRequest
	case geometa.KindMissingCRS, geometa.KindInvalidGeometry:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, geometa.ErrNoFeatureListing) {
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	if k := geometa.KindOf(err); k != geometa.KindUnknown {
		body.Kind = k.String()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
