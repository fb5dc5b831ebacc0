// Package web serves the dashboard page and its JSON API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/rentdash/internal/analysis"
	"github.com/KaramelBytes/rentdash/internal/chart"
	"github.com/KaramelBytes/rentdash/internal/dataset"
	"github.com/KaramelBytes/rentdash/internal/filter"
	"github.com/KaramelBytes/rentdash/internal/view"
)

// Source provides the dataset snapshot and can drop it on demand.
type Source interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
	Invalidate(ctx context.Context) error
}

// Views resolves saved filter presets.
type Views interface {
	Load(name string) (*view.View, error)
	List() ([]*view.View, error)
}

// Deps wires the server.
type Deps struct {
	Source Source
	Views  Views
	// RateLimitPerMin caps requests per client IP; zero disables the limit.
	RateLimitPerMin int
	Logger          *slog.Logger
}

type server struct {
	Deps
	log *slog.Logger
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	s := &server{Deps: d, log: d.Logger}
	if s.log == nil {
		s.log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	if d.RateLimitPerMin > 0 {
		r.Use(httprate.LimitByIP(d.RateLimitPerMin, time.Minute))
	}

	r.Get("/", s.handlePage)
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{"ok": true})
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/options", s.handleOptions)
		r.Get("/charts", s.handleCharts)
		r.Get("/views", s.handleViews)
		r.Post("/reload", s.handleReload)
	})
	return r
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	resp := errorResponse{Error: code}
	if err != nil {
		resp.Detail = err.Error()
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// evaluate loads the dataset and resolves the request's criteria. It writes
// the error response itself and returns ok=false on failure.
func (s *server) evaluate(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, filter.Criteria, bool) {
	ds, err := s.Source.Load(r.Context())
	if err != nil {
		s.log.Error("load dataset", "err", err)
		writeError(w, r, http.StatusBadGateway, "dataset_unavailable", err)
		return nil, filter.Criteria{}, false
	}
	domain := filter.Defaults(ds)
	base := domain
	q := r.URL.Query()
	if name := q.Get(ParamView); name != "" {
		if s.Views == nil {
			writeError(w, r, http.StatusNotFound, "view_not_found", errors.New("saved views are not configured"))
			return nil, filter.Criteria{}, false
		}
		v, err := s.Views.Load(name)
		if errors.Is(err, view.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "view_not_found", err)
			return nil, filter.Criteria{}, false
		}
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "view_error", err)
			return nil, filter.Criteria{}, false
		}
		base = v.Criteria
	}
	c, err := ParseCriteria(q, base, domain)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_query", err)
		return nil, filter.Criteria{}, false
	}
	return ds, c, true
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds, c, ok := s.evaluate(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, analysis.Build(ds, c))
}

// optionsResponse is the filter domain of the loaded dataset.
type optionsResponse struct {
	Source   string          `json:"source"`
	Total    int             `json:"total"`
	Dropped  int             `json:"dropped"`
	LoadedAt time.Time       `json:"loaded_at"`
	Defaults filter.Criteria `json:"defaults"`
}

func (s *server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.Source.Load(r.Context())
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "dataset_unavailable", err)
		return
	}
	render.JSON(w, r, optionsResponse{
		Source:   ds.Source,
		Total:    ds.Len(),
		Dropped:  ds.Dropped,
		LoadedAt: ds.LoadedAt,
		Defaults: filter.Defaults(ds),
	})
}

type chartEntry struct {
	Kind   chart.Kind   `json:"kind"`
	Title  string       `json:"title"`
	Option chart.Option `json:"option"`
}

type chartsResponse struct {
	Empty   bool         `json:"empty"`
	Message string       `json:"message,omitempty"`
	Charts  []chartEntry `json:"charts"`
	Notes   []string     `json:"notes,omitempty"`
}

func chartEntries(d *analysis.Dashboard) []chartEntry {
	opts := chart.Options(d)
	out := make([]chartEntry, 0, len(opts))
	for _, k := range chart.Kinds {
		if o, ok := opts[k]; ok {
			out = append(out, chartEntry{Kind: k, Title: chart.Title(k), Option: o})
		}
	}
	return out
}

func (s *server) handleCharts(w http.ResponseWriter, r *http.Request) {
	ds, c, ok := s.evaluate(w, r)
	if !ok {
		return
	}
	d := analysis.Build(ds, c)
	resp := chartsResponse{Empty: d.Empty(), Charts: chartEntries(d), Notes: d.Notes}
	if d.Empty() {
		resp.Message = analysis.EmptyMessage
	}
	render.JSON(w, r, resp)
}

func (s *server) handleViews(w http.ResponseWriter, r *http.Request) {
	if s.Views == nil {
		render.JSON(w, r, []*view.View{})
		return
	}
	vs, err := s.Views.List()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "view_error", err)
		return
	}
	if vs == nil {
		vs = []*view.View{}
	}
	render.JSON(w, r, vs)
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Source.Invalidate(r.Context()); err != nil {
		writeError(w, r, http.StatusInternalServerError, "reload_failed", err)
		return
	}
	ds, err := s.Source.Load(r.Context())
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "dataset_unavailable", err)
		return
	}
	s.log.Info("dataset reloaded", "source", ds.Source, "listings", ds.Len(), "dropped", ds.Dropped)
	render.JSON(w, r, map[string]any{"reloaded": true, "listings": ds.Len(), "dropped": ds.Dropped})
}
