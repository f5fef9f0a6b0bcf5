package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dashboardBot/internal/dashboard"
	"dashboardBot/internal/finance"
	"dashboardBot/internal/storage"
)

// Dashboards builds dashboards and answers lookups.
type Dashboards interface {
	Build(ctx context.Context, req dashboard.Request) (*dashboard.Dashboard, error)
	Tickers(query string) ([]finance.UniverseEntry, error)
	Benchmarks() []finance.Benchmark
	DefaultBenchmark() string
}

type dashboardResponse struct {
	*dashboard.Dashboard
	Weights    []weightView     `json:"weights"`
	Normalized dashboard.Series `json:"normalized"`
}

type weightView struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
}

type benchmarksResponse struct {
	Default    string              `json:"default"`
	Benchmarks []finance.Benchmark `json:"benchmarks"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := s.buildFromQuery(w, r)
	if !ok {
		return
	}
	weights := make([]weightView, 0, len(d.Metrics.Weights))
	for _, wa := range d.Metrics.Weights {
		weights = append(weights, weightView{Symbol: wa.Symbol, Weight: wa.Weight})
	}
	s.writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: d, Weights: weights, Normalized: d.NormalizedSeries()})
}

func (s *Server) handleNormalizedChart(w http.ResponseWriter, r *http.Request) {
	if d, ok := s.buildFromQuery(w, r); ok {
		s.writePNG(w, d.NormalizedChart)
	}
}

func (s *Server) handleRiskReturnChart(w http.ResponseWriter, r *http.Request) {
	if d, ok := s.buildFromQuery(w, r); ok {
		s.writePNG(w, d.RiskReturnChart)
	}
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	entries, err := s.dashboards.Tickers(r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	if entries == nil {
		entries = []finance.UniverseEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleBenchmarks(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, benchmarksResponse{
		Default:    s.dashboards.DefaultBenchmark(),
		Benchmarks: s.dashboards.Benchmarks(),
	})
}

// buildFromQuery parses ?symbols=&start=&end=&benchmark= and builds the dashboard,
// writing the error response itself when that fails.
func (s *Server) buildFromQuery(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	q := r.URL.Query()
	req, err := dashboard.ParseRequest(q.Get("symbols"), q.Get("start"), q.Get("end"), q.Get("benchmark"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	d, err := s.dashboards.Build(r.Context(), req)
	s.logRequest(r, err)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return d, true
}

func (s *Server) logRequest(r *http.Request, err error) {
	if s.store == nil {
		return
	}
	rec := storage.Request{Category: "dashboard", Command: r.Method + " " + r.URL.Path, Status: storage.StatusOK}
	if err != nil {
		rec.Status = storage.StatusError
		rec.Error = err.Error()
	}
	if _, lerr := s.store.LogRequest(rec); lerr != nil {
		s.log.Warn().Err(lerr).Msg("failed to log request")
	}
}

// statusFor maps dashboard errors onto HTTP statuses.
func statusFor(err error) int {
	var unknown *dashboard.UnknownSymbolsError
	switch {
	case errors.Is(err, dashboard.ErrNoSelection),
		errors.As(err, &unknown),
		errors.Is(err, dashboard.ErrUnknownBenchmark),
		errors.Is(err, dashboard.ErrInvalidRange),
		errors.Is(err, dashboard.ErrInvalidDate),
		errors.Is(err, dashboard.ErrNoTradingDays):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writePNG(w http.ResponseWriter, img []byte) {
	if len(img) == 0 {
		s.writeError(w, http.StatusUnprocessableEntity, "not enough trading days to draw this chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		s.log.Error().Err(err).Msg("Failed to write PNG response")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
