// Package server exposes the assistant over a local HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/otherjamesbrown/meetprep/client"
	"github.com/otherjamesbrown/meetprep/pkg/assistant"
	"github.com/otherjamesbrown/meetprep/pkg/buildinfo"
	apperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
	"github.com/otherjamesbrown/meetprep/pkg/observability"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// maxBodySize caps JSON request bodies. Plans carry whole transcripts.
const maxBodySize = 16 << 20

// Service is the assistant surface served over HTTP.
type Service interface {
	Meetings(ctx context.Context) (*assistant.MeetingsResult, error)
	Transcript(ctx context.Context, subject, date string) (*assistant.TranscriptResult, error)
	Insights(ctx context.Context, subject, date string) (*assistant.AnswerResult, error)
	Ask(ctx context.Context, question string) (*assistant.AnswerResult, error)
	Plan(ctx context.Context, req assistant.PlanRequest, onDelta func(string) error) (*assistant.PlanResult, error)
	Models(ctx context.Context) ([]client.ModelInfo, error)
}

// Options configures a Server.
type Options struct {
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc     Service
	metrics *observability.Metrics
	logger  logging.Logger
	router  chi.Router
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// New builds the router.
func New(svc Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		svc:     svc,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Route("/api", func(r chi.Router) {
		r.Get("/meetings", s.handleMeetings)
		r.Get("/meetings/transcript", s.handleTranscript)
		r.Get("/meetings/insights", s.handleInsights)
		r.Post("/ask", s.handleAsk)
		r.Get("/models", s.handleModels)
		r.Post("/generate-plan", s.handleGeneratePlan)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	r.Method(http.MethodGet, "/version", buildinfo.Handler("server"))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("HTTP API listening", logging.F("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		s.logger.Info("HTTP API stopped")
		return nil
	})
	return g.Wait()
}

func (s *Server) handleMeetings(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Meetings(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch meetings")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.Transcript(r.Context(), q.Get("subject"), q.Get("date"))
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch transcript")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.Insights(r.Context(), q.Get("subject"), q.Get("date"))
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch meeting insights")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body", Details: err.Error()})
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing 'question' in request body"})
		return
	}

	res, err := s.svc.Ask(r.Context(), body.Question)
	if err != nil {
		s.writeError(w, r, err, "Failed to query agent")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.svc.Models(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch models")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

// handleGeneratePlan streams the plan as server-sent events in the OpenAI
// chunk format and ends the stream with [DONE]. Errors after the stream
// has started are sent as an error event.
func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req assistant.PlanRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body", Details: err.Error()})
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing transcript in request body"})
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.writeError(w, r, err, "Failed to generate plan")
		return
	}
	log := s.logger.WithContext(r.Context())

	res, err := s.svc.Plan(r.Context(), req, stream.Delta)
	if err != nil {
		if r.Context().Err() != nil {
			log.Info("Plan stream aborted by client")
			return
		}
		log.Error("Plan generation failed", logging.Err(err))
		stream.Error(err.Error())
	} else {
		log.Info("Plan streamed",
			logging.F("plan_id", res.RequestID),
			logging.F("chunks", stream.chunks))
	}
	stream.Done()
}

// writeError maps err to a status code and writes the JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, summary string) {
	status := StatusFor(err)
	s.logger.WithContext(r.Context()).Error(summary,
		logging.F("status", status),
		logging.Err(err))
	writeJSON(w, status, errorBody{Error: summary, Details: err.Error()})
}

// StatusFor maps an error to an HTTP status: 400 for invalid input, 401 for
// missing credentials, 504 for agent timeouts, 502 for an unreachable or
// misbehaving agent and 500 for everything else.
func StatusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsUnauthorized(err):
		return http.StatusUnauthorized
	case apperrors.IsAgentTimeout(err):
		return http.StatusGatewayTimeout
	case apperrors.IsAgentUnavailable(err), apperrors.IsAgentProtocol(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requestID takes the caller's request id or assigns a new one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLog logs every request and counts it by route pattern.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.RecordHTTPRequest(route, strconv.Itoa(status))
		s.logger.WithContext(r.Context()).Info("HTTP request",
			logging.F("method", r.Method),
			logging.F("route", route),
			logging.F("status", status),
			logging.F("bytes", ww.BytesWritten()),
			logging.F("duration_ms", time.Since(start).Milliseconds()))
	})
}
