// Package httpapi exposes planning runs, health and metrics over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"card_float_planner/internal/app"
	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Server is the planner HTTP API.
type Server struct {
	planning    app.PlanningService
	healthCheck func(ctx context.Context) error
	logger      *logrus.Entry
	location    *time.Location
	now         func() time.Time
}

func NewServer(planning app.PlanningService, logger *logrus.Entry, location *time.Location) *Server {
	return &Server{planning: planning, logger: logger, location: location, now: time.Now}
}

// WithHealthCheck makes /health report 503 while check fails.
func (s *Server) WithHealthCheck(check func(ctx context.Context) error) *Server {
	s.healthCheck = check
	return s
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/plan", s.handlePlan)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.healthCheck(ctx); err != nil {
			s.logger.WithError(err).Warn("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var body PlanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	asOf, err := parseAsOf(body.AsOf, s.now().In(s.location))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payments := make([]*payment.Request, 0, len(body.Payments))
	for _, p := range body.Payments {
		req, err := p.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		payments = append(payments, req)
	}

	plan, err := s.runPlan(r.Context(), body, payments, asOf)
	if err != nil {
		log := s.logger.WithError(err).WithField("request_id", middleware.GetReqID(r.Context()))
		switch {
		case errors.Is(err, card.ErrInvalidCard), errors.Is(err, payment.ErrInvalidPayment):
			log.Warn("Rejected plan request")
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			log.Error("Planning run failed")
			writeError(w, http.StatusInternalServerError, "planning run failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, NewPlanResponse(plan))
}

func (s *Server) runPlan(ctx context.Context, body PlanRequest, payments []*payment.Request, asOf time.Time) (*app.Plan, error) {
	if len(body.Cards) == 0 {
		return s.planning.RunWithStoredCards(ctx, payments, asOf)
	}

	cards := make([]*card.Profile, 0, len(body.Cards))
	for _, c := range body.Cards {
		cards = append(cards, c.toDomain())
	}
	holidays := make([]time.Time, 0, len(body.Holidays))
	for _, raw := range body.Holidays {
		d, err := calendar.ParseDate(raw)
		if err != nil {
			return nil, &card.ConfigurationError{Problems: []string{"invalid holiday date " + raw}}
		}
		holidays = append(holidays, d)
	}
	return s.planning.Run(ctx, app.RunInput{Cards: cards, Payments: payments, Holidays: holidays, AsOf: asOf})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"status":  status,
		},
	})
}
