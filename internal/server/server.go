package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shippingcalc/internal/carrier"
	"shippingcalc/internal/rate"
	apperrors "shippingcalc/pkg/errors"
)

const serviceName = "shipping-cost-calculator"

// Options wires the server to its collaborators. Zero values get defaults.
type Options struct {
	Store      carrier.Store
	Calculator *rate.Calculator
	Mode       rate.Mode
	Normalizer *Normalizer
	// ErrorFallback answers rate callbacks that cannot be priced at all
	ErrorFallback rate.Fallback
	// ShopifyAPISecret enables X-Shopify-Hmac-Sha256 verification when set
	ShopifyAPISecret string
	Logger           *zap.Logger
	Environment      string
	Version          string
	Now              func() time.Time
}

type Server struct {
	store    carrier.Store
	carriers *carrier.Reader
	calc     *rate.Calculator
	mode     rate.Mode
	norm     *Normalizer
	fallback rate.Fallback
	secret   string
	logger   *zap.Logger
	env      string
	version  string
	now      func() time.Time
}

func New(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Calculator == nil {
		opts.Calculator = rate.NewCalculator(rate.NewSelector("EUR"), rate.SplitPerCarrier)
	}
	if opts.Normalizer == nil {
		opts.Normalizer = NewNormalizer(nil, "AT")
	}
	if opts.ErrorFallback == (rate.Fallback{}) {
		opts.ErrorFallback = rate.ErrorFallback
	}
	if opts.Environment == "" {
		opts.Environment = "development"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var dir carrier.Directory
	if opts.Store != nil {
		dir = opts.Store
	}
	s := &Server{
		store:    opts.Store,
		carriers: carrier.NewReader(dir, opts.Logger),
		calc:     opts.Calculator,
		mode:     opts.Mode,
		norm:     opts.Normalizer,
		fallback: opts.ErrorFallback,
		secret:   opts.ShopifyAPISecret,
		logger:   opts.Logger,
		env:      opts.Environment,
		version:  opts.Version,
		now:      opts.Now,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/health", s.handleHealthJSON)

	r.Group(func(r chi.Router) {
		r.Use(corsMiddleware("POST, GET, OPTIONS", "Content-Type, X-Shopify-Access-Token, X-Shopify-Hmac-Sha256"))
		r.Options("/api/shipping-rates", handlePreflight)
		r.Get("/api/shipping-rates", s.handleRatesStatus)
		r.Post("/api/shipping-rates", s.handleShippingRates)
	})
	r.Post("/api/quotes", s.handleQuotes)

	r.Route("/carriers", func(r chi.Router) {
		r.Use(s.requireStore)
		r.Get("/", s.handleListCarriers)
		r.Post("/", s.handleCreateCarrier)
		r.Route("/{carrierID}", func(r chi.Router) {
			r.Get("/", s.handleGetCarrier)
			r.Put("/", s.handleUpdateCarrier)
			r.Delete("/", s.handleDeleteCarrier)
			r.Post("/countries", s.handleAddCountryRate)
			r.Route("/countries/{countryID}", func(r chi.Router) {
				r.Put("/", s.handleUpdateCountryRate)
				r.Delete("/", s.handleDeleteCountryRate)
				r.Post("/weight-rates", s.handleAddWeightRate)
				r.Put("/weight-rates/{rateID}", s.handleUpdateWeightRate)
				r.Delete("/weight-rates/{rateID}", s.handleDeleteWeightRate)
			})
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

func (s *Server) handleHealthJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Timestamp:   s.now().UTC().Format(time.RFC3339),
		Service:     serviceName,
		Environment: s.env,
		Version:     s.version,
	})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeValidationError adds the offending fields to the standard error body.
func writeValidationError(w http.ResponseWriter, verr *apperrors.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":    "invalid_request",
			"message": verr.Message,
			"fields":  verr.Fields,
		},
	})
}

// writeStoreError maps carrier store errors onto HTTP responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *apperrors.ValidationError
		nf       *apperrors.NotFoundError
		conflict *apperrors.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.As(err, &nf):
		writeErrorJSON(w, http.StatusNotFound, "resource_not_found", nf.Error())
	case errors.As(err, &conflict):
		writeErrorJSON(w, http.StatusConflict, "conflict", conflict.Error())
	default:
		s.logger.Error("carrier store error",
			zap.String("request_id", w.Header().Get("X-Request-ID")),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
	}
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeErrorJSON(w, http.StatusServiceUnavailable, "store_unavailable", "carrier store not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", ww.Header().Get("X-Request-ID")),
			)
		})
	}
}

// corsMiddleware lets the storefront and Shopify reach the rate endpoint.
func corsMiddleware(methods, headers string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", "86400")
			next.ServeHTTP(w, r)
		})
	}
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
