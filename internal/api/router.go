package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/etfscope/internal/api/handlers"
	"github.com/wonny/etfscope/internal/metrics"
	"github.com/wonny/etfscope/pkg/logger"
)

// Handlers groups the endpoint handlers; a nil handler leaves its routes unregistered
type Handlers struct {
	Analysis *handlers.AnalysisHandler
	Listing  *handlers.ListingHandler
	Universe *handlers.UniverseHandler
	Market   *handlers.MarketHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, rec *metrics.Recorder, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Prometheus
	if rec != nil {
		r.Handle("/metrics", rec.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	if h.Analysis != nil {
		api.HandleFunc("/analysis", h.Analysis.Analyze).Methods("GET")
		api.HandleFunc("/analysis/selection-sum", h.Analysis.SelectionSum).Methods("POST")
	}
	if h.Listing != nil {
		api.HandleFunc("/listing-date/{code}", h.Listing.GetListingDate).Methods("GET")
	}
	if h.Universe != nil {
		api.HandleFunc("/universe", h.Universe.GetUniverse).Methods("GET")
	}
	if h.Market != nil {
		api.HandleFunc("/market", h.Market.GetSnapshot).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "etfscope-api",
	})
}

// statusRecorder captures the status code for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
