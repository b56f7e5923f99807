package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/blagoySimandov/clinicbook/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	corsAllowOrigin      = "Access-Control-Allow-Origin"
	corsAllowMethods     = "Access-Control-Allow-Methods"
	corsAllowHeaders     = "Access-Control-Allow-Headers"
	corsAllowCredentials = "Access-Control-Allow-Credentials"
	allowedMethods       = "GET, POST, PUT, DELETE, OPTIONS"
	allowedHeaders       = "Content-Type, Authorization"
	allowedCredentials   = "true"
	internalServerError  = "Internal server error"
	traceIDHeader        = "X-Trace-ID"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware emits one wide event per request and records request metrics
// against the matched route template.
func LoggingMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			event := logging.NewWideEvent("http_request")
			ctx := logging.WithContext(r.Context(), event)
			logging.EnrichHTTP(ctx, r.Method, r.URL.Path)
			w.Header().Set(traceIDHeader, event.TraceID)

			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			duration := time.Since(start)
			logging.EnrichHTTPStatus(ctx, rw.statusCode)
			logging.EnrichHTTPDuration(ctx, duration)
			logging.Emit(ctx)

			if m != nil {
				m.ObserveHTTP(r.Method, routeTemplate(r), rw.statusCode, duration)
			}
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Str("trace_id", logging.GetTraceID(r.Context())).
					Msg("Recovered from panic")
				logging.EnrichPanic(r.Context())
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware lets the configured frontend origin call the API with credentials.
func CORSMiddleware(allowedOrigin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && origin == allowedOrigin {
				w.Header().Set(corsAllowOrigin, origin)
				w.Header().Set(corsAllowMethods, allowedMethods)
				w.Header().Set(corsAllowHeaders, allowedHeaders)
				w.Header().Set(corsAllowCredentials, allowedCredentials)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
