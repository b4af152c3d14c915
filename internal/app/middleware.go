package app

import (
	"net/http"

	"github.com/bolsillito/bolsillito/internal/config"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Tag every request with a trace id and log it
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			traceId := req.Header.Get("X-Trace-Id")
			if traceId == "" {
				traceId = uuid.NewString()
			}
			w.Header().Set("X-Trace-Id", traceId)

			log.WithFields(log.Fields{
				"traceId": traceId,
				"method":  req.Method,
				"path":    req.URL.Path,
			}).Debug("handling request")

			next.ServeHTTP(w, req)
		})
	})
}
