package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/immo-sys/backend/internal/api/models"
	"github.com/ps-vitor/immo-sys/backend/internal/auth"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request with its status and duration.
func RequestLogger(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// RequireAdmin admits requests carrying "Authorization: Bearer <jwt>" signed with secret.
// An empty secret admits nobody.
func RequireAdmin(secret string, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := auth.Verify(secret, token)
			if err != nil {
				log.Warn("admin request refused", "path", r.URL.Path, logger.Err(err))
				unauthorized(w)
				return
			}
			log.Debug("admin request", "subject", claims.Subject, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

type RouteRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

// Routes splits handlers between the open site API and the operator tools.
type Routes struct {
	Public []RouteRegistrar
	Admin  []RouteRegistrar
}

// NewRouter mounts every handler on a fresh router behind the request logger. Admin
// handlers sit on a subrouter guarded by RequireAdmin(adminSecret).
func NewRouter(log *logger.Logger, adminSecret string, routes Routes) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger(log))
	for _, h := range routes.Public {
		h.RegisterRoutes(r)
	}

	admin := r.NewRoute().Subrouter()
	admin.Use(RequireAdmin(adminSecret, log))
	for _, h := range routes.Admin {
		h.RegisterRoutes(admin)
	}
	return r
}
