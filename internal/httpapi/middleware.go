package httpapi

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/db"
)

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (a *App) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || strings.TrimSpace(c.Value) == "" {
			writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
			return
		}
		sid, err := uuid.Parse(c.Value)
		if err != nil {
			writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
			return
		}

		u, expiresAt, err := a.store.GetSession(r.Context(), sid)
		if errors.Is(err, db.ErrNotFound) {
			writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session not found")
			return
		}
		if err != nil {
			writeInternal(w, r, "session lookup failed", err)
			return
		}
		if a.now().After(expiresAt) {
			_ = a.store.DeleteSession(r.Context(), sid)
			writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session expired")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

func requireRole(allowed func(auth.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.FromContext(r.Context())
			if !ok {
				writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
				return
			}
			if !allowed(u) {
				writeAPIError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var (
	requireAdmin     = requireRole(auth.User.IsAdmin)
	requireFullAdmin = requireRole(auth.User.IsFullAdmin)
)

const idempotencyHeader = "Idempotency-Key"

// idempotent replays the stored response when a write repeats an
// Idempotency-Key already seen for the same user. Server errors are not
// stored so the client can retry them.
func (a *App) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		if key == "" || (r.Method != http.MethodPost && r.Method != http.MethodDelete) {
			next.ServeHTTP(w, r)
			return
		}
		u, _ := auth.FromContext(r.Context())
		key = r.Method + " " + r.URL.Path + " " + key

		rec, found, err := a.store.GetReceipt(r.Context(), key, u.Username)
		if err != nil {
			writeInternal(w, r, "receipt lookup failed", err)
			return
		}
		if found {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(rec.Status)
			_, _ = w.Write(rec.Body)
			return
		}

		var buf bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&buf)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status >= http.StatusInternalServerError {
			return
		}
		if err := a.store.SaveReceipt(r.Context(), db.Receipt{
			Key:      key,
			Username: u.Username,
			Status:   status,
			Body:     buf.Bytes(),
		}); err != nil {
			slog.WarnContext(r.Context(), "save receipt", "error", err)
		}
	})
}
