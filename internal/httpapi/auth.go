package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/records"
)

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Username) == "" || body.Password == "" {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "username and password required")
		return
	}

	tbl, err := a.sheets.FetchTable(r.Context(), a.cfg.SheetID, records.SheetLogin)
	if err != nil {
		writeUpstream(w, r, "could not read login sheet", err)
		return
	}
	creds := records.DecodeAll(records.SheetLogin, tbl.Rows, records.DecodeCredential)
	u, ok := auth.Authenticate(creds, body.Username, body.Password)
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}

	expires := a.now().Add(a.cfg.SessionTTL)
	sid, err := a.store.CreateSession(r.Context(), u, expires)
	if err != nil {
		writeInternal(w, r, "could not create session", err)
		return
	}

	secure := a.cfg.CookieSecure
	if !secure {
		if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			secure = true
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		Expires:  expires,
	})

	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sid, err := uuid.Parse(c.Value); err == nil {
			_ = a.store.DeleteSession(r.Context(), sid)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.FromContext(r.Context())
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}
