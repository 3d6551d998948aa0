package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"
)

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s from=%s dur=%s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

// staffContext is the identity the external session layer injects via
// headers. Authentication itself happens upstream; this server only
// requires that the resolved identity is present and holds a door role.
type staffContext struct {
	UserID    string
	VenueID   string
	Role      string
	SessionID string
}

func staffFromRequest(r *http.Request) (staffContext, bool) {
	sc := staffContext{
		UserID:    strings.TrimSpace(r.Header.Get("X-Staff-User-Id")),
		VenueID:   strings.TrimSpace(r.Header.Get("X-Staff-Venue-Id")),
		Role:      strings.ToLower(strings.TrimSpace(r.Header.Get("X-Staff-Role"))),
		SessionID: strings.TrimSpace(r.Header.Get("X-Session-Id")),
	}
	if sc.UserID == "" || sc.VenueID == "" {
		return staffContext{}, false
	}
	if sc.SessionID == "" {
		// Degrade to per-staff de-duplication when the session layer
		// sends no session id.
		sc.SessionID = sc.UserID
	}
	return sc, true
}

func (sc staffContext) roleAllowed() bool {
	switch sc.Role {
	case "staff", "manager", "owner":
		return true
	default:
		return false
	}
}
