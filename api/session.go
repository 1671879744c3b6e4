package api

import (
	"net/http"

	"github.com/google/uuid"
	"hermannm.dev/portfolio/session"
)

const sessionCookieName = "portfolio_session"

// existingSession returns the session ID from the request's cookie, and false if there is none or
// it is malformed.
func existingSession(req *http.Request) (uuid.UUID, bool) {
	cookie, err := req.Cookie(sessionCookieName)
	if err != nil {
		return uuid.UUID{}, false
	}

	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// ensureSession returns the request's session ID, or starts a new session and sets its cookie on
// the response.
func (api PortfolioAPI) ensureSession(res http.ResponseWriter, req *http.Request) uuid.UUID {
	if id, ok := existingSession(req); ok {
		return id
	}

	id := session.NewID()
	http.SetCookie(res, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   api.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
