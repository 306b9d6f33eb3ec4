package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"excelbot-backend-go/internal/services"
)

// SessionCookie carries the server-side session id. HttpOnly always;
// SameSite strictness follows the profile.
const SessionCookie = "excelbot_session"

type contextKey string

const ctxAuth contextKey = "auth"

// AuthInfo is the resolved identity for a request. SessionID is empty for
// bearer-token auth; ViaCookie drives the CSRF requirement.
type AuthInfo struct {
	UserID    string
	Username  string
	Role      string
	SessionID string
	ViaCookie bool
}

func CurrentAuth(r *http.Request) *AuthInfo {
	if value, ok := r.Context().Value(ctxAuth).(*AuthInfo); ok {
		return value
	}
	return nil
}

// resolveAuth tries the session cookie first, then a bearer access token.
// Anonymous requests resolve to (nil, nil); a bearer token that was presented
// but failed to verify resolves to a ServiceError so WithAuth can name the
// reason, expired tokens getting their own code.
func (s *Server) resolveAuth(r *http.Request) (*AuthInfo, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if session := s.Sessions.Get(cookie.Value); session != nil {
			return &AuthInfo{
				UserID:    session.UserID,
				Username:  session.Username,
				Role:      session.Role,
				SessionID: session.ID,
				ViaCookie: true,
			}, nil
		}
	}
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, nil
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	token, claims, err := s.Tokens.ParseToken(tokenStr)
	if err != nil {
		s.Security.Event("invalid_token", "path", r.URL.Path)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, services.ErrTokenExpired("Access token expired")
		}
		return nil, services.ErrInvalidToken("Invalid access token")
	}
	if !token.Valid || claims["typ"] != "access" {
		s.Security.Event("invalid_token", "path", r.URL.Path)
		return nil, services.ErrInvalidToken("Invalid access token")
	}
	userID, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return nil, services.ErrInvalidToken("Invalid access token")
	}
	return &AuthInfo{UserID: userID, Username: username, Role: role}, nil
}

// OptionalAuth attaches the identity when one resolves and lets anonymous
// requests through; the demo profile's guest chat path relies on it. Broken
// tokens degrade to anonymous here, so the handler's own policy decides.
func (s *Server) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth, _ := s.resolveAuth(r); auth != nil {
			noteAuditUser(r, auth.UserID)
			r = r.WithContext(context.WithValue(r.Context(), ctxAuth, auth))
		}
		next.ServeHTTP(w, r)
	})
}

// WithAuth rejects anonymous requests.
func (s *Server) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, err := s.resolveAuth(r)
		if err != nil {
			s.WriteServiceError(w, err)
			return
		}
		if auth == nil {
			WriteError(w, http.StatusUnauthorized, services.CodeAuthFailed, "Authentication required")
			return
		}
		noteAuditUser(r, auth.UserID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxAuth, auth)))
	})
}

func (s *Server) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := CurrentAuth(r)
			if auth == nil || auth.Role != role {
				WriteError(w, http.StatusForbidden, services.CodeForbidden, "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// VerifyCSRF enforces the token on unsafe methods whenever a session cookie
// accompanies the request, even when the request could authenticate another
// way. Bearer-only requests carry no ambient credential and are exempt.
func (s *Server) VerifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := r.Header.Get("X-CSRF-Token")
		if !s.Sessions.VerifyCSRF(cookie.Value, token) {
			s.Security.Event("csrf_rejected", "path", r.URL.Path, "ip", resolveClientIP(r))
			s.WriteServiceError(w, services.ErrCSRF("Missing or invalid CSRF token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// setSessionCookie writes the session cookie with profile-driven strictness.
func (s *Server) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.Config.Hardened() {
		sameSite = http.SameSiteStrictMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Config.Hardened(),
		SameSite: sameSite,
	})
}
