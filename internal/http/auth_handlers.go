package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"excelbot-backend-go/internal/models"
	"excelbot-backend-go/internal/services"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UserDTO struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	QuestionsToday int    `json:"questionsToday"`
	RemainingToday int    `json:"remainingToday"`
}

type AuthResponse struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresAt    int64   `json:"expiresAt"`
	CSRFToken    string  `json:"csrfToken"`
}

func (s *Server) userDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Role:           user.Role,
		QuestionsToday: user.QuestionsToday,
		RemainingToday: s.Accounts.RemainingToday(user),
	}
}

// authenticate establishes the session cookie plus the token pair for a
// just-verified user.
func (s *Server) authenticate(w http.ResponseWriter, user *models.User) (*AuthResponse, error) {
	session, err := s.Sessions.Create(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	pair, err := s.Tokens.CreatePair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	s.setSessionCookie(w, session.ID, int(s.Config.SessionTTLSeconds))
	return &AuthResponse{
		User:         s.userDTO(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		CSRFToken:    session.CSRFToken,
	}, nil
}

// Register creates the account and auto-authenticates it.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Invalid payload")
		return
	}
	user, err := s.Accounts.Register(r.Context(),
		sanitizeString(req.Username), sanitizeString(req.Email), req.Password)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}
	resp, err := s.authenticate(w, user)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Username and password are required")
		return
	}
	user, err := s.Accounts.Login(r.Context(), sanitizeString(req.Username), req.Password)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}
	resp, err := s.authenticate(w, user)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Logout destroys the session and clears the cookie. Idempotent: a missing
// or already-destroyed session still answers 200.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		s.Sessions.Destroy(cookie.Value)
	}
	s.setSessionCookie(w, "", -1)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	auth := CurrentAuth(r)
	user, err := s.Users.GetByID(r.Context(), auth.UserID)
	if err != nil {
		s.WriteServiceError(w, services.FromStore(err, "User not found", ""))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]UserDTO{"user": s.userDTO(user)})
}

// CSRFToken returns the session's anti-forgery token for clients that did
// not capture it at login.
func (s *Server) CSRFToken(w http.ResponseWriter, r *http.Request) {
	auth := CurrentAuth(r)
	if auth.SessionID == "" {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "CSRF tokens apply to cookie sessions only")
		return
	}
	session := s.Sessions.Get(auth.SessionID)
	if session == nil {
		WriteError(w, http.StatusUnauthorized, services.CodeAuthFailed, "Session expired")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": session.CSRFToken})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Invalid payload")
		return
	}
	token, claims, err := s.Tokens.ParseToken(req.RefreshToken)
	if err != nil || !token.Valid || claims["typ"] != "refresh" {
		s.Security.Event("invalid_refresh_token", "ip", resolveClientIP(r))
		if err != nil && errors.Is(err, jwt.ErrTokenExpired) {
			s.WriteServiceError(w, services.ErrTokenExpired("Refresh token expired"))
			return
		}
		s.WriteServiceError(w, services.ErrInvalidToken("Invalid refresh token"))
		return
	}
	userID, _ := claims["sub"].(string)
	user, err := s.Users.GetByID(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, services.CodeAuthFailed, "Authentication failed")
		return
	}
	if !user.IsActive {
		WriteError(w, http.StatusForbidden, services.CodeForbidden, "Account is deactivated")
		return
	}
	pair, err := s.Tokens.CreatePair(user.ID, user.Username, user.Role)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresAt":    pair.ExpiresAt,
	})
}
