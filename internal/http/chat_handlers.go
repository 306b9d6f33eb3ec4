package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"excelbot-backend-go/internal/models"
	"excelbot-backend-go/internal/services"
)

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

type ChatMetadata struct {
	ConversationID    string `json:"conversationId"`
	MatchedEntryCount int    `json:"matchedEntryCount"`
	RemainingToday    int    `json:"remainingToday"`
}

type ChatResponse struct {
	Response string       `json:"response"`
	Formulas []string     `json:"formulas"`
	VBACode  string       `json:"vbaCode,omitempty"`
	Metadata ChatMetadata `json:"metadata"`
}

// ChatMessage is the main question endpoint. Authenticated users spend their
// daily quota; on the demo profile anonymous callers chat as "guest" against
// a shared counter at the base limit.
func (s *Server) ChatMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Invalid payload")
		return
	}
	message := sanitizeString(strings.TrimSpace(req.Message))
	if !validLength(message, minMessageLength, maxMessageLength) {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Message must be between 1 and 5000 characters")
		return
	}
	if looksLikeInjection(message) {
		s.Security.Event("injection_pattern", "ip", resolveClientIP(r))
	}

	auth := CurrentAuth(r)
	author := models.GuestAuthor
	remaining := -1
	var user *models.User
	if auth != nil {
		var err error
		user, err = s.Users.GetByID(r.Context(), auth.UserID)
		if err != nil {
			s.WriteServiceError(w, services.FromStore(err, "User not found", ""))
			return
		}
		author = user.ID
		if !s.Accounts.CanAskQuestion(user) {
			s.WriteServiceError(w, services.ErrUsageLimit("Daily question limit reached"))
			return
		}
	} else if s.Config.Hardened() {
		WriteError(w, http.StatusUnauthorized, services.CodeAuthFailed, "Authentication required")
		return
	} else if !s.Accounts.CanGuestAsk() {
		s.WriteServiceError(w, services.ErrUsageLimit("Daily question limit reached"))
		return
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	reply, err := s.Responder.Respond(r.Context(), message)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}

	if user != nil {
		if err := s.Accounts.ConsumeQuestion(r.Context(), user); err != nil {
			s.WriteServiceError(w, err)
			return
		}
		remaining = s.Accounts.RemainingToday(user)
	} else {
		s.Accounts.ConsumeGuestQuestion()
		remaining = s.Accounts.GuestRemainingToday()
	}

	userMsg := models.ChatMessage{
		ConversationID: conversationID,
		Author:         author,
		Role:           models.MessageRoleUser,
		Text:           escapeHTML(message),
	}
	botMsg := models.ChatMessage{
		ConversationID: conversationID,
		Author:         author,
		Role:           models.MessageRoleBot,
		Text:           reply.Text,
		Formulas:       reply.Formulas,
		VBACode:        reply.VBACode,
	}
	if err := s.Chat.Append(r.Context(), userMsg); err != nil {
		s.WriteServiceError(w, err)
		return
	}
	if err := s.Chat.Append(r.Context(), botMsg); err != nil {
		s.WriteServiceError(w, err)
		return
	}

	// Mirror the bot turn to live room participants; delivery is best
	// effort and does not affect the HTTP reply.
	s.Hub.Broadcast(conversationID, nil, services.EventNewMessage, botMsg)

	WriteJSON(w, http.StatusOK, ChatResponse{
		Response: reply.Text,
		Formulas: reply.Formulas,
		VBACode:  reply.VBACode,
		Metadata: ChatMetadata{
			ConversationID:    conversationID,
			MatchedEntryCount: reply.MatchedEntryCount,
			RemainingToday:    remaining,
		},
	})
}

func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	auth := CurrentAuth(r)
	items, err := s.Chat.History(r.Context(), auth.UserID)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": items})
}

// ClearChatHistory is idempotent: clearing an already-empty history is still
// a 200.
func (s *Server) ClearChatHistory(w http.ResponseWriter, r *http.Request) {
	auth := CurrentAuth(r)
	if err := s.Chat.Clear(r.Context(), auth.UserID); err != nil {
		s.WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
