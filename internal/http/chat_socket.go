package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"excelbot-backend-go/internal/models"
	"excelbot-backend-go/internal/services"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin policy for the socket is handled by the token
		// requirement; the browser CORS preflight does not apply to
		// websocket upgrades.
		return true
	},
}

type socketMessage struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	Type           string `json:"type"`
}

type socketStatus struct {
	Status string `json:"status"`
}

// ChatSocket upgrades to the realtime channel. Browsers cannot set an
// Authorization header on the upgrade request, so the access token rides the
// query string; a session cookie works as well.
func (s *Server) ChatSocket(w http.ResponseWriter, r *http.Request) {
	auth := s.socketAuth(r)
	if auth == nil {
		WriteError(w, http.StatusUnauthorized, services.CodeAuthFailed, "Authentication required")
		return
	}
	noteAuditUser(r, auth.UserID)
	user, err := s.Users.GetByID(r.Context(), auth.UserID)
	if err != nil || !user.IsActive {
		WriteError(w, http.StatusForbidden, services.CodeForbidden, "Account is deactivated")
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := s.Hub.Attach(conn, auth.UserID, auth.Username)
	defer s.Hub.Detach(client)

	conn.SetReadLimit(s.Config.BodyLimitBytes)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var event services.ChatEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			s.Hub.Send(client, services.EventError, map[string]string{"message": "Malformed event"})
			continue
		}
		s.handleChatEvent(client, event)
	}
}

func (s *Server) handleChatEvent(client *services.ChatClient, event services.ChatEvent) {
	switch event.Event {
	case services.EventJoinChat:
		var room struct {
			ConversationID string `json:"conversationId"`
		}
		_ = json.Unmarshal(event.Data, &room)
		if room.ConversationID == "" {
			room.ConversationID = uuid.NewString()
		}
		s.Hub.Join(client, room.ConversationID)
		s.Hub.Broadcast(room.ConversationID, client, services.EventStatusChanged, map[string]string{
			"username": client.Username,
			"status":   "online",
		})

	case services.EventLeaveChat:
		var room struct {
			ConversationID string `json:"conversationId"`
		}
		_ = json.Unmarshal(event.Data, &room)
		s.Hub.Leave(client, room.ConversationID)

	case services.EventSendMessage:
		var msg socketMessage
		if err := json.Unmarshal(event.Data, &msg); err != nil || msg.ConversationID == "" {
			s.Hub.Send(client, services.EventError, map[string]string{"message": "conversationId is required"})
			return
		}
		text := sanitizeString(msg.Message)
		if !validLength(text, minMessageLength, maxMessageLength) {
			s.Hub.Send(client, services.EventError, map[string]string{"message": "Message must be between 1 and 5000 characters"})
			return
		}
		out := models.ChatMessage{
			ConversationID: msg.ConversationID,
			Author:         client.UserID,
			Role:           models.MessageRoleUser,
			Text:           escapeHTML(text),
		}
		s.Hub.Broadcast(msg.ConversationID, client, services.EventNewMessage, out)
		s.Hub.Send(client, services.EventMessageSent, map[string]string{
			"conversationId": msg.ConversationID,
		})

	case services.EventTyping:
		var msg socketMessage
		_ = json.Unmarshal(event.Data, &msg)
		if msg.ConversationID == "" {
			return
		}
		s.Hub.Broadcast(msg.ConversationID, client, services.EventUserTyping, map[string]string{
			"conversationId": msg.ConversationID,
			"username":       client.Username,
		})

	case services.EventUpdateStatus:
		var status socketStatus
		_ = json.Unmarshal(event.Data, &status)
		if status.Status == "" {
			return
		}
		for _, room := range s.Hub.Rooms(client) {
			s.Hub.Broadcast(room, client, services.EventStatusChanged, map[string]string{
				"username": client.Username,
				"status":   sanitizeString(status.Status),
			})
		}

	default:
		s.Hub.Send(client, services.EventError, map[string]string{"message": "Unknown event"})
	}
}

// socketAuth accepts an access token in the query string or a session cookie.
func (s *Server) socketAuth(r *http.Request) *AuthInfo {
	if raw := r.URL.Query().Get("token"); raw != "" {
		token, claims, err := s.Tokens.ParseToken(raw)
		if err != nil || !token.Valid || claims["typ"] != "access" {
			s.Security.Event("invalid_token", "path", r.URL.Path)
			return nil
		}
		userID, _ := claims["sub"].(string)
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		if userID == "" {
			return nil
		}
		return &AuthInfo{UserID: userID, Username: username, Role: role}
	}
	auth, _ := s.resolveAuth(r)
	return auth
}
