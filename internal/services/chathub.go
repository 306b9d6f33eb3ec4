package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Event names on the realtime channel.
const (
	EventJoinChat      = "join-chat"
	EventLeaveChat     = "leave-chat"
	EventSendMessage   = "send-message"
	EventNewMessage    = "new-message"
	EventMessageSent   = "message-sent"
	EventTyping        = "typing"
	EventUserTyping    = "user-typing"
	EventUpdateStatus  = "update-status"
	EventStatusChanged = "user-status-changed"
	EventError         = "error"
)

// ChatEvent is the wire envelope in both directions.
type ChatEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatClient is one websocket connection. Outbound frames go through a
// buffered channel; a full buffer drops the frame, which is the at-most-once
// best-effort delivery the channel promises.
type ChatClient struct {
	UserID   string
	Username string

	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]bool
}

func (c *ChatClient) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

// ChatHub mirrors chat messages, typing and presence events to room
// participants. It owns no persistence; history comes from the HTTP API.
type ChatHub struct {
	mu      sync.RWMutex
	clients map[*ChatClient]bool
	rooms   map[string]map[*ChatClient]bool
	done    chan struct{}
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		clients: map[*ChatClient]bool{},
		rooms:   map[string]map[*ChatClient]bool{},
		done:    make(chan struct{}),
	}
}

// Run blocks until ctx is done, then closes every client.
func (h *ChatHub) Run(ctx context.Context) {
	<-ctx.Done()
	close(h.done)
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		_ = client.conn.Close()
	}
	h.clients = map[*ChatClient]bool{}
	h.rooms = map[string]map[*ChatClient]bool{}
	h.mu.Unlock()
}

// Attach registers the connection and starts its write pump.
func (h *ChatHub) Attach(conn *websocket.Conn, userID, username string) *ChatClient {
	client := &ChatClient{
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, 32),
		rooms:    map[string]bool{},
	}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go func() {
		for payload := range client.send {
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}()
	return client
}

// Detach removes the client from every room and broadcasts the offline
// status to rooms it participated in.
func (h *ChatHub) Detach(client *ChatClient) {
	h.mu.Lock()
	rooms := make([]string, 0, len(client.rooms))
	for room := range client.rooms {
		rooms = append(rooms, room)
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	for _, room := range rooms {
		h.Broadcast(room, client, EventStatusChanged, map[string]string{
			"username": client.Username,
			"status":   "offline",
		})
	}
}

func (h *ChatHub) Join(client *ChatClient, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = map[*ChatClient]bool{}
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
	h.mu.Unlock()
}

func (h *ChatHub) Leave(client *ChatClient, room string) {
	h.mu.Lock()
	delete(client.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

// Rooms lists the rooms a client currently participates in.
func (h *ChatHub) Rooms(client *ChatClient) []string {
	h.mu.RLock()
	rooms := make([]string, 0, len(client.rooms))
	for room := range client.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()
	return rooms
}

// Broadcast sends an event to every member of a room except the sender.
// Delivery is best effort; slow receivers lose frames rather than blocking
// the hub.
func (h *ChatHub) Broadcast(room string, except *ChatClient, event string, data interface{}) {
	payload := marshalEvent(event, data)
	h.mu.RLock()
	for client := range h.rooms[room] {
		if client == except {
			continue
		}
		client.enqueue(payload)
	}
	h.mu.RUnlock()
}

// Send delivers an event to a single client.
func (h *ChatHub) Send(client *ChatClient, event string, data interface{}) {
	client.enqueue(marshalEvent(event, data))
}

func marshalEvent(event string, data interface{}) []byte {
	raw, _ := json.Marshal(data)
	payload, _ := json.Marshal(ChatEvent{Event: event, Data: raw})
	return payload
}
