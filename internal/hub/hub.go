package hub

import (
	"sync"
	"time"

	"github.com/devaloi/quoteboard/internal/domain"
	"github.com/devaloi/quoteboard/internal/logging"
)

// Plugin reacts to chat text. handled is false when the text is not meant
// for the plugin. sender is the composite "room/user" identity.
type Plugin interface {
	Handle(sender, text string) (reply string, handled bool, err error)
}

// RegisterRequest asks the hub to register a client.
type RegisterRequest struct {
	Client Client
	Room   string
}

// UnregisterRequest asks the hub to unregister a client from a room.
type UnregisterRequest struct {
	Client Client
	Room   string
}

// MessageRequest routes a message through the hub.
type MessageRequest struct {
	Message domain.Message
	Sender  Client
}

// Hub manages all rooms, routes chat between clients and hands every chat
// message to the plugin.
type Hub struct {
	rooms      map[string]*Room
	mu         sync.RWMutex
	register   chan RegisterRequest
	unregister chan UnregisterRequest
	message    chan MessageRequest
	plugin     Plugin
	botName    string
	maxRooms   int
	quit       chan struct{}
}

// New creates a new Hub. plugin may be nil.
func New(plugin Plugin, maxRooms int, botName string) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan RegisterRequest, 256),
		unregister: make(chan UnregisterRequest, 256),
		message:    make(chan MessageRequest, 256),
		plugin:     plugin,
		botName:    botName,
		maxRooms:   maxRooms,
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop. Should be called as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case req := <-h.register:
			h.handleRegister(req)
		case req := <-h.unregister:
			h.handleUnregister(req)
		case req := <-h.message:
			h.handleMessage(req)
		case <-h.quit:
			return
		}
	}
}

// Stop signals the hub's event loop to exit and stops all rooms.
func (h *Hub) Stop() {
	close(h.quit)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		r.Stop()
	}
}

// Register queues a client registration request.
func (h *Hub) Register(client Client, room string) {
	h.register <- RegisterRequest{Client: client, Room: room}
}

// Unregister queues a client unregistration request.
func (h *Hub) Unregister(client Client, room string) {
	h.unregister <- UnregisterRequest{Client: client, Room: room}
}

// RouteMessage queues a message for routing.
func (h *Hub) RouteMessage(msg domain.Message, sender Client) {
	h.message <- MessageRequest{Message: msg, Sender: sender}
}

// ListRooms returns info about all active rooms.
func (h *Hub) ListRooms() []domain.Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]domain.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, domain.Room{
			Name:      r.Name(),
			UserCount: r.ClientCount(),
		})
	}
	return rooms
}

// RoomInfo returns details about a specific room, or nil if not found.
func (h *Hub) RoomInfo(name string) *domain.Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[name]
	if !ok {
		return nil
	}
	return &domain.Room{
		Name:      r.Name(),
		UserCount: r.ClientCount(),
	}
}

func (h *Hub) handleRegister(req RegisterRequest) {
	h.mu.Lock()
	r, ok := h.rooms[req.Room]
	if !ok {
		if len(h.rooms) >= h.maxRooms {
			h.mu.Unlock()
			sendError(req.Client, "max rooms reached")
			return
		}
		r = NewRoom(req.Room)
		h.rooms[req.Room] = r
		go r.Run()
		logging.L().Info().Str("room", req.Room).Msg("room created")
	}
	h.mu.Unlock()
	r.Join(req.Client)
}

func (h *Hub) handleUnregister(req UnregisterRequest) {
	h.mu.Lock()
	r, ok := h.rooms[req.Room]
	if !ok {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	r.Leave(req.Client)

	if r.ClientCount() == 0 {
		h.mu.Lock()
		// Double-check after acquiring write lock.
		if r.ClientCount() == 0 {
			r.Stop()
			delete(h.rooms, req.Room)
			logging.L().Info().Str("room", req.Room).Msg("room deleted")
		}
		h.mu.Unlock()
	}
}

func (h *Hub) handleMessage(req MessageRequest) {
	h.mu.RLock()
	r, ok := h.rooms[req.Message.Room]
	h.mu.RUnlock()
	if !ok {
		sendError(req.Sender, "room not found")
		return
	}

	if data, err := domain.Encode(req.Message); err == nil {
		r.Broadcast(data)
	}

	if h.plugin == nil {
		return
	}
	// Plugin calls touch storage, so they run on the room's worker rather
	// than the event loop. The worker keeps one room's commands in order.
	r.Enqueue(func() { h.dispatch(r, req) })
}

// dispatch runs the plugin for one chat message and broadcasts its reply as
// a system message from the bot. Failures go to the sender only.
func (h *Hub) dispatch(r *Room, req MessageRequest) {
	msg := req.Message
	reply, handled, err := h.plugin.Handle(msg.Sender(), msg.Text)
	if !handled {
		return
	}
	if err != nil {
		logging.L().Error().Err(err).Str("room", msg.Room).Str("user", msg.User).Msg("plugin failed")
		sendError(req.Sender, "command failed")
		return
	}

	out := domain.Message{
		Type:      domain.MsgSystem,
		Room:      msg.Room,
		User:      h.botName,
		Text:      reply,
		Timestamp: time.Now().UTC(),
	}
	if data, err := domain.Encode(out); err == nil {
		r.Broadcast(data)
	}
}

func sendError(c Client, message string) {
	if data, err := domain.Encode(domain.ErrorMessage{Type: domain.MsgError, Message: message}); err == nil {
		c.Send(data)
	}
}
