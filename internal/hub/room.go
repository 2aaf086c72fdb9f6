package hub

import (
	"sync"

	"github.com/devaloi/quoteboard/internal/domain"
)

// Client is the interface that hub/room expects from a WebSocket client.
type Client interface {
	Username() string
	Send(data []byte)
}

// Room manages a set of clients and broadcasts messages to them.
type Room struct {
	name      string
	clients   map[Client]bool
	mu        sync.RWMutex
	broadcast chan []byte
	tasks     chan func()
	quit      chan struct{}
	stopOnce  sync.Once
}

// NewRoom creates a new, empty room.
func NewRoom(name string) *Room {
	return &Room{
		name:      name,
		clients:   make(map[Client]bool),
		broadcast: make(chan []byte, 256),
		tasks:     make(chan func(), 256),
		quit:      make(chan struct{}),
	}
}

// Run starts the room's broadcast loop and its task worker. Should be called
// as a goroutine.
func (r *Room) Run() {
	go r.work()
	for {
		select {
		case msg := <-r.broadcast:
			r.mu.RLock()
			for c := range r.clients {
				c.Send(msg)
			}
			r.mu.RUnlock()
		case <-r.quit:
			return
		}
	}
}

// Enqueue queues fn on the room's single task worker. Tasks run one at a
// time in the order they were queued. fn is dropped once the room has
// stopped.
func (r *Room) Enqueue(fn func()) {
	select {
	case <-r.quit:
		return
	default:
	}
	select {
	case r.tasks <- fn:
	case <-r.quit:
	}
}

// work runs queued tasks in order. Tasks already queued when the room stops
// still run, so a command sent just before its author leaves is not lost.
func (r *Room) work() {
	for {
		select {
		case fn := <-r.tasks:
			fn()
		case <-r.quit:
			for {
				select {
				case fn := <-r.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Stop signals the room's broadcast loop to exit. It is safe to call twice.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Join adds a client to the room, announces it and sends it the presence list.
func (r *Room) Join(c Client) {
	r.mu.Lock()
	r.clients[c] = true
	r.mu.Unlock()

	joinMsg := domain.Message{Type: domain.MsgJoin, Room: r.name, User: c.Username()}
	if data, err := domain.Encode(joinMsg); err == nil {
		r.Broadcast(data)
	}

	r.sendPresence(c)
}

// Leave removes a client from the room and broadcasts a leave notification.
func (r *Room) Leave(c Client) {
	r.mu.Lock()
	delete(r.clients, c)
	r.mu.Unlock()

	leaveMsg := domain.Message{Type: domain.MsgLeave, Room: r.name, User: c.Username()}
	if data, err := domain.Encode(leaveMsg); err == nil {
		r.Broadcast(data)
	}
}

// Broadcast queues raw JSON for every client in the room. It drops the
// message once the room has stopped.
func (r *Room) Broadcast(data []byte) {
	select {
	case r.broadcast <- data:
	case <-r.quit:
	}
}

// ClientCount returns the number of connected clients.
func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Name returns the room name.
func (r *Room) Name() string {
	return r.name
}

// Users returns a list of usernames in the room.
func (r *Room) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.clients))
	for c := range r.clients {
		users = append(users, c.Username())
	}
	return users
}

func (r *Room) sendPresence(c Client) {
	pm := domain.PresenceMessage{
		Type:  domain.MsgPresence,
		Room:  r.name,
		Users: r.Users(),
	}
	if data, err := domain.Encode(pm); err == nil {
		c.Send(data)
	}
}
