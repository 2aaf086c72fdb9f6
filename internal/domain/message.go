package domain

import (
	"encoding/json"
	"time"
)

// Message types carried over the WebSocket transport.
const (
	MsgChat     = "chat"
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgSystem   = "system"
	MsgPresence = "presence"
	MsgError    = "error"
)

// Message is a chat frame exchanged with clients.
type Message struct {
	Type      string    `json:"type"`
	Room      string    `json:"room,omitempty"`
	User      string    `json:"user,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Sender returns the composite "room/user" identity the quote plugin expects.
func (m Message) Sender() string {
	return m.Room + "/" + m.User
}

// PresenceMessage lists current users in a room.
type PresenceMessage struct {
	Type  string   `json:"type"`
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// ErrorMessage reports an error to a single client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeMessage deserializes JSON bytes into a Message.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
