package domain

// Room represents an active chat room.
type Room struct {
	Name      string `json:"name"`
	UserCount int    `json:"user_count"`
}
