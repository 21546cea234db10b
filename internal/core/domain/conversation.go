package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Message is one turn of a session transcript. CreatedAt is assigned by the store.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewMessage struct {
	SessionID string
	Role      Role
	Text      string
}

// ChatRequest is a submitted user turn, optionally editing an earlier one.
type ChatRequest struct {
	SessionID string
	Text      string
	IsEdit    bool
	MessageID string
}

// ChatResult carries the new-message pair, or Success for edits. Intent and
// Sources describe how the reply was produced.
type ChatResult struct {
	UserMessage *Message
	AIMessage   *Message
	Success     bool

	Intent  Intent
	Sources int
}
