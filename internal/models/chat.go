package models

// MessageRole identifies who authored a chat turn
type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleModel MessageRole = "model"
)

// Valid reports whether r is one of the known roles
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// ChatMessage is one turn of the tutor conversation
type ChatMessage struct {
	ID          string      `json:"id"`
	Role        MessageRole `json:"role"`
	Text        string      `json:"text"`
	Translation string      `json:"translation,omitempty"`
}
