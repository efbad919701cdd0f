package chat

import "context"

// Message is one turn of the conversation as sent by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Retriever turns the user query into the context string for the system
// prompt. It never fails; internal failures yield placeholder text.
type Retriever interface {
	SearchAndFormat(ctx context.Context, query string, limit int) string
}
