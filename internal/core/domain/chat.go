package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStreamClosed marks a delta-write failure caused by the client side of
// the response stream going away. Delta callbacks wrap write errors with it
// so the generation layer can classify the disconnect as an abort rather
// than an upstream failure.
var ErrStreamClosed = errors.New("client stream closed")

// Message roles as sent by the chat client.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of the conversation history submitted by the client.
// Messages are read-only on the server side.
type Message struct {
	ID    string        `json:"id"`
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// MessagePart is a typed content fragment. Only "text" parts are consumed;
// other part types the client may send are ignored.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PromptMessage is the flattened representation handed to the generation
// service: one role plus the concatenated text of the message's text parts.
type PromptMessage struct {
	Role    string
	Content string
}

// Text concatenates the text parts of the message.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == "text" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// ToPromptMessages converts the conversation history into prompt messages.
// Messages with an unknown role fail the conversion; messages whose text
// parts are all empty are skipped. An empty resulting prompt is an error.
func ToPromptMessages(messages []Message) ([]PromptMessage, error) {
	prompt := make([]PromptMessage, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return nil, fmt.Errorf("message %q: unknown role %q", m.ID, m.Role)
		}
		text := m.Text()
		if text == "" {
			continue
		}
		prompt = append(prompt, PromptMessage{Role: m.Role, Content: text})
	}
	if len(prompt) == 0 {
		return nil, fmt.Errorf("conversation contains no text content")
	}
	return prompt, nil
}

// FinishInfo is passed to the chat finish callback once the stream ends.
type FinishInfo struct {
	Aborted bool // the client disconnected or the deadline elapsed mid-stream
}
