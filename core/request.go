package core

import "strings"

// Role identifies the author of a turn.
type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

// Turn is a single conversation entry sent after the system instructions.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserTurn builds a user turn.
func UserTurn(text string) Turn { return Turn{Role: User, Text: text} }

// AssistantTurn builds an assistant turn.
func AssistantTurn(text string) Turn { return Turn{Role: Assistant, Text: text} }

// Request represents a single completion call.
type Request struct {
	System string `json:"system,omitempty"`
	Turns  []Turn `json:"turns"`
	// MaxTokens overrides the configured output bound when positive.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Prompt renders the request as one blob for single-prompt backends: the
// system text followed by every turn, separated by blank lines.
func (r Request) Prompt() string {
	parts := make([]string, 0, len(r.Turns)+1)
	if s := strings.TrimSpace(r.System); s != "" {
		parts = append(parts, s)
	}
	for _, t := range r.Turns {
		if s := strings.TrimSpace(t.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Completion is the normalized result of one backend call.
type Completion struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	Provider     Kind   `json:"provider"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Usage captures token accounting.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChooseMaxTokens returns the request override when set, else the configured bound.
func ChooseMaxTokens(requested, configured int) int {
	if requested > 0 {
		return requested
	}
	return configured
}
