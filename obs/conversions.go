package obs

import (
	"time"

	"github.com/shillcollin/reportgate/core"
)

// UsageFromCore builds a UsageTokens struct from a core.Usage value.
func UsageFromCore(u core.Usage) UsageTokens {
	return UsageTokens{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

// MessagesFromRequest projects a completion request into observability
// messages: the system instructions first, then every turn in order.
func MessagesFromRequest(req core.Request) []Message {
	out := make([]Message, 0, len(req.Turns)+1)
	if req.System != "" {
		out = append(out, Message{Role: string(core.System), Text: req.System})
	}
	for _, turn := range req.Turns {
		out = append(out, Message{Role: string(turn.Role), Text: turn.Text})
	}
	return out
}

// AssistantMessage wraps returned text as an observability message.
func AssistantMessage(text string) Message {
	if text == "" {
		return Message{}
	}
	return Message{Role: string(core.Assistant), Text: text}
}

// NowMillis returns the current UTC time in Unix milliseconds.
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
