package core

import "context"

// Provider is the interface implemented by every backend adapter. An adapter
// executes exactly one completion per call; retry policy belongs to callers.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Capabilities() Capabilities
}

// Variant describes how an adapter lays out instructions and turns on the wire.
type Variant string

const (
	// VariantMessageList sends system and conversation turns as separate
	// role-tagged messages.
	VariantMessageList Variant = "message_list"
	// VariantSinglePrompt concatenates system text and turns into one blob.
	VariantSinglePrompt Variant = "single_prompt"
)

// Capabilities describes the resolved behaviour of a configured adapter.
type Capabilities struct {
	Provider            Kind
	Variant             Variant
	Model               string
	SupportsTemperature bool
	MaxOutputTokens     int
}
