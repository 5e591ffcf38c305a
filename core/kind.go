package core

import (
	"fmt"
	"strings"
)

// Kind identifies one backend family.
type Kind string

const (
	KindOpenAI     Kind = "openai"
	KindPerplexity Kind = "perplexity"
	KindGemini     Kind = "gemini"
	KindGroq       Kind = "groq"
	KindAnthropic  Kind = "anthropic"
)

// Kinds lists every supported backend family in a stable order.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindPerplexity, KindGemini, KindGroq, KindAnthropic}
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", NewError(ErrConfiguration, fmt.Sprintf("unknown provider %q", s))
}

// Variant reports the wire layout used by the backend family.
func (k Kind) Variant() Variant {
	if k == KindGemini {
		return VariantSinglePrompt
	}
	return VariantMessageList
}

func (k Kind) String() string { return string(k) }
