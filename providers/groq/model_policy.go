package groq

import (
	"strings"

	"github.com/shillcollin/reportgate/providers/openai"
)

// profileForModel returns the capability profile for a Groq-hosted model.
// OpenAI open-weight models served by Groq take max_completion_tokens; every
// Groq model accepts a temperature.
func profileForModel(model string) openai.ModelProfile {
	profile := openai.DefaultProfile()
	if strings.HasPrefix(strings.ToLower(model), "openai/") {
		profile.UseMaxCompletionTokens = true
	}
	return profile
}
