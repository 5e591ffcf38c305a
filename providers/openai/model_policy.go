package openai

import "strings"

// ModelProfile describes which request parameters a model family accepts.
type ModelProfile struct {
	UseMaxCompletionTokens bool
	AllowTemperature       bool
}

// DefaultProfile applies to classic chat models.
func DefaultProfile() ModelProfile {
	return ModelProfile{AllowTemperature: true}
}

var (
	gpt5Profile = ModelProfile{
		UseMaxCompletionTokens: true,
		AllowTemperature:       false,
	}

	gpt41Profile = ModelProfile{
		UseMaxCompletionTokens: true,
		AllowTemperature:       true,
	}

	oSeriesProfile = ModelProfile{
		UseMaxCompletionTokens: true,
		AllowTemperature:       false,
	}
)

// ProfileForModel returns the capability profile for an OpenAI model id.
func ProfileForModel(model string) ModelProfile {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "gpt-5"):
		return gpt5Profile
	case strings.HasPrefix(m, "gpt-4.1"):
		return gpt41Profile
	case strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return oSeriesProfile
	default:
		return DefaultProfile()
	}
}
