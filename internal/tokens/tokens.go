// Package tokens approximates token counts for backends that omit usage.
package tokens

import (
	"math"
	"unicode/utf8"

	"github.com/shillcollin/reportgate/core"
)

const charsPerToken = 4.0

// EstimateText approximates tokens for text at four characters per token.
func EstimateText(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / charsPerToken))
}

// EstimateRequest approximates the input tokens of req as sent by a
// single-prompt backend.
func EstimateRequest(req core.Request) int {
	return EstimateText(req.Prompt())
}

// FillUsage returns u with missing counts estimated from req and output.
// The boolean reports whether any count was estimated.
func FillUsage(u core.Usage, req core.Request, output string) (core.Usage, bool) {
	estimated := false
	if u.InputTokens == 0 {
		if n := EstimateRequest(req); n > 0 {
			u.InputTokens = n
			estimated = true
		}
	}
	if u.OutputTokens == 0 {
		if n := EstimateText(output); n > 0 {
			u.OutputTokens = n
			estimated = true
		}
	}
	if u.TotalTokens == 0 || estimated {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u, estimated
}
