package orchestrator

import (
	"log/slog"
	"time"

	"github.com/shillcollin/reportgate/prompts"
	"github.com/shillcollin/reportgate/retry"
)

const (
	DefaultReportAttempts = 3
	DefaultReportDelay    = 2 * time.Second
	DefaultCallTimeout    = 45 * time.Second
	DefaultContextLimit   = 15000
	DefaultChatMaxTokens  = 1000
)

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	prompts       *prompts.Registry
	reportPolicy  retry.Policy
	chatPolicy    retry.Policy
	callTimeout   time.Duration
	contextLimit  int
	chatMaxTokens int
	logger        *slog.Logger
	now           func() time.Time
}

func defaultOptions() options {
	return options{
		reportPolicy:  retry.Constant(DefaultReportAttempts, DefaultReportDelay),
		chatPolicy:    retry.Once,
		callTimeout:   DefaultCallTimeout,
		contextLimit:  DefaultContextLimit,
		chatMaxTokens: DefaultChatMaxTokens,
		logger:        slog.Default(),
		now:           time.Now,
	}
}

// WithPrompts replaces the embedded prompt registry.
func WithPrompts(r *prompts.Registry) Option {
	return func(o *options) { o.prompts = r }
}

// WithReportPolicy sets the retry policy for report and extended analysis.
func WithReportPolicy(p retry.Policy) Option {
	return func(o *options) { o.reportPolicy = p }
}

// WithChatPolicy sets the retry policy for chat. Chat is single-shot by default.
func WithChatPolicy(p retry.Policy) Option {
	return func(o *options) { o.chatPolicy = p }
}

// WithCallTimeout bounds every individual backend call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithContextLimit sets how many characters of report context chat keeps.
func WithContextLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.contextLimit = n
		}
	}
}

// WithChatMaxTokens bounds chat replies.
func WithChatMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chatMaxTokens = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides time.Now for latency accounting.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
