package obs

import (
	"context"
	"log/slog"
)

// logSink mirrors completion records into the structured log. Prompt and
// output text are summarized by length only.
type logSink struct {
	logger *slog.Logger
}

func newLogSink(logger *slog.Logger) *logSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{logger: logger}
}

func (s *logSink) LogCompletion(ctx context.Context, c Completion) error {
	level := slog.LevelInfo
	if c.Error != "" || c.Degraded {
		level = slog.LevelWarn
	}
	inputChars := 0
	for _, m := range c.Input {
		inputChars += len(m.Text)
	}
	s.logger.LogAttrs(ctx, level, "completion",
		slog.String("operation", c.Operation),
		slog.String("request_id", c.RequestID),
		slog.String("provider", c.Provider),
		slog.String("model", c.Model),
		slog.Int("attempts", c.Attempts),
		slog.Bool("degraded", c.Degraded),
		slog.Int64("latency_ms", c.LatencyMS),
		slog.Int("input_chars", inputChars),
		slog.Int("output_chars", len(c.Output.Text)),
		slog.Int("total_tokens", c.Usage.TotalTokens),
		slog.String("error", c.Error),
	)
	return nil
}

func (s *logSink) Shutdown(context.Context) error { return nil }
