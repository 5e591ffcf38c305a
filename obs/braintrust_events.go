package obs

import (
	"time"

	"github.com/braintrustdata/braintrust-go/packages/param"
	"github.com/braintrustdata/braintrust-go/shared"
)

// projectLogEvent maps one gateway operation onto a project log row. The
// input keeps the operation next to the prompt turns so rows can be filtered
// by report, chat or extended analysis.
func projectLogEvent(c Completion) shared.InsertProjectLogsEventParam {
	ev := shared.InsertProjectLogsEventParam{
		Input:  eventInput(c),
		Output: c.Output.Text,
	}
	if c.RequestID != "" {
		ev.ID = param.NewOpt(c.RequestID)
	}
	if c.CreatedAtUTC != 0 {
		ev.Created = param.NewOpt(time.UnixMilli(c.CreatedAtUTC).UTC())
	}
	if c.Error != "" {
		ev.Error = c.Error
	}

	extra := mergeMetadata(c.Metadata, map[string]any{
		"provider":   c.Provider,
		"operation":  c.Operation,
		"request_id": c.RequestID,
		"attempts":   c.Attempts,
		"degraded":   c.Degraded,
	})
	ev.Metadata = shared.InsertProjectLogsEventMetadataParam{ExtraFields: extra}
	if c.Model != "" {
		ev.Metadata.Model = param.NewOpt(c.Model)
	}

	metrics := shared.InsertProjectLogsEventMetricsParam{
		ExtraFields: map[string]float64{"attempts": float64(c.Attempts)},
	}
	if c.Usage.InputTokens > 0 {
		metrics.PromptTokens = param.NewOpt(int64(c.Usage.InputTokens))
	}
	if c.Usage.OutputTokens > 0 {
		metrics.CompletionTokens = param.NewOpt(int64(c.Usage.OutputTokens))
	}
	if c.Usage.TotalTokens > 0 {
		metrics.Tokens = param.NewOpt(int64(c.Usage.TotalTokens))
	}
	if c.LatencyMS > 0 {
		metrics.ExtraFields["latency_ms"] = float64(c.LatencyMS)
	}
	ev.Metrics = metrics
	return ev
}

// datasetEvent records an accepted answer as the expected output for its
// prompt.
func datasetEvent(c Completion) shared.InsertDatasetEventParam {
	ev := shared.InsertDatasetEventParam{
		Input:    eventInput(c),
		Expected: c.Output.Text,
	}
	if c.RequestID != "" {
		ev.ID = param.NewOpt(c.RequestID)
	}
	if c.CreatedAtUTC != 0 {
		ev.Created = param.NewOpt(time.UnixMilli(c.CreatedAtUTC).UTC())
	}
	ev.Metadata = shared.InsertDatasetEventMetadataParam{
		ExtraFields: mergeMetadata(c.Metadata, map[string]any{"provider": c.Provider}),
	}
	if c.Model != "" {
		ev.Metadata.Model = param.NewOpt(c.Model)
	}
	return ev
}

func eventInput(c Completion) map[string]any {
	turns := make([]map[string]string, 0, len(c.Input))
	for _, m := range c.Input {
		turns = append(turns, map[string]string{"role": m.Role, "text": m.Text})
	}
	return map[string]any{"operation": c.Operation, "messages": turns}
}

// mergeMetadata copies caller metadata and overlays the fixed fields, skipping
// empty strings.
func mergeMetadata(caller, fixed map[string]any) map[string]any {
	out := make(map[string]any, len(caller)+len(fixed))
	for k, v := range caller {
		out[k] = v
	}
	for k, v := range fixed {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}
