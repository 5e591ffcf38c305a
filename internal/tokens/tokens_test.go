package tokens

import (
	"testing"

	"github.com/shillcollin/reportgate/core"
)

func TestEstimateText(t *testing.T) {
	cases := map[string]int{
		"":          0,
		"abcd":      1,
		"abcde":     2,
		"ééééééééé": 3,
	}
	for in, want := range cases {
		if got := EstimateText(in); got != want {
			t.Fatalf("EstimateText(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFillUsage(t *testing.T) {
	req := core.Request{System: "abcd", Turns: []core.Turn{core.UserTurn("efgh")}}

	reported := core.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	if got, est := FillUsage(reported, req, "ignored"); est || got != reported {
		t.Fatalf("reported usage must be kept: %+v, %v", got, est)
	}

	got, est := FillUsage(core.Usage{}, req, "12345678")
	// "abcd\n\nefgh" is 10 runes.
	if !est || got.InputTokens != 3 || got.OutputTokens != 2 || got.TotalTokens != 5 {
		t.Fatalf("unexpected estimate %+v, %v", got, est)
	}

	got, est = FillUsage(core.Usage{InputTokens: 7}, req, "1234")
	if !est || got.InputTokens != 7 || got.OutputTokens != 1 || got.TotalTokens != 8 {
		t.Fatalf("partial usage should only fill gaps: %+v, %v", got, est)
	}
}
