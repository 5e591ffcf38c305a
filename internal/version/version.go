// Package version carries build metadata injected with -ldflags:
//
//	-X github.com/shillcollin/reportgate/internal/version.gitVersion=v1.2.0
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/gosuri/uitable"
)

var (
	gitVersion   = "v0.0.0-dev"
	gitCommit    = "unknown"
	gitTreeState = ""
	buildDate    = "1970-01-01T00:00:00Z"
)

// Info describes the running binary.
type Info struct {
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit"`
	GitTreeState string `json:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate"`
	GoVersion    string `json:"goVersion"`
	Platform     string `json:"platform"`
}

// String returns the version, suffixed with -dirty for unclean trees.
func (i Info) String() string {
	if i.GitTreeState == "dirty" {
		return i.GitVersion + "-dirty"
	}
	return i.GitVersion
}

// JSON returns the indented JSON form.
func (i Info) JSON() (string, error) {
	b, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal version info: %w", err)
	}
	return string(b), nil
}

// Text renders a right-aligned key/value table.
func (i Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	table.AddRow("gitVersion:", i.GitVersion)
	table.AddRow("gitCommit:", i.GitCommit)
	if i.GitTreeState != "" {
		table.AddRow("gitTreeState:", i.GitTreeState)
	}
	table.AddRow("buildDate:", i.BuildDate)
	table.AddRow("goVersion:", i.GoVersion)
	table.AddRow("platform:", i.Platform)
	return table.String()
}

// Get returns the build metadata of the current binary.
func Get() Info {
	return Info{
		GitVersion:   gitVersion,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
}
