// Package version holds the build identity stamped into battle records and
// API responses. It has no dependencies so every command can import it.
package version

import "fmt"

// Set at build time via
// -ldflags "-X github.com/MJE43/rune-ration-replay-go/internal/version.EngineVersion=..."
var (
	EngineVersion = "dev"
	GitCommit     = "unknown"
	BuildTime     = "unknown"
)

// Info contains engine version information
type Info struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
	}
}

func (v Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", v.EngineVersion, v.GitCommit, v.BuildTime)
}
