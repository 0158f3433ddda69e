// Package version exposes build metadata for the vireo engine.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const unknown = "unknown"

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	BuildDate = unknown
	GitCommit = unknown
	GoVersion = runtime.Version()
)

// BuildInfo carries the resolved build metadata.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Module    string `json:"module"`
}

// Info resolves build metadata, preferring ldflags values and falling back
// to what the Go runtime embedded.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Module = bi.Main.Path
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		if info.GitCommit == unknown {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					info.GitCommit = s.Value
				}
			}
		}
	}
	return info
}

// String renders the full build description.
func (b BuildInfo) String() string {
	parts := []string{fmt.Sprintf("vireo %s", b.Version)}
	if b.GitCommit != unknown {
		parts = append(parts, fmt.Sprintf("commit %s", shortCommit(b.GitCommit)))
	}
	if b.BuildDate != unknown {
		parts = append(parts, fmt.Sprintf("built %s", b.BuildDate))
	}
	parts = append(parts, b.GoVersion)
	return strings.Join(parts, ", ")
}

// Short returns just the version number.
func Short() string {
	return Info().Version
}

func shortCommit(commit string) string {
	commit = strings.TrimSuffix(commit, "-dirty")
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
