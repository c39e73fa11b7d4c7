// Package version reports build information for dtinfer.
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	Version   string // Set via ldflags.
	Branch    string
	BuildUser string
	BuildDate string

	Revision  = getRevision()
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// Info is the build information of the running binary.
type Info struct {
	Version   string `json:"version"             yaml:"version"`
	Revision  string `json:"revision"            yaml:"revision"`
	Branch    string `json:"branch,omitempty"    yaml:"branch,omitempty"`
	BuildUser string `json:"buildUser,omitempty" yaml:"buildUser,omitempty"`
	BuildDate string `json:"buildDate,omitempty" yaml:"buildDate,omitempty"`
	GoVersion string `json:"goVersion"           yaml:"goVersion"`
	Platform  string `json:"platform"            yaml:"platform"`
}

// GetInfo returns the build information.
func GetInfo() Info {
	return Info{
		Version:   GetVersion(),
		Revision:  Revision,
		Branch:    Branch,
		BuildUser: BuildUser,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
		Platform:  GoOS + "/" + GoArch,
	}
}

// GetVersion returns the release version, or the VCS revision for
// development builds.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

func getRevision() string {
	rev := "unknown"

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}

		case "vcs.modified":
			modified = v.Value == "true"
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
