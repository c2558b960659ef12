// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import (
	"runtime"
	"runtime/debug"
)

// Set at release build time with -ldflags -X.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// Build describes the running parley binary.
type Build struct {
	Version   string
	Sha       string
	Time      string
	GoVersion string
}

// CurrentBuild returns the linker-set build values. Values left at their
// defaults are filled from the module and VCS info Go embeds, so a plain
// "go install" still reports a commit.
func CurrentBuild() Build {
	info, _ := debug.ReadBuildInfo()
	return buildFrom(info)
}

func buildFrom(info *debug.BuildInfo) Build {
	b := Build{
		Version:   Version,
		Sha:       Sha,
		Time:      Buildtime,
		GoVersion: runtime.Version(),
	}
	if info == nil {
		return b
	}

	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Sha == "HEAD":
			b.Sha = s.Value
		case s.Key == "vcs.time" && b.Time == "dev":
			b.Time = s.Value
		}
	}
	return b
}
