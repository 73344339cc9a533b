package locsync

import "runtime/debug"

// Version information, overridable at build time:
//
//	go build -ldflags "-X github.com/ZaguanLabs/locsync.Version=1.0.0"
const (
	Name        = "locsync"
	Description = "incremental AI translation of localization files"
	Repository  = "https://github.com/ZaguanLabs/locsync"
	License     = "MIT"
)

var (
	// Version is the semantic version of the tool.
	Version = "0.1.0"

	// GitCommit is the commit the binary was built from. When left unset it
	// is filled from the VCS stamp the go command embeds.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if GitCommit == "unknown" {
				GitCommit = s.Value
			}
		case "vcs.time":
			if BuildDate == "unknown" {
				BuildDate = s.Value
			}
		}
	}
}

// FullVersion returns the version with a short commit suffix when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns the user agent sent to translation providers.
func UserAgent() string {
	return Name + "/" + Version
}
