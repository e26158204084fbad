// Package version reports the build identity of the agentlens binary,
// resolved from the VCS metadata the Go toolchain embeds.
package version

import (
	"runtime/debug"
	"sync"
)

// AppName appears in version strings, user agents, and log fields.
const AppName = "agentlens"

// Revision returns the short VCS revision of this build, with a
// "-dirty" suffix for builds from a modified tree. Builds without
// embedded VCS metadata (go test, builds outside a checkout) report
// "dev".
var Revision = sync.OnceValue(func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	rev, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "dev"
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
})

// Full returns "agentlens/<revision>".
func Full() string {
	return AppName + "/" + Revision()
}
