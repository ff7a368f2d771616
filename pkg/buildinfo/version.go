// Package buildinfo reports which fragtree build is running.
//
// Release builds stamp the variables at link time:
//
//	go build -ldflags "-X github.com/matzehuels/fragtree/pkg/buildinfo.Version=v0.4.0 \
//	    -X github.com/matzehuels/fragtree/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/fragtree/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/fragtree
//
// Binaries built with plain go install leave them unset; [Get] then falls
// back to the module version and VCS stamp the toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Link-time stamps. The defaults mark an unstamped build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved identity of the running binary.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Get resolves the build identity.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fill(bi)
	}
	return info
}

// fill replaces unstamped fields from the toolchain's build info.
func (i *Info) fill(bi *debug.BuildInfo) {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && i.Commit == "none":
			i.Commit = s.Value
		case s.Key == "vcs.time" && i.Date == "unknown":
			i.Date = s.Value
		}
	}
	if len(i.Commit) > 12 {
		i.Commit = i.Commit[:12]
	}
}

// String returns a one-line description for logs.
func String() string {
	i := Get()
	return fmt.Sprintf("fragtree %s (commit %s, built %s, %s)", i.Version, i.Commit, i.Date, i.GoVersion)
}

// Template returns the cobra version template.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\ngo: %s\n", i.Version, i.Commit, i.Date, i.GoVersion)
}
