// Package buildinfo carries the flowcanvas version shown by
// "flowcanvas --version" and stamped into the CLI's version template.
//
// The values default to a development build and are overridden at link time:
//
//	go build -ldflags "-X github.com/matzehuels/flowcanvas/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/flowcanvas/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/flowcanvas/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/flowcanvas
package buildinfo

import "fmt"

// Build values, set with -X at link time.
var (
	Version = "dev"     // semantic version, e.g. "v1.2.3"
	Commit  = "none"    // git commit SHA
	Date    = "unknown" // UTC build timestamp
)

// String returns the build values one per line, for logs and bug reports.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template used by the root command.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
