// Package buildinfo carries version information stamped at link time:
//
//	go build -ldflags "-X github.com/matzehuels/sawtooth/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/sawtooth/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/sawtooth/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version, "dev" for local builds.
	Version = "dev"
	// Commit is the git commit SHA.
	Commit = "none"
	// Date is the UTC build timestamp.
	Date = "unknown"
)

// Info is the JSON form served by the HTTP API.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the stamped values.
func Get() Info { return Info{Version: Version, Commit: Commit, Date: Date} }

// String returns the build information on three lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
