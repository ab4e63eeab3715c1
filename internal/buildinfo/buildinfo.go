// Package buildinfo exposes version data injected at link time via -ldflags.
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func valueOrDefault(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// PrintBuildData writes the build version, date and commit to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", valueOrDefault(buildVersion))
	fmt.Fprintf(w, "Build date: %s\n", valueOrDefault(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", valueOrDefault(buildCommit))
}
