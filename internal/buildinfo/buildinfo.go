// Package buildinfo exposes version metadata injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/fencrypt/internal/buildinfo.buildVersion=v1.2.0"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

// Version returns the build version.
func Version() string {
	return buildVersion
}

// PrintBuildData writes version, date and commit to w, one per line.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", buildVersion)
	fmt.Fprintf(w, "Build date: %s\n", buildDate)
	fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
}
