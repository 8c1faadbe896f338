package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	origVersion, origDate, origCommit := buildVersion, buildDate, buildCommit
	t.Cleanup(func() { buildVersion, buildDate, buildCommit = origVersion, origDate, origCommit })

	buildVersion, buildDate, buildCommit = "v1.0.0", "2026-01-02", "abc123"

	var buf bytes.Buffer
	PrintBuildData(&buf)

	assert.Equal(t, "Build version: v1.0.0\nBuild date: 2026-01-02\nBuild commit: abc123\n", buf.String())
	assert.Equal(t, "v1.0.0", Version())
}

func TestDefaults(t *testing.T) {
	var buf bytes.Buffer
	PrintBuildData(&buf)
	assert.Contains(t, buf.String(), "Build version: N/A")
}
