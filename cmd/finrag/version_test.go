package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfo_LinkerValuesWin(t *testing.T) {
	defer func(v, c, b string) { Version, GitCommit, BuildTime = v, c, b }(Version, GitCommit, BuildTime)
	Version, GitCommit, BuildTime = "v1.4.0", "3f2c1ab", "2024-06-01T10:00:00Z"

	version, commit, built := buildInfo()
	assert.Equal(t, "v1.4.0", version)
	assert.Equal(t, "3f2c1ab", commit)
	assert.Equal(t, "2024-06-01T10:00:00Z", built)
}

func TestVersionCmd_Output(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "finrag "))
	assert.Contains(t, lines[3], runtime.Version())
	for _, line := range lines {
		assert.False(t, strings.HasSuffix(strings.TrimSpace(line), ":"), "empty field in %q", line)
	}
}
