package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyManifest(t *testing.T) {
	defer func(v, b, c string) { Version, Build, GitCommit = v, b, c }(Version, Build, GitCommit)

	Version, Build, GitCommit = "dev", "unknown", "abc1234"
	applyManifest([]byte("version: 1.4.0\nbuild: 2026-01-05T10:00:00Z\ncommit: fff0000\n"))

	assert.Equal(t, "1.4.0", GetVersion())
	assert.Equal(t, "2026-01-05T10:00:00Z", GetBuild())
	assert.Equal(t, "abc1234", GetGitCommit(), "ldflags value wins")
}

func TestApplyManifest_Invalid(t *testing.T) {
	defer func(v string) { Version = v }(Version)

	Version = "dev"
	applyManifest([]byte("version: [unterminated"))
	assert.Equal(t, "dev", GetVersion())
}
