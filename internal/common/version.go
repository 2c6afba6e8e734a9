package common

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"gopkg.in/yaml.v3"
)

// Build metadata, set with -ldflags "-X github.com/bobmcallan/alin/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

func GetVersion() string   { return Version }
func GetBuild() string     { return Build }
func GetGitCommit() string { return GitCommit }

// buildManifest is the optional .version file shipped next to the binary
type buildManifest struct {
	Version string `yaml:"version"`
	Build   string `yaml:"build"`
	Commit  string `yaml:"commit"`
}

// LoadVersionFromFile fills metadata still at its default, first from a
// .version YAML file beside the executable, then from the VCS stamp the Go
// toolchain embeds. Values set by ldflags are never replaced.
func LoadVersionFromFile() {
	if exe, err := os.Executable(); err == nil {
		if data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), ".version")); err == nil {
			applyManifest(data)
		}
	}

	if GitCommit != "unknown" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			GitCommit = s.Value
			if len(GitCommit) > 7 {
				GitCommit = GitCommit[:7]
			}
		}
	}
}

func applyManifest(data []byte) {
	var m buildManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return
	}
	if Version == "dev" && strings.TrimSpace(m.Version) != "" {
		Version = strings.TrimSpace(m.Version)
	}
	if Build == "unknown" && strings.TrimSpace(m.Build) != "" {
		Build = strings.TrimSpace(m.Build)
	}
	if GitCommit == "unknown" && strings.TrimSpace(m.Commit) != "" {
		GitCommit = strings.TrimSpace(m.Commit)
	}
}
