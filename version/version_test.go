package version

import (
	"runtime/debug"
	"testing"
)

func stubBuild(t *testing.T, version, commit string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origRead := Version, Commit, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, readBuildInfo = origVersion, origCommit, origRead
	})
	Version, Commit = version, commit
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGet_Defaults(t *testing.T) {
	stubBuild(t, "dev", "", nil)

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease() {
		t.Error("dev should not be a release")
	}
	if got := info.String(); got != "dev" {
		t.Errorf("expected 'dev', got %q", got)
	}
}

func TestGet_LinkerCommitWins(t *testing.T) {
	stubBuild(t, "1.0.0", "abc1234def", &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "ffffffffff"},
		},
	})

	info := Get()
	if info.Commit != "abc1234" {
		t.Errorf("expected 'abc1234', got %q", info.Commit)
	}
	if info.GoVersion != "go1.26.0" {
		t.Errorf("expected 'go1.26.0', got %q", info.GoVersion)
	}
	if !info.IsRelease() {
		t.Error("1.0.0 should be a release")
	}
	if got := info.String(); got != "1.0.0 (abc1234)" {
		t.Errorf("unexpected string %q", got)
	}
}

func TestGet_VCSStamp(t *testing.T) {
	stubBuild(t, "1.0.0", "", &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := Get()
	if info.Commit != "0123456" {
		t.Errorf("expected '0123456', got %q", info.Commit)
	}
	if !info.Dirty || info.IsRelease() {
		t.Error("modified tree should be dirty and not a release")
	}
	if got := info.String(); got != "1.0.0 (0123456, dirty)" {
		t.Errorf("unexpected string %q", got)
	}
	if info.Fields()["dirty"] != true {
		t.Errorf("expected dirty field, got %v", info.Fields())
	}
}
