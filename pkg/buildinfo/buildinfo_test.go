package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("unexpected version: %s", info.Version)
	}
	if info.Commit != Commit {
		t.Errorf("unexpected commit: %s", info.Commit)
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("unexpected go version: %s", info.GoVersion)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.Contains(s, Version) {
		t.Errorf("String() should contain the version: %s", s)
	}
	if !strings.Contains(s, Commit) {
		t.Errorf("String() should contain the commit: %s", s)
	}
}
