package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String("3.2.1")
	if !strings.HasPrefix(got, "pingtriage "+Version) {
		t.Errorf("String() = %q, want prefix with version %q", got, Version)
	}
	if !strings.Contains(got, "schema 3.2.1") {
		t.Errorf("String() = %q, missing schema version", got)
	}
}

func TestBuildInfoInitialized(t *testing.T) {
	for name, v := range map[string]string{"Version": Version, "BuildTime": BuildTime, "GitCommit": GitCommit} {
		if v == "" {
			t.Errorf("%s should be initialized", name)
		}
	}
}
