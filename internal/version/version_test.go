package version_test

import (
	"strings"
	"testing"

	"github.com/omarluq/cfgmux/internal/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	got := version.String()
	if !strings.Contains(got, version.Version) {
		t.Errorf("String() = %q, want it to contain %q", got, version.Version)
	}
	if !strings.Contains(got, "commit:") {
		t.Errorf("String() = %q, want it to contain commit info", got)
	}
}
