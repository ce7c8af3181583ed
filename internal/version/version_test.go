package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Date
	t.Cleanup(func() { Date = old })

	Date = ""
	if s := String(); !strings.HasPrefix(s, Version) || strings.Contains(s, ", ") {
		t.Fatalf("String() = %q", s)
	}
	Date = "2026-10-19"
	if s := String(); !strings.HasSuffix(s, ", 2026-10-19)") {
		t.Fatalf("String() with date = %q", s)
	}
}
