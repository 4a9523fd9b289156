package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldR := Version, Revision
	t.Cleanup(func() { Version, Revision = oldV, oldR })

	Version, Revision = "1.2.0", ""
	if got := String(); got != "1.2.0" {
		t.Errorf("String() = %q", got)
	}
	Revision = "abc123"
	if got := String(); got != "1.2.0 (abc123)" {
		t.Errorf("String() = %q", got)
	}
}
