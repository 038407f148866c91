package version

import "testing"

func TestVersionString(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "1.2.3"
	if s := String(); s != "tailormark 1.2.3" {
		t.Fatalf("String() = %q", s)
	}
	Version = ""
	if s := String(); s != "dev" {
		t.Fatalf("empty version should print dev, got %q", s)
	}
}
