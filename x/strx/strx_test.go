package strx

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "atx040"); got != "atx040" {
		t.Fatalf("Coalesce empty = %q", got)
	}
	if got := Coalesce("1:2", "1:1"); got != "1:2" {
		t.Fatalf("Coalesce set = %q", got)
	}
}
