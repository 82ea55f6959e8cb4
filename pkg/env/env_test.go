package env

import "testing"

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("HATCHERY_LOG_FORMAT", "console")
	t.Setenv("LOG_FORMAT", "json")
	if got := First("text", "HATCHERY_LOG_FORMAT", "LOG_FORMAT"); got != "console" {
		t.Fatalf("First = %q, want console", got)
	}
}

func TestFirstFallsBack(t *testing.T) {
	t.Setenv("HATCHERY_LOG_FORMAT", "")
	if got := First("json", "HATCHERY_LOG_FORMAT", "HATCHERY_UNSET_FOR_TEST"); got != "json" {
		t.Fatalf("First = %q, want json", got)
	}
}
