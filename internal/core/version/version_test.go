package version

import "testing"

func TestInfoDefaults(t *testing.T) {
	got := Info("gitpulse-api")
	if got.Service != "gitpulse-api" || got.Version != "dev" || got.Commit != "none" || got.Date != "unknown" {
		t.Fatalf("got %+v", got)
	}
}
