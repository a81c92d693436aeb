package models

import "testing"

func TestScrapeLog_String(t *testing.T) {
	runID := int64(7)
	l := ScrapeLog{RunID: &runID, Level: LogLevelWarn, Message: `Skipped card "Las Palmas"`, SiteID: "propi_en_planos"}

	want := `[warn] propi_en_planos: Skipped card "Las Palmas"`
	if got := l.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
