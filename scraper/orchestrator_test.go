package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"planos_scrooper/browser"
	"planos_scrooper/browser/browsertest"
	"planos_scrooper/config"
	"planos_scrooper/models"
	"planos_scrooper/storage"
)

type recordingExporter struct {
	siteID string
	files  []string
}

func (r *recordingExporter) ExportFiles(_ context.Context, siteID string, _ time.Time, files []string) ([]string, error) {
	r.siteID = siteID
	r.files = files
	return files, nil
}

func newTestOrchestrator(t *testing.T, factory SessionFactory) (*Orchestrator, *storage.SQLiteStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "scraper.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := filepath.Join(dir, "db", "planos")
	cfg := &config.Config{
		Waits: config.WaitConfig{Listing: time.Second, Click: time.Second, Window: time.Second, Detail: time.Second, Units: time.Second},
		Sites: map[string]*config.SiteConfig{
			"planos": {ID: "planos", Name: "Planos", ListingURL: testListingURL, OutputPath: base},
		},
	}
	return NewOrchestrator(cfg, store, factory), store, base
}

func TestOrchestrator_RunSite(t *testing.T) {
	var session *browsertest.Session
	factory := func() (browser.Session, error) {
		session = listingSession(t, []string{"Torre Norte", "Las Palmas", "Vista al Lago"}, map[string]*browsertest.Page{
			"Torre Norte":   detailPage("https://example.com/sv/proyecto/torre-norte-101", "Torre Norte"),
			"Vista al Lago": detailPage("https://example.com/sv/proyecto/vista-al-lago-104", "Vista al Lago"),
		})
		return session, nil
	}
	o, store, base := newTestOrchestrator(t, factory)
	exporter := &recordingExporter{}
	o.SetExporter(exporter)

	if err := o.RunSite(context.Background(), "planos"); err != nil {
		t.Fatalf("run site: %v", err)
	}
	if !session.Closed {
		t.Fatalf("expected browser closed after run")
	}

	run, err := store.GetRun(1)
	if err != nil || run == nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}
	if run.CardsFound != 3 || run.PropertiesParsed != 2 || run.CardsFailed != 1 || run.PropertiesSaved != 2 || run.UnitsFound != 2 {
		t.Fatalf("unexpected run counters %+v", run)
	}

	for _, pid := range []string{"torre-norte-101", "vista-al-lago-104"} {
		prop, err := store.GetProperty(pid)
		if err != nil || prop == nil {
			t.Fatalf("expected %s stored, got %v", pid, err)
		}
	}

	data, err := os.ReadFile(base + "_properties.csv")
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", lines)
	}

	if exporter.siteID != "planos" || len(exporter.files) != 2 {
		t.Fatalf("unexpected export %+v", exporter)
	}

	logs, err := store.GetLogs(run.ID)
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	last := logs[len(logs)-1]
	if !strings.Contains(last.Message, "success rate 67%") {
		t.Fatalf("expected success rate in final log, got %q", last.Message)
	}
}

func TestOrchestrator_SessionFailure(t *testing.T) {
	boom := errors.New("no chromium")
	o, store, _ := newTestOrchestrator(t, func() (browser.Session, error) { return nil, boom })

	err := o.RunAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected session error, got %v", err)
	}

	run, _ := store.GetRun(1)
	if run == nil || run.Status != models.RunStatusFailed || run.FinishedAt == nil {
		t.Fatalf("expected finished failed run, got %+v", run)
	}
}

func TestOrchestrator_UnknownSite(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, nil)
	if err := o.RunSite(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown site")
	}
}
