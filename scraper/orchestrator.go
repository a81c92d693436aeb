package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"planos_scrooper/browser"
	"planos_scrooper/config"
	"planos_scrooper/models"
	"planos_scrooper/storage"
)

// SessionFactory starts a fresh browser for one site run.
type SessionFactory func() (browser.Session, error)

// Exporter copies a finished run's output files somewhere durable.
type Exporter interface {
	ExportFiles(ctx context.Context, siteID string, day time.Time, files []string) ([]string, error)
}

type Orchestrator struct {
	cfg        *config.Config
	store      *storage.SQLiteStore
	newSession SessionFactory
	now        func() time.Time

	pgStore  *storage.PostgresStore
	exporter Exporter
}

func NewOrchestrator(cfg *config.Config, store *storage.SQLiteStore, newSession SessionFactory) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		newSession: newSession,
		now:        time.Now,
	}
}

// SetPostgres adds the Postgres store as an extra sink and run mirror.
func (o *Orchestrator) SetPostgres(pg *storage.PostgresStore) {
	o.pgStore = pg
}

func (o *Orchestrator) SetExporter(e Exporter) {
	o.exporter = e
}

// RunAll runs every configured site in id order. A failing site does not
// stop the others; all failures are returned together.
func (o *Orchestrator) RunAll(ctx context.Context) error {
	var errs []error
	for _, siteID := range o.SiteIDs() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := o.RunSite(ctx, siteID); err != nil {
			log.Printf("Error running site %s: %v", siteID, err)
			errs = append(errs, fmt.Errorf("%s: %w", siteID, err))
		}
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) RunSite(ctx context.Context, siteID string) error {
	siteCfg, ok := o.cfg.Sites[siteID]
	if !ok {
		return fmt.Errorf("unknown site: %s", siteID)
	}

	run := &models.ScrapeRun{
		SiteID:     siteID,
		ListingURL: siteCfg.ListingURL,
		StartedAt:  o.now(),
		Status:     models.RunStatusRunning,
	}
	runID, err := o.store.CreateRun(run)
	if err != nil {
		return err
	}
	run.ID = runID

	var pgRunID int64
	if o.pgStore != nil {
		if pgRunID, err = o.pgStore.CreateRun(ctx, run); err != nil {
			log.Printf("Warning: failed to create Postgres run: %v", err)
		}
	}

	defer func() {
		now := o.now()
		run.FinishedAt = &now
		if err := o.store.UpdateRun(run); err != nil {
			log.Printf("Warning: failed to update run %d: %v", run.ID, err)
		}
		if pgRunID != 0 {
			if err := o.pgStore.UpdateRun(ctx, pgRunID, run); err != nil {
				log.Printf("Warning: failed to update Postgres run: %v", err)
			}
		}
	}()

	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s: %s", siteCfg.Name, siteCfg.ListingURL), siteID)

	csvStore, err := storage.NewCSVStore(siteCfg.OutputPath)
	if err != nil {
		return o.fail(run, err)
	}
	log.Printf("Saving csv to path: %s", siteCfg.OutputPath)

	session, err := o.newSession()
	if err != nil {
		return o.fail(run, fmt.Errorf("start browser: %w", err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Warning: failed to close browser: %v", err)
		}
	}()

	result, err := NewNavigator(session, WaitsFromConfig(o.cfg.Waits)).ParseListing(ctx, siteCfg.ListingURL)
	if result == nil {
		return o.fail(run, err)
	}

	props := result.Properties()
	run.CardsFound = len(result.Cards)
	run.PropertiesParsed = len(props)
	run.CardsFailed = len(result.Failed())
	for _, c := range result.Failed() {
		o.log(run.ID, models.LogLevelWarn, fmt.Sprintf("Skipped card %q at %s stage: %v", c.Title, c.Stage, c.Err), siteID)
	}

	sinks := o.sinks(csvStore)
	for i := range props {
		prop := &props[i]
		run.UnitsFound += len(prop.Units)
		if err := saveAll(ctx, sinks, prop); err != nil {
			run.SaveErrors++
			o.log(run.ID, models.LogLevelError, fmt.Sprintf("Unable to save %s: %v", prop.Title, err), siteID)
			continue
		}
		run.PropertiesSaved++
		log.Printf("Saved %q to DB", prop.Title)
	}

	if err != nil {
		return o.fail(run, err)
	}

	if o.exporter != nil {
		keys, err := o.exporter.ExportFiles(ctx, siteID, run.StartedAt, csvStore.Files())
		if err != nil {
			o.log(run.ID, models.LogLevelError, fmt.Sprintf("Export failed: %v", err), siteID)
		} else {
			o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Exported %d files", len(keys)), siteID)
		}
	}

	run.Status = models.RunStatusCompleted
	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d cards, %d parsed, %d failed, %d saved, %d units (success rate %.0f%%)",
			run.CardsFound, run.PropertiesParsed, run.CardsFailed, run.PropertiesSaved, run.UnitsFound,
			run.SuccessRate()*100), siteID)

	return nil
}

func (o *Orchestrator) fail(run *models.ScrapeRun, err error) error {
	run.Status = models.RunStatusFailed
	o.log(run.ID, models.LogLevelError, fmt.Sprintf("Run failed: %v", err), run.SiteID)
	return err
}

func (o *Orchestrator) sinks(csvStore *storage.CSVStore) []storage.Sink {
	sinks := []storage.Sink{csvStore, o.store}
	if o.pgStore != nil {
		sinks = append(sinks, o.pgStore)
	}
	return sinks
}

// saveAll writes prop to every sink, attempting all of them.
func saveAll(ctx context.Context, sinks []storage.Sink, prop *models.Property) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.SaveProperty(ctx, prop); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) log(runID int64, level models.LogLevel, message, siteID string) {
	entry := models.ScrapeLog{RunID: &runID, Level: level, Message: message, SiteID: siteID}
	log.Println(entry)
	if err := o.store.Log(entry.RunID, entry.Level, entry.Message, entry.SiteID); err != nil {
		log.Printf("Warning: failed to persist log line: %v", err)
	}
}

func (o *Orchestrator) SiteIDs() []string {
	ids := make([]string, 0, len(o.cfg.Sites))
	for id := range o.cfg.Sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func WaitsFromConfig(w config.WaitConfig) Waits {
	return Waits{
		Listing: w.Listing,
		Click:   w.Click,
		Window:  w.Window,
		Detail:  w.Detail,
		Units:   w.Units,
	}
}
