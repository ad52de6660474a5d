package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/art0tod/battle-rap-v2-sub000/internal/app"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

// StandingsSource refreshes the read views and serves gated standings.
type StandingsSource interface {
	Refresh(ctx context.Context) error
	Standings(ctx context.Context, tournamentID string) ([]models.Standing, error)
}

// SheetWriter overwrites a range of a spreadsheet.
type SheetWriter interface {
	Update(ctx context.Context, sheetID, rng string, values [][]any) error
}

type sheetsWriter struct {
	svc *sheets.Service
}

func (w *sheetsWriter) Update(ctx context.Context, sheetID, rng string, values [][]any) error {
	_, err := w.svc.Spreadsheets.Values.Update(sheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

type target struct {
	cfg    app.ExportConfig
	writer SheetWriter
}

type GSheetExporter struct {
	source    StandingsSource
	scheduler gocron.Scheduler
	targets   []target
	now       func() time.Time
}

func NewGSheetExporter(configs []app.ExportConfig, source StandingsSource) (*GSheetExporter, error) {
	ctx := context.Background()

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	e := &GSheetExporter{source: source, scheduler: scheduler, now: time.Now}
	for _, cfg := range configs {
		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}

		t := target{cfg: cfg, writer: &sheetsWriter{svc: svc}}
		e.targets = append(e.targets, t)

		_, err = scheduler.NewJob(
			gocron.CronJob(cfg.Schedule, false),
			gocron.NewTask(func() {
				if err := e.Export(context.Background(), t); err != nil {
					logger.Error.Printf("Export of tournament %s failed: %v", t.cfg.TournamentID, err)
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export for tournament %s: %w", cfg.TournamentID, err)
		}
	}

	return e, nil
}

func (e *GSheetExporter) Start() {
	logger.Info.Printf("Starting %d standings export job(s)", len(e.targets))
	e.scheduler.Start()
}

func (e *GSheetExporter) Shutdown() error {
	return e.scheduler.Shutdown()
}

// Export refreshes the leaderboard and writes the tournament's standings.
// Refreshing is idempotent, so overlapping runs with finalization are safe.
func (e *GSheetExporter) Export(ctx context.Context, t target) error {
	if err := e.source.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh leaderboard: %w", err)
	}

	rows, err := e.source.Standings(ctx, t.cfg.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to read standings: %w", err)
	}

	values := standingsValues(rows)
	startCell := t.cfg.StartCell
	if startCell == "" {
		startCell = "A1"
	}
	if err := t.writer.Update(ctx, t.cfg.SheetID, fmt.Sprintf("%s!%s", t.cfg.SheetName, startCell), values); err != nil {
		return fmt.Errorf("failed to write standings: %w", err)
	}

	if t.cfg.TimestampCell != "" {
		stamp := fmt.Sprintf("UPD: %s", e.now().UTC().Format("2 January 15:04"))
		rng := fmt.Sprintf("%s!%s", t.cfg.SheetName, t.cfg.TimestampCell)
		if err := t.writer.Update(ctx, t.cfg.SheetID, rng, [][]any{{stamp}}); err != nil {
			return fmt.Errorf("failed to write timestamp: %w", err)
		}
	}

	logger.Info.Printf("Exported %d standings rows for tournament %s", len(rows), t.cfg.TournamentID)
	return nil
}

func standingsValues(rows []models.Standing) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"rank", "participant", "wins"})
	for _, r := range rows {
		values = append(values, []any{r.Rank, r.ParticipantID, r.Wins})
	}
	return values
}
