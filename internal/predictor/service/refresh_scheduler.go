package service

import (
	"context"
	"fmt"
	"time"

	"stock-movement-predictor/internal/entity"
	"stock-movement-predictor/internal/predictor/config"
	"stock-movement-predictor/pkg/logger"
	"stock-movement-predictor/pkg/telegram"
	"stock-movement-predictor/pkg/utils"

	"github.com/robfig/cron/v3"
)

// RefreshScheduler re-ingests a trailing window of each configured symbol
// on a cron schedule, so the persisted full series keeps up with new
// trading days without manual ingestion runs.
type RefreshScheduler interface {
	Start(ctx context.Context)
}

type refreshScheduler struct {
	cfg       *config.Config
	ingestion IngestionService
	notifier  telegram.Notifier
	log       *logger.Logger
	schedule  cron.Schedule
}

// NewRefreshScheduler creates the scheduler. notifier must be non-nil;
// telegram.NoopNotifier disables alerts. It fails when the cron
// expression does not parse.
func NewRefreshScheduler(cfg *config.Config, ingestion IngestionService, notifier telegram.Notifier, log *logger.Logger) (RefreshScheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cfg.Scheduler.RefreshCron)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh cron %q: %w", cfg.Scheduler.RefreshCron, err)
	}
	return &refreshScheduler{
		cfg:       cfg,
		ingestion: ingestion,
		notifier:  notifier,
		log:       log,
		schedule:  schedule,
	}, nil
}

// Start runs the schedule loop until the context is canceled.
func (s *refreshScheduler) Start(ctx context.Context) {
	for {
		next := s.schedule.Next(time.Now())
		s.log.Info("Next scheduled refresh", logger.StringField("at", next.Format(time.RFC3339)))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Refresh scheduler stopping")
			return
		case <-timer.C:
			s.refreshAll(ctx)
		}
	}
}

func (s *refreshScheduler) refreshAll(ctx context.Context) {
	trailing := s.cfg.Scheduler.TrailingDays
	if trailing <= 0 {
		trailing = 30
	}
	end := entity.DateOf(utils.TimeNowUTC())
	start := end.AddDays(-trailing)

	for _, symbol := range s.cfg.Scheduler.Symbols {
		summary, err := s.ingestion.Ingest(ctx, symbol, start, end)
		if err != nil {
			s.log.Error("Scheduled refresh failed",
				logger.StringField("symbol", symbol),
				logger.ErrorField(err),
			)
			if nerr := s.notifier.SendMessage(telegram.FormatRefreshFailure(symbol, err)); nerr != nil {
				s.log.Warn("Failed to send refresh alert", logger.ErrorField(nerr))
			}
			continue
		}
		s.log.Info("Scheduled refresh completed",
			logger.StringField("symbol", symbol),
			logger.IntField("rows", summary.MergedRows),
		)
	}
}
