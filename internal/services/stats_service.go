package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/chatterbox/internal/core"
	"github.com/markdave123-py/chatterbox/internal/models"
)

// StatisticsService aggregates conversation activity for one company.
// Note that "messages" counts updated conversation rows, not individual messages.
type StatisticsService struct {
	db  core.DbClient
	loc *time.Location
	now func() time.Time
	log zerolog.Logger
}

func NewStatisticsService(db core.DbClient, loc *time.Location, log zerolog.Logger) *StatisticsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatisticsService{
		db:  db,
		loc: loc,
		now: time.Now,
		log: log.With().Str("component", "statistics-service").Logger(),
	}
}

func (s *StatisticsService) GetPerformance(ctx context.Context, companyID int64) (*models.Performance, error) {
	if companyID <= 0 {
		return nil, validationError("companyId is required")
	}

	now := s.now().In(s.loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	var (
		today  models.ActivityCount
		week   []models.ActivityPoint
		months []models.ActivityPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.db.CountActivitySince(gctx, companyID, startOfDay)
		return err
	})
	g.Go(func() error {
		var err error
		week, err = s.db.WeekdayActivitySince(gctx, companyID, now.AddDate(0, 0, -7))
		return err
	})
	g.Go(func() error {
		var err error
		months, err = s.db.MonthlyActivitySince(gctx, companyID, now.AddDate(0, -6, 0))
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Int64("company_id", companyID).Msg("performance query failed")
		return nil, persistence("could not load statistics", err)
	}

	out := &models.Performance{
		DailyMessageCount: today.Messages,
		DailyActiveUsers:  today.Users,
		WeeklySeries:      make([]models.DailyPoint, 0, len(week)),
		MonthlySeries:     make([]models.MonthlyPoint, 0, len(months)),
	}
	for _, p := range week {
		out.WeeklySeries = append(out.WeeklySeries, models.DailyPoint{Day: p.Label, Messages: p.Messages, Users: p.Users})
	}
	for _, p := range months {
		out.MonthlySeries = append(out.MonthlySeries, models.MonthlyPoint{Month: p.Label, Messages: p.Messages, Users: p.Users})
	}
	return out, nil
}
