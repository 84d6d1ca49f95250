package listener

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"rfpdash/internal"
	"rfpdash/internal/config"
	"rfpdash/internal/logging"
	"rfpdash/internal/views"
)

// StatsKey is where the last fetched dashboard stats are saved.
const StatsKey = "dashboardStats"

type StatsSource interface {
	DashboardStats(ctx context.Context) (internal.DashboardStats, error)
}

type Saver interface {
	Save(key string, value []byte) error
}

// Service refreshes the dashboard on a fixed interval until its context ends.
type Service struct {
	source   StatsSource
	saver    Saver
	interval time.Duration
	logger   *zap.Logger

	OnRefresh func(views.DashboardView)
}

func NewService(source StatsSource, saver Saver, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		saver:    saver,
		interval: time.Duration(cfg.DashboardRefreshSec) * time.Second,
		logger:   logging.OrNop(logger),
	}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			s.logger.Warn("dashboard refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	stats, err := s.source.DashboardStats(ctx)
	if err != nil {
		return err
	}

	if s.saver != nil {
		blob, err := json.Marshal(stats)
		if err == nil {
			err = s.saver.Save(StatsKey, blob)
		}
		if err != nil {
			s.logger.Warn("save dashboard stats", zap.Error(err))
		}
	}

	view := views.Dashboard(stats)
	s.logger.Info("dashboard refreshed",
		zap.Int("total_rfps", view.TotalRFPs),
		zap.Int("won", view.Won),
		zap.Stringer("win_rate", view.WinRate),
		zap.Int("active_agents", view.ActiveAgents),
	)
	if s.OnRefresh != nil {
		s.OnRefresh(view)
	}
	return nil
}
