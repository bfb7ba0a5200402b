package service

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"uni-timetable/backend/config"
	"uni-timetable/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Scheduling SchedulingService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	eng Scheduler,
	logger *zap.Logger,
) *Service {
	return &Service{
		Scheduling: NewSchedulingService(&cfg.Scheduler, eng, clockwork.NewRealClock(), logger.Named("scheduling")),
		Export:     NewExportService(repo, eng, logger.Named("export")),
	}
}
