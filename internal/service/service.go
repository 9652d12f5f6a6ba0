package service

import (
	"go.uber.org/zap"

	"accessory-sync/config"
	"accessory-sync/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Reconcile ReconcileService
	FieldSync FieldSyncService
	Report    ReportService
}

// NewService 创建 Service 聚合
func NewService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) *Service {
	return &Service{
		Reconcile: NewReconcileService(cfg, repo, logger),
		FieldSync: NewFieldSyncService(cfg, repo, logger),
		Report:    NewReportService(cfg, repo, logger),
	}
}
