package handler

import (
	"accessory-sync/config"
	"accessory-sync/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Webhook *WebhookHandler
	Field   *FieldHandler
	Report  *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Webhook: NewWebhookHandler(svc.Reconcile, svc.Report, &cfg.Fields),
		Field:   NewFieldHandler(svc.FieldSync, cfg.Fields.Categories),
		Report:  NewReportHandler(svc.Report),
	}
}
