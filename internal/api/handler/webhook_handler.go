package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"accessory-sync/config"
	"accessory-sync/internal/api/middleware"
	"accessory-sync/internal/dto"
	"accessory-sync/internal/service"
	apperrors "accessory-sync/pkg/errors"
	"accessory-sync/pkg/response"
)

// WebhookHandler 工单 Webhook HTTP 处理器
type WebhookHandler struct {
	reconcileSvc service.ReconcileService
	reportSvc    service.ReportService
	fields       *config.FieldsConfig
}

// NewWebhookHandler 创建 WebhookHandler
func NewWebhookHandler(reconcileSvc service.ReconcileService, reportSvc service.ReportService, fields *config.FieldsConfig) *WebhookHandler {
	return &WebhookHandler{reconcileSvc: reconcileSvc, reportSvc: reportSvc, fields: fields}
}

// ProcessAccessories 按工单处理配件
// POST /api/v1/webhooks/accessories
//
// 调用方只读取正文：状态码固定为 200，顶层错误以 "Error: ..." 返回
func (h *WebhookHandler) ProcessAccessories(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			_ = c.Error(err)
			return
		}
		response.TextError(c, err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		response.TextError(c, dto.ErrEmptyPayload)
		return
	}

	var payload dto.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.TextError(c, err)
		return
	}
	if err := payload.Validate(); err != nil {
		response.TextError(c, err)
		return
	}

	summary, err := h.reconcileSvc.Process(c.Request.Context(), payload.ToRequestPayload(h.fields))
	if err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		response.TextError(c, err)
		return
	}

	response.Text(c, summary.Text())
}

// CheckedOut 查询提交人当前借出的配件
// POST /api/v1/webhooks/checked-out
func (h *WebhookHandler) CheckedOut(c *gin.Context) {
	var req dto.CheckedOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			_ = c.Error(err)
			return
		}
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reportSvc.CheckedOut(c.Request.Context(), req.ReporterEmail)
	if err != nil {
		h.handleCheckedOutError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *WebhookHandler) handleCheckedOutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20101, "资产系统中未找到该用户")
	case apperrors.IsAPIError(err):
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		response.ErrorWithDetails(c, http.StatusBadGateway, 50201, "资产系统请求失败", err.Error())
	default:
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		response.InternalError(c)
	}
}
