package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"accessory-sync/config"
	"accessory-sync/internal/dto"
	"accessory-sync/internal/service"
	"accessory-sync/pkg/response"
)

// FieldHandler 自定义字段同步 HTTP 处理器
type FieldHandler struct {
	fieldSyncSvc service.FieldSyncService
	fields       []config.CategoryField
}

// NewFieldHandler 创建 FieldHandler
func NewFieldHandler(fieldSyncSvc service.FieldSyncService, fields []config.CategoryField) *FieldHandler {
	return &FieldHandler{fieldSyncSvc: fieldSyncSvc, fields: fields}
}

// SyncFields 同步自定义字段选项
// POST /api/v1/webhooks/fields/sync?field=11726
//
// 不带 field 时同步全部已配置字段；结果以纯文本返回
func (h *FieldHandler) SyncFields(c *gin.Context) {
	fieldID := c.Query("field")
	if fieldID == "" {
		results := h.fieldSyncSvc.SyncAll(c.Request.Context())
		response.Text(c, dto.FieldSyncText(results))
		return
	}

	for _, f := range h.fields {
		if f.ID == fieldID || f.Key() == fieldID {
			result := h.fieldSyncSvc.SyncField(c.Request.Context(), f.ID, f.Category)
			response.Text(c, dto.FieldSyncText([]dto.FieldSyncResult{result}))
			return
		}
	}

	response.TextError(c, fmt.Errorf("field %s is not configured", fieldID))
}
