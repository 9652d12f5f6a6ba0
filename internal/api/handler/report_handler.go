package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"accessory-sync/internal/service"
	"accessory-sync/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// ExportCatalog 导出配件目录
// GET /api/v1/reports/catalog?category=Mouse&category=Keyboard
func (h *ReportHandler) ExportCatalog(c *gin.Context) {
	buf, filename, err := h.reportSvc.ExportCatalog(c.Request.Context(), c.QueryArray("category"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ReportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoCategories):
		response.BadRequest(c, 30101, "未配置任何分类")
	default:
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		response.InternalError(c)
	}
}
