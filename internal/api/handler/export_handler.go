package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"uni-timetable/backend/internal/dto"
	"uni-timetable/backend/internal/service"
	"uni-timetable/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTimetable 导出培养方案课表
// GET /api/v1/export/timetable?programme_id=xxx&group=1
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	var req dto.ExportTimetableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeBadParams, "programme_id 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportTimetable(c.Request.Context(), req.ProgrammeID, req.Group)
	if err != nil {
		handleSchedulingError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
