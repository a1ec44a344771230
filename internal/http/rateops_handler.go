package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pms-rateops/internal/models"
	"pms-rateops/internal/repository"
	"pms-rateops/internal/service"

	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20 // 1MB

// RateOpsHandler 批量房价操作 Handler
type RateOpsHandler struct {
	preview *service.PreviewService
	apply   *service.ApplyService
	opsRepo repository.BulkOperationsRepo
	logger  *zap.Logger
}

// NewRateOpsHandler 创建 RateOpsHandler
func NewRateOpsHandler(preview *service.PreviewService, apply *service.ApplyService, opsRepo repository.BulkOperationsRepo, logger *zap.Logger) *RateOpsHandler {
	return &RateOpsHandler{
		preview: preview,
		apply:   apply,
		opsRepo: opsRepo,
		logger:  logger,
	}
}

// GetRoomTypes 获取房型参考数据
// GET /rateops/api/v1/room-types
func (h *RateOpsHandler) GetRoomTypes(w http.ResponseWriter, r *http.Request) {
	roomTypes, _, err := h.preview.LoadReferenceData(r.Context())
	if err != nil {
		h.logger.Error("failed to load room types", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load reference data"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(roomTypes))
}

// GetRatePlans 获取价格方案参考数据
// GET /rateops/api/v1/rate-plans
func (h *RateOpsHandler) GetRatePlans(w http.ResponseWriter, r *http.Request) {
	_, ratePlans, err := h.preview.LoadReferenceData(r.Context())
	if err != nil {
		h.logger.Error("failed to load rate plans", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load reference data"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(ratePlans))
}

// PreviewBulkOperation 生成批量操作预览
// POST /rateops/api/v1/bulk/preview
func (h *RateOpsHandler) PreviewBulkOperation(w http.ResponseWriter, r *http.Request) {
	var req service.PreviewRequest
	if err := readBodyJSON(r, maxRequestBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}

	session, err := h.preview.BuildPreview(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySelection):
			writeJSON(w, http.StatusOK, Fail("selection produces no operations"))
		case errors.Is(err, service.ErrInvalidRequest):
			writeJSON(w, http.StatusOK, Fail(err.Error()))
		default:
			h.logger.Error("preview generation failed", zap.Error(err))
			writeJSON(w, http.StatusOK, Fail("failed to generate preview"))
		}
		return
	}
	writeJSON(w, http.StatusOK, Ok(session))
}

// GetPreview 取回预览会话
// GET /rateops/api/v1/bulk/preview/:id
func (h *RateOpsHandler) GetPreview(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.preview.GetPreview(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPreviewNotFound) {
			writeJSON(w, http.StatusOK, Fail("preview not found or expired"))
			return
		}
		h.logger.Error("failed to load preview", zap.Error(err), zap.String("preview_id", id))
		writeJSON(w, http.StatusOK, Fail("failed to load preview"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(session))
}

// DiscardPreview 取消预览
// DELETE /rateops/api/v1/bulk/preview/:id
func (h *RateOpsHandler) DiscardPreview(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.preview.DiscardPreview(r.Context(), id); err != nil {
		h.logger.Warn("failed to discard preview", zap.Error(err), zap.String("preview_id", id))
		writeJSON(w, http.StatusOK, Fail("failed to discard preview"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"previewId": id}))
}

// applyRequest apply 请求体
type applyRequest struct {
	PreviewID string `json:"previewId"`
}

// ApplyBulkOperation 执行预览中的变更行
// POST /rateops/api/v1/bulk/apply
func (h *RateOpsHandler) ApplyBulkOperation(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := readBodyJSON(r, maxRequestBody, &req); err != nil || req.PreviewID == "" {
		writeJSON(w, http.StatusOK, Fail("previewId is required"))
		return
	}

	result, err := h.apply.Apply(r.Context(), req.PreviewID)
	if err != nil {
		if errors.Is(err, service.ErrPreviewNotFound) {
			writeJSON(w, http.StatusOK, Fail("preview not found or expired"))
			return
		}
		h.logger.Error("bulk apply failed", zap.Error(err), zap.String("preview_id", req.PreviewID))
		writeJSON(w, http.StatusOK, Fail("failed to apply bulk operation"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// GetApplyProgress 查询执行进度
// GET /rateops/api/v1/bulk/progress?previewId=xxx
func (h *RateOpsHandler) GetApplyProgress(w http.ResponseWriter, r *http.Request) {
	previewID := r.URL.Query().Get("previewId")
	if previewID == "" {
		writeJSON(w, http.StatusOK, Fail("previewId is required"))
		return
	}
	progress, err := h.apply.Progress(r.Context(), previewID)
	if err != nil {
		if errors.Is(err, service.ErrPreviewNotFound) {
			writeJSON(w, http.StatusOK, Fail("no progress for preview"))
			return
		}
		h.logger.Error("failed to read apply progress", zap.Error(err), zap.String("preview_id", previewID))
		writeJSON(w, http.StatusOK, Fail("failed to read progress"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(progress))
}

// operationsPage 审计历史分页响应
type operationsPage struct {
	Items      []repository.BulkOperationRecord `json:"items"`
	Pagination models.BackendPagination         `json:"pagination"`
}

// ListOperations 批量操作审计历史
// GET /rateops/api/v1/bulk/operations?page=1&size=20
func (h *RateOpsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	page := parseInt(r.URL.Query().Get("page"), 1)
	size := parseInt(r.URL.Query().Get("size"), 20)

	items, total, err := h.opsRepo.List(r.Context(), page, size)
	if err != nil {
		h.logger.Error("failed to list bulk operations", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list operations"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(operationsPage{
		Items: items,
		Pagination: models.BackendPagination{
			Page:  page,
			Size:  size,
			Count: total,
		},
	}))
}

// ExportCalendar 导出价格日历 Excel
// GET /rateops/api/v1/calendar/export?ratePlanId=1&roomTypeIds=10,11&startDate=...&endDate=...
func (h *RateOpsHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.CalendarRequest{
		RatePlanID:  int64(parseInt(q.Get("ratePlanId"), 0)),
		RoomTypeIDs: parseInt64List(q.Get("roomTypeIds")),
		StartDate:   q.Get("startDate"),
		EndDate:     q.Get("endDate"),
	}

	cal, err := h.preview.BuildCalendar(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrEmptySelection):
			writeJSON(w, http.StatusOK, Fail(err.Error()))
		default:
			h.logger.Error("calendar export failed", zap.Error(err))
			writeJSON(w, http.StatusOK, Fail("failed to build calendar"))
		}
		return
	}

	data, err := GenerateRateCalendarExport(cal)
	if err != nil {
		h.logger.Error("failed to generate calendar excel", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate excel"))
		return
	}

	filename := fmt.Sprintf("rate-calendar-%s-%s.xlsx", cal.RatePlan.Code, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
