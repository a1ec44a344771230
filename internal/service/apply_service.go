package service

import (
	"context"
	"encoding/json"
	"time"

	"pms-rateops/internal/domain"
	"pms-rateops/internal/repository"
	"pms-rateops/internal/store"

	"go.uber.org/zap"
)

// ApplyProgress 执行进度（每写一行刷新一次）
type ApplyProgress struct {
	PreviewID string  `json:"previewId"`
	Total     int     `json:"total"` // hasChange 行数
	Completed int     `json:"completed"`
	Applied   int     `json:"applied"`
	Failed    int     `json:"failed"`
	Fraction  float64 `json:"fraction"` // completed / total
	Done      bool    `json:"done"`
}

// ApplyResult 执行结果汇总（行级失败只记日志并继续，不中断整批）
type ApplyResult struct {
	PreviewID    string `json:"previewId"`
	TotalChanged int    `json:"totalChanged"`
	Applied      int    `json:"applied"`
	Failed       int    `json:"failed"`
}

// ApplyService 执行器：顺序写回变更行
type ApplyService struct {
	client      pmsClient
	kv          store.KV
	opsRepo     repository.BulkOperationsRepo
	preview     *PreviewService
	progressTTL time.Duration
	logger      *zap.Logger
}

// NewApplyService 创建 ApplyService
func NewApplyService(client pmsClient, kv store.KV, opsRepo repository.BulkOperationsRepo, preview *PreviewService, progressTTL time.Duration, logger *zap.Logger) *ApplyService {
	return &ApplyService{
		client:      client,
		kv:          kv,
		opsRepo:     opsRepo,
		preview:     preview,
		progressTTL: progressTTL,
		logger:      logger,
	}
}

func progressKey(previewID string) string { return "rateops:apply:" + previewID + ":progress" }

// Apply 顺序执行预览中 hasChange=true 的行
//
// 每行独立：已有快照 id 的走 update，否则按业务键 create；行失败记日志后继续。
// apply 基于预览时的快照，不重新校验现价是否已被他人修改。
func (s *ApplyService) Apply(ctx context.Context, previewID string) (*ApplyResult, error) {
	session, err := s.preview.GetPreview(ctx, previewID)
	if err != nil {
		return nil, err
	}

	var work []domain.PreviewChange
	for _, c := range session.Changes {
		if c.HasChange {
			work = append(work, c)
		}
	}

	if s.opsRepo != nil {
		if err := s.opsRepo.UpdateStatus(ctx, previewID, repository.StatusApplying); err != nil {
			s.logger.Warn("failed to mark operation applying", zap.Error(err), zap.String("preview_id", previewID))
		}
	}

	result := &ApplyResult{PreviewID: previewID, TotalChanged: len(work)}
	for i, c := range work {
		if err := s.applyOne(ctx, c); err != nil {
			// 行级失败：跳过该行，批次继续
			result.Failed++
			s.logger.Warn("failed to apply rate change",
				zap.String("preview_id", previewID),
				zap.String("rate_plan", c.RatePlanCode),
				zap.String("room_type", c.RoomTypeCode),
				zap.String("date", c.RateDate),
				zap.Error(err),
			)
		} else {
			result.Applied++
		}
		s.writeProgress(ctx, previewID, i+1, len(work), result.Applied, result.Failed, false)
	}
	s.writeProgress(ctx, previewID, len(work), len(work), result.Applied, result.Failed, true)

	// 执行完毕清掉预览会话
	if err := s.preview.DiscardPreview(ctx, previewID); err != nil {
		s.logger.Warn("failed to discard preview session", zap.Error(err), zap.String("preview_id", previewID))
	}

	if s.opsRepo != nil {
		if err := s.opsRepo.MarkCompleted(ctx, previewID, result.Applied, result.Failed); err != nil {
			s.logger.Warn("failed to mark operation completed", zap.Error(err), zap.String("preview_id", previewID))
		}
	}

	s.logger.Info("Bulk apply finished",
		zap.String("preview_id", previewID),
		zap.Int("total_changed", result.TotalChanged),
		zap.Int("applied", result.Applied),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Progress 查询执行进度
func (s *ApplyService) Progress(ctx context.Context, previewID string) (*ApplyProgress, error) {
	raw, err := s.kv.Get(ctx, progressKey(previewID))
	if err != nil {
		if err == store.ErrMiss {
			return nil, ErrPreviewNotFound
		}
		return nil, err
	}
	var p ApplyProgress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// applyOne 写回单行：有快照 id 走 update，否则 create
func (s *ApplyService) applyOne(ctx context.Context, c domain.PreviewChange) error {
	rate := domain.RoomRate{
		RatePlanCode:      c.RatePlanCode,
		RoomTypeCode:      c.RoomTypeCode,
		RateDate:          c.RateDate,
		RateAmount:        c.NewRate,
		AvailabilityCount: c.NewAvailability,
	}
	if c.NewStopSell != nil {
		rate.StopSell = *c.NewStopSell
	}

	if c.ExistingRateID != nil {
		return s.client.UpdateRoomRate(ctx, *c.ExistingRateID, rate)
	}
	_, err := s.client.CreateRoomRate(ctx, rate)
	return err
}

func (s *ApplyService) writeProgress(ctx context.Context, previewID string, completed, total, applied, failed int, done bool) {
	p := ApplyProgress{
		PreviewID: previewID,
		Total:     total,
		Completed: completed,
		Applied:   applied,
		Failed:    failed,
		Done:      done,
	}
	if total > 0 {
		p.Fraction = float64(completed) / float64(total)
	} else {
		p.Fraction = 1
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, progressKey(previewID), string(data), s.progressTTL); err != nil {
		s.logger.Warn("failed to write apply progress", zap.Error(err), zap.String("preview_id", previewID))
	}
}
