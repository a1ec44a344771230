package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"pms-rateops/internal/domain"
	"pms-rateops/internal/pmsapi"
	"pms-rateops/internal/rateops"
	"pms-rateops/internal/repository"
	"pms-rateops/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 参考数据一次取全的页大小（与原管理界面一致）
const referencePageSize = 1000

var (
	ErrEmptySelection  = errors.New("selection produces no operations")
	ErrPreviewNotFound = errors.New("preview not found or expired")
	ErrInvalidRequest  = errors.New("invalid request")
)

// pmsClient PMS 核心 API 客户端接口（用于测试和扩展）
type pmsClient interface {
	ListRoomTypes(ctx context.Context, page, size int) ([]domain.RoomType, error)
	ListRatePlans(ctx context.Context, page, size int) ([]domain.RatePlan, error)
	ListRoomRates(ctx context.Context, filter pmsapi.RateFilter) ([]domain.RoomRate, error)
	CreateRoomRate(ctx context.Context, rate domain.RoomRate) (*domain.RoomRate, error)
	UpdateRoomRate(ctx context.Context, id int64, rate domain.RoomRate) error
}

// PreviewRequest 预览请求
type PreviewRequest struct {
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate"`
	Weekdays    []string             `json:"weekdays,omitempty"`
	RoomTypeIDs []int64              `json:"roomTypeIds"`
	RatePlanIDs []int64              `json:"ratePlanIds"`
	Operation   domain.BulkOperation `json:"operation"`
}

// PreviewSession 预览会话：选区 + 快照 + 计算结果
// 存入 KV（TTL 内有效），apply 阶段按 ID 取回，对审阅过的快照执行写入。
// 已知并发窗口：预览快照与 apply 之间其他人改价会被直接覆盖，窗口以 TTL 为界
type PreviewSession struct {
	ID              string                 `json:"id"`
	Selection       domain.BulkSelection   `json:"selection"`
	Changes         []domain.PreviewChange `json:"changes"`
	TotalOperations int                    `json:"totalOperations"`
	ChangedCount    int                    `json:"changedCount"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// PreviewService 预览服务：参考数据加载 + 现价抓取 + 变更计算
type PreviewService struct {
	client     pmsClient
	kv         store.KV
	opsRepo    repository.BulkOperationsRepo
	refTTL     time.Duration
	previewTTL time.Duration
	logger     *zap.Logger
}

// NewPreviewService 创建 PreviewService
func NewPreviewService(client pmsClient, kv store.KV, opsRepo repository.BulkOperationsRepo, refTTL, previewTTL time.Duration, logger *zap.Logger) *PreviewService {
	return &PreviewService{
		client:     client,
		kv:         kv,
		opsRepo:    opsRepo,
		refTTL:     refTTL,
		previewTTL: previewTTL,
		logger:     logger,
	}
}

const (
	refRoomTypesKey = "rateops:ref:room-types"
	refRatePlansKey = "rateops:ref:rate-plans"
)

func previewKey(id string) string { return "rateops:preview:" + id }

// LoadReferenceData 并发加载房型与价格方案（cache-aside，未命中走 PMS API）
// 任一请求失败整体失败、不缓存半套数据
func (s *PreviewService) LoadReferenceData(ctx context.Context) ([]domain.RoomType, []domain.RatePlan, error) {
	var (
		wg        sync.WaitGroup
		roomTypes []domain.RoomType
		ratePlans []domain.RatePlan
		rtErr     error
		rpErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		roomTypes, rtErr = loadCached(ctx, s.kv, refRoomTypesKey, s.refTTL, func() ([]domain.RoomType, error) {
			return s.client.ListRoomTypes(ctx, 1, referencePageSize)
		})
	}()
	go func() {
		defer wg.Done()
		ratePlans, rpErr = loadCached(ctx, s.kv, refRatePlansKey, s.refTTL, func() ([]domain.RatePlan, error) {
			return s.client.ListRatePlans(ctx, 1, referencePageSize)
		})
	}()
	wg.Wait()

	if rtErr != nil {
		return nil, nil, fmt.Errorf("failed to load room types: %w", rtErr)
	}
	if rpErr != nil {
		return nil, nil, fmt.Errorf("failed to load rate plans: %w", rpErr)
	}
	return roomTypes, ratePlans, nil
}

// loadCached cache-aside：KV 命中直接返回，未命中回源并写缓存
func loadCached[T any](ctx context.Context, kv store.KV, key string, ttl time.Duration, fetch func() ([]T, error)) ([]T, error) {
	if raw, err := kv.Get(ctx, key); err == nil {
		var cached []T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		// 缓存内容损坏：当作未命中回源
	}

	items, err := fetch()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(items); err == nil {
		_ = kv.Set(ctx, key, string(data), ttl)
	}
	return items, nil
}

// BuildPreview 生成预览：抓取现价快照，计算变更，存为预览会话
func (s *PreviewService) BuildPreview(ctx context.Context, req PreviewRequest) (*PreviewSession, error) {
	sel, err := s.resolveSelection(ctx, req)
	if err != nil {
		return nil, err
	}

	dates := rateops.DatesInRange(sel.StartDate, sel.EndDate, sel.Weekdays)
	totalOps := len(dates) * len(sel.RoomTypes) * len(sel.RatePlans)
	if totalOps == 0 {
		return nil, ErrEmptySelection
	}

	existing, err := s.fetchExistingRates(ctx, sel)
	if err != nil {
		// 整体中止，不留半套快照
		return nil, err
	}

	var sourceRates map[string]*domain.RoomRate
	if sel.Operation.Type == domain.OpCopyFromDate {
		sourceRates, err = s.fetchSourceRates(ctx, sel)
		if err != nil {
			return nil, err
		}
	}

	changes := rateops.ComputeChanges(sel, existing, sourceRates)
	changed := 0
	for _, c := range changes {
		if c.HasChange {
			changed++
		}
	}

	session := &PreviewSession{
		ID:              uuid.NewString(),
		Selection:       sel,
		Changes:         changes,
		TotalOperations: totalOps,
		ChangedCount:    changed,
		CreatedAt:       time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preview session: %w", err)
	}
	if err := s.kv.Set(ctx, previewKey(session.ID), string(data), s.previewTTL); err != nil {
		return nil, fmt.Errorf("failed to store preview session: %w", err)
	}

	if s.opsRepo != nil {
		rec := newOperationRecord(session)
		if err := s.opsRepo.Create(ctx, rec); err != nil {
			// 审计失败不阻断预览
			s.logger.Warn("failed to record bulk operation", zap.Error(err), zap.String("preview_id", session.ID))
		}
	}

	s.logger.Info("Preview generated",
		zap.String("preview_id", session.ID),
		zap.Int("total_operations", totalOps),
		zap.Int("changed", changed),
	)
	return session, nil
}

// GetPreview 取回预览会话
func (s *PreviewService) GetPreview(ctx context.Context, id string) (*PreviewSession, error) {
	raw, err := s.kv.Get(ctx, previewKey(id))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, ErrPreviewNotFound
		}
		return nil, err
	}
	var session PreviewSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preview session: %w", err)
	}
	return &session, nil
}

// DiscardPreview 取消预览（用户关闭预览对话框时调用）
func (s *PreviewService) DiscardPreview(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, previewKey(id))
}

// resolveSelection 把请求里的 id 列表解析为参考数据实体（保持请求顺序）
func (s *PreviewService) resolveSelection(ctx context.Context, req PreviewRequest) (domain.BulkSelection, error) {
	var sel domain.BulkSelection

	if !req.Operation.Type.IsValid() {
		return sel, fmt.Errorf("%w: unknown operation type %q", ErrInvalidRequest, req.Operation.Type)
	}
	if req.Operation.Type == domain.OpCopyFromDate && !rateops.ValidDate(req.Operation.SourceDate) {
		return sel, fmt.Errorf("%w: COPY_FROM_DATE requires a valid sourceDate", ErrInvalidRequest)
	}
	if !rateops.ValidDate(req.StartDate) || !rateops.ValidDate(req.EndDate) {
		return sel, fmt.Errorf("%w: startDate and endDate must be YYYY-MM-DD", ErrInvalidRequest)
	}

	roomTypes, ratePlans, err := s.LoadReferenceData(ctx)
	if err != nil {
		return sel, err
	}

	typesByID := make(map[int64]domain.RoomType, len(roomTypes))
	for _, rt := range roomTypes {
		typesByID[rt.ID] = rt
	}
	plansByID := make(map[int64]domain.RatePlan, len(ratePlans))
	for _, rp := range ratePlans {
		plansByID[rp.ID] = rp
	}

	for _, id := range req.RoomTypeIDs {
		rt, ok := typesByID[id]
		if !ok {
			return sel, fmt.Errorf("%w: unknown room type id %d", ErrInvalidRequest, id)
		}
		sel.RoomTypes = append(sel.RoomTypes, rt)
	}
	for _, id := range req.RatePlanIDs {
		rp, ok := plansByID[id]
		if !ok {
			return sel, fmt.Errorf("%w: unknown rate plan id %d", ErrInvalidRequest, id)
		}
		sel.RatePlans = append(sel.RatePlans, rp)
	}

	sel.StartDate = req.StartDate
	sel.EndDate = req.EndDate
	sel.Weekdays = req.Weekdays
	sel.Operation = req.Operation
	return sel, nil
}

// fetchExistingRates 逐 (方案 × 房型) 查询现价，组装快照 map
// 单个请求失败即整体失败（不展示部分预览）
func (s *PreviewService) fetchExistingRates(ctx context.Context, sel domain.BulkSelection) (map[string]*domain.RoomRate, error) {
	existing := map[string]*domain.RoomRate{}
	for _, plan := range sel.RatePlans {
		for _, rt := range sel.RoomTypes {
			rates, err := s.client.ListRoomRates(ctx, pmsapi.RateFilter{
				RatePlanCode: plan.Code,
				RoomTypeCode: rt.Code,
				StartDate:    sel.StartDate,
				EndDate:      sel.EndDate,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to fetch rates for plan=%s roomType=%s: %w", plan.Code, rt.Code, err)
			}
			for i := range rates {
				r := rates[i]
				existing[domain.RateKey(plan.ID, rt.ID, r.RateDate)] = &r
			}
		}
	}
	return existing, nil
}

// fetchSourceRates COPY_FROM_DATE 的源日期快照（每对 (方案, 房型) 一行）
func (s *PreviewService) fetchSourceRates(ctx context.Context, sel domain.BulkSelection) (map[string]*domain.RoomRate, error) {
	src := map[string]*domain.RoomRate{}
	day := sel.Operation.SourceDate
	for _, plan := range sel.RatePlans {
		for _, rt := range sel.RoomTypes {
			rates, err := s.client.ListRoomRates(ctx, pmsapi.RateFilter{
				RatePlanCode: plan.Code,
				RoomTypeCode: rt.Code,
				StartDate:    day,
				EndDate:      day,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to fetch source rates for plan=%s roomType=%s: %w", plan.Code, rt.Code, err)
			}
			if len(rates) > 0 {
				r := rates[0]
				src[domain.PairKey(plan.ID, rt.ID)] = &r
			}
		}
	}
	return src, nil
}

// newOperationRecord 由预览会话生成审计记录
func newOperationRecord(session *PreviewSession) *repository.BulkOperationRecord {
	sel := session.Selection
	planCodes := make([]string, 0, len(sel.RatePlans))
	for _, p := range sel.RatePlans {
		planCodes = append(planCodes, p.Code)
	}
	typeCodes := make([]string, 0, len(sel.RoomTypes))
	for _, rt := range sel.RoomTypes {
		typeCodes = append(typeCodes, rt.Code)
	}
	params, _ := json.Marshal(sel.Operation)
	return &repository.BulkOperationRecord{
		OperationID:   session.ID,
		OperationType: string(sel.Operation.Type),
		Params:        string(params),
		StartDate:     sel.StartDate,
		EndDate:       sel.EndDate,
		RatePlanCodes: planCodes,
		RoomTypeCodes: typeCodes,
		TotalCount:    session.TotalOperations,
		ChangedCount:  session.ChangedCount,
		Status:        repository.StatusPreviewed,
		CreatedAt:     session.CreatedAt,
	}
}
