package service

import (
	"context"
	"testing"
	"time"

	"pms-rateops/internal/domain"
	"pms-rateops/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testRoomTypes = []domain.RoomType{
		{ID: 10, Code: "DLX", Name: "Deluxe"},
		{ID: 11, Code: "STD", Name: "Standard"},
	}
	testRatePlans = []domain.RatePlan{
		{ID: 1, Code: "BAR", Name: "Best Available Rate", Status: "ACTIVE"},
		{ID: 2, Code: "COR", Name: "Corporate", Status: "ACTIVE"},
	}
)

func newPreviewFixture(backend *fakePMSBackend) (*PreviewService, *fakeKV, *repository.MemoryBulkOperationsRepo) {
	kv := newFakeKV()
	repo := repository.NewMemoryBulkOperationsRepo()
	svc := NewPreviewService(backend, kv, repo, time.Minute, time.Minute, zap.NewNop())
	return svc, kv, repo
}

func basicRequest(op domain.BulkOperation) PreviewRequest {
	return PreviewRequest{
		StartDate:   "2024-06-01",
		EndDate:     "2024-06-03",
		RoomTypeIDs: []int64{10},
		RatePlanIDs: []int64{1},
		Operation:   op,
	}
}

func TestBuildPreview_StoresSessionAndCounts(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	backend.seedRate(domain.RoomRate{
		RatePlanCode: "BAR", RoomTypeCode: "DLX",
		RateDate: "2024-06-01", RateAmount: 100,
	})
	svc, kv, repo := newPreviewFixture(backend)

	session, err := svc.BuildPreview(context.Background(), basicRequest(domain.BulkOperation{
		Type: domain.OpIncreasePercent, Value: 10,
	}))
	require.NoError(t, err)

	assert.Equal(t, 3, session.TotalOperations)
	require.Len(t, session.Changes, 3)
	assert.InDelta(t, 110.0, session.Changes[0].NewRate, 1e-9)
	assert.Equal(t, 3, session.ChangedCount) // 06-02/06-03 无现价也算变更

	// 会话已入 KV，可按 ID 取回
	got, err := svc.GetPreview(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ChangedCount, got.ChangedCount)
	_, ok := kv.data[previewKey(session.ID)]
	assert.True(t, ok)

	// 审计记录已创建
	ops, total, err := repo.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, session.ID, ops[0].OperationID)
	assert.Equal(t, repository.StatusPreviewed, ops[0].Status)
	assert.Equal(t, []string{"BAR"}, ops[0].RatePlanCodes)
}

func TestBuildPreview_EmptySelectionRejected(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	svc, _, _ := newPreviewFixture(backend)

	req := basicRequest(domain.BulkOperation{Type: domain.OpSetRate, Value: 1})
	req.StartDate = "2024-06-10"
	req.EndDate = "2024-06-01" // start > end → 0 个日期

	_, err := svc.BuildPreview(context.Background(), req)
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestBuildPreview_FetchFailureAbortsWholePreview(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	backend.failListRates = true
	svc, kv, repo := newPreviewFixture(backend)

	_, err := svc.BuildPreview(context.Background(), basicRequest(domain.BulkOperation{
		Type: domain.OpSetRate, Value: 100,
	}))
	require.Error(t, err)

	// 部分结果全部丢弃：既无会话也无审计记录
	for k := range kv.data {
		assert.NotContains(t, k, "rateops:preview:")
	}
	_, total, err := repo.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBuildPreview_UnknownReferenceID(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	svc, _, _ := newPreviewFixture(backend)

	req := basicRequest(domain.BulkOperation{Type: domain.OpSetRate, Value: 1})
	req.RoomTypeIDs = []int64{999}

	_, err := svc.BuildPreview(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBuildPreview_InvalidOperation(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	svc, _, _ := newPreviewFixture(backend)

	_, err := svc.BuildPreview(context.Background(), basicRequest(domain.BulkOperation{Type: "FROBNICATE"}))
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.BuildPreview(context.Background(), basicRequest(domain.BulkOperation{Type: domain.OpCopyFromDate}))
	require.ErrorIs(t, err, ErrInvalidRequest) // 缺 sourceDate
}

func TestBuildPreview_CopyFromDateFetchesSourceSnapshot(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	avail := 4
	backend.seedRate(domain.RoomRate{
		RatePlanCode: "BAR", RoomTypeCode: "DLX",
		RateDate: "2024-05-01", RateAmount: 222,
		AvailabilityCount: &avail, StopSell: true,
	})
	svc, _, _ := newPreviewFixture(backend)

	session, err := svc.BuildPreview(context.Background(), basicRequest(domain.BulkOperation{
		Type: domain.OpCopyFromDate, SourceDate: "2024-05-01",
	}))
	require.NoError(t, err)
	for _, c := range session.Changes {
		assert.Equal(t, 222.0, c.NewRate)
		require.NotNil(t, c.NewStopSell)
		assert.True(t, *c.NewStopSell)
	}
	// 区间抓取 1 次 + 源日期抓取 1 次（1 方案 × 1 房型）
	assert.Equal(t, 2, backend.listRateCalls)
}

func TestLoadReferenceData_CacheAside(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	svc, _, _ := newPreviewFixture(backend)

	types, plans, err := svc.LoadReferenceData(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, 2)
	assert.Len(t, plans, 2)
	assert.Equal(t, 1, backend.listRoomTypeCalls)

	// 第二次命中缓存，不再回源
	_, _, err = svc.LoadReferenceData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.listRoomTypeCalls)
	assert.Equal(t, 1, backend.listRatePlanCalls)
}

func TestLoadReferenceData_FailureSurfaces(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	backend.failRefLoad = true
	svc, _, _ := newPreviewFixture(backend)

	_, _, err := svc.LoadReferenceData(context.Background())
	require.Error(t, err)
}

func TestDiscardPreview_RemovesSession(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	svc, _, _ := newPreviewFixture(backend)

	session, err := svc.BuildPreview(context.Background(), basicRequest(domain.BulkOperation{
		Type: domain.OpSetRate, Value: 50,
	}))
	require.NoError(t, err)

	require.NoError(t, svc.DiscardPreview(context.Background(), session.ID))
	_, err = svc.GetPreview(context.Background(), session.ID)
	require.ErrorIs(t, err, ErrPreviewNotFound)
}

func TestBuildPreview_NestedFetchPerPairCount(t *testing.T) {
	backend := newFakePMSBackend(testRoomTypes, testRatePlans)
	svc, _, _ := newPreviewFixture(backend)

	req := PreviewRequest{
		StartDate:   "2024-06-01",
		EndDate:     "2024-06-02",
		RoomTypeIDs: []int64{10, 11},
		RatePlanIDs: []int64{1, 2},
		Operation:   domain.BulkOperation{Type: domain.OpSetRate, Value: 80},
	}
	session, err := svc.BuildPreview(context.Background(), req)
	require.NoError(t, err)

	// 每个 (方案 × 房型) 一次查询
	assert.Equal(t, 4, backend.listRateCalls)
	assert.Equal(t, 8, session.TotalOperations)
}
