package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pms-rateops/internal/domain"
	"pms-rateops/internal/pmsapi"
	"pms-rateops/internal/store"
)

// fakeKV 内存 KV（测试用）
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeKV) ScanKeys(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// fakePMSBackend 模拟 PMS 核心 API：以业务键持有房价行，支持注入故障
type fakePMSBackend struct {
	mu        sync.Mutex
	roomTypes []domain.RoomType
	ratePlans []domain.RatePlan
	rates     map[string]*domain.RoomRate // "{planCode}|{typeCode}|{date}"
	nextID    int64

	failRefLoad    bool
	failListRates  bool
	failUpdateIDs  map[int64]bool // 指定 id 的 update 失败
	failCreateKeys map[string]bool

	listRoomTypeCalls int
	listRatePlanCalls int
	listRateCalls     int
	createCalls       int
	updateCalls       int
}

func newFakePMSBackend(roomTypes []domain.RoomType, ratePlans []domain.RatePlan) *fakePMSBackend {
	return &fakePMSBackend{
		roomTypes:      roomTypes,
		ratePlans:      ratePlans,
		rates:          map[string]*domain.RoomRate{},
		nextID:         1000,
		failUpdateIDs:  map[int64]bool{},
		failCreateKeys: map[string]bool{},
	}
}

func backendKey(planCode, typeCode, date string) string {
	return planCode + "|" + typeCode + "|" + date
}

func (f *fakePMSBackend) seedRate(rate domain.RoomRate) *domain.RoomRate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rate.ID == 0 {
		f.nextID++
		rate.ID = f.nextID
	}
	r := rate
	f.rates[backendKey(rate.RatePlanCode, rate.RoomTypeCode, rate.RateDate)] = &r
	return &r
}

func (f *fakePMSBackend) ListRoomTypes(_ context.Context, _, _ int) ([]domain.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listRoomTypeCalls++
	if f.failRefLoad {
		return nil, fmt.Errorf("pms unavailable")
	}
	return f.roomTypes, nil
}

func (f *fakePMSBackend) ListRatePlans(_ context.Context, _, _ int) ([]domain.RatePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listRatePlanCalls++
	if f.failRefLoad {
		return nil, fmt.Errorf("pms unavailable")
	}
	return f.ratePlans, nil
}

func (f *fakePMSBackend) ListRoomRates(_ context.Context, filter pmsapi.RateFilter) ([]domain.RoomRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listRateCalls++
	if f.failListRates {
		return nil, fmt.Errorf("pms unavailable")
	}
	var out []domain.RoomRate
	for _, r := range f.rates {
		if filter.RatePlanCode != "" && r.RatePlanCode != filter.RatePlanCode {
			continue
		}
		if filter.RoomTypeCode != "" && r.RoomTypeCode != filter.RoomTypeCode {
			continue
		}
		// ISO 日期可直接按字典序比较
		if filter.StartDate != "" && r.RateDate < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && r.RateDate > filter.EndDate {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakePMSBackend) CreateRoomRate(_ context.Context, rate domain.RoomRate) (*domain.RoomRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	key := backendKey(rate.RatePlanCode, rate.RoomTypeCode, rate.RateDate)
	if f.failCreateKeys[key] {
		return nil, fmt.Errorf("create rejected")
	}
	f.nextID++
	rate.ID = f.nextID
	r := rate
	f.rates[key] = &r
	return &r, nil
}

func (f *fakePMSBackend) UpdateRoomRate(_ context.Context, id int64, rate domain.RoomRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.failUpdateIDs[id] {
		return fmt.Errorf("update rejected")
	}
	for key, r := range f.rates {
		if r.ID == id {
			updated := rate
			updated.ID = id
			f.rates[key] = &updated
			return nil
		}
	}
	return fmt.Errorf("rate %d not found", id)
}
