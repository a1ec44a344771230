package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryBulkOperationsRepo supports the audit history endpoint when DB is disabled.
type MemoryBulkOperationsRepo struct {
	mu  sync.RWMutex
	ops map[string]BulkOperationRecord // operationID -> record
}

func NewMemoryBulkOperationsRepo() *MemoryBulkOperationsRepo {
	return &MemoryBulkOperationsRepo{
		ops: map[string]BulkOperationRecord{},
	}
}

func (r *MemoryBulkOperationsRepo) Create(_ context.Context, rec *BulkOperationRecord) error {
	if rec.OperationID == "" {
		return fmt.Errorf("operation_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[rec.OperationID] = *rec
	return nil
}

func (r *MemoryBulkOperationsRepo) UpdateStatus(_ context.Context, operationID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.ops[operationID]
	if !ok {
		return fmt.Errorf("bulk operation not found: %s", operationID)
	}
	rec.Status = status
	r.ops[operationID] = rec
	return nil
}

func (r *MemoryBulkOperationsRepo) MarkCompleted(_ context.Context, operationID string, applied, failed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.ops[operationID]
	if !ok {
		return fmt.Errorf("bulk operation not found: %s", operationID)
	}
	now := time.Now().UTC()
	rec.Status = StatusCompleted
	rec.AppliedCount = applied
	rec.FailedCount = failed
	rec.CompletedAt = &now
	r.ops[operationID] = rec
	return nil
}

func (r *MemoryBulkOperationsRepo) List(_ context.Context, page, size int) ([]BulkOperationRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]BulkOperationRecord, 0, len(r.ops))
	for _, rec := range r.ops {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}
