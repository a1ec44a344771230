package repository

import (
	"context"
	"time"
)

// 批量操作审计状态
const (
	StatusPreviewed = "previewed"
	StatusApplying  = "applying"
	StatusCompleted = "completed"
)

// BulkOperationRecord 批量操作审计记录（对应 bulk_operations 表）
type BulkOperationRecord struct {
	OperationID   string     `json:"operationId"`
	OperationType string     `json:"operationType"`
	Params        string     `json:"params"` // 操作参数 JSON
	StartDate     string     `json:"startDate"`
	EndDate       string     `json:"endDate"`
	RatePlanCodes []string   `json:"ratePlanCodes"`
	RoomTypeCodes []string   `json:"roomTypeCodes"`
	TotalCount    int        `json:"totalCount"`
	ChangedCount  int        `json:"changedCount"`
	AppliedCount  int        `json:"appliedCount"`
	FailedCount   int        `json:"failedCount"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// BulkOperationsRepo 批量操作审计仓储
type BulkOperationsRepo interface {
	Create(ctx context.Context, rec *BulkOperationRecord) error
	UpdateStatus(ctx context.Context, operationID, status string) error
	MarkCompleted(ctx context.Context, operationID string, applied, failed int) error
	List(ctx context.Context, page, size int) ([]BulkOperationRecord, int, error)
}
