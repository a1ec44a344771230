package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresBulkOperationsRepo 批量操作审计（bulk_operations 表）
type PostgresBulkOperationsRepo struct {
	db *sql.DB
}

func NewPostgresBulkOperationsRepo(db *sql.DB) *PostgresBulkOperationsRepo {
	return &PostgresBulkOperationsRepo{db: db}
}

func (r *PostgresBulkOperationsRepo) Create(ctx context.Context, rec *BulkOperationRecord) error {
	if rec.OperationID == "" {
		return fmt.Errorf("operation_id is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bulk_operations (
			operation_id, operation_type, params,
			start_date, end_date, rate_plan_codes, room_type_codes,
			total_count, changed_count, applied_count, failed_count,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, $10, $11)`,
		rec.OperationID,
		rec.OperationType,
		rec.Params,
		rec.StartDate,
		rec.EndDate,
		pq.Array(rec.RatePlanCodes),
		pq.Array(rec.RoomTypeCodes),
		rec.TotalCount,
		rec.ChangedCount,
		rec.Status,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bulk operation: %w", err)
	}
	return nil
}

func (r *PostgresBulkOperationsRepo) UpdateStatus(ctx context.Context, operationID, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bulk_operations SET status = $2 WHERE operation_id = $1`,
		operationID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update bulk operation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bulk operation not found: %s", operationID)
	}
	return nil
}

func (r *PostgresBulkOperationsRepo) MarkCompleted(ctx context.Context, operationID string, applied, failed int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bulk_operations
		SET status = $2, applied_count = $3, failed_count = $4, completed_at = NOW()
		WHERE operation_id = $1`,
		operationID, StatusCompleted, applied, failed,
	)
	if err != nil {
		return fmt.Errorf("failed to mark bulk operation completed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bulk operation not found: %s", operationID)
	}
	return nil
}

func (r *PostgresBulkOperationsRepo) List(ctx context.Context, page, size int) ([]BulkOperationRecord, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bulk_operations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bulk operations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			operation_id, operation_type, params,
			start_date, end_date, rate_plan_codes, room_type_codes,
			total_count, changed_count, applied_count, failed_count,
			status, created_at, completed_at
		FROM bulk_operations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		size, (page-1)*size,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bulk operations: %w", err)
	}
	defer rows.Close()

	out := []BulkOperationRecord{}
	for rows.Next() {
		var rec BulkOperationRecord
		var completedAt sql.NullTime
		if err := rows.Scan(
			&rec.OperationID,
			&rec.OperationType,
			&rec.Params,
			&rec.StartDate,
			&rec.EndDate,
			pq.Array(&rec.RatePlanCodes),
			pq.Array(&rec.RoomTypeCodes),
			&rec.TotalCount,
			&rec.ChangedCount,
			&rec.AppliedCount,
			&rec.FailedCount,
			&rec.Status,
			&rec.CreatedAt,
			&completedAt,
		); err != nil {
			return nil, 0, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			rec.CompletedAt = &t
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}
