package domain

// RatePlan 价格方案参考数据（来自 PMS 核心 API，本服务只读）
type RatePlan struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"` // 业务唯一标识，如 "BAR"
	Name   string `json:"name"`
	Status string `json:"status"` // ACTIVE / INACTIVE
}
