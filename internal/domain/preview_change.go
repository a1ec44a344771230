package domain

// PreviewChange 预览变更行：一个 (date, roomType, ratePlan) 三元组的当前值与建议值
// Current* 为 nil 表示该字段在快照中不存在（与任何具体值都视为不同）
type PreviewChange struct {
	RateDate     string `json:"rateDate"`
	RatePlanID   int64  `json:"ratePlanId"`
	RatePlanCode string `json:"ratePlanCode"`
	RoomTypeID   int64  `json:"roomTypeId"`
	RoomTypeCode string `json:"roomTypeCode"`

	ExistingRateID *int64 `json:"existingRateId,omitempty"` // apply 阶段用于 update-by-id

	CurrentRate         *float64 `json:"currentRate,omitempty"`
	CurrentAvailability *int     `json:"currentAvailability,omitempty"`
	CurrentStopSell     *bool    `json:"currentStopSell,omitempty"`

	NewRate         float64 `json:"newRate"` // 已钳制为 >= 0
	NewAvailability *int    `json:"newAvailability,omitempty"`
	NewStopSell     *bool   `json:"newStopSell,omitempty"`

	HasChange bool `json:"hasChange"`
}
