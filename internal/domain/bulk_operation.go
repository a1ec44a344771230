package domain

// BulkOpType 批量操作类型
type BulkOpType string

const (
	OpSetRate         BulkOpType = "SET_RATE"
	OpIncreasePercent BulkOpType = "INCREASE_PERCENT"
	OpDecreasePercent BulkOpType = "DECREASE_PERCENT"
	OpIncreaseFixed   BulkOpType = "INCREASE_FIXED"
	OpDecreaseFixed   BulkOpType = "DECREASE_FIXED"
	OpCopyFromDate    BulkOpType = "COPY_FROM_DATE"
	OpSetAvailability BulkOpType = "SET_AVAILABILITY"
	OpSetStopSell     BulkOpType = "SET_STOP_SELL"
)

// IsValid 判断操作类型是否合法
func (t BulkOpType) IsValid() bool {
	switch t {
	case OpSetRate, OpIncreasePercent, OpDecreasePercent,
		OpIncreaseFixed, OpDecreaseFixed, OpCopyFromDate,
		OpSetAvailability, OpSetStopSell:
		return true
	}
	return false
}

// BulkOperation 批量操作（tagged union：不同类型使用不同参数字段）
// - 价格类操作（SET_RATE / *_PERCENT / *_FIXED）使用 Value
// - SET_AVAILABILITY 使用 Value（取整）
// - COPY_FROM_DATE 使用 SourceDate
// - SET_STOP_SELL 使用 StopSell
type BulkOperation struct {
	Type       BulkOpType `json:"type"`
	Value      float64    `json:"value,omitempty"`
	SourceDate string     `json:"sourceDate,omitempty"` // YYYY-MM-DD
	StopSell   bool       `json:"stopSell,omitempty"`
}

// BulkSelection 一次批量操作的选区快照
// RoomTypes/RatePlans 保持用户选择顺序（预览输出顺序契约的一部分）
type BulkSelection struct {
	StartDate string        `json:"startDate"` // YYYY-MM-DD，闭区间
	EndDate   string        `json:"endDate"`
	Weekdays  []string      `json:"weekdays,omitempty"` // 允许的星期名；空 = 全部七天
	RoomTypes []RoomType    `json:"roomTypes"`
	RatePlans []RatePlan    `json:"ratePlans"`
	Operation BulkOperation `json:"operation"`
}
