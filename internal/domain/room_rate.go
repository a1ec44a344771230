package domain

import "fmt"

// RoomRate 房价行（rate plan × room type × date 三元组的价格与限售数据）
// 调用方以 (ratePlanCode, roomTypeCode, rateDate) 为键；PMS 后端创建后另分配数字 id
type RoomRate struct {
	ID                int64   `json:"id,omitempty"`
	RatePlanCode      string  `json:"ratePlanCode"`
	RoomTypeCode      string  `json:"roomTypeCode"`
	RateDate          string  `json:"rateDate"` // YYYY-MM-DD
	RateAmount        float64 `json:"rateAmount"`
	AvailabilityCount *int    `json:"availabilityCount,omitempty"` // 可售数量，可缺省
	StopSell          bool    `json:"stopSell"`
}

// RateKey 快照 map 的键："{ratePlanId}-{roomTypeId}-{rateDate}"
func RateKey(ratePlanID, roomTypeID int64, rateDate string) string {
	return fmt.Sprintf("%d-%d-%s", ratePlanID, roomTypeID, rateDate)
}

// PairKey COPY_FROM_DATE 源日期快照的键："{ratePlanId}-{roomTypeId}"
func PairKey(ratePlanID, roomTypeID int64) string {
	return fmt.Sprintf("%d-%d", ratePlanID, roomTypeID)
}
