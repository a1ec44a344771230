package domain

// RoomType 房型参考数据（来自 PMS 核心 API，本服务只读）
type RoomType struct {
	ID   int64  `json:"id"`
	Code string `json:"code"` // 业务唯一标识，如 "DLX"
	Name string `json:"name"`
}
