package service

import (
	"context"
	"fmt"

	"pms-rateops/internal/domain"
	"pms-rateops/internal/rateops"
)

// CalendarRequest 价格日历请求：单个方案 × 多个房型 × 日期区间
type CalendarRequest struct {
	RatePlanID  int64
	RoomTypeIDs []int64
	StartDate   string
	EndDate     string
}

// CalendarCell 日历单元格；Rate 为 nil 表示该日无房价行
type CalendarCell struct {
	Rate         *float64 `json:"rate,omitempty"`
	Availability *int     `json:"availability,omitempty"`
	StopSell     bool     `json:"stopSell"`
}

// CalendarRow 一个房型的整行（Cells 与 Dates 对齐）
type CalendarRow struct {
	RoomType domain.RoomType `json:"roomType"`
	Cells    []CalendarCell  `json:"cells"`
}

// RateCalendar 价格日历矩阵
type RateCalendar struct {
	RatePlan domain.RatePlan `json:"ratePlan"`
	Dates    []string        `json:"dates"`
	Rows     []CalendarRow   `json:"rows"`
}

// BuildCalendar 组装价格日历（导出用）
func (s *PreviewService) BuildCalendar(ctx context.Context, req CalendarRequest) (*RateCalendar, error) {
	if !rateops.ValidDate(req.StartDate) || !rateops.ValidDate(req.EndDate) {
		return nil, fmt.Errorf("%w: startDate and endDate must be YYYY-MM-DD", ErrInvalidRequest)
	}
	dates := rateops.DatesInRange(req.StartDate, req.EndDate, nil)
	if len(dates) == 0 || len(req.RoomTypeIDs) == 0 {
		return nil, ErrEmptySelection
	}

	roomTypes, ratePlans, err := s.LoadReferenceData(ctx)
	if err != nil {
		return nil, err
	}

	var plan *domain.RatePlan
	for i := range ratePlans {
		if ratePlans[i].ID == req.RatePlanID {
			plan = &ratePlans[i]
			break
		}
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: unknown rate plan id %d", ErrInvalidRequest, req.RatePlanID)
	}

	typesByID := make(map[int64]domain.RoomType, len(roomTypes))
	for _, rt := range roomTypes {
		typesByID[rt.ID] = rt
	}
	var selected []domain.RoomType
	for _, id := range req.RoomTypeIDs {
		rt, ok := typesByID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown room type id %d", ErrInvalidRequest, id)
		}
		selected = append(selected, rt)
	}

	sel := domain.BulkSelection{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		RoomTypes: selected,
		RatePlans: []domain.RatePlan{*plan},
	}
	existing, err := s.fetchExistingRates(ctx, sel)
	if err != nil {
		return nil, err
	}

	cal := &RateCalendar{RatePlan: *plan, Dates: dates}
	for _, rt := range selected {
		row := CalendarRow{RoomType: rt, Cells: make([]CalendarCell, 0, len(dates))}
		for _, date := range dates {
			var cell CalendarCell
			if r := existing[domain.RateKey(plan.ID, rt.ID, date)]; r != nil {
				amount := r.RateAmount
				cell.Rate = &amount
				cell.Availability = r.AvailabilityCount
				cell.StopSell = r.StopSell
			}
			row.Cells = append(row.Cells, cell)
		}
		cal.Rows = append(cal.Rows, row)
	}
	return cal, nil
}
