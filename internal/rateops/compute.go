package rateops

import (
	"pms-rateops/internal/domain"
)

// ComputeChanges 变更计算器（纯函数，无 I/O）
//
// 对 dates × ratePlans × roomTypes 的笛卡尔积逐格应用 sel.Operation，
// 与 existing 快照比较得出 HasChange。输出顺序契约：日期升序 × 价格方案
// （选择顺序）× 房型（选择顺序），预览表和测试断言都依赖这个顺序。
//
// existing 以 domain.RateKey 为键；sourceRates 仅 COPY_FROM_DATE 使用，
// 以 domain.PairKey 为键。
func ComputeChanges(
	sel domain.BulkSelection,
	existing map[string]*domain.RoomRate,
	sourceRates map[string]*domain.RoomRate,
) []domain.PreviewChange {
	dates := DatesInRange(sel.StartDate, sel.EndDate, sel.Weekdays)

	changes := make([]domain.PreviewChange, 0, len(dates)*len(sel.RatePlans)*len(sel.RoomTypes))
	for _, date := range dates {
		for _, plan := range sel.RatePlans {
			for _, rt := range sel.RoomTypes {
				cur := existing[domain.RateKey(plan.ID, rt.ID, date)]
				var src *domain.RoomRate
				if sel.Operation.Type == domain.OpCopyFromDate {
					src = sourceRates[domain.PairKey(plan.ID, rt.ID)]
				}
				changes = append(changes, computeOne(date, plan, rt, sel.Operation, cur, src))
			}
		}
	}
	return changes
}

// computeOne 计算单元格的建议值
func computeOne(
	date string,
	plan domain.RatePlan,
	rt domain.RoomType,
	op domain.BulkOperation,
	cur *domain.RoomRate,
	src *domain.RoomRate,
) domain.PreviewChange {
	c := domain.PreviewChange{
		RateDate:     date,
		RatePlanID:   plan.ID,
		RatePlanCode: plan.Code,
		RoomTypeID:   rt.ID,
		RoomTypeCode: rt.Code,
	}

	// 当前快照（nil = 该字段不存在）
	if cur != nil {
		id := cur.ID
		c.ExistingRateID = &id
		rate := cur.RateAmount
		c.CurrentRate = &rate
		c.CurrentAvailability = copyIntPtr(cur.AvailabilityCount)
		stop := cur.StopSell
		c.CurrentStopSell = &stop
	}

	// 默认：未被操作触及的字段保持当前值
	c.NewAvailability = copyIntPtr(c.CurrentAvailability)
	c.NewStopSell = copyBoolPtr(c.CurrentStopSell)

	curRate := 0.0
	hasCurRate := c.CurrentRate != nil
	if hasCurRate {
		curRate = *c.CurrentRate
	}

	switch op.Type {
	case domain.OpSetRate:
		c.NewRate = op.Value
	case domain.OpIncreasePercent:
		if hasCurRate {
			c.NewRate = curRate * (1 + op.Value/100)
		}
	case domain.OpDecreasePercent:
		if hasCurRate {
			c.NewRate = curRate * (1 - op.Value/100)
		}
	case domain.OpIncreaseFixed:
		c.NewRate = curRate + op.Value
	case domain.OpDecreaseFixed:
		c.NewRate = curRate - op.Value
	case domain.OpCopyFromDate:
		if src != nil {
			c.NewRate = src.RateAmount
			c.NewAvailability = copyIntPtr(src.AvailabilityCount)
			stop := src.StopSell
			c.NewStopSell = &stop
		} else {
			// 源日期无数据：回退到当前值
			c.NewRate = curRate
		}
	case domain.OpSetAvailability:
		c.NewRate = curRate
		avail := int(op.Value)
		c.NewAvailability = &avail
	case domain.OpSetStopSell:
		c.NewRate = curRate
		stop := op.StopSell
		c.NewStopSell = &stop
	default:
		c.NewRate = curRate
	}

	// 价格永不为负
	if c.NewRate < 0 {
		c.NewRate = 0
	}

	c.HasChange = rateChanged(c.CurrentRate, c.NewRate) ||
		intPtrDiffers(c.CurrentAvailability, c.NewAvailability) ||
		boolPtrDiffers(c.CurrentStopSell, c.NewStopSell)
	return c
}

// rateChanged 当前价缺失时任何计算值都算变更（undefined ≠ 0）
func rateChanged(cur *float64, next float64) bool {
	if cur == nil {
		return true
	}
	return *cur != next
}

func intPtrDiffers(a, b *int) bool {
	if a == nil || b == nil {
		return (a == nil) != (b == nil)
	}
	return *a != *b
}

func boolPtrDiffers(a, b *bool) bool {
	if a == nil || b == nil {
		return (a == nil) != (b == nil)
	}
	return *a != *b
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
