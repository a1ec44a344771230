package rateops

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DatesInRange 计算 [startDate, endDate] 闭区间内、星期名在 weekdays 中的全部日期（升序）
// weekdays 为空表示不过滤（七天全选）；startDate > endDate 或任一日期不可解析时返回空
func DatesInRange(startDate, endDate string, weekdays []string) []string {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil
	}
	if start.After(end) {
		return nil
	}

	allowed := map[string]bool{}
	for _, w := range weekdays {
		allowed[strings.ToLower(strings.TrimSpace(w))] = true
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(allowed) > 0 && !allowed[strings.ToLower(d.Weekday().String())] {
			continue
		}
		dates = append(dates, d.Format(dateLayout))
	}
	return dates
}

// ValidDate 校验 YYYY-MM-DD 格式
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
