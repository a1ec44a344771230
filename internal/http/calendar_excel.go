package httpapi

import (
	"fmt"

	"pms-rateops/internal/service"

	"github.com/xuri/excelize/v2"
)

// GenerateRateCalendarExport 生成价格日历 Excel
// 布局：第 1 行 = 表头（Room Type + 日期列），每个房型一行；
// 有房价的单元格写金额，stop sell 的单元格追加 " (SS)"，无数据留空
func GenerateRateCalendarExport(cal *service.RateCalendar) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := fmt.Sprintf("Rates %s", cal.RatePlan.Code)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 表头：Room Type + 日期列
	headers := append([]string{"Room Type"}, cal.Dates...)
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 列宽：房型列宽一些，日期列统一
	for i := 0; i < len(headers); i++ {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		width := 12.0
		if i == 0 {
			width = 24
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 数据行：每个房型一行
	for rowIdx, row := range cal.Rows {
		rowNum := rowIdx + 2 // 第 1 行是表头

		nameCell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		label := row.RoomType.Name
		if label == "" {
			label = row.RoomType.Code
		}
		if err := f.SetCellValue(sheetName, nameCell, label); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set room type cell: %w", err)
		}

		for colIdx, c := range row.Cells {
			cell, err := excelize.CoordinatesToCellName(colIdx+2, rowNum)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if c.Rate == nil {
				continue
			}
			var value any = *c.Rate
			if c.StopSell {
				value = fmt.Sprintf("%.2f (SS)", *c.Rate)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set rate cell %s: %w", cell, err)
			}
		}
	}

	var buf []byte
	out, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	buf = out.Bytes()
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}
	return buf, nil
}
