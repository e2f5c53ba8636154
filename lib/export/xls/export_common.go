package xlsexport

import (
	"shift-tools-backend/models"

	"github.com/xuri/excelize/v2"
)

const (
	fontFamily = "Arial"
	colWidth   = 22
)

// заливка ячеек переклички по статусу, как условное форматирование в ручных отчетах
var callFills = map[models.CallStatus]string{
	models.CallStatusConfirm: "C6EFCE",
	models.CallStatusReject:  "FFC7CE",
	models.CallStatusSent:    "FFEB9C",
	models.CallStatusCreated: "FFEB9C",
}

type sheetStyles struct {
	header int
	data   int
	calls  map[models.CallStatus]int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	result := sheetStyles{calls: map[models.CallStatus]int{}}
	var err error
	result.header, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Family: fontFamily, Size: 11},
	})
	if err != nil {
		return result, err
	}
	result.data, err = f.NewStyle(dataStyle(""))
	if err != nil {
		return result, err
	}
	for status, color := range callFills {
		if result.calls[status], err = f.NewStyle(dataStyle(color)); err != nil {
			return result, err
		}
	}
	return result, nil
}

func dataStyle(fill string) *excelize.Style {
	style := &excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		Font:      &excelize.Font{Family: fontFamily, Size: 11},
	}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1}
	}
	return style
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for idx, value := range values {
		cell, err := excelize.CoordinatesToCellName(idx+1, row)
		if err != nil {
			return err
		}
		if err = f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func styleRange(f *excelize.File, sheet string, style, colFrom, rowFrom, colTo, rowTo int) error {
	cellFirst, err := excelize.CoordinatesToCellName(colFrom, rowFrom)
	if err != nil {
		return err
	}
	cellLast, err := excelize.CoordinatesToCellName(colTo, rowTo)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cellFirst, cellLast, style)
}

// writeHeader строка заголовков; строки выше нее остаются закрепленными при прокрутке
func writeHeader(f *excelize.File, sheet string, row int, headers []string, styles sheetStyles) (int, error) {
	row++
	values := make([]interface{}, 0, len(headers))
	for _, header := range headers {
		values = append(values, header)
	}
	if err := writeRow(f, sheet, row, values); err != nil {
		return row, err
	}
	if err := styleRange(f, sheet, styles.header, 1, row, len(headers), row); err != nil {
		return row, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return row, err
	}
	if err = f.SetColWidth(sheet, "A", lastCol, colWidth); err != nil {
		return row, err
	}
	topLeft, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return row, err
	}
	err = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      row,
		TopLeftCell: topLeft,
		ActivePane:  "bottomLeft",
	})
	return row, err
}

// addFilter фильтр по колонкам таблицы от строки заголовков до последней строки данных
func addFilter(f *excelize.File, sheet string, headerRow, lastRow, cols int) error {
	if lastRow <= headerRow {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, lastRow)
	if err != nil {
		return err
	}
	return f.AutoFilter(sheet, first+":"+last, nil)
}
