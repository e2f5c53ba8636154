package xlsexport

import (
	"bytes"
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type Provider interface {
	// ExportAttendance отчет о явке участников по перекличкам вакансии
	ExportAttendance(vacancy vacancyapimodels.VacancyView, list []vacancyapimodels.AttendanceRow) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var attendanceHeaders = []string{"Учасник", "Username", "Телефон", "Статус у групі", "Підтвердження", "Старт зміни", "Кінець зміни"}

// колонки статусов перекличек идут после данных участника
const firstCallCol = 5

func (i impl) ExportAttendance(vacancy vacancyapimodels.VacancyView, list []vacancyapimodels.AttendanceRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	sheet := "Sheet1"
	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка создания стилей xlsx")
	}
	row, err := writeTitle(f, sheet, 0, vacancy)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования шапки в xlsx")
	}
	headerRow, err := writeHeader(f, sheet, row, attendanceHeaders, styles)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	row, err = writeAttendanceData(f, sheet, list, headerRow, styles)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования таблицы с данными в xlsx")
	}
	if err = addFilter(f, sheet, headerRow, row, len(attendanceHeaders)); err != nil {
		return nil, errors.Wrap(err, "ошибка установки фильтра в xlsx")
	}
	if err = f.SetSheetName(sheet, "Явка"); err != nil {
		return nil, errors.Wrap(err, "ошибка переименования листа xlsx")
	}
	return f.WriteToBuffer()
}

func writeTitle(f *excelize.File, sheet string, row int, vacancy vacancyapimodels.VacancyView) (int, error) {
	lines := []string{
		vacancy.Address,
		vacancy.Date + " " + vacancy.StartTime + "-" + vacancy.EndTime,
		vacancy.StatusName,
	}
	for _, line := range lines {
		row++
		if err := writeRow(f, sheet, row, []interface{}{line}); err != nil {
			return row, err
		}
	}
	return row, nil
}

func writeAttendanceData(f *excelize.File, sheet string, list []vacancyapimodels.AttendanceRow, row int, styles sheetStyles) (int, error) {
	if len(list) == 0 {
		return row, nil
	}
	if err := styleRange(f, sheet, styles.data, 1, row+1, len(attendanceHeaders), row+len(list)); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		values := []interface{}{
			item.FullName,
			item.Username,
			item.Phone,
			string(item.MemberStatus),
			callStatusName(item.BeforeStart),
			callStatusName(item.Start),
			callStatusName(item.AfterStart),
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return row, err
		}
		for idx, status := range []models.CallStatus{item.BeforeStart, item.Start, item.AfterStart} {
			style, ok := styles.calls[status]
			if !ok {
				continue
			}
			col := firstCallCol + idx
			if err := styleRange(f, sheet, style, col, row, col, row); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}

func callStatusName(status models.CallStatus) string {
	switch status {
	case models.CallStatusConfirm:
		return "Так"
	case models.CallStatusReject:
		return "Ні"
	case models.CallStatusSent, models.CallStatusCreated:
		return "Очікується"
	}
	return ""
}
