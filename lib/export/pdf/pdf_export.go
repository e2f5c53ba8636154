package pdfexport

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

// ReceiptData данные квитанции об оплате вакансии
type ReceiptData struct {
	PaymentID   string
	VacancyID   string
	Address     string
	ShiftDate   time.Time
	Workers     int
	Amount      int64 // в минимальных единицах валюты
	Currency    string
	ChargeID    string
	PaidAt      time.Time
	PayerName   string
	ServiceName string
}

const fontFamily = "DejaVu"

// GenerateReceipt формирует квитанцию. Без шрифта с кириллицей из fontDir используется встроенный Helvetica
func GenerateReceipt(fontDir string, data ReceiptData) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("GenerateReceipt panic recover: %v", r)
		}
	}()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	family, tr := setFont(pdf, fontDir)
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 12, tr("Квитанція про оплату"), "", 1, "C", false, 0, "")
	if data.ServiceName != "" {
		pdf.SetFont(family, "", 11)
		pdf.CellFormat(0, 8, tr(data.ServiceName), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(family, "", 12)
	rows := [][2]string{
		{"Номер платежу", data.PaymentID},
		{"Вакансія", data.VacancyID},
		{"Адреса", data.Address},
		{"Дата зміни", formatDate(data.ShiftDate)},
		{"Кількість працівників", fmt.Sprintf("%d", data.Workers)},
		{"Сума", formatAmount(data.Amount, data.Currency)},
		{"Платник", data.PayerName},
		{"Ідентифікатор транзакції", data.ChargeID},
		{"Дата оплати", data.PaidAt.Format("02.01.2006 15:04")},
	}
	for _, row := range rows {
		pdf.CellFormat(70, 8, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	buf := new(bytes.Buffer)
	err = pdf.Output(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setFont(pdf *fpdf.Fpdf, fontDir string) (string, func(string) string) {
	if fontDir != "" {
		pdf.AddUTF8Font(fontFamily, "", filepath.Join(fontDir, "DejaVuSans.ttf"))
		pdf.AddUTF8Font(fontFamily, "B", filepath.Join(fontDir, "DejaVuSans-Bold.ttf"))
		if pdf.Error() == nil {
			pdf.SetFont(fontFamily, "", 12)
			return fontFamily, func(s string) string { return s }
		}
		pdf.ClearError()
	}
	pdf.SetFont("Helvetica", "", 12)
	return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
}

func formatDate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format("02.01.2006")
}

func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}
