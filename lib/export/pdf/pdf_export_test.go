package pdfexport

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateReceipt(t *testing.T) {
	data := ReceiptData{
		PaymentID: "p-1",
		VacancyID: "v-1",
		Address:   "Khreshchatyk 1",
		ShiftDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Workers:   4,
		Amount:    40000,
		Currency:  "UAH",
		ChargeID:  "charge-1",
		PaidAt:    time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC),
	}
	t.Run("builtin font check", func(t *testing.T) {
		body, err := GenerateReceipt("", data)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	})
	t.Run("missing font dir check", func(t *testing.T) {
		body, err := GenerateReceipt(t.TempDir(), data)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	})
	t.Run("amount format check", func(t *testing.T) {
		require.Equal(t, "400.00 UAH", formatAmount(40000, "UAH"))
		require.Equal(t, "1.05 UAH", formatAmount(105, "UAH"))
	})
}
