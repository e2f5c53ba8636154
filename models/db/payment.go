package dbmodels

import "github.com/pkg/errors"

type Payment struct {
	BaseModel
	VacancyID        string `gorm:"type:varchar(36);index"`
	UserID           int64
	Amount           int64
	Currency         string `gorm:"type:varchar(3)"`
	InvoicePayload   string `gorm:"type:varchar(255)"`
	TelegramChargeID string `gorm:"type:varchar(255)"`
	ProviderChargeID string `gorm:"type:varchar(255);uniqueIndex"`
	ReceiptKey       string `gorm:"type:varchar(255)"`
}

func (r Payment) Validate() error {
	if r.VacancyID == "" {
		return errors.New("не указана вакансия")
	}
	if r.Amount <= 0 {
		return errors.New("сумма платежа должна быть больше 0")
	}
	if r.ProviderChargeID == "" {
		return errors.New("не указан идентификатор платежа")
	}
	return nil
}

type PreCheckoutLog struct {
	BaseModel
	QueryID   string `gorm:"type:varchar(255)"`
	UserID    int64
	VacancyID string `gorm:"type:varchar(36);index"`
	Amount    int64
	Currency  string `gorm:"type:varchar(3)"`
	Payload   string `gorm:"type:varchar(255)"`
	Approved  bool
	Reason    string
}
