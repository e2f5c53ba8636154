package paymentstore

import (
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.Payment) (id string, err error)
	GetByProviderChargeID(chargeID string) (rec *dbmodels.Payment, err error)
	ListByVacancy(vacancyID string) (list []dbmodels.Payment, err error)
	SetReceiptKey(id, key string) error
	CreatePreCheckoutLog(rec dbmodels.PreCheckoutLog) (id string, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Payment) (id string, err error) {
	err = rec.Validate()
	if err != nil {
		return "", err
	}
	err = i.db.
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByProviderChargeID(chargeID string) (*dbmodels.Payment, error) {
	rec := dbmodels.Payment{}
	err := i.db.
		Where("provider_charge_id = ?", chargeID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) ListByVacancy(vacancyID string) (list []dbmodels.Payment, err error) {
	list = []dbmodels.Payment{}
	err = i.db.
		Where("vacancy_id = ?", vacancyID).
		Order("created_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения платежей вакансии")
	}
	return list, nil
}

func (i impl) SetReceiptKey(id, key string) error {
	tx := i.db.
		Model(&dbmodels.Payment{}).
		Where("id = ?", id).
		Update("receipt_key", key)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}

func (i impl) CreatePreCheckoutLog(rec dbmodels.PreCheckoutLog) (id string, err error) {
	err = i.db.
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}
