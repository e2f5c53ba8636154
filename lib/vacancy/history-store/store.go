package historystore

import (
	dbmodels "shift-tools-backend/models/db"

	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.VacancyStatusHistory) (id string, err error)
	List(vacancyID string) (list []dbmodels.VacancyStatusHistory, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.VacancyStatusHistory) (id string, err error) {
	err = i.db.
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) List(vacancyID string) (list []dbmodels.VacancyStatusHistory, err error) {
	list = []dbmodels.VacancyStatusHistory{}
	err = i.db.
		Where("vacancy_id = ?", vacancyID).
		Order("created_at ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
