package callstore

import (
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	// CreateIfAbsent создает запись переклички, если ее еще нет. created == true только для новой записи
	CreateIfAbsent(vacancyUserID string, callType models.CallType, status models.CallStatus) (created bool, err error)
	Get(vacancyUserID string, callType models.CallType) (rec *dbmodels.VacancyUserCall, err error)
	ListByVacancy(vacancyID string, callType models.CallType) (list []dbmodels.VacancyUserCall, err error)
	SetStatus(ids []string, callType models.CallType, status models.CallStatus) (updated int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) CreateIfAbsent(vacancyUserID string, callType models.CallType, status models.CallStatus) (bool, error) {
	rec := dbmodels.VacancyUserCall{
		VacancyUserID: vacancyUserID,
		CallType:      callType,
		Status:        status,
	}
	tx := i.db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vacancy_user_id"}, {Name: "call_type"}},
			DoNothing: true,
		}).
		Create(&rec)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (i impl) Get(vacancyUserID string, callType models.CallType) (*dbmodels.VacancyUserCall, error) {
	rec := dbmodels.VacancyUserCall{}
	err := i.db.
		Where("vacancy_user_id = ?", vacancyUserID).
		Where("call_type = ?", callType).
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

func (i impl) ListByVacancy(vacancyID string, callType models.CallType) (list []dbmodels.VacancyUserCall, err error) {
	list = []dbmodels.VacancyUserCall{}
	err = i.db.
		Model(&dbmodels.VacancyUserCall{}).
		Joins("join vacancy_users on vacancy_users.id = vacancy_user_calls.vacancy_user_id").
		Where("vacancy_users.vacancy_id = ?", vacancyID).
		Where("vacancy_user_calls.call_type = ?", callType).
		Preload("VacancyUser.User").
		Order("vacancy_user_calls.created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// SetStatus ids - идентификаторы записей VacancyUser
func (i impl) SetStatus(ids []string, callType models.CallType, status models.CallStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := i.db.
		Model(&dbmodels.VacancyUserCall{}).
		Where("vacancy_user_id in (?)", ids).
		Where("call_type = ?", callType).
		Update("status", status)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}
