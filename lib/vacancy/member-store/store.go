package vacancymemberstore

import (
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Upsert(vacancyID string, userID int64, status models.ChatMemberStatus) (rec *dbmodels.VacancyUser, err error)
	Get(vacancyID string, userID int64) (rec *dbmodels.VacancyUser, err error)
	ListMembers(vacancyID string) (list []dbmodels.VacancyUser, err error)
	CountMembers(vacancyID string) (count int64, err error)
	ListByStatuses(vacancyID string, statuses []models.ChatMemberStatus) (list []dbmodels.VacancyUser, err error)
	ListAll(vacancyID string) (list []dbmodels.VacancyUser, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Upsert(vacancyID string, userID int64, status models.ChatMemberStatus) (*dbmodels.VacancyUser, error) {
	rec := dbmodels.VacancyUser{
		VacancyID: vacancyID,
		UserID:    userID,
		Status:    status,
	}
	err := i.db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vacancy_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"status": status, "updated_at": gorm.Expr("now()")}),
		}).
		Create(&rec).
		Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (i impl) Get(vacancyID string, userID int64) (*dbmodels.VacancyUser, error) {
	rec := dbmodels.VacancyUser{}
	err := i.db.
		Where("vacancy_id = ?", vacancyID).
		Where("user_id = ?", userID).
		Preload("User").
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

func (i impl) ListMembers(vacancyID string) ([]dbmodels.VacancyUser, error) {
	return i.ListByStatuses(vacancyID, []models.ChatMemberStatus{models.ChatMemberMember})
}

func (i impl) CountMembers(vacancyID string) (count int64, err error) {
	err = i.db.
		Model(&dbmodels.VacancyUser{}).
		Where("vacancy_id = ?", vacancyID).
		Where("status = ?", models.ChatMemberMember).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (i impl) ListByStatuses(vacancyID string, statuses []models.ChatMemberStatus) (list []dbmodels.VacancyUser, err error) {
	list = []dbmodels.VacancyUser{}
	err = i.db.
		Where("vacancy_id = ?", vacancyID).
		Where("status in (?)", statuses).
		Preload("User").
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListAll(vacancyID string) (list []dbmodels.VacancyUser, err error) {
	list = []dbmodels.VacancyUser{}
	err = i.db.
		Where("vacancy_id = ?", vacancyID).
		Preload("User").
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
