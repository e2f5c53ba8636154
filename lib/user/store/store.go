package userstore

import (
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	GetByID(id int64) (rec *dbmodels.User, err error)
	// UpsertFromTelegram сохраняет данные профиля Telegram, не затрагивая признаки staff/active
	UpsertFromTelegram(rec dbmodels.User) error
	ListStaff() (list []dbmodels.User, err error)
	SetStaff(id int64, isStaff bool) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetByID(id int64) (*dbmodels.User, error) {
	rec := dbmodels.User{}
	err := i.db.
		Where("id = ?", id).
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

func (i impl) UpsertFromTelegram(rec dbmodels.User) error {
	return i.db.
		Omit("is_staff", "is_active").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "full_name", "is_bot", "updated_at"}),
		}).
		Create(&rec).
		Error
}

func (i impl) ListStaff() (list []dbmodels.User, err error) {
	list = []dbmodels.User{}
	err = i.db.
		Where("is_staff = ?", true).
		Where("is_active = ?", true).
		Order("id").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SetStaff(id int64, isStaff bool) error {
	tx := i.db.
		Model(&dbmodels.User{}).
		Where("id = ?", id).
		Update("is_staff", isStaff)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}
