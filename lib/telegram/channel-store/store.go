package channelstore

import (
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Upsert(rec dbmodels.Channel) error
	GetByID(id int64) (rec *dbmodels.Channel, err error)
	// FindForCity активный канал города, в котором бот администратор и есть ссылка-приглашение
	FindForCity(city string) (rec *dbmodels.Channel, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Upsert(rec dbmodels.Channel) error {
	return i.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "invite_link", "is_active", "has_bot_administrator", "updated_at"}),
		}).
		Create(&rec).
		Error
}

func (i impl) GetByID(id int64) (*dbmodels.Channel, error) {
	rec := dbmodels.Channel{}
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

func (i impl) FindForCity(city string) (*dbmodels.Channel, error) {
	rec := dbmodels.Channel{}
	tx := i.db.
		Where("is_active = ?", true).
		Where("has_bot_administrator = ?", true).
		Where("invite_link <> ''")
	if city != "" {
		tx = tx.Where("lower(city) = lower(?)", city)
	}
	err := tx.
		Order("created_at").
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
