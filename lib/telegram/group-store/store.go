package groupstore

import (
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Upsert(rec dbmodels.Group) error
	GetByID(id int64) (rec *dbmodels.Group, err error)
	ListAvailable() (list []dbmodels.Group, err error)
	// Lease переводит группу available -> process. leased == false, если группу уже заняли
	Lease(id int64) (leased bool, err error)
	// LeaseAny арендует первую свободную группу. nil, если свободных нет
	LeaseAny() (rec *dbmodels.Group, err error)
	Release(id int64) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Upsert(rec dbmodels.Group) error {
	if rec.Status == "" {
		rec.Status = models.GroupStatusAvailable
	}
	return i.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "invite_link", "updated_at"}),
		}).
		Create(&rec).
		Error
}

func (i impl) GetByID(id int64) (*dbmodels.Group, error) {
	rec := dbmodels.Group{}
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

func (i impl) ListAvailable() (list []dbmodels.Group, err error) {
	list = []dbmodels.Group{}
	err = i.db.
		Where("status = ?", models.GroupStatusAvailable).
		Where("invite_link <> ''").
		Order("updated_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Lease(id int64) (bool, error) {
	tx := i.db.
		Model(&dbmodels.Group{}).
		Where("id = ?", id).
		Where("status = ?", models.GroupStatusAvailable).
		Where("invite_link <> ''").
		Update("status", models.GroupStatusProcess)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (i impl) LeaseAny() (*dbmodels.Group, error) {
	list, err := i.ListAvailable()
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения свободных групп")
	}
	for _, group := range list {
		leased, err := i.Lease(group.ID)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка аренды группы")
		}
		if leased {
			group.Status = models.GroupStatusProcess
			return &group, nil
		}
	}
	return nil, nil
}

func (i impl) Release(id int64) error {
	return i.db.
		Model(&dbmodels.Group{}).
		Where("id = ?", id).
		Update("status", models.GroupStatusAvailable).
		Error
}
