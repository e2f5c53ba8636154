package useringroupstore

import (
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Upsert(groupID, userID int64, status models.ChatMemberStatus) error
	Delete(groupID, userID int64) error
	ListByGroup(groupID int64) (list []dbmodels.UserInGroup, err error)
	DeleteByGroup(groupID int64) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Upsert(groupID, userID int64, status models.ChatMemberStatus) error {
	rec := dbmodels.UserInGroup{
		GroupID: groupID,
		UserID:  userID,
		Status:  status,
	}
	return i.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(&rec).
		Error
}

func (i impl) Delete(groupID, userID int64) error {
	return i.db.
		Where("group_id = ?", groupID).
		Where("user_id = ?", userID).
		Delete(&dbmodels.UserInGroup{}).
		Error
}

func (i impl) ListByGroup(groupID int64) (list []dbmodels.UserInGroup, err error) {
	list = []dbmodels.UserInGroup{}
	err = i.db.
		Where("group_id = ?", groupID).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) DeleteByGroup(groupID int64) error {
	return i.db.
		Where("group_id = ?", groupID).
		Delete(&dbmodels.UserInGroup{}).
		Error
}
