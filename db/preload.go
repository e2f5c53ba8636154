package db

import (
	dbmodels "shift-tools-backend/models/db"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"
)

// InitPreload заводит сотрудников из настроек. Профиль Telegram дополнится при первом апдейте
func InitPreload(staffIDs []int64) {
	addStaff(staffIDs)
}

func addStaff(staffIDs []int64) {
	if len(staffIDs) == 0 {
		log.Warn("сотрудники не добавлены, отсутствует настройка TG_STAFF_IDS")
		return
	}
	for _, id := range staffIDs {
		rec := dbmodels.User{
			ID:       id,
			IsStaff:  true,
			IsActive: true,
		}
		err := DB.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"is_staff", "is_active", "updated_at"}),
			}).
			Create(&rec).
			Error
		if err != nil {
			log.WithError(err).WithField("user_id", id).Error("ошибка добавления сотрудника")
		}
	}
}
