package db

import (
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("Запуск миграций")
	items := []struct {
		name  string
		model interface{}
	}{
		{"User", &dbmodels.User{}},
		{"Group", &dbmodels.Group{}},
		{"Channel", &dbmodels.Channel{}},
		{"UserInGroup", &dbmodels.UserInGroup{}},
		{"Vacancy", &dbmodels.Vacancy{}},
		{"VacancyUser", &dbmodels.VacancyUser{}},
		{"VacancyUserCall", &dbmodels.VacancyUserCall{}},
		{"VacancyStatusHistory", &dbmodels.VacancyStatusHistory{}},
		{"ChannelMessage", &dbmodels.ChannelMessage{}},
		{"GroupMessage", &dbmodels.GroupMessage{}},
		{"UserFeedback", &dbmodels.UserFeedback{}},
		{"Payment", &dbmodels.Payment{}},
		{"PreCheckoutLog", &dbmodels.PreCheckoutLog{}},
	}
	for _, item := range items {
		if err := DB.AutoMigrate(item.model); err != nil {
			return errors.Wrapf(err, "ошибка создания структуры %s", item.name)
		}
	}
	log.Info("Миграция прошла успешно")
	return nil
}
