package initializers

import (
	"shift-tools-backend/config"
	"shift-tools-backend/db"
)

func InitDBConnection(migrate bool) {
	err := db.Connect(db.Config{
		Host:         config.Conf.Database.Host,
		Port:         config.Conf.Database.Port,
		Name:         config.Conf.Database.Name,
		User:         config.Conf.Database.User,
		Password:     config.Conf.Database.Password,
		MaxOpenConns: config.Conf.Database.MaxOpenConns,
		MaxIdleConns: config.Conf.Database.MaxIdleConns,
		DebugMode:    *config.Conf.Database.DebugMode,
		Migrate:      migrate,
	})
	if err != nil {
		panic(err.Error())
	}

	db.InitPreload(config.Conf.Telegram.StaffIDs)
}
