package initializers

import (
	"shift-tools-backend/config"
	"shift-tools-backend/lib/smtp"

	log "github.com/sirupsen/logrus"
)

// InitSmtp почта для рассылки сотрудникам. Без хоста письма не отправляются, остается только Telegram
func InitSmtp() {
	err := smtp.Connect(config.Conf.Smtp.User, config.Conf.Smtp.Password,
		config.Conf.Smtp.Host, config.Conf.Smtp.Port, *config.Conf.Smtp.TLSEnabled)
	if err != nil {
		panic(err.Error())
	}
	if config.Conf.Smtp.Host == "" {
		log.Warn("SMTP не настроен, письма сотрудникам отправляться не будут")
	} else if len(config.Conf.Smtp.StaffEmail) == 0 {
		log.Warn("SMTP настроен, но не указаны адреса сотрудников SMTP_STAFF_EMAIL")
	}
}
