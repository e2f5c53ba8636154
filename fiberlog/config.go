package fiberlog

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// тело длиннее обрезается, чтобы не раздувать лог файлами отчетов
const defaultMaxBodyLen = 2048

// Config настройки лога запросов api
type Config struct {
	// Logger nil означает стандартный логгер logrus
	Logger *logrus.Logger
	Tags   []string
	// MaxBodyLen длина тела запроса и ответа в записи
	MaxBodyLen int
	// HideBodyPaths префиксы путей, тела которых в лог не пишутся: webhook Telegram несет платежи и телефоны
	HideBodyPaths []string
}

var ConfigDefault = Config{
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagPath,
		TagUserID,
		RequestID,
	},
	MaxBodyLen: defaultMaxBodyLen,
}

func configDefault(config ...Config) Config {
	if len(config) == 0 {
		return ConfigDefault
	}
	cfg := config[0]
	if len(cfg.Tags) == 0 {
		cfg.Tags = ConfigDefault.Tags
	}
	if cfg.MaxBodyLen <= 0 {
		cfg.MaxBodyLen = defaultMaxBodyLen
	}
	return cfg
}

func (c Config) bodyHidden(path string) bool {
	for _, prefix := range c.HideBodyPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
