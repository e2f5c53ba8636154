package initializers

import (
	"context"
	"shift-tools-backend/config"
	"shift-tools-backend/lib/utils/lock"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// InitLocker блокировка задач планировщика. Без Redis работает только в пределах процесса
func InitLocker(ctx context.Context) lock.Locker {
	if config.Conf.Redis.Addr == "" {
		log.Warn("Redis не настроен, блокировка задач в пределах процесса")
		return lock.NewLocker(nil)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Conf.Redis.Addr,
		Password: config.Conf.Redis.Password,
		DB:       config.Conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Error("Redis недоступен, блокировка задач в пределах процесса")
		return lock.NewLocker(nil)
	}
	log.Info("Redis клиент успешно инициализирован")
	return lock.NewLocker(client)
}
