package initializers

import (
	"context"
	"shift-tools-backend/config"
	filestorage "shift-tools-backend/lib/file-storage"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// InitS3 возвращает nil, если хранилище не настроено: отчеты и квитанции тогда не архивируются
func InitS3(ctx context.Context) filestorage.Provider {
	if config.Conf.S3.Endpoint == "" {
		log.Warn("S3 не настроен, отсутствует настройка S3_ENDPOINT")
		return nil
	}
	minioClient, err := minio.New(config.Conf.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV2(config.Conf.S3.AccessKeyID, config.Conf.S3.SecretAccessKey, ""),
		Secure: *config.Conf.S3.UseSSL,
	})
	if err != nil {
		log.WithError(err).Error("Ошибка инициализации клиента S3")
		return nil
	}

	filestorage.NewHandler(minioClient, config.Conf.S3.BucketName)
	if err = filestorage.Instance.MakeBucket(ctx); err != nil {
		log.WithError(err).Error("S3 соединение не удалось, бакет недоступен")
	}
	log.Info("S3 клиент успешно инициализирован")
	return filestorage.Instance
}
