package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr string `default:"" env:"APP_HOST"`
		Port       int    `default:"8080"  env:"APP_PORT"`
		BaseURL    string `default:"http://localhost:8080" env:"APP_BASE_URL"`
		TimeZone   string `default:"Europe/Kyiv" env:"APP_TIME_ZONE"`
		LogLevel   string `default:"info" env:"APP_LOG_LEVEL"`
		FontDir    string `default:"static/font" env:"APP_FONT_DIR"`
		Name       string `default:"Shift Tools" env:"APP_NAME"`
		ErrNotify  *bool  `default:"true" env:"APP_ERR_NOTIFY"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"shift-tools" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
		MaxOpenConns   int    `default:"20" env:"DB_MAX_OPEN_CONNS"`
		MaxIdleConns   int    `default:"5" env:"DB_MAX_IDLE_CONNS"`
	}
	Auth struct {
		JWTSecret      string `default:"secret" env:"JWT_SECRET"`
		JWTExpireInSec int64  `default:"86400" env:"JWT_EXPIRE_IN_SEC"`
	}
	Telegram struct {
		BotToken       string  `default:"" env:"TG_BOT_TOKEN"`
		BotID          int64   `default:"0" env:"TG_BOT_ID"`
		APIHost        string  `default:"https://api.telegram.org" env:"TG_API_HOST"`
		WebhookSecret  string  `default:"" env:"TG_WEBHOOK_SECRET"`
		ProviderToken  string  `default:"" env:"TG_PROVIDER_TOKEN"`
		Currency       string  `default:"UAH" env:"TG_CURRENCY"`
		RequestTimeout int     `default:"10" env:"TG_REQUEST_TIMEOUT_SEC"`
		MaxAttempts    int     `default:"3" env:"TG_MAX_ATTEMPTS"`
		RatePerSecond  float64 `default:"25" env:"TG_RATE_PER_SECOND"`
		StaffIDs       []int64 `env:"TG_STAFF_IDS"`
	}
	Workflow struct {
		PricePerWorker        int64 `default:"100" env:"WF_PRICE_PER_WORKER"`
		BeforeStartWindowMin  int   `default:"120" env:"WF_BEFORE_START_WINDOW_MIN"`
		BeforeStartConfirmMin int   `default:"20" env:"WF_BEFORE_START_CONFIRM_MIN"`
		StartWindowMin        int   `default:"10" env:"WF_START_WINDOW_MIN"`
		CloseDelayMin         int   `default:"120" env:"WF_CLOSE_DELAY_MIN"`
		ResendIntervalMin     int   `default:"5" env:"WF_RESEND_INTERVAL_MIN"`
		MaxPeopleCount        int   `default:"20" env:"WF_MAX_PEOPLE_COUNT"`
	}
	Scheduler struct {
		Internal      *bool `default:"true" env:"SCHEDULER_INTERNAL"`
		IntervalSec   int   `default:"30" env:"SCHEDULER_INTERVAL_SEC"`
		FirstDelaySec int   `default:"10" env:"SCHEDULER_FIRST_DELAY_SEC"`
	}
	Redis struct {
		Addr     string `default:"" env:"REDIS_ADDR"`
		Password string `default:"" env:"REDIS_PASSWORD"`
		DB       int    `default:"0" env:"REDIS_DB"`
	}
	Smtp struct {
		User       string   `default:"" env:"SMTP_USER"`
		Password   string   `default:"" env:"SMTP_PASSWORD"`
		Host       string   `default:"" env:"SMTP_HOST"`
		Port       string   `default:"" env:"SMTP_PORT"`
		TLSEnabled *bool    `default:"true" env:"SMTP_TLS_ENABLED"`
		StaffEmail []string `env:"SMTP_STAFF_EMAIL"`
	}
	S3 struct {
		Endpoint        string `default:"" env:"S3_ENDPOINT"`
		AccessKeyID     string `default:"" env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `default:"" env:"S3_SECRET_ACCESS_KEY"`
		UseSSL          *bool  `default:"false" env:"S3_USE_SSL"`
		BucketName      string `default:"shift-tools" env:"S3_BUCKET_NAME"`
	}
	Metrics struct {
		Enabled *bool  `default:"true" env:"METRICS_ENABLED"`
		Path    string `default:"/metrics" env:"METRICS_PATH"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
