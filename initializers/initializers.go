package initializers

import (
	"context"
	"shift-tools-backend/config"
	"shift-tools-backend/db"
	"shift-tools-backend/fiberlog"
	"shift-tools-backend/lib/eventbus"
	xlsexport "shift-tools-backend/lib/export/xls"
	"shift-tools-backend/lib/metrics"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/payment"
	"shift-tools-backend/lib/repository"
	"shift-tools-backend/lib/smtp"
	tgclient "shift-tools-backend/lib/telegram/client"
	"shift-tools-backend/lib/telegram/membership"
	messagedelete "shift-tools-backend/lib/telegram/message-delete"
	tgwebhook "shift-tools-backend/lib/telegram/webhook"
	initchecker "shift-tools-backend/lib/utils/init-checker"
	vacancyhandler "shift-tools-backend/lib/vacancy"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	"shift-tools-backend/lib/vacancy/observers"
	"shift-tools-backend/lib/vacancy/recruitment"
	vacancyreport "shift-tools-backend/lib/vacancy/report"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	vacancytasks "shift-tools-backend/lib/vacancy/tasks"
	connectionhub "shift-tools-backend/lib/ws/hub/connection-hub"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

var (
	LoggerConfig *fiberlog.Config
	// Registry метрики сервиса, отдаются на METRICS_PATH
	Registry *prometheus.Registry
)

// InitBase конфигурация, логи и БД. Достаточно для миграций
func InitBase(migrate bool) {
	config.InitConfig()
	LoggerConfig = InitLogger()
	InitDBConnection(migrate)
}

// InitAllServices поднимает все сервисы. withWorkers запускает встроенный планировщик, если он включен
func InitAllServices(ctx context.Context, withWorkers bool) {
	config.InitConfig()
	InitBase(*config.Conf.Database.MigrateOnStart)
	InitSmtp()
	storage := InitS3(ctx)
	locker := InitLocker(ctx)
	location := loadLocation(config.Conf.App.TimeZone)

	Registry = prometheus.NewRegistry()
	Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(Registry)

	repo := repository.NewInstance(db.DB)
	tgclient.NewProvider(tgclient.Config{
		Host:          config.Conf.Telegram.APIHost,
		Token:         config.Conf.Telegram.BotToken,
		Timeout:       time.Duration(config.Conf.Telegram.RequestTimeout) * time.Second,
		MaxAttempts:   config.Conf.Telegram.MaxAttempts,
		RatePerSecond: config.Conf.Telegram.RatePerSecond,
	})
	bus := eventbus.New(collector)

	notification.NewHandler(tgclient.Instance, repo.Messages(), repo.Users(), smtp.Instance, collector, notification.Config{
		ProviderToken: config.Conf.Telegram.ProviderToken,
		Currency:      config.Conf.Telegram.Currency,
		StaffEmails:   config.Conf.Smtp.StaffEmail,
	})
	membership.NewHandler(tgclient.Instance, repo.UsersInGroups(), collector)
	messagedelete.NewHandler(tgclient.Instance, repo.Messages())
	vacancystatus.NewHandler(repo, bus)
	vacancyhandler.NewHandler(repo, bus, vacancystatus.Instance, messagedelete.Instance, vacancyhandler.Config{
		MaxPeopleCount: config.Conf.Workflow.MaxPeopleCount,
		Location:       location,
	})
	vacancycall.NewHandler(repo, bus, notification.Instance, membership.Instance, vacancycall.Config{
		PricePerWorker: config.Conf.Workflow.PricePerWorker,
		Currency:       config.Conf.Telegram.Currency,
	})
	recruitment.NewHandler(repo, bus, notification.Instance, membership.Instance, messagedelete.Instance, recruitment.Config{
		Location:       location,
		ResendInterval: time.Duration(config.Conf.Workflow.ResendIntervalMin) * time.Minute,
	})
	payment.NewHandler(repo, tgclient.Instance, storage, payment.Config{
		FontDir:     config.Conf.App.FontDir,
		ServiceName: config.Conf.App.Name,
	})
	xlsexport.NewHandler()
	vacancyreport.NewHandler(repo, xlsexport.Instance, storage)
	tgwebhook.NewHandler(repo, tgclient.Instance, notification.Instance, recruitment.Instance, vacancycall.Instance, payment.Instance, tgwebhook.Config{
		Secret:  config.Conf.Telegram.WebhookSecret,
		BaseURL: config.Conf.App.BaseURL,
	})
	vacancytasks.NewHandler(repo, bus, vacancycall.Instance, recruitment.Instance, locker, collector, vacancytasks.Config{
		Location:           location,
		BeforeStartWindow:  time.Duration(config.Conf.Workflow.BeforeStartWindowMin) * time.Minute,
		BeforeStartConfirm: time.Duration(config.Conf.Workflow.BeforeStartConfirmMin) * time.Minute,
		StartWindow:        time.Duration(config.Conf.Workflow.StartWindowMin) * time.Minute,
		CloseDelay:         time.Duration(config.Conf.Workflow.CloseDelayMin) * time.Minute,
		LockTTL:            time.Duration(config.Conf.Scheduler.IntervalSec) * time.Second * 2,
	})

	observers.Register(bus, observers.Deps{
		Repo:        repo,
		Notifier:    notification.Instance,
		Membership:  membership.Instance,
		Deleter:     messagedelete.Instance,
		Status:      vacancystatus.Instance,
		Calls:       vacancycall.Instance,
		Recruitment: recruitment.Instance,
		BaseURL:     config.Conf.App.BaseURL,
	})
	connectionhub.Init()
	for _, event := range eventbus.AllEvents {
		bus.Subscribe(event, connectionhub.Instance)
	}

	initchecker.CheckInit(
		"tgclient", tgclient.Instance,
		"notification", notification.Instance,
		"vacancy", vacancyhandler.Instance,
		"vacancycall", vacancycall.Instance,
		"recruitment", recruitment.Instance,
		"payment", payment.Instance,
		"report", vacancyreport.Instance,
		"webhook", tgwebhook.Instance,
		"tasks", vacancytasks.Instance,
		"connectionhub", connectionhub.Instance,
	)

	if withWorkers && *config.Conf.Scheduler.Internal {
		vacancytasks.StartWorkers(ctx, vacancytasks.Instance,
			time.Duration(config.Conf.Scheduler.FirstDelaySec)*time.Second,
			time.Duration(config.Conf.Scheduler.IntervalSec)*time.Second)
		log.Info("встроенный планировщик запущен")
	}
}

func loadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("time_zone", name).Warn("неизвестный часовой пояс, используется локальный")
		return time.Local
	}
	return location
}
