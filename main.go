package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"shift-tools-backend/config"
	apiv1 "shift-tools-backend/controllers/v1"
	"shift-tools-backend/controllers/v1/webhooks"
	"shift-tools-backend/db"
	"shift-tools-backend/fiberlog"
	"shift-tools-backend/initializers"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/ws"
	"shift-tools-backend/middleware"
	apimodels "shift-tools-backend/models/api"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shift-tools-backend",
	Short: "Сервис вакансий на смены: модерация, набор в группы Telegram, переклички, оплата",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запуск HTTP сервера, webhook Telegram и встроенного планировщика",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initializers.InitAllServices(ctx, true)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})
	app.Use(fiberRecover.New())
	app.Use(requestid.New())

	swaggerCfg := swagger.Config{
		Path:     "/swagger",
		FilePath: "./docs/swagger.json",
	}
	app.Use(swagger.New(swaggerCfg))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingDB(); err != nil {
			log.WithError(err).Error("БД недоступна")
			return c.Status(fiber.StatusServiceUnavailable).JSON(apimodels.NewError("БД недоступна"))
		}
		return c.JSON(apimodels.NewResponse(nil))
	})

	if *config.Conf.Metrics.Enabled {
		app.Get(config.Conf.Metrics.Path, adaptor.HTTPHandler(promhttp.HandlerFor(initializers.Registry, promhttp.HandlerOpts{})))
	}

	//api
	apiV1 := fiber.New()
	apiV1.Use(fiberlog.New(*initializers.LoggerConfig))
	if *config.Conf.App.ErrNotify {
		apiV1.Use(middleware.ErrNotify(notification.Instance))
	}
	app.Mount("/api/v1", apiV1)
	apiV1.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
	}))

	//webhooks, без JWT
	hooks := fiber.New()
	apiV1.Mount("/webhooks", hooks)
	hooks.Use(middleware.WithBodyLimit(1024 * 1024))
	webhooks.InitTelegramWebhookRouters(hooks)

	//vacancy
	vacancy := fiber.New()
	apiV1.Mount("/vacancy", vacancy)
	vacancy.Use(middleware.AuthorizationRequired())
	apiv1.InitVacancyApiRouters(vacancy)

	//tasks
	tasks := fiber.New()
	apiV1.Mount("/tasks", tasks)
	tasks.Use(middleware.AuthorizationRequired())
	apiv1.InitTasksApiRouters(tasks)

	//лента событий
	feed := fiber.New()
	apiV1.Mount("/ws", feed)
	feed.Use(middleware.AuthorizationRequired())
	feed.Use(middleware.StaffRequired())
	ws.InitWs(feed)

	// gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-c:
		case <-ctx.Done():
			return
		}
		log.Info("Gracefully shutting down...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Error when try gracefully shutting down")
		}
		time.Sleep(time.Second)
		log.Info("Gracefully shutting down finished")
	}()

	// run HTTP server
	if err := app.Listen(fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)); err != nil {
		log.WithError(err).Error("ошибка запуска HTTP сервера")
		cancel()
		wg.Wait()
		return err
	}

	cancel()
	wg.Wait()
	log.Info("HTTP server successfully stopped")
	return nil
}
