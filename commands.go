package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"shift-tools-backend/config"
	"shift-tools-backend/initializers"
	authutils "shift-tools-backend/lib/utils/auth-utils"
	vacancytasks "shift-tools-backend/lib/vacancy/tasks"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Миграция структуры БД и заведение сотрудников из настроек",
	RunE: func(cmd *cobra.Command, args []string) error {
		initializers.InitBase(true)
		return nil
	},
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Задачи планировщика для внешнего cron",
}

var taskRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Однократный запуск задачи планировщика",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		initializers.InitAllServices(ctx, false)

		ran, err := vacancytasks.Instance.Run(ctx, args[0])
		if err != nil {
			if errors.Is(err, vacancytasks.ErrUnknownTask) {
				return errors.Errorf("%v, доступные задачи: %s", err, strings.Join(vacancytasks.Instance.Names(), ", "))
			}
			return err
		}
		if !ran {
			log.WithField("task", args[0]).Warn("задача уже выполняется другим процессом")
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Выпуск JWT для пользователя Telegram",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.InitConfig()
		userID, err := cmd.Flags().GetInt64("user")
		if err != nil {
			return err
		}
		if userID == 0 {
			return errors.New("не указан пользователь")
		}
		isStaff, err := cmd.Flags().GetBool("staff")
		if err != nil {
			return err
		}
		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		token, err := authutils.GetToken(userID, name, isStaff)
		if err != nil {
			return errors.Wrap(err, "ошибка выпуска токена")
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	taskCmd.AddCommand(taskRunCmd)

	tokenCmd.Flags().Int64("user", 0, "telegram id пользователя")
	tokenCmd.Flags().String("name", "", "имя пользователя")
	tokenCmd.Flags().Bool("staff", false, "токен сотрудника")
}
