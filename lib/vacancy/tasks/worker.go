package vacancytasks

import (
	"context"
	baseworker "shift-tools-backend/lib/utils/base-worker"
	"time"
)

// StartWorkers запускает все задачи планировщика внутри процесса с периодом interval
func StartWorkers(ctx context.Context, provider Provider, firstRunDelay, interval time.Duration) {
	for _, name := range provider.Names() {
		taskName := name
		worker := baseworker.NewInstance(taskName, firstRunDelay, interval)
		go worker.Run(ctx, func(ctx context.Context) {
			if _, err := provider.Run(ctx, taskName); err != nil {
				worker.GetLogger().
					WithError(err).
					Error("ошибка выполнения задачи")
			}
		})
	}
}
