package metrics

import (
	"shift-tools-backend/lib/eventbus"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	t.Run(`events check`, func(t *testing.T) {
		collector.EventPublished(eventbus.VacancyClose)
		collector.EventPublished(eventbus.VacancyClose)
		collector.HandlerFailed(eventbus.VacancyClose)
		require.Equal(t, float64(2), testutil.ToFloat64(collector.eventsPublished.WithLabelValues("VACANCY_CLOSE")))
		require.Equal(t, float64(1), testutil.ToFloat64(collector.handlerFailures.WithLabelValues("VACANCY_CLOSE")))
	})

	t.Run(`notifications check`, func(t *testing.T) {
		collector.NotificationSent("text", nil)
		collector.NotificationSent("text", errors.New("chat not found"))
		require.Equal(t, float64(1), testutil.ToFloat64(collector.notifications.WithLabelValues("text", "success")))
		require.Equal(t, float64(1), testutil.ToFloat64(collector.notifications.WithLabelValues("text", "fail")))
	})

	t.Run(`tasks check`, func(t *testing.T) {
		collector.TaskFinished("close_vacancy_task", time.Now(), nil)
		require.Equal(t, float64(1), testutil.ToFloat64(collector.taskRuns.WithLabelValues("close_vacancy_task", "success")))
	})
}
