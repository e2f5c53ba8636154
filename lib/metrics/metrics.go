package metrics

import (
	"shift-tools-backend/lib/eventbus"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	eventsPublished   *prometheus.CounterVec
	handlerFailures   *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	membershipActions *prometheus.CounterVec
	taskRuns          *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
}

func NewCollector(registerer prometheus.Registerer) *Collector {
	c := &Collector{
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_events_published_total",
			Help: "Total number of vacancy events published on the bus",
		}, []string{"event"}),
		handlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_event_handler_failures_total",
			Help: "Total number of failed event handler invocations",
		}, []string{"event"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_notifications_total",
			Help: "Outbound chat notifications by method and result",
		}, []string{"method", "result"}),
		membershipActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_membership_actions_total",
			Help: "Chat membership actions by action and result",
		}, []string{"action", "result"}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_task_runs_total",
			Help: "Scheduler entry point runs by task and result",
		}, []string{"task", "result"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shift_task_duration_seconds",
			Help:    "Scheduler entry point duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
	}
	registerer.MustRegister(
		c.eventsPublished,
		c.handlerFailures,
		c.notifications,
		c.membershipActions,
		c.taskRuns,
		c.taskDuration,
	)
	return c
}

func (c *Collector) EventPublished(event eventbus.Event) {
	c.eventsPublished.WithLabelValues(string(event)).Inc()
}

func (c *Collector) HandlerFailed(event eventbus.Event) {
	c.handlerFailures.WithLabelValues(string(event)).Inc()
}

func (c *Collector) NotificationSent(method string, err error) {
	c.notifications.WithLabelValues(method, result(err)).Inc()
}

func (c *Collector) MembershipAction(action string, err error) {
	c.membershipActions.WithLabelValues(action, result(err)).Inc()
}

func (c *Collector) TaskFinished(task string, started time.Time, err error) {
	c.taskRuns.WithLabelValues(task, result(err)).Inc()
	c.taskDuration.WithLabelValues(task).Observe(time.Since(started).Seconds())
}

func result(err error) string {
	if err != nil {
		return "fail"
	}
	return "success"
}
