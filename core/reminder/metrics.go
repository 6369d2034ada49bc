package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantcare_reminder_sweeps_total",
		Help: "Number of reminder sweeps run, scheduled or manual.",
	})

	// status: sent | failed
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_reminder_notifications_total",
			Help: "Watering reminders handed to the mail port.",
		},
		[]string{"status"},
	)

	// stage: plants | send | panic
	userFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_reminder_user_failures_total",
			Help: "Users skipped during a sweep because of an error.",
		},
		[]string{"stage"},
	)

	invalidPlantsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantcare_reminder_invalid_plants_total",
		Help: "Plants excluded from a sweep because of an invalid watering frequency.",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plantcare_reminder_sweep_duration_seconds",
		Help:    "Reminder sweep duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	})
)
