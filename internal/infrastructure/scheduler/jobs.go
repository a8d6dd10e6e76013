package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// Job names
const (
	JobExpireOrders       = "expire_stale_orders"
	JobPurgeNotifications = "purge_notifications"
	JobOutboxReport       = "outbox_dead_letter_report"
)

// OrderExpirer cancels unpaid online orders past their payment window
type OrderExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// NotificationPurger deletes old read notifications
type NotificationPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// DeadLetterReporter reports outbox jobs that exhausted their retries
type DeadLetterReporter interface {
	ReportDead(ctx context.Context) (int64, error)
}

// Specs holds the cron expression of each maintenance job. Empty disables the job.
type Specs struct {
	ExpireOrders       string
	PurgeNotifications string
	OutboxReport       string
}

// DefaultSpecs returns the default maintenance schedule
func DefaultSpecs() Specs {
	return Specs{
		ExpireOrders:       "@every 15m",
		PurgeNotifications: "30 3 * * *",
		OutboxReport:       "@hourly",
	}
}

// MaintenanceJobs builds the shop's periodic jobs
func MaintenanceJobs(specs Specs, orders OrderExpirer, notifications NotificationPurger, outbox DeadLetterReporter, logger *zap.Logger) []Job {
	var jobs []Job
	if specs.ExpireOrders != "" && orders != nil {
		jobs = append(jobs, Job{
			Name: JobExpireOrders,
			Spec: specs.ExpireOrders,
			Run: func(ctx context.Context) error {
				n, err := orders.ExpireStale(ctx)
				if n > 0 {
					logger.Info("Expired unpaid orders", zap.Int("count", n))
				}
				return err
			},
		})
	}
	if specs.PurgeNotifications != "" && notifications != nil {
		jobs = append(jobs, Job{
			Name: JobPurgeNotifications,
			Spec: specs.PurgeNotifications,
			Run: func(ctx context.Context) error {
				n, err := notifications.Purge(ctx)
				if n > 0 {
					logger.Info("Purged read notifications", zap.Int64("count", n))
				}
				return err
			},
		})
	}
	if specs.OutboxReport != "" && outbox != nil {
		jobs = append(jobs, Job{
			Name: JobOutboxReport,
			Spec: specs.OutboxReport,
			Run: func(ctx context.Context) error {
				_, err := outbox.ReportDead(ctx)
				return err
			},
		})
	}
	return jobs
}
