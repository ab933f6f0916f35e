// Package sweep runs the publisher's periodic self-report as a cron
// job (SPEC_FULL.md DOMAIN STACK), adapted from the teacher's
// CronService (internal/service/cron_service.go): the same
// addStartupJob/addScheduledJob shape, logging a job's start and
// completion, but carrying exactly one job — "how many subscribers are
// currently registered" — independent of the monitor's own 5s sweep
// ticker, which stays a plain time.Ticker per §4.6's literal cadence.
package sweep

import (
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
	"github.com/robfig/cron/v3"
)

// Reporter is anything that can report the current subscriber count;
// satisfied by *monitor.Monitor.
type Reporter interface {
	Count() int
}

// Start registers and starts the self-report job. The returned
// cron.Cron must be stopped by the caller on shutdown.
func Start(reporter Reporter) *cron.Cron {
	c := cron.New()

	const jobName = "Subscriber Count Self-Report"
	_, err := c.AddFunc("@every 30s", func() {
		zaplogger.Info("STARTED SCHEDULED JOB", zaplogger.Fields{"job": jobName})
		count := reporter.Count()
		zaplogger.Info("COMPLETED SCHEDULED JOB", zaplogger.Fields{
			"job":         jobName,
			"subscribers": count,
		})
	})
	if err != nil {
		zaplogger.Error("FAILED TO QUEUE SCHEDULED JOB", zaplogger.Fields{
			"job":   jobName,
			"error": err.Error(),
		})
		return c
	}

	zaplogger.Info("QUEUED SCHEDULED job", zaplogger.Fields{"job": jobName})
	c.Start()
	return c
}
