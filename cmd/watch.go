package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/go-co-op/gocron/v2"
	"github.com/rm-hull/border-filters/internal/batch"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the watch job every five minutes.
const DefaultSchedule = "*/5 * * * *"

// NewWatcher filters every new file in dir on the given cron schedule.
// Files that already have an output are skipped, and a failing file does
// not stop the others. The first run happens before the scheduler starts.
func NewWatcher(ctx context.Context, dir, schedule string, opts FilterOptions) (gocron.Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	processor, err := opts.NewProcessor()
	if err != nil {
		return nil, err
	}

	runner := batch.NewRunner(processor, batch.Options{
		RecordLog:    batch.NewRecordLog(opts.RecordLog),
		KeepGoing:    true,
		Preview:      opts.Preview,
		SkipExisting: true,
	})

	input := filepath.Join(dir, batch.Wildcard)
	task := func() {
		if _, err := runner.Run(ctx, input); err != nil {
			log.Printf("Errors occurred: %v", err)
		}
	}

	if _, err := runner.Run(ctx, input); err != nil {
		log.Printf("Initial run of job reported errors: %v", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(task),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	log.Printf("Watching %s (schedule=%s)", dir, schedule)
	scheduler.Start()
	return scheduler, nil
}

// Watch runs NewWatcher until ctx is cancelled.
func Watch(ctx context.Context, dir, schedule string, opts FilterOptions) error {
	scheduler, err := NewWatcher(ctx, dir, schedule, opts)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Println("Shutting down scheduler")
	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}
