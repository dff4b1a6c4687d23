package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"patchinspect/internal/config"
	"patchinspect/internal/metrics"
	"patchinspect/internal/orchestrator"
	"patchinspect/pkg/logging"
)

// cronLogger routes scheduler messages to the application logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Printf(format string, args ...interface{}) {
	l.logger.Info(format, args...)
}

func (a *app) serveCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the full audit on a schedule and expose Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.service(cmd.Context(), true, output)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), service)
		},
	}

	cmd.Flags().String("schedule", "@daily", "Cron schedule of the audit (5-field spec or descriptor such as @every 12h)")
	cmd.Flags().String("metrics-addr", ":9090", "Listen address of the /metrics endpoint")
	cmd.Flags().StringVar(&output, "output", "json", "Output format: table or json")
	_ = a.v.BindPFlag(config.KeySchedule, cmd.Flags().Lookup("schedule"))
	_ = a.v.BindPFlag(config.KeyMetricsAddr, cmd.Flags().Lookup("metrics-addr"))
	return cmd
}

// serve schedules RunAll and blocks on the metrics endpoint until ctx ends.
func (a *app) serve(ctx context.Context, service *orchestrator.Service) error {
	return a.schedule(ctx, service.RunAll, func(ctx context.Context) error {
		return metrics.Serve(ctx, a.settings.MetricsAddr, a.registry, a.logger)
	})
}

// schedule runs job on the configured schedule for as long as block runs.
// A run still in progress when the next one is due makes the scheduler skip
// it. Running jobs are cancelled before the scheduler is stopped.
func (a *app) schedule(ctx context.Context, job func(context.Context) orchestrator.StageResult, block func(context.Context) error) error {
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(cronLogger{a.logger}))))

	id, err := scheduler.AddFunc(a.settings.Schedule, func() {
		result := job(jobCtx)
		if !result.Succeeded() {
			a.logger.Error("Scheduled audit failed: %s", result.Message)
			return
		}
		a.logger.Info("Scheduled audit finished: %s", result.Message)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", a.settings.Schedule, err)
	}

	scheduler.Start()
	defer func() {
		cancel()
		<-scheduler.Stop().Done()
	}()
	a.logger.Info("Audit scheduled with %q, next run at %s", a.settings.Schedule, scheduler.Entry(id).Next)

	return block(ctx)
}
