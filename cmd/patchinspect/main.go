package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"patchinspect/internal/config"
	"patchinspect/internal/fleet"
	"patchinspect/internal/metrics"
	"patchinspect/internal/models"
	"patchinspect/internal/orchestrator"
	"patchinspect/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	v          *viper.Viper
	configFile string

	settings *config.Settings
	logger   *logging.DefaultLogger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:           "patchinspect",
		Short:         "Audit the patch level of an EC2 fleet against freshly booted reference images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to a settings file (yaml, json or toml)")
	flags.String("fleet", "", "Path to the HCL fleet file listing accounts, regions and reference images")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "json", "Log format: json or console")
	_ = a.v.BindPFlag(config.KeyFleetFile, flags.Lookup("fleet"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	rootCmd.AddCommand(
		a.referenceCmd(),
		a.enumerateCmd(),
		a.scoreCmd(),
		a.runCmd(),
		a.serveCmd(),
	)
	return rootCmd
}

func (a *app) load() error {
	settings, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = logging.NewLogger(os.Stderr, logging.StringToLogLevel(settings.LogLevel), logging.StringToFormat(settings.LogFormat))
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewMetrics(a.registry)
	return nil
}

// loadFleet reads the fleet file. Without one, stages that do not need the
// account list fall back to the default regions and image catalog.
func (a *app) loadFleet(required bool) (config.Fleet, error) {
	if a.settings.FleetFile == "" {
		if required {
			return config.Fleet{}, fmt.Errorf("a fleet file is required (--fleet or PATCH_INSPECT_FLEET_FILE)")
		}
		return config.Fleet{
			Regions: append([]string(nil), fleet.DefaultRegions...),
			Images:  config.DefaultImages(),
		}, nil
	}

	f, err := config.NewFleetLoader(a.logger).Load(a.settings.FleetFile)
	if err != nil {
		return config.Fleet{}, err
	}
	return *f, nil
}

func (a *app) service(ctx context.Context, fleetRequired bool, output string) (*orchestrator.Service, error) {
	f, err := a.loadFleet(fleetRequired)
	if err != nil {
		return nil, err
	}

	cfg := orchestrator.Config{
		Settings:     *a.settings,
		Fleet:        f,
		OutputFormat: output,
	}
	service, err := orchestrator.NewDefaultService(ctx, cfg, a.metrics, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the service: %w", err)
	}
	return service, nil
}

// finish turns a stage result into the command outcome.
func (a *app) finish(result orchestrator.StageResult) error {
	if !result.Succeeded() {
		return fmt.Errorf("%s", result.Message)
	}
	a.logger.Info("%s", result.Message)
	return nil
}

func (a *app) referenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reference",
		Short: "Capture reference inventories and announce them to every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.service(cmd.Context(), true, "")
			if err != nil {
				return err
			}
			return a.finish(service.CaptureReference(cmd.Context()))
		},
	}
}

func (a *app) enumerateCmd() *cobra.Command {
	var eventPath string

	cmd := &cobra.Command{
		Use:   "enumerate",
		Short: "Queue the instances of one account that match a reference snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := readEvent(eventPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			service, err := a.service(cmd.Context(), false, "")
			if err != nil {
				return err
			}
			return a.finish(service.EnumerateAccount(cmd.Context(), event))
		},
	}

	cmd.Flags().StringVar(&eventPath, "event", "-", "Path to a listInstances event, or - for stdin")
	return cmd
}

func (a *app) scoreCmd() *cobra.Command {
	var (
		once   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score queued instances and publish their findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.service(cmd.Context(), false, output)
			if err != nil {
				return err
			}
			return a.finish(service.ScoreQueue(cmd.Context(), once))
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Receive a single batch instead of draining the queue")
	cmd.Flags().StringVar(&output, "output", "table", "Output format: table or json")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage for every account in this process",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.service(cmd.Context(), true, output)
			if err != nil {
				return err
			}
			return a.finish(service.RunAll(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&output, "output", "table", "Output format: table or json")
	return cmd
}

// readEvent decodes a listInstances event from path, or from stdin when path
// is "-". A full EventBridge envelope is unwrapped to its detail.
func readEvent(path string, stdin io.Reader) (models.ReferenceReadyEvent, error) {
	var event models.ReferenceReadyEvent

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return event, fmt.Errorf("error opening event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return event, fmt.Errorf("error reading event: %w", err)
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return event, fmt.Errorf("error decoding event: %w", err)
	}
	if len(envelope.Detail) > 0 {
		data = envelope.Detail
	}

	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("error decoding event detail: %w", err)
	}
	return event, nil
}
