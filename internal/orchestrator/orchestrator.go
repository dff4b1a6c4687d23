// Package orchestrator wires the pipeline stages: reference capture,
// per-account fleet enumeration and queue scoring.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"patchinspect/internal/compliance"
	"patchinspect/internal/fleet"
	"patchinspect/internal/models"
	aws "patchinspect/internal/providers/aws"
	"patchinspect/internal/reference"
	"patchinspect/internal/report"
	"patchinspect/pkg/logging"
)

const (
	stageReference = "reference"
	stageEnumerate = "enumerate"
	stageScore     = "score"
	stageRun       = "run"

	receiveBatch = 10
	receiveWait  = 20 * time.Second
	// drainEmptyPolls consecutive empty receives end a drain. Together with
	// receiveWait this outlasts the largest enqueue delay.
	drainEmptyPolls = 2
)

// Service orchestrates the patch compliance pipeline.
type Service struct {
	config   Config
	deps     Dependencies
	logger   logging.Logger
	recorder Recorder
}

// NewService creates a new orchestrator service with the given configuration.
func NewService(config Config, deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	var recorder Recorder = noopRecorder{}
	if deps.Recorder != nil {
		recorder = deps.Recorder
	}
	return &Service{
		config:   config,
		deps:     deps,
		logger:   logger,
		recorder: recorder,
	}
}

// NewDefaultService creates a new service backed by AWS. The reference stage
// and the queue run in the account of the default credentials; regional
// clients assume the configured role in each target account.
func NewDefaultService(ctx context.Context, config Config, recorder Recorder, logger logging.Logger) (*Service, error) {
	sessions, err := aws.NewSessionsWithDefaultConfig(ctx, config.Settings.RoleName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS sessions: %w", err)
	}

	base := sessions.Base()
	fleetOpts := []aws.FleetOption{
		aws.WithThrottleDelay(config.Settings.ThrottleDelay),
		aws.WithFleetLogger(logger),
	}

	deps := Dependencies{
		Images:    aws.NewImageService(base),
		Compute:   aws.NewInstanceService(base),
		Inventory: aws.NewFleetService(base, fleetOpts...),
		Publisher: aws.NewEventPublisher(base, config.Settings.EventBus),
		Regional:  &sessionClients{sessions: sessions, opts: fleetOpts},
		Printer:   report.DefaultPrinter{},
		Recorder:  recorder,
		Logger:    logger,
	}
	if config.Settings.QueueURL != "" {
		deps.Queue = aws.NewQueueService(base, config.Settings.QueueURL)
	}
	if config.Settings.FindingsBucket != "" {
		deps.Archive = aws.NewFindingArchive(base, config.Settings.FindingsBucket, config.Settings.FindingsPrefix)
	}

	return NewService(config, deps), nil
}

// CaptureReference builds the reference snapshot and announces it to every
// target account.
func (s *Service) CaptureReference(ctx context.Context) StageResult {
	start := time.Now()
	result, err := s.captureReference(ctx)
	s.recorder.StageCompleted(stageReference, time.Since(start), err)
	return result
}

func (s *Service) captureReference(ctx context.Context) (StageResult, error) {
	builder, err := s.newBuilder()
	if err != nil {
		return failed(err.Error()), err
	}

	snapshot, published, err := builder.Run(ctx, s.config.Fleet.Accounts)
	s.recorder.ReferencesCaptured(len(snapshot))

	switch {
	case err != nil && published == 0:
		return failed(fmt.Sprintf("error publishing reference snapshot: %v", err)), err
	case len(snapshot) == 0:
		return ok("No reference instances captured, nothing published"), nil
	case err != nil:
		return ok(fmt.Sprintf("Published %d reference instances to %d of %d accounts", len(snapshot), published, len(s.config.Fleet.Accounts))), err
	default:
		return ok(fmt.Sprintf("Published %d reference instances to %d accounts", len(snapshot), published)), nil
	}
}

// EnumerateAccount scans every configured region of the account named in
// event and queues the instances matching its snapshot.
func (s *Service) EnumerateAccount(ctx context.Context, event models.ReferenceReadyEvent) StageResult {
	start := time.Now()
	result, err := s.enumerateAccount(ctx, event)
	s.recorder.StageCompleted(stageEnumerate, time.Since(start), err)
	return result
}

func (s *Service) enumerateAccount(ctx context.Context, event models.ReferenceReadyEvent) (StageResult, error) {
	if len(event.InstanceDetails) == 0 {
		return failed("No compliant instance available"), nil
	}
	if err := s.validateEnumerate(event.AccountDetails); err != nil {
		return failed(err.Error()), err
	}

	coordinator := fleet.NewCoordinator(s.coordinatorConfig(), s.newScanner, s.logger)
	summary := coordinator.Run(ctx, event.InstanceDetails, event.AccountDetails)

	failedRegions := summary.Failed()
	if len(summary.Regions) > 0 && len(failedRegions) == len(summary.Regions) {
		err := fmt.Errorf("all %d regions failed for account %s: %w", len(failedRegions), summary.Account.ID, failedRegions[0].Err)
		return failed(err.Error()), err
	}

	return ok(fmt.Sprintf("Successfully initiated PatchInspect for account %s: %d instances queued across %d regions, %d regions failed",
		summary.Account.ID, summary.Published(), len(summary.Regions), len(failedRegions))), nil
}

// ScoreQueue consumes the scoring queue, publishes a finding per message and
// prints the findings. With once set a single receive is made; otherwise the
// queue is drained until it stays empty.
func (s *Service) ScoreQueue(ctx context.Context, once bool) StageResult {
	start := time.Now()
	records, failures, err := s.consume(ctx, once)
	s.recorder.StageCompleted(stageScore, time.Since(start), err)
	if err != nil {
		return failed(err.Error())
	}

	if err := s.generateReport(records); err != nil {
		return failed(fmt.Sprintf("error generating report: %v", err))
	}
	return ok(fmt.Sprintf("Scored %d instances, %d messages failed", len(records), failures))
}

// RunAll executes every stage in one process. Accounts are enumerated one
// after the other; the queue is drained once all of them are done. The
// snapshot is handed over in memory instead of through the event bus.
func (s *Service) RunAll(ctx context.Context) StageResult {
	start := time.Now()
	result, err := s.runAll(ctx)
	s.recorder.StageCompleted(stageRun, time.Since(start), err)
	return result
}

func (s *Service) runAll(ctx context.Context) (StageResult, error) {
	if err := s.config.Settings.ValidateScore(); err != nil {
		return failed(err.Error()), err
	}
	builder, err := s.newBuilder()
	if err != nil {
		return failed(err.Error()), err
	}

	snapshot, err := builder.Build(ctx)
	s.recorder.ReferencesCaptured(len(snapshot))
	if err != nil {
		return failed(fmt.Sprintf("error building reference snapshot: %v", err)), err
	}
	if len(snapshot) == 0 {
		s.logger.Warn("No reference instances were captured, nothing to audit")
		return ok("No reference instances captured, nothing audited"), nil
	}

	enumerated := 0
	for _, account := range s.config.Fleet.Accounts {
		if ctx.Err() != nil {
			break
		}
		result := s.EnumerateAccount(ctx, models.ReferenceReadyEvent{InstanceDetails: snapshot, AccountDetails: account})
		if !result.Succeeded() {
			s.logger.Error("Enumeration failed for account %s (%s): %s", account.ID, account.Name, result.Message)
			continue
		}
		enumerated++
	}

	scored := s.ScoreQueue(ctx, false)
	message := fmt.Sprintf("Audited %d of %d accounts. %s", enumerated, len(s.config.Fleet.Accounts), scored.Message)
	if !scored.Succeeded() {
		return failed(message), fmt.Errorf("%s", scored.Message)
	}
	return ok(message), nil
}

func (s *Service) newBuilder() (*reference.Builder, error) {
	if err := s.validateReference(); err != nil {
		return nil, err
	}
	return reference.NewBuilder(
		reference.BuilderConfig{
			Images:           s.config.Fleet.Images,
			ScanType:         s.config.Settings.ScanType,
			ConcurrencyLimit: s.config.Settings.Concurrency,
		},
		reference.NewSelector(s.deps.Images),
		s.newCapturer,
		s.deps.Publisher,
		s.logger,
	), nil
}

func (s *Service) newCapturer() reference.Capturer {
	return reference.NewController(s.deps.Compute, s.deps.Inventory, s.lifecycleConfig(), s.logger)
}

func (s *Service) lifecycleConfig() reference.LifecycleConfig {
	settings := s.config.Settings
	cfg := reference.DefaultLifecycleConfig()
	cfg.SecurityGroupID = settings.SecurityGroupID
	cfg.SubnetID = settings.SubnetID
	cfg.InstanceProfileArn = settings.InstanceProfileArn
	cfg.BootGrace = settings.BootGrace
	cfg.PollInterval = settings.PollInterval
	cfg.InventorySettle = settings.InventorySettle
	cfg.ReadyTimeout = settings.ReadyTimeout
	cfg.Transient = aws.IsThrottling
	return cfg
}

func (s *Service) coordinatorConfig() fleet.CoordinatorConfig {
	settings := s.config.Settings
	return fleet.CoordinatorConfig{
		Regions:    s.config.Fleet.Regions,
		Stagger:    settings.RegionStagger,
		Join:       settings.JoinMode,
		MaxWait:    settings.MaxWait,
		SoftSettle: settings.SoftSettle,
	}
}

func (s *Service) newScanner(ctx context.Context, account models.Account, region string) (fleet.RegionScanner, error) {
	lister, err := s.deps.Regional.InstanceLister(ctx, account.ID, region)
	if err != nil {
		return nil, fmt.Errorf("error creating session for account %s in %s: %w", account.ID, region, err)
	}
	enumeratorConfig := fleet.EnumeratorConfig{
		ListRetryDelay:  s.config.Settings.ListRetryDelay,
		MaxEnqueueDelay: s.config.Settings.MaxEnqueueDelay,
		Transient:       aws.IsRetryable,
	}
	return fleet.NewEnumerator(lister, s.deps.Queue, enumeratorConfig, s.logger, s.recorder), nil
}

// consume receives batches until the stop condition and returns the
// published records and the number of messages that failed.
func (s *Service) consume(ctx context.Context, once bool) ([]models.ComplianceRecord, int, error) {
	if err := s.config.Settings.ValidateScore(); err != nil {
		return nil, 0, err
	}
	if s.deps.Queue == nil {
		return nil, 0, fmt.Errorf("no scoring queue configured")
	}

	var records []models.ComplianceRecord
	failures, empty := 0, 0

	for {
		messages, err := s.deps.Queue.Receive(ctx, receiveBatch, receiveWait)
		if err != nil {
			return records, failures, fmt.Errorf("error receiving from queue: %w", err)
		}

		if len(messages) == 0 {
			empty++
		} else {
			empty = 0
			batch := s.scoreBatch(ctx, messages)
			records = append(records, batch.records...)
			failures += batch.failures
			s.settle(ctx, batch.settled)
		}

		if once || empty >= drainEmptyPolls {
			return records, failures, nil
		}
	}
}

type regionKey struct {
	accountID string
	region    string
}

type batchResult struct {
	records  []models.ComplianceRecord
	settled  []aws.Message
	failures int
}

// scoreBatch scores messages in order. Consecutive messages for the same
// account and region share one inventory client. Messages that were
// published, or that can never be decoded, are settled; the rest stay on the
// queue for redelivery.
func (s *Service) scoreBatch(ctx context.Context, messages []aws.Message) batchResult {
	var (
		result  batchResult
		current regionKey
		scorer  *compliance.Scorer
	)

	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}
		log := s.logger.WithField("message_id", msg.ID)

		candidate, err := compliance.DecodeMessage(msg.Body)
		if err != nil {
			log.Error("Discarding message %s: %v", msg.ID, err)
			result.settled = append(result.settled, msg)
			result.failures++
			continue
		}

		key := regionKey{accountID: candidate.AccountID, region: candidate.Region}
		if scorer == nil || key != current {
			inventory, err := s.deps.Regional.InventorySource(ctx, key.accountID, key.region)
			if err != nil {
				log.Error("Error creating session for account %s in %s: %v", key.accountID, key.region, err)
				scorer = nil
				result.failures++
				continue
			}
			scorer, current = compliance.NewScorer(inventory, s.logger), key
		}

		record, err := scorer.Evaluate(ctx, candidate)
		if err != nil {
			log.Error("Error scoring instance %s: %v", candidate.InstanceID, err)
			result.failures++
			continue
		}

		if err := s.deps.Publisher.Publish(ctx, compliance.DetailTypeFindings, record); err != nil {
			log.Error("Error publishing finding for instance %s: %v", record.InstanceID, err)
			result.failures++
			continue
		}
		s.recorder.FindingPublished(record)

		if s.deps.Archive != nil {
			if err := s.deps.Archive.Store(ctx, record); err != nil {
				log.Warn("Failed to archive finding for instance %s: %v", record.InstanceID, err)
			}
		}

		result.records = append(result.records, record)
		result.settled = append(result.settled, msg)
	}

	return result
}

func (s *Service) settle(ctx context.Context, messages []aws.Message) {
	for _, msg := range messages {
		if err := s.deps.Queue.Delete(ctx, msg.ReceiptHandle); err != nil {
			s.logger.Warn("Failed to delete message %s: %v", msg.ID, err)
		}
	}
}

// validateReference checks what the reference stage needs.
func (s *Service) validateReference() error {
	if err := s.config.Settings.ValidateReference(); err != nil {
		return err
	}
	if len(s.config.Fleet.Accounts) == 0 {
		return fmt.Errorf("at least one target account is required")
	}
	if len(s.config.Fleet.Images) == 0 {
		return fmt.Errorf("at least one reference image is required")
	}
	return nil
}

// validateEnumerate checks what the enumeration stage needs.
func (s *Service) validateEnumerate(account models.Account) error {
	if err := s.config.Settings.ValidateEnumerate(); err != nil {
		return err
	}
	if account.ID == "" {
		return fmt.Errorf("event has no account id")
	}
	if s.deps.Queue == nil {
		return fmt.Errorf("no scoring queue configured")
	}
	return nil
}

// generateReport prints the findings of a scoring run.
func (s *Service) generateReport(records []models.ComplianceRecord) error {
	if s.deps.Printer == nil {
		return nil
	}
	return s.deps.Printer.PrintReport(records, s.getOutputFormat())
}

// getOutputFormat converts the string format to report.OutputFormatType.
func (s *Service) getOutputFormat() report.OutputFormatType {
	switch strings.ToUpper(s.config.OutputFormat) {
	case "JSON":
		return report.OutputFormatTypeJSON
	default:
		return report.OutputFormatTypeTABLE
	}
}

// sessionClients builds SSM-backed clients in a target account.
type sessionClients struct {
	sessions *aws.Sessions
	opts     []aws.FleetOption
}

func (c *sessionClients) InstanceLister(ctx context.Context, accountID, region string) (fleet.InstanceLister, error) {
	svc, err := c.fleetService(ctx, accountID, region)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (c *sessionClients) InventorySource(ctx context.Context, accountID, region string) (compliance.InventorySource, error) {
	svc, err := c.fleetService(ctx, accountID, region)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (c *sessionClients) fleetService(ctx context.Context, accountID, region string) (*aws.FleetService, error) {
	if accountID == "-" {
		accountID = ""
	}
	if region == "-" {
		region = ""
	}
	cfg, err := c.sessions.ForAccount(ctx, accountID, region)
	if err != nil {
		return nil, err
	}
	return aws.NewFleetService(cfg, c.opts...), nil
}
