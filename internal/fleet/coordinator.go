package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"patchinspect/internal/models"
	"patchinspect/internal/retry"
	"patchinspect/pkg/logging"
)

// JoinMode decides how long the coordinator waits for its region workers.
type JoinMode string

const (
	// JoinBarrier waits for every region, optionally capped by MaxWait.
	JoinBarrier JoinMode = "barrier"
	// JoinSoft waits a fixed settle period and returns; late regions keep
	// running and are reported as pending.
	JoinSoft JoinMode = "soft"
)

var DefaultRegions = []string{"ap-south-1", "ap-southeast-1", "us-east-1", "us-east-2"}

const (
	DefaultStagger    = 2 * time.Second
	DefaultSoftSettle = 30 * time.Second
)

// ErrRegionPending marks a region that had not reported when a soft join returned.
var ErrRegionPending = errors.New("region still running")

// RegionScanner scans one account and region. *Enumerator implements it.
type RegionScanner interface {
	Scan(ctx context.Context, snapshot models.ReferenceSnapshot, account models.Account, region string) (int, error)
}

// ScannerFactory builds a scanner for an account and region, typically by
// assuming a role in the account.
type ScannerFactory func(ctx context.Context, account models.Account, region string) (RegionScanner, error)

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	Regions    []string
	Stagger    time.Duration
	Join       JoinMode
	MaxWait    time.Duration // barrier only; 0 waits indefinitely
	SoftSettle time.Duration // soft only
}

// DefaultCoordinatorConfig returns the production regions and timings.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Regions:    DefaultRegions,
		Stagger:    DefaultStagger,
		Join:       JoinBarrier,
		SoftSettle: DefaultSoftSettle,
	}
}

// RegionResult is the outcome of one region worker.
type RegionResult struct {
	Region    string
	Published int
	Err       error
}

// Summary collects the region results of one account.
type Summary struct {
	Account models.Account
	Regions []RegionResult
}

// Published returns the number of messages queued across all regions.
func (s Summary) Published() int {
	total := 0
	for _, r := range s.Regions {
		total += r.Published
	}
	return total
}

// Failed returns the regions that ended in error, pending ones included.
func (s Summary) Failed() []RegionResult {
	var failed []RegionResult
	for _, r := range s.Regions {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Coordinator runs one worker per region for an account.
type Coordinator struct {
	config     CoordinatorConfig
	newScanner ScannerFactory
	logger     logging.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(config CoordinatorConfig, newScanner ScannerFactory, logger logging.Logger) *Coordinator {
	return &Coordinator{
		config:     config,
		newScanner: newScanner,
		logger:     logger,
	}
}

// Run scans every configured region of account. A failing region never
// affects the others; its error is reported in the summary.
func (c *Coordinator) Run(ctx context.Context, snapshot models.ReferenceSnapshot, account models.Account) Summary {
	summary := Summary{Account: account}
	if len(c.config.Regions) == 0 {
		return summary
	}

	runCtx := ctx
	if c.config.Join != JoinSoft && c.config.MaxWait > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.config.MaxWait)
		defer cancel()
	}

	limit := rate.Inf
	if c.config.Stagger > 0 {
		limit = rate.Every(c.config.Stagger)
	}
	limiter := rate.NewLimiter(limit, 1)

	var g errgroup.Group
	resultChan := make(chan RegionResult, len(c.config.Regions))
	started := make([]string, 0, len(c.config.Regions))

	for _, region := range c.config.Regions {
		if err := limiter.Wait(runCtx); err != nil {
			summary.Regions = append(summary.Regions, RegionResult{Region: region, Err: err})
			continue
		}
		started = append(started, region)

		g.Go(func() error {
			resultChan <- c.scanRegion(runCtx, snapshot, account, region)
			return nil
		})
	}

	if c.config.Join == JoinSoft {
		summary.Regions = append(summary.Regions, c.softJoin(ctx, resultChan, started)...)
	} else {
		_ = g.Wait()
		close(resultChan)
		for result := range resultChan {
			summary.Regions = append(summary.Regions, result)
		}
	}

	c.logger.Info("Account %s (%s): %d instances published across %d regions, %d regions failed",
		account.ID, account.Name, summary.Published(), len(summary.Regions), len(summary.Failed()))
	return summary
}

// softJoin waits the settle period and reports whatever has finished.
// Regions that are still running are reported as pending.
func (c *Coordinator) softJoin(ctx context.Context, resultChan <-chan RegionResult, started []string) []RegionResult {
	_ = retry.Wait(ctx, c.config.SoftSettle)

	reported := make(map[string]bool, len(started))
	var results []RegionResult

drain:
	for len(results) < len(started) {
		select {
		case result := <-resultChan:
			reported[result.Region] = true
			results = append(results, result)
		default:
			break drain
		}
	}

	for _, region := range started {
		if !reported[region] {
			c.logger.Warn("Region %s has not finished after %s, leaving it running", region, c.config.SoftSettle)
			results = append(results, RegionResult{Region: region, Err: ErrRegionPending})
		}
	}
	return results
}

func (c *Coordinator) scanRegion(ctx context.Context, snapshot models.ReferenceSnapshot, account models.Account, region string) RegionResult {
	result := RegionResult{Region: region}

	scanner, err := c.newScanner(ctx, account, region)
	if err != nil {
		result.Err = fmt.Errorf("error preparing scan of %s: %w", region, err)
		c.logger.Error("Account %s region %s: %v", account.ID, region, result.Err)
		return result
	}

	result.Published, result.Err = scanner.Scan(ctx, snapshot, account, region)
	if result.Err != nil {
		c.logger.Error("Account %s region %s: %v", account.ID, region, result.Err)
	}
	return result
}
