// Package fleet fans the reference snapshot out over the regions of an
// account: it lists every SSM-managed server, matches it to a reference by
// platform and queues the matches for compliance scoring.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"patchinspect/internal/models"
	"patchinspect/internal/retry"
	"patchinspect/pkg/logging"
)

// InstanceLister lists the online SSM-managed instances of one account and region.
//
//go:generate mockery --name=InstanceLister --output=./mocks
type InstanceLister interface {
	ListOnlineInstances(ctx context.Context) ([]models.CandidateInstance, error)
}

// Enqueuer hands a message to the scoring queue with a delivery delay hint.
//
//go:generate mockery --name=Enqueuer --output=./mocks
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, delay time.Duration) error
}

// Recorder observes how many candidates a region produced.
type Recorder interface {
	InstancesPublished(accountID, region string, count int)
}

const (
	DefaultListRetryDelay  = 5 * time.Second
	DefaultMaxEnqueueDelay = 30 * time.Second
)

// EnumeratorConfig holds the timings of an Enumerator.
type EnumeratorConfig struct {
	// ListRetryDelay is waited before a failed listing is restarted from scratch.
	ListRetryDelay time.Duration
	// MaxEnqueueDelay bounds the random delivery delay of each queued message.
	MaxEnqueueDelay time.Duration
	// Transient reports whether a listing error is worth retrying. Nil
	// retries every error.
	Transient func(error) bool
}

// DefaultEnumeratorConfig returns the production timings.
func DefaultEnumeratorConfig() EnumeratorConfig {
	return EnumeratorConfig{
		ListRetryDelay:  DefaultListRetryDelay,
		MaxEnqueueDelay: DefaultMaxEnqueueDelay,
	}
}

// Enumerator scans a single account and region.
type Enumerator struct {
	lister   InstanceLister
	queue    Enqueuer
	config   EnumeratorConfig
	logger   logging.Logger
	recorder Recorder
	delay    func(max time.Duration) time.Duration
}

// NewEnumerator creates an Enumerator. recorder may be nil.
func NewEnumerator(lister InstanceLister, queue Enqueuer, config EnumeratorConfig, logger logging.Logger, recorder Recorder) *Enumerator {
	return &Enumerator{
		lister:   lister,
		queue:    queue,
		config:   config,
		logger:   logger,
		recorder: recorder,
		delay:    retry.JitterSeconds,
	}
}

// Scan lists the region, enqueues every match against snapshot and returns
// the number of messages queued. Finding nothing is not an error.
func (e *Enumerator) Scan(ctx context.Context, snapshot models.ReferenceSnapshot, account models.Account, region string) (int, error) {
	log := e.logger.WithField("account_id", account.ID).WithField("region", region)

	instances, err := e.listAll(ctx, log)
	if err != nil {
		return 0, err
	}
	if len(instances) == 0 {
		log.Info("No online instances found")
	}

	var errs []error
	count := 0
	for _, candidate := range Match(snapshot, instances, account, region) {
		if err := e.queue.Enqueue(ctx, candidate, e.delay(e.config.MaxEnqueueDelay)); err != nil {
			log.Error("Failed to enqueue instance %s: %v", candidate.InstanceID, err)
			errs = append(errs, fmt.Errorf("instance %s: %w", candidate.InstanceID, err))
			continue
		}
		count++
	}

	log.Info("%d instance details were published to SQS for account %s and region %s", count, account.ID, region)
	if e.recorder != nil {
		e.recorder.InstancesPublished(account.ID, region, count)
	}

	return count, errors.Join(errs...)
}

// listAll retries a failed listing from the first page until it succeeds,
// fails with a permanent error, or ctx is done.
func (e *Enumerator) listAll(ctx context.Context, log logging.Logger) ([]models.CandidateInstance, error) {
	var instances []models.CandidateInstance

	err := retry.Do(ctx, retry.Policy{
		Backoff:   retry.Fixed(e.config.ListRetryDelay),
		Retryable: e.config.Transient,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn("Listing instances failed (attempt %d), restarting in %s: %v", attempt, delay, err)
		},
	}, func(ctx context.Context) error {
		var err error
		instances, err = e.lister.ListOnlineInstances(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error listing instances: %w", err)
	}

	return instances, nil
}

// Match pairs every reference entry with every instance of the same platform
// name and version. Two entries sharing a platform both match, so an
// instance can be returned once per such entry. Entries are visited in
// instance id order to keep the output stable.
func Match(snapshot models.ReferenceSnapshot, instances []models.CandidateInstance, account models.Account, region string) []models.EnrichedCandidate {
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var matches []models.EnrichedCandidate
	for _, id := range ids {
		ref := snapshot[id]
		for _, instance := range instances {
			if instance.PlatformName != ref.PlatformName || instance.PlatformVersion != ref.PlatformVersion {
				continue
			}
			matches = append(matches, models.EnrichedCandidate{
				CandidateInstance: instance,
				Region:            region,
				AccountID:         account.ID,
				AccountName:       account.Name,
				ComplaintPackages: ref.ComplaintPackages,
				ScanType:          ref.ScanType,
				ScanTime:          ref.ScanTime,
			})
		}
	}

	return matches
}
