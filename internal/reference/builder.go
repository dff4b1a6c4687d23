package reference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"patchinspect/internal/models"
	"patchinspect/pkg/logging"
)

// DetailTypeListInstances is the event detail type announcing a new snapshot.
const DetailTypeListInstances = "listInstances"

// Publisher sends a structured event onto the event bus.
//
//go:generate mockery --name=Publisher --output=./mocks
type Publisher interface {
	Publish(ctx context.Context, detailType string, detail any) error
}

// Capturer captures the inventory of a reference instance booted from an image.
type Capturer interface {
	Capture(ctx context.Context, imageID string) (*models.ReferenceEntry, error)
}

// ImageSelector resolves an image spec to the image id at a generation offset.
type ImageSelector interface {
	Select(ctx context.Context, spec models.ImageSpec, offset int) (string, error)
}

// BuilderConfig configures a Builder.
type BuilderConfig struct {
	Images           []models.ImageSpec
	ScanType         string
	ConcurrencyLimit int // 0 = one goroutine per image
}

// Builder produces a reference snapshot by capturing every catalog image
// concurrently, then announces it to each target account.
type Builder struct {
	config      BuilderConfig
	selector    ImageSelector
	newCapturer func() Capturer
	publisher   Publisher
	logger      logging.Logger
	now         func() time.Time
}

// NewBuilder creates a Builder. newCapturer is called once per image.
func NewBuilder(
	config BuilderConfig,
	selector ImageSelector,
	newCapturer func() Capturer,
	publisher Publisher,
	logger logging.Logger,
) *Builder {
	return &Builder{
		config:      config,
		selector:    selector,
		newCapturer: newCapturer,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// captureResult is the outcome of capturing one catalog image.
type captureResult struct {
	spec  models.ImageSpec
	entry *models.ReferenceEntry
	err   error
}

// Build captures every catalog image and returns the resulting snapshot.
// A failed image is logged and left out; the error return is reserved for
// configuration problems and cancellation.
func (b *Builder) Build(ctx context.Context) (models.ReferenceSnapshot, error) {
	offset, err := ScanOffset(b.config.ScanType)
	if err != nil {
		return nil, err
	}
	scanTime := b.now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	if b.config.ConcurrencyLimit > 0 {
		g.SetLimit(b.config.ConcurrencyLimit)
	}

	resultChan := make(chan captureResult, len(b.config.Images))

	for _, spec := range b.config.Images {
		g.Go(func() error {
			result := b.captureImage(gctx, spec, offset)

			select {
			case resultChan <- result:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	go func() {
		_ = g.Wait()
		close(resultChan)
	}()

	snapshot := make(models.ReferenceSnapshot, len(b.config.Images))
	for result := range resultChan {
		if result.err != nil {
			b.logger.Error("Failed to capture reference for %s: %v", result.spec.NamePattern, result.err)
			continue
		}
		entry := *result.entry
		entry.ScanType = b.config.ScanType
		entry.ScanTime = scanTime
		snapshot[entry.InstanceID] = entry
	}

	if err := g.Wait(); err != nil {
		return snapshot, fmt.Errorf("error capturing reference images: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return snapshot, err
	}

	return snapshot, nil
}

func (b *Builder) captureImage(ctx context.Context, spec models.ImageSpec, offset int) captureResult {
	result := captureResult{spec: spec}

	imageID, err := b.selector.Select(ctx, spec, offset)
	if err != nil {
		result.err = err
		return result
	}
	b.logger.Info("Selected image %s for %s", imageID, spec.NamePattern)

	result.entry, result.err = b.newCapturer().Capture(ctx, imageID)
	return result
}

// Publish announces the snapshot to each account and returns how many
// announcements succeeded. A failure for one account does not stop the others;
// all failures are joined into the returned error.
func (b *Builder) Publish(ctx context.Context, snapshot models.ReferenceSnapshot, accounts []models.Account) (int, error) {
	var errs []error
	published := 0

	for _, account := range accounts {
		event := models.ReferenceReadyEvent{
			InstanceDetails: snapshot,
			AccountDetails:  account,
		}
		if err := b.publisher.Publish(ctx, DetailTypeListInstances, event); err != nil {
			b.logger.Error("Failed to publish reference snapshot for account %s (%s): %v", account.ID, account.Name, err)
			errs = append(errs, fmt.Errorf("account %s: %w", account.ID, err))
			continue
		}
		published++
		b.logger.Info("Published reference snapshot for account %s (%s)", account.ID, account.Name)
	}

	return published, errors.Join(errs...)
}

// Run builds the snapshot and publishes it. An empty snapshot is logged and
// nothing is published.
func (b *Builder) Run(ctx context.Context, accounts []models.Account) (models.ReferenceSnapshot, int, error) {
	snapshot, err := b.Build(ctx)
	if err != nil {
		return snapshot, 0, err
	}

	if len(snapshot) == 0 {
		b.logger.Warn("No reference instances were captured, nothing to publish")
		return snapshot, 0, nil
	}

	published, err := b.Publish(ctx, snapshot, accounts)
	return snapshot, published, err
}
