package fleet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"patchinspect/internal/fleet/mocks"
	"patchinspect/internal/models"
	"patchinspect/pkg/logging"
)

type scanFunc func(ctx context.Context, region string) (int, error)

func (f scanFunc) Scan(ctx context.Context, _ models.ReferenceSnapshot, _ models.Account, region string) (int, error) {
	return f(ctx, region)
}

func factoryFor(scan scanFunc) ScannerFactory {
	return func(context.Context, models.Account, string) (RegionScanner, error) {
		return scan, nil
	}
}

func resultsByRegion(s Summary) map[string]RegionResult {
	out := make(map[string]RegionResult, len(s.Regions))
	for _, r := range s.Regions {
		out[r.Region] = r
	}
	return out
}

func TestCoordinator_FourRegionsNoMatches(t *testing.T) {
	logger := logging.NewMockLogger()
	queue := mocks.NewEnqueuer(t)

	factory := func(_ context.Context, _ models.Account, region string) (RegionScanner, error) {
		lister := mocks.NewInstanceLister(t)
		lister.On("ListOnlineInstances", mock.Anything).Return([]models.CandidateInstance{
			{InstanceID: "i-" + region, PlatformName: "Windows", PlatformVersion: "10"},
		}, nil).Once()
		return NewEnumerator(lister, queue, fastEnumeratorConfig(), logger, nil), nil
	}

	cfg := DefaultCoordinatorConfig()
	cfg.Stagger = 0

	summary := NewCoordinator(cfg, factory, logger).Run(context.Background(), models.ReferenceSnapshot{"r": jammyRef("r")}, account)

	assert.Len(t, summary.Regions, 4)
	assert.Equal(t, 0, summary.Published())
	assert.Empty(t, summary.Failed())
	assert.Equal(t, 4, strings.Count(logger.String(), "0 instance details were published"))
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_RegionFailuresAreIsolated(t *testing.T) {
	factory := func(_ context.Context, _ models.Account, region string) (RegionScanner, error) {
		if region == "us-east-1" {
			return nil, errors.New("AccessDenied")
		}
		return scanFunc(func(_ context.Context, region string) (int, error) {
			if region == "us-east-2" {
				return 1, errors.New("enqueue failed")
			}
			return 3, nil
		}), nil
	}

	cfg := DefaultCoordinatorConfig()
	cfg.Stagger = 0

	summary := NewCoordinator(cfg, factory, logging.NewMockLogger()).Run(context.Background(), nil, account)

	results := resultsByRegion(summary)
	require.Len(t, results, 4)
	assert.Equal(t, 3, results["ap-south-1"].Published)
	assert.Equal(t, 3, results["ap-southeast-1"].Published)
	assert.ErrorContains(t, results["us-east-1"].Err, "AccessDenied")
	assert.Equal(t, 1, results["us-east-2"].Published)
	assert.Equal(t, 7, summary.Published())
	assert.Len(t, summary.Failed(), 2)
}

func TestCoordinator_PermanentListingErrorDoesNotBlockBarrier(t *testing.T) {
	logger := logging.NewMockLogger()
	denied := errors.New("AccessDeniedException")

	factory := func(_ context.Context, _ models.Account, region string) (RegionScanner, error) {
		lister := mocks.NewInstanceLister(t)
		if region == "us-east-1" {
			lister.On("ListOnlineInstances", mock.Anything).Return(nil, denied).Once()
		} else {
			lister.On("ListOnlineInstances", mock.Anything).Return([]models.CandidateInstance{}, nil).Once()
		}
		cfg := fastEnumeratorConfig()
		cfg.ListRetryDelay = time.Hour
		cfg.Transient = func(err error) bool { return !errors.Is(err, denied) }
		return NewEnumerator(lister, mocks.NewEnqueuer(t), cfg, logger, nil), nil
	}

	cfg := DefaultCoordinatorConfig()
	cfg.Stagger = 0
	cfg.Join = JoinBarrier
	cfg.MaxWait = 0

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	begin := time.Now()
	summary := NewCoordinator(cfg, factory, logger).Run(ctx, models.ReferenceSnapshot{"r": jammyRef("r")}, account)

	assert.Less(t, time.Since(begin), 5*time.Second)
	assert.NoError(t, ctx.Err())
	results := resultsByRegion(summary)
	require.Len(t, results, 4)
	assert.ErrorIs(t, results["us-east-1"].Err, denied)
	for _, region := range []string{"us-east-2", "ap-south-1", "ap-southeast-1"} {
		assert.NoError(t, results[region].Err, region)
	}
	assert.Len(t, summary.Failed(), 1)
}

func TestCoordinator_StaggersRegionStarts(t *testing.T) {
	var mu sync.Mutex
	starts := map[string]time.Time{}

	scan := scanFunc(func(_ context.Context, region string) (int, error) {
		mu.Lock()
		starts[region] = time.Now()
		mu.Unlock()
		return 0, nil
	})

	cfg := CoordinatorConfig{
		Regions: []string{"r1", "r2", "r3"},
		Stagger: 30 * time.Millisecond,
		Join:    JoinBarrier,
	}

	begin := time.Now()
	summary := NewCoordinator(cfg, factoryFor(scan), logging.NewMockLogger()).Run(context.Background(), nil, account)

	require.Len(t, summary.Regions, 3)
	assert.GreaterOrEqual(t, starts["r3"].Sub(begin), 50*time.Millisecond)
	assert.True(t, starts["r2"].After(starts["r1"]))
	assert.True(t, starts["r3"].After(starts["r2"]))
}

func TestCoordinator_BarrierMaxWaitCancelsStragglers(t *testing.T) {
	scan := scanFunc(func(ctx context.Context, region string) (int, error) {
		if region == "slow" {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 2, nil
	})

	cfg := CoordinatorConfig{
		Regions: []string{"fast", "slow"},
		Join:    JoinBarrier,
		MaxWait: 50 * time.Millisecond,
	}

	summary := NewCoordinator(cfg, factoryFor(scan), logging.NewMockLogger()).Run(context.Background(), nil, account)

	results := resultsByRegion(summary)
	assert.Equal(t, 2, results["fast"].Published)
	assert.NoError(t, results["fast"].Err)
	assert.ErrorIs(t, results["slow"].Err, context.DeadlineExceeded)
}

func TestCoordinator_SoftJoinReportsPendingRegions(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})

	scan := scanFunc(func(_ context.Context, region string) (int, error) {
		if region == "slow" {
			<-release
			close(finished)
			return 5, nil
		}
		return 1, nil
	})

	cfg := CoordinatorConfig{
		Regions:    []string{"fast", "slow"},
		Join:       JoinSoft,
		SoftSettle: 30 * time.Millisecond,
	}

	summary := NewCoordinator(cfg, factoryFor(scan), logging.NewMockLogger()).Run(context.Background(), nil, account)

	results := resultsByRegion(summary)
	assert.Equal(t, 1, results["fast"].Published)
	assert.ErrorIs(t, results["slow"].Err, ErrRegionPending)

	// The straggler keeps running after the coordinator has returned.
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("pending region did not finish")
	}
}

func TestCoordinator_NoRegions(t *testing.T) {
	summary := NewCoordinator(CoordinatorConfig{}, nil, logging.NewMockLogger()).Run(context.Background(), nil, account)
	assert.Empty(t, summary.Regions)
	assert.Equal(t, 0, summary.Published())
}
