package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"patchinspect/internal/models"
	"patchinspect/internal/retry"
	"patchinspect/pkg/logging"
)

const (
	// InventoryAssociationName is the SSM document that collects software inventory.
	InventoryAssociationName = "AWS-GatherSoftwareInventory"
	// ApplicationInventoryType is the inventory type holding installed packages.
	ApplicationInventoryType = "AWS:Application"

	associationSuccess = "Success"
	missingValue       = "-"

	// DefaultThrottleDelay bounds the random wait after a throttled inventory call.
	DefaultThrottleDelay = 10 * time.Second
)

// FleetService answers fleet and inventory questions through SSM.
type FleetService struct {
	client        SSMClientAPI
	logger        logging.Logger
	throttleDelay time.Duration
	maxAttempts   int
}

// FleetOption customises a FleetService.
type FleetOption func(*FleetService)

// WithThrottleDelay sets the upper bound of the random wait after throttling.
func WithThrottleDelay(d time.Duration) FleetOption {
	return func(s *FleetService) { s.throttleDelay = d }
}

// WithThrottleAttempts caps throttle retries; 0 keeps retrying until the context ends.
func WithThrottleAttempts(n int) FleetOption {
	return func(s *FleetService) { s.maxAttempts = n }
}

// WithFleetLogger sets the logger used to report throttling.
func WithFleetLogger(logger logging.Logger) FleetOption {
	return func(s *FleetService) { s.logger = logger }
}

// NewFleetServiceWithClient creates a new FleetService with a provided client
func NewFleetServiceWithClient(client SSMClientAPI, opts ...FleetOption) *FleetService {
	s := &FleetService{
		client:        client,
		logger:        logging.NewDefaultLogger(),
		throttleDelay: DefaultThrottleDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func pingOnlineFilter() types.InstanceInformationStringFilter {
	return types.InstanceInformationStringFilter{
		Key:    aws.String("PingStatus"),
		Values: []string{string(types.PingStatusOnline)},
	}
}

// ListOnlineInstances returns every SSM-managed instance whose agent is online,
// following NextToken until the listing is exhausted.
func (s *FleetService) ListOnlineInstances(ctx context.Context) ([]models.CandidateInstance, error) {
	input := &ssm.DescribeInstanceInformationInput{
		Filters: []types.InstanceInformationStringFilter{pingOnlineFilter()},
	}

	var instances []models.CandidateInstance
	for {
		resp, err := s.client.DescribeInstanceInformation(ctx, input)
		if err != nil {
			return nil, ClassifyAWSError(err, SSMResourceType, "")
		}

		for _, info := range resp.InstanceInformationList {
			instances = append(instances, models.CandidateInstance{
				InstanceID:      orMissing(info.InstanceId),
				PlatformName:    orMissing(info.PlatformName),
				PlatformVersion: orMissing(info.PlatformVersion),
				Name:            orMissing(info.Name),
			})
		}

		if aws.ToString(resp.NextToken) == "" {
			return instances, nil
		}
		input.NextToken = resp.NextToken
	}
}

// InstanceStatus returns the platform of an instance whose agent is online,
// or nil when the instance is not (yet) registered and online.
func (s *FleetService) InstanceStatus(ctx context.Context, instanceID string) (*models.ReferenceInstance, error) {
	resp, err := s.client.DescribeInstanceInformation(ctx, &ssm.DescribeInstanceInformationInput{
		Filters: []types.InstanceInformationStringFilter{
			{Key: aws.String("InstanceIds"), Values: []string{instanceID}},
			pingOnlineFilter(),
		},
	})
	if err != nil {
		return nil, ClassifyAWSError(err, SSMResourceType, instanceID)
	}
	if len(resp.InstanceInformationList) == 0 {
		return nil, nil
	}

	info := resp.InstanceInformationList[0]
	return &models.ReferenceInstance{
		InstanceID:      instanceID,
		PlatformType:    string(info.PlatformType),
		PlatformName:    aws.ToString(info.PlatformName),
		PlatformVersion: aws.ToString(info.PlatformVersion),
	}, nil
}

// InventoryAssociationSucceeded reports whether the software inventory
// association has completed successfully on the instance.
func (s *FleetService) InventoryAssociationSucceeded(ctx context.Context, instanceID string) (bool, error) {
	input := &ssm.DescribeInstanceAssociationsStatusInput{InstanceId: aws.String(instanceID)}
	for {
		resp, err := s.client.DescribeInstanceAssociationsStatus(ctx, input)
		if err != nil {
			return false, ClassifyAWSError(err, SSMResourceType, instanceID)
		}

		for _, assoc := range resp.InstanceAssociationStatusInfos {
			if aws.ToString(assoc.Name) == InventoryAssociationName && aws.ToString(assoc.Status) == associationSuccess {
				return true, nil
			}
		}

		if aws.ToString(resp.NextToken) == "" {
			return false, nil
		}
		input.NextToken = resp.NextToken
	}
}

// ListApplications returns the installed application inventory of an
// instance, merging all pages. A throttled call restarts the listing after a
// random wait; any other error is returned.
func (s *FleetService) ListApplications(ctx context.Context, instanceID string) ([]models.InventoryEntry, error) {
	var entries []models.InventoryEntry

	err := retry.Do(ctx, retry.Policy{
		MaxAttempts: s.maxAttempts,
		Backoff:     retry.Jittered(s.throttleDelay),
		Retryable:   IsThrottling,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.logger.Warn("Inventory fetch for %s throttled (attempt %d), sleeping for %s", instanceID, attempt, delay)
		},
	}, func(ctx context.Context) error {
		var err error
		entries, err = s.listApplicationPages(ctx, instanceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *FleetService) listApplicationPages(ctx context.Context, instanceID string) ([]models.InventoryEntry, error) {
	input := &ssm.ListInventoryEntriesInput{
		InstanceId: aws.String(instanceID),
		TypeName:   aws.String(ApplicationInventoryType),
	}

	entries := []models.InventoryEntry{}
	for {
		resp, err := s.client.ListInventoryEntries(ctx, input)
		if err != nil {
			return nil, ClassifyAWSError(err, SSMResourceType, instanceID)
		}

		for _, e := range resp.Entries {
			entries = append(entries, models.InventoryEntry{Name: e["Name"], Version: e["Version"]})
		}

		if aws.ToString(resp.NextToken) == "" {
			return entries, nil
		}
		input.NextToken = resp.NextToken
	}
}

func orMissing(s *string) string {
	if v := aws.ToString(s); v != "" {
		return v
	}
	return missingValue
}
