package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// NewImageService creates an ImageService from an AWS configuration.
func NewImageService(cfg aws.Config) *ImageService {
	return NewImageServiceWithClient(ec2.NewFromConfig(cfg))
}

// NewInstanceService creates an InstanceService from an AWS configuration.
func NewInstanceService(cfg aws.Config) *InstanceService {
	return NewInstanceServiceWithClient(ec2.NewFromConfig(cfg))
}

// NewFleetService creates a FleetService from an AWS configuration.
func NewFleetService(cfg aws.Config, opts ...FleetOption) *FleetService {
	return NewFleetServiceWithClient(ssm.NewFromConfig(cfg), opts...)
}

// NewQueueService creates a QueueService from an AWS configuration.
func NewQueueService(cfg aws.Config, queueURL string) *QueueService {
	return NewQueueServiceWithClient(sqs.NewFromConfig(cfg), queueURL)
}

// NewEventPublisher creates an EventPublisher from an AWS configuration.
func NewEventPublisher(cfg aws.Config, bus string) *EventPublisher {
	return NewEventPublisherWithClient(eventbridge.NewFromConfig(cfg), bus)
}

// NewFindingArchive creates a FindingArchive from an AWS configuration.
func NewFindingArchive(cfg aws.Config, bucket, prefix string) *FindingArchive {
	return NewFindingArchiveWithClient(s3.NewFromConfig(cfg), bucket, prefix)
}
