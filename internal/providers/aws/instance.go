package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"patchinspect/internal/models"
)

// InstanceService launches and terminates reference instances.
type InstanceService struct {
	client EC2ClientAPI
}

// NewInstanceServiceWithClient creates a new InstanceService with a provided client
func NewInstanceServiceWithClient(client EC2ClientAPI) *InstanceService {
	return &InstanceService{
		client: client,
	}
}

// LaunchInstance boots a single instance with detailed monitoring off and
// IMDSv2 enforced, and returns its id.
func (s *InstanceService) LaunchInstance(ctx context.Context, req models.LaunchRequest) (string, error) {
	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(req.ImageID),
		InstanceType: types.InstanceType(req.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		Monitoring:   &types.RunInstancesMonitoringEnabled{Enabled: aws.Bool(false)},
		MetadataOptions: &types.InstanceMetadataOptionsRequest{
			HttpTokens: types.HttpTokensStateRequired,
		},
	}
	if req.SecurityGroupID != "" {
		input.SecurityGroupIds = []string{req.SecurityGroupID}
	}
	if req.SubnetID != "" {
		input.SubnetId = aws.String(req.SubnetID)
	}
	if req.InstanceProfileArn != "" {
		input.IamInstanceProfile = &types.IamInstanceProfileSpecification{Arn: aws.String(req.InstanceProfileArn)}
	}
	if len(req.Tags) > 0 {
		input.TagSpecifications = []types.TagSpecification{{
			ResourceType: types.ResourceTypeInstance,
			Tags:         convertTags(req.Tags),
		}}
	}

	resp, err := s.client.RunInstances(ctx, input)
	if err != nil {
		return "", ClassifyAWSError(err, ImageResourceType, req.ImageID)
	}

	// Ensure we got exactly one instance back
	if len(resp.Instances) == 0 || resp.Instances[0].InstanceId == nil {
		return "", NewAWSError(ErrInternalError, EC2ResourceType, "",
			fmt.Sprintf("RunInstances returned no instance for image %s", req.ImageID), nil)
	}

	return aws.ToString(resp.Instances[0].InstanceId), nil
}

// TerminateInstance requests termination without waiting for it to complete.
func (s *InstanceService) TerminateInstance(ctx context.Context, instanceID string) error {
	_, err := s.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return ClassifyAWSError(err, EC2ResourceType, instanceID)
	}
	return nil
}

// convertTags converts a map to AWS SDK tags, sorted by key
func convertTags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]types.Tag, 0, len(tags))
	for _, k := range keys {
		result = append(result, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return result
}
