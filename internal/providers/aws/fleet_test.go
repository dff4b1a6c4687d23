package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"patchinspect/internal/models"
	"patchinspect/internal/providers/aws/mocks"
	"patchinspect/pkg/logging"
)

func newTestFleet(client SSMClientAPI, opts ...FleetOption) *FleetService {
	opts = append([]FleetOption{WithFleetLogger(logging.NewMockLogger()), WithThrottleDelay(0)}, opts...)
	return NewFleetServiceWithClient(client, opts...)
}

func TestListOnlineInstances_FollowsNextToken(t *testing.T) {
	mockClient := mocks.NewSSMClientAPI(t)

	mockClient.On("DescribeInstanceInformation",
		mock.Anything,
		mock.MatchedBy(func(input *ssm.DescribeInstanceInformationInput) bool {
			return input.NextToken == nil &&
				len(input.Filters) == 1 &&
				aws.ToString(input.Filters[0].Key) == "PingStatus" &&
				input.Filters[0].Values[0] == "Online"
		}),
	).Return(&ssm.DescribeInstanceInformationOutput{
		InstanceInformationList: []types.InstanceInformation{{
			InstanceId:      aws.String("i-1"),
			PlatformName:    aws.String("Ubuntu"),
			PlatformVersion: aws.String("22.04"),
			Name:            aws.String("web-1"),
		}},
		NextToken: aws.String("t1"),
	}, nil).Once()

	mockClient.On("DescribeInstanceInformation",
		mock.Anything,
		mock.MatchedBy(func(input *ssm.DescribeInstanceInformationInput) bool {
			return aws.ToString(input.NextToken) == "t1"
		}),
	).Return(&ssm.DescribeInstanceInformationOutput{
		InstanceInformationList: []types.InstanceInformation{{
			InstanceId:   aws.String("i-2"),
			PlatformName: aws.String("Amazon Linux"),
		}},
	}, nil).Once()

	instances, err := newTestFleet(mockClient).ListOnlineInstances(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []models.CandidateInstance{
		{InstanceID: "i-1", PlatformName: "Ubuntu", PlatformVersion: "22.04", Name: "web-1"},
		{InstanceID: "i-2", PlatformName: "Amazon Linux", PlatformVersion: "-", Name: "-"},
	}, instances)
}

func TestInstanceStatus(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		mockClient := mocks.NewSSMClientAPI(t)
		mockClient.On("DescribeInstanceInformation",
			mock.Anything,
			mock.MatchedBy(func(input *ssm.DescribeInstanceInformationInput) bool {
				return len(input.Filters) == 2 &&
					aws.ToString(input.Filters[0].Key) == "InstanceIds" &&
					input.Filters[0].Values[0] == "i-ref"
			}),
		).Return(&ssm.DescribeInstanceInformationOutput{
			InstanceInformationList: []types.InstanceInformation{{
				InstanceId:      aws.String("i-ref"),
				PlatformType:    types.PlatformTypeLinux,
				PlatformName:    aws.String("Ubuntu"),
				PlatformVersion: aws.String("20.04"),
			}},
		}, nil)

		status, err := newTestFleet(mockClient).InstanceStatus(context.Background(), "i-ref")

		require.NoError(t, err)
		assert.Equal(t, &models.ReferenceInstance{
			InstanceID: "i-ref", PlatformType: "Linux", PlatformName: "Ubuntu", PlatformVersion: "20.04",
		}, status)
	})

	t.Run("not yet registered", func(t *testing.T) {
		mockClient := mocks.NewSSMClientAPI(t)
		mockClient.On("DescribeInstanceInformation", mock.Anything, mock.Anything).
			Return(&ssm.DescribeInstanceInformationOutput{}, nil)

		status, err := newTestFleet(mockClient).InstanceStatus(context.Background(), "i-ref")

		assert.NoError(t, err)
		assert.Nil(t, status)
	})
}

func TestInventoryAssociationSucceeded(t *testing.T) {
	tests := []struct {
		name  string
		infos []types.InstanceAssociationStatusInfo
		want  bool
	}{
		{
			name: "inventory association succeeded",
			infos: []types.InstanceAssociationStatusInfo{
				{Name: aws.String("AWS-UpdateSSMAgent"), Status: aws.String("Success")},
				{Name: aws.String(InventoryAssociationName), Status: aws.String("Success")},
			},
			want: true,
		},
		{
			name: "inventory association pending",
			infos: []types.InstanceAssociationStatusInfo{
				{Name: aws.String(InventoryAssociationName), Status: aws.String("Pending")},
			},
			want: false,
		},
		{
			name:  "no associations yet",
			infos: nil,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := mocks.NewSSMClientAPI(t)
			mockClient.On("DescribeInstanceAssociationsStatus",
				mock.Anything,
				mock.MatchedBy(func(input *ssm.DescribeInstanceAssociationsStatusInput) bool {
					return aws.ToString(input.InstanceId) == "i-ref"
				}),
			).Return(&ssm.DescribeInstanceAssociationsStatusOutput{InstanceAssociationStatusInfos: tt.infos}, nil)

			ok, err := newTestFleet(mockClient).InventoryAssociationSucceeded(context.Background(), "i-ref")

			assert.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestListApplications_MergesPages(t *testing.T) {
	mockClient := mocks.NewSSMClientAPI(t)

	mockClient.On("ListInventoryEntries",
		mock.Anything,
		mock.MatchedBy(func(input *ssm.ListInventoryEntriesInput) bool {
			return input.NextToken == nil && aws.ToString(input.TypeName) == ApplicationInventoryType
		}),
	).Return(&ssm.ListInventoryEntriesOutput{
		Entries:   []map[string]string{{"Name": "nginx", "Version": "1.18.0"}},
		NextToken: aws.String("n1"),
	}, nil).Once()

	mockClient.On("ListInventoryEntries",
		mock.Anything,
		mock.MatchedBy(func(input *ssm.ListInventoryEntriesInput) bool {
			return aws.ToString(input.NextToken) == "n1"
		}),
	).Return(&ssm.ListInventoryEntriesOutput{
		Entries: []map[string]string{{"Name": "curl", "Version": "7.68.0"}},
	}, nil).Once()

	entries, err := newTestFleet(mockClient).ListApplications(context.Background(), "i-1")

	require.NoError(t, err)
	assert.Equal(t, []models.InventoryEntry{
		{Name: "nginx", Version: "1.18.0"},
		{Name: "curl", Version: "7.68.0"},
	}, entries)
}

func TestListApplications_RetriesThrottling(t *testing.T) {
	mockClient := mocks.NewSSMClientAPI(t)
	throttled := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "Rate exceeded"}

	mockClient.On("ListInventoryEntries", mock.Anything, mock.Anything).Return(nil, throttled).Twice()
	mockClient.On("ListInventoryEntries", mock.Anything, mock.Anything).Return(&ssm.ListInventoryEntriesOutput{
		Entries: []map[string]string{{"Name": "vim", "Version": "8.1.0"}},
	}, nil).Once()

	entries, err := newTestFleet(mockClient).ListApplications(context.Background(), "i-1")

	require.NoError(t, err)
	assert.Equal(t, []models.InventoryEntry{{Name: "vim", Version: "8.1.0"}}, entries)
}

func TestListApplications_OtherErrorsPropagate(t *testing.T) {
	mockClient := mocks.NewSSMClientAPI(t)
	denied := &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"}
	mockClient.On("ListInventoryEntries", mock.Anything, mock.Anything).Return(nil, denied).Once()

	entries, err := newTestFleet(mockClient).ListApplications(context.Background(), "i-1")

	assert.Nil(t, entries)
	assert.True(t, IsErrorCategory(err, ErrPermissionDenied))
	assert.True(t, errors.Is(err, denied))
}

func TestListApplications_ThrottleAttemptsCap(t *testing.T) {
	mockClient := mocks.NewSSMClientAPI(t)
	throttled := &smithy.GenericAPIError{Code: "ThrottlingException"}
	mockClient.On("ListInventoryEntries", mock.Anything, mock.Anything).Return(nil, throttled).Times(3)

	_, err := newTestFleet(mockClient, WithThrottleAttempts(3), WithThrottleDelay(time.Millisecond)).
		ListApplications(context.Background(), "i-1")

	assert.True(t, IsThrottling(err))
}
