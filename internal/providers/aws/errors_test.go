package aws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestClassifyAWSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"api throttling code", &smithy.GenericAPIError{Code: "ThrottlingException"}, ErrThrottling},
		{"api request limit", &smithy.GenericAPIError{Code: "RequestLimitExceeded"}, ErrThrottling},
		{"api access denied", &smithy.GenericAPIError{Code: "AccessDeniedException"}, ErrPermissionDenied},
		{"api not found", &smithy.GenericAPIError{Code: "InvalidInstanceID.NotFound"}, ErrResourceNotFound},
		{"wrapped api error", fmt.Errorf("operation error: %w", &smithy.GenericAPIError{Code: "ValidationException"}), ErrInvalidInput},
		{"message throttling", errors.New("Rate exceeded"), ErrThrottling},
		{"message network", errors.New("dial tcp: lookup ssm: no such host"), ErrNetworkError},
		{"message credentials", errors.New("failed to retrieve credentials"), ErrConfigurationError},
		{"unknown", errors.New("something odd"), ErrInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyAWSError(tt.err, SSMResourceType, "i-1")
			assert.Equal(t, tt.want, classified.Category)
			assert.ErrorIs(t, classified, tt.err)
		})
	}

	assert.Nil(t, ClassifyAWSError(nil, "", ""))
}

func TestIsThrottling(t *testing.T) {
	assert.True(t, IsThrottling(&smithy.GenericAPIError{Code: "ThrottlingException"}))
	assert.True(t, IsThrottling(NewAWSError(ErrThrottling, SSMResourceType, "", "", nil)))
	assert.False(t, IsThrottling(NewAWSError(ErrInternalError, SSMResourceType, "", "", errors.New("Rate exceeded"))))
	assert.False(t, IsThrottling(errors.New("boom")))
	assert.False(t, IsThrottling(nil))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"classified access denied", ClassifyAWSError(&smithy.GenericAPIError{Code: "AccessDeniedException"}, SSMResourceType, ""), false},
		{"raw unauthorized", &smithy.GenericAPIError{Code: "UnauthorizedOperation"}, false},
		{"invalid input", NewAWSError(ErrInvalidInput, SSMResourceType, "", "", nil), false},
		{"configuration", errors.New("failed to retrieve credentials"), false},
		{"wrapped permanent", fmt.Errorf("listing: %w", NewAWSError(ErrPermissionDenied, SSMResourceType, "", "", nil)), false},
		{"throttled", NewAWSError(ErrThrottling, SSMResourceType, "", "", nil), true},
		{"network", errors.New("dial tcp: connection refused"), true},
		{"unknown", errors.New("something odd"), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewAWSError(ErrResourceNotFound, EC2ResourceType, "i-1", "Resource not found", errors.New("cause"))
	assert.Equal(t, "resource_not_found: Resource not found [resource: EC2/i-1]: cause", err.Error())

	err = NewAWSError(ErrThrottling, SSMResourceType, "", "Request throttled", nil)
	assert.Equal(t, "request_throttled: Request throttled [resource type: SSM]", err.Error())
}
