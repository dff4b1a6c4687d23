package aws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

type ErrorCategory string

// Error categories for better error classification and handling
const (
	// ErrResourceNotFound is returned when a requested AWS resource doesn't exist
	ErrResourceNotFound ErrorCategory = "resource_not_found"

	// ErrPermissionDenied is returned when AWS API access is denied
	ErrPermissionDenied ErrorCategory = "permission_denied"

	// ErrThrottling is returned when AWS API throttles the request
	ErrThrottling ErrorCategory = "request_throttled"

	// ErrConfigurationError is returned when there's an issue with AWS configuration
	ErrConfigurationError ErrorCategory = "configuration_error"

	// ErrNetworkError is returned for network-related errors accessing AWS API
	ErrNetworkError ErrorCategory = "network_error"

	// ErrInvalidInput is returned when invalid input is provided
	ErrInvalidInput ErrorCategory = "invalid_input"

	// ErrInternalError is returned for unexpected internal errors
	ErrInternalError ErrorCategory = "internal_error"
)

// Resource types used when classifying errors.
const (
	EC2ResourceType         = "EC2"
	ImageResourceType       = "AMI"
	SSMResourceType         = "SSM"
	SQSResourceType         = "SQS"
	EventBridgeResourceType = "EventBridge"
	S3ResourceType          = "S3"
	STSResourceType         = "STS"
)

// Error represents an error that occurred during AWS operations with
// additional context about what went wrong.
type Error struct {
	// Category for programmatic error handling
	Category ErrorCategory

	// ResourceType identifies the AWS resource type (e.g., EC2, SSM)
	ResourceType string

	// ResourceID identifies the specific resource ID when applicable
	ResourceID string

	// Message provides human-readable details
	Message string

	// Underlying is the wrapped cause of this error
	Underlying error
}

// Error returns a formatted error message
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Category, e.Message)
	if e.ResourceID != "" {
		msg = fmt.Sprintf("%s [resource: %s/%s]", msg, e.ResourceType, e.ResourceID)
	} else if e.ResourceType != "" {
		msg = fmt.Sprintf("%s [resource type: %s]", msg, e.ResourceType)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewAWSError creates a new AWS error with the specified details
func NewAWSError(category ErrorCategory, resourceType, resourceID, message string, underlying error) *Error {
	return &Error{
		Category:     category,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Message:      message,
		Underlying:   underlying,
	}
}

// IsErrorCategory checks if an error belongs to a specific error category
func IsErrorCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var awsErr *Error
	if errors.As(err, &awsErr) {
		return awsErr.Category == category
	}

	return false
}

// IsThrottling reports whether err is a throttling error, classified or raw.
func IsThrottling(err error) bool {
	if err == nil {
		return false
	}
	if IsErrorCategory(err, ErrThrottling) {
		return true
	}
	var awsErr *Error
	if errors.As(err, &awsErr) {
		return false
	}
	return ClassifyAWSError(err, "", "").Category == ErrThrottling
}

// permanentCategories never succeed on a retry with the same credentials and input.
var permanentCategories = map[ErrorCategory]bool{
	ErrPermissionDenied:   true,
	ErrInvalidInput:       true,
	ErrConfigurationError: true,
}

// IsRetryable reports whether err may clear on a later attempt. Access,
// input and configuration failures are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var awsErr *Error
	if errors.As(err, &awsErr) {
		return !permanentCategories[awsErr.Category]
	}
	return !permanentCategories[classify(err)]
}

// codeCategories maps AWS API error codes to categories.
var codeCategories = map[string]ErrorCategory{
	"InvalidInstanceID.NotFound":  ErrResourceNotFound,
	"InvalidInstanceID.Malformed": ErrResourceNotFound,
	"InvalidAMIID.NotFound":       ErrResourceNotFound,
	"InvalidInstanceId":           ErrResourceNotFound,
	"InvalidResourceId":           ErrResourceNotFound,
	"QueueDoesNotExist":           ErrResourceNotFound,
	"NoSuchBucket":                ErrResourceNotFound,

	"AWS.SimpleQueueService.NonExistentQueue": ErrResourceNotFound,

	"UnauthorizedOperation": ErrPermissionDenied,
	"AuthFailure":           ErrPermissionDenied,
	"AccessDenied":          ErrPermissionDenied,
	"AccessDeniedException": ErrPermissionDenied,
	"InvalidClientTokenId":  ErrPermissionDenied,
	"ExpiredToken":          ErrPermissionDenied,

	"RequestLimitExceeded":     ErrThrottling,
	"ThrottlingException":      ErrThrottling,
	"Throttling":               ErrThrottling,
	"TooManyRequestsException": ErrThrottling,
	"RequestThrottled":         ErrThrottling,

	"InvalidParameterValue":       ErrInvalidInput,
	"InvalidParameterCombination": ErrInvalidInput,
	"ValidationError":             ErrInvalidInput,
	"ValidationException":         ErrInvalidInput,
	"InvalidFilterKey":            ErrInvalidInput,
	"InvalidTypeNameException":    ErrInvalidInput,
	"MalformedQueryString":        ErrInvalidInput,
}

var categoryMessages = map[ErrorCategory]string{
	ErrResourceNotFound:   "Resource not found",
	ErrPermissionDenied:   "Access denied",
	ErrThrottling:         "Request throttled",
	ErrInvalidInput:       "Invalid input",
	ErrNetworkError:       "Network error while accessing AWS API",
	ErrConfigurationError: "AWS SDK configuration error",
	ErrInternalError:      "Internal error occurred",
}

// ClassifyAWSError classifies an AWS error from its API error code, falling
// back to the error message for transport and SDK errors.
func ClassifyAWSError(err error, resourceType, resourceID string) *Error {
	if err == nil {
		return nil
	}

	category := classify(err)
	return NewAWSError(category, resourceType, resourceID, categoryMessages[category], err)
}

func classify(err error) ErrorCategory {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if category, ok := codeCategories[apiErr.ErrorCode()]; ok {
			return category
		}
	}

	errMsg := err.Error()

	switch {
	// Reference: https://docs.aws.amazon.com/AWSEC2/latest/APIReference/errors-overview.html
	case contains(errMsg, "InvalidResource", "InvalidInstanceID", "NotFound", "NoSuchBucket", "NonExistentQueue"):
		return ErrResourceNotFound

	case contains(errMsg, "UnauthorizedOperation", "AuthFailure", "AccessDenied"):
		return ErrPermissionDenied

	case contains(errMsg, "RequestLimitExceeded", "ThrottlingException", "Rate exceeded", "TooManyRequests"):
		return ErrThrottling

	case contains(errMsg, "InvalidParameter", "ValidationError", "MalformedQueryString"):
		return ErrInvalidInput

	case contains(errMsg, "no such host", "connection refused", "timeout"):
		return ErrNetworkError

	case contains(errMsg, "InvalidClientTokenId", "could not find region", "failed to retrieve credentials"):
		return ErrConfigurationError

	default:
		return ErrInternalError
	}
}

// contains checks if the error message contains any of the provided substrings
func contains(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(strings.ToLower(s), strings.ToLower(substr)) {
			return true
		}
	}
	return false
}
