package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/uuid"
)

const roleSessionPrefix = "security-automation-"

// Sessions builds AWS configurations for a target account and region by
// assuming the configured role in that account.
type Sessions struct {
	base     aws.Config
	roleName string
	stsAPI   stscreds.AssumeRoleAPIClient
}

// NewSessionsWithDefaultConfig loads the default AWS SDK configuration and
// uses it as the base for role assumption.
func NewSessionsWithDefaultConfig(ctx context.Context, roleName string) (*Sessions, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewSessions(cfg, roleName, sts.NewFromConfig(cfg)), nil
}

// NewSessions creates Sessions from an existing base configuration.
func NewSessions(base aws.Config, roleName string, stsAPI stscreds.AssumeRoleAPIClient) *Sessions {
	return &Sessions{base: base, roleName: roleName, stsAPI: stsAPI}
}

// Base returns the configuration of the account the process runs in.
func (s *Sessions) Base() aws.Config {
	return s.base.Copy()
}

// RoleArn returns the ARN of the role assumed in accountID.
func (s *Sessions) RoleArn(accountID string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, s.roleName)
}

// ForAccount returns a configuration for region whose credentials come from
// assuming the role in accountID. With no account or no role configured the
// base credentials are used. Credentials are retrieved eagerly so that a
// failed assumption surfaces here rather than on the first API call.
func (s *Sessions) ForAccount(ctx context.Context, accountID, region string) (aws.Config, error) {
	cfg := s.base.Copy()
	if region != "" {
		cfg.Region = region
	}
	if accountID == "" || s.roleName == "" {
		return cfg, nil
	}

	provider := stscreds.NewAssumeRoleProvider(s.stsAPI, s.RoleArn(accountID), func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = roleSessionPrefix + uuid.NewString()
	})
	cfg.Credentials = aws.NewCredentialsCache(provider)

	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, ClassifyAWSError(err, STSResourceType, s.RoleArn(accountID))
	}
	return cfg, nil
}
