// Package config resolves runtime settings and the fleet catalog once at
// start-up; the result is injected into the pipeline stages.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"patchinspect/internal/fleet"
	aws "patchinspect/internal/providers/aws"
	"patchinspect/internal/reference"
)

// Setting keys. Keys with a legacy environment name are bound to it as-is;
// every other key is read from PATCH_INSPECT_<KEY>.
const (
	KeySecurityGroupID    = "sg_id"
	KeySubnetID           = "subnet_id"
	KeyInstanceProfileArn = "iam_profile_arn"
	KeyQueueURL           = "queue_url"
	KeyRoleName           = "role_name"
	KeyFindingsBucket     = "s3_bucket"
	KeyFindingsPrefix     = "s3_prefix"
	KeyScanType           = "scan_type"
	KeyEventBus           = "event_bus"
	KeyFleetFile          = "fleet_file"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"

	KeyBootGrace       = "boot_grace"
	KeyPollInterval    = "poll_interval"
	KeyInventorySettle = "inventory_settle"
	KeyReadyTimeout    = "ready_timeout"
	KeyThrottleDelay   = "throttle_delay"
	KeyListRetryDelay  = "list_retry_delay"
	KeyMaxEnqueueDelay = "max_enqueue_delay"
	KeyRegionStagger   = "region_stagger"
	KeyJoinMode        = "join_mode"
	KeyMaxWait         = "max_wait"
	KeySoftSettle      = "soft_settle"
	KeyConcurrency     = "concurrency"

	KeySchedule    = "schedule"
	KeyMetricsAddr = "metrics_addr"
)

const envPrefix = "PATCH_INSPECT"

var legacyEnv = map[string]string{
	KeySecurityGroupID:    "SG_ID",
	KeySubnetID:           "SUBNET_ID",
	KeyInstanceProfileArn: "IAM_PROFILE_ARN",
	KeyQueueURL:           "QUEUE_URL",
	KeyRoleName:           "ROLE_NAME",
	KeyFindingsBucket:     "PATCH_INSPECT_S3_BUCKET",
	KeyScanType:           "SCAN_TYPE",
	KeyLogLevel:           "LOG_LEVEL",
	KeyLogFormat:          "LOG_FORMAT",
}

// Settings holds the resolved runtime configuration.
type Settings struct {
	SecurityGroupID    string
	SubnetID           string
	InstanceProfileArn string
	QueueURL           string
	RoleName           string
	FindingsBucket     string
	FindingsPrefix     string
	ScanType           string
	EventBus           string
	FleetFile          string
	LogLevel           string
	LogFormat          string

	BootGrace       time.Duration
	PollInterval    time.Duration
	InventorySettle time.Duration
	ReadyTimeout    time.Duration
	ThrottleDelay   time.Duration
	ListRetryDelay  time.Duration
	MaxEnqueueDelay time.Duration
	RegionStagger   time.Duration
	JoinMode        fleet.JoinMode
	MaxWait         time.Duration
	SoftSettle      time.Duration
	Concurrency     int

	Schedule    string
	MetricsAddr string
}

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyScanType, "n-1")
	v.SetDefault(KeyEventBus, "default")
	v.SetDefault(KeyFindingsPrefix, "findings")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")

	v.SetDefault(KeyBootGrace, reference.DefaultBootGrace)
	v.SetDefault(KeyPollInterval, reference.DefaultPollInterval)
	v.SetDefault(KeyInventorySettle, reference.DefaultInventorySettle)
	v.SetDefault(KeyReadyTimeout, time.Duration(0))
	v.SetDefault(KeyThrottleDelay, aws.DefaultThrottleDelay)
	v.SetDefault(KeyListRetryDelay, fleet.DefaultListRetryDelay)
	v.SetDefault(KeyMaxEnqueueDelay, fleet.DefaultMaxEnqueueDelay)
	v.SetDefault(KeyRegionStagger, fleet.DefaultStagger)
	v.SetDefault(KeyJoinMode, string(fleet.JoinBarrier))
	v.SetDefault(KeyMaxWait, time.Duration(0))
	v.SetDefault(KeySoftSettle, fleet.DefaultSoftSettle)
	v.SetDefault(KeyConcurrency, 0)

	v.SetDefault(KeySchedule, "@daily")
	v.SetDefault(KeyMetricsAddr, ":9090")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, env)
	}

	return v
}

// Load reads the optional config file and resolves the settings.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	s := &Settings{
		SecurityGroupID:    v.GetString(KeySecurityGroupID),
		SubnetID:           v.GetString(KeySubnetID),
		InstanceProfileArn: v.GetString(KeyInstanceProfileArn),
		QueueURL:           v.GetString(KeyQueueURL),
		RoleName:           v.GetString(KeyRoleName),
		FindingsBucket:     v.GetString(KeyFindingsBucket),
		FindingsPrefix:     v.GetString(KeyFindingsPrefix),
		ScanType:           v.GetString(KeyScanType),
		EventBus:           v.GetString(KeyEventBus),
		FleetFile:          v.GetString(KeyFleetFile),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),

		BootGrace:       v.GetDuration(KeyBootGrace),
		PollInterval:    v.GetDuration(KeyPollInterval),
		InventorySettle: v.GetDuration(KeyInventorySettle),
		ReadyTimeout:    v.GetDuration(KeyReadyTimeout),
		ThrottleDelay:   v.GetDuration(KeyThrottleDelay),
		ListRetryDelay:  v.GetDuration(KeyListRetryDelay),
		MaxEnqueueDelay: v.GetDuration(KeyMaxEnqueueDelay),
		RegionStagger:   v.GetDuration(KeyRegionStagger),
		JoinMode:        fleet.JoinMode(strings.ToLower(v.GetString(KeyJoinMode))),
		MaxWait:         v.GetDuration(KeyMaxWait),
		SoftSettle:      v.GetDuration(KeySoftSettle),
		Concurrency:     v.GetInt(KeyConcurrency),

		Schedule:    v.GetString(KeySchedule),
		MetricsAddr: v.GetString(KeyMetricsAddr),
	}

	if err := s.validateCommon(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validateCommon() error {
	if _, err := reference.ScanOffset(s.ScanType); err != nil {
		return err
	}
	switch s.JoinMode {
	case fleet.JoinBarrier, fleet.JoinSoft:
	default:
		return fmt.Errorf("invalid join mode %q: expected %q or %q", s.JoinMode, fleet.JoinBarrier, fleet.JoinSoft)
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", s.Concurrency)
	}
	return nil
}

// ValidateReference checks the settings needed to capture reference images.
// Security group and subnet may be left empty to use the VPC defaults.
func (s *Settings) ValidateReference() error {
	if s.InstanceProfileArn == "" {
		return missing(KeyInstanceProfileArn)
	}
	return nil
}

// ValidateEnumerate checks the settings needed to fan out over the fleet.
func (s *Settings) ValidateEnumerate() error {
	if s.QueueURL == "" {
		return missing(KeyQueueURL)
	}
	return nil
}

// ValidateScore checks the settings needed to consume the scoring queue.
func (s *Settings) ValidateScore() error {
	return s.ValidateEnumerate()
}

func missing(key string) error {
	if env, ok := legacyEnv[key]; ok {
		return fmt.Errorf("%s is required (set %s)", key, env)
	}
	return fmt.Errorf("%s is required (set %s_%s)", key, envPrefix, strings.ToUpper(key))
}
