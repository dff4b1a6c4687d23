package reference

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"patchinspect/internal/models"
	"patchinspect/internal/retry"
	"patchinspect/pkg/logging"
)

// State is a step of the reference instance lifecycle.
type State int32

const (
	StateLaunching State = iota
	StateAwaitingAgent
	StateAwaitingInventoryAssociation
	StateInventoryReady
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLaunching:
		return "Launching"
	case StateAwaitingAgent:
		return "AwaitingAgent"
	case StateAwaitingInventoryAssociation:
		return "AwaitingInventoryAssociation"
	case StateInventoryReady:
		return "InventoryReady"
	case StateTerminated:
		return "Terminated"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Compute launches and terminates instances.
//
//go:generate mockery --name=Compute --output=./mocks
type Compute interface {
	LaunchInstance(ctx context.Context, req models.LaunchRequest) (string, error)
	TerminateInstance(ctx context.Context, instanceID string) error
}

// Inventory answers readiness and inventory questions about an instance.
//
//go:generate mockery --name=Inventory --output=./mocks
type Inventory interface {
	InstanceStatus(ctx context.Context, instanceID string) (*models.ReferenceInstance, error)
	InventoryAssociationSucceeded(ctx context.Context, instanceID string) (bool, error)
	ListApplications(ctx context.Context, instanceID string) ([]models.InventoryEntry, error)
}

const (
	DefaultInstanceType    = "t2.micro"
	DefaultInstanceName    = "patchInspect-compliant-server"
	DefaultBootGrace       = 30 * time.Second
	DefaultPollInterval    = 30 * time.Second
	DefaultInventorySettle = 5 * time.Second

	teardownTimeout = time.Minute
)

// LifecycleConfig holds launch parameters and timings for a Controller.
type LifecycleConfig struct {
	InstanceType       string
	SecurityGroupID    string
	SubnetID           string
	InstanceProfileArn string
	Tags               map[string]string

	BootGrace       time.Duration
	PollInterval    time.Duration
	InventorySettle time.Duration
	// ReadyTimeout bounds the time spent waiting for the agent and the
	// inventory association together. Zero waits indefinitely.
	ReadyTimeout time.Duration

	// Transient reports poll errors that should count as "not ready yet".
	// Nil makes every poll error fatal.
	Transient func(error) bool
}

// DefaultLifecycleConfig returns the launch shape and timings used in production.
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		InstanceType:    DefaultInstanceType,
		Tags:            map[string]string{"Name": DefaultInstanceName},
		BootGrace:       DefaultBootGrace,
		PollInterval:    DefaultPollInterval,
		InventorySettle: DefaultInventorySettle,
	}
}

// Controller boots one throwaway instance from a reference image, waits until
// its inventory can be trusted, captures it and tears the instance down.
// A Controller is used for a single image.
type Controller struct {
	compute   Compute
	inventory Inventory
	cfg       LifecycleConfig
	logger    logging.Logger
	state     atomic.Int32
}

// NewController creates a Controller.
func NewController(compute Compute, inventory Inventory, cfg LifecycleConfig, logger logging.Logger) *Controller {
	return &Controller{
		compute:   compute,
		inventory: inventory,
		cfg:       cfg,
		logger:    logger,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) transition(s State) {
	c.state.Store(int32(s))
	c.logger.Debug("Reference instance lifecycle -> %s", s)
}

// Capture runs the full lifecycle for imageID. Once an instance exists it is
// always terminated before Capture returns, whatever the outcome.
func (c *Controller) Capture(ctx context.Context, imageID string) (*models.ReferenceEntry, error) {
	c.transition(StateLaunching)

	instanceID, err := c.compute.LaunchInstance(ctx, models.LaunchRequest{
		ImageID:            imageID,
		InstanceType:       c.cfg.InstanceType,
		SecurityGroupID:    c.cfg.SecurityGroupID,
		SubnetID:           c.cfg.SubnetID,
		InstanceProfileArn: c.cfg.InstanceProfileArn,
		Tags:               c.cfg.Tags,
	})
	if err != nil {
		c.transition(StateFailed)
		return nil, fmt.Errorf("error launching instance from %s: %w", imageID, err)
	}

	log := c.logger.WithField("instance_id", instanceID).WithField("image_id", imageID)
	log.Info("Created reference instance, waiting %s before checking SSM status", c.cfg.BootGrace)

	terminated := false
	defer func() {
		if !terminated {
			c.terminate(ctx, log, instanceID)
			c.transition(StateFailed)
		}
	}()

	if err := retry.Wait(ctx, c.cfg.BootGrace); err != nil {
		return nil, err
	}

	readyCtx := ctx
	if c.cfg.ReadyTimeout > 0 {
		var cancel context.CancelFunc
		readyCtx, cancel = context.WithTimeout(ctx, c.cfg.ReadyTimeout)
		defer cancel()
	}

	c.transition(StateAwaitingAgent)
	var instance *models.ReferenceInstance
	err = retry.Poll(readyCtx, c.cfg.PollInterval, func(ctx context.Context) (bool, error) {
		status, err := c.inventory.InstanceStatus(ctx, instanceID)
		if err != nil {
			return false, c.pollError(log, err)
		}
		if status == nil {
			log.Info("Instance ping status in SSM is not 'Online', sleeping for %s", c.cfg.PollInterval)
			return false, nil
		}
		instance = status
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error waiting for SSM agent on %s: %w", instanceID, err)
	}

	c.transition(StateAwaitingInventoryAssociation)
	err = retry.Poll(readyCtx, c.cfg.PollInterval, func(ctx context.Context) (bool, error) {
		ok, err := c.inventory.InventoryAssociationSucceeded(ctx, instanceID)
		if err != nil {
			return false, c.pollError(log, err)
		}
		if !ok {
			log.Info("Inventory association has not succeeded yet, sleeping for %s", c.cfg.PollInterval)
		}
		return ok, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error waiting for inventory association on %s: %w", instanceID, err)
	}

	c.transition(StateInventoryReady)
	if err := retry.Wait(ctx, c.cfg.InventorySettle); err != nil {
		return nil, err
	}

	entries, err := c.inventory.ListApplications(ctx, instanceID)

	terminated = true
	c.terminate(ctx, log, instanceID)
	c.transition(StateTerminated)

	if err != nil {
		return nil, fmt.Errorf("error fetching inventory for %s: %w", instanceID, err)
	}

	packages := make(map[string]string, len(entries))
	for _, e := range entries {
		packages[e.Name] = e.Version
	}

	log.Info("Captured %d packages from %s %s", len(packages), instance.PlatformName, instance.PlatformVersion)
	return &models.ReferenceEntry{
		ReferenceInstance: *instance,
		ComplaintPackages: packages,
	}, nil
}

func (c *Controller) pollError(log logging.Logger, err error) error {
	if c.cfg.Transient != nil && c.cfg.Transient(err) {
		log.Warn("Transient error while polling, will retry: %v", err)
		return nil
	}
	return err
}

// terminate issues the termination request on a context that survives
// cancellation of the run, and does not wait for the instance to stop.
func (c *Controller) terminate(ctx context.Context, log logging.Logger, instanceID string) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	if err := c.compute.TerminateInstance(tctx, instanceID); err != nil {
		log.Error("Failed to terminate reference instance: %v", err)
		return
	}
	log.Info("Requested termination of reference instance")
}
