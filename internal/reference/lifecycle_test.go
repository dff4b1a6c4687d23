package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"patchinspect/internal/models"
	"patchinspect/internal/reference/mocks"
	"patchinspect/pkg/logging"
)

var errThrottled = errors.New("Rate exceeded")

// fastConfig keeps production launch settings but removes every wait.
func fastConfig() LifecycleConfig {
	cfg := DefaultLifecycleConfig()
	cfg.SecurityGroupID = "sg-1"
	cfg.SubnetID = "subnet-1"
	cfg.InstanceProfileArn = "arn:aws:iam::111122223333:instance-profile/ssm"
	cfg.BootGrace = 0
	cfg.PollInterval = 0
	cfg.InventorySettle = 0
	return cfg
}

var referenceInstance = &models.ReferenceInstance{
	InstanceID:      "i-ref",
	PlatformType:    "Linux",
	PlatformName:    "Ubuntu",
	PlatformVersion: "22.04",
}

func TestController_Capture(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)

	compute.On("LaunchInstance",
		mock.Anything,
		mock.MatchedBy(func(req models.LaunchRequest) bool {
			return req.ImageID == "ami-1" &&
				req.InstanceType == "t2.micro" &&
				req.SecurityGroupID == "sg-1" &&
				req.SubnetID == "subnet-1" &&
				req.Tags["Name"] == "patchInspect-compliant-server"
		}),
	).Return("i-ref", nil).Once()

	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(nil, nil).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(referenceInstance, nil).Once()
	inventory.On("InventoryAssociationSucceeded", mock.Anything, "i-ref").Return(false, nil).Twice()
	inventory.On("InventoryAssociationSucceeded", mock.Anything, "i-ref").Return(true, nil).Once()
	inventory.On("ListApplications", mock.Anything, "i-ref").Return([]models.InventoryEntry{
		{Name: "nginx", Version: "1.18.0"},
		{Name: "curl", Version: "7.68.0"},
	}, nil).Once()
	compute.On("TerminateInstance", mock.Anything, "i-ref").Return(nil).Once()

	c := NewController(compute, inventory, fastConfig(), logging.NewMockLogger())
	entry, err := c.Capture(context.Background(), "ami-1")

	require.NoError(t, err)
	assert.Equal(t, *referenceInstance, entry.ReferenceInstance)
	assert.Equal(t, map[string]string{"nginx": "1.18.0", "curl": "7.68.0"}, entry.ComplaintPackages)
	assert.Equal(t, StateTerminated, c.State())
}

func TestController_LaunchFailure(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)

	compute.On("LaunchInstance", mock.Anything, mock.Anything).Return("", errors.New("InsufficientInstanceCapacity")).Once()

	c := NewController(compute, inventory, fastConfig(), logging.NewMockLogger())
	entry, err := c.Capture(context.Background(), "ami-1")

	require.Error(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, StateFailed, c.State())
	compute.AssertNotCalled(t, "TerminateInstance", mock.Anything, mock.Anything)
}

func TestController_TerminatesOnPollError(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)

	compute.On("LaunchInstance", mock.Anything, mock.Anything).Return("i-ref", nil).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(nil, errors.New("AccessDeniedException")).Once()
	compute.On("TerminateInstance", mock.Anything, "i-ref").Return(nil).Once()

	c := NewController(compute, inventory, fastConfig(), logging.NewMockLogger())
	_, err := c.Capture(context.Background(), "ami-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDeniedException")
	assert.Equal(t, StateFailed, c.State())
}

func TestController_TransientPollErrorsAreRetried(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)

	compute.On("LaunchInstance", mock.Anything, mock.Anything).Return("i-ref", nil).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(nil, errThrottled).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(referenceInstance, nil).Once()
	inventory.On("InventoryAssociationSucceeded", mock.Anything, "i-ref").Return(false, errThrottled).Once()
	inventory.On("InventoryAssociationSucceeded", mock.Anything, "i-ref").Return(true, nil).Once()
	inventory.On("ListApplications", mock.Anything, "i-ref").Return([]models.InventoryEntry{}, nil).Once()
	compute.On("TerminateInstance", mock.Anything, "i-ref").Return(nil).Once()

	cfg := fastConfig()
	cfg.Transient = func(err error) bool { return errors.Is(err, errThrottled) }

	entry, err := NewController(compute, inventory, cfg, logging.NewMockLogger()).Capture(context.Background(), "ami-1")

	require.NoError(t, err)
	assert.Empty(t, entry.ComplaintPackages)
}

func TestController_TerminatesWhenCancelled(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	compute.On("LaunchInstance", mock.Anything, mock.Anything).Return("i-ref", nil).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, nil).Once()
	compute.On("TerminateInstance",
		mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }),
		"i-ref",
	).Return(nil).Once()

	c := NewController(compute, inventory, fastConfig(), logging.NewMockLogger())
	_, err := c.Capture(ctx, "ami-1")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, c.State())
}

func TestController_ReadyTimeout(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)

	compute.On("LaunchInstance", mock.Anything, mock.Anything).Return("i-ref", nil).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(referenceInstance, nil).Once()
	inventory.On("InventoryAssociationSucceeded", mock.Anything, "i-ref").Return(false, nil)
	compute.On("TerminateInstance", mock.Anything, "i-ref").Return(nil).Once()

	cfg := fastConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.ReadyTimeout = 30 * time.Millisecond

	_, err := NewController(compute, inventory, cfg, logging.NewMockLogger()).Capture(context.Background(), "ami-1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestController_InventoryErrorStillTerminates(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)

	compute.On("LaunchInstance", mock.Anything, mock.Anything).Return("i-ref", nil).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(referenceInstance, nil).Once()
	inventory.On("InventoryAssociationSucceeded", mock.Anything, "i-ref").Return(true, nil).Once()
	inventory.On("ListApplications", mock.Anything, "i-ref").Return(nil, errors.New("InvalidInstanceId")).Once()
	compute.On("TerminateInstance", mock.Anything, "i-ref").Return(nil).Once()

	c := NewController(compute, inventory, fastConfig(), logging.NewMockLogger())
	_, err := c.Capture(context.Background(), "ami-1")

	require.Error(t, err)
	assert.Equal(t, StateTerminated, c.State())
}

func TestController_TerminateFailureIsLogged(t *testing.T) {
	compute := mocks.NewCompute(t)
	inventory := mocks.NewInventory(t)
	logger := logging.NewMockLogger()

	compute.On("LaunchInstance", mock.Anything, mock.Anything).Return("i-ref", nil).Once()
	inventory.On("InstanceStatus", mock.Anything, "i-ref").Return(referenceInstance, nil).Once()
	inventory.On("InventoryAssociationSucceeded", mock.Anything, "i-ref").Return(true, nil).Once()
	inventory.On("ListApplications", mock.Anything, "i-ref").Return([]models.InventoryEntry{{Name: "bash", Version: "5.1"}}, nil).Once()
	compute.On("TerminateInstance", mock.Anything, "i-ref").Return(errors.New("UnauthorizedOperation")).Once()

	entry, err := NewController(compute, inventory, fastConfig(), logger).Capture(context.Background(), "ami-1")

	require.NoError(t, err)
	assert.Equal(t, "5.1", entry.ComplaintPackages["bash"])
	assert.Contains(t, logger.String(), "Failed to terminate reference instance")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Launching", StateLaunching.String())
	assert.Equal(t, "AwaitingAgent", StateAwaitingAgent.String())
	assert.Equal(t, "AwaitingInventoryAssociation", StateAwaitingInventoryAssociation.String())
	assert.Equal(t, "InventoryReady", StateInventoryReady.String())
	assert.Equal(t, "Terminated", StateTerminated.String())
	assert.Equal(t, "Failed", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
}
