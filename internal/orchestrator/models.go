package orchestrator

import (
	"context"
	"net/http"
	"time"

	"patchinspect/internal/compliance"
	"patchinspect/internal/config"
	"patchinspect/internal/fleet"
	"patchinspect/internal/models"
	aws "patchinspect/internal/providers/aws"
	"patchinspect/internal/reference"
	"patchinspect/internal/report"
	"patchinspect/pkg/logging"
)

// Config contains all the parameters needed by the pipeline stages.
type Config struct {
	Settings     config.Settings
	Fleet        config.Fleet
	OutputFormat string // Output format (json or table)
}

// StageResult is what a pipeline entry point reports back to its trigger.
type StageResult struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func ok(message string) StageResult {
	return StageResult{StatusCode: http.StatusOK, Message: message}
}

func failed(message string) StageResult {
	return StageResult{StatusCode: http.StatusInternalServerError, Message: message}
}

// Succeeded reports whether the stage completed.
func (r StageResult) Succeeded() bool {
	return r.StatusCode == http.StatusOK
}

// Queue is the scoring queue.
//
//go:generate mockery --name=Queue --output=./mocks
type Queue interface {
	Enqueue(ctx context.Context, payload any, delay time.Duration) error
	Receive(ctx context.Context, maxMessages int32, wait time.Duration) ([]aws.Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Archiver stores published findings in an external sink.
//
//go:generate mockery --name=Archiver --output=./mocks
type Archiver interface {
	Store(ctx context.Context, record models.ComplianceRecord) error
}

// RegionalClients builds clients bound to a target account and region.
//
//go:generate mockery --name=RegionalClients --output=./mocks
type RegionalClients interface {
	InstanceLister(ctx context.Context, accountID, region string) (fleet.InstanceLister, error)
	InventorySource(ctx context.Context, accountID, region string) (compliance.InventorySource, error)
}

// Recorder receives pipeline measurements. *metrics.Metrics implements it.
type Recorder interface {
	fleet.Recorder
	ReferencesCaptured(count int)
	FindingPublished(record models.ComplianceRecord)
	StageCompleted(stage string, duration time.Duration, err error)
}

// Dependencies are the capabilities a Service drives.
type Dependencies struct {
	Images    reference.ImageLister
	Compute   reference.Compute
	Inventory reference.Inventory
	Publisher reference.Publisher
	Queue     Queue
	Archive   Archiver // nil disables archiving
	Regional  RegionalClients
	Printer   report.IPrinter
	Recorder  Recorder // nil disables measurements
	Logger    logging.Logger
}

type noopRecorder struct{}

func (noopRecorder) InstancesPublished(string, string, int)      {}
func (noopRecorder) ReferencesCaptured(int)                      {}
func (noopRecorder) FindingPublished(models.ComplianceRecord)    {}
func (noopRecorder) StageCompleted(string, time.Duration, error) {}
