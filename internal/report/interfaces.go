package report

import "patchinspect/internal/models"

// IPrinter is the interface for generating reports
//
//go:generate mockery --name=IPrinter --output=./mocks
type IPrinter interface {
	PrintReport(records []models.ComplianceRecord, format OutputFormatType) error
}
