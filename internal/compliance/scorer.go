// Package compliance scores the live inventory of a server against the
// package versions captured from its reference image.
package compliance

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"patchinspect/internal/models"
	"patchinspect/internal/version"
	"patchinspect/pkg/logging"
)

// DetailTypeFindings is the event detail type of a published compliance record.
const DetailTypeFindings = "findings"

// missing replaces identifying fields absent from a queue message.
const missing = models.MissingValue

// InventorySource reads the installed applications of an instance.
//
//go:generate mockery --name=InventorySource --output=./mocks
type InventorySource interface {
	ListApplications(ctx context.Context, instanceID string) ([]models.InventoryEntry, error)
}

// Score compares the live inventory with the reference versions carried by
// candidate. Only packages present in both are considered; a package is
// compliant when its installed version is not older than the reference.
// An empty live inventory scores 0 with no package detail.
func Score(candidate models.EnrichedCandidate, live []models.InventoryEntry) models.ComplianceRecord {
	record := sanitize(candidate)
	if len(live) == 0 {
		return record
	}

	considered, compliant := 0, 0
	for _, entry := range live {
		ref, ok := candidate.ComplaintPackages[entry.Name]
		if !ok {
			continue
		}

		considered++
		current := !version.IsOutdated(ref, entry.Version)
		if current {
			compliant++
		}
		record.Packages = append(record.Packages, models.PackageCompliance{
			Name:             entry.Name,
			Version:          entry.Version,
			CompliantVersion: ref,
			Compliant:        current,
		})
	}

	record.CompliancePercentage = Percentage(compliant, considered)
	return record
}

// Percentage returns compliant/considered rounded half away from zero to a
// whole percentage, and 0 when nothing was considered.
func Percentage(compliant, considered int) int {
	if compliant == 0 || considered == 0 {
		return 0
	}
	return int(math.Round(float64(compliant) * 100 / float64(considered)))
}

// sanitize builds the record skeleton from the identifying fields of the
// message only.
func sanitize(candidate models.EnrichedCandidate) models.ComplianceRecord {
	return models.ComplianceRecord{
		InstanceID:      candidate.InstanceID,
		Region:          orMissing(candidate.Region),
		AccountID:       orMissing(candidate.AccountID),
		AccountName:     orMissing(candidate.AccountName),
		PlatformName:    orMissing(candidate.PlatformName),
		PlatformVersion: orMissing(candidate.PlatformVersion),
		ScanType:        orMissing(candidate.ScanType),
		ScanTime:        candidate.ScanTime,
	}
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}

// DecodeMessage parses a queue message body into a candidate.
func DecodeMessage(body string) (models.EnrichedCandidate, error) {
	var candidate models.EnrichedCandidate
	if err := json.Unmarshal([]byte(body), &candidate); err != nil {
		return candidate, NewComplianceError(ErrMalformedMessage, "queue message is not a valid candidate", "", err)
	}
	if strings.TrimSpace(candidate.InstanceID) == "" {
		return candidate, NewComplianceError(ErrMalformedMessage, "queue message has no InstanceId", "", nil)
	}
	return candidate, nil
}

// Scorer fetches live inventories and scores them.
type Scorer struct {
	inventory InventorySource
	logger    logging.Logger
}

// NewScorer creates a Scorer.
func NewScorer(inventory InventorySource, logger logging.Logger) *Scorer {
	return &Scorer{inventory: inventory, logger: logger}
}

// Evaluate scores one candidate against its live inventory.
func (s *Scorer) Evaluate(ctx context.Context, candidate models.EnrichedCandidate) (models.ComplianceRecord, error) {
	if candidate.InstanceID == "" {
		return models.ComplianceRecord{}, NewComplianceError(ErrInvalidInput, "candidate has no instance id", "", nil)
	}

	log := s.logger.WithField("instance_id", candidate.InstanceID)
	log.Info("Initializing patch compliance for instance %s", candidate.InstanceID)

	live, err := s.inventory.ListApplications(ctx, candidate.InstanceID)
	if err != nil {
		return models.ComplianceRecord{}, NewComplianceError(ErrInventoryUnavailable, "error reading live inventory", candidate.InstanceID, err)
	}

	record := Score(candidate, live)
	log.Info("Instance %s patch compliance: %d%% (%d packages compared)", record.InstanceID, record.CompliancePercentage, len(record.Packages))
	return record, nil
}
