package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"patchinspect/internal/compliance/mocks"
	"patchinspect/internal/models"
	"patchinspect/pkg/logging"
)

var scanTime = time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC)

func candidate(packages map[string]string) models.EnrichedCandidate {
	return models.EnrichedCandidate{
		CandidateInstance: models.CandidateInstance{
			InstanceID:      "i-0abc",
			PlatformName:    "Ubuntu",
			PlatformVersion: "20.04",
			Name:            "web-1",
		},
		Region:            "us-east-1",
		AccountID:         "111122223333",
		AccountName:       "prod",
		ComplaintPackages: packages,
		ScanType:          "n-1",
		ScanTime:          scanTime,
	}
}

func TestScore_AllCompliantIgnoresUnknownPackages(t *testing.T) {
	c := candidate(map[string]string{"nginx": "1.18.0", "curl": "7.68.0"})
	live := []models.InventoryEntry{
		{Name: "nginx", Version: "1.18.0"},
		{Name: "curl", Version: "7.68.0"},
		{Name: "vim", Version: "8.1.0"},
	}

	record := Score(c, live)

	assert.Equal(t, 100, record.CompliancePercentage)
	assert.Equal(t, []models.PackageCompliance{
		{Name: "nginx", Version: "1.18.0", CompliantVersion: "1.18.0", Compliant: true},
		{Name: "curl", Version: "7.68.0", CompliantVersion: "7.68.0", Compliant: true},
	}, record.Packages)
}

func TestScore_OutdatedPackage(t *testing.T) {
	record := Score(candidate(map[string]string{"openssl": "1.1.1f"}), []models.InventoryEntry{
		{Name: "openssl", Version: "1.1.0g"},
	})

	assert.Equal(t, 0, record.CompliancePercentage)
	require.Len(t, record.Packages, 1)
	assert.False(t, record.Packages[0].Compliant)
	assert.Equal(t, "1.1.1f", record.Packages[0].CompliantVersion)
}

func TestScore_NewerThanReferenceIsCompliant(t *testing.T) {
	record := Score(candidate(map[string]string{"bash": "5.0-6ubuntu1"}), []models.InventoryEntry{
		{Name: "bash", Version: "5.0-6ubuntu1.2"},
	})

	assert.Equal(t, 100, record.CompliancePercentage)
	assert.True(t, record.Packages[0].Compliant)
}

func TestScore_Boundaries(t *testing.T) {
	refs := map[string]string{"openssl": "1.1.1f", "curl": "7.68.0"}

	t.Run("empty live inventory", func(t *testing.T) {
		record := Score(candidate(refs), nil)
		assert.Equal(t, 0, record.CompliancePercentage)
		assert.Empty(t, record.Packages)
	})

	t.Run("no intersection", func(t *testing.T) {
		record := Score(candidate(refs), []models.InventoryEntry{{Name: "vim", Version: "8.1"}})
		assert.Equal(t, 0, record.CompliancePercentage)
		assert.Empty(t, record.Packages)
	})

	t.Run("empty reference", func(t *testing.T) {
		record := Score(candidate(nil), []models.InventoryEntry{{Name: "vim", Version: "8.1"}})
		assert.Equal(t, 0, record.CompliancePercentage)
	})
}

func TestScore_IsIdempotent(t *testing.T) {
	c := candidate(map[string]string{"nginx": "1.18.0", "openssl": "1.1.1f", "curl": "7.68.0"})
	live := []models.InventoryEntry{
		{Name: "nginx", Version: "1.18.0"},
		{Name: "openssl", Version: "1.1.0g"},
		{Name: "curl", Version: "7.81.0"},
	}

	first := Score(c, live)
	second := Score(c, live)

	assert.Equal(t, first, second)
	assert.Equal(t, 67, first.CompliancePercentage)
	assert.Equal(t, map[string]string{"nginx": "1.18.0", "openssl": "1.1.1f", "curl": "7.68.0"}, c.ComplaintPackages)
}

func TestScore_SanitizedRecord(t *testing.T) {
	record := Score(candidate(map[string]string{"nginx": "1.18.0"}), []models.InventoryEntry{{Name: "nginx", Version: "1.18.0"}})

	assert.Equal(t, "i-0abc", record.InstanceID)
	assert.Equal(t, "us-east-1", record.Region)
	assert.Equal(t, "111122223333", record.AccountID)
	assert.Equal(t, "prod", record.AccountName)
	assert.Equal(t, "Ubuntu", record.PlatformName)
	assert.Equal(t, "20.04", record.PlatformVersion)
	assert.Equal(t, "n-1", record.ScanType)
	assert.Equal(t, scanTime, record.ScanTime)

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, stripped := range []string{"NextToken", "CaptureTime", "SchemaVersion", "Entries", "TypeName"} {
		assert.NotContains(t, fields, stripped)
	}
	assert.Equal(t, "2024-06-15T08:30:00Z", fields["ScanTime"])

	var decoded models.ComplianceRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, scanTime.Equal(decoded.ScanTime))
	assert.Equal(t, record.Packages, decoded.Packages)
}

func TestScore_MissingFieldsDefaultToDash(t *testing.T) {
	record := Score(models.EnrichedCandidate{CandidateInstance: models.CandidateInstance{InstanceID: "i-1"}}, nil)

	assert.Equal(t, "-", record.Region)
	assert.Equal(t, "-", record.AccountID)
	assert.Equal(t, "-", record.AccountName)
	assert.Equal(t, "-", record.PlatformName)
	assert.Equal(t, "-", record.ScanType)
	assert.True(t, record.ScanTime.IsZero())

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "-", fields["ScanTime"])

	var decoded models.ComplianceRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.ScanTime.IsZero())
	assert.Equal(t, "i-1", decoded.InstanceID)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		compliant, considered, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		// Rounds rather than truncating: 66.67 is reported as 67.
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{7, 7, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.compliant, tt.considered), "%d/%d", tt.compliant, tt.considered)
	}
}

func TestDecodeMessage(t *testing.T) {
	body := `{"InstanceId":"i-1","PlatformName":"Ubuntu","PlatformVersion":"22.04","Name":"web",` +
		`"Region":"us-east-2","AccountId":"1","AccountName":"prod",` +
		`"ComplaintPackages":{"curl":"7.81.0"},"ScanType":"n-1","ScanTime":"2024-06-15T08:30:00Z"}`

	c, err := DecodeMessage(body)

	require.NoError(t, err)
	assert.Equal(t, "i-1", c.InstanceID)
	assert.Equal(t, "us-east-2", c.Region)
	assert.Equal(t, "7.81.0", c.ComplaintPackages["curl"])
	assert.Equal(t, scanTime, c.ScanTime)
}

func TestDecodeMessage_Malformed(t *testing.T) {
	_, err := DecodeMessage("not json")
	assert.True(t, IsErrorCategory(err, ErrMalformedMessage))

	_, err = DecodeMessage(`{"Region":"us-east-1"}`)
	assert.True(t, IsErrorCategory(err, ErrMalformedMessage))
}

func TestScorer_Evaluate(t *testing.T) {
	inventory := mocks.NewInventorySource(t)
	inventory.On("ListApplications", mock.Anything, "i-0abc").Return([]models.InventoryEntry{
		{Name: "openssl", Version: "1.1.1f-1ubuntu2.20"},
	}, nil).Once()

	record, err := NewScorer(inventory, logging.NewMockLogger()).Evaluate(context.Background(), candidate(map[string]string{"openssl": "1.1.1f-1ubuntu2.16"}))

	require.NoError(t, err)
	assert.Equal(t, 100, record.CompliancePercentage)
}

func TestScorer_EvaluateInventoryError(t *testing.T) {
	inventory := mocks.NewInventorySource(t)
	inventory.On("ListApplications", mock.Anything, "i-0abc").Return(nil, errors.New("InvalidInstanceId")).Once()

	_, err := NewScorer(inventory, logging.NewMockLogger()).Evaluate(context.Background(), candidate(nil))

	assert.True(t, IsErrorCategory(err, ErrInventoryUnavailable))
	assert.Contains(t, err.Error(), "i-0abc")
}

func TestScorer_EvaluateRejectsEmptyInstance(t *testing.T) {
	_, err := NewScorer(mocks.NewInventorySource(t), logging.NewMockLogger()).Evaluate(context.Background(), models.EnrichedCandidate{})
	assert.True(t, IsErrorCategory(err, ErrInvalidInput))
}

func TestComplianceError_Error(t *testing.T) {
	err := NewComplianceError(ErrInventoryUnavailable, "error reading live inventory", "i-1", errors.New("boom"))
	assert.Equal(t, "inventory_unavailable: error reading live inventory (instance: i-1): boom", err.Error())

	err = NewComplianceError(ErrMalformedMessage, "bad body", "", nil)
	assert.Equal(t, "malformed_message: bad body", err.Error())
}

func TestComplianceError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewComplianceError(ErrInvalidInput, "msg", "", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsErrorCategory(t *testing.T) {
	err := NewComplianceError(ErrInvalidInput, "msg", "", nil)
	assert.True(t, IsErrorCategory(err, ErrInvalidInput))
	assert.False(t, IsErrorCategory(err, ErrMalformedMessage))
	assert.False(t, IsErrorCategory(errors.New("plain"), ErrInvalidInput))
	assert.False(t, IsErrorCategory(nil, ErrInvalidInput))
}
