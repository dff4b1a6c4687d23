package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MissingValue stands in for an identifying field the scanned message lacked.
const MissingValue = "-"

// PackageCompliance is the verdict for a single installed package.
type PackageCompliance struct {
	Name             string `json:"Name"`
	Version          string `json:"Version"`
	CompliantVersion string `json:"CompliantVersion"`
	Compliant        bool   `json:"Compliant"`
}

// ComplianceRecord is the finding published for one scanned instance.
type ComplianceRecord struct {
	InstanceID           string              `json:"InstanceId"`
	Region               string              `json:"Region"`
	AccountID            string              `json:"AccountId"`
	AccountName          string              `json:"AccountName"`
	PlatformName         string              `json:"PlatformName"`
	PlatformVersion      string              `json:"PlatformVersion"`
	Packages             []PackageCompliance `json:"Packages,omitempty"`
	CompliancePercentage int                 `json:"CompliancePercentage"`
	ScanType             string              `json:"ScanType"`
	ScanTime             time.Time           `json:"ScanTime"`
}

// MarshalJSON writes a zero ScanTime as MissingValue.
func (r ComplianceRecord) MarshalJSON() ([]byte, error) {
	type plain ComplianceRecord
	out := struct {
		plain
		ScanTime string `json:"ScanTime"`
	}{plain: plain(r), ScanTime: MissingValue}
	if !r.ScanTime.IsZero() {
		out.ScanTime = r.ScanTime.Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both timestamps and MissingValue for ScanTime.
func (r *ComplianceRecord) UnmarshalJSON(data []byte) error {
	type plain ComplianceRecord
	in := struct {
		*plain
		ScanTime string `json:"ScanTime"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.ScanTime = time.Time{}
	if in.ScanTime == "" || in.ScanTime == MissingValue {
		return nil
	}
	scanTime, err := time.Parse(time.RFC3339Nano, in.ScanTime)
	if err != nil {
		return fmt.Errorf("invalid ScanTime %q: %w", in.ScanTime, err)
	}
	r.ScanTime = scanTime
	return nil
}
