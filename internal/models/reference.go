package models

import "time"

// ReferenceEntry is the captured inventory of one reference instance.
// ComplaintPackages maps package name to the reference version; the JSON
// name is kept as-is for compatibility with existing event consumers.
type ReferenceEntry struct {
	ReferenceInstance
	ComplaintPackages map[string]string `json:"ComplaintPackages"`
	ScanType          string            `json:"ScanType"`
	ScanTime          time.Time         `json:"ScanTime"`
}

// ReferenceSnapshot maps reference instance id to its captured inventory.
type ReferenceSnapshot map[string]ReferenceEntry

// Account is one target account from the fleet configuration.
type Account struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// ReferenceReadyEvent is published once per account after a snapshot is built.
type ReferenceReadyEvent struct {
	InstanceDetails ReferenceSnapshot `json:"instance_details"`
	AccountDetails  Account           `json:"account_details"`
}

// EnrichedCandidate is the queue message handed to the compliance scorer.
type EnrichedCandidate struct {
	CandidateInstance
	Region            string            `json:"Region"`
	AccountID         string            `json:"AccountId"`
	AccountName       string            `json:"AccountName"`
	ComplaintPackages map[string]string `json:"ComplaintPackages"`
	ScanType          string            `json:"ScanType"`
	ScanTime          time.Time         `json:"ScanTime"`
}
