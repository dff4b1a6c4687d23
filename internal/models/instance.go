package models

import "time"

// ImageSpec identifies a platform family in the AMI catalog.
type ImageSpec struct {
	Family      string `json:"family"`
	NamePattern string `json:"image_name"`
	Owner       string `json:"image_owner"`
}

// CandidateImage is one AMI returned by a catalog query.
type CandidateImage struct {
	ImageID      string
	CreationDate time.Time
}

// LaunchRequest holds everything needed to boot a throwaway reference instance.
type LaunchRequest struct {
	ImageID            string
	InstanceType       string
	SecurityGroupID    string
	SubnetID           string
	InstanceProfileArn string
	Tags               map[string]string
}

// ReferenceInstance is an instance booted from a reference image once the
// SSM agent reports it online.
type ReferenceInstance struct {
	InstanceID      string `json:"InstanceId"`
	PlatformType    string `json:"PlatformType"`
	PlatformName    string `json:"PlatformName"`
	PlatformVersion string `json:"PlatformVersion"`
}

// CandidateInstance is an SSM-managed instance found while enumerating a region.
type CandidateInstance struct {
	InstanceID      string `json:"InstanceId"`
	PlatformName    string `json:"PlatformName"`
	PlatformVersion string `json:"PlatformVersion"`
	Name            string `json:"Name"`
}

// InventoryEntry is one installed application reported by the inventory service.
type InventoryEntry struct {
	Name    string
	Version string
}
