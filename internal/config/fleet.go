package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"patchinspect/internal/fleet"
	"patchinspect/internal/models"
	"patchinspect/pkg/logging"
)

// Fleet is the static catalog of target accounts, regions and reference images.
type Fleet struct {
	Accounts []models.Account
	Regions  []string
	Images   []models.ImageSpec
}

// DefaultImages is the built-in reference image catalog.
func DefaultImages() []models.ImageSpec {
	return []models.ImageSpec{
		{Family: "ubuntu-jammy", NamePattern: "ubuntu/images/hvm-ssd/ubuntu-jammy-22.04-amd64-server*", Owner: "099720109477"},
		{Family: "ubuntu-focal", NamePattern: "ubuntu/images/hvm-ssd/ubuntu-focal-20.04-amd64-server*", Owner: "099720109477"},
		{Family: "ubuntu-bionic", NamePattern: "ubuntu/images/hvm-ssd/ubuntu-bionic-18.04-amd64-server*", Owner: "099720109477"},
		{Family: "amazon-linux", NamePattern: "amzn-ami-hvm-2018.03*", Owner: "137112412989"},
		{Family: "amazon-linux-2", NamePattern: "amzn2-ami-hvm-2.0*", Owner: "137112412989"},
	}
}

// accountBlock represents an account block in the fleet file.
type accountBlock struct {
	ID   string `hcl:"id,label"`
	Name string `hcl:"name"`
}

// imageBlock represents an image block in the fleet file.
type imageBlock struct {
	Family      string `hcl:"family,label"`
	NamePattern string `hcl:"name_pattern"`
	Owner       string `hcl:"owner"`
}

// fleetFile represents the top-level structure of the fleet file.
type fleetFile struct {
	Regions  []string        `hcl:"regions,optional"`
	Accounts []*accountBlock `hcl:"account,block"`
	Images   []*imageBlock   `hcl:"image,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

// FleetLoader reads fleet files.
type FleetLoader struct {
	logger logging.Logger
}

// NewFleetLoader creates a FleetLoader with a specific logger
func NewFleetLoader(logger logging.Logger) *FleetLoader {
	return &FleetLoader{logger: logger}
}

// Load parses an HCL fleet file. Regions and images fall back to the
// built-in defaults when the file declares none; at least one account is
// required.
func (l FleetLoader) Load(path string) (*Fleet, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)

	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse fleet file %s: %s", path, diags.Error())
	}

	if file == nil || file.Body == nil {
		return nil, fmt.Errorf("parsed fleet file is empty or invalid: %s", path)
	}

	var raw fleetFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode fleet file %s: %s", path, diags.Error())
	}

	f := &Fleet{Regions: raw.Regions}

	seen := make(map[string]bool, len(raw.Accounts))
	for _, a := range raw.Accounts {
		if seen[a.ID] {
			l.logger.Warn("Duplicate account %s in %s, keeping the first", a.ID, path)
			continue
		}
		seen[a.ID] = true
		f.Accounts = append(f.Accounts, models.Account{ID: a.ID, Name: a.Name})
	}

	for _, img := range raw.Images {
		f.Images = append(f.Images, models.ImageSpec{
			Family:      img.Family,
			NamePattern: img.NamePattern,
			Owner:       img.Owner,
		})
	}

	if len(f.Accounts) == 0 {
		return nil, fmt.Errorf("no account blocks found in %s", path)
	}
	if len(f.Regions) == 0 {
		l.logger.Debug("No regions in %s, using defaults", path)
		f.Regions = append([]string(nil), fleet.DefaultRegions...)
	}
	if len(f.Images) == 0 {
		l.logger.Debug("No images in %s, using the built-in catalog", path)
		f.Images = DefaultImages()
	}

	l.logger.Info("Loaded fleet: %d accounts, %d regions, %d reference images", len(f.Accounts), len(f.Regions), len(f.Images))
	return f, nil
}
