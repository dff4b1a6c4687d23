package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchinspect/internal/fleet"
	"patchinspect/internal/models"
	"patchinspect/pkg/logging"
)

func TestLoadFleet_Complete(t *testing.T) {
	loader := NewFleetLoader(logging.NewMockLogger())
	f, err := loader.Load(filepath.Join("testdata", "fleet.hcl"))

	require.NoError(t, err)
	assert.Equal(t, []models.Account{
		{ID: "111122223333", Name: "prod"},
		{ID: "444455556666", Name: "staging"},
	}, f.Accounts)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, f.Regions)
	require.Len(t, f.Images, 1)
	assert.Equal(t, "ubuntu-jammy", f.Images[0].Family)
	assert.Equal(t, "099720109477", f.Images[0].Owner)
}

func TestLoadFleet_Defaults(t *testing.T) {
	f, err := NewFleetLoader(logging.NewMockLogger()).Load(filepath.Join("testdata", "minimal.hcl"))

	require.NoError(t, err)
	assert.Equal(t, fleet.DefaultRegions, f.Regions)
	assert.Equal(t, DefaultImages(), f.Images)
}

func TestLoadFleet_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"no accounts", "no_accounts.hcl"},
		{"invalid HCL", "invalid.hcl"},
		{"account without name", "missing_name.hcl"},
		{"non-existent file", "does_not_exist.hcl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFleetLoader(logging.NewMockLogger()).Load(filepath.Join("testdata", tt.file))
			assert.Error(t, err)
			assert.Nil(t, f)
		})
	}
}

func TestDefaultImages(t *testing.T) {
	images := DefaultImages()

	require.Len(t, images, 5)
	for _, img := range images {
		assert.NotEmpty(t, img.Family)
		assert.NotEmpty(t, img.NamePattern)
		assert.NotEmpty(t, img.Owner)
	}
}
