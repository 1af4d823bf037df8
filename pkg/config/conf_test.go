package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Default(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, "conversion_model", c.Primary)
	assert.Equal(t, []string{"rf_conversion_model", "xgboost_model"}, c.Alternates)
	assert.Equal(t, ".gob", c.Extension)
	assert.Equal(t, 0.1, c.DefaultProbability)
	assert.Empty(t, c.ModelDir)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
model_dir: /opt/models
alternates: [backup_model]
default_probability: 0.25
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/models", c.ModelDir)
	assert.Equal(t, "conversion_model", c.Primary)
	assert.Equal(t, []string{"backup_model"}, c.Alternates)
	assert.Equal(t, 0.25, c.DefaultProbability)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":    "model_dir: [",
		"probability": "default_probability: 2",
		"primary":     `primary: ""`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault_AlternatesCopied(t *testing.T) {
	c := Default()
	c.Alternates[0] = "changed"
	assert.Equal(t, "rf_conversion_model", AlternateModels[0])
}
