package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"berry-quality/internal/domain/entity"
)

func TestParsePreferences(t *testing.T) {
	data := []byte(`
processing:
  detector: roboflow
  target_ripeness: "80"
  box_color: brix
  display_text: true
  selected_attributes: [Brix]
visualisation:
  ripeness_function: "f(x) = x/10"
  time_range:
    max: 20
`)
	prefs, err := ParsePreferences(data, entity.DefaultPreferences())
	require.NoError(t, err)

	require.Equal(t, entity.DetectorCloudML, prefs.Processing.Detector)
	require.Equal(t, 80.0, prefs.Processing.TargetRipeness)
	require.Equal(t, entity.AttributeBrix, prefs.Processing.BoxColor)
	require.True(t, prefs.Processing.DisplayText)
	require.Equal(t, []entity.Attribute{entity.AttributeBrix}, prefs.Processing.SelectedAttributes)
	require.Equal(t, "f(x) = x/10", prefs.Visualisation.RipenessFunction)
	require.Equal(t, entity.NewFeatureRange(0.0, 20.0), prefs.Visualisation.TimeRange)

	defaults := entity.DefaultPreferences()
	require.Equal(t, defaults.Model, prefs.Model)
	require.Equal(t, defaults.Visualisation.YLabel, prefs.Visualisation.YLabel)
}

func TestParsePreferencesEmpty(t *testing.T) {
	prefs, err := ParsePreferences([]byte("# nothing here\n"), entity.DefaultPreferences())
	require.NoError(t, err)
	require.Equal(t, entity.DefaultPreferences(), prefs)
}

func TestParsePreferencesErrors(t *testing.T) {
	tests := map[string]string{
		"unknown detector":  "processing:\n  detector: laser\n",
		"unknown attribute": "processing:\n  box_color: weight\n",
		"unknown key":       "processing:\n  colour: red\n",
		"bad target":        "processing:\n  target_ripeness: 0\n",
		"bad yaml":          "processing: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePreferences([]byte(data), entity.DefaultPreferences())
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processing:\n  detector: remote-color\n"), 0o644))

	t.Setenv("PREFERENCES_FILE", path)
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("WORKERS", "3")
	t.Setenv("ASSETS_DIR", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, entity.DetectorRemoteColor, cfg.Preferences.Processing.Detector)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, "assets", cfg.AssetsDir)
	require.Equal(t, ":8090", cfg.HTTPAddr)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("PREFERENCES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)

	t.Setenv("PREFERENCES_FILE", "")
	t.Setenv("WORKERS", "-1")
	_, err = Load()
	require.Error(t, err)
}
