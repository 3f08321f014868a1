package container

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"berry-quality/config"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/infrastructure/vision"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{
		AssetsDir:         t.TempDir(),
		ExportDir:         t.TempDir(),
		RemoteDetectorURL: "http://localhost:1/segmentation",
		CloudDetectorURL:  "http://localhost:1/cloud",
		HTTPTimeout:       time.Second,
		Workers:           2,
		Preferences:       entity.DefaultPreferences(),
	}
	c := New(cfg)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	require.NotNil(t, c.UserService)
	require.NotNil(t, c.QualityService)
	require.Equal(t, 2, c.Pool.Workers())

	for _, kind := range []entity.DetectorKind{entity.DetectorRemoteColor, entity.DetectorRemoteYOLOX, entity.DetectorCloudML} {
		_, err := c.QualityService.Detector(kind)
		require.NoError(t, err, kind)
	}
	_, err := c.QualityService.Detector(entity.DetectorColor)
	require.Equal(t, vision.Enabled, err == nil)
}
