package container

import (
	"net/http"

	"berry-quality/config"
	app "berry-quality/internal/application"
	"berry-quality/internal/brix"
	"berry-quality/internal/chart"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/export"
	"berry-quality/internal/infrastructure/canvas"
	"berry-quality/internal/infrastructure/remote"
	"berry-quality/internal/infrastructure/storage"
	"berry-quality/internal/infrastructure/vision"
	"berry-quality/internal/quality"
)

type Container struct {
	UserService    *app.UserService
	QualityService *app.QualityService
	Pool           *app.WorkerPool

	runner *vision.DNNRunner
}

func New(cfg *config.Config) *Container {
	userRepo := storage.NewMemoryUserRepository(cfg.Preferences)
	userService := app.NewUserService(userRepo)

	store := storage.NewFileAssetStore(cfg.AssetsDir)
	runner := vision.NewDNNRunner(store)
	engine := brix.NewEngine(store, brix.DefaultConfig())

	canvases := newCanvasFactory()
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	pool := app.NewWorkerPool(cfg.Workers)
	pool.Start()

	qualityService := app.NewQualityService(userService, app.QualityDeps{
		Detectors:   newDetectors(cfg, client),
		Calculators: newCalculatorFactory(engine, runner),
		Canvases:    canvases,
		Charts:      chart.NewProvider(canvases),
		Pool:        pool,
		Exporter:    export.NewJSONExporter(cfg.ExportDir),
	})

	return &Container{
		UserService:    userService,
		QualityService: qualityService,
		Pool:           pool,
		runner:         runner,
	}
}

// Close останавливает пул и освобождает загруженные модели
func (c *Container) Close() error {
	c.Pool.Close()
	return c.runner.Close()
}

func newCanvasFactory() port.CanvasFactory {
	if vision.Enabled {
		return vision.NewCanvasFactory()
	}
	return canvas.NewFactory()
}

func newDetectors(cfg *config.Config, client *http.Client) map[entity.DetectorKind]port.StrawberryDetector {
	detectors := map[entity.DetectorKind]port.StrawberryDetector{
		entity.DetectorRemoteColor: remote.NewDetector(cfg.RemoteDetectorURL, remote.MethodColor, client),
		entity.DetectorRemoteYOLOX: remote.NewDetector(cfg.RemoteDetectorURL, remote.MethodYOLOX, client),
		entity.DetectorCloudML:     remote.NewCloudDetector(cfg.CloudDetectorURL, cfg.CloudAPIKey, client),
	}
	// Без OpenCV локальный детектор недоступен
	if vision.Enabled {
		detectors[entity.DetectorColor] = vision.NewColorDetector(vision.DefaultColorDetectorConfig())
	}
	return detectors
}

func newCalculatorFactory(engine *brix.Engine, runner port.ModelRunner) app.CalculatorFactory {
	ripeness := quality.NewRipenessCalculator(quality.DefaultRipenessConfig())
	roundness := vision.NewRoundnessCalculator()
	smoothness := vision.NewSmoothnessCalculator()
	thresholds := quality.DefaultMarketabilityThresholds()

	return func(prefs entity.ModelPreferences) app.Calculators {
		return app.Calculators{
			Brix:          brix.NewCalculator(engine, runner, prefs),
			Firmness:      brix.NewFirmnessCalculator(engine, prefs),
			Ripeness:      ripeness,
			Roundness:     roundness,
			Smoothness:    smoothness,
			Marketability: thresholds,
		}
	}
}
