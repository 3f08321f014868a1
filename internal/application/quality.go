package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/apperrors"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
	"berry-quality/internal/domain/timeutil"
	"berry-quality/internal/logger"
)

var (
	// ErrBusy предыдущий кадр этого пользователя ещё обрабатывается
	ErrBusy = errors.New("processing is already in progress")
	// ErrNoResult пользователь ещё не присылал изображений
	ErrNoResult = errors.New("no processed image")
)

// CalculatorFactory собирает калькуляторы под файлы моделей пользователя
type CalculatorFactory func(prefs entity.ModelPreferences) Calculators

// ProcessRequest изображение на обработку
type ProcessRequest struct {
	UserID   int64
	ChatID   int64
	Image    image.Image
	FileName string
	// Detector заменяет детектор из настроек, если задан
	Detector entity.DetectorKind
}

// QualityOutput результат обработки и путь к экспортированному JSON
type QualityOutput struct {
	Result     *entity.ProcessingResult
	ExportPath string
}

type stream struct {
	mu     sync.Mutex
	last   *ImageProcessor
	result *entity.ProcessingResult
}

// QualityService запускает конвейер оценки качества для пользователей.
// Для одного пользователя одновременно обрабатывается не больше одного кадра.
type QualityService struct {
	users       *UserService
	detectors   map[entity.DetectorKind]port.StrawberryDetector
	calculators CalculatorFactory
	canvases    port.CanvasFactory
	charts      ChartRenderer
	pool        *WorkerPool
	exporter    port.ResultExporter
	times       *timeutil.Resolver

	mu      sync.Mutex
	streams map[int64]*stream
}

// QualityDeps зависимости сервиса; Exporter и Charts необязательны
type QualityDeps struct {
	Detectors   map[entity.DetectorKind]port.StrawberryDetector
	Calculators CalculatorFactory
	Canvases    port.CanvasFactory
	Charts      ChartRenderer
	Pool        *WorkerPool
	Exporter    port.ResultExporter
	Times       *timeutil.Resolver
}

// NewQualityService создаёт сервис
func NewQualityService(users *UserService, deps QualityDeps) *QualityService {
	times := deps.Times
	if times == nil {
		times = timeutil.NewResolver(nil)
	}
	return &QualityService{
		users:       users,
		detectors:   deps.Detectors,
		calculators: deps.Calculators,
		canvases:    deps.Canvases,
		charts:      deps.Charts,
		pool:        deps.Pool,
		exporter:    deps.Exporter,
		times:       times,
		streams:     make(map[int64]*stream),
	}
}

func (s *QualityService) stream(userID int64) *stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[userID]
	if !ok {
		st = &stream{}
		s.streams[userID] = st
	}
	return st
}

// Detector детектор нужного вида
func (s *QualityService) Detector(kind entity.DetectorKind) (port.StrawberryDetector, error) {
	d, ok := s.detectors[kind]
	if !ok || d == nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("detector %q is not available", kind), nil)
	}
	return d, nil
}

// Process обрабатывает изображение. Если кадр этого пользователя уже в работе,
// новый сразу отбрасывается с ErrBusy.
func (s *QualityService) Process(ctx context.Context, req ProcessRequest) (*QualityOutput, error) {
	if req.Image == nil {
		return nil, apperrors.NewValidationError("image is required", nil)
	}
	st := s.stream(req.UserID)
	if !st.mu.TryLock() {
		logger.WithField("user_id", req.UserID).Debug("frame dropped, stream is busy")
		return nil, apperrors.NewBusyError("previous image is still being processed", ErrBusy)
	}
	defer st.mu.Unlock()

	user, err := s.users.SetState(ctx, req.UserID, req.ChatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.users.SetState(context.WithoutCancel(ctx), req.UserID, req.ChatID, entity.StateMainMenu); err != nil {
			logger.WithError(err).Warn("failed to reset user state")
		}
	}()

	prefs := user.Preferences
	kind := prefs.Processing.Detector
	if req.Detector != "" {
		kind = req.Detector
	}
	detector, err := s.Detector(kind)
	if err != nil {
		return nil, err
	}

	timestamp := s.times.Timestamp(req.FileName)
	var calcs Calculators
	if s.calculators != nil {
		calcs = s.calculators(prefs.Model)
	}
	proc := NewImageProcessor(req.Image, timestamp, prefs, ProcessorDeps{
		Calculators: calcs,
		Canvases:    s.canvases,
		Charts:      s.charts,
		Pool:        s.pool,
	})

	log := logger.WithFields(logrus.Fields{
		"user_id":   req.UserID,
		"detector":  string(kind),
		"timestamp": timestamp,
	})
	annotated, err := proc.Process(ctx, detector)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Error("processing failed")
		return nil, apperrors.NewProcessingError("image processing failed", err)
	}

	result := &entity.ProcessingResult{
		ID:        uuid.New(),
		Timestamp: timestamp,
		Segments:  proc.Segments(),
		Annotated: annotated,
	}
	st.last = proc
	st.result = result

	out := &QualityOutput{Result: result}
	if s.exporter != nil {
		path, err := s.exporter.Export(result)
		if err != nil {
			log.WithError(err).Warn("export failed")
		} else {
			out.ExportPath = path
		}
	}

	log.WithFields(logrus.Fields{
		"pass_id":    result.ID.String(),
		"segments":   len(result.Segments),
		"marketable": result.MarketableCount(),
	}).Info("image processed")
	return out, nil
}

// Detail подробности по ягоде в точке (x, y) последнего обработанного изображения
func (s *QualityService) Detail(ctx context.Context, userID int64, x, y int) (*SegmentDetail, error) {
	st := s.stream(userID)
	if !st.mu.TryLock() {
		return nil, apperrors.NewBusyError("previous image is still being processed", ErrBusy)
	}
	defer st.mu.Unlock()

	if st.last == nil || st.last.Annotator() == nil {
		return nil, apperrors.NewNotFoundError("send an image first", ErrNoResult)
	}
	detail, err := st.last.Annotator().Detail(ctx, x, y)
	if err != nil {
		if errors.Is(err, ErrNoSegment) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("no strawberry at (%d, %d)", x, y), err)
		}
		return nil, err
	}
	return detail, nil
}

// LastResult последний результат пользователя
func (s *QualityService) LastResult(userID int64) (*entity.ProcessingResult, bool) {
	st := s.stream(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.result, st.result != nil
}
