// Package rest HTTP API конвейера оценки качества
package rest

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"berry-quality/internal/apperrors"
	app "berry-quality/internal/application"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/export"
	"berry-quality/internal/infrastructure/imagecodec"
	"berry-quality/internal/logger"
)

// QualityProcessor сценарии, доступные через HTTP
type QualityProcessor interface {
	Process(ctx context.Context, req app.ProcessRequest) (*app.QualityOutput, error)
	Detail(ctx context.Context, userID int64, x, y int) (*app.SegmentDetail, error)
}

// Options ограничения запросов
type Options struct {
	MaxRequestBodySize int64
	RequestTimeout     time.Duration
}

// DetailRequest точка на последнем обработанном изображении сессии
type DetailRequest struct {
	SessionID int64 `json:"session_id"`
	X         *int  `json:"x" binding:"required"`
	Y         *int  `json:"y" binding:"required"`
}

// ProcessResponse результат прохода
type ProcessResponse struct {
	export.Document
	Marketable   int    `json:"marketable"`
	AnnotatedJPG string `json:"annotated_jpeg"`
	ExportPath   string `json:"export_path,omitempty"`
}

// DetailResponse подробности по ягоде
type DetailResponse struct {
	Index      int           `json:"index"`
	Segment    export.Record `json:"segment"`
	Lines      []string      `json:"lines"`
	ChartPNG   string        `json:"chart_png,omitempty"`
	PreviewJPG string        `json:"preview_jpeg,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler собирает роутер
func NewHandler(svc QualityProcessor, opts Options) http.Handler {
	if opts.MaxRequestBodySize <= 0 {
		opts.MaxRequestBodySize = 32 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), requestSizeLimiter(opts.MaxRequestBodySize))

	r.GET("/health", healthCheck)
	r.POST("/process", processImage(svc, opts))
	r.POST("/detail", segmentDetail(svc, opts))
	return r
}

func processImage(svc QualityProcessor, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.RequestTimeout)
		defer cancel()

		file, err := c.FormFile("image")
		if err != nil {
			respondError(c, apperrors.NewValidationError("multipart field \"image\" is required", err))
			return
		}
		data, err := readUpload(file)
		if err != nil {
			respondError(c, apperrors.NewValidationError("cannot read upload", err))
			return
		}
		img, format, err := imagecodec.Decode(data)
		if err != nil {
			respondError(c, apperrors.NewValidationError("unsupported image", err))
			return
		}

		sessionID, err := parseSession(c.PostForm("session_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		req := app.ProcessRequest{UserID: sessionID, Image: img, FileName: file.Filename}
		if name := c.PostForm("detector"); name != "" {
			kind, err := entity.ParseDetectorKind(name)
			if err != nil {
				respondError(c, apperrors.NewValidationError("unknown detector", err))
				return
			}
			req.Detector = kind
		}

		logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"file":       file.Filename,
			"format":     format,
			"detector":   string(req.Detector),
		}).Debug("processing upload")

		out, err := svc.Process(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}
		annotated, err := imagecodec.EncodeJPEG(out.Result.Annotated)
		if err != nil {
			respondError(c, apperrors.NewInternalError("encode annotated image", err))
			return
		}

		c.JSON(http.StatusOK, ProcessResponse{
			Document:     export.NewDocument(out.Result),
			Marketable:   out.Result.MarketableCount(),
			AnnotatedJPG: base64.StdEncoding.EncodeToString(annotated),
			ExportPath:   out.ExportPath,
		})
	}
}

func segmentDetail(svc QualityProcessor, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.RequestTimeout)
		defer cancel()

		var req DetailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid request format", err))
			return
		}

		detail, err := svc.Detail(ctx, req.SessionID, *req.X, *req.Y)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := DetailResponse{
			Index:   detail.Index,
			Segment: export.NewRecord(detail.Segment),
			Lines:   detail.Lines,
		}
		if detail.Chart != nil {
			if data, err := imagecodec.EncodePNG(detail.Chart); err == nil {
				resp.ChartPNG = base64.StdEncoding.EncodeToString(data)
			}
		}
		if detail.Preview != nil && !detail.Preview.Bounds().Empty() {
			if data, err := imagecodec.EncodeJPEG(detail.Preview); err == nil {
				resp.PreviewJPG = base64.StdEncoding.EncodeToString(data)
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "available",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func parseSession(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("session_id must be an integer", err)
	}
	return id, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	}
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return apperrors.GetStatusCode(err)
}

func respondError(c *gin.Context, err error) {
	code := statusCode(err)
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
	}).Warn("request failed")

	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
}
