package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-medicine-lookup/internal/config"
	apperrors "go-medicine-lookup/internal/errors"
	"go-medicine-lookup/internal/logger"
	"go-medicine-lookup/internal/service"
	"go-medicine-lookup/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	// multipartOverhead is allowed on top of the image limit for boundaries
	// and part headers.
	multipartOverhead = 64 << 10

	// maxJSONBody bounds summarize payloads.
	maxJSONBody = 1 << 20
)

// StatsProvider exposes counters collected from lookup events
type StatsProvider interface {
	GetMetrics() map[string]interface{}
}

// NewHandler creates the gin engine with middleware and routes
func NewHandler(svc service.MedicineService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		cors(),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", welcome)
	r.GET("/health", healthCheck(svc))

	api := r.Group("/api")
	api.GET("/suggestions", suggestions(svc, cfg))
	api.GET("/medicine-info", medicineInfo(svc, cfg))
	api.POST("/extract-medicine-name", requestSizeLimiter(cfg.MaxUploadSize+multipartOverhead), extractMedicineName(svc, cfg))
	api.POST("/summarize", requestSizeLimiter(maxJSONBody), summarize(svc, cfg))
	api.GET("/stats", statsHandler(stats))

	return r
}

func welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Medisearch Backend!"})
}

func healthCheck(svc service.MedicineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Health())
	}
}

func suggestions(svc service.MedicineService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var q models.NameQuery
		_ = c.ShouldBindQuery(&q)

		c.JSON(http.StatusOK, svc.Suggest(ctx, q.Name))
	}
}

func medicineInfo(svc service.MedicineService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var q models.NameQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respondError(c, http.StatusBadRequest, "invalid query", err)
			return
		}

		resp, err := svc.ResolveInfo(ctx, q.Name)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "medicine lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func extractMedicineName(svc service.MedicineService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fileHeader, err := c.FormFile("image")
		if err != nil {
			if isBodyTooLarge(err) {
				respondError(c, http.StatusRequestEntityTooLarge, "image too large",
					apperrors.NewTooLargeError(fmt.Sprintf("Image exceeds the %d byte limit", cfg.MaxUploadSize), err))
				return
			}
			respondError(c, http.StatusBadRequest, "no image uploaded",
				apperrors.NewValidationError("Image file is required in field \"image\"", err))
			return
		}

		if fileHeader.Size > cfg.MaxUploadSize {
			respondError(c, http.StatusRequestEntityTooLarge, "image too large",
				apperrors.NewTooLargeError(fmt.Sprintf("Image exceeds the %d byte limit", cfg.MaxUploadSize), nil))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable upload", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, cfg.MaxUploadSize+1))
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable upload", err)
			return
		}

		resp, err := svc.ExtractName(ctx, service.ImageUpload{
			Data:     data,
			MimeType: fileHeader.Header.Get("Content-Type"),
			Filename: fileHeader.Filename,
		})
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "medicine name extraction failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         c.GetString(requestIDKey),
			"provider":           resp.Provider,
			"medicine_name":      resp.MedicineName,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Medicine name extracted")

		c.JSON(http.StatusOK, resp)
	}
}

func summarize(svc service.MedicineService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.SummarizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format",
				apperrors.NewValidationError("Body must be JSON with a text field", err))
			return
		}
		text, err := req.JoinedText()
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format",
				apperrors.NewValidationError("No text provided", err))
			return
		}

		resp, err := svc.Summarize(ctx, text)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "summarization failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func statsHandler(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, stats.GetMetrics())
	}
}

// Middleware and helper functions
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id":         c.GetString(requestIDKey),
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"user_agent":         c.Request.UserAgent(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString(requestIDKey),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: publicMessage(message, err),
	})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart parsing does not always wrap the reader error
	return strings.Contains(err.Error(), "request body too large")
}

// publicMessage keeps upstream detail out of responses: only AppError
// messages are shown to clients.
func publicMessage(message string, err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return fmt.Sprintf("%s: %s", message, appErr.Message)
	}
	return message
}
