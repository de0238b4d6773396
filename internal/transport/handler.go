package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anime-shed/red-inspector-go/internal/config"
	apperrors "github.com/anime-shed/red-inspector-go/internal/errors"
	"github.com/anime-shed/red-inspector-go/internal/logger"
	"github.com/anime-shed/red-inspector-go/internal/report"
	"github.com/anime-shed/red-inspector-go/internal/service"
	"github.com/anime-shed/red-inspector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// uploadField is the multipart field carrying the image for /analyze/upload
const uploadField = "image"

// NewHandler builds the API router
func NewHandler(svc service.ImageAnalysisService, cfg config.ServerConfig, version string) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck(version))
	r.POST("/analyze", analyzeURL(svc, cfg.RequestTimeout))
	r.POST("/analyze/upload", analyzeUpload(svc, cfg.RequestTimeout))
	r.GET("/analyses", getAnalysisHistory(svc))
	r.GET("/analyses/:id", getAnalysis(svc))

	return r
}

func analyzeURL(svc service.ImageAnalysisService, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		var req models.AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindStatus(err), "invalid request format", err)
			return
		}

		logger.WithField("url", req.URL).Debug("Analysing remote image")

		result, err := svc.AnalyzeURL(ctx, req.URL)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image analysis failed", err)
			return
		}

		logCompleted(result)
		c.JSON(http.StatusOK, result)
	}
}

func analyzeUpload(svc service.ImageAnalysisService, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		header, err := c.FormFile(uploadField)
		if err != nil {
			respondError(c, bindStatus(err), fmt.Sprintf("multipart field %q is required", uploadField), err)
			return
		}

		file, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unable to read upload", err)
			return
		}
		defer file.Close()

		result, err := svc.AnalyzeUpload(ctx, header.Filename, file)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image analysis failed", err)
			return
		}

		logCompleted(result)
		c.JSON(http.StatusOK, result)
	}
}

func getAnalysis(svc service.ImageAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.GetAnalysis(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "analysis lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// getAnalysisHistory lists the stored analyses of ?image=, oldest first.
// format=csv renders them as a batch report.
func getAnalysisHistory(svc service.ImageAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := svc.GetAnalysisHistory(c.Request.Context(), c.Query("image"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "analysis history lookup failed", err)
			return
		}

		switch c.DefaultQuery("format", "json") {
		case "json":
			if history == nil {
				history = []*models.AnalysisResult{}
			}
			c.JSON(http.StatusOK, history)
		case "csv":
			records := make([]models.Record, 0, len(history))
			for _, result := range history {
				records = append(records, result.Record())
			}
			c.Header("Content-Type", "text/csv; charset=utf-8")
			c.Status(http.StatusOK)
			if err := report.WriteCSV(c.Writer, records); err != nil {
				logger.WithError(err).Error("Failed to write analysis history report")
			}
		default:
			respondError(c, http.StatusBadRequest, "unsupported format",
				fmt.Errorf("format must be json or csv, got %q", c.Query("format")))
		}
	}
}

func healthCheck(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "available",
			Version: version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func logCompleted(result *models.AnalysisResult) {
	logger.WithFields(logrus.Fields{
		"id":                 result.ID,
		"image":              result.Image,
		"red_percentage":     result.RedPercentage,
		"magnitude":          result.Magnitude,
		"processing_time_ms": int64(result.ProcessingTimeSec * 1000),
	}).Info("Image analysis completed successfully")
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondError(c, http.StatusRequestEntityTooLarge, "request body too large",
				fmt.Errorf("%d bytes exceeds the %d byte limit", c.Request.ContentLength, maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Info("Request handled")
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

// bindStatus maps oversize bodies to 413 and every other binding failure to 400
func bindStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
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
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
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
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
