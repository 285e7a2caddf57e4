// Package apiv1 exposes the similarity query service over HTTP.
package apiv1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/cinesense/internal/profile"
	"github.com/hrygo/cinesense/server/middleware"
	"github.com/hrygo/cinesense/server/retrieval"
)

// QueryService answers similarity queries.
type QueryService interface {
	Query(ctx context.Context, prompt string, topK int) ([]*retrieval.Result, error)
}

// APIV1Service wires the query service into an echo server.
type APIV1Service struct {
	Profile   *profile.Profile
	Retrieval QueryService

	limiter *middleware.RateLimiter
}

// NewAPIV1Service creates the HTTP API service.
func NewAPIV1Service(profile *profile.Profile, retrieval QueryService) *APIV1Service {
	return &APIV1Service{
		Profile:   profile,
		Retrieval: retrieval,
		limiter:   middleware.NewRateLimiter(10, 20),
	}
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Prompt string `json:"prompt"`
	TopK   int    `json:"top_k"`
}

// ErrorResponse carries the failure detail of a 5xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Register mounts all routes and middleware on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.Use(echomw.Recover())
	e.Use(requestLogger())

	e.GET("/", s.healthz)
	e.POST("/query", s.query, s.limiter.Middleware())
}

// healthz is the health probe.
// GET /
func (s *APIV1Service) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "cinesense query API is online",
	})
}

// query embeds the prompt and returns ranked review chunks.
// POST /query
func (s *APIV1Service) query(c echo.Context) error {
	request := &QueryRequest{}
	if err := c.Bind(request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body"})
	}

	// An empty prompt is a valid, if low-signal, query.
	results, err := s.Retrieval.Query(c.Request().Context(), request.Prompt, request.TopK)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmbedderUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Detail: err.Error()})
		}
		slog.Error("query failed", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
	}

	return c.JSON(http.StatusOK, results)
}

// requestLogger logs one line per request with a generated request id.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := uuid.New().String()
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)

			slog.Info("http request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds())
			return err
		}
	}
}
