// Package api exposes a small inspection and sampling service over a
// running chunk pool: pool geometry and residency as JSON, plus a
// measurement-sampling endpoint for loaded statevectors.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"
)

// State is the simulator-side surface the server reads from. Sample
// draws shots from one chunk's probability distribution; implementations
// must not disturb the live statevector.
type State interface {
	Status() Status
	Sample(ctx context.Context, chunk, shots int, seed int64) ([]int, error)
}

// Server registers the inspection routes on an echo instance.
type Server struct {
	state   State
	limiter *rate.Limiter
}

// NewServer builds a server over state, throttled to rps sampling
// requests per second with the given burst.
func NewServer(state State, rps rate.Limit, burst int) *Server {
	return &Server{
		state:   state,
		limiter: rate.NewLimiter(rps, burst),
	}
}

// Register mounts the routes.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/status", s.handleStatus)
	e.POST("/v1/sample", s.handleSample, s.rateLimit)
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if !s.limiter.Allow() {
			return writeError(c, http.StatusTooManyRequests, "rate_limit_error", "sampling rate limit exceeded")
		}
		return next(c)
	}
}

func (s *Server) handleStatus(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, s.state.Status())
}

func (s *Server) handleSample(c *echo.Context) error {
	req, err := decodeJSON[SampleRequest](c.Request().Body)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	}
	if req.Shots < 1 {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "shots must be positive")
	}
	status := s.state.Status()
	if req.Chunk < 0 || req.Chunk >= status.NumChunks {
		return writeError(c, http.StatusNotFound, "not_found_error", "chunk index out of range")
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	samples, err := s.state.Sample(c.Request().Context(), req.Chunk, req.Shots, seed)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return writeJSON(c, http.StatusOK, SampleResponse{
		ID:        "sample_" + uuid.NewString(),
		Object:    "sample",
		CreatedAt: time.Now().Unix(),
		Chunk:     req.Chunk,
		Shots:     req.Shots,
		Samples:   samples,
	})
}

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, b)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return writeJSON(c, status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	err := dec.Decode(&v)
	return v, err
}
