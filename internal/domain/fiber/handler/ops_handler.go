package handler

import (
	"net/http"
	"time"

	"github.com/fadilmartias/interview-worker/internal/dto"
	"github.com/fadilmartias/interview-worker/internal/middleware"
	"github.com/fadilmartias/interview-worker/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
)

// StatusSource exposes what the ops surface reports about the worker.
type StatusSource interface {
	Snapshot() map[string]map[string]int
	StartedAt() time.Time
	Handler() http.Handler
}

// CircuitBreaker reports the generative backend's breaker state.
type CircuitBreaker interface {
	GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool)
}

type OpsHandler struct {
	name    string
	status  StatusSource
	breaker CircuitBreaker
}

// NewOpsHandler builds the ops routes. breaker may be nil.
func NewOpsHandler(name string, status StatusSource, breaker CircuitBreaker) *OpsHandler {
	return &OpsHandler{name: name, status: status, breaker: breaker}
}

func (h *OpsHandler) RegisterRoutes(app *fiber.App) {
	app.Use(healthcheck.New(healthcheck.Config{LivenessEndpoint: "/healthz"}))
	app.Get("/metrics", adaptor.HTTPHandler(h.status.Handler()))
	app.Get("/status", middleware.RateLimiter(30, time.Minute), h.Status)
}

func (h *OpsHandler) Status(c *fiber.Ctx) error {
	startedAt := h.status.StartedAt()
	data := dto.WorkerStatusDTO{
		Name:      h.name,
		StartedAt: startedAt,
		Uptime:    time.Since(startedAt).Truncate(time.Second).String(),
		Topics:    h.status.Snapshot(),
	}
	if h.breaker != nil {
		consecutive, open := h.breaker.GetCircuitBreakerStatus()
		data.CircuitBreaker = &dto.CircuitBreakerDTO{ConsecutiveErrors: consecutive, Open: open}
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get worker status",
		Data:    data,
	})
}
