package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExchangeLister reports which exchanges have credentials configured.
type ExchangeLister interface {
	Available() []string
	DefaultID() string
}

type Handler struct {
	tracer       trace.Tracer
	exchanges    ExchangeLister
	configReport func() string
	mcp          http.Handler
	started      time.Time
}

// New builds the HTTP surface. mcp is mounted at /mcp when non-nil.
func New(tracer trace.Tracer, exchanges ExchangeLister, configReport func() string, mcp http.Handler) *Handler {
	return &Handler{
		tracer:       tracer,
		exchanges:    exchanges,
		configReport: configReport,
		mcp:          mcp,
		started:      time.Now(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/config", h.Config)
	if h.mcp != nil {
		r.Any("/mcp", gin.WrapH(h.mcp))
	}
}

func (h *Handler) Health(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.health")
	defer span.End()

	body := gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if h.exchanges != nil {
		available := h.exchanges.Available()
		if available == nil {
			available = []string{}
		}
		body["exchanges"] = available
		body["default_exchange"] = h.exchanges.DefaultID()
		span.SetAttributes(attribute.Int("exchanges", len(available)))
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) Config(c *gin.Context) {
	if h.configReport == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "config report unavailable"})
		return
	}
	c.String(http.StatusOK, h.configReport())
}
