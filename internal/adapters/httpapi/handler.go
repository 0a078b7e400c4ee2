// Package httpapi exposes the bot over HTTP: trigger a run, list journaled
// runs, health and Prometheus metrics.
//
// The /v1 routes require "Authorization: Bearer <token>" when a token is
// configured. Without one, runs triggered over HTTP are always dry runs.
package httpapi

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/strategy/analytics"
)

const (
	maxEventBytes = 64 << 10
	defaultLimit  = 20
	statsLimit    = 100
	maxLimit      = 500
)

// RunService is what the API needs from the trading service.
type RunService interface {
	ports.RunInvoker
	RecentRuns(ctx context.Context, limit int) ([]*domain.RunRecord, error)
	RunSignals(ctx context.Context, runID string) ([]domain.TradeSignal, error)
	StrategyName() string
}

// Handler serves the bot API.
type Handler struct {
	svc      RunService
	gatherer prometheus.Gatherer
	logger   ports.Logger
	token    string
	started  time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithToken protects the /v1 routes with a bearer token.
func WithToken(token string) Option {
	return func(h *Handler) { h.token = token }
}

// NewHandler creates a handler. gatherer defaults to the global registry.
func NewHandler(svc RunService, gatherer prometheus.Gatherer, logger ports.Logger, opts ...Option) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{svc: svc, gatherer: gatherer, logger: logger, started: time.Now()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1", h.requireToken)
	v1.POST("/runs", h.triggerRun)
	v1.GET("/runs", h.listRuns)
	v1.GET("/runs/stats", h.runStats)
	v1.GET("/runs/:id/signals", h.runSignals)
}

// requireToken rejects requests without the configured bearer token. It
// passes everything through when no token is set.
func (h *Handler) requireToken(c *gin.Context) {
	if h.token == "" {
		c.Next()
		return
	}
	got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		h.logger.Warn(c.Request.Context(), "Rejected unauthenticated API request", map[string]interface{}{
			"remote": c.ClientIP(), "path": c.FullPath(),
		})
		c.Header("WWW-Authenticate", `Bearer realm="daybot"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid bearer token"})
		return
	}
	c.Next()
}

// NewRouter builds a gin engine with recovery and the API routes.
func (h *Handler) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"strategy": h.svc.StrategyName(),
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

// triggerRun accepts an optional JSON or YAML event body.
func (h *Handler) triggerRun(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	evt, err := domain.ParseRunEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.token == "" {
		if evt.DryRun != nil && !*evt.DryRun {
			c.JSON(http.StatusForbidden, gin.H{"error": "live runs over HTTP require HTTP_API_TOKEN"})
			return
		}
		dry := true
		evt.DryRun = &dry
	}

	h.logger.Info(c.Request.Context(), "Run triggered over HTTP", map[string]interface{}{
		"remote": c.ClientIP(), "watchlist": len(evt.Watchlist), "dryRunOverride": evt.DryRun != nil,
		"authenticated": h.token != "",
	})
	result := h.svc.Invoke(c.Request.Context(), evt)
	c.JSON(result.StatusCode(), result)
}

// queryLimit reads ?limit=, capped at maxLimit. It writes a 400 and
// returns false on a malformed value.
func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(n, maxLimit), true
}

func (h *Handler) listRuns(c *gin.Context) {
	limit, ok := queryLimit(c, defaultLimit)
	if !ok {
		return
	}

	runs, err := h.svc.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []*domain.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// runStats aggregates the most recent journaled runs.
func (h *Handler) runStats(c *gin.Context) {
	limit, ok := queryLimit(c, statsLimit)
	if !ok {
		return
	}
	runs, err := h.svc.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to load runs for stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load runs"})
		return
	}
	stats := analytics.AnalyzeRuns(runs)
	c.JSON(http.StatusOK, statsResponse{RunMetrics: stats, Monthly: stats.GetMonthlyTrades()})
}

type statsResponse struct {
	*analytics.RunMetrics
	Monthly []analytics.MonthlyTrades `json:"monthly"`
}

// runSignals returns the journaled signals of one run.
func (h *Handler) runSignals(c *gin.Context) {
	runID := c.Param("id")
	signals, err := h.svc.RunSignals(c.Request.Context(), runID)
	if err != nil {
		h.logger.Error(c.Request.Context(), err, "Failed to load run signals", map[string]interface{}{"runID": runID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load signals"})
		return
	}
	if signals == nil {
		signals = []domain.TradeSignal{}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "signals": signals})
}
