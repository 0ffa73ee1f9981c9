package v1

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"esgmonitor/internal/domain/entity"
	"esgmonitor/internal/domain/usecase"
	"esgmonitor/internal/domain/zone"
)

const (
	dateLayout = "2006-01-02"

	// Default chart window when the client sends no range.
	defaultRangeDays = 7
)

type DashboardUseCase interface {
	SpatialSensors(ctx context.Context, filter entity.SpatialFilter) ([]entity.SensorReading, error)
	ZoneSummaries(ctx context.Context) ([]entity.ZoneSummary, error)
	ZoneDetail(ctx context.Context, name string) (*entity.ZoneDetail, error)
	LatestKPIs(ctx context.Context) ([]entity.TypeAverage, error)
	ESGMetrics(ctx context.Context) ([]entity.ESGMetric, error)
	TimeSeries(ctx context.Context, from, to time.Time, sensorType string) ([]entity.TimeSeriesPoint, error)
	ViewStats(ctx context.Context, filter entity.SpatialFilter) (entity.ViewStats, error)
	SubmitReadings(ctx context.Context, readings []entity.SensorReading) (*entity.BatchReceipt, error)
	Refresh(ctx context.Context) (int, error)
	LatestReport(ctx context.Context) (*entity.ReportLink, error)
	Health(ctx context.Context) entity.Health
}

type DashboardHandler struct {
	UseCase DashboardUseCase
}

func NewDashboardHandler(u DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{UseCase: u}
}

// RegisterRoutes mounts every dashboard endpoint on the group.
func (h *DashboardHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", h.Health)
	g.GET("/sensors/spatial", h.SpatialSensors)
	g.GET("/zones", h.ZoneLayout)
	g.GET("/zones/summary", h.ZoneSummaries)
	g.GET("/zones/:name", h.ZoneDetail)
	g.GET("/kpis/latest", h.LatestKPIs)
	g.GET("/metrics/esg", h.ESGMetrics)
	g.GET("/timeseries", h.TimeSeries)
	g.GET("/stats", h.ViewStats)
	g.GET("/reports/latest", h.LatestReport)
	g.POST("/readings", h.SubmitReadings)
	g.POST("/refresh", h.Refresh)
}

func (h *DashboardHandler) Health(c *gin.Context) {
	health := h.UseCase.Health(c.Request.Context())
	code := http.StatusOK
	if health.Status != entity.HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

func (h *DashboardHandler) SpatialSensors(c *gin.Context) {
	readings, err := h.UseCase.SpatialSensors(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.serverError(c, "load spatial sensors", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(readings), "readings": readings})
}

// ZoneLayout serves the static floor plan rectangles the map is drawn
// from. No database behind it, so no error path.
func (h *DashboardHandler) ZoneLayout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"floor_width_m": 100, "floor_height_m": 100, "zones": zone.Layout()})
}

func (h *DashboardHandler) ZoneSummaries(c *gin.Context) {
	summaries, err := h.UseCase.ZoneSummaries(c.Request.Context())
	if err != nil {
		h.serverError(c, "load zone summaries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": summaries})
}

func (h *DashboardHandler) ZoneDetail(c *gin.Context) {
	detail, err := h.UseCase.ZoneDetail(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, usecase.ErrZoneNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "zone not found"})
			return
		}
		h.serverError(c, "load zone detail", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *DashboardHandler) LatestKPIs(c *gin.Context) {
	kpis, err := h.UseCase.LatestKPIs(c.Request.Context())
	if err != nil {
		h.serverError(c, "load kpis", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kpis": kpis})
}

func (h *DashboardHandler) ESGMetrics(c *gin.Context) {
	esg, err := h.UseCase.ESGMetrics(c.Request.Context())
	if err != nil {
		h.serverError(c, "load esg metrics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": esg})
}

func (h *DashboardHandler) TimeSeries(c *gin.Context) {
	from, to, err := dateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	points, err := h.UseCase.TimeSeries(c.Request.Context(), from, to, c.Query("sensor_type"))
	if err != nil {
		h.serverError(c, "load time series", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start":  from.Format(dateLayout),
		"end":    to.Format(dateLayout),
		"points": points,
	})
}

func (h *DashboardHandler) ViewStats(c *gin.Context) {
	stats, err := h.UseCase.ViewStats(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.serverError(c, "compute view stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) LatestReport(c *gin.Context) {
	link, err := h.UseCase.LatestReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNoReport) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report archived yet"})
			return
		}
		h.serverError(c, "load latest report", err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *DashboardHandler) SubmitReadings(c *gin.Context) {
	var body struct {
		Readings []entity.SensorReading `json:"readings"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	receipt, err := h.UseCase.SubmitReadings(c.Request.Context(), body.Readings)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyBatch) || errors.Is(err, usecase.ErrBatchTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.serverError(c, "queue readings", err)
		return
	}
	c.JSON(http.StatusAccepted, receipt)
}

func (h *DashboardHandler) Refresh(c *gin.Context) {
	dropped, err := h.UseCase.Refresh(c.Request.Context())
	if err != nil {
		h.serverError(c, "flush cache", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dropped": dropped})
}

// serverError hides the cause from the client and logs it with the
// request id for correlation.
func (h *DashboardHandler) serverError(c *gin.Context, action string, err error) {
	log.Printf("%s (request %s): %v", action, c.GetString("request_id"), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// filterFromQuery parses the zones/types/statuses multiselects, sent as
// comma separated lists.
func filterFromQuery(c *gin.Context) entity.SpatialFilter {
	return entity.SpatialFilter{
		Zones:    splitCSV(c.Query("zones")),
		Types:    splitCSV(c.Query("types")),
		Statuses: splitCSV(c.Query("statuses")),
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// dateRange parses the optional start/end query dates, defaulting to
// the last week ending today.
func dateRange(start, end string) (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	from := now.AddDate(0, 0, -defaultRangeDays)
	to := now

	var err error
	if start != "" {
		if from, err = time.Parse(dateLayout, start); err != nil {
			return time.Time{}, time.Time{}, errors.New("start must be YYYY-MM-DD")
		}
	}
	if end != "" {
		if to, err = time.Parse(dateLayout, end); err != nil {
			return time.Time{}, time.Time{}, errors.New("end must be YYYY-MM-DD")
		}
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, errors.New("start must not be after end")
	}
	return from, to, nil
}
