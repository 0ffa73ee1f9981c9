package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"esgmonitor/internal/domain/entity"
	"esgmonitor/internal/domain/zone"
	"esgmonitor/internal/metrics"
	"esgmonitor/pkg/utils"
)

// KPI tiles average the five most recent readings per sensor type from
// the last hour.
const (
	kpiWindow  = time.Hour
	kpiPerType = 5

	reportLinkExpiry = 24 * time.Hour
)

var (
	ErrZoneNotFound  = errors.New("zone not found")
	ErrNoReport      = errors.New("no report archived yet")
	ErrEmptyBatch    = errors.New("batch contains no readings")
	ErrBatchTooLarge = errors.New("batch exceeds configured maximum")
)

type SensorRepo interface {
	ListSpatial(ctx context.Context) ([]entity.SensorReading, error)
	LatestByType(ctx context.Context, window time.Duration, perType int) ([]entity.TypeAverage, error)
	TimeSeries(ctx context.Context, from, to time.Time) ([]entity.TimeSeriesPoint, error)
	CountAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

type MetricRepo interface {
	ListESG(ctx context.Context) ([]entity.ESGMetric, error)
}

type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Flush(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

type ReportTracker interface {
	LatestReportKey(ctx context.Context) (string, error)
}

type ReportStorage interface {
	PresignedReportURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type DashboardUseCase struct {
	SensorRepo SensorRepo
	MetricRepo MetricRepo
	Cache      ResultCache
	Publisher  Publisher
	Reports    ReportTracker
	Storage    ReportStorage
	MaxBatch   int

	retryBase time.Duration
}

func NewDashboardUseCase(sensors SensorRepo, esg MetricRepo, cache ResultCache, pub Publisher, reports ReportTracker, storage ReportStorage, maxBatch int) *DashboardUseCase {
	return &DashboardUseCase{
		SensorRepo: sensors,
		MetricRepo: esg,
		Cache:      cache,
		Publisher:  pub,
		Reports:    reports,
		Storage:    storage,
		MaxBatch:   maxBatch,
		retryBase:  500 * time.Millisecond,
	}
}

// SpatialSensors returns zone-labeled readings for the floor map,
// narrowed by the filter. The unfiltered set is what gets cached;
// filters are applied per request.
func (u *DashboardUseCase) SpatialSensors(ctx context.Context, filter entity.SpatialFilter) ([]entity.SensorReading, error) {
	readings, err := u.spatialReadings(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return readings, nil
	}

	out := make([]entity.SensorReading, 0, len(readings))
	for _, r := range readings {
		if matchFilter(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ZoneSummaries computes per-zone compliance over all locatable
// readings, worst zone first.
func (u *DashboardUseCase) ZoneSummaries(ctx context.Context) ([]entity.ZoneSummary, error) {
	key := cacheKey("zones-summary")
	if data, ok := u.cacheGet(ctx, key); ok {
		var cached []entity.ZoneSummary
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := u.SensorRepo.ListSpatial(ctx)
	if err != nil {
		return nil, err
	}
	u.reportUnknownStatuses(rows)

	summaries := zone.Summarize(rows)
	for _, s := range summaries {
		metrics.ZoneCompliancePct.WithLabelValues(string(s.Zone)).Set(s.CompliancePercentage)
	}
	u.cachePut(ctx, key, summaries)
	return summaries, nil
}

func (u *DashboardUseCase) ZoneDetail(ctx context.Context, name string) (*entity.ZoneDetail, error) {
	z, ok := zone.FromName(name)
	if !ok {
		return nil, ErrZoneNotFound
	}

	readings, err := u.spatialReadings(ctx)
	if err != nil {
		return nil, err
	}

	zoneReadings := make([]entity.SensorReading, 0)
	for _, r := range readings {
		if r.Zone == z {
			zoneReadings = append(zoneReadings, r)
		}
	}

	detail := &entity.ZoneDetail{
		Summary:  entity.ZoneSummary{Zone: z},
		Readings: zoneReadings,
	}
	for _, s := range zone.Summarize(zoneReadings) {
		if s.Zone == z {
			detail.Summary = s
		}
	}
	return detail, nil
}

func (u *DashboardUseCase) LatestKPIs(ctx context.Context) ([]entity.TypeAverage, error) {
	key := cacheKey("kpis-latest")
	if data, ok := u.cacheGet(ctx, key); ok {
		var cached []entity.TypeAverage
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := u.SensorRepo.LatestByType(ctx, kpiWindow, kpiPerType)
	if err != nil {
		return nil, err
	}
	u.cachePut(ctx, key, rows)
	return rows, nil
}

func (u *DashboardUseCase) ESGMetrics(ctx context.Context) ([]entity.ESGMetric, error) {
	key := cacheKey("metrics-esg")
	if data, ok := u.cacheGet(ctx, key); ok {
		var cached []entity.ESGMetric
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := u.MetricRepo.ListESG(ctx)
	if err != nil {
		return nil, err
	}
	u.cachePut(ctx, key, rows)
	return rows, nil
}

// TimeSeries returns averaged chart points for the date range. The
// full range is cached; the optional sensor type narrows per request.
func (u *DashboardUseCase) TimeSeries(ctx context.Context, from, to time.Time, sensorType string) ([]entity.TimeSeriesPoint, error) {
	key := cacheKey("timeseries", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if data, ok := u.cacheGet(ctx, key); ok {
		var cached []entity.TimeSeriesPoint
		if err := json.Unmarshal(data, &cached); err == nil {
			return filterByType(cached, sensorType), nil
		}
	}

	rows, err := u.SensorRepo.TimeSeries(ctx, from, to)
	if err != nil {
		return nil, err
	}
	u.cachePut(ctx, key, rows)
	return filterByType(rows, sensorType), nil
}

func (u *DashboardUseCase) ViewStats(ctx context.Context, filter entity.SpatialFilter) (entity.ViewStats, error) {
	readings, err := u.SpatialSensors(ctx, filter)
	if err != nil {
		return entity.ViewStats{}, err
	}
	return zone.Stats(readings), nil
}

// SubmitReadings validates a batch and queues it for the ingest
// worker. Rows without a sensor id or with an unknown compliance
// status are rejected; the rest get a timestamp when missing.
func (u *DashboardUseCase) SubmitReadings(ctx context.Context, readings []entity.SensorReading) (*entity.BatchReceipt, error) {
	if len(readings) == 0 {
		return nil, ErrEmptyBatch
	}
	if u.MaxBatch > 0 && len(readings) > u.MaxBatch {
		return nil, fmt.Errorf("%w: %d readings, maximum %d", ErrBatchTooLarge, len(readings), u.MaxBatch)
	}

	now := time.Now().UTC()
	valid := make([]entity.SensorReading, 0, len(readings))
	rejected := 0
	for _, r := range readings {
		if r.SensorID == "" || !r.ComplianceStatus.IsValid() {
			rejected++
			continue
		}
		if r.TimestampUTC.IsZero() {
			r.TimestampUTC = now
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: all %d readings failed validation", ErrEmptyBatch, rejected)
	}

	msg := entity.ReadingBatchMessage{
		BatchID:     uuid.New().String(),
		Source:      "api",
		SubmittedAt: now,
		Readings:    valid,
	}
	body, err := utils.ToRawMessage(msg)
	if err != nil {
		return nil, err
	}
	if err := u.publishWithRetry(ctx, body); err != nil {
		return nil, err
	}

	metrics.ReadingsPublished.Add(float64(len(valid)))
	if rejected > 0 {
		metrics.ReadingsRejected.Add(float64(rejected))
	}
	return &entity.BatchReceipt{BatchID: msg.BatchID, Accepted: len(valid), Rejected: rejected}, nil
}

// Refresh drops every cached dashboard result, forcing the next
// requests back to the database.
func (u *DashboardUseCase) Refresh(ctx context.Context) (int, error) {
	n, err := u.Cache.Flush(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("cache refresh dropped %d entries", n)
	return n, nil
}

func (u *DashboardUseCase) LatestReport(ctx context.Context) (*entity.ReportLink, error) {
	key, err := u.Reports.LatestReportKey(ctx)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrNoReport
	}

	url, err := u.Storage.PresignedReportURL(ctx, key, reportLinkExpiry)
	if err != nil {
		return nil, err
	}
	return &entity.ReportLink{Key: key, URL: url}, nil
}

func (u *DashboardUseCase) Health(ctx context.Context) entity.Health {
	h := entity.Health{Status: entity.HealthHealthy, Postgres: true, Redis: true}
	if err := u.SensorRepo.Ping(ctx); err != nil {
		log.Printf("health: postgres ping: %v", err)
		h.Postgres = false
		h.Status = entity.HealthDegraded
	} else if n, err := u.SensorRepo.CountAll(ctx); err != nil {
		log.Printf("health: count readings: %v", err)
		h.Postgres = false
		h.Status = entity.HealthDegraded
	} else {
		h.StoredReadings = n
	}
	if err := u.Cache.Ping(ctx); err != nil {
		log.Printf("health: redis ping: %v", err)
		h.Redis = false
		h.Status = entity.HealthDegraded
	}
	return h
}

// spatialReadings loads the cached zone-labeled reading set, going to
// the database on a miss.
func (u *DashboardUseCase) spatialReadings(ctx context.Context) ([]entity.SensorReading, error) {
	key := cacheKey("sensors-spatial")
	if data, ok := u.cacheGet(ctx, key); ok {
		var cached []entity.SensorReading
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		log.Printf("discarding undecodable cache entry %s", key)
	}

	rows, err := u.SensorRepo.ListSpatial(ctx)
	if err != nil {
		return nil, err
	}
	u.reportUnknownStatuses(rows)

	readings := zone.Annotate(rows)
	u.cachePut(ctx, key, readings)
	return readings, nil
}

func (u *DashboardUseCase) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := u.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("cache get %s: %v", key, err)
		return nil, false
	}
	if ok {
		metrics.CacheHits.Inc()
	} else {
		metrics.CacheMisses.Inc()
	}
	return data, ok
}

// cachePut stores best-effort: a failed write costs a recompute later,
// never the request.
func (u *DashboardUseCase) cachePut(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache marshal %s: %v", key, err)
		return
	}
	if err := u.Cache.Set(ctx, key, data); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

func (u *DashboardUseCase) reportUnknownStatuses(rows []entity.SensorReading) {
	if n := zone.CountUnknownStatuses(rows); n > 0 {
		log.Printf("data quality: %d readings carry an unrecognized compliance status", n)
	}
}

func (u *DashboardUseCase) publishWithRetry(ctx context.Context, msg json.RawMessage) error {
	var (
		maxDelay    = 10 * time.Second
		maxAttempts = 5
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := u.Publisher.Publish(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxAttempts {
			break
		}

		backoff := u.retryBase << (attempt - 1)
		if backoff > maxDelay {
			backoff = maxDelay
		}

		select {
		case <-time.After(backoff):

		case <-ctx.Done():
			return errors.New("publish canceled by context")
		}
	}

	return lastErr
}

func filterByType(points []entity.TimeSeriesPoint, sensorType string) []entity.TimeSeriesPoint {
	if sensorType == "" {
		return points
	}
	out := make([]entity.TimeSeriesPoint, 0, len(points))
	for _, p := range points {
		if p.SensorType == sensorType {
			out = append(out, p)
		}
	}
	return out
}

func matchFilter(r entity.SensorReading, f entity.SpatialFilter) bool {
	if len(f.Zones) > 0 && !containsString(f.Zones, string(r.Zone)) {
		return false
	}
	if len(f.Types) > 0 && !containsString(f.Types, r.SensorType) {
		return false
	}
	if len(f.Statuses) > 0 && !containsString(f.Statuses, string(r.ComplianceStatus)) {
		return false
	}
	return true
}

func containsString(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}
