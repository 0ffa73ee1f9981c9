package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"esgmonitor/internal/domain/entity"
)

type fakeSensorRepo struct {
	readings []entity.SensorReading
	kpis     []entity.TypeAverage
	series   []entity.TimeSeriesPoint
	total    int64
	err      error
	pingErr  error
	countErr error

	listCalls   int
	seriesCalls int
}

func (f *fakeSensorRepo) ListSpatial(ctx context.Context) ([]entity.SensorReading, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.readings, nil
}

func (f *fakeSensorRepo) LatestByType(ctx context.Context, window time.Duration, perType int) ([]entity.TypeAverage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.kpis, nil
}

func (f *fakeSensorRepo) TimeSeries(ctx context.Context, from, to time.Time) ([]entity.TimeSeriesPoint, error) {
	f.seriesCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func (f *fakeSensorRepo) CountAll(ctx context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func (f *fakeSensorRepo) Ping(ctx context.Context) error { return f.pingErr }

type fakeMetricRepo struct {
	metrics []entity.ESGMetric
	err     error
}

func (f *fakeMetricRepo) ListESG(ctx context.Context) ([]entity.ESGMetric, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.metrics, nil
}

type fakeCache struct {
	store   map[string][]byte
	getErr  error
	setErr  error
	pingErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.store[key]
	return v, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.store[key] = value
	return nil
}

func (f *fakeCache) Flush(ctx context.Context) (int, error) {
	n := len(f.store)
	f.store = map[string][]byte{}
	return n, nil
}

func (f *fakeCache) Ping(ctx context.Context) error { return f.pingErr }

type fakePublisher struct {
	published []json.RawMessage
	failures  int
	calls     int
}

func (f *fakePublisher) Publish(ctx context.Context, body json.RawMessage) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, body)
	return nil
}

type fakeTracker struct {
	key string
	err error
}

func (f *fakeTracker) LatestReportKey(ctx context.Context) (string, error) {
	return f.key, f.err
}

type fakeStorage struct {
	url string
	err error
}

func (f *fakeStorage) PresignedReportURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url + key, nil
}

func coord(v float64) *float64 { return &v }

func located(id, sensorType string, x, y float64, status entity.ComplianceStatus) entity.SensorReading {
	return entity.SensorReading{
		SensorID:         id,
		SensorType:       sensorType,
		X:                coord(x),
		Y:                coord(y),
		ComplianceStatus: status,
	}
}

func newTestUseCase(repo *fakeSensorRepo, cache *fakeCache, pub *fakePublisher) *DashboardUseCase {
	u := NewDashboardUseCase(repo, &fakeMetricRepo{}, cache, pub, &fakeTracker{}, &fakeStorage{url: "http://minio/"}, 100)
	u.retryBase = time.Millisecond
	return u
}

func TestZoneSummariesCachesResult(t *testing.T) {
	repo := &fakeSensorRepo{readings: []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
		located("s2", "power", 20, 20, entity.StatusCompliant),
		located("s3", "power", 30, 30, entity.StatusWarning),
		located("s4", "co2", 80, 40, entity.StatusCritical),
		located("s5", "co2", 85, 45, entity.StatusCompliant),
	}}
	u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})

	first, err := u.ZoneSummaries(context.Background())
	if err != nil {
		t.Fatalf("ZoneSummaries: %v", err)
	}
	if len(first) != 2 || first[0].Zone != entity.ZoneStorage || first[1].Zone != entity.ZoneProductionFloor {
		t.Fatalf("summaries = %+v, want Storage then Production Floor", first)
	}
	if first[0].CompliancePercentage != 50.0 || first[1].CompliancePercentage != 66.7 {
		t.Errorf("percentages = %v, %v; want 50.0, 66.7",
			first[0].CompliancePercentage, first[1].CompliancePercentage)
	}

	second, err := u.ZoneSummaries(context.Background())
	if err != nil {
		t.Fatalf("ZoneSummaries (cached): %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("repository queried %d times, want 1 with a warm cache", repo.listCalls)
	}
	if len(second) != len(first) {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
}

func TestZoneSummariesRepoError(t *testing.T) {
	repo := &fakeSensorRepo{err: errors.New("connection refused")}
	u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})

	if _, err := u.ZoneSummaries(context.Background()); err == nil {
		t.Fatalf("expected repository error to surface")
	}
}

func TestSpatialSensorsFilters(t *testing.T) {
	repo := &fakeSensorRepo{readings: []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
		located("s2", "temperature", 85, 70, entity.StatusWarning),
		located("s3", "co2", 85, 45, entity.StatusCritical),
		{SensorID: "s4", SensorType: "power", ComplianceStatus: entity.StatusCritical},
	}}

	tests := []struct {
		name    string
		filter  entity.SpatialFilter
		wantIDs []string
	}{
		{"no filter keeps located readings", entity.SpatialFilter{}, []string{"s1", "s2", "s3"}},
		{"by zone", entity.SpatialFilter{Zones: []string{"Office Area"}}, []string{"s2"}},
		{"by type", entity.SpatialFilter{Types: []string{"power"}}, []string{"s1"}},
		{"by status", entity.SpatialFilter{Statuses: []string{"WARNING", "CRITICAL"}}, []string{"s2", "s3"}},
		{"zone and status", entity.SpatialFilter{Zones: []string{"Storage"}, Statuses: []string{"CRITICAL"}}, []string{"s3"}},
		{"no match", entity.SpatialFilter{Zones: []string{"Loading Dock"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})
			got, err := u.SpatialSensors(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("SpatialSensors: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d readings, want %d: %+v", len(got), len(tt.wantIDs), got)
			}
			for i, id := range tt.wantIDs {
				if got[i].SensorID != id {
					t.Errorf("reading %d = %q, want %q", i, got[i].SensorID, id)
				}
				if got[i].Zone == "" {
					t.Errorf("reading %q missing zone label", got[i].SensorID)
				}
			}
		})
	}
}

func TestSpatialSensorsServedFromCache(t *testing.T) {
	repo := &fakeSensorRepo{readings: []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
	}}
	u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})

	for i := 0; i < 3; i++ {
		if _, err := u.SpatialSensors(context.Background(), entity.SpatialFilter{}); err != nil {
			t.Fatalf("SpatialSensors call %d: %v", i, err)
		}
	}
	if repo.listCalls != 1 {
		t.Errorf("repository queried %d times, want 1", repo.listCalls)
	}
}

func TestCorruptCacheEntryFallsThrough(t *testing.T) {
	repo := &fakeSensorRepo{readings: []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
	}}
	cache := newFakeCache()
	cache.store[cacheKey("sensors-spatial")] = []byte("{definitely not json")
	u := newTestUseCase(repo, cache, &fakePublisher{})

	got, err := u.SpatialSensors(context.Background(), entity.SpatialFilter{})
	if err != nil {
		t.Fatalf("SpatialSensors: %v", err)
	}
	if len(got) != 1 || repo.listCalls != 1 {
		t.Errorf("corrupt entry should fall through to the repository")
	}
}

func TestCacheFailuresDoNotBreakReads(t *testing.T) {
	repo := &fakeSensorRepo{readings: []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
	}}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	u := newTestUseCase(repo, cache, &fakePublisher{})

	got, err := u.SpatialSensors(context.Background(), entity.SpatialFilter{})
	if err != nil {
		t.Fatalf("SpatialSensors with broken cache: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d readings, want 1", len(got))
	}
}

func TestZoneDetail(t *testing.T) {
	repo := &fakeSensorRepo{readings: []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
		located("s2", "power", 20, 20, entity.StatusCritical),
		located("s3", "co2", 85, 45, entity.StatusCompliant),
	}}

	t.Run("known zone", func(t *testing.T) {
		u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})
		detail, err := u.ZoneDetail(context.Background(), "Production Floor")
		if err != nil {
			t.Fatalf("ZoneDetail: %v", err)
		}
		if detail.Summary.TotalSensors != 2 || detail.Summary.CompliantCount != 1 {
			t.Errorf("summary = %+v, want total=2 compliant=1", detail.Summary)
		}
		if len(detail.Readings) != 2 {
			t.Errorf("got %d readings, want 2", len(detail.Readings))
		}
		if detail.Summary.CompliancePercentage != 50.0 {
			t.Errorf("percentage = %v, want 50.0", detail.Summary.CompliancePercentage)
		}
	})

	t.Run("zone with no readings", func(t *testing.T) {
		u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})
		detail, err := u.ZoneDetail(context.Background(), "Loading Dock")
		if err != nil {
			t.Fatalf("ZoneDetail: %v", err)
		}
		if detail.Summary.TotalSensors != 0 || len(detail.Readings) != 0 {
			t.Errorf("empty zone detail = %+v", detail)
		}
	})

	t.Run("unknown zone", func(t *testing.T) {
		u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})
		if _, err := u.ZoneDetail(context.Background(), "Cafeteria"); !errors.Is(err, ErrZoneNotFound) {
			t.Fatalf("err = %v, want ErrZoneNotFound", err)
		}
	})
}

func TestTimeSeries(t *testing.T) {
	repo := &fakeSensorRepo{series: []entity.TimeSeriesPoint{
		{SensorType: "power", AvgValue: 120},
		{SensorType: "temperature", AvgValue: 21.5},
		{SensorType: "power", AvgValue: 130},
	}}
	u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	all, err := u.TimeSeries(context.Background(), from, to, "")
	if err != nil {
		t.Fatalf("TimeSeries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d points, want 3", len(all))
	}

	power, err := u.TimeSeries(context.Background(), from, to, "power")
	if err != nil {
		t.Fatalf("TimeSeries filtered: %v", err)
	}
	if len(power) != 2 {
		t.Errorf("got %d power points, want 2", len(power))
	}
	if repo.seriesCalls != 1 {
		t.Errorf("repository queried %d times, want 1; range is cached, type filter is not", repo.seriesCalls)
	}

	// A different range is a different cache entry.
	if _, err := u.TimeSeries(context.Background(), from.AddDate(0, 0, -7), to, ""); err != nil {
		t.Fatalf("TimeSeries second range: %v", err)
	}
	if repo.seriesCalls != 2 {
		t.Errorf("repository queried %d times, want 2 after a new range", repo.seriesCalls)
	}
}

func TestViewStats(t *testing.T) {
	repo := &fakeSensorRepo{readings: []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
		located("s2", "power", 20, 20, entity.StatusOffTarget),
		located("s3", "power", 30, 30, entity.StatusCritical),
		located("s4", "co2", 85, 45, entity.StatusWarning),
	}}
	u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})

	st, err := u.ViewStats(context.Background(), entity.SpatialFilter{})
	if err != nil {
		t.Fatalf("ViewStats: %v", err)
	}
	if st.TotalSensors != 4 || st.CompliantCount != 1 || st.AlertCount != 2 {
		t.Errorf("stats = %+v, want total=4 compliant=1 alerts=2", st)
	}
	if st.CompliancePercentage == nil || *st.CompliancePercentage != 25.0 {
		t.Errorf("percentage = %v, want 25.0", st.CompliancePercentage)
	}

	empty, err := u.ViewStats(context.Background(), entity.SpatialFilter{Zones: []string{"Loading Dock"}})
	if err != nil {
		t.Fatalf("ViewStats empty view: %v", err)
	}
	if empty.TotalSensors != 0 || empty.CompliancePercentage != nil {
		t.Errorf("empty view stats = %+v, want zero counts and nil percentage", empty)
	}
}

func TestSubmitReadings(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), &fakePublisher{})
		if _, err := u.SubmitReadings(context.Background(), nil); !errors.Is(err, ErrEmptyBatch) {
			t.Fatalf("err = %v, want ErrEmptyBatch", err)
		}
	})

	t.Run("oversized batch", func(t *testing.T) {
		u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), &fakePublisher{})
		big := make([]entity.SensorReading, u.MaxBatch+1)
		for i := range big {
			big[i] = located("s", "power", 10, 10, entity.StatusCompliant)
		}
		if _, err := u.SubmitReadings(context.Background(), big); !errors.Is(err, ErrBatchTooLarge) {
			t.Fatalf("err = %v, want ErrBatchTooLarge", err)
		}
	})

	t.Run("all rows invalid", func(t *testing.T) {
		u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), &fakePublisher{})
		bad := []entity.SensorReading{
			{SensorType: "power", ComplianceStatus: entity.StatusCompliant},
			{SensorID: "s1", ComplianceStatus: "MAYBE"},
		}
		if _, err := u.SubmitReadings(context.Background(), bad); !errors.Is(err, ErrEmptyBatch) {
			t.Fatalf("err = %v, want ErrEmptyBatch", err)
		}
	})

	t.Run("valid rows published with defaults", func(t *testing.T) {
		pub := &fakePublisher{}
		u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), pub)

		receipt, err := u.SubmitReadings(context.Background(), []entity.SensorReading{
			located("s1", "power", 10, 10, entity.StatusCompliant),
			{SensorID: "bad-status", ComplianceStatus: "???"},
			located("s2", "co2", 85, 45, entity.StatusCritical),
		})
		if err != nil {
			t.Fatalf("SubmitReadings: %v", err)
		}
		if receipt.Accepted != 2 || receipt.Rejected != 1 || receipt.BatchID == "" {
			t.Errorf("receipt = %+v, want accepted=2 rejected=1 and a batch id", receipt)
		}
		if len(pub.published) != 1 {
			t.Fatalf("published %d messages, want 1", len(pub.published))
		}

		var msg entity.ReadingBatchMessage
		if err := json.Unmarshal(pub.published[0], &msg); err != nil {
			t.Fatalf("unmarshal published batch: %v", err)
		}
		if msg.BatchID != receipt.BatchID || msg.Source != "api" || len(msg.Readings) != 2 {
			t.Errorf("message = %+v, want matching batch id, api source, 2 readings", msg)
		}
		for _, r := range msg.Readings {
			if r.TimestampUTC.IsZero() {
				t.Errorf("reading %q left without a timestamp", r.SensorID)
			}
		}
	})
}

func TestSubmitReadingsRetriesPublish(t *testing.T) {
	pub := &fakePublisher{failures: 2}
	u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), pub)

	if _, err := u.SubmitReadings(context.Background(), []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
	}); err != nil {
		t.Fatalf("SubmitReadings should recover after retries: %v", err)
	}
	if pub.calls != 3 {
		t.Errorf("publisher called %d times, want 3", pub.calls)
	}
}

func TestSubmitReadingsGivesUpAfterMaxAttempts(t *testing.T) {
	pub := &fakePublisher{failures: 100}
	u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), pub)

	if _, err := u.SubmitReadings(context.Background(), []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
	}); err == nil {
		t.Fatalf("expected publish failure to surface")
	}
	if pub.calls != 5 {
		t.Errorf("publisher called %d times, want 5", pub.calls)
	}
}

func TestSubmitReadingsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &fakePublisher{failures: 100}
	u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), pub)

	if _, err := u.SubmitReadings(ctx, []entity.SensorReading{
		located("s1", "power", 10, 10, entity.StatusCompliant),
	}); err == nil {
		t.Fatalf("expected cancellation to stop retrying")
	}
	if pub.calls >= 5 {
		t.Errorf("publisher called %d times, cancellation should cut retries short", pub.calls)
	}
}

func TestRefresh(t *testing.T) {
	cache := newFakeCache()
	cache.store["dash-a"] = []byte("1")
	cache.store["dash-b"] = []byte("2")
	u := newTestUseCase(&fakeSensorRepo{}, cache, &fakePublisher{})

	n, err := u.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if n != 2 || len(cache.store) != 0 {
		t.Errorf("flushed %d entries, %d left; want 2 and 0", n, len(cache.store))
	}
}

func TestLatestReport(t *testing.T) {
	t.Run("no report yet", func(t *testing.T) {
		u := newTestUseCase(&fakeSensorRepo{}, newFakeCache(), &fakePublisher{})
		if _, err := u.LatestReport(context.Background()); !errors.Is(err, ErrNoReport) {
			t.Fatalf("err = %v, want ErrNoReport", err)
		}
	})

	t.Run("report available", func(t *testing.T) {
		u := NewDashboardUseCase(&fakeSensorRepo{}, &fakeMetricRepo{}, newFakeCache(), &fakePublisher{},
			&fakeTracker{key: "reports/zone-compliance/20260821T060000Z.csv"},
			&fakeStorage{url: "http://minio/"}, 100)

		link, err := u.LatestReport(context.Background())
		if err != nil {
			t.Fatalf("LatestReport: %v", err)
		}
		if link.Key != "reports/zone-compliance/20260821T060000Z.csv" {
			t.Errorf("key = %q", link.Key)
		}
		if link.URL != "http://minio/"+link.Key {
			t.Errorf("url = %q", link.URL)
		}
	})
}

func TestHealth(t *testing.T) {
	t.Run("healthy with row count", func(t *testing.T) {
		u := newTestUseCase(&fakeSensorRepo{total: 1250}, newFakeCache(), &fakePublisher{})
		h := u.Health(context.Background())
		if h.Status != entity.HealthHealthy || !h.Postgres || !h.Redis {
			t.Errorf("health = %+v, want healthy", h)
		}
		if h.StoredReadings != 1250 {
			t.Errorf("stored readings = %d, want 1250", h.StoredReadings)
		}
	})

	t.Run("degraded on redis failure", func(t *testing.T) {
		cache := newFakeCache()
		cache.pingErr = errors.New("connection refused")
		u := newTestUseCase(&fakeSensorRepo{}, cache, &fakePublisher{})
		h := u.Health(context.Background())
		if h.Status != entity.HealthDegraded || h.Redis || !h.Postgres {
			t.Errorf("health = %+v, want degraded with redis down", h)
		}
	})

	t.Run("degraded on postgres failure", func(t *testing.T) {
		repo := &fakeSensorRepo{pingErr: errors.New("connection refused")}
		u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})
		h := u.Health(context.Background())
		if h.Status != entity.HealthDegraded || h.Postgres {
			t.Errorf("health = %+v, want degraded with postgres down", h)
		}
	})

	t.Run("degraded when count fails after ping", func(t *testing.T) {
		repo := &fakeSensorRepo{countErr: errors.New("relation missing")}
		u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})
		h := u.Health(context.Background())
		if h.Status != entity.HealthDegraded || h.Postgres || h.StoredReadings != 0 {
			t.Errorf("health = %+v, want degraded with zero count", h)
		}
	})
}

func TestESGMetricsCached(t *testing.T) {
	metricRepo := &fakeMetricRepo{metrics: []entity.ESGMetric{
		{Category: "Environmental", MetricName: "Energy Intensity", MetricValue: 2.4, Unit: "kWh/unit", Rating: "B"},
	}}
	u := NewDashboardUseCase(&fakeSensorRepo{}, metricRepo, newFakeCache(), &fakePublisher{},
		&fakeTracker{}, &fakeStorage{}, 100)

	got, err := u.ESGMetrics(context.Background())
	if err != nil {
		t.Fatalf("ESGMetrics: %v", err)
	}
	if len(got) != 1 || got[0].MetricName != "Energy Intensity" {
		t.Errorf("metrics = %+v", got)
	}

	metricRepo.metrics = nil
	cached, err := u.ESGMetrics(context.Background())
	if err != nil {
		t.Fatalf("ESGMetrics cached: %v", err)
	}
	if len(cached) != 1 {
		t.Errorf("cached metrics = %+v, want the original row", cached)
	}
}

func TestLatestKPIs(t *testing.T) {
	repo := &fakeSensorRepo{kpis: []entity.TypeAverage{
		{SensorType: "co2", AvgValue: 412.5, Unit: "ppm", SampleCount: 5},
		{SensorType: "power", AvgValue: 120.0, Unit: "kW", SampleCount: 5},
	}}
	u := newTestUseCase(repo, newFakeCache(), &fakePublisher{})

	got, err := u.LatestKPIs(context.Background())
	if err != nil {
		t.Fatalf("LatestKPIs: %v", err)
	}
	if len(got) != 2 || got[0].SensorType != "co2" {
		t.Errorf("kpis = %+v", got)
	}
}
