package entity

import "time"

// ESGMetric is one row of the curated environmental/social/governance
// scorecard, maintained outside this service and read verbatim.
type ESGMetric struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	Category    string  `gorm:"column:esg_category;not null;index" json:"esg_category"`
	MetricName  string  `gorm:"not null" json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
	Unit        string  `json:"unit"`
	Rating      string  `json:"rating"`
}

func (ESGMetric) TableName() string { return "esg_dashboard_metrics" }

// TypeAverage is the rolling KPI tile for one sensor type: the average
// of its most recent readings inside the KPI window.
type TypeAverage struct {
	SensorType  string  `json:"sensor_type"`
	AvgValue    float64 `json:"avg_value"`
	Unit        string  `json:"unit"`
	SampleCount int     `json:"sample_count"`
}

// TimeSeriesPoint is one averaged chart point for a sensor type.
type TimeSeriesPoint struct {
	TimestampUTC time.Time `json:"timestamp_utc"`
	SensorType   string    `json:"sensor_type"`
	AvgValue     float64   `json:"avg_value"`
	Unit         string    `json:"unit"`
}

// Health reports dependency liveness for the readiness endpoint.
// StoredReadings is the full sensor_readings row count, zero when
// Postgres is unreachable.
type Health struct {
	Status         string `json:"status"`
	Postgres       bool   `json:"postgres"`
	Redis          bool   `json:"redis"`
	StoredReadings int64  `json:"stored_readings"`
}

const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)
