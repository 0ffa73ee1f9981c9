package psql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"esgmonitor/internal/domain/entity"
)

const insertBatchSize = 500

type SensorRepo struct {
	DB *gorm.DB
}

func NewSensorRepo(db *gorm.DB) *SensorRepo {
	return &SensorRepo{DB: db}
}

// ListSpatial returns readings that can be placed on the floor plan,
// newest first. Rows without both coordinates stay in the store but
// never reach zone analytics.
func (r *SensorRepo) ListSpatial(ctx context.Context) ([]entity.SensorReading, error) {
	var readings []entity.SensorReading
	err := r.DB.WithContext(ctx).
		Where("x_coordinate IS NOT NULL AND y_coordinate IS NOT NULL").
		Order("timestamp_utc DESC").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("list spatial readings: %w", err)
	}
	return readings, nil
}

// LatestByType averages the perType most recent readings per sensor
// type inside the window.
func (r *SensorRepo) LatestByType(ctx context.Context, window time.Duration, perType int) ([]entity.TypeAverage, error) {
	since := time.Now().UTC().Add(-window)

	var rows []entity.TypeAverage
	err := r.DB.WithContext(ctx).Raw(`
		SELECT sensor_type,
		       AVG(measurement_value) AS avg_value,
		       MAX(measurement_unit)  AS unit,
		       COUNT(*)               AS sample_count
		FROM (
			SELECT sensor_type, measurement_value, measurement_unit,
			       ROW_NUMBER() OVER (PARTITION BY sensor_type ORDER BY timestamp_utc DESC) AS rn
			FROM sensor_readings
			WHERE timestamp_utc >= ?
		) ranked
		WHERE rn <= ?
		GROUP BY sensor_type
		ORDER BY sensor_type`, since, perType).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest readings by type: %w", err)
	}
	return rows, nil
}

// TimeSeries averages readings grouped by timestamp and sensor type
// across a closed date range.
func (r *SensorRepo) TimeSeries(ctx context.Context, from, to time.Time) ([]entity.TimeSeriesPoint, error) {
	var rows []entity.TimeSeriesPoint
	err := r.DB.WithContext(ctx).Raw(`
		SELECT timestamp_utc,
		       sensor_type,
		       AVG(measurement_value) AS avg_value,
		       MAX(measurement_unit)  AS unit
		FROM sensor_readings
		WHERE DATE(timestamp_utc) BETWEEN DATE(?) AND DATE(?)
		GROUP BY timestamp_utc, sensor_type
		ORDER BY timestamp_utc`, from, to).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("time series: %w", err)
	}
	return rows, nil
}

func (r *SensorRepo) InsertBatch(ctx context.Context, readings []entity.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).CreateInBatches(&readings, insertBatchSize).Error; err != nil {
		return fmt.Errorf("insert readings: %w", err)
	}
	return nil
}

// CountAll reports the full table size, locatable or not, for health
// and stats reporting.
func (r *SensorRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&entity.SensorReading{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

func (r *SensorRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
