package psql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"esgmonitor/internal/domain/entity"
)

type MetricRepo struct {
	DB *gorm.DB
}

func NewMetricRepo(db *gorm.DB) *MetricRepo {
	return &MetricRepo{DB: db}
}

func (r *MetricRepo) ListESG(ctx context.Context) ([]entity.ESGMetric, error) {
	var metrics []entity.ESGMetric
	err := r.DB.WithContext(ctx).
		Order("esg_category, metric_name").
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("list esg metrics: %w", err)
	}
	return metrics, nil
}
