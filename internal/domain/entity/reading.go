package entity

import (
	"time"
)

type ComplianceStatus string

const (
	StatusCompliant ComplianceStatus = "COMPLIANT"
	StatusOffTarget ComplianceStatus = "OFF_TARGET"
	StatusWarning   ComplianceStatus = "WARNING"
	StatusCritical  ComplianceStatus = "CRITICAL"
)

func (s ComplianceStatus) IsValid() bool {
	switch s {
	case StatusCompliant, StatusOffTarget, StatusWarning, StatusCritical:
		return true
	}
	return false
}

// IsAlert reports whether the status counts toward the alert total shown
// on the dashboard.
func (s ComplianceStatus) IsAlert() bool {
	return s == StatusWarning || s == StatusCritical
}

// SensorReading is one sensor measurement with its compliance label.
// X and Y are meters on the 100x100 floor plan; readings without both
// coordinates exist in the store but are excluded from zone analytics.
// Zone is derived from X and Y on every read and never persisted.
type SensorReading struct {
	ID                 uint             `gorm:"primaryKey" json:"-"`
	SensorID           string           `gorm:"not null;index" json:"sensor_id"`
	SensorType         string           `gorm:"not null;index" json:"sensor_type"`
	MeasurementValue   float64          `json:"measurement_value"`
	MeasurementUnit    string           `json:"measurement_unit"`
	X                  *float64         `gorm:"column:x_coordinate" json:"x_coordinate"`
	Y                  *float64         `gorm:"column:y_coordinate" json:"y_coordinate"`
	TimestampUTC       time.Time        `gorm:"column:timestamp_utc;index" json:"timestamp_utc"`
	ComplianceStatus   ComplianceStatus `gorm:"type:text;index" json:"compliance_status"`
	ThresholdType      string           `json:"threshold_type,omitempty"`
	ComplianceStandard string           `json:"compliance_standard,omitempty"`
	PriorityLevel      string           `json:"priority_level,omitempty"`
	Zone               Zone             `gorm:"-" json:"zone,omitempty"`
}

func (SensorReading) TableName() string { return "sensor_readings" }

func (r *SensorReading) HasLocation() bool {
	return r.X != nil && r.Y != nil
}
