package entity

type Zone string

const (
	ZoneProductionFloor Zone = "Production Floor"
	ZoneOfficeArea      Zone = "Office Area"
	ZoneUtilities       Zone = "Utilities"
	ZoneStorage         Zone = "Storage"
	ZoneLoadingDock     Zone = "Loading Dock"
	ZoneQualityControl  Zone = "Quality Control"
	ZoneOther           Zone = "Other"
)

// Zones lists every zone a classification can produce, Other last.
func Zones() []Zone {
	return []Zone{
		ZoneProductionFloor,
		ZoneOfficeArea,
		ZoneUtilities,
		ZoneStorage,
		ZoneLoadingDock,
		ZoneQualityControl,
		ZoneOther,
	}
}

// ZoneSummary aggregates compliance counts for one zone.
// TotalSensors counts every reading grouped into the zone, including
// rows whose status fell outside the four known values, so the four
// status counts may sum to less than the total on dirty data.
type ZoneSummary struct {
	Zone                 Zone    `json:"zone"`
	TotalSensors         int     `json:"total_sensors"`
	CompliantCount       int     `json:"compliant_count"`
	OffTargetCount       int     `json:"off_target_count"`
	WarningCount         int     `json:"warning_count"`
	CriticalCount        int     `json:"critical_count"`
	CompliancePercentage float64 `json:"compliance_percentage"`
}

// ZoneRect is one rectangle of the drawn floor plan, axis-aligned,
// corners in meters.
type ZoneRect struct {
	Zone Zone    `json:"zone"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// ZoneDetail pairs one zone's summary with the readings behind it.
type ZoneDetail struct {
	Summary  ZoneSummary     `json:"summary"`
	Readings []SensorReading `json:"readings"`
}

// ViewStats are the headline numbers for a filtered reading set.
// CompliancePercentage is nil when the set is empty.
type ViewStats struct {
	TotalSensors         int      `json:"total_sensors"`
	CompliantCount       int      `json:"compliant_count"`
	AlertCount           int      `json:"alert_count"`
	CompliancePercentage *float64 `json:"compliance_percentage"`
}

// SpatialFilter narrows a spatial reading set. Empty slices mean no
// restriction on that dimension.
type SpatialFilter struct {
	Zones    []string `json:"zones"`
	Types    []string `json:"types"`
	Statuses []string `json:"statuses"`
}

func (f SpatialFilter) IsEmpty() bool {
	return len(f.Zones) == 0 && len(f.Types) == 0 && len(f.Statuses) == 0
}
