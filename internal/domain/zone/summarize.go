package zone

import (
	"math"
	"sort"

	"esgmonitor/internal/domain/entity"
)

// Annotate returns the readings that sit on the floor plan with the
// Zone field filled in. Rows missing a coordinate or lying outside the
// grid are dropped, which makes this the single out-of-range guard in
// front of Classify.
func Annotate(readings []entity.SensorReading) []entity.SensorReading {
	out := make([]entity.SensorReading, 0, len(readings))
	for _, r := range readings {
		if !r.HasLocation() || !InBounds(*r.X, *r.Y) {
			continue
		}
		r.Zone = Classify(*r.X, *r.Y)
		out = append(out, r)
	}
	return out
}

// Summarize groups readings by zone and counts compliance statuses.
// Readings without usable coordinates are skipped, a status outside the
// four known values counts toward the zone total only, and zones with
// no readings are never emitted. The result is sorted worst compliance
// first, ties by zone name.
func Summarize(readings []entity.SensorReading) []entity.ZoneSummary {
	byZone := make(map[entity.Zone]*entity.ZoneSummary)
	for i := range readings {
		r := &readings[i]
		if !r.HasLocation() || !InBounds(*r.X, *r.Y) {
			continue
		}
		z := Classify(*r.X, *r.Y)
		s, ok := byZone[z]
		if !ok {
			s = &entity.ZoneSummary{Zone: z}
			byZone[z] = s
		}
		s.TotalSensors++
		switch r.ComplianceStatus {
		case entity.StatusCompliant:
			s.CompliantCount++
		case entity.StatusOffTarget:
			s.OffTargetCount++
		case entity.StatusWarning:
			s.WarningCount++
		case entity.StatusCritical:
			s.CriticalCount++
		}
	}

	out := make([]entity.ZoneSummary, 0, len(byZone))
	for _, s := range byZone {
		s.CompliancePercentage = Round1(100 * float64(s.CompliantCount) / float64(s.TotalSensors))
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompliancePercentage != out[j].CompliancePercentage {
			return out[i].CompliancePercentage < out[j].CompliancePercentage
		}
		return out[i].Zone < out[j].Zone
	})
	return out
}

// Stats condenses an already filtered reading set into its headline
// numbers. OFF_TARGET rows count toward the total but are neither
// compliant nor alerts. The percentage is nil for an empty set.
func Stats(readings []entity.SensorReading) entity.ViewStats {
	var st entity.ViewStats
	for i := range readings {
		st.TotalSensors++
		switch {
		case readings[i].ComplianceStatus == entity.StatusCompliant:
			st.CompliantCount++
		case readings[i].ComplianceStatus.IsAlert():
			st.AlertCount++
		}
	}
	if st.TotalSensors > 0 {
		pct := Round1(100 * float64(st.CompliantCount) / float64(st.TotalSensors))
		st.CompliancePercentage = &pct
	}
	return st
}

// CountUnknownStatuses counts readings whose compliance status is
// outside the four known values, for data-quality logging.
func CountUnknownStatuses(readings []entity.SensorReading) int {
	n := 0
	for i := range readings {
		if !readings[i].ComplianceStatus.IsValid() {
			n++
		}
	}
	return n
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
