// Package zone maps factory floor coordinates to named zones and
// aggregates sensor compliance per zone. The floor plan is a 100x100
// meter grid; classification is an ordered rule list evaluated top to
// bottom, first match wins, which is what resolves points that sit on a
// boundary shared by two zones.
package zone

import "esgmonitor/internal/domain/entity"

type rule struct {
	zone  entity.Zone
	match func(x, y float64) bool
}

// Rule order is load-bearing: (71,30) is Utilities, not Storage, and
// (71,60) is Office Area, not Storage, because the earlier rule wins.
// The corner x>70 && y>80 is covered by no rule and falls out as Other.
var rules = []rule{
	{entity.ZoneProductionFloor, func(x, y float64) bool { return x <= 70 && y <= 80 }},
	{entity.ZoneOfficeArea, func(x, y float64) bool { return x > 70 && y >= 60 && y <= 80 }},
	{entity.ZoneUtilities, func(x, y float64) bool { return x > 70 && y <= 30 }},
	{entity.ZoneStorage, func(x, y float64) bool { return x > 70 && y >= 30 && y <= 60 }},
	{entity.ZoneLoadingDock, func(x, y float64) bool { return x <= 30 && y > 80 }},
	{entity.ZoneQualityControl, func(x, y float64) bool { return x >= 30 && x <= 70 && y > 80 }},
}

// Classify returns the zone for a point on the floor plan. It is total
// and never fails; callers are expected to drop out-of-range points
// before asking, because inequalities like x > 70 keep matching far
// outside the grid.
func Classify(x, y float64) entity.Zone {
	for _, r := range rules {
		if r.match(x, y) {
			return r.zone
		}
	}
	return entity.ZoneOther
}

// FromName resolves a zone label sent by a client, e.g. a path
// parameter, to the canonical Zone value.
func FromName(name string) (entity.Zone, bool) {
	for _, z := range entity.Zones() {
		if string(z) == name {
			return z, true
		}
	}
	return "", false
}

// InBounds reports whether a point lies on the floor plan grid.
func InBounds(x, y float64) bool {
	return x >= 0 && x <= 100 && y >= 0 && y <= 100
}
