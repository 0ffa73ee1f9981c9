package zone

import "esgmonitor/internal/domain/entity"

// layout mirrors the rectangles drawn on the floor map. It is display
// metadata, not the classification: the Office Area rectangle reaches
// y=100 while Classify caps Office Area at y=80, so the two disagree in
// the top-right corner.
var layout = []entity.ZoneRect{
	{Zone: entity.ZoneProductionFloor, X0: 0, Y0: 0, X1: 70, Y1: 80},
	{Zone: entity.ZoneOfficeArea, X0: 70, Y0: 60, X1: 100, Y1: 100},
	{Zone: entity.ZoneUtilities, X0: 70, Y0: 0, X1: 100, Y1: 30},
	{Zone: entity.ZoneStorage, X0: 70, Y0: 30, X1: 100, Y1: 60},
	{Zone: entity.ZoneLoadingDock, X0: 0, Y0: 80, X1: 30, Y1: 100},
	{Zone: entity.ZoneQualityControl, X0: 30, Y0: 80, X1: 70, Y1: 100},
}

// Layout returns the floor plan rectangles in drawing order.
func Layout() []entity.ZoneRect {
	out := make([]entity.ZoneRect, len(layout))
	copy(out, layout)
	return out
}
