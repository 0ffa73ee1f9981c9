package zone

import (
	"testing"

	"esgmonitor/internal/domain/entity"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want entity.Zone
	}{
		{"production floor origin", 0, 0, entity.ZoneProductionFloor},
		{"production floor center", 35, 40, entity.ZoneProductionFloor},
		{"production floor corner inclusive", 70, 80, entity.ZoneProductionFloor},
		{"office area interior", 85, 70, entity.ZoneOfficeArea},
		{"office area lower edge", 71, 60, entity.ZoneOfficeArea},
		{"office area upper edge", 71, 80, entity.ZoneOfficeArea},
		{"utilities interior", 90, 10, entity.ZoneUtilities},
		{"utilities upper edge", 71, 30, entity.ZoneUtilities},
		{"utilities just below edge", 71, 29, entity.ZoneUtilities},
		{"storage interior", 85, 45, entity.ZoneStorage},
		{"storage above utilities edge", 71, 31, entity.ZoneStorage},
		{"storage upper edge short of office", 100, 59.9, entity.ZoneStorage},
		{"loading dock interior", 15, 90, entity.ZoneLoadingDock},
		{"loading dock near boundary", 29, 81, entity.ZoneLoadingDock},
		{"loading dock right edge", 30, 81, entity.ZoneLoadingDock},
		{"quality control interior", 50, 90, entity.ZoneQualityControl},
		{"quality control near boundary", 50, 81, entity.ZoneQualityControl},
		{"quality control left of dock edge", 30.5, 81, entity.ZoneQualityControl},
		{"quality control top edge", 70, 100, entity.ZoneQualityControl},
		{"uncovered top right corner", 100, 100, entity.ZoneOther},
		{"uncovered region above office", 75, 85, entity.ZoneOther},
		{"uncovered region right of dock gap", 71, 80.5, entity.ZoneOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.x, tt.y); got != tt.want {
				t.Errorf("Classify(%v, %v) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// The classifier does not range-check; callers do. Outside the grid
	// it still lands on whichever rule the inequalities satisfy.
	if got := Classify(-5, -5); got != entity.ZoneProductionFloor {
		t.Errorf("Classify(-5, -5) = %q, want %q", got, entity.ZoneProductionFloor)
	}
	if got := Classify(200, 45); got != entity.ZoneStorage {
		t.Errorf("Classify(200, 45) = %q, want %q", got, entity.ZoneStorage)
	}

	for x := 0.0; x <= 100; x += 0.5 {
		for y := 0.0; y <= 100; y += 0.5 {
			z := Classify(x, y)
			found := false
			for _, known := range entity.Zones() {
				if z == known {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("Classify(%v, %v) = %q, not a known zone", x, y, z)
			}
			if again := Classify(x, y); again != z {
				t.Fatalf("Classify(%v, %v) not deterministic: %q then %q", x, y, z, again)
			}
		}
	}
}

func TestFromName(t *testing.T) {
	for _, z := range entity.Zones() {
		got, ok := FromName(string(z))
		if !ok || got != z {
			t.Errorf("FromName(%q) = %q, %v", z, got, ok)
		}
	}
	if _, ok := FromName("Cafeteria"); ok {
		t.Errorf("FromName accepted an unknown zone name")
	}
}

func TestLayout(t *testing.T) {
	rects := Layout()
	if len(rects) != 6 {
		t.Fatalf("Layout() returned %d rectangles, want 6", len(rects))
	}
	seen := map[entity.Zone]bool{}
	for _, r := range rects {
		if seen[r.Zone] {
			t.Errorf("zone %q appears twice in layout", r.Zone)
		}
		seen[r.Zone] = true
		if r.X0 < 0 || r.Y0 < 0 || r.X1 > 100 || r.Y1 > 100 || r.X0 >= r.X1 || r.Y0 >= r.Y1 {
			t.Errorf("rectangle for %q out of shape: %+v", r.Zone, r)
		}
	}
	if seen[entity.ZoneOther] {
		t.Errorf("Other must not appear on the drawn floor plan")
	}

	// Callers may reorder what they get without corrupting the layout.
	rects[0].Zone = entity.ZoneOther
	if Layout()[0].Zone == entity.ZoneOther {
		t.Errorf("Layout() leaked its backing slice")
	}
}
