package handlers

import (
	"testing"

	"github.com/nomadland/nomadland/internal/models"
)

func intPtr(i int) *int { return &i }

func testPoint(id int, name string, lat, lng float64, regionID *int) *models.PointWithRating {
	return &models.PointWithRating{
		Point: models.Point{
			ID:        id,
			Name:      name,
			Latitude:  lat,
			Longitude: lng,
			RegionID:  regionID,
		},
	}
}

func TestGroupPointsByRegion(t *testing.T) {
	// Two square regions side by side: A covers lng 0..10, B covers lng 20..30
	regionA := &models.Region{
		ID:   1,
		Name: "Alpha",
		Boundary: [][2]float64{
			{0, 0}, {10, 0}, {10, 10}, {0, 10},
		},
	}
	regionB := &models.Region{
		ID:   2,
		Name: "Beta",
		Boundary: [][2]float64{
			{20, 0}, {30, 0}, {30, 10}, {20, 10},
		},
	}
	regions := []*models.Region{regionA, regionB}

	points := []*models.PointWithRating{
		testPoint(1, "stored in A", 5, 5, intPtr(1)),
		testPoint(2, "geo match B", 5, 25, nil),
		testPoint(3, "nowhere", 50, 50, nil),
		testPoint(4, "geo match A", 2, 2, nil),
	}

	groups := groupPointsByRegion(points, regions)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	// Groups appear in first-seen order: A, B, then the unmatched bucket
	if groups[0].RegionID == nil || *groups[0].RegionID != 1 {
		t.Errorf("first group should be region 1, got %v", groups[0].RegionID)
	}
	if len(groups[0].Points) != 2 {
		t.Errorf("region 1 should hold 2 points, got %d", len(groups[0].Points))
	}
	if groups[1].RegionID == nil || *groups[1].RegionID != 2 {
		t.Errorf("second group should be region 2, got %v", groups[1].RegionID)
	}
	if len(groups[1].Points) != 1 || groups[1].Points[0].ID != 2 {
		t.Errorf("region 2 should hold point 2, got %+v", groups[1].Points)
	}
	if groups[2].RegionID != nil {
		t.Errorf("last group should have nil region, got %v", *groups[2].RegionID)
	}
	if len(groups[2].Points) != 1 || groups[2].Points[0].ID != 3 {
		t.Errorf("unmatched group should hold point 3, got %+v", groups[2].Points)
	}
}

func TestGroupPointsByRegionEmpty(t *testing.T) {
	groups := groupPointsByRegion(nil, nil)
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestGroupPointsByRegionStoredRegionWithoutBoundary(t *testing.T) {
	// A point whose stored region is not in the boundary list falls back to
	// geometric matching, then to the unmatched bucket.
	regions := []*models.Region{
		{ID: 1, Name: "Alpha", Boundary: [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
	}
	points := []*models.PointWithRating{
		testPoint(1, "stored region unknown, inside A", 5, 5, intPtr(99)),
		testPoint(2, "stored region unknown, outside", 50, 50, intPtr(99)),
	}

	groups := groupPointsByRegion(points, regions)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].RegionID == nil || *groups[0].RegionID != 1 {
		t.Errorf("first group should be region 1, got %v", groups[0].RegionID)
	}
	if groups[1].RegionID != nil {
		t.Errorf("second group should be the unmatched bucket")
	}
}

func TestValidateBoundary(t *testing.T) {
	tests := []struct {
		name     string
		boundary [][2]float64
		wantErr  bool
	}{
		{"empty is allowed", nil, false},
		{"triangle", [][2]float64{{0, 0}, {1, 0}, {0, 1}}, false},
		{"two vertices", [][2]float64{{0, 0}, {1, 1}}, true},
		{"longitude out of range", [][2]float64{{181, 0}, {1, 0}, {0, 1}}, true},
		{"latitude out of range", [][2]float64{{0, -91}, {1, 0}, {0, 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validateBoundary(tt.boundary)
			if tt.wantErr && msg == "" {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && msg != "" {
				t.Errorf("unexpected validation error: %s", msg)
			}
		})
	}
}
