package geo

import (
	"testing"
)

// square is a 10x10 box with corners at (0,0) and (10,10), as [lng, lat].
var square = [][2]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

func TestIsInsideSquare(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{Lat: 5, Lng: 5}, true},
		{"outside both axes", Point{Lat: 15, Lng: 15}, false},
		{"outside east", Point{Lat: 5, Lng: 15}, false},
		{"outside north", Point{Lat: 15, Lng: 5}, false},
		{"outside west", Point{Lat: 5, Lng: -1}, false},
		{"outside south", Point{Lat: -1, Lng: 5}, false},
		{"near corner inside", Point{Lat: 0.5, Lng: 0.5}, true},
		{"near corner outside", Point{Lat: -0.5, Lng: -0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInside(tt.p, square); got != tt.want {
				t.Errorf("IsInside(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestIsInsideDegeneratePolygons(t *testing.T) {
	p := Point{Lat: 0, Lng: 0}

	if IsInside(p, nil) {
		t.Error("nil polygon should never contain a point")
	}
	if IsInside(p, [][2]float64{}) {
		t.Error("empty polygon should never contain a point")
	}
	if IsInside(p, [][2]float64{{0, 0}, {1, 1}}) {
		t.Error("two-vertex polygon should never contain a point")
	}
}

func TestIsInsideConcavePolygon(t *testing.T) {
	// U-shaped polygon: the notch between the arms is outside even though
	// its bounding box contains it.
	u := [][2]float64{
		{0, 0}, {0, 10}, {3, 10}, {3, 3}, {7, 3}, {7, 10}, {10, 10}, {10, 0},
	}

	if !IsInside(Point{Lat: 1, Lng: 5}, u) {
		t.Error("point in the base of the U should be inside")
	}
	if IsInside(Point{Lat: 8, Lng: 5}, u) {
		t.Error("point in the notch of the U should be outside")
	}
	if !IsInside(Point{Lat: 8, Lng: 1}, u) {
		t.Error("point in the left arm of the U should be inside")
	}
}

func TestIsInsideImplicitClosure(t *testing.T) {
	// Triangle whose closing edge (last vertex back to first) is load-bearing:
	// removing it would leave the test point on the open side.
	tri := [][2]float64{{0, 0}, {10, 0}, {5, 10}}

	if !IsInside(Point{Lat: 2, Lng: 5}, tri) {
		t.Error("point inside triangle should be inside")
	}
	if IsInside(Point{Lat: 9, Lng: 1}, tri) {
		t.Error("point beyond the slanted edges should be outside")
	}
}

func TestIsInsideRealisticCoordinates(t *testing.T) {
	// Rough ring around the Sea of Galilee area, [lng, lat].
	ring := [][2]float64{
		{35.50, 32.90}, {35.50, 32.72}, {35.65, 32.70}, {35.68, 32.88},
	}

	if !IsInside(Point{Lat: 32.80, Lng: 35.58}, ring) {
		t.Error("point inside the ring should be inside")
	}
	if IsInside(Point{Lat: 32.08, Lng: 34.78}, ring) {
		t.Error("Tel Aviv should be outside the Galilee ring")
	}
}
