// Package geo implements the planar geometry used to test whether locations
// fall inside a region's boundary.
package geo

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// IsInside reports whether p lies inside the polygon using the even-odd
// ray-casting rule. The polygon is an ordered ring of [lng, lat] vertex
// pairs and is treated as implicitly closed; the last vertex connects back
// to the first. A nil or degenerate polygon (fewer than 3 vertices) is never
// "inside".
//
// Coordinates are treated as a flat plane, which is fine for regions
// spanning at most a few degrees. A point exactly on an edge may be
// classified either way depending on floating-point rounding.
func IsInside(p Point, polygon [][2]float64) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		xi, yi := polygon[i][0], polygon[i][1]
		xj, yj := polygon[j][0], polygon[j][1]

		// The edge must straddle the point's latitude, and the eastward
		// ray from the point must pass west of the crossing.
		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lng < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
