package rooms

import "math"

// areaEpsilon is the minimum |signed area| for a loop to count as a
// room. Loops below it are degenerate or collinear.
const areaEpsilon = 1e-6

// walkCycles traces every closed face loop by following Next pointers
// and keeps counter-clockwise loops as rooms. Visitation is tracked in
// a companion slice so the edge arena stays read-only after Build.
//
// Walks that dead-end (unset Next) are discarded. Walks that reach an
// edge consumed by an earlier walk are malformed; they are discarded
// and counted, not repaired.
func (g *Graph) walkCycles() {
	visited := make([]bool, len(g.edges))

	for start := range g.edges {
		if visited[start] {
			continue
		}

		var poly []Point
		closed := false
		current := start

		for {
			if visited[current] {
				g.malformedWalks++
				break
			}
			visited[current] = true

			e := &g.edges[current]
			if e.From < 0 || e.From >= len(g.nodes) {
				break
			}
			poly = append(poly, g.nodes[e.From].Pos)

			if e.Next == unset {
				break
			}
			if e.Next == start {
				closed = true
				break
			}
			current = e.Next
		}

		if !closed || len(poly) < 3 {
			continue
		}

		area := signedArea(poly)
		if math.Abs(area) < areaEpsilon {
			continue
		}

		// Clockwise loops are the unbounded exterior or mirror faces.
		if area <= 0 {
			continue
		}

		g.rooms = append(g.rooms, Room{
			Polygon:  poly,
			Area:     math.Abs(area),
			Centroid: polygonCentroid(poly, area),
		})
	}
}

// signedArea returns the shoelace area of the polygon: positive for
// counter-clockwise winding, negative for clockwise.
func signedArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}

	area := 0.0
	n := len(poly)
	for i := 0; i < n; i++ {
		p := poly[i]
		q := poly[(i+1)%n]
		area += p.X*q.Y - q.X*p.Y
	}
	return 0.5 * area
}

// polygonCentroid returns the area-weighted centroid. The signed (not
// absolute) area parameterizes the formula so sign cancellation stays
// correct for either winding.
func polygonCentroid(poly []Point, signedArea float64) Point {
	if len(poly) < 3 {
		return Point{}
	}

	factor := 1.0 / (6.0 * signedArea)

	var cx, cy float64
	n := len(poly)
	for i := 0; i < n; i++ {
		p := poly[i]
		q := poly[(i+1)%n]
		cross := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}

	return Point{X: cx * factor, Y: cy * factor}
}
