// Package convexhull runs the per-content scaling sweep and writes its
// rate-distortion results together with their convex hull.
package convexhull

import (
	"fmt"
	"sort"
)

// RDPoint is one encode of a content at a scaling ratio and QP.
type RDPoint struct {
	Ratio   float64
	Width   int
	Height  int
	QP      int
	Bitrate float64
	Quality []float64
}

// Resolution returns the encoded resolution as WxH.
func (p RDPoint) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// HullPoint is a point on the rate-quality convex hull of one metric.
type HullPoint struct {
	RDPoint
	Value float64
}

// UpperHull returns the points on the upper-left rate-quality envelope for the
// metric at index metric, ordered by increasing bitrate. Points past the best
// quality are dropped since a higher rate never pays off there.
func UpperHull(points []RDPoint, metric int) []HullPoint {
	pts := make([]HullPoint, 0, len(points))
	for _, p := range points {
		if metric < len(p.Quality) {
			pts = append(pts, HullPoint{RDPoint: p, Value: p.Quality[metric]})
		}
	}
	if len(pts) == 0 {
		return nil
	}

	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].Bitrate != pts[j].Bitrate {
			return pts[i].Bitrate < pts[j].Bitrate
		}
		return pts[i].Value > pts[j].Value
	})

	hull := make([]HullPoint, 0, len(pts))
	for _, p := range pts {
		if n := len(hull); n > 0 && hull[n-1].Bitrate == p.Bitrate {
			continue
		}
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) >= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	best := 0
	for i, p := range hull {
		if p.Value > hull[best].Value {
			best = i
		}
	}
	return hull[:best+1]
}

// cross is positive when a, b, c turn counter-clockwise in the rate-quality plane.
func cross(a, b, c HullPoint) float64 {
	return (b.Bitrate-a.Bitrate)*(c.Value-a.Value) - (b.Value-a.Value)*(c.Bitrate-a.Bitrate)
}
