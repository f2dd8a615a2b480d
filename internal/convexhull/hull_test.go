package convexhull

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pts(rq ...float64) []RDPoint {
	var out []RDPoint
	for i := 0; i+1 < len(rq); i += 2 {
		out = append(out, RDPoint{QP: i / 2, Bitrate: rq[i], Quality: []float64{rq[i+1]}})
	}
	return out
}

func hullRates(h []HullPoint) []float64 {
	var out []float64
	for _, p := range h {
		out = append(out, p.Bitrate)
	}
	return out
}

func TestUpperHull(t *testing.T) {
	tests := []struct {
		name   string
		points []RDPoint
		want   []float64
	}{
		{
			name:   "concave curve is kept",
			points: pts(100, 30, 200, 34, 400, 37, 800, 39),
			want:   []float64{100, 200, 400, 800},
		},
		{
			name:   "point under the envelope is dropped",
			points: pts(100, 30, 200, 31, 400, 37, 800, 39),
			want:   []float64{100, 400, 800},
		},
		{
			name:   "points past the best quality are dropped",
			points: pts(100, 30, 200, 35, 400, 34, 800, 33),
			want:   []float64{100, 200},
		},
		{
			name:   "same rate keeps the best quality",
			points: pts(100, 30, 100, 32, 300, 36),
			want:   []float64{100, 300},
		},
		{
			name:   "input order does not matter",
			points: pts(800, 39, 100, 30, 400, 37, 200, 34),
			want:   []float64{100, 200, 400, 800},
		},
		{
			name:   "single point",
			points: pts(100, 30),
			want:   []float64{100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hullRates(UpperHull(tt.points, 0))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("hull mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpperHullMixedRatios(t *testing.T) {
	points := []RDPoint{
		{Ratio: 1, Width: 1920, Height: 1080, QP: 55, Bitrate: 300, Quality: []float64{30, 80}},
		{Ratio: 1, Width: 1920, Height: 1080, QP: 23, Bitrate: 2000, Quality: []float64{40, 95}},
		{Ratio: 2, Width: 960, Height: 540, QP: 23, Bitrate: 600, Quality: []float64{36, 86}},
		{Ratio: 2, Width: 960, Height: 540, QP: 55, Bitrate: 100, Quality: []float64{26, 70}},
	}

	h := UpperHull(points, 0)
	if len(h) != 4 {
		t.Fatalf("expected all four points on the hull, got %d", len(h))
	}
	if h[1].Resolution() != "1920x1080" || h[1].QP != 55 {
		t.Errorf("unexpected second hull point %+v", h[1])
	}
	if h[2].Resolution() != "960x540" || h[2].Value != 36 {
		t.Errorf("unexpected third hull point %+v", h[2])
	}

	if got := UpperHull(points, 5); got != nil {
		t.Errorf("out of range metric should give nil, got %v", got)
	}
}
