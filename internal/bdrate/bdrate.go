// Package bdrate computes Bjontegaard-delta metrics between two
// rate-distortion curves.
package bdrate

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrLengthMismatch is returned when a curve has unequal rate and quality counts.
	ErrLengthMismatch = errors.New("rate and quality lengths differ")
	// ErrTooFewPoints is returned for curves with fewer than two points.
	ErrTooFewPoints = errors.New("at least two RD points are required")
	// ErrInvalidRate is returned for non-positive or non-finite rates.
	ErrInvalidRate = errors.New("rates must be positive and finite")
	// ErrDuplicatePoint is returned when two points share the interpolation axis value.
	ErrDuplicatePoint = errors.New("duplicate RD point")
	// ErrNoOverlap is returned when the curves share no interval to integrate over.
	ErrNoOverlap = errors.New("curves do not overlap")
)

// BDRate returns the average bitrate difference in percent of the test curve
// against the reference curve over their common quality interval. Negative
// values mean the test curve needs fewer bits for the same quality.
func BDRate(refRates, refQty, testRates, testQty []float64) (float64, error) {
	x1, y1, err := prepare(refQty, refRates, false)
	if err != nil {
		return 0, fmt.Errorf("reference curve: %w", err)
	}
	x2, y2, err := prepare(testQty, testRates, false)
	if err != nil {
		return 0, fmt.Errorf("test curve: %w", err)
	}

	avg, err := averageDiff(x1, y1, x2, y2)
	if err != nil {
		return 0, err
	}
	return (math.Pow(10, avg) - 1) * 100, nil
}

// BDQuality returns the average quality difference of the test curve against
// the reference curve over their common log-rate interval.
func BDQuality(refRates, refQty, testRates, testQty []float64) (float64, error) {
	x1, y1, err := prepare(refRates, refQty, true)
	if err != nil {
		return 0, fmt.Errorf("reference curve: %w", err)
	}
	x2, y2, err := prepare(testRates, testQty, true)
	if err != nil {
		return 0, fmt.Errorf("test curve: %w", err)
	}
	return averageDiff(x1, y1, x2, y2)
}

// prepare orders a curve by its x axis. Rates are always mapped to log10;
// rateIsX selects whether the rate is the x or y axis.
func prepare(xs, ys []float64, rateIsX bool) ([]float64, []float64, error) {
	if len(xs) != len(ys) {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(xs))
	}

	type point struct{ x, y float64 }
	pts := make([]point, len(xs))
	for i := range xs {
		x, y := xs[i], ys[i]
		rate := y
		if rateIsX {
			rate = x
		}
		if !(rate > 0) || math.IsInf(rate, 0) {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
		}
		if rateIsX {
			x = math.Log10(x)
		} else {
			y = math.Log10(y)
		}
		pts[i] = point{x, y}
	}

	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	x := make([]float64, len(pts))
	y := make([]float64, len(pts))
	for i, p := range pts {
		if i > 0 && p.x == pts[i-1].x {
			return nil, nil, fmt.Errorf("%w at %v", ErrDuplicatePoint, p.x)
		}
		x[i], y[i] = p.x, p.y
	}
	return x, y, nil
}

func averageDiff(x1, y1, x2, y2 []float64) (float64, error) {
	lo := math.Max(x1[0], x2[0])
	hi := math.Min(x1[len(x1)-1], x2[len(x2)-1])
	if hi <= lo {
		return 0, fmt.Errorf("%w: [%v, %v]", ErrNoOverlap, lo, hi)
	}

	int1 := integratePCHIP(x1, y1, lo, hi)
	int2 := integratePCHIP(x2, y2, lo, hi)
	return (int2 - int1) / (hi - lo), nil
}
