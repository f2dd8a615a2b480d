package bdrate

import (
	"errors"
	"math"
	"testing"
)

var (
	refRates = []float64{412.3, 760.1, 1391.7, 2545.2, 4610.9, 8032.4}
	refQty   = []float64{31.2, 33.9, 36.4, 38.8, 41.0, 43.1}
)

func scaled(v []float64, f float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * f
	}
	return out
}

func shifted(v []float64, d float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] + d
	}
	return out
}

func TestBDRateIdenticalCurves(t *testing.T) {
	got, err := BDRate(refRates, refQty, refRates, refQty)
	if err != nil {
		t.Fatalf("BDRate() error = %v", err)
	}
	if got != 0 {
		t.Errorf("BDRate(identical) = %v, want 0", got)
	}
}

func TestBDRateScaledCurve(t *testing.T) {
	tests := []struct {
		name   string
		factor float64
		want   float64
	}{
		{"ten percent fewer bits", 0.9, -10},
		{"twenty percent more bits", 1.2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BDRate(refRates, refQty, scaled(refRates, tt.factor), refQty)
			if err != nil {
				t.Fatalf("BDRate() error = %v", err)
			}
			if !almostEqual(got, tt.want, 1e-6) {
				t.Errorf("BDRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBDRateIgnoresPointOrder(t *testing.T) {
	revRates := make([]float64, len(refRates))
	revQty := make([]float64, len(refQty))
	for i := range refRates {
		revRates[len(refRates)-1-i] = refRates[i] * 0.8
		revQty[len(refQty)-1-i] = refQty[i]
	}
	got, err := BDRate(refRates, refQty, revRates, revQty)
	if err != nil {
		t.Fatalf("BDRate() error = %v", err)
	}
	if !almostEqual(got, -20, 1e-6) {
		t.Errorf("BDRate() = %v, want -20", got)
	}
}

func TestBDRatePartialOverlap(t *testing.T) {
	// Both curves are straight lines in the log-rate domain, so the overlap
	// [33, 36] sees a constant factor of one half.
	line := func(q []float64, f float64) []float64 {
		out := make([]float64, len(q))
		for i := range q {
			out[i] = f * math.Pow(10, 0.1*q[i])
		}
		return out
	}
	rq := []float64{30, 32, 34, 36}
	tq := []float64{33, 35, 37}

	got, err := BDRate(line(rq, 1), rq, line(tq, 0.5), tq)
	if err != nil {
		t.Fatalf("BDRate() error = %v", err)
	}
	if !almostEqual(got, -50, 1e-6) {
		t.Errorf("BDRate() = %v, want -50", got)
	}
}

func TestBDQualityShiftedCurve(t *testing.T) {
	got, err := BDQuality(refRates, refQty, refRates, shifted(refQty, 0.75))
	if err != nil {
		t.Fatalf("BDQuality() error = %v", err)
	}
	if !almostEqual(got, 0.75, 1e-9) {
		t.Errorf("BDQuality() = %v, want 0.75", got)
	}
}

func TestBDRateErrors(t *testing.T) {
	tests := []struct {
		name           string
		rr, rq, tr, tq []float64
		want           error
	}{
		{"length mismatch", refRates, refQty[:3], refRates, refQty, ErrLengthMismatch},
		{"too few points", refRates[:1], refQty[:1], refRates, refQty, ErrTooFewPoints},
		{"zero rate", []float64{0, 10}, []float64{30, 40}, refRates, refQty, ErrInvalidRate},
		{"duplicate quality", []float64{5, 10}, []float64{30, 30}, refRates, refQty, ErrDuplicatePoint},
		{"disjoint", []float64{1, 2}, []float64{10, 20}, []float64{1, 2}, []float64{30, 40}, ErrNoOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BDRate(tt.rr, tt.rq, tt.tr, tt.tq)
			if !errors.Is(err, tt.want) {
				t.Errorf("BDRate() error = %v, want %v", err, tt.want)
			}
		})
	}
}
