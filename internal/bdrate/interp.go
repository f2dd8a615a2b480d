package bdrate

import "math"

// hermiteIntegral integrates the cubic Hermite segment on [xk, xk1] from a to b,
// where xk <= a <= b <= xk1.
func hermiteIntegral(xk, xk1, yk, yk1, dk, dk1, a, b float64) float64 {
	h := xk1 - xk
	antiderivative := func(x float64) float64 {
		t := (x - xk) / h
		t2 := t * t
		t3 := t2 * t
		t4 := t3 * t

		i00 := t4/2 - t3 + t
		i10 := t4/4 - 2*t3/3 + t2/2
		i01 := -t4/2 + t3
		i11 := t4/4 - t3/3

		return h * (i00*yk + i10*h*dk + i01*yk1 + i11*h*dk1)
	}
	return antiderivative(b) - antiderivative(a)
}

// pchipSlopes returns the knot derivatives of the monotone piecewise cubic
// Hermite interpolant through (x, y). x must be strictly increasing and hold
// at least two points.
func pchipSlopes(x, y []float64) []float64 {
	n := len(x)
	d := make([]float64, n)

	h := make([]float64, n-1)
	m := make([]float64, n-1)
	for k := 0; k < n-1; k++ {
		h[k] = x[k+1] - x[k]
		m[k] = (y[k+1] - y[k]) / h[k]
	}

	if n == 2 {
		d[0], d[1] = m[0], m[0]
		return d
	}

	for k := 1; k < n-1; k++ {
		sPrev, sNext := m[k-1], m[k]
		if sPrev*sNext <= 0 {
			d[k] = 0
			continue
		}
		w1 := 2*h[k] + h[k-1]
		w2 := h[k] + 2*h[k-1]
		d[k] = (w1 + w2) / (w1/sPrev + w2/sNext)
	}

	d[0] = edgeSlope(h[0], h[1], m[0], m[1])
	d[n-1] = edgeSlope(h[n-2], h[n-3], m[n-2], m[n-3])
	return d
}

// edgeSlope is the one-sided three-point end derivative, clipped to keep the
// end segments monotone.
func edgeSlope(h0, h1, m0, m1 float64) float64 {
	d := ((2*h0+h1)*m0 - h0*m1) / (h0 + h1)
	switch {
	case sign(d) != sign(m0):
		return 0
	case sign(m0) != sign(m1) && math.Abs(d) > math.Abs(3*m0):
		return 3 * m0
	}
	return d
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// integratePCHIP integrates the PCHIP interpolant through (x, y) over [lo, hi].
// [lo, hi] must lie within [x[0], x[n-1]].
func integratePCHIP(x, y []float64, lo, hi float64) float64 {
	d := pchipSlopes(x, y)
	total := 0.0
	for k := 0; k < len(x)-1; k++ {
		a := math.Max(lo, x[k])
		b := math.Min(hi, x[k+1])
		if b <= a {
			continue
		}
		total += hermiteIntegral(x[k], x[k+1], y[k], y[k+1], d[k], d[k+1], a, b)
	}
	return total
}
