// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package visual

import "math"

// normTolerance is the allowed deviation of a stored vector's L2 norm from 1.
const normTolerance = 1e-3

// Vector is an embedding.
type Vector []float32

// Zero returns a zero vector of length dim.
func Zero(dim int) Vector {
	return make(Vector, dim)
}

// Norm returns the L2 norm of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component of v is zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// IsUnit reports whether v has unit L2 norm within tolerance.
func (v Vector) IsUnit() bool {
	return math.Abs(v.Norm()-1) <= normTolerance
}

// Normalize scales v to unit length in place and returns it. A zero
// vector is returned unchanged.
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	inv := 1 / n
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Dot returns the inner product of a and b, which must have equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
