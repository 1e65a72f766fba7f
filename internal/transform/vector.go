package transform

import "math"

// Vector is a Cartesian 3-vector. Units depend on context (km for TEME
// positions).
type Vector struct {
	X, Y, Z float64
}

func (v Vector) Add(w Vector) Vector {
	return Vector{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

func (v Vector) Sub(w Vector) Vector {
	return Vector{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

func (v Vector) Scale(k float64) Vector {
	return Vector{v.X * k, v.Y * k, v.Z * k}
}

func (v Vector) Dot(w Vector) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Angle returns the angle between v and w in radians, 0 if either is zero.
func (v Vector) Angle(w Vector) float64 {
	n := v.Norm() * w.Norm()
	if n == 0 {
		return 0
	}
	// Rounding can push the cosine slightly past ±1.
	c := math.Max(-1, math.Min(1, v.Dot(w)/n))
	return math.Acos(c)
}
