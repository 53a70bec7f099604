package render

import "math"

// Matrix is a 2D affine transformation in the Cairo layout:
//
//	| xx  xy |   | x |   | x0 |
//	| yx  yy | * | y | + | y0 |
//
// Translate, Rotate and Scale modify user space, so the most recently applied
// operation is the first one to act on a point. This is the same convention
// as a canvas 2D context.
type Matrix struct {
	XX, XY float64
	YX, YY float64
	X0, Y0 float64
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{XX: 1, YY: 1}
}

// Translate applies a translation in user space.
func (m *Matrix) Translate(tx, ty float64) {
	m.X0 += m.XX*tx + m.XY*ty
	m.Y0 += m.YX*tx + m.YY*ty
}

// Scale applies a scale in user space. Negative factors mirror the axis.
func (m *Matrix) Scale(sx, sy float64) {
	m.XX *= sx
	m.YX *= sx
	m.XY *= sy
	m.YY *= sy
}

// Rotate applies a rotation of angle radians in user space. Positive angles
// turn clockwise on a y-down surface.
func (m *Matrix) Rotate(angle float64) {
	c, s := math.Cos(angle), math.Sin(angle)
	xx := m.XX*c + m.XY*s
	xy := -m.XX*s + m.XY*c
	yx := m.YX*c + m.YY*s
	yy := -m.YX*s + m.YY*c
	m.XX, m.XY, m.YX, m.YY = xx, xy, yx, yy
}

// Multiply sets m to the transform that applies m first and then other.
func (m *Matrix) Multiply(other Matrix) {
	xx := other.XX*m.XX + other.XY*m.YX
	xy := other.XX*m.XY + other.XY*m.YY
	yx := other.YX*m.XX + other.YY*m.YX
	yy := other.YX*m.XY + other.YY*m.YY
	x0 := other.XX*m.X0 + other.XY*m.Y0 + other.X0
	y0 := other.YX*m.X0 + other.YY*m.Y0 + other.Y0
	m.XX, m.XY, m.YX, m.YY, m.X0, m.Y0 = xx, xy, yx, yy, x0, y0
}

// TransformPoint maps a user-space point to device space.
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m.XX*x + m.XY*y + m.X0, m.YX*x + m.YY*y + m.Y0
}

// TransformDistance maps a vector, ignoring translation.
func (m Matrix) TransformDistance(dx, dy float64) (float64, float64) {
	return m.XX*dx + m.XY*dy, m.YX*dx + m.YY*dy
}

// Invert inverts m in place. It returns false and leaves m unchanged when
// the matrix is singular.
func (m *Matrix) Invert() bool {
	det := m.XX*m.YY - m.XY*m.YX
	if det == 0 || math.IsInf(det, 0) || math.IsNaN(det) {
		return false
	}
	inv := 1 / det
	xx := m.YY * inv
	xy := -m.XY * inv
	yx := -m.YX * inv
	yy := m.XX * inv
	x0 := (m.XY*m.Y0 - m.YY*m.X0) * inv
	y0 := (m.YX*m.X0 - m.XX*m.Y0) * inv
	m.XX, m.XY, m.YX, m.YY, m.X0, m.Y0 = xx, xy, yx, yy, x0, y0
	return true
}

// IsMirrored reports whether the transform flips orientation.
func (m Matrix) IsMirrored() bool {
	return m.XX*m.YY-m.XY*m.YX < 0
}
