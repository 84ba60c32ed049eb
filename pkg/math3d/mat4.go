package math3d

import "math"

// Mat4 is a row-major 4x4 matrix. Element (row, col) lives at M[row*4+col].
type Mat4 struct {
	M [16]float64
}

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{M: [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Translate returns a translation matrix.
func Translate(t Vec3) Mat4 {
	m := Identity()
	m.M[3] = t.X
	m.M[7] = t.Y
	m.M[11] = t.Z
	return m
}

// Scale returns a scaling matrix.
func Scale(s Vec3) Mat4 {
	m := Identity()
	m.M[0] = s.X
	m.M[5] = s.Y
	m.M[10] = s.Z
	return m
}

// Mul returns the matrix product m * b.
func (m Mat4) Mul(b Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			r.M[row*4+col] = m.M[row*4]*b.M[col] +
				m.M[row*4+1]*b.M[4+col] +
				m.M[row*4+2]*b.M[8+col] +
				m.M[row*4+3]*b.M[12+col]
		}
	}
	return r
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m.M[0]*v.X + m.M[1]*v.Y + m.M[2]*v.Z + m.M[3]*v.W,
		m.M[4]*v.X + m.M[5]*v.Y + m.M[6]*v.Z + m.M[7]*v.W,
		m.M[8]*v.X + m.M[9]*v.Y + m.M[10]*v.Z + m.M[11]*v.W,
		m.M[12]*v.X + m.M[13]*v.Y + m.M[14]*v.Z + m.M[15]*v.W,
	}
}

// MulVec3 transforms a point (w = 1) and applies the perspective divide.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 1)).PerspectiveDivide()
}

// MulVec3Dir transforms a direction (w = 0), ignoring translation.
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 0)).Vec3()
}

// Perspective returns a right-handed perspective projection.
// fovY is in radians; depth maps to [-1, 1].
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	var m Mat4
	m.M[0] = f / aspect
	m.M[5] = f
	m.M[10] = (far + near) / (near - far)
	m.M[11] = 2 * far * near / (near - far)
	m.M[14] = -1
	return m
}

// LookAt returns a view matrix for an eye looking at target.
func LookAt(eye, target, up Vec3) Mat4 {
	f := target.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)
	return Mat4{M: [16]float64{
		s.X, s.Y, s.Z, -s.Dot(eye),
		u.X, u.Y, u.Z, -u.Dot(eye),
		-f.X, -f.Y, -f.Z, f.Dot(eye),
		0, 0, 0, 1,
	}}
}
