package math

import "math"

// Mat3 is a 3x3 matrix in [column][row] layout, matching Mat4 and the
// GLSL mat3 memory order.
type Mat3 [3][3]float32

func Mat3Identity() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

func (m Mat3) Mul(other Mat3) Mat3 {
	var result Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				result[i][j] += m[i][k] * other[k][j]
			}
		}
	}
	return result
}

// MulVec3 applies the matrix to a column vector.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[1][0]*v.Y + m[2][0]*v.Z,
		Y: m[0][1]*v.X + m[1][1]*v.Y + m[2][1]*v.Z,
		Z: m[0][2]*v.X + m[1][2]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose is the inverse for orthonormal matrices. Rotation matrices
// built by Mat3RotationYPR are orthonormal by construction; do not rely
// on this for arbitrary matrices.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

func Mat3RotationX(angle float32) Mat3 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))
	return Mat3{
		{1, 0, 0},
		{0, c, s},
		{0, -s, c},
	}
}

func Mat3RotationY(angle float32) Mat3 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))
	return Mat3{
		{c, 0, -s},
		{0, 1, 0},
		{s, 0, c},
	}
}

func Mat3RotationZ(angle float32) Mat3 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))
	return Mat3{
		{c, s, 0},
		{-s, c, 0},
		{0, 0, 1},
	}
}

// Mat3RotationYPR composes Rz(roll) * Rx(pitch) * Ry(yaw), all angles in
// radians. Mul chains in application order (yaw is applied first), the
// same convention Mat4.Mul uses for MVP composition. The GLSL rotationYPR
// function in the panorama shaders must compose the same three factors in
// the same order; the two code paths sample visibly different pixels if
// they ever diverge.
func Mat3RotationYPR(yaw, pitch, roll float32) Mat3 {
	return Mat3RotationY(yaw).Mul(Mat3RotationX(pitch)).Mul(Mat3RotationZ(roll))
}
