// 指示: miu200521358
package mmath

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Mat4 は列優先の4x4行列を表す。
type Mat4 mgl64.Mat4

// NewMat4 は単位行列を生成する。
func NewMat4() Mat4 {
	return Mat4(mgl64.Ident4())
}

// NewMat4FromSlice は列優先16要素のスライスから行列を生成する。
func NewMat4FromSlice(values []float64) (Mat4, bool) {
	if len(values) != 16 {
		return NewMat4(), false
	}
	var m Mat4
	copy(m[:], values)
	return m, true
}

// Muled は行列積 m*other を返す。
func (m Mat4) Muled(other Mat4) Mat4 {
	return Mat4(mgl64.Mat4(m).Mul4(mgl64.Mat4(other)))
}

// Inverted は逆行列を返す。特異行列の場合はゼロ行列となる。
func (m Mat4) Inverted() Mat4 {
	return Mat4(mgl64.Mat4(m).Inv())
}

// Translation は平行移動成分を返す。
func (m Mat4) Translation() Vec3 {
	return NewVec3(m[12], m[13], m[14])
}

// MulVec3 は座標を変換する。
func (m Mat4) MulVec3(v Vec3) Vec3 {
	transformed := mgl64.TransformCoordinate(mgl64.Vec3{v.X, v.Y, v.Z}, mgl64.Mat4(m))
	return NewVec3(transformed[0], transformed[1], transformed[2])
}

// Decompose は行列を平行移動・回転・スケールへ分解する。せん断成分は無視する。
func (m Mat4) Decompose() (Vec3, Quaternion, Vec3) {
	mat := mgl64.Mat4(m)
	translation := NewVec3(mat[12], mat[13], mat[14])

	col0 := mgl64.Vec3{mat[0], mat[1], mat[2]}
	col1 := mgl64.Vec3{mat[4], mat[5], mat[6]}
	col2 := mgl64.Vec3{mat[8], mat[9], mat[10]}
	scale := NewVec3(col0.Len(), col1.Len(), col2.Len())
	if col0.Cross(col1).Dot(col2) < 0 {
		scale.X = -scale.X
	}

	rotMat := mgl64.Ident4()
	if scale.X != 0 {
		rotMat.SetCol(0, col0.Mul(1/scale.X).Vec4(0))
	}
	if scale.Y != 0 {
		rotMat.SetCol(1, col1.Mul(1/scale.Y).Vec4(0))
	}
	if scale.Z != 0 {
		rotMat.SetCol(2, col2.Mul(1/scale.Z).Vec4(0))
	}
	q := mgl64.Mat4ToQuat(rotMat).Normalize()
	rotation := NewQuaternionByValues(q.V[0], q.V[1], q.V[2], q.W)

	return translation, rotation, scale
}

// NearEquals は許容誤差内で一致するか判定する。
func (m Mat4) NearEquals(other Mat4, epsilon float64) bool {
	return mgl64.Mat4(m).ApproxEqualThreshold(mgl64.Mat4(other), epsilon)
}
