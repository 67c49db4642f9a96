// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// Quaternion は回転クォータニオンを表す。Realがw成分、Imag/Jmag/Kmagがxyz成分。
type Quaternion struct {
	quat.Number
}

// NewQuaternion は単位クォータニオンを生成する。
func NewQuaternion() Quaternion {
	return Quaternion{Number: quat.Number{Real: 1}}
}

// NewQuaternionByValues はxyzw順の値からクォータニオンを生成する。
func NewQuaternionByValues(x, y, z, w float64) Quaternion {
	return Quaternion{Number: quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}}
}

// NewQuaternionFromSlice はxyzw順のスライスからクォータニオンを生成する。
func NewQuaternionFromSlice(values []float64) (Quaternion, error) {
	if len(values) != 4 {
		return NewQuaternion(), fmt.Errorf("Quaternionの要素数が不正です: %d", len(values))
	}
	return NewQuaternionByValues(values[0], values[1], values[2], values[3]), nil
}

// NewQuaternionFromAxisAngle は回転軸とラジアン角からクォータニオンを生成する。
func NewQuaternionFromAxisAngle(axis Vec3, radian float64) Quaternion {
	normalizedAxis := axis.Normalized()
	if normalizedAxis.IsZero() {
		return NewQuaternion()
	}
	half := radian / 2
	s := math.Sin(half)
	return NewQuaternionByValues(
		normalizedAxis.X*s,
		normalizedAxis.Y*s,
		normalizedAxis.Z*s,
		math.Cos(half),
	)
}

// NewQuaternionFromDegrees はXYZ各軸の度数からクォータニオンを生成する。回転順はY→X→Z。
func NewQuaternionFromDegrees(xDegree, yDegree, zDegree float64) Quaternion {
	qx := NewQuaternionFromAxisAngle(UNIT_X_VEC3, DegToRad(xDegree))
	qy := NewQuaternionFromAxisAngle(UNIT_Y_VEC3, DegToRad(yDegree))
	qz := NewQuaternionFromAxisAngle(UNIT_Z_VEC3, DegToRad(zDegree))
	return qy.Muled(qx).Muled(qz)
}

// X はx成分を返す。
func (q Quaternion) X() float64 { return q.Imag }

// Y はy成分を返す。
func (q Quaternion) Y() float64 { return q.Jmag }

// Z はz成分を返す。
func (q Quaternion) Z() float64 { return q.Kmag }

// W はw成分を返す。
func (q Quaternion) W() float64 { return q.Real }

// Muled はクォータニオン積 q*other を返す。
func (q Quaternion) Muled(other Quaternion) Quaternion {
	return Quaternion{Number: quat.Mul(q.Number, other.Number)}
}

// Length はノルムを返す。
func (q Quaternion) Length() float64 {
	return quat.Abs(q.Number)
}

// Normalized は正規化したクォータニオンを返す。ノルム0の場合は単位クォータニオンを返す。
func (q Quaternion) Normalized() Quaternion {
	length := q.Length()
	if length == 0 || math.IsNaN(length) {
		return NewQuaternion()
	}
	return Quaternion{Number: quat.Scale(1/length, q.Number)}
}

// Inverted は逆回転を返す。
func (q Quaternion) Inverted() Quaternion {
	if q.Length() == 0 {
		return NewQuaternion()
	}
	return Quaternion{Number: quat.Inv(q.Number)}
}

// Canonical はw成分が負にならない同値クォータニオンを返す。
func (q Quaternion) Canonical() Quaternion {
	if q.Real < 0 {
		return Quaternion{Number: quat.Scale(-1, q.Number)}
	}
	return q
}

// Dot は4次元内積を返す。
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.Real*other.Real + q.Imag*other.Imag + q.Jmag*other.Jmag + q.Kmag*other.Kmag
}

// IsIdent は単位クォータニオンか判定する。
func (q Quaternion) IsIdent() bool {
	return q.Real == 1 && q.Imag == 0 && q.Jmag == 0 && q.Kmag == 0
}

// MulVec3 はベクトルを回転させる。
func (q Quaternion) MulVec3(v Vec3) Vec3 {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q.Number, p), quat.Conj(q.Number))
	return NewVec3(rotated.Imag, rotated.Jmag, rotated.Kmag)
}

// NearEquals は同じ回転を表すか判定する。qと-qは同値として扱う。
func (q Quaternion) NearEquals(other Quaternion, epsilon float64) bool {
	return math.Abs(math.Abs(q.Normalized().Dot(other.Normalized()))-1) <= epsilon
}

// ToAxisAngle は回転軸とラジアン角を返す。
func (q Quaternion) ToAxisAngle() (Vec3, float64) {
	n := q.Normalized().Canonical()
	angle := 2 * math.Acos(math.Min(1, n.Real))
	s := math.Sqrt(1 - n.Real*n.Real)
	if s < 1e-12 {
		return UNIT_X_VEC3, 0
	}
	return NewVec3(n.Imag/s, n.Jmag/s, n.Kmag/s), angle
}

// ToDegree は回転量を度数で返す。
func (q Quaternion) ToDegree() float64 {
	_, angle := q.ToAxisAngle()
	return RadToDeg(angle)
}

// Slice はxyzw順のスライスを返す。
func (q Quaternion) Slice() []float64 {
	return []float64{q.Imag, q.Jmag, q.Kmag, q.Real}
}

// ToMat4 は回転行列を返す。
func (q Quaternion) ToMat4() Mat4 {
	n := q.Normalized()
	return Mat4(mgl64.Quat{W: n.Real, V: mgl64.Vec3{n.Imag, n.Jmag, n.Kmag}}.Mat4())
}

// String は文字列表現を返す。
func (q Quaternion) String() string {
	return fmt.Sprintf("[x=%.5f, y=%.5f, z=%.5f, w=%.5f]", q.Imag, q.Jmag, q.Kmag, q.Real)
}

// DegToRad は度数をラジアンへ変換する。
func DegToRad(degree float64) float64 {
	return degree * math.Pi / 180
}

// RadToDeg はラジアンを度数へ変換する。
func RadToDeg(radian float64) float64 {
	return radian * 180 / math.Pi
}
