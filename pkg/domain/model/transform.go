// 指示: miu200521358
package model

import (
	"fmt"

	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
)

// Transform はボーンの平行移動・回転・スケールを表す。
// Scaleがゼロベクトルの場合は等倍として扱う。
type Transform struct {
	Translation mmath.Vec3
	Rotation    mmath.Quaternion
	Scale       mmath.Vec3
}

// NewTransform は恒等変換を生成する。
func NewTransform() Transform {
	return Transform{
		Translation: mmath.ZERO_VEC3,
		Rotation:    mmath.NewQuaternion(),
		Scale:       mmath.ONE_VEC3,
	}
}

// NewTransformTR は平行移動と回転から等倍の変換を生成する。
func NewTransformTR(translation mmath.Vec3, rotation mmath.Quaternion) Transform {
	return Transform{
		Translation: translation,
		Rotation:    rotation,
		Scale:       mmath.ONE_VEC3,
	}
}

// EffectiveScale はゼロ値を等倍へ読み替えたスケールを返す。
func (t Transform) EffectiveScale() mmath.Vec3 {
	if t.Scale.IsZero() {
		return mmath.ONE_VEC3
	}
	return t.Scale
}

// EffectiveRotation はゼロ値を単位回転へ読み替えた回転を返す。
func (t Transform) EffectiveRotation() mmath.Quaternion {
	if t.Rotation.Length() == 0 {
		return mmath.NewQuaternion()
	}
	return t.Rotation
}

// Compose は親変換tに子のローカル変換childを合成した変換を返す。
func (t Transform) Compose(child Transform) Transform {
	parentRotation := t.EffectiveRotation()
	parentScale := t.EffectiveScale()
	return Transform{
		Translation: t.Translation.Added(parentRotation.MulVec3(parentScale.Muled(child.Translation))),
		Rotation:    parentRotation.Muled(child.EffectiveRotation()).Normalized(),
		Scale:       parentScale.Muled(child.EffectiveScale()),
	}
}

// Inverted は逆変換を返す。非一様スケールの場合は近似となる。
func (t Transform) Inverted() Transform {
	invRotation := t.EffectiveRotation().Inverted()
	invScale := mmath.ONE_VEC3.Dived(t.EffectiveScale())
	invTranslation := invScale.Muled(invRotation.MulVec3(t.Translation)).MuledScalar(-1)
	return Transform{
		Translation: invTranslation,
		Rotation:    invRotation.Normalized(),
		Scale:       invScale,
	}
}

// Relative は自身を親としたときのworldのローカル変換を返す。
func (t Transform) Relative(world Transform) Transform {
	return t.Inverted().Compose(world)
}

// ToMat4 はT*R*S順の変換行列を返す。
func (t Transform) ToMat4() mmath.Mat4 {
	return t.Translation.ToMat4().
		Muled(t.EffectiveRotation().ToMat4()).
		Muled(t.EffectiveScale().ToScaleMat4())
}

// NearEquals は許容誤差内で同じ変換か判定する。
func (t Transform) NearEquals(other Transform, epsilon float64) bool {
	return t.Translation.NearEquals(other.Translation, epsilon) &&
		t.EffectiveRotation().NearEquals(other.EffectiveRotation(), epsilon) &&
		t.EffectiveScale().NearEquals(other.EffectiveScale(), epsilon)
}

// String は文字列表現を返す。
func (t Transform) String() string {
	return fmt.Sprintf("{t=%s r=%s s=%s}", t.Translation.String(), t.Rotation.String(), t.Scale.String())
}
