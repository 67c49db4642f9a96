// 指示: miu200521358
package minteractor

import (
	"math"

	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

const (
	tstanceAxisEpsilon     = 1e-8
	tstanceUpDownTolerance = 10.0
	tstanceSideTolerance   = 30.0
)

// IsTStance はスナップショット上の左右上腕がTスタンス相当か判定する。
// 腕のhumanoidボーンが揃わない場合は偽を返す。
func IsTStance(skeleton *model.Skeleton, snapshot *model.SkeletonSnapshot) bool {
	if skeleton == nil || snapshot == nil {
		return false
	}
	leftVector, leftOk := armVector(skeleton, snapshot, model.HUMANOID_LEFT_UPPER_ARM, model.HUMANOID_LEFT_LOWER_ARM)
	rightVector, rightOk := armVector(skeleton, snapshot, model.HUMANOID_RIGHT_UPPER_ARM, model.HUMANOID_RIGHT_LOWER_ARM)
	if !leftOk || !rightOk {
		return false
	}
	if !isTStanceArmVector(leftVector) || !isTStanceArmVector(rightVector) {
		return false
	}
	// 左右の腕が逆方向へ伸びていること
	return leftVector.X*rightVector.X < 0
}

// armVector は上腕から前腕へのワールドベクトルを返す。
func armVector(
	skeleton *model.Skeleton,
	snapshot *model.SkeletonSnapshot,
	upper model.HumanoidBoneName,
	lower model.HumanoidBoneName,
) (mmath.Vec3, bool) {
	upperName, upperOk := skeleton.BoneByHumanoid(upper)
	lowerName, lowerOk := skeleton.BoneByHumanoid(lower)
	if !upperOk || !lowerOk {
		return mmath.ZERO_VEC3, false
	}
	upperWorld, upperOk := snapshot.World(upperName)
	lowerWorld, lowerOk := snapshot.World(lowerName)
	if !upperOk || !lowerOk {
		return mmath.ZERO_VEC3, false
	}
	return lowerWorld.Translation.Subed(upperWorld.Translation), true
}

// isTStanceArmVector は片腕ベクトルが水平かつ真横に近いか判定する。
func isTStanceArmVector(vector mmath.Vec3) bool {
	length := vector.Length()
	if length <= tstanceAxisEpsilon {
		return false
	}

	upDownRatio := clampValue(vector.Y/length, -1.0, 1.0)
	upDownDegree := mmath.RadToDeg(math.Abs(math.Asin(upDownRatio)))
	if upDownDegree > tstanceUpDownTolerance {
		return false
	}

	sideLength := math.Hypot(vector.X, vector.Z)
	if sideLength <= tstanceAxisEpsilon {
		return false
	}
	sideDegree := mmath.RadToDeg(math.Abs(math.Atan2(math.Abs(vector.Z), math.Abs(vector.X))))
	return sideDegree <= tstanceSideTolerance
}

// clampValue はmin-maxで値をクランプする。
func clampValue(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
