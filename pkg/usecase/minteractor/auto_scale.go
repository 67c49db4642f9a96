// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// autoScaleEpsilon は計測距離を退化とみなす閾値。
const autoScaleEpsilon = 1e-6

// AnchorPair は計測に用いる2ボーンを表す。
type AnchorPair struct {
	From string
	To   string
}

// ScaleAnchors は元骨格と先骨格それぞれの計測ボーンを表す。
type ScaleAnchors struct {
	Source AnchorPair
	Target AnchorPair
}

// MeasureAnchorDistance はスナップショット上の2ボーン間のワールド距離を返す。
func MeasureAnchorDistance(snapshot *model.SkeletonSnapshot, anchors AnchorPair) (float64, error) {
	from, ok := snapshot.World(anchors.From)
	if !ok {
		return 0, merrors.NewUnknownBoneError(snapshot.SkeletonName(), anchors.From)
	}
	to, ok := snapshot.World(anchors.To)
	if !ok {
		return 0, merrors.NewUnknownBoneError(snapshot.SkeletonName(), anchors.To)
	}
	return from.Translation.Distance(to.Translation), nil
}

// ComputeAutoScale は2つのレストスナップショットの計測距離比(先/元)を返す。
// いずれかの距離が閾値未満の場合はDegenerateMeasurementErrorとなる。
func ComputeAutoScale(sourceRest, targetRest *model.SkeletonSnapshot, anchors ScaleAnchors) (float64, error) {
	sourceDistance, err := MeasureAnchorDistance(sourceRest, anchors.Source)
	if err != nil {
		return 0, err
	}
	if sourceDistance < autoScaleEpsilon {
		return 0, merrors.NewDegenerateMeasurementError(
			sourceRest.SkeletonName(), anchors.Source.From, anchors.Source.To, sourceDistance)
	}
	targetDistance, err := MeasureAnchorDistance(targetRest, anchors.Target)
	if err != nil {
		return 0, err
	}
	if targetDistance < autoScaleEpsilon {
		return 0, merrors.NewDegenerateMeasurementError(
			targetRest.SkeletonName(), anchors.Target.From, anchors.Target.To, targetDistance)
	}
	return targetDistance / sourceDistance, nil
}

// ResolveDefaultAnchors は既定の計測ボーンを決定する。
// humanoid名でhipsとheadを探し、見つからない場合は最初のルートと最も遠い子孫を使う。
func ResolveDefaultAnchors(skeleton *model.Skeleton) AnchorPair {
	from, ok := skeleton.BoneByHumanoid(model.HUMANOID_HIPS)
	if !ok {
		from = skeleton.Roots()[0]
	}
	if to, ok := skeleton.BoneByHumanoid(model.HUMANOID_HEAD); ok && to != from {
		return AnchorPair{From: from, To: to}
	}

	fromBone, _ := skeleton.Bone(from)
	origin := fromBone.RestWorld().Translation
	to := from
	farthest := 0.0
	for _, name := range skeleton.Descendants(from) {
		bone, _ := skeleton.Bone(name)
		if distance := bone.RestWorld().Translation.Distance(origin); distance > farthest {
			farthest = distance
			to = name
		}
	}
	return AnchorPair{From: from, To: to}
}

// ResolveScaleAnchors は明示指定が無い側を既定の計測ボーンで補う。
func ResolveScaleAnchors(source, target *model.Skeleton, explicit *ScaleAnchors) ScaleAnchors {
	anchors := ScaleAnchors{}
	if explicit != nil {
		anchors = *explicit
	}
	if anchors.Source.From == "" || anchors.Source.To == "" {
		anchors.Source = ResolveDefaultAnchors(source)
	}
	if anchors.Target.From == "" || anchors.Target.To == "" {
		anchors.Target = ResolveDefaultAnchors(target)
	}
	return anchors
}
