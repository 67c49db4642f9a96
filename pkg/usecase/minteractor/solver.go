// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// deltaIdentityEpsilon は差分回転を単位回転とみなす閾値。
const deltaIdentityEpsilon = 1e-12

// SolveBone は元ボーンの基準姿勢からの差分を先ボーンの基準姿勢へ適用したローカル変換を返す。
//
//	deltaRot   = inverse(sourceRef.Rotation) * sourceCurrent.Rotation
//	deltaTrans = scale * (sourceCurrent.Translation - sourceRef.Translation)
//	result     = (targetRef.Translation + deltaTrans, targetRef.Rotation * deltaRot, targetRef.Scale)
//
// 差分が無い場合はtargetRefをそのまま返す。
func SolveBone(sourceRef, sourceCurrent, targetRef model.Transform, scale float64) model.Transform {
	return model.Transform{
		Translation: solveTranslation(sourceRef.Translation, sourceCurrent.Translation, targetRef.Translation, scale),
		Rotation: solveRotation(
			sourceRef.EffectiveRotation(),
			sourceCurrent.EffectiveRotation(),
			targetRef.Rotation,
		),
		Scale: targetRef.Scale,
	}
}

// solveTranslation は平行移動差分をスケールして先基準へ加算する。
func solveTranslation(sourceRef, sourceCurrent, targetRef mmath.Vec3, scale float64) mmath.Vec3 {
	if sourceRef == sourceCurrent {
		return targetRef
	}
	return targetRef.Added(sourceCurrent.Subed(sourceRef).MuledScalar(scale))
}

// solveRotation はローカル空間の差分回転を先基準の右から掛ける。
func solveRotation(sourceRef, sourceCurrent, targetRef mmath.Quaternion) mmath.Quaternion {
	if sourceRef == sourceCurrent {
		return targetRef
	}
	delta := sourceRef.Inverted().Muled(sourceCurrent).Normalized().Canonical()
	if delta.NearEquals(mmath.NewQuaternion(), deltaIdentityEpsilon) {
		return targetRef
	}
	base := targetRef
	if base.Length() == 0 {
		base = mmath.NewQuaternion()
	}
	return base.Muled(delta).Normalized().Canonical()
}

// FrameInput は1フレーム分の解決入力を表す。
type FrameInput struct {
	Frame           int
	Table           *model.BoneCorrespondenceTable
	SourceReference *model.SkeletonSnapshot
	TargetReference *model.SkeletonSnapshot
	// TargetRest は未対応ボーンの出力に用いる。未指定時はTargetReferenceを使う。
	TargetRest *model.SkeletonSnapshot
	Current    map[string]model.Transform
	Scale      float64
}

// FrameResult は1フレーム分の解決結果を表す。
type FrameResult struct {
	Frame int
	// Bones は対応済み先ボーンのローカル変換を保持する。
	Bones map[string]model.Transform
	// Order はBonesのキーを先骨格の定義順に並べたもの。
	Order []string
	// Unchanged は対応の無い先ボーンとそのレスト変換を保持する。
	Unchanged map[string]model.Transform
	// Skipped は姿勢が欠落し解決を見送った対応を保持する。
	Skipped []model.BoneCorrespondence
	Errors  []error
}

// SkippedCount は解決を見送ったボーン数を返す。
func (r *FrameResult) SkippedCount() int {
	return len(r.Skipped)
}

// SolveFrame は対応表の全ペアにSolveBoneを適用する。
// 対応の無い先ボーンはレスト変換のまま報告し、姿勢が欠落したボーンはSkippedへ計上する。
func SolveFrame(input FrameInput) *FrameResult {
	targetRest := input.TargetRest
	if targetRest == nil {
		targetRest = input.TargetReference
	}
	result := &FrameResult{
		Frame:     input.Frame,
		Bones:     make(map[string]model.Transform, input.Table.Len()),
		Order:     make([]string, 0, input.Table.Len()),
		Unchanged: map[string]model.Transform{},
	}

	for _, targetName := range input.TargetReference.Names() {
		sourceName, mapped := input.Table.Source(targetName)
		if !mapped {
			rest, _ := targetRest.Local(targetName)
			result.Unchanged[targetName] = rest
			continue
		}

		pair := model.BoneCorrespondence{Source: sourceName, Target: targetName}
		sourceRef, refOk := input.SourceReference.Local(sourceName)
		current, currentOk := input.Current[sourceName]
		targetRef, _ := input.TargetReference.Local(targetName)
		if !refOk || !currentOk {
			result.Skipped = append(result.Skipped, pair)
			result.Errors = append(result.Errors, merrors.NewMissingSnapshotError(sourceName, input.Frame))
			continue
		}

		result.Bones[targetName] = SolveBone(sourceRef, current, targetRef, input.Scale)
		result.Order = append(result.Order, targetName)
	}

	if len(result.Skipped) > 0 {
		logRetargetDebug("フレーム解決: frame=%d solved=%d skipped=%d", input.Frame, len(result.Order), len(result.Skipped))
	}
	return result
}
