// 指示: miu200521358
package minteractor

import (
	"math"
	"testing"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// newSkeletonForTest は骨格定義から骨格を生成する。
func newSkeletonForTest(t *testing.T, desc *model.SkeletonDesc) *model.Skeleton {
	t.Helper()
	skeleton, err := model.NewSkeleton(desc)
	if err != nil {
		t.Fatalf("skeleton build failed: %v", err)
	}
	return skeleton
}

// newHumanoidDescForTest はhips-spine-head と左右腕を持つTスタンス骨格定義を返す。
func newHumanoidDescForTest(t *testing.T, name string) *model.SkeletonDesc {
	t.Helper()
	ident := mmath.NewQuaternion()
	return &model.SkeletonDesc{
		Name: name,
		Bones: []model.BoneDesc{
			{Name: "hips", Rest: model.NewTransformTR(mmath.NewVec3(0, 1, 0), ident)},
			{Name: "spine", Parent: "hips", Rest: model.NewTransformTR(mmath.NewVec3(0, 0.3, 0), ident)},
			{Name: "head", Parent: "spine", Rest: model.NewTransformTR(mmath.NewVec3(0, 0.5, 0), ident)},
			{Name: "leftUpperArm", Parent: "spine", Rest: model.NewTransformTR(mmath.NewVec3(0.2, 0.2, 0), ident)},
			{Name: "leftLowerArm", Parent: "leftUpperArm", Rest: model.NewTransformTR(mmath.NewVec3(0.3, 0, 0), ident)},
			{Name: "rightUpperArm", Parent: "spine", Rest: model.NewTransformTR(mmath.NewVec3(-0.2, 0.2, 0), ident)},
			{Name: "rightLowerArm", Parent: "rightUpperArm", Rest: model.NewTransformTR(mmath.NewVec3(-0.3, 0, 0), ident)},
		},
	}
}

// newIdentityTableForTest は同名ボーン同士の対応表を返す。
func newIdentityTableForTest(t *testing.T, source, target *model.Skeleton) *model.BoneCorrespondenceTable {
	t.Helper()
	table, err := BuildCorrespondenceTable(source, target, nil, CorrespondenceOptions{NameMatching: true})
	if err != nil {
		t.Fatalf("table build failed: %v", err)
	}
	return table
}

func TestSolveBoneReturnsTargetReferenceWhenUnchanged(t *testing.T) {
	sourceRef := model.NewTransformTR(mmath.NewVec3(1, 2, 3), mmath.NewQuaternionFromDegrees(10, 20, 30))
	targetRef := model.NewTransformTR(mmath.NewVec3(-4, 5, 6), mmath.NewQuaternionFromDegrees(-15, 40, 5))

	got := SolveBone(sourceRef, sourceRef, targetRef, 3.5)
	if got.Translation != targetRef.Translation {
		t.Fatalf("translation mismatch: got=%s want=%s", got.Translation.String(), targetRef.Translation.String())
	}
	if got.Rotation != targetRef.Rotation {
		t.Fatalf("rotation mismatch: got=%s want=%s", got.Rotation.String(), targetRef.Rotation.String())
	}
}

func TestSolveBoneRotationAndScaledTranslation(t *testing.T) {
	sourceRef := model.NewTransformTR(mmath.NewVec3(0, 1, 0), mmath.NewQuaternion())
	sourceCurrent := model.NewTransformTR(
		mmath.NewVec3(0.5, 1, -0.25),
		mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/2),
	)
	targetRef := model.NewTransformTR(mmath.NewVec3(0, 2, 0), mmath.NewQuaternion())

	got := SolveBone(sourceRef, sourceCurrent, targetRef, 2.0)
	wantRotation := mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/2)
	if !got.Rotation.NearEquals(wantRotation, 1e-9) {
		t.Fatalf("rotation mismatch: got=%s want=%s", got.Rotation.String(), wantRotation.String())
	}
	wantTranslation := mmath.NewVec3(1, 2, -0.5)
	if !got.Translation.NearEquals(wantTranslation, 1e-9) {
		t.Fatalf("translation mismatch: got=%s want=%s", got.Translation.String(), wantTranslation.String())
	}
}

func TestSolveBoneAppliesDeltaInTargetLocalSpace(t *testing.T) {
	sourceRef := model.NewTransformTR(mmath.ZERO_VEC3, mmath.NewQuaternionFromAxisAngle(mmath.UNIT_X_VEC3, math.Pi/4))
	delta := mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Z_VEC3, math.Pi/2)
	sourceCurrent := model.NewTransformTR(mmath.ZERO_VEC3, sourceRef.Rotation.Muled(delta))
	targetRotation := mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/3)
	targetRef := model.NewTransformTR(mmath.ZERO_VEC3, targetRotation)

	got := SolveBone(sourceRef, sourceCurrent, targetRef, 1.0)
	want := targetRotation.Muled(delta)
	if !got.Rotation.NearEquals(want, 1e-9) {
		t.Fatalf("rotation mismatch: got=%s want=%s", got.Rotation.String(), want.String())
	}
}

func TestSolveFrameIdentityPoseReturnsTargetRest(t *testing.T) {
	source := newSkeletonForTest(t, newHumanoidDescForTest(t, "source"))
	target := newSkeletonForTest(t, newHumanoidDescForTest(t, "target").Scaled(1.7))
	table := newIdentityTableForTest(t, source, target)
	sourceRest := model.CaptureRest(source)
	targetRest := model.CaptureRest(target)

	current := map[string]model.Transform{}
	for _, name := range source.BoneNames() {
		local, _ := sourceRest.Local(name)
		current[name] = local
	}
	result := SolveFrame(FrameInput{
		Frame:           0,
		Table:           table,
		SourceReference: sourceRest,
		TargetReference: targetRest,
		Current:         current,
		Scale:           1.7,
	})
	if len(result.Bones) != target.Len() {
		t.Fatalf("solved count mismatch: got=%d want=%d", len(result.Bones), target.Len())
	}
	for _, name := range target.BoneNames() {
		want, _ := targetRest.Local(name)
		if got := result.Bones[name]; got != want {
			t.Fatalf("bone %s mismatch: got=%s want=%s", name, got.String(), want.String())
		}
	}
	if result.Order[0] != "hips" {
		t.Fatalf("order should follow target definition: got=%v", result.Order)
	}
}

func TestSolveFrameReportsUnmappedAsRest(t *testing.T) {
	source := newSkeletonForTest(t, newHumanoidDescForTest(t, "source"))
	target := newSkeletonForTest(t, newHumanoidDescForTest(t, "target"))
	table, err := BuildCorrespondenceTable(source, target, []model.BoneCorrespondence{{Source: "hips", Target: "hips"}}, CorrespondenceOptions{})
	if err != nil {
		t.Fatalf("table build failed: %v", err)
	}
	targetRest := model.CaptureRest(target)
	result := SolveFrame(FrameInput{
		Table:           table,
		SourceReference: model.CaptureRest(source),
		TargetReference: targetRest,
		Current: map[string]model.Transform{
			"hips": model.NewTransformTR(mmath.NewVec3(0, 1.5, 0), mmath.NewQuaternion()),
		},
		Scale: 1.0,
	})
	if len(result.Bones) != 1 {
		t.Fatalf("solved count mismatch: got=%d want=1", len(result.Bones))
	}
	if len(result.Unchanged) != target.Len()-1 {
		t.Fatalf("unchanged count mismatch: got=%d want=%d", len(result.Unchanged), target.Len()-1)
	}
	want, _ := targetRest.Local("head")
	if result.Unchanged["head"] != want {
		t.Fatalf("unchanged head mismatch: got=%s want=%s", result.Unchanged["head"].String(), want.String())
	}
}

func TestSolveFrameSkipsMissingCurrentBone(t *testing.T) {
	source := newSkeletonForTest(t, newHumanoidDescForTest(t, "source"))
	target := newSkeletonForTest(t, newHumanoidDescForTest(t, "target"))
	table := newIdentityTableForTest(t, source, target)
	sourceRest := model.CaptureRest(source)

	current := map[string]model.Transform{}
	for _, name := range source.BoneNames() {
		if name == "head" {
			continue
		}
		local, _ := sourceRest.Local(name)
		current[name] = local
	}
	result := SolveFrame(FrameInput{
		Frame:           12,
		Table:           table,
		SourceReference: sourceRest,
		TargetReference: model.CaptureRest(target),
		Current:         current,
		Scale:           1.0,
	})
	if result.SkippedCount() != 1 || result.Skipped[0].Target != "head" {
		t.Fatalf("skipped mismatch: got=%v", result.Skipped)
	}
	if len(result.Bones) != target.Len()-1 {
		t.Fatalf("solved count mismatch: got=%d want=%d", len(result.Bones), target.Len()-1)
	}
	if len(result.Errors) != 1 || !merrors.IsMissingSnapshotError(result.Errors[0]) {
		t.Fatalf("expected missing snapshot error: got=%v", result.Errors)
	}
}
