// 指示: miu200521358
package minteractor

import (
	"math"
	"testing"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// newSensorTableForTest は腰・頭センサーの対応表を返す。
func newSensorTableForTest(t *testing.T) *model.SensorBindingTable {
	t.Helper()
	table, err := model.NewSensorBindingTable("suit", []model.SensorBindingEntry{
		{Sensor: "Hip", Bone: "hips", ReferencePosition: mmath.NewVec3(0, 1, 0), Positional: true},
		{Sensor: "Head", Bone: "head", Reference: mmath.NewQuaternionFromAxisAngle(mmath.UNIT_X_VEC3, math.Pi/6)},
	})
	if err != nil {
		t.Fatalf("sensor table build failed: %v", err)
	}
	return table
}

func TestLiveScaleEffective(t *testing.T) {
	cases := []struct {
		name  string
		scale LiveScale
		want  float64
	}{
		{name: "zero", scale: LiveScale{}, want: 1.0},
		{name: "scene", scale: LiveScale{SceneScale: 0.5}, want: 0.5},
		{name: "custom disabled", scale: LiveScale{SceneScale: 0.5, CustomScale: 3}, want: 0.5},
		{name: "custom", scale: LiveScale{SceneScale: 0.5, CustomScale: 3, UseCustomScale: true}, want: 3},
		{name: "custom zero", scale: LiveScale{SceneScale: 0.5, UseCustomScale: true}, want: 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scale.Effective(); got != tc.want {
				t.Fatalf("effective scale mismatch: got=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestLiveFrameApplierAppliesPositionalSensor(t *testing.T) {
	skeleton := newSkeletonForTest(t, newHumanoidDescForTest(t, "avatar"))
	rest := model.CaptureRest(skeleton)
	applier, err := NewLiveFrameApplier(newSensorTableForTest(t), LiveScale{CustomScale: 2, UseCustomScale: true})
	if err != nil {
		t.Fatalf("applier build failed: %v", err)
	}

	output, err := applier.Apply(model.SensorReading{
		Sensor:      "Hip",
		Translation: mmath.NewVec3(0, 1.5, 0),
		Rotation:    mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/2),
	}, rest)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if output.Bone != "hips" {
		t.Fatalf("bone mismatch: got=%s want=hips", output.Bone)
	}
	wantTranslation := mmath.NewVec3(0, 2, 0)
	if !output.Local.Translation.NearEquals(wantTranslation, 1e-9) {
		t.Fatalf("translation mismatch: got=%s want=%s", output.Local.Translation.String(), wantTranslation.String())
	}
	wantRotation := mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/2)
	if !output.Local.Rotation.NearEquals(wantRotation, 1e-9) {
		t.Fatalf("rotation mismatch: got=%s want=%s", output.Local.Rotation.String(), wantRotation.String())
	}
}

func TestLiveFrameApplierIgnoresTranslationOfRotationalSensor(t *testing.T) {
	skeleton := newSkeletonForTest(t, newHumanoidDescForTest(t, "avatar"))
	rest := model.CaptureRest(skeleton)
	applier, err := NewLiveFrameApplier(newSensorTableForTest(t), LiveScale{})
	if err != nil {
		t.Fatalf("applier build failed: %v", err)
	}

	output, err := applier.Apply(model.SensorReading{
		Sensor:      "Head",
		Translation: mmath.NewVec3(5, 5, 5),
		Rotation:    mmath.NewQuaternionFromAxisAngle(mmath.UNIT_X_VEC3, math.Pi/6),
	}, rest)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	want, _ := rest.Local("head")
	if output.Local != want {
		t.Fatalf("head should stay at rest: got=%s want=%s", output.Local.String(), want.String())
	}
}

func TestLiveFrameApplierApplyAllCollectsUnknownSensor(t *testing.T) {
	skeleton := newSkeletonForTest(t, newHumanoidDescForTest(t, "avatar"))
	applier, err := NewLiveFrameApplier(newSensorTableForTest(t), LiveScale{})
	if err != nil {
		t.Fatalf("applier build failed: %v", err)
	}

	outputs, errs := applier.ApplyAll([]model.SensorReading{
		{Sensor: "Hip", Rotation: mmath.NewQuaternion()},
		{Sensor: "LeftFoot", Rotation: mmath.NewQuaternion()},
	}, model.CaptureRest(skeleton))
	if len(outputs) != 1 {
		t.Fatalf("output count mismatch: got=%d want=1", len(outputs))
	}
	if len(errs) != 1 || !merrors.IsUnknownBoneError(errs[0]) {
		t.Fatalf("expected unknown bone error: got=%v", errs)
	}
}

func TestNewLiveFrameApplierRequiresBindings(t *testing.T) {
	if _, err := NewLiveFrameApplier(nil, LiveScale{}); err == nil {
		t.Fatalf("expected error for nil bindings")
	}
}
