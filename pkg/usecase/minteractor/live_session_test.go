// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// newLiveSessionForTest はアクター・トラッカー・フェイスを1件ずつ持つセッションを返す。
func newLiveSessionForTest(t *testing.T, opts LiveSessionOptions) *LiveSession {
	t.Helper()
	skeleton := newSkeletonForTest(t, newHumanoidDescForTest(t, "avatar"))
	session, err := NewLiveSession(
		[]ActorBinding{{
			Object:     "avatar",
			Actor:      "Performer",
			TargetRest: model.CaptureRest(skeleton),
			Sensors:    newSensorTableForTest(t),
		}},
		[]TrackerBinding{{Object: "sword", Tracker: "T1", Scale: LiveScale{SceneScale: 0.5}}},
		[]FaceBinding{{Object: "avatar", Actor: "Performer", Shapes: map[string]string{"jawOpen": "あ", "eyeBlinkLeft": "ウィンク"}}},
		opts,
	)
	if err != nil {
		t.Fatalf("live session build failed: %v", err)
	}
	return session
}

func TestLiveSessionApplyRoutesPacket(t *testing.T) {
	session := newLiveSessionForTest(t, LiveSessionOptions{})
	if err := session.Start(nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	output, err := session.Apply(model.LivePacket{
		Timestamp: 1.5,
		Actors: []model.ActorPacket{
			{
				Name: "Performer",
				Sensors: []model.SensorReading{
					{Sensor: "Hip", Translation: mmath.NewVec3(0, 1, 0), Rotation: mmath.NewQuaternion()},
					{Sensor: "Tail", Rotation: mmath.NewQuaternion()},
				},
				Faces: map[string]float64{"jawOpen": 1.4, "eyeBlinkLeft": 0.25},
			},
			{Name: "Stranger"},
		},
		Trackers: []model.TrackerReading{
			{ID: "T1", Translation: mmath.NewVec3(2, 4, 6), Rotation: mmath.NewQuaternion()},
		},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(output.Bones["avatar"]) != 1 || output.Bones["avatar"][0].Bone != "hips" {
		t.Fatalf("bones mismatch: got=%v", output.Bones)
	}
	sword := output.Objects["sword"]
	if !sword.Translation.NearEquals(mmath.NewVec3(1, 2, 3), 1e-9) {
		t.Fatalf("tracker translation mismatch: got=%s", sword.Translation.String())
	}
	weights := output.ShapeWeights["avatar"]
	if weights["あ"] != 1.0 || weights["ウィンク"] != 0.25 {
		t.Fatalf("shape weights mismatch: got=%v", weights)
	}
	for _, id := range []string{model.DiagnosticUnknownSensor, model.DiagnosticUnknownActor, model.DiagnosticFaceWeightClamped} {
		if !hasDiagnosticForTest(output.Diagnostics, id) {
			t.Fatalf("diagnostic %s missing: %v", id, output.Diagnostics)
		}
	}
	if len(output.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", output.Errors)
	}
}

func TestLiveSessionStopResetsInitialTransforms(t *testing.T) {
	session := newLiveSessionForTest(t, LiveSessionOptions{ResetOnStop: true})
	initial := map[string]model.Transform{
		"sword": model.NewTransformTR(mmath.NewVec3(1, 0, 0), mmath.NewQuaternion()),
	}
	if err := session.Start(initial); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	initial["sword"] = model.NewTransform()

	reset := session.Stop()
	if got := reset["sword"].Translation; !got.NearEquals(mmath.NewVec3(1, 0, 0), 1e-12) {
		t.Fatalf("reset transform mismatch: got=%s", got.String())
	}
	if session.State() != LIVE_SESSION_STATE_STOPPED {
		t.Fatalf("state mismatch: got=%s", session.State())
	}
	if again := session.Stop(); again != nil {
		t.Fatalf("second stop should return nil: got=%v", again)
	}
	if _, err := session.Apply(model.LivePacket{}); !merrors.IsSessionStateError(err) {
		t.Fatalf("expected session state error: got=%v", err)
	}
}

func TestLiveSessionStopWithoutResetReturnsNil(t *testing.T) {
	session := newLiveSessionForTest(t, LiveSessionOptions{})
	if err := session.Start(map[string]model.Transform{"sword": model.NewTransform()}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if reset := session.Stop(); reset != nil {
		t.Fatalf("reset should be nil: got=%v", reset)
	}
}

func TestLiveSessionStartTwiceFails(t *testing.T) {
	session := newLiveSessionForTest(t, LiveSessionOptions{})
	if err := session.Start(nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := session.Start(nil); !merrors.IsSessionStateError(err) {
		t.Fatalf("expected session state error: got=%v", err)
	}
}

func TestLiveSessionsAreIndependent(t *testing.T) {
	first := newLiveSessionForTest(t, LiveSessionOptions{})
	second := newLiveSessionForTest(t, LiveSessionOptions{})
	if err := first.Start(nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if second.State() != LIVE_SESSION_STATE_IDLE {
		t.Fatalf("second session should stay idle: got=%s", second.State())
	}
	if _, err := second.Apply(model.LivePacket{}); !merrors.IsSessionStateError(err) {
		t.Fatalf("expected session state error: got=%v", err)
	}
}

func TestNewLiveSessionValidatesBindings(t *testing.T) {
	skeleton := newSkeletonForTest(t, newHumanoidDescForTest(t, "avatar"))
	rest := model.CaptureRest(skeleton)
	sensors := newSensorTableForTest(t)

	_, err := NewLiveSession([]ActorBinding{{Object: "avatar", Actor: "A", Sensors: sensors}}, nil, nil, LiveSessionOptions{})
	if !merrors.IsInvalidReferenceError(err) {
		t.Fatalf("expected invalid reference error: got=%v", err)
	}

	_, err = NewLiveSession([]ActorBinding{
		{Object: "avatar", Actor: "A", TargetRest: rest, Sensors: sensors},
		{Object: "avatar", Actor: "B", TargetRest: rest, Sensors: sensors},
	}, nil, nil, LiveSessionOptions{})
	if !merrors.IsCorrespondenceConflictError(err) {
		t.Fatalf("expected conflict error: got=%v", err)
	}

	_, err = NewLiveSession(nil, nil, []FaceBinding{{
		Object: "avatar",
		Actor:  "A",
		Shapes: map[string]string{"jawOpen": "あ", "mouthOpen": "あ"},
	}}, LiveSessionOptions{})
	if !merrors.IsCorrespondenceConflictError(err) {
		t.Fatalf("expected conflict error: got=%v", err)
	}

	unknownBone, err := model.NewSensorBindingTable("suit", []model.SensorBindingEntry{{Sensor: "Tail", Bone: "tail"}})
	if err != nil {
		t.Fatalf("sensor table build failed: %v", err)
	}
	_, err = NewLiveSession([]ActorBinding{{Object: "avatar", Actor: "A", TargetRest: rest, Sensors: unknownBone}}, nil, nil, LiveSessionOptions{})
	if !merrors.IsUnknownBoneError(err) {
		t.Fatalf("expected unknown bone error: got=%v", err)
	}
}
