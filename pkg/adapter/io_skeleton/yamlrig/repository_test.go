// 指示: miu200521358
package yamlrig

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// writeFileForTest はテスト用のファイルを書き込む。
func writeFileForTest(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}
}

func TestYamlRigRepositoryLoadSkeleton(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mannequin.yaml")
	writeFileForTest(t, path, `
bones:
  - name: pelvis
    translation: [0, 1, 0]
  - name: spine
    parent: pelvis
    translation: [0, 0.2, 0]
    rotationDegrees: [0, 90, 0]
  - name: head
    parent: spine
    translation: [0, 0.5, 0]
    rotation: [0, 0, 0, 3]
    scale: [2, 2, 2]
humanoid:
  pelvis: hips
`)

	desc, err := NewYamlRigRepository().Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if desc.Name != "mannequin" {
		t.Fatalf("name should fall back to file name: got=%s", desc.Name)
	}
	if len(desc.Bones) != 3 || desc.Bones[1].Parent != "pelvis" {
		t.Fatalf("bones mismatch: %+v", desc.Bones)
	}
	wantSpine := mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/2)
	if !desc.Bones[1].Rest.Rotation.NearEquals(wantSpine, 1e-9) {
		t.Fatalf("spine rotation mismatch: got=%s", desc.Bones[1].Rest.Rotation.String())
	}
	if !desc.Bones[2].Rest.Rotation.NearEquals(mmath.NewQuaternion(), 1e-12) {
		t.Fatalf("head rotation should be normalized: got=%s", desc.Bones[2].Rest.Rotation.String())
	}
	if desc.Bones[2].Rest.Scale != mmath.NewVec3(2, 2, 2) {
		t.Fatalf("head scale mismatch: got=%s", desc.Bones[2].Rest.Scale.String())
	}
	if desc.Aliases["pelvis"] != "hips" {
		t.Fatalf("alias mismatch: %v", desc.Aliases)
	}
}

func TestYamlRigRepositoryLoadSkeletonRejectsBadVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeFileForTest(t, path, "bones:\n  - name: root\n    translation: [0, 1]\n")
	_, err := NewYamlRigRepository().Load(path)
	if !merrors.IsIoError(err, merrors.IO_ERROR_PARSE_FAILED) {
		t.Fatalf("expected parse failed: got=%v", err)
	}
}

func TestYamlRigRepositoryLoadSkeletonErrors(t *testing.T) {
	r := NewYamlRigRepository()
	if _, err := r.Load("rig.json"); !merrors.IsIoError(err, merrors.IO_ERROR_EXT_INVALID) {
		t.Fatalf("expected ext invalid: got=%v", err)
	}
	if _, err := r.Load(filepath.Join(t.TempDir(), "missing.yaml")); !merrors.IsIoError(err, merrors.IO_ERROR_FILE_NOT_FOUND) {
		t.Fatalf("expected file not found: got=%v", err)
	}
	empty := filepath.Join(t.TempDir(), "empty.yaml")
	writeFileForTest(t, empty, "name: empty\n")
	if _, err := r.Load(empty); !merrors.IsIoError(err, merrors.IO_ERROR_PARSE_FAILED) {
		t.Fatalf("expected parse failed: got=%v", err)
	}
}

func TestYamlRigRepositoryLoadClip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.yaml")
	writeFileForTest(t, path, `
name: walk
frames:
  - frame: 10
    bones:
      pelvis: {translation: [0, 1, 0.5]}
  - frame: 0
    bones:
      pelvis: {translation: [0, 1, 0]}
      spine: {rotationDegrees: [10, 0, 0]}
`)
	clip, err := NewYamlRigRepository().LoadClip(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if clip.Name != "walk" || clip.Len() != 2 {
		t.Fatalf("clip mismatch: name=%s len=%d", clip.Name, clip.Len())
	}
	start, end, ok := clip.FrameRange()
	if !ok || start != 0 || end != 10 {
		t.Fatalf("frame range mismatch: %d-%d ok=%v", start, end, ok)
	}
	frame, bones := clip.FrameAt(1)
	if frame != 0 || len(bones) != 2 {
		t.Fatalf("frame mismatch: frame=%d bones=%d", frame, len(bones))
	}
}

func TestYamlRigRepositoryLoadPackets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yml")
	writeFileForTest(t, path, `
packets:
  - timestamp: 0.5
    actors:
      - name: Performer
        sensors:
          - sensor: Hip
            translation: [0, 1, 0]
            rotation: [0, 0, 0, 1]
        faces:
          jawOpen: 0.3
    trackers:
      - id: T1
        translation: [1, 2, 3]
`)
	packets, err := NewYamlRigRepository().LoadPackets(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(packets) != 1 || packets[0].Timestamp != 0.5 {
		t.Fatalf("packets mismatch: %+v", packets)
	}
	actor := packets[0].Actors[0]
	if actor.Name != "Performer" || len(actor.Sensors) != 1 || actor.Faces["jawOpen"] != 0.3 {
		t.Fatalf("actor mismatch: %+v", actor)
	}
	if packets[0].Trackers[0].Translation != mmath.NewVec3(1, 2, 3) {
		t.Fatalf("tracker mismatch: %+v", packets[0].Trackers[0])
	}
}

func TestYamlRigRepositorySavePoseRoundTripsThroughClip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path := filepath.Join(dir, "walk_retarget.yaml")
	stream := &model.PoseStream{
		Skeleton: "target",
		Source:   "source",
		Scale:    2,
		Frames: []model.PoseFrame{{
			Frame: 5,
			Bones: map[string]model.Transform{
				"hips": model.NewTransformTR(mmath.NewVec3(0, 2, 0.4), mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/2)),
			},
			Unchanged:    []string{"head"},
			Skipped:      []string{"spine"},
			Objects:      map[string]model.Transform{"sword": model.NewTransform()},
			ShapeWeights: map[string]float64{"あ": 0.5},
		}},
	}

	r := NewYamlRigRepository()
	if err := r.SavePose(path, stream); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for _, want := range []string{"skeleton: target", "unchanged:", "skipped:", "shapeWeights:", "sword:"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("saved yaml should contain %q:\n%s", want, string(b))
		}
	}

	// 出力フレームはアニメーションとしても読み込める
	clip, err := r.LoadClip(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	_, bones := clip.FrameAt(0)
	want := stream.Frames[0].Bones["hips"]
	if !bones["hips"].NearEquals(want, 1e-9) {
		t.Fatalf("hips mismatch: got=%s want=%s", bones["hips"].String(), want.String())
	}
}

func TestYamlRigRepositorySavePoseRejectsInvalidInput(t *testing.T) {
	r := NewYamlRigRepository()
	if err := r.SavePose("", &model.PoseStream{}); !merrors.IsIoError(err, merrors.IO_ERROR_SAVE_FAILED) {
		t.Fatalf("expected save failed: got=%v", err)
	}
	if err := r.SavePose("out.json", &model.PoseStream{}); !merrors.IsIoError(err, merrors.IO_ERROR_EXT_INVALID) {
		t.Fatalf("expected ext invalid: got=%v", err)
	}
	if err := r.SavePose(filepath.Join(t.TempDir(), "out.yaml"), nil); !merrors.IsIoError(err, merrors.IO_ERROR_SAVE_FAILED) {
		t.Fatalf("expected save failed: got=%v", err)
	}
}
