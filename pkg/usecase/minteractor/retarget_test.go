// 指示: miu200521358
package minteractor

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// memorySkeletonReader はパスごとの骨格定義を返すテスト用リポジトリ。
type memorySkeletonReader struct {
	descs map[string]*model.SkeletonDesc
}

func (r *memorySkeletonReader) CanLoad(path string) bool {
	return strings.HasSuffix(path, ".yaml")
}

func (r *memorySkeletonReader) Load(path string) (*model.SkeletonDesc, error) {
	desc, exists := r.descs[path]
	if !exists {
		return nil, errors.New("not found: " + path)
	}
	return desc, nil
}

// memoryClipReader はパスごとのアニメーションを返すテスト用リポジトリ。
type memoryClipReader struct {
	clips map[string]*model.Clip
}

func (r *memoryClipReader) CanLoad(path string) bool {
	return strings.HasSuffix(path, ".yaml")
}

func (r *memoryClipReader) LoadClip(path string) (*model.Clip, error) {
	clip, exists := r.clips[path]
	if !exists {
		return nil, errors.New("not found: " + path)
	}
	return clip, nil
}

// memoryPoseWriter は保存された姿勢を保持するテスト用リポジトリ。
type memoryPoseWriter struct {
	saved map[string]*model.PoseStream
}

func (w *memoryPoseWriter) SavePose(path string, stream *model.PoseStream) error {
	if w.saved == nil {
		w.saved = map[string]*model.PoseStream{}
	}
	w.saved[path] = stream
	return nil
}

// memoryPacketReader はパスごとの受信データを返すテスト用リポジトリ。
type memoryPacketReader struct {
	packets map[string][]model.LivePacket
}

func (r *memoryPacketReader) LoadPackets(path string) ([]model.LivePacket, error) {
	packets, exists := r.packets[path]
	if !exists {
		return nil, errors.New("not found: " + path)
	}
	return packets, nil
}

// progressRecorder は進捗イベントを記録する。
type progressRecorder struct {
	events []RetargetProgressEvent
}

func (r *progressRecorder) ReportRetargetProgress(event RetargetProgressEvent) {
	r.events = append(r.events, event)
}

// newWalkClipForTest はhipsを前進・回転させるアニメーションを返す。末尾フレームはheadが欠落する。
func newWalkClipForTest(t *testing.T, skeleton *model.Skeleton) *model.Clip {
	t.Helper()
	clip := &model.Clip{Name: "walk"}
	for frame := 2; frame >= 0; frame-- {
		pose := restPoseForTest(t, skeleton)
		hips := pose["hips"]
		hips.Translation = hips.Translation.Added(mmath.NewVec3(0, 0, 0.1*float64(frame)))
		hips.Rotation = mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi/4*float64(frame))
		pose["hips"] = hips
		if frame == 2 {
			delete(pose, "head")
		}
		clip.Frames = append(clip.Frames, model.ClipFrame{Frame: frame * 10, Bones: pose})
	}
	return clip
}

func TestRetargetUsecaseRetargetSavesPoseStream(t *testing.T) {
	tempDir := t.TempDir()
	sourcePath := filepath.Join(tempDir, "source.yaml")
	targetPath := filepath.Join(tempDir, "target.yaml")
	clipPath := filepath.Join(tempDir, "walk.yaml")

	sourceDesc := newHumanoidDescForTest(t, "source")
	writer := &memoryPoseWriter{}
	uc := NewRetargetUsecase(RetargetUsecaseDeps{
		SkeletonReader: &memorySkeletonReader{descs: map[string]*model.SkeletonDesc{
			sourcePath: sourceDesc,
			targetPath: newHumanoidDescForTest(t, "target").Scaled(2),
		}},
		ClipReader: &memoryClipReader{clips: map[string]*model.Clip{
			clipPath: newWalkClipForTest(t, newSkeletonForTest(t, sourceDesc)),
		}},
		PoseWriter: writer,
	})
	recorder := &progressRecorder{}

	result, err := uc.Retarget(context.Background(), RetargetRequest{
		SourcePath: sourcePath,
		TargetPath: targetPath,
		ClipPath:   clipPath,
		Options: ConfigureOptions{
			AutoScale:      true,
			Correspondence: CorrespondenceOptions{NameMatching: true},
		},
		ProgressReporter: recorder,
	})
	if err != nil {
		t.Fatalf("retarget failed: %v", err)
	}
	wantOutput := filepath.Join(tempDir, "walk_retarget.yaml")
	if result.OutputPath != wantOutput {
		t.Fatalf("output path mismatch: got=%s want=%s", result.OutputPath, wantOutput)
	}
	if writer.saved[wantOutput] != result.Stream {
		t.Fatalf("stream should be saved to output path")
	}
	if math.Abs(result.Scale-2) > 1e-9 {
		t.Fatalf("scale mismatch: got=%v want=2", result.Scale)
	}
	if len(result.Stream.Frames) != 3 {
		t.Fatalf("frame count mismatch: got=%d want=3", len(result.Stream.Frames))
	}
	for i, want := range []int{0, 10, 20} {
		if result.Stream.Frames[i].Frame != want {
			t.Fatalf("frame order mismatch: index=%d got=%d want=%d", i, result.Stream.Frames[i].Frame, want)
		}
	}
	last := result.Stream.Frames[2]
	if len(last.Skipped) != 1 || last.Skipped[0] != "head" {
		t.Fatalf("skipped mismatch: got=%v", last.Skipped)
	}
	wantHips := mmath.NewVec3(0, 2, 0.4)
	if got := last.Bones["hips"].Translation; !got.NearEquals(wantHips, 1e-9) {
		t.Fatalf("hips translation mismatch: got=%s want=%s", got.String(), wantHips.String())
	}
	if result.SkippedCount != 1 || !hasDiagnosticForTest(result.Diagnostics, model.DiagnosticBoneSkipped) {
		t.Fatalf("skipped diagnostics mismatch: count=%d diagnostics=%v", result.SkippedCount, result.Diagnostics)
	}

	if len(recorder.events) != 8 {
		t.Fatalf("event count mismatch: got=%d want=8", len(recorder.events))
	}
	if recorder.events[0].Type != RetargetProgressEventTypeInputValidated {
		t.Fatalf("first event mismatch: got=%s", recorder.events[0].Type)
	}
	if recorder.events[len(recorder.events)-1].Type != RetargetProgressEventTypePoseSaved {
		t.Fatalf("last event mismatch: got=%s", recorder.events[len(recorder.events)-1].Type)
	}
}

func TestRetargetUsecaseRetargetRejectsInvalidOutputExtension(t *testing.T) {
	uc := NewRetargetUsecase(RetargetUsecaseDeps{})
	_, err := uc.Retarget(context.Background(), RetargetRequest{
		SourcePath: "a.yaml",
		TargetPath: "b.yaml",
		ClipPath:   "c.yaml",
		OutputPath: "out.json",
	})
	if err == nil || !strings.Contains(err.Error(), ".yaml") {
		t.Fatalf("expected extension error: got=%v", err)
	}
}

func TestRetargetUsecaseRetargetRequiresPaths(t *testing.T) {
	uc := NewRetargetUsecase(RetargetUsecaseDeps{})
	cases := []RetargetRequest{
		{TargetPath: "b.yaml", ClipPath: "c.yaml"},
		{SourcePath: "a.yaml", ClipPath: "c.yaml"},
		{SourcePath: "a.yaml", TargetPath: "b.yaml"},
	}
	for _, request := range cases {
		if _, err := uc.Retarget(context.Background(), request); err == nil {
			t.Fatalf("expected error for request: %+v", request)
		}
	}
}

func TestRetargetUsecaseLoadSkeletonRejectsUnsupportedPath(t *testing.T) {
	uc := NewRetargetUsecase(RetargetUsecaseDeps{SkeletonReader: &memorySkeletonReader{}})
	if _, err := uc.LoadSkeleton(nil, "model.pmx"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestBuildDefaultOutputPath(t *testing.T) {
	got := BuildDefaultOutputPath(filepath.Join("motion", "dance.bvh.yaml"))
	want := filepath.Join("motion", "dance.bvh_retarget.yaml")
	if got != want {
		t.Fatalf("output path mismatch: got=%s want=%s", got, want)
	}
	if BuildDefaultOutputPath("") != "" {
		t.Fatalf("empty path should produce empty output path")
	}
}
