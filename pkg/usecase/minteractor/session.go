// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_retarget/pkg/usecase/port/moutput"
)

// SessionState はリターゲットセッションの状態を表す。
type SessionState string

const (
	// SESSION_STATE_IDLE は未設定状態を表す。
	SESSION_STATE_IDLE SessionState = "IDLE"
	// SESSION_STATE_READY は骨格と対応表の検証済み状態を表す。
	SESSION_STATE_READY SessionState = "READY"
	// SESSION_STATE_RUNNING はフレーム処理中の状態を表す。
	SESSION_STATE_RUNNING SessionState = "RUNNING"
	// SESSION_STATE_STOPPED は終了状態を表す。
	SESSION_STATE_STOPPED SessionState = "STOPPED"
)

// ConfigureOptions はセッション設定時のオプションを表す。
type ConfigureOptions struct {
	PoseMode model.PoseMode
	// AutoScale はレスト姿勢の計測から倍率を算出するかを表す。
	AutoScale bool
	// ScaleOverride は0より大きい場合に自動算出を使わずこの倍率を使う。
	ScaleOverride float64
	// Anchors は自動スケールの計測ボーン。nilまたは空の側は既定の計測ボーンを使う。
	Anchors        *ScaleAnchors
	Correspondence CorrespondenceOptions
}

// ConfigureResult はセッション設定の検証結果を表す。
type ConfigureResult struct {
	SessionID   string
	Scale       float64
	Anchors     *ScaleAnchors
	Table       *model.BoneCorrespondenceTable
	Diagnostics []model.Diagnostic
}

// StepResult は1ステップ分の出力を表す。
type StepResult = FrameResult

// FrameSource は順に処理するフレーム列を表す。
type FrameSource interface {
	Len() int
	FrameAt(i int) (int, map[string]model.Transform)
}

// StepObserver はRunの各ステップ完了を受け取る。
type StepObserver func(index int, total int, result *StepResult)

// RetargetingSession は2つの骨格参照と対応表を保持し、フレーム単位でリターゲットを進める。
//
// State・IDなどの読み取りは任意のゴルーチンから呼べる。Stepは呼び出し側で直列化すること。
type RetargetingSession struct {
	mu    sync.RWMutex
	id    string
	state SessionState

	source         moutput.ISkeletonRef
	target         moutput.ISkeletonRef
	sourceSkeleton *model.Skeleton
	targetSkeleton *model.Skeleton

	table           *model.BoneCorrespondenceTable
	poseMode        model.PoseMode
	scale           float64
	targetRest      *model.SkeletonSnapshot
	sourceReference *model.SkeletonSnapshot
	targetReference *model.SkeletonSnapshot
	cursor          int
}

// NewRetargetingSession はIDLE状態のセッションを生成する。
func NewRetargetingSession() *RetargetingSession {
	return &RetargetingSession{
		id:     uuid.NewString(),
		state:  SESSION_STATE_IDLE,
		cursor: -1,
	}
}

// ID はセッションIDを返す。
func (s *RetargetingSession) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// State は現在の状態を返す。
func (s *RetargetingSession) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Scale は適用中の倍率を返す。未設定時は0。
func (s *RetargetingSession) Scale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scale
}

// Table は適用中の対応表を返す。
func (s *RetargetingSession) Table() *model.BoneCorrespondenceTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// PoseMode は基準姿勢種別を返す。
func (s *RetargetingSession) PoseMode() model.PoseMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poseMode
}

// Cursor は最後に処理したフレーム番号を返す。未処理時は-1。
func (s *RetargetingSession) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Configure は対応表の構築・倍率算出・基準姿勢の取得を行い、READYへ遷移する。
// いずれかに失敗した場合は何も反映せず、状態も変えない。
func (s *RetargetingSession) Configure(
	source moutput.ISkeletonRef,
	target moutput.ISkeletonRef,
	pairs []model.BoneCorrespondence,
	opts ConfigureOptions,
) (*ConfigureResult, error) {
	state := s.State()
	if state != SESSION_STATE_IDLE && state != SESSION_STATE_READY {
		return nil, merrors.NewSessionStateError("Configure", string(state))
	}

	sourceSkeleton, err := resolveSkeletonRef(source, "source")
	if err != nil {
		return nil, err
	}
	targetSkeleton, err := resolveSkeletonRef(target, "target")
	if err != nil {
		return nil, err
	}
	poseMode, ok := model.ParsePoseMode(string(opts.PoseMode))
	if !ok {
		return nil, fmt.Errorf("姿勢モードが不正です: %s", opts.PoseMode)
	}
	if opts.ScaleOverride < 0 || math.IsNaN(opts.ScaleOverride) || math.IsInf(opts.ScaleOverride, 0) {
		return nil, fmt.Errorf("スケール指定が不正です: %v", opts.ScaleOverride)
	}

	table, diagnostics, err := buildCorrespondenceTable(sourceSkeleton, targetSkeleton, pairs, opts.Correspondence)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		diagnostics = append(diagnostics, model.Diagnostic{ID: model.DiagnosticEmptyCorrespondence})
	}

	sourceRest := model.CaptureRest(sourceSkeleton)
	targetRest := model.CaptureRest(targetSkeleton)

	result := &ConfigureResult{Table: table, Scale: 1.0}
	switch {
	case opts.ScaleOverride > 0:
		result.Scale = opts.ScaleOverride
		if opts.AutoScale {
			diagnostics = append(diagnostics, model.Diagnostic{ID: model.DiagnosticScaleOverridden})
		}
	case opts.AutoScale:
		anchors := ResolveScaleAnchors(sourceSkeleton, targetSkeleton, opts.Anchors)
		scale, err := ComputeAutoScale(sourceRest, targetRest, anchors)
		if err != nil {
			return nil, err
		}
		result.Scale = scale
		result.Anchors = &anchors
		for _, pair := range []struct {
			skeleton *model.Skeleton
			rest     *model.SkeletonSnapshot
		}{{sourceSkeleton, sourceRest}, {targetSkeleton, targetRest}} {
			if !IsTStance(pair.skeleton, pair.rest) {
				diagnostics = append(diagnostics, model.Diagnostic{
					ID:      model.DiagnosticNotTStance,
					Subject: pair.skeleton.Name(),
				})
			}
		}
	}

	sourceReference, targetReference := sourceRest, targetRest
	if poseMode == model.POSE_MODE_CURRENT {
		sourceReference = model.CapturePose(sourceSkeleton, source.Pose())
		targetReference = model.CapturePose(targetSkeleton, target.Pose())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SESSION_STATE_IDLE && s.state != SESSION_STATE_READY {
		return nil, merrors.NewSessionStateError("Configure", string(s.state))
	}
	s.source = source
	s.target = target
	s.sourceSkeleton = sourceSkeleton
	s.targetSkeleton = targetSkeleton
	s.table = table
	s.poseMode = poseMode
	s.scale = result.Scale
	s.targetRest = targetRest
	s.sourceReference = sourceReference
	s.targetReference = targetReference
	s.cursor = -1
	s.state = SESSION_STATE_READY

	result.SessionID = s.id
	result.Diagnostics = diagnostics
	logRetargetInfo(
		"リターゲット設定完了: session=%s source=%s target=%s pairs=%d scale=%.6f mode=%s",
		s.id,
		sourceSkeleton.Name(),
		targetSkeleton.Name(),
		table.Len(),
		result.Scale,
		poseMode,
	)
	return result, nil
}

// resolveSkeletonRef は参照が有効であることを確認して骨格を返す。
func resolveSkeletonRef(ref moutput.ISkeletonRef, role string) (*model.Skeleton, error) {
	if ref == nil || !ref.IsValid() {
		return nil, merrors.NewInvalidReferenceError(role)
	}
	skeleton := ref.Skeleton()
	if skeleton == nil {
		return nil, merrors.NewInvalidReferenceError(role)
	}
	return skeleton, nil
}

// Step は1フレーム分の現在姿勢を解決し、カーソルを進める。
// 先頭で両参照の有効性を確認し、無効な場合はSTOPPEDへ遷移してInvalidReferenceErrorを返す。
// 欠落ボーンはエラーにせず結果のSkippedへ計上する。
func (s *RetargetingSession) Step(frame int, current map[string]model.Transform) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SESSION_STATE_READY && s.state != SESSION_STATE_RUNNING {
		return nil, merrors.NewSessionStateError("Step", string(s.state))
	}
	if role, ok := s.checkReferencesLocked(); !ok {
		logRetargetWarn("骨格参照が無効になったためリターゲットを停止します: session=%s role=%s", s.id, role)
		s.releaseLocked()
		return nil, merrors.NewInvalidReferenceError(role)
	}

	result := SolveFrame(FrameInput{
		Frame:           frame,
		Table:           s.table,
		SourceReference: s.sourceReference,
		TargetReference: s.targetReference,
		TargetRest:      s.targetRest,
		Current:         current,
		Scale:           s.scale,
	})
	s.cursor = frame
	s.state = SESSION_STATE_RUNNING
	return result, nil
}

// checkReferencesLocked は両参照が有効で、設定時と同じ骨格を指しているか判定する。
func (s *RetargetingSession) checkReferencesLocked() (string, bool) {
	if s.source == nil || !s.source.IsValid() || s.source.Skeleton() != s.sourceSkeleton {
		return "source", false
	}
	if s.target == nil || !s.target.IsValid() || s.target.Skeleton() != s.targetSkeleton {
		return "target", false
	}
	return "", true
}

// Run はフレーム列を順にStepする。ctxがキャンセルされた時点で処理済みの結果とctxのエラーを返す。
func (s *RetargetingSession) Run(ctx context.Context, frames FrameSource, observer StepObserver) ([]*StepResult, error) {
	total := frames.Len()
	results := make([]*StepResult, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		frame, current := frames.FrameAt(i)
		result, err := s.Step(frame, current)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if observer != nil {
			observer(i, total, result)
		}
	}
	return results, nil
}

// Clear は対応表と基準姿勢を破棄してIDLEへ戻す。STOPPED後は実行できない。
func (s *RetargetingSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SESSION_STATE_STOPPED {
		return merrors.NewSessionStateError("Clear", string(s.state))
	}
	s.releaseFieldsLocked()
	s.state = SESSION_STATE_IDLE
	return nil
}

// Stop は保持する参照を解放してSTOPPEDへ遷移する。何度呼んでもよい。
func (s *RetargetingSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SESSION_STATE_STOPPED {
		return
	}
	s.releaseLocked()
	logRetargetInfo("リターゲット停止: session=%s", s.id)
}

// releaseLocked は保持情報を解放してSTOPPEDへ遷移する。
func (s *RetargetingSession) releaseLocked() {
	s.releaseFieldsLocked()
	s.state = SESSION_STATE_STOPPED
}

// releaseFieldsLocked は参照・対応表・倍率・基準姿勢を破棄する。
func (s *RetargetingSession) releaseFieldsLocked() {
	s.source = nil
	s.target = nil
	s.sourceSkeleton = nil
	s.targetSkeleton = nil
	s.table = nil
	s.scale = 0
	s.targetRest = nil
	s.sourceReference = nil
	s.targetReference = nil
	s.cursor = -1
}
