// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// RetargetProgressEventType はリターゲット処理の進捗イベント種別を表す。
type RetargetProgressEventType string

const (
	// RetargetProgressEventTypeInputValidated は入力検証完了イベントを表す。
	RetargetProgressEventTypeInputValidated RetargetProgressEventType = "input_validated"
	// RetargetProgressEventTypeSkeletonsLoaded は骨格読込完了イベントを表す。
	RetargetProgressEventTypeSkeletonsLoaded RetargetProgressEventType = "skeletons_loaded"
	// RetargetProgressEventTypeClipLoaded はアニメーション読込完了イベントを表す。
	RetargetProgressEventTypeClipLoaded RetargetProgressEventType = "clip_loaded"
	// RetargetProgressEventTypeSessionConfigured はセッション設定完了イベントを表す。
	RetargetProgressEventTypeSessionConfigured RetargetProgressEventType = "session_configured"
	// RetargetProgressEventTypeFrameSolved はフレーム解決進行イベントを表す。
	RetargetProgressEventTypeFrameSolved RetargetProgressEventType = "frame_solved"
	// RetargetProgressEventTypePoseSaved は姿勢保存完了イベントを表す。
	RetargetProgressEventTypePoseSaved RetargetProgressEventType = "pose_saved"
)

// RetargetProgressEvent はリターゲット処理の進捗イベントを表す。
type RetargetProgressEvent struct {
	Type         RetargetProgressEventType
	PairCount    int
	FrameIndex   int
	FrameCount   int
	SkippedCount int
}

// IRetargetProgressReporter はリターゲット処理の進捗通知契約を表す。
type IRetargetProgressReporter interface {
	// ReportRetargetProgress はリターゲット処理進捗を通知する。
	ReportRetargetProgress(event RetargetProgressEvent)
}

// RetargetRequest はリターゲット要求を表す。
type RetargetRequest struct {
	SourcePath       string
	TargetPath       string
	ClipPath         string
	OutputPath       string
	Pairs            []model.BoneCorrespondence
	Options          ConfigureOptions
	ProgressReporter IRetargetProgressReporter
}

// RetargetResult はリターゲット結果を表す。
type RetargetResult struct {
	SessionID    string
	OutputPath   string
	Scale        float64
	Pairs        []model.BoneCorrespondence
	Stream       *model.PoseStream
	SkippedCount int
	Diagnostics  []model.Diagnostic
}

// Retarget は元骨格・先骨格・アニメーションを読み込み、全フレームをリターゲットして保存する。
func (uc *RetargetUsecase) Retarget(ctx context.Context, request RetargetRequest) (*RetargetResult, error) {
	if strings.TrimSpace(request.SourcePath) == "" {
		return nil, fmt.Errorf("元骨格パスが未指定です")
	}
	if strings.TrimSpace(request.TargetPath) == "" {
		return nil, fmt.Errorf("先骨格パスが未指定です")
	}
	if strings.TrimSpace(request.ClipPath) == "" {
		return nil, fmt.Errorf("アニメーションパスが未指定です")
	}
	outputPath, err := resolvePoseOutputPath(request.ClipPath, request.OutputPath)
	if err != nil {
		return nil, err
	}
	reportRetargetProgress(request.ProgressReporter, RetargetProgressEvent{
		Type: RetargetProgressEventTypeInputValidated,
	})

	sourceSkeleton, err := uc.LoadSkeleton(nil, request.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("元骨格の読み込みに失敗しました: %w", err)
	}
	targetSkeleton, err := uc.LoadSkeleton(nil, request.TargetPath)
	if err != nil {
		return nil, fmt.Errorf("先骨格の読み込みに失敗しました: %w", err)
	}
	reportRetargetProgress(request.ProgressReporter, RetargetProgressEvent{
		Type: RetargetProgressEventTypeSkeletonsLoaded,
	})

	clip, err := uc.LoadClip(nil, request.ClipPath)
	if err != nil {
		return nil, fmt.Errorf("アニメーションの読み込みに失敗しました: %w", err)
	}
	clip.SortFrames()
	reportRetargetProgress(request.ProgressReporter, RetargetProgressEvent{
		Type:       RetargetProgressEventTypeClipLoaded,
		FrameCount: clip.Len(),
	})

	// 現在姿勢基準の場合、元骨格の基準はアニメーション先頭フレームとする
	var sourcePose map[string]model.Transform
	if clip.Len() > 0 {
		_, sourcePose = clip.FrameAt(0)
	}
	session := NewRetargetingSession()
	defer session.Stop()

	configured, err := session.Configure(
		NewSkeletonRef(sourceSkeleton, sourcePose),
		NewSkeletonRef(targetSkeleton, nil),
		request.Pairs,
		request.Options,
	)
	if err != nil {
		return nil, fmt.Errorf("リターゲット設定に失敗しました: %w", err)
	}
	reportRetargetProgress(request.ProgressReporter, RetargetProgressEvent{
		Type:       RetargetProgressEventTypeSessionConfigured,
		PairCount:  configured.Table.Len(),
		FrameCount: clip.Len(),
	})

	stream := &model.PoseStream{
		Skeleton: targetSkeleton.Name(),
		Source:   sourceSkeleton.Name(),
		Scale:    configured.Scale,
		Frames:   make([]model.PoseFrame, 0, clip.Len()),
	}
	diagnostics := append([]model.Diagnostic(nil), configured.Diagnostics...)
	skippedCount := 0
	_, err = session.Run(ctx, clip, func(index int, total int, result *StepResult) {
		stream.Frames = append(stream.Frames, buildPoseFrame(targetSkeleton, result))
		for _, skipped := range result.Skipped {
			diagnostics = append(diagnostics, model.Diagnostic{
				ID:      model.DiagnosticBoneSkipped,
				Subject: skipped.Source,
				Frame:   result.Frame,
			})
		}
		skippedCount += result.SkippedCount()
		reportRetargetProgress(request.ProgressReporter, RetargetProgressEvent{
			Type:         RetargetProgressEventTypeFrameSolved,
			PairCount:    configured.Table.Len(),
			FrameIndex:   index,
			FrameCount:   total,
			SkippedCount: result.SkippedCount(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("リターゲット処理に失敗しました: %w", err)
	}

	if err := uc.SavePose(nil, outputPath, stream); err != nil {
		return nil, fmt.Errorf("姿勢の保存に失敗しました: %w", err)
	}
	reportRetargetProgress(request.ProgressReporter, RetargetProgressEvent{
		Type:       RetargetProgressEventTypePoseSaved,
		FrameCount: len(stream.Frames),
	})
	if skippedCount > 0 {
		logRetargetWarn("姿勢欠落により解決を見送ったボーンがあります: count=%d", skippedCount)
	}

	return &RetargetResult{
		SessionID:    configured.SessionID,
		OutputPath:   outputPath,
		Scale:        configured.Scale,
		Pairs:        configured.Table.Pairs(),
		Stream:       stream,
		SkippedCount: skippedCount,
		Diagnostics:  diagnostics,
	}, nil
}

// buildPoseFrame はステップ結果を先骨格の定義順に並べた出力フレームへ変換する。
func buildPoseFrame(targetSkeleton *model.Skeleton, result *StepResult) model.PoseFrame {
	frame := model.PoseFrame{
		Frame: result.Frame,
		Bones: make(map[string]model.Transform, len(result.Bones)),
	}
	for name, transform := range result.Bones {
		frame.Bones[name] = transform
	}
	for _, name := range targetSkeleton.BoneNames() {
		if _, unchanged := result.Unchanged[name]; unchanged {
			frame.Unchanged = append(frame.Unchanged, name)
		}
	}
	for _, skipped := range result.Skipped {
		frame.Skipped = append(frame.Skipped, skipped.Target)
	}
	return frame
}

// BuildDefaultOutputPath はアニメーションパスから既定の出力パスを生成する。
func BuildDefaultOutputPath(clipPath string) string {
	dir := filepath.Dir(clipPath)
	base := strings.TrimSuffix(filepath.Base(clipPath), filepath.Ext(clipPath))
	if strings.TrimSpace(base) == "" || base == "." {
		return ""
	}
	return filepath.Join(dir, base+"_retarget.yaml")
}

// resolvePoseOutputPath は出力パスを解決し、拡張子を検証する。
func resolvePoseOutputPath(clipPath string, outputPath string) (string, error) {
	resolved := strings.TrimSpace(outputPath)
	if resolved == "" {
		resolved = BuildDefaultOutputPath(clipPath)
	}
	if resolved == "" {
		return "", fmt.Errorf("出力パスが未指定です")
	}
	ext := strings.ToLower(filepath.Ext(resolved))
	if ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("出力拡張子が .yaml ではありません: %s", resolved)
	}
	return resolved, nil
}

// reportRetargetProgress はリターゲット処理の進捗を通知する。
func reportRetargetProgress(reporter IRetargetProgressReporter, event RetargetProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.ReportRetargetProgress(event)
}
