// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// LiveReplayRequest は記録済みライブデータの再生要求を表す。
type LiveReplayRequest struct {
	TargetPath string
	PacketPath string
	// OutputPath は空の場合、保存を行わない。
	OutputPath string
	Object     string
	Actor      string
	Sensors    []model.SensorBindingEntry
	Scale      LiveScale
	Trackers   []TrackerBinding
	Faces      []FaceBinding
	Options    LiveSessionOptions
	Initial    map[string]model.Transform
}

// LiveReplayResult はライブデータ再生結果を表す。
type LiveReplayResult struct {
	SessionID   string
	Outputs     []*LiveOutput
	Reset       map[string]model.Transform
	Stream      *model.PoseStream
	Diagnostics []model.Diagnostic
}

// ReplayLive は受信データ列を読み込み、ライブセッションへ順に適用する。
func (uc *RetargetUsecase) ReplayLive(ctx context.Context, request LiveReplayRequest) (*LiveReplayResult, error) {
	if strings.TrimSpace(request.TargetPath) == "" {
		return nil, fmt.Errorf("先骨格パスが未指定です")
	}
	if strings.TrimSpace(request.PacketPath) == "" {
		return nil, fmt.Errorf("受信データパスが未指定です")
	}
	if uc.packetReader == nil {
		return nil, fmt.Errorf("受信データ読み込みリポジトリが設定されていません")
	}

	targetSkeleton, err := uc.LoadSkeleton(nil, request.TargetPath)
	if err != nil {
		return nil, fmt.Errorf("先骨格の読み込みに失敗しました: %w", err)
	}
	object := strings.TrimSpace(request.Object)
	if object == "" {
		object = targetSkeleton.Name()
	}
	sensors, err := model.NewSensorBindingTable(request.Actor, request.Sensors)
	if err != nil {
		return nil, err
	}
	session, err := NewLiveSession(
		[]ActorBinding{{
			Object:     object,
			Actor:      request.Actor,
			TargetRest: model.CaptureRest(targetSkeleton),
			Sensors:    sensors,
			Scale:      request.Scale,
		}},
		request.Trackers,
		resolveFaceObjects(request.Faces, object),
		request.Options,
	)
	if err != nil {
		return nil, err
	}

	packets, err := uc.packetReader.LoadPackets(request.PacketPath)
	if err != nil {
		return nil, fmt.Errorf("受信データの読み込みに失敗しました: %w", err)
	}

	if err := session.Start(request.Initial); err != nil {
		return nil, err
	}
	result := &LiveReplayResult{
		SessionID: session.ID(),
		Outputs:   make([]*LiveOutput, 0, len(packets)),
		Stream: &model.PoseStream{
			Skeleton: targetSkeleton.Name(),
			Source:   request.Actor,
			Scale:    request.Scale.Effective(),
			Frames:   make([]model.PoseFrame, 0, len(packets)),
		},
	}
	for index, packet := range packets {
		if err := ctx.Err(); err != nil {
			session.Stop()
			return nil, err
		}
		output, err := session.Apply(packet)
		if err != nil {
			session.Stop()
			return nil, err
		}
		for _, diagnostic := range output.Diagnostics {
			diagnostic.Frame = index
			result.Diagnostics = append(result.Diagnostics, diagnostic)
		}
		result.Outputs = append(result.Outputs, output)
		result.Stream.Frames = append(result.Stream.Frames, buildLivePoseFrame(index, object, output))
	}
	result.Reset = session.Stop()

	if strings.TrimSpace(request.OutputPath) != "" {
		if err := uc.SavePose(nil, request.OutputPath, result.Stream); err != nil {
			return nil, fmt.Errorf("姿勢の保存に失敗しました: %w", err)
		}
	}
	logRetargetInfo("ライブ再生完了: session=%s packets=%d diagnostics=%d", result.SessionID, len(packets), len(result.Diagnostics))
	return result, nil
}

// resolveFaceObjects はオブジェクト未指定のフェイス対応を既定オブジェクトへ割り当てる。
func resolveFaceObjects(faces []FaceBinding, object string) []FaceBinding {
	resolved := make([]FaceBinding, 0, len(faces))
	for _, face := range faces {
		if strings.TrimSpace(face.Object) == "" {
			face.Object = object
		}
		resolved = append(resolved, face)
	}
	return resolved
}

// buildLivePoseFrame は1受信分の適用結果を出力フレームへ変換する。
// 対象オブジェクト以外のシェイプキー重みは「オブジェクト名:シェイプキー名」で保持する。
func buildLivePoseFrame(index int, object string, output *LiveOutput) model.PoseFrame {
	frame := model.PoseFrame{
		Frame: index,
		Bones: map[string]model.Transform{},
	}
	for _, boneOutput := range output.Bones[object] {
		frame.Bones[boneOutput.Bone] = boneOutput.Local
	}
	if len(output.Objects) > 0 {
		frame.Objects = make(map[string]model.Transform, len(output.Objects))
		for name, transform := range output.Objects {
			frame.Objects[name] = transform
		}
	}
	for shapeObject, weights := range output.ShapeWeights {
		if frame.ShapeWeights == nil {
			frame.ShapeWeights = map[string]float64{}
		}
		for shapeKey, weight := range weights {
			key := shapeKey
			if shapeObject != object {
				key = shapeObject + ":" + shapeKey
			}
			frame.ShapeWeights[key] = weight
		}
	}
	return frame
}
