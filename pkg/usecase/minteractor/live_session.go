// 指示: miu200521358
package minteractor

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// LiveSessionState はライブセッションの状態を表す。
type LiveSessionState string

const (
	// LIVE_SESSION_STATE_IDLE は受信前の状態を表す。
	LIVE_SESSION_STATE_IDLE LiveSessionState = "IDLE"
	// LIVE_SESSION_STATE_RECEIVING は受信中の状態を表す。
	LIVE_SESSION_STATE_RECEIVING LiveSessionState = "RECEIVING"
	// LIVE_SESSION_STATE_STOPPED は受信停止状態を表す。
	LIVE_SESSION_STATE_STOPPED LiveSessionState = "STOPPED"
)

// ActorBinding はスーツのアクターと先骨格オブジェクトの対応を表す。
type ActorBinding struct {
	Object     string
	Actor      string
	TargetRest *model.SkeletonSnapshot
	Sensors    *model.SensorBindingTable
	Scale      LiveScale
}

// TrackerBinding はトラッカーとオブジェクトの対応を表す。
type TrackerBinding struct {
	Object  string
	Tracker string
	Scale   LiveScale
}

// FaceBinding はアクターのフェイスシェイプとシェイプキーの対応を表す。
type FaceBinding struct {
	Object string
	Actor  string
	// Shapes はスーツ側シェイプ名からシェイプキー名への対応を保持する。
	Shapes map[string]string
}

// LiveSessionOptions はライブセッションのオプションを表す。
type LiveSessionOptions struct {
	// ResetOnStop は停止時に開始時点のオブジェクト変換を返すかを表す。
	ResetOnStop bool
}

// LiveOutput は1受信分の適用結果を表す。
type LiveOutput struct {
	Timestamp float64
	// Bones はオブジェクト名ごとのボーン出力を保持する。
	Bones map[string][]LiveBoneOutput
	// Objects はトラッカーで駆動するオブジェクト変換を保持する。
	Objects map[string]model.Transform
	// ShapeWeights はオブジェクト名ごとのシェイプキー重みを保持する。
	ShapeWeights map[string]map[string]float64
	Diagnostics  []model.Diagnostic
	Errors       []error
}

// liveActorRuntime はアクター対応と適用器の組を表す。
type liveActorRuntime struct {
	binding ActorBinding
	applier *LiveFrameApplier
}

// LiveSession はライブ受信データを複数オブジェクトへ適用するセッションを表す。
// 受信有効フラグなどの状態はセッション単位で保持し、セッション間で共有しない。
type LiveSession struct {
	mu       sync.RWMutex
	id       string
	state    LiveSessionState
	actors   []liveActorRuntime
	trackers []TrackerBinding
	faces    []FaceBinding
	opts     LiveSessionOptions
	initial  map[string]model.Transform
}

// NewLiveSession は各対応を検証してIDLE状態のライブセッションを生成する。
func NewLiveSession(
	actors []ActorBinding,
	trackers []TrackerBinding,
	faces []FaceBinding,
	opts LiveSessionOptions,
) (*LiveSession, error) {
	session := &LiveSession{
		id:    uuid.NewString(),
		state: LIVE_SESSION_STATE_IDLE,
		opts:  opts,
	}

	actorObjects := map[string]string{}
	for _, binding := range actors {
		if strings.TrimSpace(binding.Object) == "" || strings.TrimSpace(binding.Actor) == "" {
			return nil, fmt.Errorf("アクター対応のオブジェクト名またはアクター名が未指定です")
		}
		if binding.TargetRest == nil {
			return nil, merrors.NewInvalidReferenceError(binding.Object)
		}
		if existing, exists := actorObjects[binding.Object]; exists {
			return nil, merrors.NewCorrespondenceConflictError(binding.Object, existing, binding.Actor)
		}
		for _, entry := range binding.Sensors.Entries() {
			if _, ok := binding.TargetRest.Get(entry.Bone); !ok {
				return nil, merrors.NewUnknownBoneError(binding.TargetRest.SkeletonName(), entry.Bone)
			}
		}
		applier, err := NewLiveFrameApplier(binding.Sensors, binding.Scale)
		if err != nil {
			return nil, err
		}
		actorObjects[binding.Object] = binding.Actor
		session.actors = append(session.actors, liveActorRuntime{binding: binding, applier: applier})
	}

	trackerObjects := map[string]string{}
	for _, binding := range trackers {
		if strings.TrimSpace(binding.Object) == "" || strings.TrimSpace(binding.Tracker) == "" {
			return nil, fmt.Errorf("トラッカー対応のオブジェクト名またはトラッカーIDが未指定です")
		}
		if existing, exists := trackerObjects[binding.Object]; exists {
			return nil, merrors.NewCorrespondenceConflictError(binding.Object, existing, binding.Tracker)
		}
		trackerObjects[binding.Object] = binding.Tracker
		session.trackers = append(session.trackers, binding)
	}

	for _, binding := range faces {
		shapeKeys := map[string]string{}
		for suitShape, shapeKey := range binding.Shapes {
			if existing, exists := shapeKeys[shapeKey]; exists {
				return nil, merrors.NewCorrespondenceConflictError(shapeKey, sortedPair(existing, suitShape)...)
			}
			shapeKeys[shapeKey] = suitShape
		}
		session.faces = append(session.faces, binding)
	}
	return session, nil
}

// sortedPair は2つの名前を辞書順で返す。
func sortedPair(a, b string) []string {
	if a > b {
		return []string{b, a}
	}
	return []string{a, b}
}

// ID はセッションIDを返す。
func (s *LiveSession) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// State は現在の状態を返す。
func (s *LiveSession) State() LiveSessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start は開始時点のオブジェクト変換を控えて受信状態へ遷移する。
func (s *LiveSession) Start(initial map[string]model.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == LIVE_SESSION_STATE_RECEIVING {
		return merrors.NewSessionStateError("Start", string(s.state))
	}
	s.initial = copyTransforms(initial)
	s.state = LIVE_SESSION_STATE_RECEIVING
	logRetargetInfo("ライブ受信開始: session=%s actors=%d trackers=%d", s.id, len(s.actors), len(s.trackers))
	return nil
}

// Apply は1受信分のデータを各対応へ適用する。
// 未知のセンサー・アクターは診断へ積み、残りの適用を続ける。
func (s *LiveSession) Apply(packet model.LivePacket) (*LiveOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != LIVE_SESSION_STATE_RECEIVING {
		return nil, merrors.NewSessionStateError("Apply", string(s.state))
	}

	output := &LiveOutput{
		Timestamp:    packet.Timestamp,
		Bones:        map[string][]LiveBoneOutput{},
		Objects:      map[string]model.Transform{},
		ShapeWeights: map[string]map[string]float64{},
	}
	actorPackets := map[string]model.ActorPacket{}
	for _, actorPacket := range packet.Actors {
		actorPackets[actorPacket.Name] = actorPacket
	}

	boundActors := map[string]struct{}{}
	for _, runtime := range s.actors {
		boundActors[runtime.binding.Actor] = struct{}{}
		actorPacket, exists := actorPackets[runtime.binding.Actor]
		if !exists {
			continue
		}
		s.applyActor(runtime, actorPacket, output)
	}
	for _, binding := range s.faces {
		boundActors[binding.Actor] = struct{}{}
		actorPacket, exists := actorPackets[binding.Actor]
		if !exists {
			continue
		}
		applyFace(binding, actorPacket, output)
	}
	for _, actorPacket := range packet.Actors {
		if _, bound := boundActors[actorPacket.Name]; !bound {
			output.Diagnostics = append(output.Diagnostics, model.Diagnostic{
				ID:      model.DiagnosticUnknownActor,
				Subject: actorPacket.Name,
			})
		}
	}

	trackerReadings := map[string]model.TrackerReading{}
	for _, reading := range packet.Trackers {
		trackerReadings[reading.ID] = reading
	}
	for _, binding := range s.trackers {
		reading, exists := trackerReadings[binding.Tracker]
		if !exists {
			continue
		}
		output.Objects[binding.Object] = model.NewTransformTR(
			reading.Translation.MuledScalar(binding.Scale.Effective()),
			model.Transform{Rotation: reading.Rotation}.EffectiveRotation().Normalized(),
		)
	}
	return output, nil
}

// applyActor はアクター1体分のセンサー姿勢を適用する。
func (s *LiveSession) applyActor(runtime liveActorRuntime, actorPacket model.ActorPacket, output *LiveOutput) {
	for _, reading := range actorPacket.Sensors {
		boneOutput, err := runtime.applier.Apply(reading, runtime.binding.TargetRest)
		if err != nil {
			if _, known := runtime.binding.Sensors.Entry(reading.Sensor); !known {
				output.Diagnostics = append(output.Diagnostics, model.Diagnostic{
					ID:      model.DiagnosticUnknownSensor,
					Subject: runtime.binding.Actor + ":" + reading.Sensor,
				})
				continue
			}
			output.Errors = append(output.Errors, err)
			continue
		}
		output.Bones[runtime.binding.Object] = append(output.Bones[runtime.binding.Object], boneOutput)
	}
}

// applyFace はフェイスシェイプ重みをシェイプキーへ割り当てる。重みは0-1へ丸める。
func applyFace(binding FaceBinding, actorPacket model.ActorPacket, output *LiveOutput) {
	suitShapes := make([]string, 0, len(binding.Shapes))
	for suitShape := range binding.Shapes {
		suitShapes = append(suitShapes, suitShape)
	}
	sort.Strings(suitShapes)

	for _, suitShape := range suitShapes {
		weight, exists := actorPacket.Faces[suitShape]
		if !exists {
			continue
		}
		clamped := clampValue(weight, 0, 1)
		if clamped != weight {
			output.Diagnostics = append(output.Diagnostics, model.Diagnostic{
				ID:      model.DiagnosticFaceWeightClamped,
				Subject: binding.Object + ":" + suitShape,
			})
		}
		weights, exists := output.ShapeWeights[binding.Object]
		if !exists {
			weights = map[string]float64{}
			output.ShapeWeights[binding.Object] = weights
		}
		weights[binding.Shapes[suitShape]] = clamped
	}
}

// Stop は受信を停止する。ResetOnStop指定時は開始時点のオブジェクト変換を返す。
// 既に停止している場合は何もせずnilを返す。
func (s *LiveSession) Stop() map[string]model.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != LIVE_SESSION_STATE_RECEIVING {
		s.state = LIVE_SESSION_STATE_STOPPED
		return nil
	}
	s.state = LIVE_SESSION_STATE_STOPPED
	initial := s.initial
	s.initial = nil
	logRetargetInfo("ライブ受信停止: session=%s reset=%v", s.id, s.opts.ResetOnStop)
	if !s.opts.ResetOnStop {
		return nil
	}
	return initial
}
