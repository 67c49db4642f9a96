// 指示: miu200521358
package model

import "strings"

// PoseMode はリターゲット時に基準とする姿勢の種別を表す。
type PoseMode string

const (
	// POSE_MODE_REST は骨格設計時のレストポーズを基準とする。
	POSE_MODE_REST PoseMode = "REST"
	// POSE_MODE_CURRENT は開始時点の現在姿勢を基準とする。
	POSE_MODE_CURRENT PoseMode = "CURRENT"
)

// ParsePoseMode は文字列から姿勢種別を解決する。
func ParsePoseMode(value string) (PoseMode, bool) {
	switch PoseMode(strings.ToUpper(strings.TrimSpace(value))) {
	case POSE_MODE_REST, "":
		return POSE_MODE_REST, true
	case POSE_MODE_CURRENT:
		return POSE_MODE_CURRENT, true
	default:
		return POSE_MODE_REST, false
	}
}

// BonePose はスナップショット内の1ボーン姿勢を表す。
type BonePose struct {
	Local Transform
	World Transform
}

// SkeletonSnapshot はある時点の骨格姿勢を凍結したものを表す。生成後は変更されない。
type SkeletonSnapshot struct {
	skeletonName string
	mode         PoseMode
	order        []string
	poses        map[string]BonePose
	supplied     map[string]struct{}
}

// CaptureRest は骨格のレストポーズを取得する。
func CaptureRest(skeleton *Skeleton) *SkeletonSnapshot {
	snapshot := newSnapshot(skeleton, POSE_MODE_REST)
	for _, bone := range skeleton.bones {
		snapshot.poses[bone.name] = BonePose{Local: bone.restLocal, World: bone.restWorld}
		snapshot.supplied[bone.name] = struct{}{}
	}
	return snapshot
}

// CapturePose は指定ローカル変換から現在姿勢を取得する。
// 指定の無いボーンはレストのローカル変換で補い、Suppliedでは偽となる。
func CapturePose(skeleton *Skeleton, locals map[string]Transform) *SkeletonSnapshot {
	snapshot := newSnapshot(skeleton, POSE_MODE_CURRENT)
	worlds := skeleton.WorldTransforms(locals)
	for _, bone := range skeleton.bones {
		local, exists := locals[bone.name]
		if exists {
			local = normalizeTransform(local)
			snapshot.supplied[bone.name] = struct{}{}
		} else {
			local = bone.restLocal
		}
		snapshot.poses[bone.name] = BonePose{Local: local, World: worlds[bone.name]}
	}
	return snapshot
}

// newSnapshot は空のスナップショットを生成する。
func newSnapshot(skeleton *Skeleton, mode PoseMode) *SkeletonSnapshot {
	return &SkeletonSnapshot{
		skeletonName: skeleton.name,
		mode:         mode,
		order:        skeleton.BoneNames(),
		poses:        make(map[string]BonePose, skeleton.Len()),
		supplied:     make(map[string]struct{}, skeleton.Len()),
	}
}

// SkeletonName は取得元の骨格名を返す。
func (s *SkeletonSnapshot) SkeletonName() string { return s.skeletonName }

// Mode は姿勢種別を返す。
func (s *SkeletonSnapshot) Mode() PoseMode { return s.mode }

// Len はボーン数を返す。
func (s *SkeletonSnapshot) Len() int { return len(s.order) }

// Names は骨格定義順のボーン名一覧を返す。
func (s *SkeletonSnapshot) Names() []string {
	return append([]string(nil), s.order...)
}

// Get はボーン姿勢を取得する。
func (s *SkeletonSnapshot) Get(name string) (BonePose, bool) {
	pose, exists := s.poses[name]
	return pose, exists
}

// Local はボーンのローカル変換を取得する。
func (s *SkeletonSnapshot) Local(name string) (Transform, bool) {
	pose, exists := s.poses[name]
	return pose.Local, exists
}

// World はボーンのワールド変換を取得する。
func (s *SkeletonSnapshot) World(name string) (Transform, bool) {
	pose, exists := s.poses[name]
	return pose.World, exists
}

// Supplied は取得時にボーン姿勢が明示指定されたか判定する。
func (s *SkeletonSnapshot) Supplied(name string) bool {
	_, exists := s.supplied[name]
	return exists
}
