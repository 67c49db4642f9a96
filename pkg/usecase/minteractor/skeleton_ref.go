// 指示: miu200521358
package minteractor

import (
	"sync"

	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// SkeletonRef はホストオブジェクトを持たない呼び出し元向けの骨格参照を表す。
type SkeletonRef struct {
	mu       sync.RWMutex
	skeleton *model.Skeleton
	pose     map[string]model.Transform
	valid    bool
}

// NewSkeletonRef は骨格と現在姿勢から有効な参照を生成する。
func NewSkeletonRef(skeleton *model.Skeleton, pose map[string]model.Transform) *SkeletonRef {
	return &SkeletonRef{skeleton: skeleton, pose: copyTransforms(pose), valid: skeleton != nil}
}

// Skeleton は参照先の骨格を返す。
func (r *SkeletonRef) Skeleton() *model.Skeleton {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skeleton
}

// Pose は現在姿勢の複製を返す。
func (r *SkeletonRef) Pose() map[string]model.Transform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyTransforms(r.pose)
}

// SetPose は現在姿勢を差し替える。
func (r *SkeletonRef) SetPose(pose map[string]model.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pose = copyTransforms(pose)
}

// IsValid は参照が有効か判定する。
func (r *SkeletonRef) IsValid() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.valid
}

// Invalidate はホスト側での削除を模して参照を無効化する。
func (r *SkeletonRef) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.valid = false
}

// copyTransforms は変換マップの複製を返す。
func copyTransforms(src map[string]model.Transform) map[string]model.Transform {
	if src == nil {
		return nil
	}
	copied := make(map[string]model.Transform, len(src))
	for name, transform := range src {
		copied[name] = transform
	}
	return copied
}
