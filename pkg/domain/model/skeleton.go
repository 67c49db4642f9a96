// 指示: miu200521358
package model

import (
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/tiendc/go-deepcopy"
)

const (
	resolveStateVisiting = 1
	resolveStateResolved = 2
)

// BoneDesc はホストから渡されるボーン定義を表す。
type BoneDesc struct {
	Name   string
	Parent string
	Rest   Transform
}

// SkeletonDesc はホストから渡される骨格定義を表す。
type SkeletonDesc struct {
	Name   string
	Object Transform
	Bones  []BoneDesc
	// Aliases はボーン名からhumanoid名への対応を保持する。
	Aliases map[string]string
}

// Bone は骨格内の1ボーンを表す。
type Bone struct {
	index      int
	name       string
	parentName string
	restLocal  Transform
	restWorld  Transform
}

// Index は骨格内の並び順を返す。
func (b *Bone) Index() int { return b.index }

// Name はボーン名を返す。
func (b *Bone) Name() string { return b.name }

// ParentName は親ボーン名を返す。ルートの場合は空文字。
func (b *Bone) ParentName() string { return b.parentName }

// IsRoot はルートボーンか判定する。
func (b *Bone) IsRoot() bool { return b.parentName == "" }

// RestLocal はレストポーズのローカル変換を返す。
func (b *Bone) RestLocal() Transform { return b.restLocal }

// RestWorld はレストポーズのワールド変換を返す。
func (b *Bone) RestWorld() Transform { return b.restWorld }

// Skeleton はボーン階層を表す。構築後は変更されない。
type Skeleton struct {
	name      string
	object    Transform
	bones     []*Bone
	byName    map[string]*Bone
	children  map[string][]string
	roots     []string
	aliases   map[string]string
	depthByID map[string]int
}

// NewSkeleton は骨格定義を検証して骨格を構築する。
// 定義は複製して保持するため、呼び出し後に定義を変更しても骨格へは影響しない。
func NewSkeleton(desc *SkeletonDesc) (*Skeleton, error) {
	if desc == nil {
		return nil, merrors.NewSkeletonInvalidError("", "", "骨格定義が未設定です")
	}
	copied := SkeletonDesc{}
	if err := deepcopy.Copy(&copied, desc); err != nil {
		return nil, merrors.NewSkeletonInvalidError(desc.Name, "", "骨格定義の複製に失敗しました: "+err.Error())
	}
	if len(copied.Bones) == 0 {
		return nil, merrors.NewSkeletonInvalidError(copied.Name, "", "ボーンがありません")
	}

	skeleton := &Skeleton{
		name:      copied.Name,
		object:    normalizeTransform(copied.Object),
		bones:     make([]*Bone, 0, len(copied.Bones)),
		byName:    make(map[string]*Bone, len(copied.Bones)),
		children:  map[string][]string{},
		aliases:   map[string]string{},
		depthByID: map[string]int{},
	}

	for i, boneDesc := range copied.Bones {
		name := strings.TrimSpace(boneDesc.Name)
		if name == "" {
			return nil, merrors.NewSkeletonInvalidError(copied.Name, "", "ボーン名が空です")
		}
		if _, exists := skeleton.byName[name]; exists {
			return nil, merrors.NewSkeletonInvalidError(copied.Name, name, "ボーン名が重複しています")
		}
		bone := &Bone{
			index:      i,
			name:       name,
			parentName: strings.TrimSpace(boneDesc.Parent),
			restLocal:  normalizeTransform(boneDesc.Rest),
		}
		skeleton.bones = append(skeleton.bones, bone)
		skeleton.byName[name] = bone
	}

	for _, bone := range skeleton.bones {
		if bone.IsRoot() {
			skeleton.roots = append(skeleton.roots, bone.name)
			continue
		}
		if bone.parentName == bone.name {
			return nil, merrors.NewSkeletonInvalidError(copied.Name, bone.name, "自身を親に指定しています")
		}
		if _, exists := skeleton.byName[bone.parentName]; !exists {
			return nil, merrors.NewUnknownBoneError(copied.Name, bone.parentName)
		}
		skeleton.children[bone.parentName] = append(skeleton.children[bone.parentName], bone.name)
	}
	if len(skeleton.roots) == 0 {
		return nil, merrors.NewSkeletonInvalidError(copied.Name, "", "ルートボーンがありません")
	}

	restLocals := make(map[string]Transform, len(skeleton.bones))
	for _, bone := range skeleton.bones {
		restLocals[bone.name] = bone.restLocal
	}
	worlds, err := skeleton.resolveWorldTransforms(restLocals)
	if err != nil {
		return nil, err
	}
	for _, bone := range skeleton.bones {
		bone.restWorld = worlds[bone.name]
		depth := 0
		for parent := bone.parentName; parent != ""; parent = skeleton.byName[parent].parentName {
			depth++
		}
		skeleton.depthByID[bone.name] = depth
	}

	for boneName, alias := range copied.Aliases {
		if _, exists := skeleton.byName[boneName]; !exists {
			continue
		}
		if trimmed := strings.TrimSpace(alias); trimmed != "" {
			skeleton.aliases[boneName] = trimmed
		}
	}

	return skeleton, nil
}

// normalizeTransform はゼロ値の回転・スケールを恒等値へ補正する。
func normalizeTransform(t Transform) Transform {
	return Transform{
		Translation: t.Translation,
		Rotation:    t.EffectiveRotation().Normalized(),
		Scale:       t.EffectiveScale(),
	}
}

// resolveWorldTransforms はローカル変換からワールド変換を階層順に解決する。
func (s *Skeleton) resolveWorldTransforms(locals map[string]Transform) (map[string]Transform, error) {
	worlds := make(map[string]Transform, len(s.bones))
	state := make(map[string]int, len(s.bones))
	for _, bone := range s.bones {
		if err := s.resolveWorldTransform(bone.name, locals, state, worlds); err != nil {
			return nil, err
		}
	}
	return worlds, nil
}

// resolveWorldTransform はボーンのワールド変換を再帰的に解決する。
func (s *Skeleton) resolveWorldTransform(
	boneName string,
	locals map[string]Transform,
	state map[string]int,
	worlds map[string]Transform,
) error {
	switch state[boneName] {
	case resolveStateResolved:
		return nil
	case resolveStateVisiting:
		return merrors.NewSkeletonInvalidError(s.name, boneName, "親子関係が循環しています")
	}
	state[boneName] = resolveStateVisiting

	bone := s.byName[boneName]
	local, exists := locals[boneName]
	if !exists {
		local = bone.restLocal
	}
	if bone.IsRoot() {
		worlds[boneName] = local
	} else {
		if err := s.resolveWorldTransform(bone.parentName, locals, state, worlds); err != nil {
			return err
		}
		worlds[boneName] = worlds[bone.parentName].Compose(local)
	}
	state[boneName] = resolveStateResolved
	return nil
}

// Name は骨格名を返す。
func (s *Skeleton) Name() string { return s.name }

// Object はオブジェクト空間の変換を返す。
func (s *Skeleton) Object() Transform { return s.object }

// Len はボーン数を返す。
func (s *Skeleton) Len() int { return len(s.bones) }

// Bones は定義順のボーン一覧を返す。
func (s *Skeleton) Bones() []*Bone {
	return append([]*Bone(nil), s.bones...)
}

// BoneNames は定義順のボーン名一覧を返す。
func (s *Skeleton) BoneNames() []string {
	names := make([]string, 0, len(s.bones))
	for _, bone := range s.bones {
		names = append(names, bone.name)
	}
	return names
}

// Bone はボーン名からボーンを取得する。
func (s *Skeleton) Bone(name string) (*Bone, bool) {
	bone, exists := s.byName[name]
	return bone, exists
}

// Has はボーンが存在するか判定する。
func (s *Skeleton) Has(name string) bool {
	_, exists := s.byName[name]
	return exists
}

// Roots はルートボーン名一覧を返す。
func (s *Skeleton) Roots() []string {
	return append([]string(nil), s.roots...)
}

// Children は子ボーン名一覧を返す。
func (s *Skeleton) Children(name string) []string {
	return append([]string(nil), s.children[name]...)
}

// Depth はルートからの階層深度を返す。
func (s *Skeleton) Depth(name string) int {
	return s.depthByID[name]
}

// Alias はボーンに設定されたhumanoid名を返す。
func (s *Skeleton) Alias(name string) (string, bool) {
	alias, exists := s.aliases[name]
	return alias, exists
}

// Aliases はボーン名からhumanoid名への対応の複製を返す。
func (s *Skeleton) Aliases() map[string]string {
	copied := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		copied[k] = v
	}
	return copied
}

// Descendants は指定ボーン配下のボーン名を深さ優先・定義順で返す。
func (s *Skeleton) Descendants(name string) []string {
	descendants := []string{}
	stack := reversedNames(s.children[name])
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		descendants = append(descendants, current)
		stack = append(stack, reversedNames(s.children[current])...)
	}
	return descendants
}

// reversedNames は逆順に並べた名前一覧を返す。
func reversedNames(names []string) []string {
	reversed := make([]string, len(names))
	for i, name := range names {
		reversed[len(names)-1-i] = name
	}
	return reversed
}

// WorldTransforms はローカル変換群からワールド変換を導出する。未指定ボーンはレストを使う。
func (s *Skeleton) WorldTransforms(locals map[string]Transform) map[string]Transform {
	normalized := make(map[string]Transform, len(locals))
	for name, local := range locals {
		normalized[name] = normalizeTransform(local)
	}
	// 構築時に循環は排除済みのためエラーにならない
	worlds, _ := s.resolveWorldTransforms(normalized)
	return worlds
}

// WorldMatrix はレストポーズのボーンをオブジェクト空間込みで行列化して返す。
func (s *Skeleton) WorldMatrix(name string) (mmath.Mat4, bool) {
	bone, exists := s.byName[name]
	if !exists {
		return mmath.NewMat4(), false
	}
	return s.object.ToMat4().Muled(bone.restWorld.ToMat4()), true
}

// Scaled は全ボーンの平行移動をk倍した骨格定義を返す。
func (d *SkeletonDesc) Scaled(k float64) *SkeletonDesc {
	copied := &SkeletonDesc{}
	if err := deepcopy.Copy(copied, d); err != nil {
		return nil
	}
	for i := range copied.Bones {
		copied.Bones[i].Rest.Translation = copied.Bones[i].Rest.Translation.MuledScalar(k)
	}
	return copied
}
