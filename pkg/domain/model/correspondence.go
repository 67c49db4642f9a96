// 指示: miu200521358
package model

import "github.com/miu200521358/mu_retarget/pkg/domain/merrors"

// MatchOrigin はボーン対応の決定方法を表す。
type MatchOrigin string

const (
	// MATCH_ORIGIN_EXPLICIT はユーザー指定の対応を表す。
	MATCH_ORIGIN_EXPLICIT MatchOrigin = "explicit"
	// MATCH_ORIGIN_NAME は名前一致による対応を表す。
	MATCH_ORIGIN_NAME MatchOrigin = "name"
	// MATCH_ORIGIN_HUMANOID はhumanoid名経由の対応を表す。
	MATCH_ORIGIN_HUMANOID MatchOrigin = "humanoid"
)

// BoneCorrespondence は元ボーンと先ボーンの1対応を表す。
type BoneCorrespondence struct {
	Source string
	Target string
}

// CorrespondenceEntry は決定方法付きのボーン対応を表す。
type CorrespondenceEntry struct {
	BoneCorrespondence
	Origin MatchOrigin
}

// BoneCorrespondenceTable は検証済みのボーン対応表を表す。生成後は変更されない。
type BoneCorrespondenceTable struct {
	order    []string
	targets  map[string]string
	sources  map[string]string
	origins  map[string]MatchOrigin
	skeleton [2]string
}

// NewBoneCorrespondenceTable は対応一覧を検証して対応表を生成する。
// 元ボーンの重複、または同一先ボーンへの複数割り当てはCorrespondenceConflictErrorとなる。
func NewBoneCorrespondenceTable(
	sourceSkeleton string,
	targetSkeleton string,
	entries []CorrespondenceEntry,
) (*BoneCorrespondenceTable, error) {
	table := &BoneCorrespondenceTable{
		order:    make([]string, 0, len(entries)),
		targets:  make(map[string]string, len(entries)),
		sources:  make(map[string]string, len(entries)),
		origins:  make(map[string]MatchOrigin, len(entries)),
		skeleton: [2]string{sourceSkeleton, targetSkeleton},
	}
	for _, entry := range entries {
		if existingTarget, exists := table.targets[entry.Source]; exists {
			if existingTarget == entry.Target {
				continue
			}
			return nil, merrors.NewCorrespondenceConflictError(existingTarget, entry.Source)
		}
		if existingSource, exists := table.sources[entry.Target]; exists {
			return nil, merrors.NewCorrespondenceConflictError(entry.Target, existingSource, entry.Source)
		}
		table.order = append(table.order, entry.Source)
		table.targets[entry.Source] = entry.Target
		table.sources[entry.Target] = entry.Source
		table.origins[entry.Source] = entry.Origin
	}
	return table, nil
}

// SourceSkeleton は構築元の元骨格名を返す。
func (t *BoneCorrespondenceTable) SourceSkeleton() string { return t.skeleton[0] }

// TargetSkeleton は構築元の先骨格名を返す。
func (t *BoneCorrespondenceTable) TargetSkeleton() string { return t.skeleton[1] }

// Len は対応数を返す。
func (t *BoneCorrespondenceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Target は元ボーンに対応する先ボーンを返す。
func (t *BoneCorrespondenceTable) Target(source string) (string, bool) {
	if t == nil {
		return "", false
	}
	target, exists := t.targets[source]
	return target, exists
}

// Source は先ボーンに対応する元ボーンを返す。
func (t *BoneCorrespondenceTable) Source(target string) (string, bool) {
	if t == nil {
		return "", false
	}
	source, exists := t.sources[target]
	return source, exists
}

// Origin は対応の決定方法を返す。
func (t *BoneCorrespondenceTable) Origin(source string) (MatchOrigin, bool) {
	if t == nil {
		return "", false
	}
	origin, exists := t.origins[source]
	return origin, exists
}

// Pairs は登録順の対応一覧を返す。
func (t *BoneCorrespondenceTable) Pairs() []BoneCorrespondence {
	if t == nil {
		return nil
	}
	pairs := make([]BoneCorrespondence, 0, len(t.order))
	for _, source := range t.order {
		pairs = append(pairs, BoneCorrespondence{Source: source, Target: t.targets[source]})
	}
	return pairs
}
