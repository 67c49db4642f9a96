// 指示: miu200521358
package minteractor

import (
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// CorrespondenceOptions はボーン対応の自動補完設定を表す。
type CorrespondenceOptions struct {
	// NameMatching は大文字小文字を無視した名前一致で補完するかを表す。
	NameMatching bool
	// HumanoidMatching はhumanoid名辞書経由で補完するかを表す。
	HumanoidMatching bool
}

// correspondenceBuilder は対応表構築中の割り当て状況を表す。
type correspondenceBuilder struct {
	source  *model.Skeleton
	target  *model.Skeleton
	entries []model.CorrespondenceEntry
	mapped  map[string]struct{}
	claimed map[string]struct{}
	skipped []model.Diagnostic
}

// BuildCorrespondenceTable は明示対応を最優先に、未対応ボーンを名前・humanoid名で補完した対応表を構築する。
// 各補完は未対応の元ボーンと未割り当ての先ボーンの集合のみを対象とする。
func BuildCorrespondenceTable(
	source *model.Skeleton,
	target *model.Skeleton,
	explicitPairs []model.BoneCorrespondence,
	opts CorrespondenceOptions,
) (*model.BoneCorrespondenceTable, error) {
	table, _, err := buildCorrespondenceTable(source, target, explicitPairs, opts)
	return table, err
}

// buildCorrespondenceTable は対応表と補完見送りの診断を返す。
func buildCorrespondenceTable(
	source *model.Skeleton,
	target *model.Skeleton,
	explicitPairs []model.BoneCorrespondence,
	opts CorrespondenceOptions,
) (*model.BoneCorrespondenceTable, []model.Diagnostic, error) {
	if source == nil {
		return nil, nil, merrors.NewInvalidReferenceError("source")
	}
	if target == nil {
		return nil, nil, merrors.NewInvalidReferenceError("target")
	}

	builder := &correspondenceBuilder{
		source:  source,
		target:  target,
		mapped:  map[string]struct{}{},
		claimed: map[string]struct{}{},
	}
	if err := builder.addExplicit(explicitPairs); err != nil {
		return nil, nil, err
	}
	if opts.NameMatching {
		builder.matchByName()
	}
	if opts.HumanoidMatching {
		builder.matchByHumanoid()
	}

	table, err := model.NewBoneCorrespondenceTable(source.Name(), target.Name(), builder.entries)
	if err != nil {
		return nil, nil, err
	}
	logRetargetDebug(
		"ボーン対応構築完了: source=%s target=%s pairs=%d explicit=%d",
		source.Name(),
		target.Name(),
		table.Len(),
		len(explicitPairs),
	)
	return table, builder.skipped, nil
}

// addExplicit は明示対応を検証して登録する。
func (b *correspondenceBuilder) addExplicit(pairs []model.BoneCorrespondence) error {
	explicit := make([]model.CorrespondenceEntry, 0, len(pairs))
	for _, pair := range pairs {
		sourceName := strings.TrimSpace(pair.Source)
		targetName := strings.TrimSpace(pair.Target)
		if !b.source.Has(sourceName) {
			return merrors.NewUnknownBoneError(b.source.Name(), sourceName)
		}
		if !b.target.Has(targetName) {
			return merrors.NewUnknownBoneError(b.target.Name(), targetName)
		}
		explicit = append(explicit, model.CorrespondenceEntry{
			BoneCorrespondence: model.BoneCorrespondence{Source: sourceName, Target: targetName},
			Origin:             model.MATCH_ORIGIN_EXPLICIT,
		})
	}
	// 明示対応同士の競合はここで確定させる
	validated, err := model.NewBoneCorrespondenceTable(b.source.Name(), b.target.Name(), explicit)
	if err != nil {
		return err
	}
	for _, pair := range validated.Pairs() {
		b.add(pair, model.MATCH_ORIGIN_EXPLICIT)
	}
	return nil
}

// add は対応を登録し、元ボーンと先ボーンを使用済みにする。
func (b *correspondenceBuilder) add(pair model.BoneCorrespondence, origin model.MatchOrigin) {
	b.entries = append(b.entries, model.CorrespondenceEntry{BoneCorrespondence: pair, Origin: origin})
	b.mapped[pair.Source] = struct{}{}
	b.claimed[pair.Target] = struct{}{}
}

// isMapped は元ボーンが対応済みか判定する。
func (b *correspondenceBuilder) isMapped(source string) bool {
	_, exists := b.mapped[source]
	return exists
}

// isClaimed は先ボーンが割り当て済みか判定する。
func (b *correspondenceBuilder) isClaimed(target string) bool {
	_, exists := b.claimed[target]
	return exists
}

// matchByName は大文字小文字を無視した完全一致で補完する。候補が一意でない名前は見送る。
func (b *correspondenceBuilder) matchByName() {
	b.matchByKey(model.MATCH_ORIGIN_NAME, func(skeleton *model.Skeleton, bone string) (string, bool) {
		return strings.ToLower(bone), true
	})
}

// matchByHumanoid はhumanoid名辞書で補完する。候補が一意でないhumanoid名は見送る。
func (b *correspondenceBuilder) matchByHumanoid() {
	b.matchByKey(model.MATCH_ORIGIN_HUMANOID, func(skeleton *model.Skeleton, bone string) (string, bool) {
		humanoid, ok := skeleton.HumanoidName(bone)
		return string(humanoid), ok
	})
}

// matchByKey は照合キーが元・先で一意に一致するボーン同士を対応付ける。
func (b *correspondenceBuilder) matchByKey(
	origin model.MatchOrigin,
	keyOf func(skeleton *model.Skeleton, bone string) (string, bool),
) {
	targetsByKey := map[string][]string{}
	for _, targetName := range b.target.BoneNames() {
		if b.isClaimed(targetName) {
			continue
		}
		if key, ok := keyOf(b.target, targetName); ok {
			targetsByKey[key] = append(targetsByKey[key], targetName)
		}
	}
	sourcesByKey := map[string][]string{}
	sourceOrder := []string{}
	for _, sourceName := range b.source.BoneNames() {
		if b.isMapped(sourceName) {
			continue
		}
		key, ok := keyOf(b.source, sourceName)
		if !ok {
			continue
		}
		if _, exists := sourcesByKey[key]; !exists {
			sourceOrder = append(sourceOrder, key)
		}
		sourcesByKey[key] = append(sourcesByKey[key], sourceName)
	}

	for _, key := range sourceOrder {
		sources := sourcesByKey[key]
		targets := targetsByKey[key]
		if len(targets) == 0 {
			continue
		}
		if len(sources) != 1 || len(targets) != 1 {
			b.skipped = append(b.skipped, model.Diagnostic{
				ID:      model.DiagnosticAmbiguousName,
				Subject: string(origin) + ":" + key,
			})
			continue
		}
		b.add(model.BoneCorrespondence{Source: sources[0], Target: targets[0]}, origin)
	}
}
