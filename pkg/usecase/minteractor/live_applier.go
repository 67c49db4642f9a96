// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// LiveScale はオブジェクト単位のシーンスケール設定を表す。
type LiveScale struct {
	SceneScale     float64
	CustomScale    float64
	UseCustomScale bool
}

// Effective は適用する倍率を返す。カスタムスケール有効時はシーンスケールより優先する。
// 未設定(0以下)の場合は等倍を返す。
func (s LiveScale) Effective() float64 {
	if s.UseCustomScale && s.CustomScale > 0 {
		return s.CustomScale
	}
	if s.SceneScale > 0 {
		return s.SceneScale
	}
	return 1.0
}

// LiveBoneOutput は1センサー分の適用結果を表す。
type LiveBoneOutput struct {
	Sensor string
	Bone   string
	Local  model.Transform
}

// LiveFrameApplier はスーツのセンサー姿勢を先ボーンへ直接適用する。
// 呼び出し間で状態を持たないため並行に利用できる。
type LiveFrameApplier struct {
	bindings *model.SensorBindingTable
	scale    LiveScale
}

// NewLiveFrameApplier はセンサー対応表とスケール設定からLiveFrameApplierを生成する。
func NewLiveFrameApplier(bindings *model.SensorBindingTable, scale LiveScale) (*LiveFrameApplier, error) {
	if bindings == nil {
		return nil, fmt.Errorf("センサー対応表が設定されていません")
	}
	return &LiveFrameApplier{bindings: bindings, scale: scale}, nil
}

// Bindings はセンサー対応表を返す。
func (a *LiveFrameApplier) Bindings() *model.SensorBindingTable { return a.bindings }

// Scale は適用倍率を返す。
func (a *LiveFrameApplier) Scale() float64 { return a.scale.Effective() }

// Apply はセンサー姿勢を基準回転からの差分として先ボーンのレスト変換へ適用する。
// 平行移動はPositional指定のセンサーのみ倍率を掛けて反映する。
func (a *LiveFrameApplier) Apply(reading model.SensorReading, targetRest *model.SkeletonSnapshot) (LiveBoneOutput, error) {
	entry, ok := a.bindings.Entry(reading.Sensor)
	if !ok {
		return LiveBoneOutput{}, merrors.NewUnknownBoneError(a.bindings.Name(), reading.Sensor)
	}
	rest, ok := targetRest.Local(entry.Bone)
	if !ok {
		return LiveBoneOutput{}, merrors.NewUnknownBoneError(targetRest.SkeletonName(), entry.Bone)
	}

	reference := model.NewTransformTR(entry.ReferencePosition, entry.Reference)
	current := model.NewTransformTR(entry.ReferencePosition, reading.Rotation)
	if entry.Positional {
		current.Translation = reading.Translation
	}
	return LiveBoneOutput{
		Sensor: entry.Sensor,
		Bone:   entry.Bone,
		Local:  SolveBone(reference, current, rest, a.scale.Effective()),
	}, nil
}

// ApplyAll は複数センサーを適用する。未知センサーなどの失敗はエラー一覧へ積み、残りの適用を続ける。
func (a *LiveFrameApplier) ApplyAll(readings []model.SensorReading, targetRest *model.SkeletonSnapshot) ([]LiveBoneOutput, []error) {
	outputs := make([]LiveBoneOutput, 0, len(readings))
	var errs []error
	for _, reading := range readings {
		output, err := a.Apply(reading, targetRest)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		outputs = append(outputs, output)
	}
	return outputs, errs
}
