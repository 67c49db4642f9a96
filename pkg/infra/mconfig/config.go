// 指示: miu200521358
// Package mconfig はCLIの設定ファイルを読み込み、各処理の設定へ変換する。
package mconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_retarget/pkg/usecase/minteractor"
	"gopkg.in/yaml.v3"
)

// AppConfig は設定ファイル全体を表す。
type AppConfig struct {
	Lang     string         `yaml:"lang"`
	Log      LogConfig      `yaml:"log"`
	Retarget RetargetConfig `yaml:"retarget"`
	Live     LiveConfig     `yaml:"live"`
}

// LogConfig はログ出力設定を表す。
type LogConfig struct {
	Level string `yaml:"level"`
}

// RetargetConfig はリターゲット設定を表す。
type RetargetConfig struct {
	PoseMode         string         `yaml:"poseMode"`
	AutoScale        bool           `yaml:"autoScale"`
	ScaleOverride    float64        `yaml:"scaleOverride"`
	NameMatching     bool           `yaml:"nameMatching"`
	HumanoidMatching bool           `yaml:"humanoidMatching"`
	Anchors          *AnchorsConfig `yaml:"anchors,omitempty"`
	Pairs            []PairConfig   `yaml:"pairs,omitempty"`
}

// AnchorsConfig は自動スケールの計測ボーンを表す。各要素は[開始, 終了]のボーン名。
type AnchorsConfig struct {
	Source []string `yaml:"source,flow,omitempty"`
	Target []string `yaml:"target,flow,omitempty"`
}

// PairConfig は明示ボーン対応を表す。
type PairConfig struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// LiveConfig はライブ適用設定を表す。
type LiveConfig struct {
	Actor       string            `yaml:"actor"`
	Object      string            `yaml:"object"`
	ResetOnStop bool              `yaml:"resetOnStop"`
	Scale       ScaleConfig       `yaml:"scale"`
	Sensors     []SensorConfig    `yaml:"sensors,omitempty"`
	Trackers    []TrackerConfig   `yaml:"trackers,omitempty"`
	Faces       map[string]string `yaml:"faces,omitempty"`
}

// ScaleConfig はシーンスケール設定を表す。
type ScaleConfig struct {
	SceneScale     float64 `yaml:"sceneScale"`
	CustomScale    float64 `yaml:"customScale"`
	UseCustomScale bool    `yaml:"useCustomScale"`
}

// SensorConfig はセンサーとボーンの対応を表す。
type SensorConfig struct {
	Sensor     string `yaml:"sensor"`
	Bone       string `yaml:"bone"`
	Positional bool   `yaml:"positional"`
	// Reference はxyzw順の基準回転。ReferenceDegreesと同時指定の場合はReferenceを優先する。
	Reference         []float64 `yaml:"reference,flow,omitempty"`
	ReferenceDegrees  []float64 `yaml:"referenceDegrees,flow,omitempty"`
	ReferencePosition []float64 `yaml:"referencePosition,flow,omitempty"`
}

// TrackerConfig はトラッカーとオブジェクトの対応を表す。
type TrackerConfig struct {
	Tracker string      `yaml:"tracker"`
	Object  string      `yaml:"object"`
	Scale   ScaleConfig `yaml:"scale"`
}

// Default は既定設定を返す。
func Default() *AppConfig {
	return &AppConfig{
		Lang: "ja",
		Log:  LogConfig{Level: "info"},
		Retarget: RetargetConfig{
			PoseMode:         string(model.POSE_MODE_REST),
			AutoScale:        true,
			NameMatching:     true,
			HumanoidMatching: true,
		},
		Live: LiveConfig{
			ResetOnStop: true,
			Scale:       ScaleConfig{SceneScale: 1},
		},
	}
}

// Load は設定ファイルを読み込み、未指定の項目へ既定値を残したまま返す。
// pathが空の場合は既定設定を返す。
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c *AppConfig) Validate() error {
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("ログレベルが不正です: %s", c.Log.Level)
	}
	if _, ok := model.ParsePoseMode(c.Retarget.PoseMode); !ok {
		return fmt.Errorf("姿勢種別が不正です: %s", c.Retarget.PoseMode)
	}
	if c.Retarget.ScaleOverride < 0 {
		return fmt.Errorf("倍率の上書き値が負です: %v", c.Retarget.ScaleOverride)
	}
	if c.Retarget.Anchors != nil {
		if err := validateAnchor("source", c.Retarget.Anchors.Source); err != nil {
			return err
		}
		if err := validateAnchor("target", c.Retarget.Anchors.Target); err != nil {
			return err
		}
	}
	for i, pair := range c.Retarget.Pairs {
		if strings.TrimSpace(pair.Source) == "" || strings.TrimSpace(pair.Target) == "" {
			return fmt.Errorf("ボーン対応 %d 件目が不完全です", i+1)
		}
	}
	for i, sensor := range c.Live.Sensors {
		if _, err := sensor.entry(); err != nil {
			return fmt.Errorf("センサー対応 %d 件目が不正です: %w", i+1, err)
		}
	}
	for i, tracker := range c.Live.Trackers {
		if strings.TrimSpace(tracker.Tracker) == "" || strings.TrimSpace(tracker.Object) == "" {
			return fmt.Errorf("トラッカー対応 %d 件目が不完全です", i+1)
		}
	}
	return nil
}

// validateAnchor は計測ボーン指定が空または2要素であることを検証する。
func validateAnchor(side string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	if len(values) != 2 {
		return fmt.Errorf("計測ボーン(%s)は2要素で指定してください: %v", side, values)
	}
	return nil
}

// ConfigureOptions はリターゲット設定をセッション設定へ変換する。
func (c RetargetConfig) ConfigureOptions() (minteractor.ConfigureOptions, error) {
	mode, ok := model.ParsePoseMode(c.PoseMode)
	if !ok {
		return minteractor.ConfigureOptions{}, fmt.Errorf("姿勢種別が不正です: %s", c.PoseMode)
	}
	opts := minteractor.ConfigureOptions{
		PoseMode:      mode,
		AutoScale:     c.AutoScale,
		ScaleOverride: c.ScaleOverride,
		Correspondence: minteractor.CorrespondenceOptions{
			NameMatching:     c.NameMatching,
			HumanoidMatching: c.HumanoidMatching,
		},
	}
	if c.Anchors != nil {
		anchors := &minteractor.ScaleAnchors{}
		if len(c.Anchors.Source) == 2 {
			anchors.Source = minteractor.AnchorPair{From: c.Anchors.Source[0], To: c.Anchors.Source[1]}
		}
		if len(c.Anchors.Target) == 2 {
			anchors.Target = minteractor.AnchorPair{From: c.Anchors.Target[0], To: c.Anchors.Target[1]}
		}
		opts.Anchors = anchors
	}
	return opts, nil
}

// BonePairs は明示ボーン対応を返す。
func (c RetargetConfig) BonePairs() []model.BoneCorrespondence {
	pairs := make([]model.BoneCorrespondence, 0, len(c.Pairs))
	for _, pair := range c.Pairs {
		pairs = append(pairs, model.BoneCorrespondence{
			Source: strings.TrimSpace(pair.Source),
			Target: strings.TrimSpace(pair.Target),
		})
	}
	return pairs
}

// LiveScale はシーンスケール設定を適用倍率設定へ変換する。
func (c ScaleConfig) LiveScale() minteractor.LiveScale {
	return minteractor.LiveScale{
		SceneScale:     c.SceneScale,
		CustomScale:    c.CustomScale,
		UseCustomScale: c.UseCustomScale,
	}
}

// entry はセンサー設定を対応エントリへ変換する。
func (c SensorConfig) entry() (model.SensorBindingEntry, error) {
	entry := model.SensorBindingEntry{
		Sensor:     strings.TrimSpace(c.Sensor),
		Bone:       strings.TrimSpace(c.Bone),
		Positional: c.Positional,
		Reference:  mmath.NewQuaternion(),
	}
	if entry.Sensor == "" || entry.Bone == "" {
		return entry, fmt.Errorf("センサー名とボーン名を指定してください")
	}
	switch {
	case len(c.Reference) > 0:
		q, err := mmath.NewQuaternionFromSlice(c.Reference)
		if err != nil {
			return entry, err
		}
		if q.Length() == 0 {
			return entry, fmt.Errorf("基準回転がゼロです: %s", entry.Sensor)
		}
		entry.Reference = q.Normalized()
	case len(c.ReferenceDegrees) > 0:
		if len(c.ReferenceDegrees) != 3 {
			return entry, fmt.Errorf("基準回転(度)は3要素で指定してください: %v", c.ReferenceDegrees)
		}
		entry.Reference = mmath.NewQuaternionFromDegrees(c.ReferenceDegrees[0], c.ReferenceDegrees[1], c.ReferenceDegrees[2])
	}
	if len(c.ReferencePosition) > 0 {
		v, err := mmath.NewVec3FromSlice(c.ReferencePosition)
		if err != nil {
			return entry, err
		}
		entry.ReferencePosition = v
	}
	return entry, nil
}

// SensorEntries はセンサー設定を対応エントリ一覧へ変換する。
func (c LiveConfig) SensorEntries() ([]model.SensorBindingEntry, error) {
	entries := make([]model.SensorBindingEntry, 0, len(c.Sensors))
	for i, sensor := range c.Sensors {
		entry, err := sensor.entry()
		if err != nil {
			return nil, fmt.Errorf("センサー対応 %d 件目が不正です: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// TrackerBindings はトラッカー設定を対応一覧へ変換する。
func (c LiveConfig) TrackerBindings() []minteractor.TrackerBinding {
	bindings := make([]minteractor.TrackerBinding, 0, len(c.Trackers))
	for _, tracker := range c.Trackers {
		bindings = append(bindings, minteractor.TrackerBinding{
			Object:  strings.TrimSpace(tracker.Object),
			Tracker: strings.TrimSpace(tracker.Tracker),
			Scale:   tracker.Scale.LiveScale(),
		})
	}
	return bindings
}

// FaceBindings はフェイスシェイプ設定を対象オブジェクト向けの対応一覧へ変換する。
func (c LiveConfig) FaceBindings(object string) []minteractor.FaceBinding {
	if len(c.Faces) == 0 {
		return nil
	}
	shapes := make(map[string]string, len(c.Faces))
	for shape, key := range c.Faces {
		shapes[shape] = key
	}
	return []minteractor.FaceBinding{{Object: object, Actor: c.Actor, Shapes: shapes}}
}
