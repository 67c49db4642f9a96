// 指示: miu200521358
package model

import (
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
)

// SensorBindingEntry はスーツセンサーと先ボーンの1対応を表す。
type SensorBindingEntry struct {
	Sensor string
	Bone   string
	// Reference はキャリブレーション時に確定したセンサー基準回転を表す。ゼロ値は単位回転として扱う。
	Reference mmath.Quaternion
	// ReferencePosition はキャリブレーション時のセンサー基準位置を表す。
	ReferencePosition mmath.Vec3
	// Positional は平行移動も反映するセンサーか(腰)を表す。
	Positional bool
}

// SensorBindingTable は検証済みのセンサー対応表を表す。生成後は変更されない。
type SensorBindingTable struct {
	name    string
	order   []string
	entries map[string]SensorBindingEntry
	bones   map[string]string
}

// NewSensorBindingTable はセンサー対応一覧を検証して対応表を生成する。
// センサーの重複、または同一ボーンへの複数割り当てはCorrespondenceConflictErrorとなる。
func NewSensorBindingTable(name string, entries []SensorBindingEntry) (*SensorBindingTable, error) {
	table := &SensorBindingTable{
		name:    name,
		order:   make([]string, 0, len(entries)),
		entries: make(map[string]SensorBindingEntry, len(entries)),
		bones:   make(map[string]string, len(entries)),
	}
	for _, entry := range entries {
		entry.Sensor = strings.TrimSpace(entry.Sensor)
		entry.Bone = strings.TrimSpace(entry.Bone)
		if entry.Sensor == "" || entry.Bone == "" {
			return nil, merrors.NewUnknownBoneError(name, entry.Sensor+"->"+entry.Bone)
		}
		if existing, exists := table.entries[entry.Sensor]; exists {
			return nil, merrors.NewCorrespondenceConflictError(existing.Bone, entry.Sensor)
		}
		if existingSensor, exists := table.bones[entry.Bone]; exists {
			return nil, merrors.NewCorrespondenceConflictError(entry.Bone, existingSensor, entry.Sensor)
		}
		if entry.Reference.Length() == 0 {
			entry.Reference = mmath.NewQuaternion()
		} else {
			entry.Reference = entry.Reference.Normalized()
		}
		table.order = append(table.order, entry.Sensor)
		table.entries[entry.Sensor] = entry
		table.bones[entry.Bone] = entry.Sensor
	}
	return table, nil
}

// Name は対応表の名称(アクター名)を返す。
func (t *SensorBindingTable) Name() string { return t.name }

// Len は対応数を返す。
func (t *SensorBindingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Entry はセンサーの対応を取得する。
func (t *SensorBindingTable) Entry(sensor string) (SensorBindingEntry, bool) {
	if t == nil {
		return SensorBindingEntry{}, false
	}
	entry, exists := t.entries[sensor]
	return entry, exists
}

// Sensor はボーンに割り当てられたセンサーを取得する。
func (t *SensorBindingTable) Sensor(bone string) (string, bool) {
	if t == nil {
		return "", false
	}
	sensor, exists := t.bones[bone]
	return sensor, exists
}

// Entries は登録順の対応一覧を返す。
func (t *SensorBindingTable) Entries() []SensorBindingEntry {
	if t == nil {
		return nil
	}
	entries := make([]SensorBindingEntry, 0, len(t.order))
	for _, sensor := range t.order {
		entries = append(entries, t.entries[sensor])
	}
	return entries
}

// Calibrated は基準回転と基準位置を差し替えた新しい対応表を返す。
// 指定の無いセンサーは既存の基準を引き継ぐ。
func (t *SensorBindingTable) Calibrated(references map[string]Transform) (*SensorBindingTable, error) {
	entries := t.Entries()
	for i, entry := range entries {
		reference, exists := references[entry.Sensor]
		if !exists {
			continue
		}
		entries[i].Reference = reference.EffectiveRotation()
		entries[i].ReferencePosition = reference.Translation
	}
	for sensor := range references {
		if _, exists := t.entries[sensor]; !exists {
			return nil, merrors.NewUnknownBoneError(t.name, sensor)
		}
	}
	return NewSensorBindingTable(t.name, entries)
}
