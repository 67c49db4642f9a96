// 指示: miu200521358
package model

import "github.com/miu200521358/mu_retarget/pkg/domain/mmath"

// SensorReading はスーツの1センサーが報告した姿勢を表す。
type SensorReading struct {
	Sensor      string
	Translation mmath.Vec3
	Rotation    mmath.Quaternion
}

// ActorPacket は1アクター分の受信データを表す。
type ActorPacket struct {
	Name    string
	Sensors []SensorReading
	// Faces はフェイスシェイプ名から重みへの対応を保持する。
	Faces map[string]float64
}

// TrackerReading はトラッカー(小道具)の受信姿勢を表す。
type TrackerReading struct {
	ID          string
	Translation mmath.Vec3
	Rotation    mmath.Quaternion
}

// LivePacket は1受信分のライブデータを表す。
type LivePacket struct {
	Timestamp float64
	Actors    []ActorPacket
	Trackers  []TrackerReading
}
