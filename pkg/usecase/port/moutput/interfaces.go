// 指示: miu200521358
package moutput

import "github.com/miu200521358/mu_retarget/pkg/domain/model"

// ISkeletonReader は骨格定義の読み込み契約を表す。
type ISkeletonReader interface {
	// CanLoad は読み込み可否を判定する。
	CanLoad(path string) bool
	// Load は骨格定義を読み込む。
	Load(path string) (*model.SkeletonDesc, error)
}

// IClipReader は元骨格アニメーションの読み込み契約を表す。
type IClipReader interface {
	CanLoad(path string) bool
	LoadClip(path string) (*model.Clip, error)
}

// IPoseWriter は先骨格の出力フレーム列の保存契約を表す。
type IPoseWriter interface {
	SavePose(path string, stream *model.PoseStream) error
}

// ILivePacketReader はライブ受信データ列の読み込み契約を表す。
type ILivePacketReader interface {
	LoadPackets(path string) ([]model.LivePacket, error)
}

// ISkeletonRef はホストから借用する骨格参照を表す。
// ホスト側でオブジェクトが削除された場合、IsValidは偽を返す。
type ISkeletonRef interface {
	Skeleton() *model.Skeleton
	// Pose はホスト上の現在姿勢(ローカル変換)を返す。
	Pose() map[string]model.Transform
	IsValid() bool
}
