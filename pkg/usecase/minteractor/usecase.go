// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_retarget/pkg/usecase/port/moutput"
)

// RetargetUsecaseDeps はリターゲットユースケースの依存を表す。
type RetargetUsecaseDeps struct {
	SkeletonReader moutput.ISkeletonReader
	ClipReader     moutput.IClipReader
	PoseWriter     moutput.IPoseWriter
	PacketReader   moutput.ILivePacketReader
}

// RetargetUsecase はファイル入出力を伴うリターゲット処理をまとめたユースケースを表す。
type RetargetUsecase struct {
	skeletonReader moutput.ISkeletonReader
	clipReader     moutput.IClipReader
	poseWriter     moutput.IPoseWriter
	packetReader   moutput.ILivePacketReader
}

// NewRetargetUsecase はリターゲットユースケースを生成する。
func NewRetargetUsecase(deps RetargetUsecaseDeps) *RetargetUsecase {
	return &RetargetUsecase{
		skeletonReader: deps.SkeletonReader,
		clipReader:     deps.ClipReader,
		poseWriter:     deps.PoseWriter,
		packetReader:   deps.PacketReader,
	}
}

// LoadSkeleton は骨格定義を読み込み、検証済みの骨格を返す。
func (uc *RetargetUsecase) LoadSkeleton(rep moutput.ISkeletonReader, path string) (*model.Skeleton, error) {
	repo := rep
	if repo == nil {
		repo = uc.skeletonReader
	}
	if repo == nil {
		return nil, fmt.Errorf("骨格読み込みリポジトリが設定されていません")
	}
	if !repo.CanLoad(path) {
		return nil, fmt.Errorf("骨格ファイル形式が未対応です: %s", path)
	}
	desc, err := repo.Load(path)
	if err != nil {
		return nil, err
	}
	return model.NewSkeleton(desc)
}

// LoadClip はアニメーションを読み込む。
func (uc *RetargetUsecase) LoadClip(rep moutput.IClipReader, path string) (*model.Clip, error) {
	repo := rep
	if repo == nil {
		repo = uc.clipReader
	}
	if repo == nil {
		return nil, fmt.Errorf("アニメーション読み込みリポジトリが設定されていません")
	}
	if !repo.CanLoad(path) {
		return nil, fmt.Errorf("アニメーションファイル形式が未対応です: %s", path)
	}
	clip, err := repo.LoadClip(path)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, fmt.Errorf("アニメーション読み込み結果が空です")
	}
	return clip, nil
}

// SavePose は出力フレーム列を保存する。
func (uc *RetargetUsecase) SavePose(rep moutput.IPoseWriter, path string, stream *model.PoseStream) error {
	writer := rep
	if writer == nil {
		writer = uc.poseWriter
	}
	if writer == nil {
		return fmt.Errorf("姿勢保存リポジトリが設定されていません")
	}
	if stream == nil {
		return fmt.Errorf("保存対象の姿勢が未設定です")
	}
	return writer.SavePose(path, stream)
}
