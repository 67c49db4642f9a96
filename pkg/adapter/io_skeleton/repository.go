// 指示: miu200521358
// Package io_skeleton は拡張子に応じて骨格読み込み先を振り分ける。
package io_skeleton

import (
	"github.com/miu200521358/mu_retarget/pkg/adapter/io_skeleton/gltf"
	"github.com/miu200521358/mu_retarget/pkg/adapter/io_skeleton/yamlrig"
	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_retarget/pkg/usecase/port/moutput"
)

// SkeletonRepository は複数形式の骨格読み込みをまとめたリポジトリを表す。
type SkeletonRepository struct {
	readers []moutput.ISkeletonReader
}

// NewSkeletonRepository はglTF系とYAMLの読み込みを持つリポジトリを生成する。
func NewSkeletonRepository() *SkeletonRepository {
	return NewSkeletonRepositoryWith(gltf.NewGltfRepository(), yamlrig.NewYamlRigRepository())
}

// NewSkeletonRepositoryWith は指定した読み込みを優先順に持つリポジトリを生成する。
func NewSkeletonRepositoryWith(readers ...moutput.ISkeletonReader) *SkeletonRepository {
	return &SkeletonRepository{readers: readers}
}

// CanLoad はいずれかの読み込みが対応しているか判定する。
func (r *SkeletonRepository) CanLoad(path string) bool {
	return r.readerFor(path) != nil
}

// Load は対応する読み込みで骨格定義を読み込む。
func (r *SkeletonRepository) Load(path string) (*model.SkeletonDesc, error) {
	reader := r.readerFor(path)
	if reader == nil {
		return nil, merrors.NewIoExtInvalid(path, nil)
	}
	return reader.Load(path)
}

// readerFor は最初に対応する読み込みを返す。
func (r *SkeletonRepository) readerFor(path string) moutput.ISkeletonReader {
	for _, reader := range r.readers {
		if reader != nil && reader.CanLoad(path) {
			return reader
		}
	}
	return nil
}
