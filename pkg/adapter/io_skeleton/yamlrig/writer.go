// 指示: miu200521358
package yamlrig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

// SavePose は出力フレーム列をYAMLとして保存する。出力先ディレクトリが無い場合は作成する。
func (r *YamlRigRepository) SavePose(path string, stream *model.PoseStream) error {
	if strings.TrimSpace(path) == "" {
		return merrors.NewIoSaveFailed("出力パスが未指定です", nil)
	}
	if !r.CanLoad(path) {
		return merrors.NewIoExtInvalid(path, nil)
	}
	if stream == nil {
		return merrors.NewIoSaveFailed("保存対象の姿勢が未設定です", nil)
	}

	doc := poseStreamYaml{
		Skeleton: stream.Skeleton,
		Source:   stream.Source,
		Scale:    stream.Scale,
		Frames:   make([]poseFrameYaml, 0, len(stream.Frames)),
	}
	for _, frame := range stream.Frames {
		frameDoc := poseFrameYaml{
			Frame:        frame.Frame,
			Bones:        make(map[string]transformYaml, len(frame.Bones)),
			Unchanged:    frame.Unchanged,
			Skipped:      frame.Skipped,
			ShapeWeights: frame.ShapeWeights,
		}
		for boneName, transform := range frame.Bones {
			frameDoc.Bones[boneName] = newTransformYaml(transform)
		}
		if len(frame.Objects) > 0 {
			frameDoc.Objects = make(map[string]transformYaml, len(frame.Objects))
			for objectName, transform := range frame.Objects {
				frameDoc.Objects[objectName] = newTransformYaml(transform)
			}
		}
		doc.Frames = append(doc.Frames, frameDoc)
	}

	b, err := yaml.Marshal(&doc)
	if err != nil {
		return merrors.NewIoSaveFailed("YAMLへの変換に失敗しました", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return merrors.NewIoSaveFailed("出力先ディレクトリの作成に失敗しました: %s", err, dir)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return merrors.NewIoSaveFailed("姿勢ファイルの保存に失敗しました: %s", err, path)
	}
	logYamlInfo("姿勢保存完了: file=%s frames=%d", filepath.Base(path), len(doc.Frames))
	return nil
}
