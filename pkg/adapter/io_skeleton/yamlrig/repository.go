// 指示: miu200521358
// Package yamlrig はYAMLで記述した骨格・アニメーション・受信記録の入出力を提供する。
package yamlrig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_retarget/pkg/shared/logging"
	"gopkg.in/yaml.v3"
)

// YamlRigRepository はYAML形式の骨格定義・アニメーション・受信記録の読み込みと姿勢の保存を行う。
type YamlRigRepository struct{}

// NewYamlRigRepository はYamlRigRepositoryを生成する。
func NewYamlRigRepository() *YamlRigRepository {
	return &YamlRigRepository{}
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *YamlRigRepository) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load は骨格定義を読み込む。
func (r *YamlRigRepository) Load(path string) (*model.SkeletonDesc, error) {
	doc := skeletonYaml{}
	if err := r.decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Bones) == 0 {
		return nil, merrors.NewIoParseFailed("骨格定義にボーンがありません: %s", nil, path)
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	desc := &model.SkeletonDesc{
		Name:    name,
		Object:  model.NewTransform(),
		Bones:   make([]model.BoneDesc, 0, len(doc.Bones)),
		Aliases: map[string]string{},
	}
	if doc.Object != nil {
		object, err := doc.Object.toTransform("object")
		if err != nil {
			return nil, err
		}
		desc.Object = object
	}
	for i, bone := range doc.Bones {
		rest, err := bone.toTransform(fmt.Sprintf("bones[%d]", i))
		if err != nil {
			return nil, err
		}
		desc.Bones = append(desc.Bones, model.BoneDesc{Name: bone.Name, Parent: bone.Parent, Rest: rest})
	}
	for boneName, humanoid := range doc.Humanoid {
		desc.Aliases[boneName] = humanoid
	}
	logYamlDebug("骨格定義読込完了: file=%s bones=%d", filepath.Base(path), len(desc.Bones))
	return desc, nil
}

// LoadClip はアニメーションを読み込む。
func (r *YamlRigRepository) LoadClip(path string) (*model.Clip, error) {
	doc := clipYaml{}
	if err := r.decodeFile(path, &doc); err != nil {
		return nil, err
	}
	clip := &model.Clip{
		Name:   doc.Name,
		Frames: make([]model.ClipFrame, 0, len(doc.Frames)),
	}
	for i, frame := range doc.Frames {
		bones := make(map[string]model.Transform, len(frame.Bones))
		for boneName, transform := range frame.Bones {
			local, err := transform.toTransform(fmt.Sprintf("frames[%d].bones.%s", i, boneName))
			if err != nil {
				return nil, err
			}
			bones[boneName] = local
		}
		clip.Frames = append(clip.Frames, model.ClipFrame{Frame: frame.Frame, Bones: bones})
	}
	logYamlDebug("アニメーション読込完了: file=%s frames=%d", filepath.Base(path), clip.Len())
	return clip, nil
}

// LoadPackets は受信記録を読み込む。
func (r *YamlRigRepository) LoadPackets(path string) ([]model.LivePacket, error) {
	doc := packetsYaml{}
	if err := r.decodeFile(path, &doc); err != nil {
		return nil, err
	}
	packets := make([]model.LivePacket, 0, len(doc.Packets))
	for i, packet := range doc.Packets {
		livePacket := model.LivePacket{Timestamp: packet.Timestamp}
		for _, actor := range packet.Actors {
			actorPacket := model.ActorPacket{Name: actor.Name, Faces: actor.Faces}
			for _, sensor := range actor.Sensors {
				transform, err := sensor.toTransform(fmt.Sprintf("packets[%d].%s.%s", i, actor.Name, sensor.Sensor))
				if err != nil {
					return nil, err
				}
				actorPacket.Sensors = append(actorPacket.Sensors, model.SensorReading{
					Sensor:      sensor.Sensor,
					Translation: transform.Translation,
					Rotation:    transform.Rotation,
				})
			}
			livePacket.Actors = append(livePacket.Actors, actorPacket)
		}
		for _, tracker := range packet.Trackers {
			transform, err := tracker.toTransform(fmt.Sprintf("packets[%d].trackers.%s", i, tracker.ID))
			if err != nil {
				return nil, err
			}
			livePacket.Trackers = append(livePacket.Trackers, model.TrackerReading{
				ID:          tracker.ID,
				Translation: transform.Translation,
				Rotation:    transform.Rotation,
			})
		}
		packets = append(packets, livePacket)
	}
	logYamlDebug("受信記録読込完了: file=%s packets=%d", filepath.Base(path), len(packets))
	return packets, nil
}

// decodeFile はYAMLファイルを読み込んで構造体へ展開する。
func (r *YamlRigRepository) decodeFile(path string, out any) error {
	if !r.CanLoad(path) {
		return merrors.NewIoExtInvalid(path, nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return merrors.NewIoFileNotFound(path, err)
		}
		return merrors.NewIoParseFailed("YAMLファイルの読み取りに失敗しました", err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return merrors.NewIoParseFailed("YAMLの解析に失敗しました: %s", err, filepath.Base(path))
	}
	return nil
}

// logYamlDebug はYAML入出力のデバッグログを出力する。
func logYamlDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logYamlInfo はYAML入出力のINFOログを出力する。
func logYamlInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}
