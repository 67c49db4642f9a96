// 指示: miu200521358
package yamlrig

import (
	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
)

// transformYaml は変換のYAML表現を表す。回転はxyzw順、rotationDegreesはXYZ度数で指定する。
type transformYaml struct {
	Translation     []float64 `yaml:"translation,flow,omitempty"`
	Rotation        []float64 `yaml:"rotation,flow,omitempty"`
	RotationDegrees []float64 `yaml:"rotationDegrees,flow,omitempty"`
	Scale           []float64 `yaml:"scale,flow,omitempty"`
}

// boneYaml はボーン定義のYAML表現を表す。
type boneYaml struct {
	Name          string `yaml:"name"`
	Parent        string `yaml:"parent,omitempty"`
	transformYaml `yaml:",inline"`
}

// skeletonYaml は骨格定義ファイルを表す。
type skeletonYaml struct {
	Name   string         `yaml:"name"`
	Object *transformYaml `yaml:"object,omitempty"`
	Bones  []boneYaml     `yaml:"bones"`
	// Humanoid はボーン名からhumanoid名への対応を保持する。
	Humanoid map[string]string `yaml:"humanoid,omitempty"`
}

// clipFrameYaml は1フレーム分のアニメーションを表す。
type clipFrameYaml struct {
	Frame int                      `yaml:"frame"`
	Bones map[string]transformYaml `yaml:"bones"`
}

// clipYaml はアニメーションファイルを表す。
type clipYaml struct {
	Name   string          `yaml:"name"`
	Frames []clipFrameYaml `yaml:"frames"`
}

// sensorYaml はセンサー受信値を表す。
type sensorYaml struct {
	Sensor        string `yaml:"sensor"`
	transformYaml `yaml:",inline"`
}

// actorYaml はアクター受信値を表す。
type actorYaml struct {
	Name    string             `yaml:"name"`
	Sensors []sensorYaml       `yaml:"sensors"`
	Faces   map[string]float64 `yaml:"faces,omitempty"`
}

// trackerYaml はトラッカー受信値を表す。
type trackerYaml struct {
	ID            string `yaml:"id"`
	transformYaml `yaml:",inline"`
}

// packetYaml は1受信分のデータを表す。
type packetYaml struct {
	Timestamp float64       `yaml:"timestamp"`
	Actors    []actorYaml   `yaml:"actors"`
	Trackers  []trackerYaml `yaml:"trackers,omitempty"`
}

// packetsYaml は受信記録ファイルを表す。
type packetsYaml struct {
	Packets []packetYaml `yaml:"packets"`
}

// poseFrameYaml は出力フレームのYAML表現を表す。
type poseFrameYaml struct {
	Frame        int                      `yaml:"frame"`
	Bones        map[string]transformYaml `yaml:"bones"`
	Unchanged    []string                 `yaml:"unchanged,omitempty"`
	Skipped      []string                 `yaml:"skipped,omitempty"`
	Objects      map[string]transformYaml `yaml:"objects,omitempty"`
	ShapeWeights map[string]float64       `yaml:"shapeWeights,omitempty"`
}

// poseStreamYaml は出力ファイルを表す。
type poseStreamYaml struct {
	Skeleton string          `yaml:"skeleton"`
	Source   string          `yaml:"source,omitempty"`
	Scale    float64         `yaml:"scale"`
	Frames   []poseFrameYaml `yaml:"frames"`
}

// toTransform はYAML表現を変換へ変換する。
func (t transformYaml) toTransform(label string) (model.Transform, error) {
	transform := model.NewTransform()
	if len(t.Translation) > 0 {
		translation, err := mmath.NewVec3FromSlice(t.Translation)
		if err != nil {
			return transform, merrors.NewIoParseFailed("%s.translation が不正です", err, label)
		}
		transform.Translation = translation
	}
	switch {
	case len(t.Rotation) > 0:
		rotation, err := mmath.NewQuaternionFromSlice(t.Rotation)
		if err != nil {
			return transform, merrors.NewIoParseFailed("%s.rotation が不正です", err, label)
		}
		if rotation.Length() == 0 {
			return transform, merrors.NewIoParseFailed("%s.rotation がゼロです", nil, label)
		}
		transform.Rotation = rotation.Normalized()
	case len(t.RotationDegrees) > 0:
		degrees, err := mmath.NewVec3FromSlice(t.RotationDegrees)
		if err != nil {
			return transform, merrors.NewIoParseFailed("%s.rotationDegrees が不正です", err, label)
		}
		transform.Rotation = mmath.NewQuaternionFromDegrees(degrees.X, degrees.Y, degrees.Z)
	}
	if len(t.Scale) > 0 {
		scale, err := mmath.NewVec3FromSlice(t.Scale)
		if err != nil {
			return transform, merrors.NewIoParseFailed("%s.scale が不正です", err, label)
		}
		transform.Scale = scale
	}
	return transform, nil
}

// newTransformYaml は変換をYAML表現へ変換する。等倍スケールは省略する。
func newTransformYaml(transform model.Transform) transformYaml {
	out := transformYaml{
		Translation: transform.Translation.Slice(),
		Rotation:    transform.EffectiveRotation().Slice(),
	}
	if scale := transform.EffectiveScale(); scale != mmath.ONE_VEC3 {
		out.Scale = scale.Slice()
	}
	return out
}
