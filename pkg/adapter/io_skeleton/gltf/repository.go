// 指示: miu200521358
package gltf

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
	"github.com/miu200521358/mu_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_retarget/pkg/shared/logging"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	glbHeaderLength   = 12
	glbChunkHeadSize  = 8
	glbMagic          = 0x46546C67
	glbJSONChunkType  = 0x4E4F534A
	glbMinValidLength = glbHeaderLength + glbChunkHeadSize
)

const (
	nodeStateVisiting = 1
	nodeStateResolved = 2
)

// LoadProgressEventType はglTF骨格読込進捗イベント種別を表す。
type LoadProgressEventType string

const (
	// LoadProgressEventTypeFileReadComplete はファイル読込完了イベントを表す。
	LoadProgressEventTypeFileReadComplete LoadProgressEventType = "file_read_complete"
	// LoadProgressEventTypeJsonParsed はJSON解析完了イベントを表す。
	LoadProgressEventTypeJsonParsed LoadProgressEventType = "json_parsed"
	// LoadProgressEventTypeCompleted は骨格読込完了イベントを表す。
	LoadProgressEventTypeCompleted LoadProgressEventType = "completed"
)

// LoadProgressEvent はglTF骨格読込進捗イベントを表す。
type LoadProgressEvent struct {
	Type          LoadProgressEventType
	FileSizeBytes int
	NodeCount     int
	JointCount    int
	BoneCount     int
}

// GltfRepository はglTF/GLB/VRMのノード階層を骨格定義として読み込む。
type GltfRepository struct {
	loadProgressReporter func(LoadProgressEvent)
}

// NewGltfRepository はGltfRepositoryを生成する。
func NewGltfRepository() *GltfRepository {
	return &GltfRepository{}
}

// SetLoadProgressReporter は読込進捗受信コールバックを設定する。
func (r *GltfRepository) SetLoadProgressReporter(reporter func(LoadProgressEvent)) {
	if r == nil {
		return
	}
	r.loadProgressReporter = reporter
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *GltfRepository) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf", ".vrm":
		return true
	default:
		return false
	}
}

// InferName はパスから骨格名を推定する。
func (r *GltfRepository) InferName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// Load はノード階層を読み込み骨格定義を返す。
// スキンがある場合はジョイントとその祖先ノードのみをボーンとし、無い場合は全ノードをボーンとする。
func (r *GltfRepository) Load(path string) (*model.SkeletonDesc, error) {
	if !r.CanLoad(path) {
		return nil, merrors.NewIoExtInvalid(path, nil)
	}
	loadTargetName := filepath.Base(path)
	logGltfInfo("glTF骨格読込開始: file=%s", loadTargetName)

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, merrors.NewIoFileNotFound(path, err)
		}
		return nil, merrors.NewIoParseFailed("glTFファイルの読み取りに失敗しました", err)
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeFileReadComplete,
		FileSizeBytes: len(b),
	})

	jsonChunk := b
	if !strings.EqualFold(filepath.Ext(path), ".gltf") {
		jsonChunk, err = parseGLBJSONChunk(b)
		if err != nil {
			return nil, err
		}
	}

	doc := gltfDocument{}
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, merrors.NewIoParseFailed("glTF JSONの解析に失敗しました", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, merrors.NewIoParseFailed("glTFにノードがありません", nil)
	}
	jointCount := countSkinJoints(doc.Skins)
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeJsonParsed,
		FileSizeBytes: len(b),
		NodeCount:     len(doc.Nodes),
		JointCount:    jointCount,
	})
	logGltfDebug("glTF骨格読込ステップ: JSON解析完了 nodes=%d skins=%d joints=%d", len(doc.Nodes), len(doc.Skins), jointCount)

	desc, err := buildSkeletonDesc(r.InferName(path), &doc)
	if err != nil {
		return nil, err
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeCompleted,
		FileSizeBytes: len(b),
		NodeCount:     len(doc.Nodes),
		JointCount:    jointCount,
		BoneCount:     len(desc.Bones),
	})
	logGltfInfo("glTF骨格読込完了: file=%s bones=%d aliases=%d", loadTargetName, len(desc.Bones), len(desc.Aliases))
	return desc, nil
}

// reportLoadProgress は読込進捗イベントを通知する。
func (r *GltfRepository) reportLoadProgress(event LoadProgressEvent) {
	if r == nil || r.loadProgressReporter == nil {
		return
	}
	r.loadProgressReporter(event)
}

// countSkinJoints はスキンのジョイント総数を返す。
func countSkinJoints(skins []gltfSkin) int {
	total := 0
	for _, skin := range skins {
		total += len(skin.Joints)
	}
	return total
}

// logGltfInfo はglTF読込のINFOログを出力する。
func logGltfInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logGltfDebug はglTF読込のデバッグログを出力する。
func logGltfDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logGltfWarn はglTF読込の警告ログを出力する。
func logGltfWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}

// gltfDocument は骨格読込に必要なglTFトップレベル要素を表す。
type gltfDocument struct {
	Asset          gltfAsset                  `json:"asset"`
	Skins          []gltfSkin                 `json:"skins"`
	ExtensionsUsed []string                   `json:"extensionsUsed"`
	Nodes          []gltfNode                 `json:"nodes"`
	Extensions     map[string]json.RawMessage `json:"extensions"`
}

// gltfAsset はglTF asset要素を表す。
type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

// gltfNode はglTF node要素を表す。
type gltfNode struct {
	Name        string    `json:"name"`
	Children    []int     `json:"children"`
	Matrix      []float64 `json:"matrix"`
	Translation []float64 `json:"translation"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
}

// gltfSkin はglTF skin要素を表す。
type gltfSkin struct {
	Joints []int `json:"joints"`
}

// vrm0Extension はVRM0拡張のhumanoid要素を表す。
type vrm0Extension struct {
	Humanoid vrm0Humanoid `json:"humanoid"`
}

// vrm0Humanoid はVRM0 humanoid要素を表す。
type vrm0Humanoid struct {
	HumanBones []vrm0HumanBone `json:"humanBones"`
}

// vrm0HumanBone はVRM0 humanBones要素を表す。
type vrm0HumanBone struct {
	Bone string `json:"bone"`
	Node int    `json:"node"`
}

// vrm1Extension はVRM1拡張のhumanoid要素を表す。
type vrm1Extension struct {
	SpecVersion string       `json:"specVersion"`
	Humanoid    vrm1Humanoid `json:"humanoid"`
}

// vrm1Humanoid はVRM1 humanoid要素を表す。
type vrm1Humanoid struct {
	HumanBones map[string]vrm1HumanBone `json:"humanBones"`
}

// vrm1HumanBone はVRM1 humanBones要素を表す。
type vrm1HumanBone struct {
	Node *int `json:"node"`
}

// parseGLBJSONChunk はGLBバイナリからJSONチャンクを取り出す。
func parseGLBJSONChunk(b []byte) ([]byte, error) {
	if len(b) < glbMinValidLength {
		return nil, merrors.NewIoParseFailed("GLBヘッダが不足しています", nil)
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != glbMagic {
		return nil, merrors.NewIoParseFailed("GLBマジックが不正です", nil)
	}
	version := binary.LittleEndian.Uint32(b[4:8])
	if version != 2 {
		return nil, merrors.NewIoFormatNotSupported("GLBバージョンが未対応です: %d", nil, version)
	}
	totalLength := binary.LittleEndian.Uint32(b[8:12])
	if totalLength > uint32(len(b)) {
		return nil, merrors.NewIoParseFailed("GLB全体長が不正です", nil)
	}

	offset := glbHeaderLength
	for offset+glbChunkHeadSize <= len(b) {
		chunkLength := int(binary.LittleEndian.Uint32(b[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(b[offset+4 : offset+8])
		chunkStart := offset + glbChunkHeadSize
		chunkEnd := chunkStart + chunkLength
		if chunkLength < 0 || chunkEnd > len(b) {
			return nil, merrors.NewIoParseFailed("GLBチャンク長が不正です", nil)
		}
		if chunkType == glbJSONChunkType {
			return b[chunkStart:chunkEnd], nil
		}
		offset = chunkEnd
	}
	return nil, merrors.NewIoParseFailed("GLB JSONチャンクが見つかりません", nil)
}

// buildNodeParentIndexes はnode配列から親インデックス配列を生成する。
func buildNodeParentIndexes(nodes []gltfNode) ([]int, error) {
	parentIndexes := make([]int, len(nodes))
	for i := range parentIndexes {
		parentIndexes[i] = -1
	}
	for parentIndex, node := range nodes {
		for _, childIndex := range node.Children {
			if childIndex < 0 || childIndex >= len(nodes) {
				return nil, merrors.NewIoParseFailed("node.children のindexが不正です: %d", nil, childIndex)
			}
			if parentIndexes[childIndex] == -1 {
				parentIndexes[childIndex] = parentIndex
			}
		}
	}
	return parentIndexes, nil
}

// checkNodeCycles は親子関係に循環が無いことを確認する。
func checkNodeCycles(parents []int) error {
	state := make([]int, len(parents))
	var visit func(nodeIndex int) error
	visit = func(nodeIndex int) error {
		if state[nodeIndex] == nodeStateResolved {
			return nil
		}
		if state[nodeIndex] == nodeStateVisiting {
			return merrors.NewIoParseFailed("node親子関係に循環があります: %d", nil, nodeIndex)
		}
		state[nodeIndex] = nodeStateVisiting
		if parent := parents[nodeIndex]; parent >= 0 {
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[nodeIndex] = nodeStateResolved
		return nil
	}
	for i := range parents {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

// nodeLocalTransform はnode要素からローカル変換を生成する。
func nodeLocalTransform(node gltfNode) (model.Transform, error) {
	if len(node.Matrix) > 0 {
		mat, ok := mmath.NewMat4FromSlice(node.Matrix)
		if !ok {
			return model.NewTransform(), merrors.NewIoParseFailed("node.matrix の要素数が不正です: %d", nil, len(node.Matrix))
		}
		translation, rotation, scale := mat.Decompose()
		return model.Transform{Translation: translation, Rotation: rotation, Scale: scale}, nil
	}

	translation, err := parseVec3(node.Translation, mmath.ZERO_VEC3, "node.translation")
	if err != nil {
		return model.NewTransform(), err
	}
	scale, err := parseVec3(node.Scale, mmath.ONE_VEC3, "node.scale")
	if err != nil {
		return model.NewTransform(), err
	}
	rotation, err := parseQuaternion(node.Rotation)
	if err != nil {
		return model.NewTransform(), err
	}
	return model.Transform{Translation: translation, Rotation: rotation, Scale: scale}, nil
}

// parseVec3 はスライスをVec3へ変換する。
func parseVec3(values []float64, defaultValue mmath.Vec3, label string) (mmath.Vec3, error) {
	if len(values) == 0 {
		return defaultValue, nil
	}
	if len(values) != 3 {
		return mmath.ZERO_VEC3, merrors.NewIoParseFailed("%s の要素数が不正です: %d", nil, label, len(values))
	}
	return mmath.Vec3{Vec: r3.Vec{X: values[0], Y: values[1], Z: values[2]}}, nil
}

// parseQuaternion はスライスをQuaternionへ変換する。
func parseQuaternion(values []float64) (mmath.Quaternion, error) {
	if len(values) == 0 {
		return mmath.NewQuaternion(), nil
	}
	if len(values) != 4 {
		return mmath.NewQuaternion(), merrors.NewIoParseFailed("node.rotation の要素数が不正です: %d", nil, len(values))
	}
	return mmath.NewQuaternionByValues(values[0], values[1], values[2], values[3]).Normalized(), nil
}

// buildSkeletonDesc はglTF文書から骨格定義を構築する。
func buildSkeletonDesc(name string, doc *gltfDocument) (*model.SkeletonDesc, error) {
	parents, err := buildNodeParentIndexes(doc.Nodes)
	if err != nil {
		return nil, err
	}
	if err := checkNodeCycles(parents); err != nil {
		return nil, err
	}
	boneNodes, err := collectBoneNodes(doc, parents)
	if err != nil {
		return nil, err
	}

	desc := &model.SkeletonDesc{
		Name:    name,
		Object:  model.NewTransform(),
		Bones:   make([]model.BoneDesc, 0, len(boneNodes)),
		Aliases: map[string]string{},
	}
	nodeToBoneName := make(map[int]string, len(boneNodes))
	usedNames := map[string]int{}
	for _, nodeIndex := range boneNodes {
		boneName := ensureUniqueBoneName(resolveNodeBoneName(nodeIndex, doc.Nodes[nodeIndex].Name), usedNames)
		nodeToBoneName[nodeIndex] = boneName
	}
	for _, nodeIndex := range boneNodes {
		rest, err := nodeLocalTransform(doc.Nodes[nodeIndex])
		if err != nil {
			return nil, err
		}
		parentName := ""
		if parent := parents[nodeIndex]; parent >= 0 {
			parentName = nodeToBoneName[parent]
		}
		desc.Bones = append(desc.Bones, model.BoneDesc{
			Name:   nodeToBoneName[nodeIndex],
			Parent: parentName,
			Rest:   rest,
		})
	}

	humanoidNodes, err := parseHumanoidNodes(doc)
	if err != nil {
		return nil, err
	}
	for humanoid, nodeIndex := range humanoidNodes {
		boneName, exists := nodeToBoneName[nodeIndex]
		if !exists {
			logGltfWarn("humanoidノードがボーンに含まれていません: humanoid=%s node=%d", humanoid, nodeIndex)
			continue
		}
		desc.Aliases[boneName] = humanoid
	}
	return desc, nil
}

// collectBoneNodes はボーンとして扱うノードをインデックス順で返す。
func collectBoneNodes(doc *gltfDocument, parents []int) ([]int, error) {
	if len(doc.Skins) == 0 {
		nodes := make([]int, len(doc.Nodes))
		for i := range nodes {
			nodes[i] = i
		}
		return nodes, nil
	}
	selected := map[int]struct{}{}
	for _, skin := range doc.Skins {
		for _, joint := range skin.Joints {
			if joint < 0 || joint >= len(doc.Nodes) {
				return nil, merrors.NewIoParseFailed("skin.joints のindexが不正です: %d", nil, joint)
			}
			// 祖先を含めて親子関係を保つ
			for nodeIndex := joint; nodeIndex >= 0; nodeIndex = parents[nodeIndex] {
				if _, exists := selected[nodeIndex]; exists {
					break
				}
				selected[nodeIndex] = struct{}{}
			}
		}
	}
	nodes := make([]int, 0, len(selected))
	for nodeIndex := range selected {
		nodes = append(nodes, nodeIndex)
	}
	sort.Ints(nodes)
	return nodes, nil
}

// parseHumanoidNodes はVRM拡張からhumanoid名とノードの対応を抽出する。
// VRM0/1 が同居する場合はVRM1を優先し、VRM1に無いhumanoid名のみVRM0で補う。
func parseHumanoidNodes(doc *gltfDocument) (map[string]int, error) {
	humanoidNodes := map[string]int{}
	if doc.Extensions == nil {
		return humanoidNodes, nil
	}
	if raw, ok := doc.Extensions["VRMC_vrm"]; ok {
		ext := vrm1Extension{}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, merrors.NewIoParseFailed("VRM1拡張のJSON解析に失敗しました", err)
		}
		for humanoid, bone := range ext.Humanoid.HumanBones {
			if bone.Node == nil {
				continue
			}
			humanoidNodes[humanoid] = *bone.Node
		}
	}
	if raw, ok := doc.Extensions["VRM"]; ok {
		ext := vrm0Extension{}
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, merrors.NewIoParseFailed("VRM0拡張のJSON解析に失敗しました", err)
		}
		for _, bone := range ext.Humanoid.HumanBones {
			if _, exists := humanoidNodes[bone.Bone]; exists {
				continue
			}
			humanoidNodes[bone.Bone] = bone.Node
		}
	}
	return humanoidNodes, nil
}

// resolveNodeBoneName はnode名からボーン名を決定する。
func resolveNodeBoneName(nodeIndex int, nodeName string) string {
	trimmed := strings.TrimSpace(nodeName)
	if trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("node_%03d", nodeIndex)
}

// ensureUniqueBoneName は同名ボーンの重複を回避する。
func ensureUniqueBoneName(name string, used map[string]int) string {
	if used == nil {
		return name
	}
	if _, ok := used[name]; !ok {
		used[name] = 1
		return name
	}
	index := used[name]
	used[name] = index + 1
	return fmt.Sprintf("%s_%d", name, index)
}
