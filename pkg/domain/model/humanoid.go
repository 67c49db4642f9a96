// 指示: miu200521358
package model

import (
	"strings"
	"unicode"
)

// HumanoidBoneName はVRM humanoid準拠の正準ボーン名を表す。
type HumanoidBoneName string

const (
	HUMANOID_HIPS            HumanoidBoneName = "hips"
	HUMANOID_SPINE           HumanoidBoneName = "spine"
	HUMANOID_CHEST           HumanoidBoneName = "chest"
	HUMANOID_UPPER_CHEST     HumanoidBoneName = "upperChest"
	HUMANOID_NECK            HumanoidBoneName = "neck"
	HUMANOID_HEAD            HumanoidBoneName = "head"
	HUMANOID_JAW             HumanoidBoneName = "jaw"
	HUMANOID_LEFT_EYE        HumanoidBoneName = "leftEye"
	HUMANOID_RIGHT_EYE       HumanoidBoneName = "rightEye"
	HUMANOID_LEFT_SHOULDER   HumanoidBoneName = "leftShoulder"
	HUMANOID_RIGHT_SHOULDER  HumanoidBoneName = "rightShoulder"
	HUMANOID_LEFT_UPPER_ARM  HumanoidBoneName = "leftUpperArm"
	HUMANOID_RIGHT_UPPER_ARM HumanoidBoneName = "rightUpperArm"
	HUMANOID_LEFT_LOWER_ARM  HumanoidBoneName = "leftLowerArm"
	HUMANOID_RIGHT_LOWER_ARM HumanoidBoneName = "rightLowerArm"
	HUMANOID_LEFT_HAND       HumanoidBoneName = "leftHand"
	HUMANOID_RIGHT_HAND      HumanoidBoneName = "rightHand"
	HUMANOID_LEFT_UPPER_LEG  HumanoidBoneName = "leftUpperLeg"
	HUMANOID_RIGHT_UPPER_LEG HumanoidBoneName = "rightUpperLeg"
	HUMANOID_LEFT_LOWER_LEG  HumanoidBoneName = "leftLowerLeg"
	HUMANOID_RIGHT_LOWER_LEG HumanoidBoneName = "rightLowerLeg"
	HUMANOID_LEFT_FOOT       HumanoidBoneName = "leftFoot"
	HUMANOID_RIGHT_FOOT      HumanoidBoneName = "rightFoot"
	HUMANOID_LEFT_TOES       HumanoidBoneName = "leftToes"
	HUMANOID_RIGHT_TOES      HumanoidBoneName = "rightToes"
)

// humanoidAliasRule はhumanoid名と各種リグでの呼称の対応を表す。
type humanoidAliasRule struct {
	Humanoid HumanoidBoneName
	Aliases  []string
}

// humanoidAliasRules はVRM・Mixamo・UE・VRoid・Blender・MMD・スーツ送信名の呼称一覧を保持する。
var humanoidAliasRules = []humanoidAliasRule{
	{HUMANOID_HIPS, []string{"hips", "hip", "pelvis", "mixamorig:Hips", "J_Bip_C_Hips", "下半身"}},
	{HUMANOID_SPINE, []string{"spine", "stomach", "spine_01", "J_Bip_C_Spine", "上半身"}},
	{HUMANOID_CHEST, []string{"chest", "mixamorig:Spine1", "spine_02", "J_Bip_C_Chest", "上半身2"}},
	{HUMANOID_UPPER_CHEST, []string{"upperChest", "mixamorig:Spine2", "spine_03", "J_Bip_C_UpperChest"}},
	{HUMANOID_NECK, []string{"neck", "neck_01", "J_Bip_C_Neck", "首"}},
	{HUMANOID_HEAD, []string{"head", "J_Bip_C_Head", "頭"}},
	{HUMANOID_JAW, []string{"jaw", "あご"}},
	{HUMANOID_LEFT_EYE, []string{"leftEye", "eye.L", "J_Adj_L_FaceEye", "左目"}},
	{HUMANOID_RIGHT_EYE, []string{"rightEye", "eye.R", "J_Adj_R_FaceEye", "右目"}},
	{HUMANOID_LEFT_SHOULDER, []string{"leftShoulder", "clavicle_l", "shoulder.L", "J_Bip_L_Shoulder", "左肩"}},
	{HUMANOID_RIGHT_SHOULDER, []string{"rightShoulder", "clavicle_r", "shoulder.R", "J_Bip_R_Shoulder", "右肩"}},
	{HUMANOID_LEFT_UPPER_ARM, []string{"leftUpperArm", "mixamorig:LeftArm", "upperarm_l", "upper_arm.L", "J_Bip_L_UpperArm", "左腕"}},
	{HUMANOID_RIGHT_UPPER_ARM, []string{"rightUpperArm", "mixamorig:RightArm", "upperarm_r", "upper_arm.R", "J_Bip_R_UpperArm", "右腕"}},
	{HUMANOID_LEFT_LOWER_ARM, []string{"leftLowerArm", "mixamorig:LeftForeArm", "lowerarm_l", "forearm.L", "J_Bip_L_LowerArm", "左ひじ"}},
	{HUMANOID_RIGHT_LOWER_ARM, []string{"rightLowerArm", "mixamorig:RightForeArm", "lowerarm_r", "forearm.R", "J_Bip_R_LowerArm", "右ひじ"}},
	{HUMANOID_LEFT_HAND, []string{"leftHand", "hand_l", "hand.L", "J_Bip_L_Hand", "左手首"}},
	{HUMANOID_RIGHT_HAND, []string{"rightHand", "hand_r", "hand.R", "J_Bip_R_Hand", "右手首"}},
	{HUMANOID_LEFT_UPPER_LEG, []string{"leftUpperLeg", "leftUpLeg", "thigh_l", "thigh.L", "J_Bip_L_UpperLeg", "左足"}},
	{HUMANOID_RIGHT_UPPER_LEG, []string{"rightUpperLeg", "rightUpLeg", "thigh_r", "thigh.R", "J_Bip_R_UpperLeg", "右足"}},
	{HUMANOID_LEFT_LOWER_LEG, []string{"leftLowerLeg", "leftLeg", "calf_l", "shin.L", "J_Bip_L_LowerLeg", "左ひざ"}},
	{HUMANOID_RIGHT_LOWER_LEG, []string{"rightLowerLeg", "rightLeg", "calf_r", "shin.R", "J_Bip_R_LowerLeg", "右ひざ"}},
	{HUMANOID_LEFT_FOOT, []string{"leftFoot", "foot_l", "foot.L", "J_Bip_L_Foot", "左足首"}},
	{HUMANOID_RIGHT_FOOT, []string{"rightFoot", "foot_r", "foot.R", "J_Bip_R_Foot", "右足首"}},
	{HUMANOID_LEFT_TOES, []string{"leftToes", "leftToe", "leftToeBase", "ball_l", "toe.L", "J_Bip_L_ToeBase", "左つま先"}},
	{HUMANOID_RIGHT_TOES, []string{"rightToes", "rightToe", "rightToeBase", "ball_r", "toe.R", "J_Bip_R_ToeBase", "右つま先"}},
}

// humanoidByAlias は正規化済み呼称からhumanoid名への辞書を保持する。
var humanoidByAlias = buildHumanoidByAlias()

// buildHumanoidByAlias は呼称辞書を構築する。先に登録された対応を優先する。
func buildHumanoidByAlias() map[string]HumanoidBoneName {
	dict := map[string]HumanoidBoneName{}
	for _, rule := range humanoidAliasRules {
		for _, alias := range rule.Aliases {
			key := NormalizeBoneName(alias)
			if _, exists := dict[key]; exists {
				continue
			}
			dict[key] = rule.Humanoid
		}
	}
	return dict
}

// HumanoidBoneNames は定義済みhumanoid名一覧を返す。
func HumanoidBoneNames() []HumanoidBoneName {
	names := make([]HumanoidBoneName, 0, len(humanoidAliasRules))
	for _, rule := range humanoidAliasRules {
		names = append(names, rule.Humanoid)
	}
	return names
}

// NormalizeBoneName はリグ固有の接頭辞と区切り文字を除去し、小文字化したボーン名を返す。
func NormalizeBoneName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(lowered, "mixamorig") {
		if idx := strings.IndexAny(lowered, ":_"); idx >= 0 {
			lowered = lowered[idx+1:]
		}
	}
	var b strings.Builder
	for _, r := range lowered {
		if r == '_' || r == '-' || r == '.' || r == ':' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LookupHumanoidName はボーン名から辞書上のhumanoid名を返す。
func LookupHumanoidName(boneName string) (HumanoidBoneName, bool) {
	humanoid, exists := humanoidByAlias[NormalizeBoneName(boneName)]
	return humanoid, exists
}

// HumanoidName はボーンのhumanoid名を返す。骨格の明示対応を辞書より優先する。
func (s *Skeleton) HumanoidName(boneName string) (HumanoidBoneName, bool) {
	if !s.Has(boneName) {
		return "", false
	}
	if alias, exists := s.aliases[boneName]; exists {
		if humanoid, ok := LookupHumanoidName(alias); ok {
			return humanoid, true
		}
		return HumanoidBoneName(alias), true
	}
	return LookupHumanoidName(boneName)
}

// BoneByHumanoid はhumanoid名に該当する最初のボーン名を返す。
func (s *Skeleton) BoneByHumanoid(humanoid HumanoidBoneName) (string, bool) {
	for _, bone := range s.bones {
		if name, ok := s.HumanoidName(bone.name); ok && name == humanoid {
			return bone.name, true
		}
	}
	return "", false
}
