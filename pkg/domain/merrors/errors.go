// 指示: miu200521358
// Package merrors はリターゲット処理のエラー分類を提供する。
package merrors

import (
	"errors"
	"fmt"
	"strings"
)

// CorrespondenceConflictError は同一ターゲットボーンへの重複割り当てを表す。
type CorrespondenceConflictError struct {
	Target  string
	Sources []string
}

// NewCorrespondenceConflictError はCorrespondenceConflictErrorを生成する。
func NewCorrespondenceConflictError(target string, sources ...string) *CorrespondenceConflictError {
	return &CorrespondenceConflictError{Target: target, Sources: append([]string(nil), sources...)}
}

// Error はエラーメッセージを返す。
func (e *CorrespondenceConflictError) Error() string {
	return fmt.Sprintf("ボーン対応が競合しています: target=%s sources=[%s]", e.Target, strings.Join(e.Sources, ", "))
}

// IsCorrespondenceConflictError はCorrespondenceConflictErrorか判定する。
func IsCorrespondenceConflictError(err error) bool {
	var target *CorrespondenceConflictError
	return errors.As(err, &target)
}

// UnknownBoneError は骨格に存在しないボーン参照を表す。
type UnknownBoneError struct {
	Skeleton string
	Bone     string
}

// NewUnknownBoneError はUnknownBoneErrorを生成する。
func NewUnknownBoneError(skeleton string, bone string) *UnknownBoneError {
	return &UnknownBoneError{Skeleton: skeleton, Bone: bone}
}

// Error はエラーメッセージを返す。
func (e *UnknownBoneError) Error() string {
	return fmt.Sprintf("ボーンが見つかりません: skeleton=%s bone=%s", e.Skeleton, e.Bone)
}

// IsUnknownBoneError はUnknownBoneErrorか判定する。
func IsUnknownBoneError(err error) bool {
	var target *UnknownBoneError
	return errors.As(err, &target)
}

// DegenerateMeasurementError は自動スケールの計測距離がほぼ0であることを表す。
type DegenerateMeasurementError struct {
	Skeleton string
	From     string
	To       string
	Distance float64
}

// NewDegenerateMeasurementError はDegenerateMeasurementErrorを生成する。
func NewDegenerateMeasurementError(skeleton, from, to string, distance float64) *DegenerateMeasurementError {
	return &DegenerateMeasurementError{Skeleton: skeleton, From: from, To: to, Distance: distance}
}

// Error はエラーメッセージを返す。
func (e *DegenerateMeasurementError) Error() string {
	return fmt.Sprintf(
		"スケール計測距離が小さすぎます: skeleton=%s from=%s to=%s distance=%g",
		e.Skeleton, e.From, e.To, e.Distance,
	)
}

// IsDegenerateMeasurementError はDegenerateMeasurementErrorか判定する。
func IsDegenerateMeasurementError(err error) bool {
	var target *DegenerateMeasurementError
	return errors.As(err, &target)
}

// MissingSnapshotError はフレーム内に必要なボーン姿勢が無いことを表す。
type MissingSnapshotError struct {
	Bone  string
	Frame int
}

// NewMissingSnapshotError はMissingSnapshotErrorを生成する。
func NewMissingSnapshotError(bone string, frame int) *MissingSnapshotError {
	return &MissingSnapshotError{Bone: bone, Frame: frame}
}

// Error はエラーメッセージを返す。
func (e *MissingSnapshotError) Error() string {
	return fmt.Sprintf("ボーン姿勢がありません: bone=%s frame=%d", e.Bone, e.Frame)
}

// IsMissingSnapshotError はMissingSnapshotErrorか判定する。
func IsMissingSnapshotError(err error) bool {
	var target *MissingSnapshotError
	return errors.As(err, &target)
}

// InvalidReferenceError は骨格参照が無効になったことを表す。
type InvalidReferenceError struct {
	Role string
}

// NewInvalidReferenceError はInvalidReferenceErrorを生成する。
func NewInvalidReferenceError(role string) *InvalidReferenceError {
	return &InvalidReferenceError{Role: role}
}

// Error はエラーメッセージを返す。
func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("骨格参照が無効です: role=%s", e.Role)
}

// IsInvalidReferenceError はInvalidReferenceErrorか判定する。
func IsInvalidReferenceError(err error) bool {
	var target *InvalidReferenceError
	return errors.As(err, &target)
}

// SkeletonInvalidError は骨格定義の不整合を表す。
type SkeletonInvalidError struct {
	Skeleton string
	Bone     string
	Reason   string
}

// NewSkeletonInvalidError はSkeletonInvalidErrorを生成する。
func NewSkeletonInvalidError(skeleton, bone, reason string) *SkeletonInvalidError {
	return &SkeletonInvalidError{Skeleton: skeleton, Bone: bone, Reason: reason}
}

// Error はエラーメッセージを返す。
func (e *SkeletonInvalidError) Error() string {
	return fmt.Sprintf("骨格定義が不正です: skeleton=%s bone=%s reason=%s", e.Skeleton, e.Bone, e.Reason)
}

// IsSkeletonInvalidError はSkeletonInvalidErrorか判定する。
func IsSkeletonInvalidError(err error) bool {
	var target *SkeletonInvalidError
	return errors.As(err, &target)
}

// SessionStateError は現在の状態で許可されない操作を表す。
type SessionStateError struct {
	Operation string
	State     string
}

// NewSessionStateError はSessionStateErrorを生成する。
func NewSessionStateError(operation, state string) *SessionStateError {
	return &SessionStateError{Operation: operation, State: state}
}

// Error はエラーメッセージを返す。
func (e *SessionStateError) Error() string {
	return fmt.Sprintf("現在の状態では実行できません: operation=%s state=%s", e.Operation, e.State)
}

// IsSessionStateError はSessionStateErrorか判定する。
func IsSessionStateError(err error) bool {
	var target *SessionStateError
	return errors.As(err, &target)
}
