// 指示: miu200521358
package merrors

import (
	"errors"
	"fmt"
)

// IoErrorKind は入出力エラーの種別を表す。
type IoErrorKind string

const (
	IO_ERROR_EXT_INVALID          IoErrorKind = "ext_invalid"
	IO_ERROR_FILE_NOT_FOUND       IoErrorKind = "file_not_found"
	IO_ERROR_PARSE_FAILED         IoErrorKind = "parse_failed"
	IO_ERROR_FORMAT_NOT_SUPPORTED IoErrorKind = "format_not_supported"
	IO_ERROR_SAVE_FAILED          IoErrorKind = "save_failed"
)

// IoError はファイル入出力の失敗を表す。
type IoError struct {
	Kind    IoErrorKind
	Message string
	Cause   error
}

// newIoError はIoErrorを生成する。
func newIoError(kind IoErrorKind, cause error, format string, params ...any) *IoError {
	message := format
	if len(params) > 0 {
		message = fmt.Sprintf(format, params...)
	}
	return &IoError{Kind: kind, Message: message, Cause: cause}
}

// NewIoExtInvalid は未対応拡張子エラーを生成する。
func NewIoExtInvalid(path string, cause error) *IoError {
	return newIoError(IO_ERROR_EXT_INVALID, cause, "拡張子が未対応です: %s", path)
}

// NewIoFileNotFound はファイル未検出エラーを生成する。
func NewIoFileNotFound(path string, cause error) *IoError {
	return newIoError(IO_ERROR_FILE_NOT_FOUND, cause, "ファイルが見つかりません: %s", path)
}

// NewIoParseFailed は解析失敗エラーを生成する。
func NewIoParseFailed(format string, cause error, params ...any) *IoError {
	return newIoError(IO_ERROR_PARSE_FAILED, cause, format, params...)
}

// NewIoFormatNotSupported は未対応形式エラーを生成する。
func NewIoFormatNotSupported(format string, cause error, params ...any) *IoError {
	return newIoError(IO_ERROR_FORMAT_NOT_SUPPORTED, cause, format, params...)
}

// NewIoSaveFailed は保存失敗エラーを生成する。
func NewIoSaveFailed(format string, cause error, params ...any) *IoError {
	return newIoError(IO_ERROR_SAVE_FAILED, cause, format, params...)
}

// Error はエラーメッセージを返す。
func (e *IoError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap は原因エラーを返す。
func (e *IoError) Unwrap() error {
	return e.Cause
}

// IsIoError は指定種別のIoErrorか判定する。
func IsIoError(err error, kind IoErrorKind) bool {
	var target *IoError
	if !errors.As(err, &target) {
		return false
	}
	return target.Kind == kind
}
