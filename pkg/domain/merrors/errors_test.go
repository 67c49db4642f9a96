// 指示: miu200521358
package merrors

import (
	"fmt"
	"strings"
	"testing"
)

func TestIsErrorHelpersMatchWrappedErrors(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"conflict", NewCorrespondenceConflictError("head", "Head", "head"), IsCorrespondenceConflictError},
		{"unknown", NewUnknownBoneError("src", "tail"), IsUnknownBoneError},
		{"degenerate", NewDegenerateMeasurementError("src", "hips", "head", 0), IsDegenerateMeasurementError},
		{"missing", NewMissingSnapshotError("hips", 3), IsMissingSnapshotError},
		{"invalid", NewInvalidReferenceError("source"), IsInvalidReferenceError},
		{"skeleton", NewSkeletonInvalidError("src", "a", "cycle"), IsSkeletonInvalidError},
		{"state", NewSessionStateError("Step", "IDLE"), IsSessionStateError},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("wrapped: %w", tc.err)
		if !tc.check(wrapped) {
			t.Fatalf("%s: wrapped error should match", tc.name)
		}
		for _, other := range cases {
			if other.name == tc.name {
				continue
			}
			if other.check(tc.err) {
				t.Fatalf("%s: should not match %s helper", tc.name, other.name)
			}
		}
	}
}

func TestCorrespondenceConflictErrorListsSources(t *testing.T) {
	err := NewCorrespondenceConflictError("Head", "head", "HEAD")
	if !strings.Contains(err.Error(), "head, HEAD") {
		t.Fatalf("message should list sources: %s", err.Error())
	}
}

func TestIoErrorKindAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("eof")
	err := fmt.Errorf("load: %w", NewIoParseFailed("GLBチャンク長が不正です: %d", cause, 12))
	if !IsIoError(err, IO_ERROR_PARSE_FAILED) {
		t.Fatalf("parse failed kind should match: %v", err)
	}
	if IsIoError(err, IO_ERROR_FILE_NOT_FOUND) {
		t.Fatalf("file not found kind should not match")
	}
	if !strings.Contains(err.Error(), "12") || !strings.Contains(err.Error(), "eof") {
		t.Fatalf("message should include params and cause: %s", err.Error())
	}
	if !IsIoError(NewIoExtInvalid("a.txt", nil), IO_ERROR_EXT_INVALID) {
		t.Fatalf("ext invalid kind should match")
	}
}
