// 指示: miu200521358
package model

import (
	"testing"

	"github.com/miu200521358/mu_retarget/pkg/domain/merrors"
)

func TestNewBoneCorrespondenceTableKeepsOrder(t *testing.T) {
	table, err := NewBoneCorrespondenceTable("src", "dst", []CorrespondenceEntry{
		{BoneCorrespondence: BoneCorrespondence{Source: "Hips", Target: "hips"}, Origin: MATCH_ORIGIN_EXPLICIT},
		{BoneCorrespondence: BoneCorrespondence{Source: "Head", Target: "head"}, Origin: MATCH_ORIGIN_NAME},
		{BoneCorrespondence: BoneCorrespondence{Source: "Hips", Target: "hips"}, Origin: MATCH_ORIGIN_NAME},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("len mismatch: got=%d want=2", table.Len())
	}
	pairs := table.Pairs()
	if pairs[0].Source != "Hips" || pairs[1].Source != "Head" {
		t.Fatalf("order mismatch: got=%v", pairs)
	}
	if source, ok := table.Source("head"); !ok || source != "Head" {
		t.Fatalf("reverse lookup mismatch: got=%s ok=%v", source, ok)
	}
	if origin, _ := table.Origin("Hips"); origin != MATCH_ORIGIN_EXPLICIT {
		t.Fatalf("origin mismatch: got=%s", origin)
	}
}

func TestNewBoneCorrespondenceTableRejectsSharedTarget(t *testing.T) {
	_, err := NewBoneCorrespondenceTable("src", "dst", []CorrespondenceEntry{
		{BoneCorrespondence: BoneCorrespondence{Source: "Head", Target: "head"}},
		{BoneCorrespondence: BoneCorrespondence{Source: "Neck", Target: "head"}},
	})
	if !merrors.IsCorrespondenceConflictError(err) {
		t.Fatalf("expected conflict error: got=%v", err)
	}
}

func TestNewBoneCorrespondenceTableRejectsSourceWithTwoTargets(t *testing.T) {
	_, err := NewBoneCorrespondenceTable("src", "dst", []CorrespondenceEntry{
		{BoneCorrespondence: BoneCorrespondence{Source: "Head", Target: "head"}},
		{BoneCorrespondence: BoneCorrespondence{Source: "Head", Target: "neck"}},
	})
	if !merrors.IsCorrespondenceConflictError(err) {
		t.Fatalf("expected conflict error: got=%v", err)
	}
}

func TestBoneCorrespondenceTableTotality(t *testing.T) {
	table, err := NewBoneCorrespondenceTable("src", "dst", []CorrespondenceEntry{
		{BoneCorrespondence: BoneCorrespondence{Source: "a", Target: "1"}},
		{BoneCorrespondence: BoneCorrespondence{Source: "b", Target: "2"}},
		{BoneCorrespondence: BoneCorrespondence{Source: "c", Target: "3"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seenTargets := map[string]string{}
	for _, pair := range table.Pairs() {
		target, ok := table.Target(pair.Source)
		if !ok || target != pair.Target {
			t.Fatalf("source should map to exactly one target: %s", pair.Source)
		}
		if other, exists := seenTargets[target]; exists {
			t.Fatalf("target shared by %s and %s", other, pair.Source)
		}
		seenTargets[target] = pair.Source
	}
}

func TestNilBoneCorrespondenceTableIsEmpty(t *testing.T) {
	var table *BoneCorrespondenceTable
	if table.Len() != 0 || table.Pairs() != nil {
		t.Fatalf("nil table should be empty")
	}
	if _, ok := table.Target("a"); ok {
		t.Fatalf("nil table should not resolve")
	}
}
