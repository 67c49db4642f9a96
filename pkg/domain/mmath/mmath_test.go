// 指示: miu200521358
package mmath

import (
	"math"
	"testing"
)

func TestQuaternionMulVec3RotatesAboutAxis(t *testing.T) {
	q := NewQuaternionFromAxisAngle(UNIT_Z_VEC3, math.Pi/2)
	got := q.MulVec3(UNIT_X_VEC3)
	want := UNIT_Y_VEC3
	if !got.NearEquals(want, 1e-9) {
		t.Fatalf("rotated vector mismatch: got=%v want=%v", got, want)
	}
}

func TestQuaternionInvertedCancelsRotation(t *testing.T) {
	q := NewQuaternionFromAxisAngle(NewVec3(1, 2, 3), 0.7)
	got := q.Inverted().Muled(q)
	if !got.NearEquals(NewQuaternion(), 1e-12) {
		t.Fatalf("inverse product should be identity: got=%v", got)
	}
}

func TestQuaternionNearEqualsTreatsNegatedAsSame(t *testing.T) {
	q := NewQuaternionFromAxisAngle(UNIT_Y_VEC3, 1.2)
	negated := NewQuaternionByValues(-q.X(), -q.Y(), -q.Z(), -q.W())
	if !q.NearEquals(negated, 1e-12) {
		t.Fatalf("q and -q should represent the same rotation")
	}
	if negated.Canonical().W() < 0 {
		t.Fatalf("canonical quaternion should have non-negative w: got=%v", negated.Canonical())
	}
}

func TestQuaternionNormalizedZeroReturnsIdentity(t *testing.T) {
	got := Quaternion{}.Normalized()
	if !got.IsIdent() {
		t.Fatalf("zero quaternion should normalize to identity: got=%v", got)
	}
}

func TestQuaternionToAxisAngle(t *testing.T) {
	q := NewQuaternionFromAxisAngle(UNIT_X_VEC3, math.Pi/2)
	axis, angle := q.ToAxisAngle()
	if !axis.NearEquals(UNIT_X_VEC3, 1e-9) {
		t.Fatalf("axis mismatch: got=%v", axis)
	}
	if math.Abs(angle-math.Pi/2) > 1e-9 {
		t.Fatalf("angle mismatch: got=%f want=%f", angle, math.Pi/2)
	}
	if math.Abs(q.ToDegree()-90) > 1e-9 {
		t.Fatalf("degree mismatch: got=%f", q.ToDegree())
	}
}

func TestNewQuaternionFromDegreesSingleAxis(t *testing.T) {
	got := NewQuaternionFromDegrees(0, 0, 90)
	want := NewQuaternionFromAxisAngle(UNIT_Z_VEC3, math.Pi/2)
	if !got.NearEquals(want, 1e-12) {
		t.Fatalf("degree quaternion mismatch: got=%v want=%v", got, want)
	}
}

func TestVec3Operations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 6, 3)
	if got := a.Distance(b); math.Abs(got-5) > 1e-12 {
		t.Fatalf("distance mismatch: got=%f want=5", got)
	}
	if got := a.Added(b); !got.NearEquals(NewVec3(5, 8, 6), 0) {
		t.Fatalf("added mismatch: got=%v", got)
	}
	if got := b.Subed(a).MuledScalar(2); !got.NearEquals(NewVec3(6, 8, 0), 0) {
		t.Fatalf("subed/muled mismatch: got=%v", got)
	}
	if got := NewVec3(2, 4, 6).Dived(NewVec3(2, 0, 3)); !got.NearEquals(NewVec3(1, 4, 2), 0) {
		t.Fatalf("dived mismatch: got=%v", got)
	}
	if got := ZERO_VEC3.Normalized(); !got.IsZero() {
		t.Fatalf("zero normalized should stay zero: got=%v", got)
	}
	if _, err := NewVec3FromSlice([]float64{1, 2}); err == nil {
		t.Fatalf("expected error for short slice")
	}
}

func TestMat4DecomposeRoundTrip(t *testing.T) {
	translation := NewVec3(1, -2, 3)
	rotation := NewQuaternionFromAxisAngle(NewVec3(0, 1, 1), 0.9)
	scale := NewVec3(2, 2, 2)

	m := translation.ToMat4().Muled(rotation.ToMat4()).Muled(scale.ToScaleMat4())
	gotT, gotR, gotS := m.Decompose()

	if !gotT.NearEquals(translation, 1e-9) {
		t.Fatalf("translation mismatch: got=%v want=%v", gotT, translation)
	}
	if !gotR.NearEquals(rotation, 1e-9) {
		t.Fatalf("rotation mismatch: got=%v want=%v", gotR, rotation)
	}
	if !gotS.NearEquals(scale, 1e-9) {
		t.Fatalf("scale mismatch: got=%v want=%v", gotS, scale)
	}
}

func TestMat4MulVec3MatchesQuaternion(t *testing.T) {
	rotation := NewQuaternionFromAxisAngle(UNIT_Y_VEC3, 0.4)
	v := NewVec3(0.3, 1.5, -2)
	got := rotation.ToMat4().MulVec3(v)
	want := rotation.MulVec3(v)
	if !got.NearEquals(want, 1e-9) {
		t.Fatalf("matrix and quaternion rotation disagree: got=%v want=%v", got, want)
	}
	if inv := rotation.ToMat4().Inverted().Muled(rotation.ToMat4()); !inv.NearEquals(NewMat4(), 1e-9) {
		t.Fatalf("inverse product should be identity")
	}
}
