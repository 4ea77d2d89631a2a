package types

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestMatrixInverse(t *testing.T) {
	m := TRS(Vec3{1, -2, 3}, QuatFromEuler(Vec3{30, 45, 60}), Vec3{2, 3, 0.5})
	inv, ok := m.Inv()
	if !ok {
		t.Fatal("expected TRS matrix to be invertible")
	}

	prod := m.Mul4(inv)
	ident := Ident4()
	for i := range prod {
		if !approx(prod[i], ident[i]) {
			t.Fatalf("expected M * M^-1 to be the identity; element %d is %f", i, prod[i])
		}
	}

	if !approx(m.Det(), 3) {
		t.Fatalf("expected determinant 3; got %f", m.Det())
	}

	if _, ok = Scale4(Vec3{1, 0, 1}).Inv(); ok {
		t.Fatal("expected singular matrix inversion to fail")
	}
}

func TestTRSAppliesScaleRotateTranslate(t *testing.T) {
	m := TRS(Vec3{10, 0, 0}, QuatFromEuler(Vec3{0, 90, 0}), Vec3{2, 2, 2})

	got := m.MulPoint(Vec3{1, 0, 0})
	if !got.ApproxEqual(Vec3{10, 0, -2}, 1e-5) {
		t.Fatalf("expected (10, 0, -2); got %v", got)
	}

	dir := m.MulDir(Vec3{0, 0, 1})
	if !dir.ApproxEqual(Vec3{2, 0, 0}, 1e-5) {
		t.Fatalf("expected directions to ignore translation; got %v", dir)
	}

	if m.Translation() != (Vec3{10, 0, 0}) {
		t.Fatalf("expected translation (10, 0, 0); got %v", m.Translation())
	}
}

func TestQuatRotateMatchesMatrix(t *testing.T) {
	q := QuatFromEuler(Vec3{15, -70, 110})
	m := q.Mat4()
	v := Vec3{0.3, -1.2, 4}

	if a, b := q.Rotate(v), m.MulDir(v); !a.ApproxEqual(b, 1e-4) {
		t.Fatalf("expected quaternion and matrix rotation to agree; got %v and %v", a, b)
	}
	if !approx(q.Len(), 1) {
		t.Fatalf("expected unit quaternion; got length %f", q.Len())
	}
	if (Quat{}).Normalize() != QuatIdent() {
		t.Fatal("expected zero quaternion to normalize to the identity")
	}
}

func TestTransformBBox(t *testing.T) {
	m := TRS(Vec3{0, 5, 0}, QuatFromEuler(Vec3{0, 0, 90}), Vec3{1, 1, 1})
	bbox := m.TransformBBox([2]Vec3{{0, 0, 0}, {2, 1, 1}})

	if !bbox[0].ApproxEqual(Vec3{-1, 5, 0}, 1e-5) || !bbox[1].ApproxEqual(Vec3{0, 7, 1}, 1e-5) {
		t.Fatalf("unexpected transformed bbox %v", bbox)
	}
}

func TestVectorHelpers(t *testing.T) {
	if a := (Vec3{1, 0, 0}).Angle(Vec3{0, 0, 1}); !approx(a, 90) {
		t.Fatalf("expected 90 degrees; got %f", a)
	}
	if a := (Vec3{}).Angle(Vec3{0, 0, 1}); a != 0 {
		t.Fatalf("expected zero vector angle to be 0; got %f", a)
	}
	if n := (Vec3{}).Normalize(); n != (Vec3{}) {
		t.Fatalf("expected zero vector to normalize to zero; got %v", n)
	}
	if c := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); c != (Vec3{0, 0, 1}) {
		t.Fatalf("expected +Z; got %v", c)
	}
	if axis := (Vec3{1, 5, 2}).MaxAxis(); axis != 1 {
		t.Fatalf("expected max axis 1; got %d", axis)
	}
	if v := Clamp(5, 0, 1); v != 1 {
		t.Fatalf("expected clamp to 1; got %f", v)
	}
	if v := Lerp(2, 4, 0.25); v != 2.5 {
		t.Fatalf("expected 2.5; got %f", v)
	}
}
