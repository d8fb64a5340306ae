package object

import "testing"

func TestRetainReleaseSymmetryLeavesRefcountUnchanged(t *testing.T) {
	s := NewString("hello")
	before := s.Object().RefCount()
	r := Retain(s)
	Release(r)
	after := s.Object().RefCount()
	if before != after {
		t.Fatalf("retain then release changed refcount: %d -> %d", before, after)
	}
}

func TestReleaseToZeroRunsDestructor(t *testing.T) {
	inner := NewString("inner")
	arr := NewArray()
	arr.AsArray().Push(inner)
	// the array now owns a second reference to inner
	if inner.Object().RefCount() != 2 {
		t.Fatalf("expected refcount 2 after Push, got %d", inner.Object().RefCount())
	}
	Release(arr)
	if inner.Object().RefCount() != 1 {
		t.Fatalf("expected the array's release to drop inner back to 1, got %d", inner.Object().RefCount())
	}
}

func TestArraySetGetRoundtrip(t *testing.T) {
	a := NewArray()
	ContainerSet(a, Int(0), Int(10))
	ContainerSet(a, Int(1), Int(20))
	if got := ContainerGet(a, Int(0)); !Equal(got, Int(10)) {
		t.Fatalf("got %s, want 10", got.String())
	}
	if got := ContainerGet(a, Int(1)); !Equal(got, Int(20)) {
		t.Fatalf("got %s, want 20", got.String())
	}
	if ContainerLen(a) != 2 {
		t.Fatalf("expected len 2, got %d", ContainerLen(a))
	}
}

func TestArrayOutOfRangeReadYieldsNil(t *testing.T) {
	a := NewArray()
	ContainerSet(a, Int(0), Int(1))
	if got := ContainerGet(a, Int(5)); !got.IsNil() {
		t.Fatalf("expected nil for an out-of-range read, got %s", got.String())
	}
}

// TestArrayPromotesToHashmapOnNonIntegerKey exercises the storage
// promotion that ContainerSet triggers when an array-backed value is
// written with a non-integer or negative key, without the Object
// pointer changing identity.
func TestArrayPromotesToHashmapOnNonIntegerKey(t *testing.T) {
	a := NewArray()
	ContainerSet(a, Int(0), Int(1))
	ContainerSet(a, Int(1), Int(2))
	obj := a.Object()

	ContainerSet(a, NewString("label"), Int(99))

	if a.Object() != obj {
		t.Fatalf("promotion must not change the Object's identity")
	}
	// a itself is an unaddressable copy from before the promotion,
	// so a.Kind still reads KindArray; KindOf resolves through the
	// shared Object's class instead and sees the promotion.
	if KindOf(a) != KindHashmap {
		t.Fatalf("expected KindOf to report hashmap after promotion, got %v", KindOf(a))
	}
	if got := ContainerGet(a, Int(0)); !Equal(got, Int(1)) {
		t.Fatalf("expected integer key 0 preserved after promotion, got %s", got.String())
	}
	if got := ContainerGet(a, Int(1)); !Equal(got, Int(2)) {
		t.Fatalf("expected integer key 1 preserved after promotion, got %s", got.String())
	}
	if got := ContainerGet(a, NewString("label")); !Equal(got, Int(99)) {
		t.Fatalf("expected the triggering key to be set after promotion, got %s", got.String())
	}
}

func TestArrayPromotesOnNegativeKey(t *testing.T) {
	a := NewArray()
	ContainerSet(a, Int(0), Int(1))
	ContainerSet(a, Int(-1), Int(42))
	if KindOf(a) != KindHashmap {
		t.Fatalf("expected promotion on a negative key, got %v", KindOf(a))
	}
	if got := ContainerGet(a, Int(-1)); !Equal(got, Int(42)) {
		t.Fatalf("got %s, want 42", got.String())
	}
}

func TestHashmapLiteralStaysHashmapRegardlessOfKeyShape(t *testing.T) {
	h := NewHashmap()
	ContainerSet(h, Int(0), Int(1))
	ContainerSet(h, Int(1), Int(2))
	if h.Kind != KindHashmap {
		t.Fatalf("a value created as a hashmap must stay a hashmap")
	}
}

func TestHashmapSurvivesHeavyDeleteChurn(t *testing.T) {
	h := NewHashmap()
	for i := 0; i < 200; i++ {
		ContainerSet(h, Int(int64(i)), Int(int64(i)))
	}
	for i := 0; i < 150; i++ {
		h.AsHashmap().Delete(Int(int64(i)))
	}
	if ContainerLen(h) != 50 {
		t.Fatalf("expected 50 live entries after churn, got %d", ContainerLen(h))
	}
	for i := 150; i < 200; i++ {
		if got := ContainerGet(h, Int(int64(i))); !Equal(got, Int(int64(i))) {
			t.Fatalf("lost surviving key %d after compaction: got %s", i, got.String())
		}
	}
}

func TestStringEquality(t *testing.T) {
	a := NewString("same")
	b := NewString("same")
	if !Equal(a, b) {
		t.Fatalf("two distinct StringObjs with equal contents must compare equal")
	}
}

func TestArrayIsNotHashable(t *testing.T) {
	a := NewArray()
	if Hashable(a) {
		t.Fatalf("arrays must not be usable as hashmap keys")
	}
}

func TestIntFloatEqualityCrossesKind(t *testing.T) {
	if !Equal(Int(3), Float(3.0)) {
		t.Fatalf("3 and 3.0 must compare equal across Kind")
	}
}

func TestTruthiness(t *testing.T) {
	falsy := []Value{Nil, False}
	for _, v := range falsy {
		if v.Truthy() {
			t.Fatalf("%s should be falsy", v.String())
		}
	}
	truthy := []Value{True, Int(0), NewString("")}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Fatalf("%s should be truthy", v.String())
		}
	}
}
