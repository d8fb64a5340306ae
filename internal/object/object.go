package object

import "unsafe"

// Class is the descriptor every heap object's header points to. It
// mirrors the original runtime's class table: equality is mandatory,
// ordering and hashing are optional (absence of compare means the class
// is unordered; absence of hash means values of that class cannot be
// used as hashmap keys).
type Class struct {
	Name       string
	Equal      func(a, b unsafe.Pointer) bool
	Compare    func(a, b unsafe.Pointer) (int, bool) // ok=false: unordered
	Hash       func(p unsafe.Pointer) uint64
	Destructor func(p unsafe.Pointer)
}

// Object is the common header every reference-counted heap value
// embeds. The destructor given to Class must never free the Object
// itself; Release does that once the count reaches zero.
type Object struct {
	class    *Class
	refcount uint32
	payload  unsafe.Pointer
}

func newObject(class *Class, payload unsafe.Pointer) *Object {
	return &Object{class: class, refcount: 1, payload: payload}
}

// Class reports the object's class descriptor.
func (o *Object) Class() *Class { return o.class }

// RefCount reports the current reference count, for tests.
func (o *Object) RefCount() uint32 { return o.refcount }

// Retain increments the object's reference count.
func (o *Object) Retain() {
	o.refcount++
}

// Release decrements the object's reference count, invoking the
// class destructor and freeing the header once it reaches zero.
func (o *Object) Release() {
	o.refcount--
	if o.refcount == 0 && o.class.Destructor != nil {
		o.class.Destructor(o.payload)
	}
}

// Equal implements value equality. Numbers compare by numeric value
// across int and float; objects need the same class, and either pointer
// identity or the class's Equal predicate.
func Equal(a, b Value) bool {
	ak, bk := KindOf(a), KindOf(b)
	if ak != bk && !(a.IsNumber() && b.IsNumber()) {
		return false
	}
	switch ak {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		if b.Kind == KindFloat {
			return float64(a.i) == b.f
		}
		return a.i == b.i
	case KindFloat:
		return a.f == b.AsFloat()
	case KindWeakUserinfo:
		return a.ptr == b.ptr
	default:
		if a.obj == b.obj {
			return true
		}
		if a.obj == nil || b.obj == nil || a.obj.class != b.obj.class {
			return false
		}
		if a.obj.class.Equal == nil {
			return false
		}
		return a.obj.class.Equal(a.obj.payload, b.obj.payload)
	}
}

// Comparable reports whether a and b may be ordered against each other:
// both numbers, or both objects of a common class that supplies Compare.
func Comparable(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return true
	}
	if a.obj == nil || b.obj == nil || a.obj.class != b.obj.class {
		return false
	}
	return a.obj.class.Compare != nil
}

// Compare orders a against b; callers must check Comparable first.
func Compare(a, b Value) int {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat(), b.AsFloat()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	n, _ := a.obj.class.Compare(a.obj.payload, b.obj.payload)
	return n
}

// Hashable reports whether v may be used as a hashmap key. Neither
// arrayClass nor hashmapClass defines Hash, so containers are rejected
// through the same class check as everything else; no special case
// needed, and none that could go stale across a promotion.
func Hashable(v Value) bool {
	if v.obj == nil {
		return true
	}
	return v.obj.class.Hash != nil
}

// Hash computes the hash of v; callers must check Hashable first.
func Hash(v Value) uint64 {
	switch v.Kind {
	case KindNil:
		return 0
	case KindBool:
		if v.b {
			return 1
		}
		return 2
	case KindInt:
		return hashUint64(uint64(v.i))
	case KindFloat:
		return hashUint64(uint64(v.f))
	case KindWeakUserinfo:
		return hashUint64(uint64(v.ptr))
	default:
		if v.obj == nil {
			return 0
		}
		return v.obj.class.Hash(v.obj.payload)
	}
}

func hashUint64(x uint64) uint64 {
	// splitmix64 finalizer; deterministic and fast.
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
