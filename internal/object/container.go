package object

import "unsafe"

// ContainerLen reports the element count of an array or hashmap value.
func ContainerLen(v Value) int {
	switch KindOf(v) {
	case KindArray:
		return v.AsArray().Len()
	case KindHashmap:
		return v.AsHashmap().Len()
	default:
		return 0
	}
}

// ContainerGet reads key from an array- or hashmap-backed value.
// Indexing an array with a non-integer key yields nil rather than
// promoting storage; only writes trigger promotion. KindOf, not v.Kind,
// decides which branch runs: v may have been created as an array and
// promoted to hashmap storage since, through a different alias of the
// same Object.
func ContainerGet(v Value, key Value) Value {
	switch KindOf(v) {
	case KindArray:
		if key.Kind != KindInt {
			return Nil
		}
		return v.AsArray().Get(key.AsInt())
	case KindHashmap:
		return v.AsHashmap().Get(key)
	default:
		return Nil
	}
}

// ContainerSet writes key -> val into an array- or hashmap-backed
// value. An array-backed value receiving a non-integer or negative key
// is promoted to hashmap storage in place, so every other Value still
// pointing at the same Object observes the same representation change
// the next time it's read through KindOf.
func ContainerSet(v Value, key, val Value) {
	switch KindOf(v) {
	case KindArray:
		if key.Kind == KindInt && key.AsInt() >= 0 {
			v.AsArray().Set(key.AsInt(), val)
			return
		}
		promoteArrayToHashmap(v)
		v.AsHashmap().Set(key, val)
	case KindHashmap:
		v.AsHashmap().Set(key, val)
	}
}

// promoteArrayToHashmap rewrites v's Object in place from array-backed
// to hashmap-backed storage, index i becoming integer key i. The
// Object pointer itself never changes, so aliases of v keep working.
func promoteArrayToHashmap(v Value) {
	obj := v.obj
	arr := (*ArrayObj)(obj.payload)
	hm := &HashmapObj{slots: make([]mapSlot, minHashmapCap)}
	for i, elem := range arr.elems {
		hm.Set(Int(int64(i)), elem)
		Release(elem) // cancel the array's ownership; hm.Set just retained its own
	}
	obj.class = hashmapClass
	obj.payload = unsafe.Pointer(hm)
}
