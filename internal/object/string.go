package object

import (
	"hash/fnv"
	"unsafe"
)

// StringObj is an immutable byte string with a lazily-computed, cached
// hash. Equality is by content.
type StringObj struct {
	Value  string
	hashed bool
	hash   uint64
}

var stringClass = &Class{
	Name: "string",
	Equal: func(a, b unsafe.Pointer) bool {
		return (*StringObj)(a).Value == (*StringObj)(b).Value
	},
	Compare: func(a, b unsafe.Pointer) (int, bool) {
		as, bs := (*StringObj)(a).Value, (*StringObj)(b).Value
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	},
	Hash: func(p unsafe.Pointer) uint64 {
		return (*StringObj)(p).hashCached()
	},
}

func (s *StringObj) hashCached() uint64 {
	if !s.hashed {
		h := fnv.New64a()
		h.Write([]byte(s.Value))
		s.hash = h.Sum64()
		s.hashed = true
	}
	return s.hash
}

func (s *StringObj) Len() int { return len(s.Value) }

func (s *StringObj) String() string { return s.Value }

// NewString allocates a new string object wrapped in a Value with
// refcount 1.
func NewString(v string) Value {
	s := &StringObj{Value: v}
	return FromObject(KindString, newObject(stringClass, unsafe.Pointer(s)))
}

// Concat builds a new string value from the concatenation of a and b.
// Per the current policy, `a .. b .. c` still lowers to one CONCAT per
// operator rather than a single multi-way join; this stays associative
// and order-preserving regardless.
func Concat(a, b Value) Value {
	return NewString(a.AsString().Value + b.AsString().Value)
}
