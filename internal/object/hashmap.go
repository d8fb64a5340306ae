package object

import (
	"strings"
	"unsafe"
)

type mapSlot struct {
	used      bool
	tombstone bool
	key       Value
	val       Value
}

// HashmapObj is an open-addressing hash table keyed by any hashable
// value. Deletions leave tombstones; once tombstones make up too large
// a fraction of the table it is rehashed into a fresh table of the same
// live-entry count, which is what keeps lookup amortized O(1) instead of
// degrading to linear probing through a wall of dead slots after heavy
// delete traffic — the regression this type exists to prevent.
type HashmapObj struct {
	slots     []mapSlot
	count     int // live entries
	tombs     int
}

var hashmapClass = &Class{
	Name: "hashmap",
	Equal: func(a, b unsafe.Pointer) bool {
		return a == b
	},
	Destructor: func(p unsafe.Pointer) {
		m := (*HashmapObj)(p)
		for _, s := range m.slots {
			if s.used && !s.tombstone {
				Release(s.key)
				Release(s.val)
			}
		}
	},
}

const minHashmapCap = 8

// NewHashmap allocates an empty hashmap.
func NewHashmap() Value {
	m := &HashmapObj{slots: make([]mapSlot, minHashmapCap)}
	return FromObject(KindHashmap, newObject(hashmapClass, unsafe.Pointer(m)))
}

func (m *HashmapObj) Len() int { return m.count }

func (m *HashmapObj) find(key Value, h uint64) (idx int, found bool) {
	n := len(m.slots)
	mask := uint64(n - 1)
	i := h & mask
	for probed := 0; probed < n; probed++ {
		s := &m.slots[i]
		if !s.used {
			return int(i), false
		}
		if !s.tombstone && Equal(s.key, key) {
			return int(i), true
		}
		i = (i + 1) & mask
	}
	return -1, false
}

// Get looks up key; missing keys yield nil.
func (m *HashmapObj) Get(key Value) Value {
	if !Hashable(key) {
		return Nil
	}
	idx, found := m.find(key, Hash(key))
	if !found {
		return Nil
	}
	return m.slots[idx].val
}

// Set inserts or overwrites key -> val.
func (m *HashmapObj) Set(key, val Value) {
	if !Hashable(key) {
		return
	}
	m.maybeGrow()
	h := Hash(key)
	idx, found := m.find(key, h)
	if found {
		Release(m.slots[idx].val)
		m.slots[idx].val = Retain(val)
		return
	}
	m.insertFresh(key, val, h)
}

func (m *HashmapObj) insertFresh(key, val Value, h uint64) {
	n := len(m.slots)
	mask := uint64(n - 1)
	i := h & mask
	for {
		s := &m.slots[i]
		if !s.used || s.tombstone {
			if s.tombstone {
				m.tombs--
			}
			*s = mapSlot{used: true, key: Retain(key), val: Retain(val)}
			m.count++
			return
		}
		i = (i + 1) & mask
	}
}

// Delete removes key if present, leaving a tombstone behind.
func (m *HashmapObj) Delete(key Value) {
	if !Hashable(key) {
		return
	}
	idx, found := m.find(key, Hash(key))
	if !found {
		return
	}
	Release(m.slots[idx].key)
	Release(m.slots[idx].val)
	m.slots[idx] = mapSlot{used: true, tombstone: true}
	m.count--
	m.tombs++
	m.maybeCompact()
}

// maybeGrow doubles capacity once the table is more than half full
// counting both live entries and tombstones, which is the usual
// open-addressing load-factor trigger.
func (m *HashmapObj) maybeGrow() {
	if (m.count+m.tombs+1)*2 <= len(m.slots) {
		return
	}
	m.rehash(len(m.slots) * 2)
}

// maybeCompact rehashes once tombstones reach a quarter of the table,
// halving the capacity (down to minHashmapCap) while live entries fill
// less than a quarter of it, so a long run of deletes cannot leave
// lookup probing through an ever-growing tail of dead slots.
func (m *HashmapObj) maybeCompact() {
	if m.tombs*4 < len(m.slots) {
		return
	}
	cap := len(m.slots)
	for cap > minHashmapCap && m.count*4 < cap {
		cap /= 2
	}
	m.rehash(cap)
}

func (m *HashmapObj) rehash(newCap int) {
	old := m.slots
	m.slots = make([]mapSlot, newCap)
	m.count = 0
	m.tombs = 0
	for _, s := range old {
		if s.used && !s.tombstone {
			m.insertFresh(s.key, s.val, Hash(s.key))
			Release(s.key)
			Release(s.val)
		}
	}
}

// Keys returns the live keys in an unspecified but stable order.
func (m *HashmapObj) Keys() []Value {
	out := make([]Value, 0, m.count)
	for _, s := range m.slots {
		if s.used && !s.tombstone {
			out = append(out, s.key)
		}
	}
	return out
}

func (m *HashmapObj) String() string {
	parts := make([]string, 0, m.count)
	for _, s := range m.slots {
		if s.used && !s.tombstone {
			parts = append(parts, s.key.String()+": "+s.val.String())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
