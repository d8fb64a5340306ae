package object

import "unsafe"

// UserinfoObj is a host value managed like any other reference-counted
// object: a host-supplied class descriptor (equal/compare/hash/destroy)
// plus an opaque payload pointer the runtime never interprets itself.
type UserinfoObj struct {
	TypeName string
	Payload  unsafe.Pointer
	class    *Class
}

// NewStrongUserinfo wraps a host pointer in a managed object governed
// by a host-supplied class. Unlike WeakUserinfo, this participates in
// retain/release like any other heap value.
func NewStrongUserinfo(typeName string, payload unsafe.Pointer, hostClass *Class) Value {
	u := &UserinfoObj{TypeName: typeName, Payload: payload, class: hostClass}
	wrapperClass := &Class{
		Name: "userinfo:" + typeName,
		Equal: func(a, b unsafe.Pointer) bool {
			ua, ub := (*UserinfoObj)(a), (*UserinfoObj)(b)
			if ua.class.Equal == nil {
				return a == b
			}
			return ua.class.Equal(ua.Payload, ub.Payload)
		},
		Hash: func(p unsafe.Pointer) uint64 {
			ui := (*UserinfoObj)(p)
			if ui.class.Hash == nil {
				return hashUint64(uint64(uintptr(ui.Payload)))
			}
			return ui.class.Hash(ui.Payload)
		},
		Destructor: func(p unsafe.Pointer) {
			ui := (*UserinfoObj)(p)
			if ui.class.Destructor != nil {
				ui.class.Destructor(ui.Payload)
			}
		},
	}
	return FromObject(KindStrongUserinfo, newObject(wrapperClass, unsafe.Pointer(u)))
}

func (u *UserinfoObj) String() string {
	return "<userinfo " + u.TypeName + ">"
}
