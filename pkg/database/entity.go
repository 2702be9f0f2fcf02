package database

// Entity is an opaque record of named fields. Repositories are generic over
// the field set; the only field with layer-level meaning is the primary key
// plus the timestamp/soft-delete fields named in Options.
type Entity map[string]any

// Clone returns a shallow copy. Nil stays nil-safe: cloning nil yields an
// empty Entity so callers can stamp fields into it.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e)+2)
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Merge shallow-merges src over e in place.
func (e Entity) Merge(src Entity) {
	for k, v := range src {
		e[k] = v
	}
}
