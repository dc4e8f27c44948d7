package metadata

// ordered is a string-keyed map that remembers insertion order.
// Overwriting a key keeps its original position.
type ordered[V any] struct {
	keys  []string
	items map[string]V
}

func newOrdered[V any]() *ordered[V] {
	return &ordered[V]{items: make(map[string]V)}
}

func (o *ordered[V]) get(key string) (V, bool) {
	v, ok := o.items[key]
	return v, ok
}

func (o *ordered[V]) put(key string, v V) {
	if _, ok := o.items[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.items[key] = v
}

func (o *ordered[V]) remove(key string) (V, bool) {
	v, ok := o.items[key]
	if !ok {
		return v, false
	}
	delete(o.items, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return v, true
}

func (o *ordered[V]) len() int {
	return len(o.keys)
}

// values returns a snapshot, so callers may mutate the map while ranging.
func (o *ordered[V]) values() []V {
	out := make([]V, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.items[k])
	}
	return out
}
