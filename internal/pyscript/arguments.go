package pyscript

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Arguments is the keyword-argument mapping of a call. Insertion order is
// the order the keywords appear in the rendered call.
type Arguments struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewArguments returns an empty argument mapping.
func NewArguments() *Arguments {
	return &Arguments{m: orderedmap.New[string, any]()}
}

// Set adds or replaces an argument. Replacing keeps the original position.
func (a *Arguments) Set(name string, value any) *Arguments {
	a.m.Set(name, value)
	return a
}

// Get returns the value bound to name.
func (a *Arguments) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	return a.m.Get(name)
}

// Has reports whether name is bound.
func (a *Arguments) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Delete removes name and returns its previous value.
func (a *Arguments) Delete(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	return a.m.Delete(name)
}

// Len returns the number of arguments.
func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return a.m.Len()
}

// Keys returns the argument names in order.
func (a *Arguments) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, 0, a.m.Len())
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each calls fn for every argument in order, stopping at the first error.
func (a *Arguments) Each(fn func(name string, value any) error) error {
	if a == nil {
		return nil
	}
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		if err := fn(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a shallow copy; values are shared.
func (a *Arguments) Clone() *Arguments {
	out := NewArguments()
	if a == nil {
		return out
	}
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		out.m.Set(pair.Key, pair.Value)
	}
	return out
}
