package scheduler

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Options is an insertion-ordered set of sbatch directives (key without the
// leading "--" -> value). Directive lines are written in this order.
type Options struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewOptions returns an empty option set.
func NewOptions() *Options {
	return &Options{m: orderedmap.New[string, string]()}
}

// OptionsFromPairs builds Options from alternating keys and values.
func OptionsFromPairs(kv ...any) *Options {
	o := NewOptions()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return o
}

func normalizeKey(key string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), "--")
}

// Set adds or replaces a directive; a replaced key keeps its position.
// Values are stringified with fmt.
func (o *Options) Set(key string, value any) *Options {
	o.m.Set(normalizeKey(key), fmt.Sprint(value))
	return o
}

// Get returns the value of key.
func (o *Options) Get(key string) (string, bool) {
	if o == nil {
		return "", false
	}
	return o.m.Get(normalizeKey(key))
}

// Has reports whether key is set.
func (o *Options) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Delete removes key.
func (o *Options) Delete(key string) {
	if o == nil {
		return
	}
	o.m.Delete(normalizeKey(key))
}

// Len returns the number of directives.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return o.m.Len()
}

// Keys returns the directive names in order.
func (o *Options) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, o.m.Len())
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Merge applies other on top of o, key by key: values from other win,
// existing keys keep their position and new keys are appended.
func (o *Options) Merge(other *Options) *Options {
	if other == nil {
		return o
	}
	for pair := other.m.Oldest(); pair != nil; pair = pair.Next() {
		o.m.Set(pair.Key, pair.Value)
	}
	return o
}

// Clone returns an independent copy.
func (o *Options) Clone() *Options {
	return NewOptions().Merge(o)
}

// Map returns a plain map copy, losing order.
func (o *Options) Map() map[string]string {
	out := make(map[string]string, o.Len())
	if o == nil {
		return out
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// Directives returns the `--key=value` strings in order.
func (o *Options) Directives() []string {
	if o == nil {
		return nil
	}
	out := make([]string, 0, o.m.Len())
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, fmt.Sprintf("--%s=%s", pair.Key, pair.Value))
	}
	return out
}

func (o *Options) String() string {
	return strings.Join(o.Directives(), " ")
}
