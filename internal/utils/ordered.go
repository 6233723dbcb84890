package utils

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// StringMap is an insertion-ordered string to string mapping. It is used
// wherever the emitted text must follow the order the caller gave.
type StringMap = orderedmap.OrderedMap[string, string]

// NewStringMap builds a StringMap from alternating keys and values.
// It panics on an odd number of arguments.
func NewStringMap(kv ...string) *StringMap {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("NewStringMap: odd number of arguments (%d)", len(kv)))
	}
	m := orderedmap.New[string, string]()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// StringMapLen is nil-safe Len.
func StringMapLen(m *StringMap) int {
	if m == nil {
		return 0
	}
	return m.Len()
}

// CloneStringMap returns a copy of m; a nil map clones to an empty one.
func CloneStringMap(m *StringMap) *StringMap {
	out := orderedmap.New[string, string]()
	if m == nil {
		return out
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}
