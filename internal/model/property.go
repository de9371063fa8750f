package model

import (
	"sort"
)

// PropertyBag is one connman service's property snapshot. Values are bool,
// string, []string, unsigned integers or nested PropertyBags.
type PropertyBag map[string]any

// Keys returns the bag's keys in sorted order
func (b PropertyBag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b PropertyBag) Bool(key string) bool {
	v, _ := b[key].(bool)
	return v
}

func (b PropertyBag) String(key string) string {
	v, _ := b[key].(string)
	return v
}

// Strings returns a string list value. JSON-decoded []any values are accepted.
// The result is never nil.
func (b PropertyBag) Strings(key string) []string {
	switch v := b[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// Uint returns an unsigned integer value. Negative or non-numeric values read as zero.
func (b PropertyBag) Uint(key string) uint64 {
	switch v := b[key].(type) {
	case uint8:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint32:
		return uint64(v)
	case uint64:
		return v
	case uint:
		return uint64(v)
	case int:
		if v > 0 {
			return uint64(v)
		}
	case int32:
		if v > 0 {
			return uint64(v)
		}
	case int64:
		if v > 0 {
			return uint64(v)
		}
	case float64:
		if v > 0 {
			return uint64(v)
		}
	}
	return 0
}

// Bag returns a nested bag, or an empty one when the key is missing.
func (b PropertyBag) Bag(key string) PropertyBag {
	switch v := b[key].(type) {
	case PropertyBag:
		return v
	case map[string]any:
		return PropertyBag(v)
	}
	return PropertyBag{}
}

// Clone deep-copies the bag, including nested bags and string lists.
func (b PropertyBag) Clone() PropertyBag {
	if b == nil {
		return PropertyBag{}
	}
	out := make(PropertyBag, len(b))
	for k, v := range b {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case PropertyBag:
		return t.Clone()
	case map[string]any:
		return PropertyBag(t).Clone()
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
