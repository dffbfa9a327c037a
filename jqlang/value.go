// Package jqlang implements a practical subset of jq: field/index/slice
// access, the `|` and `,` combinators, array/object construction,
// arithmetic and comparison operators, if/then/elif/else/end, and the
// common builtin functions (length, keys, values, has, type, select, map,
// add, sort, reverse, min, max, range, and the rest builtins.go lists).
//
// Its value model keeps object keys in the order they were read: Decode
// walks encoding/json's token stream instead of unmarshaling into a
// plain map[string]interface{} (which Go randomizes the order of), and
// [Object] keeps an explicit key slice alongside the lookup map. (The
// syntax/typedjson package, used for the shell's AST dump flag, decodes
// through such a map and takes its field order from the Go structs.) The filter lexer/parser/evaluator are written in the
// same tree-walking idiom as package awk.
package jqlang

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is a decoded JSON value: nil, bool, float64, string, []Value, or
// *Object.
type Value interface{}

// Object is a JSON object that remembers the order its keys were read or
// constructed in, the same invariant typedjson's reflection-based encoder
// preserves for shell syntax trees.
type Object struct {
	keys []string
	vals map[string]Value
}

func NewObject() *Object {
	return &Object{vals: map[string]Value{}}
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

func (o *Object) Set(key string, v Value) {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

func (o *Object) Keys() []string { return o.keys }

func (o *Object) Len() int { return len(o.keys) }

func (o *Object) Clone() *Object {
	cp := &Object{keys: append([]string(nil), o.keys...), vals: make(map[string]Value, len(o.vals))}
	for k, v := range o.vals {
		cp.vals[k] = v
	}
	return cp
}

func isTruthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}

func typeName(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []Value:
		return "array"
	case *Object:
		return "object"
	default:
		return "unknown"
	}
}

// Encode renders v as compact JSON text, walking the value tree directly
// instead of going through encoding/json.Marshal so that *Object's key
// order is honored (encoding/json would otherwise need a MarshalJSON
// method doing the same walk, so this is the simpler route for a value
// model this package already owns end to end).
func Encode(v Value) string {
	var b strings.Builder
	encodeInto(&b, v)
	return b.String()
}

// EncodeIndent renders v as pretty-printed JSON with two-space indentation,
// jq's default output form.
func EncodeIndent(v Value) string {
	var b strings.Builder
	encodeIndentInto(&b, v, 0)
	return b.String()
}

func encodeIndentInto(b *strings.Builder, v Value, depth int) {
	writeIndent := func(n int) {
		for range n {
			b.WriteString("  ")
		}
	}
	switch x := v.(type) {
	case []Value:
		if len(x) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, e := range x {
			writeIndent(depth + 1)
			encodeIndentInto(b, e, depth+1)
			if i < len(x)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(depth)
		b.WriteByte(']')
	case *Object:
		if len(x.keys) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, k := range x.keys {
			writeIndent(depth + 1)
			b.WriteString(quoteJSON(k))
			b.WriteString(": ")
			encodeIndentInto(b, x.vals[k], depth+1)
			if i < len(x.keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(depth)
		b.WriteByte('}')
	default:
		encodeInto(b, v)
	}
}

func encodeInto(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case float64:
		b.WriteString(formatNumber(x))
	case string:
		b.WriteString(quoteJSON(x))
	case []Value:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeInto(b, e)
		}
		b.WriteByte(']')
	case *Object:
		b.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteJSON(k))
			b.WriteByte(':')
			encodeInto(b, x.vals[k])
		}
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
}

// formatNumber prints integral floats with magnitude below 1e15 without a
// trailing ".0", and every other number in strconv's shortest 'g' form
// (so 1e15 prints as 1e+15 and 0.00001 as 1e-05, unlike encoding/json),
// since jq numbers are always float64 underneath.
func formatNumber(f float64) string {
	if f == float64(int64(f)) && f > -1e15 && f < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func quoteJSON(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func sortValues(vs []Value) []Value {
	out := append([]Value(nil), vs...)
	sort.SliceStable(out, func(i, j int) bool { return compareValues(out[i], out[j]) < 0 })
	return out
}

// compareValues implements jq's cross-type ordering: null < false < true <
// numbers < strings < arrays < objects, with same-type values compared
// structurally.
func compareValues(a, b Value) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case nil:
		return 0
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return strings.Compare(av, b.(string))
	case []Value:
		bv := b.([]Value)
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := compareValues(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return len(av) - len(bv)
	case *Object:
		bv := b.(*Object)
		ak := append([]string(nil), av.keys...)
		bk := append([]string(nil), bv.keys...)
		sort.Strings(ak)
		sort.Strings(bk)
		for i := 0; i < len(ak) && i < len(bk); i++ {
			if c := strings.Compare(ak[i], bk[i]); c != 0 {
				return c
			}
		}
		if len(ak) != len(bk) {
			return len(ak) - len(bk)
		}
		for _, k := range ak {
			av1, _ := av.Get(k)
			bv1, _ := bv.Get(k)
			if c := compareValues(av1, bv1); c != 0 {
				return c
			}
		}
		return 0
	}
	return 0
}

func typeRank(v Value) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	case []Value:
		return 4
	case *Object:
		return 5
	default:
		return 6
	}
}
