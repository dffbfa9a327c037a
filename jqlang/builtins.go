package jqlang

import (
	"math"
	"strconv"
	"strings"
)

// evalBuiltin dispatches a FuncCall to either a builtin that evaluates its
// filter arguments itself (select, map, sort_by, sub, ...) or a value
// builtin, mirroring
// the switch-on-name shape package awk's evalBuiltin uses for its own
// builtin set.
func (ev *evaluator) evalBuiltin(c FuncCall, v Value) ([]Value, error) {
	switch c.Name {
	case "empty":
		return nil, nil
	case "error":
		if len(c.Args) == 1 {
			vs, err := ev.eval(c.Args[0], v)
			if err != nil {
				return nil, err
			}
			if len(vs) > 0 {
				return nil, errf("%v", vs[0])
			}
		}
		return nil, errf("jq: error")
	case "not":
		return []Value{!isTruthy(v)}, nil
	case "select":
		if len(c.Args) != 1 {
			return nil, errf("jq: select/1 requires one argument")
		}
		conds, err := ev.eval(c.Args[0], v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, cv := range conds {
			if isTruthy(cv) {
				out = append(out, v)
			}
		}
		return out, nil
	case "map":
		if len(c.Args) != 1 {
			return nil, errf("jq: map/1 requires one argument")
		}
		items, err := iterateAll(v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, item := range items {
			vs, err := ev.eval(c.Args[0], item)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return []Value{out}, nil
	case "map_values":
		if len(c.Args) != 1 {
			return nil, errf("jq: map_values/1 requires one argument")
		}
		return ev.evalMapValues(c.Args[0], v)
	case "recurse":
		return ev.recurse(v)
	case "range":
		return ev.evalRange(c.Args, v)
	case "sort_by":
		if len(c.Args) != 1 {
			return nil, errf("jq: sort_by/1 requires one argument")
		}
		return ev.sortBy(c.Args[0], v)
	case "group_by":
		if len(c.Args) != 1 {
			return nil, errf("jq: group_by/1 requires one argument")
		}
		return ev.groupBy(c.Args[0], v)
	case "tostring":
		return []Value{toJQString(v)}, nil
	case "tonumber":
		return []Value{toJQNumber(v)}, nil
	case "sub", "gsub":
		return ev.subFilter(c.Name, c, v)
	}

	args := make([][]Value, len(c.Args))
	for i, a := range c.Args {
		vs, err := ev.eval(a, v)
		if err != nil {
			return nil, err
		}
		args[i] = vs
	}
	return ev.evalValueBuiltin(c.Name, args, v)
}

func (ev *evaluator) evalMapValues(filter Filter, v Value) ([]Value, error) {
	switch x := v.(type) {
	case []Value:
		var out []Value
		for _, item := range x {
			vs, err := ev.eval(filter, item)
			if err != nil {
				return nil, err
			}
			if len(vs) > 0 {
				out = append(out, vs[0])
			}
		}
		return []Value{out}, nil
	case *Object:
		out := NewObject()
		for _, k := range x.Keys() {
			item, _ := x.Get(k)
			vs, err := ev.eval(filter, item)
			if err != nil {
				return nil, err
			}
			if len(vs) > 0 {
				out.Set(k, vs[0])
			}
		}
		return []Value{out}, nil
	default:
		return nil, errf("jq: map_values input must be array or object, got %s", typeName(v))
	}
}

func (ev *evaluator) recurse(v Value) ([]Value, error) {
	out := []Value{v}
	switch x := v.(type) {
	case []Value:
		for _, e := range x {
			sub, err := ev.recurse(e)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	case *Object:
		for _, k := range x.Keys() {
			e, _ := x.Get(k)
			sub, err := ev.recurse(e)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func (ev *evaluator) evalRange(args []Filter, v Value) ([]Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, errf("jq: range requires one or two arguments")
	}
	var fromVals, toVals []Value
	var err error
	if len(args) == 1 {
		fromVals = []Value{0.0}
		toVals, err = ev.eval(args[0], v)
	} else {
		fromVals, err = ev.eval(args[0], v)
		if err == nil {
			toVals, err = ev.eval(args[1], v)
		}
	}
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, fv := range fromVals {
		from, ok := fv.(float64)
		if !ok {
			return nil, errf("jq: range bounds must be numbers")
		}
		for _, tv := range toVals {
			to, ok := tv.(float64)
			if !ok {
				return nil, errf("jq: range bounds must be numbers")
			}
			for i := from; i < to; i++ {
				out = append(out, i)
			}
		}
	}
	return out, nil
}

func toJQString(v Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	return Encode(v)
}

func toJQNumber(v Value) Value {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func splitString(s, sep string) []Value {
	if sep == "" {
		var out []Value
		for _, r := range s {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(s, sep)
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

// evalValueBuiltin handles builtins whose arguments are evaluated as plain
// value streams up front (length, keys, has, type, and the rest). Most of
// them use only the first value of each argument stream; contains yields
// one result per value of its argument. No cartesian product across
// argument streams is formed.
func (ev *evaluator) evalValueBuiltin(name string, args [][]Value, v Value) ([]Value, error) {
	switch name {
	case "length":
		n, err := jqLength(v)
		if err != nil {
			return nil, err
		}
		return []Value{n}, nil
	case "utf8bytelength":
		s, ok := v.(string)
		if !ok {
			return nil, errf("jq: utf8bytelength input must be a string")
		}
		return []Value{float64(len(s))}, nil
	case "keys", "keys_unsorted":
		ks, err := jqKeys(v, name == "keys")
		if err != nil {
			return nil, err
		}
		return []Value{ks}, nil
	case "values":
		switch x := v.(type) {
		case []Value:
			return []Value{append([]Value{}, x...)}, nil
		case *Object:
			out := make([]Value, 0, x.Len())
			for _, k := range x.Keys() {
				val, _ := x.Get(k)
				out = append(out, val)
			}
			return []Value{out}, nil
		default:
			return nil, errf("jq: values input must be array or object")
		}
	case "has":
		if len(args) != 1 || len(args[0]) == 0 {
			return nil, errf("jq: has/1 requires one argument")
		}
		return jqHas(v, args[0][0])
	case "contains":
		if len(args) != 1 || len(args[0]) == 0 {
			return nil, errf("jq: contains/1 requires one argument")
		}
		var out []Value
		for _, needle := range args[0] {
			out = append(out, jqContains(v, needle))
		}
		return out, nil
	case "type":
		return []Value{typeName(v)}, nil
	case "add":
		return []Value{jqAdd(v)}, nil
	case "any":
		return []Value{jqAny(v)}, nil
	case "all":
		return []Value{jqAll(v)}, nil
	case "flatten":
		depth := -1
		if len(args) == 1 && len(args[0]) > 0 {
			if n, ok := args[0][0].(float64); ok {
				depth = int(n)
			}
		}
		arr, ok := v.([]Value)
		if !ok {
			return nil, errf("jq: flatten input must be an array")
		}
		return []Value{jqFlatten(arr, depth)}, nil
	case "sort":
		arr, ok := v.([]Value)
		if !ok {
			return nil, errf("jq: sort input must be an array")
		}
		return []Value{sortValues(arr)}, nil
	case "unique":
		arr, ok := v.([]Value)
		if !ok {
			return nil, errf("jq: unique input must be an array")
		}
		return []Value{jqUnique(sortValues(arr))}, nil
	case "reverse":
		arr, ok := v.([]Value)
		if !ok {
			return nil, errf("jq: reverse input must be an array")
		}
		out := make([]Value, len(arr))
		for i, e := range arr {
			out[len(arr)-1-i] = e
		}
		return []Value{out}, nil
	case "min":
		return []Value{jqMinMax(v, true)}, nil
	case "max":
		return []Value{jqMinMax(v, false)}, nil
	case "floor":
		n, err := numArg(v)
		if err != nil {
			return nil, err
		}
		return []Value{math.Floor(n)}, nil
	case "ceil":
		n, err := numArg(v)
		if err != nil {
			return nil, err
		}
		return []Value{math.Ceil(n)}, nil
	case "round":
		n, err := numArg(v)
		if err != nil {
			return nil, err
		}
		return []Value{math.Round(n)}, nil
	case "sqrt":
		n, err := numArg(v)
		if err != nil {
			return nil, err
		}
		return []Value{math.Sqrt(n)}, nil
	case "fabs":
		n, err := numArg(v)
		if err != nil {
			return nil, err
		}
		return []Value{math.Abs(n)}, nil
	case "first":
		arr, ok := v.([]Value)
		if !ok || len(arr) == 0 {
			return nil, nil
		}
		return []Value{arr[0]}, nil
	case "last":
		arr, ok := v.([]Value)
		if !ok || len(arr) == 0 {
			return nil, nil
		}
		return []Value{arr[len(arr)-1]}, nil
	case "join":
		sep := ""
		if len(args) == 1 && len(args[0]) > 0 {
			if s, ok := args[0][0].(string); ok {
				sep = s
			}
		}
		arr, ok := v.([]Value)
		if !ok {
			return nil, errf("jq: join input must be an array")
		}
		parts := make([]string, len(arr))
		for i, e := range arr {
			if e == nil {
				parts[i] = ""
				continue
			}
			parts[i] = toJQString(e)
		}
		return []Value{strings.Join(parts, sep)}, nil
	case "split":
		s, ok := v.(string)
		if !ok {
			return nil, errf("jq: split input must be a string")
		}
		sep := ""
		if len(args) == 1 && len(args[0]) > 0 {
			if ss, ok := args[0][0].(string); ok {
				sep = ss
			}
		}
		return []Value{splitString(s, sep)}, nil
	case "ascii_downcase":
		s, ok := v.(string)
		if !ok {
			return nil, errf("jq: ascii_downcase input must be a string")
		}
		return []Value{strings.ToLower(s)}, nil
	case "ascii_upcase":
		s, ok := v.(string)
		if !ok {
			return nil, errf("jq: ascii_upcase input must be a string")
		}
		return []Value{strings.ToUpper(s)}, nil
	case "ltrimstr":
		s, ok := v.(string)
		if !ok || len(args) != 1 || len(args[0]) == 0 {
			return []Value{v}, nil
		}
		prefix, ok := args[0][0].(string)
		if !ok {
			return []Value{v}, nil
		}
		return []Value{strings.TrimPrefix(s, prefix)}, nil
	case "rtrimstr":
		s, ok := v.(string)
		if !ok || len(args) != 1 || len(args[0]) == 0 {
			return []Value{v}, nil
		}
		suffix, ok := args[0][0].(string)
		if !ok {
			return []Value{v}, nil
		}
		return []Value{strings.TrimSuffix(s, suffix)}, nil
	case "startswith":
		s, ok := v.(string)
		if !ok || len(args) != 1 || len(args[0]) == 0 {
			return nil, errf("jq: startswith/1 requires a string input and argument")
		}
		prefix, ok := args[0][0].(string)
		if !ok {
			return nil, errf("jq: startswith/1 requires a string argument")
		}
		return []Value{strings.HasPrefix(s, prefix)}, nil
	case "endswith":
		s, ok := v.(string)
		if !ok || len(args) != 1 || len(args[0]) == 0 {
			return nil, errf("jq: endswith/1 requires a string input and argument")
		}
		suffix, ok := args[0][0].(string)
		if !ok {
			return nil, errf("jq: endswith/1 requires a string argument")
		}
		return []Value{strings.HasSuffix(s, suffix)}, nil
	case "explode":
		s, ok := v.(string)
		if !ok {
			return nil, errf("jq: explode input must be a string")
		}
		var out []Value
		for _, r := range s {
			out = append(out, float64(r))
		}
		return []Value{out}, nil
	case "implode":
		arr, ok := v.([]Value)
		if !ok {
			return nil, errf("jq: implode input must be an array")
		}
		var b strings.Builder
		for _, e := range arr {
			n, ok := e.(float64)
			if !ok {
				return nil, errf("jq: implode array must contain numbers")
			}
			b.WriteRune(rune(int(n)))
		}
		return []Value{b.String()}, nil
	case "tojson":
		return []Value{Encode(v)}, nil
	case "fromjson":
		s, ok := v.(string)
		if !ok {
			return nil, errf("jq: fromjson input must be a string")
		}
		vs, err := Decode(s)
		if err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return []Value{nil}, nil
		}
		return []Value{vs[0]}, nil
	case "isnan":
		n, ok := v.(float64)
		return []Value{ok && math.IsNaN(n)}, nil
	case "isinfinite":
		n, ok := v.(float64)
		return []Value{ok && math.IsInf(n, 0)}, nil
	case "test":
		return ev.regexPred(name, args, v)
	case "capture":
		return ev.regexCapture(args, v)
	case "splits":
		return ev.regexSplit(args, v)
	default:
		return nil, errf("jq: unknown function %s/%d", name, len(args))
	}
}

func numArg(v Value) (float64, error) {
	n, ok := v.(float64)
	if !ok {
		return 0, errf("jq: expected a number, got %s", typeName(v))
	}
	return n, nil
}

func jqLength(v Value) (Value, error) {
	switch x := v.(type) {
	case nil:
		return 0.0, nil
	case bool:
		return nil, errf("jq: boolean has no length")
	case float64:
		return math.Abs(x), nil
	case string:
		return float64(len([]rune(x))), nil
	case []Value:
		return float64(len(x)), nil
	case *Object:
		return float64(x.Len()), nil
	default:
		return nil, errf("jq: unsupported type for length")
	}
}

func jqKeys(v Value, sorted bool) (Value, error) {
	switch x := v.(type) {
	case *Object:
		ks := append([]string(nil), x.Keys()...)
		if sorted {
			sortStrings(ks)
		}
		out := make([]Value, len(ks))
		for i, k := range ks {
			out[i] = k
		}
		return out, nil
	case []Value:
		out := make([]Value, len(x))
		for i := range x {
			out[i] = float64(i)
		}
		return out, nil
	default:
		return nil, errf("jq: %s has no keys", typeName(v))
	}
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

func jqHas(v, key Value) ([]Value, error) {
	switch x := v.(type) {
	case *Object:
		s, ok := key.(string)
		if !ok {
			return nil, errf("jq: has/1 on object requires a string argument")
		}
		_, ok = x.Get(s)
		return []Value{ok}, nil
	case []Value:
		n, ok := key.(float64)
		if !ok {
			return nil, errf("jq: has/1 on array requires a number argument")
		}
		i := int(n)
		return []Value{i >= 0 && i < len(x)}, nil
	default:
		return nil, errf("jq: has/1 requires an array or object input")
	}
}

func jqContains(v, needle Value) bool {
	switch x := v.(type) {
	case string:
		s, ok := needle.(string)
		return ok && strings.Contains(x, s)
	case []Value:
		n, ok := needle.([]Value)
		if !ok {
			return false
		}
		for _, want := range n {
			found := false
			for _, have := range x {
				if compareValues(have, want) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case *Object:
		n, ok := needle.(*Object)
		if !ok {
			return false
		}
		for _, k := range n.Keys() {
			nv, _ := n.Get(k)
			ov, ok := x.Get(k)
			if !ok || compareValues(ov, nv) != 0 {
				return false
			}
		}
		return true
	default:
		return compareValues(v, needle) == 0
	}
}

func jqAdd(v Value) Value {
	items, err := iterateAll(v)
	if err != nil {
		return nil
	}
	var acc Value
	for _, item := range items {
		sum, err := addValues(acc, item)
		if err != nil {
			return nil
		}
		acc = sum
	}
	return acc
}

func jqAny(v Value) bool {
	items, err := iterateAll(v)
	if err != nil {
		return false
	}
	for _, item := range items {
		if isTruthy(item) {
			return true
		}
	}
	return false
}

func jqAll(v Value) bool {
	items, err := iterateAll(v)
	if err != nil {
		return true
	}
	for _, item := range items {
		if !isTruthy(item) {
			return false
		}
	}
	return true
}

func jqFlatten(arr []Value, depth int) []Value {
	var out []Value
	for _, e := range arr {
		if sub, ok := e.([]Value); ok && depth != 0 {
			next := depth - 1
			if depth < 0 {
				next = -1
			}
			out = append(out, jqFlatten(sub, next)...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

func jqUnique(sorted []Value) []Value {
	var out []Value
	for i, v := range sorted {
		if i == 0 || compareValues(sorted[i-1], v) != 0 {
			out = append(out, v)
		}
	}
	return out
}

func jqMinMax(v Value, min bool) Value {
	arr, ok := v.([]Value)
	if !ok || len(arr) == 0 {
		return nil
	}
	best := arr[0]
	for _, e := range arr[1:] {
		c := compareValues(e, best)
		if (min && c < 0) || (!min && c > 0) {
			best = e
		}
	}
	return best
}

// sortBy sorts the input array by the key each element produces under f,
// using only the first output value per element the way jq's own
// sort_by/group_by do.
func (ev *evaluator) sortBy(f Filter, v Value) ([]Value, error) {
	arr, ok := v.([]Value)
	if !ok {
		return nil, errf("jq: sort_by input must be an array")
	}
	keys := make([]Value, len(arr))
	for i, e := range arr {
		vs, err := ev.eval(f, e)
		if err != nil {
			return nil, err
		}
		if len(vs) > 0 {
			keys[i] = vs[0]
		}
	}
	idx := make([]int, len(arr))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && compareValues(keys[idx[j-1]], keys[idx[j]]) > 0; j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}
	out := make([]Value, len(arr))
	for i, pos := range idx {
		out[i] = arr[pos]
	}
	return []Value{out}, nil
}

func (ev *evaluator) groupBy(f Filter, v Value) ([]Value, error) {
	arr, ok := v.([]Value)
	if !ok {
		return nil, errf("jq: group_by input must be an array")
	}
	type keyed struct {
		key Value
		val Value
	}
	items := make([]keyed, len(arr))
	for i, e := range arr {
		vs, err := ev.eval(f, e)
		if err != nil {
			return nil, err
		}
		var k Value
		if len(vs) > 0 {
			k = vs[0]
		}
		items[i] = keyed{key: k, val: e}
	}
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && compareValues(items[j-1].key, items[j].key) > 0; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
	var groups []Value
	var cur []Value
	for i, it := range items {
		if i > 0 && compareValues(items[i-1].key, it.key) != 0 {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, it.val)
	}
	if cur != nil {
		groups = append(groups, cur)
	}
	return []Value{groups}, nil
}
