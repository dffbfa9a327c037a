package jqlang

import "fmt"

// Options configures a filter run. It is empty for now: the current
// subset has no `as` bindings or $name arguments to configure.
type Options struct{}

// Result holds every output value produced by a filter, ready for the
// caller to Encode one per line the way the jq CLI does.
type Result struct {
	Values []Value
}

// Run parses filterSrc and applies it to every value decoded from input,
// concatenating the output streams in order, matching jq's own behavior of
// processing each input document independently through the same filter.
func Run(filterSrc, input string, opts Options) (Result, error) {
	f, err := Parse(filterSrc)
	if err != nil {
		return Result{}, err
	}
	inputs, err := Decode(input)
	if err != nil {
		return Result{}, err
	}
	ev := &evaluator{}
	var out []Value
	for _, in := range inputs {
		vs, err := ev.eval(f, in)
		if err != nil {
			return Result{}, err
		}
		out = append(out, vs...)
	}
	return Result{Values: out}, nil
}

type evaluator struct{}

type jqError struct{ msg string }

func (e jqError) Error() string { return e.msg }

func errf(format string, args ...interface{}) error {
	return jqError{fmt.Sprintf(format, args...)}
}

// eval evaluates filter f against the single input value v, producing its
// output stream. Every Filter variant is handled by dispatching on type,
// the same pattern package awk's eval uses for its Expr variants.
func (ev *evaluator) eval(f Filter, v Value) ([]Value, error) {
	switch x := f.(type) {
	case Identity:
		return []Value{v}, nil

	case Literal:
		return []Value{x.Value}, nil

	case Field:
		bases, err := ev.evalBase(x.Base, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, b := range bases {
			val, err := fieldAccess(b, x.Name)
			if err != nil {
				if x.Optional {
					continue
				}
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil

	case Index:
		bases, err := ev.evalBase(x.Base, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, b := range bases {
			idxVals, err := ev.eval(x.IndexOf, v)
			if err != nil {
				return nil, err
			}
			for _, idx := range idxVals {
				val, err := indexAccess(b, idx)
				if err != nil {
					if x.Optional {
						continue
					}
					return nil, err
				}
				out = append(out, val)
			}
		}
		return out, nil

	case IterateAll:
		bases, err := ev.evalBase(x.Base, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, b := range bases {
			vals, err := iterateAll(b)
			if err != nil {
				if x.Optional {
					continue
				}
				return nil, err
			}
			out = append(out, vals...)
		}
		return out, nil

	case Slice:
		bases, err := ev.evalBase(x.Base, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, b := range bases {
			from, to := 0, -1
			haveFrom, haveTo := false, false
			if x.From != nil {
				fv, err := ev.eval(x.From, v)
				if err != nil {
					return nil, err
				}
				if len(fv) > 0 {
					n, ok := fv[0].(float64)
					if ok {
						from, haveFrom = int(n), true
					}
				}
			}
			if x.To != nil {
				tv, err := ev.eval(x.To, v)
				if err != nil {
					return nil, err
				}
				if len(tv) > 0 {
					n, ok := tv[0].(float64)
					if ok {
						to, haveTo = int(n), true
					}
				}
			}
			val, err := sliceAccess(b, from, to, haveFrom, haveTo)
			if err != nil {
				if x.Optional {
					continue
				}
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil

	case ArrayConstruct:
		if x.Body == nil {
			return []Value{[]Value{}}, nil
		}
		vals, err := ev.eval(x.Body, v)
		if err != nil {
			return nil, err
		}
		arr := append([]Value{}, vals...)
		return []Value{arr}, nil

	case ObjectConstruct:
		return ev.evalObjectConstruct(x, v)

	case Pipe:
		lefts, err := ev.eval(x.Left, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, lv := range lefts {
			rs, err := ev.eval(x.Right, lv)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
		}
		return out, nil

	case Comma:
		lefts, err := ev.eval(x.Left, v)
		if err != nil {
			return nil, err
		}
		rights, err := ev.eval(x.Right, v)
		if err != nil {
			return nil, err
		}
		return append(lefts, rights...), nil

	case BinOp:
		return ev.evalBinOp(x, v)

	case Not:
		vals, err := ev.eval(x.X, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, val := range vals {
			out = append(out, !isTruthy(val))
		}
		return out, nil

	case IfExpr:
		conds, err := ev.eval(x.Cond, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, c := range conds {
			branch := x.Else
			if isTruthy(c) {
				branch = x.Then
			}
			vs, err := ev.eval(branch, v)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil

	case FuncCall:
		return ev.evalBuiltin(x, v)

	default:
		return nil, errf("jq: unhandled filter node %T", f)
	}
}

// evalBase evaluates a possibly-nil Base filter: nil means "operate
// directly on the pipeline input", matching how the parser leaves Base nil
// for a leading `.foo` at the start of an expression.
func (ev *evaluator) evalBase(base Filter, v Value) ([]Value, error) {
	if base == nil {
		return []Value{v}, nil
	}
	return ev.eval(base, v)
}

func (ev *evaluator) evalObjectConstruct(x ObjectConstruct, v Value) ([]Value, error) {
	results := []Value{NewObject()}
	for _, entry := range x.Entries {
		var keys []string
		if entry.KeyExpr != nil {
			kvs, err := ev.eval(entry.KeyExpr, v)
			if err != nil {
				return nil, err
			}
			for _, kv := range kvs {
				s, ok := kv.(string)
				if !ok {
					return nil, errf("jq: object key must be a string, got %s", typeName(kv))
				}
				keys = append(keys, s)
			}
		} else {
			keys = []string{entry.KeyName}
		}
		vals, err := ev.eval(entry.ValExpr, v)
		if err != nil {
			return nil, err
		}
		var next []Value
		for _, partial := range results {
			base := partial.(*Object)
			for _, k := range keys {
				for _, val := range vals {
					cp := base.Clone()
					cp.Set(k, val)
					next = append(next, cp)
				}
			}
		}
		results = next
	}
	return results, nil
}

func (ev *evaluator) evalBinOp(x BinOp, v Value) ([]Value, error) {
	if x.Op == "and" || x.Op == "or" {
		lefts, err := ev.eval(x.Left, v)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, lv := range lefts {
			if x.Op == "and" && !isTruthy(lv) {
				out = append(out, false)
				continue
			}
			if x.Op == "or" && isTruthy(lv) {
				out = append(out, true)
				continue
			}
			rights, err := ev.eval(x.Right, v)
			if err != nil {
				return nil, err
			}
			for _, rv := range rights {
				out = append(out, isTruthy(rv))
			}
		}
		return out, nil
	}
	if x.Op == "//" {
		lefts, err := ev.eval(x.Left, v)
		var truthy []Value
		if err == nil {
			for _, lv := range lefts {
				if isTruthy(lv) {
					truthy = append(truthy, lv)
				}
			}
		}
		if len(truthy) > 0 {
			return truthy, nil
		}
		return ev.eval(x.Right, v)
	}

	lefts, err := ev.eval(x.Left, v)
	if err != nil {
		return nil, err
	}
	rights, err := ev.eval(x.Right, v)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, lv := range lefts {
		for _, rv := range rights {
			res, err := applyBinOp(x.Op, lv, rv)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
	}
	return out, nil
}

func applyBinOp(op string, l, r Value) (Value, error) {
	switch op {
	case "==":
		return compareValues(l, r) == 0, nil
	case "!=":
		return compareValues(l, r) != 0, nil
	case "<":
		return compareValues(l, r) < 0, nil
	case "<=":
		return compareValues(l, r) <= 0, nil
	case ">":
		return compareValues(l, r) > 0, nil
	case ">=":
		return compareValues(l, r) >= 0, nil
	case "+":
		return addValues(l, r)
	case "-":
		return subValues(l, r)
	case "*":
		return mulValues(l, r)
	case "/":
		return divValues(l, r)
	case "%":
		return modValues(l, r)
	default:
		return nil, errf("jq: unsupported operator %q", op)
	}
}

func fieldAccess(v Value, name string) (Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Object:
		val, _ := x.Get(name)
		return val, nil
	default:
		return nil, errf("jq: cannot index %s with %q", typeName(v), name)
	}
}

func indexAccess(v, idx Value) (Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []Value:
		n, ok := idx.(float64)
		if !ok {
			return nil, errf("jq: cannot index array with %s", typeName(idx))
		}
		i := int(n)
		if i < 0 {
			i += len(x)
		}
		if i < 0 || i >= len(x) {
			return nil, nil
		}
		return x[i], nil
	case *Object:
		s, ok := idx.(string)
		if !ok {
			return nil, errf("jq: cannot index object with %s", typeName(idx))
		}
		val, _ := x.Get(s)
		return val, nil
	default:
		return nil, errf("jq: cannot index %s", typeName(v))
	}
}

func iterateAll(v Value) ([]Value, error) {
	switch x := v.(type) {
	case []Value:
		return append([]Value{}, x...), nil
	case *Object:
		out := make([]Value, 0, x.Len())
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			out = append(out, val)
		}
		return out, nil
	default:
		return nil, errf("jq: cannot iterate over %s", typeName(v))
	}
}

func sliceAccess(v Value, from, to int, haveFrom, haveTo bool) (Value, error) {
	arr, ok := v.([]Value)
	if !ok {
		if s, ok := v.(string); ok {
			r := []rune(s)
			f, t := clampSlice(len(r), from, to, haveFrom, haveTo)
			return string(r[f:t]), nil
		}
		if v == nil {
			return nil, nil
		}
		return nil, errf("jq: cannot slice %s", typeName(v))
	}
	f, t := clampSlice(len(arr), from, to, haveFrom, haveTo)
	return append([]Value{}, arr[f:t]...), nil
}

func clampSlice(n, from, to int, haveFrom, haveTo bool) (int, int) {
	if !haveFrom {
		from = 0
	}
	if !haveTo {
		to = n
	}
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from > n {
		from = n
	}
	if to < from {
		to = from
	}
	return from, to
}

func addValues(l, r Value) (Value, error) {
	if l == nil {
		return r, nil
	}
	if r == nil {
		return l, nil
	}
	switch lv := l.(type) {
	case float64:
		rv, ok := r.(float64)
		if !ok {
			return nil, errf("jq: cannot add number and %s", typeName(r))
		}
		return lv + rv, nil
	case string:
		rv, ok := r.(string)
		if !ok {
			return nil, errf("jq: cannot add string and %s", typeName(r))
		}
		return lv + rv, nil
	case []Value:
		rv, ok := r.([]Value)
		if !ok {
			return nil, errf("jq: cannot add array and %s", typeName(r))
		}
		out := append([]Value{}, lv...)
		return append(out, rv...), nil
	case *Object:
		rv, ok := r.(*Object)
		if !ok {
			return nil, errf("jq: cannot add object and %s", typeName(r))
		}
		out := lv.Clone()
		for _, k := range rv.Keys() {
			val, _ := rv.Get(k)
			out.Set(k, val)
		}
		return out, nil
	default:
		return nil, errf("jq: cannot add %s and %s", typeName(l), typeName(r))
	}
}

func subValues(l, r Value) (Value, error) {
	switch lv := l.(type) {
	case float64:
		rv, ok := r.(float64)
		if !ok {
			return nil, errf("jq: cannot subtract %s from number", typeName(r))
		}
		return lv - rv, nil
	case []Value:
		rv, ok := r.([]Value)
		if !ok {
			return nil, errf("jq: cannot subtract %s from array", typeName(r))
		}
		var out []Value
		for _, e := range lv {
			found := false
			for _, x := range rv {
				if compareValues(e, x) == 0 {
					found = true
					break
				}
			}
			if !found {
				out = append(out, e)
			}
		}
		return out, nil
	default:
		return nil, errf("jq: cannot subtract %s and %s", typeName(l), typeName(r))
	}
}

func mulValues(l, r Value) (Value, error) {
	lv, ok1 := l.(float64)
	rv, ok2 := r.(float64)
	if ok1 && ok2 {
		return lv * rv, nil
	}
	if lo, ok := l.(*Object); ok {
		if ro, ok := r.(*Object); ok {
			return deepMerge(lo, ro), nil
		}
	}
	return nil, errf("jq: cannot multiply %s and %s", typeName(l), typeName(r))
}

func deepMerge(a, b *Object) *Object {
	out := a.Clone()
	for _, k := range b.Keys() {
		bv, _ := b.Get(k)
		if av, ok := out.Get(k); ok {
			if ao, ok1 := av.(*Object); ok1 {
				if bo, ok2 := bv.(*Object); ok2 {
					out.Set(k, deepMerge(ao, bo))
					continue
				}
			}
		}
		out.Set(k, bv)
	}
	return out
}

func divValues(l, r Value) (Value, error) {
	lv, ok1 := l.(float64)
	rv, ok2 := r.(float64)
	if ok1 && ok2 {
		if rv == 0 {
			return nil, errf("jq: division by zero")
		}
		return lv / rv, nil
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return splitString(ls, rs), nil
		}
	}
	return nil, errf("jq: cannot divide %s by %s", typeName(l), typeName(r))
}

func modValues(l, r Value) (Value, error) {
	lv, ok1 := l.(float64)
	rv, ok2 := r.(float64)
	if !ok1 || !ok2 {
		return nil, errf("jq: cannot compute %s %% %s", typeName(l), typeName(r))
	}
	ri := int(rv)
	if ri == 0 {
		return nil, errf("jq: division by zero")
	}
	return float64(int(lv) % ri), nil
}
