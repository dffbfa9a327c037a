// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"strconv"

	"github.com/shellgrove/shellgrove/expand"
	"github.com/shellgrove/shellgrove/syntax"
)

// overlayEnviron is a writable environment layered on top of a parent,
// which may itself be read-only. Local function scopes and handler contexts
// are overlays over the runner's environment; assignments land in the
// overlay, and reads fall through to the parent.
type overlayEnviron struct {
	parent expand.Environ
	values map[string]expand.Variable

	// funcScope is true for the overlay created for each function call;
	// in that case only variables declared `local` stay in the overlay,
	// and all other assignments fall through to the parent.
	funcScope bool
}

// newOverlayEnviron returns an overlay on top of parent. A background
// subshell gets a deep copy instead, since it will keep reading its
// environment while the parent continues to mutate the original.
func newOverlayEnviron(parent expand.Environ, background bool) expand.WriteEnviron {
	if !background {
		return &overlayEnviron{parent: parent}
	}
	values := make(map[string]expand.Variable)
	parent.Each(func(name string, vr expand.Variable) bool {
		values[name] = vr
		return true
	})
	return &overlayEnviron{parent: expand.ListEnviron(), values: values}
}

func (o *overlayEnviron) Get(name string) expand.Variable {
	if vr, ok := o.values[name]; ok {
		return vr
	}
	return o.parent.Get(name)
}

func (o *overlayEnviron) Set(name string, vr expand.Variable) error {
	prev, inOverlay := o.values[name]
	if o.funcScope && !vr.Local && !prev.Local {
		// In a function, assignments to non-local variables modify the
		// caller's environment.
		if penv, ok := o.parent.(expand.WriteEnviron); ok {
			return penv.Set(name, vr)
		}
		// read-only parent; keep the write in the overlay
	}
	if !inOverlay {
		prev = o.parent.Get(name)
	}
	if prev.ReadOnly && !vr.ReadOnly {
		return fmt.Errorf("readonly variable")
	}
	if vr.Kind == expand.KeepValue {
		// only attributes are being changed
		vr.Kind = prev.Kind
		vr.Str = prev.Str
		vr.List = prev.List
		vr.Map = prev.Map
		vr.Set = prev.Set
	}
	if o.values == nil {
		o.values = make(map[string]expand.Variable)
	}
	o.values[name] = vr
	return nil
}

func (o *overlayEnviron) Delete(name string) {
	if o.values == nil {
		o.values = make(map[string]expand.Variable)
	}
	// shadow the parent's value with an unset variable
	o.values[name] = expand.Variable{}
}

func (o *overlayEnviron) Each(f func(name string, vr expand.Variable) bool) {
	for name, vr := range o.values {
		if !f(name, vr) {
			return
		}
	}
	o.parent.Each(func(name string, vr expand.Variable) bool {
		if _, shadowed := o.values[name]; shadowed {
			return true
		}
		return f(name, vr)
	})
}

func strVar(s string) expand.Variable {
	return expand.Variable{Set: true, Kind: expand.String, Str: s}
}

// lookupVar resolves a variable or special parameter by name.
func (r *Runner) lookupVar(name string) expand.Variable {
	if name == "" {
		panic("interp: variable name must not be empty")
	}
	switch name {
	case "#":
		return strVar(strconv.Itoa(len(r.Params)))
	case "@", "*":
		vr := expand.Variable{Set: true, Kind: expand.Indexed, List: r.Params}
		return vr
	case "?":
		return strVar(strconv.Itoa(int(r.lastExit.code)))
	case "$":
		// There is no real process underneath the interpreter; every
		// session reports the same synthetic PID.
		return strVar("1")
	case "!":
		if n := len(r.bgProcs); n > 0 {
			return strVar(fmt.Sprintf("g%d", n))
		}
		return expand.Variable{}
	case "-":
		var flags []byte
		for i, opt := range &shellOptsTable {
			if opt.flag != ' ' && r.opts[i] {
				flags = append(flags, opt.flag)
			}
		}
		return strVar(string(flags))
	case "DIRSTACK":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: r.dirStack}
	case "0":
		if r.filename != "" {
			return strVar(r.filename)
		}
		return strVar("boxsh")
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(name[0] - '1')
		if i < len(r.Params) {
			return strVar(r.Params[i])
		}
		return expand.Variable{}
	}
	if vr := r.writeEnv.Get(name); vr.IsSet() || vr.Declared() {
		return vr
	}
	return expand.Variable{}
}

// envGet returns a variable's string value, following name references.
func (r *Runner) envGet(name string) string {
	vr := r.lookupVar(name)
	if vr.Kind == expand.NameRef {
		_, vr = vr.Resolve(r.writeEnv)
	}
	return vr.String()
}

func (r *Runner) delVar(name string) {
	vr := r.lookupVar(name)
	if vr.ReadOnly {
		r.errf("%s: readonly variable\n", name)
		r.exit.code = 1
		return
	}
	if wenv, ok := r.writeEnv.(interface{ Delete(string) }); ok {
		wenv.Delete(name)
	} else {
		r.writeEnv.Set(name, expand.Variable{})
	}
}

func (r *Runner) setVarString(name, value string) {
	r.setVar(name, strVar(value))
}

func (r *Runner) setVar(name string, vr expand.Variable) {
	if vr.Kind == expand.String && r.opts[optAllExport] {
		vr.Exported = true
	}
	if err := r.writeEnv.Set(name, vr); err != nil {
		r.errf("%s: %v\n", name, err)
		r.exit.code = 1
	}
}

// setVarWithIndex assigns a value to a variable, possibly into one element
// of an indexed or associative array.
func (r *Runner) setVarWithIndex(prev expand.Variable, name string, index syntax.ArithmExpr, vr expand.Variable) {
	if prev.ReadOnly {
		r.errf("%s: readonly variable\n", name)
		r.exit.code = 1
		return
	}
	if vr.Kind == expand.String && index == nil {
		// When assigning a string to an array, fall back to the zero
		// value for the index.
		switch prev.Kind {
		case expand.Indexed:
			index = &syntax.Word{Parts: []syntax.WordPart{
				&syntax.Lit{Value: "0"},
			}}
		case expand.Associative:
			index = &syntax.Word{Parts: []syntax.WordPart{
				&syntax.DblQuoted{},
			}}
		}
	}
	if index == nil {
		r.setVar(name, vr)
		return
	}
	// from the syntax package, we know that the value must be a string if
	// the index is non-nil; nested arrays are forbidden
	valStr := vr.Str

	if prev.Kind == expand.Associative {
		if prev.Map == nil {
			prev.Map = make(map[string]string)
		}
		w, ok := index.(*syntax.Word)
		if !ok {
			return
		}
		k := r.literal(w)
		prev.Map[k] = valStr
		prev.Set = true
		r.setVar(name, prev)
		return
	}
	var list []string
	switch prev.Kind {
	case expand.String:
		list = append(list, prev.Str)
	case expand.Indexed:
		list = prev.List
	}
	k := r.arithm(index)
	for len(list) < k+1 {
		list = append(list, "")
	}
	if k >= 0 {
		list[k] = valStr
	}
	prev.Kind = expand.Indexed
	prev.List = list
	prev.Str = ""
	prev.Set = true
	r.setVar(name, prev)
}

func (r *Runner) setFunc(name string, body *syntax.Stmt) {
	if r.Funcs == nil {
		r.Funcs = make(map[string]*syntax.Stmt, 4)
	}
	r.Funcs[name] = body
}

// stringIndex reports whether an array element index is a quoted string,
// which distinguishes associative array literals from indexed ones.
func stringIndex(index syntax.ArithmExpr) bool {
	w, ok := index.(*syntax.Word)
	if !ok || len(w.Parts) != 1 {
		return false
	}
	switch w.Parts[0].(type) {
	case *syntax.DblQuoted, *syntax.SglQuoted:
		return true
	}
	return false
}

// assignVal computes the value of an assignment, taking the previous value
// into account for `+=` appends and keeping the previous attributes.
func (r *Runner) assignVal(prev expand.Variable, as *syntax.Assign, valType string) expand.Variable {
	if as.Value != nil {
		s := r.literal(as.Value)
		if !as.Append || !prev.IsSet() {
			out := prev
			out.Set = true
			out.Kind = expand.String
			out.Str = s
			out.List = nil
			out.Map = nil
			return out
		}
		switch prev.Kind {
		case expand.String:
			prev.Str += s
		case expand.Indexed:
			if len(prev.List) == 0 {
				prev.List = append(prev.List, "")
			}
			prev.List[0] += s
		default:
			prev.Kind = expand.String
			prev.Str = s
		}
		return prev
	}
	if as.Array == nil {
		// `a=` sets an empty string
		out := prev
		out.Set = true
		out.Kind = expand.String
		out.Str = ""
		out.List = nil
		out.Map = nil
		return out
	}
	elems := as.Array.Elems
	if valType == "" {
		if len(elems) == 0 || !stringIndex(elems[0].Index) {
			valType = "-a" // indexed
		} else {
			valType = "-A" // associative
		}
	}
	if valType == "-A" {
		amap := make(map[string]string, len(elems))
		for _, elem := range elems {
			if w, ok := elem.Index.(*syntax.Word); ok {
				k := r.literal(w)
				amap[k] = r.literal(elem.Value)
			}
		}
		if as.Append && prev.Kind == expand.Associative {
			for k, v := range amap {
				prev.Map[k] = v
			}
			return prev
		}
		out := prev
		out.Set = true
		out.Kind = expand.Associative
		out.Str = ""
		out.List = nil
		out.Map = amap
		return out
	}
	// indexed array
	maxIndex := len(elems) - 1
	indexes := make([]int, len(elems))
	for i, elem := range elems {
		if elem.Index == nil {
			indexes[i] = i
			continue
		}
		k := r.arithm(elem.Index)
		indexes[i] = k
		if k > maxIndex {
			maxIndex = k
		}
	}
	strs := make([]string, maxIndex+1)
	for i, elem := range elems {
		strs[indexes[i]] = r.literal(elem.Value)
	}
	if as.Append && prev.IsSet() {
		switch prev.Kind {
		case expand.String:
			prev.Kind = expand.Indexed
			prev.List = append([]string{prev.Str}, strs...)
			prev.Str = ""
			return prev
		case expand.Indexed:
			prev.List = append(prev.List, strs...)
			return prev
		}
	}
	out := prev
	out.Set = true
	out.Kind = expand.Indexed
	out.Str = ""
	out.List = strs
	out.Map = nil
	return out
}
