package cnx

// Merge folds inputs left to right into a fresh object.
//
// Skip values (nil, Undefined, false, NaN, 0, "") are dropped at every
// level. Mappings at the same key are merged recursively; any other
// collision is won by the later value. Slices are flattened into further
// inputs, thunks are invoked and their results folded in their place, and
// top-level primitives or instances are ignored. Inputs are never mutated.
func Merge(inputs ...any) *Object {
	return std.Merge(inputs...)
}

// MergeRaw is Merge without the Skip rule for entries: falsy values found
// under a key are written as explicit entries and overwrite earlier values.
// Skip values passed directly as inputs still contribute nothing.
func MergeRaw(inputs ...any) *Object {
	return std.MergeRaw(inputs...)
}

// Preserve merges input into acc. When input changes nothing, acc itself is
// returned; otherwise the result is a new object in which untouched nested
// objects keep their original references. acc is never mutated.
func Preserve(acc *Object, input any) *Object {
	return std.Preserve(acc, input)
}

func (c *Composer) Merge(inputs ...any) *Object {
	return c.merge(false, inputs)
}

func (c *Composer) MergeRaw(inputs ...any) *Object {
	return c.merge(true, inputs)
}

func (c *Composer) merge(raw bool, inputs []any) *Object {
	st := c.newMergeState(raw)
	acc := st.newOwned()
	for _, in := range inputs {
		st.fold(acc, in)
	}
	return acc
}

func (c *Composer) Preserve(acc *Object, input any) *Object {
	if acc == nil {
		return c.Merge(input)
	}
	st := c.newMergeState(false)
	out, _ := st.preserveFold(acc, input)
	return out
}

// mergeState is the per-call state of the merge engine.
type mergeState struct {
	c   *Composer
	raw bool

	// owned holds the objects created by this call; only these are written
	// into. Anything else found in the accumulator is a caller reference.
	owned map[*Object]struct{}

	// active counts how many times each container is being expanded on the
	// current path.
	active map[any]int
	depth  int
}

func (c *Composer) newMergeState(raw bool) *mergeState {
	return &mergeState{
		c:      c,
		raw:    raw,
		owned:  make(map[*Object]struct{}),
		active: make(map[any]int),
	}
}

func (st *mergeState) newOwned() *Object {
	o := NewObject()
	st.owned[o] = struct{}{}
	return o
}

// enter marks v as being expanded. It reports false once v is already
// expanded limit times on the current path, or the depth limit is reached.
func (st *mergeState) enter(v any, limit int) bool {
	if st.depth >= st.c.opts.MaxDepth {
		st.c.logger.Warnf("merge depth limit %d reached at %s", st.c.opts.MaxDepth, valueSummary(v, 0))
		return false
	}
	if id, ok := identity(v); ok {
		if st.active[id] >= limit {
			return false
		}
		st.active[id]++
	}
	st.depth++
	return true
}

func (st *mergeState) leave(v any) {
	st.depth--
	if id, ok := identity(v); ok {
		if st.active[id] <= 1 {
			delete(st.active, id)
		} else {
			st.active[id]--
		}
	}
}

// fold merges a top-level input (or an element of a flattened slice) into acc.
func (st *mergeState) fold(acc *Object, v any) {
	v = st.c.resolve(v, "")
	switch Classify(v) {
	case KindMapping:
		if !st.enter(v, st.c.opts.CycleUnroll) {
			return
		}
		st.mergeEntries(acc, v)
		st.leave(v)
	case KindSequence:
		if !st.enter(v, 1) {
			return
		}
		for e := range elements(v) {
			st.fold(acc, e)
		}
		st.leave(v)
	}
}

func (st *mergeState) mergeEntries(target *Object, src any) {
	for k, v := range entries(src) {
		st.assign(target, k, v)
	}
}

func (st *mergeState) assign(acc *Object, key, v any) {
	v = st.c.resolve(v, "")
	switch Classify(v) {
	case KindSkip:
		if st.raw {
			acc.setKey(key, v)
		}
	case KindMapping:
		st.assignMapping(acc, key, v)
	case KindSequence:
		st.assignSequence(acc, key, v)
	default:
		acc.setKey(key, v)
	}
}

func (st *mergeState) assignMapping(acc *Object, key, v any) {
	if !st.enter(v, st.c.opts.CycleUnroll) {
		st.c.logger.Debugf("cycle at key %s: embedding %s by reference", keyString(key), valueSummary(v, 0))
		acc.setKey(key, v)
		return
	}
	target := st.target(acc, key)
	st.mergeEntries(target, v)
	st.leave(v)
	acc.setKey(key, target)
}

// target returns the owned object at key to merge into, copying whatever
// mapping currently sits there if it is not ours.
func (st *mergeState) target(acc *Object, key any) *Object {
	existing, ok := acc.getKey(key)
	if !ok {
		return st.newOwned()
	}
	if o, isObj := existing.(*Object); isObj {
		if _, mine := st.owned[o]; mine {
			return o
		}
	}
	t := st.newOwned()
	if Classify(existing) == KindMapping && st.enter(existing, st.c.opts.CycleUnroll) {
		st.mergeEntries(t, existing)
		st.leave(existing)
	}
	return t
}

// assignSequence folds a slice of mappings into a mapping, or stores a copy
// of any other slice.
func (st *mergeState) assignSequence(acc *Object, key, v any) {
	if !st.enter(v, 1) {
		st.c.logger.Debugf("cycle at key %s: embedding %s by reference", keyString(key), valueSummary(v, 0))
		acc.setKey(key, v)
		return
	}
	defer st.leave(v)

	elems := make([]any, 0, sequenceLen(v))
	foldable, sawMapping := true, false
	for e := range elements(v) {
		e = st.c.resolve(e, "")
		elems = append(elems, e)
		switch Classify(e) {
		case KindMapping:
			sawMapping = true
		case KindSequence, KindSkip:
		default:
			foldable = false
		}
	}

	if foldable && sawMapping {
		target := st.target(acc, key)
		for _, e := range elems {
			st.fold(target, e)
		}
		acc.setKey(key, target)
		return
	}
	acc.setKey(key, st.copySequence(elems))
}

func (st *mergeState) copySequence(elems []any) []any {
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		switch Classify(e) {
		case KindSkip:
			if st.raw {
				out = append(out, e)
			}
		case KindMapping:
			if !st.enter(e, st.c.opts.CycleUnroll) {
				out = append(out, e)
				continue
			}
			o := st.newOwned()
			st.mergeEntries(o, e)
			st.leave(e)
			out = append(out, o)
		case KindSequence:
			if !st.enter(e, 1) {
				out = append(out, e)
				continue
			}
			nested := make([]any, 0, sequenceLen(e))
			for x := range elements(e) {
				nested = append(nested, st.c.resolve(x, ""))
			}
			out = append(out, st.copySequence(nested))
			st.leave(e)
		default:
			out = append(out, e)
		}
	}
	return out
}

func (st *mergeState) preserveFold(base *Object, v any) (*Object, bool) {
	v = st.c.resolve(v, "")
	switch Classify(v) {
	case KindMapping:
		if !st.enter(v, st.c.opts.CycleUnroll) {
			return base, false
		}
		defer st.leave(v)
		return st.preserveEntries(base, v)
	case KindSequence:
		if !st.enter(v, 1) {
			return base, false
		}
		defer st.leave(v)
		out, changed := base, false
		for e := range elements(v) {
			var ch bool
			out, ch = st.preserveFold(out, e)
			changed = changed || ch
		}
		return out, changed
	}
	return base, false
}

// preserveEntries merges src into base copy-on-write: base is cloned only
// when the first entry actually changes it.
func (st *mergeState) preserveEntries(base *Object, src any) (*Object, bool) {
	out, changed := base, false
	for k, v := range entries(src) {
		existing, has := out.getKey(k)
		nv, ok := st.preserveValue(existing, has, v)
		if !ok {
			continue
		}
		if !changed {
			changed = true
			if _, mine := st.owned[base]; !mine {
				out = base.Clone()
				st.owned[out] = struct{}{}
			}
		}
		out.setKey(k, nv)
	}
	return out, changed
}

func (st *mergeState) preserveValue(existing any, has bool, v any) (any, bool) {
	v = st.c.resolve(v, "")
	kind := Classify(v)
	if kind == KindSkip {
		return nil, false
	}
	if o, ok := existing.(*Object); has && ok && o != nil && kind == KindMapping {
		if !st.enter(v, st.c.opts.CycleUnroll) {
			if src, isObj := v.(*Object); isObj && src == o {
				return nil, false
			}
			return v, true
		}
		defer st.leave(v)
		return st.preserveEntries(o, v)
	}

	// Run the regular assignment against a scratch object holding the
	// current value, then compare.
	scratch := NewObject()
	if has {
		scratch.Set("", existing)
	}
	st.assign(scratch, "", v)
	nv, _ := scratch.Get("")
	if has && deepEqual(existing, nv) {
		return nil, false
	}
	return nv, true
}
