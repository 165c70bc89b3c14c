package pack

import (
	"sort"
	"strings"
)

// splitPath splits "x.y.z" into "x" and "y.z". The remainder is empty
// for single-segment paths.
func splitPath(path string) (top, rest string) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}

func pathDepth(path string) int {
	return strings.Count(path, ".")
}

// GetValue resolves a possibly dotted path against the instance. Every
// intermediate segment must name a pack-typed field.
func (inst *Instance) GetValue(path string) (any, error) {
	top, rest := splitPath(path)
	value, err := inst.Get(top)
	if err != nil {
		return nil, err
	}
	if rest == "" {
		return value, nil
	}
	sub, ok := value.(*Instance)
	if !ok {
		return nil, callErrorf(inst.typ.name, path, "%q is not a pack but the path continues with %q", top, rest)
	}
	return sub.GetValue(rest)
}

// SetValue writes one possibly dotted path with the same all-or-nothing
// semantics as SetValues.
func (inst *Instance) SetValue(path string, value any) error {
	return inst.SetValues(map[string]any{path: value})
}

// SetValues writes an arbitrary mixture of full-field and nested-path
// keys in one call. Sibling leaves under a common parent are merged into
// one clone of that parent, and the whole update commits through the
// single invariant-checked write path exactly once. Observed instances
// mirror the committed state into their bound store afterwards.
func (inst *Instance) SetValues(values map[string]any) error {
	if err := inst.setValuesTree(values); err != nil {
		return err
	}
	return inst.saveIfObserved()
}

// setValuesTree implements the depth-grouped clone-and-fold merge: every
// supplied dotted key is expanded into its ancestor prefixes, groups are
// processed deepest first, sub-values under a common parent path are
// applied to a clone of the current parent value, and the clone folds up
// as the value for the next shallower depth until a single depth-0 commit
// remains.
func (inst *Instance) setValuesTree(values map[string]any) error {
	work := make(map[string]any, len(values))
	for path, value := range values {
		top, _ := splitPath(path)
		if !inst.typ.HasField(top) {
			return callErrorf(inst.typ.name, path, "no field %q", top)
		}
		work[path] = value
	}

	expanded := make(map[string]struct{}, len(work))
	for path := range work {
		segments := strings.Split(path, ".")
		for i := range segments {
			expanded[strings.Join(segments[:i+1], ".")] = struct{}{}
		}
	}
	paths := make([]string, 0, len(expanded))
	for path := range expanded {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := pathDepth(paths[i]), pathDepth(paths[j])
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})

	for start := 0; start < len(paths); {
		depth := pathDepth(paths[start])
		end := start
		for end < len(paths) && pathDepth(paths[end]) == depth {
			end++
		}
		group := paths[start:end]
		start = end

		if depth == 0 {
			top := make(map[string]any, len(group))
			for _, name := range group {
				if value, ok := work[name]; ok {
					top[name] = value
				}
			}
			return inst.writeValues(top)
		}

		// Cluster the group by common parent path so siblings set in the
		// same call share one clone instead of overwriting each other.
		for i := 0; i < len(group); {
			parentPath := group[i][:strings.LastIndexByte(group[i], '.')]
			j := i
			var leaves []string
			for j < len(group) && strings.HasPrefix(group[j], parentPath+".") && pathDepth(group[j]) == depth {
				leaves = append(leaves, group[j][len(parentPath)+1:])
				j++
			}
			i = j

			current, err := inst.GetValue(parentPath)
			if err != nil {
				return err
			}
			partial := make(map[string]any)
			for _, leaf := range leaves {
				if value, ok := work[parentPath+"."+leaf]; ok {
					partial[leaf] = value
				}
			}
			if len(partial) == 0 {
				continue
			}

			sub, ok := current.(*Instance)
			if !ok {
				return callErrorf(inst.typ.name, parentPath, "%q is not a pack but nested values were supplied", parentPath)
			}
			clone, err := Clone(sub)
			if err != nil {
				return err
			}
			if err := clone.setValuesTree(partial); err != nil {
				return err
			}
			work[parentPath] = clone
		}
	}
	return nil
}

// DataType resolves the declared-type metadata for a possibly dotted
// path on the pack type.
func (t *Type) DataType(path string) (DataType, error) {
	top, rest := splitPath(path)
	desc, ok := t.index[top]
	if !ok {
		return DataType{}, callErrorf(t.name, path, "no field %q", top)
	}
	if rest == "" {
		return desc.declared, nil
	}
	if desc.declared.Kind != KindPack || desc.declared.Pack == nil {
		return DataType{}, callErrorf(t.name, path, "%q is not a pack but the path continues with %q", top, rest)
	}
	return desc.declared.Pack.DataType(rest)
}

// DataType resolves declared-type metadata against the instance's type.
func (inst *Instance) DataType(path string) (DataType, error) {
	return inst.typ.DataType(path)
}
