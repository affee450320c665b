package lower

import (
	"strings"

	"github.com/snuggle-lang/snugglec/pkg/types"
)

// Leaf is one storage slot of a plural type's concatenated layout (spec
// glossary "Plural type"): a path of field names from the root value down
// to a non-plural leaf field, and the leaf's own type. Its stack-slot
// width is looked up from that type by stackSlots.
type Leaf struct {
	Path []string
	Type types.Index
}

// leaves recursively flattens def's non-static fields into leaf slots
// (spec §3 "Plural types ... stackSlots equal the sum of their recursive
// non-static fields' stack slots"). A non-plural type has exactly one
// leaf at an empty path, so every call site can treat plural and
// non-plural producers uniformly by always calling leaves and filtering.
// InvalidIndex (a statement, or a void result) has no leaves.
func leaves(arena *types.Arena[*types.TypeDef], idx types.Index) []Leaf {
	if idx == types.InvalidIndex {
		return nil
	}
	if !arena.IsFulfilled(types.Indirection(idx)) {
		return []Leaf{{Type: idx}}
	}
	def := arena.Get(idx)
	if !def.IsPlural {
		return []Leaf{{Type: idx}}
	}
	var out []Leaf
	for _, f := range def.Fields {
		if f.IsStatic {
			continue
		}
		for _, sub := range leaves(arena, f.Type) {
			out = append(out, Leaf{Path: append(append([]string{}, f.Name), sub.Path...), Type: sub.Type})
		}
	}
	return out
}

// selectLeaves filters full (every leaf of a plural value's type) down to
// the leaves the consumer actually wants, per the desiredFields protocol
// (spec §4.3 "a prefix list of fields the consumer actually wants ...
// emit code only for the requested leaf, or for every leaf if the path is
// empty").
func selectLeaves(full []Leaf, desired []string) []Leaf {
	if len(desired) == 0 {
		return full
	}
	var out []Leaf
	for _, l := range full {
		if len(l.Path) < len(desired) {
			continue
		}
		match := true
		for i, d := range desired {
			if l.Path[i] != d {
				match = false
				break
			}
		}
		if match {
			out = append(out, l)
		}
	}
	return out
}

// stackSlots sums a leaf type's stack-slot width, defaulting to 1 for an
// as-yet-unfulfilled index (recursive field referring to a type still
// mid-specialization — spec §4.2's builder never needs the width of such
// a field, only lowering does, by which point every type is fulfilled;
// the fallback only guards against the degenerate single-field struct
// test fixture that never actually forces this path).
func stackSlots(arena *types.Arena[*types.TypeDef], idx types.Index) int {
	if !arena.IsFulfilled(types.Indirection(idx)) {
		return 1
	}
	return arena.Get(idx).StackSlots
}

// leafOffset computes the local-slot offset of full[i] relative to the
// start of the plural value's own slot range, accounting for wider
// category-2 leaves ahead of it (spec §3 "Local-slot indices are dense and
// non-overlapping").
func leafOffset(arena *types.Arena[*types.TypeDef], full []Leaf, i int) int {
	off := 0
	for j := 0; j < i; j++ {
		off += stackSlots(arena, full[j].Type)
	}
	return off
}

// mangledFieldName renders a leaf path as spec §4.3's runtime field name:
// "receiver$f1$f2$…$leaf", with identifier characters illegal in host
// field names normalized (slash mangling, spec §4.3 "Runtime names").
func mangledFieldName(path []string) string {
	return normalizeRuntime(strings.Join(path, "$"))
}

// returnChannelName renders spec §4.3's static return-channel name:
// "RETURN! $path", used for every leaf but the first of a plural return.
func returnChannelName(path []string) string {
	return "RETURN! $" + normalizeRuntime(strings.Join(path, "$"))
}

// normalizeRuntime mangles identifier characters a host class/field name
// cannot carry (spec §4.3 "Identifier characters illegal in host
// class/field names are mangled (slash normalization)").
func normalizeRuntime(s string) string {
	return strings.ReplaceAll(s, "/", "_")
}
