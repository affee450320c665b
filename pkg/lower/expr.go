// Package lower implements spec §4.3: the lowerer. It walks a typed AST
// (pkg/check) and streams a stack-machine instruction sequence (pkg/ir),
// flattening plural values into concatenated leaf slots per the
// desiredFields protocol instead of ever pushing a whole plural value as
// one stack word.
package lower

import (
	"fmt"

	"github.com/snuggle-lang/snugglec/pkg/check"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/ir"
	"github.com/snuggle-lang/snugglec/pkg/types"
)

// methodLower holds the state threaded through one method body's lowering.
type methodLower struct {
	arena   *types.Arena[*types.TypeDef]
	b       *ir.Builder
	fr      *frame
	bag     *diagnostics.Bag
	labels  int
}

func (m *methodLower) newLabel(prefix string) string {
	m.labels++
	return fmt.Sprintf("%s$%d", prefix, m.labels)
}

// def is a small helper to fetch a fulfilled TypeDef, panicking is never
// appropriate here (spec §7: lowering bugs must surface as InternalError,
// not panic), so callers check IsFulfilled first wherever a TypeDef might
// legitimately still be an in-progress generic specialization key.
func (m *methodLower) def(idx types.Index) *types.TypeDef {
	return m.arena.Get(idx)
}

func (m *methodLower) isPlural(idx types.Index) bool {
	if !m.arena.IsFulfilled(types.Indirection(idx)) {
		return false
	}
	return m.arena.Get(idx).IsPlural
}

// lower is the main recursive entry: lower e, restricting output to the
// leaves named by desired (spec §4.3's desiredFields thread).
func (m *methodLower) lower(e check.TypedExpr, desired []string) {
	switch n := e.(type) {
	case *check.Block:
		m.lowerBlock(n, desired)
	case *check.Literal:
		m.lowerLiteral(n)
	case *check.Variable:
		m.lowerProduceLocal(n.Slot, n.Type(), desired)
	case *check.StaticFieldAccess:
		m.lowerStaticFieldRead(n, desired)
	case *check.FieldAccess:
		m.lowerFieldRead(n, desired)
	case *check.StaticMethodCall:
		m.lowerCall(ir.OpCallStatic, n.Owner, nil, n.Method, n.Args, desired)
	case *check.MethodCall:
		m.lowerCall(ir.OpCallVirtual, n.Receiver.Type(), n.Receiver, n.Method, n.Args, desired)
	case *check.SuperCall:
		// The implicit receiver of a super-call is "this", conventionally
		// bound to local slot 0 in every instance method's activation
		// (spec §4.1.4: legal only as a method call's direct receiver).
		m.b.Append(ir.Instr{Op: ir.OpLoadLocal, LocalIndex: 0, LocalType: "Lthis;"})
		m.lowerCall(ir.OpCallSpecial, n.Method.Owner, nil, n.Method, n.Args, desired)
	case *check.ConstructorCall:
		m.lowerConstructorCall(n)
	case *check.RawStructConstructor:
		m.lowerRawStruct(n, desired)
	case *check.TupleExpr:
		m.lowerTuple(n, desired)
	case *check.Lambda:
		m.lowerLambda(n)
	case *check.Declaration:
		m.lowerDeclaration(n)
	case *check.Assignment:
		m.lowerAssignment(n)
	case *check.Return:
		m.lowerReturn(n)
	case *check.If:
		m.lowerIf(n, desired)
	case *check.While:
		m.lowerWhile(n)
	case *check.Paren:
		m.lower(n.Inner, desired)
	default:
		m.bag.Add(diagnostics.Internal(e.Loc(), "unreachable lowering case %T", e))
	}
}

// lowerBlock: each non-final subexpression lowered with empty
// desiredFields then popped per its type's slot count; the final
// subexpression inherits the outer desiredFields (spec §4.3 "Control
// flow").
func (m *methodLower) lowerBlock(n *check.Block, desired []string) {
	for i, el := range n.Elements {
		if i == len(n.Elements)-1 {
			m.lower(el, desired)
			continue
		}
		m.lower(el, nil)
		for _, l := range leaves(m.arena, el.Type()) {
			m.b.Append(ir.Instr{Op: ir.OpPop, PopType: descriptorOf(m.arena, l.Type)})
		}
	}
	if len(n.Elements) == 0 {
		return
	}
}

func (m *methodLower) lowerLiteral(n *check.Literal) {
	m.b.Append(ir.Instr{Op: ir.OpPush, PushValue: n.Text, PushType: descriptorOf(m.arena, n.Type())})
}

// lowerProduceLocal handles both plain and plural local reads (spec §4.3
// "Expressions that produce plural values (variable load ...) inspect
// desiredFields and emit code only for the requested leaf").
func (m *methodLower) lowerProduceLocal(slot int, ty types.Index, desired []string) {
	full := leaves(m.arena, ty)
	for i, l := range full {
		if !leafSelected(l, desired) {
			continue
		}
		off := leafOffset(m.arena, full, i)
		m.b.Append(ir.Instr{Op: ir.OpLoadLocal, LocalIndex: slot + off, LocalType: descriptorOf(m.arena, l.Type)})
	}
}

func leafSelected(l Leaf, desired []string) bool {
	if len(desired) == 0 {
		return true
	}
	if len(l.Path) < len(desired) {
		return false
	}
	for i, d := range desired {
		if l.Path[i] != d {
			return false
		}
	}
	return true
}

func descriptorOf(arena *types.Arena[*types.TypeDef], idx types.Index) string {
	if !arena.IsFulfilled(types.Indirection(idx)) {
		return "?"
	}
	def := arena.Get(idx)
	if len(def.Descriptor) == 1 {
		return def.Descriptor[0]
	}
	if def.RuntimeName != "" {
		return "L" + def.RuntimeName + ";"
	}
	return "?"
}

// lowerStaticFieldRead reads a (possibly plural) static/class-level field.
func (m *methodLower) lowerStaticFieldRead(n *check.StaticFieldAccess, desired []string) {
	ownerDef := m.def(n.Owner)
	full := leaves(m.arena, n.Field.Type)
	for _, l := range full {
		if !leafSelected(l, desired) {
			continue
		}
		name := mangledFieldName(append([]string{n.Field.Name}, l.Path...))
		m.b.Append(ir.Instr{Op: ir.OpGetStaticField, Field: ir.FieldRef{Owner: ownerDef.RuntimeName, Descriptor: descriptorOf(m.arena, l.Type), RuntimeName: name}})
	}
}

// lowerFieldRead implements spec §4.3's field-access read protocol: a
// plural receiver is pure navigation (push the field name onto desired and
// recurse without emitting loads); a reference-typed receiver emits itself
// once, then reads every selected leaf by mangled field name, stashing the
// receiver in a scratch local when more than one leaf is needed.
func (m *methodLower) lowerFieldRead(n *check.FieldAccess, desired []string) {
	recvTy := n.Receiver.Type()
	if m.isPlural(recvTy) {
		m.lower(n.Receiver, append(append([]string{}, n.Field.Name), desired...))
		return
	}

	full := leaves(m.arena, n.Field.Type)
	var sel []Leaf
	for _, l := range full {
		if leafSelected(l, desired) {
			sel = append(sel, l)
		}
	}
	if len(sel) == 0 {
		return
	}
	recvDef := m.recvOwnerName(recvTy)
	if len(sel) == 1 {
		m.lower(n.Receiver, nil)
		name := mangledFieldName(append([]string{n.Field.Name}, sel[0].Path...))
		m.b.Append(ir.Instr{Op: ir.OpGetReferenceTypeField, Field: ir.FieldRef{Owner: recvDef, Descriptor: descriptorOf(m.arena, sel[0].Type), RuntimeName: name}})
		return
	}
	// Last field is itself plural and multiple leaves are wanted: stash
	// the receiver once, reload it per leaf (spec's "maxVariable slot").
	m.lower(n.Receiver, nil)
	stash := m.fr.stash(recvTy)
	m.b.Append(ir.Instr{Op: ir.OpStoreLocal, LocalIndex: stash, LocalType: descriptorOf(m.arena, recvTy)})
	for _, l := range sel {
		m.b.Append(ir.Instr{Op: ir.OpLoadLocal, LocalIndex: stash, LocalType: descriptorOf(m.arena, recvTy)})
		name := mangledFieldName(append([]string{n.Field.Name}, l.Path...))
		m.b.Append(ir.Instr{Op: ir.OpGetReferenceTypeField, Field: ir.FieldRef{Owner: recvDef, Descriptor: descriptorOf(m.arena, l.Type), RuntimeName: name}})
	}
}

func (m *methodLower) recvOwnerName(ty types.Index) string {
	if !m.arena.IsFulfilled(types.Indirection(ty)) {
		return "?"
	}
	return m.arena.Get(ty).RuntimeName
}

// lowerCall implements spec §4.3's call-return width protocol: args are
// always lowered in full (desiredFields=nil — a call's side effects must
// not be duplicated per requested leaf), the call emits once, and a
// plural return's leaves beyond the first are fetched from their static
// return channels, skipping any the caller doesn't want.
func (m *methodLower) lowerCall(op ir.Op, ownerTy types.Index, receiver check.TypedExpr, method *types.MethodDef, args []check.TypedExpr, desired []string) {
	if method.Kind == types.MethodBytecode {
		if receiver != nil {
			m.lower(receiver, nil)
		}
		for _, a := range args {
			m.lower(a, nil)
		}
		if method.BytecodeEmit != nil {
			method.BytecodeEmit(m.b)
		}
		return
	}

	if receiver != nil {
		m.lower(receiver, nil)
	}
	for _, a := range args {
		m.lower(a, nil)
	}

	ownerName := "?"
	if m.arena.IsFulfilled(types.Indirection(ownerTy)) {
		ownerName = m.arena.Get(ownerTy).RuntimeName
	}
	retTy := method.Signature.Ret
	full := leaves(m.arena, retTy)
	retDesc := ""
	if retTy != types.InvalidIndex && len(full) > 0 {
		retDesc = descriptorOf(m.arena, full[0].Type)
	}
	m.b.Append(ir.Instr{
		Op: op, MethodOwner: ownerName, MethodName: method.Signature.RuntimeName,
		MethodDesc: paramDesc(m.arena, method) + retDesc, RetDescriptor: retDesc,
	})

	if retTy == types.InvalidIndex || len(full) <= 1 {
		return
	}
	// Plural return: leaf0 is already on the stack from the call itself.
	if !leafSelected(full[0], desired) {
		m.b.Append(ir.Instr{Op: ir.OpPop, PopType: descriptorOf(m.arena, full[0].Type)})
	}
	retOwnerName := m.recvOwnerName(retTy)
	for i := 1; i < len(full); i++ {
		if !leafSelected(full[i], desired) {
			continue
		}
		m.b.Append(ir.Instr{Op: ir.OpGetStaticField, Field: ir.FieldRef{Owner: retOwnerName, Descriptor: descriptorOf(m.arena, full[i].Type), RuntimeName: returnChannelName(full[i].Path)}})
	}
}

func paramDesc(arena *types.Arena[*types.TypeDef], method *types.MethodDef) string {
	s := "("
	for _, p := range method.Signature.Params {
		s += descriptorOf(arena, p.Type)
	}
	return s + ")"
}

func (m *methodLower) lowerConstructorCall(n *check.ConstructorCall) {
	def := m.def(n.Type())
	m.b.Append(ir.Instr{Op: ir.OpNewRefAndDup, RefType: def.RuntimeName})
	for _, a := range n.Args {
		m.lower(a, nil)
	}
	ctorDesc := "("
	for _, a := range n.Args {
		ctorDesc += descriptorOf(m.arena, a.Type())
	}
	ctorDesc += ")V"
	m.b.Append(ir.Instr{Op: ir.OpCallSpecial, MethodOwner: def.RuntimeName, MethodName: "<init>", MethodDesc: ctorDesc, IsCtor: true})
}

// lowerRawStruct produces a plural value's leaves in field order (spec
// §4.3's producer side). When desired names exactly one constituent
// field, only that field's subexpression is lowered — a deliberate
// narrowing for the rare "field access directly off a fresh struct
// literal" shape.
func (m *methodLower) lowerRawStruct(n *check.RawStructConstructor, desired []string) {
	def := m.def(n.Type())
	fieldIdx := -1
	if len(desired) > 0 {
		i := 0
		for _, f := range def.Fields {
			if f.IsStatic {
				continue
			}
			if f.Name == desired[0] {
				fieldIdx = i
				break
			}
			i++
		}
	}
	i := 0
	for fi, f := range def.Fields {
		if f.IsStatic {
			continue
		}
		if fieldIdx >= 0 && i != fieldIdx {
			i++
			continue
		}
		sub := []string(nil)
		if fieldIdx >= 0 {
			sub = desired[1:]
		}
		if fi < len(n.Fields) {
			m.lower(n.Fields[fi], sub)
		}
		i++
	}
}

func (m *methodLower) lowerTuple(n *check.TupleExpr, desired []string) {
	fieldIdx := -1
	if len(desired) > 0 {
		fmt.Sscanf(desired[0], "_%d", &fieldIdx)
	}
	for i, el := range n.Elems {
		if fieldIdx >= 0 && i != fieldIdx {
			continue
		}
		sub := []string(nil)
		if fieldIdx >= 0 {
			sub = desired[1:]
		}
		m.lower(el, sub)
	}
}

func (m *methodLower) lowerLambda(n *check.Lambda) {
	// Closures are erased to a single-method interface with one
	// implementation per lambda (spec §3 "func ... erased to an interface
	// with one implementation per lambda"); constructing a closure value
	// here is a NewRefAndDup of its synthesized func-impl type.
	m.b.Append(ir.Instr{Op: ir.OpNewRefAndDup, RefType: "<lambda>"})
	m.b.Append(ir.Instr{Op: ir.OpCallSpecial, MethodOwner: "<lambda>", MethodName: "<init>", MethodDesc: "()V", IsCtor: true})
}

// lowerDeclaration lowers the RHS once (desiredFields=nil, so every leaf
// is produced exactly once regardless of side effects) then drains the
// stack top-down into the declared local's slot range — spec §3's dense,
// non-overlapping local-slot invariant falls out of summing leaf widths.
func (m *methodLower) lowerDeclaration(n *check.Declaration) {
	m.lower(n.Value, nil)
	full := leaves(m.arena, n.VarType)
	for i := len(full) - 1; i >= 0; i-- {
		off := leafOffset(m.arena, full, i)
		m.b.Append(ir.Instr{Op: ir.OpStoreLocal, LocalIndex: n.Slot + off, LocalType: descriptorOf(m.arena, full[i].Type)})
	}
}

// lowerAssignment mirrors the read protocol in reverse (spec §4.3): the
// RHS is lowered whole, then each leaf is stored via StoreLocal,
// PutStaticField, or — for a reference-typed receiver — reloaded from a
// stashed receiver and swapped into PUTFIELD order.
func (m *methodLower) lowerAssignment(n *check.Assignment) {
	switch t := n.Target.(type) {
	case *check.Variable:
		m.lower(n.Value, nil)
		full := leaves(m.arena, t.Type())
		for i := len(full) - 1; i >= 0; i-- {
			off := leafOffset(m.arena, full, i)
			m.b.Append(ir.Instr{Op: ir.OpStoreLocal, LocalIndex: t.Slot + off, LocalType: descriptorOf(m.arena, full[i].Type)})
		}
	case *check.StaticFieldAccess:
		m.lower(n.Value, nil)
		ownerDef := m.def(t.Owner)
		full := leaves(m.arena, t.Field.Type)
		for i := len(full) - 1; i >= 0; i-- {
			name := mangledFieldName(append([]string{t.Field.Name}, full[i].Path...))
			m.b.Append(ir.Instr{Op: ir.OpPutStaticField, Field: ir.FieldRef{Owner: ownerDef.RuntimeName, Descriptor: descriptorOf(m.arena, full[i].Type), RuntimeName: name}})
		}
	case *check.FieldAccess:
		m.lowerAssignField(t, n.Value)
	default:
		m.bag.Add(diagnostics.Internal(n.Location, "unreachable lowering case: assignment to %T", n.Target))
	}
}

func (m *methodLower) lowerAssignField(t *check.FieldAccess, value check.TypedExpr) {
	recvTy := t.Receiver.Type()
	if m.isPlural(recvTy) {
		// Navigating a chain of plural fields on the lvalue side: recurse
		// with the same per-leaf reverse-store strategy one level deeper.
		m.lower(value, nil)
		full := leaves(m.arena, t.Field.Type)
		for i := len(full) - 1; i >= 0; i-- {
			m.storePluralLeafToReceiverChain(t.Receiver, append([]string{t.Field.Name}, full[i].Path...), descriptorOf(m.arena, full[i].Type))
		}
		return
	}

	m.lower(value, nil)
	full := leaves(m.arena, t.Field.Type)
	recvDef := m.recvOwnerName(recvTy)

	stash := -1
	if len(full) > 1 {
		m.lower(t.Receiver, nil)
		stash = m.fr.stash(recvTy)
		m.b.Append(ir.Instr{Op: ir.OpStoreLocal, LocalIndex: stash, LocalType: descriptorOf(m.arena, recvTy)})
	}
	for i := len(full) - 1; i >= 0; i-- {
		if stash >= 0 {
			m.b.Append(ir.Instr{Op: ir.OpLoadLocal, LocalIndex: stash, LocalType: descriptorOf(m.arena, recvTy)})
		} else {
			m.lower(t.Receiver, nil)
		}
		m.b.Append(ir.Instr{Op: ir.OpSwapBasic, SwapTop: descriptorOf(m.arena, recvTy), SwapSecond: descriptorOf(m.arena, full[i].Type)})
		name := mangledFieldName(append([]string{t.Field.Name}, full[i].Path...))
		m.b.Append(ir.Instr{Op: ir.OpPutReferenceTypeField, Field: ir.FieldRef{Owner: recvDef, Descriptor: descriptorOf(m.arena, full[i].Type), RuntimeName: name}})
	}
}

// storePluralLeafToReceiverChain stores the top-of-stack value into one
// leaf of a chain of plural field navigations ending at a non-plural
// runtime slot. Kept separate from lowerAssignField's reference-receiver
// path because a plural chain never needs PUTFIELD/swap — it bottoms out
// either at a local (Variable) or a reference receiver further up.
func (m *methodLower) storePluralLeafToReceiverChain(recv check.TypedExpr, path []string, desc string) {
	switch r := recv.(type) {
	case *check.Variable:
		// Value-typed receiver chain bottoms out at a local: the leaf's
		// offset within r's flattened layout is exactly len(path)-1 names
		// deep from r's own type.
		full := leaves(m.arena, r.Type())
		for i, l := range full {
			if samePath(l.Path, path) {
				off := leafOffset(m.arena, full, i)
				m.b.Append(ir.Instr{Op: ir.OpStoreLocal, LocalIndex: r.Slot + off, LocalType: desc})
				return
			}
		}
	case *check.FieldAccess:
		// Receiver is itself a navigated plural field (e.g. a.b.c = v for
		// nested structs): recurse one level further up the chain, or
		// emit against a reference receiver if r's own receiver is one.
		innerPath := append([]string{r.Field.Name}, path...)
		if m.isPlural(r.Receiver.Type()) {
			m.storePluralLeafToReceiverChain(r.Receiver, innerPath, desc)
			return
		}
		m.lower(r.Receiver, nil)
		name := mangledFieldName(innerPath)
		m.b.Append(ir.Instr{Op: ir.OpSwapBasic, SwapTop: descriptorOf(m.arena, r.Receiver.Type()), SwapSecond: desc})
		m.b.Append(ir.Instr{Op: ir.OpPutReferenceTypeField, Field: ir.FieldRef{Owner: m.recvOwnerName(r.Receiver.Type()), Descriptor: desc, RuntimeName: name}})
	}
}

func samePath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lowerReturn implements spec §4.3's plural-return protocol: lower the
// value whole, store every leaf but the first into its static return
// channel (popping from the top down), then Return the remaining first
// leaf — or a bare Return for a non-plural/void result.
func (m *methodLower) lowerReturn(n *check.Return) {
	if n.Value == nil {
		m.b.Append(ir.Instr{Op: ir.OpReturn})
		return
	}
	m.lower(n.Value, nil)
	full := leaves(m.arena, n.Value.Type())
	if len(full) <= 1 {
		desc := ""
		if len(full) == 1 {
			desc = descriptorOf(m.arena, full[0].Type)
		}
		m.b.Append(ir.Instr{Op: ir.OpReturn, RetDescriptor: desc})
		return
	}
	retOwnerName := m.recvOwnerName(n.Value.Type())
	for i := len(full) - 1; i >= 1; i-- {
		m.b.Append(ir.Instr{Op: ir.OpPutStaticField, Field: ir.FieldRef{Owner: retOwnerName, Descriptor: descriptorOf(m.arena, full[i].Type), RuntimeName: returnChannelName(full[i].Path)}})
	}
	m.b.Append(ir.Instr{Op: ir.OpReturn, RetDescriptor: descriptorOf(m.arena, full[0].Type)})
}

// lowerIf: condition leaves a boolean on the stack, consumed by
// JumpIfFalse (spec §4.3 "Control flow").
func (m *methodLower) lowerIf(n *check.If, desired []string) {
	m.lower(n.Cond, nil)
	elseLabel := m.newLabel("else")
	endLabel := m.newLabel("endif")
	m.b.Append(ir.Instr{Op: ir.OpJumpIfFalse, Target: elseLabel})
	m.lower(n.Then, desired)
	if n.Else != nil {
		m.b.Append(ir.Instr{Op: ir.OpJump, Target: endLabel})
		m.b.Append(ir.Instr{Op: ir.OpLabel, Target: elseLabel})
		m.lower(n.Else, desired)
		m.b.Append(ir.Instr{Op: ir.OpLabel, Target: endLabel})
	} else {
		m.b.Append(ir.Instr{Op: ir.OpLabel, Target: elseLabel})
	}
}

func (m *methodLower) lowerWhile(n *check.While) {
	topLabel := m.newLabel("loop")
	endLabel := m.newLabel("endloop")
	m.b.Append(ir.Instr{Op: ir.OpLabel, Target: topLabel})
	m.lower(n.Cond, nil)
	m.b.Append(ir.Instr{Op: ir.OpJumpIfFalse, Target: endLabel})
	m.lower(n.Body, nil)
	for _, l := range leaves(m.arena, n.Body.Type()) {
		m.b.Append(ir.Instr{Op: ir.OpPop, PopType: descriptorOf(m.arena, l.Type)})
	}
	m.b.Append(ir.Instr{Op: ir.OpJump, Target: topLabel})
	m.b.Append(ir.Instr{Op: ir.OpLabel, Target: endLabel})
}
