// Package compiler implements the semantic analysis, inheritance
// resolution, code generation, and permission-check analysis that turn
// a parsed AST into a bytecode output shape. It is a pure function of
// its inputs: no I/O, no global state, single-threaded per call.
package compiler

import (
	"fmt"
	"sort"

	"github.com/suyanlong/alephium/internal/ast"
	cerrors "github.com/suyanlong/alephium/internal/errors"
	"github.com/suyanlong/alephium/internal/instr"
	"github.com/suyanlong/alephium/internal/types"
)

// StorageClass distinguishes where a variable's value lives at runtime.
type StorageClass int

const (
	StorageLocal StorageClass = iota
	StorageField
	StorageTemplate
	StorageConstant
)

// VarInfo is one entry of the variables table.
type VarInfo struct {
	Name       ast.Ident
	Type       types.Type
	Mutable    bool
	Unused     bool
	Generated  bool
	Class      StorageClass
	Index      int                // slot index for Local/Field/Template
	ConstInstr []instr.Instruction // pre-computed load sequence, Class == StorageConstant
	Used       bool                // set by get_variable, backs check_unused_*
	Pos        ast.Position
}

// ArrayRef records the contiguous run of slots backing an array-valued
// variable, enabling per-element load/store via base+offset.
type ArrayRef struct {
	Base  VarInfo
	ElemT types.Type
	Len   int
}

// ContractInfo is what the state needs to know about every unit in the
// same MultiContract to type-check external calls.
type ContractInfo struct {
	Kind      types.ContractKind
	Fields    []ast.Argument
	Funcs     map[ast.Ident]*ast.FuncDef
	FuncOrder []ast.Ident // declaration/merge order, backs Method table indices
	Constants []*ast.ConstantVarDef
	Enums     []*ast.EnumDef

	// FromInterface marks a func name whose declaration originated from
	// an inherited interface, set once at merge time and preserved even
	// after a contract's own implementation overwrites the abstract
	// entry. Backs the interface-implementing permission rule, which
	// cannot be recovered from body-nilness once merging is done.
	FromInterface map[ast.Ident]bool
}

// FuncIndex returns a function's position in the contract's method
// table, used to encode CallLocal/CallExternal operands.
func (c *ContractInfo) FuncIndex(name ast.Ident) (int, bool) {
	for i, n := range c.FuncOrder {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Config mirrors spec's CompilerConfig.
type Config struct {
	LoopUnrollingLimit int
}

// DefaultConfig returns the configuration used when the caller supplies
// none: unrolling is bounded but generous.
func DefaultConfig() Config { return Config{LoopUnrollingLimit: 1024} }

// State is the per-compilation-unit compiler state: one exists per
// contract/script being compiled, created fresh at the start of that
// unit's compilation and discarded once its warnings are harvested.
type State struct {
	Config Config

	Unit     ast.Unit
	UnitName ast.TypeId

	// Scopes: global (current contract/script) plus the active function
	// scope, modeled as a stack of name->VarInfo maps, innermost last.
	scopes []map[ast.Ident]*VarInfo

	nextLocal    int
	nextField    int
	nextTemplate int

	arrayRefs map[ast.Ident]*ArrayRef

	InternalCalls map[ast.FuncId]map[ast.FuncId]bool
	ExternalCalls map[ast.FuncId]map[externalCallee]bool

	Events map[ast.TypeId]int // event name -> index

	warnings      []string
	warningsSeen  map[string]bool

	Contracts map[ast.TypeId]*ContractInfo

	Errors []cerrors.CompilerError

	curFunc ast.FuncId
}

type externalCallee struct {
	Type ast.TypeId
	Func ast.FuncId
}

func NewState(unit ast.Unit, contracts map[ast.TypeId]*ContractInfo, cfg Config) *State {
	return &State{
		Config:        cfg,
		Unit:          unit,
		UnitName:      unit.UnitName(),
		scopes:        []map[ast.Ident]*VarInfo{make(map[ast.Ident]*VarInfo)},
		arrayRefs:     make(map[ast.Ident]*ArrayRef),
		InternalCalls: make(map[ast.FuncId]map[ast.FuncId]bool),
		ExternalCalls: make(map[ast.FuncId]map[externalCallee]bool),
		Events:        make(map[ast.TypeId]int),
		warningsSeen:  make(map[string]bool),
		Contracts:     contracts,
	}
}

func (s *State) addError(err cerrors.CompilerError) { s.Errors = append(s.Errors, err) }

// AddWarning appends a warning, deduplicated on insertion, in order.
func (s *State) AddWarning(msg string) {
	if s.warningsSeen[msg] {
		return
	}
	s.warningsSeen[msg] = true
	s.warnings = append(s.warnings, msg)
}

func (s *State) Warnings() []string { return s.warnings }

// PushScope / PopScope bracket a function body's local scope.
func (s *State) PushScope() { s.scopes = append(s.scopes, make(map[ast.Ident]*VarInfo)) }
func (s *State) PopScope()  { s.scopes = s.scopes[:len(s.scopes)-1] }

func (s *State) EnterFunc(id ast.FuncId) {
	s.curFunc = id
	s.nextLocal = 0
	s.PushScope()
}

func (s *State) ExitFunc() { s.PopScope() }

func (s *State) topScope() map[ast.Ident]*VarInfo { return s.scopes[len(s.scopes)-1] }

// addVariable inserts into the innermost scope (locals) or the root
// scope (fields/templates/constants, which are always scope 0).
func (s *State) addVariable(v *VarInfo, scope map[ast.Ident]*VarInfo) error {
	if _, exists := scope[v.Name]; exists {
		return fmt.Errorf("duplicate definition: %s", v.Name)
	}
	scope[v.Name] = v
	return nil
}

// AddLocalVariable allocates the next free local slot(s) — one per
// flattened cell — and registers the variable (and, for arrays, its
// ArrayRef) in the innermost scope.
func (s *State) AddLocalVariable(name ast.Ident, t types.Type, mutable, unused bool, pos ast.Position) (*VarInfo, error) {
	n := types.FlattenTypeLength([]types.Type{t})
	base := s.nextLocal
	s.nextLocal += n
	v := &VarInfo{Name: name, Type: t, Mutable: mutable, Unused: unused, Class: StorageLocal, Index: base, Pos: pos}
	if err := s.addVariable(v, s.topScope()); err != nil {
		return nil, err
	}
	if t.Kind == types.FixedSizeArray {
		s.arrayRefs[name] = &ArrayRef{Base: *v, ElemT: *t.Elem, Len: t.Length}
	}
	return v, nil
}

// AddFieldVariable allocates a field slot on the root scope.
func (s *State) AddFieldVariable(name ast.Ident, t types.Type, mutable, unused bool, pos ast.Position) (*VarInfo, error) {
	n := types.FlattenTypeLength([]types.Type{t})
	base := s.nextField
	s.nextField += n
	v := &VarInfo{Name: name, Type: t, Mutable: mutable, Unused: unused, Class: StorageField, Index: base, Pos: pos}
	if err := s.addVariable(v, s.scopes[0]); err != nil {
		return nil, err
	}
	if t.Kind == types.FixedSizeArray {
		s.arrayRefs[name] = &ArrayRef{Base: *v, ElemT: *t.Elem, Len: t.Length}
	}
	return v, nil
}

// AddTemplateVariable allocates a template-var index in declaration
// order; templates are immutable and loaded via LoadImmField.
func (s *State) AddTemplateVariable(name ast.Ident, t types.Type, pos ast.Position) (*VarInfo, error) {
	idx := s.nextTemplate
	s.nextTemplate++
	v := &VarInfo{Name: name, Type: t, Mutable: false, Class: StorageTemplate, Index: idx, Pos: pos}
	if err := s.addVariable(v, s.scopes[0]); err != nil {
		return nil, err
	}
	return v, nil
}

// AddConstantVariable registers a compile-time constant together with
// its pre-computed load instruction.
func (s *State) AddConstantVariable(name ast.Ident, val types.Val, pos ast.Position) (*VarInfo, error) {
	v := &VarInfo{
		Name: name, Type: val.Type(), Mutable: false, Class: StorageConstant,
		ConstInstr: []instr.Instruction{val.ToConstInstr()}, Pos: pos,
	}
	if err := s.addVariable(v, s.scopes[0]); err != nil {
		return nil, err
	}
	return v, nil
}

// GetVariable looks up a name through the scope chain, innermost first,
// marking it used.
func (s *State) GetVariable(name ast.Ident) (*VarInfo, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			v.Used = true
			return v, true
		}
	}
	return nil, false
}

// GetType returns the cached type of an expression and whether one is
// set; it computes nothing itself (the semantic pass's InferType is what
// fills the cache through SetCachedType).
func (s *State) GetType(e ast.Expr) ([]types.Type, bool) { return e.CachedType() }

// GetFunc resolves a function by id against the unit's own function
// table, including inherited/merged functions (resolved by the
// inheritance pass before codegen runs).
func (s *State) GetFunc(funcs map[ast.Ident]*ast.FuncDef, name ast.Ident) (*ast.FuncDef, bool) {
	f, ok := funcs[name]
	return f, ok
}

// CheckArguments verifies an argument expression-type sequence against
// a function's declared parameter types.
func (s *State) CheckArguments(funcName ast.Ident, declared []types.Type, got []types.Type, pos ast.Position) error {
	if !types.SequenceEqual(declared, got) {
		return fmt.Errorf("Assign %v to %v", got, declared)
	}
	return nil
}

// CheckReturn verifies a return-statement's value types match the
// enclosing function's declared return sequence.
func (s *State) CheckReturn(declared []types.Type, got []types.Type) bool {
	return types.SequenceEqual(declared, got)
}

// CheckUnusedLocalVars emits warnings for any declared, non-generated
// local that was never referenced and not marked unused.
func (s *State) CheckUnusedLocalVars() {
	scope := s.topScope()
	names := make([]ast.Ident, 0, len(scope))
	for n := range scope {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, n := range names {
		v := scope[n]
		if v.Class == StorageLocal && !v.Generated && !v.Unused && !v.Used {
			s.AddWarning(cerrors.UnusedVariable("variable", string(n), v.Pos).Message)
		}
	}
}

// CheckUnusedFields emits warnings for declared fields never referenced.
func (s *State) CheckUnusedFields() {
	for _, v := range s.scopes[0] {
		if v.Class == StorageField && !v.Unused && !v.Used {
			s.AddWarning(cerrors.UnusedVariable("field", string(v.Name), v.Pos).Message)
		}
	}
}

// AddInternalCall records an edge of the internal call graph.
func (s *State) AddInternalCall(caller, callee ast.FuncId) {
	set, ok := s.InternalCalls[caller]
	if !ok {
		set = make(map[ast.FuncId]bool)
		s.InternalCalls[caller] = set
	}
	set[callee] = true
}

// AddExternalCall records an edge of the external call graph.
func (s *State) AddExternalCall(caller ast.FuncId, calleeType ast.TypeId, calleeFunc ast.FuncId) {
	set, ok := s.ExternalCalls[caller]
	if !ok {
		set = make(map[externalCallee]bool)
		s.ExternalCalls[caller] = set
	}
	set[externalCallee{Type: calleeType, Func: calleeFunc}] = true
}

// GetArrayRef retrieves a previously materialised ArrayRef.
func (s *State) GetArrayRef(name ast.Ident) (*ArrayRef, bool) {
	r, ok := s.arrayRefs[name]
	return r, ok
}

// GetOrCreateArrayRef returns the ArrayRef for name, materialising one
// backed by the variable's already-allocated slots if it doesn't exist
// yet (variables are allocated with their full flattened width up
// front, so this only (re)builds the bookkeeping struct).
func (s *State) GetOrCreateArrayRef(name ast.Ident) (*ArrayRef, error) {
	if r, ok := s.arrayRefs[name]; ok {
		return r, nil
	}
	v, ok := s.GetVariable(name)
	if !ok {
		return nil, fmt.Errorf("%s does not exist", name)
	}
	if v.Type.Kind != types.FixedSizeArray {
		return nil, fmt.Errorf("Invalid array index v")
	}
	r := &ArrayRef{Base: *v, ElemT: *v.Type.Elem, Len: v.Type.Length}
	s.arrayRefs[name] = r
	return r, nil
}

// RegisterEvent assigns the next event index.
func (s *State) RegisterEvent(name ast.TypeId) int {
	if idx, ok := s.Events[name]; ok {
		return idx
	}
	idx := len(s.Events)
	s.Events[name] = idx
	return idx
}

// GenLoadCode emits the load sequence appropriate to a variable's
// storage class. Array variables emit every cell, ascending.
func (s *State) GenLoadCode(name ast.Ident) ([]instr.Instruction, error) {
	v, ok := s.GetVariable(name)
	if !ok {
		return nil, fmt.Errorf("%s does not exist", name)
	}
	n := types.FlattenTypeLength([]types.Type{v.Type})
	var out []instr.Instruction
	switch v.Class {
	case StorageConstant:
		out = append(out, v.ConstInstr...)
	case StorageTemplate:
		for i := 0; i < n; i++ {
			out = append(out, instr.NewLoadImmField(v.Index+i))
		}
	case StorageField:
		for i := 0; i < n; i++ {
			out = append(out, instr.NewLoadField(v.Index+i))
		}
	case StorageLocal:
		for i := 0; i < n; i++ {
			out = append(out, instr.NewLoadLocal(v.Index+i))
		}
	}
	return out, nil
}

// GenStoreCode emits the store sequence for a variable, consuming its
// flattened cells from the stack top downward so that the first cell
// pushed ends up in the lowest-indexed slot. It rejects template and
// constant variables; locals and fields are stored whatever their
// mutability (the assignment codegen checks that).
func (s *State) GenStoreCode(name ast.Ident) ([]instr.Instruction, error) {
	v, ok := s.GetVariable(name)
	if !ok {
		return nil, fmt.Errorf("%s does not exist", name)
	}
	if v.Class != StorageLocal && v.Class != StorageField {
		return nil, fmt.Errorf("Assign to immutable variable: %s", name)
	}
	n := types.FlattenTypeLength([]types.Type{v.Type})
	var out []instr.Instruction
	for i := n - 1; i >= 0; i-- {
		if v.Class == StorageField {
			out = append(out, instr.NewStoreField(v.Index+i))
		} else {
			out = append(out, instr.NewStoreLocal(v.Index+i))
		}
	}
	return out, nil
}

// GenLoadIndexedCode emits the load sequence for a[i1]...[ik]. When
// every index is a constant expression the flat offset is computed at
// compile time; otherwise dynamic base+offset addressing is used.
func (s *State) GenLoadIndexedCode(name ast.Ident, indexes []ast.Expr, constOffset *int, dynamic []instr.Instruction) ([]instr.Instruction, types.Type, error) {
	ref, err := s.GetOrCreateArrayRef(name)
	if err != nil {
		return nil, types.Type{}, err
	}
	elemT, err := types.ElementType(ref.Base.Type, len(indexes))
	if err != nil {
		return nil, types.Type{}, err
	}
	n := types.FlattenTypeLength([]types.Type{elemT})
	v, _ := s.GetVariable(name)
	var out []instr.Instruction
	if constOffset != nil {
		for i := 0; i < n; i++ {
			if v.Class == StorageField {
				out = append(out, instr.NewLoadField(v.Index+*constOffset+i))
			} else {
				out = append(out, instr.NewLoadLocal(v.Index+*constOffset+i))
			}
		}
		return out, elemT, nil
	}
	out = append(out, dynamic...)
	baseOp := instr.LoadLocalBase
	if v.Class == StorageField {
		baseOp = instr.LoadFieldBase
	}
	out = append(out, instr.Instruction{Op: baseOp, Index: v.Index})
	out = append(out, instr.Simple(instr.ArrayDynOffset))
	return out, elemT, nil
}
