package errors

import (
	"fmt"
	"strings"

	"github.com/suyanlong/alephium/internal/ast"
)

// SemanticErrorBuilder is a fluent interface for building a CompilerError
// with suggestions, notes, and help text attached.
type SemanticErrorBuilder struct {
	err CompilerError
}

func NewSemanticError(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1}}
}

func NewSemanticWarning(code, message string, pos ast.Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1}}
}

func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

func (b *SemanticErrorBuilder) WithSuggestion(message string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *SemanticErrorBuilder) WithNote(note string) *SemanticErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *SemanticErrorBuilder) WithHelp(help string) *SemanticErrorBuilder {
	b.err.HelpText = help
	return b
}

func (b *SemanticErrorBuilder) Build() CompilerError {
	return b.err
}

// The constructors below produce the exact message substrings spec'd
// for the compiler's error taxonomy. Message text is load-bearing:
// callers (and tests) match on it, so it is never reworded freely.

func UndefinedName(kind, name string, pos ast.Position, candidates []string) CompilerError {
	similar := FindSimilarNames(name, candidates)
	builder := NewSemanticError(ErrorUndefinedName, fmt.Sprintf("%s %s does not exist", kind, name), pos).WithLength(len(name))
	if len(similar) == 1 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	} else if len(similar) > 1 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '")))
	}
	return builder.Build()
}

func TypeMismatch(from, to string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorTypeMismatch, fmt.Sprintf("Assign %s to %s", from, to), pos).Build()
}

func InvalidCondition(pos ast.Position) CompilerError {
	return NewSemanticError(ErrorTypeMismatch, "Invalid type of condition expr", pos).Build()
}

func ArrayElementTypeMismatch(pos ast.Position) CompilerError {
	return NewSemanticError(ErrorTypeMismatch, "Array elements should have same type", pos).Build()
}

func InvalidOperatorForType(op, typ string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidOperation, fmt.Sprintf("Operator %s is not defined for type %s", op, typ), pos).Build()
}

func MissingReturn(funcName string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorMissingReturn, fmt.Sprintf("Missing return for function: %s", funcName), pos).Build()
}

func AssignToImmutable(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorAssignImmutable, fmt.Sprintf("Assign to immutable variable: %s", name), pos).
		WithSuggestion(fmt.Sprintf("declare it as 'let mut %s' if it needs to be reassigned", name)).
		Build()
}

func DuplicateEvents(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorDuplicateDefinition, fmt.Sprintf("These events are defined multiple times: %s", name), pos).Build()
}

func DuplicateDefinition(kind, name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorDuplicateDefinition, fmt.Sprintf("These %s are defined multiple times: %s", kind, name), pos).Build()
}

func ContractDoesNotExist(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorUndefinedType, fmt.Sprintf("Contract %s does not exist", name), pos).Build()
}

func ExpectContractFor(funcName, varName string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorUndefinedType, fmt.Sprintf("Expect contract for %s of %s", funcName, varName), pos).Build()
}

func CyclicInheritance(name string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorCyclicInheritance, fmt.Sprintf("Cyclic inheritance detected for contract %s", name), pos).Build()
}

func InvalidInheritanceFields(child, parent string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidInheritance,
		fmt.Sprintf("Invalid contract inheritance fields for %s extending %s", child, parent), pos).Build()
}

func UnimplementedMethods(contract string, methods []string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorUnimplementedMethods,
		fmt.Sprintf("Contract %s has unimplemented methods: %s", contract, strings.Join(methods, ", ")), pos).Build()
}

func InterfaceHasImplementedMethods(iface string, methods []string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorUnimplementedMethods,
		fmt.Sprintf("Interface %s has implemented methods: %s", iface, strings.Join(methods, ", ")), pos).Build()
}

func WrongSignature(funcName string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorWrongSignature, fmt.Sprintf("Function %s is implemented with wrong signature", funcName), pos).Build()
}

func NoPermissionCheck(qualifiedFunc string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorNoPermissionCheck, fmt.Sprintf("No permission check for function: %s", qualifiedFunc), pos).Build()
}

func NoPermissionCheckWarning(qualifiedFunc string, pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningNoPermissionCheck,
		fmt.Sprintf("No permission check for function: %s, please use checkPermission!(...) or annotate the function with a narrower @using(checkExternalCaller = ...)", qualifiedFunc),
		pos).Build()
}

func LoopRangeTooLarge(pos ast.Position) CompilerError {
	return NewSemanticError(ErrorLoopRangeTooLarge, "loop range too large", pos).Build()
}

func TooManyBranchInstructions(pos ast.Position) CompilerError {
	return NewSemanticError(ErrorTooManyBranchInstr, "Too many instrs for if-else branches", pos).Build()
}

func InvalidArrayIndex(v string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidArrayIndex, fmt.Sprintf("Invalid array index %s", v), pos).Build()
}

func ArrayTypeNotSupportedForEvent(event string, pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidArrayIndex, fmt.Sprintf("Array type not supported for event %s", event), pos).Build()
}

func InvalidContractIndex(pos ast.Position) CompilerError {
	return NewSemanticError(ErrorInvalidContractIndex, "Invalid contract index", pos).Build()
}

func UnusedVariable(kind, name string, pos ast.Position) CompilerError {
	return NewSemanticWarning(WarningUnusedVariable, fmt.Sprintf("unused %s '%s'", kind, name), pos).
		WithSuggestion(fmt.Sprintf("prefix with underscore or mark unused: '_%s'", name)).
		Build()
}

// FindSimilarNames and levenshteinDistance back the "did you mean"
// suggestions on undefined-name errors.
func FindSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
