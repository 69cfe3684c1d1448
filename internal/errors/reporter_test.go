package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/suyanlong/alephium/internal/ast"
)

func TestErrorReporter(t *testing.T) {
	source := `contract Test {
    fn test() -> U256 {
        let x = unknownVar;
        return x;
    }
}`

	reporter := NewErrorReporter("test.ral", source)

	err := UndefinedName("variable", "unknownVar", ast.Position{Line: 3, Column: 17}, []string{"knownVar", "anotherVar"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUndefinedName+"]")
	assert.Contains(t, formatted, "unknownVar")
	assert.Contains(t, formatted, "test.ral:3:17")
	assert.Contains(t, formatted, "did you mean")
	assert.Contains(t, formatted, "knownVar")
}

func TestAssignToImmutableError(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 5}

	err := AssignToImmutable("b", pos)
	assert.Equal(t, ErrorAssignImmutable, err.Code)
	assert.Equal(t, "Assign to immutable variable: b", err.Message)
}

func TestCyclicInheritanceError(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 1}

	err := CyclicInheritance("A", pos)
	assert.Equal(t, ErrorCyclicInheritance, err.Code)
	assert.Equal(t, "Cyclic inheritance detected for contract A", err.Message)
}

func TestNoPermissionCheckError(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 1}

	err := NoPermissionCheck("Foo.bar", pos)
	assert.Equal(t, ErrorNoPermissionCheck, err.Code)
	assert.Equal(t, "No permission check for function: Foo.bar", err.Message)
}

func TestNoPermissionCheckWarning(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 1}

	err := NoPermissionCheckWarning("Foo.bar", pos)
	assert.Equal(t, Warning, err.Level)
	assert.Contains(t, err.Message, "No permission check for function: Foo.bar")
}

func TestLoopRangeTooLargeError(t *testing.T) {
	err := LoopRangeTooLarge(ast.Position{Line: 1, Column: 1})
	assert.Equal(t, "loop range too large", err.Message)
}

func TestWarningFormatting(t *testing.T) {
	source := `let unused = 42;`
	reporter := NewErrorReporter("test.ral", source)

	err := UnusedVariable("field", "unused", ast.Position{Line: 1, Column: 5})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning[W0001]")
	assert.Contains(t, formatted, "unused field 'unused'")
	assert.Contains(t, formatted, "prefix with underscore")
}

func TestErrorMarkerCreation(t *testing.T) {
	source := `let variable = value;`
	reporter := NewErrorReporter("test.ral", source)

	marker := reporter.createMarker(5, 8, Error)

	spaces := strings.Count(marker, " ")
	assert.Equal(t, 4, spaces)
	carets := strings.Count(marker, "^")
	assert.Equal(t, 8, carets)
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("hello", "hello"))
	assert.Equal(t, 1, levenshteinDistance("hello", "hallo"))
	assert.Equal(t, 1, levenshteinDistance("hello", "helo"))
	assert.Equal(t, 5, levenshteinDistance("hello", ""))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestSimilarNameFinding(t *testing.T) {
	candidates := []string{"balance", "amount", "total", "balanceOf", "xyz"}

	similar := FindSimilarNames("balace", candidates)
	assert.Contains(t, similar, "balance")
	assert.NotContains(t, similar, "xyz")

	similar = FindSimilarNames("verydifferent", candidates)
	assert.Empty(t, similar)
}

func TestCategoryOfGroupsByCodeRange(t *testing.T) {
	assert.Equal(t, "semantic", CategoryOf(ErrorTypeMismatch))
	assert.Equal(t, "mutability/scope", CategoryOf(ErrorAssignImmutable))
	assert.Equal(t, "inheritance", CategoryOf(ErrorCyclicInheritance))
	assert.Equal(t, "permission", CategoryOf(ErrorNoPermissionCheck))
	assert.Equal(t, "lowering-limit", CategoryOf(ErrorLoopRangeTooLarge))
	assert.Equal(t, "warning", CategoryOf(WarningUnusedVariable))
}

func TestFormatSummaryCountsByCategory(t *testing.T) {
	pos := ast.Position{Line: 1, Column: 1}
	errs := []CompilerError{
		AssignToImmutable("a", pos),
		AssignToImmutable("b", pos),
		CyclicInheritance("C", pos),
	}
	summary := FormatSummary(errs)
	assert.Contains(t, summary, "3 error(s)")
	assert.Contains(t, summary, "mutability/scope")
	assert.Contains(t, summary, "inheritance")
}

func TestErrorLevels(t *testing.T) {
	source := `test`
	reporter := NewErrorReporter("test.ral", source)
	pos := ast.Position{Line: 1, Column: 1}

	errorErr := CompilerError{Level: Error, Message: "test error", Position: pos}
	warningErr := CompilerError{Level: Warning, Message: "test warning", Position: pos}

	errorFormatted := reporter.FormatError(errorErr)
	warningFormatted := reporter.FormatError(warningErr)

	assert.Contains(t, errorFormatted, "error:")
	assert.Contains(t, warningFormatted, "warning:")
}
