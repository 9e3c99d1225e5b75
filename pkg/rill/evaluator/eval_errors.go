package evaluator

import (
	"fmt"

	rerrors "github.com/rill-lang/rill/pkg/rill/errors"
	"github.com/rill-lang/rill/pkg/rill/lexer"
)

// errorFromCatalog builds an Error object from a catalog code with
// position information taken from the given token.
func errorFromCatalog(code string, tok lexer.Token, data map[string]any) *Error {
	re := rerrors.NewWithPosition(code, tok.Line, tok.Column, data)
	return &Error{
		Message: re.Message,
		Line:    re.Line,
		Column:  re.Column,
		Class:   re.Class,
		Code:    re.Code,
		Hints:   re.Hints,
		Data:    re.Data,
	}
}

// newError builds an Error from a catalog code without position information
func newError(code string, data map[string]any) *Error {
	re := rerrors.New(code, data)
	return &Error{
		Message: re.Message,
		Class:   re.Class,
		Code:    re.Code,
		Hints:   re.Hints,
		Data:    re.Data,
	}
}

func newErrorWithPos(class ErrorClass, tok lexer.Token, format string, args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Class:   class,
	}
}

func newOperatorError(tok lexer.Token, code string, data map[string]any) *Error {
	return errorFromCatalog(code, tok, data)
}

func newIndexError(tok lexer.Token, code string, data map[string]any) *Error {
	return errorFromCatalog(code, tok, data)
}

func newPathError(code string, tok lexer.Token, data map[string]any) *Error {
	return errorFromCatalog(code, tok, data)
}

func newSortError(code string, data map[string]any) *Error {
	return newError(code, data)
}

// newTypeError reports a wrong argument type to a builtin
func newTypeError(function, expected string, got Object) *Error {
	return newError("TYPE-0001", map[string]any{
		"Function": function,
		"Expected": expected,
		"Got":      rerrors.TypeName(string(got.Type())),
	})
}

// newFirstArgError reports a wrong first argument type to a builtin
func newFirstArgError(function, expected string, got Object) *Error {
	return newError("TYPE-0003", map[string]any{
		"Function": function,
		"Expected": expected,
		"Got":      rerrors.TypeName(string(got.Type())),
	})
}

// newSecondArgError reports a wrong second argument type to a builtin
func newSecondArgError(function, expected string, got Object) *Error {
	return newError("TYPE-0004", map[string]any{
		"Function": function,
		"Expected": expected,
		"Got":      rerrors.TypeName(string(got.Type())),
	})
}

// newArityError reports a wrong number of arguments to a builtin
func newArityError(function string, got, want int) *Error {
	return newError("ARITY-0001", map[string]any{
		"Function": function,
		"Got":      got,
		"Want":     want,
	})
}

// newArityRangeError reports an argument count outside an accepted range
func newArityRangeError(function string, got, min, max int) *Error {
	return newError("ARITY-0002", map[string]any{
		"Function": function,
		"Got":      got,
		"Min":      min,
		"Max":      max,
	})
}

// newUndefinedIdentifierError reports an unknown identifier with fuzzy
// "Did you mean?" suggestions drawn from visible names and builtins.
func newUndefinedIdentifierError(node interface {
	TokenLiteral() string
}, env *Environment) *Error {
	name := node.TokenLiteral()
	return newUndefinedNameError(name, env)
}

func newUndefinedNameError(name string, env *Environment) *Error {
	available := env.Names()
	for builtin := range getBuiltins() {
		available = append(available, builtin)
	}

	re := rerrors.NewUndefinedIdentifier(name, available)
	return &Error{
		Message: re.Message,
		Class:   re.Class,
		Code:    re.Code,
		Hints:   re.Hints,
		Data:    re.Data,
	}
}
