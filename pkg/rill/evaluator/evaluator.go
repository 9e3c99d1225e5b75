package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rill-lang/rill/pkg/rill/ast"
	rerrors "github.com/rill-lang/rill/pkg/rill/errors"
	"github.com/rill-lang/rill/pkg/rill/lexer"
)

// ObjectType represents the type of objects in our language
type ObjectType string

const (
	NULL_OBJ     = "NULL"
	BOOLEAN_OBJ  = "BOOLEAN"
	INTEGER_OBJ  = "INTEGER"
	FLOAT_OBJ    = "FLOAT"
	STRING_OBJ   = "STRING"
	BINARY_OBJ   = "BINARY"
	ARRAY_OBJ    = "ARRAY"
	RECORD_OBJ   = "RECORD"
	FUNCTION_OBJ = "FUNCTION"
	BUILTIN_OBJ  = "BUILTIN"
	RETURN_OBJ   = "RETURN_VALUE"
	ERROR_OBJ    = "ERROR"
)

// Object represents all values in our language
type Object interface {
	Type() ObjectType
	Inspect() string
}

// CustomObject is implemented by host-supplied opaque values. They are
// converted to a base object before any structural operation applies.
type CustomObject interface {
	Object
	BaseObject() Object
}

// Null represents null/nothing values
type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// Boolean represents boolean objects
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// Integer represents integer objects
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

// Float represents floating-point objects
type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return fmt.Sprintf("%g", f.Value) }

// String represents string objects
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Binary represents raw byte data, e.g. the contents of a spreadsheet file
type Binary struct {
	Value []byte
}

func (b *Binary) Type() ObjectType { return BINARY_OBJ }
func (b *Binary) Inspect() string  { return fmt.Sprintf("binary(%d bytes)", len(b.Value)) }

// Array represents ordered sequences of objects. A table is an Array whose
// elements are Records sharing a column set.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	var out strings.Builder
	elements := []string{}
	for _, e := range a.Elements {
		if e != nil {
			elements = append(elements, e.Inspect())
		} else {
			elements = append(elements, "nil")
		}
	}
	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")
	return out.String()
}

// Record represents an ordered name→value mapping with unique keys.
// Insertion order is the iteration and display order; it is not significant
// for equality or sorting.
type Record struct {
	keys  []string
	items map[string]Object
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{items: make(map[string]Object)}
}

func (r *Record) Type() ObjectType { return RECORD_OBJ }
func (r *Record) Inspect() string {
	var out strings.Builder
	pairs := []string{}
	for _, key := range r.keys {
		pairs = append(pairs, fmt.Sprintf("%s: %s", key, r.items[key].Inspect()))
	}
	out.WriteString("{")
	out.WriteString(strings.Join(pairs, ", "))
	out.WriteString("}")
	return out.String()
}

// Set stores a value under key, appending the key on first use
func (r *Record) Set(key string, val Object) {
	if _, ok := r.items[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.items[key] = val
}

// Get retrieves the value stored under key
func (r *Record) Get(key string) (Object, bool) {
	val, ok := r.items[key]
	return val, ok
}

// Keys returns the record's keys in insertion order
func (r *Record) Keys() []string {
	return r.keys
}

// Len returns the number of entries
func (r *Record) Len() int {
	return len(r.keys)
}

// Function represents closures: a parameter list, a body, and the captured
// environment
type Function struct {
	Params []*ast.Identifier
	Body   *ast.BlockStatement
	Env    *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	params := []string{}
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	return fmt.Sprintf("fn(%s) {...}", strings.Join(params, ", "))
}

// BuiltinFunction is the signature of built-in functions
type BuiltinFunction func(args []Object, env *Environment) Object

// Builtin represents built-in function objects
type Builtin struct {
	Fn BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin function" }

// ReturnValue wraps other objects when returned
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass = rerrors.ErrorClass

// Error class constants
const (
	ClassParse     = rerrors.ClassParse
	ClassType      = rerrors.ClassType
	ClassArity     = rerrors.ClassArity
	ClassUndefined = rerrors.ClassUndefined
	ClassPath      = rerrors.ClassPath
	ClassSort      = rerrors.ClassSort
	ClassEval      = rerrors.ClassEval
	ClassIndex     = rerrors.ClassIndex
	ClassFormat    = rerrors.ClassFormat
	ClassIO        = rerrors.ClassIO
	ClassDatabase  = rerrors.ClassDatabase
	ClassState     = rerrors.ClassState
)

// Error represents error objects with structured error information. Errors
// are ordinary values: a failed update of one pipeline element yields an
// Error in that element's place while the stream continues.
type Error struct {
	Message string
	Line    int
	Column  int
	Class   ErrorClass     // Error category
	Code    string         // Error code (e.g., "PATH-0001")
	Hints   []string       // Suggestions for fixing the error
	File    string         // File path (if known)
	Data    map[string]any // Template variables for custom rendering
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "ERROR: " + e.Message
}

// ToRillError converts this Error to a RillError for structured handling.
func (e *Error) ToRillError() *rerrors.RillError {
	class := e.Class
	if class == "" {
		class = rerrors.ClassType
	}
	return &rerrors.RillError{
		Class:   class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
		File:    e.File,
		Data:    e.Data,
	}
}

// Global constants
var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBoolean(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

func isError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}

// Eval evaluates an AST node in the given environment
func Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {
	case *ast.Program:
		return evalProgram(node.Statements, env)

	case *ast.LetStatement:
		val := Eval(node.Value, env)
		if isError(val) {
			return val
		}
		env.Set(node.Name.Value, val)
		return val

	case *ast.AssignmentStatement:
		val := Eval(node.Value, env)
		if isError(val) {
			return val
		}
		return env.Update(node.Name.Value, val)

	case *ast.ReturnStatement:
		val := Eval(node.ReturnValue, env)
		if isError(val) {
			return val
		}
		return &ReturnValue{Value: val}

	case *ast.ExpressionStatement:
		return Eval(node.Expression, env)

	case *ast.BlockStatement:
		return evalBlockStatement(node, env)

	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.IntegerLiteral:
		return &Integer{Value: node.Value}

	case *ast.FloatLiteral:
		return &Float{Value: node.Value}

	case *ast.StringLiteral:
		return &String{Value: node.Value}

	case *ast.Boolean:
		return nativeBoolToBoolean(node.Value)

	case *ast.NullLiteral:
		return NULL

	case *ast.PrefixExpression:
		right := Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return evalPrefixExpression(node.Token, node.Operator, right)

	case *ast.InfixExpression:
		left := Eval(node.Left, env)
		if isError(left) {
			return left
		}
		// short-circuit logical operators
		if node.Operator == "&&" {
			if !isTruthy(left) {
				return FALSE
			}
			right := Eval(node.Right, env)
			if isError(right) {
				return right
			}
			return nativeBoolToBoolean(isTruthy(right))
		}
		if node.Operator == "||" {
			if isTruthy(left) {
				return TRUE
			}
			right := Eval(node.Right, env)
			if isError(right) {
				return right
			}
			return nativeBoolToBoolean(isTruthy(right))
		}
		right := Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return evalInfixExpression(node.Token, node.Operator, left, right)

	case *ast.IfExpression:
		return evalIfExpression(node, env)

	case *ast.FunctionLiteral:
		return &Function{Params: node.Parameters, Body: node.Body, Env: env}

	case *ast.CallExpression:
		fn := Eval(node.Function, env)
		if isError(fn) {
			return fn
		}
		args := evalExpressions(node.Arguments, env)
		if len(args) == 1 && isError(args[0]) {
			return args[0]
		}
		return applyFunction(fn, args, env)

	case *ast.ArrayLiteral:
		elements := evalExpressions(node.Elements, env)
		if len(elements) == 1 && isError(elements[0]) {
			return elements[0]
		}
		return &Array{Elements: elements}

	case *ast.RecordLiteral:
		return evalRecordLiteral(node, env)

	case *ast.IndexExpression:
		left := Eval(node.Left, env)
		if isError(left) {
			return left
		}
		index := Eval(node.Index, env)
		if isError(index) {
			return index
		}
		return evalIndexExpression(node.Token, left, index)

	case *ast.FieldExpression:
		left := Eval(node.Left, env)
		if isError(left) {
			return left
		}
		return evalFieldExpression(node, left)
	}

	return NULL
}

func evalProgram(stmts []ast.Statement, env *Environment) Object {
	var result Object = NULL

	for _, statement := range stmts {
		result = Eval(statement, env)

		switch result := result.(type) {
		case *ReturnValue:
			return result.Value
		case *Error:
			return result
		}
	}

	return result
}

func evalBlockStatement(block *ast.BlockStatement, env *Environment) Object {
	var result Object = NULL

	for _, statement := range block.Statements {
		result = Eval(statement, env)

		if result != nil {
			rt := result.Type()
			if rt == RETURN_OBJ || rt == ERROR_OBJ {
				return result
			}
		}
	}

	return result
}

func evalIdentifier(node *ast.Identifier, env *Environment) Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}

	if builtin, ok := getBuiltins()[node.Value]; ok {
		return builtin
	}

	return newUndefinedIdentifierError(node, env)
}

func evalPrefixExpression(tok lexer.Token, operator string, right Object) Object {
	switch operator {
	case "!":
		return nativeBoolToBoolean(!isTruthy(right))
	case "-":
		switch right := right.(type) {
		case *Integer:
			return &Integer{Value: -right.Value}
		case *Float:
			return &Float{Value: -right.Value}
		default:
			return newErrorWithPos(ClassType, tok, "unknown operator: %s%s",
				operator, rerrors.TypeName(string(right.Type())))
		}
	default:
		return newErrorWithPos(ClassType, tok, "unknown operator: %s%s",
			operator, rerrors.TypeName(string(right.Type())))
	}
}

func evalInfixExpression(tok lexer.Token, operator string, left, right Object) Object {
	switch {
	case left.Type() == INTEGER_OBJ && right.Type() == INTEGER_OBJ:
		return evalIntegerInfixExpression(tok, operator, left.(*Integer), right.(*Integer))
	case isNumeric(left) && isNumeric(right):
		return evalFloatInfixExpression(tok, operator, numericValue(left), numericValue(right))
	case left.Type() == STRING_OBJ && right.Type() == STRING_OBJ:
		return evalStringInfixExpression(tok, operator, left.(*String), right.(*String))
	case operator == "==":
		return nativeBoolToBoolean(objectsEqual(left, right))
	case operator == "!=":
		return nativeBoolToBoolean(!objectsEqual(left, right))
	default:
		return newOperatorError(tok, "TYPE-0006", map[string]any{
			"Left":     rerrors.TypeName(string(left.Type())),
			"Operator": operator,
			"Right":    rerrors.TypeName(string(right.Type())),
		})
	}
}

func evalIntegerInfixExpression(tok lexer.Token, operator string, left, right *Integer) Object {
	switch operator {
	case "+":
		return &Integer{Value: left.Value + right.Value}
	case "-":
		return &Integer{Value: left.Value - right.Value}
	case "*":
		return &Integer{Value: left.Value * right.Value}
	case "/":
		if right.Value == 0 {
			return newErrorWithPos(ClassState, tok, "division by zero")
		}
		return &Integer{Value: left.Value / right.Value}
	case "%":
		if right.Value == 0 {
			return newErrorWithPos(ClassState, tok, "division by zero")
		}
		return &Integer{Value: left.Value % right.Value}
	case "<":
		return nativeBoolToBoolean(left.Value < right.Value)
	case ">":
		return nativeBoolToBoolean(left.Value > right.Value)
	case "<=":
		return nativeBoolToBoolean(left.Value <= right.Value)
	case ">=":
		return nativeBoolToBoolean(left.Value >= right.Value)
	case "==":
		return nativeBoolToBoolean(left.Value == right.Value)
	case "!=":
		return nativeBoolToBoolean(left.Value != right.Value)
	default:
		return newOperatorError(tok, "TYPE-0006", map[string]any{
			"Left": "integer", "Operator": operator, "Right": "integer",
		})
	}
}

func evalFloatInfixExpression(tok lexer.Token, operator string, left, right float64) Object {
	switch operator {
	case "+":
		return &Float{Value: left + right}
	case "-":
		return &Float{Value: left - right}
	case "*":
		return &Float{Value: left * right}
	case "/":
		if right == 0 {
			return newErrorWithPos(ClassState, tok, "division by zero")
		}
		return &Float{Value: left / right}
	case "<":
		return nativeBoolToBoolean(left < right)
	case ">":
		return nativeBoolToBoolean(left > right)
	case "<=":
		return nativeBoolToBoolean(left <= right)
	case ">=":
		return nativeBoolToBoolean(left >= right)
	case "==":
		return nativeBoolToBoolean(left == right)
	case "!=":
		return nativeBoolToBoolean(left != right)
	default:
		return newOperatorError(tok, "TYPE-0006", map[string]any{
			"Left": "float", "Operator": operator, "Right": "float",
		})
	}
}

func evalStringInfixExpression(tok lexer.Token, operator string, left, right *String) Object {
	switch operator {
	case "+":
		return &String{Value: left.Value + right.Value}
	case "<":
		return nativeBoolToBoolean(left.Value < right.Value)
	case ">":
		return nativeBoolToBoolean(left.Value > right.Value)
	case "<=":
		return nativeBoolToBoolean(left.Value <= right.Value)
	case ">=":
		return nativeBoolToBoolean(left.Value >= right.Value)
	case "==":
		return nativeBoolToBoolean(left.Value == right.Value)
	case "!=":
		return nativeBoolToBoolean(left.Value != right.Value)
	default:
		return newOperatorError(tok, "TYPE-0006", map[string]any{
			"Left": "string", "Operator": operator, "Right": "string",
		})
	}
}

func evalIfExpression(node *ast.IfExpression, env *Environment) Object {
	condition := Eval(node.Condition, env)
	if isError(condition) {
		return condition
	}

	if isTruthy(condition) {
		return Eval(node.Consequence, env)
	} else if node.Alternative != nil {
		return Eval(node.Alternative, env)
	}
	return NULL
}

func evalRecordLiteral(node *ast.RecordLiteral, env *Environment) Object {
	record := NewRecord()

	for _, entry := range node.Entries {
		val := Eval(entry.Value, env)
		if isError(val) {
			return val
		}
		record.Set(entry.Key, val)
	}

	return record
}

func evalExpressions(exps []ast.Expression, env *Environment) []Object {
	var result []Object

	for _, e := range exps {
		evaluated := Eval(e, env)
		if isError(evaluated) {
			return []Object{evaluated}
		}
		result = append(result, evaluated)
	}

	return result
}

func evalIndexExpression(tok lexer.Token, left, index Object) Object {
	switch {
	case left.Type() == ARRAY_OBJ && index.Type() == INTEGER_OBJ:
		arr := left.(*Array)
		idx := index.(*Integer).Value
		if idx < 0 || idx >= int64(len(arr.Elements)) {
			return newIndexError(tok, "INDEX-0001", map[string]any{
				"Index":  idx,
				"Length": len(arr.Elements),
			})
		}
		return arr.Elements[idx]
	case left.Type() == RECORD_OBJ && index.Type() == STRING_OBJ:
		rec := left.(*Record)
		key := index.(*String).Value
		if val, ok := rec.Get(key); ok {
			return val
		}
		return newIndexError(tok, "INDEX-0002", map[string]any{"Key": key})
	default:
		return newIndexError(tok, "TYPE-0005", map[string]any{
			"Left":  rerrors.TypeName(string(left.Type())),
			"Right": rerrors.TypeName(string(index.Type())),
		})
	}
}

func evalFieldExpression(node *ast.FieldExpression, left Object) Object {
	if node.Field.Type == lexer.INT {
		idx, err := strconv.ParseInt(node.Field.Literal, 10, 64)
		if err != nil {
			return newErrorWithPos(ClassParse, node.Field, "invalid index: %s", node.Field.Literal)
		}
		return evalIndexExpression(node.Token, left, &Integer{Value: idx})
	}
	return evalIndexExpression(node.Token, left, &String{Value: node.Field.Literal})
}

func applyFunction(fn Object, args []Object, env *Environment) Object {
	switch fn := fn.(type) {
	case *Function:
		extendedEnv := extendFunctionEnv(fn, args)
		evaluated := Eval(fn.Body, extendedEnv)
		return unwrapReturnValue(evaluated)
	case *Builtin:
		return fn.Fn(args, env)
	default:
		return newError("TYPE-0002", map[string]any{
			"Got": rerrors.TypeName(string(fn.Type())),
		})
	}
}

// applyFunctionWithInput calls fn with the resolved sub-value bound as the
// piped input variable `in` and, when a positional parameter is declared,
// the whole pipeline element bound to it.
func applyFunctionWithInput(fn *Function, input, element Object) Object {
	extendedEnv := NewEnclosedEnvironment(fn.Env)

	if len(fn.Params) > 0 {
		extendedEnv.Set(fn.Params[0].Value, element)
	}
	extendedEnv.Set("in", input)

	evaluated := Eval(fn.Body, extendedEnv)
	return unwrapReturnValue(evaluated)
}

func extendFunctionEnv(fn *Function, args []Object) *Environment {
	env := NewEnclosedEnvironment(fn.Env)

	for paramIdx, param := range fn.Params {
		if paramIdx >= len(args) {
			env.Set(param.Value, NULL)
			continue
		}
		env.Set(param.Value, args[paramIdx])
	}

	return env
}

func unwrapReturnValue(obj Object) Object {
	if returnValue, ok := obj.(*ReturnValue); ok {
		return returnValue.Value
	}
	return obj
}

// isTruthy evaluates an object for truthiness. NULL, FALSE, empty strings,
// empty collections, and zero numbers are falsy.
func isTruthy(obj Object) bool {
	switch obj {
	case NULL:
		return false
	case TRUE:
		return true
	case FALSE:
		return false
	default:
		switch v := obj.(type) {
		case *String:
			return v.Value != ""
		case *Array:
			return len(v.Elements) > 0
		case *Record:
			return v.Len() > 0
		case *Integer:
			return v.Value != 0
		case *Float:
			return v.Value != 0.0
		case *Null:
			return false
		case *Boolean:
			return v.Value
		default:
			return true
		}
	}
}
