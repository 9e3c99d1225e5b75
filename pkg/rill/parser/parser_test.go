package parser

import (
	"fmt"
	"testing"

	"github.com/rill-lang/rill/pkg/rill/ast"
	"github.com/rill-lang/rill/pkg/rill/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	program := p.ParseProgram()
	checkParserErrors(t, p)
	return program
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}

	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

func firstExpression(t *testing.T, program *ast.Program) ast.Expression {
	t.Helper()
	if len(program.Statements) != 1 {
		t.Fatalf("program has %d statements, want 1", len(program.Statements))
	}
	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("statement is %T, not ExpressionStatement", program.Statements[0])
	}
	return stmt.Expression
}

func TestLetStatements(t *testing.T) {
	tests := []struct {
		input      string
		identifier string
		value      string
	}{
		{"let x = 5;", "x", "5"},
		{"let y = true;", "y", "true"},
		{"let foobar = y;", "foobar", "y"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.LetStatement)
		if !ok {
			t.Fatalf("statement is %T, not LetStatement", program.Statements[0])
		}
		if stmt.Name.Value != tt.identifier {
			t.Errorf("wrong name: got %q", stmt.Name.Value)
		}
		if stmt.Value.String() != tt.value {
			t.Errorf("wrong value: got %q", stmt.Value.String())
		}
	}
}

func TestAssignmentStatements(t *testing.T) {
	program := parseProgram(t, "x = 42;")
	stmt, ok := program.Statements[0].(*ast.AssignmentStatement)
	if !ok {
		t.Fatalf("statement is %T, not AssignmentStatement", program.Statements[0])
	}
	if stmt.Name.Value != "x" {
		t.Errorf("wrong name: %q", stmt.Name.Value)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-a * b", "((-a) * b)"},
		{"a + b * c", "(a + (b * c))"},
		{"a + b / c - d", "((a + (b / c)) - d)"},
		{"5 < 4 != 3 > 4", "((5 < 4) != (3 > 4))"},
		{"a && b || c", "((a && b) || c)"},
		{"!(true == true)", "(!(true == true))"},
		{"a + add(b * c) + d", "((a + add((b * c))) + d)"},
		{"a * [1, 2][1]", "(a * ([1, 2][1]))"},
		{"a.b + c", "((a.b) + c)"},
		{"-a.b", "(-(a.b))"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		if got := program.String(); got != tt.expected {
			t.Errorf("%q: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFunctionLiteralParsing(t *testing.T) {
	fn, ok := firstExpression(t, parseProgram(t, "fn(x, y) { x + y }")).(*ast.FunctionLiteral)
	if !ok {
		t.Fatal("expected FunctionLiteral")
	}
	if len(fn.Parameters) != 2 {
		t.Fatalf("wrong parameter count: %d", len(fn.Parameters))
	}
	if fn.Parameters[0].Value != "x" || fn.Parameters[1].Value != "y" {
		t.Errorf("wrong parameters: %v", fn.Parameters)
	}
}

func TestRecordLiteralParsing(t *testing.T) {
	rec, ok := firstExpression(t, parseProgram(t, `{one: 1, "two words": 2, three: 3}`)).(*ast.RecordLiteral)
	if !ok {
		t.Fatal("expected RecordLiteral")
	}

	want := []struct {
		key   string
		value string
	}{
		{"one", "1"},
		{"two words", "2"},
		{"three", "3"},
	}
	if len(rec.Entries) != len(want) {
		t.Fatalf("wrong entry count: %d", len(rec.Entries))
	}
	for i, w := range want {
		if rec.Entries[i].Key != w.key {
			t.Errorf("entry %d key: got %q, want %q", i, rec.Entries[i].Key, w.key)
		}
		if rec.Entries[i].Value.String() != w.value {
			t.Errorf("entry %d value: got %q", i, rec.Entries[i].Value.String())
		}
	}
}

func TestEmptyRecordLiteral(t *testing.T) {
	rec, ok := firstExpression(t, parseProgram(t, "{}")).(*ast.RecordLiteral)
	if !ok {
		t.Fatal("expected RecordLiteral")
	}
	if len(rec.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(rec.Entries))
	}
}

func TestFieldExpressionParsing(t *testing.T) {
	tests := []struct {
		input string
		field string
	}{
		{"rec.name", "name"},
		{"rows.0", "0"},
		{"a.b.c", "c"}, // outermost field of the chain
	}

	for _, tt := range tests {
		fe, ok := firstExpression(t, parseProgram(t, tt.input)).(*ast.FieldExpression)
		if !ok {
			t.Fatalf("%q: expected FieldExpression", tt.input)
		}
		if fe.Field.Literal != tt.field {
			t.Errorf("%q: field got %q, want %q", tt.input, fe.Field.Literal, tt.field)
		}
	}
}

func TestIfExpressionParsing(t *testing.T) {
	ie, ok := firstExpression(t, parseProgram(t, "if (x < y) { x } else { y }")).(*ast.IfExpression)
	if !ok {
		t.Fatal("expected IfExpression")
	}
	if ie.Condition.String() != "(x < y)" {
		t.Errorf("wrong condition: %q", ie.Condition.String())
	}
	if ie.Alternative == nil {
		t.Error("missing alternative")
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	program := parseProgram(t, `
// leading comment
let a = 1; // trailing comment
// another
let b = 2;`)
	if len(program.Statements) != 2 {
		t.Fatalf("wrong statement count: %d", len(program.Statements))
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input string
	}{
		{"let = 5;"},
		{"let x 5;"},
		{"{1: 2}"},
		{"a.+"},
	}

	for _, tt := range tests {
		l := lexer.New(tt.input)
		p := New(l)
		p.ParseProgram()
		if len(p.Errors()) == 0 {
			t.Errorf("%q: expected parser errors", tt.input)
		}
	}
}

func TestErrorMessagesCarryPosition(t *testing.T) {
	l := lexer.New("let x 5")
	p := New(l)
	p.ParseProgram()

	if len(p.Errors()) == 0 {
		t.Fatal("expected errors")
	}
	want := fmt.Sprintf("line %d, column %d:", 1, 7)
	if got := p.Errors()[0]; len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("error should start with position: %q", got)
	}
}
