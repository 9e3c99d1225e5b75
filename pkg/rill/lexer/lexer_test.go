package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `let five = 5;
let pi = 3.14;
let add = fn(x, y) { x + y };
let result = add(five, 10);
if (result >= 15 && true) { "big" } else { "small" }
[1, 2][0]
{name: "nu"}.name
rows.0.count
a != b; !c; a <= b; a || b; 7 % 2
// a comment
null`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"}, {IDENT, "five"}, {ASSIGN, "="}, {INT, "5"}, {SEMICOLON, ";"},
		{LET, "let"}, {IDENT, "pi"}, {ASSIGN, "="}, {FLOAT, "3.14"}, {SEMICOLON, ";"},
		{LET, "let"}, {IDENT, "add"}, {ASSIGN, "="}, {FUNCTION, "fn"},
		{LPAREN, "("}, {IDENT, "x"}, {COMMA, ","}, {IDENT, "y"}, {RPAREN, ")"},
		{LBRACE, "{"}, {IDENT, "x"}, {PLUS, "+"}, {IDENT, "y"}, {RBRACE, "}"}, {SEMICOLON, ";"},
		{LET, "let"}, {IDENT, "result"}, {ASSIGN, "="}, {IDENT, "add"},
		{LPAREN, "("}, {IDENT, "five"}, {COMMA, ","}, {INT, "10"}, {RPAREN, ")"}, {SEMICOLON, ";"},
		{IF, "if"}, {LPAREN, "("}, {IDENT, "result"}, {GTE, ">="}, {INT, "15"},
		{AND, "&&"}, {TRUE, "true"}, {RPAREN, ")"},
		{LBRACE, "{"}, {STRING, "big"}, {RBRACE, "}"},
		{ELSE, "else"}, {LBRACE, "{"}, {STRING, "small"}, {RBRACE, "}"},
		{LBRACKET, "["}, {INT, "1"}, {COMMA, ","}, {INT, "2"}, {RBRACKET, "]"},
		{LBRACKET, "["}, {INT, "0"}, {RBRACKET, "]"},
		{LBRACE, "{"}, {IDENT, "name"}, {COLON, ":"}, {STRING, "nu"}, {RBRACE, "}"},
		{DOT, "."}, {IDENT, "name"},
		{IDENT, "rows"}, {DOT, "."}, {INT, "0"}, {DOT, "."}, {IDENT, "count"},
		{IDENT, "a"}, {NOT_EQ, "!="}, {IDENT, "b"}, {SEMICOLON, ";"},
		{BANG, "!"}, {IDENT, "c"}, {SEMICOLON, ";"},
		{IDENT, "a"}, {LTE, "<="}, {IDENT, "b"}, {SEMICOLON, ";"},
		{IDENT, "a"}, {OR, "||"}, {IDENT, "b"}, {SEMICOLON, ";"},
		{INT, "7"}, {PERCENT, "%"}, {INT, "2"},
		{COMMENT, "// a comment"},
		{NULL, "null"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%s, got=%s (%q)",
				i, tt.expectedType.Name(), tok.Type.Name(), tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\t\"c\\"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %s", tok.Type.Name())
	}
	if tok.Literal != "a\nb\t\"c\\" {
		t.Errorf("wrong literal: %q", tok.Literal)
	}
}

func TestNumberNotSplitOnTrailingDot(t *testing.T) {
	// "1." is an INT followed by a DOT, never a float
	l := New("1.foo")
	if tok := l.NextToken(); tok.Type != INT || tok.Literal != "1" {
		t.Fatalf("expected INT 1, got %s %q", tok.Type.Name(), tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != DOT {
		t.Fatalf("expected DOT, got %s", tok.Type.Name())
	}
	if tok := l.NextToken(); tok.Type != IDENT || tok.Literal != "foo" {
		t.Fatalf("expected IDENT foo, got %s %q", tok.Type.Name(), tok.Literal)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	l := New("let x = 1;\nlet y = 2;")

	var tok Token
	for tok = l.NextToken(); tok.Type != EOF; tok = l.NextToken() {
		if tok.Literal == "y" {
			if tok.Line != 2 {
				t.Errorf("wrong line for y: %d", tok.Line)
			}
			if tok.Column != 5 {
				t.Errorf("wrong column for y: %d", tok.Column)
			}
		}
	}
}

func TestUnicodeIdentifiers(t *testing.T) {
	l := New("let имя = 1")
	l.NextToken() // let
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "имя" {
		t.Errorf("unicode identifier: %s %q", tok.Type.Name(), tok.Literal)
	}
}

func TestIllegalTokens(t *testing.T) {
	l := New("a & b")
	l.NextToken() // a
	tok := l.NextToken()
	if tok.Type != ILLEGAL || tok.Literal != "&" {
		t.Errorf("lone ampersand should be illegal, got %s %q", tok.Type.Name(), tok.Literal)
	}
}
