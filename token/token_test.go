package token

import "testing"

func TestCreateToken(t *testing.T) {
	tok := CreateToken(ASSIGN, 3, 7)
	want := Token{TokenType: ASSIGN, Lexeme: "=", Line: 3, Column: 7}
	if tok != want {
		t.Errorf("CreateToken(ASSIGN, 3, 7) = %+v, want %+v", tok, want)
	}
}

func TestCreateTokenLooksUpLexemeByType(t *testing.T) {
	tests := []struct {
		tokenType TokenType
		lexeme    string
	}{
		{LPA, "("},
		{RBRACE, "}"},
		{STAR, "*"},
		{NOT_EQUAL, "!="},
		{GREATER_EQUAL, ">="},
		{EOF, ""},
	}
	for _, tt := range tests {
		got := CreateToken(tt.tokenType, 1, 0)
		if got.Lexeme != tt.lexeme {
			t.Errorf("CreateToken(%s, ...).Lexeme = %q, want %q", tt.tokenType, got.Lexeme, tt.lexeme)
		}
	}
}

func TestCreateLiteralToken(t *testing.T) {
	tok := CreateLiteralToken(NUMBER, 42.0, "42", 1, 0)
	if tok.TokenType != NUMBER {
		t.Errorf("TokenType = %s, want NUMBER", tok.TokenType)
	}
	if tok.Literal.(float64) != 42.0 {
		t.Errorf("Literal = %v, want 42.0", tok.Literal)
	}
	if tok.Lexeme != "42" {
		t.Errorf("Lexeme = %q, want %q", tok.Lexeme, "42")
	}
}

func TestKeyWordsCoverage(t *testing.T) {
	want := []string{
		"and", "break", "class", "continue", "else", "false", "for", "fun",
		"if", "nil", "or", "print", "return", "super", "this", "true",
		"var", "while",
	}
	for _, kw := range want {
		if _, ok := KeyWords[kw]; !ok {
			t.Errorf("KeyWords is missing %q", kw)
		}
	}
	if _, ok := KeyWords["notakeyword"]; ok {
		t.Error("KeyWords should not contain an arbitrary identifier")
	}
}

func TestTokenString(t *testing.T) {
	tok := CreateLiteralToken(IDENTIFIER, "x", "x", 1, 0)
	got := tok.String()
	want := `Token {Type: IDENTIFIER, Value: "x"}`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
