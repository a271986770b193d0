package token

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/source"
)

func lexAll(t *testing.T, text string) []Token {
	t.Helper()
	toks, err := All(source.FromString("test.rill", text))
	require.NoError(t, err)
	return toks
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "fn foobar let")
	require.Len(t, toks, 3)
	assert.Equal(t, KwFn, toks[0].IdentKind)
	assert.Equal(t, Name, toks[1].IdentKind)
	assert.Equal(t, "foobar", toks[1].Text)
	assert.Equal(t, KwLet, toks[2].IdentKind)
}

func TestLexTwoCharOperatorsPreferredOverOneChar(t *testing.T) {
	for _, tc := range []struct {
		text string
		kind IdentKind
	}{
		{"==", EqEq},
		{"!=", NotEq},
		{"<=", Lte},
		{">=", Gte},
		{"&&", AndAnd},
		{"||", OrOr},
		{"->", Arrow},
		{"::", ColonColon},
	} {
		t.Run(tc.text, func(t *testing.T) {
			toks := lexAll(t, tc.text)
			require.Len(t, toks, 1)
			assert.Equal(t, tc.kind, toks[0].IdentKind)
			assert.Equal(t, tc.text, toks[0].Text)
		})
	}
}

func TestLexSingleCharNotPartOfTwoCharOp(t *testing.T) {
	toks := lexAll(t, "= < >")
	require.Len(t, toks, 3)
	assert.Equal(t, Eq, toks[0].IdentKind)
	assert.Equal(t, Lt, toks[1].IdentKind)
	assert.Equal(t, Gt, toks[2].IdentKind)
}

func TestLexSlashNotConfusedWithComment(t *testing.T) {
	// a lone '/' directly followed by an identifier must not be
	// swallowed by the comment-lookahead logic.
	toks := lexAll(t, "a / b")
	require.Len(t, toks, 3)
	assert.Equal(t, Slash, toks[1].IdentKind)
	assert.Equal(t, "b", toks[2].Text)
}

func TestLexLineComment(t *testing.T) {
	toks := lexAll(t, "a // this is ignored\nb")
	require.Len(t, toks, 2)
	assert.Equal(t, "a", toks[0].Text)
	assert.Equal(t, "b", toks[1].Text)
}

func TestLexBlockComment(t *testing.T) {
	toks := lexAll(t, "a /* skip\nthis */ b")
	require.Len(t, toks, 2)
	assert.Equal(t, "a", toks[0].Text)
	assert.Equal(t, "b", toks[1].Text)
}

func TestLexNumbers(t *testing.T) {
	toks := lexAll(t, "42 3.14")
	require.Len(t, toks, 2)
	assert.Equal(t, IntLit, toks[0].LitKind)
	assert.Equal(t, int64(42), toks[0].IntVal)
	assert.Equal(t, FloatLit, toks[1].LitKind)
	assert.InDelta(t, 3.14, toks[1].FloatVal, 1e-9)
}

func TestLexString(t *testing.T) {
	toks := lexAll(t, `"hello\nworld"`)
	require.Len(t, toks, 1)
	assert.Equal(t, StringLit, toks[0].LitKind)
	assert.Equal(t, "hello\nworld", toks[0].StrVal)
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := All(source.FromString("test.rill", `"oops`))
	require.Error(t, err)
}

func TestLexBooleans(t *testing.T) {
	toks := lexAll(t, "true false")
	require.Len(t, toks, 2)
	assert.Equal(t, Literal, toks[0].Kind)
	assert.Equal(t, BoolLit, toks[0].LitKind)
	assert.True(t, toks[0].BoolVal)
	assert.False(t, toks[1].BoolVal)
}

func TestLexUnexpectedCharacter(t *testing.T) {
	_, err := All(source.FromString("test.rill", "@"))
	require.Error(t, err)
	var uerr UnexpectedCharacterError
	assert.ErrorAs(t, err, &uerr)
	assert.Equal(t, '@', uerr.Ch)
}

// Spans of consecutive tokens must not overlap, and must advance
// monotonically with the source.
func TestSpansAreMonotonic(t *testing.T) {
	src := source.FromString("test.rill", "fn add(a: int) -> int { a }")
	lx := New(src)
	var last Token
	for i := 0; ; i++ {
		tok, err := lx.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if i > 0 {
			assert.GreaterOrEqual(t, tok.Span.Start.Offset, last.Span.Start.Offset)
		}
		last = tok
	}
}

func TestKeywordsAndNamesAreDisjoint(t *testing.T) {
	for kw := range Keywords {
		toks := lexAll(t, kw)
		require.Len(t, toks, 1)
		assert.NotEqual(t, Name, toks[0].IdentKind, "keyword %q must not lex as a plain identifier", kw)
	}
}
