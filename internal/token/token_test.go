package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wisp/internal/token"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "while", token.While.String())
	assert.Equal(t, "+=", token.AddAssign.String())
	assert.Equal(t, "Kind(999)", token.Kind(999).String())
}

func TestKeywordsIncludesLogicalOperators(t *testing.T) {
	for _, word := range []string{"and", "or", "not"} {
		kind, ok := token.Keywords[word]
		assert.True(t, ok, "expected %q to be a keyword", word)
		assert.True(t, kind.IsBinaryOperator() || word == "not", "expected %q to be classified consistently", word)
	}
}

func TestIsBinaryOperator(t *testing.T) {
	assert.True(t, token.Plus.IsBinaryOperator())
	assert.True(t, token.And.IsBinaryOperator())
	assert.True(t, token.Assign.IsBinaryOperator())
	assert.False(t, token.Not.IsBinaryOperator())
	assert.False(t, token.LParen.IsBinaryOperator())
}

func TestIsCompoundAssign(t *testing.T) {
	assert.True(t, token.AddAssign.IsCompoundAssign())
	assert.False(t, token.Assign.IsCompoundAssign())
	assert.False(t, token.Plus.IsCompoundAssign())
}

func TestTokenString(t *testing.T) {
	withLit := token.Token{Kind: token.Identifier, Lit: "foo"}
	assert.Equal(t, `IDENTIFIER("foo")`, withLit.String())

	bare := token.Token{Kind: token.LParen}
	assert.Equal(t, "(", bare.String())
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "3:7", token.Position{Line: 3, Column: 7}.String())
}
