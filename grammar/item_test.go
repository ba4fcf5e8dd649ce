package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_Interning(t *testing.T) {
	gram, _, _ := buildTestGrammar(t, exprGrammarDesc())
	prod := gram.findProduction(t, "E", "E", "PLUS", "E")

	i0 := prod.item(0)
	require.NotNil(t, i0)
	assert.Same(t, i0, prod.item(0))
	assert.Same(t, prod.item(1), i0.shiftCore())
	assert.Same(t, i0.shiftCore(), i0.shiftCore())

	assert.Nil(t, prod.item(-1))
	assert.Nil(t, prod.item(prod.rhsLen+1))
	assert.Nil(t, prod.item(prod.rhsLen).shiftCore())

	assert.Equal(t, uint32(31*prod.num+2), prod.item(2).hash)
}

func TestItem_DotAccessors(t *testing.T) {
	gram, _, _ := buildTestGrammar(t, exprGrammarDesc())
	prod := gram.findProduction(t, "E", "E", "PLUS", "E")

	i0 := prod.item(0)
	assert.False(t, i0.dotAtEnd())
	assert.Equal(t, "E", i0.symbolAfterDot().symbolName())
	assert.NotNil(t, i0.dotBeforeNonTerminal())

	i1 := prod.item(1)
	assert.Equal(t, "PLUS", i1.symbolAfterDot().symbolName())
	assert.Nil(t, i1.dotBeforeNonTerminal())

	i3 := prod.item(3)
	assert.True(t, i3.dotAtEnd())
	assert.Nil(t, i3.symbolAfterDot())
	assert.Nil(t, i3.dotBeforeNonTerminal())
}

func TestItem_InitialAndKernel(t *testing.T) {
	gram, _, _ := buildTestGrammar(t, exprGrammarDesc())

	startItem := gram.startProduction.item(0)
	assert.True(t, startItem.isInitial())
	assert.True(t, startItem.isKernel())

	idProd := gram.findProduction(t, "E", "ID")
	assert.False(t, idProd.item(0).isInitial())
	assert.False(t, idProd.item(0).isKernel())
	assert.True(t, idProd.item(1).isKernel())
}

func TestItem_CalcLookahead(t *testing.T) {
	gram, _, _ := buildTestGrammar(t, exprGrammarDesc())
	gram.computeNullability()
	gram.computeFirstSets()

	id := gram.terminalByName(t, "ID")
	plus := gram.terminalByName(t, "PLUS")

	prod := gram.findProduction(t, "E", "E", "PLUS", "E")

	// [E ::=・E PLUS E]: FIRST(E PLUS E) = FIRST(E) = {ID}.
	assert.Equal(t, []int{id.num}, prod.item(0).calcLookahead(gram).terminals())
	// [E ::= E・PLUS E]: {PLUS}.
	assert.Equal(t, []int{plus.num}, prod.item(1).calcLookahead(gram).terminals())
	// [E ::= E PLUS E・]: empty suffix.
	assert.True(t, prod.item(3).calcLookahead(gram).isEmpty())
}

func TestItem_IsNullable(t *testing.T) {
	gram, _, _ := buildTestGrammar(t, nullableChainDesc())
	gram.computeNullability()
	gram.computeFirstSets()

	prod := gram.findProduction(t, "A", "B", "C")
	assert.True(t, prod.item(0).isNullable())
	assert.True(t, prod.item(1).isNullable())
	assert.True(t, prod.item(2).isNullable())

	start := gram.startProduction
	// The suffix of [$START ::=・A <eof>] contains the EOF terminal.
	assert.False(t, start.item(0).isNullable())
	assert.False(t, start.item(1).isNullable())
	assert.True(t, start.item(2).isNullable())
}

func TestItem_String(t *testing.T) {
	gram, _, _ := buildTestGrammar(t, exprGrammarDesc())
	prod := gram.findProduction(t, "E", "E", "PLUS", "E")

	assert.Equal(t, "E ::= ・E PLUS E", prod.item(0).String())
	assert.Equal(t, "E ::= E ・PLUS E", prod.item(1).String())
	assert.Equal(t, "E ::= E PLUS E ・", prod.item(3).String())
}
