package tcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrStringRendersOpAndOperands(t *testing.T) {
	in := I(ADD, "%0", "%1", "%2")
	assert.Equal(t, "ADD %0 %1 %2", in.String())

	lbl := I(LABEL, "if0")
	assert.Equal(t, "LABEL if0", lbl.String())
}

func TestIPanicsOnTooManyOperands(t *testing.T) {
	assert.Panics(t, func() { I(ADD, "a", "b", "c", "d") })
}

func TestCatConcatenatesInOrder(t *testing.T) {
	a := One(I(ILOAD, "%0", "1"))
	b := One(I(ADD, "%1", "%0", "%0"))
	out := Cat(a, b)
	assert.Equal(t, List{I(ILOAD, "%0", "1"), I(ADD, "%1", "%0", "%0")}, out)
}

func TestCatHandlesEmptyLists(t *testing.T) {
	out := Cat(nil, One(I(RETURN)), nil)
	assert.Equal(t, List{I(RETURN)}, out)
}

func TestCountersMintUniqueTemps(t *testing.T) {
	c := NewCounters()
	assert.Equal(t, "%0", c.NewTemp())
	assert.Equal(t, "%1", c.NewTemp())
	assert.Equal(t, "%2", c.NewTemp())
}

func TestCountersMintIndependentIfAndWhileSequences(t *testing.T) {
	c := NewCounters()
	assert.Equal(t, 0, c.NewLabelIF())
	assert.Equal(t, 0, c.NewLabelWHILE())
	assert.Equal(t, 1, c.NewLabelIF())
	assert.Equal(t, 1, c.NewLabelWHILE())
}

func TestLabelHelpersFormatNames(t *testing.T) {
	assert.Equal(t, "if3", LabelIf(3))
	assert.Equal(t, "endif3", LabelEndIf(3))
	assert.Equal(t, "else3", LabelElse(3))
	assert.Equal(t, "while2", LabelWhile(2))
	assert.Equal(t, "endwhile2", LabelEndWhile(2))
}

func TestFreshCountersPerFunctionStartAtZero(t *testing.T) {
	c1 := NewCounters()
	c1.NewTemp()
	c1.NewTemp()
	c2 := NewCounters()
	assert.Equal(t, "%0", c2.NewTemp())
}
