package cellmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellEqualityRGBProjection(t *testing.T) {
	a := Cell{Content: 'A', Fg: Ansi(1)}
	b := Cell{Content: 'A', Fg: TrueColor(205, 0, 0)}
	assert.True(t, a.Equal(b), "expected palette Ansi(1) to equal its RGB projection")
}

func TestCellEqualityDiffersOnContent(t *testing.T) {
	a := Cell{Content: 'A'}
	b := Cell{Content: 'B'}
	assert.False(t, a.Equal(b))
}

func TestCellEqualityDiffersOnFlags(t *testing.T) {
	a := Cell{Content: 'A', Flags: FlagBold}
	b := Cell{Content: 'A', Flags: FlagUnderline}
	assert.False(t, a.Equal(b))
}

func TestSpaceCell(t *testing.T) {
	assert.Equal(t, rune(' '), Space.Content)
	assert.Equal(t, uint8(0), Space.Flags)

	r, g, b := Space.Bg.RGB()
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}
