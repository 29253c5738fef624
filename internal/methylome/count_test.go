package methylome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionalRoundToFitNoOverflow(t *testing.T) {
	c := ConditionalRoundToFit(10, 20)
	assert.Equal(t, Count{10, 20}, c)
}

func TestConditionalRoundToFitOverflow(t *testing.T) {
	// m+u = 131072 overflows; both are scaled by 65535/max(m,u) and
	// truncated. For this case that reproduces (65535, 65535) exactly,
	// matching methylome_data_test.cpp's basic_assertions case.
	c := ConditionalRoundToFit(65536, 65536)
	assert.Equal(t, Count{NMeth: 65535, NUnmeth: 65535}, c)
}

func TestConditionalRoundToFitNeverOverflows(t *testing.T) {
	cases := [][2]uint32{
		{0, 0},
		{65535, 0},
		{0, 65535},
		{65535, 65535},
		{1 << 20, 7},
		{1, 1 << 20},
		{1 << 30, 1 << 30},
	}
	for _, tc := range cases {
		c := ConditionalRoundToFit(tc[0], tc[1])
		assert.LessOrEqual(t, uint32(c.NMeth)+uint32(c.NUnmeth), uint32(65535))
	}
}

func TestAddCount(t *testing.T) {
	c := AddCount(Count{NMeth: 5, NUnmeth: 3}, 2, 1)
	assert.Equal(t, Count{7, 4}, c)
}
