package ipaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackedV4FromPrefixLength(t *testing.T) {
	cases := map[int]uint32{
		-1: 0,
		0:  0,
		1:  0x80000000,
		8:  0xFF000000,
		24: 0xFFFFFF00,
		31: 0xFFFFFFFE,
		32: 0xFFFFFFFF,
		40: 0xFFFFFFFF,
	}
	for n, want := range cases {
		assert.Equal(t, want, PackedV4FromPrefixLength(n), "prefix %d", n)
	}
}

func TestPackedV6FromPrefixLength(t *testing.T) {
	hi, lo := PackedV6FromPrefixLength(64)
	assert.Equal(t, ^uint64(0), hi)
	assert.Equal(t, uint64(0), lo)

	hi, lo = PackedV6FromPrefixLength(72)
	assert.Equal(t, ^uint64(0), hi)
	assert.Equal(t, uint64(0xFF00000000000000), lo)

	hi, lo = PackedV6FromPrefixLength(4)
	assert.Equal(t, uint64(0xF000000000000000), hi)
	assert.Equal(t, uint64(0), lo)

	hi, lo = PackedV6FromPrefixLength(200)
	assert.Equal(t, ^uint64(0), hi)
	assert.Equal(t, ^uint64(0), lo)

	hi, lo = PackedV6FromPrefixLength(0)
	assert.Zero(t, hi)
	assert.Zero(t, lo)
}

func TestPrefixLengthFromPacked6(t *testing.T) {
	assert.Equal(t, 64, PrefixLengthFromPacked6(^uint64(0), 0))
	assert.Equal(t, 128, PrefixLengthFromPacked6(^uint64(0), ^uint64(0)))
	assert.Equal(t, 0, PrefixLengthFromPacked6(0, 0))
	assert.Equal(t, 48, PrefixLengthFromPacked6(0xFFFFFFFFFFFF0000, 0))
	assert.Equal(t, 96, PrefixLengthFromPacked6(^uint64(0), 0xFFFFFFFF00000000))

	// The first zero bit ends the prefix.
	assert.Equal(t, 1, PrefixLengthFromPacked6(0xBFFFFFFFFFFFFFFF, ^uint64(0)))
	assert.Equal(t, 64, PrefixLengthFromPacked6(^uint64(0), 0x7FFFFFFFFFFFFFFF))
}

func TestPrefixRoundTrip(t *testing.T) {
	for n := 0; n <= 128; n++ {
		assert.Equal(t, n, PrefixLengthFromPacked6(PackedV6FromPrefixLength(n)))
	}
	for n := 0; n <= 32; n++ {
		assert.Equal(t, n, PrefixLengthFromPacked4(PackedV4FromPrefixLength(n)))
	}
}

func TestMaskFromPrefix(t *testing.T) {
	m, err := MaskFromPrefix(TypeV4, 24)
	require.NoError(t, err)
	assert.Equal(t, "255.255.255.0", m.String())
	assert.Equal(t, 24, m.PrefixLength())

	m, err = MaskFromPrefix(TypeV6, 64)
	require.NoError(t, err)
	assert.Equal(t, "ffff:ffff:ffff:ffff::", m.String())
	assert.Equal(t, 64, m.PrefixLength())

	_, err = MaskFromPrefix(TypeInvalid, 8)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestMask_Validate(t *testing.T) {
	assert.NoError(t, MustParseMask("255.255.255.0").Validate())
	assert.NoError(t, MustParseMask("255.255.255.255").Validate())
	assert.NoError(t, MustParseMask("ffff:ffff:ffff:ffff::").Validate())

	for _, s := range []string{"0.0.0.0", "64.0.0.0", "244.0.0.0", "255.0.255.0", "::", "ffff::ffff"} {
		err := MustParseMask(s).Validate()
		assert.ErrorIs(t, err, ErrInvalidMask, s)
	}

	assert.ErrorIs(t, Mask{}.Validate(), ErrInvalidFormat)
}

func TestMask_NonContiguousPrefixLength(t *testing.T) {
	m := MustParseMask("255.0.255.0")
	assert.Equal(t, 8, m.PrefixLength())
	assert.False(t, m.IsContiguous())
}
