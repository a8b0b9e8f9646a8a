package ipaddr

import (
	"fmt"
	"math/bits"
	"net"
)

// Mask is a V4 or V6 netmask. Contiguity is not enforced on construction;
// use Validate to check it.
type Mask struct {
	addr Addr
}

// MaskFromAddr reinterprets an address as a netmask.
func MaskFromAddr(a Addr) Mask { return Mask{addr: a} }

// MaskFromPrefix builds a contiguous mask of the given family. bits is
// clamped to the family width.
func MaskFromPrefix(t Type, bits int) (Mask, error) {
	switch t {
	case TypeV4:
		return Mask{addr: AddrFromPacked4(PackedV4FromPrefixLength(bits))}, nil
	case TypeV6:
		return Mask{addr: AddrFromPacked6(PackedV6FromPrefixLength(bits))}, nil
	default:
		return Mask{}, fmt.Errorf("mask of %s family: %w", t, ErrInvalidFormat)
	}
}

// ParseMask parses a netmask written as an address, e.g. "255.255.255.0".
func ParseMask(s string) (Mask, error) {
	a, err := ParseAddr(s)
	if err != nil {
		return Mask{}, err
	}
	return Mask{addr: a}, nil
}

// MustParseMask is like ParseMask but panics on error.
func MustParseMask(s string) Mask {
	m, err := ParseMask(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MaskFromIPMask converts a 4 or 16 byte net.IPMask.
func MaskFromIPMask(m net.IPMask) (Mask, error) {
	a, err := AddrFromSlice(m)
	if err != nil {
		return Mask{}, err
	}
	return Mask{addr: a}, nil
}

func (m Mask) Type() Type    { return m.addr.typ }
func (m Mask) IsValid() bool { return m.addr.IsValid() }
func (m Mask) Addr() Addr    { return m.addr }
func (m Mask) String() string {
	return m.addr.String()
}

// PrefixLength counts leading one bits. The first zero bit ends the prefix;
// later bits are ignored.
func (m Mask) PrefixLength() int {
	switch m.addr.typ {
	case TypeV4:
		v, _ := m.addr.Packed4()
		return PrefixLengthFromPacked4(v)
	case TypeV6:
		hi, lo, _ := m.addr.Packed6()
		return PrefixLengthFromPacked6(hi, lo)
	default:
		return 0
	}
}

// IsContiguous reports whether the mask is all ones followed by all zeros.
func (m Mask) IsContiguous() bool {
	if !m.IsValid() {
		return false
	}
	want, _ := MaskFromPrefix(m.addr.typ, m.PrefixLength())
	return want == m
}

// Validate fails with ErrInvalidMask for an empty or non-contiguous mask.
func (m Mask) Validate() error {
	if !m.IsValid() {
		return fmt.Errorf("netmask: %w", ErrInvalidFormat)
	}
	if m.PrefixLength() == 0 {
		return fmt.Errorf("empty netmask %s: %w", m, ErrInvalidMask)
	}
	if !m.IsContiguous() {
		return fmt.Errorf("non-contiguous netmask %s: %w", m, ErrInvalidMask)
	}
	return nil
}

func (m Mask) Compare(o Mask) int { return m.addr.Compare(o.addr) }

func (m Mask) MarshalText() ([]byte, error) { return m.addr.MarshalText() }

func (m *Mask) UnmarshalText(text []byte) error { return m.addr.UnmarshalText(text) }

// PackedV4FromPrefixLength returns a V4 mask value. Lengths of 32 or more
// give all ones, lengths of 0 or less give zero.
func PackedV4FromPrefixLength(n int) uint32 {
	switch {
	case n >= 32:
		return ^uint32(0)
	case n <= 0:
		return 0
	default:
		return ^uint32(0) << (32 - n)
	}
}

// PackedV6FromPrefixLength returns a V6 mask as high and low 64 bit halves.
func PackedV6FromPrefixLength(n int) (hi, lo uint64) {
	switch {
	case n >= 128:
		return ^uint64(0), ^uint64(0)
	case n <= 0:
		return 0, 0
	case n <= 64:
		return ^uint64(0) << (64 - n), 0
	default:
		return ^uint64(0), ^uint64(0) << (128 - n)
	}
}

func PrefixLengthFromPacked4(v uint32) int {
	return bits.LeadingZeros32(^v)
}

// PrefixLengthFromPacked6 counts leading one bits from the most significant
// bit of hi. Bits after the first zero are ignored.
func PrefixLengthFromPacked6(hi, lo uint64) int {
	n := bits.LeadingZeros64(^hi)
	if n < 64 {
		return n
	}
	return 64 + bits.LeadingZeros64(^lo)
}
