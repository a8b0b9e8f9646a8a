// Package ipaddr provides IPv4 and IPv6 address and netmask value types with
// the arithmetic needed to derive network and broadcast addresses.
package ipaddr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Type is the address family of an Addr or Mask.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeV4
	TypeV6
)

func (t Type) String() string {
	switch t {
	case TypeV4:
		return "v4"
	case TypeV6:
		return "v6"
	default:
		return "invalid"
	}
}

// Addr is an immutable IPv4 or IPv6 address. The zero value is invalid.
// Addr values are comparable with ==.
type Addr struct {
	typ Type
	// V4 uses the first 4 bytes, the rest stay zero.
	b [16]byte
}

// AddrFrom4 returns the V4 address with the given bytes.
func AddrFrom4(b [4]byte) Addr {
	a := Addr{typ: TypeV4}
	copy(a.b[:4], b[:])
	return a
}

// AddrFrom16 returns the V6 address with the given bytes.
func AddrFrom16(b [16]byte) Addr {
	return Addr{typ: TypeV6, b: b}
}

// AddrFromSlice builds an address from 4 or 16 raw bytes.
func AddrFromSlice(b []byte) (Addr, error) {
	switch len(b) {
	case net.IPv4len:
		return AddrFrom4([4]byte(b)), nil
	case net.IPv6len:
		return AddrFrom16([16]byte(b)), nil
	default:
		return Addr{}, fmt.Errorf("address of %d bytes: %w", len(b), ErrInvalidFormat)
	}
}

// AddrFromPacked4 returns the V4 address whose big-endian value is v.
func AddrFromPacked4(v uint32) Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return AddrFrom4(b)
}

// AddrFromPacked6 returns the V6 address with the given high and low 64 bits.
func AddrFromPacked6(hi, lo uint64) Addr {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], hi)
	binary.BigEndian.PutUint64(b[8:], lo)
	return AddrFrom16(b)
}

// AddrFromNetIP converts a net.IP. Addresses with a 4-byte form are V4.
func AddrFromNetIP(ip net.IP) (Addr, error) {
	if v4 := ip.To4(); v4 != nil {
		return AddrFrom4([4]byte(v4)), nil
	}
	return AddrFromSlice(ip)
}

// AddrFromNetIPAddr converts a netip.Addr, dropping any zone.
func AddrFromNetIPAddr(ip netip.Addr) (Addr, error) {
	switch {
	case ip.Is4():
		return AddrFrom4(ip.As4()), nil
	case ip.Is6():
		return AddrFrom16(ip.As16()), nil
	default:
		return Addr{}, fmt.Errorf("zero netip.Addr: %w", ErrInvalidFormat)
	}
}

// ParseAddr parses dotted-quad or colon-hex text. Zones are rejected.
func ParseAddr(s string) (Addr, error) {
	if strings.Contains(s, "%") {
		return Addr{}, fmt.Errorf("parse %q: zones not allowed: %w", s, ErrInvalidFormat)
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return Addr{}, fmt.Errorf("parse %q: %w", s, ErrInvalidFormat)
	}
	return AddrFromNetIPAddr(ip)
}

// MustParseAddr is like ParseAddr but panics on error.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Addr) Type() Type    { return a.typ }
func (a Addr) IsValid() bool { return a.typ != TypeInvalid }
func (a Addr) Is4() bool     { return a.typ == TypeV4 }
func (a Addr) Is6() bool     { return a.typ == TypeV6 }

// BitLen is 32 for V4, 128 for V6 and 0 otherwise.
func (a Addr) BitLen() int {
	switch a.typ {
	case TypeV4:
		return 32
	case TypeV6:
		return 128
	default:
		return 0
	}
}

func (a Addr) As4() ([4]byte, error) {
	if a.typ != TypeV4 {
		return [4]byte{}, fmt.Errorf("As4 on %s address: %w", a.typ, ErrFamilyMismatch)
	}
	return [4]byte(a.b[:4]), nil
}

func (a Addr) As16() ([16]byte, error) {
	if a.typ != TypeV6 {
		return [16]byte{}, fmt.Errorf("As16 on %s address: %w", a.typ, ErrFamilyMismatch)
	}
	return a.b, nil
}

// AsSlice returns a copy of the address bytes: 4 for V4, 16 for V6, nil when invalid.
func (a Addr) AsSlice() []byte {
	n := a.BitLen() / 8
	if n == 0 {
		return nil
	}
	return bytes.Clone(a.b[:n])
}

func (a Addr) Packed4() (uint32, error) {
	if a.typ != TypeV4 {
		return 0, fmt.Errorf("Packed4 on %s address: %w", a.typ, ErrFamilyMismatch)
	}
	return binary.BigEndian.Uint32(a.b[:4]), nil
}

func (a Addr) Packed6() (hi, lo uint64, err error) {
	if a.typ != TypeV6 {
		return 0, 0, fmt.Errorf("Packed6 on %s address: %w", a.typ, ErrFamilyMismatch)
	}
	return binary.BigEndian.Uint64(a.b[:8]), binary.BigEndian.Uint64(a.b[8:]), nil
}

// NetIP returns the equivalent netip.Addr, or the zero netip.Addr when invalid.
func (a Addr) NetIP() netip.Addr {
	switch a.typ {
	case TypeV4:
		return netip.AddrFrom4([4]byte(a.b[:4]))
	case TypeV6:
		return netip.AddrFrom16(a.b)
	default:
		return netip.Addr{}
	}
}

// String renders dotted-quad for V4 and RFC 5952 text for V6.
func (a Addr) String() string {
	if !a.IsValid() {
		return "invalid IP"
	}
	return a.NetIP().String()
}

// Compare orders invalid before V4 before V6, then by byte value.
func (a Addr) Compare(o Addr) int {
	if a.typ != o.typ {
		if a.typ < o.typ {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.b[:], o.b[:])
}

func (a Addr) Less(o Addr) bool { return a.Compare(o) < 0 }

// Add returns a+n, wrapping around at the end of the family's address space.
func (a Addr) Add(n uint32) Addr {
	switch a.typ {
	case TypeV4:
		v, _ := a.Packed4()
		return AddrFromPacked4(v + n)
	case TypeV6:
		hi, lo, _ := a.Packed6()
		nlo := lo + uint64(n)
		if nlo < lo {
			hi++
		}
		return AddrFromPacked6(hi, nlo)
	default:
		return a
	}
}

// Sub returns a-n, wrapping around at zero.
func (a Addr) Sub(n uint32) Addr {
	switch a.typ {
	case TypeV4:
		v, _ := a.Packed4()
		return AddrFromPacked4(v - n)
	case TypeV6:
		hi, lo, _ := a.Packed6()
		nlo := lo - uint64(n)
		if nlo > lo {
			hi--
		}
		return AddrFromPacked6(hi, nlo)
	default:
		return a
	}
}

func (a Addr) Next() Addr { return a.Add(1) }
func (a Addr) Prev() Addr { return a.Sub(1) }

// And returns the byte-wise AND of two addresses of the same family.
func (a Addr) And(o Addr) (Addr, error) {
	if err := sameFamily(a, o); err != nil {
		return Addr{}, err
	}
	r := a
	for i := range r.b {
		r.b[i] &= o.b[i]
	}
	return r, nil
}

// Or returns the byte-wise OR of two addresses of the same family.
func (a Addr) Or(o Addr) (Addr, error) {
	if err := sameFamily(a, o); err != nil {
		return Addr{}, err
	}
	r := a
	for i := range r.b {
		r.b[i] |= o.b[i]
	}
	return r, nil
}

// Not returns the bitwise complement within the family's width.
func (a Addr) Not() Addr {
	n := a.BitLen() / 8
	r := a
	for i := 0; i < n; i++ {
		r.b[i] = ^r.b[i]
	}
	return r
}

// IsV4Compatible reports whether a is a V6 address with its upper 96 bits clear.
func (a Addr) IsV4Compatible() bool {
	return a.typ == TypeV6 && isZero(a.b[:12])
}

// IsV4Mapped reports whether a is in ::ffff:0:0/96.
func (a Addr) IsV4Mapped() bool {
	return a.typ == TypeV6 && isZero(a.b[:10]) && a.b[10] == 0xff && a.b[11] == 0xff
}

// Unmap returns the embedded V4 address of a V4-compatible or V4-mapped
// address. A V4 address is returned unchanged.
func (a Addr) Unmap() (Addr, error) {
	switch {
	case a.typ == TypeV4:
		return a, nil
	case a.IsV4Mapped(), a.IsV4Compatible():
		return AddrFrom4([4]byte(a.b[12:16])), nil
	default:
		return Addr{}, fmt.Errorf("unmap %s: %w", a, ErrUnsupportedOperation)
	}
}

// V4Compatible embeds a V4 address as ::a.b.c.d.
func V4Compatible(v4 Addr) (Addr, error) {
	b, err := v4.As4()
	if err != nil {
		return Addr{}, err
	}
	var r [16]byte
	copy(r[12:], b[:])
	return AddrFrom16(r), nil
}

// V4Mapped embeds a V4 address as ::ffff:a.b.c.d.
func V4Mapped(v4 Addr) (Addr, error) {
	b, err := v4.As4()
	if err != nil {
		return Addr{}, err
	}
	var r [16]byte
	r[10], r[11] = 0xff, 0xff
	copy(r[12:], b[:])
	return AddrFrom16(r), nil
}

func (a Addr) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return []byte{}, nil
	}
	return []byte(a.String()), nil
}

func (a *Addr) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Addr{}
		return nil
	}
	p, err := ParseAddr(string(text))
	if err != nil {
		return err
	}
	*a = p
	return nil
}

func sameFamily(a, b Addr) error {
	if !a.IsValid() || !b.IsValid() {
		return fmt.Errorf("operation on invalid address: %w", ErrInvalidFormat)
	}
	if a.typ != b.typ {
		return fmt.Errorf("%s and %s operands: %w", a.typ, b.typ, ErrFamilyMismatch)
	}
	return nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
