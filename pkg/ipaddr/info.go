package ipaddr

import (
	"fmt"
	"net"
	"net/netip"
)

// Info is an address assigned to an interface together with its netmask.
type Info struct {
	Address Addr `json:"address" plist:"address"`
	Netmask Mask `json:"netmask" plist:"netmask"`
}

// InfoFromIPNet converts a net.IPNet as reported by the net package.
func InfoFromIPNet(n *net.IPNet) (Info, error) {
	if n == nil {
		return Info{}, fmt.Errorf("nil network: %w", ErrInvalidFormat)
	}
	addr, err := AddrFromNetIP(n.IP)
	if err != nil {
		return Info{}, err
	}
	mask := n.Mask
	if addr.Is4() && len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	m, err := MaskFromIPMask(mask)
	if err != nil {
		return Info{}, err
	}
	return Info{Address: addr, Netmask: m}, nil
}

// InfoFromPrefix converts a netip.Prefix into an address and contiguous mask.
func InfoFromPrefix(p netip.Prefix) (Info, error) {
	if !p.IsValid() {
		return Info{}, fmt.Errorf("prefix %s: %w", p, ErrInvalidFormat)
	}
	addr, err := AddrFromNetIPAddr(p.Addr())
	if err != nil {
		return Info{}, err
	}
	mask, err := MaskFromPrefix(addr.Type(), p.Bits())
	if err != nil {
		return Info{}, err
	}
	return Info{Address: addr, Netmask: mask}, nil
}

// MustParseInfo parses "address/prefix" and panics on error.
func MustParseInfo(s string) Info {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	info, err := InfoFromPrefix(p)
	if err != nil {
		panic(err)
	}
	return info
}

// NetworkBase returns address AND netmask.
func (i Info) NetworkBase() (Addr, error) {
	base, err := i.Address.And(i.Netmask.addr)
	if err != nil {
		return Addr{}, fmt.Errorf("network base of %s: %w", i, err)
	}
	return base, nil
}

// Broadcast returns address OR NOT netmask. It is only defined for V4.
func (i Info) Broadcast() (Addr, error) {
	if err := sameFamily(i.Address, i.Netmask.addr); err != nil {
		return Addr{}, fmt.Errorf("broadcast of %s: %w", i, err)
	}
	if i.Address.Is6() {
		return Addr{}, fmt.Errorf("broadcast of %s: %w", i, ErrUnsupportedOperation)
	}
	return i.Address.Or(i.Netmask.addr.Not())
}

var privateV4 = []Info{
	MustParseInfo("10.0.0.0/8"),
	MustParseInfo("172.16.0.0/12"),
	MustParseInfo("192.168.0.0/16"),
}

// IsPrivate reports whether the network lies entirely inside one of the
// RFC 1918 ranges. It is only defined for V4.
func (i Info) IsPrivate() (bool, error) {
	if err := sameFamily(i.Address, i.Netmask.addr); err != nil {
		return false, err
	}
	if i.Address.Is6() {
		return false, fmt.Errorf("private check of %s: %w", i, ErrUnsupportedOperation)
	}
	for _, r := range privateV4 {
		if i.Netmask.PrefixLength() >= r.Netmask.PrefixLength() && r.Contains(i.Address) {
			return true, nil
		}
	}
	return false, nil
}

// Contains reports whether a falls inside the network.
func (i Info) Contains(a Addr) bool {
	if a.Type() != i.Address.Type() {
		return false
	}
	base, err := i.NetworkBase()
	if err != nil {
		return false
	}
	masked, err := a.And(i.Netmask.addr)
	return err == nil && masked == base
}

// Prefix converts the info to a netip.Prefix. The mask must be contiguous.
func (i Info) Prefix() (netip.Prefix, error) {
	if err := sameFamily(i.Address, i.Netmask.addr); err != nil {
		return netip.Prefix{}, err
	}
	if !i.Netmask.IsContiguous() {
		return netip.Prefix{}, fmt.Errorf("prefix of %s: %w", i, ErrInvalidMask)
	}
	return netip.PrefixFrom(i.Address.NetIP(), i.Netmask.PrefixLength()), nil
}

// Compare orders by address, then by netmask.
func (i Info) Compare(o Info) int {
	if c := i.Address.Compare(o.Address); c != 0 {
		return c
	}
	return i.Netmask.Compare(o.Netmask)
}

func (i Info) String() string {
	if i.Netmask.IsContiguous() && i.Netmask.Type() == i.Address.Type() {
		return fmt.Sprintf("%s/%d", i.Address, i.Netmask.PrefixLength())
	}
	return fmt.Sprintf("%s/%s", i.Address, i.Netmask)
}
