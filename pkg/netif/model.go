package netif

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

// InterfaceType is the kind of network adapter.
type InterfaceType int

const (
	TypeOther InterfaceType = iota
	TypeLoopback
	TypeEthernet
	TypeWiFi
	TypeAWDL
	TypeVirtual
)

var interfaceTypeNames = map[InterfaceType]string{
	TypeOther:    "other",
	TypeLoopback: "loopback",
	TypeEthernet: "ethernet",
	TypeWiFi:     "wifi",
	TypeAWDL:     "awdl",
	TypeVirtual:  "virtual",
}

func (t InterfaceType) String() string {
	if s, ok := interfaceTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("InterfaceType(%d)", int(t))
}

func (t InterfaceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *InterfaceType) UnmarshalText(text []byte) error {
	for k, v := range interfaceTypeNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown interface type %q", text)
}

// MacAddress is a 6 byte hardware address.
type MacAddress [6]byte

// String renders upper case hex octets separated by colons.
func (m MacAddress) String() string {
	return m.Format(':', true)
}

// Format renders the address with the given separator. A zero separator
// produces 12 contiguous hex digits.
func (m MacAddress) Format(sep rune, upper bool) string {
	var sb strings.Builder
	for i, b := range m {
		if i > 0 && sep != 0 {
			sb.WriteRune(sep)
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	if upper {
		return strings.ToUpper(sb.String())
	}
	return sb.String()
}

// IsValid reports whether any byte is non-zero.
func (m MacAddress) IsValid() bool {
	return m != MacAddress{}
}

func (m MacAddress) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MacAddress) UnmarshalText(text []byte) error {
	p, err := ParseMacAddress(string(text), ':')
	if err != nil {
		return err
	}
	*m = p
	return nil
}

// ParseMacAddress parses six hex octets separated by sep, or contiguous
// when sep is zero.
func ParseMacAddress(s string, sep rune) (MacAddress, error) {
	var parts []string
	if sep == 0 {
		if len(s) != 12 {
			return MacAddress{}, fmt.Errorf("mac address %q: %w", s, ipaddr.ErrInvalidFormat)
		}
		for i := 0; i < 12; i += 2 {
			parts = append(parts, s[i:i+2])
		}
	} else {
		parts = strings.Split(s, string(sep))
	}
	if len(parts) != 6 {
		return MacAddress{}, fmt.Errorf("mac address %q: %w", s, ipaddr.ErrInvalidFormat)
	}

	var m MacAddress
	for i, p := range parts {
		if len(p) != 2 {
			return MacAddress{}, fmt.Errorf("mac address %q: %w", s, ipaddr.ErrInvalidFormat)
		}
		b, err := hex.DecodeString(p)
		if err != nil {
			return MacAddress{}, fmt.Errorf("mac address %q: %w", s, ipaddr.ErrInvalidFormat)
		}
		m[i] = b[0]
	}
	return m, nil
}

// Interface is one network adapter as seen by the last enumeration.
type Interface struct {
	ID          string        `json:"id" plist:"id"`
	Index       int           `json:"index" plist:"index"`
	Description string        `json:"description" plist:"description"`
	Alias       string        `json:"alias" plist:"alias"`
	MacAddress  MacAddress    `json:"macAddress" plist:"macAddress"`
	Type        InterfaceType `json:"type" plist:"type"`
	IsEnabled   bool          `json:"enabled" plist:"enabled"`
	IsConnected bool          `json:"connected" plist:"connected"`
	IsVirtual   bool          `json:"virtual" plist:"virtual"`

	IPAddressInfos []ipaddr.Info `json:"ipAddressInfos" plist:"ipAddressInfos"`
	Gateways       []ipaddr.Addr `json:"gateways" plist:"gateways"`
}

// Clone returns a deep copy.
func (i Interface) Clone() Interface {
	i.IPAddressInfos = slices.Clone(i.IPAddressInfos)
	i.Gateways = slices.Clone(i.Gateways)
	return i
}

// normalize sorts and deduplicates addresses and gateways so that two
// interfaces with the same sets compare equal element by element.
func (i *Interface) normalize() {
	slices.SortFunc(i.IPAddressInfos, ipaddr.Info.Compare)
	i.IPAddressInfos = slices.Compact(i.IPAddressInfos)
	slices.SortFunc(i.Gateways, ipaddr.Addr.Compare)
	i.Gateways = slices.Compact(i.Gateways)
}
