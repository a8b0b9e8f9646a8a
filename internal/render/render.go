package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"howett.net/plist"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
	"github.com/dmdmdm-nz/netifmon/pkg/netif"
)

type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatPlist Format = "plist"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatPlist:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Snapshot writes the interface list in the given format.
func Snapshot(w io.Writer, f Format, list []netif.Interface) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, list)
	case FormatPlist:
		return writePlist(w, list)
	}

	if _, err := fmt.Fprint(w, "Available interfaces:\n\n"); err != nil {
		return err
	}
	for n, intf := range list {
		fmt.Fprintf(w, "%d: %s\n", n+1, intf.ID)
		writeDetails(w, intf)
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// Event writes a single change notification in the given format.
func Event(w io.Writer, f Format, ev netif.Event) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, ev)
	case FormatPlist:
		return writePlist(w, ev)
	}

	intf := ev.Interface
	var err error
	switch ev.Type {
	case netif.InterfaceAdded:
		fmt.Fprintln(w, "Interface Added:")
		fmt.Fprintf(w, "  ID:           %s\n", intf.ID)
		writeDetails(w, intf)
	case netif.InterfaceRemoved:
		_, err = fmt.Fprintf(w, "Interface Removed: %s\n", intf.ID)
	case netif.EnabledStateChanged:
		_, err = fmt.Fprintf(w, "Enable State Changed for %s -> %s\n", intf.ID, yesNo(intf.IsEnabled))
	case netif.ConnectedStateChanged:
		_, err = fmt.Fprintf(w, "Connected State Changed for %s -> %s\n", intf.ID, yesNo(intf.IsConnected))
	case netif.AliasChanged:
		_, err = fmt.Fprintf(w, "Alias Changed for %s -> %s\n", intf.ID, intf.Alias)
	case netif.IPAddressInfosChanged:
		fmt.Fprintf(w, "IPAddressInfos Changed for %s\n", intf.ID)
		if len(intf.IPAddressInfos) == 0 {
			_, err = fmt.Fprintln(w, "  No IP Address")
		}
		for _, info := range intf.IPAddressInfos {
			_, err = fmt.Fprintf(w, "  %s\n", infoLine(info))
		}
	case netif.GatewaysChanged:
		fmt.Fprintf(w, "Gateways Changed for %s\n", intf.ID)
		if len(intf.Gateways) == 0 {
			_, err = fmt.Fprintln(w, "  No Gateway")
		}
		for _, gw := range intf.Gateways {
			_, err = fmt.Fprintf(w, "  %s\n", gw)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return err
}

func writeDetails(w io.Writer, intf netif.Interface) {
	fmt.Fprintf(w, "  Description:  %s\n", intf.Description)
	fmt.Fprintf(w, "  Alias:        %s\n", intf.Alias)
	fmt.Fprintf(w, "  MacAddress:   %s\n", intf.MacAddress)
	fmt.Fprintf(w, "  Type:         %s\n", intf.Type)
	fmt.Fprintf(w, "  Enabled:      %s\n", yesNo(intf.IsEnabled))
	fmt.Fprintf(w, "  Connected:    %s\n", yesNo(intf.IsConnected))
	fmt.Fprintf(w, "  Virtual:      %s\n", yesNo(intf.IsVirtual))
	if len(intf.IPAddressInfos) > 0 {
		fmt.Fprintln(w, "  IP Addresses:")
		for _, info := range intf.IPAddressInfos {
			fmt.Fprintf(w, "    %s\n", infoLine(info))
		}
	}
	if len(intf.Gateways) > 0 {
		fmt.Fprintln(w, "  Gateways:")
		for _, gw := range intf.Gateways {
			fmt.Fprintf(w, "    %s\n", gw)
		}
	}
}

// infoLine formats "address (netmask) -> base / broadcast". IPv6 has no
// broadcast address and prints "-" instead.
func infoLine(info ipaddr.Info) string {
	return fmt.Sprintf("%s (%s) -> %s / %s", info.Address, info.Netmask,
		orDash(info.NetworkBase()), orDash(info.Broadcast()))
}

func orDash(a ipaddr.Addr, err error) string {
	if err != nil {
		return "-"
	}
	return a.String()
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePlist(w io.Writer, v any) error {
	b, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("failed to encode plist: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
