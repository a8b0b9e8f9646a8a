//go:build !linux

package netif

import (
	"fmt"
	"net"
	"strings"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

// virtualPrefixes are interface name prefixes of software devices on BSD
// derived systems.
var virtualPrefixes = []string{"utun", "bridge", "gif", "stf", "llw", "anpi", "ap", "vmenet", "tap", "tun"}

// interfacesFromNet builds the snapshot from the net package. Gateways are
// filled in by the platform inventory.
func interfacesFromNet() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	interfaces := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, fmt.Errorf("addresses of %s: %w", iface.Name, err)
		}

		intf := Interface{
			ID:             iface.Name,
			Index:          iface.Index,
			Description:    iface.Name,
			Alias:          iface.Name,
			IsEnabled:      iface.Flags&net.FlagUp != 0,
			IsConnected:    iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagRunning != 0,
			IPAddressInfos: addrInfos(addrs),
		}
		if len(iface.HardwareAddr) == len(intf.MacAddress) {
			copy(intf.MacAddress[:], iface.HardwareAddr)
		}
		intf.Type = classifyByName(iface.Name, iface.Flags)
		intf.IsVirtual = intf.Type == TypeLoopback || intf.Type == TypeVirtual

		interfaces = append(interfaces, intf)
	}
	return interfaces, nil
}

func classifyByName(name string, flags net.Flags) InterfaceType {
	switch {
	case flags&net.FlagLoopback != 0:
		return TypeLoopback
	case strings.HasPrefix(name, "awdl"):
		return TypeAWDL
	case strings.HasPrefix(name, "en"), strings.HasPrefix(name, "eth"):
		return TypeEthernet
	case strings.HasPrefix(name, "wl"):
		return TypeWiFi
	}
	for _, p := range virtualPrefixes {
		if strings.HasPrefix(name, p) {
			return TypeVirtual
		}
	}
	return TypeOther
}

// addrInfos converts the addresses reported by the net package, skipping
// anything that is not an IP network.
func addrInfos(addrs []net.Addr) []ipaddr.Info {
	infos := make([]ipaddr.Info, 0, len(addrs))
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		info, err := ipaddr.InfoFromIPNet(ipNet)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// attachGateway appends gw to every interface with a network containing it.
func attachGateway(interfaces []Interface, gw ipaddr.Addr) {
	for i := range interfaces {
		for _, info := range interfaces[i].IPAddressInfos {
			if info.Contains(gw) {
				interfaces[i].Gateways = append(interfaces[i].Gateways, gw)
				break
			}
		}
	}
}
