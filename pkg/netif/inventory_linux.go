//go:build linux

package netif

import (
	"context"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

// SIOCGIWNAME only succeeds on wireless devices.
const siocgiwname = 0x8B01

type linuxInventory struct{}

// NewSystemInventory returns the Linux inventory backed by netlink.
func NewSystemInventory() Inventory {
	return linuxInventory{}
}

func (linuxInventory) Snapshot(ctx context.Context) ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	addrs, err := netlink.AddrList(nil, netlink.FAMILY_ALL)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	routes, err := netlink.RouteList(nil, netlink.FAMILY_ALL)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infosByIndex := make(map[int][]ipaddr.Info)
	for _, addr := range addrs {
		info, err := ipaddr.InfoFromIPNet(addr.IPNet)
		if err != nil {
			continue
		}
		infosByIndex[addr.LinkIndex] = append(infosByIndex[addr.LinkIndex], info)
	}
	gatewaysByIndex := defaultGateways(routes)

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		log.WithError(err).Debug("Failed to open ioctl socket, wireless detection disabled")
		fd = -1
	} else {
		defer unix.Close(fd)
	}

	interfaces := make([]Interface, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()

		intf := Interface{
			ID:             attrs.Name,
			Index:          attrs.Index,
			Description:    attrs.Name,
			Alias:          attrs.Name,
			IsEnabled:      attrs.Flags&net.FlagUp != 0,
			IsConnected:    attrs.Flags&net.FlagUp != 0 && attrs.RawFlags&unix.IFF_RUNNING != 0,
			IPAddressInfos: infosByIndex[attrs.Index],
			Gateways:       gatewaysByIndex[attrs.Index],
		}
		if attrs.Alias != "" {
			intf.Alias = attrs.Alias
		}
		if len(attrs.HardwareAddr) == len(intf.MacAddress) {
			copy(intf.MacAddress[:], attrs.HardwareAddr)
		}

		switch {
		case attrs.Flags&net.FlagLoopback != 0:
			intf.Type = TypeLoopback
			intf.IsVirtual = true
		case isWireless(fd, attrs.Name):
			intf.Type = TypeWiFi
		case link.Type() != "device":
			intf.Type = TypeVirtual
			intf.IsVirtual = true
		case attrs.EncapType == "ether":
			intf.Type = TypeEthernet
		default:
			intf.Type = TypeOther
		}

		log.WithFields(log.Fields{
			"interface": intf.ID,
			"type":      intf.Type,
			"kind":      link.Type(),
		}).Trace("Enumerated interface")

		interfaces = append(interfaces, intf)
	}
	return interfaces, nil
}

// defaultGateways maps link index to the next hops of its default routes.
func defaultGateways(routes []netlink.Route) map[int][]ipaddr.Addr {
	out := make(map[int][]ipaddr.Addr)
	add := func(index int, gw net.IP) {
		if index == 0 || gw == nil {
			return
		}
		addr, err := ipaddr.AddrFromNetIP(gw)
		if err != nil {
			return
		}
		out[index] = append(out[index], addr)
	}

	for _, r := range routes {
		if !isDefaultRoute(r) {
			continue
		}
		add(r.LinkIndex, r.Gw)
		for _, hop := range r.MultiPath {
			add(hop.LinkIndex, hop.Gw)
		}
	}
	return out
}

func isDefaultRoute(r netlink.Route) bool {
	if r.Dst == nil {
		return true
	}
	ones, _ := r.Dst.Mask.Size()
	return ones == 0 && r.Dst.IP.IsUnspecified()
}

func isWireless(fd int, name string) bool {
	if fd < 0 {
		return false
	}
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return false
	}
	return unix.IoctlIfreq(fd, siocgiwname, ifr) == nil
}
