//go:build darwin

package netif

import (
	"context"
	"fmt"

	"github.com/jackpal/gateway"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/route"
	"golang.org/x/sys/unix"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

type darwinInventory struct{}

// NewSystemInventory returns the macOS inventory: the net package for links
// and addresses, the routing table for default gateways.
func NewSystemInventory() Inventory {
	return darwinInventory{}
}

func (darwinInventory) Snapshot(ctx context.Context) ([]Interface, error) {
	interfaces, err := interfacesFromNet()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gateways, err := defaultGateways()
	if err != nil {
		return nil, err
	}
	if len(gateways) == 0 {
		// No default route in the RIB dump.
		if gw, err := gateway.DiscoverGateway(); err == nil {
			if addr, err := ipaddr.AddrFromNetIP(gw); err == nil {
				attachGateway(interfaces, addr)
			}
		}
		return interfaces, nil
	}
	for i := range interfaces {
		interfaces[i].Gateways = gateways[interfaces[i].Index]
	}
	return interfaces, nil
}

// defaultGateways dumps the routing table and maps interface index to the
// gateways of its default routes.
func defaultGateways() (map[int][]ipaddr.Addr, error) {
	rib, err := route.FetchRIB(unix.AF_UNSPEC, route.RIBTypeRoute, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch routing table: %w", err)
	}
	msgs, err := route.ParseRIB(route.RIBTypeRoute, rib)
	if err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}

	out := make(map[int][]ipaddr.Addr)
	for _, msg := range msgs {
		rm, ok := msg.(*route.RouteMessage)
		if !ok || rm.Flags&unix.RTF_GATEWAY == 0 || len(rm.Addrs) <= unix.RTAX_GATEWAY {
			continue
		}
		if !isDefaultDestination(rm.Addrs) {
			continue
		}

		var gw ipaddr.Addr
		switch a := rm.Addrs[unix.RTAX_GATEWAY].(type) {
		case *route.Inet4Addr:
			gw = ipaddr.AddrFrom4(a.IP)
		case *route.Inet6Addr:
			ip := a.IP
			if ip[0] == 0xfe && ip[1]&0xc0 == 0x80 {
				// KAME embeds the scope id in the second word of link-local addresses.
				ip[2], ip[3] = 0, 0
			}
			gw = ipaddr.AddrFrom16(ip)
		default:
			continue
		}

		log.WithFields(log.Fields{
			"ifIndex": rm.Index,
			"gateway": gw.String(),
		}).Trace("Found default route")
		out[rm.Index] = append(out[rm.Index], gw)
	}
	return out, nil
}

func isDefaultDestination(addrs []route.Addr) bool {
	switch dst := addrs[unix.RTAX_DST].(type) {
	case *route.Inet4Addr:
		return dst.IP == [4]byte{}
	case *route.Inet6Addr:
		return dst.IP == [16]byte{}
	default:
		return false
	}
}
