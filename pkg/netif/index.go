package netif

import (
	"net"

	"github.com/libp2p/go-cidranger"
	log "github.com/sirupsen/logrus"
)

// networkEntry maps one assigned network back to the interface that owns it.
type networkEntry struct {
	network     net.IPNet
	interfaceID string
}

func (e *networkEntry) Network() net.IPNet { return e.network }

// buildIndex indexes every contiguous network of every interface, except
// V4-mapped IPv6 ones.
func buildIndex(interfaces []Interface) cidranger.Ranger {
	ranger := cidranger.NewPCTrieRanger()
	for _, intf := range interfaces {
		for _, info := range intf.IPAddressInfos {
			p, err := info.Prefix()
			if err != nil {
				continue
			}
			p = p.Masked()
			if p.Addr().Is4In6() {
				// The ranger would file it under IPv4.
				continue
			}
			entry := &networkEntry{
				network: net.IPNet{
					IP:   p.Addr().AsSlice(),
					Mask: net.CIDRMask(p.Bits(), p.Addr().BitLen()),
				},
				interfaceID: intf.ID,
			}
			if err := ranger.Insert(entry); err != nil {
				log.WithFields(log.Fields{
					"interface": intf.ID,
					"network":   p.String(),
				}).WithError(err).Debug("Failed to index network")
			}
		}
	}
	return ranger
}

// lookupIndex returns the ID of the interface owning the most specific
// network containing ip.
func lookupIndex(ranger cidranger.Ranger, ip net.IP) (string, bool) {
	if ranger == nil {
		return "", false
	}
	entries, err := ranger.ContainingNetworks(ip)
	if err != nil || len(entries) == 0 {
		return "", false
	}

	best := -1
	var id string
	for _, e := range entries {
		entry, ok := e.(*networkEntry)
		if !ok {
			continue
		}
		ones, _ := entry.network.Mask.Size()
		if ones > best {
			best = ones
			id = entry.interfaceID
		}
	}
	return id, best >= 0
}
