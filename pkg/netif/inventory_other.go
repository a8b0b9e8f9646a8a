//go:build !linux && !darwin

package netif

import (
	"context"

	"github.com/jackpal/gateway"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

type netInventory struct{}

// NewSystemInventory returns an inventory built on the net package. Only the
// system's primary default gateway is reported.
func NewSystemInventory() Inventory {
	return netInventory{}
}

func (netInventory) Snapshot(ctx context.Context) ([]Interface, error) {
	interfaces, err := interfacesFromNet()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gw, err := gateway.DiscoverGateway()
	if err != nil {
		// No default route is a valid state, not an enumeration failure.
		log.WithError(err).Trace("No default gateway discovered")
		return interfaces, nil
	}
	if addr, err := ipaddr.AddrFromNetIP(gw); err == nil {
		attachGateway(interfaces, addr)
	}
	return interfaces, nil
}

// NewSystemWatcher returns nil: this platform is polled.
func NewSystemWatcher() Watcher {
	return nil
}
