//go:build linux

package netif

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

type linuxWatcher struct{}

// NewSystemWatcher creates a Linux-specific watcher using netlink.
func NewSystemWatcher() Watcher {
	return linuxWatcher{}
}

func (linuxWatcher) Start(ctx context.Context, notify func()) error {
	linkCh := make(chan netlink.LinkUpdate)
	linkDone := make(chan struct{})

	addrCh := make(chan netlink.AddrUpdate)
	addrDone := make(chan struct{})

	routeCh := make(chan netlink.RouteUpdate)
	routeDone := make(chan struct{})

	if err := netlink.LinkSubscribe(linkCh, linkDone); err != nil {
		return fmt.Errorf("subscribe links: %w", err)
	}
	defer close(linkDone)

	if err := netlink.AddrSubscribe(addrCh, addrDone); err != nil {
		return fmt.Errorf("subscribe addresses: %w", err)
	}
	defer close(addrDone)

	if err := netlink.RouteSubscribe(routeCh, routeDone); err != nil {
		return fmt.Errorf("subscribe routes: %w", err)
	}
	defer close(routeDone)

	log.Debug("Netlink watcher initialized")

	for {
		select {
		case <-ctx.Done():
			return nil

		case update, ok := <-linkCh:
			if !ok {
				return fmt.Errorf("netlink link subscription closed")
			}
			log.WithFields(log.Fields{
				"interface": update.Link.Attrs().Name,
				"flags":     update.Link.Attrs().Flags,
			}).Trace("Received link update")
			notify()

		case update, ok := <-addrCh:
			if !ok {
				return fmt.Errorf("netlink address subscription closed")
			}
			log.WithFields(log.Fields{
				"ifIndex": update.LinkIndex,
				"address": update.LinkAddress.String(),
				"new":     update.NewAddr,
			}).Trace("Received address update")
			notify()

		case update, ok := <-routeCh:
			if !ok {
				return fmt.Errorf("netlink route subscription closed")
			}
			if !isDefaultRoute(update.Route) {
				continue
			}
			log.WithField("ifIndex", update.LinkIndex).Trace("Received default route update")
			notify()
		}
	}
}
