package advertise

import (
	"context"
	"fmt"
	"net"
	"os"
	"slices"
	"sync"

	"github.com/dmdmdm-nz/zeroconf"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
	"github.com/dmdmdm-nz/netifmon/pkg/netif"
	"github.com/dmdmdm-nz/netifmon/pkg/version"
)

const (
	ServiceType = "_ifmond._tcp"
	Domain      = "local."
)

// Registry is where the advertiser follows interface changes.
type Registry interface {
	Register(obs netif.Observer) error
	Unregister(obs netif.Observer)
}

type server interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (server, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface) (server, error) {
	return zeroconf.Register(instance, service, domain, port, text, ifaces)
}

// Advertiser publishes the API over mDNS on every connected, non-loopback
// interface and re-publishes when that set changes.
type Advertiser struct {
	netif.DefaultObserver

	registry Registry
	instance string
	port     int

	register registerFunc
	lookup   func(index int) (*net.Interface, error)

	mu       sync.Mutex
	eligible map[string]netif.Interface

	kick chan struct{}

	// owned by the run loop
	server  server
	current []string
}

func New(registry Registry, port int) *Advertiser {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "netifmon"
	}
	return &Advertiser{
		registry: registry,
		instance: fmt.Sprintf("%s (%s)", version.LibraryName(), host),
		port:     port,
		register: zeroconfRegister,
		lookup:   net.InterfaceByIndex,
		eligible: make(map[string]netif.Interface),
		kick:     make(chan struct{}, 1),
	}
}

func isEligible(intf netif.Interface) bool {
	return intf.IsEnabled && intf.IsConnected &&
		intf.Type != netif.TypeLoopback && len(intf.IPAddressInfos) > 0
}

func (a *Advertiser) update(intf netif.Interface, present bool) {
	a.mu.Lock()
	_, was := a.eligible[intf.ID]
	now := present && isEligible(intf)
	if now {
		a.eligible[intf.ID] = intf
	} else {
		delete(a.eligible, intf.ID)
	}
	a.mu.Unlock()

	if was != now {
		select {
		case a.kick <- struct{}{}:
		default:
		}
	}
}

func (a *Advertiser) OnInterfaceAdded(intf netif.Interface)   { a.update(intf, true) }
func (a *Advertiser) OnInterfaceRemoved(intf netif.Interface) { a.update(intf, false) }
func (a *Advertiser) OnEnabledStateChanged(intf netif.Interface, _ bool) {
	a.update(intf, true)
}
func (a *Advertiser) OnConnectedStateChanged(intf netif.Interface, _ bool) {
	a.update(intf, true)
}
func (a *Advertiser) OnIPAddressInfosChanged(intf netif.Interface, _ []ipaddr.Info) {
	a.update(intf, true)
}

// Start registers with the registry and keeps the mDNS service in step with
// the eligible interfaces until ctx is cancelled.
func (a *Advertiser) Start(ctx context.Context) error {
	if err := a.registry.Register(a); err != nil {
		return fmt.Errorf("advertise: %w", err)
	}
	defer a.registry.Unregister(a)
	defer a.shutdown()

	log.WithFields(log.Fields{"service": ServiceType, "port": a.port}).Info("Starting advertiser")
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping advertiser")
			return nil
		case <-a.kick:
			a.republish()
		}
	}
}

// Close is a no-op. Start withdraws the service when its context ends.
func (a *Advertiser) Close() error {
	return nil
}

func (a *Advertiser) eligibleInterfaces() []netif.Interface {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]netif.Interface, 0, len(a.eligible))
	for _, intf := range a.eligible {
		out = append(out, intf)
	}
	slices.SortFunc(out, func(x, y netif.Interface) int { return x.Index - y.Index })
	return out
}

func (a *Advertiser) republish() {
	var ifaces []net.Interface
	var names []string
	for _, intf := range a.eligibleInterfaces() {
		ni, err := a.lookup(intf.Index)
		if err != nil {
			log.WithFields(log.Fields{"interface": intf.ID, "index": intf.Index}).
				WithError(err).Debug("Interface vanished before advertising")
			continue
		}
		ifaces = append(ifaces, *ni)
		names = append(names, ni.Name)
	}

	if slices.Equal(names, a.current) && (a.server != nil || len(names) == 0) {
		return
	}
	a.shutdown()
	if len(ifaces) == 0 {
		log.Info("No interfaces to advertise on")
		return
	}

	text := []string{
		"version=" + version.LibraryVersion(),
		"path=/ws/events",
	}
	srv, err := a.register(a.instance, ServiceType, Domain, a.port, text, ifaces)
	if err != nil {
		log.WithField("interfaces", names).WithError(err).Warn("Failed to register mDNS service")
		return
	}
	a.server = srv
	a.current = names
	log.WithField("interfaces", names).Info("Advertising service")
}

func (a *Advertiser) shutdown() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.current = nil
}
