package netif

import "github.com/dmdmdm-nz/netifmon/pkg/ipaddr"

// Observer receives interface deltas. Callbacks run synchronously on the
// engine's dispatch goroutine: a slow callback delays every other observer
// and the next refresh cycle. Callbacks must not call Refresh or Close on the
// engine that is notifying them.
//
// Implementations must be comparable; pointer receivers are the usual choice.
type Observer interface {
	OnInterfaceAdded(intf Interface)
	OnInterfaceRemoved(intf Interface)
	OnEnabledStateChanged(intf Interface, enabled bool)
	OnConnectedStateChanged(intf Interface, connected bool)
	OnAliasChanged(intf Interface, alias string)
	OnIPAddressInfosChanged(intf Interface, infos []ipaddr.Info)
	OnGatewaysChanged(intf Interface, gateways []ipaddr.Addr)
}

// DefaultObserver implements every Observer method as a no-op. Embed it and
// override the events of interest.
type DefaultObserver struct{}

func (DefaultObserver) OnInterfaceAdded(Interface)                       {}
func (DefaultObserver) OnInterfaceRemoved(Interface)                     {}
func (DefaultObserver) OnEnabledStateChanged(Interface, bool)            {}
func (DefaultObserver) OnConnectedStateChanged(Interface, bool)          {}
func (DefaultObserver) OnAliasChanged(Interface, string)                 {}
func (DefaultObserver) OnIPAddressInfosChanged(Interface, []ipaddr.Info) {}
func (DefaultObserver) OnGatewaysChanged(Interface, []ipaddr.Addr)       {}

// ObserverFuncs adapts optional callbacks to Observer. Nil fields are
// ignored. Register a pointer, since the struct itself is not comparable.
type ObserverFuncs struct {
	Added            func(Interface)
	Removed          func(Interface)
	EnabledChanged   func(Interface, bool)
	ConnectedChanged func(Interface, bool)
	AliasChanged     func(Interface, string)
	InfosChanged     func(Interface, []ipaddr.Info)
	GatewaysChanged  func(Interface, []ipaddr.Addr)
}

func (f *ObserverFuncs) OnInterfaceAdded(intf Interface) {
	if f.Added != nil {
		f.Added(intf)
	}
}

func (f *ObserverFuncs) OnInterfaceRemoved(intf Interface) {
	if f.Removed != nil {
		f.Removed(intf)
	}
}

func (f *ObserverFuncs) OnEnabledStateChanged(intf Interface, enabled bool) {
	if f.EnabledChanged != nil {
		f.EnabledChanged(intf, enabled)
	}
}

func (f *ObserverFuncs) OnConnectedStateChanged(intf Interface, connected bool) {
	if f.ConnectedChanged != nil {
		f.ConnectedChanged(intf, connected)
	}
}

func (f *ObserverFuncs) OnAliasChanged(intf Interface, alias string) {
	if f.AliasChanged != nil {
		f.AliasChanged(intf, alias)
	}
}

func (f *ObserverFuncs) OnIPAddressInfosChanged(intf Interface, infos []ipaddr.Info) {
	if f.InfosChanged != nil {
		f.InfosChanged(intf, infos)
	}
}

func (f *ObserverFuncs) OnGatewaysChanged(intf Interface, gateways []ipaddr.Addr) {
	if f.GatewaysChanged != nil {
		f.GatewaysChanged(intf, gateways)
	}
}
