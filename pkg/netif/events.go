package netif

type EventType string

const (
	InterfaceAdded        EventType = "INTERFACE_ADDED"
	InterfaceRemoved      EventType = "INTERFACE_REMOVED"
	EnabledStateChanged   EventType = "ENABLED_STATE_CHANGED"
	ConnectedStateChanged EventType = "CONNECTED_STATE_CHANGED"
	AliasChanged          EventType = "ALIAS_CHANGED"
	IPAddressInfosChanged EventType = "IP_ADDRESS_INFOS_CHANGED"
	GatewaysChanged       EventType = "GATEWAYS_CHANGED"
)

// Event is one delta produced by a refresh cycle. Interface holds the new
// state, or the last known state for InterfaceRemoved.
type Event struct {
	Type      EventType `json:"type" plist:"type"`
	Interface Interface `json:"interface" plist:"interface"`
}

// deliver invokes the observer method matching the event type.
func (ev Event) deliver(obs Observer) {
	intf := ev.Interface.Clone()
	switch ev.Type {
	case InterfaceAdded:
		obs.OnInterfaceAdded(intf)
	case InterfaceRemoved:
		obs.OnInterfaceRemoved(intf)
	case EnabledStateChanged:
		obs.OnEnabledStateChanged(intf, intf.IsEnabled)
	case ConnectedStateChanged:
		obs.OnConnectedStateChanged(intf, intf.IsConnected)
	case AliasChanged:
		obs.OnAliasChanged(intf, intf.Alias)
	case IPAddressInfosChanged:
		obs.OnIPAddressInfosChanged(intf, intf.Clone().IPAddressInfos)
	case GatewaysChanged:
		obs.OnGatewaysChanged(intf, intf.Clone().Gateways)
	}
}
