package netif

import "slices"

// diff computes the events that turn prev into next. Removals come first in
// prev order, then additions, then per-field changes, both in next order.
// Both slices must be normalized.
func diff(prev, next []Interface) []Event {
	prevByID := make(map[string]Interface, len(prev))
	for _, intf := range prev {
		prevByID[intf.ID] = intf
	}
	nextIDs := make(map[string]struct{}, len(next))
	for _, intf := range next {
		nextIDs[intf.ID] = struct{}{}
	}

	var events []Event
	for _, old := range prev {
		if _, ok := nextIDs[old.ID]; !ok {
			events = append(events, Event{Type: InterfaceRemoved, Interface: old})
		}
	}
	for _, cur := range next {
		if _, ok := prevByID[cur.ID]; !ok {
			events = append(events, Event{Type: InterfaceAdded, Interface: cur})
		}
	}
	for _, cur := range next {
		old, ok := prevByID[cur.ID]
		if !ok {
			continue
		}
		if old.IsEnabled != cur.IsEnabled {
			events = append(events, Event{Type: EnabledStateChanged, Interface: cur})
		}
		if old.IsConnected != cur.IsConnected {
			events = append(events, Event{Type: ConnectedStateChanged, Interface: cur})
		}
		if old.Alias != cur.Alias {
			events = append(events, Event{Type: AliasChanged, Interface: cur})
		}
		if !slices.Equal(old.IPAddressInfos, cur.IPAddressInfos) {
			events = append(events, Event{Type: IPAddressInfosChanged, Interface: cur})
		}
		if !slices.Equal(old.Gateways, cur.Gateways) {
			events = append(events, Event{Type: GatewaysChanged, Interface: cur})
		}
	}
	return events
}
