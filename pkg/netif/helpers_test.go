package netif

import (
	"context"
	"errors"
	"sync"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

// fakeInventory is a test double for the Inventory interface
type fakeInventory struct {
	mu     sync.Mutex
	list   []Interface
	err    error
	calls  int
	called chan struct{}
}

func newFakeInventory(list ...Interface) *fakeInventory {
	return &fakeInventory{list: list, called: make(chan struct{}, 64)}
}

func (f *fakeInventory) Snapshot(ctx context.Context) ([]Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	select {
	case f.called <- struct{}{}:
	default:
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Interface, len(f.list))
	for i, intf := range f.list {
		out[i] = intf.Clone()
	}
	return out, nil
}

func (f *fakeInventory) Set(list ...Interface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
	f.err = nil
}

func (f *fakeInventory) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeInventory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// mockWatcher is a test double for the Watcher interface
type mockWatcher struct {
	mu      sync.Mutex
	notify  func()
	started chan struct{}
}

func newMockWatcher() *mockWatcher {
	return &mockWatcher{started: make(chan struct{})}
}

func (m *mockWatcher) Start(ctx context.Context, notify func()) error {
	m.mu.Lock()
	m.notify = notify
	m.mu.Unlock()
	close(m.started)

	<-ctx.Done()
	return nil
}

func (m *mockWatcher) Fire() {
	m.mu.Lock()
	notify := m.notify
	m.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// recorder collects every callback as an Event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(t EventType, intf Interface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: t, Interface: intf})
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) OnInterfaceAdded(intf Interface)   { r.add(InterfaceAdded, intf) }
func (r *recorder) OnInterfaceRemoved(intf Interface) { r.add(InterfaceRemoved, intf) }
func (r *recorder) OnEnabledStateChanged(intf Interface, _ bool) {
	r.add(EnabledStateChanged, intf)
}
func (r *recorder) OnConnectedStateChanged(intf Interface, _ bool) {
	r.add(ConnectedStateChanged, intf)
}
func (r *recorder) OnAliasChanged(intf Interface, _ string) { r.add(AliasChanged, intf) }
func (r *recorder) OnIPAddressInfosChanged(intf Interface, _ []ipaddr.Info) {
	r.add(IPAddressInfosChanged, intf)
}
func (r *recorder) OnGatewaysChanged(intf Interface, _ []ipaddr.Addr) {
	r.add(GatewaysChanged, intf)
}

func eventKeys(events []Event) []string {
	keys := make([]string, len(events))
	for i, ev := range events {
		keys[i] = string(ev.Type) + ":" + ev.Interface.ID
	}
	return keys
}

func testInterface(id string) Interface {
	return Interface{
		ID:          id,
		Description: id,
		Alias:       id,
		Type:        TypeEthernet,
		IsEnabled:   true,
		IsConnected: true,
		MacAddress:  MacAddress{0x00, 0x01, 0x02, 0x03, 0x04, byte(len(id))},
	}
}

var errQuery = errors.New("permission denied")
