package advertise

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
	"github.com/dmdmdm-nz/netifmon/pkg/netif"
)

type fakeServer struct {
	mu   sync.Mutex
	down bool
}

func (s *fakeServer) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = true
}

func (s *fakeServer) isDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down
}

type registration struct {
	names  []string
	port   int
	server *fakeServer
}

type fakeZeroconf struct {
	regs chan registration
	fail bool
}

func (z *fakeZeroconf) register(instance, service, domain string, port int, text []string, ifaces []net.Interface) (server, error) {
	if z.fail {
		return nil, errors.New("mdns unavailable")
	}
	names := make([]string, len(ifaces))
	for i, ni := range ifaces {
		names[i] = ni.Name
	}
	srv := &fakeServer{}
	z.regs <- registration{names: names, port: port, server: srv}
	return srv, nil
}

func lookup(index int) (*net.Interface, error) {
	names := map[int]string{1: "lo", 2: "eth0", 3: "wlan0"}
	name, ok := names[index]
	if !ok {
		return nil, errors.New("no such interface")
	}
	return &net.Interface{Index: index, Name: name}, nil
}

func intf(id string, index int, typ netif.InterfaceType, connected bool) netif.Interface {
	return netif.Interface{
		ID:             id,
		Index:          index,
		Type:           typ,
		IsEnabled:      true,
		IsConnected:    connected,
		IPAddressInfos: []ipaddr.Info{ipaddr.MustParseInfo("10.0.0.2/24")},
	}
}

type fakeInventory struct {
	mu   sync.Mutex
	list []netif.Interface
}

func (f *fakeInventory) set(list ...netif.Interface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
}

func (f *fakeInventory) Snapshot(context.Context) ([]netif.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]netif.Interface, len(f.list))
	for i, it := range f.list {
		out[i] = it.Clone()
	}
	return out, nil
}

func newTestAdvertiser(t *testing.T) (*Advertiser, *fakeInventory, *netif.Engine, *fakeZeroconf) {
	t.Helper()
	inv := &fakeInventory{}
	inv.set(
		intf("lo", 1, netif.TypeLoopback, true),
		intf("eth0", 2, netif.TypeEthernet, true),
		intf("wlan0", 3, netif.TypeWiFi, false),
	)
	engine := netif.NewEngine(inv)
	t.Cleanup(func() { _ = engine.Close() })

	z := &fakeZeroconf{regs: make(chan registration, 8)}
	a := New(engine, 60106)
	a.register = z.register
	a.lookup = lookup
	return a, inv, engine, z
}

func waitRegistration(t *testing.T, z *fakeZeroconf) registration {
	t.Helper()
	select {
	case r := <-z.regs:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for registration")
		return registration{}
	}
}

func TestAdvertiser_RegistersConnectedInterfaces(t *testing.T) {
	a, _, _, z := newTestAdvertiser(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	r := waitRegistration(t, z)
	assert.Equal(t, []string{"eth0"}, r.names)
	assert.Equal(t, 60106, r.port)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, r.server.isDown())
}

func TestAdvertiser_ReregistersOnChange(t *testing.T) {
	a, inv, engine, z := newTestAdvertiser(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Start(ctx) }()

	first := waitRegistration(t, z)
	assert.Equal(t, []string{"eth0"}, first.names)

	inv.set(
		intf("lo", 1, netif.TypeLoopback, true),
		intf("eth0", 2, netif.TypeEthernet, true),
		intf("wlan0", 3, netif.TypeWiFi, true),
	)
	require.NoError(t, engine.Refresh(context.Background()))

	second := waitRegistration(t, z)
	assert.Equal(t, []string{"eth0", "wlan0"}, second.names)
	assert.True(t, first.server.isDown())
}

func TestAdvertiser_IgnoresIrrelevantChanges(t *testing.T) {
	a, inv, engine, z := newTestAdvertiser(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Start(ctx) }()

	waitRegistration(t, z)

	lo := intf("lo", 1, netif.TypeLoopback, true)
	lo.Alias = "loopback"
	inv.set(lo, intf("eth0", 2, netif.TypeEthernet, true), intf("wlan0", 3, netif.TypeWiFi, false))
	require.NoError(t, engine.Refresh(context.Background()))

	select {
	case r := <-z.regs:
		t.Fatalf("unexpected registration %v", r.names)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAdvertiser_RegisterFailure(t *testing.T) {
	a, _, _, z := newTestAdvertiser(t)
	z.fail = true

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, a.Start(ctx))
	assert.Nil(t, a.server)
}

func TestIsEligible(t *testing.T) {
	assert.True(t, isEligible(intf("eth0", 2, netif.TypeEthernet, true)))
	assert.False(t, isEligible(intf("lo", 1, netif.TypeLoopback, true)))
	assert.False(t, isEligible(intf("eth0", 2, netif.TypeEthernet, false)))

	noAddr := intf("eth0", 2, netif.TypeEthernet, true)
	noAddr.IPAddressInfos = nil
	assert.False(t, isEligible(noAddr))
}
