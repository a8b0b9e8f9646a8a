package netif

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

func TestDiff_AddRemove(t *testing.T) {
	a, b, c := testInterface("A"), testInterface("B"), testInterface("C")

	events := diff([]Interface{a, b}, []Interface{b, c})

	assert.Equal(t, []string{"INTERFACE_REMOVED:A", "INTERFACE_ADDED:C"}, eventKeys(events))
}

func TestDiff_ConnectedFlip(t *testing.T) {
	b := testInterface("B")
	flipped := b
	flipped.IsConnected = false

	events := diff([]Interface{b}, []Interface{flipped})

	assert.Equal(t, []string{"CONNECTED_STATE_CHANGED:B"}, eventKeys(events))
	assert.False(t, events[0].Interface.IsConnected)
}

func TestDiff_OneEventPerCategory(t *testing.T) {
	old := testInterface("eth0")
	old.IPAddressInfos = []ipaddr.Info{ipaddr.MustParseInfo("10.0.0.2/24")}
	old.Gateways = []ipaddr.Addr{ipaddr.MustParseAddr("10.0.0.1")}

	cur := old.Clone()
	cur.IsEnabled = false
	cur.IsConnected = false
	cur.Alias = "uplink"
	cur.IPAddressInfos = []ipaddr.Info{ipaddr.MustParseInfo("10.0.0.3/24"), ipaddr.MustParseInfo("fe80::2/64")}
	cur.Gateways = nil

	events := diff([]Interface{old}, []Interface{cur})

	assert.Equal(t, []string{
		"ENABLED_STATE_CHANGED:eth0",
		"CONNECTED_STATE_CHANGED:eth0",
		"ALIAS_CHANGED:eth0",
		"IP_ADDRESS_INFOS_CHANGED:eth0",
		"GATEWAYS_CHANGED:eth0",
	}, eventKeys(events))
}

func TestDiff_IgnoresUntrackedFields(t *testing.T) {
	old := testInterface("eth0")
	cur := old
	cur.Description = "renamed by driver"
	cur.Type = TypeOther

	assert.Empty(t, diff([]Interface{old}, []Interface{cur}))
}

func TestDiff_AddressSetsCompareUnordered(t *testing.T) {
	old := testInterface("eth0")
	old.IPAddressInfos = []ipaddr.Info{ipaddr.MustParseInfo("10.0.0.2/24"), ipaddr.MustParseInfo("fe80::2/64")}
	cur := old.Clone()
	cur.IPAddressInfos = []ipaddr.Info{ipaddr.MustParseInfo("fe80::2/64"), ipaddr.MustParseInfo("10.0.0.2/24")}

	prev := normalizeSnapshot([]Interface{old})
	next := normalizeSnapshot([]Interface{cur})

	assert.Empty(t, diff(prev, next))
}

func TestDiff_AddRemoveBeforeChanges(t *testing.T) {
	a, b := testInterface("A"), testInterface("B")
	changed := b
	changed.Alias = "renamed"

	events := diff([]Interface{a, b}, []Interface{changed, testInterface("C")})

	assert.Equal(t, []string{"INTERFACE_REMOVED:A", "INTERFACE_ADDED:C", "ALIAS_CHANGED:B"}, eventKeys(events))
}

func TestNormalizeSnapshot_DropsDuplicateIDs(t *testing.T) {
	first := testInterface("eth0")
	second := testInterface("eth0")
	second.Alias = "dup"

	out := normalizeSnapshot([]Interface{first, second})

	assert.Len(t, out, 1)
	assert.Equal(t, "eth0", out[0].Alias)
}
