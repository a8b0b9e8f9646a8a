package api

import (
	"context"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
	"github.com/dmdmdm-nz/netifmon/pkg/netif"
)

// Monitor is the part of the interface engine the API serves.
type Monitor interface {
	Interfaces() []netif.Interface
	InterfaceByID(id string) (netif.Interface, error)
	InterfaceForAddress(addr ipaddr.Addr) (netif.Interface, bool)
	Subscribe() (<-chan netif.Event, func())
	Refresh(ctx context.Context) error
}

type VersionInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Semver     string `json:"semver"`
	CommitHash string `json:"commitHash"`
	BuildTime  string `json:"buildTime"`
	Copyright  string `json:"copyright"`
}

type LookupResult struct {
	Address   string          `json:"address"`
	Interface netif.Interface `json:"interface"`
}

// EventMessage is one event pushed to a websocket client.
type EventMessage struct {
	Session   string          `json:"session"`
	Sequence  uint64          `json:"sequence"`
	Type      netif.EventType `json:"type"`
	Interface netif.Interface `json:"interface"`
}
