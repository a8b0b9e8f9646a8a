package netif

import "context"

// Inventory queries the operating system for its network interfaces. It
// returns a complete snapshot or an error, never a partial list.
type Inventory interface {
	Snapshot(ctx context.Context) ([]Interface, error)
}

// InventoryFunc adapts a function to Inventory.
type InventoryFunc func(ctx context.Context) ([]Interface, error)

func (f InventoryFunc) Snapshot(ctx context.Context) ([]Interface, error) {
	return f(ctx)
}
