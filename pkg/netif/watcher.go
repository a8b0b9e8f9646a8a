package netif

import "context"

// Watcher monitors the OS for interface, address and route changes using
// platform-specific event mechanisms (netlink on Linux, route sockets on macOS).
type Watcher interface {
	// Start begins watching for changes.
	// Calls notify for each detected change; notify never blocks.
	// Blocks until ctx is cancelled or an error occurs.
	Start(ctx context.Context, notify func()) error
}
