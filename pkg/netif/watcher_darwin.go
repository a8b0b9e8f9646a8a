//go:build darwin

package netif

import (
	"context"
	"encoding/binary"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Routing message types we care about
const (
	rtmAdd     = 0x01 // RTM_ADD - route added
	rtmDelete  = 0x02 // RTM_DELETE - route removed
	rtmChange  = 0x03 // RTM_CHANGE - route changed
	rtmNewAddr = 0x0c // RTM_NEWADDR - address added
	rtmDelAddr = 0x0d // RTM_DELADDR - address removed
	rtmIfInfo  = 0x0e // RTM_IFINFO - interface up/down
)

type darwinWatcher struct{}

// NewSystemWatcher creates a macOS-specific watcher using AF_ROUTE sockets.
func NewSystemWatcher() Watcher {
	return darwinWatcher{}
}

func (darwinWatcher) Start(ctx context.Context, notify func()) error {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return fmt.Errorf("open route socket: %w", err)
	}

	// Close socket when context is cancelled
	go func() {
		<-ctx.Done()
		unix.Close(fd)
	}()

	log.Debug("Darwin watcher initialized")

	buf := make([]byte, 4096)

	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.WithError(err).Warn("Error reading from route socket")
				continue
			}
		}

		if n < 14 {
			continue
		}

		// Message header layout for if_msghdr / ifa_msghdr:
		// - bytes 0-1: msglen
		// - byte 2: version
		// - byte 3: type
		// - bytes 4-7: addrs
		// - bytes 8-11: flags
		// - bytes 12-13: interface index
		msgType := buf[3]

		switch msgType {
		case rtmIfInfo, rtmNewAddr, rtmDelAddr, rtmAdd, rtmDelete, rtmChange:
		default:
			continue
		}

		log.WithFields(log.Fields{
			"msgType": msgType,
			"ifIndex": binary.LittleEndian.Uint16(buf[12:14]),
			"flags":   binary.LittleEndian.Uint32(buf[8:12]),
		}).Trace("Received routing event")

		notify()
	}
}
