// Package netif enumerates the host's network interfaces, keeps the last
// known snapshot and notifies observers of every change between snapshots.
package netif

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-cidranger"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netifmon/internal/runtime"
	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
)

const (
	DefaultPollInterval     = time.Second
	DefaultFastPollInterval = 250 * time.Millisecond
	DefaultFastPollDuration = 5 * time.Second

	errorBufferSize = 16

	laggingSubscriberBacklog = 256
)

type Option func(*Engine)

// WithPollInterval sets the interval between refreshes when no OS
// notification arrives.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithFastPoll makes the engine poll at interval for duration after a refresh
// that detected changes. A zero interval disables fast polling.
func WithFastPoll(interval, duration time.Duration) Option {
	return func(e *Engine) {
		e.fastPollInterval = interval
		e.fastPollDuration = duration
	}
}

// WithWatcher adds an OS notification source. A nil watcher means polling only.
func WithWatcher(w Watcher) Option {
	return func(e *Engine) { e.watcher = w }
}

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithMetrics registers the engine collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = newMetrics(reg) }
}

// WithAutoMonitor starts monitoring when the first observer registers and
// stops it when the last one unregisters.
func WithAutoMonitor() Option {
	return func(e *Engine) { e.autoMonitor = true }
}

type registration struct {
	observer Observer
	// mu serializes deliveries to one observer so that the initial replay
	// always completes before any live event.
	mu sync.Mutex
}

// Engine owns the interface snapshot and the observer registry. It is the
// only writer of interface state.
type Engine struct {
	inventory        Inventory
	watcher          Watcher
	clock            clock.Clock
	metrics          *metrics
	pollInterval     time.Duration
	fastPollInterval time.Duration
	fastPollDuration time.Duration
	autoMonitor      bool

	// cycleMu serializes refresh cycles, including their dispatch.
	cycleMu sync.Mutex

	mu               sync.RWMutex
	interfaces       []Interface
	ranger           cidranger.Ranger
	enumerated       bool
	observers        []*registration
	subs             map[int]*runtime.SubQueue[Event]
	nextSubscriberID int
	closed           bool

	trigger chan struct{}
	errCh   chan error
	done    chan struct{}

	closeOnce sync.Once

	monitorMu     sync.Mutex
	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
}

func NewEngine(inventory Inventory, opts ...Option) *Engine {
	e := &Engine{
		inventory:        inventory,
		clock:            clock.New(),
		pollInterval:     DefaultPollInterval,
		fastPollInterval: DefaultFastPollInterval,
		fastPollDuration: DefaultFastPollDuration,
		subs:             make(map[int]*runtime.SubQueue[Event]),
		trigger:          make(chan struct{}, 1),
		errCh:            make(chan error, errorBufferSize),
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = newMetrics(nil)
	}
	return e
}

// Errors reports refresh failures and recovered observer panics. Errors are
// dropped when nobody drains the channel.
func (e *Engine) Errors() <-chan error {
	return e.errCh
}

// Trigger requests a refresh from the monitoring loop. Concurrent requests
// are coalesced into one.
func (e *Engine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Refresh queries the inventory, diffs it against the current snapshot and
// dispatches the resulting events before returning. On an inventory failure
// the snapshot is left untouched and no event is emitted.
func (e *Engine) Refresh(ctx context.Context) error {
	_, err := e.refresh(ctx)
	return err
}

func (e *Engine) refresh(ctx context.Context) (bool, error) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return false, ErrClosed
	}

	start := e.clock.Now()
	defer func() {
		e.metrics.refreshDuration.Observe(e.clock.Since(start).Seconds())
	}()

	list, err := e.inventory.Snapshot(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrOSQueryFailure, err)
		log.WithError(err).Warn("Interface enumeration failed, keeping previous snapshot")
		e.metrics.refreshes.WithLabelValues("error").Inc()
		e.reportError(err)
		return false, err
	}
	next := normalizeSnapshot(list)

	e.mu.Lock()
	events := diff(e.interfaces, next)
	e.interfaces = next
	e.enumerated = true
	if len(events) > 0 || e.ranger == nil {
		e.ranger = buildIndex(next)
	}
	observers := slices.Clone(e.observers)
	for id, sub := range e.subs {
		for _, ev := range events {
			sub.Enqueue(Event{Type: ev.Type, Interface: ev.Interface.Clone()})
		}
		if n := sub.Pending(); n > laggingSubscriberBacklog {
			log.WithFields(log.Fields{"subscriber": id, "pending": n}).Warn("Subscriber is falling behind")
		}
	}
	e.mu.Unlock()

	e.metrics.refreshes.WithLabelValues("ok").Inc()
	e.metrics.interfaces.Set(float64(len(next)))

	for _, ev := range events {
		log.WithFields(log.Fields{
			"interface": ev.Interface.ID,
			"event":     ev.Type,
		}).Debug("Interface change detected")

		e.metrics.events.WithLabelValues(string(ev.Type)).Inc()
		for _, reg := range observers {
			e.notify(reg, ev)
		}
	}
	return len(events) > 0, nil
}

// normalizeSnapshot drops duplicate IDs, keeping the first, and sorts each
// interface's address and gateway sets.
func normalizeSnapshot(list []Interface) []Interface {
	seen := make(map[string]struct{}, len(list))
	out := make([]Interface, 0, len(list))
	for _, intf := range list {
		if _, dup := seen[intf.ID]; dup {
			log.WithField("interface", intf.ID).Warn("Duplicate interface id in enumeration, ignoring")
			continue
		}
		seen[intf.ID] = struct{}{}
		intf = intf.Clone()
		intf.normalize()
		out = append(out, intf)
	}
	return out
}

func (e *Engine) notify(reg *registration, ev Event) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e.invoke(reg.observer, ev)
}

// invoke delivers one event, recovering any panic raised by the observer.
func (e *Engine) invoke(obs Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			perr := &ObserverPanicError{
				Observer: fmt.Sprintf("%T", obs),
				Event:    ev.Type,
				Value:    r,
			}
			log.WithFields(log.Fields{
				"interface": ev.Interface.ID,
				"event":     ev.Type,
				"observer":  perr.Observer,
			}).Errorf("Observer panicked: %v", r)
			e.metrics.observerPanics.Inc()
			e.reportError(perr)
		}
	}()
	ev.deliver(obs)
}

func (e *Engine) reportError(err error) {
	select {
	case e.errCh <- err:
	default:
		log.WithError(err).Trace("Error channel full, dropping error")
	}
}

// ensureEnumerated runs a first refresh if none has completed yet.
func (e *Engine) ensureEnumerated() {
	e.mu.RLock()
	enumerated := e.enumerated
	e.mu.RUnlock()
	if !enumerated {
		_ = e.Refresh(context.Background())
	}
}

// Register adds obs to the registry and replays the current snapshot to it as
// OnInterfaceAdded calls before any later event. Registering an observer that
// is already registered does nothing. A nil observer is ignored.
func (e *Engine) Register(obs Observer) error {
	if obs == nil {
		return nil
	}
	if !reflect.ValueOf(obs).Comparable() {
		return fmt.Errorf("register %T: %w", obs, ErrInvalidObserver)
	}

	e.ensureEnumerated()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	for _, reg := range e.observers {
		if reg.observer == obs {
			e.mu.Unlock()
			return nil
		}
	}
	reg := &registration{observer: obs}
	reg.mu.Lock()
	e.observers = append(e.observers, reg)
	count := len(e.observers)
	snapshot := slices.Clone(e.interfaces)
	e.mu.Unlock()

	e.metrics.observers.Set(float64(count))
	log.WithField("observer", fmt.Sprintf("%T", obs)).Debug("Observer registered")

	for _, intf := range snapshot {
		e.invoke(obs, Event{Type: InterfaceAdded, Interface: intf})
	}
	reg.mu.Unlock()

	if e.autoMonitor && count == 1 {
		e.startMonitor()
	}
	return nil
}

// Unregister removes obs. A dispatch cycle already in progress still delivers
// its remaining events to obs.
func (e *Engine) Unregister(obs Observer) {
	if obs == nil || !reflect.ValueOf(obs).Comparable() {
		return
	}

	e.mu.Lock()
	idx := slices.IndexFunc(e.observers, func(reg *registration) bool { return reg.observer == obs })
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	e.observers = slices.Delete(e.observers, idx, idx+1)
	count := len(e.observers)
	e.mu.Unlock()

	e.metrics.observers.Set(float64(count))
	log.WithField("observer", fmt.Sprintf("%T", obs)).Debug("Observer unregistered")

	if e.autoMonitor && count == 0 {
		e.stopMonitor(false)
	}
}

// Interfaces returns a copy of the current snapshot.
func (e *Engine) Interfaces() []Interface {
	e.ensureEnumerated()

	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Interface, len(e.interfaces))
	for i, intf := range e.interfaces {
		out[i] = intf.Clone()
	}
	return out
}

// Enumerate calls fn for every interface in the current snapshot.
func (e *Engine) Enumerate(fn func(Interface)) {
	for _, intf := range e.Interfaces() {
		fn(intf)
	}
}

func (e *Engine) InterfaceByID(id string) (Interface, error) {
	e.ensureEnumerated()

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, intf := range e.interfaces {
		if intf.ID == id {
			return intf.Clone(), nil
		}
	}
	return Interface{}, fmt.Errorf("%w: %s", ErrInterfaceNotFound, id)
}

// InterfaceForAddress returns the interface with the most specific assigned
// network containing addr. V4-mapped IPv6 addresses never match; Unmap them
// first to look up the IPv4 address.
func (e *Engine) InterfaceForAddress(addr ipaddr.Addr) (Interface, bool) {
	if !addr.IsValid() || addr.IsV4Mapped() {
		return Interface{}, false
	}
	e.ensureEnumerated()

	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := lookupIndex(e.ranger, net.IP(addr.AsSlice()))
	if !ok {
		return Interface{}, false
	}
	for _, intf := range e.interfaces {
		if intf.ID == id {
			return intf.Clone(), true
		}
	}
	return Interface{}, false
}

// Start runs the monitoring loop until ctx is cancelled or the engine is
// closed: an initial refresh, then one per poll tick or OS notification.
func (e *Engine) Start(ctx context.Context) error {
	log.Info("Starting network interface monitoring")
	defer log.Info("Stopping network interface monitoring")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := e.refresh(ctx); errors.Is(err, ErrClosed) {
		return nil
	}

	if e.watcher != nil {
		go func() {
			if err := e.watcher.Start(ctx, e.Trigger); err != nil && ctx.Err() == nil {
				log.WithError(err).Warn("Interface watcher failed, falling back to polling")
			}
		}()
	}

	ticker := e.clock.Ticker(e.pollInterval)
	defer ticker.Stop()

	var fastUntil time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.done:
			return nil
		case <-ticker.C:
		case <-e.trigger:
		}

		changed, err := e.refresh(ctx)
		if errors.Is(err, ErrClosed) {
			return nil
		}

		if e.fastPollInterval <= 0 || e.fastPollInterval >= e.pollInterval {
			continue
		}
		now := e.clock.Now()
		switch {
		case changed:
			if fastUntil.IsZero() {
				log.Trace("Entering fast poll mode")
				ticker.Reset(e.fastPollInterval)
			}
			fastUntil = now.Add(e.fastPollDuration)
		case !fastUntil.IsZero() && !now.Before(fastUntil):
			log.Trace("Leaving fast poll mode")
			ticker.Reset(e.pollInterval)
			fastUntil = time.Time{}
		}
	}
}

func (e *Engine) startMonitor() {
	e.monitorMu.Lock()
	defer e.monitorMu.Unlock()
	if e.monitorCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.monitorCancel = cancel
	e.monitorDone = done
	go func() {
		defer close(done)
		_ = e.Start(ctx)
	}()
}

// stopMonitor cancels the auto-started loop. It only waits for the loop to
// exit when wait is set, since callers inside a dispatch hold cycleMu.
func (e *Engine) stopMonitor(wait bool) {
	e.monitorMu.Lock()
	cancel, done := e.monitorCancel, e.monitorDone
	e.monitorCancel, e.monitorDone = nil, nil
	e.monitorMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if wait {
		<-done
	}
}

// Close stops monitoring, waits for the in-flight refresh cycle to finish
// dispatching and closes every subscription. It must not be called from an
// observer callback.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		close(e.done)
		e.stopMonitor(true)

		// Drain.
		e.cycleMu.Lock()
		e.cycleMu.Unlock()

		e.mu.Lock()
		for id, q := range e.subs {
			q.Close()
			delete(e.subs, id)
		}
		e.mu.Unlock()
	})
	return nil
}
