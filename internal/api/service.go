package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
	"github.com/dmdmdm-nz/netifmon/pkg/netif"
	"github.com/dmdmdm-nz/netifmon/pkg/version"
)

// Service represents the HTTP server for the API
type Service struct {
	address  string
	port     int
	gatherer prometheus.Gatherer

	mon Monitor

	mu      sync.Mutex
	server  *http.Server
	clients map[string]context.CancelFunc
	closed  bool
}

func NewService(host string, port int) *Service {
	return &Service{
		address:  host,
		port:     port,
		gatherer: prometheus.DefaultGatherer,
		clients:  make(map[string]context.CancelFunc),
	}
}

func (s *Service) AttachMonitor(mon Monitor) {
	s.mon = mon
}

// SetGatherer selects the registry served on /metrics.
func (s *Service) SetGatherer(g prometheus.Gatherer) {
	s.gatherer = g
}

// Start serves the API until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	if s.mon == nil {
		return errors.New("api: AttachMonitor was not called before Start")
	}

	addr := fmt.Sprintf("%s:%d", s.address, s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	log.Infof("Starting netifmon API service at %s", addr)
	defer log.Info("Stopping netifmon API service")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api: listen on %s: %w", addr, err)
	}
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	// Disconnect all the websocket clients
	for id, cancel := range s.clients {
		log.WithField("session", id).Debug("Closing event stream")
		cancel()
		delete(s.clients, id)
	}

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Handler returns the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if s.mon == nil {
				http.Error(w, "monitor not attached", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, VersionInfo{
			Name:       version.LibraryName(),
			Version:    version.LibraryVersion(),
			Semver:     version.Semver().String(),
			CommitHash: version.CommitHash,
			BuildTime:  version.BuildTime,
			Copyright:  version.LibraryCopyright(),
		})
	})
	mux.HandleFunc("/interfaces", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, s.mon.Interfaces())
		case http.MethodPost:
			// Forces a refresh before answering.
			if err := s.mon.Refresh(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, s.mon.Interfaces())
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/interface/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/interface/")
		if len(id) == 0 {
			http.Error(w, "missing interface id", http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		intf, err := s.mon.InterfaceByID(id)
		if errors.Is(err, netif.ErrInterfaceNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, intf)
	})
	mux.HandleFunc("/lookup", func(w http.ResponseWriter, r *http.Request) {
		ip := r.URL.Query().Get("ip")
		if ip == "" {
			http.Error(w, "missing ip", http.StatusBadRequest)
			return
		}
		addr, err := ipaddr.ParseAddr(ip)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		intf, ok := s.mon.InterfaceForAddress(addr)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, LookupResult{Address: addr.String(), Interface: intf})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws/events", func(w http.ResponseWriter, r *http.Request) {
		StreamEvents(s, w, r)
	})
	return mux
}

func (s *Service) addClient(id string, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[id] = cancel
	return true
}

func (s *Service) removeClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
