package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Masterminds/semver"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netifmon/pkg/version"
)

type StreamError struct {
	Status string `json:"status"`
}

func accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, context.Context, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, nil, err
	}
	return c, r.Context(), nil
}

// checkMinVersion rejects clients that need a newer server.
func checkMinVersion(min string) error {
	if min == "" {
		return nil
	}
	c, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return fmt.Errorf("invalid min_version %q: %w", min, err)
	}
	if !c.Check(version.Semver()) {
		return fmt.Errorf("server version %s does not satisfy min_version %s", version.Semver(), min)
	}
	return nil
}

// StreamEvents pushes the interface snapshot followed by every change to a
// websocket client. The optional id query parameter limits the stream to one
// interface.
func StreamEvents(s *Service, w http.ResponseWriter, r *http.Request) {
	if err := checkMinVersion(r.URL.Query().Get("min_version")); err != nil {
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
		return
	}
	filter := r.URL.Query().Get("id")

	c, ctx, err := accept(w, r)
	if err != nil {
		log.Error("Failed to accept client:", err)
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "closing")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := uuid.NewString()
	logger := log.WithFields(log.Fields{"session": session, "remote": r.RemoteAddr})
	if !s.addClient(session, cancel) {
		b, _ := json.Marshal(StreamError{Status: "shutting down"})
		_ = c.Write(ctx, websocket.MessageText, b)
		return
	}
	defer s.removeClient(session)

	events, unsub := s.mon.Subscribe()
	defer unsub()

	logger.Info("Event stream opened")
	defer logger.Info("Event stream closed")

	// Client messages are ignored; reading detects disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filter != "" && ev.Interface.ID != filter {
				continue
			}
			seq++
			b, err := json.Marshal(EventMessage{
				Session:   session,
				Sequence:  seq,
				Type:      ev.Type,
				Interface: ev.Interface,
			})
			if err != nil {
				logger.WithError(err).Error("Failed to encode event")
				continue
			}
			if err := c.Write(ctx, websocket.MessageText, b); err != nil {
				logger.WithError(err).Debug("Failed to write event")
				return
			}
		}
	}
}
