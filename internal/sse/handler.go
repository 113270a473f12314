package sse

import (
	"bytes"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// retryMillis is the reconnect delay suggested to browsers.
	retryMillis  = 3000
	writeTimeout = 60 * time.Second
)

// Handler serves the event stream at GET /api/v1/events.
//
// Browsers resume with the Last-Event-ID header; clients that cannot set
// headers may pass last_event_id as a query parameter instead.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a Handler backed by manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// ServeHTTP streams events until the client goes away or the manager shuts down.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	if ctx.Err() != nil {
		return
	}

	lastEventID := r.Header.Get("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = r.URL.Query().Get("last_event_id")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming not supported", slog.String("error", err.Error()))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect(lastEventID)
	if err != nil {
		h.logger.Error("failed to register event stream client", slog.String("error", err.Error()))
		http.Error(w, "failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With(slog.String("client_id", client.ID))
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "retry: %d\n", retryMillis)
	if err := h.write(w, rc, &buf, "", "connected", map[string]string{"client_id": client.ID}); err != nil {
		log.Warn("failed to send connected frame", slog.String("error", err.Error()))
		return
	}

	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if err := h.write(w, rc, &buf, event.ID, string(event.Type), event); err != nil {
				log.Debug("client went away during send", slog.String("error", err.Error()))
				return
			}

		case <-client.Done:
			return

		case <-ctx.Done():
			return
		}
	}
}

// write appends one frame to buf, sends it and flushes. buf may already hold
// a prefix such as a retry line; it is empty on return.
func (h *Handler) write(w http.ResponseWriter, rc *http.ResponseController, buf *bytes.Buffer, eventID, eventType string, data any) error {
	defer buf.Reset()

	if eventID != "" {
		fmt.Fprintf(buf, "id: %s\n", eventID)
	}
	fmt.Fprintf(buf, "event: %s\ndata: ", eventType)
	if err := json.MarshalWrite(buf, data); err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	buf.WriteString("\n\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// A hung connection times out instead of pinning the goroutine.
	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("write deadline not supported", slog.String("error", err.Error()))
	}
	return nil
}
