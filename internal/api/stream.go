package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/identity"
)

// keepAliveInterval is how often an idle identity stream sends a comment.
const keepAliveInterval = 30 * time.Second

// MeStream sends the caller's identity as a server-sent event each time it
// settles: once on connect, then after every sign-in, sign-out, or token
// refresh of the caller's session. It ends when the client disconnects.
func (h *Handler) MeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: http.StatusInternalServerError, Message: "streaming unsupported"})
		return
	}

	// Single producer (the resolver worker); the newest identity replaces
	// one not yet written.
	updates := make(chan *domain.Profile, 1)
	opts := []identity.Option{identity.OnSettle(func(user *domain.Profile) {
		select {
		case <-updates:
		default:
		}
		updates <- user
	})}
	if cs, ok := domain.SessionFromContext(r.Context()); ok && cs.ID != "" && h.backend.Broker != nil {
		opts = append(opts, identity.WithBroker(h.backend.Broker, cs.ID))
	}

	resolver := h.backend.NewResolver(r.Context(), opts...)
	resolver.Activate(r.Context())
	defer resolver.Deactivate()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case user := <-updates:
			if user != nil {
				profiles := []domain.Profile{*user}
				h.backend.ResolveAvatars(r.Context(), profiles)
				user = &profiles[0]
			}
			payload, err := json.Marshal(meResponse{User: user})
			if err != nil {
				h.logger.Error("encode identity event", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: identity\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
