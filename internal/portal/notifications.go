package portal

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/model"
	"github.com/ghaggin/fypportal/internal/session"
	"github.com/ghaggin/fypportal/internal/view"
)

type notificationFeed struct {
	Unread        int                  `json:"unread"`
	Notifications []model.Notification `json:"notifications"`
}

// listNotifications answers 204 when a newer poll from the same user has
// overtaken this one, so the client keeps the newer feed.
func (h *handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := session.Token(ctx)
	u := session.UserFromContext(ctx)

	items, err := h.notifications.Load(ctx, strconv.Itoa(u.ID), func(ctx context.Context) ([]model.Notification, error) {
		return h.api.ListNotifications(ctx, token)
	})
	switch {
	case errors.Is(err, view.ErrSuperseded):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": loadError(err)})
		return
	}

	feed := notificationFeed{Notifications: items}
	if feed.Notifications == nil {
		feed.Notifications = []model.Notification{}
	}
	for _, n := range items {
		if !n.Read {
			feed.Unread++
		}
	}
	writeJSON(w, http.StatusOK, feed)
}

func (h *handlers) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	n, err := h.api.MarkNotificationRead(r.Context(), session.Token(r.Context()), id)
	if err != nil {
		h.log.Warn("mark notification read failed", zap.Int("id", id), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": loadError(err)})
		return
	}
	writeJSON(w, http.StatusOK, n)
}
