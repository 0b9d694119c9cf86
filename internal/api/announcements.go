package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ghaggin/fypportal/internal/model"
)

func (c *Client) ListNotifications(ctx context.Context, token string) ([]model.Notification, error) {
	var out []model.Notification
	if err := c.get(ctx, token, "/announcements/notifications/", nil, &out); err != nil {
		return nil, resourceErr("load", "notifications", err)
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, token string, id int) (*model.Notification, error) {
	out := &model.Notification{}
	body := struct {
		Read bool `json:"read"`
	}{Read: true}
	if err := c.sendJSON(ctx, http.MethodPatch, token, fmt.Sprintf("/announcements/notifications/%d/", id), body, out); err != nil {
		return nil, resourceErr("mark", "notification as read", err)
	}
	return out, nil
}
