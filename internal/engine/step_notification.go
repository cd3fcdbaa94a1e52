package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/flowline/internal/model"
	"github.com/edvin/flowline/internal/platform"
)

// NotificationHandler fans a notification record out to each configured
// recipient.
type NotificationHandler struct {
	notifications NotificationStore
}

func NewNotificationHandler(notifications NotificationStore) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := req.Config()
	contextData := req.ContextData()

	recipients := configStringList(cfg, "recipients")
	if len(recipients) == 0 {
		return nil, fmt.Errorf("notification step %q: no recipients configured", req.Step.Name)
	}

	title := ReplaceVariables(configString(cfg, "title"), contextData)
	message := ReplaceVariables(configString(cfg, "message"), contextData)

	for _, recipient := range recipients {
		n := &model.Notification{
			ID:          platform.NewID(),
			TenantID:    req.Instance.TenantID,
			RecipientID: ReplaceVariables(recipient, contextData),
			Title:       title,
			Message:     message,
			InstanceID:  req.Instance.ID,
			CreatedAt:   time.Now(),
		}
		if err := h.notifications.CreateNotification(ctx, n); err != nil {
			return nil, fmt.Errorf("create notification for %s: %w", n.RecipientID, err)
		}
	}

	return &Result{Output: map[string]any{"notified": len(recipients)}}, nil
}
