package core

import (
	"context"
	"fmt"

	"github.com/edvin/flowline/internal/model"
)

// NotificationService implements engine.NotificationStore.
type NotificationService struct {
	db DB
}

func NewNotificationService(db DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) CreateNotification(ctx context.Context, n *model.Notification) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (id, tenant_id, recipient_id, title, message, instance_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.TenantID, n.RecipientID, n.Title, n.Message, n.InstanceID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationService) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, recipient_id, title, message, instance_id, created_at
		 FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2`,
		recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.TenantID, &n.RecipientID, &n.Title, &n.Message,
			&n.InstanceID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}
