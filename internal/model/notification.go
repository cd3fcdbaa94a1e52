package model

import "time"

// Notification is a fan-out record produced by NOTIFICATION steps. Delivery
// transports consume these rows out of band.
type Notification struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	InstanceID  string    `json:"instance_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
