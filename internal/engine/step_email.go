package engine

import (
	"context"
	"fmt"
)

// EmailHandler formats recipient, subject, and body from configuration and
// context data and hands the message to the email transport.
type EmailHandler struct {
	sender EmailSender
}

func NewEmailHandler(sender EmailSender) *EmailHandler {
	return &EmailHandler{sender: sender}
}

func (h *EmailHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := req.Config()
	contextData := req.ContextData()

	to := ReplaceVariables(configString(cfg, "to"), contextData)
	if to == "" {
		return nil, fmt.Errorf("email step %q: no recipient configured", req.Step.Name)
	}
	subject := ReplaceVariables(configString(cfg, "subject"), contextData)
	body := ReplaceVariables(configString(cfg, "body"), contextData)

	if err := h.sender.Send(ctx, to, subject, body); err != nil {
		return nil, fmt.Errorf("send email to %s: %w", to, err)
	}

	return &Result{Output: map[string]any{"sent_to": to}}, nil
}
