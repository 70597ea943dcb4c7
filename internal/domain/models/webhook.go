package models

// WebhookRecipient is a project member eligible for status-change notifications.
type WebhookRecipient struct {
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	WebhookURL string `json:"webhook_url"`
	IsSystem   bool   `json:"is_system"`
}
