package services

// Webhook outcomes; every non-error return is acknowledged with 200.
const (
	WebhookProcessed = "processed"
	WebhookIgnored   = "ignored"
	WebhookDuplicate = "duplicate"
)

type WebhookResult struct {
	Outcome    string `json:"outcome"`
	EventType  string `json:"event_type,omitempty"`
	DeliveryID string `json:"delivery_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
