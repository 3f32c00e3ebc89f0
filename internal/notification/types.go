package notification

import (
	"time"

	"github.com/bihar-gov/sevalink/internal/shared/types"
)

// Channel is the delivery channel for a notification
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Status is the delivery status of a notification
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Notification is one outbound message tied to a complaint
type Notification struct {
	ID          types.ID   `json:"id"`
	ComplaintID string     `json:"complaintId"`
	Channel     Channel    `json:"channel"`
	Recipient   string     `json:"recipient"`
	Subject     string     `json:"subject,omitempty"`
	Body        string     `json:"body"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retryCount"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Stats summarizes dispatch outcomes from the persisted log
type Stats struct {
	Total       int            `json:"total"`
	Sent        int            `json:"sent"`
	Failed      int            `json:"failed"`
	Pending     int            `json:"pending"`
	ByChannel   map[string]int `json:"byChannel"`
	SuccessRate float64        `json:"successRate"`
}
