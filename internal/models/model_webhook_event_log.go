package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEventLog is the durable dedupe and audit record for webhook
// deliveries. EventID carries a unique index: the atomic insert on it is
// what makes redelivery and concurrent delivery of the same event safe.
// A row with Success=true means the event has been applied and must
// never be applied again. Success=false with a Result is a failed
// attempt the provider may retry; Success=false with a null Result is a
// claim held by an in-flight delivery.
type WebhookEventLog struct {
	ID        string  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventID   string  `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex" json:"event_id"`
	EventType string  `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	AccountID *string `gorm:"column:account_id;type:varchar(64);index" json:"account_id"`
	Success   bool    `gorm:"column:success;not null" json:"success"`
	// Payload is the provider event verbatim.
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	// Result records the processing outcome (error message on failure).
	Result     *datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	ReceivedAt time.Time       `gorm:"column:received_at;not null" json:"received_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (WebhookEventLog) TableName() string {
	return "webhook_event_log"
}
