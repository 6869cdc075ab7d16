package models

import (
	"github.com/fatflowers/memberhub/pkg/types"
	"time"
)

// Account is the billing-relevant slice of a member account. The primary
// key is the billing provider's app_user_id, so webhook events address
// rows directly. Only the webhook pipeline mutates these columns, always
// through field-level partial updates.
type Account struct {
	ID     string              `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Status types.AccountStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// SubscriptionID is the provider's subscription reference; nil when
	// the account has never purchased or its subscription moved away.
	SubscriptionID  *string    `gorm:"column:subscription_id;type:varchar(128)" json:"subscription_id"`
	ProductID       *string    `gorm:"column:product_id;type:varchar(128)" json:"product_id"`
	LastPaymentDate *time.Time `gorm:"column:last_payment_date;default:null" json:"last_payment_date"`
	// SubscriptionExpiresDate tracks the provider-reported expiration.
	SubscriptionExpiresDate *time.Time `gorm:"column:subscription_expires_date;default:null" json:"subscription_expires_date"`
	// GracePeriodExpiresDate is set by BILLING_ISSUE events.
	GracePeriodExpiresDate *time.Time `gorm:"column:grace_period_expires_date;default:null" json:"grace_period_expires_date"`
	// AutoResumeDate is set by SUBSCRIPTION_PAUSED events.
	AutoResumeDate *time.Time `gorm:"column:auto_resume_date;default:null" json:"auto_resume_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
