package models

// PaymentStatus mirrors the payment lifecycle reported by the payment provider.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// PaymentModel records a completed checkout.
type PaymentModel struct {
	Base
	UserID   string        `json:"userId"   gorm:"size:36;index;not null"`
	StripeID string        `json:"stripeId" gorm:"size:191;uniqueIndex;not null"`
	EventID  string        `json:"-"        gorm:"size:191"`
	Amount   int64         `json:"amount"`
	Currency string        `json:"currency" gorm:"size:8"`
	Status   PaymentStatus `json:"status"   gorm:"size:32;default:pending"`
}

func (PaymentModel) TableName() string { return "payments" }
