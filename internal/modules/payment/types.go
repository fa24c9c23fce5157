package payment

import "errors"

var (
	errUnknownPrice     = errors.New("unknown price")
	errCheckoutDisabled = errors.New("payments are not configured")
)

type CheckoutDTO struct {
	PriceID string `json:"priceId" binding:"required"`
}

type checkoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// metadataUserID is the checkout metadata key that carries the paying user.
const metadataUserID = "userId"

// maxWebhookBytes matches the payload ceiling Stripe documents for webhook events.
const maxWebhookBytes = 65536
