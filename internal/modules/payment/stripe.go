package payment

import (
	"errors"
	"net/http"
	"strings"

	appcfg "github.com/logoforge/server/internal/config"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// checkoutCreator opens hosted checkout sessions.
type checkoutCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewCheckoutClient returns nil when no secret key is configured.
func NewCheckoutClient(cfg appcfg.StripeConfig) checkoutCreator {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil
	}
	return &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: key}
}

// checkoutParams keys the session by user id and, when known, prefills the customer email.
func checkoutParams(cfg appcfg.StripeConfig, userID, email, priceID string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(userID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if cfg.SuccessURL != "" {
		params.SuccessURL = stripe.String(cfg.SuccessURL)
	}
	if cfg.CancelURL != "" {
		params.CancelURL = stripe.String(cfg.CancelURL)
	}
	params.AddMetadata(metadataUserID, userID)
	return params
}

// priceAllowed accepts any non-empty price when no allow-list is configured.
func priceAllowed(cfg appcfg.StripeConfig, priceID string) bool {
	if priceID == "" {
		return false
	}
	if len(cfg.Prices) == 0 {
		return true
	}
	for _, p := range cfg.Prices {
		if p == priceID {
			return true
		}
	}
	return false
}

// stripeStatus is the status to surface for a Stripe API failure.
func stripeStatus(err error) int {
	var se *stripe.Error
	if errors.As(err, &se) && se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
