package payment

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appcfg "github.com/logoforge/server/internal/config"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/pkg/metrics"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

type paymentStore interface {
	List(userID string, q pagination.Query) ([]models.PaymentModel, response.Pagination, error)
	Record(p *models.PaymentModel) (bool, error)
}

type Handler struct {
	svc      paymentStore
	checkout checkoutCreator
	cfg      appcfg.StripeConfig
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewHandler wires the payment endpoints. checkout may be nil, which disables checkout.
func NewHandler(svc paymentStore, checkout checkoutCreator, cfg appcfg.StripeConfig, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, checkout: checkout, cfg: cfg, metrics: m, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, idemMW gin.HandlerFunc) {
	g := rg.Group("/payments")
	g.POST("/webhook", h.webhook)

	checkout := []gin.HandlerFunc{authMW}
	if idemMW != nil {
		checkout = append(checkout, idemMW)
	}
	g.POST("/checkout", append(checkout, h.createCheckout)...)
	g.GET("", authMW, h.list)
}

func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.svc.List(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if items == nil {
		items = []models.PaymentModel{}
	}
	response.Paged(c, items, pag)
}

func (h *Handler) createCheckout(c *gin.Context) {
	if h.checkout == nil {
		response.ServiceUnavailable(c, errCheckoutDisabled.Error())
		return
	}
	var dto CheckoutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	priceID := strings.TrimSpace(dto.PriceID)
	if !priceAllowed(h.cfg, priceID) {
		response.BadRequest(c, errUnknownPrice.Error())
		return
	}

	sess, err := h.checkout.New(checkoutParams(h.cfg, middleware.CurrentUserID(c), middleware.CurrentEmail(c), priceID))
	if err != nil {
		_ = c.Error(err)
		response.Error(c, stripeStatus(err), "Failed to create checkout session")
		return
	}
	response.OK(c, checkoutResponse{SessionID: sess.ID, URL: sess.URL})
}

// webhook verifies the Stripe signature before looking at the payload.
func (h *Handler) webhook(c *gin.Context) {
	secret := strings.TrimSpace(h.cfg.WebhookSecret)
	if secret == "" {
		response.ServiceUnavailable(c, errCheckoutDisabled.Error())
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.metrics.RecordPayment("invalid_signature")
		h.log.Warn("rejected stripe webhook", zap.Error(err))
		response.BadRequest(c, "invalid signature")
		return
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		h.metrics.RecordPayment("ignored")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &sess) != nil {
		response.BadRequest(c, "malformed checkout session")
		return
	}
	p := paymentFromSession(&sess)
	p.EventID = event.ID
	if p.UserID == "" {
		h.metrics.RecordPayment("unattributed")
		h.log.Warn("checkout session without user", zap.String("session_id", sess.ID), zap.String("event_id", event.ID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	created, err := h.svc.Record(p)
	if err != nil {
		h.metrics.RecordPayment("error")
		response.InternalError(c, err)
		return
	}
	if created {
		h.metrics.RecordPayment("recorded")
		h.log.Info("payment recorded", zap.String("user_id", p.UserID), zap.String("stripe_id", p.StripeID), zap.Int64("amount", p.Amount))
	} else {
		h.metrics.RecordPayment("duplicate")
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func paymentFromSession(sess *stripe.CheckoutSession) *models.PaymentModel {
	userID := sess.Metadata[metadataUserID]
	if userID == "" {
		userID = sess.ClientReferenceID
	}
	stripeID := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		stripeID = sess.PaymentIntent.ID
	}
	return &models.PaymentModel{
		UserID:   userID,
		StripeID: stripeID,
		Amount:   sess.AmountTotal,
		Currency: string(sess.Currency),
		Status:   models.PaymentCompleted,
	}
}
