package marketplace

import (
	"math"
	"strconv"

	creditssvc "bluecarbon-backend/internal/application/credits"
	"bluecarbon-backend/internal/middleware"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type Handlers struct {
	Credits       *creditssvc.Service
	StripeCreator StripePaymentIntentCreator
}

// StripePaymentIntentCreator abstracts Stripe PaymentIntent creation for testability.
type StripePaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error)
}

type StripePaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// RealStripeCreator uses the Stripe Go SDK to create PaymentIntents.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &StripePaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// ListAvailable GET /api/v1/marketplace/credits — available credits, oldest vintage first.
func (h *Handlers) ListAvailable(c *fiber.Ctx) error {
	credits, err := h.Credits.ListAvailable(c.Context())
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Available credits retrieved", fiber.Map{"credits": credits}, fiber.Map{"count": len(credits)})
}

// PaymentIntentRequest body for checkout initiation.
type PaymentIntentRequest struct {
	CreditID string  `json:"credit_id"`
	Amount   float64 `json:"amount"`
}

// CreatePaymentIntent POST /api/v1/marketplace/payment-intent — creates the
// Stripe PaymentIntent for a checkout. Settlement happens separately via
// Purchase once payment is confirmed.
func (h *Handlers) CreatePaymentIntent(c *fiber.Ctx) error {
	var body PaymentIntentRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", fiber.StatusBadRequest, nil)
	}
	if body.CreditID == "" || body.Amount == 0 {
		return response.Error(c, "Missing required fields", fiber.StatusBadRequest, nil)
	}
	if _, err := uuid.Parse(body.CreditID); err != nil {
		return response.Error(c, "Invalid UUID format for credit_id", fiber.StatusBadRequest, nil)
	}
	if body.Amount <= 0 {
		return response.Error(c, "Amount must be a positive number", fiber.StatusBadRequest, nil)
	}

	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if h.StripeCreator == nil {
		return response.Error(c, "Stripe not configured", fiber.StatusInternalServerError, nil)
	}

	amountCents := int64(math.Round(body.Amount * 100))
	pi, err := h.StripeCreator.Create(amountCents, "usd", map[string]string{
		"credit_id": body.CreditID,
		"buyer_id":  actor.UserID,
		"amount":    strconv.FormatFloat(body.Amount, 'f', 2, 64),
	})
	if err != nil {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		return response.Error(c, err.Error(), code, nil)
	}

	return response.Success(c, "Payment intent created", fiber.Map{
		"payment_intent_id": pi.ID,
		"client_secret":     pi.ClientSecret,
	}, nil)
}

// Purchase POST /api/v1/marketplace/credits/:id/purchase — corporate settlement.
func (h *Handlers) Purchase(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	buyerID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	creditID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid credit ID", fiber.StatusBadRequest, nil)
	}

	credit, err := h.Credits.Purchase(c.Context(), creditID, buyerID)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Credit purchased successfully", fiber.Map{"credit": credit}, nil)
}

// Portfolio GET /api/v1/marketplace/portfolio — the caller's owned credits.
func (h *Handlers) Portfolio(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	ownerID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	credits, err := h.Credits.ListByOwner(c.Context(), ownerID)
	if err != nil {
		return response.FromError(c, err, apperr.HTTPStatus(err))
	}
	return response.Success(c, "Portfolio retrieved", fiber.Map{"credits": credits}, fiber.Map{"count": len(credits)})
}
