// Package billing handles the payment-gateway webhook: it verifies the
// payment against the gateway, maps the paid amount to a plan tier, and
// activates the plan for the paying user.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree         Plan = "free"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// Tier cutoffs in the campaign currency.
const (
	starterPrice      = 49.90
	professionalPrice = 149.90
	enterprisePrice   = 499.90
)

// PlanForAmount maps a paid amount to the plan it buys.
func PlanForAmount(amount float64) Plan {
	switch {
	case amount >= enterprisePrice:
		return PlanEnterprise
	case amount >= professionalPrice:
		return PlanProfessional
	case amount >= starterPrice:
		return PlanStarter
	default:
		return PlanFree
	}
}

// Payment is the gateway's view of one payment.
type Payment struct {
	ID         string
	Status     string
	PayerEmail string
	Amount     float64
}

// Gateway looks up payments at the payment provider. Webhook payloads are
// never trusted directly; the payment is always re-read from the gateway.
type Gateway interface {
	Payment(ctx context.Context, id string) (*Payment, error)
}

// Activator applies an activated plan to a user.
type Activator func(ctx context.Context, email string, plan Plan) error

// Processor handles webhook notifications.
type Processor struct {
	gateway  Gateway
	activate Activator
}

// NewProcessor creates a webhook processor.
func NewProcessor(gateway Gateway, activate Activator) *Processor {
	return &Processor{gateway: gateway, activate: activate}
}

// webhookEvent is the gateway's notification shape. Different event versions
// put the payment id in different places.
type webhookEvent struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	ID    string `json:"id"`
	Data  struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (e *webhookEvent) paymentID() string {
	if e.Topic == "payment" || e.Type == "payment" {
		if e.Data.ID != "" {
			return e.Data.ID
		}
	}
	return e.ID
}

// Process handles one raw webhook payload. It returns a short status text for
// the webhook response. Only approved payments with a payer email activate a
// plan.
func (p *Processor) Process(ctx context.Context, payload []byte) (string, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return "", fmt.Errorf("decode webhook payload: %w", err)
	}
	paymentID := event.paymentID()
	if paymentID == "" {
		return "", fmt.Errorf("webhook payload has no payment id")
	}

	payment, err := p.gateway.Payment(ctx, paymentID)
	if err != nil {
		return "", fmt.Errorf("verify payment %s: %w", paymentID, err)
	}

	if payment.Status != "approved" || payment.PayerEmail == "" {
		return fmt.Sprintf("payment received, status: %s", payment.Status), nil
	}

	plan := PlanForAmount(payment.Amount)
	if err := p.activate(ctx, payment.PayerEmail, plan); err != nil {
		return "", fmt.Errorf("activate plan for %s: %w", payment.PayerEmail, err)
	}
	return fmt.Sprintf("plan %q activated for %s", plan, payment.PayerEmail), nil
}

// HTTPGateway reads payments from the provider's REST API.
type HTTPGateway struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client
}

var _ Gateway = (*HTTPGateway)(nil)

// NewHTTPGateway creates a gateway client against baseURL.
func NewHTTPGateway(baseURL, accessToken string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL:     baseURL,
		AccessToken: accessToken,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Payment fetches one payment by id.
func (g *HTTPGateway) Payment(ctx context.Context, id string) (*Payment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.AccessToken)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch payment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("payment lookup returned %s: %s", resp.Status, string(body))
	}

	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Payer  struct {
			Email string `json:"email"`
		} `json:"payer"`
		TransactionAmount float64 `json:"transaction_amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	return &Payment{
		ID:         raw.ID,
		Status:     raw.Status,
		PayerEmail: raw.Payer.Email,
		Amount:     raw.TransactionAmount,
	}, nil
}
