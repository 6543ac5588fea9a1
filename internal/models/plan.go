package models

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidPlan is returned by Plan.Validate.
var ErrInvalidPlan = errors.New("invalid plan")

// Plan is a subscription plan as the backend and the pricing catalog describe it.
type Plan struct {
	ID            string   `json:"id,omitempty" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Price         float64  `json:"price" yaml:"price"`
	Features      []string `json:"features" yaml:"features"`
	Popular       bool     `json:"popular,omitempty" yaml:"popular"`
	PaymentPlanID string   `json:"paymentPlanId,omitempty" yaml:"payment_plan_id"`
}

// Validate checks the fields the pages depend on.
func (p Plan) Validate() error {
	if p.Name == "" {
		return errors.Wrap(ErrInvalidPlan, "missing name")
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return errors.Wrapf(ErrInvalidPlan, "plan %q: price %v", p.Name, p.Price)
	}
	return nil
}

// DisplayPrice renders the monthly price, e.g. "$29.99/month".
func (p Plan) DisplayPrice() string {
	return FormatPrice(p.Price) + "/month"
}

// FormatPrice renders an amount with two decimals and a dollar sign.
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// SubscriptionDetails is returned by GET /api/subscription-details/{id}.
type SubscriptionDetails struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	RenewalDate   string  `json:"renewalDate"`
	PaymentPlanID string  `json:"paymentPlanId"`
	Email         string  `json:"email"`
}

// BackendID is the identifier the backend expects for this plan: the payment
// provider plan when one is configured, otherwise the catalog id.
func (p Plan) BackendID() string {
	if p.PaymentPlanID != "" {
		return p.PaymentPlanID
	}
	return p.ID
}
