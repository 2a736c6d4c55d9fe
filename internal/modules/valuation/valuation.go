// Package valuation implements cash-flow based intrinsic value models.
package valuation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stocklab/stocklab/internal/domain"
)

// Model identifies a valuation model
type Model string

const (
	// ModelPerpetuity values a flat free cash flow forever: EV = FCF / r
	ModelPerpetuity Model = "perpetuity"
	// ModelGordonGrowth values a growing free cash flow: EV = FCF(1+g) / (r - g)
	ModelGordonGrowth Model = "gordon_growth"
)

// Inputs are the figures a valuation starts from. Rates are decimals (0.10 = 10%).
type Inputs struct {
	Company           string  `json:"company"`
	FreeCashFlow      float64 `json:"free_cash_flow" validate:"required"`
	DiscountRate      float64 `json:"discount_rate" validate:"gt=0,lt=1"`
	GrowthRate        float64 `json:"growth_rate" validate:"gte=-1,lt=1"`
	SharesOutstanding float64 `json:"shares_outstanding" validate:"gt=0"`
	SharePrice        float64 `json:"share_price" validate:"gt=0"`
}

// Result is the outcome of one model
type Result struct {
	Model           Model           `json:"model"`
	CashFlow        decimal.Decimal `json:"cash_flow"`
	EnterpriseValue decimal.Decimal `json:"enterprise_value"`
	ImpliedPrice    decimal.Decimal `json:"implied_price"`
	PotentialROI    decimal.Decimal `json:"potential_roi"`
}

// Valuation bundles both models for one company
type Valuation struct {
	Inputs       Inputs          `json:"inputs"`
	MarketCap    decimal.Decimal `json:"market_cap"`
	Perpetuity   Result          `json:"perpetuity"`
	GordonGrowth Result          `json:"gordon_growth"`
}

var validate = validator.New()

// Validate checks field ranges and that the discount rate exceeds the growth rate
func (in Inputs) Validate() error {
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domain.NewValidationError(fe.Field(), "failed %s check (value %v)", fe.Tag(), fe.Value())
		}
		return domain.NewValidationError("", "%v", err)
	}
	return nil
}

// Perpetuity values a constant free cash flow discounted forever
func Perpetuity(in Inputs) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	fcf := decimal.NewFromFloat(in.FreeCashFlow)
	ev := fcf.Div(decimal.NewFromFloat(in.DiscountRate))
	return finish(ModelPerpetuity, fcf, ev, in), nil
}

// GordonGrowth values a free cash flow growing at a constant rate.
// The discount rate must be strictly greater than the growth rate.
func GordonGrowth(in Inputs) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	if in.DiscountRate <= in.GrowthRate {
		return Result{}, domain.NewValidationError("DiscountRate",
			"must exceed growth rate (%v <= %v)", in.DiscountRate, in.GrowthRate)
	}

	r := decimal.NewFromFloat(in.DiscountRate)
	g := decimal.NewFromFloat(in.GrowthRate)
	cf1 := decimal.NewFromFloat(in.FreeCashFlow).Mul(decimal.NewFromInt(1).Add(g))
	ev := cf1.Div(r.Sub(g))
	return finish(ModelGordonGrowth, cf1, ev, in), nil
}

// Value runs both models
func Value(in Inputs) (*Valuation, error) {
	perp, err := Perpetuity(in)
	if err != nil {
		return nil, fmt.Errorf("perpetuity model: %w", err)
	}
	gg, err := GordonGrowth(in)
	if err != nil {
		return nil, fmt.Errorf("gordon growth model: %w", err)
	}

	return &Valuation{
		Inputs:       in,
		MarketCap:    decimal.NewFromFloat(in.SharesOutstanding).Mul(decimal.NewFromFloat(in.SharePrice)),
		Perpetuity:   perp,
		GordonGrowth: gg,
	}, nil
}

func finish(model Model, cashFlow, ev decimal.Decimal, in Inputs) Result {
	price := decimal.NewFromFloat(in.SharePrice)
	implied := ev.Div(decimal.NewFromFloat(in.SharesOutstanding))
	return Result{
		Model:           model,
		CashFlow:        cashFlow,
		EnterpriseValue: ev,
		ImpliedPrice:    implied,
		PotentialROI:    implied.Sub(price).Div(price),
	}
}
