package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EscalationStatus flags quotes priced at or below the pricing floor for
// managerial review.
type EscalationStatus string

const (
	EscalationOK      EscalationStatus = "ok"
	EscalationWarning EscalationStatus = "warning"
	EscalationBlocked EscalationStatus = "blocked"
)

var hundred = decimal.NewFromInt(100)

// Config carries the escalation policy. The warning band is the width, as a
// percentage of the base minimum price, of the range below the floor that
// yields a warning; offers below the band are blocked.
type Config struct {
	WarningBandPercent decimal.Decimal
}

// DefaultConfig is the policy used when the deployment does not override it.
func DefaultConfig() Config {
	return Config{WarningBandPercent: decimal.NewFromInt(5)}
}

func (c Config) validate() error {
	if c.WarningBandPercent.IsNegative() || c.WarningBandPercent.GreaterThan(hundred) {
		return &ConfigurationError{Message: "warning band percent must be within [0,100]"}
	}
	return nil
}

// Input is the mutable draft of a price quote. Percentages are plain numbers:
// 20 means 20%, not 0.2.
type Input struct {
	Name                    string
	BaseMinimumPrice        decimal.Decimal // MP, the pricing floor
	TargetMarkupPercent     decimal.Decimal
	FinalOfferPrice         decimal.Decimal // FOP, independently set by the negotiator
	OverallDiscountPercent  decimal.Decimal
	UpfrontPaymentPercent   decimal.Decimal
	UpfrontPaymentDueDays   int
	InstallmentCount        int
	InstallmentIntervalDays int
	AdditionalCosts         *Ledger
}

// Result holds every derived monetary field of a quote.
type Result struct {
	TotalDirectCost        decimal.Decimal
	TargetPrice            decimal.Decimal
	FullTargetPrice        decimal.Decimal
	DiscountedOfferPrice   decimal.Decimal
	EffectiveMarkupPercent *decimal.Decimal // nil when MP is zero
	EscalationStatus       EscalationStatus
	EscalationDetails      string
}

// CalculationResult is the full engine output: pricing plus the derived
// invoice schedule.
type CalculationResult struct {
	Result
	InvoiceSchedule []Entry
}

func (in Input) validate() error {
	if in.BaseMinimumPrice.IsNegative() {
		return &ValidationError{Field: "baseMinimumPrice", Message: "must not be negative"}
	}
	if in.TargetMarkupPercent.IsNegative() {
		return &ValidationError{Field: "targetMarkupPercent", Message: "must not be negative"}
	}
	if in.FinalOfferPrice.IsNegative() {
		return &ValidationError{Field: "finalOfferPrice", Message: "must not be negative"}
	}
	if in.OverallDiscountPercent.IsNegative() || in.OverallDiscountPercent.GreaterThan(hundred) {
		return &ValidationError{Field: "overallDiscountPercent", Message: "must be within [0,100]"}
	}
	if in.UpfrontPaymentPercent.IsNegative() || in.UpfrontPaymentPercent.GreaterThan(hundred) {
		return &ValidationError{Field: "upfrontPaymentPercent", Message: "must be within [0,100]"}
	}
	if in.UpfrontPaymentDueDays < 0 {
		return &ValidationError{Field: "upfrontPaymentDueDays", Message: "must not be negative"}
	}
	if in.InstallmentCount < 0 {
		return &ValidationError{Field: "installmentCount", Message: "must not be negative"}
	}
	if in.InstallmentIntervalDays < 0 {
		return &ValidationError{Field: "installmentIntervalDays", Message: "must not be negative"}
	}
	return nil
}

// Calculate derives every monetary field from the draft. Pure: two calls with
// the same input return the same result, and invalid input aborts the whole
// calculation instead of clamping.
func Calculate(in Input, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	costs := decimal.Zero
	if in.AdditionalCosts != nil {
		costs = in.AdditionalCosts.Total()
	}

	mp := in.BaseMinimumPrice
	fop := in.FinalOfferPrice

	totalDirect := mp.Add(costs)
	target := mp.Mul(decimal.NewFromInt(1).Add(in.TargetMarkupPercent.Div(hundred))).Round(2)
	fullTarget := target.Add(costs)
	discounted := fop.Mul(decimal.NewFromInt(1).Sub(in.OverallDiscountPercent.Div(hundred))).Round(2)

	var effective *decimal.Decimal
	if mp.IsPositive() {
		m := fop.Sub(mp).Div(mp).Mul(hundred).Round(2)
		effective = &m
	}

	status, details := escalate(mp, fop, cfg)

	return Result{
		TotalDirectCost:        totalDirect.Round(2),
		TargetPrice:            target,
		FullTargetPrice:        fullTarget.Round(2),
		DiscountedOfferPrice:   discounted,
		EffectiveMarkupPercent: effective,
		EscalationStatus:       status,
		EscalationDetails:      details,
	}, nil
}

// escalate classifies the offer against the floor. FOP at or above MP is
// clean; inside the warning band it needs review; below the band it is
// blocked until a manager signs off.
func escalate(mp, fop decimal.Decimal, cfg Config) (EscalationStatus, string) {
	if fop.GreaterThanOrEqual(mp) {
		return EscalationOK, ""
	}
	shortfall := mp.Sub(fop)
	bandFloor := mp.Mul(decimal.NewFromInt(1).Sub(cfg.WarningBandPercent.Div(hundred)))
	if fop.GreaterThanOrEqual(bandFloor) {
		return EscalationWarning, fmt.Sprintf("offer is %s below the base minimum price", shortfall.StringFixed(2))
	}
	return EscalationBlocked, fmt.Sprintf("offer is %s below the base minimum price, outside the %s%% review band", shortfall.StringFixed(2), cfg.WarningBandPercent.String())
}

// CalculatePriceQuote is the engine boundary: pricing plus the invoice
// schedule derived from the discounted offer price.
func CalculatePriceQuote(in Input, agreementDate time.Time, cfg Config) (CalculationResult, error) {
	res, err := Calculate(in, cfg)
	if err != nil {
		return CalculationResult{}, err
	}
	entries, err := Generate(res.DiscountedOfferPrice, ScheduleParams{
		UpfrontPercent:          in.UpfrontPaymentPercent,
		UpfrontDueDays:          in.UpfrontPaymentDueDays,
		InstallmentCount:        in.InstallmentCount,
		InstallmentIntervalDays: in.InstallmentIntervalDays,
	}, agreementDate)
	if err != nil {
		return CalculationResult{}, err
	}
	return CalculationResult{Result: res, InvoiceSchedule: entries}, nil
}
