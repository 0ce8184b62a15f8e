package quote

import (
	"sort"
	"time"

	"github.com/Dealgrid/api-quotes/internal/pricing"
	"github.com/shopspring/decimal"
)

type costRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// QuoteRequest is the editable draft of a quote as submitted by the client.
type QuoteRequest struct {
	Name                    string          `json:"name"`
	BaseMinimumPrice        decimal.Decimal `json:"baseMinimumPrice"`
	TargetMarkupPercent     decimal.Decimal `json:"targetMarkupPercent"`
	FinalOfferPrice         decimal.Decimal `json:"finalOfferPrice"`
	OverallDiscountPercent  decimal.Decimal `json:"overallDiscountPercent"`
	UpfrontPaymentPercent   decimal.Decimal `json:"upfrontPaymentPercent"`
	UpfrontPaymentDueDays   int             `json:"upfrontPaymentDueDays"`
	InstallmentCount        int             `json:"installmentCount"`
	InstallmentIntervalDays int             `json:"installmentIntervalDays"`
	AgreementDate           string          `json:"agreementDate"` // "2006-01-02"; empty means today
	AdditionalCosts         []costRequest   `json:"additionalCosts"`
}

// toInput builds the calculation input, validating cost lines as they are
// added to the ledger.
func (r QuoteRequest) toInput() (pricing.Input, error) {
	ledger := &pricing.Ledger{}
	for _, c := range r.AdditionalCosts {
		if err := ledger.Add(pricing.Cost{Description: c.Description, Amount: c.Amount}); err != nil {
			return pricing.Input{}, err
		}
	}
	return pricing.Input{
		Name:                    r.Name,
		BaseMinimumPrice:        r.BaseMinimumPrice,
		TargetMarkupPercent:     r.TargetMarkupPercent,
		FinalOfferPrice:         r.FinalOfferPrice,
		OverallDiscountPercent:  r.OverallDiscountPercent,
		UpfrontPaymentPercent:   r.UpfrontPaymentPercent,
		UpfrontPaymentDueDays:   r.UpfrontPaymentDueDays,
		InstallmentCount:        r.InstallmentCount,
		InstallmentIntervalDays: r.InstallmentIntervalDays,
		AdditionalCosts:         ledger,
	}, nil
}

// agreementDate parses the request date, defaulting to today.
func (r QuoteRequest) agreementDate() (time.Time, error) {
	if r.AgreementDate == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", r.AgreementDate)
}

// costModels converts request lines into rows, numbering positions.
func (r QuoteRequest) costModels() []AdditionalCost {
	out := make([]AdditionalCost, 0, len(r.AdditionalCosts))
	for i, c := range r.AdditionalCosts {
		out = append(out, AdditionalCost{
			Position:    i,
			Description: c.Description,
			Amount:      c.Amount,
		})
	}
	return out
}

// draftFromQuote maps a persisted quote's editable fields back into a
// request, for loading an existing quote into the edit form.
func draftFromQuote(q *PriceQuote) QuoteRequest {
	costs := append([]AdditionalCost(nil), q.AdditionalCosts...)
	sort.SliceStable(costs, func(i, j int) bool { return costs[i].Position < costs[j].Position })
	reqCosts := make([]costRequest, 0, len(costs))
	for _, c := range costs {
		reqCosts = append(reqCosts, costRequest{Description: c.Description, Amount: c.Amount})
	}
	return QuoteRequest{
		Name:                    q.Name,
		BaseMinimumPrice:        q.BaseMinimumPrice,
		TargetMarkupPercent:     q.TargetMarkupPercent,
		FinalOfferPrice:         q.FinalOfferPrice,
		OverallDiscountPercent:  q.OverallDiscountPercent,
		UpfrontPaymentPercent:   q.UpfrontPaymentPercent,
		UpfrontPaymentDueDays:   q.UpfrontPaymentDueDays,
		InstallmentCount:        q.InstallmentCount,
		InstallmentIntervalDays: q.InstallmentIntervalDays,
		AgreementDate:           q.AgreementDate.Format("2006-01-02"),
		AdditionalCosts:         reqCosts,
	}
}

// scheduleEntryDTO mirrors a generated entry in preview responses.
type scheduleEntryDTO struct {
	EntryType   string          `json:"entryType"`
	DueDate     string          `json:"dueDate"`
	AmountDue   decimal.Decimal `json:"amountDue"`
	Description string          `json:"description"`
}

// CalculationResponse is the preview payload: every derived field plus the
// schedule, nothing persisted.
type CalculationResponse struct {
	TotalDirectCost        decimal.Decimal     `json:"totalDirectCost"`
	TargetPrice            decimal.Decimal     `json:"targetPrice"`
	FullTargetPrice        decimal.Decimal     `json:"fullTargetPrice"`
	DiscountedOfferPrice   decimal.Decimal     `json:"discountedOfferPrice"`
	EffectiveMarkupPercent *decimal.Decimal    `json:"effectiveMarkupPercent"`
	EscalationStatus       string              `json:"escalationStatus"`
	EscalationDetails      string              `json:"escalationDetails"`
	InvoiceSchedule        []scheduleEntryDTO  `json:"invoiceSchedule"`
}

func toCalculationResponse(res pricing.CalculationResult) CalculationResponse {
	entries := make([]scheduleEntryDTO, 0, len(res.InvoiceSchedule))
	for _, e := range res.InvoiceSchedule {
		entries = append(entries, scheduleEntryDTO{
			EntryType:   string(e.Type),
			DueDate:     e.DueDate.Format("2006-01-02"),
			AmountDue:   e.AmountDue,
			Description: e.Description,
		})
	}
	return CalculationResponse{
		TotalDirectCost:        res.TotalDirectCost,
		TargetPrice:            res.TargetPrice,
		FullTargetPrice:        res.FullTargetPrice,
		DiscountedOfferPrice:   res.DiscountedOfferPrice,
		EffectiveMarkupPercent: res.EffectiveMarkupPercent,
		EscalationStatus:       string(res.EscalationStatus),
		EscalationDetails:      res.EscalationDetails,
		InvoiceSchedule:        entries,
	}
}
