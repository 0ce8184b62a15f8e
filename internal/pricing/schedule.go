package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType distinguishes the upfront payment from the installments that
// follow it.
type EntryType string

const (
	EntryUpfront     EntryType = "upfront"
	EntryInstallment EntryType = "installment"
)

// Entry is one dated payment obligation of a generated schedule.
type Entry struct {
	Type        EntryType
	DueDate     time.Time
	AmountDue   decimal.Decimal
	Description string
}

// ScheduleParams are the timing inputs of the schedule generator.
type ScheduleParams struct {
	UpfrontPercent          decimal.Decimal
	UpfrontDueDays          int
	InstallmentCount        int
	InstallmentIntervalDays int
}

func (p ScheduleParams) validate() error {
	if p.UpfrontPercent.IsNegative() || p.UpfrontPercent.GreaterThan(hundred) {
		return &ValidationError{Field: "upfrontPaymentPercent", Message: "must be within [0,100]"}
	}
	if p.UpfrontDueDays < 0 {
		return &ValidationError{Field: "upfrontPaymentDueDays", Message: "must not be negative"}
	}
	if p.InstallmentCount < 0 {
		return &ValidationError{Field: "installmentCount", Message: "must not be negative"}
	}
	if p.InstallmentIntervalDays < 0 {
		return &ValidationError{Field: "installmentIntervalDays", Message: "must not be negative"}
	}
	return nil
}

// Generate derives the payment schedule for an offer price: an optional
// upfront payment followed by equal installments. The last installment
// absorbs any rounding remainder so the entries always sum to the offer
// price exactly. Entries come out ordered by due date.
//
// When the installment count is zero and money remains after the upfront
// payment, the whole remainder is emitted as a single installment due on the
// upfront due date.
func Generate(offerPrice decimal.Decimal, p ScheduleParams, agreementDate time.Time) ([]Entry, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if offerPrice.IsNegative() {
		return nil, &ValidationError{Field: "offerPrice", Message: "must not be negative"}
	}
	if offerPrice.IsZero() {
		return nil, nil
	}

	offerPrice = offerPrice.Round(2)
	upfrontDue := agreementDate.AddDate(0, 0, p.UpfrontDueDays)

	var entries []Entry
	remaining := offerPrice
	if p.UpfrontPercent.IsPositive() {
		upfront := offerPrice.Mul(p.UpfrontPercent).Div(hundred).Round(2)
		remaining = offerPrice.Sub(upfront)
		entries = append(entries, Entry{
			Type:        EntryUpfront,
			DueDate:     upfrontDue,
			AmountDue:   upfront,
			Description: fmt.Sprintf("Upfront payment (%s%%)", p.UpfrontPercent.String()),
		})
	}

	if remaining.IsZero() {
		return entries, nil
	}

	count := p.InstallmentCount
	if count == 0 {
		// Leftover with no installments configured: one final lump payment.
		entries = append(entries, Entry{
			Type:        EntryInstallment,
			DueDate:     upfrontDue,
			AmountDue:   remaining,
			Description: "Final payment",
		})
		return entries, nil
	}

	per := remaining.Div(decimal.NewFromInt(int64(count))).Round(2)
	due := upfrontDue
	for i := 1; i <= count; i++ {
		due = due.AddDate(0, 0, p.InstallmentIntervalDays)
		amount := per
		if i == count {
			amount = remaining.Sub(per.Mul(decimal.NewFromInt(int64(count - 1))))
		}
		entries = append(entries, Entry{
			Type:        EntryInstallment,
			DueDate:     due,
			AmountDue:   amount,
			Description: fmt.Sprintf("Installment %d of %d", i, count),
		})
	}
	return entries, nil
}
