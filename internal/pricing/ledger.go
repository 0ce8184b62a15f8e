package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Cost is a single named cost line attached to a quote.
type Cost struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Ledger is an ordered list of cost lines. Ordering is insertion order and
// duplicate descriptions are allowed; a line has no identity beyond its
// position. The zero value is an empty, ready-to-use ledger.
type Ledger struct {
	items []Cost
}

// NewLedger builds a ledger from existing lines, validating each one.
func NewLedger(costs []Cost) (*Ledger, error) {
	l := &Ledger{}
	for _, c := range costs {
		if err := l.Add(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add appends a cost line. Empty descriptions and non-positive amounts are
// rejected, mirroring the create-form guard upstream.
func (l *Ledger) Add(c Cost) error {
	if strings.TrimSpace(c.Description) == "" {
		return &ValidationError{Field: "additionalCosts.description", Message: "must not be empty"}
	}
	if !c.Amount.IsPositive() {
		return &ValidationError{Field: "additionalCosts.amount", Message: "must be a positive number"}
	}
	l.items = append(l.items, c)
	return nil
}

// Remove deletes the line at index. Out-of-bounds indexes are an error, never
// a silent no-op.
func (l *Ledger) Remove(index int) error {
	if index < 0 || index >= len(l.items) {
		return &ValidationError{Field: "additionalCosts", Message: "index out of range"}
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return nil
}

// List returns a copy of the lines in insertion order.
func (l *Ledger) List() []Cost {
	out := make([]Cost, len(l.items))
	copy(out, l.items)
	return out
}

// Len reports the number of lines.
func (l *Ledger) Len() int { return len(l.items) }

// Total sums all line amounts.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range l.items {
		total = total.Add(c.Amount)
	}
	return total
}
