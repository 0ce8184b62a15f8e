package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func ledgerWith(t *testing.T, costs ...Cost) *Ledger {
	t.Helper()
	l, err := NewLedger(costs)
	if err != nil {
		t.Fatalf("build ledger: %v", err)
	}
	return l
}

func baseInput(t *testing.T) Input {
	return Input{
		Name:                   "Q1 renewal",
		BaseMinimumPrice:       d("5000"),
		TargetMarkupPercent:    d("20"),
		FinalOfferPrice:        d("6000"),
		OverallDiscountPercent: d("5"),
		AdditionalCosts:        ledgerWith(t, Cost{Description: "Travel", Amount: d("100")}),
	}
}

func TestCalculateReferenceScenario(t *testing.T) {
	res, err := Calculate(baseInput(t), DefaultConfig())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"totalDirectCost", res.TotalDirectCost, "5100"},
		{"targetPrice", res.TargetPrice, "6000"},
		{"fullTargetPrice", res.FullTargetPrice, "6100"},
		{"discountedOfferPrice", res.DiscountedOfferPrice, "5700"},
	}
	for _, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if res.EffectiveMarkupPercent == nil || !res.EffectiveMarkupPercent.Equal(d("20")) {
		t.Errorf("effectiveMarkup = %v, want 20", res.EffectiveMarkupPercent)
	}
	if res.EscalationStatus != EscalationOK {
		t.Errorf("escalation = %s, want ok", res.EscalationStatus)
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	in := baseInput(t)
	first, err := Calculate(in, DefaultConfig())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := Calculate(in, DefaultConfig())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !first.TotalDirectCost.Equal(second.TotalDirectCost) ||
		!first.DiscountedOfferPrice.Equal(second.DiscountedOfferPrice) ||
		first.EscalationStatus != second.EscalationStatus {
		t.Fatalf("results diverge: %+v vs %+v", first, second)
	}
}

func TestCalculateZeroFloorHasNoMarkup(t *testing.T) {
	in := baseInput(t)
	in.BaseMinimumPrice = decimal.Zero
	res, err := Calculate(in, DefaultConfig())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.EffectiveMarkupPercent != nil {
		t.Fatalf("effectiveMarkup = %s, want nil for MP=0", res.EffectiveMarkupPercent)
	}
	if res.EscalationStatus != EscalationOK {
		t.Fatalf("escalation = %s, want ok", res.EscalationStatus)
	}
}

func TestEscalationBoundaries(t *testing.T) {
	cases := []struct {
		name string
		fop  string
		want EscalationStatus
	}{
		{"at floor", "5000", EscalationOK},
		{"above floor", "5000.01", EscalationOK},
		{"cent below floor", "4999.99", EscalationWarning},
		{"at band floor", "4750", EscalationWarning},
		{"below band", "4749.99", EscalationBlocked},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := baseInput(t)
			in.FinalOfferPrice = d(c.fop)
			res, err := Calculate(in, DefaultConfig())
			if err != nil {
				t.Fatalf("calculate: %v", err)
			}
			if res.EscalationStatus != c.want {
				t.Fatalf("fop=%s escalation = %s, want %s", c.fop, res.EscalationStatus, c.want)
			}
			if c.want != EscalationOK && res.EscalationDetails == "" {
				t.Fatal("expected escalation details for a flagged offer")
			}
		})
	}
}

func TestDiscountIsMonotonic(t *testing.T) {
	in := baseInput(t)
	prev := decimal.New(1<<40, 0)
	for _, pct := range []string{"0", "1", "5", "33.33", "50", "99.99", "100"} {
		in.OverallDiscountPercent = d(pct)
		res, err := Calculate(in, DefaultConfig())
		if err != nil {
			t.Fatalf("discount %s: %v", pct, err)
		}
		if res.DiscountedOfferPrice.GreaterThan(prev) {
			t.Fatalf("discount %s raised the offer price: %s > %s", pct, res.DiscountedOfferPrice, prev)
		}
		prev = res.DiscountedOfferPrice
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"negative floor", func(in *Input) { in.BaseMinimumPrice = d("-1") }, "baseMinimumPrice"},
		{"negative markup", func(in *Input) { in.TargetMarkupPercent = d("-5") }, "targetMarkupPercent"},
		{"negative offer", func(in *Input) { in.FinalOfferPrice = d("-0.01") }, "finalOfferPrice"},
		{"discount above 100", func(in *Input) { in.OverallDiscountPercent = d("100.01") }, "overallDiscountPercent"},
		{"negative discount", func(in *Input) { in.OverallDiscountPercent = d("-1") }, "overallDiscountPercent"},
		{"upfront above 100", func(in *Input) { in.UpfrontPaymentPercent = d("101") }, "upfrontPaymentPercent"},
		{"negative due days", func(in *Input) { in.UpfrontPaymentDueDays = -1 }, "upfrontPaymentDueDays"},
		{"negative count", func(in *Input) { in.InstallmentCount = -1 }, "installmentCount"},
		{"negative interval", func(in *Input) { in.InstallmentIntervalDays = -1 }, "installmentIntervalDays"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := baseInput(t)
			c.mutate(&in)
			_, err := Calculate(in, DefaultConfig())
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != c.field {
				t.Fatalf("field = %s, want %s", verr.Field, c.field)
			}
		})
	}
}

func TestCalculateRejectsBadConfig(t *testing.T) {
	_, err := Calculate(baseInput(t), Config{WarningBandPercent: d("-1")})
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
