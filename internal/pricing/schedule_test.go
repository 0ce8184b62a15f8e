package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sumEntries(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.AmountDue)
	}
	return total
}

func TestGenerateUpfrontAndInstallments(t *testing.T) {
	entries, err := Generate(d("6000"), ScheduleParams{
		UpfrontPercent:          d("50"),
		UpfrontDueDays:          7,
		InstallmentCount:        2,
		InstallmentIntervalDays: 30,
	}, day("2024-01-01"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}

	upfront := entries[0]
	if upfront.Type != EntryUpfront || !upfront.AmountDue.Equal(d("3000")) || !upfront.DueDate.Equal(day("2024-01-08")) {
		t.Fatalf("upfront = %+v", upfront)
	}
	first := entries[1]
	if first.Type != EntryInstallment || !first.AmountDue.Equal(d("1500")) || !first.DueDate.Equal(day("2024-02-07")) {
		t.Fatalf("installment 1 = %+v", first)
	}
	second := entries[2]
	// 30 days past 2024-02-07 lands on 2024-03-08 (leap year).
	if second.Type != EntryInstallment || !second.AmountDue.Equal(d("1500")) || !second.DueDate.Equal(day("2024-03-08")) {
		t.Fatalf("installment 2 = %+v", second)
	}
	if !sumEntries(entries).Equal(d("6000")) {
		t.Fatalf("sum = %s, want 6000", sumEntries(entries))
	}
}

func TestGenerateSumInvariant(t *testing.T) {
	params := []ScheduleParams{
		{UpfrontPercent: d("30"), UpfrontDueDays: 5, InstallmentCount: 3, InstallmentIntervalDays: 30},
		{UpfrontPercent: d("33.33"), UpfrontDueDays: 0, InstallmentCount: 7, InstallmentIntervalDays: 15},
		{UpfrontPercent: d("0"), InstallmentCount: 3, InstallmentIntervalDays: 30},
		{UpfrontPercent: d("100"), UpfrontDueDays: 10},
		{UpfrontPercent: d("12.5"), UpfrontDueDays: 1, InstallmentCount: 1, InstallmentIntervalDays: 1},
	}
	offers := []string{"6000", "100", "0.03", "9999.99", "1234.56"}
	start := day("2024-06-15")
	for _, p := range params {
		for _, offer := range offers {
			entries, err := Generate(d(offer), p, start)
			if err != nil {
				t.Fatalf("generate offer=%s params=%+v: %v", offer, p, err)
			}
			if got := sumEntries(entries); !got.Equal(d(offer)) {
				t.Fatalf("offer=%s params=%+v sum=%s", offer, p, got)
			}
			for i := 1; i < len(entries); i++ {
				if entries[i].DueDate.Before(entries[i-1].DueDate) {
					t.Fatalf("entries out of order: %+v", entries)
				}
			}
		}
	}
}

func TestGenerateRoundingRemainderGoesLast(t *testing.T) {
	entries, err := Generate(d("100"), ScheduleParams{
		InstallmentCount:        3,
		InstallmentIntervalDays: 30,
	}, day("2024-01-01"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if !entries[0].AmountDue.Equal(d("33.33")) || !entries[1].AmountDue.Equal(d("33.33")) || !entries[2].AmountDue.Equal(d("33.34")) {
		t.Fatalf("amounts = %s %s %s", entries[0].AmountDue, entries[1].AmountDue, entries[2].AmountDue)
	}
}

func TestGenerateFullUpfrontSkipsInstallments(t *testing.T) {
	entries, err := Generate(d("6000"), ScheduleParams{
		UpfrontPercent:   d("100"),
		UpfrontDueDays:   7,
		InstallmentCount: 3,
	}, day("2024-01-01"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != EntryUpfront {
		t.Fatalf("entries = %+v, want single upfront", entries)
	}
	if !entries[0].AmountDue.Equal(d("6000")) {
		t.Fatalf("amount = %s, want 6000", entries[0].AmountDue)
	}
}

func TestGenerateZeroOfferIsEmpty(t *testing.T) {
	entries, err := Generate(decimal.Zero, ScheduleParams{UpfrontPercent: d("50"), InstallmentCount: 2}, day("2024-01-01"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want none", entries)
	}
}

func TestGenerateLeftoverWithoutInstallments(t *testing.T) {
	entries, err := Generate(d("6000"), ScheduleParams{
		UpfrontPercent: d("40"),
		UpfrontDueDays: 7,
	}, day("2024-01-01"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want upfront plus lump remainder", len(entries))
	}
	lump := entries[1]
	if lump.Type != EntryInstallment || !lump.AmountDue.Equal(d("3600")) || !lump.DueDate.Equal(day("2024-01-08")) {
		t.Fatalf("lump = %+v", lump)
	}
}

func TestGenerateRejectsInvalidParams(t *testing.T) {
	if _, err := Generate(d("-1"), ScheduleParams{}, day("2024-01-01")); err == nil {
		t.Fatal("negative offer must fail")
	}
	if _, err := Generate(d("100"), ScheduleParams{UpfrontPercent: d("101")}, day("2024-01-01")); err == nil {
		t.Fatal("upfront above 100 must fail")
	}
	if _, err := Generate(d("100"), ScheduleParams{InstallmentCount: -1}, day("2024-01-01")); err == nil {
		t.Fatal("negative installment count must fail")
	}
}
