package notification

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Dealgrid/api-quotes/internal/utils"
	"github.com/shopspring/decimal"
)

// Notifier posts alert payloads to the configured webhook. With no URL set it
// degrades to a logged no-op so local setups work without a receiver.
type Notifier struct {
	URL    string
	Client *http.Client
}

// NewFromEnv reads ALERT_WEBHOOK_URL.
func NewFromEnv() *Notifier {
	return &Notifier{
		URL:    os.Getenv("ALERT_WEBHOOK_URL"),
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) post(payload map[string]any) {
	if n == nil || n.URL == "" {
		return
	}
	body, _ := json.Marshal(payload)
	resp, err := n.Client.Post(n.URL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("webhook post failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("webhook returned status %d", resp.StatusCode)
	}
}

// QuoteEscalated alerts managers that a quote was priced below the review
// band and is blocked pending sign-off.
func (n *Notifier) QuoteEscalated(dealID, quoteID uint, offer, floor decimal.Decimal, details string) {
	payload := map[string]any{
		"event":   "quote_escalated",
		"dealId":  dealID,
		"quoteId": quoteID,
		"offer":   utils.FormatCurrency(offer),
		"floor":   utils.FormatCurrency(floor),
		"message": details,
	}
	if floor.IsPositive() {
		shortfall := floor.Sub(offer).Div(floor).Mul(decimal.NewFromInt(100))
		payload["shortfall"] = utils.FormatPercentage(shortfall)
	}
	n.post(payload)
}

// DuplicateDeal alerts that a new deal was opened against a company that
// already has one.
func (n *Notifier) DuplicateDeal(company string, existingDealID uint) {
	n.post(map[string]any{
		"event":          "duplicate_deal",
		"company":        company,
		"existingDealId": existingDealID,
		"message":        "a deal already exists for this company",
	})
}
