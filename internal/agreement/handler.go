package agreement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dealgrid/api-quotes/internal/quote"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Quotes     *quote.Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Quotes:     quote.NewRepository(db),
	}
}

type createRequest struct {
	QuoteID     uint             `json:"quoteId"`
	SignedAt    string           `json:"signedAt"`    // "2006-01-02"; empty means today
	SupplyStart string           `json:"supplyStart"` // "2006-01-02"
	SupplyEnd   string           `json:"supplyEnd"`   // "2006-01-02"
	Value       *decimal.Decimal `json:"value"`       // defaults to the quote's offer price
	DocumentURL string           `json:"documentUrl"`
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// Create handles POST /deals/{id}/agreements. The quote must belong to the
// deal and must already be accepted.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}

	q, err := h.Quotes.FindByID(req.QuoteID)
	if err != nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}
	if q.DealID != uint(dealID) {
		http.Error(w, "quote does not belong to this deal", http.StatusBadRequest)
		return
	}
	if q.Status != quote.StatusAccepted {
		http.Error(w, "quote is not accepted", http.StatusConflict)
		return
	}
	if existing, err := h.Repository.FindByQuoteID(h.DB, q.ID); err == nil && existing != nil {
		http.Error(w, "quote already has an agreement", http.StatusConflict)
		return
	}

	signedAt := time.Now().UTC()
	if req.SignedAt != "" {
		if signedAt, err = parseDay(req.SignedAt); err != nil {
			http.Error(w, "signedAt: expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	var supplyStart, supplyEnd time.Time
	if req.SupplyStart != "" {
		if supplyStart, err = parseDay(req.SupplyStart); err != nil {
			http.Error(w, "supplyStart: expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if req.SupplyEnd != "" {
		if supplyEnd, err = parseDay(req.SupplyEnd); err != nil {
			http.Error(w, "supplyEnd: expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if !supplyEnd.IsZero() && supplyEnd.Before(supplyStart) {
		http.Error(w, "supplyEnd precedes supplyStart", http.StatusBadRequest)
		return
	}

	value := q.DiscountedOfferPrice
	if req.Value != nil {
		if req.Value.IsNegative() {
			http.Error(w, "value must not be negative", http.StatusBadRequest)
			return
		}
		value = *req.Value
	}

	a := Agreement{
		DealID:      uint(dealID),
		QuoteID:     q.ID,
		UserID:      q.UserID,
		SignedAt:    signedAt,
		SupplyStart: supplyStart,
		SupplyEnd:   supplyEnd,
		Value:       value,
		Status:      StatusActive,
		DocumentURL: req.DocumentURL,
	}
	if err := h.Repository.Save(h.DB, &a); err != nil {
		http.Error(w, "could not create agreement", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(a)
}

// List handles GET /deals/{id}/agreements.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	list, err := h.Repository.ListByDeal(h.DB, uint(dealID))
	if err != nil {
		http.Error(w, "could not list agreements", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Get handles GET /agreements/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "agreement not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
}

// UpdateStatus handles PATCH /agreements/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if !validStatus(payload.Status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	a, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "agreement not found", http.StatusNotFound)
		return
	}
	a.Status = payload.Status
	if err := h.Repository.Update(h.DB, a); err != nil {
		http.Error(w, "could not update agreement", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
}

// Delete handles DELETE /agreements/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.Repository.Delete(h.DB, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "agreement not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not delete agreement", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
