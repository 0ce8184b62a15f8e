package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/Dealgrid/api-quotes/internal/auth"
	"github.com/Dealgrid/api-quotes/internal/comment"
	"github.com/Dealgrid/api-quotes/internal/installment"
	"github.com/Dealgrid/api-quotes/internal/notification"
	"github.com/Dealgrid/api-quotes/internal/pricing"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Handler manages quote routes.
type Handler struct {
	Repo         *Repository
	Installments *installment.Repository
	Cfg          pricing.Config
	Notifier     *notification.Notifier
}

func NewHandler(db *gorm.DB, cfg pricing.Config, notifier *notification.Notifier) *Handler {
	return &Handler{
		Repo:         NewRepository(db),
		Installments: installment.NewRepository(db),
		Cfg:          cfg,
		Notifier:     notifier,
	}
}

// writeCalcError maps engine failures onto HTTP statuses: bad input is the
// caller's fault, bad policy configuration is ours.
func writeCalcError(w http.ResponseWriter, err error) {
	var verr *pricing.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	var cerr *pricing.ConfigurationError
	if errors.As(err, &cerr) {
		http.Error(w, cerr.Error(), http.StatusInternalServerError)
		return
	}
	http.Error(w, "calculation failed", http.StatusInternalServerError)
}

// Preview handles POST /quotes/preview: run the engine, persist nothing.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeCalcError(w, err)
		return
	}
	agreementDate, err := req.agreementDate()
	if err != nil {
		http.Error(w, "agreementDate: expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	res, err := pricing.CalculatePriceQuote(input, agreementDate, h.Cfg)
	if err != nil {
		writeCalcError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCalculationResponse(res))
}

// Create handles POST /deals/{id}/quotes: calculate, mint the next version
// for the deal, and persist quote plus schedule in one transaction.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeCalcError(w, err)
		return
	}
	agreementDate, err := req.agreementDate()
	if err != nil {
		http.Error(w, "agreementDate: expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	res, err := pricing.CalculatePriceQuote(input, agreementDate, h.Cfg)
	if err != nil {
		writeCalcError(w, err)
		return
	}

	userID, _ := auth.UserFromContext(r.Context())
	if userID == 0 {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	tx := h.Repo.DB.Begin()
	if tx.Error != nil {
		http.Error(w, "could not start transaction", http.StatusInternalServerError)
		return
	}
	txRepo := h.Repo.WithDB(tx)
	version, err := txRepo.NextVersionForDeal(uint(dealID))
	if err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not allocate version", http.StatusInternalServerError)
		return
	}

	q := PriceQuote{
		DealID:        uint(dealID),
		UserID:        userID,
		VersionNumber: version,
		Status:        StatusDraft,
		Name:          req.Name,

		BaseMinimumPrice:        req.BaseMinimumPrice,
		TargetMarkupPercent:     req.TargetMarkupPercent,
		FinalOfferPrice:         req.FinalOfferPrice,
		OverallDiscountPercent:  req.OverallDiscountPercent,
		UpfrontPaymentPercent:   req.UpfrontPaymentPercent,
		UpfrontPaymentDueDays:   req.UpfrontPaymentDueDays,
		InstallmentCount:        req.InstallmentCount,
		InstallmentIntervalDays: req.InstallmentIntervalDays,
		AgreementDate:           agreementDate,
		AdditionalCosts:         req.costModels(),
	}
	applyResult(&q, res)

	if err := txRepo.Create(&q); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not create quote", http.StatusInternalServerError)
		return
	}

	entries := installment.FromCalculation(q.ID, res.InvoiceSchedule)
	if err := h.Installments.WithDB(tx).CreateInBatch(entries); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not create schedule entries", http.StatusInternalServerError)
		return
	}

	// The persisted schedule must total the offer price exactly.
	total, err := h.Installments.WithDB(tx).SumAmountByQuoteID(q.ID)
	if err != nil || (len(entries) > 0 && !total.Equal(res.DiscountedOfferPrice)) {
		_ = tx.Rollback()
		http.Error(w, "schedule total mismatch", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}

	h.afterCalculation(&q, res)

	full, err := h.Repo.FindByID(q.ID)
	if err != nil {
		http.Error(w, "could not load quote", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(full)
}

// Update handles PUT /deals/{id}/quotes/{qid}: recalculate and update in
// place. The version number never changes on edit.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}
	qid, err := strconv.Atoi(mux.Vars(r)["qid"])
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	q, err := h.Repo.FindByID(uint(qid))
	if err != nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}
	if q.DealID != uint(dealID) {
		http.Error(w, "quote does not belong to this deal", http.StatusNotFound)
		return
	}

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeCalcError(w, err)
		return
	}
	agreementDate, err := req.agreementDate()
	if err != nil {
		http.Error(w, "agreementDate: expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	res, err := pricing.CalculatePriceQuote(input, agreementDate, h.Cfg)
	if err != nil {
		writeCalcError(w, err)
		return
	}

	tx := h.Repo.DB.Begin()
	if tx.Error != nil {
		http.Error(w, "could not start transaction", http.StatusInternalServerError)
		return
	}

	txRepo := h.Repo.WithDB(tx)

	q.Name = req.Name
	q.BaseMinimumPrice = req.BaseMinimumPrice
	q.TargetMarkupPercent = req.TargetMarkupPercent
	q.FinalOfferPrice = req.FinalOfferPrice
	q.OverallDiscountPercent = req.OverallDiscountPercent
	q.UpfrontPaymentPercent = req.UpfrontPaymentPercent
	q.UpfrontPaymentDueDays = req.UpfrontPaymentDueDays
	q.InstallmentCount = req.InstallmentCount
	q.InstallmentIntervalDays = req.InstallmentIntervalDays
	q.AgreementDate = agreementDate
	applyResult(q, res)
	q.AdditionalCosts = nil
	q.ScheduleEntries = nil

	if err := txRepo.Save(q); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not update quote", http.StatusInternalServerError)
		return
	}

	// Replace cost lines and the whole schedule.
	if err := txRepo.DeleteCosts(q.ID); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not replace cost lines", http.StatusInternalServerError)
		return
	}
	costs := req.costModels()
	for i := range costs {
		costs[i].QuoteID = q.ID
	}
	if len(costs) > 0 {
		if err := tx.Create(&costs).Error; err != nil {
			_ = tx.Rollback()
			http.Error(w, "could not replace cost lines", http.StatusInternalServerError)
			return
		}
	}

	txInst := h.Installments.WithDB(tx)
	if err := txInst.DeleteByQuoteID(q.ID); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not replace schedule", http.StatusInternalServerError)
		return
	}
	if err := txInst.CreateInBatch(installment.FromCalculation(q.ID, res.InvoiceSchedule)); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not replace schedule", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}

	h.afterCalculation(q, res)

	full, err := h.Repo.FindByID(q.ID)
	if err != nil {
		http.Error(w, "could not load quote", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(full)
}

// List handles GET /deals/{id}/quotes with an optional status filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}

	status := r.URL.Query().Get("status")
	var list []PriceQuote
	if status != "" {
		list, err = h.Repo.ListByDealAndStatus(uint(dealID), status)
	} else {
		list, err = h.Repo.ListByDeal(uint(dealID))
	}
	if err != nil {
		http.Error(w, "could not list quotes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Get handles GET /deals/{id}/quotes/{qid}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	qid, err := strconv.Atoi(mux.Vars(r)["qid"])
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}

	q, err := h.Repo.FindByID(uint(qid))
	if err != nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(q)
}

// UpdateStatus handles PATCH /deals/{id}/quotes/{qid}/status. Accepting a
// quote retires every open sibling version.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	qid, err := strconv.Atoi(mux.Vars(r)["qid"])
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
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

	q, err := h.Repo.FindByID(uint(qid))
	if err != nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}

	tx := h.Repo.DB.Begin()
	if tx.Error != nil {
		http.Error(w, "could not start transaction", http.StatusInternalServerError)
		return
	}
	txRepo := h.Repo.WithDB(tx)
	if err := txRepo.UpdateStatus(q.ID, payload.Status); err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not update status", http.StatusInternalServerError)
		return
	}
	if payload.Status == StatusAccepted {
		if err := txRepo.MarkSupersededExcept(q.DealID, q.ID); err != nil {
			_ = tx.Rollback()
			http.Error(w, "could not supersede sibling quotes", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		_ = tx.Rollback()
		http.Error(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}

	if payload.Status == StatusAccepted {
		text := fmt.Sprintf("Quote v%d (%s) was accepted.", q.VersionNumber, q.Name)
		if err := comment.PostSystem(h.Repo.DB, q.DealID, text); err != nil {
			log.Printf("could not record acceptance comment: %v", err)
		}
	}

	updated, err := h.Repo.FindByID(q.ID)
	if err != nil {
		http.Error(w, "quote not found after update", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// Delete handles DELETE /deals/{id}/quotes/{qid}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	qid, err := strconv.Atoi(mux.Vars(r)["qid"])
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(uint(qid)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "quote not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not delete quote", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyResult copies derived fields onto the model.
func applyResult(q *PriceQuote, res pricing.CalculationResult) {
	q.TotalDirectCost = res.TotalDirectCost
	q.TargetPrice = res.TargetPrice
	q.FullTargetPrice = res.FullTargetPrice
	q.DiscountedOfferPrice = res.DiscountedOfferPrice
	if res.EffectiveMarkupPercent != nil {
		q.EffectiveMarkupPercent = decimal.NewNullDecimal(*res.EffectiveMarkupPercent)
	} else {
		q.EffectiveMarkupPercent = decimal.NullDecimal{}
	}
	q.EscalationStatus = string(res.EscalationStatus)
	q.EscalationDetails = res.EscalationDetails
}

// afterCalculation records the escalation trail: webhook alert plus a system
// comment on the deal when the offer is blocked.
func (h *Handler) afterCalculation(q *PriceQuote, res pricing.CalculationResult) {
	if res.EscalationStatus != pricing.EscalationBlocked {
		return
	}
	h.Notifier.QuoteEscalated(q.DealID, q.ID, q.FinalOfferPrice, q.BaseMinimumPrice, res.EscalationDetails)
	text := fmt.Sprintf("Quote v%d flagged for review: %s", q.VersionNumber, res.EscalationDetails)
	if err := comment.PostSystem(h.Repo.DB, q.DealID, text); err != nil {
		log.Printf("could not record escalation comment: %v", err)
	}
}
