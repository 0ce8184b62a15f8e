package comment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Dealgrid/api-quotes/internal/auth"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler wires DB and repository.
type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

// CreateCommentRequest is the POST body for a new comment.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// Create handles POST /deals/{id}/comments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	userID, _ := auth.UserFromContext(r.Context())
	if userID == 0 {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	c := Comment{
		Text:   req.Text,
		DealID: uint(dealID),
		UserID: userID,
	}
	if err := h.Repository.Create(h.DB, &c); err != nil {
		http.Error(w, "could not save comment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toDTO(c))
}

// ListByDeal handles GET /deals/{id}/comments.
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return
	}

	list, err := h.Repository.ListByDeal(h.DB, uint(dealID))
	if err != nil {
		http.Error(w, "could not list comments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDTOs(list))
}

// Get handles GET /comments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	c, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "comment not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDTO(*c))
}

// Update handles PUT /comments/{id}; authors can edit their own text.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	c, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "comment not found", http.StatusNotFound)
		return
	}

	userID, isAdmin := auth.UserFromContext(r.Context())
	if c.System || (!isAdmin && c.UserID != userID) {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.Repository.UpdateText(h.DB, uint(id), req.Text); err != nil {
		http.Error(w, "could not update comment", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /comments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	c, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "comment not found", http.StatusNotFound)
		return
	}

	userID, isAdmin := auth.UserFromContext(r.Context())
	if !isAdmin && !c.System && c.UserID != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	if err := h.Repository.Delete(h.DB, uint(id)); err != nil {
		http.Error(w, "could not delete comment", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostSystem records a system-authored history entry on a deal. Used by the
// quote workflow; not routed directly.
func PostSystem(db *gorm.DB, dealID uint, text string) error {
	return NewRepository().Create(db, &Comment{
		Text:   text,
		DealID: dealID,
		System: true,
	})
}
