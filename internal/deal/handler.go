package deal

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dealgrid/api-quotes/internal/auth"
	"github.com/Dealgrid/api-quotes/internal/fields"
	"github.com/Dealgrid/api-quotes/internal/notification"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Fields     *fields.Cache
	Notifier   *notification.Notifier
}

func NewHandler(db *gorm.DB, fieldCache *fields.Cache, notifier *notification.Notifier) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Fields:     fieldCache,
		Notifier:   notifier,
	}
}

type createDealRequest struct {
	Name           string         `json:"name"`
	CompanyName    string         `json:"companyName"`
	ContactName    string         `json:"contactName"`
	ContactEmail   string         `json:"contactEmail"`
	ContactPhone   string         `json:"contactPhone"`
	Region         string         `json:"region"`
	Status         string         `json:"status"`
	OrganizationID *uint          `json:"organizationId"`
	Attachments    []string       `json:"attachments"`
	CustomFields   map[string]any `json:"customFields"`
}

type updateDealRequest struct {
	Name           *string         `json:"name"`
	CompanyName    *string         `json:"companyName"`
	ContactName    *string         `json:"contactName"`
	ContactEmail   *string         `json:"contactEmail"`
	ContactPhone   *string         `json:"contactPhone"`
	Region         *string         `json:"region"`
	Status         *string         `json:"status"`
	OrganizationID *uint           `json:"organizationId"`
	Attachments    *[]string       `json:"attachments"`
	CustomFields   *map[string]any `json:"customFields"`
}

type addAttachmentsRequest struct {
	Attachments []string `json:"attachments"`
}

func (h *Handler) validateCustomFields(r *http.Request, raw map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	defs, err := h.Fields.Definitions(r.Context(), fields.EntityDeal)
	if err != nil {
		return err
	}
	_, err = fields.Validate(defs, raw)
	return err
}

func writeFieldError(w http.ResponseWriter, err error) bool {
	var ferr *fields.FieldError
	if errors.As(err, &ferr) {
		http.Error(w, ferr.Error(), http.StatusBadRequest)
		return true
	}
	return false
}

// Create handles POST /deals. A second open deal for the same company is
// allowed but flagged over the alert webhook.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	status := req.Status
	if status == "" {
		status = StatusOpen
	}
	if !validStatus(status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if err := h.validateCustomFields(r, req.CustomFields); err != nil {
		if writeFieldError(w, err) {
			return
		}
		http.Error(w, "could not validate custom fields", http.StatusInternalServerError)
		return
	}

	userID, _ := auth.UserFromContext(r.Context())
	d := Deal{
		Name:           req.Name,
		CompanyName:    req.CompanyName,
		ContactName:    req.ContactName,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		Region:         req.Region,
		Status:         status,
		UserID:         userID,
		OrganizationID: req.OrganizationID,
		Attachments:    req.Attachments,
		CustomFields:   req.CustomFields,
	}
	if err := h.Repository.Save(h.DB, &d); err != nil {
		http.Error(w, "could not create deal", http.StatusInternalServerError)
		return
	}

	if d.CompanyName != "" {
		count, dupID, err := h.Repository.CountByCompany(h.DB, d.CompanyName, d.ID)
		if err != nil {
			log.Printf("duplicate check for deal %d: %v", d.ID, err)
		} else if count > 0 {
			h.Notifier.DuplicateDeal(d.CompanyName, dupID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(d)
}

// List handles GET /deals. Admins see everything, everyone else their own.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := auth.UserFromContext(r.Context())

	var (
		list []Deal
		err  error
	)
	if isAdmin {
		list, err = h.Repository.ListAll(h.DB)
	} else {
		list, err = h.Repository.ListByUser(h.DB, userID)
	}
	if err != nil {
		http.Error(w, "could not list deals", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Deal, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal id", http.StatusBadRequest)
		return nil, false
	}
	d, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return nil, false
	}
	userID, isAdmin := auth.UserFromContext(r.Context())
	if !isAdmin && d.UserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return d, true
}

// Get handles GET /deals/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}

// Update handles PUT /deals/{id}. Only fields present in the payload change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	var req updateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if req.CustomFields != nil {
		if err := h.validateCustomFields(r, *req.CustomFields); err != nil {
			if writeFieldError(w, err) {
				return
			}
			http.Error(w, "could not validate custom fields", http.StatusInternalServerError)
			return
		}
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.CompanyName != nil {
		d.CompanyName = *req.CompanyName
	}
	if req.ContactName != nil {
		d.ContactName = *req.ContactName
	}
	if req.ContactEmail != nil {
		d.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		d.ContactPhone = *req.ContactPhone
	}
	if req.Region != nil {
		d.Region = *req.Region
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if req.OrganizationID != nil {
		d.OrganizationID = req.OrganizationID
	}
	if req.Attachments != nil {
		d.Attachments = *req.Attachments
	}
	if req.CustomFields != nil {
		d.CustomFields = *req.CustomFields
	}

	if err := h.Repository.Update(h.DB, d); err != nil {
		http.Error(w, "could not update deal", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}

// AddAttachments handles PATCH /deals/{id}/attachments, appending links.
func (h *Handler) AddAttachments(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	var req addAttachmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if len(req.Attachments) == 0 {
		http.Error(w, "attachments are required", http.StatusBadRequest)
		return
	}
	d.Attachments = append(d.Attachments, req.Attachments...)
	if err := h.Repository.Update(h.DB, d); err != nil {
		http.Error(w, "could not update deal", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}

// Delete handles DELETE /deals/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Delete(h.DB, d.ID); err != nil {
		http.Error(w, "could not delete deal", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
