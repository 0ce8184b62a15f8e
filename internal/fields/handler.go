package fields

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler serves custom-field definitions. Reads go through the cache;
// writes hit the repository and invalidate the touched entity.
type Handler struct {
	Repo  *Repository
	Cache *Cache
}

func NewHandler(repo *Repository, cache *Cache) *Handler {
	return &Handler{Repo: repo, Cache: cache}
}

type definitionRequest struct {
	EntityType EntityType `json:"entityType"`
	Key        string     `json:"key"`
	Label      string     `json:"label"`
	Type       FieldType  `json:"type"`
	Required   bool       `json:"required"`
	Options    []string   `json:"options"`
	Position   int        `json:"position"`
}

func (r definitionRequest) validate() string {
	if !ValidEntityType(r.EntityType) {
		return "unknown entity type"
	}
	if r.Key == "" {
		return "key is required"
	}
	if _, ok := parsers[r.Type]; !ok {
		return "unknown field type"
	}
	if r.Type == TypeMultiSelect && len(r.Options) == 0 {
		return "multiselect fields need options"
	}
	return ""
}

// List handles GET /custom-fields?entity=deal.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entity := EntityType(r.URL.Query().Get("entity"))
	defs, err := h.Cache.Definitions(r.Context(), entity)
	if err != nil {
		if !ValidEntityType(entity) {
			http.Error(w, "unknown entity type", http.StatusBadRequest)
			return
		}
		http.Error(w, "could not load definitions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(defs)
}

// Create handles POST /custom-fields.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req definitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	def := FieldDefinition{
		EntityType: req.EntityType,
		Key:        req.Key,
		Label:      req.Label,
		Type:       req.Type,
		Required:   req.Required,
		Options:    req.Options,
		Position:   req.Position,
	}
	if err := h.Repo.Create(&def); err != nil {
		http.Error(w, "could not create definition", http.StatusInternalServerError)
		return
	}
	h.Cache.Invalidate(def.EntityType)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(def)
}

// Update handles PUT /custom-fields/{id}. The entity type and key are
// immutable; stored values are only reinterpreted, never rekeyed.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	def, err := h.Repo.FindByID(uint(id))
	if err != nil {
		http.Error(w, "definition not found", http.StatusNotFound)
		return
	}

	var req definitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}
	req.EntityType = def.EntityType
	req.Key = def.Key
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	def.Label = req.Label
	def.Type = req.Type
	def.Required = req.Required
	def.Options = req.Options
	def.Position = req.Position
	if err := h.Repo.Update(def); err != nil {
		http.Error(w, "could not update definition", http.StatusInternalServerError)
		return
	}
	h.Cache.Invalidate(def.EntityType)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(def)
}

// Delete handles DELETE /custom-fields/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	def, err := h.Repo.FindByID(uint(id))
	if err != nil {
		http.Error(w, "definition not found", http.StatusNotFound)
		return
	}
	if err := h.Repo.Delete(def.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "definition not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not delete definition", http.StatusInternalServerError)
		return
	}
	h.Cache.Invalidate(def.EntityType)
	w.WriteHeader(http.StatusNoContent)
}
