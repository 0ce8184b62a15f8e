package deal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dealgrid/api-quotes/internal/agreement"
	"github.com/Dealgrid/api-quotes/internal/auth"
	"github.com/Dealgrid/api-quotes/internal/comment"
	"github.com/Dealgrid/api-quotes/internal/fields"
	"github.com/Dealgrid/api-quotes/internal/installment"
	"github.com/Dealgrid/api-quotes/internal/notification"
	"github.com/Dealgrid/api-quotes/internal/quote"
	"github.com/gorilla/mux"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:deals_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	migrations := []func(*gorm.DB) error{
		fields.Migrate, comment.Migrate, installment.Migrate,
		quote.Migrate, agreement.Migrate, Migrate,
	}
	for _, m := range migrations {
		if err := m(db); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return db
}

func newTestHandler(t *testing.T, notifier *notification.Notifier) (*Handler, *mux.Router, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	cache := fields.NewCache(fields.NewRepository(db), time.Minute)
	h := NewHandler(db, cache, notifier)

	r := mux.NewRouter()
	r.HandleFunc("/deals", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/deals", h.List).Methods(http.MethodGet)
	r.HandleFunc("/deals/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/deals/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/deals/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/deals/{id}/attachments", h.AddAttachments).Methods(http.MethodPatch)
	return h, r, db
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body any, userID uint, isAdmin bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(auth.WithUser(req.Context(), userID, isAdmin))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeDeal(t *testing.T, rec *httptest.ResponseRecorder) Deal {
	t.Helper()
	var d Deal
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode deal: %v", err)
	}
	return d
}

func TestCreateDealValidatesCustomFields(t *testing.T) {
	_, r, db := newTestHandler(t, &notification.Notifier{})

	defs := []fields.FieldDefinition{
		{EntityType: fields.EntityDeal, Key: "industry", Label: "Industry", Type: fields.TypeText, Required: true},
		{EntityType: fields.EntityDeal, Key: "regions", Label: "Regions", Type: fields.TypeMultiSelect, Options: []string{"emea", "apac"}},
	}
	for i := range defs {
		if err := db.Create(&defs[i]).Error; err != nil {
			t.Fatalf("seed definition: %v", err)
		}
	}

	rec := doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name": "Acme expansion",
		"customFields": map[string]any{
			"industry": "energy",
			"regions":  []string{"emea"},
		},
	}, 1, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	d := decodeDeal(t, rec)
	if d.Status != StatusOpen {
		t.Fatalf("default status = %s, want open", d.Status)
	}
	if d.CustomFields["industry"] != "energy" {
		t.Fatalf("custom fields = %+v", d.CustomFields)
	}

	// Missing required field.
	rec = doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name":         "No industry",
		"customFields": map[string]any{"regions": []string{"emea"}},
	}, 1, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// Value outside the multiselect options.
	rec = doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name": "Bad region",
		"customFields": map[string]any{
			"industry": "energy",
			"regions":  []string{"latam"},
		},
	}, 1, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateDealFlagsDuplicateCompany(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Errorf("decode webhook: %v", err)
		}
		if payload["event"] != "duplicate_deal" {
			t.Errorf("webhook event = %v", payload["event"])
		}
		hits.Add(1)
	}))
	defer srv.Close()

	_, r, _ := newTestHandler(t, &notification.Notifier{URL: srv.URL, Client: srv.Client()})

	first := doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name": "Acme pilot", "companyName": "Acme Corp",
	}, 1, false)
	if first.Code != http.StatusCreated {
		t.Fatalf("status = %d", first.Code)
	}
	if hits.Load() != 0 {
		t.Fatal("first deal should not trigger the duplicate alert")
	}

	second := doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name": "Acme renewal", "companyName": "Acme Corp",
	}, 2, false)
	if second.Code != http.StatusCreated {
		t.Fatalf("status = %d", second.Code)
	}
	if hits.Load() != 1 {
		t.Fatalf("webhook hits = %d, want 1", hits.Load())
	}
}

func TestDealOwnershipChecks(t *testing.T) {
	_, r, _ := newTestHandler(t, &notification.Notifier{})

	created := decodeDeal(t, doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name": "Mine", "companyName": "Ownerly",
	}, 1, false))

	if rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/deals/%d", created.ID), nil, 2, false); rec.Code != http.StatusForbidden {
		t.Fatalf("other user read = %d, want 403", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/deals/%d", created.ID), nil, 2, true); rec.Code != http.StatusOK {
		t.Fatalf("admin read = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, fmt.Sprintf("/deals/%d", created.ID), nil, 1, false); rec.Code != http.StatusOK {
		t.Fatalf("owner read = %d, want 200", rec.Code)
	}
}

func TestListDealsScopesToUser(t *testing.T) {
	_, r, _ := newTestHandler(t, &notification.Notifier{})

	doJSON(t, r, http.MethodPost, "/deals", map[string]any{"name": "A"}, 1, false)
	doJSON(t, r, http.MethodPost, "/deals", map[string]any{"name": "B"}, 2, false)

	rec := doJSON(t, r, http.MethodGet, "/deals", nil, 1, false)
	var mine []Deal
	if err := json.NewDecoder(rec.Body).Decode(&mine); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "A" {
		t.Fatalf("user list = %+v", mine)
	}

	rec = doJSON(t, r, http.MethodGet, "/deals", nil, 9, true)
	var all []Deal
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin list = %d deals, want 2", len(all))
	}
}

func TestUpdateDealPartialPayload(t *testing.T) {
	_, r, _ := newTestHandler(t, &notification.Notifier{})

	created := decodeDeal(t, doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name": "Acme pilot", "companyName": "Acme Corp", "region": "North",
	}, 1, false))

	rec := doJSON(t, r, http.MethodPut, fmt.Sprintf("/deals/%d", created.ID), map[string]any{
		"status": StatusWon,
	}, 1, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeDeal(t, rec)
	if updated.Status != StatusWon {
		t.Fatalf("status = %s, want won", updated.Status)
	}
	if updated.Name != "Acme pilot" || updated.Region != "North" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	rec = doJSON(t, r, http.MethodPut, fmt.Sprintf("/deals/%d", created.ID), map[string]any{
		"status": "archived",
	}, 1, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status update = %d, want 400", rec.Code)
	}
}

func TestAddAttachmentsAppends(t *testing.T) {
	_, r, _ := newTestHandler(t, &notification.Notifier{})

	created := decodeDeal(t, doJSON(t, r, http.MethodPost, "/deals", map[string]any{
		"name": "Acme pilot", "attachments": []string{"a.pdf"},
	}, 1, false))

	rec := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/deals/%d/attachments", created.ID), map[string]any{
		"attachments": []string{"b.pdf", "c.pdf"},
	}, 1, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeDeal(t, rec)
	if len(updated.Attachments) != 3 || updated.Attachments[2] != "c.pdf" {
		t.Fatalf("attachments = %+v", updated.Attachments)
	}
}
