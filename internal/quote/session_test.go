package quote

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeStore struct {
	quotes map[uint]*PriceQuote
}

func newFakeStore(qs ...*PriceQuote) *fakeStore {
	s := &fakeStore{quotes: map[uint]*PriceQuote{}}
	for _, q := range qs {
		s.quotes[q.ID] = q
	}
	return s
}

func (s *fakeStore) FindByID(id uint) (*PriceQuote, error) {
	q, ok := s.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	return &cp, nil
}

func storedQuote(id, dealID uint, version int) *PriceQuote {
	q := &PriceQuote{
		DealID:           dealID,
		VersionNumber:    version,
		Status:           StatusDraft,
		Name:             "Pilot rollout",
		BaseMinimumPrice: decimal.RequireFromString("5000"),
		FinalOfferPrice:  decimal.RequireFromString("6000"),
		AdditionalCosts: []AdditionalCost{
			{Position: 1, Description: "Training", Amount: decimal.RequireFromString("250")},
			{Position: 0, Description: "Travel", Amount: decimal.RequireFromString("100")},
		},
	}
	q.ID = id
	return q
}

func TestSessionStartsIdle(t *testing.T) {
	s := NewSession(1, newFakeStore())
	if s.State() != NoSelection {
		t.Fatalf("new session state = %v, want NoSelection", s.State())
	}
	if s.Draft() != nil {
		t.Fatal("new session should hold no draft")
	}
}

func TestSessionStartNew(t *testing.T) {
	s := NewSession(1, newFakeStore())
	s.StartNew()
	if s.State() != Editing {
		t.Fatalf("state = %v, want Editing", s.State())
	}
	if !s.IsEditing(0) {
		t.Fatal("session should report a new unsaved draft")
	}
}

func TestSessionStartNewDiscardsOpenDraft(t *testing.T) {
	s := NewSession(1, newFakeStore())
	s.StartNew()
	if err := s.Apply(QuoteRequest{Name: "old draft"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	s.StartNew()
	if s.State() != Editing {
		t.Fatalf("state = %v, want Editing", s.State())
	}
	if d := s.Draft(); d == nil || d.Name != "" {
		t.Fatalf("second StartNew should open a blank draft, got %+v", d)
	}
}

func TestSessionSelectLoadsDraft(t *testing.T) {
	store := newFakeStore(storedQuote(7, 1, 2))
	s := NewSession(1, store)
	if err := s.Select(7); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !s.IsEditing(7) {
		t.Fatal("session should be editing quote 7")
	}
	d := s.Draft()
	if d == nil {
		t.Fatal("draft is nil after Select")
	}
	if d.Name != "Pilot rollout" {
		t.Fatalf("draft name = %q", d.Name)
	}
	// Cost lines come back in position order regardless of storage order.
	if len(d.AdditionalCosts) != 2 || d.AdditionalCosts[0].Description != "Travel" {
		t.Fatalf("draft costs = %+v", d.AdditionalCosts)
	}
}

func TestSessionSelectDiscardsOpenDraft(t *testing.T) {
	store := newFakeStore(storedQuote(7, 1, 2))
	s := NewSession(1, store)
	s.StartNew()
	if err := s.Apply(QuoteRequest{Name: "unsaved edits"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if err := s.Select(7); err != nil {
		t.Fatalf("Select with an open draft: %v", err)
	}
	if !s.IsEditing(7) {
		t.Fatal("session should be editing quote 7")
	}
	if d := s.Draft(); d == nil || d.Name != "Pilot rollout" {
		t.Fatalf("draft after Select = %+v, want quote 7's fields", d)
	}

	// Selecting another stored quote drops that draft too.
	store.quotes[8] = storedQuote(8, 1, 3)
	if err := s.Apply(QuoteRequest{Name: "more unsaved edits"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Select(8); err != nil {
		t.Fatalf("Select while editing another quote: %v", err)
	}
	if !s.IsEditing(8) {
		t.Fatal("session should be editing quote 8")
	}
}

func TestSessionSelectMissingQuote(t *testing.T) {
	s := NewSession(1, newFakeStore())
	if err := s.Select(99); err == nil {
		t.Fatal("Select of a missing quote should fail")
	}
	if s.State() != NoSelection {
		t.Fatal("failed Select must leave the session idle")
	}
}

func TestSessionFailedSelectKeepsDraft(t *testing.T) {
	s := NewSession(1, newFakeStore())
	s.StartNew()
	if err := s.Apply(QuoteRequest{Name: "keep me"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Select(99); err == nil {
		t.Fatal("Select of a missing quote should fail")
	}
	if s.State() != Editing {
		t.Fatal("failed Select must not drop the open draft")
	}
	if d := s.Draft(); d == nil || d.Name != "keep me" {
		t.Fatalf("draft after failed Select = %+v", d)
	}
}

func TestSessionSelectWrongDeal(t *testing.T) {
	store := newFakeStore(storedQuote(7, 2, 1))
	s := NewSession(1, store)
	if err := s.Select(7); err == nil {
		t.Fatal("Select across deals should fail")
	}
	if s.State() != NoSelection {
		t.Fatal("failed Select must leave the session idle")
	}
}

func TestSessionApplyRequiresDraft(t *testing.T) {
	s := NewSession(1, newFakeStore())
	if err := s.Apply(QuoteRequest{Name: "x"}); !errors.Is(err, ErrNoActiveDraft) {
		t.Fatalf("Apply error = %v, want ErrNoActiveDraft", err)
	}
}

func TestSessionDiscardLeavesStoreUntouched(t *testing.T) {
	store := newFakeStore(storedQuote(7, 1, 1))
	s := NewSession(1, store)
	if err := s.Select(7); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Apply(QuoteRequest{Name: "edited"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if s.State() != NoSelection {
		t.Fatal("Discard should return the session to idle")
	}
	stored, _ := store.FindByID(7)
	if stored.Name != "Pilot rollout" {
		t.Fatalf("stored quote changed to %q after discard", stored.Name)
	}
}

func TestSessionSubmitNewDraft(t *testing.T) {
	s := NewSession(1, newFakeStore())
	s.StartNew()
	if err := s.Apply(QuoteRequest{Name: "fresh"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var gotEditID uint = 42
	q, err := s.Submit(func(req QuoteRequest, editID uint) (*PriceQuote, error) {
		gotEditID = editID
		out := &PriceQuote{Name: req.Name, DealID: 1, VersionNumber: 1}
		out.ID = 10
		return out, nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotEditID != 0 {
		t.Fatalf("new draft submitted with editID %d, want 0", gotEditID)
	}
	if q.ID != 10 {
		t.Fatalf("submitted quote id = %d", q.ID)
	}
	if s.State() != NoSelection || s.Draft() != nil {
		t.Fatal("successful Submit should clear the session")
	}
}

func TestSessionSubmitSelectedKeepsID(t *testing.T) {
	store := newFakeStore(storedQuote(7, 1, 3))
	s := NewSession(1, store)
	if err := s.Select(7); err != nil {
		t.Fatalf("Select: %v", err)
	}

	var gotEditID uint
	if _, err := s.Submit(func(req QuoteRequest, editID uint) (*PriceQuote, error) {
		gotEditID = editID
		return storedQuote(7, 1, 3), nil
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotEditID != 7 {
		t.Fatalf("edit submitted with editID %d, want 7", gotEditID)
	}
}

func TestSessionSubmitFailureKeepsDraft(t *testing.T) {
	s := NewSession(1, newFakeStore())
	s.StartNew()
	if err := s.Apply(QuoteRequest{Name: "keep me"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	boom := errors.New("db down")
	if _, err := s.Submit(func(QuoteRequest, uint) (*PriceQuote, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Submit error = %v, want %v", err, boom)
	}
	if s.State() != Editing {
		t.Fatal("failed Submit must keep the session editing")
	}
	if d := s.Draft(); d == nil || d.Name != "keep me" {
		t.Fatalf("draft after failed Submit = %+v", d)
	}
}

func TestSessionQuoteDeletedClearsSelection(t *testing.T) {
	store := newFakeStore(storedQuote(7, 1, 1), storedQuote(8, 1, 2))
	s := NewSession(1, store)
	if err := s.Select(7); err != nil {
		t.Fatalf("Select: %v", err)
	}

	// Deleting a quote the session is not editing changes nothing.
	s.QuoteDeleted(8)
	if !s.IsEditing(7) {
		t.Fatal("deleting another quote must not touch the session")
	}

	s.QuoteDeleted(7)
	if s.State() != NoSelection {
		t.Fatalf("state after deleting the edited quote = %v, want NoSelection", s.State())
	}
	if s.Draft() != nil {
		t.Fatal("draft should be gone after the edited quote is deleted")
	}

	// A fresh unsaved draft does not track any stored id.
	s.StartNew()
	s.QuoteDeleted(7)
	if s.State() != Editing {
		t.Fatal("deleting a stored quote must not drop a new unsaved draft")
	}
}

func TestSessionSubmitWithoutDraft(t *testing.T) {
	s := NewSession(1, newFakeStore())
	if _, err := s.Submit(func(QuoteRequest, uint) (*PriceQuote, error) {
		t.Fatal("persist must not run without a draft")
		return nil, nil
	}); !errors.Is(err, ErrNoActiveDraft) {
		t.Fatalf("Submit error = %v, want ErrNoActiveDraft", err)
	}
}
