package quote

import (
	"errors"
	"fmt"
)

// Store is the persistence surface a Session needs. *Repository satisfies it.
type Store interface {
	FindByID(id uint) (*PriceQuote, error)
}

// SessionState tracks what the editor is doing.
type SessionState int

const (
	// NoSelection means nothing is being edited.
	NoSelection SessionState = iota
	// Editing means a draft is open, either a fresh quote or an edit of a
	// stored one.
	Editing
)

var ErrNoActiveDraft = errors.New("no draft is being edited")

// Session drives the edit lifecycle of one deal's quotes. Opening a new
// draft or selecting a stored quote moves the session to Editing, replacing
// any draft already open; submitting, discarding, or deletion of the edited
// quote moves it back to NoSelection. Only Submit touches the store, so an
// abandoned edit never leaves partial state behind.
type Session struct {
	DealID uint
	store  Store

	state SessionState
	draft *QuoteRequest
	// editID is nonzero when the draft edits a stored quote.
	editID uint
}

func NewSession(dealID uint, store Store) *Session {
	return &Session{DealID: dealID, store: store}
}

func (s *Session) State() SessionState { return s.state }

// Draft returns the working copy, or nil outside Editing.
func (s *Session) Draft() *QuoteRequest { return s.draft }

// StartNew opens a blank draft for a brand-new quote version. Any draft
// already open is thrown away.
func (s *Session) StartNew() {
	s.draft = &QuoteRequest{}
	s.editID = 0
	s.state = Editing
}

// Select loads a stored quote into a working copy for in-place editing,
// discarding any unsaved draft changes. When the load fails the previous
// draft is kept.
func (s *Session) Select(quoteID uint) error {
	q, err := s.store.FindByID(quoteID)
	if err != nil {
		return fmt.Errorf("load quote %d: %w", quoteID, err)
	}
	if q.DealID != s.DealID {
		return fmt.Errorf("quote %d belongs to another deal", quoteID)
	}
	draft := draftFromQuote(q)
	s.draft = &draft
	s.editID = quoteID
	s.state = Editing
	return nil
}

// Apply replaces the working copy. Edits never reach the store before Submit.
func (s *Session) Apply(req QuoteRequest) error {
	if s.state != Editing {
		return ErrNoActiveDraft
	}
	s.draft = &req
	return nil
}

// Discard throws the working copy away. The stored quote, if any, is
// untouched.
func (s *Session) Discard() error {
	if s.state != Editing {
		return ErrNoActiveDraft
	}
	s.draft = nil
	s.editID = 0
	s.state = NoSelection
	return nil
}

// Submit persists the draft. A new draft is stored under the deal's next
// version number; a selected quote is updated in place and keeps its version.
// On failure the session stays in Editing with the draft intact, so the
// caller can retry or discard.
func (s *Session) Submit(persist func(req QuoteRequest, editID uint) (*PriceQuote, error)) (*PriceQuote, error) {
	if s.state != Editing {
		return nil, ErrNoActiveDraft
	}
	q, err := persist(*s.draft, s.editID)
	if err != nil {
		return nil, err
	}
	s.draft = nil
	s.editID = 0
	s.state = NoSelection
	return q, nil
}

// QuoteDeleted tells the session a stored quote is gone. When that quote is
// the one being edited the draft is dropped and the session goes idle; a
// delete of any other quote leaves the session alone.
func (s *Session) QuoteDeleted(quoteID uint) {
	if s.state != Editing || s.editID != quoteID {
		return
	}
	s.draft = nil
	s.editID = 0
	s.state = NoSelection
}

// Editing reports whether the session holds an open draft for quoteID.
// quoteID 0 asks about a new, unsaved draft.
func (s *Session) IsEditing(quoteID uint) bool {
	return s.state == Editing && s.editID == quoteID
}
