package review

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/anamite/open-flashcard/internal/domain"
)

// ErrNoCards is returned by Start when the chosen subset has no cards.
// It is a distinct outcome, not a session: any prior session stays valid.
var ErrNoCards = errors.New("review: no cards available")

// Subset selects which cards a session draws from.
type Subset int

const (
	// All reviews every stored card.
	All Subset = iota
	// WrongOnly reviews only the cards currently flagged wrong.
	WrongOnly
)

// Store is the slice of the card store a session needs. *storage.DB
// satisfies it; tests substitute an in-memory implementation.
type Store interface {
	AllCards() ([]domain.Card, error)
	WrongCards() ([]domain.Card, error)
	UpdateText(id int64, question, answer string) error
	UpdateStatus(id int64, correct bool) error
	CountCorrect() (int, error)
}

// Session is one pass through a shuffled, fixed-at-start subset of cards.
// The snapshot order is frozen when the session starts; the cursor only
// advances through Mark. A session is owned by a single goroutine.
type Session struct {
	store    Store
	cards    []domain.Card
	cursor   int
	revealed bool
}

// Start snapshots the chosen subset, shuffles it and returns a new session.
// The rng is injected so tests can fix the permutation. Returns ErrNoCards
// when the subset is empty.
func Start(store Store, subset Subset, rng *rand.Rand) (*Session, error) {
	var (
		cards []domain.Card
		err   error
	)
	switch subset {
	case WrongOnly:
		cards, err = store.WrongCards()
	default:
		cards, err = store.AllCards()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cards for review: %w", err)
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}

	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return &Session{store: store, cards: cards}, nil
}

// Done reports whether the cursor has passed the last card.
func (s *Session) Done() bool {
	return s.cursor >= len(s.cards)
}

// Size returns the number of cards fixed at session start.
func (s *Session) Size() int {
	return len(s.cards)
}

// Remaining returns the number of cards not yet marked, including the
// current one.
func (s *Session) Remaining() int {
	if s.Done() {
		return 0
	}
	return len(s.cards) - s.cursor
}

// Current returns the snapshot at the cursor. Only valid while !Done().
func (s *Session) Current() domain.Card {
	return s.cards[s.cursor]
}

// Reveal shows the answer for the current card. Presentation state only;
// nothing is persisted.
func (s *Session) Reveal() { s.revealed = true }

// Hide flips back to the question side of the current card.
func (s *Session) Hide() { s.revealed = false }

// Revealed reports whether the answer side is currently shown.
func (s *Session) Revealed() bool { return s.revealed }

// Mark records the outcome for the current card and advances the cursor.
// This is the only operation that advances a session. The store update sets
// exactly one of the correct/wrong flags atomically.
func (s *Session) Mark(correct bool) error {
	if s.Done() {
		return errors.New("review: mark after session completed")
	}
	if err := s.store.UpdateStatus(s.Current().ID, correct); err != nil {
		return err
	}
	s.cursor++
	s.revealed = false
	return nil
}

// EditCurrent rewrites the current card's text in the store and in the
// session snapshot, so the session stays consistent with what the user just
// edited. The card keeps its id and flags.
func (s *Session) EditCurrent(question, answer string) error {
	if s.Done() {
		return errors.New("review: edit after session completed")
	}
	if err := s.store.UpdateText(s.Current().ID, question, answer); err != nil {
		return err
	}
	s.cards[s.cursor].Question = question
	s.cards[s.cursor].Answer = answer
	return nil
}

// CorrectTotal returns the store-wide count of cards flagged correct. It is
// a lifetime total, not the number answered correctly in this session.
func (s *Session) CorrectTotal() (int, error) {
	return s.store.CountCorrect()
}
