package review

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anamite/open-flashcard/internal/domain"
)

// fakeStore is an in-memory Store used to test the engine without SQLite.
type fakeStore struct {
	cards []domain.Card
}

func (f *fakeStore) AllCards() ([]domain.Card, error) {
	out := make([]domain.Card, len(f.cards))
	copy(out, f.cards)
	return out, nil
}

func (f *fakeStore) WrongCards() ([]domain.Card, error) {
	var out []domain.Card
	for _, c := range f.cards {
		if c.Wrong {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateText(id int64, question, answer string) error {
	for i := range f.cards {
		if f.cards[i].ID == id {
			f.cards[i].Question = question
			f.cards[i].Answer = answer
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeStore) UpdateStatus(id int64, correct bool) error {
	for i := range f.cards {
		if f.cards[i].ID == id {
			f.cards[i].Correct = correct
			f.cards[i].Wrong = !correct
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeStore) CountCorrect() (int, error) {
	n := 0
	for _, c := range f.cards {
		if c.Correct {
			n++
		}
	}
	return n, nil
}

func newFakeStore(n int) *fakeStore {
	f := &fakeStore{}
	for i := 1; i <= n; i++ {
		f.cards = append(f.cards, domain.Card{
			ID:       int64(i),
			Question: fmt.Sprintf("Q%d", i),
			Answer:   fmt.Sprintf("A%d", i),
		})
	}
	return f
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestStartShufflesButKeepsSet(t *testing.T) {
	store := newFakeStore(20)

	session, err := Start(store, All, testRNG())
	require.NoError(t, err)
	assert.Equal(t, 20, session.Size())

	// Drain the session and collect the ids it served.
	var ids []int64
	for !session.Done() {
		ids = append(ids, session.Current().ID)
		require.NoError(t, session.Mark(true))
	}

	require.Len(t, ids, 20)
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, id := range sorted {
		assert.Equal(t, int64(i+1), id, "every card must appear exactly once")
	}
}

func TestStartEmptySubset(t *testing.T) {
	t.Run("no cards at all", func(t *testing.T) {
		session, err := Start(newFakeStore(0), All, testRNG())
		assert.ErrorIs(t, err, ErrNoCards)
		assert.Nil(t, session)
	})

	t.Run("no wrong cards", func(t *testing.T) {
		session, err := Start(newFakeStore(5), WrongOnly, testRNG())
		assert.ErrorIs(t, err, ErrNoCards)
		assert.Nil(t, session)
	})
}

func TestStartWrongOnly(t *testing.T) {
	store := newFakeStore(5)
	require.NoError(t, store.UpdateStatus(2, false))
	require.NoError(t, store.UpdateStatus(4, false))

	session, err := Start(store, WrongOnly, testRNG())
	require.NoError(t, err)
	require.Equal(t, 2, session.Size())

	seen := map[int64]bool{}
	for !session.Done() {
		seen[session.Current().ID] = true
		require.NoError(t, session.Mark(true))
	}
	assert.Equal(t, map[int64]bool{2: true, 4: true}, seen)
}

func TestMarkUpdatesFlagsAndAdvances(t *testing.T) {
	store := newFakeStore(2)
	session, err := Start(store, All, testRNG())
	require.NoError(t, err)

	first := session.Current().ID
	require.NoError(t, session.Mark(false))
	assert.Equal(t, 1, session.Remaining())

	for _, c := range store.cards {
		if c.ID == first {
			assert.True(t, c.Wrong)
			assert.False(t, c.Correct)
		}
	}

	second := session.Current().ID
	assert.NotEqual(t, first, second)
	require.NoError(t, session.Mark(true))
	assert.True(t, session.Done())
	assert.Equal(t, 0, session.Remaining())

	require.Error(t, session.Mark(true), "marking a completed session must fail")
}

func TestSnapshotIsFrozenAtStart(t *testing.T) {
	store := newFakeStore(3)
	session, err := Start(store, All, testRNG())
	require.NoError(t, err)

	// Cards added after the session starts are not part of it.
	store.cards = append(store.cards, domain.Card{ID: 99, Question: "late", Answer: "late"})
	assert.Equal(t, 3, session.Size())
}

func TestRevealHide(t *testing.T) {
	session, err := Start(newFakeStore(2), All, testRNG())
	require.NoError(t, err)

	assert.False(t, session.Revealed())
	session.Reveal()
	assert.True(t, session.Revealed())
	session.Hide()
	assert.False(t, session.Revealed())

	// Advancing always lands on the question side.
	session.Reveal()
	require.NoError(t, session.Mark(true))
	assert.False(t, session.Revealed())
}

func TestEditCurrentUpdatesStoreAndSnapshot(t *testing.T) {
	store := newFakeStore(1)
	session, err := Start(store, All, testRNG())
	require.NoError(t, err)

	id := session.Current().ID
	require.NoError(t, session.EditCurrent("edited Q", "edited A"))

	assert.Equal(t, "edited Q", session.Current().Question)
	assert.Equal(t, "edited A", session.Current().Answer)
	assert.Equal(t, id, session.Current().ID)
	assert.Equal(t, "edited Q", store.cards[0].Question)
}

func TestEditCurrentPropagatesValidation(t *testing.T) {
	store := newFakeStore(1)
	session, err := Start(store, All, testRNG())
	require.NoError(t, err)

	// The store rejects the edit; the snapshot must stay untouched.
	store.cards = nil
	err = session.EditCurrent("Q", "A")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Q1", session.Current().Question)
}

func TestCorrectTotalIsStoreWide(t *testing.T) {
	store := newFakeStore(5)
	// Two cards were answered correctly in some earlier session.
	require.NoError(t, store.UpdateStatus(1, true))
	require.NoError(t, store.UpdateStatus(2, true))
	require.NoError(t, store.UpdateStatus(3, false))

	session, err := Start(store, WrongOnly, testRNG())
	require.NoError(t, err)
	require.Equal(t, 1, session.Size())
	require.NoError(t, session.Mark(false))

	// Lifetime count: the two earlier correct cards still count even though
	// this session marked its only card wrong.
	total, err := session.CorrectTotal()
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
