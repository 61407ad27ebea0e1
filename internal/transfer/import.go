// Package transfer moves card data across the process boundary: bulk import
// from another flashcard database, a JSON dictionary blob or a markdown deck
// file, and bulk export to CSV.
package transfer

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/anamite/open-flashcard/internal/domain"
	"github.com/anamite/open-flashcard/internal/parser"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// Store is the slice of the card store the adapter writes to. *storage.DB
// satisfies it.
type Store interface {
	InsertCard(question, answer string) (int64, error)
	InsertCards(pairs []domain.CardInput) (int, error)
	AllCards() ([]domain.Card, error)
	QuestionExists(question string) (bool, error)
}

// ImportStore reads every (question, answer) pair from the flashcard
// database at path and inserts the ones whose question is not already
// present in dst (exact, case-sensitive match).
//
// The source is opened read-only and fully drained before the first write to
// dst. The returned count is the number of rows read from the source, not
// the number inserted after deduplication; the original tool reported it
// that way and callers rely on the wording "imported N unique questions".
// Failures wrap domain.ErrImport; rows inserted before a failure stay
// committed.
func ImportStore(dst Store, path string) (int, error) {
	pairs, err := readSourcePairs(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrImport, err)
	}

	for _, p := range pairs {
		exists, err := dst.QuestionExists(p.Question)
		if err != nil {
			return len(pairs), fmt.Errorf("%w: %v", domain.ErrImport, err)
		}
		if exists {
			continue
		}
		if _, err := dst.InsertCard(p.Question, p.Answer); err != nil {
			return len(pairs), fmt.Errorf("%w: %v", domain.ErrImport, err)
		}
	}
	return len(pairs), nil
}

// readSourcePairs opens the source database read-only, drains all rows and
// closes it again. The connection is never held open across writes to the
// primary store.
func readSourcePairs(path string) ([]domain.CardInput, error) {
	src, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open source store %s: %w", path, err)
	}
	defer src.Close()

	rows, err := src.Query(`SELECT question, answer FROM flashcards`)
	if err != nil {
		return nil, fmt.Errorf("failed to read source store %s: %w", path, err)
	}
	defer rows.Close()

	var pairs []domain.CardInput
	for rows.Next() {
		var p domain.CardInput
		if err := rows.Scan(&p.Question, &p.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source rows: %w", err)
	}
	return pairs, nil
}

// dictRecord distinguishes a missing field from an empty one; extra JSON
// fields are ignored.
type dictRecord struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

// ImportDictionary parses blob as a JSON array of {"question", "answer"}
// objects and inserts every record into dst (no deduplication). A top-level
// value that is not an array, a non-object element, or a record missing
// either field rejects the whole blob with domain.ErrFormat and inserts
// nothing. Returns the number of cards inserted.
func ImportDictionary(dst Store, blob string) (int, error) {
	var records []dictRecord
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}

	pairs := make([]domain.CardInput, 0, len(records))
	for i, rec := range records {
		if rec.Question == nil || rec.Answer == nil {
			return 0, fmt.Errorf("%w: record %d is missing a question or answer field", domain.ErrFormat, i)
		}
		pairs = append(pairs, domain.CardInput{Question: *rec.Question, Answer: *rec.Answer})
	}

	return dst.InsertCards(pairs)
}

// ImportDeck parses the markdown deck file at path ("Q:"/"A:" blocks) and
// inserts every pair into dst (no deduplication). Returns the number of
// cards inserted. Unreadable input wraps domain.ErrFormat.
func ImportDeck(dst Store, path string) (int, error) {
	pairs, err := parser.ParseFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}
	return dst.InsertCards(pairs)
}
