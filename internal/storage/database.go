package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/anamite/open-flashcard/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
// Schema creation is idempotent and runs on every startup.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertCard persists a new card with both flags unset and returns its id.
// Returns domain.ErrValidation if either field is empty after trimming.
func (db *DB) InsertCard(question, answer string) (int64, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return 0, fmt.Errorf("insert card: %w", domain.ErrValidation)
	}

	res, err := db.conn.Exec(`
		INSERT INTO flashcards (question, answer)
		VALUES (?, ?)
	`, question, answer)
	if err != nil {
		return 0, fmt.Errorf("failed to insert card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// InsertCards bulk-inserts question-answer pairs. Items are independent:
// pairs that fail validation are skipped and the rest are still committed.
// Returns the number of cards actually inserted.
func (db *DB) InsertCards(pairs []domain.CardInput) (int, error) {
	inserted := 0
	for _, p := range pairs {
		if _, err := db.InsertCard(p.Question, p.Answer); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// AllCards retrieves every stored card ordered by id ascending.
func (db *DB) AllCards() ([]domain.Card, error) {
	return db.queryCards(`
		SELECT id, question, answer, correct, wrong
		FROM flashcards ORDER BY id
	`)
}

// WrongCards retrieves the cards currently flagged wrong, ordered by id.
func (db *DB) WrongCards() ([]domain.Card, error) {
	return db.queryCards(`
		SELECT id, question, answer, correct, wrong
		FROM flashcards WHERE wrong = 1 ORDER BY id
	`)
}

func (db *DB) queryCards(query string) ([]domain.Card, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &c.Correct, &c.Wrong); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return cards, nil
}

// UpdateText replaces a card's question and answer, keeping its id and flags.
// Returns domain.ErrValidation on an empty field and domain.ErrNotFound if
// the id does not exist.
func (db *DB) UpdateText(id int64, question, answer string) error {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return fmt.Errorf("update card %d: %w", id, domain.ErrValidation)
	}

	res, err := db.conn.Exec(`
		UPDATE flashcards
		SET question = ?, answer = ?
		WHERE id = ?
	`, question, answer, id)
	if err != nil {
		return fmt.Errorf("failed to update card %d: %w", id, err)
	}
	return checkAffected(res, id)
}

// UpdateStatus records a review outcome: correct=is_correct, wrong=!is_correct.
// Both flags change in a single statement so the exclusion invariant holds
// even if the process dies mid-call. This is the only path that mutates the
// flags after a review.
func (db *DB) UpdateStatus(id int64, correct bool) error {
	res, err := db.conn.Exec(`
		UPDATE flashcards
		SET correct = ?, wrong = ?
		WHERE id = ?
	`, boolToInt(correct), boolToInt(!correct), id)
	if err != nil {
		return fmt.Errorf("failed to update status for card %d: %w", id, err)
	}
	return checkAffected(res, id)
}

// ResetWrong clears the wrong flag for each given id without asserting
// correctness; the correct flag is left untouched. Unknown ids are ignored.
func (db *DB) ResetWrong(ids []int64) error {
	for _, id := range ids {
		if _, err := db.conn.Exec(`
			UPDATE flashcards
			SET wrong = 0
			WHERE id = ?
		`, id); err != nil {
			return fmt.Errorf("failed to reset wrong flag for card %d: %w", id, err)
		}
	}
	return nil
}

// CountCorrect returns the number of cards currently flagged correct.
// This is a lifetime count across the whole store, not a per-session total.
func (db *DB) CountCorrect() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM flashcards WHERE correct = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count correct cards: %w", err)
	}
	return n, nil
}

// QuestionExists reports whether any card has exactly this question text.
// The comparison is case-sensitive; used by the store import to skip
// duplicates.
func (db *DB) QuestionExists(question string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM flashcards WHERE question = ?
	`, question).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing question: %w", err)
	}
	return n > 0, nil
}

func checkAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for card %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
