package transfer

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anamite/open-flashcard/internal/domain"
	"github.com/anamite/open-flashcard/internal/storage"
)

func openTestDB(t *testing.T, name string) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestImportDictionary(t *testing.T) {
	t.Run("inserts every record", func(t *testing.T) {
		db := openTestDB(t, "main.db")
		count, err := ImportDictionary(db, `[{"question":"Q1","answer":"A1"},{"question":"Q2","answer":"A2"}]`)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		cards, err := db.AllCards()
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.False(t, cards[0].Correct)
		assert.False(t, cards[0].Wrong)
	})

	t.Run("ignores extra fields", func(t *testing.T) {
		db := openTestDB(t, "main.db")
		count, err := ImportDictionary(db, `[{"question":"Q1","answer":"A1","hint":"ignored"}]`)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("no dedup against existing cards", func(t *testing.T) {
		db := openTestDB(t, "main.db")
		_, err := db.InsertCard("Q1", "A1")
		require.NoError(t, err)

		count, err := ImportDictionary(db, `[{"question":"Q1","answer":"A1"}]`)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		cards, err := db.AllCards()
		require.NoError(t, err)
		assert.Len(t, cards, 2)
	})

	t.Run("rejects malformed input wholesale", func(t *testing.T) {
		testCases := []struct {
			name string
			blob string
		}{
			{"not JSON", `{{{`},
			{"not a list", `"not a list"`},
			{"object instead of list", `{"question":"Q1","answer":"A1"}`},
			{"element not an object", `["Q1"]`},
			{"missing answer", `[{"question":"Q1"}]`},
			{"missing question", `[{"answer":"A1"}]`},
			{"one bad record poisons all", `[{"question":"Q1","answer":"A1"},{"question":"Q2"}]`},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				db := openTestDB(t, "main.db")
				count, err := ImportDictionary(db, tc.blob)
				assert.ErrorIs(t, err, domain.ErrFormat)
				assert.Zero(t, count)

				cards, err := db.AllCards()
				require.NoError(t, err)
				assert.Empty(t, cards, "nothing may be inserted on a format error")
			})
		}
	})
}

func TestImportStore(t *testing.T) {
	t.Run("imports new questions, skips duplicates", func(t *testing.T) {
		dst := openTestDB(t, "main.db")
		_, err := dst.InsertCard("shared question", "old answer")
		require.NoError(t, err)

		srcPath := filepath.Join(t.TempDir(), "source.db")
		src, err := storage.Open(srcPath)
		require.NoError(t, err)
		_, err = src.InsertCard("shared question", "new answer")
		require.NoError(t, err)
		_, err = src.InsertCard("fresh question", "fresh answer")
		require.NoError(t, err)
		require.NoError(t, src.Close())

		count, err := ImportStore(dst, srcPath)
		require.NoError(t, err)
		// The historical contract: the count is rows read from the source,
		// not rows inserted after deduplication.
		assert.Equal(t, 2, count)

		cards, err := dst.AllCards()
		require.NoError(t, err)
		require.Len(t, cards, 2)
		assert.Equal(t, "old answer", cards[0].Answer, "duplicate question must not be overwritten")
		assert.Equal(t, "fresh question", cards[1].Question)
	})

	t.Run("missing source wraps ErrImport", func(t *testing.T) {
		dst := openTestDB(t, "main.db")
		_, err := ImportStore(dst, filepath.Join(t.TempDir(), "nope.db"))
		assert.ErrorIs(t, err, domain.ErrImport)
	})
}

func TestImportDeck(t *testing.T) {
	db := openTestDB(t, "main.db")

	path := filepath.Join(t.TempDir(), "deck.md")
	deck := "Q: What is HTMX?\nA: A hypermedia library.\n---\nQ: What is Go?\nA: A programming\nlanguage.\n"
	require.NoError(t, os.WriteFile(path, []byte(deck), 0o644))

	count, err := ImportDeck(db, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	cards, err := db.AllCards()
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "A programming\nlanguage.", cards[1].Answer)

	_, err = ImportDeck(db, filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestExportCSVRoundTrip(t *testing.T) {
	db := openTestDB(t, "main.db")

	pairs := []domain.CardInput{
		{Question: "plain question", Answer: "plain answer"},
		{Question: "comma, in question", Answer: `quote " in answer`},
		{Question: "newline\nin question", Answer: "both, \"here\"\nand here"},
	}
	for _, p := range pairs {
		_, err := db.InsertCard(p.Question, p.Answer)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(db, &buf))

	// Re-reading the raw rows must reproduce the exact pairs, no header.
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(pairs))
	for i, p := range pairs {
		assert.Equal(t, p.Question, rows[i][0])
		assert.Equal(t, p.Answer, rows[i][1])
	}
}

func TestExportCSVFileOverwrites(t *testing.T) {
	db := openTestDB(t, "main.db")
	_, err := db.InsertCard("Q", "A")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cards.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0o644))

	require.NoError(t, ExportCSVFile(db, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Q,A\n", string(data))
}
