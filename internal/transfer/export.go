package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ExportCSV writes every stored card as one (question, answer) row to w.
// No header row; encoding/csv quoting keeps embedded commas, quotes and
// newlines round-trippable.
func ExportCSV(src Store, w io.Writer) error {
	cards, err := src.AllCards()
	if err != nil {
		return fmt.Errorf("failed to load cards for export: %w", err)
	}

	cw := csv.NewWriter(w)
	for _, c := range cards {
		if err := cw.Write([]string{c.Question, c.Answer}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// ExportCSVFile writes the CSV export to path, overwriting any existing file.
func ExportCSVFile(src Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	if err := ExportCSV(src, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file %s: %w", path, err)
	}
	return nil
}
