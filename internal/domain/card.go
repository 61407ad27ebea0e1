package domain

// Card is a single question-answer entry with its correctness flags.
// Answer is interpreted as Markdown when displayed; Question stays plain text.
type Card struct {
	ID       int64
	Question string
	Answer   string
	Correct  bool
	Wrong    bool
}

// CardInput is a question-answer pair before it has been persisted.
// Used by manual entry and by the bulk import paths.
type CardInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
