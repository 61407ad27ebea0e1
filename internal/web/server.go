// Package web is the presentation shell: a local HTMX UI that translates
// user actions into calls on the card store, the review engine and the
// transfer adapter. No business logic lives here.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"

	"github.com/anamite/open-flashcard/internal/config"
	"github.com/anamite/open-flashcard/internal/domain"
	"github.com/anamite/open-flashcard/internal/render"
	"github.com/anamite/open-flashcard/internal/review"
	"github.com/anamite/open-flashcard/internal/storage"
	"github.com/anamite/open-flashcard/internal/transfer"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	cfg       *config.Config
	db        *storage.DB
	router    *http.ServeMux
	templates *template.Template
	rng       *rand.Rand

	// net/http runs handlers concurrently even for a single user, so the
	// one active session is guarded.
	mu      sync.Mutex
	session *review.Session
}

// NewServer creates and configures a new server.
func NewServer(cfg *config.Config, db *storage.DB, rng *rand.Rand) *Server {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	s := &Server{
		cfg:       cfg,
		db:        db,
		router:    http.NewServeMux(),
		templates: tpl,
		rng:       rng,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	s.router.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("/", s.handleIndex())
	s.router.HandleFunc("/cards", s.handleAddCard())

	// Review session routes
	s.router.HandleFunc("/review/start", s.handleStartReview())
	s.router.HandleFunc("/review/answer", s.handleShowAnswer())
	s.router.HandleFunc("/review/question", s.handleShowQuestion())
	s.router.HandleFunc("/review/mark", s.handleMark())
	s.router.HandleFunc("/review/edit", s.handleEdit())

	// Wrong-card management routes
	s.router.HandleFunc("/wrong", s.handleWrongList())
	s.router.HandleFunc("/wrong/reset", s.handleResetWrong())

	// Import and export routes
	s.router.HandleFunc("/import/store", s.handleImportStore())
	s.router.HandleFunc("/import/dictionary", s.handleImportDictionary())
	s.router.HandleFunc("/import/deck", s.handleImportDeck())
	s.router.HandleFunc("/export", s.handleExport())
	s.router.HandleFunc("/export/download", s.handleExportDownload())
}

// notify renders a user-visible notification fragment. Failures inside a
// user action degrade to one of these instead of crashing the shell.
func (s *Server) notify(w http.ResponseWriter, kind, text string) {
	data := map[string]any{"Kind": kind, "Text": text}
	if err := s.templates.ExecuteTemplate(w, "message", data); err != nil {
		slog.Error("Failed to render message fragment", "error", err)
	}
}

// userError maps domain errors to a notification, and everything else to a
// 500. Returns true when it handled the error.
func (s *Server) userError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrValidation):
		s.notify(w, "warn", "Question and answer must both be non-empty.")
	case errors.Is(err, domain.ErrNotFound):
		s.notify(w, "warn", "That card no longer exists.")
	case errors.Is(err, domain.ErrFormat):
		s.notify(w, "warn", "Invalid format: expected a JSON list of objects with 'question' and 'answer' keys.")
	case errors.Is(err, domain.ErrImport):
		s.notify(w, "warn", "Error importing questions: "+err.Error())
	case errors.Is(err, review.ErrNoCards):
		s.notify(w, "warn", "No cards available. Add some cards first!")
	default:
		slog.Error("Unhandled error in web shell", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return true
}

// handleIndex renders the main page.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		cards, err := s.db.AllCards()
		if err != nil {
			slog.Error("Failed to load cards for index", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		wrong, err := s.db.WrongCards()
		if err != nil {
			slog.Error("Failed to load wrong cards for index", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		data := map[string]any{
			"CardCount":  len(cards),
			"WrongCount": len(wrong),
			"ExportPath": s.cfg.Export,
		}
		s.templates.ExecuteTemplate(w, "index", data)
	}
}

// handleAddCard saves a manually entered card.
func (s *Server) handleAddCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		question := r.PostFormValue("question")
		answer := r.PostFormValue("answer")
		id, err := s.db.InsertCard(question, answer)
		if s.userError(w, err) {
			return
		}
		slog.Info("Card saved", "id", id)
		s.notify(w, "ok", "Card saved.")
	}
}

// handleStartReview starts a session over the chosen subset and renders the
// first card. An empty subset leaves any prior session untouched.
func (s *Server) handleStartReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		subset := review.All
		if r.PostFormValue("subset") == "wrong" {
			subset = review.WrongOnly
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		session, err := review.Start(s.db, subset, s.rng)
		if err != nil {
			if errors.Is(err, review.ErrNoCards) && subset == review.WrongOnly {
				s.notify(w, "warn", "No wrong cards available. Mark some cards as wrong first!")
				return
			}
			s.userError(w, err)
			return
		}
		s.session = session
		s.renderFront(w)
	}
}

// currentSession returns the active, unfinished session or nil.
// Caller must hold s.mu.
func (s *Server) currentSession() *review.Session {
	if s.session == nil || s.session.Done() {
		return nil
	}
	return s.session
}

// renderFront renders the question side of the current card, or the
// completion fragment when the session is over. Caller must hold s.mu.
func (s *Server) renderFront(w http.ResponseWriter) {
	if s.session == nil {
		s.notify(w, "warn", "No review in progress.")
		return
	}
	if s.session.Done() {
		total, err := s.session.CorrectTotal()
		if err != nil {
			slog.Error("Failed to count correct cards", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "review_done", map[string]any{"CorrectTotal": total})
		return
	}
	card := s.session.Current()
	s.templates.ExecuteTemplate(w, "card_front", map[string]any{
		"Card":      card,
		"Remaining": s.session.Remaining(),
		"Size":      s.session.Size(),
	})
}

// handleShowAnswer renders the back of the current card with the answer
// converted from Markdown.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		session := s.currentSession()
		if session == nil {
			s.notify(w, "warn", "No review in progress.")
			return
		}
		session.Reveal()
		card := session.Current()
		answerHTML, err := render.HTML(card.Answer)
		if err != nil {
			slog.Error("Failed to render answer", "card_id", card.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "card_back", map[string]any{
			"Card":       card,
			"AnswerHTML": answerHTML,
			"Remaining":  session.Remaining(),
			"Size":       session.Size(),
		})
	}
}

// handleShowQuestion flips back to the question side.
func (s *Server) handleShowQuestion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		session := s.currentSession()
		if session == nil {
			s.notify(w, "warn", "No review in progress.")
			return
		}
		session.Hide()
		s.renderFront(w)
	}
}

// handleMark records correct/wrong for the current card and shows the next
// one, or the completion fragment after the last card.
func (s *Server) handleMark() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		correct := r.PostFormValue("correct") == "1"

		s.mu.Lock()
		defer s.mu.Unlock()

		session := s.currentSession()
		if session == nil {
			s.notify(w, "warn", "No review in progress.")
			return
		}
		if err := session.Mark(correct); err != nil {
			s.userError(w, err)
			return
		}
		s.renderFront(w)
	}
}

// handleEdit rewrites the current card's text and re-renders its question
// side.
func (s *Server) handleEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		question := r.PostFormValue("question")
		answer := r.PostFormValue("answer")

		s.mu.Lock()
		defer s.mu.Unlock()

		session := s.currentSession()
		if session == nil {
			s.notify(w, "warn", "No review in progress.")
			return
		}
		if err := session.EditCurrent(question, answer); err != nil {
			s.userError(w, err)
			return
		}
		s.renderFront(w)
	}
}

// handleWrongList renders the list of cards currently flagged wrong.
func (s *Server) handleWrongList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.db.WrongCards()
		if err != nil {
			slog.Error("Failed to load wrong cards", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "wrong_list", map[string]any{"Cards": cards})
	}
}

// handleResetWrong clears the wrong flag on the selected cards and
// re-renders the list.
func (s *Server) handleResetWrong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		var ids []int64
		for _, v := range r.PostForm["id"] {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				http.Error(w, "Invalid card ID", http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}
		if err := s.db.ResetWrong(ids); err != nil {
			slog.Error("Failed to reset wrong flags", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.handleWrongList()(w, r)
	}
}

// handleImportStore imports cards from another flashcard database file.
func (s *Server) handleImportStore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := r.PostFormValue("path")
		if path == "" {
			s.notify(w, "warn", "Database path cannot be empty.")
			return
		}
		count, err := transfer.ImportStore(s.db, path)
		if s.userError(w, err) {
			return
		}
		slog.Info("Store import complete", "path", path, "rows_read", count)
		s.notify(w, "ok", fmt.Sprintf("Imported %d unique questions.", count))
	}
}

// handleImportDictionary imports cards from a pasted JSON dictionary blob.
func (s *Server) handleImportDictionary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		blob := r.PostFormValue("blob")
		if blob == "" {
			s.notify(w, "warn", "Dictionary string cannot be empty.")
			return
		}
		count, err := transfer.ImportDictionary(s.db, blob)
		if s.userError(w, err) {
			return
		}
		slog.Info("Dictionary import complete", "inserted", count)
		s.notify(w, "ok", fmt.Sprintf("Imported %d questions.", count))
	}
}

// handleImportDeck imports cards from a markdown deck file.
func (s *Server) handleImportDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := r.PostFormValue("path")
		if path == "" {
			s.notify(w, "warn", "Deck path cannot be empty.")
			return
		}
		count, err := transfer.ImportDeck(s.db, path)
		if s.userError(w, err) {
			return
		}
		slog.Info("Deck import complete", "path", path, "inserted", count)
		s.notify(w, "ok", fmt.Sprintf("Imported %d cards from deck.", count))
	}
}

// handleExport writes the CSV export to the configured path.
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := transfer.ExportCSVFile(s.db, s.cfg.Export); err != nil {
			slog.Error("CSV export failed", "path", s.cfg.Export, "error", err)
			s.notify(w, "warn", "Export failed: "+err.Error())
			return
		}
		slog.Info("CSV export complete", "path", s.cfg.Export)
		s.notify(w, "ok", "The CSV file has been successfully exported to "+s.cfg.Export+".")
	}
}

// handleExportDownload streams the CSV export as a download.
func (s *Server) handleExportDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="cards.csv"`)
		if err := transfer.ExportCSV(s.db, w); err != nil {
			slog.Error("CSV download failed", "error", err)
		}
	}
}
