package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/anamite/open-flashcard/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
)

// ParseFile reads a deck file from the given path and extracts all pairs.
func ParseFile(path string) ([]domain.CardInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a markdown deck from r and extracts all question-answer pairs.
// A pair is a "Q:" block followed by an "A:" block; blocks may span multiple
// lines and are separated from the next pair by "---" or the next "Q:".
// Pairs missing either side are dropped.
func Parse(r io.Reader) ([]domain.CardInput, error) {
	scanner := bufio.NewScanner(r)
	var pairs []domain.CardInput
	var current domain.CardInput
	var block []string
	currentState := seeking

	closeBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		}
		block = nil
	}

	finishPair := func() {
		closeBlock()
		if strings.TrimSpace(current.Question) != "" && strings.TrimSpace(current.Answer) != "" {
			pairs = append(pairs, current)
		}
		current = domain.CardInput{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishPair()
		case strings.HasPrefix(line, questionPrefix):
			if currentState != seeking { // a new question starts a new pair
				finishPair()
			}
			currentState = readingQuestion
			block = append(block, strings.TrimPrefix(strings.TrimPrefix(line, questionPrefix), " "))
		case strings.HasPrefix(line, answerPrefix):
			closeBlock()
			currentState = readingAnswer
			block = append(block, strings.TrimPrefix(strings.TrimPrefix(line, answerPrefix), " "))
		default:
			if currentState != seeking {
				block = append(block, line)
			}
		}
	}

	finishPair() // finish the very last pair in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return pairs, nil
}
