// Package chat answers free-text questions about the academic rulebook.
package chat

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

const (
	// NoAnswer is shown when the backend replied without an answer.
	NoAnswer = "Sorry, I didn't get a response from the server."
	// NotFound is what the rulebook assistant says when nothing matches.
	NotFound = "I cannot find the answer in the provided information."
)

var (
	ErrEmptyQuestion = errors.New("no question provided")
	ErrUnreachable   = errors.New("chat server not reachable")
)

// Asker answers one question; there is no conversation state.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

func cleanQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrEmptyQuestion
	}
	return q, nil
}
