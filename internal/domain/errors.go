package domain

import "github.com/pkg/errors"

var (
	// ErrEmptyBank is returned when a question bank would hold no questions.
	ErrEmptyBank = errors.New("question bank is empty")
	// ErrInvalidQuestion indicates a question that cannot be carried on a single protocol line.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrQuestionOutOfRange is returned for an index outside the bank.
	ErrQuestionOutOfRange = errors.New("question index out of range")
)
