package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// Question is a single prompt and the answer that grades as correct.
type Question struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	Answer string `json:"answer" yaml:"answer"`
}

// Accepts reports whether answer matches the expected answer, ignoring case
// and surrounding whitespace.
func (q Question) Accepts(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer))
}

func (q Question) validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.Wrap(ErrInvalidQuestion, "prompt is empty")
	}
	if strings.ContainsAny(q.Prompt, "\r\n") {
		return errors.Wrapf(ErrInvalidQuestion, "prompt %q spans multiple lines", q.Prompt)
	}
	if strings.ContainsAny(q.Answer, "\r\n") {
		return errors.Wrapf(ErrInvalidQuestion, "answer for %q spans multiple lines", q.Prompt)
	}
	return nil
}

// QuestionBank is the fixed, ordered set of questions every session walks
// through. It has no mutation API and is safe to share between goroutines.
type QuestionBank struct {
	questions []Question
}

// NewQuestionBank copies questions into a new bank. The bank must be non-empty
// and every prompt must fit on one protocol line.
func NewQuestionBank(questions []Question) (*QuestionBank, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	cpy := make([]Question, len(questions))
	for i, q := range questions {
		if err := q.validate(); err != nil {
			return nil, errors.Wrapf(err, "question %d", i)
		}
		cpy[i] = q
	}
	return &QuestionBank{questions: cpy}, nil
}

// Count returns the number of questions in the bank.
func (b *QuestionBank) Count() int {
	return len(b.questions)
}

// QuestionAt returns the question at index i.
func (b *QuestionBank) QuestionAt(i int) (Question, error) {
	if i < 0 || i >= len(b.questions) {
		return Question{}, errors.Wrapf(ErrQuestionOutOfRange, "index %d of %d", i, len(b.questions))
	}
	return b.questions[i], nil
}

// DefaultQuestions is the built-in question list used when no other source is configured.
func DefaultQuestions() []Question {
	return []Question{
		{Prompt: "What is the capital of Korea?", Answer: "Seoul"},
		{Prompt: "What is 1 + 1?", Answer: "2"},
		{Prompt: "What subject are you currently taking?", Answer: "Computer network"},
	}
}
