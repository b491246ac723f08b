package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestQuestionAcceptsIgnoresCaseAndWhitespace(t *testing.T) {
	q := Question{Prompt: "What is the capital of Korea?", Answer: "Seoul"}
	for _, answer := range []string{"seoul", "Seoul", "SEOUL", "  seoul\t"} {
		require.True(t, q.Accepts(answer), "answer %q", answer)
	}
	require.False(t, q.Accepts("Busan"))
	require.False(t, q.Accepts(""))

	two := Question{Prompt: "What is 1+1?", Answer: "2"}
	require.True(t, two.Accepts("  2  "))
}

func TestNewQuestionBankValidates(t *testing.T) {
	_, err := NewQuestionBank(nil)
	require.ErrorIs(t, err, ErrEmptyBank)

	_, err = NewQuestionBank([]Question{{Prompt: "line one\nline two", Answer: "x"}})
	require.ErrorIs(t, err, ErrInvalidQuestion)

	_, err = NewQuestionBank([]Question{{Prompt: "ok", Answer: "a\r"}})
	require.ErrorIs(t, err, ErrInvalidQuestion)

	_, err = NewQuestionBank([]Question{{Prompt: "   ", Answer: "a"}})
	require.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestQuestionBankIsIsolatedFromSource(t *testing.T) {
	src := DefaultQuestions()
	bank, err := NewQuestionBank(src)
	require.NoError(t, err)
	require.Equal(t, 3, bank.Count())

	src[0].Answer = "Busan"
	q, err := bank.QuestionAt(0)
	require.NoError(t, err)
	require.Equal(t, "Seoul", q.Answer)
}

func TestQuestionAtOutOfRange(t *testing.T) {
	bank, err := NewQuestionBank(DefaultQuestions())
	require.NoError(t, err)

	for _, i := range []int{-1, 3, 100} {
		_, err := bank.QuestionAt(i)
		require.True(t, errors.Is(err, ErrQuestionOutOfRange), "index %d", i)
	}
}
