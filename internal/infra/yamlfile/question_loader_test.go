package yamlfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quiz-server/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestLoadQuestionsKeepsFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`questions:
  - prompt: What is 1+1?
    answer: "2"
  - prompt: What is the capital of Korea?
    answer: Seoul
`), 0o600))

	questions, err := NewQuestionLoader(path).LoadQuestions(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Question{
		{Prompt: "What is 1+1?", Answer: "2"},
		{Prompt: "What is the capital of Korea?", Answer: "Seoul"},
	}, questions)
}

func TestLoadQuestionsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewQuestionLoader(filepath.Join(dir, "missing.yaml")).LoadQuestions(context.Background())
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("questions: []\n"), 0o600))
	_, err = NewQuestionLoader(empty).LoadQuestions(context.Background())
	require.ErrorIs(t, err, domain.ErrEmptyBank)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("questions: [\n"), 0o600))
	_, err = NewQuestionLoader(broken).LoadQuestions(context.Background())
	require.Error(t, err)
}
