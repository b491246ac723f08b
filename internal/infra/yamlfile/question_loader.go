// Package yamlfile loads the question bank from a YAML document:
//
//	questions:
//	  - prompt: What is the capital of Korea?
//	    answer: Seoul
package yamlfile

import (
	"context"
	"os"

	"quiz-server/internal/domain"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type document struct {
	Questions []domain.Question `yaml:"questions"`
}

// QuestionLoader reads questions from a YAML file each time it is asked.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, errors.Wrap(err, "read question file")
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse question file %s", l.path)
	}
	if len(doc.Questions) == 0 {
		return nil, errors.Wrapf(domain.ErrEmptyBank, "no questions in %s", l.path)
	}
	return doc.Questions, nil
}
