package postgres

import (
	"context"

	"quiz-server/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

// QuestionLoader loads the ordered question list from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT prompt, answer FROM questions ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, "query questions")
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.Prompt, &q.Answer); err != nil {
			return nil, errors.Wrap(err, "scan question")
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read questions")
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyBank
	}
	return questions, nil
}
