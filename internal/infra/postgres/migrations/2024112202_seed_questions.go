package migrations

import (
	"context"

	"quiz-server/internal/domain"

	"github.com/uptrace/bun"
)

// questionRow maps a row of the questions table.
type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	Position int    `bun:"position,pk"`
	Prompt   string `bun:"prompt,notnull"`
	Answer   string `bun:"answer,notnull"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			defaults := domain.DefaultQuestions()
			rows := make([]questionRow, len(defaults))
			for i, q := range defaults {
				rows[i] = questionRow{Position: i + 1, Prompt: q.Prompt, Answer: q.Answer}
			}
			_, err := db.NewInsert().Model(&rows).On("CONFLICT (position) DO NOTHING").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewDelete().Model((*questionRow)(nil)).Where("position <= ?", len(domain.DefaultQuestions())).Exec(ctx)
			return err
		},
	)
}
