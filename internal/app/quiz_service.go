package app

import (
	"context"

	"quiz-server/internal/domain"
	"quiz-server/internal/protocol"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// QuestionLoader fetches the question list from a backing store (file, database, literal list).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// SessionTracker records which sessions are live and how finished ones ended.
type SessionTracker interface {
	Start(ctx context.Context, id, remote string) error
	Finish(ctx context.Context, outcome Outcome) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats is a snapshot of tracked sessions.
type Stats struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Abandoned int64 `json:"abandoned"`
}

// LoadBank builds the immutable question bank from loader.
func LoadBank(ctx context.Context, loader QuestionLoader) (*domain.QuestionBank, error) {
	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load questions failed")
	}
	bank, err := domain.NewQuestionBank(questions)
	if err != nil {
		return nil, errors.Wrap(err, "build question bank failed")
	}
	return bank, nil
}

// QuizService runs quiz sessions against a shared question bank.
type QuizService struct {
	bank    *domain.QuestionBank
	tracker SessionTracker
	policy  Policy
	logger  logrus.FieldLogger
}

func NewQuizService(bank *domain.QuestionBank, tracker SessionTracker, policy Policy, logger logrus.FieldLogger) *QuizService {
	return &QuizService{bank: bank, tracker: tracker, policy: policy, logger: logger}
}

// Bank returns the question bank shared by all sessions.
func (s *QuizService) Bank() *domain.QuestionBank {
	return s.bank
}

// Stats returns the tracker's current snapshot.
func (s *QuizService) Stats(ctx context.Context) (Stats, error) {
	return s.tracker.Stats(ctx)
}

// Serve runs a complete session on conn and closes conn on every exit path.
// Canceling ctx closes conn, which unblocks a pending read.
func (s *QuizService) Serve(ctx context.Context, id string, conn protocol.Conn) (Outcome, error) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	entry := s.logger.WithFields(logrus.Fields{"session": id, "remote": conn.RemoteAddr()})
	if err := s.tracker.Start(ctx, id, conn.RemoteAddr()); err != nil {
		entry.WithError(err).Warn("track session start failed")
	}
	entry.Info("session started")

	outcome, err := NewSession(id, s.bank, conn, s.policy, entry).Run(ctx)

	// tracking must outlive a canceled session context
	if terr := s.tracker.Finish(context.WithoutCancel(ctx), outcome); terr != nil {
		entry.WithError(terr).Warn("track session finish failed")
	}

	entry = entry.WithFields(logrus.Fields{
		"score":    outcome.Score,
		"answered": outcome.Answered,
		"total":    outcome.Total,
	})
	switch {
	case err == nil:
		entry.Info("session completed")
	case errors.Is(err, ErrPeerGone), ctx.Err() != nil:
		entry.WithError(err).Info("session abandoned")
	default:
		entry.WithError(err).Warn("session aborted")
	}
	return outcome, err
}
