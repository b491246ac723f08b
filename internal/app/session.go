package app

import (
	"context"
	"io"
	"net"
	"os"
	"time"

	"quiz-server/internal/domain"
	"quiz-server/internal/protocol"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State is a step of the quiz session state machine.
type State int

const (
	StateAwaitingStart State = iota
	StateSentQuestion
	StateAwaitingAnswer
	StateGraded
	StateComplete
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "AWAITING_START"
	case StateSentQuestion:
		return "SENT_QUESTION"
	case StateAwaitingAnswer:
		return "AWAITING_ANSWER"
	case StateGraded:
		return "GRADED"
	case StateComplete:
		return "COMPLETE"
	case StateAbandoned:
		return "ABANDONED"
	default:
		return "UNKNOWN"
	}
}

// Policy bounds how long and how patiently a session waits for answers.
// The zero value waits forever and ignores any number of non-answer lines.
type Policy struct {
	AnswerTimeout   time.Duration
	MaxInvalidLines int
}

// Outcome summarizes a finished session.
type Outcome struct {
	ID       string
	State    State
	Score    int
	Answered int
	Total    int
}

// Completed reports whether the session reached the final score.
func (o Outcome) Completed() bool {
	return o.State == StateComplete
}

// Session drives one peer through the question bank. A Session is owned by a
// single goroutine and must not be shared.
type Session struct {
	id     string
	bank   *domain.QuestionBank
	conn   protocol.Conn
	policy Policy
	logger logrus.FieldLogger
	now    func() time.Time

	state   State
	cursor  int
	score   int
	invalid int
	answer  string
}

// NewSession binds a session to bank and conn. It does not take ownership of conn.
func NewSession(id string, bank *domain.QuestionBank, conn protocol.Conn, policy Policy, logger logrus.FieldLogger) *Session {
	return &Session{
		id:     id,
		bank:   bank,
		conn:   conn,
		policy: policy,
		logger: logger,
		now:    time.Now,
		state:  StateAwaitingStart,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// Cursor returns the index of the current question.
func (s *Session) Cursor() int { return s.cursor }

// Run executes the state machine until the final score is sent or the
// session is abandoned. A returned error always leaves the session in
// StateAbandoned; nothing is reported to the peer.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	for s.state != StateComplete {
		if err := ctx.Err(); err != nil {
			return s.abandon(errors.Wrap(err, "session canceled"))
		}
		if err := s.step(); err != nil {
			return s.abandon(err)
		}
	}
	if err := s.conn.WriteMessage(protocol.FinalScore(s.score)); err != nil {
		return s.abandon(errors.Wrap(err, "send final score failed"))
	}
	return s.outcome(), nil
}

func (s *Session) step() error {
	switch s.state {
	case StateAwaitingStart:
		s.state = StateSentQuestion
	case StateSentQuestion:
		q, err := s.bank.QuestionAt(s.cursor)
		if err != nil {
			return err
		}
		if err := s.conn.WriteMessage(protocol.Question(q.Prompt)); err != nil {
			return errors.Wrapf(err, "send question %d failed", s.cursor)
		}
		s.invalid = 0
		s.state = StateAwaitingAnswer
	case StateAwaitingAnswer:
		answer, err := s.awaitAnswer()
		if err != nil {
			return err
		}
		s.answer = answer
		s.state = StateGraded
	case StateGraded:
		return s.grade()
	default:
		return errors.Errorf("unexpected session state %s", s.state)
	}
	return nil
}

// awaitAnswer blocks until an ANSWER line arrives. Other lines are skipped
// without advancing the cursor, subject to the policy's invalid line limit.
func (s *Session) awaitAnswer() (string, error) {
	if s.policy.AnswerTimeout > 0 {
		if err := s.conn.SetReadDeadline(s.now().Add(s.policy.AnswerTimeout)); err != nil {
			return "", errors.Wrap(err, "set answer deadline failed")
		}
		defer s.conn.SetReadDeadline(time.Time{})
	}
	for {
		msg, err := s.conn.ReadMessage()
		switch {
		case err == nil && msg.Tag == protocol.TagAnswer:
			return msg.Text, nil
		case err == nil || protocol.IsDecodeError(err):
			s.invalid++
			s.logger.WithFields(logrus.Fields{
				"session":  s.id,
				"question": s.cursor,
				"invalid":  s.invalid,
			}).WithError(err).Debug("ignoring line that is not an answer")
			if s.policy.MaxInvalidLines > 0 && s.invalid >= s.policy.MaxInvalidLines {
				return "", errors.Wrapf(ErrTooManyInvalidLines, "%d lines for question %d", s.invalid, s.cursor)
			}
		case errors.Is(err, io.EOF):
			return "", ErrPeerGone
		case isTimeout(err):
			return "", errors.Wrapf(ErrAnswerTimeout, "question %d after %s", s.cursor, s.policy.AnswerTimeout)
		default:
			return "", errors.Wrap(err, "receive answer failed")
		}
	}
}

func (s *Session) grade() error {
	q, err := s.bank.QuestionAt(s.cursor)
	if err != nil {
		return err
	}
	correct := q.Accepts(s.answer)
	s.cursor++
	if correct {
		s.score++
	}
	if err := s.conn.WriteMessage(protocol.Result(correct)); err != nil {
		return errors.Wrap(err, "send result failed")
	}
	if err := s.conn.WriteMessage(protocol.Score(s.score)); err != nil {
		return errors.Wrap(err, "send score failed")
	}
	if s.cursor < s.bank.Count() {
		s.state = StateSentQuestion
	} else {
		s.state = StateComplete
	}
	return nil
}

func (s *Session) abandon(err error) (Outcome, error) {
	s.state = StateAbandoned
	return s.outcome(), err
}

func (s *Session) outcome() Outcome {
	return Outcome{
		ID:       s.id,
		State:    s.state,
		Score:    s.score,
		Answered: s.cursor,
		Total:    s.bank.Count(),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
