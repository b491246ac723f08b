// Package protocol implements the line-oriented quiz wire protocol.
//
// Every message is one line of the form TAG:payload terminated by '\n'.
// The server sends QUESTION, RESULT, SCORE and FINAL_SCORE; the client
// sends ANSWER. SCORE and FINAL_SCORE carry a decimal integer, the others
// carry raw text that may not contain a line terminator.
package protocol

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Tag identifies the type of a wire message.
type Tag string

const (
	TagQuestion   Tag = "QUESTION"
	TagAnswer     Tag = "ANSWER"
	TagResult     Tag = "RESULT"
	TagScore      Tag = "SCORE"
	TagFinalScore Tag = "FINAL_SCORE"
)

// Delimiter separates a tag from its payload.
const Delimiter = ":"

// Grading outcomes carried by RESULT.
const (
	ResultCorrect   = "Correct!"
	ResultIncorrect = "Incorrect!"
)

var (
	// ErrUnrecognizedMessage is returned by Decode for a line with no known tag.
	ErrUnrecognizedMessage = errors.New("unrecognized message")
	// ErrMalformedPayload is returned by Decode when a known tag carries an unusable payload.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidPayload is returned by Encode for text that would break line framing.
	ErrInvalidPayload = errors.New("payload contains a line terminator")
)

// decodeOrder is the order in which tags are matched against a line.
var decodeOrder = []Tag{TagQuestion, TagResult, TagScore, TagFinalScore, TagAnswer}

// Message is a single protocol message. Text is set for QUESTION, ANSWER and
// RESULT; Score is set for SCORE and FINAL_SCORE.
type Message struct {
	Tag   Tag
	Text  string
	Score int
}

func Question(prompt string) Message { return Message{Tag: TagQuestion, Text: prompt} }

func Answer(text string) Message { return Message{Tag: TagAnswer, Text: text} }

func Score(score int) Message { return Message{Tag: TagScore, Score: score} }

func FinalScore(score int) Message { return Message{Tag: TagFinalScore, Score: score} }

// Result builds the RESULT message for a graded answer.
func Result(correct bool) Message {
	if correct {
		return Message{Tag: TagResult, Text: ResultCorrect}
	}
	return Message{Tag: TagResult, Text: ResultIncorrect}
}

// Correct reports whether a RESULT message announces a correct answer.
func (m Message) Correct() bool {
	return m.Tag == TagResult && m.Text == ResultCorrect
}

func (m Message) hasScore() bool {
	return m.Tag == TagScore || m.Tag == TagFinalScore
}

// String renders the message as it appears on the wire, without the line terminator.
func (m Message) String() string {
	if m.hasScore() {
		return string(m.Tag) + Delimiter + strconv.Itoa(m.Score)
	}
	return string(m.Tag) + Delimiter + m.Text
}

// Encode returns the wire line for m, without the trailing newline.
func Encode(m Message) (string, error) {
	switch m.Tag {
	case TagQuestion, TagAnswer, TagResult:
		if strings.ContainsAny(m.Text, "\r\n") {
			return "", errors.Wrapf(ErrInvalidPayload, "encode %s", m.Tag)
		}
	case TagScore, TagFinalScore:
	default:
		return "", errors.Wrapf(ErrUnrecognizedMessage, "encode tag %q", m.Tag)
	}
	return m.String(), nil
}

// Decode parses one line (without its terminator) into a Message. A line
// with no known tag yields ErrUnrecognizedMessage.
func Decode(line string) (Message, error) {
	for _, tag := range decodeOrder {
		prefix := string(tag) + Delimiter
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		payload := line[len(prefix):]
		msg := Message{Tag: tag}
		if msg.hasScore() {
			score, err := strconv.Atoi(strings.TrimSpace(payload))
			if err != nil || score < 0 {
				return Message{}, errors.Wrapf(ErrMalformedPayload, "%s score %q", tag, payload)
			}
			msg.Score = score
			return msg, nil
		}
		msg.Text = payload
		return msg, nil
	}
	return Message{}, errors.Wrapf(ErrUnrecognizedMessage, "line %q", truncate(line, 64))
}

// IsDecodeError reports whether err came from decoding a line rather than
// from the underlying stream.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrUnrecognizedMessage) || errors.Is(err, ErrMalformedPayload)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
