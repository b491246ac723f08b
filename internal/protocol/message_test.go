package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		msg  Message
		want string
	}{
		{Question("What is 1+1?"), "QUESTION:What is 1+1?"},
		{Answer(" 2 "), "ANSWER: 2 "},
		{Result(true), "RESULT:Correct!"},
		{Result(false), "RESULT:Incorrect!"},
		{Score(3), "SCORE:3"},
		{FinalScore(0), "FINAL_SCORE:0"},
	}
	for _, tc := range cases {
		got, err := Encode(tc.msg)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestEncodeRejectsLineTerminators(t *testing.T) {
	_, err := Encode(Question("two\nlines"))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Encode(Answer("carriage\rreturn"))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Encode(Message{Tag: "HELLO", Text: "x"})
	require.ErrorIs(t, err, ErrUnrecognizedMessage)
}

func TestDecode(t *testing.T) {
	cases := []struct {
		line string
		want Message
	}{
		{"QUESTION:What is the capital of Korea?", Question("What is the capital of Korea?")},
		{"ANSWER:  seoul ", Answer("  seoul ")},
		{"ANSWER:", Answer("")},
		{"RESULT:Correct!", Result(true)},
		{"SCORE:2", Score(2)},
		{"FINAL_SCORE:10", FinalScore(10)},
		{"QUESTION:a:b:c", Question("a:b:c")},
	}
	for _, tc := range cases {
		got, err := Decode(tc.line)
		require.NoError(t, err, tc.line)
		require.Equal(t, tc.want, got, tc.line)
	}
}

func TestDecodeUnrecognized(t *testing.T) {
	for _, line := range []string{"FOO:bar", "", "answer:lowercase", "ANSWER", "SCORE 1"} {
		_, err := Decode(line)
		require.ErrorIs(t, err, ErrUnrecognizedMessage, line)
		require.True(t, IsDecodeError(err))
	}
}

func TestDecodeMalformedScore(t *testing.T) {
	for _, line := range []string{"SCORE:abc", "FINAL_SCORE:", "SCORE:-1"} {
		_, err := Decode(line)
		require.ErrorIs(t, err, ErrMalformedPayload, line)
		require.True(t, IsDecodeError(err))
	}
}

func TestResultCorrect(t *testing.T) {
	require.True(t, Result(true).Correct())
	require.False(t, Result(false).Correct())
	require.False(t, Answer(ResultCorrect).Correct())
}
