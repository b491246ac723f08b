package app

import "github.com/pkg/errors"

var (
	// ErrPeerGone indicates the peer closed its stream before the session completed.
	ErrPeerGone = errors.New("peer disconnected")
	// ErrAnswerTimeout indicates the peer did not answer within the session policy's timeout.
	ErrAnswerTimeout = errors.New("answer timed out")
	// ErrTooManyInvalidLines indicates the peer sent too many lines that were not answers.
	ErrTooManyInvalidLines = errors.New("too many invalid lines")
)
