package protocol

import (
	"errors"
	"fmt"
)

// ErrUnexpectedCommand marks a command that is not valid at this point of
// the conversation.
var ErrUnexpectedCommand = errors.New("unexpected command")

// Stage identifies which part of a LOGIN exchange failed.
type Stage int

const (
	StageCommand Stage = iota + 1
	StageLogin
	StagePassword
)

func (s Stage) String() string {
	switch s {
	case StageCommand:
		return "command"
	case StageLogin:
		return "login"
	case StagePassword:
		return "password"
	default:
		return "unknown"
	}
}

// StageError wraps a LOGIN exchange failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("login handshake (%s): %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
