package client

import (
	"errors"
	"fmt"
)

// Failure steps. Each step of a client operation that can fail has its own
// code so an operator can tell where a session broke.
const (
	StepAlreadyConnected = 101
	StepDial             = 102
	StepSendLogin        = 103
	StepSendUser         = 104
	StepSendPassword     = 105
	StepReadLoginReply   = 106
	StepLoginRefused     = 107

	StepValveNotAllowed = 201
	StepValveSendCmd    = 202
	StepValveSendParam  = 203
	StepValveReadReply  = 204
	StepValveRefused    = 205

	StepPumpNotAllowed = 301
	StepPumpSendCmd    = 302
	StepPumpSendParam  = 303
	StepPumpReadReply  = 304
	StepPumpRefused    = 305

	StepPollSend       = 401
	StepPollReadReply  = 402
	StepPollUnexpected = 403
	StepPollReadData   = 404
)

var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrNotAdmin         = errors.New("administrator privileges required")
	ErrRefused          = errors.New("request refused by server")
	ErrUnexpectedReply  = errors.New("unexpected reply")
)

// StepError is a client failure tagged with the step it happened in.
type StepError struct {
	Op   string
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %d: %v", e.Op, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(op string, step int, err error) error {
	return &StepError{Op: op, Step: step, Err: err}
}
