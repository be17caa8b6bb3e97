package protocol

import (
	"fmt"
	"strings"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// Code classifies an entry of the error log of a Context.
// The numeric values are stable and may be persisted or exported.
type Code uint8

const (
	// CodeRoundMismatch indicates a message for a round other than the one preceding the current round.
	CodeRoundMismatch Code = iota + 1
	// CodeUnknownSender indicates a message from a party outside the session.
	CodeUnknownSender
	// CodeDuplicate indicates a second message from the same sender for the same round.
	CodeDuplicate
	// CodeMalformed indicates a missing or unexpected payload, or a payload bound to another session.
	CodeMalformed
	// CodeDecode indicates a payload which could not be decoded into the round's content.
	CodeDecode
	// CodeVerify indicates a message which failed the round's verification.
	CodeVerify
	// CodeCompute indicates a failure of the local computation at the end of a round.
	CodeCompute
	// CodeAbort indicates that the protocol aborted, possibly blaming some parties.
	CodeAbort
)

var codeNames = map[Code]string{
	CodeRoundMismatch: "round mismatch",
	CodeUnknownSender: "unknown sender",
	CodeDuplicate:     "duplicate",
	CodeMalformed:     "malformed",
	CodeDecode:        "decode",
	CodeVerify:        "verify",
	CodeCompute:       "compute",
	CodeAbort:         "abort",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

// Poisons returns true if an error with this code ends the run.
// Structural rejections leave the Context untouched.
func (c Code) Poisons() bool {
	return c >= CodeDecode
}

// Error is a custom error for protocols which contains information about the responsible round in which it occurred,
// and the parties responsible.
type Error struct {
	// Code classifies the failure.
	Code Code
	// Round where the error occurred
	Round round.Number
	// Culprits is empty if the identity of the misbehaving party cannot be known
	Culprits []party.ID
	// Err is the underlying error, it carries a stack trace printed with %+v.
	Err error
}

func (e Error) Error() string {
	if len(e.Culprits) == 0 {
		return fmt.Sprintf("round %d: %s: %s", e.Round, e.Code, e.Err)
	}
	culprits := make([]string, 0, len(e.Culprits))
	for _, id := range e.Culprits {
		culprits = append(culprits, string(id))
	}
	return fmt.Sprintf("round %d: %s: culprits [%s]: %s", e.Round, e.Code, strings.Join(culprits, ", "), e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

// Format prints the full causal chain, including the stack trace, with %+v.
func (e Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "round %d: %s: culprits %v\n%+v", e.Round, e.Code, e.Culprits, e.Err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// MessageError indicates that a message does not pass structural validation.
type MessageError string

const (
	ErrMessageDuplicate      MessageError = "message was already handled"
	ErrMessageUnknownSender  MessageError = "unknown sender"
	ErrMessageWrongSSID      MessageError = "SSID mismatch"
	ErrMessageRoundMismatch  MessageError = "message is not from the preceding round"
	ErrMessageMissingPayload MessageError = "required payload is missing"
	ErrMessageUnexpected     MessageError = "payload is not expected in this round"
	ErrMessageInconsistent   MessageError = "declared round is inconsistent with content"
	ErrMessageMultipleBcast  MessageError = "round produced more than one broadcast"
	ErrMessageNotDeliverable MessageError = "round produced a message for an unknown party"
)

// Error implements error.
func (err MessageError) Error() string {
	return "message: " + string(err)
}
