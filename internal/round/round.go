package round

import (
	"errors"

	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// Round is the capability set a protocol round exposes to the engine.
// Protocol specific state lives in the concrete round structs, which embed their predecessor.
type Round interface {
	// VerifyMessage handles an incoming Message and validates its content against the current round.
	// The content argument can be cast to the appropriate type for this round without error check.
	// In the first round, this function returns nil.
	// This function should not modify any saved state as it may be be running concurrently.
	VerifyMessage(msg Message) error

	// StoreMessage should be called after VerifyMessage and should only store the appropriate fields from the
	// content.
	StoreMessage(msg Message) error

	// Finalize is called after all messages from the parties have been processed in the current round.
	// Messages for the next round are sent out through the out channel.
	// A returned error (like a failure to sample, hash, or send a message) ends the run.
	// Only the first round is different: its Finalize may be retried through PushSelf,
	// so it must leave its state untouched when it fails.
	//
	// If an abort occurs, the expected behavior is to return
	//   r.AbortRound(err, culprits), nil.
	// This indicates to the caller that the protocol has aborted due to a "math" error.
	//
	// In the last round, Finalize should return
	//   r.ResultRound(result), nil
	// where result is the output of the protocol.
	Finalize(out chan<- *Message) (Session, error)

	// MessageContent returns an uninitialized message.Content for this round.
	//
	// The first round of a protocol, and rounds which do not expect a point-to-point message, should return nil.
	MessageContent() Content

	// Number returns the index of the current round.
	Number() Number
}

// BroadcastRound extends Round in that it expects a broadcast message before the p2p message.
// Due to the way Go struct inheritance works, it is important to implement both methods below
// in rounds which expect a broadcast, and not only in the ones which receive one.
type BroadcastRound interface {
	// StoreBroadcastMessage must be run before Round.VerifyMessage and Round.StoreMessage,
	// since those may depend on the content from the broadcast.
	// It changes the round's state to store the message after performing basic validation.
	StoreBroadcastMessage(msg Message) error

	// BroadcastContent returns an uninitialized message.Content for this round's broadcast message.
	//
	// The first round of a protocol, and rounds which do not expect a broadcast message, should return nil.
	BroadcastContent() BroadcastContent
}

// Content represents the message, either broadcast or P2P returned by a round
// during finalization.
type Content interface {
	// RoundNumber is the index of the round which produced this content.
	RoundNumber() Number
}

// BroadcastContent wraps a Content, but also indicates whether this content requires reliable broadcast.
type BroadcastContent interface {
	Content
	Reliable() bool
}

// These structs can be embedded in a broadcast message as a way of
// 1. implementing BroadcastContent
// 2. indicate to the handler whether the content should be reliably broadcast
// When non-unanimous halting is acceptable, we can use the echo broadcast.
type (
	ReliableBroadcastContent struct{}
	NormalBroadcastContent   struct{}
)

func (ReliableBroadcastContent) Reliable() bool { return true }
func (NormalBroadcastContent) Reliable() bool   { return false }

// Message is the unit exchanged between a round and the engine.
// To is empty for broadcast messages.
type Message struct {
	From, To  party.ID
	Broadcast bool
	Content   Content
}

var (
	ErrOutChanFull      = errors.New("round: out channel is full")
	ErrNilContent       = errors.New("round: message contained empty fields")
	ErrInvalidContent   = errors.New("round: content is not the expected type")
	ErrUnexpectedSender = errors.New("round: message sender is not a participant")
)
