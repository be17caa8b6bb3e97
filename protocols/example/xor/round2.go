package xor

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/params"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// Result is the jointly sampled string.
type Result types.RID

// Round2 embeds Round1 so that it has access to previous information.
type Round2 struct {
	*Round1
	// received holds all xor values received from other parties
	received map[party.ID]types.RID
}

// Message2 is the message sent in Round1 and received in Round2.
type Message2 struct {
	XOR          types.RID
	Decommitment hash.Decommitment
}

// VerifyMessage checks the revealed value against the commitment of the sender.
func (r *Round2) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*Message2)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}

	if len(body.XOR) != params.SecBytes {
		return errors.New("xor should be 32 bytes long")
	}
	if err := body.Decommitment.Validate(); err != nil {
		return errors.WithStack(err)
	}
	if !r.HashForID(msg.From).Decommit(r.commitments[msg.From], body.Decommitment, body.XOR) {
		return errors.New("failed to decommit")
	}
	return nil
}

// StoreMessage saves any relevant data from the content, in this case the sender's xor value.
func (r *Round2) StoreMessage(msg round.Message) error {
	from, body := msg.From, msg.Content.(*Message2)
	r.received[from] = body.XOR
	return nil
}

// Finalize does not send any messages, but computes the output resulting from the received messages.
func (r *Round2) Finalize(chan<- *round.Message) (round.Session, error) {
	resultXOR := types.EmptyRID()
	for _, received := range r.received {
		resultXOR.XOR(received)
	}
	return r.ResultRound(Result(resultXOR)), nil
}

// RoundNumber implements round.Content.
func (Message2) RoundNumber() round.Number { return 1 }

// StoreBroadcastMessage implements round.BroadcastRound.
func (Round2) StoreBroadcastMessage(round.Message) error { return nil }

// BroadcastContent implements round.BroadcastRound.
func (Round2) BroadcastContent() round.BroadcastContent { return nil }

// MessageContent implements round.Round.
func (Round2) MessageContent() round.Content { return &Message2{} }

// Number implements round.Round.
func (Round2) Number() round.Number { return 2 }
