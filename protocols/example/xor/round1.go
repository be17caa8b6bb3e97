package xor

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// Round1 embeds Round0 so that it has access to previous information.
type Round1 struct {
	*Round0
	xor          types.RID
	decommitment hash.Decommitment
	// commitments holds the commitment of every other party
	commitments map[party.ID]hash.Commitment
}

// Broadcast1 is the message broadcast in Round0 and received in Round1.
type Broadcast1 struct {
	round.ReliableBroadcastContent
	Commitment hash.Commitment
}

// StoreBroadcastMessage saves the commitment of the sender.
func (r *Round1) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*Broadcast1)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if err := body.Commitment.Validate(); err != nil {
		return err
	}
	r.commitments[msg.From] = body.Commitment
	return nil
}

// VerifyMessage implements round.Round.
func (Round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (Round1) StoreMessage(round.Message) error { return nil }

// Finalize reveals the random string to every party individually.
func (r *Round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	for _, id := range r.OtherPartyIDs() {
		if err := r.SendMessage(out, &Message2{XOR: r.xor, Decommitment: r.decommitment}, id); err != nil {
			return r, err
		}
	}
	return &Round2{
		Round1:   r,
		received: map[party.ID]types.RID{r.SelfID(): r.xor},
	}, nil
}

// RoundNumber implements round.Content.
func (Broadcast1) RoundNumber() round.Number { return 0 }

// MessageContent implements round.Round.
func (Round1) MessageContent() round.Content { return nil }

// BroadcastContent implements round.BroadcastRound.
func (Round1) BroadcastContent() round.BroadcastContent { return &Broadcast1{} }

// Number implements round.Round.
func (Round1) Number() round.Number { return 1 }
