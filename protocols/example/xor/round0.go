package xor

import (
	"crypto/rand"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// Round0 can embed round.Helper which provides useful methods handling messages.
type Round0 struct {
	*round.Helper
}

// VerifyMessage in the first round does nothing since no messages are expected.
func (r *Round0) VerifyMessage(round.Message) error { return nil }

// StoreMessage in the first round does nothing since no messages are expected.
func (r *Round0) StoreMessage(round.Message) error { return nil }

// Finalize samples a random string and broadcasts a commitment to it.
func (r *Round0) Finalize(out chan<- *round.Message) (round.Session, error) {
	xor, err := types.NewRID(rand.Reader)
	if err != nil {
		// return the round since we did not actually abort due to malicious behaviour.
		return r, err
	}
	commitment, decommitment, err := r.HashForID(r.SelfID()).Commit(xor)
	if err != nil {
		return r, err
	}
	// send the message to all other parties, and marshal it using the helper method which sets the appropriate headers.
	if err = r.BroadcastMessage(out, &Broadcast1{Commitment: commitment}); err != nil {
		return r, err
	}

	return &Round1{
		Round0:       r,
		xor:          xor,
		decommitment: decommitment,
		commitments:  map[party.ID]hash.Commitment{},
	}, nil
}

// MessageContent returns nil, indicating that no message is expected.
func (Round0) MessageContent() round.Content { return nil }

// BroadcastContent returns nil, indicating that no broadcast is expected.
func (Round0) BroadcastContent() round.BroadcastContent { return nil }

// StoreBroadcastMessage implements round.BroadcastRound.
func (Round0) StoreBroadcastMessage(round.Message) error { return nil }

// Number implements round.Round.
func (Round0) Number() round.Number { return 0 }
