package keygen

import (
	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	zksch "github.com/taurusgroup/cmp-ecdsa/pkg/zk/sch"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round0

	// SelfShare = fᵢ(i)
	SelfShare curve.Scalar

	// PaillierSecret = (pᵢ, qᵢ)
	PaillierSecret *paillier.SecretKey

	// PedersenSecret = λᵢ
	// Used to generate the Pedersen parameters
	PedersenSecret *saferith.Nat

	// SchnorrRand = aᵢ
	// Randomness used to compute Schnorr commitment of proof of knowledge of secret share
	SchnorrRand *zksch.Randomness

	// Decommitment of the 2nd message
	Decommitment hash.Decommitment // uᵢ

	// Commitments[j] = H(Keygen2ⱼ ∥ Decommitments[j])
	Commitments map[party.ID]hash.Commitment

	// RIDs[j] = ridⱼ
	RIDs map[party.ID]types.RID
	// ChainKeys[j] = cⱼ
	ChainKeys map[party.ID]types.RID

	// VSSPolynomials[j] = Fⱼ(X) = fⱼ(X)•G
	VSSPolynomials map[party.ID]*polynomial.Exponent

	// SchnorrCommitments[j] = Aⱼ
	// Commitment for proof of knowledge in the last round
	SchnorrCommitments map[party.ID]*zksch.Commitment // Aⱼ

	// PaillierPublic[j] = Nⱼ
	PaillierPublic map[party.ID]*paillier.PublicKey

	// Pedersen[j] = (Nⱼ, sⱼ, tⱼ)
	Pedersen map[party.ID]*pedersen.Parameters
}

// broadcast1 is the message broadcast in round0 and received in round1.
type broadcast1 struct {
	round.ReliableBroadcastContent
	// Commitment = Vᵢ = H(ρᵢ, Fᵢ(X), Aᵢ, Nᵢ, sᵢ, tᵢ, uᵢ)
	Commitment hash.Commitment
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - save commitment Vⱼ.
func (r *round1) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast1)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if err := body.Commitment.Validate(); err != nil {
		return err
	}
	r.Commitments[msg.From] = body.Commitment
	return nil
}

// VerifyMessage implements round.Round.
func (round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - send all committed data.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	self := r.SelfID()
	ped := r.Pedersen[self]
	if err := r.BroadcastMessage(out, &broadcast2{
		RID:                r.RIDs[self],
		ChainKey:           r.ChainKeys[self],
		VSSPolynomial:      r.VSSPolynomials[self],
		SchnorrCommitments: r.SchnorrCommitments[self],
		N:                  ped.N().Nat(),
		S:                  ped.S(),
		T:                  ped.T(),
		Decommitment:       r.Decommitment,
	}); err != nil {
		return r, err
	}
	return &round2{round1: r}, nil
}

// RoundNumber implements round.Content.
func (broadcast1) RoundNumber() round.Number { return 0 }

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// BroadcastContent implements round.BroadcastRound.
func (round1) BroadcastContent() round.BroadcastContent { return &broadcast1{} }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
