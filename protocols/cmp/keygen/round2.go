package keygen

import (
	"fmt"

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
	zkmod "github.com/taurusgroup/cmp-ecdsa/pkg/zk/mod"
	zkprm "github.com/taurusgroup/cmp-ecdsa/pkg/zk/prm"
	zksch "github.com/taurusgroup/cmp-ecdsa/pkg/zk/sch"
)

var _ round.Round = (*round2)(nil)

type round2 struct {
	*round1
}

// broadcast2 reveals the data committed to in round0.
type broadcast2 struct {
	round.NormalBroadcastContent
	// RID = RIDᵢ
	RID types.RID
	// ChainKey = cᵢ
	ChainKey types.RID
	// VSSPolynomial = Fᵢ(X) VSSPolynomial
	VSSPolynomial *polynomial.Exponent
	// SchnorrCommitments = Aᵢ Schnorr commitment for the final confirmation
	SchnorrCommitments *zksch.Commitment
	// N Paillier and Pedersen N = p•q, p ≡ q ≡ 3 mod 4
	N *saferith.Nat
	// S = r² mod N
	S *saferith.Nat
	// T = Sˡ mod N
	T *saferith.Nat
	// Decommitment = uᵢ decommitment bytes
	Decommitment hash.Decommitment
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify length of Schnorr commitments
// - verify degree of VSS polynomial Fⱼ "in-the-exponent"
//   - if keygen, verify Fⱼ(0) != ∞
//   - if refresh, verify Fⱼ(0) == ∞
//
// - validate Paillier
// - validate Pedersen
// - validate commitments.
// - store ridⱼ, Cⱼ, Nⱼ, Sⱼ, Tⱼ, Fⱼ(X), Aⱼ.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}

	// check nil
	if body.N == nil || body.S == nil || body.T == nil || body.VSSPolynomial == nil {
		return errors.WithStack(round.ErrNilContent)
	}
	// check RID length
	if err := body.RID.Validate(); err != nil {
		return fmt.Errorf("rid: %w", err)
	}
	if err := body.ChainKey.Validate(); err != nil {
		return fmt.Errorf("chainkey: %w", err)
	}
	// check decommitment
	if err := body.Decommitment.Validate(); err != nil {
		return err
	}
	if !body.SchnorrCommitments.IsValid() {
		return errors.WithStack(round.ErrNilContent)
	}

	// Save all X, VSSCommitments
	VSSPolynomial := body.VSSPolynomial
	// check that the constant coefficient is 0
	// if refresh then the polynomial is constant
	if r.isRefresh() != VSSPolynomial.IsConstant {
		return errors.WithStack(errVSSConstant)
	}
	// check deg(Fⱼ) = t-1
	if VSSPolynomial.Degree() != r.Threshold()-1 {
		return errors.WithStack(errVSSDegree)
	}
	if !VSSPolynomial.IsConstant && VSSPolynomial.Constant().IsIdentity() {
		return errors.WithStack(errVSSConstant)
	}

	// Set Paillier
	N := saferith.ModulusFromNat(body.N)
	if err := paillier.ValidateN(N); err != nil {
		return errors.WithStack(fmt.Errorf("%w: %v", errPaillier, err))
	}

	// Verify Pedersen
	if err := pedersen.ValidateParameters(N, body.S, body.T); err != nil {
		return errors.WithStack(fmt.Errorf("%w: %v", errPedersen, err))
	}
	// Verify decommit
	if !r.HashForID(from).Decommit(r.Commitments[from], body.Decommitment,
		body.RID, body.ChainKey, VSSPolynomial, body.SchnorrCommitments, N, body.S, body.T) {
		return errors.WithStack(errDecommit)
	}

	paillierPublic := paillier.NewPublicKey(N)
	r.RIDs[from] = body.RID
	r.ChainKeys[from] = body.ChainKey
	r.PaillierPublic[from] = paillierPublic
	r.Pedersen[from] = pedersen.New(paillierPublic.Modulus(), body.S, body.T)
	r.VSSPolynomials[from] = body.VSSPolynomial
	r.SchnorrCommitments[from] = body.SchnorrCommitments
	return nil
}

// VerifyMessage implements round.Round.
func (round2) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round2) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - set rid = ⊕ⱼ ridⱼ and update hash state
// - prove Nᵢ is Blum
// - prove Pedersen parameters
// - send proofs and encryption of share for Pⱼ.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	// c = ⊕ⱼ cⱼ
	chainKey := r.PreviousChainKey
	if chainKey == nil {
		chainKey = types.EmptyRID()
		for _, j := range r.PartyIDs() {
			chainKey.XOR(r.ChainKeys[j])
		}
	}
	// RID = ⊕ⱼ RIDⱼ
	rid := types.EmptyRID()
	for _, j := range r.PartyIDs() {
		rid.XOR(r.RIDs[j])
	}

	// Write rid to the hash state
	r.UpdateHashState(rid)

	self := r.SelfID()
	ped := r.Pedersen[self]
	// Prove N is a blum prime with zkmod
	mod := zkmod.NewProof(r.HashForID(self), zkmod.Private{
		P:   r.PaillierSecret.P(),
		Q:   r.PaillierSecret.Q(),
		Phi: r.PaillierSecret.Phi(),
	}, zkmod.Public{N: ped.N()}, r.Pool)

	// prove s, t are correct as aux parameters with zkprm
	prm := zkprm.NewProof(zkprm.Private{
		Lambda: r.PedersenSecret,
		Phi:    r.PaillierSecret.Phi(),
		P:      r.PaillierSecret.P(),
		Q:      r.PaillierSecret.Q(),
	}, r.HashForID(self), zkprm.Public{N: ped.N(), S: ped.S(), T: ped.T()}, r.Pool)

	if err := r.BroadcastMessage(out, &broadcast3{
		Mod: mod,
		Prm: prm,
	}); err != nil {
		return r, err
	}

	// create messages with encrypted shares
	for _, j := range r.OtherPartyIDs() {
		// compute fᵢ(j)
		share := r.VSSSecret.Evaluate(j.Scalar(r.Group()))
		// Encrypt share
		C, _ := r.PaillierPublic[j].Enc(curve.MakeInt(share))

		if err := r.SendMessage(out, &message3{Share: C}, j); err != nil {
			return r, err
		}
	}

	return &round3{
		round2:        r,
		RID:           rid,
		ChainKey:      chainKey,
		ShareReceived: map[party.ID]curve.Scalar{self: r.SelfShare},
	}, nil
}

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 1 }

// MessageContent implements round.Round.
func (round2) MessageContent() round.Content { return nil }

// BroadcastContent implements round.BroadcastRound.
func (r *round2) BroadcastContent() round.BroadcastContent {
	return &broadcast2{
		VSSPolynomial:      polynomial.EmptyExponent(r.Group()),
		SchnorrCommitments: zksch.EmptyCommitment(r.Group()),
	}
}

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }
