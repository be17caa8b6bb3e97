package sign

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

var _ round.Round = (*round4)(nil)

type round4 struct {
	*round3

	// SigmaShares[j] = σⱼ = m⋅kⱼ + χⱼ⋅R|ₓ
	SigmaShares map[party.ID]curve.Scalar

	// Delta = δ = ∑ⱼ δⱼ
	// computed from received shares
	Delta curve.Scalar

	// BigDelta = Δ = ∑ⱼ Δⱼ
	BigDelta curve.Point

	// R = [δ⁻¹] Γ
	BigR curve.Point

	// R = R|ₓ
	R curve.Scalar
}

type broadcast3 struct {
	round.NormalBroadcastContent
	SigmaShare curve.Scalar
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - save σⱼ
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}

	if body.SigmaShare == nil || body.SigmaShare.IsZero() {
		return errors.WithStack(round.ErrNilContent)
	}

	r.SigmaShares[msg.From] = body.SigmaShare
	return nil
}

// VerifyMessage implements round.Round.
func (round4) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round4) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - compute σ = ∑ⱼ σⱼ
// - normalize to a low s, and compute the recovery id
// - verify signature, and that the recovery id gives back the public key.
func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	// compute σ = ∑ⱼ σⱼ
	Sigma := r.Group().NewScalar()
	for _, j := range r.PartyIDs() {
		Sigma.Add(r.SigmaShares[j])
	}

	signature := &ecdsa.Signature{
		R: r.BigR,
		S: Sigma,
	}
	// σ > q/2 ⇒ (R, σ) ← (-R, q-σ)
	signature.Normalize()

	if !signature.Verify(r.PublicKey, r.Message) {
		return r.AbortRound(errors.WithStack(errSignature)), nil
	}

	R, S, v, err := signature.Compact()
	if err != nil {
		return r.AbortRound(errors.WithStack(errRecovery)), nil
	}
	recovered, err := ecdsa.RecoverPublicKey(r.Message, R, S, v)
	if err != nil || !recovered.Equal(r.PublicKey) {
		return r.AbortRound(errors.WithStack(errRecovery)), nil
	}

	return r.ResultRound(signature), nil
}

// MessageContent implements round.Round.
func (round4) MessageContent() round.Content { return nil }

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 3 }

// BroadcastContent implements round.BroadcastRound.
func (r *round4) BroadcastContent() round.BroadcastContent {
	return &broadcast3{
		SigmaShare: r.Group().NewScalar(),
	}
}

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }
