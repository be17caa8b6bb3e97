package recovery

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

var _ round.Round = (*round2)(nil)

type round2 struct {
	*round1

	// Sigmas[j] = σⱼ, only filled in by the lost party
	Sigmas map[party.ID]curve.Scalar
}

type message2 struct {
	// Sigma = σⱼ = ∑ᵢ δᵢⱼ
	Sigma curve.Scalar
}

// StoreBroadcastMessage implements round.BroadcastRound.
func (round2) StoreBroadcastMessage(round.Message) error { return nil }

// VerifyMessage implements round.Round.
//
// - the lost party checks that σⱼ⋅G = ∑ᵢ δᵢⱼ⋅G.
func (r *round2) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*message2)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if body.Sigma == nil {
		return errors.WithStack(round.ErrNilContent)
	}
	if r.SelfID() != r.Lost {
		return nil
	}

	expected := r.Group().NewPoint()
	for _, i := range r.Helpers {
		expected = expected.Add(r.Commitments[i][msg.From])
	}
	if !body.Sigma.ActOnBase().Equal(expected) {
		return errors.WithStack(errSigma)
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round2) StoreMessage(msg round.Message) error {
	if r.SelfID() == r.Lost {
		r.Sigmas[msg.From] = msg.Content.(*message2).Sigma
	}
	return nil
}

// Finalize implements round.Round
//
// - the lost party sets x = ∑ⱼ σⱼ and validates its restored config.
//
// Helpers output their config unchanged.
func (r *round2) Finalize(chan<- *round.Message) (round.Session, error) {
	if r.SelfID() != r.Lost {
		return r.ResultRound(r.Config), nil
	}

	secret := r.Group().NewScalar()
	for _, j := range r.Helpers {
		secret.Add(r.Sigmas[j])
	}
	restored := *r.Config
	restored.ECDSA = secret
	if err := restored.Validate(); err != nil {
		return r.AbortRound(errors.WithStack(err)), nil
	}
	return r.ResultRound(&restored), nil
}

// RoundNumber implements round.Content.
func (message2) RoundNumber() round.Number { return 1 }

// MessageContent implements round.Round.
func (r *round2) MessageContent() round.Content {
	return &message2{Sigma: r.Group().NewScalar()}
}

// BroadcastContent implements round.BroadcastRound.
func (round2) BroadcastContent() round.BroadcastContent { return nil }

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }
