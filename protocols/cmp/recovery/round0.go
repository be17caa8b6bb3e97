package recovery

import (
	"crypto/rand"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

var _ round.Round = (*round0)(nil)

type round0 struct {
	*round.Helper

	// Config is this party's config. For the lost party, Config.ECDSA is ignored.
	Config *config.Config

	// Helpers are the parties whose shares are used, and Lost is the party whose share is restored.
	Helpers party.IDSlice
	Lost    party.ID
}

// VerifyMessage implements round.Round.
func (r *round0) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round0) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - compute ζᵢ, the Lagrange coefficient of i at the lost party over the helpers
// - sample δᵢⱼ for every helper j, such that ∑ⱼ δᵢⱼ = ζᵢ⋅xᵢ
// - broadcast δᵢⱼ⋅G, and send δᵢⱼ to j.
//
// The lost party broadcasts no commitment, and sends zero to every helper.
func (r *round0) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	self := r.SelfID()

	next := &round1{
		round0:      r,
		Commitments: make(map[party.ID]map[party.ID]curve.Point, len(r.Helpers)),
		Deltas:      make(map[party.ID]curve.Scalar, len(r.Helpers)),
	}

	if self == r.Lost {
		if err := r.BroadcastMessage(out, &broadcast1{
			Commitments: map[party.ID]*curve.MarshallablePoint{},
		}); err != nil {
			return r, err
		}
		for _, j := range r.OtherPartyIDs() {
			if err := r.SendMessage(out, &message1{Delta: group.NewScalar()}, j); err != nil {
				return r, err
			}
		}
		return next, nil
	}

	zeta := polynomial.LagrangeAt(group, r.Helpers, r.Lost)[self]
	// remainder = ζᵢ⋅xᵢ - ∑ δᵢⱼ
	remainder := group.NewScalar().Set(zeta).Mul(r.Config.ECDSA)

	deltas := make(map[party.ID]curve.Scalar, len(r.Helpers))
	commitments := make(map[party.ID]curve.Point, len(r.Helpers))
	wire := make(map[party.ID]*curve.MarshallablePoint, len(r.Helpers))
	for i, j := range r.Helpers {
		delta := remainder
		if i < len(r.Helpers)-1 {
			delta = sample.Scalar(rand.Reader, group)
			remainder.Sub(delta)
		}
		deltas[j] = delta
		commitments[j] = delta.ActOnBase()
		wire[j] = curve.NewMarshallablePoint(commitments[j])
	}

	if err := r.BroadcastMessage(out, &broadcast1{Commitments: wire}); err != nil {
		return r, err
	}
	for _, j := range r.OtherPartyIDs() {
		delta := group.NewScalar()
		if j != r.Lost {
			delta = deltas[j]
		}
		if err := r.SendMessage(out, &message1{Delta: delta}, j); err != nil {
			return r, err
		}
	}

	next.Commitments[self] = commitments
	next.Deltas[self] = deltas[self]
	return next, nil
}

// MessageContent implements round.Round.
func (round0) MessageContent() round.Content { return nil }

// BroadcastContent implements round.BroadcastRound.
func (round0) BroadcastContent() round.BroadcastContent { return nil }

// Number implements round.Round.
func (round0) Number() round.Number { return 0 }
