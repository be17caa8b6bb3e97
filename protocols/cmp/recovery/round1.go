package recovery

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round0

	// Commitments[i][j] = δᵢⱼ⋅G
	Commitments map[party.ID]map[party.ID]curve.Point

	// Deltas[i] = δᵢⱼ, where j is this party
	Deltas map[party.ID]curve.Scalar
}

type broadcast1 struct {
	round.ReliableBroadcastContent
	// Commitments[j] = δᵢⱼ⋅G, empty when sent by the lost party
	Commitments map[party.ID]*curve.MarshallablePoint
}

type message1 struct {
	// Delta = δᵢⱼ, or zero when the sender or the receiver is the lost party
	Delta curve.Scalar
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - check that ∑ⱼ δᵢⱼ⋅G = ζᵢ⋅Xᵢ.
func (r *round1) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast1)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}

	if from == r.Lost {
		if len(body.Commitments) != 0 {
			return errors.WithStack(errCommitments)
		}
		return nil
	}
	if len(body.Commitments) != len(r.Helpers) {
		return errors.WithStack(errCommitments)
	}

	group := r.Group()
	commitments := make(map[party.ID]curve.Point, len(r.Helpers))
	sum := group.NewPoint()
	for _, j := range r.Helpers {
		c, ok := body.Commitments[j]
		if !ok || c == nil || c.Point == nil {
			return errors.WithStack(round.ErrNilContent)
		}
		commitments[j] = c.Point
		sum = sum.Add(c.Point)
	}

	zeta := polynomial.LagrangeAt(group, r.Helpers, r.Lost)[from]
	if !zeta.Act(r.Config.Public[from].ECDSA).Equal(sum) {
		return errors.WithStack(errCommitments)
	}
	r.Commitments[from] = commitments
	return nil
}

// VerifyMessage implements round.Round.
//
// - check that δᵢⱼ⋅G matches the commitment broadcast by i.
func (r *round1) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*message1)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if body.Delta == nil {
		return errors.WithStack(round.ErrNilContent)
	}
	if msg.From == r.Lost || r.SelfID() == r.Lost {
		return nil
	}
	if !body.Delta.ActOnBase().Equal(r.Commitments[msg.From][r.SelfID()]) {
		return errors.WithStack(errDelta)
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(msg round.Message) error {
	if msg.From == r.Lost || r.SelfID() == r.Lost {
		return nil
	}
	r.Deltas[msg.From] = msg.Content.(*message1).Delta
	return nil
}

// Finalize implements round.Round
//
// - compute σⱼ = ∑ᵢ δᵢⱼ and send it to the lost party.
//
// Every other pair of parties exchanges zero.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	self := r.SelfID()

	sigma := group.NewScalar()
	if self != r.Lost {
		for _, i := range r.Helpers {
			sigma.Add(r.Deltas[i])
		}
	}
	for _, j := range r.OtherPartyIDs() {
		content := &message2{Sigma: group.NewScalar()}
		if j == r.Lost {
			content.Sigma = sigma
		}
		if err := r.SendMessage(out, content, j); err != nil {
			return r, err
		}
	}

	return &round2{
		round1: r,
		Sigmas: make(map[party.ID]curve.Scalar, len(r.Helpers)),
	}, nil
}

// RoundNumber implements round.Content.
func (broadcast1) RoundNumber() round.Number { return 0 }

// RoundNumber implements round.Content.
func (message1) RoundNumber() round.Number { return 0 }

// MessageContent implements round.Round.
func (r *round1) MessageContent() round.Content {
	return &message1{Delta: r.Group().NewScalar()}
}

// BroadcastContent implements round.BroadcastRound.
func (round1) BroadcastContent() round.BroadcastContent { return &broadcast1{} }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
