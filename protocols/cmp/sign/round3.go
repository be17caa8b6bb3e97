package sign

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	zklogstar "github.com/taurusgroup/cmp-ecdsa/pkg/zk/logstar"
)

var _ round.Round = (*round3)(nil)

type round3 struct {
	*round2
	// DeltaShares[j] = δⱼ
	DeltaShares map[party.ID]curve.Scalar

	// BigDeltaShares[j] = Δⱼ = [kⱼ]•Γ
	BigDeltaShares map[party.ID]curve.Point

	// Gamma = ∑ᵢ Γᵢ
	Gamma curve.Point

	// ChiShare = χᵢ
	ChiShare curve.Scalar
}

type broadcast2 struct {
	round.NormalBroadcastContent
	// DeltaShare = δⱼ
	DeltaShare curve.Scalar
	// BigDeltaShare = Δⱼ = [kⱼ]•Γ
	BigDeltaShare curve.Point
}

type message2 struct {
	// ProofLog proves that Δⱼ = [kⱼ]•Γ, where kⱼ is the plaintext of Kⱼ
	ProofLog *zklogstar.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - store δⱼ, Δⱼ.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if body.DeltaShare == nil || body.BigDeltaShare == nil {
		return errors.WithStack(round.ErrNilContent)
	}
	r.DeltaShares[msg.From] = body.DeltaShare
	r.BigDeltaShares[msg.From] = body.BigDeltaShare
	return r.Transcript.record(r.Number(), msg.From, StatementDeltaShare, body, nil)
}

// VerifyMessage implements round.Round.
//
// - verify Π(log*)(Kⱼ, Δⱼ, Γ).
func (r *round3) VerifyMessage(msg round.Message) error {
	from, to := msg.From, msg.To
	body, ok := msg.Content.(*message2)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if to != r.SelfID() {
		return errors.WithStack(round.ErrUnexpectedSender)
	}
	if body.ProofLog == nil {
		return errors.WithStack(round.ErrNilContent)
	}

	if !body.ProofLog.Verify(r.HashForID(from), r.deltaPublic(from)) {
		return errors.WithStack(errLogDelta)
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round3) StoreMessage(msg round.Message) error {
	from, body := msg.From, msg.Content.(*message2)
	return r.Transcript.record(r.Number(), from, StatementLogDelta, body.ProofLog,
		checkLogStar(r.Group(), r.HashForID(from), r.deltaPublic(from)))
}

func (r *round3) deltaPublic(from party.ID) zklogstar.Public {
	return zklogstar.Public{
		C:      r.K[from],
		X:      r.BigDeltaShares[from],
		G:      r.Gamma,
		Prover: r.Paillier[from],
		Aux:    r.Pedersen[r.SelfID()],
	}
}

// Finalize implements round.Round
//
// - set δ = ∑ⱼ δⱼ
// - set Δ = ∑ⱼ Δⱼ
// - verify Δ = [δ]G, or reveal this run's secrets to find who broadcast a wrong δⱼ
// - compute σᵢ = rχᵢ + kᵢm.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	// δ = ∑ⱼ δⱼ
	// Δ = ∑ⱼ Δⱼ
	Delta := r.Group().NewScalar()
	BigDelta := r.Group().NewPoint()
	for _, j := range r.PartyIDs() {
		Delta.Add(r.DeltaShares[j])
		BigDelta = BigDelta.Add(r.BigDeltaShares[j])
	}

	// Δ == [δ]G
	if !Delta.ActOnBase().Equal(BigDelta) {
		return r.startAbort(out)
	}
	if Delta.IsZero() {
		return r.AbortRound(errors.WithStack(errZeroDelta)), nil
	}

	deltaInv := r.Group().NewScalar().Set(Delta).Invert() // δ⁻¹
	BigR := deltaInv.Act(r.Gamma)                         // R = [δ⁻¹] Γ
	R := BigR.XScalar()                                   // r = R|ₓ

	// km = Hash(m)⋅kᵢ
	km := curve.FromHash(r.Group(), r.Message)
	km.Mul(r.KShare)

	// σᵢ = rχᵢ + kᵢm
	SigmaShare := r.Group().NewScalar().Set(R).Mul(r.ChiShare).Add(km)

	if err := r.BroadcastMessage(out, &broadcast3{SigmaShare: SigmaShare}); err != nil {
		return r, err
	}
	return &round4{
		round3:      r,
		SigmaShares: map[party.ID]curve.Scalar{r.SelfID(): SigmaShare},
		Delta:       Delta,
		BigDelta:    BigDelta,
		BigR:        BigR,
		R:           R,
	}, nil
}

// RoundNumber implements round.Content.
func (message2) RoundNumber() round.Number { return 2 }

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 2 }

// MessageContent implements round.Round.
func (r *round3) MessageContent() round.Content {
	return &message2{ProofLog: zklogstar.Empty(r.Group())}
}

// BroadcastContent implements round.BroadcastRound.
func (r *round3) BroadcastContent() round.BroadcastContent {
	return &broadcast2{
		DeltaShare:    r.Group().NewScalar(),
		BigDeltaShare: r.Group().NewPoint(),
	}
}

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }
