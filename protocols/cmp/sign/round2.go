package sign

import (
	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	zkaffg "github.com/taurusgroup/cmp-ecdsa/pkg/zk/affg"
	zklogstar "github.com/taurusgroup/cmp-ecdsa/pkg/zk/logstar"
)

var _ round.Round = (*round2)(nil)

type round2 struct {
	*round1

	// BigGammaShares[j] = Γⱼ = [γⱼ]•G
	BigGammaShares map[party.ID]curve.Point

	// DeltaShareAlpha[j] = αᵢⱼ
	DeltaShareAlpha map[party.ID]curve.Scalar
	// DeltaShareBeta[j] = βᵢⱼ
	DeltaShareBeta map[party.ID]*saferith.Int
	// ChiShareAlpha[j] = α̂ᵢⱼ
	ChiShareAlpha map[party.ID]curve.Scalar
	// ChiShareBeta[j] = β̂ᵢⱼ
	ChiShareBeta map[party.ID]*saferith.Int

	// DeltaCiphertext[j][l] = Dₗⱼ, the Delta MtA ciphertext j sent to l
	DeltaCiphertext map[party.ID]map[party.ID]*paillier.Ciphertext
}

type broadcast1 struct {
	// Every party must see the same Dₗⱼ to identify a culprit after an inconsistent Δ
	round.ReliableBroadcastContent
	// BigGammaShare = Γⱼ
	BigGammaShare curve.Point
	// DeltaCiphertext[l] = Dₗⱼ
	DeltaCiphertext map[party.ID]*paillier.Ciphertext
}

type message1 struct {
	// DeltaMtA is the MtA message for γⱼ⋅kᵢ
	DeltaMtA *mtaMessage
	// ChiMtA is the MtA message for xⱼ⋅kᵢ
	ChiMtA *mtaMessage
	// ProofLog proves that Gⱼ encrypts the discrete log of Γⱼ
	ProofLog *zklogstar.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - store Γⱼ and Dₗⱼ.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast1)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if body.BigGammaShare == nil || body.BigGammaShare.IsIdentity() || body.DeltaCiphertext == nil {
		return errors.WithStack(round.ErrNilContent)
	}
	for _, l := range r.PartyIDs() {
		if l == from {
			continue
		}
		if !r.Paillier[l].ValidateCiphertexts(body.DeltaCiphertext[l]) {
			return errors.WithStack(errCiphertext)
		}
	}
	r.BigGammaShares[from] = body.BigGammaShare
	r.DeltaCiphertext[from] = body.DeltaCiphertext
	return r.Transcript.record(r.Number(), from, StatementMtACiphertexts, body, nil)
}

// VerifyMessage implements round.Round.
//
// - verify zkaffg for both MtA, and zklog* for Gⱼ.
func (r *round2) VerifyMessage(msg round.Message) error {
	from, to := msg.From, msg.To
	body, ok := msg.Content.(*message1)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if to != r.SelfID() {
		return errors.WithStack(round.ErrUnexpectedSender)
	}
	if body.DeltaMtA == nil || body.ChiMtA == nil || body.ProofLog == nil {
		return errors.WithStack(round.ErrNilContent)
	}

	if !r.Paillier[to].ValidateCiphertexts(body.DeltaMtA.D) || !body.DeltaMtA.D.Equal(r.DeltaCiphertext[from][to]) {
		return errors.WithStack(errBroadcastMismatch)
	}
	if !r.verifyDelta(from, body.DeltaMtA) {
		return errors.WithStack(errAffgDelta)
	}
	if !r.verifyChi(from, body.ChiMtA) {
		return errors.WithStack(errAffgChi)
	}
	if !body.ProofLog.Verify(r.HashForID(from), r.logPublic(from)) {
		return errors.WithStack(errLogGamma)
	}
	return nil
}

// StoreMessage implements round.Round.
//
// - decrypt αᵢⱼ and α̂ᵢⱼ.
func (r *round2) StoreMessage(msg round.Message) error {
	from, body := msg.From, msg.Content.(*message1)

	DeltaShareAlpha, err := body.DeltaMtA.share(r.Group(), r.SecretPaillier)
	if err != nil {
		return errors.WithStack(errDecrypt)
	}
	ChiShareAlpha, err := body.ChiMtA.share(r.Group(), r.SecretPaillier)
	if err != nil {
		return errors.WithStack(errDecrypt)
	}
	r.DeltaShareAlpha[from] = DeltaShareAlpha
	r.ChiShareAlpha[from] = ChiShareAlpha

	var (
		group  = r.Group()
		number = r.Number()
		self   = r.SelfID()
	)
	if err = r.Transcript.record(number, from, StatementAffgDelta, body.DeltaMtA,
		checkMtA(group, r.HashForID(from), r.BigGammaShares[from], r.K[self], r.Paillier[from], r.Paillier[self], r.Pedersen[self])); err != nil {
		return err
	}
	if err = r.Transcript.record(number, from, StatementAffgChi, body.ChiMtA,
		checkMtA(group, r.HashForID(from), r.ECDSA[from], r.K[self], r.Paillier[from], r.Paillier[self], r.Pedersen[self])); err != nil {
		return err
	}
	return r.Transcript.record(number, from, StatementLogGamma, body.ProofLog,
		checkLogStar(group, r.HashForID(from), r.logPublic(from)))
}

func (r *round2) verifyDelta(from party.ID, m *mtaMessage) bool {
	return m.verify(r.HashForID(from), r.BigGammaShares[from], r.K[r.SelfID()],
		r.Paillier[from], r.Paillier[r.SelfID()], r.Pedersen[r.SelfID()])
}

func (r *round2) verifyChi(from party.ID, m *mtaMessage) bool {
	return m.verify(r.HashForID(from), r.ECDSA[from], r.K[r.SelfID()],
		r.Paillier[from], r.Paillier[r.SelfID()], r.Pedersen[r.SelfID()])
}

func (r *round2) logPublic(from party.ID) zklogstar.Public {
	return zklogstar.Public{
		C:      r.G[from],
		X:      r.BigGammaShares[from],
		Prover: r.Paillier[from],
		Aux:    r.Pedersen[r.SelfID()],
	}
}

// Finalize implements round.Round
//
// - Γ = ∑ⱼ Γⱼ
// - Δᵢ = [kᵢ]Γ
// - δᵢ = γᵢ kᵢ + ∑ⱼ (αᵢⱼ + βᵢⱼ)
// - χᵢ = xᵢ kᵢ + ∑ⱼ (α̂ᵢⱼ + β̂ᵢⱼ)
// - broadcast (δᵢ, Δᵢ), and prove to every party that Δᵢ is consistent with Kᵢ.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()

	// Γ = ∑ⱼ Γⱼ
	Gamma := group.NewPoint()
	for _, j := range r.PartyIDs() {
		Gamma = Gamma.Add(r.BigGammaShares[j])
	}

	// Δᵢ = [kᵢ]Γ
	BigDeltaShare := r.KShare.Act(Gamma)

	// δᵢ = γᵢ kᵢ
	DeltaShare := group.NewScalar().Set(r.GammaShare).Mul(r.KShare)
	// χᵢ = xᵢ kᵢ
	ChiShare := group.NewScalar().Set(r.SecretECDSA).Mul(r.KShare)
	for _, j := range r.OtherPartyIDs() {
		// δᵢ += αᵢⱼ + βᵢⱼ
		DeltaShare.Add(r.DeltaShareAlpha[j])
		DeltaShare.Add(group.NewScalar().SetNat(r.DeltaShareBeta[j].Mod(group.Order())))
		// χᵢ += α̂ᵢⱼ + β̂ᵢⱼ
		ChiShare.Add(r.ChiShareAlpha[j])
		ChiShare.Add(group.NewScalar().SetNat(r.ChiShareBeta[j].Mod(group.Order())))
	}

	if err := r.BroadcastMessage(out, &broadcast2{
		DeltaShare:    DeltaShare,
		BigDeltaShare: BigDeltaShare,
	}); err != nil {
		return r, err
	}

	otherIDs := r.OtherPartyIDs()
	proofs := r.Pool.Parallelize(len(otherIDs), func(i int) interface{} {
		j := otherIDs[i]
		return zklogstar.NewProof(group, r.HashForID(r.SelfID()), zklogstar.Public{
			C:      r.K[r.SelfID()],
			X:      BigDeltaShare,
			G:      Gamma,
			Prover: r.Paillier[r.SelfID()],
			Aux:    r.Pedersen[j],
		}, zklogstar.Private{
			X:   curve.MakeInt(r.KShare),
			Rho: r.KNonce,
		})
	})
	for i, j := range otherIDs {
		if err := r.SendMessage(out, &message2{ProofLog: proofs[i].(*zklogstar.Proof)}, j); err != nil {
			return r, err
		}
	}

	return &round3{
		round2:         r,
		DeltaShares:    map[party.ID]curve.Scalar{r.SelfID(): DeltaShare},
		BigDeltaShares: map[party.ID]curve.Point{r.SelfID(): BigDeltaShare},
		Gamma:          Gamma,
		ChiShare:       ChiShare,
	}, nil
}

// RoundNumber implements round.Content.
func (message1) RoundNumber() round.Number { return 1 }

// RoundNumber implements round.Content.
func (broadcast1) RoundNumber() round.Number { return 1 }

// MessageContent implements round.Round.
func (r *round2) MessageContent() round.Content {
	group := r.Group()
	return &message1{
		DeltaMtA: &mtaMessage{Proof: zkaffg.Empty(group)},
		ChiMtA:   &mtaMessage{Proof: zkaffg.Empty(group)},
		ProofLog: zklogstar.Empty(group),
	}
}

// BroadcastContent implements round.BroadcastRound.
func (r *round2) BroadcastContent() round.BroadcastContent {
	return &broadcast1{
		BigGammaShare: r.Group().NewPoint(),
	}
}

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }
