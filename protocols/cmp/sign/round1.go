package sign

import (
	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	zkenc "github.com/taurusgroup/cmp-ecdsa/pkg/zk/enc"
	zklogstar "github.com/taurusgroup/cmp-ecdsa/pkg/zk/logstar"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round0

	// K[j] = Kⱼ = encⱼ(kⱼ)
	K map[party.ID]*paillier.Ciphertext
	// G[j] = Gⱼ = encⱼ(γⱼ)
	G map[party.ID]*paillier.Ciphertext

	// BigGammaShare = Γᵢ = [γᵢ]•G
	BigGammaShare curve.Point

	// GammaShare = γᵢ <- 𝔽
	GammaShare curve.Scalar
	// KShare = kᵢ  <- 𝔽
	KShare curve.Scalar

	// KNonce = ρᵢ <- ℤₙ
	// used to encrypt Kᵢ = Encᵢ(kᵢ)
	KNonce *saferith.Nat
	// GNonce = νᵢ <- ℤₙ
	// used to encrypt Gᵢ = Encᵢ(γᵢ)
	GNonce *saferith.Nat
}

type broadcast0 struct {
	// Sending K and G must be done through reliable broadcast
	round.ReliableBroadcastContent
	K, G *paillier.Ciphertext
}

type message0 struct {
	ProofEnc *zkenc.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - store Kⱼ, Gⱼ.
func (r *round1) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast0)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if body.K == nil || body.G == nil {
		return errors.WithStack(round.ErrNilContent)
	}
	if !r.Paillier[from].ValidateCiphertexts(body.K, body.G) {
		return errors.WithStack(errCiphertext)
	}

	r.K[from] = body.K
	r.G[from] = body.G
	return r.Transcript.record(r.Number(), from, StatementEncryptedShares, body, nil)
}

// VerifyMessage implements round.Round.
//
// - verify zkenc(Kⱼ).
func (r *round1) VerifyMessage(msg round.Message) error {
	from, to := msg.From, msg.To
	body, ok := msg.Content.(*message0)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if to != r.SelfID() {
		return errors.WithStack(round.ErrUnexpectedSender)
	}
	if body.ProofEnc == nil {
		return errors.WithStack(round.ErrNilContent)
	}

	if !body.ProofEnc.Verify(r.Group(), r.HashForID(from), r.encPublic(from)) {
		return errors.WithStack(errEncProof)
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(msg round.Message) error {
	from, body := msg.From, msg.Content.(*message0)
	return r.Transcript.record(r.Number(), from, StatementEnc, body.ProofEnc,
		checkEnc(r.Group(), r.HashForID(from), r.encPublic(from)))
}

func (r *round1) encPublic(from party.ID) zkenc.Public {
	return zkenc.Public{
		K:      r.K[from],
		Prover: r.Paillier[from],
		Aux:    r.Pedersen[r.SelfID()],
	}
}

// Finalize implements round.Round
//
// - run the sender's side of both MtA with every party, for γᵢ and xᵢ
// - prove that Gᵢ encrypts the discrete log of Γᵢ
// - broadcast Γᵢ and the Delta MtA ciphertexts Dⱼᵢ.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	otherIDs := r.OtherPartyIDs()
	type mtaOut struct {
		message   *message1
		DeltaBeta *saferith.Int
		ChiBeta   *saferith.Int
	}
	mtaOuts := r.Pool.Parallelize(len(otherIDs), func(i int) interface{} {
		j := otherIDs[i]

		DeltaBeta, DeltaMtA := proveAffG(r.Group(), r.HashForID(r.SelfID()),
			curve.MakeInt(r.GammaShare), r.BigGammaShare, r.K[j],
			r.SecretPaillier, r.Paillier[j], r.Pedersen[j])
		ChiBeta, ChiMtA := proveAffG(r.Group(), r.HashForID(r.SelfID()),
			curve.MakeInt(r.SecretECDSA), r.ECDSA[r.SelfID()], r.K[j],
			r.SecretPaillier, r.Paillier[j], r.Pedersen[j])

		proof := zklogstar.NewProof(r.Group(), r.HashForID(r.SelfID()), zklogstar.Public{
			C:      r.G[r.SelfID()],
			X:      r.BigGammaShare,
			Prover: r.Paillier[r.SelfID()],
			Aux:    r.Pedersen[j],
		}, zklogstar.Private{
			X:   curve.MakeInt(r.GammaShare),
			Rho: r.GNonce,
		})

		return mtaOut{
			message: &message1{
				DeltaMtA: DeltaMtA,
				ChiMtA:   ChiMtA,
				ProofLog: proof,
			},
			DeltaBeta: DeltaBeta,
			ChiBeta:   ChiBeta,
		}
	})

	ChiShareBeta := make(map[party.ID]*saferith.Int, len(otherIDs))
	DeltaShareBeta := make(map[party.ID]*saferith.Int, len(otherIDs))
	DeltaCiphertext := make(map[party.ID]*paillier.Ciphertext, len(otherIDs))
	for idx, mtaOutRaw := range mtaOuts {
		j := otherIDs[idx]
		m := mtaOutRaw.(mtaOut)
		DeltaShareBeta[j] = m.DeltaBeta
		ChiShareBeta[j] = m.ChiBeta
		DeltaCiphertext[j] = m.message.DeltaMtA.D
	}

	if err := r.BroadcastMessage(out, &broadcast1{
		BigGammaShare:   r.BigGammaShare,
		DeltaCiphertext: DeltaCiphertext,
	}); err != nil {
		return r, err
	}
	for idx, mtaOutRaw := range mtaOuts {
		if err := r.SendMessage(out, mtaOutRaw.(mtaOut).message, otherIDs[idx]); err != nil {
			return r, err
		}
	}

	return &round2{
		round1:          r,
		BigGammaShares:  map[party.ID]curve.Point{r.SelfID(): r.BigGammaShare},
		DeltaShareBeta:  DeltaShareBeta,
		ChiShareBeta:    ChiShareBeta,
		DeltaShareAlpha: make(map[party.ID]curve.Scalar, len(otherIDs)),
		ChiShareAlpha:   make(map[party.ID]curve.Scalar, len(otherIDs)),
		DeltaCiphertext: map[party.ID]map[party.ID]*paillier.Ciphertext{r.SelfID(): DeltaCiphertext},
	}, nil
}

// RoundNumber implements round.Content.
func (message0) RoundNumber() round.Number { return 0 }

// RoundNumber implements round.Content.
func (broadcast0) RoundNumber() round.Number { return 0 }

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return &message0{} }

// BroadcastContent implements round.BroadcastRound.
func (round1) BroadcastContent() round.BroadcastContent { return &broadcast0{} }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
