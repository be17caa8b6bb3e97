package sign

import (
	"crypto/rand"

	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	zkenc "github.com/taurusgroup/cmp-ecdsa/pkg/zk/enc"
)

var _ round.Round = (*round0)(nil)

type round0 struct {
	*round.Helper

	// PublicKey = X = ∑ⱼ λⱼ⋅Xⱼ
	PublicKey curve.Point

	// SecretECDSA = λᵢ⋅xᵢ
	SecretECDSA    curve.Scalar
	SecretPaillier *paillier.SecretKey

	Paillier map[party.ID]*paillier.PublicKey
	Pedersen map[party.ID]*pedersen.Parameters
	// ECDSA[j] = λⱼ⋅Xⱼ
	ECDSA map[party.ID]curve.Point

	// Message is the digest being signed.
	Message []byte

	Transcript *Transcript
}

// VerifyMessage implements round.Round.
func (r *round0) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round0) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - sample kᵢ, γᵢ <- 𝔽,
// - Γᵢ = [γᵢ]⋅G
// - Gᵢ = Encᵢ(γᵢ;νᵢ)
// - Kᵢ = Encᵢ(kᵢ;ρᵢ)
// - broadcast (Kᵢ, Gᵢ), and send a proof that Kᵢ is well formed to every party.
func (r *round0) Finalize(out chan<- *round.Message) (round.Session, error) {
	// γᵢ <- 𝔽,
	// Γᵢ = [γᵢ]⋅G
	GammaShare, BigGammaShare := sample.ScalarPointPair(rand.Reader, r.Group())
	// Gᵢ = Encᵢ(γᵢ;νᵢ)
	G, GNonce := r.Paillier[r.SelfID()].Enc(curve.MakeInt(GammaShare))

	// kᵢ <- 𝔽,
	KShare := sample.Scalar(rand.Reader, r.Group())
	KShareInt := curve.MakeInt(KShare)
	// Kᵢ = Encᵢ(kᵢ;ρᵢ)
	K, KNonce := r.Paillier[r.SelfID()].Enc(KShareInt)

	if err := r.BroadcastMessage(out, &broadcast0{K: K, G: G}); err != nil {
		return r, err
	}

	otherIDs := r.OtherPartyIDs()
	proofs := r.Pool.Parallelize(len(otherIDs), func(i int) interface{} {
		j := otherIDs[i]
		return zkenc.NewProof(r.Group(), r.HashForID(r.SelfID()), zkenc.Public{
			K:      K,
			Prover: r.Paillier[r.SelfID()],
			Aux:    r.Pedersen[j],
		}, zkenc.Private{
			K:   KShareInt,
			Rho: KNonce,
		})
	})
	for i, j := range otherIDs {
		if err := r.SendMessage(out, &message0{ProofEnc: proofs[i].(*zkenc.Proof)}, j); err != nil {
			return r, err
		}
	}

	return &round1{
		round0:        r,
		K:             map[party.ID]*paillier.Ciphertext{r.SelfID(): K},
		G:             map[party.ID]*paillier.Ciphertext{r.SelfID(): G},
		BigGammaShare: BigGammaShare,
		GammaShare:    GammaShare,
		KShare:        KShare,
		KNonce:        KNonce,
		GNonce:        GNonce,
	}, nil
}

// MessageContent implements round.Round.
func (round0) MessageContent() round.Content { return nil }

// BroadcastContent implements round.BroadcastRound.
func (round0) BroadcastContent() round.BroadcastContent { return nil }

// StoreBroadcastMessage implements round.BroadcastRound.
func (round0) StoreBroadcastMessage(round.Message) error { return nil }

// Number implements round.Round.
func (round0) Number() round.Number { return 0 }
