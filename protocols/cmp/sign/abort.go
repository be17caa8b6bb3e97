package sign

import (
	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/arith"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	zknth "github.com/taurusgroup/cmp-ecdsa/pkg/zk/nth"
)

var _ round.Round = (*abort)(nil)

// abort replaces round4 when Δ ≠ [δ]G.
// Every party reveals γⱼ, kⱼ and the plaintexts αⱼₗ of the Delta MtA ciphertexts it received,
// so that the δⱼ each party broadcast can be recomputed.
type abort struct {
	*round3

	// GammaShares[j] = γⱼ
	GammaShares map[party.ID]curve.Scalar
	// KShares[j] = kⱼ
	KShares map[party.ID]curve.Scalar
	// DeltaAlphas[j][l] = αⱼₗ
	DeltaAlphas map[party.ID]map[party.ID]curve.Scalar
}

type broadcastAbort struct {
	round.NormalBroadcastContent
	// GammaShare = γⱼ
	GammaShare *saferith.Int
	// KProof opens Kⱼ
	KProof *abortNth
	// DeltaProofs[l] opens Dⱼₗ, the ciphertext l sent to j
	DeltaProofs map[party.ID]*abortNth
}

// startAbort reveals the secrets of this run, and returns the round which collects the others'.
func (r *round3) startAbort(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	self := r.SelfID()
	otherIDs := r.OtherPartyIDs()

	KProof, err := proveNth(r.HashForID(self), r.SecretPaillier, r.K[self])
	if err != nil {
		return r, err
	}
	results := r.Pool.Parallelize(len(otherIDs), func(i int) interface{} {
		proof, err := proveNth(r.HashForID(self), r.SecretPaillier, r.DeltaCiphertext[otherIDs[i]][self])
		if err != nil {
			return err
		}
		return proof
	})

	DeltaProofs := make(map[party.ID]*abortNth, len(otherIDs))
	alphas := make(map[party.ID]curve.Scalar, len(otherIDs))
	for i, l := range otherIDs {
		proof, ok := results[i].(*abortNth)
		if !ok {
			return r, results[i].(error)
		}
		DeltaProofs[l] = proof
		alphas[l] = intToScalar(group, proof.Plaintext)
	}

	if err = r.BroadcastMessage(out, &broadcastAbort{
		GammaShare:  curve.MakeInt(r.GammaShare),
		KProof:      KProof,
		DeltaProofs: DeltaProofs,
	}); err != nil {
		return r, err
	}

	return &abort{
		round3:      r,
		GammaShares: map[party.ID]curve.Scalar{self: r.GammaShare},
		KShares:     map[party.ID]curve.Scalar{self: intToScalar(group, KProof.Plaintext)},
		DeltaAlphas: map[party.ID]map[party.ID]curve.Scalar{self: alphas},
	}, nil
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify that γⱼ is the discrete log of Γⱼ, and that kⱼ and αⱼₗ open Kⱼ and Dⱼₗ.
func (r *abort) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcastAbort)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}
	if body.GammaShare == nil || body.KProof == nil || body.DeltaProofs == nil {
		return errors.WithStack(round.ErrNilContent)
	}

	group := r.Group()
	opened := r.openedBy(from)
	if !body.verify(group, r.HashForID(from), r.Paillier[from], r.K[from], r.BigGammaShares[from], opened) {
		return errors.WithStack(errReveal)
	}

	alphas := make(map[party.ID]curve.Scalar, len(opened))
	for l := range opened {
		alphas[l] = intToScalar(group, body.DeltaProofs[l].Plaintext)
	}
	r.DeltaAlphas[from] = alphas
	r.GammaShares[from] = intToScalar(group, body.GammaShare)
	r.KShares[from] = intToScalar(group, body.KProof.Plaintext)

	return r.Transcript.record(r.Number(), from, StatementReveal, body,
		checkReveal(group, r.HashForID(from), r.Paillier[from], r.K[from], r.BigGammaShares[from], opened))
}

// openedBy returns the Delta MtA ciphertexts encrypted under j's key, indexed by their sender.
func (r *abort) openedBy(j party.ID) map[party.ID]*paillier.Ciphertext {
	opened := make(map[party.ID]*paillier.Ciphertext, r.N()-1)
	for _, l := range r.PartyIDs() {
		if l != j {
			opened[l] = r.DeltaCiphertext[l][j]
		}
	}
	return opened
}

// VerifyMessage implements round.Round.
func (abort) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (abort) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - recompute δⱼ = kⱼγⱼ + ∑ₗ (αⱼₗ + kₗγⱼ - αₗⱼ) for every other party
// - abort, blaming the parties whose broadcast δⱼ differs.
func (r *abort) Finalize(chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	var culprits []party.ID
	for _, j := range r.OtherPartyIDs() {
		// δⱼ = kⱼγⱼ
		delta := group.NewScalar().Set(r.KShares[j]).Mul(r.GammaShares[j])
		for _, l := range r.PartyIDs() {
			if l == j {
				continue
			}
			// αⱼₗ
			delta.Add(r.DeltaAlphas[j][l])
			// βⱼₗ = kₗγⱼ - αₗⱼ
			delta.Add(group.NewScalar().Set(r.KShares[l]).Mul(r.GammaShares[j]))
			delta.Sub(r.DeltaAlphas[l][j])
		}
		if !delta.Equal(r.DeltaShares[j]) {
			culprits = append(culprits, j)
		}
	}
	return r.AbortRound(errors.WithStack(errInconsistentDelta), culprits...), nil
}

// MessageContent implements round.Round.
func (abort) MessageContent() round.Content { return nil }

// RoundNumber implements round.Content.
func (broadcastAbort) RoundNumber() round.Number { return 3 }

// BroadcastContent implements round.BroadcastRound.
func (abort) BroadcastContent() round.BroadcastContent { return &broadcastAbort{} }

// Number implements round.Round.
func (abort) Number() round.Number { return 4 }

// verify checks a reveal sent by the owner of public, where opened[l] is the ciphertext l sent to it.
func (body *broadcastAbort) verify(group curve.Curve, h *hash.Hash, public *paillier.PublicKey,
	K *paillier.Ciphertext, BigGammaShare curve.Point, opened map[party.ID]*paillier.Ciphertext) bool {
	if body.GammaShare == nil || BigGammaShare == nil {
		return false
	}
	if !intToScalar(group, body.GammaShare).ActOnBase().Equal(BigGammaShare) {
		return false
	}
	if !body.KProof.Verify(h.Clone(), public, K) {
		return false
	}
	if len(body.DeltaProofs) != len(opened) {
		return false
	}
	for l, c := range opened {
		if !body.DeltaProofs[l].Verify(h.Clone(), public, c) {
			return false
		}
	}
	return true
}

func checkReveal(group curve.Curve, h *hash.Hash, public *paillier.PublicKey,
	K *paillier.Ciphertext, BigGammaShare curve.Point, opened map[party.ID]*paillier.Ciphertext) func([]byte) bool {
	return func(data []byte) bool {
		body := &broadcastAbort{}
		if err := cbor.Unmarshal(data, body); err != nil {
			return false
		}
		return body.verify(group, h, public, K, BigGammaShare, opened)
	}
}

// abortNth opens a Paillier ciphertext: it reveals the plaintext, and proves knowledge
// of the N-th root of what remains, without revealing the nonce itself.
type abortNth struct {
	Plaintext *saferith.Int
	// Nonce = ρᴺ (mod N²)
	Nonce *saferith.Nat
	Proof *zknth.Proof
}

func proveNth(hash *hash.Hash, secret *paillier.SecretKey, c *paillier.Ciphertext) (*abortNth, error) {
	plaintext, nonce, err := secret.DecWithRandomness(c)
	if err != nil {
		return nil, err
	}
	N := secret.N()
	hidden := secret.ModulusSquared().Exp(nonce, N.Nat())
	proof := zknth.NewProof(hash, zknth.Public{
		N: secret.PublicKey,
		R: hidden,
	}, zknth.Private{Rho: nonce})
	return &abortNth{
		Plaintext: plaintext,
		Nonce:     hidden,
		Proof:     proof,
	}, nil
}

// Verify checks that c = (1+N)ᵐ⋅Nonce (mod N²) where m = Plaintext, and that Nonce is an N-th power.
func (msg *abortNth) Verify(hash *hash.Hash, public *paillier.PublicKey, c *paillier.Ciphertext) bool {
	if msg == nil || msg.Plaintext == nil || msg.Proof == nil || c == nil {
		return false
	}
	NSquared := public.ModulusSquared()
	if !arith.IsValidNatModN(NSquared.Modulus, msg.Nonce) {
		return false
	}
	// EncWithNonce only accepts |m| ≤ (N-1)/2
	if msg.Plaintext.Abs().TrueLen() >= public.N().BitLen()-1 {
		return false
	}
	one := new(saferith.Nat).SetUint64(1)
	expected := public.EncWithNonce(msg.Plaintext, one).Nat()
	expected.ModMul(expected, msg.Nonce, NSquared.Modulus)
	if expected.Eq(c.Nat()) != 1 {
		return false
	}
	return msg.Proof.Verify(hash, zknth.Public{
		N: public,
		R: msg.Nonce,
	})
}

func intToScalar(group curve.Curve, n *saferith.Int) curve.Scalar {
	return group.NewScalar().SetNat(n.Mod(group.Order()))
}
