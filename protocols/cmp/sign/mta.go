package sign

import (
	"crypto/rand"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	zkaffg "github.com/taurusgroup/cmp-ecdsa/pkg/zk/affg"
)

// mtaMessage is the sender's half of the multiplicative-to-additive share conversion.
type mtaMessage struct {
	// D = Dⱼᵢ = (aᵢ ⊙ Kⱼ) ⊕ Encⱼ(-βᵢⱼ;s)
	D *paillier.Ciphertext
	// F = Fⱼᵢ = Encᵢ(-βᵢⱼ;r)
	F *paillier.Ciphertext
	// Proof that D and F were computed with the discrete log of the sender's public share.
	Proof *zkaffg.Proof
}

// proveAffG runs the sender's side of MtA, where i holds aᵢ with Aᵢ = aᵢ⋅G,
// and Kⱼ = Encⱼ(bⱼ) was received from j.
//
// It returns βᵢⱼ, i's additive share of aᵢ⋅bⱼ, together with the message for j.
// The proof is salted with h and made for the verifier's Pedersen parameters.
func proveAffG(group curve.Curve, h *hash.Hash,
	senderSecretShare *saferith.Int, senderSecretSharePoint curve.Point, receiverEncryptedShare *paillier.Ciphertext,
	sender *paillier.SecretKey, receiver *paillier.PublicKey, verifier *pedersen.Parameters) (*saferith.Int, *mtaMessage) {
	D, F, S, R, BetaNeg := newMta(senderSecretShare, receiverEncryptedShare, sender, receiver)
	proof := zkaffg.NewProof(group, h, zkaffg.Public{
		Kv:       receiverEncryptedShare,
		Dv:       D,
		Fp:       F,
		Xp:       senderSecretSharePoint,
		Prover:   sender.PublicKey,
		Verifier: receiver,
		Aux:      verifier,
	}, zkaffg.Private{
		X: senderSecretShare,
		Y: BetaNeg,
		S: S,
		R: R,
	})
	Beta := BetaNeg.Clone().Neg(1)
	return Beta, &mtaMessage{D: D, F: F, Proof: proof}
}

// newMta samples βᵢⱼ and computes
//   - Dⱼᵢ = (aᵢ ⊙ Kⱼ) ⊕ Encⱼ(-βᵢⱼ;s)
//   - Fⱼᵢ = Encᵢ(-βᵢⱼ;r)
func newMta(senderSecretShare *saferith.Int, receiverEncryptedShare *paillier.Ciphertext,
	sender *paillier.SecretKey, receiver *paillier.PublicKey) (D, F *paillier.Ciphertext, S, R *saferith.Nat, BetaNeg *saferith.Int) {
	BetaNeg = sample.IntervalLPrime(rand.Reader)

	// Fⱼᵢ = Encᵢ(-βᵢⱼ;r)
	F, R = sender.Enc(BetaNeg)

	// Dⱼᵢ = (aᵢ ⊙ Kⱼ) ⊕ Encⱼ(-βᵢⱼ;s)
	D, S = receiver.Enc(BetaNeg)
	tmp := receiverEncryptedShare.Clone().Mul(receiver, senderSecretShare)
	D.Add(receiver, tmp)
	return
}

// verify checks the proof attached to m, where j sent m to i.
// Aⱼ is j's public share, and Kᵢ is i's encrypted share.
func (m *mtaMessage) verify(h *hash.Hash, Aj curve.Point, Ki *paillier.Ciphertext,
	sender, receiver *paillier.PublicKey, verifier *pedersen.Parameters) bool {
	if m == nil || m.Proof == nil || m.D == nil || m.F == nil {
		return false
	}
	if !receiver.ValidateCiphertexts(m.D) || !sender.ValidateCiphertexts(m.F) {
		return false
	}
	return m.Proof.Verify(h, zkaffg.Public{
		Kv:       Ki,
		Dv:       m.D,
		Fp:       m.F,
		Xp:       Aj,
		Prover:   sender,
		Verifier: receiver,
		Aux:      verifier,
	})
}

// share decrypts Dᵢⱼ to obtain αᵢⱼ = aⱼ⋅bᵢ - βⱼᵢ, reduced modulo the group order.
func (m *mtaMessage) share(group curve.Curve, secret *paillier.SecretKey) (curve.Scalar, error) {
	alpha, err := secret.Dec(m.D)
	if err != nil {
		return nil, err
	}
	return group.NewScalar().SetNat(alpha.Mod(group.Order())), nil
}
