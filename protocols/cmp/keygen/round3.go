package keygen

import (
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	zkmod "github.com/taurusgroup/cmp-ecdsa/pkg/zk/mod"
	zkprm "github.com/taurusgroup/cmp-ecdsa/pkg/zk/prm"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp/config"
)

var _ round.Round = (*round3)(nil)

type round3 struct {
	*round2

	// RID = ⊕ⱼ RIDⱼ
	// Random ID generated by taking the XOR of all ridᵢ
	RID types.RID
	// ChainKey is a sequence of random bytes agreed upon together
	ChainKey types.RID

	// ShareReceived[j] = xʲᵢ
	// share received from party j
	ShareReceived map[party.ID]curve.Scalar
}

type message3 struct {
	// Share = Encᵢ(x) is the encryption of the receivers share
	Share *paillier.Ciphertext
}

type broadcast3 struct {
	round.NormalBroadcastContent
	// Mod = proof that Nᵢ is a Paillier-Blum modulus
	Mod *zkmod.Proof
	// Prm = proof that sᵢ, tᵢ are correct Pedersen parameters for Nᵢ
	Prm *zkprm.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify Mod, Prm proof for N
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}

	// verify zkmod
	if !body.Mod.Verify(zkmod.Public{N: r.PaillierPublic[from].N()}, r.HashForID(from), r.Pool) {
		return errors.WithStack(errModProof)
	}

	// verify zkprm
	ped := r.Pedersen[from]
	if !body.Prm.Verify(zkprm.Public{N: ped.N(), S: ped.S(), T: ped.T()}, r.HashForID(from), r.Pool) {
		return errors.WithStack(errPrmProof)
	}

	return nil
}

// VerifyMessage implements round.Round.
//
// - check that the encrypted share is a valid ciphertext for our key.
func (r *round3) VerifyMessage(msg round.Message) error {
	to := msg.To
	body, ok := msg.Content.(*message3)
	if !ok || body == nil {
		return errors.WithStack(round.ErrInvalidContent)
	}

	// verify that the message was not intended for someone else
	if to != r.SelfID() {
		return errors.WithStack(round.ErrUnexpectedSender)
	}

	if !r.PaillierPublic[to].ValidateCiphertexts(body.Share) {
		return errors.WithStack(errShareDecrypt)
	}
	return nil
}

// StoreMessage implements round.Round.
//
// - decrypt the share xʲᵢ, and verify it against Fⱼ(X)
// - save xʲᵢ.
func (r *round3) StoreMessage(msg round.Message) error {
	from, body := msg.From, msg.Content.(*message3)
	share, err := r.decryptShare(body.Share)
	if err != nil {
		return err
	}

	// X == Fⱼ(i)
	ExpectedPublicShare := r.VSSPolynomials[from].Evaluate(r.SelfID().Scalar(r.Group()))
	if !share.ActOnBase().Equal(ExpectedPublicShare) {
		return errors.WithStack(errShare)
	}

	r.ShareReceived[from] = share
	return nil
}

func (r *round3) decryptShare(ct *paillier.Ciphertext) (curve.Scalar, error) {
	plaintext, err := r.PaillierSecret.Dec(ct)
	if err != nil {
		return nil, errors.WithStack(errShareDecrypt)
	}
	return r.Group().NewScalar().SetNat(plaintext.Mod(r.Group().Order())), nil
}

// Finalize implements round.Round
//
// - sum of all received shares
// - compute group public key and individual public keys
// - bind the new config to the transcript
// - create proof of knowledge of secret.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	// add all shares to our secret
	UpdatedSecretECDSA := r.Group().NewScalar()
	if r.isRefresh() {
		UpdatedSecretECDSA.Set(r.PreviousSecretECDSA)
	}
	for _, j := range r.PartyIDs() {
		UpdatedSecretECDSA.Add(r.ShareReceived[j])
	}

	// [F₁(X), …, Fₙ(X)]
	ShamirPublicPolynomials := make([]*polynomial.Exponent, 0, len(r.VSSPolynomials))
	for _, j := range r.PartyIDs() {
		ShamirPublicPolynomials = append(ShamirPublicPolynomials, r.VSSPolynomials[j])
	}

	// ShamirPublicPolynomial = F(X) = ∑Fⱼ(X)
	ShamirPublicPolynomial, err := polynomial.Sum(ShamirPublicPolynomials)
	if err != nil {
		return r, err
	}

	// compute the new public key share Xⱼ = F(j) (+X'ⱼ if doing a refresh)
	PublicData := make(map[party.ID]*config.Public, len(r.PartyIDs()))
	for _, j := range r.PartyIDs() {
		PublicECDSAShare := ShamirPublicPolynomial.Evaluate(j.Scalar(r.Group()))
		if r.isRefresh() {
			PublicECDSAShare = PublicECDSAShare.Add(r.PreviousPublicSharesECDSA[j])
		}
		PublicData[j] = &config.Public{
			ECDSA:    PublicECDSAShare,
			Paillier: r.PaillierPublic[j],
			Pedersen: r.Pedersen[j],
		}
	}

	UpdatedConfig := &config.Config{
		Group:     r.Group(),
		ID:        r.SelfID(),
		Threshold: r.Threshold(),
		ECDSA:     UpdatedSecretECDSA,
		Paillier:  r.PaillierSecret,
		RID:       r.RID.Copy(),
		ChainKey:  r.ChainKey.Copy(),
		Public:    PublicData,
	}

	// write new ssid to hash, to bind the Schnorr proof to this new config
	// Write SSID, selfID to temporary hash
	h := r.Hash()
	_ = h.WriteAny(UpdatedConfig, r.SelfID())

	proof := r.SchnorrRand.Prove(h, PublicData[r.SelfID()].ECDSA, UpdatedSecretECDSA, nil)

	// send to all
	err = r.BroadcastMessage(out, &broadcast4{SchnorrResponse: proof})
	if err != nil {
		return r, err
	}

	return &round4{
		round3:        r,
		UpdatedConfig: UpdatedConfig,
	}, nil
}

// RoundNumber implements round.Content.
func (message3) RoundNumber() round.Number { return 2 }

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 2 }

// MessageContent implements round.Round.
func (round3) MessageContent() round.Content {
	return &message3{}
}

// BroadcastContent implements round.BroadcastRound.
func (round3) BroadcastContent() round.BroadcastContent { return &broadcast3{} }

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }
