package keygen

import (
	"crypto/rand"

	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/internal/types"
	"github.com/taurusgroup/cmp-ecdsa/pkg/hash"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ecdsa/pkg/paillier"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pedersen"
	zksch "github.com/taurusgroup/cmp-ecdsa/pkg/zk/sch"
)

var _ round.Round = (*round0)(nil)

type round0 struct {
	*round.Helper

	// PreviousSecretECDSA = sk'ᵢ
	// Contains the previous secret ECDSA key share which is being refreshed
	// Keygen:  sk'ᵢ = nil
	// Refresh: sk'ᵢ = sk'ᵢ
	PreviousSecretECDSA curve.Scalar

	// PreviousPublicSharesECDSA[j] = pk'ⱼ
	// Keygen:  pk'ⱼ = nil
	// Refresh: pk'ⱼ = pk'ⱼ
	PreviousPublicSharesECDSA map[party.ID]curve.Point

	// PreviousChainKey contains the chain key, if we're refreshing
	//
	// In that case, we will simply use the previous chain key at the very end.
	PreviousChainKey types.RID

	// VSSSecret = fᵢ(X)
	// Polynomial from which the new secret shares are computed.
	// Keygen:  fᵢ(0) = xⁱ
	// Refresh: fᵢ(0) = 0
	VSSSecret *polynomial.Polynomial
}

// VerifyMessage implements round.Round.
func (r *round0) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round0) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - sample Paillier (pᵢ, qᵢ)
// - sample Pedersen Nᵢ, sᵢ, tᵢ
// - sample aᵢ  <- 𝔽
// - set Aᵢ = aᵢ⋅G
// - compute Fᵢ(X) = fᵢ(X)⋅G
// - sample ridᵢ <- {0,1}ᵏ
// - sample cᵢ <- {0,1}ᵏ
// - commit to message.
func (r *round0) Finalize(out chan<- *round.Message) (round.Session, error) {
	// generate Paillier and Pedersen
	PaillierSecret := paillier.NewSecretKey(r.Pool)
	SelfPaillierPublic := PaillierSecret.PublicKey
	SelfPedersenPublic, PedersenSecret := PaillierSecret.GeneratePedersen()

	// save our own share already so we are consistent with what we receive from others
	SelfShare := r.VSSSecret.Evaluate(r.SelfID().Scalar(r.Group()))

	// set Fᵢ(X) = fᵢ(X)•G
	SelfVSSPolynomial := polynomial.NewPolynomialExponent(r.VSSSecret)

	// generate Schnorr randomness
	SchnorrRand := zksch.NewRandomness(rand.Reader, r.Group(), nil)

	// Sample RIDᵢ
	SelfRID, err := types.NewRID(rand.Reader)
	if err != nil {
		return r, errors.WithStack(errSampleRID)
	}
	chainKey, err := types.NewRID(rand.Reader)
	if err != nil {
		return r, errors.WithStack(errSampleRID)
	}

	// commit to data in message 2
	SelfCommitment, Decommitment, err := r.HashForID(r.SelfID()).Commit(
		SelfRID, chainKey, SelfVSSPolynomial, SchnorrRand.Commitment(),
		SelfPedersenPublic.N(), SelfPedersenPublic.S(), SelfPedersenPublic.T())
	if err != nil {
		return r, errors.WithStack(errCommit)
	}

	if err = r.BroadcastMessage(out, &broadcast1{Commitment: SelfCommitment}); err != nil {
		return r, err
	}

	return &round1{
		round0:             r,
		SelfShare:          SelfShare,
		PaillierSecret:     PaillierSecret,
		PedersenSecret:     PedersenSecret,
		SchnorrRand:        SchnorrRand,
		Decommitment:       Decommitment,
		Commitments:        map[party.ID]hash.Commitment{r.SelfID(): SelfCommitment},
		RIDs:               map[party.ID]types.RID{r.SelfID(): SelfRID},
		ChainKeys:          map[party.ID]types.RID{r.SelfID(): chainKey},
		VSSPolynomials:     map[party.ID]*polynomial.Exponent{r.SelfID(): SelfVSSPolynomial},
		SchnorrCommitments: map[party.ID]*zksch.Commitment{r.SelfID(): SchnorrRand.Commitment()},
		PaillierPublic:     map[party.ID]*paillier.PublicKey{r.SelfID(): SelfPaillierPublic},
		Pedersen:           map[party.ID]*pedersen.Parameters{r.SelfID(): SelfPedersenPublic},
	}, nil
}

// PreviousSecretECDSA is nil when this round starts a keygen.
func (r *round0) isRefresh() bool { return r.PreviousSecretECDSA != nil }

// MessageContent implements round.Round.
func (round0) MessageContent() round.Content { return nil }

// BroadcastContent implements round.BroadcastRound.
func (round0) BroadcastContent() round.BroadcastContent { return nil }

// StoreBroadcastMessage implements round.BroadcastRound.
func (round0) StoreBroadcastMessage(round.Message) error { return nil }

// Number implements round.Round.
func (round0) Number() round.Number { return 0 }
